package consultation

import (
	"fmt"
	"strings"
)

const basePrompt = `Você é a nutricionista virtual da ShapeMateAI. Conduza uma consulta nutricional em português, com tom acolhedor e objetivo.
Faça no máximo duas perguntas por mensagem. Nunca invente valores nutricionais nem prescreva a dieta completa: ela é montada pelo sistema quando a consulta estiver completa.`

var phaseGoals = map[Phase]string{
	PhaseGreeting:              "Apresente-se e pergunte sobre a rotina de refeições do paciente.",
	PhaseEatingRoutine:         "Entenda a rotina alimentar: horários de acordar, refeições, lanches e sono.",
	PhaseFoodPreferences:       "Mapeie preferências e aversões alimentares, restrições, alergias, rotina de treino e trabalho, e orçamento.",
	PhaseDietPreviewGeneration: "A prévia do plano já foi apresentada. Tire dúvidas e, se o paciente concordar, oriente-o a escrever \"gerar dieta\".",
	PhaseDietGenerated:         "A dieta já foi gerada. Responda dúvidas sobre o plano sem alterá-lo.",
}

func systemPrompt(st State) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	fmt.Fprintf(&b, "\n\nEtapa atual: %s. %s", st.CurrentPhase, phaseGoals[st.CurrentPhase])

	u := st.UserData
	var known []string
	if u.Name != "" {
		known = append(known, "nome: "+u.Name)
	}
	if u.Age > 0 {
		known = append(known, fmt.Sprintf("idade: %d anos", u.Age))
	}
	if u.Gender != "" {
		known = append(known, "sexo: "+u.Gender)
	}
	if u.WeightKg > 0 {
		known = append(known, fmt.Sprintf("peso: %.1f kg", u.WeightKg))
	}
	if u.HeightCm > 0 {
		known = append(known, fmt.Sprintf("altura: %.0f cm", u.HeightCm))
	}
	if u.ActivityLevel != "" {
		known = append(known, "atividade: "+u.ActivityLevel)
	}
	if u.PrimaryObjective != "" {
		known = append(known, "objetivo: "+u.PrimaryObjective)
	}
	if len(u.Restrictions) > 0 {
		known = append(known, "restrições: "+strings.Join(u.Restrictions, ", "))
	}
	if len(u.Allergies) > 0 {
		known = append(known, "alergias: "+strings.Join(u.Allergies, ", "))
	}
	if len(known) > 0 {
		b.WriteString("\nDados já conhecidos do paciente: ")
		b.WriteString(strings.Join(known, "; "))
		b.WriteString(".")
	}
	if missing := missingProfile(u); len(missing) > 0 {
		b.WriteString("\nAinda faltam: ")
		b.WriteString(strings.Join(missing, ", "))
		b.WriteString(". Pergunte por eles ao longo da conversa.")
	}
	return b.String()
}

func missingProfile(u UserData) []string {
	var out []string
	if u.Age <= 0 {
		out = append(out, "idade")
	}
	if strings.TrimSpace(u.Gender) == "" {
		out = append(out, "sexo")
	}
	if u.WeightKg <= 0 {
		out = append(out, "peso")
	}
	if u.HeightCm <= 0 {
		out = append(out, "altura")
	}
	return out
}

func greeting(u UserData) string {
	name := ""
	if n := strings.TrimSpace(u.Name); n != "" {
		name = ", " + strings.Fields(n)[0]
	}
	return fmt.Sprintf("Olá%s! Sou a nutricionista virtual da ShapeMateAI e vou te ajudar a montar um plano alimentar personalizado. "+
		"Para começar, me conte como é a sua rotina: que horas você acorda, quais refeições costuma fazer e em que horários?", name)
}

const (
	generatedMessage = "Sua dieta está pronta! Confira o plano completo e, quando quiser, finalize para salvar e baixar o PDF."
	finalizedMessage = "Plano alimentar salvo com sucesso. O PDF já está disponível para download."
	// Apology is shown when a turn fails. The stored consultation is left
	// as it was so the user can send the same message again.
	Apology = "Desculpe, tive um problema para processar sua mensagem agora. Pode tentar novamente em instantes?"
)
