package assistant

import (
	"fmt"
	"strings"
)

const basePrompt = `Você é a assistente nutricional diária da ShapeMateAI. Responda em português, de forma prática e acolhedora.
Respeite a dieta ativa do paciente, suas restrições e alergias. Não prescreva uma nova dieta: para isso o paciente deve fazer uma nova consulta.`

const substitutionHelp = `Para ajudar com substituições, preciso saber qual alimento você quer trocar.

Por exemplo:
- "Posso trocar arroz por quinoa?"
- "O que usar no lugar de açúcar?"

Qual alimento você gostaria de substituir?`

const substitutionFallback = `Não encontrei substituições para os alimentos citados.

Algumas trocas comuns:
- Proteínas: frango, peixe, ovos e leguminosas
- Carboidratos: arroz, quinoa e batata-doce
- Gorduras boas: azeite, abacate e castanhas

Pode dizer qual alimento quer substituir?`

func systemPrompt(instruction string, u Context) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if instruction != "" {
		b.WriteString("\n\n")
		b.WriteString(instruction)
	}

	var known []string
	if u.Name != "" {
		known = append(known, "nome: "+u.Name)
	}
	if u.DailyTargetKcal > 0 {
		known = append(known, fmt.Sprintf("meta diária: %.0f kcal", u.DailyTargetKcal))
	}
	if len(u.Restrictions) > 0 {
		known = append(known, "restrições: "+strings.Join(u.Restrictions, ", "))
	}
	if len(u.Allergies) > 0 {
		known = append(known, "alergias: "+strings.Join(u.Allergies, ", "))
	}
	if len(u.DietShopping) > 0 {
		foods := make([]string, 0, len(u.DietShopping))
		for _, it := range u.DietShopping {
			foods = append(foods, it.DisplayName)
		}
		known = append(known, "alimentos da dieta: "+strings.Join(foods, ", "))
	}
	if len(u.Inventory) > 0 {
		known = append(known, "tem em casa: "+strings.Join(u.Inventory, ", "))
	}
	if len(known) == 0 {
		b.WriteString("\n\nO paciente ainda não tem dieta ativa nem perfil preenchido.")
	} else {
		b.WriteString("\n\nDados do paciente: ")
		b.WriteString(strings.Join(known, "; "))
		b.WriteString(".")
	}
	return b.String()
}
