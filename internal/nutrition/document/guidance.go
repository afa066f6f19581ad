package document

import (
	"fmt"
	"strings"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
)

const waterMlPerKg = 35

func guidance(p Patient, c *calc.Calculation) Guidance {
	g := Guidance{
		MealTiming: []string{
			"Café da manhã até 1 hora após acordar",
			"Intervalo de 2h30 a 3h30 entre as refeições",
			"Jantar pelo menos 2 horas antes de dormir",
		},
		PreparationTips: []string{
			"Prefira preparações grelhadas, assadas ou cozidas no vapor",
			"Pese os alimentos nas primeiras semanas para calibrar as porções",
			"Prepare marmitas para 2 ou 3 dias e mantenha na geladeira",
		},
	}

	if p.WeightKg > 0 {
		liters := p.WeightKg * waterMlPerKg / 1000
		g.Hydration = append(g.Hydration, fmt.Sprintf("Beba cerca de %.1f litros de água por dia (%d ml por kg)", liters, waterMlPerKg))
	} else {
		g.Hydration = append(g.Hydration, "Beba de 2 a 3 litros de água por dia")
	}
	g.Hydration = append(g.Hydration, "Aumente a ingestão de água em dias de treino ou calor")

	var tips []string
	if c != nil {
		switch c.Objective {
		case calc.ObjectiveLoseWeight:
			tips = append(tips, "Priorize proteínas e vegetais em todas as refeições principais para aumentar a saciedade")
		case calc.ObjectiveGainMuscle:
			tips = append(tips, "Distribua a proteína ao longo do dia e inclua uma refeição com carboidrato após o treino")
		default:
			tips = append(tips, "Mantenha a regularidade dos horários para estabilizar o apetite")
		}
		tips = append(tips, fmt.Sprintf("Sua meta diária é de aproximadamente %.0f kcal", c.DailyTargetKcal))
	}
	if len(p.Restrictions) > 0 {
		tips = append(tips, "Confira os rótulos para respeitar suas restrições: "+strings.Join(p.Restrictions, ", "))
	}
	if len(p.Allergies) > 0 {
		tips = append(tips, "Evite completamente alimentos com: "+strings.Join(p.Allergies, ", "))
	}
	if len(tips) == 0 {
		tips = []string{"Ajuste as porções com seu nutricionista conforme a evolução"}
	}
	g.PersonalizedTips = tips
	return g
}
