package document

import (
	"fmt"
	"strings"
)

// RenderPreviewText formats the first day of the menu and the targets as
// the chat message shown when the preview is ready.
func RenderPreviewText(d Diet) string {
	var b strings.Builder
	b.WriteString("Prévia do seu plano alimentar\n\n")

	if c := d.NutritionalCalculations; c != nil {
		fmt.Fprintf(&b, "Meta calórica diária: %.0f kcal (%s)\n", c.DailyTargetKcal, c.ObjectiveAdjustment)
		m := c.Macronutrients
		fmt.Fprintf(&b, "Proteínas: %.0f g (%d%%) | Carboidratos: %.0f g (%d%%) | Gorduras: %.0f g (%d%%)\n",
			m.Protein.GramsPerDay, m.Protein.Percentage,
			m.Carbohydrates.GramsPerDay, m.Carbohydrates.Percentage,
			m.Fat.GramsPerDay, m.Fat.Percentage)
		if c.ActivityDefaulted {
			b.WriteString("Nível de atividade não informado: usamos o nível moderado.\n")
		}
	}

	if len(d.WeeklyMenu.Days) > 0 {
		day := d.WeeklyMenu.Days[0]
		fmt.Fprintf(&b, "\nExemplo de cardápio (%s):\n", day.Name)
		for _, meal := range day.Meals {
			fmt.Fprintf(&b, "- %s (%.0f kcal): ", meal.Name, meal.TargetKcal)
			if len(meal.Foods) == 0 {
				b.WriteString("a definir\n")
				continue
			}
			parts := make([]string, 0, len(meal.Foods))
			for _, f := range meal.Foods {
				parts = append(parts, fmt.Sprintf("%s %.0f g", DisplayName(f.Food), f.GramsG))
			}
			b.WriteString(strings.Join(parts, ", "))
			b.WriteString("\n")
		}
	}

	if len(d.DataGaps) > 0 {
		b.WriteString("\nAlgumas informações ficaram incompletas e estão marcadas no plano.\n")
	}
	b.WriteString("\nSe estiver de acordo, escreva \"gerar dieta\" para finalizar o plano completo.")
	return b.String()
}
