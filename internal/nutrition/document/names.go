package document

import (
	"strings"

	"github.com/yungbote/shapemate-backend/internal/nutrition/menu"
)

var foodNames = map[string]string{
	"cooked white rice":      "Arroz branco cozido",
	"white rice":             "Arroz branco",
	"brown rice":             "Arroz integral",
	"cooked black beans":     "Feijão preto cozido",
	"black beans":            "Feijão preto",
	"grilled chicken breast": "Peito de frango grelhado",
	"chicken breast":         "Peito de frango",
	"sweet potato":           "Batata doce",
	"banana":                 "Banana",
	"boiled egg":             "Ovo cozido",
	"egg":                    "Ovo",
	"whole milk":             "Leite integral",
	"milk":                   "Leite",
	"oats":                   "Aveia",
	"broccoli":               "Brócolis",
	"spinach":                "Espinafre",
	"apple":                  "Maçã",
	"tomato":                 "Tomate",
	"olive oil":              "Azeite de oliva",
	"salmon":                 "Salmão",
	"greek yogurt":           "Iogurte grego",
	"yogurt":                 "Iogurte",
	"almonds":                "Amêndoas",
	"avocado":                "Abacate",
	"quinoa":                 "Quinoa",
	"whole wheat bread":      "Pão integral",
	"papaya":                 "Mamão",
	"lettuce":                "Alface",
	"carrot":                 "Cenoura",
	"tilapia":                "Tilápia",
	"ground beef":            "Carne moída",
	"cottage cheese":         "Queijo cottage",
}

// DisplayName returns the Portuguese name for a food when one is known and
// a title-cased name otherwise.
func DisplayName(food string) string {
	key := strings.ToLower(strings.TrimSpace(food))
	if pt, ok := foodNames[key]; ok {
		return pt
	}
	return titleCase(key)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

var categoryLabels = map[menu.Category]string{
	menu.CategoryProtein:      "Proteínas",
	menu.CategoryCarbohydrate: "Carboidratos",
	menu.CategoryDairy:        "Laticínios",
	menu.CategoryFruit:        "Frutas",
	menu.CategoryVegetable:    "Verduras e Legumes",
	menu.CategoryFatOther:     "Outros",
}

func CategoryLabel(c menu.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return "Outros"
}

// CategoryOrder is the order in which shopping list groups are shown.
var CategoryOrder = []string{"Proteínas", "Carboidratos", "Laticínios", "Frutas", "Verduras e Legumes", "Outros"}
