package document

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/yungbote/shapemate-backend/internal/nutrition/menu"
)

// ShoppingList totals the week's portions per food. Items are unique by
// lower-cased food name and ordered by category, then display name.
func ShoppingList(m menu.WeeklyMenu) []ShoppingItem {
	byKey := map[string]*ShoppingItem{}
	for _, day := range m.Days {
		for _, meal := range day.Meals {
			for _, f := range meal.Foods {
				key := strings.ToLower(strings.TrimSpace(f.Food))
				if key == "" {
					continue
				}
				it, ok := byKey[key]
				if !ok {
					it = &ShoppingItem{
						Item:        f.Food,
						DisplayName: DisplayName(f.Food),
						Category:    CategoryLabel(f.Category),
					}
					byKey[key] = it
				}
				it.WeeklyGrams += f.GramsG
			}
		}
	}

	out := make([]ShoppingItem, 0, len(byKey))
	for _, it := range byKey {
		it.WeeklyGrams = math.Round(it.WeeklyGrams)
		it.EstimatedWeeklyAmount = formatAmount(it.WeeklyGrams)
		out = append(out, *it)
	}
	rank := map[string]int{}
	for i, c := range CategoryOrder {
		rank[c] = i
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return rank[out[i].Category] < rank[out[j].Category]
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

func formatAmount(grams float64) string {
	if grams >= 1000 {
		return fmt.Sprintf("%.1f kg", grams/1000)
	}
	return fmt.Sprintf("%.0f g", grams)
}
