package lookup

import (
	"context"
	"math"
)

type MealItem struct {
	Food      string  `json:"food"`
	QuantityG float64 `json:"quantity_g"`
}

type NutrientTotals struct {
	Calories      float64 `json:"calories"`
	ProteinG      float64 `json:"protein_g"`
	CarbsG        float64 `json:"carbs_g"`
	FatG          float64 `json:"fat_g"`
	FiberG        float64 `json:"fiber_g"`
	SodiumMg      float64 `json:"sodium_mg"`
	SugarG        float64 `json:"sugar_g"`
	SaturatedFatG float64 `json:"saturated_fat_g"`
}

type MealItemNutrition struct {
	Food      string         `json:"food"`
	QuantityG float64        `json:"quantity_g"`
	Nutrients NutrientTotals `json:"nutrients"`
}

type MealNutrition struct {
	Items    []MealItemNutrition `json:"items"`
	Totals   NutrientTotals      `json:"totals"`
	NotFound []string            `json:"not_found,omitempty"`
}

// Scale returns the nutrients of grams of the food described by r.
func (r *NutrientRecord) Scale(grams float64) NutrientTotals {
	if r == nil || grams <= 0 {
		return NutrientTotals{}
	}
	f := grams / 100.0
	return NutrientTotals{
		Calories:      round1(r.CaloriesPer100g * f),
		ProteinG:      round1(r.ProteinG * f),
		CarbsG:        round1(r.CarbsG * f),
		FatG:          round1(r.FatG * f),
		FiberG:        round1(r.FiberG * f),
		SodiumMg:      round1(r.SodiumMg * f),
		SugarG:        round1(r.SugarG * f),
		SaturatedFatG: round1(r.SaturatedFatG * f),
	}
}

func (t *NutrientTotals) add(o NutrientTotals) {
	t.Calories = round1(t.Calories + o.Calories)
	t.ProteinG = round1(t.ProteinG + o.ProteinG)
	t.CarbsG = round1(t.CarbsG + o.CarbsG)
	t.FatG = round1(t.FatG + o.FatG)
	t.FiberG = round1(t.FiberG + o.FiberG)
	t.SodiumMg = round1(t.SodiumMg + o.SodiumMg)
	t.SugarG = round1(t.SugarG + o.SugarG)
	t.SaturatedFatG = round1(t.SaturatedFatG + o.SaturatedFatG)
}

func (c *client) CalculateMealNutrition(ctx context.Context, items []MealItem) MealNutrition {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Food)
	}
	found := c.GetMultipleFoods(ctx, names)
	byKey := make(map[string]*NutrientRecord, len(found))
	for name, rec := range found {
		byKey[CacheKey(name)] = rec
	}

	out := MealNutrition{Items: []MealItemNutrition{}}
	for _, it := range items {
		rec, ok := byKey[CacheKey(it.Food)]
		if !ok {
			out.NotFound = append(out.NotFound, it.Food)
			continue
		}
		n := rec.Scale(it.QuantityG)
		out.Items = append(out.Items, MealItemNutrition{Food: it.Food, QuantityG: it.QuantityG, Nutrients: n})
		out.Totals.add(n)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
