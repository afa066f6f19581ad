package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
)

type stubLookup struct {
	records map[string]*lookup.NutrientRecord
}

func (s stubLookup) SearchFood(ctx context.Context, name string) (*lookup.NutrientRecord, bool) {
	r, ok := s.records[name]
	return r, ok
}

func (s stubLookup) GetMultipleFoods(ctx context.Context, names []string) map[string]*lookup.NutrientRecord {
	out := map[string]*lookup.NutrientRecord{}
	for _, n := range names {
		if r, ok := s.records[n]; ok {
			out[n] = r
		}
	}
	return out
}

func (s stubLookup) CalculateMealNutrition(ctx context.Context, items []lookup.MealItem) lookup.MealNutrition {
	var out lookup.MealNutrition
	for _, it := range items {
		r, ok := s.records[it.Food]
		if !ok {
			out.NotFound = append(out.NotFound, it.Food)
			continue
		}
		n := r.Scale(it.QuantityG)
		out.Items = append(out.Items, lookup.MealItemNutrition{Food: it.Food, QuantityG: it.QuantityG, Nutrients: n})
		out.Totals.Calories += n.Calories
	}
	return out
}

func (s stubLookup) SuggestAlternatives(ctx context.Context, name string) []string {
	if name == "rice" {
		return []string{"quinoa", "sweet potato"}
	}
	return nil
}

func TestFoodService(t *testing.T) {
	svc := NewFoodService(testutil.Logger(t), stubLookup{records: map[string]*lookup.NutrientRecord{
		"rice": {Name: "rice", CaloriesPer100g: 130, CarbsG: 28, Source: lookup.SourceUSDA},
	}})
	ctx := context.Background()

	if rec, err := svc.Search(ctx, " rice "); err != nil || rec.Name != "rice" {
		t.Fatalf("Search: %v %+v", err, rec)
	}

	cases := []struct {
		name   string
		call   func() error
		status int
	}{
		{"empty search", func() error { _, err := svc.Search(ctx, " "); return err }, http.StatusBadRequest},
		{"unknown food", func() error { _, err := svc.Search(ctx, "dragonfruit"); return err }, http.StatusNotFound},
		{"empty meal", func() error { _, err := svc.MealNutrition(ctx, nil); return err }, http.StatusBadRequest},
		{"zero grams", func() error {
			_, err := svc.MealNutrition(ctx, []lookup.MealItem{{Food: "rice"}})
			return err
		}, http.StatusBadRequest},
		{"empty alternatives", func() error { _, err := svc.Alternatives(ctx, ""); return err }, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if status, _ := apierr.StatusOf(tc.call()); status != tc.status {
				t.Fatalf("status=%d want %d", status, tc.status)
			}
		})
	}

	meal, err := svc.MealNutrition(ctx, []lookup.MealItem{{Food: "rice", QuantityG: 200}, {Food: "tofu", QuantityG: 100}})
	if err != nil {
		t.Fatalf("MealNutrition: %v", err)
	}
	if meal.Totals.Calories != 260 || len(meal.NotFound) != 1 {
		t.Fatalf("meal = %+v", meal)
	}

	alts, err := svc.Alternatives(ctx, "beans")
	if err != nil || alts == nil || len(alts) != 0 {
		t.Fatalf("alternatives for unknown food should be an empty list: %v %v", err, alts)
	}
}
