package document

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/nutrition/menu"
)

func sampleInput(t *testing.T) Input {
	t.Helper()
	c, err := calc.Calculate(calc.Profile{WeightKg: 70, HeightCm: 175, AgeYears: 25, Gender: "male", ActivityLevel: "moderate", PrimaryObjective: "lose_weight"})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	records := map[string]*lookup.NutrientRecord{
		"chicken breast": {Name: "chicken breast", CaloriesPer100g: 165, ProteinG: 31, FatG: 3.6, Source: lookup.SourceUSDA},
		"brown rice":     {Name: "brown rice", CaloriesPer100g: 112, ProteinG: 2.3, CarbsG: 23.5, FatG: 0.8, Source: lookup.SourceUSDA},
		"broccoli":       {Name: "broccoli", CaloriesPer100g: 34, ProteinG: 2.8, CarbsG: 6.6, Source: lookup.SourceUSDA, MissingFields: []string{"sugar"}},
		"milk":           {Name: "milk", CaloriesPer100g: 61, ProteinG: 3.2, CarbsG: 4.8, FatG: 3.3, Source: lookup.SourceUSDA},
		"apple":          {Name: "apple", CaloriesPer100g: 52, ProteinG: 0.3, CarbsG: 13.8, Source: lookup.SourceUSDA},
	}
	return Input{
		Patient: Patient{
			Name: "Ana", Age: 25, Gender: "male", WeightKg: 70, HeightCm: 175,
			ActivityLevel: "moderate", PrimaryObjective: "lose_weight",
			Allergies: []string{"amendoim"},
		},
		Calculation:    &c,
		Menu:           menu.BuildWeeklyMenu(records, c),
		Records:        records,
		RequestedFoods: []string{"chicken breast", "brown rice", "broccoli", "milk", "apple", "dragonfruit"},
		GeneratedAt:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestBuildRoundTrip(t *testing.T) {
	d := Build(sampleInput(t))
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Diet
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(d, back) {
		t.Fatalf("round trip changed the document\nbefore: %+v\nafter:  %+v", d, back)
	}
	again, err := json.Marshal(back)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(raw) != string(again) {
		t.Fatalf("json not stable across round trip")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a, _ := json.Marshal(Build(sampleInput(t)))
	b, _ := json.Marshal(Build(sampleInput(t)))
	if string(a) != string(b) {
		t.Fatalf("Build is not deterministic")
	}
}

func TestBuildFillsDefaultsAndGaps(t *testing.T) {
	d := Build(Input{})
	info := d.PatientInfo
	for name, v := range map[string]string{
		"name": info.Name, "age": info.Age, "gender": info.Gender,
		"weight": info.WeightKg, "height": info.HeightCm,
		"activity": info.ActivityLevel, "objective": info.PrimaryObjective,
		"restrictions": info.DietaryRestrictions, "allergies": info.Allergies,
	} {
		if v != NotInformed {
			t.Fatalf("%s=%q, want %q", name, v, NotInformed)
		}
	}
	wantGaps := []string{"nutritional_calculations:missing", "nutritional_database:empty"}
	for _, g := range wantGaps {
		if !contains(d.DataGaps, g) {
			t.Fatalf("data gaps %v missing %q", d.DataGaps, g)
		}
	}
	if d.NutritionalDatabase == nil || d.ShoppingList == nil {
		t.Fatalf("collections must be present even when empty")
	}
	if !strings.Contains(RenderPreviewText(d), "gerar dieta") {
		t.Fatalf("preview missing finalize hint")
	}
}

func TestBuildRecordsMissingAndPartialFoods(t *testing.T) {
	d := Build(sampleInput(t))
	if !contains(d.DataGaps, "food_not_found:dragonfruit") {
		t.Fatalf("gaps=%v", d.DataGaps)
	}
	if !contains(d.DataGaps, "partial_record:broccoli") {
		t.Fatalf("gaps=%v", d.DataGaps)
	}
	if d.NutritionDataSource.FoodsRequested != 6 || d.NutritionDataSource.FoodsFound != 5 {
		t.Fatalf("data source=%+v", d.NutritionDataSource)
	}
	if d.PatientInfo.Gender != "Masculino" || d.PatientInfo.WeightKg != "70" {
		t.Fatalf("patient info=%+v", d.PatientInfo)
	}
	if !strings.Contains(strings.Join(d.PracticalGuidance.Hydration, " "), "35 ml por kg") {
		t.Fatalf("hydration=%v", d.PracticalGuidance.Hydration)
	}
	if !strings.Contains(strings.Join(d.PracticalGuidance.PersonalizedTips, " "), "amendoim") {
		t.Fatalf("tips=%v", d.PracticalGuidance.PersonalizedTips)
	}
}

func TestShoppingListDedupesAndTotals(t *testing.T) {
	in := sampleInput(t)
	list := ShoppingList(in.Menu)
	seen := map[string]bool{}
	for _, it := range list {
		if seen[it.Item] {
			t.Fatalf("duplicate item %q", it.Item)
		}
		seen[it.Item] = true
		if it.WeeklyGrams <= 0 || it.EstimatedWeeklyAmount == "" {
			t.Fatalf("item without amount: %+v", it)
		}
	}
	var chickenWeek float64
	for _, day := range in.Menu.Days {
		for _, meal := range day.Meals {
			for _, f := range meal.Foods {
				if f.Food == "chicken breast" {
					chickenWeek += f.GramsG
				}
			}
		}
	}
	for _, it := range list {
		if it.Item == "chicken breast" {
			if it.WeeklyGrams != chickenWeek || it.DisplayName != "Peito de frango" || it.Category != "Proteínas" {
				t.Fatalf("chicken item=%+v want grams %v", it, chickenWeek)
			}
			if list[0].Category != "Proteínas" {
				t.Fatalf("proteins should be listed first: %+v", list[0])
			}
			return
		}
	}
	t.Fatalf("chicken breast missing from %v", list)
}

func TestPreviewText(t *testing.T) {
	text := RenderPreviewText(Build(sampleInput(t)))
	for _, want := range []string{"Segunda-feira", "Café da Manhã", "Peito de frango", "kcal"} {
		if !strings.Contains(text, want) {
			t.Fatalf("preview missing %q:\n%s", want, text)
		}
	}
}

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}
