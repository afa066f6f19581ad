package menu

import (
	"encoding/json"
	"testing"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
)

func rec(name string, kcal, p, c, f float64) *lookup.NutrientRecord {
	return &lookup.NutrientRecord{Name: name, CaloriesPer100g: kcal, ProteinG: p, CarbsG: c, FatG: f, Source: lookup.SourceUSDA}
}

func sampleRecords() map[string]*lookup.NutrientRecord {
	return map[string]*lookup.NutrientRecord{
		"chicken breast": rec("chicken breast", 165, 31, 0, 3.6),
		"salmon":         rec("salmon", 208, 20.4, 0, 13.4),
		"brown rice":     rec("brown rice", 112, 2.3, 23.5, 0.8),
		"bread":          rec("bread", 265, 9, 49, 3.2),
		"broccoli":       rec("broccoli", 34, 2.8, 6.6, 0.4),
		"milk":           rec("milk", 61, 3.2, 4.8, 3.3),
		"apple":          rec("apple", 52, 0.3, 13.8, 0.2),
		"olive oil":      rec("olive oil", 884, 0, 0, 100),
	}
}

func TestSlotSharesSumTo100(t *testing.T) {
	sum := 0
	for _, s := range Slots {
		sum += s.Percent
	}
	if sum != 100 {
		t.Fatalf("slot shares sum to %d", sum)
	}
	for _, target := range []float64{1200, 1873.37, 2595.86} {
		m := BuildWeeklyMenu(nil, calc.Calculation{DailyTargetKcal: target})
		var total float64
		for _, meal := range m.Days[0].Meals {
			total += meal.TargetKcal
		}
		if total < target-0.3 || total > target+0.3 {
			t.Fatalf("slot targets sum to %v for %v", total, target)
		}
	}
}

func TestEmptySelectionStillProducesFullGrid(t *testing.T) {
	m := BuildWeeklyMenu(map[string]*lookup.NutrientRecord{}, calc.Calculation{DailyTargetKcal: 2000})
	if len(m.Days) != 7 {
		t.Fatalf("days=%d", len(m.Days))
	}
	for _, d := range m.Days {
		if len(d.Meals) != 5 {
			t.Fatalf("day %d has %d meals", d.Day, len(d.Meals))
		}
		for _, meal := range d.Meals {
			if meal.Foods == nil || len(meal.Foods) != 0 {
				t.Fatalf("expected empty non-nil foods for %s", meal.Slot)
			}
		}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) == "" {
		t.Fatalf("empty json")
	}
}

func TestCategorize(t *testing.T) {
	c := DefaultCategorizer()
	cases := []struct {
		r    *lookup.NutrientRecord
		want Category
	}{
		{rec("chicken breast", 165, 31, 0, 3.6), CategoryProtein},
		{rec("white rice", 130, 2.7, 28, 0.3), CategoryCarbohydrate},
		{rec("Milk, whole", 61, 3.2, 4.8, 3.3), CategoryDairy},
		{rec("apple", 52, 0.3, 13.8, 0.2), CategoryFruit},
		// carbohydrate share wins over the fruit keyword
		{rec("banana", 89, 1.1, 22.8, 0.3), CategoryCarbohydrate},
		{rec("espinafre", 23, 2.9, 3.6, 0.4), CategoryVegetable},
		{rec("olive oil", 884, 0, 0, 100), CategoryFatOther},
		{nil, CategoryFatOther},
	}
	for _, tc := range cases {
		if got := c.Categorize(tc.r); got != tc.want {
			name := "<nil>"
			if tc.r != nil {
				name = tc.r.Name
			}
			t.Fatalf("%s: got %s want %s", name, got, tc.want)
		}
	}
}

func TestCompositionAndPortions(t *testing.T) {
	m := BuildWeeklyMenu(sampleRecords(), calc.Calculation{DailyTargetKcal: 2000})
	lunch := m.Days[0].Meals[2]
	if lunch.Slot != SlotLunch || len(lunch.Foods) != 3 {
		t.Fatalf("lunch=%+v", lunch)
	}
	want := []Category{CategoryProtein, CategoryCarbohydrate, CategoryVegetable}
	for i, f := range lunch.Foods {
		if f.Category != want[i] {
			t.Fatalf("lunch food %d category %s, want %s", i, f.Category, want[i])
		}
		if f.GramsG < MinPortionG || f.GramsG > MaxPortionG {
			t.Fatalf("portion out of range: %+v", f)
		}
	}
	// breakfast: milk, apple and one carbohydrate
	if got := len(m.Days[0].Meals[0].Foods); got != 3 {
		t.Fatalf("breakfast foods=%d", got)
	}
}

func TestRotationIsDeterministic(t *testing.T) {
	a := BuildWeeklyMenu(sampleRecords(), calc.Calculation{DailyTargetKcal: 2200})
	b := BuildWeeklyMenu(sampleRecords(), calc.Calculation{DailyTargetKcal: 2200})
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Fatalf("menu is not deterministic")
	}
	// two proteins sorted by name: chicken breast on even days, salmon on odd
	if got := a.Days[0].Meals[2].Foods[0].Food; got != "chicken breast" {
		t.Fatalf("day 1 protein=%q", got)
	}
	if got := a.Days[1].Meals[2].Foods[0].Food; got != "salmon" {
		t.Fatalf("day 2 protein=%q", got)
	}
	// single-item pools repeat every day
	for _, d := range a.Days {
		if got := d.Meals[2].Foods[2].Food; got != "broccoli" {
			t.Fatalf("day %d vegetable=%q", d.Day, got)
		}
	}
}

func TestPortionGrams(t *testing.T) {
	cases := []struct {
		kcal, per100, want float64
	}{
		{kcal: 165, per100: 165, want: 100},
		{kcal: 10, per100: 400, want: MinPortionG},
		{kcal: 900, per100: 34, want: MaxPortionG},
		{kcal: 100, per100: 0, want: 100},
	}
	for _, tc := range cases {
		if got := PortionGrams(tc.kcal, tc.per100); got != tc.want {
			t.Fatalf("PortionGrams(%v,%v)=%v want %v", tc.kcal, tc.per100, got, tc.want)
		}
	}
}
