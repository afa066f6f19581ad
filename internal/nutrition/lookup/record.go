package lookup

import "strings"

const SourceUSDA = "USDA_API"

// NutrientRecord is the normalized composition of one food, all values per
// 100 g. Fields the source did not report are zero and named in
// MissingFields.
type NutrientRecord struct {
	Name            string   `json:"name"`
	FDCID           int      `json:"fdc_id,omitempty"`
	CaloriesPer100g float64  `json:"calories_per_100g"`
	ProteinG        float64  `json:"protein_g"`
	CarbsG          float64  `json:"carbs_g"`
	FatG            float64  `json:"fat_g"`
	FiberG          float64  `json:"fiber_g"`
	SodiumMg        float64  `json:"sodium_mg"`
	SugarG          float64  `json:"sugar_g"`
	SaturatedFatG   float64  `json:"saturated_fat_g"`
	Source          string   `json:"source"`
	Description     string   `json:"description"`
	MissingFields   []string `json:"missing_fields,omitempty"`
}

// Partial reports whether any tracked nutrient was absent upstream.
func (r *NutrientRecord) Partial() bool {
	return r != nil && len(r.MissingFields) > 0
}

func (r *NutrientRecord) clone() *NutrientRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.MissingFields != nil {
		out.MissingFields = append([]string(nil), r.MissingFields...)
	}
	return &out
}

// CacheKey is the normalized form under which a food name is cached.
func CacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

const (
	fieldCalories     = "calories"
	fieldProtein      = "protein"
	fieldCarbs        = "carbs"
	fieldFat          = "fat"
	fieldFiber        = "fiber"
	fieldSodium       = "sodium"
	fieldSugar        = "sugar"
	fieldSaturatedFat = "saturated_fat"
)

var trackedFields = []string{
	fieldCalories, fieldProtein, fieldCarbs, fieldFat,
	fieldFiber, fieldSodium, fieldSugar, fieldSaturatedFat,
}

// classifyNutrient maps an upstream nutrient name to a tracked field. Fatty
// acid rows are handled first: only the saturated total is tracked, and the
// mono, poly and trans totals must not land in total fat.
func classifyNutrient(name, unit string) string {
	n := strings.ToLower(name)
	u := strings.ToLower(strings.TrimSpace(unit))
	switch {
	case strings.Contains(n, "energy") || strings.Contains(n, "calorie"):
		if u == "kj" {
			return ""
		}
		return fieldCalories
	case strings.Contains(n, "fatty acids"):
		if strings.Contains(n, "saturated") && !strings.Contains(n, "unsaturated") {
			return fieldSaturatedFat
		}
		return ""
	case strings.Contains(n, "protein"):
		return fieldProtein
	case strings.Contains(n, "carbohydrate") && strings.Contains(n, "difference"):
		return fieldCarbs
	case strings.Contains(n, "total lipid") || (strings.Contains(n, "fat") && strings.Contains(n, "total")):
		return fieldFat
	case strings.Contains(n, "fiber"):
		return fieldFiber
	case strings.Contains(n, "sodium"):
		return fieldSodium
	case strings.Contains(n, "sugar") && strings.Contains(n, "total"):
		return fieldSugar
	default:
		return ""
	}
}

func (r *NutrientRecord) set(field string, v float64) {
	switch field {
	case fieldCalories:
		r.CaloriesPer100g = v
	case fieldProtein:
		r.ProteinG = v
	case fieldCarbs:
		r.CarbsG = v
	case fieldFat:
		r.FatG = v
	case fieldFiber:
		r.FiberG = v
	case fieldSodium:
		r.SodiumMg = v
	case fieldSugar:
		r.SugarG = v
	case fieldSaturatedFat:
		r.SaturatedFatG = v
	}
}
