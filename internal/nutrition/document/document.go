// Package document assembles the persisted diet document from a finished
// consultation. Build makes no network or model calls.
package document

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/nutrition/menu"
)

// NotInformed is shown for any patient field the consultation did not
// collect. Keys are never omitted.
const NotInformed = "Não informado"

const (
	ProviderUSDA = "USDA FoodData Central"
	ProviderURL  = "https://fdc.nal.usda.gov"
)

// Patient is the raw profile data collected during a consultation.
type Patient struct {
	Name             string
	Age              int
	Gender           string
	WeightKg         float64
	HeightCm         float64
	ActivityLevel    string
	PrimaryObjective string
	Restrictions     []string
	Allergies        []string
}

// PatientInfo is the display form of Patient. Every field is filled.
type PatientInfo struct {
	Name                string `json:"name"`
	Age                 string `json:"age"`
	Gender              string `json:"gender"`
	WeightKg            string `json:"weight_kg"`
	HeightCm            string `json:"height_cm"`
	ActivityLevel       string `json:"activity_level"`
	PrimaryObjective    string `json:"primary_objective"`
	DietaryRestrictions string `json:"dietary_restrictions"`
	Allergies           string `json:"allergies"`
}

type DataSource struct {
	Provider       string   `json:"provider"`
	URL            string   `json:"url"`
	FoodsRequested int      `json:"foods_requested"`
	FoodsFound     int      `json:"foods_found"`
	PartialRecords []string `json:"partial_records,omitempty"`
}

type ShoppingItem struct {
	Item                  string  `json:"item"`
	DisplayName           string  `json:"display_name"`
	Category              string  `json:"category"`
	WeeklyGrams           float64 `json:"weekly_grams"`
	EstimatedWeeklyAmount string  `json:"estimated_weekly_amount"`
}

type Guidance struct {
	MealTiming       []string `json:"meal_timing"`
	Hydration        []string `json:"hydration"`
	PreparationTips  []string `json:"preparation_tips"`
	PersonalizedTips []string `json:"personalized_tips"`
}

// Diet is the document persisted with a saved diet and consumed by the
// PDF renderer. Its JSON shape is stable.
type Diet struct {
	PatientInfo             PatientInfo                      `json:"patient_info"`
	NutritionalCalculations *calc.Calculation                `json:"nutritional_calculations"`
	WeeklyMenu              menu.WeeklyMenu                  `json:"weekly_menu"`
	NutritionDataSource     DataSource                       `json:"nutrition_data_source"`
	NutritionalDatabase     map[string]lookup.NutrientRecord `json:"nutritional_database"`
	ShoppingList            []ShoppingItem                   `json:"shopping_list"`
	PracticalGuidance       Guidance                         `json:"practical_guidance"`
	DataGaps                []string                         `json:"data_gaps,omitempty"`
	GeneratedAt             time.Time                        `json:"generated_at"`
}

type Input struct {
	Patient        Patient
	Calculation    *calc.Calculation
	Menu           menu.WeeklyMenu
	Records        map[string]*lookup.NutrientRecord
	RequestedFoods []string
	GeneratedAt    time.Time
}

// Build merges the consultation outputs into a Diet. Gaps in the inputs
// are recorded in DataGaps instead of failing.
func Build(in Input) Diet {
	d := Diet{
		PatientInfo:             patientInfo(in.Patient),
		NutritionalCalculations: in.Calculation,
		WeeklyMenu:              in.Menu,
		NutritionalDatabase:     map[string]lookup.NutrientRecord{},
		GeneratedAt:             in.GeneratedAt.UTC().Truncate(time.Second),
	}

	var gaps []string
	gaps = append(gaps, patientGaps(in.Patient)...)
	if in.Calculation == nil {
		gaps = append(gaps, "nutritional_calculations:missing")
	}

	var partial []string
	for _, name := range sortedKeys(in.Records) {
		rec := in.Records[name]
		if rec == nil {
			continue
		}
		d.NutritionalDatabase[name] = *rec
		if rec.Partial() {
			partial = append(partial, name)
		}
	}
	if len(d.NutritionalDatabase) == 0 {
		gaps = append(gaps, "nutritional_database:empty")
	}
	for _, name := range notFound(in.RequestedFoods, in.Records) {
		gaps = append(gaps, "food_not_found:"+name)
	}
	for _, name := range partial {
		gaps = append(gaps, "partial_record:"+name)
	}

	d.NutritionDataSource = DataSource{
		Provider:       ProviderUSDA,
		URL:            ProviderURL,
		FoodsRequested: len(in.RequestedFoods),
		FoodsFound:     len(d.NutritionalDatabase),
		PartialRecords: partial,
	}
	d.ShoppingList = ShoppingList(in.Menu)
	d.PracticalGuidance = guidance(in.Patient, in.Calculation)
	if len(gaps) > 0 {
		d.DataGaps = gaps
	}
	return d
}

func patientInfo(p Patient) PatientInfo {
	return PatientInfo{
		Name:                orDefault(p.Name),
		Age:                 intOrDefault(p.Age),
		Gender:              orDefault(genderLabel(p.Gender)),
		WeightKg:            floatOrDefault(p.WeightKg),
		HeightCm:            floatOrDefault(p.HeightCm),
		ActivityLevel:       orDefault(p.ActivityLevel),
		PrimaryObjective:    orDefault(p.PrimaryObjective),
		DietaryRestrictions: listOrDefault(p.Restrictions),
		Allergies:           listOrDefault(p.Allergies),
	}
}

func patientGaps(p Patient) []string {
	var out []string
	if p.Age <= 0 {
		out = append(out, "patient_info:age")
	}
	if strings.TrimSpace(p.Gender) == "" {
		out = append(out, "patient_info:gender")
	}
	if p.WeightKg <= 0 {
		out = append(out, "patient_info:weight_kg")
	}
	if p.HeightCm <= 0 {
		out = append(out, "patient_info:height_cm")
	}
	return out
}

func genderLabel(g string) string {
	switch parsed, ok := calc.ParseGender(g); {
	case !ok:
		return strings.TrimSpace(g)
	case parsed == calc.GenderFemale:
		return "Feminino"
	default:
		return "Masculino"
	}
}

func orDefault(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return NotInformed
	}
	return s
}

func intOrDefault(v int) string {
	if v <= 0 {
		return NotInformed
	}
	return fmt.Sprintf("%d", v)
}

func floatOrDefault(v float64) string {
	if v <= 0 {
		return NotInformed
	}
	return trimFloat(v)
}

func listOrDefault(items []string) string {
	var kept []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return NotInformed
	}
	return strings.Join(kept, ", ")
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}

func sortedKeys(m map[string]*lookup.NutrientRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func notFound(requested []string, found map[string]*lookup.NutrientRecord) []string {
	have := make(map[string]bool, len(found))
	for k := range found {
		have[lookup.CacheKey(k)] = true
	}
	seen := map[string]bool{}
	var out []string
	for _, name := range requested {
		key := lookup.CacheKey(name)
		if key == "" || have[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(name))
	}
	return out
}
