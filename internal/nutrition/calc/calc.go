// Package calc turns an anthropometric profile into energy and macronutrient
// targets. It performs no I/O.
package calc

import (
	"fmt"
	"math"
	"strings"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"

	// DefaultActivity is used when the reported level is unknown. Callers
	// can tell from Calculation.ActivityDefaulted.
	DefaultActivity = ActivityModerate
)

var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

type Objective string

const (
	ObjectiveLoseWeight Objective = "lose_weight"
	ObjectiveGainMuscle Objective = "gain_muscle"
	ObjectiveMaintain   Objective = "maintain"
)

// Profile is the input to Calculate. Zero values mean "not informed".
type Profile struct {
	WeightKg         float64
	HeightCm         float64
	AgeYears         int
	Gender           string
	ActivityLevel    string
	PrimaryObjective string
}

type MacroTarget struct {
	GramsPerDay float64 `json:"grams_per_day"`
	KcalPerDay  float64 `json:"kcal_per_day"`
	Percentage  int     `json:"percentage"`
}

type Macronutrients struct {
	Protein       MacroTarget `json:"protein"`
	Carbohydrates MacroTarget `json:"carbohydrates"`
	Fat           MacroTarget `json:"fat"`
}

type Calculation struct {
	TMBKcal             float64        `json:"tmb_kcal"`
	ActivityLevel       ActivityLevel  `json:"activity_level"`
	ActivityFactor      float64        `json:"activity_factor"`
	ActivityDefaulted   bool           `json:"activity_defaulted,omitempty"`
	MaintenanceKcal     float64        `json:"maintenance_kcal"`
	DailyTargetKcal     float64        `json:"daily_target_kcal"`
	Objective           Objective      `json:"objective"`
	ObjectiveAdjustment string         `json:"objective_adjustment"`
	Macronutrients      Macronutrients `json:"macronutrients"`
	BMI                 float64        `json:"bmi"`
	BMICategory         string         `json:"bmi_category"`
}

// ValidationError lists profile fields that are missing or out of range.
// Weight, height, age and gender are never defaulted.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid nutrition profile: missing or invalid %s", strings.Join(e.Fields, ", "))
}

type Calculator struct {
	Adjustment AdjustmentStrategy
}

func New(adj AdjustmentStrategy) *Calculator {
	if adj == nil {
		adj = DefaultAdjustment()
	}
	return &Calculator{Adjustment: adj}
}

// Calculate runs Calculator with the default adjustment policy.
func Calculate(p Profile) (Calculation, error) {
	return New(nil).Calculate(p)
}

func (c *Calculator) Calculate(p Profile) (Calculation, error) {
	gender, err := validate(p)
	if err != nil {
		return Calculation{}, err
	}

	tmb := TMB(gender, p.WeightKg, p.HeightCm, p.AgeYears)
	level, factor, defaulted := ResolveActivity(p.ActivityLevel)
	maintenance := tmb * factor
	objective := ParseObjective(p.PrimaryObjective)

	adj := c.Adjustment
	if adj == nil {
		adj = DefaultAdjustment()
	}
	target, label := adj.Adjust(maintenance, objective)

	bmi := p.WeightKg / math.Pow(p.HeightCm/100, 2)

	return Calculation{
		TMBKcal:             round2(tmb),
		ActivityLevel:       level,
		ActivityFactor:      factor,
		ActivityDefaulted:   defaulted,
		MaintenanceKcal:     round2(maintenance),
		DailyTargetKcal:     round2(target),
		Objective:           objective,
		ObjectiveAdjustment: label,
		Macronutrients:      Distribute(target, objective),
		BMI:                 round2(bmi),
		BMICategory:         BMICategory(bmi),
	}, nil
}

func validate(p Profile) (Gender, error) {
	var bad []string
	if p.WeightKg <= 0 || p.WeightKg > 500 {
		bad = append(bad, "weight_kg")
	}
	if p.HeightCm <= 0 || p.HeightCm > 272 {
		bad = append(bad, "height_cm")
	}
	if p.AgeYears <= 0 || p.AgeYears > 120 {
		bad = append(bad, "age")
	}
	gender, ok := ParseGender(p.Gender)
	if !ok {
		bad = append(bad, "gender")
	}
	if len(bad) > 0 {
		return "", &ValidationError{Fields: bad}
	}
	return gender, nil
}

// TMB is the revised Harris-Benedict basal metabolic rate in kcal/day.
func TMB(g Gender, weightKg, heightCm float64, age int) float64 {
	a := float64(age)
	if g == GenderFemale {
		return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*a
	}
	return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*a
}

func ParseGender(raw string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m", "man", "masculino", "homem":
		return GenderMale, true
	case "female", "f", "woman", "feminino", "mulher":
		return GenderFemale, true
	default:
		return "", false
	}
}

var activityAliases = map[string]ActivityLevel{
	"sedentary":      ActivitySedentary,
	"sedentario":     ActivitySedentary,
	"sedentário":     ActivitySedentary,
	"light":          ActivityLight,
	"lightly_active": ActivityLight,
	"leve":           ActivityLight,
	"moderate":       ActivityModerate,
	"moderado":       ActivityModerate,
	"active":         ActivityActive,
	"ativo":          ActivityActive,
	"very_active":    ActivityVeryActive,
	"muito_ativo":    ActivityVeryActive,
}

// ResolveActivity returns the level and factor for raw. Unknown or empty
// input resolves to DefaultActivity with defaulted=true.
func ResolveActivity(raw string) (ActivityLevel, float64, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if lvl, ok := activityAliases[key]; ok {
		return lvl, activityFactors[lvl], false
	}
	return DefaultActivity, activityFactors[DefaultActivity], true
}

func ActivityFactor(level ActivityLevel) (float64, bool) {
	f, ok := activityFactors[level]
	return f, ok
}

// ParseObjective maps free text onto an Objective. Anything unrecognized is
// treated as maintenance, which leaves the target unadjusted.
func ParseObjective(raw string) Objective {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return ObjectiveMaintain
	case strings.Contains(s, "lose"), strings.Contains(s, "loss"), strings.Contains(s, "emagre"),
		strings.Contains(s, "perder"), strings.Contains(s, "perda"):
		return ObjectiveLoseWeight
	case strings.Contains(s, "gain"), strings.Contains(s, "muscle"), strings.Contains(s, "ganhar"),
		strings.Contains(s, "massa"), strings.Contains(s, "hipertrofia"), strings.Contains(s, "bulk"):
		return ObjectiveGainMuscle
	default:
		return ObjectiveMaintain
	}
}

func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return "Abaixo do peso"
	case bmi < 25:
		return "Peso normal"
	case bmi < 30:
		return "Sobrepeso"
	default:
		return "Obesidade"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
