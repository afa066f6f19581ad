// Package menu distributes a daily energy target over a seven day grid of
// five meal slots using categorized foods.
package menu

import (
	"math"
	"sort"
	"strings"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
)

type Slot string

const (
	SlotBreakfast      Slot = "breakfast"
	SlotMorningSnack   Slot = "morning_snack"
	SlotLunch          Slot = "lunch"
	SlotAfternoonSnack Slot = "afternoon_snack"
	SlotDinner         Slot = "dinner"
)

// SlotShare is the percentage of the daily target assigned to one slot.
type SlotShare struct {
	Slot    Slot
	Label   string
	Percent int
}

// Slots lists the meal slots in serving order. Percentages sum to 100.
var Slots = []SlotShare{
	{Slot: SlotBreakfast, Label: "Café da Manhã", Percent: 25},
	{Slot: SlotMorningSnack, Label: "Lanche da Manhã", Percent: 10},
	{Slot: SlotLunch, Label: "Almoço", Percent: 35},
	{Slot: SlotAfternoonSnack, Label: "Lanche da Tarde", Percent: 10},
	{Slot: SlotDinner, Label: "Jantar", Percent: 20},
}

var slotComposition = map[Slot][]Category{
	SlotBreakfast:      {CategoryDairy, CategoryFruit, CategoryCarbohydrate},
	SlotMorningSnack:   {CategoryFruit, CategoryDairy},
	SlotLunch:          {CategoryProtein, CategoryCarbohydrate, CategoryVegetable},
	SlotAfternoonSnack: {CategoryFruit, CategoryDairy},
	SlotDinner:         {CategoryProtein, CategoryCarbohydrate, CategoryVegetable},
}

var DayNames = []string{
	"Segunda-feira", "Terça-feira", "Quarta-feira", "Quinta-feira",
	"Sexta-feira", "Sábado", "Domingo",
}

const (
	DaysPerWeek = 7

	MinPortionG = 30.0
	MaxPortionG = 300.0
	// portion used when a food has no energy value to size against
	defaultPortionG = 100.0
)

type FoodPortion struct {
	Food     string   `json:"food"`
	Category Category `json:"category"`
	GramsG   float64  `json:"portion_g"`
	Kcal     float64  `json:"kcal"`
	ProteinG float64  `json:"protein_g"`
	CarbsG   float64  `json:"carbs_g"`
	FatG     float64  `json:"fat_g"`
}

type Meal struct {
	Slot       Slot          `json:"slot"`
	Name       string        `json:"name"`
	Percent    int           `json:"percent"`
	TargetKcal float64       `json:"target_kcal"`
	Foods      []FoodPortion `json:"foods"`
}

type Day struct {
	Day   int     `json:"day"`
	Name  string  `json:"name"`
	Meals []Meal  `json:"meals"`
	Kcal  float64 `json:"kcal"`
}

type WeeklyMenu struct {
	DailyTargetKcal float64 `json:"daily_target_kcal"`
	Days            []Day   `json:"days"`
}

type Assembler struct {
	Categorizer *Categorizer
}

func NewAssembler(c *Categorizer) *Assembler {
	if c == nil {
		c = DefaultCategorizer()
	}
	return &Assembler{Categorizer: c}
}

// BuildWeeklyMenu uses the embedded category keywords.
func BuildWeeklyMenu(records map[string]*lookup.NutrientRecord, c calc.Calculation) WeeklyMenu {
	return NewAssembler(nil).Build(records, c)
}

// Build always returns 7 days with all 5 slots. A slot whose categories
// have no foods gets an empty Foods list. Day d takes item d mod len(pool)
// of each name-sorted pool, so the output depends only on the inputs.
func (a *Assembler) Build(records map[string]*lookup.NutrientRecord, c calc.Calculation) WeeklyMenu {
	pools := a.pools(records)
	out := WeeklyMenu{DailyTargetKcal: c.DailyTargetKcal, Days: make([]Day, 0, DaysPerWeek)}
	for d := 0; d < DaysPerWeek; d++ {
		day := Day{Day: d + 1, Name: DayNames[d], Meals: make([]Meal, 0, len(Slots))}
		for _, s := range Slots {
			meal := a.meal(s, d, pools, c.DailyTargetKcal)
			day.Kcal += meal.sumKcal()
			day.Meals = append(day.Meals, meal)
		}
		day.Kcal = round1(day.Kcal)
		out.Days = append(out.Days, day)
	}
	return out
}

func (a *Assembler) meal(s SlotShare, day int, pools map[Category][]*lookup.NutrientRecord, dailyKcal float64) Meal {
	target := dailyKcal * float64(s.Percent) / 100.0
	m := Meal{Slot: s.Slot, Name: s.Label, Percent: s.Percent, TargetKcal: round1(target), Foods: []FoodPortion{}}

	var picks []*lookup.NutrientRecord
	var cats []Category
	for _, cat := range slotComposition[s.Slot] {
		pool := pools[cat]
		if len(pool) == 0 {
			continue
		}
		picks = append(picks, pool[day%len(pool)])
		cats = append(cats, cat)
	}
	if len(picks) == 0 {
		return m
	}
	share := target / float64(len(picks))
	for i, rec := range picks {
		g := PortionGrams(share, rec.CaloriesPer100g)
		n := rec.Scale(g)
		m.Foods = append(m.Foods, FoodPortion{
			Food:     rec.Name,
			Category: cats[i],
			GramsG:   g,
			Kcal:     n.Calories,
			ProteinG: n.ProteinG,
			CarbsG:   n.CarbsG,
			FatG:     n.FatG,
		})
	}
	return m
}

func (m Meal) sumKcal() float64 {
	var sum float64
	for _, f := range m.Foods {
		sum += f.Kcal
	}
	return sum
}

// PortionGrams sizes a portion delivering kcal, rounded to 5 g and clamped
// to [MinPortionG, MaxPortionG].
func PortionGrams(kcal, kcalPer100g float64) float64 {
	if kcalPer100g <= 0 {
		return defaultPortionG
	}
	g := kcal / kcalPer100g * 100
	g = math.Round(g/5) * 5
	return math.Max(MinPortionG, math.Min(MaxPortionG, g))
}

func (a *Assembler) pools(records map[string]*lookup.NutrientRecord) map[Category][]*lookup.NutrientRecord {
	out := map[Category][]*lookup.NutrientRecord{}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		cat := a.Categorizer.Categorize(rec)
		out[cat] = append(out[cat], rec)
	}
	for cat := range out {
		pool := out[cat]
		sort.Slice(pool, func(i, j int) bool {
			return strings.ToLower(pool[i].Name) < strings.ToLower(pool[j].Name)
		})
	}
	return out
}

// Categorize returns the pool each record falls into, keyed like records.
func (a *Assembler) Categorize(records map[string]*lookup.NutrientRecord) map[string]Category {
	out := make(map[string]Category, len(records))
	for k, rec := range records {
		out[k] = a.Categorizer.Categorize(rec)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
