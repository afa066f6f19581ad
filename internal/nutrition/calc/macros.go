package calc

const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

// MacroSplit is a protein/carbs/fat percentage split summing to 100.
type MacroSplit struct {
	Protein int
	Carbs   int
	Fat     int
}

var macroSplits = map[Objective]MacroSplit{
	ObjectiveLoseWeight: {Protein: 30, Carbs: 40, Fat: 30},
	ObjectiveGainMuscle: {Protein: 25, Carbs: 45, Fat: 30},
	ObjectiveMaintain:   {Protein: 20, Carbs: 50, Fat: 30},
}

func SplitFor(o Objective) MacroSplit {
	if s, ok := macroSplits[o]; ok {
		return s
	}
	return macroSplits[ObjectiveMaintain]
}

// Distribute splits targetKcal by the objective's percentages. Each macro's
// kcal is its share of the target, so the kcal sum equals the target up to
// rounding.
func Distribute(targetKcal float64, o Objective) Macronutrients {
	s := SplitFor(o)
	return Macronutrients{
		Protein:       macro(targetKcal, s.Protein, kcalPerGramProtein),
		Carbohydrates: macro(targetKcal, s.Carbs, kcalPerGramCarbs),
		Fat:           macro(targetKcal, s.Fat, kcalPerGramFat),
	}
}

func macro(targetKcal float64, pct int, kcalPerGram float64) MacroTarget {
	kcal := targetKcal * float64(pct) / 100.0
	return MacroTarget{
		GramsPerDay: round1(kcal / kcalPerGram),
		KcalPerDay:  round1(kcal),
		Percentage:  pct,
	}
}
