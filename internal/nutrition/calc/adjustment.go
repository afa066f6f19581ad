package calc

import "fmt"

// AdjustmentStrategy turns maintenance energy into a daily target for an
// objective and labels what it did.
type AdjustmentStrategy interface {
	Adjust(maintenanceKcal float64, o Objective) (target float64, label string)
}

// PercentAdjustment applies a fractional deficit or surplus to maintenance.
type PercentAdjustment struct {
	Deficit float64
	Surplus float64
}

const (
	DefaultDeficit = 0.15
	DefaultSurplus = 0.15
)

func DefaultAdjustment() PercentAdjustment {
	return PercentAdjustment{Deficit: DefaultDeficit, Surplus: DefaultSurplus}
}

func (p PercentAdjustment) Adjust(maintenanceKcal float64, o Objective) (float64, string) {
	switch o {
	case ObjectiveLoseWeight:
		return maintenanceKcal * (1 - p.Deficit), fmt.Sprintf("deficit %d%%", pct(p.Deficit))
	case ObjectiveGainMuscle:
		return maintenanceKcal * (1 + p.Surplus), fmt.Sprintf("surplus %d%%", pct(p.Surplus))
	default:
		return maintenanceKcal, "maintenance (no adjustment)"
	}
}

func pct(f float64) int {
	return int(f*100 + 0.5)
}
