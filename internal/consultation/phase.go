package consultation

import "fmt"

// Phase is a stage of the consultation. Phases are ordered and a state only
// moves forward, except through Reset.
type Phase string

const (
	PhaseGreeting              Phase = "greeting"
	PhaseEatingRoutine         Phase = "eating_routine_assessment"
	PhaseFoodPreferences       Phase = "food_preferences_mapping"
	PhaseDietPreviewGeneration Phase = "diet_preview_generation"
	PhaseDietGenerated         Phase = "diet_generated"
)

var phaseOrder = []Phase{
	PhaseGreeting,
	PhaseEatingRoutine,
	PhaseFoodPreferences,
	PhaseDietPreviewGeneration,
	PhaseDietGenerated,
}

func (p Phase) index() int {
	for i, q := range phaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

func (p Phase) Valid() bool { return p.index() >= 0 }

// Before reports whether p comes earlier than q.
func (p Phase) Before(q Phase) bool { return p.index() < q.index() }

func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown consultation phase %q", s)
	}
	return p, nil
}

// advance returns the later of current and proposed.
func advance(current, proposed Phase) Phase {
	if proposed.Valid() && current.Before(proposed) {
		return proposed
	}
	return current
}
