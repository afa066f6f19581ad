package consultation

import (
	"strings"
	"time"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/nutrition/selector"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// UserData is the profile the consultation works from. It starts as a copy
// of the stored profile and may be completed from the conversation.
type UserData struct {
	Name             string   `json:"name,omitempty"`
	Age              int      `json:"age,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	WeightKg         float64  `json:"weight_kg,omitempty"`
	HeightCm         float64  `json:"height_cm,omitempty"`
	ActivityLevel    string   `json:"activity_level,omitempty"`
	PrimaryObjective string   `json:"primary_goal,omitempty"`
	Restrictions     []string `json:"dietary_restrictions,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	Budget           string   `json:"budget,omitempty"`
	Likes            []string `json:"likes,omitempty"`
	Dislikes         []string `json:"dislikes,omitempty"`
}

func (u UserData) Profile() calc.Profile {
	return calc.Profile{
		WeightKg:         u.WeightKg,
		HeightCm:         u.HeightCm,
		AgeYears:         u.Age,
		Gender:           u.Gender,
		ActivityLevel:    u.ActivityLevel,
		PrimaryObjective: u.PrimaryObjective,
	}
}

func (u UserData) Patient() document.Patient {
	return document.Patient{
		Name:             u.Name,
		Age:              u.Age,
		Gender:           u.Gender,
		WeightKg:         u.WeightKg,
		HeightCm:         u.HeightCm,
		ActivityLevel:    u.ActivityLevel,
		PrimaryObjective: u.PrimaryObjective,
		Restrictions:     u.Restrictions,
		Allergies:        u.Allergies,
	}
}

func (u UserData) Preferences() selector.Preferences {
	return selector.Preferences{
		Likes:        u.Likes,
		Dislikes:     u.Dislikes,
		Restrictions: u.Restrictions,
		Allergies:    u.Allergies,
		Budget:       u.Budget,
	}
}

func (u UserData) clone() UserData {
	out := u
	out.Restrictions = cloneStrings(u.Restrictions)
	out.Allergies = cloneStrings(u.Allergies)
	out.Likes = cloneStrings(u.Likes)
	out.Dislikes = cloneStrings(u.Dislikes)
	return out
}

// State is one consultation. Engine methods take a State by value and
// return a new one; the input is never modified. DietPreview is set from
// PhaseDietPreviewGeneration on and GeneratedDiet only in
// PhaseDietGenerated. Documents are never mutated once attached.
type State struct {
	ConsultationID        string         `json:"consultation_id"`
	UserID                string         `json:"user_id,omitempty"`
	UserData              UserData       `json:"user_data"`
	ConversationHistory   []Turn         `json:"conversation_history"`
	CurrentPhase          Phase          `json:"current_phase"`
	DietPreview           *document.Diet `json:"diet_preview,omitempty"`
	GeneratedDiet         *document.Diet `json:"generated_diet,omitempty"`
	SelectedFoods         []string       `json:"selected_foods,omitempty"`
	ReadyForSummary       bool           `json:"ready_for_summary"`
	ShowDietActionButtons bool           `json:"show_diet_action_buttons"`
	// FinalizedDietID is the saved diet once finalize succeeded. Only
	// Reset clears it.
	FinalizedDietID       string         `json:"finalized_diet_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func (s State) Clone() State {
	out := s
	out.UserData = s.UserData.clone()
	out.ConversationHistory = append([]Turn(nil), s.ConversationHistory...)
	out.SelectedFoods = cloneStrings(s.SelectedFoods)
	return out
}

func (s State) UserTurns() int {
	n := 0
	for _, t := range s.ConversationHistory {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}

// LastAssistantMessage returns the newest assistant turn, or "".
func (s State) LastAssistantMessage() string {
	for i := len(s.ConversationHistory) - 1; i >= 0; i-- {
		if s.ConversationHistory[i].Role == RoleAssistant {
			return s.ConversationHistory[i].Message
		}
	}
	return ""
}

func (s *State) appendTurn(role, msg string, at time.Time) {
	s.ConversationHistory = append(s.ConversationHistory, Turn{Role: role, Message: strings.TrimSpace(msg), Timestamp: at})
	s.UpdatedAt = at
}

// replaceLastAssistant rewrites the newest assistant turn in place, or
// appends one if there is none.
func (s *State) replaceLastAssistant(msg string, at time.Time) {
	for i := len(s.ConversationHistory) - 1; i >= 0; i-- {
		if s.ConversationHistory[i].Role == RoleAssistant {
			s.ConversationHistory[i] = Turn{Role: RoleAssistant, Message: msg, Timestamp: at}
			s.UpdatedAt = at
			return
		}
	}
	s.appendTurn(RoleAssistant, msg, at)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
