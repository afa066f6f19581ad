// Package selector asks the text-generation model for candidate food names
// matching a patient's preferences and nutrition targets.
package selector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
	"github.com/yungbote/shapemate-backend/internal/platform/openai"
)

// ErrUnparseable is returned when the model reply is not a non-empty JSON
// array of strings. There is no fallback list.
var ErrUnparseable = errors.New("selector: model reply is not a list of food names")

type Preferences struct {
	Likes        []string `json:"likes,omitempty"`
	Dislikes     []string `json:"dislikes,omitempty"`
	Restrictions []string `json:"dietary_restrictions,omitempty"`
	Allergies    []string `json:"allergies,omitempty"`
	Budget       string   `json:"budget,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// ContextTurn is one line of conversation passed as selection context.
type ContextTurn struct {
	Role    string
	Message string
}

type Selector struct {
	log *logger.Logger
	llm openai.Client
	// MaxContextTurns bounds how much of the conversation is quoted in the
	// prompt. Zero quotes everything.
	MaxContextTurns int
}

func New(log *logger.Logger, llm openai.Client) *Selector {
	if log == nil {
		log = logger.Nop()
	}
	return &Selector{log: log.With("component", "FoodSelector"), llm: llm, MaxContextTurns: 12}
}

const systemPrompt = `You are a clinical nutritionist choosing foods for a weekly meal plan.
Answer ONLY with a JSON array of food names in English, as they would be searched in the USDA FoodData Central database (for example "chicken breast", "brown rice", "banana").
Include proteins, carbohydrates, vegetables, fruits and dairy. Respect restrictions and allergies strictly. Do not add any text outside the array.`

// SelectFoodGroups returns an ordered, de-duplicated list of food names.
func (s *Selector) SelectFoodGroups(ctx context.Context, prefs Preferences, targets calc.Calculation, conversation []ContextTurn) ([]string, error) {
	if s == nil || s.llm == nil {
		return nil, fmt.Errorf("selector: no text-generation client configured")
	}
	msgs := []openai.Message{
		{Role: openai.RoleSystem, Content: systemPrompt},
		{Role: openai.RoleUser, Content: s.buildPrompt(prefs, targets, conversation)},
	}
	out, err := s.llm.Chat(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("selector: generate: %w", err)
	}
	foods, err := ParseFoodList(out.Text)
	if err != nil {
		s.log.Warn("Food selection reply rejected", "reply_chars", len(out.Text))
		return nil, err
	}
	s.log.Debug("Food selection parsed", "count", len(foods))
	return foods, nil
}

func (s *Selector) buildPrompt(prefs Preferences, targets calc.Calculation, conversation []ContextTurn) string {
	var b strings.Builder
	b.WriteString("Nutrition targets:\n")
	fmt.Fprintf(&b, "- daily energy: %.0f kcal (%s)\n", targets.DailyTargetKcal, targets.Objective)
	m := targets.Macronutrients
	fmt.Fprintf(&b, "- protein: %.0f g, carbohydrates: %.0f g, fat: %.0f g\n",
		m.Protein.GramsPerDay, m.Carbohydrates.GramsPerDay, m.Fat.GramsPerDay)

	b.WriteString("\nPreferences:\n")
	writeList(&b, "likes", prefs.Likes)
	writeList(&b, "dislikes", prefs.Dislikes)
	writeList(&b, "dietary restrictions", prefs.Restrictions)
	writeList(&b, "allergies", prefs.Allergies)
	if v := strings.TrimSpace(prefs.Budget); v != "" {
		fmt.Fprintf(&b, "- budget: %s\n", v)
	}
	if v := strings.TrimSpace(prefs.Notes); v != "" {
		fmt.Fprintf(&b, "- notes: %s\n", v)
	}

	turns := conversation
	if s.MaxContextTurns > 0 && len(turns) > s.MaxContextTurns {
		turns = turns[len(turns)-s.MaxContextTurns:]
	}
	if len(turns) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, strings.TrimSpace(t.Message))
		}
	}
	b.WriteString("\nReturn between 10 and 20 foods as a JSON array of strings.")
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(items, ", "))
}

// ParseFoodList decodes text as a JSON array of strings. A surrounding
// markdown code fence is tolerated; anything else is ErrUnparseable.
func ParseFoodList(text string) ([]string, error) {
	raw := stripFence(strings.TrimSpace(text))
	if raw == "" {
		return nil, ErrUnparseable
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil, ErrUnparseable
	}
	return out, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string ("json", "JSON", ...)
		s = s[nl+1:]
	} else {
		// one-line fence: ```json ["rice"]``` or ```["rice"]```
		s = strings.TrimLeftFunc(s, unicode.IsLetter)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
