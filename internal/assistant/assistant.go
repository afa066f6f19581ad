package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
	"github.com/yungbote/shapemate-backend/internal/platform/openai"
)

const (
	maxMessageRunes  = 2000
	maxSubstitutions = 3
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = fmt.Errorf("message longer than %d characters", maxMessageRunes)
	// ErrUpstream marks failures of the language model.
	ErrUpstream = errors.New("assistant model unavailable")
)

// Alternatives suggests other preparations of a food that resolve in the
// nutrient database.
type Alternatives interface {
	SuggestAlternatives(ctx context.Context, name string) []string
}

type Turn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Context is what the assistant knows about the user besides the message.
type Context struct {
	Name            string
	DailyTargetKcal float64
	Restrictions    []string
	Allergies       []string
	// DietShopping is the active diet's weekly shopping list.
	DietShopping []document.ShoppingItem
	// Inventory holds the lower-cased names of foods the user has at home.
	Inventory []string
}

type Request struct {
	Message string
	History []Turn
	User    Context
}

type Substitution struct {
	Original   string `json:"original"`
	Substitute string `json:"substitute"`
	Ratio      string `json:"ratio,omitempty"`
	Reason     string `json:"reason"`
	InStock    bool   `json:"in_stock,omitempty"`
}

type Answer struct {
	RequestType   RequestType             `json:"request_type"`
	Reply         string                  `json:"reply"`
	Substitutions []Substitution          `json:"substitutions,omitempty"`
	ShoppingList  []document.ShoppingItem `json:"shopping_list,omitempty"`
	// FromModel is set when the reply was written by the language model.
	FromModel bool `json:"from_model"`
}

type Assistant struct {
	log  *logger.Logger
	llm  openai.Client
	alts Alternatives
	kb   *Knowledge
}

func New(log *logger.Logger, llm openai.Client, alts Alternatives, kb *Knowledge) (*Assistant, error) {
	if llm == nil {
		return nil, fmt.Errorf("assistant: llm client is required")
	}
	if kb == nil {
		kb = DefaultKnowledge()
	}
	return &Assistant{log: log.With("component", "DailyAssistant"), llm: llm, alts: alts, kb: kb}, nil
}

// Answer routes the message and replies. Substitutions and shopping lists
// come from the knowledge table and the user's data; everything else is
// written by the model.
func (a *Assistant) Answer(ctx context.Context, req Request) (Answer, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return Answer{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(msg) > maxMessageRunes {
		return Answer{}, ErrMessageTooLong
	}

	kind := a.kb.Detect(msg)
	var (
		out Answer
		err error
	)
	switch kind {
	case RequestSubstitution:
		out = a.substitutions(ctx, msg, req.User)
	case RequestShoppingList:
		out = a.shoppingList(req.User)
	default:
		out, err = a.ask(ctx, kind, msg, req)
	}
	if err != nil {
		return Answer{}, err
	}
	out.RequestType = kind
	a.log.Debug("Assistant answered", "request_type", string(kind), "from_model", out.FromModel)
	return out, nil
}

func (a *Assistant) substitutions(ctx context.Context, msg string, u Context) Answer {
	foods := a.kb.FoodsIn(msg)
	if len(foods) == 0 {
		return Answer{Reply: substitutionHelp}
	}
	avoid := lowerAll(append(append([]string{}, u.Restrictions...), u.Allergies...))
	var subs []Substitution
	for _, food := range foods {
		entries := a.kb.SubstitutesFor(food)
		if len(entries) == 0 && a.alts != nil {
			for _, alt := range a.alts.SuggestAlternatives(ctx, food) {
				entries = append(entries, SubstituteEntry{Substitute: alt, Ratio: "1:1", Reason: "Outro preparo com dados nutricionais conhecidos"})
			}
		}
		for _, e := range entries {
			if mentionsAny(e.Substitute, avoid) {
				continue
			}
			subs = append(subs, Substitution{
				Original:   food,
				Substitute: e.Substitute,
				Ratio:      e.Ratio,
				Reason:     e.Reason,
				InStock:    mentionsAny(e.Substitute, u.Inventory),
			})
		}
	}
	if len(subs) == 0 {
		return Answer{Reply: substitutionFallback}
	}
	// What is already at home comes first; the table order is kept otherwise.
	ordered := make([]Substitution, 0, len(subs))
	for _, s := range subs {
		if s.InStock {
			ordered = append(ordered, s)
		}
	}
	for _, s := range subs {
		if !s.InStock {
			ordered = append(ordered, s)
		}
	}
	if len(ordered) > maxSubstitutions {
		ordered = ordered[:maxSubstitutions]
	}

	var b strings.Builder
	b.WriteString("Substituições sugeridas:\n")
	for i, s := range ordered {
		fmt.Fprintf(&b, "\n%d. %s → %s", i+1, s.Original, s.Substitute)
		if s.InStock {
			b.WriteString(" (você já tem em casa)")
		}
		fmt.Fprintf(&b, "\n   %s", s.Reason)
		if s.Ratio != "" {
			fmt.Fprintf(&b, "\n   Proporção: %s", s.Ratio)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nMantenha as porções da sua dieta ao trocar.")
	return Answer{Reply: b.String(), Substitutions: ordered}
}

// shoppingList uses the active diet's list minus what is at home and falls
// back to the basics when there is no diet.
func (a *Assistant) shoppingList(u Context) Answer {
	var items []document.ShoppingItem
	var skipped []string
	if len(u.DietShopping) > 0 {
		for _, it := range u.DietShopping {
			if mentionsAny(it.Item, u.Inventory) || mentionsAny(it.DisplayName, u.Inventory) {
				skipped = append(skipped, it.DisplayName)
				continue
			}
			items = append(items, it)
		}
	} else {
		for _, g := range a.kb.Basics() {
			for _, name := range g.Items {
				items = append(items, document.ShoppingItem{Item: strings.ToLower(name), DisplayName: name, Category: g.Category})
			}
		}
	}

	var b strings.Builder
	if len(u.DietShopping) > 0 {
		b.WriteString("Lista de compras da sua dieta para a semana:\n")
	} else {
		b.WriteString("Você ainda não tem uma dieta ativa. Esta é uma lista básica:\n")
	}
	category := ""
	for _, it := range items {
		if it.Category != category {
			category = it.Category
			fmt.Fprintf(&b, "\n%s:\n", category)
		}
		fmt.Fprintf(&b, "- %s", it.DisplayName)
		if it.EstimatedWeeklyAmount != "" {
			fmt.Fprintf(&b, " (%s)", it.EstimatedWeeklyAmount)
		}
		b.WriteString("\n")
	}
	if len(items) == 0 {
		b.WriteString("\nVocê já tem tudo em casa.\n")
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "\nFora da lista porque já estão em casa: %s.", strings.Join(skipped, ", "))
	}
	return Answer{Reply: strings.TrimRight(b.String(), "\n"), ShoppingList: items}
}

func (a *Assistant) ask(ctx context.Context, kind RequestType, msg string, req Request) (Answer, error) {
	history := req.History
	if limit := a.kb.HistoryLimit(); len(history) > limit {
		history = history[len(history)-limit:]
	}
	msgs := make([]openai.Message, 0, len(history)+2)
	msgs = append(msgs, openai.Message{Role: openai.RoleSystem, Content: systemPrompt(a.kb.instruction(kind), req.User)})
	for _, t := range history {
		role := openai.RoleUser
		if t.Role == string(openai.RoleAssistant) {
			role = openai.RoleAssistant
		}
		if strings.TrimSpace(t.Message) == "" {
			continue
		}
		msgs = append(msgs, openai.Message{Role: role, Content: t.Message})
	}
	msgs = append(msgs, openai.Message{Role: openai.RoleUser, Content: msg})

	out, err := a.llm.Chat(ctx, msgs)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return Answer{}, fmt.Errorf("%w: %w", ErrUpstream, openai.ErrEmptyResponse)
	}
	return Answer{Reply: text, FromModel: true}, nil
}

// mentionsAny reports whether s and any of names name the same food,
// either one containing the other.
func mentionsAny(s string, names []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if indexWord(s, n, true) >= 0 || indexWord(n, s, true) >= 0 {
			return true
		}
	}
	return false
}
