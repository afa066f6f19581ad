package consultation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Signals records which kinds of information the user has given.
type Signals struct {
	Routine    bool `json:"routine"`
	Preference bool `json:"preference"`
	Context    bool `json:"context"`
}

func (s Signals) All() bool { return s.Routine && s.Preference && s.Context }

// Heuristic decides phase transitions from the conversation. The engine
// only depends on this interface so a classifier can replace the keyword
// implementation.
type Heuristic interface {
	Evaluate(history []Turn) Signals
	IsGenerateCommand(message string) bool
	MinUserTurns() int
}

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

type keywordFile struct {
	Window       int      `yaml:"window"`
	MinUserTurns int      `yaml:"min_user_turns"`
	Routine      []string `yaml:"routine"`
	Preference   []string `yaml:"preference"`
	Context      []string `yaml:"context"`
	Generate     []string `yaml:"generate"`
	Diet         []string `yaml:"diet"`
}

type KeywordHeuristic struct {
	window     int
	minTurns   int
	routine    []string
	preference []string
	context    []string
	generate   []string
	diet       []string
}

func ParseKeywords(data []byte) (*KeywordHeuristic, error) {
	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse consultation keywords: %w", err)
	}
	h := &KeywordHeuristic{
		window:     f.Window,
		minTurns:   f.MinUserTurns,
		routine:    normalize(f.Routine),
		preference: normalize(f.Preference),
		context:    normalize(f.Context),
		generate:   withRedo(normalize(f.Generate)),
		diet:       normalize(f.Diet),
	}
	if h.window <= 0 {
		h.window = 6
	}
	if h.minTurns <= 0 {
		h.minTurns = 4
	}
	if len(h.generate) == 0 || len(h.diet) == 0 {
		return nil, fmt.Errorf("consultation keywords: generate and diet lists are required")
	}
	return h, nil
}

// LoadKeywords reads path when set and falls back to the embedded file.
func LoadKeywords(path string) (*KeywordHeuristic, error) {
	if strings.TrimSpace(path) == "" {
		return ParseKeywords(defaultKeywordsYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read consultation keywords: %w", err)
	}
	return ParseKeywords(data)
}

func DefaultHeuristic() *KeywordHeuristic {
	h, err := ParseKeywords(defaultKeywordsYAML)
	if err != nil {
		panic(err)
	}
	return h
}

func (h *KeywordHeuristic) MinUserTurns() int { return h.minTurns }

// Evaluate scans the last window user turns for keywords that start a word.
func (h *KeywordHeuristic) Evaluate(history []Turn) Signals {
	var sig Signals
	seen := 0
	for i := len(history) - 1; i >= 0 && seen < h.window; i-- {
		if history[i].Role != RoleUser {
			continue
		}
		seen++
		msg := strings.ToLower(history[i].Message)
		sig.Routine = sig.Routine || containsAny(msg, h.routine)
		sig.Preference = sig.Preference || containsAny(msg, h.preference)
		sig.Context = sig.Context || containsAny(msg, h.context)
	}
	return sig
}

// IsGenerateCommand needs both a generation keyword and a diet keyword.
func (h *KeywordHeuristic) IsGenerateCommand(message string) bool {
	msg := strings.ToLower(message)
	return containsAny(msg, h.generate) && containsAny(msg, h.diet)
}

// NextPhase proposes the phase that follows current given the signals. It
// never returns an earlier phase.
func NextPhase(current Phase, sig Signals, userTurns, minUserTurns int) Phase {
	next := current
	for {
		proposed := next
		switch next {
		case PhaseGreeting:
			if userTurns > 0 {
				proposed = PhaseEatingRoutine
			}
		case PhaseEatingRoutine:
			if sig.Routine {
				proposed = PhaseFoodPreferences
			}
		case PhaseFoodPreferences:
			if sig.All() && userTurns >= minUserTurns {
				proposed = PhaseDietPreviewGeneration
			}
		}
		if proposed == next {
			return advance(current, next)
		}
		next = proposed
	}
}

// withRedo adds the "re" form of each generation keyword so that
// "regenerate" and "refazer"-style requests also count.
func withRedo(words []string) []string {
	out := make([]string, 0, 2*len(words))
	for _, w := range words {
		out = append(out, w)
		if !strings.HasPrefix(w, "re") {
			out = append(out, "re"+w)
		}
	}
	return out
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// containsAny reports whether any keyword occurs in s at the start of a
// word, so "gere" matches "gere a dieta" but not "sugere".
func containsAny(s string, words []string) bool {
	for _, w := range words {
		for off := 0; ; {
			i := strings.Index(s[off:], w)
			if i < 0 {
				break
			}
			at := off + i
			if at == 0 || !isLetter(s[:at]) {
				return true
			}
			off = at + len(w)
		}
	}
	return false
}

func isLetter(prefix string) bool {
	r, _ := utf8.DecodeLastRuneInString(prefix)
	return unicode.IsLetter(r)
}
