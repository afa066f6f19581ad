package assistant

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

type RequestType string

const (
	RequestSubstitution   RequestType = "substitution"
	RequestMenuAnalysis   RequestType = "menu_analysis"
	RequestShoppingList   RequestType = "shopping_list"
	RequestRecipeSearch   RequestType = "recipe_search"
	RequestGeneralSupport RequestType = "general_support"
)

func (t RequestType) valid() bool {
	switch t {
	case RequestSubstitution, RequestMenuAnalysis, RequestShoppingList, RequestRecipeSearch, RequestGeneralSupport:
		return true
	}
	return false
}

// SubstituteEntry is one row of the substitution table.
type SubstituteEntry struct {
	Substitute string `yaml:"substitute"`
	Ratio      string `yaml:"ratio"`
	Reason     string `yaml:"reason"`
}

type BasicsGroup struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

//go:embed knowledge.yaml
var defaultKnowledgeYAML []byte

type route struct {
	Type        RequestType `yaml:"type"`
	Keywords    []string    `yaml:"keywords"`
	Instruction string      `yaml:"instruction"`
}

type knowledgeFile struct {
	HistoryLimit       int                          `yaml:"history_limit"`
	Routes             []route                      `yaml:"routes"`
	GeneralInstruction string                       `yaml:"general_instruction"`
	Substitutions      map[string][]SubstituteEntry `yaml:"substitutions"`
	Foods              []string                     `yaml:"foods"`
	Basics             []BasicsGroup                `yaml:"basics"`
}

// Knowledge holds request routing and the substitution table.
type Knowledge struct {
	historyLimit  int
	routes        []route
	general       string
	substitutions map[string][]SubstituteEntry
	// foods is every recognizable food name, longest first.
	foods  []string
	basics []BasicsGroup
}

func ParseKnowledge(data []byte) (*Knowledge, error) {
	var f knowledgeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse assistant knowledge: %w", err)
	}
	k := &Knowledge{
		historyLimit:  f.HistoryLimit,
		general:       strings.TrimSpace(f.GeneralInstruction),
		substitutions: make(map[string][]SubstituteEntry, len(f.Substitutions)),
		basics:        f.Basics,
	}
	if k.historyLimit <= 0 {
		k.historyLimit = 10
	}
	for _, r := range f.Routes {
		if !r.Type.valid() || r.Type == RequestGeneralSupport {
			return nil, fmt.Errorf("assistant knowledge: unknown route type %q", r.Type)
		}
		r.Keywords = lowerAll(r.Keywords)
		r.Instruction = strings.TrimSpace(r.Instruction)
		k.routes = append(k.routes, r)
	}
	seen := map[string]bool{}
	for food, subs := range f.Substitutions {
		key := strings.ToLower(strings.TrimSpace(food))
		if key == "" || len(subs) == 0 {
			continue
		}
		k.substitutions[key] = subs
		seen[key] = true
	}
	for _, food := range lowerAll(f.Foods) {
		seen[food] = true
	}
	for food := range seen {
		k.foods = append(k.foods, food)
	}
	sort.Slice(k.foods, func(i, j int) bool {
		if len(k.foods[i]) != len(k.foods[j]) {
			return len(k.foods[i]) > len(k.foods[j])
		}
		return k.foods[i] < k.foods[j]
	})
	if len(k.routes) == 0 {
		return nil, fmt.Errorf("assistant knowledge: at least one route is required")
	}
	return k, nil
}

// LoadKnowledge reads path when set and falls back to the embedded file.
func LoadKnowledge(path string) (*Knowledge, error) {
	if strings.TrimSpace(path) == "" {
		return ParseKnowledge(defaultKnowledgeYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assistant knowledge: %w", err)
	}
	return ParseKnowledge(data)
}

func DefaultKnowledge() *Knowledge {
	k, err := ParseKnowledge(defaultKnowledgeYAML)
	if err != nil {
		panic(err)
	}
	return k
}

// Detect returns the first route whose keywords appear in message.
func (k *Knowledge) Detect(message string) RequestType {
	msg := strings.ToLower(message)
	for _, r := range k.routes {
		for _, w := range r.Keywords {
			if indexWord(msg, w, false) >= 0 {
				return r.Type
			}
		}
	}
	return RequestGeneralSupport
}

func (k *Knowledge) instruction(t RequestType) string {
	for _, r := range k.routes {
		if r.Type == t && r.Instruction != "" {
			return r.Instruction
		}
	}
	return k.general
}

// FoodsIn lists the known foods named in message in order of appearance.
// A food that is part of a longer match ("farinha" in "farinha de trigo")
// is not reported twice.
func (k *Knowledge) FoodsIn(message string) []string {
	msg := strings.ToLower(message)
	type hit struct {
		food     string
		from, to int
	}
	var hits []hit
	for _, food := range k.foods {
		at := indexWord(msg, food, true)
		if at < 0 {
			continue
		}
		covered := false
		for _, h := range hits {
			if at >= h.from && at+len(food) <= h.to {
				covered = true
				break
			}
		}
		if !covered {
			hits = append(hits, hit{food: food, from: at, to: at + len(food)})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].from < hits[j].from })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.food
	}
	return out
}

func (k *Knowledge) SubstitutesFor(food string) []SubstituteEntry {
	return k.substitutions[strings.ToLower(strings.TrimSpace(food))]
}

func (k *Knowledge) Basics() []BasicsGroup { return k.basics }

func (k *Knowledge) HistoryLimit() int { return k.historyLimit }

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// indexWord finds w in s where a word starts. With whole set the match
// must also end a word, so "sal" does not match "salada".
func indexWord(s, w string, whole bool) int {
	for off := 0; ; {
		i := strings.Index(s[off:], w)
		if i < 0 {
			return -1
		}
		at := off + i
		end := at + len(w)
		startOK := at == 0 || !letterBefore(s[:at])
		endOK := !whole || end == len(s) || !letterAfter(s[end:])
		if startOK && endOK {
			return at
		}
		off = at + 1
	}
}

func letterBefore(prefix string) bool {
	r, _ := utf8.DecodeLastRuneInString(prefix)
	return unicode.IsLetter(r)
}

func letterAfter(suffix string) bool {
	r, _ := utf8.DecodeRuneInString(suffix)
	return unicode.IsLetter(r)
}
