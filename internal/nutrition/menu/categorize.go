package menu

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
)

type Category string

const (
	CategoryProtein      Category = "protein"
	CategoryCarbohydrate Category = "carbohydrate"
	CategoryDairy        Category = "dairy"
	CategoryFruit        Category = "fruit"
	CategoryVegetable    Category = "vegetable"
	CategoryFatOther     Category = "fat_other"
)

//go:embed categories.yaml
var defaultCategoriesYAML []byte

type categoryFile struct {
	Thresholds struct {
		ProteinFraction      float64 `yaml:"protein_fraction"`
		CarbohydrateFraction float64 `yaml:"carbohydrate_fraction"`
	} `yaml:"thresholds"`
	Keywords map[string][]string `yaml:"keywords"`
}

// Categorizer assigns a food to one pool. Macro thresholds are checked
// first (protein, then carbohydrate), then the keyword lists in the order
// dairy, fruit, vegetable. Anything left is fat_other.
type Categorizer struct {
	ProteinFraction      float64
	CarbohydrateFraction float64
	keywords             map[Category][]string
}

var keywordOrder = []Category{CategoryDairy, CategoryFruit, CategoryVegetable}

func ParseCategories(data []byte) (*Categorizer, error) {
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse menu categories: %w", err)
	}
	c := &Categorizer{
		ProteinFraction:      f.Thresholds.ProteinFraction,
		CarbohydrateFraction: f.Thresholds.CarbohydrateFraction,
		keywords:             map[Category][]string{},
	}
	if c.ProteinFraction <= 0 {
		c.ProteinFraction = 0.15
	}
	if c.CarbohydrateFraction <= 0 {
		c.CarbohydrateFraction = 0.20
	}
	for _, cat := range keywordOrder {
		for _, kw := range f.Keywords[string(cat)] {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				c.keywords[cat] = append(c.keywords[cat], kw)
			}
		}
	}
	return c, nil
}

func LoadCategoriesFile(path string) (*Categorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu categories: %w", err)
	}
	return ParseCategories(data)
}

// DefaultCategorizer parses the embedded keyword file. It panics only if the
// embedded file is malformed.
func DefaultCategorizer() *Categorizer {
	c, err := ParseCategories(defaultCategoriesYAML)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Categorizer) Categorize(rec *lookup.NutrientRecord) Category {
	if rec == nil {
		return CategoryFatOther
	}
	if rec.ProteinG/100 > c.ProteinFraction {
		return CategoryProtein
	}
	if rec.CarbsG/100 > c.CarbohydrateFraction {
		return CategoryCarbohydrate
	}
	text := strings.ToLower(rec.Name + " " + rec.Description)
	for _, cat := range keywordOrder {
		for _, kw := range c.keywords[cat] {
			if strings.Contains(text, kw) {
				return cat
			}
		}
	}
	return CategoryFatOther
}
