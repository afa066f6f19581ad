package pdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pdfread "github.com/ledongthuc/pdf"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/nutrition/menu"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

func sampleDiet(t *testing.T) document.Diet {
	t.Helper()
	c, err := calc.Calculate(calc.Profile{WeightKg: 70, HeightCm: 175, AgeYears: 25, Gender: "male", ActivityLevel: "moderate", PrimaryObjective: "lose_weight"})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	records := map[string]*lookup.NutrientRecord{
		"chicken breast": {Name: "chicken breast", CaloriesPer100g: 165, ProteinG: 31, FatG: 3.6, Source: lookup.SourceUSDA},
		"brown rice":     {Name: "brown rice", CaloriesPer100g: 112, ProteinG: 2.3, CarbsG: 23.5, FatG: 0.8, Source: lookup.SourceUSDA},
		"broccoli":       {Name: "broccoli", CaloriesPer100g: 34, ProteinG: 2.8, CarbsG: 6.6, Source: lookup.SourceUSDA},
		"apple":          {Name: "apple", CaloriesPer100g: 52, ProteinG: 0.3, CarbsG: 13.8, Source: lookup.SourceUSDA},
	}
	return document.Build(document.Input{
		Patient: document.Patient{
			Name: "João Silva", Age: 25, Gender: "male", WeightKg: 70, HeightCm: 175,
			ActivityLevel: "moderate", PrimaryObjective: "lose_weight",
		},
		Calculation:    &c,
		Menu:           menu.BuildWeeklyMenu(records, c),
		Records:        records,
		RequestedFoods: []string{"chicken breast", "brown rice", "broccoli", "apple"},
		GeneratedAt:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	})
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(logger.Nop(), Config{OutputDir: t.TempDir(), KeyPrefix: "diets"}, nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderProducesReadablePDF(t *testing.T) {
	r := newTestRenderer(t)
	loc, err := r.Render(context.Background(), sampleDiet(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if filepath.Dir(loc) != r.cfg.OutputDir {
		t.Fatalf("location %q outside output dir %q", loc, r.cfg.OutputDir)
	}
	if base := filepath.Base(loc); !strings.HasPrefix(base, "dieta_joao-silva_20260314_103000_") {
		t.Fatalf("file name: %q", base)
	}

	f, reader, err := pdfread.Open(loc)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	defer f.Close()
	if n := reader.NumPage(); n < 3 {
		t.Fatalf("expected at least 3 pages (cover, menu, shopping), got %d", n)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		t.Fatalf("GetPlainText: %v", err)
	}
	raw, _ := io.ReadAll(plain)
	text := string(raw)
	for _, want := range []string{"USDA", "kcal"} {
		if !strings.Contains(text, want) {
			t.Fatalf("pdf text missing %q", want)
		}
	}
}

func TestRenderWithoutCalculations(t *testing.T) {
	r := newTestRenderer(t)
	doc := document.Build(document.Input{GeneratedAt: time.Now()})
	var buf bytes.Buffer
	if err := r.Write(doc, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, sampleDiet(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOpenAndDiscard(t *testing.T) {
	r := newTestRenderer(t)
	ctx := context.Background()
	loc, err := r.Render(ctx, sampleDiet(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	rc, err := r.Open(ctx, loc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rc.Close()

	if _, err := r.Open(ctx, "/etc/passwd"); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("Open outside output dir: expected ErrInvalidLocation, got %v", err)
	}
	if _, err := r.Open(ctx, "gcs://diets/x.pdf"); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("Open archive without bucket: expected ErrInvalidLocation, got %v", err)
	}

	if err := r.Discard(ctx, loc); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(loc); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Discard left file behind: %v", err)
	}
}

func TestMacroChart(t *testing.T) {
	c, _ := calc.Calculate(calc.Profile{WeightKg: 80, HeightCm: 180, AgeYears: 30, Gender: "male"})
	png, err := MacroChart(c.Macronutrients)
	if err != nil {
		t.Fatalf("MacroChart: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("chart is not a PNG")
	}
	if _, err := MacroChart(calc.Macronutrients{}); err == nil {
		t.Fatalf("expected error for empty macros")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"João Silva":     "joao-silva",
		"  Ana  Souza! ": "ana-souza",
		"Não informado":  "nao-informado",
		"":               "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
