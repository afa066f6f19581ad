package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/nutrition/menu"
)

const (
	pageMargin   = 15.0
	contentWidth = 210.0 - 2*pageMargin
	lineHeight   = 6.0
	fontFamily   = "Helvetica"
)

// writer wraps fpdf with the UTF-8 to cp1252 translation the core fonts need.
type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newWriter(title string) *writer {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle(title, true)
	p.SetAuthor("ShapeMate", true)
	p.SetCreator("shapemate-backend", true)
	p.SetMargins(pageMargin, pageMargin, pageMargin)
	p.SetAutoPageBreak(true, 18)
	p.AliasNbPages("{nb}")
	w := &writer{pdf: p, tr: p.UnicodeTranslatorFromDescriptor("")}
	p.SetFooterFunc(func() {
		p.SetY(-14)
		p.SetFont(fontFamily, "I", 8)
		p.SetTextColor(120, 120, 120)
		p.CellFormat(0, 8, w.tr(fmt.Sprintf("Plano gerado automaticamente. Consulte um nutricionista. Página %d/{nb}", p.PageNo())), "", 0, "C", false, 0, "")
	})
	return w
}

func (w *writer) heading(text string) {
	w.pdf.Ln(2)
	w.pdf.SetFont(fontFamily, "B", 14)
	w.pdf.SetTextColor(40, 90, 60)
	w.pdf.CellFormat(contentWidth, 9, w.tr(text), "B", 1, "L", false, 0, "")
	w.pdf.SetTextColor(30, 30, 30)
	w.pdf.Ln(2)
}

func (w *writer) row(label, value string) {
	w.pdf.SetFont(fontFamily, "B", 10)
	w.pdf.CellFormat(60, lineHeight, w.tr(label), "", 0, "L", false, 0, "")
	w.pdf.SetFont(fontFamily, "", 10)
	w.pdf.MultiCell(contentWidth-60, lineHeight, w.tr(value), "", "L", false)
}

func (w *writer) bullets(items []string) {
	w.pdf.SetFont(fontFamily, "", 10)
	for _, it := range items {
		w.pdf.MultiCell(contentWidth, lineHeight, w.tr("- "+it), "", "L", false)
	}
}

// writeDiet lays out every section of the diet document into out.
func writeDiet(doc document.Diet, chartPNG []byte, out io.Writer) error {
	w := newWriter("Plano Alimentar")
	p := w.pdf

	p.AddPage()
	p.SetFont(fontFamily, "B", 24)
	p.SetTextColor(40, 90, 60)
	p.Ln(30)
	p.CellFormat(contentWidth, 14, w.tr("Plano Alimentar Personalizado"), "", 1, "C", false, 0, "")
	p.SetFont(fontFamily, "", 14)
	p.SetTextColor(60, 60, 60)
	p.CellFormat(contentWidth, 10, w.tr(doc.PatientInfo.Name), "", 1, "C", false, 0, "")
	if !doc.GeneratedAt.IsZero() {
		p.CellFormat(contentWidth, 8, w.tr("Gerado em "+doc.GeneratedAt.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	}
	p.Ln(10)
	p.SetFont(fontFamily, "", 10)
	src := doc.NutritionDataSource
	p.MultiCell(contentWidth, lineHeight, w.tr(fmt.Sprintf("Fonte dos dados nutricionais: %s (%s). %d de %d alimentos encontrados.",
		src.Provider, src.URL, src.FoodsFound, src.FoodsRequested)), "", "C", false)

	w.heading("Dados do Paciente")
	pi := doc.PatientInfo
	w.row("Nome", pi.Name)
	w.row("Idade", pi.Age)
	w.row("Sexo", pi.Gender)
	w.row("Peso (kg)", pi.WeightKg)
	w.row("Altura (cm)", pi.HeightCm)
	w.row("Nível de atividade", pi.ActivityLevel)
	w.row("Objetivo", pi.PrimaryObjective)
	w.row("Restrições", pi.DietaryRestrictions)
	w.row("Alergias", pi.Allergies)

	w.heading("Cálculos Nutricionais")
	if c := doc.NutritionalCalculations; c != nil {
		writeCalculations(w, c, chartPNG)
	} else {
		w.bullets([]string{"Cálculos indisponíveis: dados insuficientes."})
	}

	p.AddPage()
	w.heading("Cardápio Semanal")
	for _, day := range doc.WeeklyMenu.Days {
		writeDay(w, day)
	}

	if len(doc.ShoppingList) > 0 {
		p.AddPage()
		w.heading("Lista de Compras (semana)")
		writeShopping(w, doc.ShoppingList)
	}

	w.heading("Orientações Práticas")
	g := doc.PracticalGuidance
	for _, sec := range []struct {
		title string
		items []string
	}{
		{"Horários das refeições", g.MealTiming},
		{"Hidratação", g.Hydration},
		{"Preparo", g.PreparationTips},
		{"Dicas personalizadas", g.PersonalizedTips},
	} {
		if len(sec.items) == 0 {
			continue
		}
		p.SetFont(fontFamily, "B", 11)
		p.CellFormat(contentWidth, 7, w.tr(sec.title), "", 1, "L", false, 0, "")
		w.bullets(sec.items)
		p.Ln(1)
	}

	if len(doc.DataGaps) > 0 {
		w.heading("Observações sobre os dados")
		w.bullets(doc.DataGaps)
	}

	if err := p.Output(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeCalculations(w *writer, c *calc.Calculation, chartPNG []byte) {
	w.row("Taxa metabólica basal", fmt.Sprintf("%.0f kcal", c.TMBKcal))
	w.row("Fator de atividade", fmt.Sprintf("%.3g (%s)", c.ActivityFactor, c.ActivityLevel))
	w.row("Gasto de manutenção", fmt.Sprintf("%.0f kcal", c.MaintenanceKcal))
	w.row("Meta diária", fmt.Sprintf("%.0f kcal", c.DailyTargetKcal))
	w.row("Ajuste do objetivo", c.ObjectiveAdjustment)
	if c.BMI > 0 {
		w.row("IMC", fmt.Sprintf("%.2f (%s)", c.BMI, c.BMICategory))
	}
	w.pdf.Ln(2)

	p := w.pdf
	p.SetFont(fontFamily, "B", 10)
	p.SetFillColor(230, 240, 232)
	for _, h := range []struct {
		txt string
		wd  float64
	}{{"Macronutriente", 60}, {"g/dia", 40}, {"kcal/dia", 40}, {"%", 40}} {
		p.CellFormat(h.wd, 7, w.tr(h.txt), "1", 0, "C", true, 0, "")
	}
	p.Ln(-1)
	p.SetFont(fontFamily, "", 10)
	for _, m := range []struct {
		name string
		t    calc.MacroTarget
	}{
		{"Proteínas", c.Macronutrients.Protein},
		{"Carboidratos", c.Macronutrients.Carbohydrates},
		{"Gorduras", c.Macronutrients.Fat},
	} {
		p.CellFormat(60, 7, w.tr(m.name), "1", 0, "L", false, 0, "")
		p.CellFormat(40, 7, fmt.Sprintf("%.1f", m.t.GramsPerDay), "1", 0, "R", false, 0, "")
		p.CellFormat(40, 7, fmt.Sprintf("%.0f", m.t.KcalPerDay), "1", 0, "R", false, 0, "")
		p.CellFormat(40, 7, fmt.Sprintf("%d", m.t.Percentage), "1", 1, "R", false, 0, "")
	}

	if len(chartPNG) == 0 {
		return
	}
	p.Ln(4)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	p.RegisterImageOptionsReader("macro-chart", opts, bytes.NewReader(chartPNG))
	p.ImageOptions("macro-chart", pageMargin+20, p.GetY(), 140, 0, true, opts, 0, "")
}

func writeDay(w *writer, day menu.Day) {
	p := w.pdf
	p.SetFont(fontFamily, "B", 12)
	p.SetFillColor(230, 240, 232)
	p.CellFormat(contentWidth, 8, w.tr(fmt.Sprintf("%s  (%.0f kcal)", day.Name, day.Kcal)), "", 1, "L", true, 0, "")
	for _, meal := range day.Meals {
		p.SetFont(fontFamily, "B", 10)
		p.CellFormat(contentWidth, lineHeight, w.tr(fmt.Sprintf("%s  (meta %.0f kcal)", meal.Name, meal.TargetKcal)), "", 1, "L", false, 0, "")
		p.SetFont(fontFamily, "", 10)
		if len(meal.Foods) == 0 {
			p.CellFormat(contentWidth, lineHeight, w.tr("   Sem alimentos disponíveis para esta refeição"), "", 1, "L", false, 0, "")
			continue
		}
		parts := make([]string, 0, len(meal.Foods))
		for _, f := range meal.Foods {
			parts = append(parts, fmt.Sprintf("%s %.0f g (%.0f kcal)", document.DisplayName(f.Food), f.GramsG, f.Kcal))
		}
		p.MultiCell(contentWidth, lineHeight, w.tr("   "+strings.Join(parts, "; ")), "", "L", false)
	}
	p.Ln(2)
}

func writeShopping(w *writer, items []document.ShoppingItem) {
	p := w.pdf
	current := ""
	for _, it := range items {
		if it.Category != current {
			current = it.Category
			p.SetFont(fontFamily, "B", 11)
			p.CellFormat(contentWidth, 7, w.tr(current), "", 1, "L", false, 0, "")
		}
		p.SetFont(fontFamily, "", 10)
		p.CellFormat(120, lineHeight, w.tr("   "+it.DisplayName), "", 0, "L", false, 0, "")
		p.CellFormat(60, lineHeight, w.tr(it.EstimatedWeeklyAmount), "", 1, "R", false, 0, "")
	}
}
