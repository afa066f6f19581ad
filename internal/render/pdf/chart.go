package pdf

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
)

const (
	chartWidth  = 640
	chartHeight = 320
)

var macroColors = []color.NRGBA{
	{R: 0xE5, G: 0x5B, B: 0x4D, A: 0xFF}, // protein
	{R: 0xF2, G: 0xB1, B: 0x34, A: 0xFF}, // carbohydrates
	{R: 0x4A, G: 0x90, B: 0xC2, A: 0xFF}, // fat
}

func loadFontFace(size float64) (font.Face, error) {
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// MacroChart draws the daily macronutrient split as a donut with a legend
// and returns it PNG-encoded.
func MacroChart(m calc.Macronutrients) ([]byte, error) {
	slices := []struct {
		label string
		t     calc.MacroTarget
	}{
		{"Proteínas", m.Protein},
		{"Carboidratos", m.Carbohydrates},
		{"Gorduras", m.Fat},
	}
	total := 0.0
	for _, s := range slices {
		total += s.t.KcalPerDay
	}
	if total <= 0 {
		return nil, fmt.Errorf("macro chart: no energy to plot")
	}

	face, err := loadFontFace(20)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	cx, cy, r := 160.0, 160.0, 130.0
	start := -math.Pi / 2
	for i, s := range slices {
		sweep := 2 * math.Pi * s.t.KcalPerDay / total
		dc.SetColor(macroColors[i])
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, r, start, start+sweep)
		dc.ClosePath()
		dc.Fill()
		start += sweep
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawCircle(cx, cy, r*0.55)
	dc.Fill()

	dc.SetFontFace(face)
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f kcal", total), cx, cy, 0.5, 0.35)

	for i, s := range slices {
		y := 90.0 + float64(i)*60
		dc.SetColor(macroColors[i])
		dc.DrawRectangle(340, y-16, 24, 24)
		dc.Fill()
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawString(fmt.Sprintf("%s %d%% (%.0f g)", s.label, s.t.Percentage, s.t.GramsPerDay), 376, y+4)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
