// Package render turns classification output into chart images. It consumes
// only plain numeric data (catalog, weights, group sums, best index) and
// returns base64-encoded PNG artifacts; the chart layout itself is a
// presentation detail with no contract beyond "viewable".
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"go-skintone-analyzer/internal/palette"
	"go-skintone-analyzer/pkg/models"
)

// ChartRenderer draws the tone wheel, composition breakdown and rose diagram
// for a palette model. Stateless apart from the read-only model.
type ChartRenderer struct {
	model *palette.Model
}

// NewChartRenderer creates a renderer over the given palette model.
func NewChartRenderer(m *palette.Model) *ChartRenderer {
	return &ChartRenderer{model: m}
}

// CompositePlot renders the three-panel overview: a tone wheel with an
// arrow on the best match, a textual composition breakdown, and a horizontal
// bar chart. Returns the chart as a base64 PNG string.
func (r *ChartRenderer) CompositePlot(weights []float64, groupWeights map[string]float64, bestIdx int) (string, error) {
	n := r.model.Len()
	if len(weights) != n {
		return "", fmt.Errorf("expected %d weights, got %d", n, len(weights))
	}
	if bestIdx < 0 || bestIdx >= n {
		return "", fmt.Errorf("best index %d out of range [0,%d)", bestIdx, n)
	}

	const (
		width  = 1500
		height = 600
	)
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	r.drawWheel(dc, 250, 300, 150, bestIdx)
	r.drawBreakdownText(dc, 540, 120, weights, groupWeights)
	r.drawBars(dc, 1040, 80, 400, weights)

	return encodeBase64PNG(dc)
}

// RosePlot renders the radial bar (rose) diagram: one wedge per catalog
// entry, radius proportional to its weight.
func (r *ChartRenderer) RosePlot(weights []float64) (string, error) {
	n := r.model.Len()
	if len(weights) != n {
		return "", fmt.Errorf("expected %d weights, got %d", n, len(weights))
	}

	const (
		size    = 600
		maxR    = 230.0
		labelR  = 255.0
		cx, cy  = size / 2, size / 2
	)
	dc := gg.NewContext(size, size)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	maxWeight := 0.0
	for _, w := range weights {
		if w > maxWeight {
			maxWeight = w
		}
	}
	if maxWeight == 0 {
		maxWeight = 1
	}

	theta := 2 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		entry := r.model.Entry(i)
		radius := maxR * weights[i] / maxWeight
		start := float64(i) * theta

		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, start, start+theta)
		dc.ClosePath()
		dc.SetRGB255(int(entry.RGB[0]), int(entry.RGB[1]), int(entry.RGB[2]))
		dc.FillPreserve()
		dc.SetRGB(1, 1, 1)
		dc.SetLineWidth(1.5)
		dc.Stroke()

		// Entry label outside its wedge.
		mid := start + theta/2
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(entry.Name, cx+labelR*math.Cos(mid), cy+labelR*math.Sin(mid), 0.5, 0.5)
	}

	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored("Skin Tone Rose Diagram", size/2, 20, 0.5, 0.5)

	return encodeBase64PNG(dc)
}

func (r *ChartRenderer) drawWheel(dc *gg.Context, cx, cy, radius float64, bestIdx int) {
	n := r.model.Len()
	theta := 2 * math.Pi / float64(n)

	for i := 0; i < n; i++ {
		entry := r.model.Entry(i)
		start := float64(i) * theta

		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, start, start+theta)
		dc.ClosePath()
		dc.SetRGB255(int(entry.RGB[0]), int(entry.RGB[1]), int(entry.RGB[2]))
		dc.FillPreserve()
		dc.SetRGB(1, 1, 1)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	// Arrow pointing at the center of the best-match wedge.
	angle := float64(bestIdx)*theta + theta/2
	outerX := cx + 1.3*radius*math.Cos(angle)
	outerY := cy + 1.3*radius*math.Sin(angle)
	tipX := cx + 1.05*radius*math.Cos(angle)
	tipY := cy + 1.05*radius*math.Sin(angle)

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(3)
	dc.DrawLine(outerX, outerY, tipX, tipY)
	dc.Stroke()

	const headLen = 12.0
	left := angle + math.Pi/7
	right := angle - math.Pi/7
	dc.MoveTo(tipX, tipY)
	dc.LineTo(tipX+headLen*math.Cos(left), tipY+headLen*math.Sin(left))
	dc.LineTo(tipX+headLen*math.Cos(right), tipY+headLen*math.Sin(right))
	dc.ClosePath()
	dc.Fill()

	dc.DrawStringAnchored("Skin Tone Wheel (Arrow = Your Tone)", cx, cy-radius-60, 0.5, 0.5)
}

func (r *ChartRenderer) drawBreakdownText(dc *gg.Context, x, y float64, weights []float64, groupWeights map[string]float64) {
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawString(fmt.Sprintf("Skin Tone Composition (%d colors)", r.model.Len()), x, y)

	lineHeight := 20.0
	cursor := y + 2*lineHeight
	for i := 0; i < r.model.Len(); i++ {
		line := fmt.Sprintf("%-12s: %5.2f%%", r.model.Entry(i).Name, weights[i]*100)
		dc.DrawString(line, x, cursor)
		cursor += lineHeight
	}

	cursor += lineHeight
	dc.DrawString("Warm/Cool/Neutral Base:", x, cursor)
	cursor += lineHeight
	for _, group := range []string{models.GroupWarm, models.GroupCool, models.GroupNeutral} {
		dc.DrawString(fmt.Sprintf("%-8s: %5.2f%%", group, groupWeights[group]*100), x, cursor)
		cursor += lineHeight
	}
}

func (r *ChartRenderer) drawBars(dc *gg.Context, x, y, maxLen float64, weights []float64) {
	maxWeight := 0.0
	for _, w := range weights {
		if w > maxWeight {
			maxWeight = w
		}
	}
	if maxWeight == 0 {
		maxWeight = 1
	}

	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawString("Skin Tone Composition Bar Chart", x, y-30)

	const barHeight = 24.0
	const gap = 12.0
	for i := 0; i < r.model.Len(); i++ {
		entry := r.model.Entry(i)
		barY := y + float64(i)*(barHeight+gap)
		length := maxLen * weights[i] / maxWeight

		dc.SetRGB255(int(entry.RGB[0]), int(entry.RGB[1]), int(entry.RGB[2]))
		dc.DrawRectangle(x+90, barY, length, barHeight)
		dc.Fill()

		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(entry.Name, x+80, barY+barHeight/2, 1, 0.5)
	}
}

func encodeBase64PNG(dc *gg.Context) (string, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("failed to encode chart: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
