// Package chart renders report charts as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spacesedan/sentireport/internal/models"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DEFAULT_WIDTH  = 512
	DEFAULT_HEIGHT = 512

	MIME_TYPE_PNG = "image/png"

	TITLE_SENTIMENT_DISTRIBUTION = "Sentiment Distribution"
)

// DefaultPalette is used for slices without an explicit color.
var DefaultPalette = []string{"4CAF50", "FFC107", "F44336", "2196F3", "9C27B0", "607D8B"}

var ErrNoData = errors.New("chart has no non-zero slices")

type Slice struct {
	Label string
	Value float64
	// Color is a hex RGB value, with or without a leading '#'.
	Color string
}

type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: DEFAULT_WIDTH, Height: DEFAULT_HEIGHT}
}

// PieChart draws one wedge per non-zero slice, labeled "<Label> <pct>%" with
// one decimal. Each call builds its own chart and canvas.
func (r *Renderer) PieChart(title string, slices []Slice) (models.ChartArtifact, error) {
	var total float64
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total == 0 {
		return models.ChartArtifact{}, ErrNoData
	}

	values := make([]chart.Value, 0, len(slices))
	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}

		color := s.Color
		if color == "" {
			color = DefaultPalette[i%len(DefaultPalette)]
		}

		values = append(values, chart.Value{
			Label: SliceLabel(s.Label, s.Value, total),
			Value: s.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(strings.TrimPrefix(color, "#")),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}

	if len(values) == 1 {
		values = fullDisc(values[0])
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  r.width(),
		Height: r.height(),
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return models.ChartArtifact{}, fmt.Errorf("[Chart] failed to render pie chart: %w", err)
	}

	return models.ChartArtifact{MIMEType: MIME_TYPE_PNG, Data: buf.Bytes()}, nil
}

// fullDisc splits a lone value into two halves of the same color. go-chart
// draws a single value as an unstyled circle that is never filled.
func fullDisc(v chart.Value) []chart.Value {
	v.Value /= 2
	v.Style.StrokeColor = v.Style.FillColor

	rest := v
	rest.Label = ""
	return []chart.Value{v, rest}
}

func SliceLabel(label string, value, total float64) string {
	return fmt.Sprintf("%s %.1f%%", label, value/total*100)
}

func (r *Renderer) width() int {
	if r.Width <= 0 {
		return DEFAULT_WIDTH
	}
	return r.Width
}

func (r *Renderer) height() int {
	if r.Height <= 0 {
		return DEFAULT_HEIGHT
	}
	return r.Height
}
