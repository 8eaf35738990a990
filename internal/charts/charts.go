// Package charts renders the dashboard charts as SVG.
package charts

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"trackex/internal/core"
)

// ErrNotEnoughData means the chart has nothing to draw.
var ErrNotEnoughData = errors.New("charts: not enough data")

const (
	DefaultWidth  = 480
	DefaultHeight = 320
)

var trendColor = drawing.ColorFromHex("3B82F6")

// CategoryPie draws spend per category in registry colors. Categories with
// no spend are left out.
func CategoryPie(w io.Writer, cats []core.CategoryAmount, width, height int) error {
	values := make([]chart.Value, 0, len(cats))
	for _, c := range cats {
		if c.Amount.Cents <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s", c.Name, c.Amount.Format()),
			Value: c.Amount.Float(),
			Style: chart.Style{
				FillColor:   colorOf(c.Color),
				StrokeColor: chart.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	if len(values) == 0 {
		return ErrNotEnoughData
	}

	pie := chart.PieChart{
		Width:  width,
		Height: height,
		Values: values,
		Background: chart.Style{
			Padding:   chart.Box{Top: 10, Left: 10, Right: 10, Bottom: 10},
			FillColor: chart.ColorWhite,
		},
	}
	if err := pie.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render category chart: %w", err)
	}
	return nil
}

// TrendLine draws the monthly trend in the order given. It needs at least
// two months.
func TrendLine(w io.Writer, trend []core.MonthlyAmount, width, height int) error {
	if len(trend) < 2 {
		return ErrNotEnoughData
	}

	xs := make([]float64, len(trend))
	ys := make([]float64, len(trend))
	ticks := make([]chart.Tick, len(trend))
	maxY := 0.0
	for i, m := range trend {
		xs[i] = float64(i)
		ys[i] = m.Amount.Float()
		ticks[i] = chart.Tick{Value: float64(i), Label: m.Month}
		maxY = max(maxY, ys[i])
	}
	if maxY == 0 {
		maxY = 1
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Spending",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: trendColor,
					StrokeWidth: 2,
					DotColor:    trendColor,
					DotWidth:    3,
				},
			},
		},
	}
	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render trend chart: %w", err)
	}
	return nil
}

func colorOf(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if hex == "" {
		hex = strings.TrimPrefix(core.FallbackColor, "#")
	}
	return drawing.ColorFromHex(hex)
}
