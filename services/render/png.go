// Package render exports dashboard figures as static PNG images
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"lakebase_dashboards/services/figures"
)

var (
	// ErrNoData is returned for figures without traces
	ErrNoData = errors.New("figure has no data")
	// ErrUnsupported is returned for trace types with no static rendering
	ErrUnsupported = errors.New("figure type cannot be exported")
)

// Size is the pixel size of an exported image
type Size struct {
	Width  int
	Height int
}

// DefaultSize is used when the caller does not ask for one
var DefaultSize = Size{Width: 960, Height: 420}

var palette = []string{"#667eea", "#764ba2", "#f093fb", "#4facfe", "#43e97b", "#fa709a"}

// PNG writes fig as a PNG. Line and area traces become a line chart, bar
// traces a bar chart and pie traces a pie chart.
func PNG(fig figures.Figure, size Size, w io.Writer) error {
	if len(fig.Data) == 0 {
		return ErrNoData
	}
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	title := layoutTitle(fig.Layout)

	switch fig.Data[0].Type {
	case "scatter":
		return lineChart(fig, title, size, w)
	case "bar":
		return barChart(fig, title, size, w)
	case "pie":
		return pieChart(fig.Data[0], title, size, w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, fig.Data[0].Type)
	}
}

func lineChart(fig figures.Figure, title string, size Size, w io.Writer) error {
	var series []chart.Series
	timeAxis := false
	for i, tr := range fig.Data {
		if tr.Type != "scatter" {
			continue
		}
		style := chart.Style{
			StrokeColor: color(tr.Line, i),
			StrokeWidth: 2,
		}
		ys, err := floats(tr.Y)
		if err != nil {
			return err
		}
		if times, ok := timesOf(tr.X); ok {
			timeAxis = true
			// go-chart needs two points to compute a range
			if len(times) == 1 {
				times = append(times, times[0].Add(time.Second))
				ys = append(ys, ys[0])
			}
			series = append(series, chart.TimeSeries{Name: tr.Name, XValues: times, YValues: ys, Style: style})
			continue
		}
		xs := make([]float64, len(ys))
		for j := range xs {
			xs[j] = float64(j)
		}
		if len(xs) == 1 {
			xs = append(xs, 1)
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{Name: tr.Name, XValues: xs, YValues: ys, Style: style})
	}
	if len(series) == 0 {
		return ErrNoData
	}

	xAxis := chart.XAxis{}
	if timeAxis {
		xAxis.Name = "Time"
		xAxis.ValueFormatter = chart.TimeValueFormatterWithFormat("15:04:05")
	}
	ch := chart.Chart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      xAxis,
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// barChart draws every bar of every trace side by side. Grouped traces
// are labelled "category / trace".
func barChart(fig figures.Figure, title string, size Size, w io.Writer) error {
	var bars []chart.Value
	grouped := len(fig.Data) > 1
	for i, tr := range fig.Data {
		if tr.Type != "bar" {
			continue
		}
		labels, values := tr.X, tr.Y
		if tr.Orientation == "h" {
			labels, values = tr.Y, tr.X
		}
		nums, err := floats(values)
		if err != nil {
			return err
		}
		for j, v := range nums {
			label := fmt.Sprint(labels[j])
			if grouped && tr.Name != "" {
				label += " / " + tr.Name
			}
			bars = append(bars, chart.Value{
				Label: label,
				Value: v,
				Style: chart.Style{FillColor: color(tr.Marker, i), StrokeColor: color(tr.Marker, i)},
			})
		}
	}
	if len(bars) == 0 {
		return ErrNoData
	}
	bw := barWidth(size.Width, len(bars))
	yRange := barRange(bars)
	bc := chart.BarChart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   bw,
		BarSpacing: bw / 2,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{Range: &yRange},
		Bars:  bars,
	}
	return bc.Render(chart.PNG, w)
}

// barRange anchors the axis at zero so the shortest bar keeps its height
// and a single or tied set of bars still has a non-empty range
func barRange(bars []chart.Value) chart.ContinuousRange {
	r := chart.ContinuousRange{}
	for _, b := range bars {
		r.Min = math.Min(r.Min, b.Value)
		r.Max = math.Max(r.Max, b.Value)
	}
	if r.Max == r.Min {
		r.Max = r.Min + 1
	}
	return r
}

func pieChart(tr figures.Trace, title string, size Size, w io.Writer) error {
	var total float64
	for _, v := range tr.Values {
		total += v
	}
	// go-chart refuses a pie without a non-zero slice
	if total <= 0 {
		return ErrNoData
	}
	values := make([]chart.Value, len(tr.Values))
	for i, v := range tr.Values {
		values[i] = chart.Value{
			Label: tr.Labels[i],
			Value: v,
			Style: chart.Style{FillColor: hex(palette[i%len(palette)])},
		}
	}
	pc := chart.PieChart{
		Title:  title,
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}

func barWidth(width, bars int) int {
	bw := width / (bars * 2)
	if bw < 8 {
		return 8
	}
	if bw > 60 {
		return 60
	}
	return bw
}

// layoutTitle reads layout.title.text
func layoutTitle(layout figures.M) string {
	t, ok := layout["title"].(figures.M)
	if !ok {
		return ""
	}
	s, _ := t["text"].(string)
	return s
}

// color picks the trace colour from line.color or marker.color, falling
// back to the palette
func color(attrs figures.M, i int) drawing.Color {
	if c, ok := attrs["color"].(string); ok && strings.HasPrefix(c, "#") {
		return hex(c)
	}
	return hex(palette[i%len(palette)])
}

func hex(c string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(c, "#"))
}

func timesOf(xs []any) ([]time.Time, bool) {
	if len(xs) == 0 {
		return nil, false
	}
	out := make([]time.Time, len(xs))
	for i, x := range xs {
		t, ok := x.(time.Time)
		if !ok {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

func floats(vs []any) ([]float64, error) {
	out := make([]float64, len(vs))
	for i, v := range vs {
		switch n := v.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		case int64:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("%w: non-numeric value %T", ErrUnsupported, v)
		}
	}
	return out, nil
}
