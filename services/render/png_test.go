package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"lakebase_dashboards/services/analytics"
	"lakebase_dashboards/services/figures"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func renderPNG(t *testing.T, fig figures.Figure) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := PNG(fig, Size{Width: 640, Height: 320}, &buf); err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatal("output is not a PNG")
	}
	return buf.Bytes()
}

func TestPNG_TimeSeries(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	renderPNG(t, figures.EventTimeline([]analytics.EventSeries{
		{EventType: "page_view", Minutes: []time.Time{t0, t0.Add(time.Minute), t0.Add(2 * time.Minute)}, Counts: []int{4, 7, 5}},
		{EventType: "share", Minutes: []time.Time{t0}, Counts: []int{1}},
	}))
}

func TestPNG_GroupedBars(t *testing.T) {
	renderPNG(t, figures.RegionalBars([]analytics.RegionSummary{
		{Region: "North", MeanDataMB: 512, MeanUsers: 120, MeanDropRate: 0.02},
		{Region: "South", MeanDataMB: 256, MeanUsers: 80, MeanDropRate: 0.04},
	}))
}

func TestPNG_HorizontalBars(t *testing.T) {
	renderPNG(t, figures.ArticleBars([]analytics.Count{{Label: "Elections", Count: 2}, {Label: "Budget", Count: 5}}))
}

func TestPNG_Pie(t *testing.T) {
	renderPNG(t, figures.DeviceDonut([]analytics.Count{{Label: "mobile", Count: 6}, {Label: "desktop", Count: 3}}))
}

func TestPNG_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(figures.Empty(figures.NoData, 300), Size{}, &buf); !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
	if err := PNG(figures.Gauge(2.5), Size{}, &buf); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("got %v, want ErrUnsupported", err)
	}
}

func TestPNG_SingleAndTiedBars(t *testing.T) {
	renderPNG(t, figures.ArticleBars([]analytics.Count{{Label: "Budget", Count: 4}}))
	renderPNG(t, figures.ArticleBars([]analytics.Count{{Label: "A", Count: 3}, {Label: "B", Count: 3}}))
}

func TestBarRange_AnchoredAtZero(t *testing.T) {
	r := barRange([]chart.Value{{Value: 3}, {Value: 7}})
	if r.Min != 0 || r.Max != 7 {
		t.Fatalf("got range [%v, %v], want [0, 7]", r.Min, r.Max)
	}
	r = barRange([]chart.Value{{Value: 0}, {Value: 0}})
	if r.Max <= r.Min {
		t.Fatalf("range must not collapse, got [%v, %v]", r.Min, r.Max)
	}
}

func TestPNG_ZeroUserDonutIsNoData(t *testing.T) {
	fig := figures.UserDonut([]analytics.RegionSummary{{Region: "North"}, {Region: "South"}})
	var buf bytes.Buffer
	if err := PNG(fig, Size{}, &buf); !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}
