package figures

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lakebase_dashboards/services/analytics"
)

// ContentPulse figure ids
const (
	ReaderMap         = "geo"
	DeviceSplit       = "devices"
	TopArticles       = "top-articles"
	PublicationsChart = "publications"
	EngagementSeries  = "time-series"
)

var eventColors = map[string]string{
	"page_view":    "#0f3460",
	"scroll_depth": "#16537e",
	"comment":      "#e94560",
	"share":        "#f39c12",
	"subscribe":    "#27ae60",
}

const (
	defaultEventColor = "#999"
	transparent       = "rgba(0,0,0,0)"
)

// ReaderGeo places a marker per city, sized and coloured by reader count
func ReaderGeo(cities []analytics.CityStat) Figure {
	if len(cities) == 0 {
		return Empty(NoData, 350)
	}
	t := Trace{Type: "scattergeo", Mode: "markers"}
	sizes := make([]float64, len(cities))
	counts := make([]int, len(cities))
	for i, c := range cities {
		t.Lat = append(t.Lat, c.Latitude)
		t.Lon = append(t.Lon, c.Longitude)
		t.Text = append(t.Text, fmt.Sprintf("%s<br>%d readers", c.City, c.Readers))
		sizes[i] = c.MarkerSize
		counts[i] = c.Readers
	}
	t.Marker = M{
		"size":       sizes,
		"color":      counts,
		"colorscale": "Viridis",
		"showscale":  true,
		"sizemode":   "diameter",
		"line":       M{"width": 2, "color": "white"},
		"opacity":    0.85,
		"colorbar":   M{"title": M{"text": "Readers"}, "thickness": 15, "len": 0.7},
	}
	return Figure{
		Data: []Trace{t},
		Layout: M{
			"geo": M{
				"projection":     M{"type": "natural earth"},
				"showland":       true,
				"landcolor":      "rgb(243, 243, 243)",
				"coastlinecolor": "rgb(204, 204, 204)",
			},
			"margin":        M{"l": 0, "r": 0, "t": 0, "b": 0},
			"height":        350,
			"paper_bgcolor": transparent,
			"plot_bgcolor":  transparent,
			"uirevision":    ReaderMap,
		},
	}
}

// DeviceDonut splits events by device type
func DeviceDonut(devices []analytics.Count) Figure {
	if len(devices) == 0 {
		return Empty(NoData, 350)
	}
	t := Trace{
		Type:     "pie",
		Hole:     0.4,
		Marker:   M{"colors": []string{"#e94560", "#0f3460", "#533483"}},
		TextInfo: "label+percent",
	}
	for _, d := range devices {
		t.Labels = append(t.Labels, d.Label)
		t.Values = append(t.Values, float64(d.Count))
	}
	return Figure{
		Data: []Trace{t},
		Layout: M{
			"margin":        M{"l": 20, "r": 20, "t": 20, "b": 20},
			"height":        350,
			"paper_bgcolor": transparent,
			"showlegend":    true,
			"legend":        M{"orientation": "h", "yanchor": "bottom", "y": -0.1, "xanchor": "center", "x": 0.5},
			"uirevision":    DeviceSplit,
		},
	}
}

// ArticleBars is a horizontal bar of the most viewed articles. articles
// are expected in ascending order so the top article is drawn last.
func ArticleBars(articles []analytics.Count) Figure {
	if len(articles) == 0 {
		return Empty(NoData, 400)
	}
	t := Trace{
		Type:         "bar",
		Orientation:  "h",
		Marker:       M{"color": "#e94560"},
		TextPosition: "auto",
	}
	for _, a := range articles {
		t.Y = append(t.Y, a.Label)
		t.X = append(t.X, a.Count)
		t.Text = append(t.Text, fmt.Sprintf("%d", a.Count))
	}
	return Figure{
		Data: []Trace{t},
		Layout: M{
			"margin":        M{"l": 20, "r": 20, "t": 20, "b": 40},
			"height":        400,
			"paper_bgcolor": transparent,
			"plot_bgcolor":  transparent,
			"xaxis":         M{"title": M{"text": "Page Views"}, "gridcolor": "#f0f0f0"},
			"yaxis":         M{"title": M{"text": ""}, "tickfont": M{"size": 11}, "automargin": true},
			"uirevision":    TopArticles,
		},
	}
}

// PublicationCombo plots events as bars and revenue as a line on a
// secondary axis
func PublicationCombo(pubs []analytics.PublicationStat) Figure {
	if len(pubs) == 0 {
		return Empty(NoData, 400)
	}
	events := Trace{Type: "bar", Name: "Events", Marker: M{"color": "#0f3460"}, YAxis: "y"}
	revenue := Trace{Type: "scatter", Name: "Revenue ($)", Mode: "lines+markers",
		Marker: M{"color": "#e94560"}, Line: M{"width": 3}, YAxis: "y2"}
	for _, p := range pubs {
		events.X = append(events.X, p.Publication)
		events.Y = append(events.Y, p.Events)
		revenue.X = append(revenue.X, p.Publication)
		revenue.Y = append(revenue.Y, p.Revenue.Round(2).InexactFloat64())
	}
	return Figure{
		Data: []Trace{events, revenue},
		Layout: M{
			"yaxis":         M{"title": M{"text": "Events"}, "side": "left"},
			"yaxis2":        M{"title": M{"text": "Revenue ($)"}, "overlaying": "y", "side": "right"},
			"margin":        M{"l": 40, "r": 40, "t": 20, "b": 40},
			"height":        400,
			"paper_bgcolor": transparent,
			"plot_bgcolor":  transparent,
			"legend":        topLegend(),
			"xaxis":         M{"tickangle": -45},
			"uirevision":    PublicationsChart,
		},
	}
}

// EventTimeline draws one line per event type over per-minute counts
func EventTimeline(series []analytics.EventSeries) Figure {
	if len(series) == 0 {
		return Empty(NoData, 300)
	}
	traces := make([]Trace, 0, len(series))
	for _, s := range series {
		color, ok := eventColors[s.EventType]
		if !ok {
			color = defaultEventColor
		}
		t := Trace{
			Type:   "scatter",
			Name:   eventLabel(s.EventType),
			Mode:   "lines+markers",
			Line:   M{"width": 3, "color": color},
			Marker: M{"size": 8},
		}
		for i, m := range s.Minutes {
			t.X = append(t.X, m)
			t.Y = append(t.Y, s.Counts[i])
		}
		traces = append(traces, t)
	}
	return Figure{
		Data: traces,
		Layout: M{
			"margin":        M{"l": 40, "r": 40, "t": 20, "b": 40},
			"height":        300,
			"paper_bgcolor": transparent,
			"plot_bgcolor":  transparent,
			"xaxis":         M{"title": M{"text": "Time"}, "gridcolor": "#f0f0f0"},
			"yaxis":         M{"title": M{"text": "Events Count"}, "gridcolor": "#f0f0f0"},
			"legend":        topLegend(),
			"hovermode":     "x unified",
			"uirevision":    EngagementSeries,
		},
	}
}

// eventLabel turns an event type into a legend label: page_view becomes
// Page View
func eventLabel(eventType string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(eventType, "_", " "))
}
