package figures

import (
	"fmt"
	"time"

	"lakebase_dashboards/models"
	"lakebase_dashboards/services/analytics"
)

// Telecom figure ids
const (
	DataUsage           = "data-usage"
	ActiveUsers         = "users"
	CallDropGauge       = "gauge"
	UserDistribution    = "pie"
	NetworkHeatmap      = "heatmap"
	RegionalPerformance = "bar"
)

const (
	telecomHeight = 380
	// ExtensionMaxPoints is how many points a client keeps per trace
	ExtensionMaxPoints = 200
	// DropReference is the call drop rate the gauge delta compares to
	DropReference = 2.0
)

var towerColors = []string{"#667eea", "#764ba2", "#f093fb", "#4facfe", "#43e97b", "#fa709a"}

func regionLabel(region string) string {
	if region == "" {
		return "All Regions"
	}
	return region
}

func timeSeriesLayout(text, yTitle, revision string) M {
	return M{
		"title":         title(text),
		"template":      "plotly_white",
		"hovermode":     "x unified",
		"height":        telecomHeight,
		"paper_bgcolor": "white",
		"plot_bgcolor":  "rgba(250,250,250,0.5)",
		"margin":        M{"l": 60, "r": 40, "t": 80, "b": 60},
		"xaxis":         M{"showgrid": true, "gridcolor": "#e8e8e8", "title": M{"text": "Time"}, "tickformat": "%H:%M:%S"},
		"yaxis":         M{"showgrid": true, "gridcolor": "#e8e8e8", "title": M{"text": yTitle}, "rangemode": "tozero"},
		"legend":        topLegend(),
		"uirevision":    revision,
	}
}

func towerTraces(rows []models.IoTReading, value func(models.IoTReading) any, style func(i int) Trace) []Trace {
	towers := analytics.TopTowers(rows, analytics.MaxTowers)
	traces := make([]Trace, 0, len(towers))
	for i, tower := range towers {
		series := analytics.TowerSeries(rows, tower, analytics.TowerTail)
		t := style(i)
		t.Name = tower
		t.X = make([]any, len(series))
		t.Y = make([]any, len(series))
		for j, r := range series {
			t.X[j] = r.Timestamp
			t.Y[j] = value(r)
		}
		traces = append(traces, t)
	}
	return traces
}

// DataUsageTrend plots data usage of the most recent towers. rows must
// already be filtered to region.
func DataUsageTrend(rows []models.IoTReading, region string) Figure {
	if len(rows) == 0 {
		return Empty(NoData, telecomHeight)
	}
	traces := towerTraces(rows,
		func(r models.IoTReading) any { return r.DataUsageMB },
		func(i int) Trace {
			return Trace{
				Type:          "scatter",
				Mode:          "lines+markers",
				Line:          M{"width": 3, "shape": "spline", "color": towerColors[i]},
				Marker:        M{"size": 6, "line": M{"width": 2, "color": "white"}},
				HoverTemplate: "<b>%{fullData.name}</b><br>%{x|%H:%M:%S}<br>%{y:.1f} MB<extra></extra>",
			}
		})
	return Figure{
		Data:   traces,
		Layout: timeSeriesLayout("📡 Data Usage Trend - "+regionLabel(region), "Data (MB)", DataUsage),
	}
}

// ActiveUsersStack plots active users per tower as stacked areas
func ActiveUsersStack(rows []models.IoTReading, region string) Figure {
	if len(rows) == 0 {
		return Empty(NoData, telecomHeight)
	}
	traces := towerTraces(rows,
		func(r models.IoTReading) any { return r.ActiveUsers },
		func(i int) Trace {
			return Trace{
				Type:          "scatter",
				Mode:          "lines",
				Line:          M{"width": 0},
				StackGroup:    "one",
				FillColor:     towerColors[i],
				HoverTemplate: "<b>%{fullData.name}</b><br>%{x|%H:%M:%S}<br>%{y} users<extra></extra>",
			}
		})
	return Figure{
		Data:   traces,
		Layout: timeSeriesLayout("👥 Active Users - "+regionLabel(region), "Users", "active-users"),
	}
}

// Gauge shows the call drop percentage against fixed green/amber/red bands
func Gauge(dropPercent float64) Figure {
	return Figure{
		Data: []Trace{{
			Type:   "indicator",
			Mode:   "gauge+number+delta",
			Value:  &dropPercent,
			Domain: M{"x": []int{0, 1}, "y": []int{0, 1}},
			Title:  M{"text": "<b>📉 Call Drop Rate (%)</b>", "font": M{"size": 20, "color": "#2c3e50"}},
			Delta: M{
				"reference":  DropReference,
				"increasing": M{"color": "#e74c3c"},
				"decreasing": M{"color": "#2ecc71"},
			},
			Number: M{"suffix": "%", "font": M{"size": 44, "color": "#2c3e50"}},
			Gauge: M{
				"axis":        M{"range": []int{0, 10}, "tickwidth": 2, "tickcolor": "#2c3e50"},
				"bar":         M{"color": "#667eea", "thickness": 0.7},
				"bgcolor":     "white",
				"borderwidth": 3,
				"bordercolor": "#ecf0f1",
				"steps": []M{
					{"range": []int{0, 2}, "color": "#d4edda"},
					{"range": []int{2, 5}, "color": "#fff3cd"},
					{"range": []int{5, 10}, "color": "#f8d7da"},
				},
				"threshold": M{"line": M{"color": "#e74c3c", "width": 5}, "thickness": 0.8, "value": 5},
			},
		}},
		Layout: M{
			"paper_bgcolor": "white",
			"height":        telecomHeight,
			"margin":        M{"l": 30, "r": 30, "t": 80, "b": 30},
			"uirevision":    CallDropGauge,
		},
	}
}

// UserDonut splits active users by region with the total in the hole
func UserDonut(summary []analytics.RegionSummary) Figure {
	if len(summary) == 0 {
		return Empty(NoData, telecomHeight)
	}
	var total int64
	t := Trace{
		Type:          "pie",
		Hole:          0.55,
		Marker:        M{"colors": towerColors, "line": M{"color": "white", "width": 4}},
		TextInfo:      "label+percent",
		HoverTemplate: "<b>%{label}</b><br>%{value:,} users<br>%{percent}<extra></extra>",
	}
	for i, s := range summary {
		t.Labels = append(t.Labels, s.Region)
		t.Values = append(t.Values, float64(s.TotalUsers))
		pull := 0.0
		if i == 0 {
			pull = 0.08
		}
		t.Pull = append(t.Pull, pull)
		total += s.TotalUsers
	}
	return Figure{
		Data: []Trace{t},
		Layout: M{
			"title":         title("🧭 User Distribution"),
			"height":        telecomHeight,
			"paper_bgcolor": "white",
			"margin":        M{"l": 30, "r": 30, "t": 80, "b": 30},
			"legend":        M{"orientation": "v", "yanchor": "middle", "y": 0.5, "xanchor": "left", "x": 1.05},
			"uirevision":    UserDistribution,
			"annotations": []M{{
				"text":      fmt.Sprintf("<b>%s</b><br><span style='font-size:14px'>Total</span>", analytics.Thousands(total)),
				"x":         0.5,
				"y":         0.5,
				"font":      M{"size": 20, "color": "#2c3e50", "family": "Arial Black"},
				"showarrow": false,
			}},
		},
	}
}

// ActivityHeatmap draws mean users per region and time bucket
func ActivityHeatmap(h analytics.Heatmap) Figure {
	if len(h.Regions) == 0 {
		return Empty(NoData, telecomHeight)
	}
	x := make([]any, len(h.Buckets))
	for i, b := range h.Buckets {
		x[i] = b.Format("15:04")
	}
	y := make([]any, len(h.Regions))
	for i, r := range h.Regions {
		y[i] = r
	}
	return Figure{
		Data: []Trace{{
			Type:          "heatmap",
			X:             x,
			Y:             y,
			Z:             h.Z,
			ColorScale:    "Viridis",
			HoverTemplate: "<b>%{y}</b><br>%{x}<br>%{z:.0f} users<extra></extra>",
			ColorBar:      M{"title": M{"text": "Users", "side": "right"}},
		}},
		Layout: M{
			"title":         title("🌐 Network Activity Heatmap"),
			"template":      "plotly_white",
			"height":        telecomHeight,
			"paper_bgcolor": "white",
			"margin":        M{"l": 100, "r": 100, "t": 80, "b": 100},
			"xaxis":         M{"title": M{"text": "Time"}, "tickangle": -45},
			"yaxis":         M{"title": M{"text": "Region"}},
			"uirevision":    NetworkHeatmap,
		},
	}
}

// RegionalBars compares mean data, users and drop rate per region. The
// drop rate is scaled by 10 so it is visible next to the other series;
// its label shows the unscaled value.
func RegionalBars(summary []analytics.RegionSummary) Figure {
	if len(summary) == 0 {
		return Empty(NoData, telecomHeight)
	}
	regions := make([]any, len(summary))
	data := Trace{Type: "bar", Name: "Data (MB)", Marker: M{"color": "#667eea"}, TextPosition: "outside",
		HoverTemplate: "<b>%{x}</b><br>%{y:.1f} MB<extra></extra>"}
	users := Trace{Type: "bar", Name: "Users", Marker: M{"color": "#764ba2"}, TextPosition: "outside",
		HoverTemplate: "<b>%{x}</b><br>%{y:.0f} users<extra></extra>"}
	drop := Trace{Type: "bar", Name: "Drop %", Marker: M{"color": "#f093fb"}, TextPosition: "outside",
		HoverTemplate: "<b>%{x}</b><br>%{text}%<extra></extra>"}
	for i, s := range summary {
		regions[i] = s.Region
		data.Y = append(data.Y, s.MeanDataMB)
		data.Text = append(data.Text, fmt.Sprintf("%.0f", s.MeanDataMB))
		users.Y = append(users.Y, s.MeanUsers)
		users.Text = append(users.Text, fmt.Sprintf("%.0f", s.MeanUsers))
		drop.Y = append(drop.Y, s.MeanDropRate*10)
		drop.Text = append(drop.Text, fmt.Sprintf("%.2f", s.MeanDropRate))
	}
	data.X, users.X, drop.X = regions, regions, regions
	return Figure{
		Data: []Trace{data, users, drop},
		Layout: M{
			"title":         title("📊 Regional Performance"),
			"barmode":       "group",
			"template":      "plotly_white",
			"height":        telecomHeight,
			"paper_bgcolor": "white",
			"plot_bgcolor":  "rgba(250,250,250,0.5)",
			"margin":        M{"l": 60, "r": 40, "t": 80, "b": 60},
			"xaxis":         M{"title": M{"text": "Region"}},
			"yaxis":         M{"showgrid": true, "gridcolor": "#e8e8e8", "title": M{"text": "Metrics"}},
			"legend":        topLegend(),
			"uirevision":    RegionalPerformance,
		},
	}
}

// TowerExtensions returns the points newer than window for the data usage
// and active users charts. Trace order matches DataUsageTrend and
// ActiveUsersStack for the same rows.
func TowerExtensions(rows []models.IoTReading, window time.Duration) []Extension {
	towers := analytics.TopTowers(rows, analytics.MaxTowers)
	if len(towers) == 0 {
		return nil
	}
	recent := analytics.ExtensionWindow(rows, window)
	usage := Extension{Figure: DataUsage, MaxPoints: ExtensionMaxPoints}
	users := Extension{Figure: ActiveUsers, MaxPoints: ExtensionMaxPoints}
	for i, tower := range towers {
		series := analytics.TowerSeries(recent, tower, 0)
		xs := make([]any, len(series))
		usageY := make([]any, len(series))
		usersY := make([]any, len(series))
		for j, r := range series {
			xs[j] = r.Timestamp
			usageY[j] = r.DataUsageMB
			usersY[j] = r.ActiveUsers
		}
		usage.X, usage.Y = append(usage.X, xs), append(usage.Y, usageY)
		users.X, users.Y = append(users.X, xs), append(users.Y, usersY)
		usage.Traces = append(usage.Traces, i)
		users.Traces = append(users.Traces, i)
	}
	return []Extension{usage, users}
}
