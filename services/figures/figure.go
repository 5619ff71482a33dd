// Package figures builds Plotly figure objects from analytics aggregates.
// Figures are plain data: they marshal to the JSON Plotly.js expects and
// the same input always yields the same output.
package figures

import "encoding/json"

// M is a free-form Plotly attribute object
type M = map[string]any

// Figure is a Plotly figure: traces plus layout
type Figure struct {
	Data   []Trace `json:"data"`
	Layout M       `json:"layout"`
}

// Trace is one Plotly trace. Only the attributes the dashboards use are
// typed; nested styling goes through M.
type Trace struct {
	Type          string       `json:"type"`
	Name          string       `json:"name,omitempty"`
	Mode          string       `json:"mode,omitempty"`
	X             []any        `json:"x,omitempty"`
	Y             []any        `json:"y,omitempty"`
	Z             [][]*float64 `json:"z,omitempty"`
	Lat           []float64    `json:"lat,omitempty"`
	Lon           []float64    `json:"lon,omitempty"`
	Labels        []string     `json:"labels,omitempty"`
	Values        []float64    `json:"values,omitempty"`
	Text          []string     `json:"text,omitempty"`
	Value         *float64     `json:"value,omitempty"`
	Hole          float64      `json:"hole,omitempty"`
	Pull          []float64    `json:"pull,omitempty"`
	Orientation   string       `json:"orientation,omitempty"`
	StackGroup    string       `json:"stackgroup,omitempty"`
	YAxis         string       `json:"yaxis,omitempty"`
	FillColor     string       `json:"fillcolor,omitempty"`
	ColorScale    string       `json:"colorscale,omitempty"`
	TextInfo      string       `json:"textinfo,omitempty"`
	TextPosition  string       `json:"textposition,omitempty"`
	HoverTemplate string       `json:"hovertemplate,omitempty"`
	Line          M            `json:"line,omitempty"`
	Marker        M            `json:"marker,omitempty"`
	ColorBar      M            `json:"colorbar,omitempty"`
	Delta         M            `json:"delta,omitempty"`
	Number        M            `json:"number,omitempty"`
	Gauge         M            `json:"gauge,omitempty"`
	Title         M            `json:"title,omitempty"`
	Domain        M            `json:"domain,omitempty"`
}

// JSON encodes the figure
func (f Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}

// Extension appends points to existing traces without redrawing the
// figure, mirroring Plotly.extendTraces(x, y, traces, maxPoints)
type Extension struct {
	Figure    string  `json:"figure"`
	X         [][]any `json:"x"`
	Y         [][]any `json:"y"`
	Traces    []int   `json:"traces"`
	MaxPoints int     `json:"maxPoints"`
}

// Empty is the placeholder shown when a dashboard has no rows
func Empty(text string, height int) Figure {
	return Figure{
		Data: []Trace{},
		Layout: M{
			"template":      "plotly_white",
			"height":        height,
			"paper_bgcolor": "white",
			"xaxis":         M{"visible": false},
			"yaxis":         M{"visible": false},
			"annotations": []M{{
				"text":      text,
				"font":      M{"size": 20, "color": "gray"},
				"showarrow": false,
				"xref":      "paper",
				"yref":      "paper",
				"x":         0.5,
				"y":         0.5,
			}},
		},
	}
}

// NoData is the standard empty figure
const NoData = "No Data Available"

func title(text string) M {
	return M{
		"text":    text,
		"font":    M{"size": 20, "color": "#2c3e50", "family": "Arial Black"},
		"x":       0.5,
		"xanchor": "center",
	}
}

func topLegend() M {
	return M{"orientation": "h", "yanchor": "bottom", "y": 1.02, "xanchor": "right", "x": 1}
}
