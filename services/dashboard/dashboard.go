// Package dashboard assembles the per-tick updates of each dashboard from
// its feed: KPI cards, full figures and trace extensions.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lakebase_dashboards/services/analytics"
	"lakebase_dashboards/services/figures"
)

var (
	ErrUnknownDashboard = errors.New("unknown dashboard")
	ErrUnknownTick      = errors.New("unknown tick")
	ErrUnknownFigure    = errors.New("unknown figure")
)

// Tick names
const (
	TickInit   = "init"
	TickFast   = "fast"
	TickMedium = "medium"
	TickSlow   = "slow"
)

// Tick is a named refresh. Ticks with a zero interval are only served on
// request and never scheduled.
type Tick struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
}

// Update is everything a client needs to apply one tick
type Update struct {
	Dashboard string                    `json:"dashboard"`
	Tick      string                    `json:"tick"`
	Region    string                    `json:"region,omitempty"`
	Regions   []string                  `json:"regions,omitempty"`
	KPIs      []analytics.KPI           `json:"kpis,omitempty"`
	Figures   map[string]figures.Figure `json:"figures,omitempty"`
	Extend    []figures.Extension       `json:"extend,omitempty"`
	Status    string                    `json:"status"`
	Stale     bool                      `json:"stale"`
}

// Dashboard builds updates and figures for one data set
type Dashboard interface {
	ID() string
	Title() string
	Ticks() []Tick
	// Regional reports whether updates can be filtered by region
	Regional() bool
	// EmptyCards are the KPI cards shown before the first update
	EmptyCards() []analytics.KPI
	// Build returns the JSON encoded Update for a tick
	Build(ctx context.Context, tick, region string) ([]byte, error)
	Figure(ctx context.Context, name, region string) (figures.Figure, error)
}

// Status is the "last update" line shown under the header
func Status(fetchedAt time.Time, empty bool) string {
	if empty {
		return "No data"
	}
	return "Live • " + fetchedAt.Local().Format("15:04:05")
}

// freshness is how old a snapshot may be and still be reused by a tick.
// Half the fastest interval lets ticks that fire together share a query
// while every fast tick still sees new rows.
func freshness(ticks []Tick) time.Duration {
	var fastest time.Duration
	for _, t := range ticks {
		if t.Interval > 0 && (fastest == 0 || t.Interval < fastest) {
			fastest = t.Interval
		}
	}
	return fastest / 2
}

func cacheKey(dashboard, tick, region string, fetchedAt time.Time, stale bool) string {
	return fmt.Sprintf("%s|%s|%s|%d|%t", dashboard, tick, region, fetchedAt.UnixNano(), stale)
}

// Registry holds the enabled dashboards in display order
type Registry struct {
	order []Dashboard
	byID  map[string]Dashboard
}

func NewRegistry(dashboards ...Dashboard) *Registry {
	r := &Registry{byID: make(map[string]Dashboard, len(dashboards))}
	for _, d := range dashboards {
		r.order = append(r.order, d)
		r.byID[d.ID()] = d
	}
	return r
}

// Get looks a dashboard up by id
func (r *Registry) Get(id string) (Dashboard, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDashboard, id)
	}
	return d, nil
}

// All returns the dashboards in registration order
func (r *Registry) All() []Dashboard {
	return r.order
}

func hasTick(ticks []Tick, name string) bool {
	for _, t := range ticks {
		if t.Name == name {
			return true
		}
	}
	return false
}
