package dashboard

import (
	"context"
	"encoding/json"
	"fmt"

	"lakebase_dashboards/config"
	"lakebase_dashboards/models"
	"lakebase_dashboards/services/analytics"
	"lakebase_dashboards/services/feed"
	"lakebase_dashboards/services/figures"
	"lakebase_dashboards/services/metrics"
)

// Telecom is the tower performance dashboard
type Telecom struct {
	feed  *feed.Feed[models.IoTReading]
	cfg   config.TelecomConfig
	cache *Cache
}

// NewTelecom creates the telecom dashboard; cache may be nil
func NewTelecom(f *feed.Feed[models.IoTReading], cfg config.TelecomConfig, cache *Cache) *Telecom {
	return &Telecom{feed: f, cfg: cfg, cache: cache}
}

func (t *Telecom) ID() string    { return config.DashboardTelecom }
func (t *Telecom) Title() string { return "Telecom Tower Performance" }

func (t *Telecom) Regional() bool { return true }

func (t *Telecom) EmptyCards() []analytics.KPI { return analytics.EmptyTelecomCards() }

func (t *Telecom) Ticks() []Tick {
	return []Tick{
		{Name: TickInit},
		{Name: TickFast, Interval: t.cfg.FastInterval},
		{Name: TickSlow, Interval: t.cfg.SlowInterval},
	}
}

func (t *Telecom) snapshot(ctx context.Context) feed.Snapshot[models.IoTReading] {
	return t.feed.Get(ctx, freshness(t.Ticks()))
}

// Build assembles one tick. The slow tick always covers every region.
func (t *Telecom) Build(ctx context.Context, tick, region string) ([]byte, error) {
	if !hasTick(t.Ticks(), tick) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTick, tick)
	}
	if tick == TickSlow {
		region = ""
	}
	snap := t.snapshot(ctx)
	build := func(context.Context) ([]byte, error) {
		metrics.TickUpdates.WithLabelValues(t.ID(), tick).Inc()
		return json.Marshal(t.update(snap, tick, region))
	}
	if t.cache == nil {
		return build(ctx)
	}
	return t.cache.GetOrSet(ctx, cacheKey(t.ID(), tick, region, snap.FetchedAt, snap.Stale), build)
}

func (t *Telecom) update(snap feed.Snapshot[models.IoTReading], tick, region string) *Update {
	u := &Update{
		Dashboard: t.ID(),
		Tick:      tick,
		Status:    Status(snap.FetchedAt, snap.Empty()),
		Stale:     snap.Stale,
	}

	switch tick {
	case TickInit:
		u.Regions = analytics.Regions(snap.Rows)
		region = defaultRegion(u.Regions, region)
		rows := analytics.FilterRegion(snap.Rows, region)
		u.Figures = map[string]figures.Figure{
			figures.DataUsage:     figures.DataUsageTrend(rows, region),
			figures.ActiveUsers:   figures.ActiveUsersStack(rows, region),
			figures.CallDropGauge: t.gauge(rows),
		}

	case TickFast:
		if snap.Empty() {
			u.KPIs = analytics.EmptyTelecomCards()
			break
		}
		rows := analytics.FilterRegion(snap.Rows, region)
		u.KPIs = analytics.ComputeTelecomKPIs(rows).Cards()
		u.Extend = figures.TowerExtensions(rows, t.cfg.FastInterval)
		u.Figures = map[string]figures.Figure{figures.CallDropGauge: t.gauge(rows)}

	case TickSlow:
		summary := analytics.SummarizeRegions(snap.Rows)
		u.Figures = map[string]figures.Figure{
			figures.UserDistribution:    figures.UserDonut(summary),
			figures.NetworkHeatmap:      figures.ActivityHeatmap(analytics.ActivityHeatmap(snap.Rows, analytics.HeatBucket)),
			figures.RegionalPerformance: figures.RegionalBars(summary),
		}
	}
	u.Region = region
	return u
}

func (t *Telecom) gauge(rows []models.IoTReading) figures.Figure {
	if len(rows) == 0 {
		return figures.Empty(figures.NoData, 380)
	}
	return figures.Gauge(analytics.CallDropPercent(rows))
}

// defaultRegion falls back to the first region, as the page does
func defaultRegion(regions []string, region string) string {
	if region == "" && len(regions) > 0 {
		return regions[0]
	}
	return region
}

// Figure builds a single chart for export
func (t *Telecom) Figure(ctx context.Context, name, region string) (figures.Figure, error) {
	snap := t.snapshot(ctx)
	region = defaultRegion(analytics.Regions(snap.Rows), region)
	rows := analytics.FilterRegion(snap.Rows, region)
	switch name {
	case figures.DataUsage:
		return figures.DataUsageTrend(rows, region), nil
	case figures.ActiveUsers:
		return figures.ActiveUsersStack(rows, region), nil
	case figures.CallDropGauge:
		return t.gauge(rows), nil
	case figures.UserDistribution:
		return figures.UserDonut(analytics.SummarizeRegions(snap.Rows)), nil
	case figures.NetworkHeatmap:
		return figures.ActivityHeatmap(analytics.ActivityHeatmap(snap.Rows, analytics.HeatBucket)), nil
	case figures.RegionalPerformance:
		return figures.RegionalBars(analytics.SummarizeRegions(snap.Rows)), nil
	}
	return figures.Figure{}, fmt.Errorf("%w: %s", ErrUnknownFigure, name)
}
