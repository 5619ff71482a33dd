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

const (
	topArticles     = 10
	topPublications = 8
)

// ContentPulse is the live publishing analytics dashboard. It has no
// region filter.
type ContentPulse struct {
	feed  *feed.Feed[models.EngagementEvent]
	cfg   config.ContentPulseConfig
	cache *Cache
}

// NewContentPulse creates the publishing dashboard; cache may be nil
func NewContentPulse(f *feed.Feed[models.EngagementEvent], cfg config.ContentPulseConfig, cache *Cache) *ContentPulse {
	return &ContentPulse{feed: f, cfg: cfg, cache: cache}
}

func (c *ContentPulse) ID() string    { return config.DashboardContentPulse }
func (c *ContentPulse) Title() string { return "ContentPulse" }

func (c *ContentPulse) Regional() bool { return false }

func (c *ContentPulse) EmptyCards() []analytics.KPI { return analytics.EmptyContentCards() }

func (c *ContentPulse) Ticks() []Tick {
	return []Tick{
		{Name: TickFast, Interval: c.cfg.FastInterval},
		{Name: TickMedium, Interval: c.cfg.MediumInterval},
		{Name: TickSlow, Interval: c.cfg.SlowInterval},
	}
}

func (c *ContentPulse) snapshot(ctx context.Context) feed.Snapshot[models.EngagementEvent] {
	return c.feed.Get(ctx, freshness(c.Ticks()))
}

func (c *ContentPulse) Build(ctx context.Context, tick, _ string) ([]byte, error) {
	if !hasTick(c.Ticks(), tick) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTick, tick)
	}
	snap := c.snapshot(ctx)
	build := func(context.Context) ([]byte, error) {
		metrics.TickUpdates.WithLabelValues(c.ID(), tick).Inc()
		return json.Marshal(c.update(snap, tick))
	}
	if c.cache == nil {
		return build(ctx)
	}
	return c.cache.GetOrSet(ctx, cacheKey(c.ID(), tick, "", snap.FetchedAt, snap.Stale), build)
}

func (c *ContentPulse) update(snap feed.Snapshot[models.EngagementEvent], tick string) *Update {
	u := &Update{
		Dashboard: c.ID(),
		Tick:      tick,
		Status:    Status(snap.FetchedAt, snap.Empty()),
		Stale:     snap.Stale,
	}
	switch tick {
	case TickFast:
		if snap.Empty() {
			u.KPIs = analytics.EmptyContentCards()
		} else {
			u.KPIs = analytics.ComputeContentKPIs(snap.Rows).Cards()
		}
		u.Figures = map[string]figures.Figure{
			figures.EngagementSeries: figures.EventTimeline(analytics.EventsPerMinute(snap.Rows)),
		}
	case TickMedium:
		u.Figures = map[string]figures.Figure{
			figures.ReaderMap:   figures.ReaderGeo(analytics.CityReach(snap.Rows)),
			figures.DeviceSplit: figures.DeviceDonut(analytics.DeviceBreakdown(snap.Rows)),
		}
	case TickSlow:
		u.Figures = map[string]figures.Figure{
			figures.TopArticles:       figures.ArticleBars(analytics.TopArticles(snap.Rows, topArticles)),
			figures.PublicationsChart: figures.PublicationCombo(analytics.PublicationPerformance(snap.Rows, topPublications)),
		}
	}
	return u
}

func (c *ContentPulse) Figure(ctx context.Context, name, _ string) (figures.Figure, error) {
	rows := c.snapshot(ctx).Rows
	switch name {
	case figures.EngagementSeries:
		return figures.EventTimeline(analytics.EventsPerMinute(rows)), nil
	case figures.ReaderMap:
		return figures.ReaderGeo(analytics.CityReach(rows)), nil
	case figures.DeviceSplit:
		return figures.DeviceDonut(analytics.DeviceBreakdown(rows)), nil
	case figures.TopArticles:
		return figures.ArticleBars(analytics.TopArticles(rows, topArticles)), nil
	case figures.PublicationsChart:
		return figures.PublicationCombo(analytics.PublicationPerformance(rows, topPublications)), nil
	}
	return figures.Figure{}, fmt.Errorf("%w: %s", ErrUnknownFigure, name)
}
