package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"lakebase_dashboards/models"
)

// KPI ids for the ContentPulse dashboard
const (
	KPIActiveReaders  = "active-readers"
	KPIPageViews      = "page-views"
	KPIEngagementRate = "engagement-rate"
	KPITotalRevenue   = "total-revenue"
)

// ContentKPIs are the four summary cards of the ContentPulse dashboard
type ContentKPIs struct {
	ActiveReaders  int
	PageViews      int
	EngagementRate float64
	Revenue        decimal.Decimal
}

// ComputeContentKPIs aggregates all events. Engagement rate is
// interactions over all events, not over page views.
func ComputeContentKPIs(events []models.EngagementEvent) ContentKPIs {
	var (
		k            ContentKPIs
		interactions int
		readers      = make(map[string]struct{})
	)
	k.Revenue = decimal.Zero
	for _, e := range events {
		readers[e.ReaderID] = struct{}{}
		if e.EventType == models.EventPageView {
			k.PageViews++
		}
		if e.IsInteraction() {
			interactions++
		}
		k.Revenue = k.Revenue.Add(e.EstimatedAdRevenue)
	}
	k.ActiveReaders = len(readers)
	if len(events) > 0 {
		k.EngagementRate = float64(interactions) / float64(len(events)) * 100
	}
	return k
}

// Cards formats the KPIs for display
func (k ContentKPIs) Cards() []KPI {
	return []KPI{
		{ID: KPIActiveReaders, Label: "Active Readers", Value: Thousands(int64(k.ActiveReaders))},
		{ID: KPIPageViews, Label: "Page Views", Value: Thousands(int64(k.PageViews))},
		{ID: KPIEngagementRate, Label: "Engagement Rate", Value: Percent(k.EngagementRate)},
		{ID: KPITotalRevenue, Label: "Total Revenue", Value: Money(k.Revenue)},
	}
}

// EmptyContentCards is what the cards show with no data
func EmptyContentCards() []KPI {
	return []KPI{
		{ID: KPIActiveReaders, Label: "Active Readers", Value: "0"},
		{ID: KPIPageViews, Label: "Page Views", Value: "0"},
		{ID: KPIEngagementRate, Label: "Engagement Rate", Value: "0%"},
		{ID: KPITotalRevenue, Label: "Total Revenue", Value: "$0"},
	}
}

// EventSeries is the per-minute count of one event type
type EventSeries struct {
	EventType string
	Minutes   []time.Time
	Counts    []int
}

// EventsPerMinute counts events per minute and type. Series are ordered by
// their first minute, then by type name.
func EventsPerMinute(events []models.EngagementEvent) []EventSeries {
	counts := make(map[string]map[int64]int)
	for _, e := range events {
		minute := e.Timestamp.Truncate(time.Minute).UnixNano()
		byMinute, ok := counts[e.EventType]
		if !ok {
			byMinute = make(map[int64]int)
			counts[e.EventType] = byMinute
		}
		byMinute[minute]++
	}

	out := make([]EventSeries, 0, len(counts))
	for eventType, byMinute := range counts {
		minutes := make([]int64, 0, len(byMinute))
		for m := range byMinute {
			minutes = append(minutes, m)
		}
		sort.Slice(minutes, func(i, j int) bool { return minutes[i] < minutes[j] })

		s := EventSeries{EventType: eventType}
		for _, m := range minutes {
			s.Minutes = append(s.Minutes, time.Unix(0, m).UTC())
			s.Counts = append(s.Counts, byMinute[m])
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Minutes[0].Equal(out[j].Minutes[0]) {
			return out[i].Minutes[0].Before(out[j].Minutes[0])
		}
		return out[i].EventType < out[j].EventType
	})
	return out
}

// CityStat is the reader count at one geographic point
type CityStat struct {
	City       string
	Country    string
	Latitude   float64
	Longitude  float64
	Readers    int
	MarkerSize float64
}

const (
	markerScale   = 0.05
	markerMinSize = 2
	markerMaxSize = 10
)

// CityReach groups events by city and location. Marker size grows with the
// count but is clamped to a small fixed range.
func CityReach(events []models.EngagementEvent) []CityStat {
	type key struct {
		city, country string
		lat, lon      float64
	}
	counts := make(map[key]int)
	for _, e := range events {
		counts[key{e.City, e.Country, e.Latitude, e.Longitude}]++
	}

	out := make([]CityStat, 0, len(counts))
	for k, n := range counts {
		size := float64(n) * markerScale
		if size < markerMinSize {
			size = markerMinSize
		}
		if size > markerMaxSize {
			size = markerMaxSize
		}
		out = append(out, CityStat{
			City:       k.city,
			Country:    k.country,
			Latitude:   k.lat,
			Longitude:  k.lon,
			Readers:    n,
			MarkerSize: size,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.City != b.City {
			return a.City < b.City
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		if a.Latitude != b.Latitude {
			return a.Latitude < b.Latitude
		}
		return a.Longitude < b.Longitude
	})
	return out
}

// Count is a labelled tally
type Count struct {
	Label string
	Count int
}

func tally(events []models.EngagementEvent, keep func(models.EngagementEvent) bool, label func(models.EngagementEvent) string) []Count {
	counts := make(map[string]int)
	for _, e := range events {
		if keep(e) {
			counts[label(e)]++
		}
	}
	out := make([]Count, 0, len(counts))
	for l, n := range counts {
		out = append(out, Count{Label: l, Count: n})
	}
	return out
}

// DeviceBreakdown counts events per device type, most common first
func DeviceBreakdown(events []models.EngagementEvent) []Count {
	out := tally(events,
		func(models.EngagementEvent) bool { return true },
		func(e models.EngagementEvent) string { return e.DeviceType })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// TopArticles returns the n most viewed articles in ascending order of
// views, which is the order a horizontal bar chart draws bottom-up
func TopArticles(events []models.EngagementEvent, n int) []Count {
	out := tally(events,
		func(e models.EngagementEvent) bool { return e.EventType == models.EventPageView },
		func(e models.EngagementEvent) string { return e.ArticleTitle })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count < out[j].Count
		}
		return out[i].Label > out[j].Label
	})
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// PublicationStat is event volume and revenue for one publication
type PublicationStat struct {
	Publication string
	Events      int
	Revenue     decimal.Decimal
}

// PublicationPerformance returns the n publications with the most events
func PublicationPerformance(events []models.EngagementEvent, n int) []PublicationStat {
	groups := make(map[string]*PublicationStat)
	for _, e := range events {
		p, ok := groups[e.Publication]
		if !ok {
			p = &PublicationStat{Publication: e.Publication, Revenue: decimal.Zero}
			groups[e.Publication] = p
		}
		p.Events++
		p.Revenue = p.Revenue.Add(e.EstimatedAdRevenue)
	}

	out := make([]PublicationStat, 0, len(groups))
	for _, p := range groups {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Events != out[j].Events {
			return out[i].Events > out[j].Events
		}
		return out[i].Publication < out[j].Publication
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
