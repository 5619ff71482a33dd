package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lakebase_dashboards/models"
)

func event(offset time.Duration, reader, kind, article, pub, device, revenue string) models.EngagementEvent {
	return models.EngagementEvent{
		Timestamp:          t0.Add(offset),
		ReaderID:           reader,
		EventType:          kind,
		ArticleTitle:       article,
		Publication:        pub,
		DeviceType:         device,
		City:               "Lisbon",
		Country:            "PT",
		Latitude:           38.7,
		Longitude:          -9.1,
		EstimatedAdRevenue: decimal.RequireFromString(revenue),
	}
}

func events() []models.EngagementEvent {
	return []models.EngagementEvent{
		event(90*time.Second, "r1", models.EventComment, "Budget", "Daily", "mobile", "0.10"),
		event(80*time.Second, "r2", models.EventPageView, "Budget", "Daily", "desktop", "1000.05"),
		event(30*time.Second, "r1", models.EventPageView, "Budget", "Daily", "mobile", "0.20"),
		event(20*time.Second, "r3", models.EventPageView, "Elections", "Weekly", "mobile", "0.30"),
		event(10*time.Second, "r3", models.EventShare, "Elections", "Weekly", "tablet", "0.40"),
	}
}

func TestComputeContentKPIs(t *testing.T) {
	k := ComputeContentKPIs(events())
	if k.ActiveReaders != 3 || k.PageViews != 3 {
		t.Fatalf("readers %d views %d", k.ActiveReaders, k.PageViews)
	}
	if k.EngagementRate != 40 {
		t.Fatalf("engagement %v, want 40", k.EngagementRate)
	}
	if !k.Revenue.Equal(decimal.RequireFromString("1001.05")) {
		t.Fatalf("revenue %s", k.Revenue)
	}

	want := []string{"3", "3", "40.0%", "$1,001.05"}
	for i, c := range k.Cards() {
		if c.Value != want[i] {
			t.Fatalf("card %s = %q, want %q", c.ID, c.Value, want[i])
		}
	}
}

func TestComputeContentKPIs_Empty(t *testing.T) {
	k := ComputeContentKPIs(nil)
	if k.EngagementRate != 0 || !k.Revenue.IsZero() {
		t.Fatalf("unexpected %+v", k)
	}
}

func TestEventsPerMinute(t *testing.T) {
	series := EventsPerMinute(events())
	if len(series) != 3 {
		t.Fatalf("got %d series", len(series))
	}
	// page_view and share start in minute 0; comment only in minute 1.
	if series[0].EventType != models.EventPageView || series[1].EventType != models.EventShare || series[2].EventType != models.EventComment {
		t.Fatalf("order %s %s %s", series[0].EventType, series[1].EventType, series[2].EventType)
	}
	pv := series[0]
	if len(pv.Counts) != 2 || pv.Counts[0] != 2 || pv.Counts[1] != 1 {
		t.Fatalf("page views per minute %v", pv.Counts)
	}
}

func TestCityReach_ClampsMarker(t *testing.T) {
	stats := CityReach(events())
	if len(stats) != 1 || stats[0].Readers != 5 || stats[0].MarkerSize != 2 {
		t.Fatalf("got %+v", stats)
	}

	many := make([]models.EngagementEvent, 400)
	for i := range many {
		many[i] = event(0, "r", models.EventPageView, "a", "p", "d", "0")
	}
	if got := CityReach(many)[0].MarkerSize; got != 10 {
		t.Fatalf("marker %v, want clamp at 10", got)
	}
}

func TestDeviceBreakdown(t *testing.T) {
	got := DeviceBreakdown(events())
	if got[0].Label != "mobile" || got[0].Count != 3 || got[1].Label != "desktop" {
		t.Fatalf("got %+v", got)
	}
}

func TestTopArticles_Ascending(t *testing.T) {
	got := TopArticles(events(), 10)
	if len(got) != 2 || got[0].Label != "Elections" || got[1].Label != "Budget" || got[1].Count != 2 {
		t.Fatalf("got %+v", got)
	}
	if top := TopArticles(events(), 1); len(top) != 1 || top[0].Label != "Budget" {
		t.Fatalf("top 1 got %+v", top)
	}
}

func TestPublicationPerformance(t *testing.T) {
	got := PublicationPerformance(events(), 8)
	if len(got) != 2 || got[0].Publication != "Daily" || got[0].Events != 3 {
		t.Fatalf("got %+v", got)
	}
	if !got[1].Revenue.Equal(decimal.RequireFromString("0.70")) {
		t.Fatalf("weekly revenue %s", got[1].Revenue)
	}
}
