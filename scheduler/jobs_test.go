package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lakebase_dashboards/services/analytics"
	"lakebase_dashboards/services/dashboard"
	"lakebase_dashboards/services/figures"
)

type fakeDashboard struct {
	mu     sync.Mutex
	builds []string
	fail   string
}

func (f *fakeDashboard) ID() string                  { return "telecom" }
func (f *fakeDashboard) Title() string               { return "Telecom" }
func (f *fakeDashboard) Regional() bool              { return true }
func (f *fakeDashboard) EmptyCards() []analytics.KPI { return nil }
func (f *fakeDashboard) Ticks() []dashboard.Tick {
	return []dashboard.Tick{
		{Name: dashboard.TickInit},
		{Name: dashboard.TickFast, Interval: time.Hour},
		{Name: dashboard.TickSlow, Interval: 2 * time.Hour},
	}
}

func (f *fakeDashboard) Build(_ context.Context, tick, region string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds = append(f.builds, tick+"/"+region)
	if region == f.fail {
		return nil, errors.New("boom")
	}
	return []byte(`{"tick":"` + tick + `"}`), nil
}

func (f *fakeDashboard) Figure(context.Context, string, string) (figures.Figure, error) {
	return figures.Figure{}, nil
}

type fakeHub struct {
	mu      sync.Mutex
	regions []string
	sent    map[string]string
}

func (h *fakeHub) Regions(string) []string { return h.regions }

func (h *fakeHub) Broadcast(_, region string, update []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sent == nil {
		h.sent = make(map[string]string)
	}
	h.sent[region] = string(update)
}

func TestRunTick_BuildsPerRegion(t *testing.T) {
	d := &fakeDashboard{fail: "South"}
	hub := &fakeHub{regions: []string{"North", "South", "West"}}
	s := NewScheduler(dashboard.NewRegistry(d), hub)
	defer s.Stop()

	s.runTick(d, dashboard.Tick{Name: dashboard.TickFast, Interval: time.Second})

	if len(d.builds) != 3 {
		t.Fatalf("got builds %v", d.builds)
	}
	if len(hub.sent) != 2 || hub.sent["North"] != `{"tick":"fast"}` {
		t.Fatalf("got broadcasts %v", hub.sent)
	}
	if _, ok := hub.sent["South"]; ok {
		t.Fatal("failed build must not be broadcast")
	}
}

func TestRunTick_SkipsWithoutSubscribers(t *testing.T) {
	d := &fakeDashboard{}
	s := NewScheduler(dashboard.NewRegistry(d), &fakeHub{})
	defer s.Stop()

	s.runTick(d, dashboard.Tick{Name: dashboard.TickSlow, Interval: time.Second})
	if len(d.builds) != 0 {
		t.Fatalf("expected no builds, got %v", d.builds)
	}
}

func TestStart_SchedulesIntervalTicks(t *testing.T) {
	s := NewScheduler(dashboard.NewRegistry(&fakeDashboard{}), &fakeHub{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if got := s.cron.Len(); got != 2 {
		t.Fatalf("got %d jobs, want 2 (init is on demand)", got)
	}
}
