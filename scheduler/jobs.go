package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"lakebase_dashboards/services/dashboard"
)

// Broadcaster is the part of the realtime hub the jobs push to
type Broadcaster interface {
	Regions(dashboard string) []string
	Broadcast(dashboard, region string, update []byte)
}

// Scheduler manages the refresh jobs
type Scheduler struct {
	cron      *gocron.Scheduler
	registry  *dashboard.Registry
	hub       Broadcaster
	baseCtx   context.Context
	cancelAll context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(registry *dashboard.Registry, hub Broadcaster) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      gocron.NewScheduler(time.UTC),
		registry:  registry,
		hub:       hub,
		baseCtx:   ctx,
		cancelAll: cancel,
	}
}

// Start registers one job per dashboard tick and starts them
func (s *Scheduler) Start() error {
	log.Println("Starting scheduler...")

	for _, d := range s.registry.All() {
		for _, tick := range d.Ticks() {
			if tick.Interval <= 0 {
				continue
			}
			_, err := s.cron.Every(tick.Interval).SingletonMode().Do(func() {
				s.runTick(d, tick)
			})
			if err != nil {
				return fmt.Errorf("schedule %s/%s: %w", d.ID(), tick.Name, err)
			}
			log.Printf("Scheduled %s %s tick every %s", d.ID(), tick.Name, tick.Interval)
		}
	}

	s.cron.StartAsync()
	log.Printf("Scheduler started successfully with %d jobs", s.cron.Len())
	return nil
}

// Stop stops the scheduler and cancels ticks in flight
func (s *Scheduler) Stop() {
	s.cancelAll()
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// runTick builds and pushes one tick for every watched region. Nothing is
// queried when nobody is watching.
func (s *Scheduler) runTick(d dashboard.Dashboard, tick dashboard.Tick) {
	regions := s.hub.Regions(d.ID())
	if len(regions) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(s.baseCtx, tick.Interval)
	defer cancel()

	for _, region := range regions {
		update, err := d.Build(ctx, tick.Name, region)
		if err != nil {
			log.Printf("Error building %s %s tick for region %q: %v", d.ID(), tick.Name, region, err)
			continue
		}
		s.hub.Broadcast(d.ID(), region, update)
	}
}
