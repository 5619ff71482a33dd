// Package feed polls one dashboard table and keeps the last good result
// around as a fallback for when the database is unreachable.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lakebase_dashboards/services/metrics"
	"lakebase_dashboards/services/snapshotstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

const storeTimeout = 5 * time.Second

// Snapshot is the result of one successful fetch. Stale marks a snapshot
// served because the live query failed.
type Snapshot[T any] struct {
	Rows      []T       `json:"rows"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"-"`
}

// Empty reports whether there is nothing to render
func (s Snapshot[T]) Empty() bool {
	return len(s.Rows) == 0
}

// Feed owns the cached snapshot for one dashboard
type Feed[T any] struct {
	name   string
	source Source[T]
	store  snapshotstore.Store
	now    func() time.Time
	group  singleflight.Group

	mu   sync.RWMutex
	last Snapshot[T]
}

// New creates a feed; store may be nil
func New[T any](name string, source Source[T], store snapshotstore.Store) *Feed[T] {
	if store == nil {
		store = snapshotstore.Noop{}
	}
	return &Feed[T]{
		name:   name,
		source: source,
		store:  store,
		now:    time.Now,
	}
}

// Last returns the cached snapshot without touching the database
func (f *Feed[T]) Last() Snapshot[T] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last
}

// Get returns the cached snapshot when it is younger than maxAge and
// fetches otherwise. Concurrent callers share one query.
func (f *Feed[T]) Get(ctx context.Context, maxAge time.Duration) Snapshot[T] {
	last := f.Last()
	if !last.FetchedAt.IsZero() && f.now().Sub(last.FetchedAt) < maxAge {
		return last
	}
	return f.Fetch(ctx)
}

// Fetch queries the database. On failure it logs and falls back to the
// last good snapshot, or an empty one if there never was one.
func (f *Feed[T]) Fetch(ctx context.Context) Snapshot[T] {
	v, _, _ := f.group.Do("fetch", func() (interface{}, error) {
		return f.fetch(ctx), nil
	})
	return v.(Snapshot[T])
}

func (f *Feed[T]) fetch(ctx context.Context) Snapshot[T] {
	ctx, span := otel.Tracer("lakebase_dashboards/feed").Start(ctx, "Feed.Fetch")
	span.SetAttributes(attribute.String("dashboard", f.name))
	defer span.End()

	start := f.now()
	rows, err := f.source.Query(ctx)
	metrics.FeedFetchDuration.WithLabelValues(f.name).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		log.Printf("Error fetching %s data: %v", f.name, err)

		last := f.Last()
		if last.Empty() {
			metrics.FeedFetches.WithLabelValues(f.name, "empty").Inc()
			return Snapshot[T]{Stale: true}
		}
		metrics.FeedFetches.WithLabelValues(f.name, "fallback").Inc()
		last.Stale = true
		return last
	}

	snap := Snapshot[T]{Rows: rows, FetchedAt: f.now()}
	f.mu.Lock()
	f.last = snap
	f.mu.Unlock()

	metrics.FeedFetches.WithLabelValues(f.name, "live").Inc()
	metrics.SnapshotRows.WithLabelValues(f.name).Set(float64(len(rows)))
	metrics.SnapshotAge.WithLabelValues(f.name).Set(float64(snap.FetchedAt.Unix()))
	span.SetAttributes(attribute.Int("rows", len(rows)))

	f.persist(ctx, snap)
	return snap
}

// persist writes the snapshot to the durable store; failures only cost
// the restart fallback so they are logged and dropped
func (f *Feed[T]) persist(ctx context.Context, snap Snapshot[T]) {
	body, err := json.Marshal(snap)
	if err != nil {
		log.Printf("Error encoding %s snapshot: %v", f.name, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := f.store.Put(ctx, f.name, snapshotstore.Object{Body: body, UpdatedAt: snap.FetchedAt}); err != nil {
		log.Printf("Error persisting %s snapshot: %v", f.name, err)
	}
}

// Restore seeds the cache from the durable store. A missing snapshot is
// not an error.
func (f *Feed[T]) Restore(ctx context.Context) error {
	obj, err := f.store.Get(ctx, f.name)
	if errors.Is(err, snapshotstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore %s snapshot: %w", f.name, err)
	}

	var snap Snapshot[T]
	if err := json.Unmarshal(obj.Body, &snap); err != nil {
		// An undecodable copy would fail every restart; drop it.
		if delErr := f.store.Delete(ctx, f.name); delErr != nil {
			log.Printf("Error deleting corrupt %s snapshot: %v", f.name, delErr)
		}
		return fmt.Errorf("decode %s snapshot: %w", f.name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// A live fetch may already have landed.
	if snap.FetchedAt.After(f.last.FetchedAt) {
		f.last = snap
		log.Printf("Restored %s snapshot with %d rows from %s", f.name, len(snap.Rows), snap.FetchedAt.Format(time.RFC3339))
	}
	return nil
}
