package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"lakebase_dashboards/services/snapshotstore"
)

type row struct {
	ID int `json:"id"`
}

type fakeSource struct {
	calls atomic.Int32
	rows  []row
	err   error
}

func (s *fakeSource) Query(context.Context) ([]row, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

type memStore struct {
	objs map[string]snapshotstore.Object
}

func newMemStore() *memStore {
	return &memStore{objs: map[string]snapshotstore.Object{}}
}

func (m *memStore) Get(_ context.Context, key string) (snapshotstore.Object, error) {
	obj, ok := m.objs[key]
	if !ok {
		return snapshotstore.Object{}, snapshotstore.ErrNotFound
	}
	return obj, nil
}

func (m *memStore) Put(_ context.Context, key string, obj snapshotstore.Object) error {
	m.objs[key] = obj
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.objs, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func TestFetch_EmptyWhenNeverSucceeded(t *testing.T) {
	f := New[row]("telecom", &fakeSource{err: errors.New("connection refused")}, nil)

	snap := f.Fetch(t.Context())
	if !snap.Empty() || !snap.Stale {
		t.Fatalf("expected empty stale snapshot, got %+v", snap)
	}
}

func TestFetch_FallsBackToLastGood(t *testing.T) {
	src := &fakeSource{rows: []row{{1}, {2}}}
	f := New[row]("telecom", src, nil)

	live := f.Fetch(t.Context())
	if live.Stale || len(live.Rows) != 2 {
		t.Fatalf("unexpected live snapshot %+v", live)
	}

	src.err = errors.New("token expired")
	fallback := f.Fetch(t.Context())
	if !fallback.Stale {
		t.Fatal("fallback snapshot should be marked stale")
	}
	if len(fallback.Rows) != 2 || !fallback.FetchedAt.Equal(live.FetchedAt) {
		t.Fatalf("fallback should be the last good snapshot, got %+v", fallback)
	}
	if f.Last().Stale {
		t.Fatal("cached snapshot must not be mutated by a fallback")
	}
}

func TestFetch_OverwritesOnSuccess(t *testing.T) {
	src := &fakeSource{rows: []row{{1}}}
	f := New[row]("contentpulse", src, nil)
	f.Fetch(t.Context())

	src.rows = []row{{7}, {8}, {9}}
	snap := f.Fetch(t.Context())
	if len(snap.Rows) != 3 || snap.Rows[0].ID != 7 {
		t.Fatalf("expected overwritten rows, got %+v", snap.Rows)
	}
}

func TestGet_ReusesFreshSnapshot(t *testing.T) {
	src := &fakeSource{rows: []row{{1}}}
	f := New[row]("telecom", src, nil)
	now := time.Unix(1700000000, 0)
	f.now = func() time.Time { return now }

	f.Get(t.Context(), 30*time.Second)
	now = now.Add(10 * time.Second)
	f.Get(t.Context(), 30*time.Second)
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected 1 query for a fresh snapshot, got %d", got)
	}

	now = now.Add(30 * time.Second)
	f.Get(t.Context(), 30*time.Second)
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected a second query once stale, got %d", got)
	}
}

func TestFetch_PersistsAndRestores(t *testing.T) {
	store := newMemStore()
	f := New[row]("telecom", &fakeSource{rows: []row{{1}, {2}, {3}}}, store)
	live := f.Fetch(t.Context())

	if _, ok := store.objs["telecom"]; !ok {
		t.Fatal("expected snapshot persisted under the feed name")
	}

	restarted := New[row]("telecom", &fakeSource{err: errors.New("db down")}, store)
	if err := restarted.Restore(t.Context()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	snap := restarted.Fetch(t.Context())
	if !snap.Stale || len(snap.Rows) != 3 {
		t.Fatalf("expected restored fallback, got %+v", snap)
	}
	if !snap.FetchedAt.Equal(live.FetchedAt) {
		t.Fatalf("restored fetch time %v, want %v", snap.FetchedAt, live.FetchedAt)
	}
}

func TestRestore_MissingIsNotAnError(t *testing.T) {
	f := New[row]("telecom", &fakeSource{}, newMemStore())
	if err := f.Restore(t.Context()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !f.Last().Empty() {
		t.Fatal("expected empty cache")
	}
}

func TestRestore_KeepsNewerLiveSnapshot(t *testing.T) {
	store := newMemStore()
	old := New[row]("telecom", &fakeSource{rows: []row{{1}}}, store)
	old.now = func() time.Time { return time.Unix(1000, 0) }
	old.Fetch(t.Context())

	f := New[row]("telecom", &fakeSource{rows: []row{{5}, {6}}}, newMemStore())
	f.Fetch(t.Context())
	f.store = store
	if err := f.Restore(t.Context()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(f.Last().Rows) != 2 {
		t.Fatalf("older persisted snapshot replaced a newer live one: %+v", f.Last())
	}
}

func TestRestore_DropsCorruptSnapshot(t *testing.T) {
	store := newMemStore()
	store.objs["telecom"] = snapshotstore.Object{Body: []byte("{not json"), UpdatedAt: time.Unix(1000, 0)}

	f := New[row]("telecom", &fakeSource{}, store)
	if err := f.Restore(t.Context()); err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := store.objs["telecom"]; ok {
		t.Fatal("corrupt snapshot should have been deleted")
	}
	if err := f.Restore(t.Context()); err != nil {
		t.Fatalf("second Restore: %v", err)
	}
}
