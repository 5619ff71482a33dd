package snapshotstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func mustOpenSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "snapshots.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_MissIsNotFound(t *testing.T) {
	s := mustOpenSQLite(t)
	if _, err := s.Get(t.Context(), "telecom"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_PutOverwrites(t *testing.T) {
	s := mustOpenSQLite(t)
	ctx := t.Context()
	first := time.Unix(1700000000, 0)
	second := first.Add(30 * time.Second)

	if err := s.Put(ctx, "telecom", Object{Body: []byte(`[1]`), UpdatedAt: first}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "telecom", Object{Body: []byte(`[1,2]`), UpdatedAt: second}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	obj, err := s.Get(ctx, "telecom")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(obj.Body) != `[1,2]` {
		t.Fatalf("got body %s", obj.Body)
	}
	if !obj.UpdatedAt.Equal(second) {
		t.Fatalf("got updated_at %v, want %v", obj.UpdatedAt, second)
	}

	if err := s.Delete(ctx, "telecom"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "telecom"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v after delete, want ErrNotFound", err)
	}
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	if err := s.Put(t.Context(), "k", Object{Body: []byte("x")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Get(t.Context(), "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
