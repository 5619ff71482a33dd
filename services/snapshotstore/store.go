// Package snapshotstore keeps a durable copy of each dashboard's last good
// snapshot so a restarted process has something to fall back on before
// its first successful query.
package snapshotstore

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("snapshot not found")

// Object is an encoded snapshot
type Object struct {
	Body      []byte
	UpdatedAt time.Time
}

type Store interface {
	Get(ctx context.Context, key string) (Object, error)
	Put(ctx context.Context, key string, obj Object) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Noop discards writes and never finds anything
type Noop struct{}

func (Noop) Get(context.Context, string) (Object, error) { return Object{}, ErrNotFound }
func (Noop) Put(context.Context, string, Object) error   { return nil }
func (Noop) Delete(context.Context, string) error        { return nil }
func (Noop) Close() error                                { return nil }
