package feed

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Source runs the dashboard query
type Source[T any] interface {
	Query(ctx context.Context) ([]T, error)
}

// GormSource selects every row of one table, newest first
type GormSource[T any] struct {
	db    *gorm.DB
	table string
	limit int
}

// NewGormSource reads schema.table. Names are validated by config before
// they get here. A limit of zero reads the whole table.
func NewGormSource[T any](db *gorm.DB, schema, table string, limit int) *GormSource[T] {
	return &GormSource[T]{db: db, table: schema + "." + table, limit: limit}
}

func (s *GormSource[T]) Query(ctx context.Context) ([]T, error) {
	var rows []T
	q := s.db.WithContext(ctx).Table(s.table).Order("timestamp DESC")
	if s.limit > 0 {
		q = q.Limit(s.limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	return rows, nil
}
