// Package store persists hub entities, external mappings, and import runs through GORM.
package store

import (
	"context"
	"fmt"

	"github.com/automation-hub/hub/internal/db"
	"github.com/automation-hub/hub/internal/importer"
	"github.com/automation-hub/hub/internal/mapping"
	"gorm.io/gorm"
)

// inChunk bounds the number of bound parameters in a single IN clause.
const inChunk = 500

// Store is the GORM-backed implementation of the mapping, duplicate, and importer stores.
type Store struct {
	db *gorm.DB
}

// New constructs a Store over conn.
func New(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Transaction runs fn inside a database transaction bound to a Store copy.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store: not initialized")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Atomic runs fn with entity and mapping writes sharing one transaction.
func (s *Store) Atomic(ctx context.Context, fn func(tx importer.TxStore) error) error {
	return s.Transaction(ctx, func(tx *Store) error {
		return fn(tx)
	})
}

// constraintError maps unique violations onto mapping.ErrConstraintViolation.
func constraintError(action string, err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("store: %s: %w: %v", action, mapping.ErrConstraintViolation, err)
	}
	return fmt.Errorf("store: %s: %w", action, err)
}

func chunks[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
