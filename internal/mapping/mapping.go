// Package mapping resolves foreign system identifiers to local entity IDs.
//
// Every imported entity gets exactly one ExternalMapping row keyed by
// (external_id, module, entity_type). The store's unique index on that triple is the
// final arbiter when two imports race for the same external ID.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/automation-hub/hub/internal/models"
)

var (
	// ErrConstraintViolation reports that a uniqueness constraint rejected a write.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrInvalidMapping reports a mapping with missing identifiers or an unknown entity type.
	ErrInvalidMapping = errors.New("invalid mapping")
)

// Store is the persistence capability the mapping service needs.
type Store interface {
	// CreateMapping inserts a row, returning ErrConstraintViolation when the triple exists.
	CreateMapping(ctx context.Context, mapping *models.ExternalMapping) error
	// FindMapping returns nil without error when no row matches.
	FindMapping(ctx context.Context, externalID string, entityType models.EntityType, module string) (*models.ExternalMapping, error)
	FindMappings(ctx context.Context, externalIDs []string, entityType models.EntityType, module string) ([]models.ExternalMapping, error)
	ListExternalIDs(ctx context.Context, entityType models.EntityType, module string, limit int) ([]string, error)
	CountMappings(ctx context.Context, module string) (int64, error)
	// FindOrphanedMappings returns module mappings whose local row no longer exists.
	FindOrphanedMappings(ctx context.Context, module string) ([]models.ExternalMapping, error)
	DeleteMappings(ctx context.Context, ids []uint64) (int64, error)
}

// Service exposes lookup, creation, and batch lookup over a Store.
type Service struct {
	store Store
}

// NewService constructs a mapping Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateMapping registers a new mapping. It is not idempotent: callers run duplicate
// detection first, and a second call for the same triple fails with ErrConstraintViolation.
func (s *Service) CreateMapping(ctx context.Context, externalID, internalID string, entityType models.EntityType, module string, metadata *string) error {
	mapping, err := NewMapping(externalID, internalID, entityType, module, metadata)
	if err != nil {
		return err
	}
	if s == nil || s.store == nil {
		return fmt.Errorf("mapping: not initialized")
	}
	return s.store.CreateMapping(ctx, mapping)
}

// NewMapping validates inputs and builds an ExternalMapping row.
func NewMapping(externalID, internalID string, entityType models.EntityType, module string, metadata *string) (*models.ExternalMapping, error) {
	externalID = strings.TrimSpace(externalID)
	internalID = strings.TrimSpace(internalID)
	module = strings.TrimSpace(module)
	switch {
	case externalID == "":
		return nil, fmt.Errorf("%w: missing external id", ErrInvalidMapping)
	case internalID == "":
		return nil, fmt.Errorf("%w: missing internal id", ErrInvalidMapping)
	case module == "":
		return nil, fmt.Errorf("%w: missing module", ErrInvalidMapping)
	case !entityType.Valid():
		return nil, fmt.Errorf("%w: unknown entity type %q", ErrInvalidMapping, entityType)
	}
	return &models.ExternalMapping{
		ExternalID: externalID,
		InternalID: internalID,
		EntityType: entityType,
		Module:     module,
		Metadata:   metadata,
	}, nil
}

// GetInternalID resolves one external ID. The bool is false when no mapping exists.
func (s *Service) GetInternalID(ctx context.Context, externalID string, entityType models.EntityType, module string) (string, bool, error) {
	if s == nil || s.store == nil {
		return "", false, fmt.Errorf("mapping: not initialized")
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return "", false, nil
	}
	row, err := s.store.FindMapping(ctx, externalID, entityType, strings.TrimSpace(module))
	if err != nil {
		return "", false, fmt.Errorf("mapping: lookup %s %s: %w", entityType, externalID, err)
	}
	if row == nil {
		return "", false, nil
	}
	return row.InternalID, true, nil
}

// GetBatchInternalIDs resolves many external IDs with a single store query.
// IDs without a mapping are absent from the result; that is an unresolved reference, not an error.
func (s *Service) GetBatchInternalIDs(ctx context.Context, externalIDs []string, entityType models.EntityType, module string) (map[string]string, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("mapping: not initialized")
	}
	ids := UniqueIDs(externalIDs)
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := s.store.FindMappings(ctx, ids, entityType, strings.TrimSpace(module))
	if err != nil {
		return nil, fmt.Errorf("mapping: batch lookup %s: %w", entityType, err)
	}
	for _, row := range rows {
		result[row.ExternalID] = row.InternalID
	}
	return result, nil
}

// ExternalIDs lists up to limit external IDs registered for an entity type and module.
func (s *Service) ExternalIDs(ctx context.Context, entityType models.EntityType, module string, limit int) ([]string, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("mapping: not initialized")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	ids, err := s.store.ListExternalIDs(ctx, entityType, strings.TrimSpace(module), limit)
	if err != nil {
		return nil, fmt.Errorf("mapping: list external ids: %w", err)
	}
	return ids, nil
}

// CountMappings returns the number of mappings registered under module.
func (s *Service) CountMappings(ctx context.Context, module string) (int64, error) {
	if s == nil || s.store == nil {
		return 0, fmt.Errorf("mapping: not initialized")
	}
	return s.store.CountMappings(ctx, strings.TrimSpace(module))
}

// DefaultListLimit caps diagnostic external ID listings.
const DefaultListLimit = 100

// UniqueIDs trims ids and drops blanks and repeats, preserving first-seen order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
