package store

import (
	"context"
	"fmt"

	"github.com/automation-hub/hub/internal/models"
)

// orphanTables maps entity types to the table holding their local rows.
var orphanTables = map[models.EntityType]string{
	models.EntityTypeUser:        "users",
	models.EntityTypeBank:        "banks",
	models.EntityTypeTransaction: "transactions",
}

// CreateMapping inserts an external mapping row.
func (s *Store) CreateMapping(ctx context.Context, row *models.ExternalMapping) error {
	if row == nil {
		return fmt.Errorf("store: create mapping: nil row")
	}
	return constraintError("create mapping", s.db.WithContext(ctx).Create(row).Error)
}

// FindMapping returns the mapping for the triple, or nil when absent.
func (s *Store) FindMapping(ctx context.Context, externalID string, entityType models.EntityType, module string) (*models.ExternalMapping, error) {
	var rows []models.ExternalMapping
	errFind := s.db.WithContext(ctx).
		Where("external_id = ? AND module = ? AND entity_type = ?", externalID, module, entityType).
		Limit(1).
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("store: find mapping: %w", errFind)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// FindMappings returns the mappings registered for any of externalIDs.
func (s *Store) FindMappings(ctx context.Context, externalIDs []string, entityType models.EntityType, module string) ([]models.ExternalMapping, error) {
	var out []models.ExternalMapping
	for _, chunk := range chunks(externalIDs, inChunk) {
		var rows []models.ExternalMapping
		errFind := s.db.WithContext(ctx).
			Where("module = ? AND entity_type = ? AND external_id IN ?", module, entityType, chunk).
			Find(&rows).Error
		if errFind != nil {
			return nil, fmt.Errorf("store: find mappings: %w", errFind)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// ListExternalIDs lists external ids in insertion order.
func (s *Store) ListExternalIDs(ctx context.Context, entityType models.EntityType, module string, limit int) ([]string, error) {
	var ids []string
	errPluck := s.db.WithContext(ctx).
		Model(&models.ExternalMapping{}).
		Where("module = ? AND entity_type = ?", module, entityType).
		Order("id ASC").
		Limit(limit).
		Pluck("external_id", &ids).Error
	if errPluck != nil {
		return nil, fmt.Errorf("store: list external ids: %w", errPluck)
	}
	return ids, nil
}

// CountMappings counts mappings of module.
func (s *Store) CountMappings(ctx context.Context, module string) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.ExternalMapping{}).Where("module = ?", module).Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("store: count mappings: %w", errCount)
	}
	return count, nil
}

// FindOrphanedMappings returns module mappings whose internal id has no local row.
func (s *Store) FindOrphanedMappings(ctx context.Context, module string) ([]models.ExternalMapping, error) {
	var out []models.ExternalMapping
	for _, entityType := range []models.EntityType{models.EntityTypeUser, models.EntityTypeBank, models.EntityTypeTransaction} {
		table := orphanTables[entityType]
		var rows []models.ExternalMapping
		errFind := s.db.WithContext(ctx).
			Where("module = ? AND entity_type = ?", module, entityType).
			Where(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s WHERE %s.id = external_mappings.internal_id)", table, table)).
			Order("id ASC").
			Find(&rows).Error
		if errFind != nil {
			return nil, fmt.Errorf("store: find orphaned %s mappings: %w", entityType, errFind)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// DeleteMappings removes mappings by primary key.
func (s *Store) DeleteMappings(ctx context.Context, ids []uint64) (int64, error) {
	var removed int64
	for _, chunk := range chunks(ids, inChunk) {
		res := s.db.WithContext(ctx).Where("id IN ?", chunk).Delete(&models.ExternalMapping{})
		if res.Error != nil {
			return removed, fmt.Errorf("store: delete mappings: %w", res.Error)
		}
		removed += res.RowsAffected
	}
	return removed, nil
}
