package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/automation-hub/hub/internal/models"
)

// Orphan describes a mapping whose local entity has been deleted.
type Orphan struct {
	ID         uint64            `json:"-"`
	ExternalID string            `json:"external_id"`
	EntityType models.EntityType `json:"entity_type"`
	InternalID string            `json:"internal_id"`
}

// FindOrphanedMappings scans module mappings whose referenced local row no longer exists.
// Local rows can be removed by unrelated CRUD calls, and the mapping table carries no
// cascading foreign key, so this is the repair path.
func (s *Service) FindOrphanedMappings(ctx context.Context, module string) ([]Orphan, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("mapping: not initialized")
	}
	rows, err := s.store.FindOrphanedMappings(ctx, strings.TrimSpace(module))
	if err != nil {
		return nil, fmt.Errorf("mapping: find orphans: %w", err)
	}
	orphans := make([]Orphan, 0, len(rows))
	for _, row := range rows {
		orphans = append(orphans, Orphan{
			ID:         row.ID,
			ExternalID: row.ExternalID,
			EntityType: row.EntityType,
			InternalID: row.InternalID,
		})
	}
	return orphans, nil
}

// CleanupOrphanedMappings deletes exactly the rows FindOrphanedMappings reports and
// returns how many were removed.
func (s *Service) CleanupOrphanedMappings(ctx context.Context, module string) (int64, error) {
	orphans, err := s.FindOrphanedMappings(ctx, module)
	if err != nil {
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	ids := make([]uint64, 0, len(orphans))
	for _, orphan := range orphans {
		ids = append(ids, orphan.ID)
	}
	removed, err := s.store.DeleteMappings(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("mapping: delete orphans: %w", err)
	}
	return removed, nil
}
