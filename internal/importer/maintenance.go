package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/automation-hub/hub/internal/models"
)

// ErrUnknownEntityType reports an entity type outside user, bank, and transaction.
var ErrUnknownEntityType = errors.New("unknown entity type")

// Health summarizes local row counts and module mappings.
type Health struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message"`
	Mappings int64  `json:"mappings"`
	EntityCounts
}

// Health reports counts for the health endpoint. On failure the returned Health carries
// the unhealthy message alongside the error.
func (im *Importer) Health(ctx context.Context) (Health, error) {
	counts, err := im.stats.CountEntities(ctx)
	if err != nil {
		return unhealthy(err), err
	}
	mappings, err := im.mappings.CountMappings(ctx, im.Module())
	if err != nil {
		return unhealthy(err), err
	}
	return Health{
		Healthy:      true,
		Message:      fmt.Sprintf("Import service healthy. Users: %d, Banks: %d, Transactions: %d, Mappings: %d", counts.Users, counts.Banks, counts.Transactions, mappings),
		Mappings:     mappings,
		EntityCounts: counts,
	}, nil
}

func unhealthy(err error) Health {
	return Health{Message: fmt.Sprintf("Import service unhealthy: %v", err)}
}

// ExternalIDs lists registered external ids of entityType for diagnostics.
// An empty module selects the importer's own.
func (im *Importer) ExternalIDs(ctx context.Context, entityType models.EntityType, module string) ([]string, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("importer: %w: %q", ErrUnknownEntityType, entityType)
	}
	return im.mappings.ExternalIDs(ctx, entityType, im.moduleOrDefault(module), im.cfg.ExternalIDLimit)
}

// SyncStatus aggregates recorded import runs per entity type. Entity types that never ran
// are reported with zero counts and no last sync time.
func (im *Importer) SyncStatus(ctx context.Context, module string) ([]SyncStatus, error) {
	summaries, err := im.stats.SummarizeRuns(ctx, im.moduleOrDefault(module))
	if err != nil {
		return nil, fmt.Errorf("importer: sync status: %w", err)
	}
	byType := make(map[models.EntityType]SyncStatus, len(summaries))
	for _, summary := range summaries {
		byType[summary.EntityType] = summary
	}
	out := make([]SyncStatus, 0, 3)
	for _, entityType := range []models.EntityType{models.EntityTypeUser, models.EntityTypeBank, models.EntityTypeTransaction} {
		status, ok := byType[entityType]
		if !ok {
			status = SyncStatus{EntityType: entityType}
		}
		out = append(out, status)
	}
	return out, nil
}

func (im *Importer) moduleOrDefault(module string) string {
	module = strings.TrimSpace(module)
	if module == "" {
		return im.Module()
	}
	return module
}
