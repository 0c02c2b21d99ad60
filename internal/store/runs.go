package store

import (
	"context"
	"fmt"

	"github.com/automation-hub/hub/internal/importer"
	"github.com/automation-hub/hub/internal/models"
)

// CountEntities counts local users, banks, and transactions.
func (s *Store) CountEntities(ctx context.Context) (importer.EntityCounts, error) {
	var counts importer.EntityCounts
	targets := []struct {
		model any
		dst   *int64
	}{
		{&models.User{}, &counts.Users},
		{&models.Bank{}, &counts.Banks},
		{&models.Transaction{}, &counts.Transactions},
	}
	for _, target := range targets {
		if errCount := s.db.WithContext(ctx).Model(target.model).Count(target.dst).Error; errCount != nil {
			return importer.EntityCounts{}, fmt.Errorf("store: count entities: %w", errCount)
		}
	}
	return counts, nil
}

// RecordRun persists an import run.
func (s *Store) RecordRun(ctx context.Context, run *models.ImportRun) error {
	if run == nil {
		return fmt.Errorf("store: record run: nil row")
	}
	if errCreate := s.db.WithContext(ctx).Create(run).Error; errCreate != nil {
		return fmt.Errorf("store: record run: %w", errCreate)
	}
	return nil
}

// SummarizeRuns aggregates import runs of module per entity type.
func (s *Store) SummarizeRuns(ctx context.Context, module string) ([]importer.SyncStatus, error) {
	type aggregate struct {
		EntityType models.EntityType
		Runs       int64
		Total      int64
		Successful int64
		Failed     int64
	}
	var rows []aggregate
	errScan := s.db.WithContext(ctx).
		Model(&models.ImportRun{}).
		Select("entity_type, COUNT(*) AS runs, COALESCE(SUM(total), 0) AS total, COALESCE(SUM(successful), 0) AS successful, COALESCE(SUM(failed), 0) AS failed").
		Where("module = ?", module).
		Group("entity_type").
		Order("entity_type ASC").
		Scan(&rows).Error
	if errScan != nil {
		return nil, fmt.Errorf("store: summarize runs: %w", errScan)
	}

	out := make([]importer.SyncStatus, 0, len(rows))
	for _, row := range rows {
		var latest []models.ImportRun
		errLatest := s.db.WithContext(ctx).
			Where("module = ? AND entity_type = ?", module, row.EntityType).
			Order("finished_at DESC, id DESC").
			Limit(1).
			Find(&latest).Error
		if errLatest != nil {
			return nil, fmt.Errorf("store: latest run: %w", errLatest)
		}
		summary := importer.SyncStatus{
			EntityType:        row.EntityType,
			Runs:              row.Runs,
			TotalRecords:      row.Total,
			SuccessfulImports: row.Successful,
			FailedImports:     row.Failed,
		}
		if len(latest) > 0 {
			finished := latest[0].FinishedAt
			summary.LastSync = &finished
		}
		out = append(out, summary)
	}
	return out, nil
}
