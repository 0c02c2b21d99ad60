package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportSource identifies how a batch reached the importer.
type ImportSource string

// ImportSource constants.
const (
	ImportSourceAPI  ImportSource = "api"
	ImportSourceFile ImportSource = "file"
	ImportSourceSync ImportSource = "sync"
)

// ImportRun records the outcome of one batch import.
type ImportRun struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Module     string       `gorm:"type:varchar(100);not null;index:idx_import_runs_module_type"` // Foreign system namespace.
	EntityType EntityType   `gorm:"type:varchar(32);not null;index:idx_import_runs_module_type"`  // Imported entity kind.
	Source     ImportSource `gorm:"type:varchar(16);not null;default:'api'"`                     // Entry point of the batch.

	Total      int `gorm:"not null;default:0"` // Records submitted.
	Successful int `gorm:"not null;default:0"` // Records created.
	Failed     int `gorm:"not null;default:0"` // Records rejected or failed.

	Failures datatypes.JSON // Per-record failure details.

	StartedAt  time.Time `gorm:"not null"`       // Batch start.
	FinishedAt time.Time `gorm:"not null;index"` // Batch end.
}
