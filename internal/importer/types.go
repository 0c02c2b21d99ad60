package importer

import (
	"context"
	"time"

	"github.com/automation-hub/hub/internal/models"
	"github.com/shopspring/decimal"
)

// Reason classifies a per-record outcome.
type Reason string

// Reason constants.
const (
	ReasonImported         Reason = "imported"
	ReasonDuplicate        Reason = "duplicate"
	ReasonMissingReference Reason = "missing_reference"
	ReasonInvalid          Reason = "invalid"
	ReasonFailed           Reason = "failed"
)

// UserInput is an imported user payload.
type UserInput struct {
	ExternalID   string     `json:"external_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash *string    `json:"password_hash,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	Metadata     *string    `json:"metadata,omitempty"`
}

// BankInput is an imported bank payload.
type BankInput struct {
	ExternalID     string     `json:"external_id"`
	UserExternalID string     `json:"user_external_id"`
	Name           string     `json:"name"`
	Type           *string    `json:"type,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	Metadata       *string    `json:"metadata,omitempty"`
}

// TransactionInput is an imported transaction payload.
type TransactionInput struct {
	ExternalID      string           `json:"external_id"`
	BankExternalID  string           `json:"bank_external_id"`
	Amount          *decimal.Decimal `json:"amount"`
	Description     *string          `json:"description,omitempty"`
	Category        *string          `json:"category,omitempty"`
	Type            *string          `json:"type,omitempty"`
	TransactionDate time.Time        `json:"transaction_date"`
	CreatedAt       *time.Time       `json:"created_at,omitempty"`
	Metadata        *string          `json:"metadata,omitempty"`
}

// Result reports the outcome of one record.
type Result struct {
	Success    bool   `json:"success"`
	Reason     Reason `json:"reason"`
	Message    string `json:"message"`
	InternalID string `json:"internal_id,omitempty"`
	ExternalID string `json:"external_id"`
}

// BatchResult aggregates per-record results in input order.
type BatchResult struct {
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Total      int      `json:"total"`
	Results    []Result `json:"results"`
}

func (b *BatchResult) add(result Result) {
	b.Results = append(b.Results, result)
	b.Total++
	if result.Success {
		b.Successful++
	} else {
		b.Failed++
	}
}

// EntityCounts holds local row counts for the health summary.
type EntityCounts struct {
	Users        int64 `json:"users"`
	Banks        int64 `json:"banks"`
	Transactions int64 `json:"transactions"`
}

// SyncStatus summarizes import runs of one entity type.
type SyncStatus struct {
	EntityType        models.EntityType `json:"entity_type"`
	LastSync          *time.Time        `json:"last_sync"`
	Runs              int64             `json:"runs"`
	TotalRecords      int64             `json:"total_records"`
	SuccessfulImports int64             `json:"successful_imports"`
	FailedImports     int64             `json:"failed_imports"`
}

// TxStore is the write capability available inside Store.Atomic.
type TxStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateBank(ctx context.Context, bank *models.Bank) error
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	CreateMapping(ctx context.Context, mapping *models.ExternalMapping) error
}

// Store runs entity creation and mapping registration atomically.
type Store interface {
	Atomic(ctx context.Context, fn func(tx TxStore) error) error
}

// Stats backs the maintenance queries and import run history.
type Stats interface {
	CountEntities(ctx context.Context) (EntityCounts, error)
	RecordRun(ctx context.Context, run *models.ImportRun) error
	SummarizeRuns(ctx context.Context, module string) ([]SyncStatus, error)
}
