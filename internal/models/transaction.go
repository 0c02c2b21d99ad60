package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction records a single movement on a bank.
type Transaction struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID primary key.

	BankID string `gorm:"type:varchar(36);not null;index:idx_transactions_bank_date"` // Owning bank ID.
	Bank   *Bank  `gorm:"foreignKey:BankID"`                                          // Owning bank.

	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null"` // Signed amount.
	Description *string         `gorm:"type:text"`                   // Free-form description.
	Category    *string         `gorm:"type:text"`                   // Spending category.
	Type        *string         `gorm:"type:text"`                   // Credit/debit or source-specific type.

	TransactionDate time.Time `gorm:"not null;index:idx_transactions_bank_date"` // When the movement happened (UTC).

	CreatedAt time.Time `gorm:"not null"`                // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID, normalizes the date to UTC, and fills the creation time.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.TransactionDate = t.TransactionDate.UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return nil
}
