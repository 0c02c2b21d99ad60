package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bank represents a financial institution linked to a user.
type Bank struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID primary key.

	UserID string `gorm:"type:varchar(36);not null;index:idx_banks_user_name"` // Owning user ID.
	User   *User  `gorm:"foreignKey:UserID"`                                   // Owning user.

	Name     string  `gorm:"type:text;not null;index:idx_banks_user_name"` // Bank display name.
	Type     *string `gorm:"type:text"`                                    // Optional bank type.
	IsActive bool    `gorm:"not null"`                                     // Whether the bank is active; importers default it to true.

	CreatedAt time.Time `gorm:"not null"`                // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID and creation time when missing.
func (b *Bank) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}
