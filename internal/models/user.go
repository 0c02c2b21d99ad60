package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a hub account stored in the database.
type User struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID primary key.

	Name        string  `gorm:"type:text;not null"`             // Display name.
	Email       string  `gorm:"type:text;not null;uniqueIndex"` // Unique email address.
	Password    string  `gorm:"type:text;not null"`             // Hashed password or imported sentinel.
	PhoneNumber *string `gorm:"type:text"`                      // Optional phone number.

	Banks []Bank `gorm:"foreignKey:UserID"` // Owned banks.

	CreatedAt time.Time `gorm:"not null"`                // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID and creation time when missing.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return nil
}
