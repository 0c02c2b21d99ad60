package models

import "time"

// EntityType names the local table an external mapping points into.
type EntityType string

// EntityType constants define the mappable entity kinds.
const (
	// EntityTypeUser maps to the users table.
	EntityTypeUser EntityType = "user"
	// EntityTypeBank maps to the banks table.
	EntityTypeBank EntityType = "bank"
	// EntityTypeTransaction maps to the transactions table.
	EntityTypeTransaction EntityType = "transaction"
)

// Valid reports whether the entity type is one of the known kinds.
func (e EntityType) Valid() bool {
	switch e {
	case EntityTypeUser, EntityTypeBank, EntityTypeTransaction:
		return true
	default:
		return false
	}
}

// ExternalMapping links a foreign system identifier to a local entity.
type ExternalMapping struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ExternalID string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_external_mappings_triple,priority:1"` // Foreign identifier.
	Module     string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_external_mappings_triple,priority:2"` // Foreign system namespace.
	EntityType EntityType `gorm:"type:varchar(32);not null;uniqueIndex:idx_external_mappings_triple,priority:3"`  // Local entity kind.
	InternalID string     `gorm:"type:varchar(36);not null;index"`                                               // Local entity ID.

	Metadata *string `gorm:"type:text"` // Opaque foreign payload, stored verbatim.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
