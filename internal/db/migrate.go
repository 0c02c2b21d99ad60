package db

import (
	"fmt"

	"github.com/automation-hub/hub/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// schemaModels lists every table managed by AutoMigrate, parents before children.
func schemaModels() []any {
	return []any{
		&models.User{},
		&models.Bank{},
		&models.Transaction{},
		&models.ExternalMapping{},
		&models.ImportRun{},
	}
}

// ddl defines an index or DDL statement to apply.
type ddl struct {
	name string // Human-readable name for error reporting.
	sql  string // SQL to execute.
}

// sharedDDL holds statements valid on both PostgreSQL and SQLite.
var sharedDDL = []ddl{
	{
		name: "idx_external_mappings_module_type",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_external_mappings_module_type
			ON external_mappings (module, entity_type)
		`,
	},
	{
		name: "idx_banks_user_id",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_banks_user_id
			ON banks (user_id)
		`,
	},
}

// postgresDDL holds PostgreSQL-only statements.
var postgresDDL = []ddl{
	{
		name: "idx_transactions_bank_amount_date",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_transactions_bank_amount_date
			ON transactions (bank_id, amount, transaction_date)
		`,
	},
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(schemaModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	return applyDDL(conn, append(append([]ddl{}, postgresDDL...), sharedDDL...))
}

// migrateSQLite applies SQLite schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(schemaModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return applyDDL(conn, sharedDDL)
}

func applyDDL(conn *gorm.DB, ddls []ddl) error {
	for _, stmt := range ddls {
		if errExec := conn.Exec(stmt.sql).Error; errExec != nil {
			return fmt.Errorf("db: create %s: %w", stmt.name, errExec)
		}
	}
	return nil
}
