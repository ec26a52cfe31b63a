package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial ledger schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE CHECK (length(trim(name)) > 0),
					budget TEXT NOT NULL DEFAULT '0' CHECK (CAST(budget AS REAL) >= 0),
					color TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS subcategories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					name TEXT NOT NULL,
					UNIQUE (category_id, name)
				)`,
				`CREATE INDEX idx_subcategories_category ON subcategories(category_id)`,

				`CREATE TABLE IF NOT EXISTS expenses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					date TEXT NOT NULL,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					subcategory_id INTEGER REFERENCES subcategories(id),
					amount TEXT NOT NULL CHECK (CAST(amount AS REAL) > 0),
					description TEXT NOT NULL DEFAULT '',
					payment_method TEXT NOT NULL,
					is_fixed INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_expenses_date ON expenses(date)`,
				`CREATE INDEX idx_expenses_category ON expenses(category_id)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add source_ref to expenses for idempotent imports",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`ALTER TABLE expenses ADD COLUMN source_ref TEXT`,
				`CREATE UNIQUE INDEX idx_expenses_source_ref ON expenses(source_ref) WHERE source_ref IS NOT NULL`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add analyses table for stored narratives",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS analyses (
					id TEXT PRIMARY KEY,
					period_label TEXT NOT NULL,
					period_start TEXT NOT NULL,
					period_end TEXT NOT NULL,
					digest TEXT NOT NULL,
					narrative TEXT NOT NULL,
					provider TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_analyses_created ON analyses(created_at DESC)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return common.StorageErr("begin migration", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return common.StorageErr(fmt.Sprintf("migration %d", migration.Version), upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return common.StorageErr("update schema version", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return common.StorageErr(fmt.Sprintf("commit migration %d", migration.Version), commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("%w: database schema version mismatch: expected %d, got %d",
			common.ErrStorage, ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
