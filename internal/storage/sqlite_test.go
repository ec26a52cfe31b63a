package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// createSeededStorage returns migrated storage holding the default categories.
func createSeededStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	store, cleanup := createTestStorage(t)
	if _, err := store.SeedDefaults(context.Background()); err != nil {
		cleanup()
		t.Fatalf("Failed to seed defaults: %v", err)
	}
	return store, cleanup
}

func mustCategory(t *testing.T, store *SQLiteStorage, name string) *model.Category {
	t.Helper()
	cat, err := store.GetCategoryByName(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to get category %s: %v", name, err)
	}
	return cat
}

func mustSubcategory(t *testing.T, store *SQLiteStorage, categoryID int64, name string) *model.Subcategory {
	t.Helper()
	sub, err := store.GetSubcategoryByName(context.Background(), categoryID, name)
	if err != nil {
		t.Fatalf("Failed to get subcategory %s: %v", name, err)
	}
	return sub
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newExpense(categoryID int64, date time.Time, amount int64) model.NewExpense {
	return model.NewExpense{
		Date:          date,
		CategoryID:    categoryID,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: model.PaymentCreditCard,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "a", "b", "ledger.db")
		store, err := NewSQLiteStorage(dbPath)
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error = %v", err)
		}
		defer func() { _ = store.Close() }()

		if store.Path() != dbPath {
			t.Errorf("Path() = %q, want %q", store.Path(), dbPath)
		}
	})

	t.Run("in-memory database", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error = %v", err)
		}
		defer func() { _ = store.Close() }()

		if err := store.Migrate(context.Background()); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := NewSQLiteStorage("  "); err == nil {
			t.Fatal("expected error for empty path")
		}
	})
}

func TestMigrateIsRepeatable(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, ExpectedSchemaVersion)
	}
}
