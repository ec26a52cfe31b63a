// Package testutil provides shared fixtures for tests that need a migrated
// ledger database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB is an in-memory ledger with the default categories seeded.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database holding the default
// category set. The database is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := store.SeedDefaults(ctx); err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	return &TestDB{Storage: store, t: t}
}

// MustCategory returns the seeded category with the given name or fails the test.
func (db *TestDB) MustCategory(name string) model.Category {
	db.t.Helper()
	cat, err := db.Storage.GetCategoryByName(context.Background(), name)
	if err != nil {
		db.t.Fatalf("category %q not found: %v", name, err)
	}
	return *cat
}

// MustSubcategory returns the subcategory of category with the given name.
func (db *TestDB) MustSubcategory(category, name string) model.Subcategory {
	db.t.Helper()
	cat := db.MustCategory(category)
	sub, err := db.Storage.GetSubcategoryByName(context.Background(), cat.ID, name)
	if err != nil {
		db.t.Fatalf("subcategory %q/%q not found: %v", category, name, err)
	}
	return *sub
}

// MustSetBudget sets the ceiling of the named category.
func (db *TestDB) MustSetBudget(category string, amount int64) {
	db.t.Helper()
	cat := db.MustCategory(category)
	if _, err := db.Storage.SetBudget(context.Background(), cat.ID, decimal.NewFromInt(amount)); err != nil {
		db.t.Fatalf("failed to set budget for %q: %v", category, err)
	}
}

// MustAdd records an expense in the named category and returns its id.
func (db *TestDB) MustAdd(category string, date time.Time, amount int64, method model.PaymentMethod) int64 {
	db.t.Helper()
	cat := db.MustCategory(category)
	id, err := db.Storage.AddExpense(context.Background(), model.NewExpense{
		Date:          date,
		CategoryID:    cat.ID,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: method,
	})
	if err != nil {
		db.t.Fatalf("failed to add expense: %v", err)
	}
	return id
}

// Day returns midnight UTC of the given calendar date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
