// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// CategoryStore owns category and subcategory definitions.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name, color string) (*model.Category, error)
	ListSubcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error)
	GetSubcategoryByName(ctx context.Context, categoryID int64, name string) (*model.Subcategory, error)
	SetBudget(ctx context.Context, categoryID int64, amount decimal.Decimal) (bool, error)
	SeedDefaults(ctx context.Context) (bool, error)
	DeleteCategory(ctx context.Context, categoryID int64) error
}

// ExpenseStore owns expense records.
type ExpenseStore interface {
	AddExpense(ctx context.Context, exp model.NewExpense) (int64, error)
	ImportExpenses(ctx context.Context, batch []model.NewExpense) (inserted, skipped int, err error)
	DeleteExpense(ctx context.Context, id int64) error
	GetExpense(ctx context.Context, id int64) (*model.Expense, error)
	ListExpenses(ctx context.Context, filter model.ExpenseFilter) ([]model.Expense, error)
	ExpenseDateBounds(ctx context.Context) (earliest, latest time.Time, ok bool, err error)
}

// AnalysisStore persists generated narratives.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, a *model.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]model.Analysis, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	CategoryStore
	ExpenseStore
	AnalysisStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Clock returns the current time. Services take one so that period
// resolution is deterministic under test.
type Clock func() time.Time
