// Package ledger exposes the entry points the presentation layer calls:
// recording and deleting expenses, editing budgets, and producing reports,
// digests and exports for a resolved period.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// Store is the persistence the ledger needs.
type Store interface {
	service.CategoryStore
	service.ExpenseStore
}

// Service coordinates the stores with the period resolver and the
// aggregation engine.
type Service struct {
	store Store
	clock service.Clock
}

// New creates a ledger service. A nil clock uses time.Now.
func New(store Store, clock service.Clock) (*Service, error) {
	if store == nil {
		return nil, errors.New("store dependency is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock}, nil
}

// Today returns the current calendar date according to the service clock.
func (s *Service) Today() time.Time {
	return model.DateOf(s.clock())
}

// AddExpense records a new expense and returns its id.
func (s *Service) AddExpense(ctx context.Context, exp model.NewExpense) (int64, error) {
	return s.store.AddExpense(ctx, exp)
}

// Expense returns one expense by id.
func (s *Service) Expense(ctx context.Context, id int64) (*model.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// DeleteExpense removes one expense permanently.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	return s.store.DeleteExpense(ctx, id)
}

// SetBudget changes a category's ceiling. It reports whether a write happened.
func (s *Service) SetBudget(ctx context.Context, categoryID int64, amount decimal.Decimal) (bool, error) {
	return s.store.SetBudget(ctx, categoryID, amount)
}

// Categories lists every category by name.
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}

// CategoryByName looks a category up case-insensitively.
func (s *Service) CategoryByName(ctx context.Context, name string) (*model.Category, error) {
	return s.store.GetCategoryByName(ctx, name)
}

// AddCategory creates an empty category with no budget.
func (s *Service) AddCategory(ctx context.Context, name, color string) (*model.Category, error) {
	return s.store.CreateCategory(ctx, name, color)
}

// Subcategories lists the subcategories of a category.
func (s *Service) Subcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error) {
	return s.store.ListSubcategories(ctx, categoryID)
}

// DeleteCategory removes an unreferenced category and its subcategories.
func (s *Service) DeleteCategory(ctx context.Context, categoryID int64) error {
	return s.store.DeleteCategory(ctx, categoryID)
}

// SeedDefaults installs the default category set into an empty ledger.
func (s *Service) SeedDefaults(ctx context.Context) (bool, error) {
	return s.store.SeedDefaults(ctx)
}

// ResolvePeriod fills in today from the service clock and, for all-time
// requests, the recorded date bounds, then resolves req.
func (s *Service) ResolvePeriod(ctx context.Context, req period.Request) (period.Range, error) {
	if req.Today.IsZero() {
		req.Today = s.Today()
	}
	if req.Kind == period.AllTime && req.DataBounds == nil {
		earliest, latest, ok, err := s.store.ExpenseDateBounds(ctx)
		if err != nil {
			return period.Range{}, err
		}
		if ok {
			req.DataBounds = &period.Range{Start: earliest, End: latest}
		}
	}
	return period.Resolve(req)
}

// ListForPeriod resolves req and returns the records inside it, newest first.
func (s *Service) ListForPeriod(ctx context.Context, req period.Request) (period.Range, []model.Expense, error) {
	r, err := s.ResolvePeriod(ctx, req)
	if err != nil {
		return period.Range{}, nil, err
	}
	records, err := s.store.ListExpenses(ctx, r.Filter())
	if err != nil {
		return period.Range{}, nil, err
	}
	return r, records, nil
}

// Snapshot is every record set a report needs, read once.
type Snapshot struct {
	Period     period.Range
	Records    []model.Expense
	Previous   []model.Expense
	Categories []model.Category
}

// Snapshot resolves req and loads the categories, the period's records and
// the previous period's records.
func (s *Service) Snapshot(ctx context.Context, req period.Request) (*Snapshot, error) {
	r, records, err := s.ListForPeriod(ctx, req)
	if err != nil {
		return nil, err
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	previous, err := s.store.ListExpenses(ctx, period.PreviousPeriodOf(r).Filter())
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded report snapshot",
		"period", r.Label(),
		"records", len(records),
		"previous", len(previous),
		"categories", len(categories))

	return &Snapshot{
		Period:     r,
		Records:    records,
		Previous:   previous,
		Categories: categories,
	}, nil
}

// Summary computes the aggregation over the snapshot.
func (snap *Snapshot) Summary() report.Summary {
	return report.Compute(report.Input{
		Period:     snap.Period,
		Records:    snap.Records,
		Categories: snap.Categories,
		Previous:   snap.Previous,
	})
}

// Digest builds the narrative digest for the snapshot's period.
func (snap *Snapshot) Digest() export.Digest {
	summary := report.Compute(report.Input{Period: snap.Period, Records: snap.Records})
	return export.ToAnalysisDigest(snap.Records, summary.CategoryBreakdown, snap.Period)
}

// Report returns the aggregated summary for the requested period.
func (s *Service) Report(ctx context.Context, req period.Request) (report.Summary, error) {
	snap, err := s.Snapshot(ctx, req)
	if err != nil {
		return report.Summary{}, err
	}
	return snap.Summary(), nil
}

// Digest returns the narrative digest for the requested period.
func (s *Service) Digest(ctx context.Context, req period.Request) (export.Digest, error) {
	r, records, err := s.ListForPeriod(ctx, req)
	if err != nil {
		return export.Digest{}, err
	}
	snap := &Snapshot{Period: r, Records: records}
	return snap.Digest(), nil
}

// ExportCSV writes the requested period's records to w and returns how many
// rows were written.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, req period.Request) (int, error) {
	r, records, err := s.ListForPeriod(ctx, req)
	if err != nil {
		return 0, err
	}
	if err := export.WriteCSV(w, records); err != nil {
		return 0, fmt.Errorf("failed to export CSV: %w", err)
	}
	slog.Info("Exported expenses", "period", r.Label(), "rows", len(records))
	return len(records), nil
}
