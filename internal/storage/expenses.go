package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

const expenseSelect = `
	SELECT e.id, e.date, e.category_id, e.subcategory_id, e.amount, e.description,
	       e.payment_method, e.is_fixed, COALESCE(e.source_ref, ''), e.created_at,
	       c.name, c.color, c.budget, s.name
	FROM expenses e
	JOIN categories c ON c.id = e.category_id
	LEFT JOIN subcategories s ON s.id = e.subcategory_id`

func scanExpense(row interface{ Scan(...any) error }) (model.Expense, error) {
	var (
		exp     model.Expense
		date    string
		subID   sql.NullInt64
		subName sql.NullString
		method  string
	)

	err := row.Scan(
		&exp.ID, &date, &exp.CategoryID, &subID, &exp.Amount, &exp.Description,
		&method, &exp.IsFixed, &exp.SourceRef, &exp.CreatedAt,
		&exp.Category.Name, &exp.Category.Color, &exp.Category.Budget, &subName,
	)
	if err != nil {
		return model.Expense{}, err
	}

	exp.Date, err = time.Parse(model.DateLayout, date)
	if err != nil {
		return model.Expense{}, fmt.Errorf("expense %d has malformed date %q: %w", exp.ID, date, err)
	}
	exp.PaymentMethod = model.PaymentMethod(method)
	exp.Category.ID = exp.CategoryID

	if subID.Valid {
		id := subID.Int64
		exp.SubcategoryID = &id
		exp.Subcategory = &model.SubcategoryRef{ID: id, Name: subName.String}
	}

	return exp, nil
}

// checkReferences verifies that the category exists and, when given, that the
// subcategory belongs to it.
func checkReferences(ctx context.Context, tx *sql.Tx, categoryID int64, subcategoryID *int64) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id = ?`, categoryID).Scan(&n); err != nil {
		return common.StorageErr("check category", err)
	}
	if n == 0 {
		return common.InvalidReferencef("category %d does not exist", categoryID)
	}

	if subcategoryID == nil {
		return nil
	}

	var parent int64
	err := tx.QueryRowContext(ctx, `SELECT category_id FROM subcategories WHERE id = ?`, *subcategoryID).Scan(&parent)
	if errors.Is(err, sql.ErrNoRows) {
		return common.InvalidReferencef("subcategory %d does not exist", *subcategoryID)
	}
	if err != nil {
		return common.StorageErr("check subcategory", err)
	}
	if parent != categoryID {
		return common.InvalidReferencef("subcategory %d belongs to category %d, not %d", *subcategoryID, parent, categoryID)
	}
	return nil
}

func insertExpense(ctx context.Context, tx *sql.Tx, exp *model.NewExpense, createdAt time.Time) (int64, error) {
	var sourceRef any
	if exp.SourceRef != "" {
		sourceRef = exp.SourceRef
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (date, category_id, subcategory_id, amount, description,
		                      payment_method, is_fixed, source_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.Date.Format(model.DateLayout),
		exp.CategoryID,
		exp.SubcategoryID,
		exp.Amount.String(),
		exp.Description,
		string(exp.PaymentMethod),
		exp.IsFixed,
		sourceRef,
		createdAt,
	)
	if err != nil {
		return 0, common.StorageErr("insert expense", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, common.StorageErr("expense id", err)
	}
	return id, nil
}

// AddExpense validates and records a new expense, returning its id.
func (s *SQLiteStorage) AddExpense(ctx context.Context, exp model.NewExpense) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	exp.Normalize()
	if err := exp.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkReferences(ctx, tx, exp.CategoryID, exp.SubcategoryID); err != nil {
			return err
		}
		var err error
		id, err = insertExpense(ctx, tx, &exp, time.Now().UTC())
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.Info("added expense",
		"id", id,
		"date", exp.Date.Format(model.DateLayout),
		"category_id", exp.CategoryID,
		"amount", exp.Amount.String())
	return id, nil
}

// ImportExpenses inserts a batch in one transaction. Rows whose SourceRef is
// already present are skipped, so re-importing a statement is harmless.
func (s *SQLiteStorage) ImportExpenses(ctx context.Context, batch []model.NewExpense) (inserted, skipped int, err error) {
	if err := validateContext(ctx); err != nil {
		return 0, 0, err
	}

	for i := range batch {
		batch[i].Normalize()
		if err := batch[i].Validate(); err != nil {
			return 0, 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	createdAt := time.Now().UTC()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		seen := make(map[string]bool)
		for i := range batch {
			exp := &batch[i]
			if exp.SourceRef != "" {
				if seen[exp.SourceRef] {
					skipped++
					continue
				}
				seen[exp.SourceRef] = true

				var n int
				if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE source_ref = ?`, exp.SourceRef).Scan(&n); err != nil {
					return common.StorageErr("check source ref", err)
				}
				if n > 0 {
					skipped++
					continue
				}
			}

			if err := checkReferences(ctx, tx, exp.CategoryID, exp.SubcategoryID); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			if _, err := insertExpense(ctx, tx, exp, createdAt); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	slog.Info("imported expenses", "inserted", inserted, "skipped", skipped)
	return inserted, skipped, nil
}

// DeleteExpense permanently removes one expense.
func (s *SQLiteStorage) DeleteExpense(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if id <= 0 {
		return common.NotFoundf("expense %d", id)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
		if err != nil {
			return common.StorageErr("delete expense", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return common.StorageErr("delete expense", err)
		}
		if n == 0 {
			return common.NotFoundf("expense %d", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("deleted expense", "id", id)
	return nil
}

// GetExpense returns one expense joined with its category.
func (s *SQLiteStorage) GetExpense(ctx context.Context, id int64) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	exp, err := scanExpense(s.db.QueryRowContext(ctx, expenseSelect+` WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("expense %d", id)
	}
	if err != nil {
		return nil, common.StorageErr("query expense", err)
	}
	return &exp, nil
}

// ListExpenses returns expenses matching filter, newest first.
func (s *SQLiteStorage) ListExpenses(ctx context.Context, filter model.ExpenseFilter) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Start != nil {
		where = append(where, "e.date >= ?")
		args = append(args, filter.Start.Format(model.DateLayout))
	}
	if filter.End != nil {
		where = append(where, "e.date <= ?")
		args = append(args, filter.End.Format(model.DateLayout))
	}
	if len(filter.CategoryIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.CategoryIDs)), ",")
		where = append(where, "e.category_id IN ("+placeholders+")")
		for _, id := range filter.CategoryIDs {
			args = append(args, id)
		}
	}

	query := expenseSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.date DESC, e.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.StorageErr("query expenses", err)
	}
	defer func() { _ = rows.Close() }()

	expenses := []model.Expense{}
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, common.StorageErr("scan expense", err)
		}
		// Amounts are stored as text, so the minimum is applied here.
		if filter.MinAmount != nil && exp.Amount.LessThan(*filter.MinAmount) {
			continue
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageErr("iterate expenses", err)
	}

	slog.Debug("listed expenses", "count", len(expenses))
	return expenses, nil
}

// ExpenseDateBounds returns the earliest and latest expense dates. ok is
// false when there are no expenses.
func (s *SQLiteStorage) ExpenseDateBounds(ctx context.Context) (earliest, latest time.Time, ok bool, err error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, time.Time{}, false, err
	}

	var minDate, maxDate sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date) FROM expenses`).Scan(&minDate, &maxDate); err != nil {
		return time.Time{}, time.Time{}, false, common.StorageErr("query date bounds", err)
	}
	if !minDate.Valid || !maxDate.Valid {
		return time.Time{}, time.Time{}, false, nil
	}

	earliest, err = time.Parse(model.DateLayout, minDate.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, common.StorageErr("parse date bounds", err)
	}
	latest, err = time.Parse(model.DateLayout, maxDate.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, common.StorageErr("parse date bounds", err)
	}
	return earliest, latest, true, nil
}
