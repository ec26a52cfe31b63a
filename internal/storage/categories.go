package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

const categoryColumns = `id, name, budget, color, created_at`

func scanCategory(row interface{ Scan(...any) error }) (model.Category, error) {
	var cat model.Category
	err := row.Scan(&cat.ID, &cat.Name, &cat.Budget, &cat.Color, &cat.CreatedAt)
	return cat, err
}

// ListCategories returns every category sorted by name. An empty store
// yields an empty slice.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listCategories(ctx, s.db)
}

func listCategories(ctx context.Context, q queryer) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, common.StorageErr("query categories", err)
	}
	defer func() { _ = rows.Close() }()

	categories := []model.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, common.StorageErr("scan category", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageErr("iterate categories", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategory returns the category with the given id.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategory(ctx, s.db, id)
}

func getCategory(ctx context.Context, q queryer, id int64) (*model.Category, error) {
	cat, err := scanCategory(q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("category %d", id)
	}
	if err != nil {
		return nil, common.StorageErr("query category", err)
	}
	return &cat, nil
}

// GetCategoryByName returns a category by its name, compared case-insensitively.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	cat, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("category %q", name)
	}
	if err != nil {
		return nil, common.StorageErr("query category", err)
	}
	return &cat, nil
}

// CreateCategory adds a category with no budget ceiling.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name, color string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	var created *model.Category
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ? COLLATE NOCASE`, name).Scan(&exists); err != nil {
			return common.StorageErr("check category name", err)
		}
		if exists > 0 {
			return common.Validationf("category %q already exists", name)
		}

		result, err := tx.ExecContext(ctx, `INSERT INTO categories (name, budget, color) VALUES (?, '0', ?)`, name, color)
		if err != nil {
			return common.StorageErr("insert category", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return common.StorageErr("category id", err)
		}
		created, err = getCategory(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("created category", "id", created.ID, "name", created.Name)
	return created, nil
}

// ListSubcategories returns the subcategories of a category sorted by name.
// An unknown category is reported as ErrNotFound rather than an empty list.
func (s *SQLiteStorage) ListSubcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if _, err := getCategory(ctx, s.db, categoryID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category_id, name FROM subcategories WHERE category_id = ? ORDER BY name`, categoryID)
	if err != nil {
		return nil, common.StorageErr("query subcategories", err)
	}
	defer func() { _ = rows.Close() }()

	subs := []model.Subcategory{}
	for rows.Next() {
		var sub model.Subcategory
		if err := rows.Scan(&sub.ID, &sub.CategoryID, &sub.Name); err != nil {
			return nil, common.StorageErr("scan subcategory", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageErr("iterate subcategories", err)
	}
	return subs, nil
}

// GetSubcategoryByName looks up a subcategory of categoryID by name.
func (s *SQLiteStorage) GetSubcategoryByName(ctx context.Context, categoryID int64, name string) (*model.Subcategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var sub model.Subcategory
	err := s.db.QueryRowContext(ctx,
		`SELECT id, category_id, name FROM subcategories WHERE category_id = ? AND name = ? COLLATE NOCASE`,
		categoryID, strings.TrimSpace(name)).Scan(&sub.ID, &sub.CategoryID, &sub.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("subcategory %q in category %d", name, categoryID)
	}
	if err != nil {
		return nil, common.StorageErr("query subcategory", err)
	}
	return &sub, nil
}

// SetBudget persists a new budget ceiling. It returns false without writing
// when the amount equals the current ceiling.
func (s *SQLiteStorage) SetBudget(ctx context.Context, categoryID int64, amount decimal.Decimal) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if amount.IsNegative() {
		return false, common.Validationf("budget must not be negative, got %s", amount.String())
	}

	changed := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getCategory(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if current.Budget.Equal(amount) {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `UPDATE categories SET budget = ? WHERE id = ?`,
			amount.String(), categoryID); err != nil {
			return common.StorageErr("update budget", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		slog.Info("updated budget", "category_id", categoryID, "budget", amount.String())
	}
	return changed, nil
}

// SeedDefaults inserts the default categories and subcategories when the
// categories table is empty. It reports whether anything was inserted.
func (s *SQLiteStorage) SeedDefaults(ctx context.Context) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	seeded := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := countRows(ctx, tx, "categories")
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		catStmt, err := tx.PrepareContext(ctx, `INSERT INTO categories (name, budget, color) VALUES (?, '0', ?)`)
		if err != nil {
			return common.StorageErr("prepare category insert", err)
		}
		defer func() { _ = catStmt.Close() }()

		subStmt, err := tx.PrepareContext(ctx, `INSERT INTO subcategories (category_id, name) VALUES (?, ?)`)
		if err != nil {
			return common.StorageErr("prepare subcategory insert", err)
		}
		defer func() { _ = subStmt.Close() }()

		for _, seed := range model.DefaultCategories() {
			result, err := catStmt.ExecContext(ctx, seed.Name, seed.Color)
			if err != nil {
				return common.StorageErr(fmt.Sprintf("seed category %s", seed.Name), err)
			}
			catID, err := result.LastInsertId()
			if err != nil {
				return common.StorageErr("category id", err)
			}
			for _, sub := range seed.Subcategories {
				if _, err := subStmt.ExecContext(ctx, catID, sub); err != nil {
					return common.StorageErr(fmt.Sprintf("seed subcategory %s/%s", seed.Name, sub), err)
				}
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if seeded {
		slog.Info("seeded default categories", "count", len(model.DefaultCategories()))
	}
	return seeded, nil
}

// DeleteCategory removes a category and its subcategories. It is refused
// with ErrIntegrity while any expense references the category.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, categoryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getCategory(ctx, tx, categoryID); err != nil {
			return err
		}

		var refs int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE category_id = ?`, categoryID).Scan(&refs); err != nil {
			return common.StorageErr("count category references", err)
		}
		if refs > 0 {
			return common.Integrityf("category %d is referenced by %d expenses", categoryID, refs)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM subcategories WHERE category_id = ?`, categoryID); err != nil {
			return common.StorageErr("delete subcategories", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, categoryID); err != nil {
			return common.StorageErr("delete category", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("deleted category", "id", categoryID)
	return nil
}
