package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/importer"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// ImportResult counts the outcome of a batch import.
type ImportResult struct {
	Inserted int
	// Skipped counts rows that were already imported.
	Skipped int
	// Inflows counts statement lines dropped because no money left the account.
	Inflows int
}

// Import stores a batch atomically. Rows whose source reference is already
// known are skipped.
func (s *Service) Import(ctx context.Context, batch []model.NewExpense) (ImportResult, error) {
	if len(batch) == 0 {
		return ImportResult{}, nil
	}
	inserted, skipped, err := s.store.ImportExpenses(ctx, batch)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Inserted: inserted, Skipped: skipped}, nil
}

// ParseCSV reads a ledger CSV export and resolves its category and
// subcategory names against the store. Nothing is written.
func (s *Service) ParseCSV(ctx context.Context, r io.Reader) ([]model.NewExpense, error) {
	rows, err := export.ReadCSV(r)
	if err != nil {
		return nil, err
	}

	resolver := newNameResolver(s.store)
	batch := make([]model.NewExpense, 0, len(rows))
	for _, row := range rows {
		categoryID, subcategoryID, err := resolver.resolve(ctx, row.Category, row.Subcategory)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}
		exp := model.NewExpense{
			Date:          row.Date,
			CategoryID:    categoryID,
			SubcategoryID: subcategoryID,
			Amount:        row.Amount,
			Description:   row.Description,
			PaymentMethod: row.PaymentMethod,
			SourceRef:     csvSourceRef(row),
		}
		if err := exp.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}
		batch = append(batch, exp)
	}
	return batch, nil
}

// ImportCSV parses and stores a ledger CSV export in one transaction.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	batch, err := s.ParseCSV(ctx, r)
	if err != nil {
		return ImportResult{}, err
	}
	return s.Import(ctx, batch)
}

// StatementMapping resolves the target of a statement import by name.
// An empty method keeps the method inferred from each statement line.
func (s *Service) StatementMapping(ctx context.Context, category, subcategory, method string, fixed bool) (importer.Mapping, error) {
	categoryID, subcategoryID, err := newNameResolver(s.store).resolve(ctx, category, subcategory)
	if err != nil {
		return importer.Mapping{}, err
	}
	m := importer.Mapping{CategoryID: categoryID, SubcategoryID: subcategoryID, IsFixed: fixed}
	if method != "" {
		if m.PaymentMethod, err = model.ParsePaymentMethod(method); err != nil {
			return importer.Mapping{}, err
		}
	}
	return m, nil
}

// ImportStatements fetches src and stores its outflows under m.
func (s *Service) ImportStatements(ctx context.Context, src importer.Source, m importer.Mapping) (ImportResult, error) {
	lines, err := src.Fetch(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	batch, inflows, err := importer.ToExpenses(lines, m)
	if err != nil {
		return ImportResult{}, err
	}
	result, err := s.Import(ctx, batch)
	if err != nil {
		return ImportResult{}, err
	}
	result.Inflows = inflows
	slog.Info("Imported statement",
		"source", src.Name(),
		"lines", len(lines),
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"inflows", inflows)
	return result, nil
}

// csvSourceRef identifies a CSV row so re-importing the same file is a no-op.
// Rows exported from a ledger carry their id; others fall back to the line.
func csvSourceRef(row export.CSVRow) string {
	key := strconv.Itoa(row.Line)
	if row.ID != 0 {
		key = "id:" + strconv.FormatInt(row.ID, 10)
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		key,
		row.Date.Format(model.DateLayout),
		strings.ToLower(row.Category),
		strings.ToLower(row.Subcategory),
		row.Amount.String(),
		row.Description,
		string(row.PaymentMethod),
	}, "\x1f")))
	return "csv:" + hex.EncodeToString(sum[:8])
}

// nameResolver caches name lookups for the length of one import.
type nameResolver struct {
	store         Store
	categories    map[string]int64
	subcategories map[string]int64
}

func newNameResolver(store Store) *nameResolver {
	return &nameResolver{
		store:         store,
		categories:    make(map[string]int64),
		subcategories: make(map[string]int64),
	}
}

func (nr *nameResolver) resolve(ctx context.Context, category, subcategory string) (int64, *int64, error) {
	catKey := strings.ToLower(category)
	categoryID, ok := nr.categories[catKey]
	if !ok {
		cat, err := nr.store.GetCategoryByName(ctx, category)
		if errors.Is(err, common.ErrNotFound) {
			return 0, nil, common.Validationf("unknown category %q", category)
		}
		if err != nil {
			return 0, nil, err
		}
		categoryID = cat.ID
		nr.categories[catKey] = categoryID
	}

	if subcategory == "" {
		return categoryID, nil, nil
	}

	subKey := catKey + "\x1f" + strings.ToLower(subcategory)
	subID, ok := nr.subcategories[subKey]
	if !ok {
		sub, err := nr.store.GetSubcategoryByName(ctx, categoryID, subcategory)
		if errors.Is(err, common.ErrNotFound) {
			return 0, nil, common.Validationf("unknown subcategory %q in %q", subcategory, category)
		}
		if err != nil {
			return 0, nil, err
		}
		subID = sub.ID
		nr.subcategories[subKey] = subID
	}
	return categoryID, &subID, nil
}
