package ledger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newService(t *testing.T, today time.Time) (*Service, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc, err := New(db.Storage, fixedClock(today))
	require.NoError(t, err)
	return svc, db
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestAddListDelete(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, testutil.Day(2024, 1, 31))
	food := db.MustCategory("Food")
	cafe := db.MustSubcategory("Food", "Cafe")

	keep := db.MustAdd("Transport", testutil.Day(2024, 1, 3), 1250, model.PaymentCash)

	id, err := svc.AddExpense(ctx, model.NewExpense{
		Date:          testutil.Day(2024, 1, 9),
		CategoryID:    food.ID,
		SubcategoryID: &cafe.ID,
		Amount:        decimal.NewFromInt(4500),
		Description:   "  latte ",
		PaymentMethod: model.PaymentDebitCard,
	})
	require.NoError(t, err)

	got, err := svc.Expense(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(4500)))

	_, records, err := svc.ListForPeriod(ctx, period.Request{Kind: period.ThisMonth})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "latte", records[0].Description)
	assert.Equal(t, "Cafe", records[0].SubcategoryName())
	assert.Equal(t, "Food", records[0].Category.Name)

	require.NoError(t, svc.DeleteExpense(ctx, id))
	_, records, err = svc.ListForPeriod(ctx, period.Request{Kind: period.ThisMonth})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, keep, records[0].ID)

	assert.ErrorIs(t, svc.DeleteExpense(ctx, id), common.ErrNotFound)
}

func TestAddExpenseRejectsForeignSubcategory(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, testutil.Day(2024, 1, 31))
	food := db.MustCategory("Food")
	taxi := db.MustSubcategory("Transport", "Taxi")

	_, err := svc.AddExpense(ctx, model.NewExpense{
		Date:          testutil.Day(2024, 1, 9),
		CategoryID:    food.ID,
		SubcategoryID: &taxi.ID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: model.PaymentCash,
	})
	assert.ErrorIs(t, err, common.ErrIntegrity)

	_, err = svc.AddExpense(ctx, model.NewExpense{
		Date:          testutil.Day(2024, 1, 9),
		CategoryID:    food.ID,
		Amount:        decimal.Zero,
		PaymentMethod: model.PaymentCash,
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestReportWithinAndOverBudget(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, testutil.Day(2024, 1, 31))
	db.MustSetBudget("Food", 500000)

	db.MustAdd("Food", testutil.Day(2024, 1, 5), 100000, model.PaymentCreditCard)
	db.MustAdd("Food", testutil.Day(2024, 1, 10), 50000, model.PaymentCash)
	db.MustAdd("Food", testutil.Day(2024, 1, 20), 200000, model.PaymentCreditCard)

	s, err := svc.Report(ctx, period.Request{Kind: period.ThisMonth})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01 ~ 2024-01-31", s.Period.Label())
	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(350000)))
	assert.Equal(t, "11290", s.DailyAverage.StringFixed(0))
	require.Len(t, s.BudgetUtilization, 1)
	assert.Equal(t, "Food", s.BudgetUtilization[0].Category)
	assert.InDelta(t, 70.0, s.BudgetUtilization[0].Percent, 1e-9)
	assert.Empty(t, s.OverBudgetCategories)

	db.MustAdd("Food", testutil.Day(2024, 1, 25), 200000, model.PaymentDebitCard)

	s, err = svc.Report(ctx, period.Request{Kind: period.ThisMonth})
	require.NoError(t, err)
	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(550000)))
	require.Len(t, s.OverBudgetCategories, 1)
	assert.Equal(t, "Food", s.OverBudgetCategories[0].Category)
	assert.True(t, s.OverBudgetCategories[0].Amount.Equal(decimal.NewFromInt(50000)))
	assert.InDelta(t, 10.0, s.OverBudgetCategories[0].Percent, 1e-9)
}

func TestReportComparesPreviousPeriod(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, testutil.Day(2024, 1, 31))

	db.MustAdd("Food", testutil.Day(2023, 12, 3), 200000, model.PaymentCash)
	db.MustAdd("Food", testutil.Day(2024, 1, 5), 350000, model.PaymentCash)

	s, err := svc.Report(ctx, period.Request{Kind: period.ThisMonth})
	require.NoError(t, err)
	assert.True(t, s.HasComparison)
	assert.True(t, s.PreviousTotal.Equal(decimal.NewFromInt(200000)))
	assert.InDelta(t, 75.0, s.ChangePercent, 1e-9)
}

func TestResolvePeriod(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, testutil.Day(2024, 3, 15))

	t.Run("all-time on an empty ledger is today", func(t *testing.T) {
		r, err := svc.ResolvePeriod(ctx, period.Request{Kind: period.AllTime})
		require.NoError(t, err)
		assert.Equal(t, testutil.Day(2024, 3, 15), r.Start)
		assert.Equal(t, testutil.Day(2024, 3, 15), r.End)
	})

	t.Run("all-time spans recorded dates", func(t *testing.T) {
		db.MustAdd("Leisure", testutil.Day(2023, 7, 2), 10, model.PaymentCash)
		db.MustAdd("Leisure", testutil.Day(2024, 2, 20), 10, model.PaymentCash)

		r, err := svc.ResolvePeriod(ctx, period.Request{Kind: period.AllTime})
		require.NoError(t, err)
		assert.Equal(t, testutil.Day(2023, 7, 2), r.Start)
		assert.Equal(t, testutil.Day(2024, 2, 20), r.End)
	})

	t.Run("inverted custom range is rejected", func(t *testing.T) {
		start, end := testutil.Day(2024, 2, 1), testutil.Day(2024, 1, 1)
		_, err := svc.ResolvePeriod(ctx, period.Request{Kind: period.Custom, CustomStart: &start, CustomEnd: &end})
		assert.ErrorIs(t, err, common.ErrValidation)

		_, err = svc.Report(ctx, period.Request{Kind: period.Custom, CustomStart: &start, CustomEnd: &end})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("explicit today wins over the clock", func(t *testing.T) {
		r, err := svc.ResolvePeriod(ctx, period.Request{Kind: period.ThisMonth, Today: testutil.Day(2023, 11, 9)})
		require.NoError(t, err)
		assert.Equal(t, testutil.Day(2023, 11, 1), r.Start)
	})
}

func TestDigest(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, testutil.Day(2024, 1, 31))

	db.MustAdd("Food", testutil.Day(2024, 1, 8), 3000, model.PaymentCash)
	db.MustAdd("Food", testutil.Day(2024, 1, 15), 1000, model.PaymentCash)
	db.MustAdd("Transport", testutil.Day(2024, 1, 10), 500, model.PaymentCash)

	d, err := svc.Digest(ctx, period.Request{Kind: period.ThisMonth})
	require.NoError(t, err)

	assert.Equal(t, 3, d.Count)
	require.Len(t, d.Categories, 2)
	assert.Equal(t, "Food", d.Categories[0].Name)
	assert.True(t, d.Weekdays[0].Average.Equal(decimal.NewFromInt(2000)))
	assert.Contains(t, d.Text(), "Total spent: 4,500")
}

func TestExportThenImportCSV(t *testing.T) {
	ctx := context.Background()
	src, db := newService(t, testutil.Day(2024, 1, 31))
	cafe := db.MustSubcategory("Food", "Cafe")

	db.MustAdd("Transport", testutil.Day(2024, 1, 3), 1250, model.PaymentCash)
	_, err := src.AddExpense(ctx, model.NewExpense{
		Date:          testutil.Day(2024, 1, 4),
		CategoryID:    cafe.CategoryID,
		SubcategoryID: &cafe.ID,
		Amount:        decimal.RequireFromString("4500.5"),
		Description:   "beans, ground",
		PaymentMethod: model.PaymentCreditCard,
		IsFixed:       true,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := src.ExportCSV(ctx, &buf, period.Request{Kind: period.ThisMonth})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	exported := buf.String()

	dst, _ := newService(t, testutil.Day(2024, 1, 31))
	result, err := dst.ImportCSV(ctx, bytes.NewBufferString(exported))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Inserted: 2}, result)

	result, err = dst.ImportCSV(ctx, bytes.NewBufferString(exported))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 2}, result, "re-importing the same file is a no-op")

	_, records, err := dst.ListForPeriod(ctx, period.Request{Kind: period.ThisMonth})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Cafe", records[0].SubcategoryName())
	assert.True(t, records[0].Amount.Equal(decimal.RequireFromString("4500.5")))
	assert.Equal(t, "beans, ground", records[0].Description)
}

func TestParseCSVRejectsUnknownNames(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, testutil.Day(2024, 1, 31))
	header := "ID,Date,Category,Subcategory,Amount,Description,Payment Method\n"

	_, err := svc.ParseCSV(ctx, bytes.NewBufferString(header+",2024-01-01,Yachts,,5,,cash\n"))
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "line 2")

	_, err = svc.ParseCSV(ctx, bytes.NewBufferString(header+",2024-01-01,Food,Taxi,5,,cash\n"))
	assert.ErrorIs(t, err, common.ErrValidation)

	batch, err := svc.ParseCSV(ctx, bytes.NewBufferString(header+",2024-01-01,food,groceries,5,,cash\n"))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.NotNil(t, batch[0].SubcategoryID)
}

func TestCategoryOperations(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, testutil.Day(2024, 1, 31))

	seeded, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.False(t, seeded, "defaults are already present")

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(model.DefaultCategories()))

	housing := db.MustCategory("Housing")
	changed, err := svc.SetBudget(ctx, housing.ID, decimal.NewFromInt(800000))
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = svc.SetBudget(ctx, housing.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, common.ErrValidation)

	db.MustAdd("Housing", testutil.Day(2024, 1, 1), 800000, model.PaymentBankTransfer)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, housing.ID), common.ErrIntegrity)

	other, err := svc.AddCategory(ctx, "Pets", "#AAAAAA")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCategory(ctx, other.ID))

	_, err = svc.Subcategories(ctx, other.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestExportCSVWriteFailureIsNotAStorageError(t *testing.T) {
	svc, db := newService(t, testutil.Day(2024, 1, 31))
	db.MustAdd("Food", testutil.Day(2024, 1, 3), 1250, model.PaymentCash)

	diskFull := errors.New("no space left on device")
	_, err := svc.ExportCSV(context.Background(), failingWriter{err: diskFull}, period.Request{Kind: period.ThisMonth})
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.NotErrorIs(t, err, common.ErrStorage)
}
