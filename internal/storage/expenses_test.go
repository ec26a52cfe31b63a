package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddExpenseThenList(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	ctx := context.Background()

	food := mustCategory(t, store, "Food")
	groceries := mustSubcategory(t, store, food.ID, "Groceries")
	_, err := store.SetBudget(ctx, food.ID, decimal.NewFromInt(500000))
	require.NoError(t, err)

	input := model.NewExpense{
		Date:          day(2024, 1, 5),
		CategoryID:    food.ID,
		SubcategoryID: &groceries.ID,
		Amount:        decimal.NewFromInt(100000),
		Description:   "  weekly shop ",
		PaymentMethod: model.PaymentDebitCard,
		IsFixed:       true,
	}

	id, err := store.AddExpense(ctx, input)
	require.NoError(t, err)
	assert.Positive(t, id)

	list, err := store.ListExpenses(ctx, model.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, day(2024, 1, 5), got.Date)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, "weekly shop", got.Description)
	assert.Equal(t, model.PaymentDebitCard, got.PaymentMethod)
	assert.True(t, got.IsFixed)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "Food", got.Category.Name)
	assert.Equal(t, food.Color, got.Category.Color)
	assert.True(t, got.Category.Budget.Equal(decimal.NewFromInt(500000)))
	require.NotNil(t, got.Subcategory)
	assert.Equal(t, "Groceries", got.Subcategory.Name)
	assert.Equal(t, groceries.ID, *got.SubcategoryID)
}

func TestAddExpenseValidation(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	ctx := context.Background()

	food := mustCategory(t, store, "Food")
	transport := mustCategory(t, store, "Transport")
	taxi := mustSubcategory(t, store, transport.ID, "Taxi")
	missingSub := int64(9999)

	tests := []struct {
		modify  func(*model.NewExpense)
		wantErr error
		name    string
	}{
		{
			name:    "zero amount",
			modify:  func(n *model.NewExpense) { n.Amount = decimal.Zero },
			wantErr: common.ErrValidation,
		},
		{
			name:    "negative amount",
			modify:  func(n *model.NewExpense) { n.Amount = decimal.NewFromInt(-100) },
			wantErr: common.ErrValidation,
		},
		{
			name:    "unknown category",
			modify:  func(n *model.NewExpense) { n.CategoryID = 9999 },
			wantErr: common.ErrIntegrity,
		},
		{
			name:    "unknown subcategory",
			modify:  func(n *model.NewExpense) { n.SubcategoryID = &missingSub },
			wantErr: common.ErrIntegrity,
		},
		{
			name:    "subcategory from another category",
			modify:  func(n *model.NewExpense) { n.SubcategoryID = &taxi.ID },
			wantErr: common.ErrIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := newExpense(food.ID, day(2024, 1, 5), 1000)
			tt.modify(&input)

			_, err := store.AddExpense(ctx, input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, common.ErrValidation, "reference violations are also bad input")
		})
	}

	list, err := store.ListExpenses(ctx, model.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "rejected input must not be written")
}

func TestDeleteExpenseRemovesOnlyTarget(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	ctx := context.Background()
	food := mustCategory(t, store, "Food")

	keep, err := store.AddExpense(ctx, newExpense(food.ID, day(2024, 1, 5), 1000))
	require.NoError(t, err)
	drop, err := store.AddExpense(ctx, newExpense(food.ID, day(2024, 1, 6), 2000))
	require.NoError(t, err)

	require.NoError(t, store.DeleteExpense(ctx, drop))

	list, err := store.ListExpenses(ctx, model.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep, list[0].ID)

	assert.ErrorIs(t, store.DeleteExpense(ctx, drop), common.ErrNotFound)
	_, err = store.GetExpense(ctx, drop)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListExpensesFilterAndOrder(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	ctx := context.Background()

	food := mustCategory(t, store, "Food")
	transport := mustCategory(t, store, "Transport")

	inputs := []model.NewExpense{
		newExpense(food.ID, day(2024, 1, 5), 100000),
		newExpense(food.ID, day(2024, 1, 20), 200000),
		newExpense(transport.ID, day(2024, 1, 20), 3000),
		newExpense(food.ID, day(2024, 2, 1), 50000),
	}
	for _, in := range inputs {
		_, err := store.AddExpense(ctx, in)
		require.NoError(t, err)
	}

	all, err := store.ListExpenses(ctx, model.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		assert.False(t, prev.Date.Before(cur.Date), "dates must be descending")
		if prev.Date.Equal(cur.Date) {
			assert.Greater(t, prev.ID, cur.ID, "ties broken by id descending")
		}
	}

	jan := model.Between(day(2024, 1, 1), day(2024, 1, 31))
	janList, err := store.ListExpenses(ctx, jan)
	require.NoError(t, err)
	assert.Len(t, janList, 3)

	jan.CategoryIDs = []int64{food.ID}
	floor := decimal.NewFromInt(150000)
	jan.MinAmount = &floor
	filtered, err := store.ListExpenses(ctx, jan)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.True(t, filtered[0].Amount.Equal(decimal.NewFromInt(200000)))

	for _, e := range all {
		assert.Equal(t, jan.Matches(e), e.ID == filtered[0].ID, "SQL and in-memory filters must agree")
	}
}

func TestExpenseDateBounds(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, _, ok, err := store.ExpenseDateBounds(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	food := mustCategory(t, store, "Food")
	for _, d := range []int{12, 3, 27} {
		_, err := store.AddExpense(ctx, newExpense(food.ID, day(2023, 11, d), 100))
		require.NoError(t, err)
	}

	earliest, latest, ok, err := store.ExpenseDateBounds(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, day(2023, 11, 3), earliest)
	assert.Equal(t, day(2023, 11, 27), latest)
}

func TestImportExpensesSkipsKnownSourceRefs(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	ctx := context.Background()
	food := mustCategory(t, store, "Food")

	withRef := func(ref string, amount int64) model.NewExpense {
		e := newExpense(food.ID, day(2024, 3, 1), amount)
		e.SourceRef = ref
		return e
	}

	batch := []model.NewExpense{withRef("ofx:1", 100), withRef("ofx:2", 200), withRef("ofx:2", 200), newExpense(food.ID, day(2024, 3, 2), 300)}
	inserted, skipped, err := store.ImportExpenses(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
	assert.Equal(t, 1, skipped)

	inserted, skipped, err = store.ImportExpenses(ctx, []model.NewExpense{withRef("ofx:1", 100), withRef("ofx:3", 400)})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, skipped)

	list, err := store.ListExpenses(ctx, model.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestImportExpensesIsAtomic(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	ctx := context.Background()
	food := mustCategory(t, store, "Food")

	batch := []model.NewExpense{
		newExpense(food.ID, day(2024, 3, 1), 100),
		newExpense(9999, day(2024, 3, 1), 100),
	}
	_, _, err := store.ImportExpenses(ctx, batch)
	assert.ErrorIs(t, err, common.ErrIntegrity)

	list, err := store.ListExpenses(ctx, model.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "a failed batch must roll back entirely")
}

func TestAmountsRoundTripExactly(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	ctx := context.Background()
	food := mustCategory(t, store, "Food")

	for _, s := range []string{"12345678901234567.89", "0.1", "1234.5678", "99999999999999999999"} {
		t.Run(s, func(t *testing.T) {
			want := decimal.RequireFromString(s)
			in := newExpense(food.ID, day(2024, 1, 5), 1)
			in.Amount = want

			id, err := store.AddExpense(ctx, in)
			require.NoError(t, err)

			got, err := store.GetExpense(ctx, id)
			require.NoError(t, err)
			assert.True(t, want.Equal(got.Amount), "stored %s, read back %s", want, got.Amount)
		})
	}

	budget := decimal.RequireFromString("1234567890123456.78")
	_, err := store.SetBudget(ctx, food.ID, budget)
	require.NoError(t, err)
	cat, err := store.GetCategory(ctx, food.ID)
	require.NoError(t, err)
	assert.True(t, budget.Equal(cat.Budget), "budget read back as %s", cat.Budget)
}

func TestAddExpenseRejectsUnrepresentableAmountAsValidation(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()
	food := mustCategory(t, store, "Food")

	in := newExpense(food.ID, day(2024, 1, 5), 1)
	in.Amount = decimal.New(1, -400)

	_, err := store.AddExpense(context.Background(), in)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NotErrorIs(t, err, common.ErrStorage)
}

func TestDeleteExpenseNonPositiveIDIsNotFound(t *testing.T) {
	store, cleanup := createSeededStorage(t)
	defer cleanup()

	for _, id := range []int64{0, -1} {
		assert.ErrorIs(t, store.DeleteExpense(context.Background(), id), common.ErrNotFound, "id %d", id)
	}
}
