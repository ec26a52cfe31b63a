package cli

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formChoices() []CategoryChoice {
	return []CategoryChoice{
		{
			Category: model.Category{ID: 1, Name: "Food"},
			Subcategories: []model.Subcategory{
				{ID: 10, CategoryID: 1, Name: "Groceries"},
				{ID: 11, CategoryID: 1, Name: "Cafe"},
			},
		},
		{
			Category:      model.Category{ID: 2, Name: "Transport"},
			Subcategories: []model.Subcategory{{ID: 20, CategoryID: 2, Name: "Taxi"}},
		},
	}
}

func TestNewExpenseFormDefaults(t *testing.T) {
	f := NewExpenseForm(formChoices(), "2024-03-01")
	assert.Equal(t, "2024-03-01", f.date)
	assert.Equal(t, int64(1), f.categoryID)
	assert.Equal(t, model.PaymentCreditCard, f.method)
}

func TestExpenseFormSubcategoryOptionsFollowCategory(t *testing.T) {
	f := NewExpenseForm(formChoices(), "2024-03-01")

	opts := f.subcategoryOptions()
	require.Len(t, opts, 3)
	assert.Equal(t, int64(0), opts[0].Value)
	assert.Equal(t, int64(10), opts[1].Value)

	f.categoryID = 2
	opts = f.subcategoryOptions()
	require.Len(t, opts, 2)
	assert.Equal(t, "Taxi", opts[1].Key)
}

func TestExpenseFormResult(t *testing.T) {
	f := NewExpenseForm(formChoices(), "2024-03-01")
	f.amount = "4,500"
	f.description = "latte"
	f.subcategoryID = 11
	f.method = model.PaymentCash
	f.fixed = true

	exp, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 1), exp.Date)
	assert.True(t, exp.Amount.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, int64(1), exp.CategoryID)
	require.NotNil(t, exp.SubcategoryID)
	assert.Equal(t, int64(11), *exp.SubcategoryID)
	assert.Equal(t, model.PaymentCash, exp.PaymentMethod)
	assert.True(t, exp.IsFixed)
}

func TestExpenseFormResultRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		amount string
	}{
		{name: "bad date", date: "03/01/2024", amount: "100"},
		{name: "zero amount", date: "2024-03-01", amount: "0"},
		{name: "not a number", date: "2024-03-01", amount: "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewExpenseForm(formChoices(), tt.date)
			f.amount = tt.amount
			_, err := f.Result()
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestExpenseFormRequiresCategories(t *testing.T) {
	_, err := NewExpenseForm(nil, "2024-03-01").Run(context.Background())
	assert.ErrorIs(t, err, common.ErrValidation)
}
