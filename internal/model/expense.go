package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and export representation of a calendar date.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds the free-text description of an expense, in characters.
const MaxDescriptionLength = 200

// MaxAmountScale is the number of decimal places an amount may carry.
const MaxAmountScale = 4

// CategoryRef is the category summary materialized onto a listed expense.
type CategoryRef struct {
	Budget decimal.Decimal
	Name   string
	Color  string
	ID     int64
}

// SubcategoryRef is the subcategory summary materialized onto a listed expense.
type SubcategoryRef struct {
	Name string
	ID   int64
}

// Expense is a single immutable spending record joined with its category.
type Expense struct {
	Date          time.Time
	CreatedAt     time.Time
	Subcategory   *SubcategoryRef
	SubcategoryID *int64
	Amount        decimal.Decimal
	Category      CategoryRef
	Description   string
	PaymentMethod PaymentMethod
	SourceRef     string
	ID            int64
	CategoryID    int64
	IsFixed       bool
}

// SubcategoryName returns the subcategory name or an empty string.
func (e Expense) SubcategoryName() string {
	if e.Subcategory == nil {
		return ""
	}
	return e.Subcategory.Name
}

// NewExpense holds the caller-supplied fields of an expense about to be recorded.
type NewExpense struct {
	Date          time.Time
	SubcategoryID *int64
	Amount        decimal.Decimal
	Description   string
	PaymentMethod PaymentMethod
	// SourceRef identifies the statement line an imported expense came from.
	// Empty for manually entered expenses.
	SourceRef  string
	CategoryID int64
	IsFixed    bool
}

// Validate checks the fields that do not require a store lookup.
// The category/subcategory cross-reference is checked by the store.
func (n *NewExpense) Validate() error {
	if n.Date.IsZero() {
		return common.Validationf("expense date is required")
	}
	if !n.Amount.IsPositive() {
		return common.Validationf("amount must be positive, got %s", n.Amount.String())
	}
	if err := checkAmountScale(n.Amount); err != nil {
		return err
	}
	if n.CategoryID <= 0 {
		return common.Validationf("category is required")
	}
	if n.SubcategoryID != nil && *n.SubcategoryID <= 0 {
		return common.Validationf("invalid subcategory id %d", *n.SubcategoryID)
	}
	if !n.PaymentMethod.Valid() {
		return common.Validationf("unknown payment method %q", string(n.PaymentMethod))
	}
	if utf8.RuneCountInString(n.Description) > MaxDescriptionLength {
		return common.Validationf("description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}

// Normalize trims the description and truncates the date to a calendar day.
func (n *NewExpense) Normalize() {
	n.Description = strings.TrimSpace(n.Description)
	n.Date = DateOf(n.Date)
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", common.ErrValidation, s)
	}
	return t, nil
}

// ParseAmount parses a user-supplied amount. Thousands separators are accepted.
// Non-positive values are rejected rather than clamped.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", common.ErrValidation, s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, common.Validationf("amount must be positive, got %s", amount.String())
	}
	if err := checkAmountScale(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func checkAmountScale(amount decimal.Decimal) error {
	if !amount.Truncate(MaxAmountScale).Equal(amount) {
		return common.Validationf("amount %s has more than %d decimal places", amount.String(), MaxAmountScale)
	}
	return nil
}
