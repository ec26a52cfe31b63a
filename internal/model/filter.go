package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseFilter restricts a listing. Nil or empty fields do not restrict.
// Start and End are inclusive calendar dates.
type ExpenseFilter struct {
	Start       *time.Time
	End         *time.Time
	MinAmount   *decimal.Decimal
	CategoryIDs []int64
}

// Between returns a filter limited to the inclusive range [start, end].
func Between(start, end time.Time) ExpenseFilter {
	s, e := DateOf(start), DateOf(end)
	return ExpenseFilter{Start: &s, End: &e}
}

// Matches reports whether e passes every predicate of the filter.
func (f ExpenseFilter) Matches(e Expense) bool {
	date := DateOf(e.Date)
	if f.Start != nil && date.Before(DateOf(*f.Start)) {
		return false
	}
	if f.End != nil && date.After(DateOf(*f.End)) {
		return false
	}
	if len(f.CategoryIDs) > 0 && !slices.Contains(f.CategoryIDs, e.CategoryID) {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	return true
}
