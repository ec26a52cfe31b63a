// Package period resolves named reporting periods into concrete date ranges.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Kind names a reporting period.
type Kind string

// Recognized period kinds.
const (
	ThisMonth   Kind = "this-month"
	LastMonth   Kind = "last-month"
	Last3Months Kind = "last-3-months"
	Last6Months Kind = "last-6-months"
	ThisYear    Kind = "this-year"
	AllTime     Kind = "all-time"
	Custom      Kind = "custom"
)

const (
	lookback3Months = 90
	lookback6Months = 180
)

// Kinds lists every recognized period kind.
func Kinds() []Kind {
	return []Kind{ThisMonth, LastMonth, Last3Months, Last6Months, ThisYear, AllTime, Custom}
}

// ParseKind accepts a kind name, tolerating case and underscores.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", common.Validationf("unknown period %q (valid: %s)", s, kindList())
}

func kindList() string {
	names := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

// Range is a closed calendar-date interval [Start, End].
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange builds a range, rejecting an end before the start.
func NewRange(start, end time.Time) (Range, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if start.After(end) {
		return Range{}, common.Validationf("start date %s is after end date %s",
			start.Format(model.DateLayout), end.Format(model.DateLayout))
	}
	return Range{Start: start, End: end}, nil
}

const secondsPerDay = 24 * 60 * 60

// Days returns the number of calendar days in the range, inclusive, minimum 1.
func (r Range) Days() int {
	days := int((model.DateOf(r.End).Unix()-model.DateOf(r.Start).Unix())/secondsPerDay) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Contains reports whether t falls on a day inside the range.
func (r Range) Contains(t time.Time) bool {
	d := model.DateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Label renders the range as "YYYY-MM-DD ~ YYYY-MM-DD".
func (r Range) Label() string {
	return fmt.Sprintf("%s ~ %s", r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout))
}

// Filter returns an expense filter restricted to the range.
func (r Range) Filter() model.ExpenseFilter {
	return model.Between(r.Start, r.End)
}

// Request describes a period to resolve.
type Request struct {
	Today       time.Time
	CustomStart *time.Time
	CustomEnd   *time.Time
	// DataBounds holds the earliest and latest recorded expense dates and
	// is only consulted for AllTime. Nil means the ledger is empty.
	DataBounds *Range
	Kind       Kind
}

// Resolve maps a request to a concrete range. An inverted custom range is
// reported as ErrValidation; no fallback window is substituted.
func Resolve(req Request) (Range, error) {
	if req.Today.IsZero() {
		return Range{}, common.Validationf("today is required")
	}
	today := model.DateOf(req.Today)

	switch req.Kind {
	case ThisMonth:
		return Range{Start: firstOfMonth(today), End: today}, nil
	case LastMonth:
		end := firstOfMonth(today).AddDate(0, 0, -1)
		return Range{Start: firstOfMonth(end), End: end}, nil
	case Last3Months:
		return Range{Start: today.AddDate(0, 0, -lookback3Months), End: today}, nil
	case Last6Months:
		return Range{Start: today.AddDate(0, 0, -lookback6Months), End: today}, nil
	case ThisYear:
		return Range{Start: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), End: today}, nil
	case AllTime:
		if req.DataBounds == nil {
			return Range{Start: today, End: today}, nil
		}
		return NewRange(req.DataBounds.Start, req.DataBounds.End)
	case Custom:
		if req.CustomStart == nil || req.CustomEnd == nil {
			return Range{}, common.Validationf("custom period requires both a start and an end date")
		}
		return NewRange(*req.CustomStart, *req.CustomEnd)
	default:
		return Range{}, common.Validationf("unknown period %q", string(req.Kind))
	}
}

// PreviousPeriodOf returns the interval of identical length that ends the
// day before r starts.
func PreviousPeriodOf(r Range) Range {
	days := r.Days()
	prevEnd := model.DateOf(r.Start).AddDate(0, 0, -1)
	return Range{Start: prevEnd.AddDate(0, 0, -(days - 1)), End: prevEnd}
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
