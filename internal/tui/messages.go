package tui

import (
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/report"
)

// summaryLoadedMsg carries the result of one load. kind and seq identify
// the request so a slow answer for a period the user already left is
// dropped.
type summaryLoadedMsg struct {
	err     error
	kind    period.Kind
	summary report.Summary
	seq     int
}
