package model

import "time"

// Analysis is a stored narrative generated for one reporting period.
type Analysis struct {
	CreatedAt   time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time
	ID          string
	PeriodLabel string
	Digest      string
	Narrative   string
	Provider    string
}
