// Package export renders expense records into flat tables, CSV files and
// the plain-text digest handed to the narrative generator.
package export

import (
	"strconv"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Columns is the fixed column order shared by the on-screen list, the CSV
// export and the spreadsheet export.
var Columns = []string{
	"ID",
	"Date",
	"Category",
	"Subcategory",
	"Amount",
	"Description",
	"Payment Method",
}

// Row is one expense flattened for tabular output.
type Row struct {
	Date          time.Time
	Amount        decimal.Decimal
	Category      string
	Subcategory   string
	Description   string
	PaymentMethod string
	ID            int64
}

// Strings returns the row's cells in Columns order.
func (r Row) Strings() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Date.Format(model.DateLayout),
		r.Category,
		r.Subcategory,
		r.Amount.String(),
		r.Description,
		r.PaymentMethod,
	}
}

// ToFlatTable flattens records in their given order.
func ToFlatTable(records []model.Expense) []Row {
	rows := make([]Row, 0, len(records))
	for _, e := range records {
		rows = append(rows, Row{
			ID:            e.ID,
			Date:          e.Date,
			Category:      e.Category.Name,
			Subcategory:   e.SubcategoryName(),
			Amount:        e.Amount,
			Description:   e.Description,
			PaymentMethod: e.PaymentMethod.Label(),
		})
	}
	return rows
}
