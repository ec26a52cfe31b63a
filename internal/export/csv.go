package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// WriteCSV writes a header row and one row per record as UTF-8 CSV.
func WriteCSV(w io.Writer, records []model.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range ToFlatTable(records) {
		if err := cw.Write(row.Strings()); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", row.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// CSVRow is a parsed line of a ledger CSV export. Category and subcategory
// are names and still need resolving against the category store.
type CSVRow struct {
	Date          time.Time
	Amount        decimal.Decimal
	Category      string
	Subcategory   string
	Description   string
	PaymentMethod model.PaymentMethod
	ID            int64
	Line          int
}

// ReadCSV parses a file produced by WriteCSV. The header must match Columns.
// A leading UTF-8 byte order mark is tolerated.
func ReadCSV(r io.Reader) ([]CSVRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, common.Validationf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %w", common.ErrValidation, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, col := range Columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, common.Validationf("CSV column %d is %q, expected %q", i+1, header[i], col)
		}
	}

	var rows []CSVRow
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", common.ErrValidation, line, err)
		}

		row, err := parseCSVRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCSVRecord(record []string) (CSVRow, error) {
	var row CSVRow

	if id := strings.TrimSpace(record[0]); id != "" {
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return CSVRow{}, common.Validationf("invalid id %q", id)
		}
		row.ID = parsed
	}

	date, err := model.ParseDate(record[1])
	if err != nil {
		return CSVRow{}, err
	}
	row.Date = date

	row.Category = strings.TrimSpace(record[2])
	if row.Category == "" {
		return CSVRow{}, common.Validationf("category is required")
	}
	row.Subcategory = strings.TrimSpace(record[3])

	amount, err := model.ParseAmount(record[4])
	if err != nil {
		return CSVRow{}, err
	}
	row.Amount = amount
	row.Description = strings.TrimSpace(record[5])

	method, err := model.ParsePaymentMethod(record[6])
	if err != nil {
		return CSVRow{}, err
	}
	row.PaymentMethod = method

	return row, nil
}
