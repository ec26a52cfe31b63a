package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRecords() []model.Expense {
	sub := model.SubcategoryRef{ID: 3, Name: "Groceries"}
	subID := int64(3)
	return []model.Expense{
		{
			ID:            2,
			Date:          day(2024, 1, 10), // Wednesday
			CategoryID:    1,
			Category:      model.CategoryRef{ID: 1, Name: "Food"},
			SubcategoryID: &subID,
			Subcategory:   &sub,
			Amount:        decimal.NewFromInt(50000),
			Description:   "market, weekly",
			PaymentMethod: model.PaymentCash,
		},
		{
			ID:            1,
			Date:          day(2024, 1, 8), // Monday
			CategoryID:    2,
			Category:      model.CategoryRef{ID: 2, Name: "Transport"},
			Amount:        decimal.RequireFromString("1250.5"),
			PaymentMethod: model.PaymentCreditCard,
		},
		{
			ID:            3,
			Date:          day(2024, 1, 15), // Monday
			CategoryID:    1,
			Category:      model.CategoryRef{ID: 1, Name: "Food"},
			Amount:        decimal.NewFromInt(30000),
			PaymentMethod: model.PaymentDebitCard,
		},
	}
}

func TestToFlatTable(t *testing.T) {
	rows := ToFlatTable(sampleRecords())
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"2", "2024-01-10", "Food", "Groceries", "50000", "market, weekly", "Cash"}, rows[0].Strings())
	assert.Equal(t, []string{"1", "2024-01-08", "Transport", "", "1250.5", "", "Credit Card"}, rows[1].Strings())

	for _, r := range rows {
		assert.Len(t, r.Strings(), len(Columns))
	}
}

func TestCSVHeaderMatchesColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "ID,Date,Category,Subcategory,Amount,Description,Payment Method\n", buf.String())
}

func TestCSVWriteThenRead(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, len(records))

	for i, r := range rows {
		want := records[i]
		assert.Equal(t, want.ID, r.ID)
		assert.Equal(t, want.Date, r.Date)
		assert.Equal(t, want.Category.Name, r.Category)
		assert.Equal(t, want.SubcategoryName(), r.Subcategory)
		assert.True(t, want.Amount.Equal(r.Amount))
		assert.Equal(t, want.Description, r.Description)
		assert.Equal(t, want.PaymentMethod, r.PaymentMethod)
		assert.Equal(t, i+2, r.Line)
	}
}

func TestReadCSVErrors(t *testing.T) {
	header := strings.Join(Columns, ",") + "\n"

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "wrong header", input: "id,date,amount\n"},
		{name: "reordered header", input: "Date,ID,Category,Subcategory,Amount,Description,Payment Method\n"},
		{name: "negative amount", input: header + "1,2024-01-01,Food,,-5,,Cash\n"},
		{name: "bad date", input: header + "1,01/02/2024,Food,,5,,Cash\n"},
		{name: "unknown payment", input: header + "1,2024-01-01,Food,,5,,Barter\n"},
		{name: "missing category", input: header + "1,2024-01-01,,,5,,Cash\n"},
		{name: "short row", input: header + "1,2024-01-01,Food\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestReadCSVToleratesBOM(t *testing.T) {
	input := "\ufeff" + strings.Join(Columns, ",") + "\n,2024-01-01,Food,,5,,cash\n"
	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].ID)
}

func TestToAnalysisDigest(t *testing.T) {
	records := sampleRecords()
	r := period.Range{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	breakdown := map[string]decimal.Decimal{
		"Food":      decimal.NewFromInt(80000),
		"Transport": decimal.RequireFromString("1250.5"),
	}

	d := ToAnalysisDigest(records, breakdown, r)

	assert.Equal(t, "2024-01-01 ~ 2024-01-31", d.PeriodLabel)
	assert.Equal(t, 3, d.Count)
	assert.True(t, d.Total.Equal(decimal.RequireFromString("81250.5")))

	require.Len(t, d.Categories, 2)
	assert.Equal(t, "Food", d.Categories[0].Name)

	require.Len(t, d.Weekdays, 7)
	assert.Equal(t, time.Monday, d.Weekdays[0].Day)
	assert.Equal(t, time.Sunday, d.Weekdays[6].Day)
	assert.Equal(t, 2, d.Weekdays[0].Count)
	assert.Equal(t, "15625.25", d.Weekdays[0].Average.String())
	assert.True(t, d.Weekdays[2].Average.Equal(decimal.NewFromInt(50000)))
	for _, i := range []int{1, 3, 4, 5, 6} {
		assert.True(t, d.Weekdays[i].Average.IsZero(), "missing weekdays are zero")
		assert.Zero(t, d.Weekdays[i].Count)
	}
}

func TestDigestText(t *testing.T) {
	r := period.Range{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	records := sampleRecords()
	records[0].Category.Name = "식비"
	breakdown := map[string]decimal.Decimal{
		"식비":        decimal.NewFromInt(50000),
		"Transport": decimal.RequireFromString("1250.5"),
		"Food":      decimal.NewFromInt(30000),
	}

	text := ToAnalysisDigest(records, breakdown, r).Text()

	assert.Contains(t, text, "Period: 2024-01-01 ~ 2024-01-31")
	assert.Contains(t, text, "Total spent: 81,250.5")
	assert.Contains(t, text, "Transactions: 3")
	assert.Contains(t, text, "Monday")
	assert.Contains(t, text, "Sunday")

	lines := strings.Split(text, "\n")
	var korean, food string
	for _, line := range lines {
		if strings.HasPrefix(line, "식비") {
			korean = line
		}
		if strings.HasPrefix(line, "Food ") {
			food = line
		}
	}
	require.NotEmpty(t, korean)
	require.NotEmpty(t, food)
	assert.Equal(t, strings.Index(food, "30,000")+len("30,000"), displayEnd(korean, "50,000"),
		"amount columns line up when names contain wide characters")
}

// displayEnd returns the display column at which needle ends in line,
// counting wide runes as two columns.
func displayEnd(line, needle string) int {
	idx := strings.Index(line, needle)
	if idx < 0 {
		return -1
	}
	width := 0
	for _, r := range line[:idx] {
		if r >= 0x1100 {
			width += 2
		} else {
			width++
		}
	}
	return width + len(needle)
}

func TestDigestTextEmpty(t *testing.T) {
	r := period.Range{Start: day(2024, 1, 1), End: day(2024, 1, 1)}
	text := ToAnalysisDigest(nil, nil, r).Text()

	assert.Contains(t, text, "Total spent: 0")
	assert.Contains(t, text, "(no expenses recorded)")
	assert.Contains(t, text, "Wednesday")
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"0":          "0",
		"999":        "999",
		"1000":       "1,000",
		"350000":     "350,000",
		"11290.3226": "11,290.32",
		"-1234567.5": "-1,234,567.5",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
}
