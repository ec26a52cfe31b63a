package export

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var digestTemplate = template.Must(
	template.New("digest.tmpl").Funcs(template.FuncMap{
		"amount": FormatAmount,
		"table":  renderTable,
	}).ParseFS(templateFS, "templates/digest.tmpl"),
)

// mondayFirst orders weekdays for the digest.
var mondayFirst = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// DigestCategory is one line of the digest's category table.
type DigestCategory struct {
	Amount decimal.Decimal
	Name   string
	Share  float64
}

// WeekdayAverage is the mean expense amount recorded on one weekday.
type WeekdayAverage struct {
	Average decimal.Decimal
	Day     time.Weekday
	Count   int
}

// Digest is the structured period summary handed to the narrative generator.
type Digest struct {
	Period      period.Range
	Total       decimal.Decimal
	PeriodLabel string
	Categories  []DigestCategory
	// Weekdays always holds seven entries, Monday first. Days without
	// records have a zero average.
	Weekdays []WeekdayAverage
	Count    int
}

// ToAnalysisDigest builds the digest for records already limited to p.
func ToAnalysisDigest(records []model.Expense, categoryBreakdown map[string]decimal.Decimal, p period.Range) Digest {
	d := Digest{
		Period:      p,
		PeriodLabel: p.Label(),
		Total:       decimal.Zero,
		Count:       len(records),
	}

	sums := make(map[time.Weekday]decimal.Decimal)
	counts := make(map[time.Weekday]int)
	for _, r := range records {
		d.Total = d.Total.Add(r.Amount)
		wd := r.Date.Weekday()
		sums[wd] = sums[wd].Add(r.Amount)
		counts[wd]++
	}

	breakdownTotal := decimal.Zero
	for _, amount := range categoryBreakdown {
		breakdownTotal = breakdownTotal.Add(amount)
	}
	for name, amount := range categoryBreakdown {
		share := 0.0
		if !breakdownTotal.IsZero() {
			share = amount.Div(breakdownTotal).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		d.Categories = append(d.Categories, DigestCategory{Name: name, Amount: amount, Share: share})
	}
	sort.Slice(d.Categories, func(i, j int) bool {
		if c := d.Categories[i].Amount.Cmp(d.Categories[j].Amount); c != 0 {
			return c > 0
		}
		return d.Categories[i].Name < d.Categories[j].Name
	})

	d.Weekdays = make([]WeekdayAverage, 0, len(mondayFirst))
	for _, wd := range mondayFirst {
		avg := decimal.Zero
		if counts[wd] > 0 {
			avg = sums[wd].Div(decimal.NewFromInt(int64(counts[wd])))
		}
		d.Weekdays = append(d.Weekdays, WeekdayAverage{Day: wd, Average: avg, Count: counts[wd]})
	}

	return d
}

type textTable struct {
	Header     []string
	Rows       [][]string
	RightAlign []bool
}

// Text renders the digest as plain text with aligned tables.
func (d Digest) Text() string {
	categories := textTable{
		Header:     []string{"Category", "Amount", "Share"},
		RightAlign: []bool{false, true, true},
	}
	for _, c := range d.Categories {
		categories.Rows = append(categories.Rows, []string{
			c.Name, FormatAmount(c.Amount), fmt.Sprintf("%.1f%%", c.Share),
		})
	}

	weekdays := textTable{
		Header:     []string{"Weekday", "Average", "Count"},
		RightAlign: []bool{false, true, true},
	}
	for _, w := range d.Weekdays {
		weekdays.Rows = append(weekdays.Rows, []string{
			w.Day.String(), FormatAmount(w.Average), fmt.Sprintf("%d", w.Count),
		})
	}

	data := struct {
		Digest
		CategoryTable textTable
		WeekdayTable  textTable
	}{Digest: d, CategoryTable: categories, WeekdayTable: weekdays}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("digest template: %v", err))
	}
	return buf.String()
}

// FormatAmount renders an amount with thousands separators and at most two
// decimal places.
func FormatAmount(d decimal.Decimal) string {
	s := d.Round(2).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func renderTable(t textTable) string {
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(t.RightAlign) && t.RightAlign[i] {
				parts[i] = runewidth.FillLeft(cell, widths[i])
			} else {
				parts[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteByte('\n')
	}

	writeRow(t.Header)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range t.Rows {
		writeRow(row)
	}
	return b.String()
}
