package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// amountColumn is the index of "Amount" in export.Columns.
const amountColumn = 4

// Writer pushes reports to a Google Sheets spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// Result describes a completed export.
type Result struct {
	SpreadsheetID string
	URL           string
	Rows          int
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, cfg Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, common.CollaboratorErr("sheets auth", err)
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, common.CollaboratorErr("create sheets service", err)
	}

	return &Writer{
		config:  cfg,
		service: srv,
		logger:  slog.Default().With("component", "sheets"),
	}, nil
}

// target is the sheet a report is written to.
type target struct {
	spreadsheetID string
	url           string
	title         string
	sheetID       int64
}

// Write replaces the contents of the first sheet with a summary block
// followed by the flat expense table.
func (w *Writer) Write(ctx context.Context, records []model.Expense, summary report.Summary) (Result, error) {
	w.logger.Info("Starting spreadsheet export",
		"records", len(records),
		"period", summary.Period.Label())

	retryOpts := w.config.retryOptions()

	var dst target
	err := common.WithRetry(ctx, func() error {
		var err error
		dst, err = w.getOrCreateSpreadsheet(ctx)
		return err
	}, retryOpts)
	if err != nil {
		return Result{}, common.CollaboratorErr("open spreadsheet", err)
	}

	layout := buildLayout(records, summary)

	err = common.WithRetry(ctx, func() error {
		if err := w.clearSheet(ctx, dst); err != nil {
			return err
		}
		return w.writeData(ctx, dst, layout.values)
	}, retryOpts)
	if err != nil {
		return Result{}, common.CollaboratorErr("write spreadsheet", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, dst, layout)
		}, retryOpts)
		if err != nil {
			w.logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("Spreadsheet export completed",
		"spreadsheet_id", dst.spreadsheetID,
		"rows_written", len(layout.values))

	return Result{SpreadsheetID: dst.spreadsheetID, URL: dst.url, Rows: len(layout.values)}, nil
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (target, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return target{}, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return firstSheet(existing)
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: "Expenses"}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return target{}, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("Created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return firstSheet(created)
}

func firstSheet(s *sheets.Spreadsheet) (target, error) {
	if len(s.Sheets) == 0 || s.Sheets[0].Properties == nil {
		return target{}, fmt.Errorf("spreadsheet %s has no sheets", s.SpreadsheetId)
	}
	props := s.Sheets[0].Properties
	return target{
		spreadsheetID: s.SpreadsheetId,
		url:           s.SpreadsheetUrl,
		title:         props.Title,
		sheetID:       props.SheetId,
	}, nil
}

func (w *Writer) clearSheet(ctx context.Context, dst target) error {
	_, err := w.service.Spreadsheets.Values.Clear(dst.spreadsheetID, quoteSheet(dst.title), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (w *Writer) writeData(ctx context.Context, dst target, values [][]any) error {
	for _, b := range batches(values, w.config.BatchSize) {
		rangeStr := fmt.Sprintf("%s!A%d", quoteSheet(dst.title), b.start+1)
		_, err := w.service.Spreadsheets.Values.Update(dst.spreadsheetID, rangeStr, &sheets.ValueRange{Values: b.rows}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", b.start+1, err)
		}
		w.logger.Debug("Wrote batch", "start_row", b.start+1, "rows", len(b.rows))
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, dst target, l layout) error {
	_, err := w.service.Spreadsheets.BatchUpdate(dst.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: formattingRequests(dst.sheetID, l, w.config.CurrencyPattern),
	}).Context(ctx).Do()
	return err
}

func quoteSheet(title string) string {
	return "'" + title + "'"
}

type batch struct {
	rows  [][]any
	start int
}

// batches splits values into consecutive chunks of at most size rows.
func batches(values [][]any, size int) []batch {
	if size <= 0 {
		size = len(values)
	}
	var out []batch
	for i := 0; i < len(values); i += size {
		out = append(out, batch{start: i, rows: values[i:min(i+size, len(values))]})
	}
	return out
}

func boldRow(sheetID int64, row, fontSize int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    row,
				EndRowIndex:      row + 1,
				StartColumnIndex: 0,
				EndColumnIndex:   int64(len(export.Columns)),
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true, FontSize: fontSize},
				},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

func currencyRange(sheetID int64, r cellRange, pattern string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    r.startRow,
				EndRowIndex:      r.endRow,
				StartColumnIndex: r.column,
				EndColumnIndex:   r.column + 1,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{Type: "CURRENCY", Pattern: pattern},
				},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}

func formattingRequests(sheetID int64, l layout, pattern string) []*sheets.Request {
	requests := []*sheets.Request{boldRow(sheetID, 0, 14)}
	for _, row := range l.headerRows {
		requests = append(requests, boldRow(sheetID, row, 0))
	}
	for _, r := range l.amountRanges {
		if r.endRow > r.startRow {
			requests = append(requests, currencyRange(sheetID, r, pattern))
		}
	}
	return append(requests, &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   int64(len(export.Columns)),
			},
		},
	})
}
