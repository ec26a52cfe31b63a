package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// SaveAnalysis stores a generated narrative.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(a.ID, "id"); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO analyses (id, period_label, period_start, period_end, digest, narrative, provider, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.PeriodLabel,
			a.PeriodStart.Format(model.DateLayout), a.PeriodEnd.Format(model.DateLayout),
			a.Digest, a.Narrative, a.Provider, a.CreatedAt)
		if err != nil {
			return common.StorageErr("insert analysis", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("saved analysis", "id", a.ID, "period", a.PeriodLabel)
	return nil
}

const analysisColumns = `id, period_label, period_start, period_end, digest, narrative, provider, created_at`

func scanAnalysis(row interface{ Scan(...any) error }) (model.Analysis, error) {
	var (
		a          model.Analysis
		start, end string
	)
	if err := row.Scan(&a.ID, &a.PeriodLabel, &start, &end, &a.Digest, &a.Narrative, &a.Provider, &a.CreatedAt); err != nil {
		return model.Analysis{}, err
	}

	var err error
	if a.PeriodStart, err = time.Parse(model.DateLayout, start); err != nil {
		return model.Analysis{}, err
	}
	if a.PeriodEnd, err = time.Parse(model.DateLayout, end); err != nil {
		return model.Analysis{}, err
	}
	return a, nil
}

// GetAnalysis returns a stored narrative by id.
func (s *SQLiteStorage) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	a, err := scanAnalysis(s.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("analysis %s", id)
	}
	if err != nil {
		return nil, common.StorageErr("query analysis", err)
	}
	return &a, nil
}

// ListAnalyses returns the most recent narratives first. A non-positive
// limit returns all of them.
func (s *SQLiteStorage) ListAnalyses(ctx context.Context, limit int) ([]model.Analysis, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, common.StorageErr("query analyses", err)
	}
	defer func() { _ = rows.Close() }()

	analyses := []model.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, common.StorageErr("scan analysis", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageErr("iterate analyses", err)
	}
	return analyses, nil
}
