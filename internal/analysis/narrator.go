package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/google/uuid"
)

// Narrator asks the language model to comment on a digest and records the
// result. It reads nothing from and writes nothing to the expense ledger.
type Narrator struct {
	deps  Deps
	now   func() time.Time
	retry common.RetryOptions
}

// NewNarrator creates a narrator. Zero retry options use common.DefaultRetryOptions.
func NewNarrator(deps Deps, retry common.RetryOptions) (*Narrator, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if retry.MaxAttempts == 0 {
		retry = common.DefaultRetryOptions()
	}
	return &Narrator{deps: deps, now: time.Now, retry: retry}, nil
}

// Narrate generates commentary for d. Collaborator failures are returned as
// ErrCollaborator. When the narrative was generated but could not be stored,
// the analysis is returned together with the storage error.
func (n *Narrator) Narrate(ctx context.Context, d export.Digest) (*model.Analysis, error) {
	prompt, err := n.deps.PromptBuilder.Build(d)
	if err != nil {
		return nil, err
	}

	provider := n.deps.LLMClient.Provider()
	var text string
	attempts := 0
	err = common.WithRetry(ctx, func() error {
		attempts++
		var callErr error
		text, callErr = n.deps.LLMClient.Complete(ctx, prompt)
		if callErr != nil {
			return callErr
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%s returned an empty narrative", provider)
		}
		return nil
	}, n.retry)
	if err != nil {
		slog.Warn("Narrative generation failed",
			"provider", provider,
			"attempts", attempts,
			"period", d.PeriodLabel,
			"error", err)
		return nil, common.CollaboratorErr("generate narrative", err)
	}

	analysis := &model.Analysis{
		ID:          uuid.NewString(),
		PeriodStart: d.Period.Start,
		PeriodEnd:   d.Period.End,
		PeriodLabel: d.PeriodLabel,
		Digest:      d.Text(),
		Narrative:   text,
		Provider:    provider,
		CreatedAt:   n.now().UTC(),
	}

	if err := n.deps.Store.SaveAnalysis(ctx, analysis); err != nil {
		return analysis, fmt.Errorf("narrative generated but not saved: %w", err)
	}
	return analysis, nil
}

// History returns the most recent stored analyses, newest first.
func (n *Narrator) History(ctx context.Context, limit int) ([]model.Analysis, error) {
	return n.deps.Store.ListAnalyses(ctx, limit)
}
