// Package analysis turns a period digest into narrative commentary through a
// language model and keeps a history of what was generated.
package analysis

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/llm"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// LLMClient is the narrative-generation collaborator.
type LLMClient interface {
	Complete(ctx context.Context, prompt llm.Prompt) (string, error)
	Provider() string
}

// Deps contains all dependencies required by the narrator.
type Deps struct {
	// LLMClient writes the commentary.
	LLMClient LLMClient
	// Store keeps generated analyses.
	Store service.AnalysisStore
	// PromptBuilder renders the digest into a prompt.
	PromptBuilder *PromptBuilder
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.LLMClient == nil {
		return fmt.Errorf("LLM client dependency is required")
	}
	if d.Store == nil {
		return fmt.Errorf("analysis store dependency is required")
	}
	if d.PromptBuilder == nil {
		return fmt.Errorf("prompt builder dependency is required")
	}
	return nil
}
