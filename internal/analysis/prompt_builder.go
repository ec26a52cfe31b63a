package analysis

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/llm"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultLanguage is the language commentary is requested in when none is configured.
const DefaultLanguage = "Korean"

// PromptBuilder renders digests into prompts using embedded templates.
type PromptBuilder struct {
	system    *template.Template
	narrative *template.Template
	language  string
}

// NewPromptBuilder loads the prompt templates. An empty language uses DefaultLanguage.
func NewPromptBuilder(language string) (*PromptBuilder, error) {
	if language == "" {
		language = DefaultLanguage
	}

	pb := &PromptBuilder{language: language}
	for name, dst := range map[string]**template.Template{
		"system":    &pb.system,
		"narrative": &pb.narrative,
	} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		tmpl, err := template.New(name+".tmpl").ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		*dst = tmpl
	}
	return pb, nil
}

// promptData is what the templates see.
type promptData struct {
	Language    string
	PeriodLabel string
	Digest      string
	Largest     string
	Count       int
}

// Build renders the prompt for d.
func (pb *PromptBuilder) Build(d export.Digest) (llm.Prompt, error) {
	data := promptData{
		Language:    pb.language,
		PeriodLabel: d.PeriodLabel,
		Digest:      d.Text(),
		Count:       d.Count,
	}
	if len(d.Categories) > 0 {
		data.Largest = d.Categories[0].Name
	}

	var system, user bytes.Buffer
	if err := pb.system.Execute(&system, data); err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := pb.narrative.Execute(&user, data); err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render narrative prompt: %w", err)
	}
	return llm.Prompt{System: strings.TrimSpace(system.String()), User: user.String()}, nil
}
