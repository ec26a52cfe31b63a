package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Prompt is a single-turn request to a language model.
type Prompt struct {
	System string
	User   string
}

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Provider() string
}

// Config holds configuration for an LLM client.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint. Empty uses the public API.
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 1024
	defaultTimeout     = 60 * time.Second
)

func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return defaultTemperature
	}
	return c.Temperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens == 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

func (c Config) timeout() time.Duration {
	if c.Timeout == 0 {
		return defaultTimeout
	}
	return c.Timeout
}

// Providers lists the supported provider names.
func Providers() []string {
	return []string{"openai", "anthropic", "gemini"}
}

// NewClient creates a client for cfg.Provider wrapped with rate limiting
// and a response cache.
func NewClient(ctx context.Context, cfg Config) (*CachedClient, error) {
	var (
		inner Client
		err   error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		inner, err = newOpenAIClient(cfg)
	case "anthropic":
		inner, err = newAnthropicClient(cfg)
	case "gemini":
		inner, err = newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q (supported: %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return Wrap(inner, cfg), nil
}
