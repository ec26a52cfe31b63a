package config

import (
	"os"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/llm"
	"github.com/spf13/viper"
)

// apiKeyEnv lists the conventional environment variables per provider.
var apiKeyEnv = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// LoadLLMConfig assembles the narrative client settings for the configured
// provider.
func LoadLLMConfig(v *viper.Viper) (llm.Config, error) {
	provider := strings.ToLower(v.GetString("llm.provider"))
	envNames, ok := apiKeyEnv[provider]
	if !ok {
		return llm.Config{}, common.Validationf("unsupported LLM provider %q (supported: %s)", provider, strings.Join(llm.Providers(), ", "))
	}

	key := v.GetString("llm." + provider + "_api_key")
	for _, name := range envNames {
		key = firstNonEmpty(key, os.Getenv(name))
	}
	if key == "" {
		return llm.Config{}, common.Validationf("no API key for %s: set llm.%s_api_key or %s", provider, provider, envNames[0])
	}

	return llm.Config{
		Provider:    provider,
		APIKey:      key,
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		MaxRetries:  v.GetInt("llm.max_retries"),
		RetryDelay:  v.GetDuration("llm.retry_delay"),
		CacheTTL:    v.GetDuration("llm.cache_ttl"),
		RateLimit:   v.GetInt("llm.rate_limit"),
		Timeout:     v.GetDuration("llm.timeout"),
	}, nil
}

// RetryOptions turns the llm retry keys into backoff options.
func RetryOptions(cfg llm.Config) common.RetryOptions {
	opts := common.DefaultRetryOptions()
	if cfg.MaxRetries > 0 {
		opts.MaxAttempts = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		opts.InitialDelay = cfg.RetryDelay
	}
	return opts
}
