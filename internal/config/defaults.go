package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults registers the default value of every key the ledger reads.
func Defaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("report.default_period", "this-month")
	v.SetDefault("currency.symbol", "₩")
	v.SetDefault("currency.decimals", 0)
	v.SetDefault("dashboard.theme", "default")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.language", "Korean")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", 2*time.Second)
	v.SetDefault("llm.cache_ttl", 15*time.Minute)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("sheets.spreadsheet_name", "Expense Ledger")
	v.SetDefault("sheets.time_zone", "Asia/Seoul")
	v.SetDefault("sheets.batch_size", 1000)
	v.SetDefault("sheets.retry_attempts", 3)
	v.SetDefault("sheets.retry_delay", time.Second)
	v.SetDefault("sheets.token_file", filepath.Join(ConfigDir(), "sheets-token.json"))
	v.SetDefault("sheets.formatting", true)

	v.SetDefault("plaid.environment", "sandbox")
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped. With no arguments it reads ./.env.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
