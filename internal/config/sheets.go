package config

import (
	"os"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads Google Sheets configuration. Credentials from viper
// (config file or LEDGER_SHEETS_* variables) win over the GOOGLE_SHEETS_*
// variables.
func LoadSheetsConfig(v *viper.Viper) sheets.Config {
	cfg := sheets.DefaultConfig()

	cfg.ServiceAccountPath = ExpandPath(firstNonEmpty(v.GetString("sheets.service_account_path"), os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")))
	cfg.ClientID = firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	cfg.ClientSecret = firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	cfg.RefreshToken = firstNonEmpty(v.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	cfg.SpreadsheetID = firstNonEmpty(v.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	cfg.SpreadsheetName = firstNonEmpty(v.GetString("sheets.spreadsheet_name"), cfg.SpreadsheetName)
	cfg.TimeZone = firstNonEmpty(v.GetString("sheets.time_zone"), cfg.TimeZone)
	cfg.TokenFile = ExpandPath(v.GetString("sheets.token_file"))

	if n := v.GetInt("sheets.batch_size"); n > 0 {
		cfg.BatchSize = n
	}
	cfg.RetryAttempts = v.GetInt("sheets.retry_attempts")
	cfg.RetryDelay = v.GetDuration("sheets.retry_delay")
	cfg.EnableFormatting = v.GetBool("sheets.formatting")
	if pattern := v.GetString("sheets.currency_pattern"); pattern != "" {
		cfg.CurrencyPattern = pattern
	} else if symbol := v.GetString("currency.symbol"); symbol != "" {
		cfg.CurrencyPattern = currencyPattern(symbol, v.GetInt("currency.decimals"))
	}

	return cfg
}

func currencyPattern(symbol string, decimals int) string {
	pattern := symbol + "#,##0"
	if decimals > 0 {
		pattern += "." + strings.Repeat("0", decimals)
	}
	return pattern
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
