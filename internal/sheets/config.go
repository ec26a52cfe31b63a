// Package sheets exports a period's report and expense table to a Google
// Sheets spreadsheet.
package sheets

import (
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	// CurrencyPattern is the Sheets number format applied to amount cells.
	CurrencyPattern  string
	BatchSize        int
	RetryAttempts    int
	RetryDelay       time.Duration
	EnableFormatting bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		SpreadsheetName:  "Expense Ledger",
		TimeZone:         "Asia/Seoul",
		CurrencyPattern:  "₩#,##0",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

func (c *Config) hasOAuthClient() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.hasOAuthClient() && (c.RefreshToken != "" || c.TokenFile != "")
	hasServiceAccount := c.ServiceAccountPath != ""

	switch {
	case !hasOAuth && !hasServiceAccount:
		return common.Validationf("no Google Sheets authentication configured: set a service account path or OAuth2 client credentials with a refresh token")
	case hasOAuth && hasServiceAccount:
		return common.Validationf("multiple authentication methods configured; use either OAuth2 or service account")
	case c.BatchSize <= 0:
		return common.Validationf("batch size must be positive")
	case c.RetryAttempts < 0:
		return common.Validationf("retry attempts cannot be negative")
	case c.RetryDelay < 0:
		return common.Validationf("retry delay cannot be negative")
	}
	return nil
}

// ValidateForAuthorization checks the fields the interactive OAuth2 flow needs.
func (c *Config) ValidateForAuthorization() error {
	if !c.hasOAuthClient() {
		return common.Validationf("OAuth2 client ID and secret are required")
	}
	if c.TokenFile == "" {
		return common.Validationf("a token file is required to store the authorization")
	}
	return nil
}

func (c Config) retryOptions() common.RetryOptions {
	opts := common.DefaultRetryOptions()
	opts.MaxAttempts = c.RetryAttempts + 1
	if c.RetryDelay > 0 {
		opts.InitialDelay = c.RetryDelay
	}
	return opts
}
