package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		errMsg string
		config Config
	}{
		{
			name: "oauth with refresh token",
			config: Config{
				ClientID:     "test-client",
				ClientSecret: "test-secret",
				RefreshToken: "test-token",
				BatchSize:    100,
			},
		},
		{
			name: "oauth with saved token",
			config: Config{
				ClientID:     "test-client",
				ClientSecret: "test-secret",
				TokenFile:    "~/.config/ledger/sheets-token.json",
				BatchSize:    100,
			},
		},
		{
			name: "service account",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
		},
		{
			name:   "missing auth",
			config: Config{BatchSize: 100},
			errMsg: "no Google Sheets authentication configured",
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:     "test-client",
				RefreshToken: "test-token",
				BatchSize:    100,
			},
			errMsg: "no Google Sheets authentication configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "test-secret",
				RefreshToken:       "test-token",
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
			errMsg: "multiple authentication methods configured",
		},
		{
			name:   "invalid batch size",
			config: Config{ServiceAccountPath: "/k.json"},
			errMsg: "batch size must be positive",
		},
		{
			name:   "negative retries",
			config: Config{ServiceAccountPath: "/k.json", BatchSize: 1, RetryAttempts: -1},
			errMsg: "retry attempts cannot be negative",
		},
		{
			name:   "negative retry delay",
			config: Config{ServiceAccountPath: "/k.json", BatchSize: 1, RetryDelay: -time.Second},
			errMsg: "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.EnableFormatting)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, "Asia/Seoul", cfg.TimeZone)

	cfg.ServiceAccountPath = "/k.json"
	assert.NoError(t, cfg.Validate())
}

func TestRetryOptions(t *testing.T) {
	cfg := Config{RetryAttempts: 2, RetryDelay: 50 * time.Millisecond}
	opts := cfg.retryOptions()
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, opts.InitialDelay)

	opts = Config{}.retryOptions()
	assert.Equal(t, 1, opts.MaxAttempts)
	assert.Equal(t, common.DefaultRetryOptions().InitialDelay, opts.InitialDelay)
}

func TestValidateForAuthorization(t *testing.T) {
	cfg := Config{ClientID: "id", ClientSecret: "secret", TokenFile: "/tmp/token.json"}
	assert.NoError(t, cfg.ValidateForAuthorization())

	cfg.TokenFile = ""
	assert.ErrorIs(t, cfg.ValidateForAuthorization(), common.ErrValidation)

	cfg = Config{ClientID: "id", TokenFile: "/tmp/token.json"}
	assert.ErrorIs(t, cfg.ValidateForAuthorization(), common.ErrValidation)
}
