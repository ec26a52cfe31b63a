package config

import (
	"os"

	"github.com/Veraticus/spice-ledger/internal/importer"
	"github.com/spf13/viper"
)

// LoadPlaidConfig reads Plaid credentials, falling back to the PLAID_*
// variables Plaid's own tooling uses.
func LoadPlaidConfig(v *viper.Viper) (importer.PlaidConfig, error) {
	cfg := importer.PlaidConfig{
		ClientID:    firstNonEmpty(v.GetString("plaid.client_id"), os.Getenv("PLAID_CLIENT_ID")),
		Secret:      firstNonEmpty(v.GetString("plaid.secret"), os.Getenv("PLAID_SECRET")),
		Environment: firstNonEmpty(os.Getenv("PLAID_ENV"), v.GetString("plaid.environment")),
		AccessToken: firstNonEmpty(v.GetString("plaid.access_token"), os.Getenv("PLAID_ACCESS_TOKEN")),
	}
	if err := cfg.Validate(); err != nil {
		return importer.PlaidConfig{}, err
	}
	return cfg, nil
}
