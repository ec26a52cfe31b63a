package tui

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
)

// Loader computes the summary shown for a period.
type Loader func(ctx context.Context, kind period.Kind) (report.Summary, error)

// Config holds TUI configuration.
type Config struct {
	Theme  themes.Theme
	Loader Loader
	Money  cli.Money
	Period period.Kind
	Width  int
	Height int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:  themes.Default,
		Money:  cli.Money{Symbol: "₩"},
		Period: period.ThisMonth,
		Width:  80,
		Height: 24,
	}
}

// WithLoader sets the function that produces summaries.
func WithLoader(load Loader) Option {
	return func(c *Config) {
		c.Loader = load
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithMoney sets the currency format.
func WithMoney(money cli.Money) Option {
	return func(c *Config) {
		c.Money = money
	}
}

// WithPeriod sets the period shown first.
func WithPeriod(kind period.Kind) Option {
	return func(c *Config) {
		c.Period = kind
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
