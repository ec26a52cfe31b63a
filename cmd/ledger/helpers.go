package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func databasePath() string {
	if p := config.ExpandPath(viper.GetString("database.path")); p != "" {
		return p
	}
	return config.DefaultDatabasePath()
}

// openStorage opens the configured database, brings its schema up to date
// and installs the default categories into an empty ledger.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if _, err := store.SeedDefaults(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed default categories: %w", err)
	}
	return store, nil
}

// openLedger opens storage and wraps it in the ledger service. The caller
// closes the returned store.
func openLedger(ctx context.Context) (*storage.SQLiteStorage, *ledger.Service, error) {
	store, err := openStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc, err := ledger.New(store, nil)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, svc, nil
}

func money() cli.Money {
	return cli.Money{
		Symbol:   viper.GetString("currency.symbol"),
		Decimals: int32(viper.GetInt("currency.decimals")),
	}
}

// periodFlags are the reporting period selectors shared by every command
// that reads a period.
type periodFlags struct {
	period string
	from   string
	to     string
	today  string
}

func (pf *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&pf.period, "period", "p", "", "reporting period: this-month, last-month, last-3-months, last-6-months, this-year, all-time, custom (default: report.default_period)")
	cmd.Flags().StringVar(&pf.from, "from", "", "start date of a custom period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&pf.to, "to", "", "end date of a custom period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&pf.today, "today", "", "evaluate the period as if today were this date (YYYY-MM-DD)")
}

// request turns the flags into a period request. --from/--to imply a custom
// period; an inverted range is left for the resolver to reject.
func (pf periodFlags) request() (period.Request, error) {
	name := pf.period
	if name == "" {
		if pf.from != "" || pf.to != "" {
			name = string(period.Custom)
		} else {
			name = viper.GetString("report.default_period")
		}
	}

	kind, err := period.ParseKind(name)
	if err != nil {
		return period.Request{}, err
	}
	req := period.Request{Kind: kind}

	if pf.today != "" {
		if req.Today, err = model.ParseDate(pf.today); err != nil {
			return period.Request{}, err
		}
	}

	if kind != period.Custom {
		if pf.from != "" || pf.to != "" {
			return period.Request{}, common.Validationf("--from and --to only apply to the custom period, not %s", kind)
		}
		return req, nil
	}

	if pf.from == "" || pf.to == "" {
		return period.Request{}, common.Validationf("a custom period needs both --from and --to")
	}
	start, err := model.ParseDate(pf.from)
	if err != nil {
		return period.Request{}, err
	}
	end, err := model.ParseDate(pf.to)
	if err != nil {
		return period.Request{}, err
	}
	req.CustomStart, req.CustomEnd = &start, &end
	return req, nil
}

// parseBudget parses a budget ceiling. Unlike expense amounts, zero is allowed.
func parseBudget(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero, common.Validationf("invalid budget %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, common.Validationf("budget must not be negative, got %s", d.String())
	}
	return d, nil
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf(format, args...)))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf(format, args...)))
}
