package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/tui"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reportCmd() *cobra.Command {
	var (
		pf     periodFlags
		digest bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize spending and budget utilization for a period",
		Long: `Show totals, averages, per-category and per-payment-method breakdowns,
budget utilization and the change against the previous period of the same
length.

Examples:
  ledger report
  ledger report --period last-month
  ledger report --from 2024-01-01 --to 2024-03-31
  ledger report --digest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			req, err := pf.request()
			if err != nil {
				return err
			}

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if digest {
				d, err := svc.Digest(ctx, req)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, d.Text())
				return err
			}

			summary, err := svc.Report(ctx, req)
			if err != nil {
				return err
			}
			return cli.RenderReport(out, summary, money())
		},
	}

	pf.register(cmd)
	cmd.Flags().BoolVar(&digest, "digest", false, "print the plain-text digest used for analysis")
	return cmd
}

func dashboardCmd() *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive budget dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !cli.IsInteractive() {
				return common.Validationf("the dashboard needs a terminal; use 'ledger report' instead")
			}

			req, err := pf.request()
			if err != nil {
				return err
			}
			if req.Kind == period.Custom {
				return common.Validationf("the dashboard cycles through the standard periods; custom ranges are available in 'ledger report'")
			}

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			load := func(ctx context.Context, kind period.Kind) (report.Summary, error) {
				r := req
				r.Kind = kind
				return svc.Report(ctx, r)
			}

			return tui.Run(ctx,
				tui.WithLoader(load),
				tui.WithPeriod(req.Kind),
				tui.WithMoney(money()),
				tui.WithTheme(themes.ByName(viper.GetString("dashboard.theme"))),
			)
		},
	}

	pf.register(cmd)
	return cmd
}
