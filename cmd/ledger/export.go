package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a period's expenses",
	}
	cmd.AddCommand(exportCSVCmd(), exportSheetsCmd(), sheetsAuthCmd())
	return cmd
}

func exportCSVCmd() *cobra.Command {
	var (
		pf     periodFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write a period's expenses as CSV",
		Long: `Write the period's expenses as CSV with the columns
ID, Date, Category, Subcategory, Amount, Description, Payment Method.
The file can be read back with 'ledger import csv'.`,
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

			if output == "" || output == "-" {
				_, err := svc.ExportCSV(ctx, cmd.OutOrStdout(), req)
				return err
			}

			f, err := os.Create(config.ExpandPath(output))
			if err != nil {
				return common.NewUserError("cannot create export file", err)
			}
			n, err := svc.ExportCSV(ctx, f, req)
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = common.StorageErr("close export file", closeErr)
			}
			if err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Exported %d expenses to %s", n, output)
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write a period's report and expenses to Google Sheets",
		Long: `Replace the first sheet of the configured spreadsheet (sheets.spreadsheet_id,
or a new one named sheets.spreadsheet_name) with the period's summary,
budget utilization, category breakdown and expense table.

Authenticate with a service account (sheets.service_account_path) or an
OAuth client; run 'ledger export sheets-auth' once to store a token.`,
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

			snap, err := svc.Snapshot(ctx, req)
			if err != nil {
				return err
			}

			writer, err := sheets.NewWriter(ctx, config.LoadSheetsConfig(viper.GetViper()))
			if err != nil {
				return err
			}

			spinner := cli.NewSpinner(cmd.ErrOrStderr(), "Writing to Google Sheets")
			result, err := writer.Write(ctx, snap.Records, snap.Summary())
			_ = spinner.Finish()
			if err != nil {
				return err
			}

			if viper.GetString("sheets.spreadsheet_id") == "" {
				printInfo(cmd.OutOrStdout(), "Set sheets.spreadsheet_id to %s to keep writing to this spreadsheet", result.SpreadsheetID)
			}
			printSuccess(cmd.OutOrStdout(), "Exported %d expenses for %s (%d rows)", len(snap.Records), snap.Period.Label(), result.Rows)
			fmt.Fprintln(cmd.OutOrStdout(), result.URL)
			return nil
		},
	}

	pf.register(cmd)
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets access and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadSheetsConfig(viper.GetViper())
			out := cmd.OutOrStdout()

			_, err := sheets.Authorize(cmd.Context(), cfg, func(url string) {
				fmt.Fprintln(out, "Open this URL in your browser to grant access:")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "  "+url)
				fmt.Fprintln(out)
			})
			if err != nil {
				return err
			}
			printSuccess(out, "Token saved to %s", cfg.TokenFile)
			return nil
		},
	}
}
