package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/importer"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// importOptions are shared by every import subcommand.
type importOptions struct {
	noBackup bool
	dryRun   bool
}

func (o *importOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noBackup, "no-backup", false, "skip the automatic backup taken before importing")
	cmd.Flags().BoolVarP(&o.dryRun, "dry-run", "n", false, "parse and report without writing")
}

// statementOptions choose where statement lines are filed.
type statementOptions struct {
	category    string
	subcategory string
	method      string
	fixed       bool
}

func (o *statementOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.category, "category", "c", "", "category to file the imported expenses under (required)")
	cmd.Flags().StringVarP(&o.subcategory, "subcategory", "s", "", "subcategory to file the imported expenses under")
	cmd.Flags().StringVarP(&o.method, "method", "m", "", "payment method for every line (default: inferred per line)")
	cmd.Flags().BoolVar(&o.fixed, "fixed", false, "mark imported expenses as fixed costs")
	_ = cmd.MarkFlagRequired("category")
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import expenses from files or a bank connection",
		Long: `Import expenses in one transaction. Re-importing the same file or date range
is safe: lines that were imported before are skipped. Only money leaving an
account is imported; deposits and refunds are counted and ignored.`,
	}
	cmd.AddCommand(importCSVCmd(), importOFXCmd(), importPlaidCmd())
	return cmd
}

// backupBeforeImport takes an automatic backup unless disabled.
func backupBeforeImport(ctx context.Context, store *storage.SQLiteStorage, opts importOptions) error {
	if opts.noBackup || opts.dryRun {
		return nil
	}
	bm, err := store.NewBackupManager()
	if err != nil {
		return err
	}
	info, err := bm.AutoBackup(ctx, "import")
	if err != nil {
		return fmt.Errorf("failed to back up before import (use --no-backup to skip): %w", err)
	}
	slog.Debug("Backed up before import", "backup", info.ID)
	return nil
}

func importCSVCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Import a CSV file in the 'ledger export csv' format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := config.ExpandPath(args[0])

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			f, err := os.Open(path)
			if err != nil {
				return common.NewUserError("cannot open import file", err)
			}
			defer func() { _ = f.Close() }()

			batch, err := svc.ParseCSV(ctx, f)
			if err != nil {
				return err
			}
			if opts.dryRun {
				printInfo(cmd.OutOrStdout(), "%s: %d rows parsed, nothing written (dry run)", filepath.Base(path), len(batch))
				return nil
			}

			if err := backupBeforeImport(ctx, store, opts); err != nil {
				return err
			}
			result, err := svc.Import(ctx, batch)
			if err != nil {
				return err
			}
			printImportResult(cmd, filepath.Base(path), result)
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

func importOFXCmd() *cobra.Command {
	var (
		opts    importOptions
		mapping statementOptions
	)

	cmd := &cobra.Command{
		Use:   "ofx <files...>",
		Short: "Import OFX/QFX statements exported from a bank",
		Long: `Import the outflows from OFX or QFX statements.

Examples:
  ledger import ofx ~/Downloads/card_jan_2024.qfx --category Food
  ledger import ofx ~/Downloads/*.qfx --category Other --subcategory Miscellaneous`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			m, err := svc.StatementMapping(ctx, mapping.category, mapping.subcategory, mapping.method, mapping.fixed)
			if err != nil {
				return err
			}

			if opts.dryRun {
				return previewStatements(cmd, files, m)
			}
			if err := backupBeforeImport(ctx, store, opts); err != nil {
				return err
			}

			bar := cli.NewSpinner(cmd.ErrOrStderr(), "Importing statements")
			defer func() { _ = bar.Finish() }()
			for _, path := range files {
				bar.Describe("Importing " + filepath.Base(path))
				result, err := svc.ImportStatements(ctx, importer.OFXFile{Path: path}, m)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				_ = bar.Add(1)
				printImportResult(cmd, filepath.Base(path), result)
			}
			return nil
		},
	}

	opts.register(cmd)
	mapping.register(cmd)
	return cmd
}

// previewStatements parses files and reports what an import would do.
func previewStatements(cmd *cobra.Command, files []string, m importer.Mapping) error {
	for _, path := range files {
		lines, err := importer.OFXFile{Path: path}.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		batch, inflows, err := importer.ToExpenses(lines, m)
		if err != nil {
			return err
		}
		printInfo(cmd.OutOrStdout(), "%s: %d expenses, %d inflows ignored (dry run)", filepath.Base(path), len(batch), inflows)
	}
	return nil
}

func importPlaidCmd() *cobra.Command {
	var (
		opts    importOptions
		mapping statementOptions
		from    string
		to      string
	)

	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Import posted transactions from a Plaid-linked account",
		Long: `Fetch posted transactions in a date range from Plaid and import the outflows.
Pending transactions are skipped until they post.

Credentials come from plaid.client_id, plaid.secret, plaid.access_token and
plaid.environment, or the PLAID_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadPlaidConfig(viper.GetViper())
			if err != nil {
				return err
			}

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			start, end, err := plaidRange(svc, from, to)
			if err != nil {
				return err
			}
			src, err := importer.NewPlaidSource(cfg, start, end)
			if err != nil {
				return err
			}
			m, err := svc.StatementMapping(ctx, mapping.category, mapping.subcategory, mapping.method, mapping.fixed)
			if err != nil {
				return err
			}

			if opts.dryRun {
				lines, err := src.Fetch(ctx)
				if err != nil {
					return err
				}
				batch, inflows, err := importer.ToExpenses(lines, m)
				if err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), "plaid: %d expenses, %d inflows ignored (dry run)", len(batch), inflows)
				return nil
			}

			if err := backupBeforeImport(ctx, store, opts); err != nil {
				return err
			}
			spinner := cli.NewSpinner(cmd.ErrOrStderr(), "Fetching transactions from Plaid")
			result, err := svc.ImportStatements(ctx, src, m)
			_ = spinner.Finish()
			if err != nil {
				return err
			}
			printImportResult(cmd, "plaid", result)
			return nil
		},
	}

	opts.register(cmd)
	mapping.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "first date to fetch (YYYY-MM-DD, default: 30 days ago)")
	cmd.Flags().StringVar(&to, "to", "", "last date to fetch (YYYY-MM-DD, default: today)")
	return cmd
}

// plaidRange defaults to the thirty days ending today.
func plaidRange(svc *ledger.Service, from, to string) (start, end time.Time, err error) {
	end = svc.Today()
	if to != "" {
		if end, err = model.ParseDate(to); err != nil {
			return
		}
	}
	start = end.AddDate(0, 0, -30)
	if from != "" {
		if start, err = model.ParseDate(from); err != nil {
			return
		}
	}
	return start, end, nil
}

// expandFiles resolves glob patterns; a pattern with no match must name an
// existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		pattern = config.ExpandPath(pattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, common.Validationf("invalid pattern %s: %v", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, common.NewUserError("no statement found at "+pattern, err)
			}
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	return files, nil
}

func printImportResult(cmd *cobra.Command, source string, r ledger.ImportResult) {
	msg := fmt.Sprintf("%s: %d imported, %d already present", source, r.Inserted, r.Skipped)
	if r.Inflows > 0 {
		msg += fmt.Sprintf(", %d inflows ignored", r.Inflows)
	}
	printSuccess(cmd.OutOrStdout(), "%s", msg)
}
