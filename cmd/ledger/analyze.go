package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/analysis"
	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/llm"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func analyzeCmd() *cobra.Command {
	var (
		pf      periodFlags
		history int
		show    string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask a language model to comment on a period's spending",
		Long: `Build the spending digest for a period and ask the configured language model
(llm.provider: openai, anthropic or gemini) for a short commentary. The
result is stored and can be listed later with --history.

A failed request never changes ledger data.

Examples:
  ledger analyze
  ledger analyze --period last-month
  ledger analyze --history 5
  ledger analyze --show 3f2b...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if show != "" {
				a, err := store.GetAnalysis(ctx, show)
				if err != nil {
					return err
				}
				printAnalysis(out, *a)
				return nil
			}

			if cmd.Flags().Changed("history") {
				analyses, err := store.ListAnalyses(ctx, history)
				if err != nil {
					return err
				}
				if len(analyses) == 0 {
					printInfo(out, "No analyses yet. Run 'ledger analyze' to create one.")
					return nil
				}
				for _, a := range analyses {
					fmt.Fprintf(out, "%s  %s  %-10s %s\n",
						a.CreatedAt.Local().Format("2006-01-02 15:04"), a.ID, a.Provider, a.PeriodLabel)
				}
				return nil
			}

			req, err := pf.request()
			if err != nil {
				return err
			}
			digest, err := svc.Digest(ctx, req)
			if err != nil {
				return err
			}
			if digest.Count == 0 {
				printWarning(out, "No expenses recorded in %s; nothing to analyze.", digest.PeriodLabel)
				return nil
			}

			llmCfg, err := config.LoadLLMConfig(viper.GetViper())
			if err != nil {
				return err
			}
			client, err := llm.NewClient(ctx, llmCfg)
			if err != nil {
				return err
			}
			defer client.Close()

			builder, err := analysis.NewPromptBuilder(viper.GetString("llm.language"))
			if err != nil {
				return err
			}
			narrator, err := analysis.NewNarrator(analysis.Deps{
				LLMClient:     client,
				Store:         store,
				PromptBuilder: builder,
			}, config.RetryOptions(llmCfg))
			if err != nil {
				return err
			}

			spinner := cli.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("%s Asking %s about %s", cli.RobotIcon, client.Provider(), digest.PeriodLabel))
			a, err := narrator.Narrate(ctx, digest)
			_ = spinner.Finish()

			if a != nil {
				printAnalysis(out, *a)
			}
			if err != nil {
				if a != nil {
					slog.Warn("Analysis was not saved", "error", err)
				}
				return err
			}
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().IntVar(&history, "history", 10, "list the most recent stored analyses instead of generating one")
	cmd.Flags().StringVar(&show, "show", "", "print a stored analysis by id")
	return cmd
}

func printAnalysis(w io.Writer, a model.Analysis) {
	fmt.Fprintln(w, cli.RenderBox(
		fmt.Sprintf("%s %s (%s)", cli.ChartIcon, a.PeriodLabel, a.Provider),
		a.Narrative,
	))
}
