package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

type addOptions struct {
	date        string
	amount      string
	category    string
	subcategory string
	method      string
	description string
	fixed       bool
	interactive bool
}

func addCmd() *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long: `Record a new expense. Use flags, or --interactive for a guided form.

Examples:
  ledger add --amount 4500 --category Food --subcategory Cafe --method debit_card
  ledger add --date 2024-03-01 --amount 1,250,000 --category Housing --fixed
  ledger add -i`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var exp model.NewExpense
			if opts.interactive {
				exp, err = expenseFromForm(ctx, svc)
			} else {
				exp, err = expenseFromFlags(ctx, svc, opts)
			}
			if err != nil {
				if errors.Is(err, cli.ErrFormAborted) {
					printInfo(cmd.OutOrStdout(), "Nothing recorded.")
					return nil
				}
				return err
			}

			id, err := svc.AddExpense(ctx, exp)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Recorded expense #%d: %s on %s",
				id, money().Format(exp.Amount), exp.Date.Format(model.DateLayout))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.date, "date", "", "expense date (YYYY-MM-DD, default: today)")
	f.StringVarP(&opts.amount, "amount", "a", "", "amount, thousands separators allowed")
	f.StringVarP(&opts.category, "category", "c", "", "category name")
	f.StringVarP(&opts.subcategory, "subcategory", "s", "", "subcategory name")
	f.StringVarP(&opts.method, "method", "m", string(model.PaymentCreditCard), "payment method: cash, credit_card, debit_card, bank_transfer, other")
	f.StringVarP(&opts.description, "description", "d", "", "free-text description")
	f.BoolVar(&opts.fixed, "fixed", false, "mark as a fixed (recurring) cost")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "enter the expense in a form")

	return cmd
}

func expenseFromFlags(ctx context.Context, svc *ledger.Service, opts addOptions) (model.NewExpense, error) {
	if opts.amount == "" || opts.category == "" {
		return model.NewExpense{}, common.Validationf("--amount and --category are required (or use --interactive)")
	}

	date := svc.Today()
	if opts.date != "" {
		d, err := model.ParseDate(opts.date)
		if err != nil {
			return model.NewExpense{}, err
		}
		date = d
	}
	amount, err := model.ParseAmount(opts.amount)
	if err != nil {
		return model.NewExpense{}, err
	}
	method, err := model.ParsePaymentMethod(opts.method)
	if err != nil {
		return model.NewExpense{}, err
	}

	cat, err := svc.CategoryByName(ctx, opts.category)
	if err != nil {
		return model.NewExpense{}, err
	}
	exp := model.NewExpense{
		Date:          date,
		CategoryID:    cat.ID,
		Amount:        amount,
		Description:   opts.description,
		PaymentMethod: method,
		IsFixed:       opts.fixed,
	}

	if opts.subcategory != "" {
		subs, err := svc.Subcategories(ctx, cat.ID)
		if err != nil {
			return model.NewExpense{}, err
		}
		sub, ok := findSubcategory(subs, opts.subcategory)
		if !ok {
			return model.NewExpense{}, common.Validationf("unknown subcategory %q in %s", opts.subcategory, cat.Name)
		}
		exp.SubcategoryID = &sub.ID
	}
	return exp, nil
}

func findSubcategory(subs []model.Subcategory, name string) (model.Subcategory, bool) {
	for _, s := range subs {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return model.Subcategory{}, false
}

func expenseFromForm(ctx context.Context, svc *ledger.Service) (model.NewExpense, error) {
	if !cli.IsInteractive() {
		return model.NewExpense{}, common.Validationf("--interactive needs a terminal")
	}

	categories, err := svc.Categories(ctx)
	if err != nil {
		return model.NewExpense{}, err
	}
	choices := make([]cli.CategoryChoice, 0, len(categories))
	for _, c := range categories {
		subs, err := svc.Subcategories(ctx, c.ID)
		if err != nil {
			return model.NewExpense{}, err
		}
		choices = append(choices, cli.CategoryChoice{Category: c, Subcategories: subs})
	}

	return cli.NewExpenseForm(choices, svc.Today().Format(model.DateLayout)).Run(ctx)
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return common.Validationf("invalid expense id %q", args[0])
			}

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			exp, err := svc.Expense(ctx, id)
			if err != nil {
				return err
			}

			if !yes {
				if !cli.IsInteractive() {
					return common.Validationf("refusing to delete without --yes when not on a terminal")
				}
				ok, err := cli.Confirm(ctx, fmt.Sprintf("Delete expense #%d (%s, %s, %s)?",
					exp.ID, exp.Date.Format(model.DateLayout), exp.Category.Name, money().Format(exp.Amount)))
				if err != nil {
					return err
				}
				if !ok {
					printInfo(cmd.OutOrStdout(), "Nothing deleted.")
					return nil
				}
			}

			if err := svc.DeleteExpense(ctx, id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted expense #%d", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		pf     periodFlags
		asCSV  bool
		limit  int
		filter string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses for a period, newest first",
		Args:  cobra.NoArgs,
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

			r, records, err := svc.ListForPeriod(ctx, req)
			if err != nil {
				return err
			}
			if filter != "" {
				records = filterByCategory(records, filter)
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			out := cmd.OutOrStdout()
			if asCSV {
				return export.WriteCSV(out, records)
			}
			fmt.Fprintln(out, cli.FormatTitle("Expenses "+r.Label()))
			return cli.RenderExpenses(out, records, money())
		},
	}

	pf.register(cmd)
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print CSV instead of a table")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many expenses")
	cmd.Flags().StringVarP(&filter, "category", "c", "", "only show this category")
	return cmd
}

func filterByCategory(records []model.Expense, name string) []model.Expense {
	out := records[:0:0]
	for _, r := range records {
		if strings.EqualFold(r.Category.Name, name) {
			out = append(out, r)
		}
	}
	return out
}
