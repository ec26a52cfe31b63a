package main

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage categories and their budgets",
		Long:    `List categories and subcategories, set monthly budget ceilings, and seed or extend the category set.`,
	}

	cmd.AddCommand(
		listCategoriesCmd(),
		subcategoriesCmd(),
		budgetCmd(),
		addCategoryCmd(),
		deleteCategoryCmd(),
		seedCategoriesCmd(),
	)
	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories with their budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := svc.Categories(ctx)
			if err != nil {
				return err
			}
			if len(categories) == 0 {
				printInfo(cmd.OutOrStdout(), "No categories found. Use 'ledger categories seed' to install the defaults.")
				return nil
			}
			return cli.RenderCategories(cmd.OutOrStdout(), categories, money())
		},
	}
}

func subcategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subcategories <category>",
		Short: "List the subcategories of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := svc.CategoryByName(ctx, args[0])
			if err != nil {
				return err
			}
			subs, err := svc.Subcategories(ctx, cat.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(cat.Name))
			if len(subs) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("(no subcategories)"))
				return nil
			}
			for _, s := range subs {
				fmt.Fprintf(out, "  %d  %s\n", s.ID, s.Name)
			}
			return nil
		},
	}
}

func budgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budget <category> <amount>",
		Short: "Set a category's monthly budget ceiling (0 stops tracking it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			budget, err := parseBudget(args[1])
			if err != nil {
				return err
			}

			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := svc.CategoryByName(ctx, args[0])
			if err != nil {
				return err
			}
			changed, err := svc.SetBudget(ctx, cat.ID, budget)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !changed:
				printInfo(out, "%s budget is already %s", cat.Name, money().Format(budget))
			case budget.IsZero():
				printSuccess(out, "%s is no longer budgeted", cat.Name)
			default:
				printSuccess(out, "%s budget set to %s", cat.Name, money().Format(budget))
			}
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := svc.AddCategory(ctx, args[0], color)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Created category %q (ID: %d)", cat.Name, cat.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "#B8B8B8", "display color")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category that no expense uses",
		Long: `Delete a category and its subcategories. A category that is still
referenced by an expense cannot be deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := svc.CategoryByName(ctx, args[0])
			if err != nil {
				return err
			}

			if !yes {
				if !cli.IsInteractive() {
					return common.Validationf("refusing to delete without --yes when not on a terminal")
				}
				ok, err := cli.Confirm(ctx, fmt.Sprintf("Delete category %q and its subcategories?", cat.Name))
				if err != nil {
					return err
				}
				if !ok {
					printInfo(cmd.OutOrStdout(), "Nothing deleted.")
					return nil
				}
			}

			if err := svc.DeleteCategory(ctx, cat.ID); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted category %q", cat.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the default categories into an empty ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			seeded, err := svc.SeedDefaults(ctx)
			if err != nil {
				return err
			}
			if !seeded {
				printInfo(cmd.OutOrStdout(), "Categories already exist; nothing seeded.")
				return nil
			}
			printSuccess(cmd.OutOrStdout(), "Seeded %d default categories", len(model.DefaultCategories()))
			return nil
		},
	}
}
