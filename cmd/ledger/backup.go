package main

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore database backups",
		Long: `Backups are full copies of the ledger database kept in a "backups" directory
next to it. Imports take an automatic backup first; the five most recent
automatic backups are kept.`,
	}
	cmd.AddCommand(backupCreateCmd(), backupListCmd(), backupRestoreCmd(), backupDeleteCmd())
	return cmd
}

func openBackups(cmd *cobra.Command) (*storage.SQLiteStorage, *storage.BackupManager, error) {
	store, err := openStorage(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	bm, err := store.NewBackupManager()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, bm, nil
}

func backupCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create [tag]",
		Short: "Back up the database now",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, bm, err := openBackups(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tag := ""
			if len(args) == 1 {
				tag = args[0]
			}
			info, err := bm.Create(cmd.Context(), tag, description)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Created backup %s (%d expenses, %d categories)", info.ID, info.Expenses, info.Categories)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "note stored with the backup")
	return cmd
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, bm, err := openBackups(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			backups, err := bm.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				printInfo(out, "No backups yet.")
				return nil
			}
			for _, b := range backups {
				kind := "manual"
				if b.IsAuto {
					kind = "auto"
				}
				fmt.Fprintf(out, "%-40s %s  %-6s v%d  %5d expenses  %s\n",
					b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04"), kind, b.SchemaVersion, b.Expenses,
					cli.SubtleStyle.Render(b.Description))
			}
			return nil
		},
	}
}

func backupRestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the database with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, bm, err := openBackups(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if !yes {
				if !cli.IsInteractive() {
					return common.Validationf("refusing to restore without --yes when not on a terminal")
				}
				ok, err := cli.Confirm(cmd.Context(), fmt.Sprintf("Replace the current database with backup %s?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					printInfo(cmd.OutOrStdout(), "Nothing restored.")
					return nil
				}
			}

			if err := bm.Restore(args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Restored backup %s", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func backupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, bm, err := openBackups(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := bm.Delete(args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted backup %s", args[0])
			return nil
		},
	}
}
