package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biyonik/ticket-purchase-api/internal/migrations"
	"github.com/biyonik/ticket-purchase-api/pkg/database/migration"
)

func newMigrateCmd(open appOpener) *cobra.Command {
	migrator := func(a *app) (*migration.Migrator, error) {
		grammar, err := migration.GrammarFor(a.cfg.DB.Driver)
		if err != nil {
			return nil, err
		}
		return migration.NewMigrator(a.db, grammar, a.log), nil
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := migrator(a)
			if err != nil {
				return err
			}
			applied, err := m.Run(cmd.Context(), migrations.All())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Migrated: %s\n", name)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Revert the last batch of migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := migrator(a)
			if err != nil {
				return err
			}
			reverted, err := m.Rollback(cmd.Context(), migrations.All())
			if err != nil {
				return err
			}
			if len(reverted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to rollback.")
				return nil
			}
			for _, name := range reverted {
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back: %s\n", name)
			}
			return nil
		},
	})
	return cmd
}
