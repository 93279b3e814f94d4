package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biyonik/ticket-purchase-api/internal/seed"
)

func newSeedCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the superadmin user and the default withdraw fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			opts, err := seed.OptionsFromConfig(a.cfg)
			if err != nil {
				return err
			}
			res, err := seed.NewSeeder(a.db, a.grammar, opts, a.log).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: %t, withdraw fee created: %t\n", res.AdminCreated, res.WithdrawFeeCreated)
			return nil
		},
	}
}
