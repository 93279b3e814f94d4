// Command ticketctl, şema migration'ları, seed ve kapıda bilet kontrolü için
// yönetim aracı.
//
//	ticketctl migrate
//	ticketctl migrate rollback
//	ticketctl seed
//	ticketctl ticket use <uid> --event 42 --as organizer
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "ticketctl",
		Short:         "Ticket purchase management tool",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	opener := func(cmd *cobra.Command) (*app, error) {
		return openApp(cmd.Context(), envFiles)
	}

	root.AddCommand(
		newMigrateCmd(opener),
		newSeedCmd(opener),
		newTicketCmd(opener),
	)
	return root
}
