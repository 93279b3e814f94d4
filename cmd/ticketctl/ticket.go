package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/biyonik/ticket-purchase-api/internal/apperror"
	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/internal/repositories"
	"github.com/biyonik/ticket-purchase-api/internal/services"
)

func newTicketCmd(open appOpener) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Inspect and check purchased tickets",
	}
	cmd.PersistentFlags().StringVar(&username, "as", "", "username the command acts as")
	_ = cmd.MarkPersistentFlagRequired("as")

	// withService, komutu TicketService ve --as kullanıcısı ile çalıştırır.
	// pushMetrics ise komut bittikten sonra kontrol metrikleri gönderilir.
	withService := func(pushMetrics bool, fn func(ctx context.Context, cmd *cobra.Command, svc *services.TicketService, user *models.User, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := repositories.NewUserRepository(a.db, a.grammar).FindByUsername(cmd.Context(), username)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("user %q not found", username)
			}
			if err != nil {
				return err
			}

			svc, err := a.ticketService()
			if err != nil {
				return err
			}
			err = fn(cmd.Context(), cmd, svc, user, args)
			if pushMetrics {
				a.pushMetrics(cmd.Context())
			}
			return describe(err)
		}
	}

	var (
		status, refundStatus string
		used                 bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List the user's purchases",
		Args:  cobra.NoArgs,
		RunE: withService(false, func(ctx context.Context, cmd *cobra.Command, svc *services.TicketService, user *models.User, _ []string) error {
			var usedFilter *bool
			if cmd.Flags().Changed("used") {
				usedFilter = &used
			}
			purchases, err := svc.MyTickets(ctx, user, status, refundStatus, usedFilter)
			if err != nil {
				return err
			}
			return printJSON(cmd, purchases)
		}),
	}
	list.Flags().StringVar(&status, "status", "", "PENDING, COMPLETED or CANCELLED (default COMPLETED)")
	list.Flags().StringVar(&refundStatus, "refund-status", "", "REFUNDING, REFUNDED or DENIED")
	list.Flags().BoolVar(&used, "used", false, "filter by used flag")

	show := &cobra.Command{
		Use:   "show <uid>",
		Short: "Show one of the user's purchases",
		Args:  cobra.ExactArgs(1),
		RunE: withService(false, func(ctx context.Context, cmd *cobra.Command, svc *services.TicketService, user *models.User, args []string) error {
			purchase, err := svc.MyTicket(ctx, user, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, purchase)
		}),
	}

	var eventID int64
	validate := &cobra.Command{
		Use:   "validate <uid>",
		Short: "Check a ticket at the gate without using it",
		Args:  cobra.ExactArgs(1),
		RunE: withService(true, func(ctx context.Context, cmd *cobra.Command, svc *services.TicketService, user *models.User, args []string) error {
			purchase, err := svc.ValidateTicket(ctx, user, args[0], eventID)
			if err != nil {
				return err
			}
			return printJSON(cmd, purchase)
		}),
	}
	use := &cobra.Command{
		Use:   "use <uid>",
		Short: "Check a ticket at the gate and mark it used",
		Args:  cobra.ExactArgs(1),
		RunE: withService(true, func(ctx context.Context, cmd *cobra.Command, svc *services.TicketService, user *models.User, args []string) error {
			purchase, err := svc.UseTicket(ctx, user, args[0], eventID)
			if err != nil {
				return err
			}
			return printJSON(cmd, purchase)
		}),
	}
	for _, c := range []*cobra.Command{validate, use} {
		c.Flags().Int64Var(&eventID, "event", 0, "event id the gate belongs to")
		_ = c.MarkFlagRequired("event")
	}

	var (
		size int
		out  string
	)
	qr := &cobra.Command{
		Use:   "qrcode <uid>",
		Short: "Write the ticket's QR code as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: withService(false, func(ctx context.Context, cmd *cobra.Command, svc *services.TicketService, user *models.User, args []string) error {
			png, err := svc.TicketQRCode(ctx, user, args[0], size)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(png)
				return err
			}
			return os.WriteFile(out, png, 0o644)
		}),
	}
	qr.Flags().IntVar(&size, "size", services.DefaultQRCodeSize, "image width in pixels")
	qr.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	cmd.AddCommand(list, show, validate, use, qr)
	return cmd
}

// describe, uygulama hatalarını kod ve HTTP durumuyla birlikte yazar.
func describe(err error) error {
	if appErr, ok := apperror.As(err); ok {
		return fmt.Errorf("%s (%d): %s", appErr.Code, appErr.Status(), appErr.Message)
	}
	return err
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
