package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/ticket-purchase-api/internal/apperror"
	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/internal/repositories"
	"github.com/biyonik/ticket-purchase-api/internal/services"
	"github.com/biyonik/ticket-purchase-api/pkg/events"
)

func TestVerifyEventOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	assert.NoError(t, h.purchases.VerifyEventOwnerByTicketPurchase(ctx, nil, h.sc.Organizer, p.UID))

	err := h.purchases.VerifyEventOwnerByTicketPurchase(ctx, nil, h.sc.Buyer, p.UID)
	requireCode(t, err, apperror.CodeEventNotOwned)
	assert.Equal(t, 403, err.(*apperror.Error).Status())

	err = h.purchases.VerifyEventOwnerByTicketPurchase(ctx, nil, h.sc.Organizer, "missing")
	requireCode(t, err, apperror.CodePurchaseNotFound)
}

func TestVerifyEventOwner_UsesCallersTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	// With a single SQLite connection a read outside tx would block until
	// the transaction ends.
	err := h.repo.CreateTransactions(ctx, func(tx *repositories.PurchaseRepository) error {
		return h.purchases.VerifyEventOwnerByTicketPurchase(ctx, tx, h.sc.Organizer, p.UID)
	})
	assert.NoError(t, err)
}

func TestUpdateRefundStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	var seen []services.PurchaseEvent
	h.dispatcher.Listen(services.EventRefundStatusChanged, events.ListenerFunc(func(_ context.Context, e events.Event) error {
		seen = append(seen, e.Payload().(services.PurchaseEvent))
		return nil
	}))

	// Warm the cache so the invalidation is observable.
	_, err := h.tickets.MyTicket(ctx, h.sc.Buyer, p.UID)
	require.NoError(t, err)

	refunded := models.RefundStatusRefunded
	got, err := h.purchases.UpdateRefundStatus(ctx, h.sc.Organizer, p.UID, &refunded)
	require.NoError(t, err)
	require.NotNil(t, got.RefundStatus)
	assert.Equal(t, models.RefundStatusRefunded, *got.RefundStatus)

	require.Len(t, seen, 1)
	assert.Equal(t, p.UID, seen[0].UID)
	assert.Equal(t, h.sc.Buyer.ID, seen[0].OwnerID)
	assert.Equal(t, h.sc.Organizer.ID, seen[0].ActorID)

	mine, err := h.tickets.MyTicket(ctx, h.sc.Buyer, p.UID)
	require.NoError(t, err)
	assert.True(t, mine.IsRefunded())

	_, err = h.tickets.UseTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	requireCode(t, err, apperror.CodePurchaseInvalid)

	cleared, err := h.purchases.UpdateRefundStatus(ctx, h.sc.Organizer, p.UID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.RefundStatus)
}

func TestUpdateRefundStatus_Failures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bogus := models.RefundStatus("LOST")
	_, err := h.purchases.UpdateRefundStatus(ctx, h.sc.Organizer, "any", &bogus)
	requireCode(t, err, apperror.CodePurchaseInvalid)

	denied := models.RefundStatusDenied
	_, err = h.purchases.UpdateRefundStatus(ctx, h.sc.Organizer, "missing", &denied)
	requireCode(t, err, apperror.CodePurchaseNotFound)

	used := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)
	_, err = h.tickets.UseTicket(ctx, h.sc.Organizer, used.UID, h.sc.Event.ID)
	require.NoError(t, err)

	refunding := models.RefundStatusRefunding
	_, err = h.purchases.UpdateRefundStatus(ctx, h.sc.Organizer, used.UID, &refunding)
	requireCode(t, err, apperror.CodePurchaseInvalid)
	assert.Nil(t, h.reload(t, used.UID).RefundStatus)
}
