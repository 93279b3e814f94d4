package services_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/biyonik/ticket-purchase-api/internal/apperror"
	"github.com/biyonik/ticket-purchase-api/internal/listeners"
	"github.com/biyonik/ticket-purchase-api/internal/metrics"
	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/internal/repositories"
	"github.com/biyonik/ticket-purchase-api/internal/services"
	"github.com/biyonik/ticket-purchase-api/internal/testutil"
	"github.com/biyonik/ticket-purchase-api/pkg/cache"
	"github.com/biyonik/ticket-purchase-api/pkg/events"
	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

var fixedNow = time.Date(2024, 6, 1, 20, 30, 15, 0, time.UTC)

type harness struct {
	*testutil.Fixture
	sc         *testutil.Scenario
	repo       *repositories.PurchaseRepository
	purchases  *services.PurchaseService
	tickets    *services.TicketService
	dispatcher *events.Dispatcher
	cache      *cache.MemoryCache
	registry   *prometheus.Registry
	logs       *observer.ObservedLogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	f := testutil.NewFixture(t)

	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core))

	dispatcher := events.NewDispatcher(log)

	c := cache.NewMemoryCache(log)
	t.Cleanup(c.Close)
	listeners.Register(dispatcher, listeners.NewCacheInvalidator(c))

	reg := prometheus.NewRegistry()
	repo := repositories.NewPurchaseRepository(f.DB, f.Grammar)
	purchases := services.NewPurchaseService(repo, dispatcher, log)
	purchases.SetClock(func() time.Time { return fixedNow })
	tickets := services.NewTicketService(repo, purchases, dispatcher, c, time.Minute, metrics.NewTicketMetrics(reg), log)
	tickets.SetClock(func() time.Time { return fixedNow })

	return &harness{
		Fixture:    f,
		sc:         f.NewScenario(t),
		repo:       repo,
		purchases:  purchases,
		tickets:    tickets,
		dispatcher: dispatcher,
		cache:      c,
		registry:   reg,
		logs:       logs,
	}
}

func (h *harness) reload(t *testing.T, uid string) *models.Purchase {
	t.Helper()
	p, err := h.repo.FindByUID(context.Background(), uid, false)
	require.NoError(t, err)
	return p
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func boolPtr(b bool) *bool { return &b }

func uidsOf(ps []*models.Purchase) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.UID)
	}
	return out
}

// --- MyTickets -----------------------------------------------------------------

func TestMyTickets_StatusDefaultsToCompleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	completed := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)
	pending := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.WithStatus(models.PurchaseStatusPending))

	for _, status := range []string{"", "garbage", "completed"} {
		got, err := h.tickets.MyTickets(ctx, h.sc.Buyer, status, "", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{completed.UID}, uidsOf(got), "status %q", status)
	}

	got, err := h.tickets.MyTickets(ctx, h.sc.Buyer, "PENDING", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{pending.UID}, uidsOf(got))
}

func TestMyTickets_InvalidRefundStatusOmitsFilter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plain := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)
	refunding := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.WithRefundStatus(models.RefundStatusRefunding))
	denied := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.WithRefundStatus(models.RefundStatusDenied))

	got, err := h.tickets.MyTickets(ctx, h.sc.Buyer, "", "NOT_A_STATUS", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{plain.UID, refunding.UID, denied.UID}, uidsOf(got))

	got, err = h.tickets.MyTickets(ctx, h.sc.Buyer, "", "DENIED", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{denied.UID}, uidsOf(got))
}

func TestMyTickets_UsedFilterAndRelations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fresh := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)
	used := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.Used)
	h.CreatePurchase(t, h.sc.Organizer.ID, h.sc.Ticket.ID)

	got, err := h.tickets.MyTickets(ctx, h.sc.Buyer, "", "", boolPtr(true))
	require.NoError(t, err)
	assert.Equal(t, []string{used.UID}, uidsOf(got))

	got, err = h.tickets.MyTickets(ctx, h.sc.Buyer, "", "", boolPtr(false))
	require.NoError(t, err)
	require.Equal(t, []string{fresh.UID}, uidsOf(got))

	p := got[0]
	require.NotNil(t, p.Ticket)
	require.NotNil(t, p.Ticket.Event)
	assert.Equal(t, h.sc.Event.ID, p.Ticket.Event.ID)
	require.Len(t, p.Ticket.Event.Images, 1)
	assert.Equal(t, h.sc.Event.Images[0].URL, p.Ticket.Event.Images[0].URL)
}

func TestMyTickets_EmptyIsNotAnError(t *testing.T) {
	h := newHarness(t)

	got, err := h.tickets.MyTickets(context.Background(), h.sc.Buyer, "", "", nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// --- MyTicket ------------------------------------------------------------------

func TestMyTicket_OwnerOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	got, err := h.tickets.MyTicket(ctx, h.sc.Buyer, p.UID)
	require.NoError(t, err)
	assert.Equal(t, p.UID, got.UID)
	require.NotNil(t, got.Ticket)
	require.NotNil(t, got.Ticket.Event)
	assert.Len(t, got.Ticket.Event.Images, 1)

	_, err = h.tickets.MyTicket(ctx, h.sc.Organizer, p.UID)
	requireCode(t, err, apperror.CodePurchaseNotFound)

	_, err = h.tickets.MyTicket(ctx, h.sc.Buyer, "does-not-exist")
	requireCode(t, err, apperror.CodePurchaseNotFound)
}

func TestMyTicket_ReadThroughCacheInvalidatedOnUse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	before, err := h.tickets.MyTicket(ctx, h.sc.Buyer, p.UID)
	require.NoError(t, err)
	assert.False(t, before.Used)

	_, ok, err := h.cache.Get(ctx, services.MyTicketCacheKey(h.sc.Buyer.ID, p.UID))
	require.NoError(t, err)
	assert.True(t, ok, "result must be cached")

	// A change that bypasses the services is not visible through the cache.
	refunding := models.RefundStatusRefunding
	require.NoError(t, h.repo.UpdateRefundStatus(ctx, p.UID, &refunding))
	cached, err := h.tickets.MyTicket(ctx, h.sc.Buyer, p.UID)
	require.NoError(t, err)
	assert.Nil(t, cached.RefundStatus)

	_, err = h.tickets.UseTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	require.NoError(t, err)

	after, err := h.tickets.MyTicket(ctx, h.sc.Buyer, p.UID)
	require.NoError(t, err)
	assert.True(t, after.Used)
	require.NotNil(t, after.RefundStatus)
	assert.Equal(t, models.RefundStatusRefunding, *after.RefundStatus)
}

func TestMyTicket_NotFoundIsNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.tickets.MyTicket(ctx, h.sc.Buyer, "missing")
	requireCode(t, err, apperror.CodePurchaseNotFound)
	assert.Equal(t, 0, h.cache.Len())
}

// --- ValidateTicket ------------------------------------------------------------

func TestValidateTicket_Success(t *testing.T) {
	h := newHarness(t)
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	got, err := h.tickets.ValidateTicket(context.Background(), h.sc.Organizer, p.UID, h.sc.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, p.UID, got.UID)
	assert.Nil(t, got.Ticket, "ticket relation must be stripped")
	assert.False(t, got.Used)

	assert.False(t, h.reload(t, p.UID).Used, "validation must not mutate")
}

func TestValidateTicket_Failures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	otherEvent := h.CreateEvent(t, h.sc.Organizer.ID)
	otherTicket := h.CreateTicket(t, otherEvent.ID)

	valid := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)
	pending := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.WithStatus(models.PurchaseStatusPending))
	cancelled := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.WithStatus(models.PurchaseStatusCancelled))
	refunded := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.WithRefundStatus(models.RefundStatusRefunded))
	refunding := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.WithRefundStatus(models.RefundStatusRefunding))
	used := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.Used)
	usedElsewhere := h.CreatePurchase(t, h.sc.Buyer.ID, otherTicket.ID, testutil.Used)
	usedAndRefunded := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.Used, testutil.WithRefundStatus(models.RefundStatusRefunded))

	tests := []struct {
		name    string
		user    *models.User
		uid     string
		eventID int64
		code    string
	}{
		{"unknown uid", h.sc.Organizer, "missing", h.sc.Event.ID, apperror.CodePurchaseNotFound},
		{"not the organizer", h.sc.Buyer, valid.UID, h.sc.Event.ID, apperror.CodeEventNotOwned},
		{"ticket of another event", h.sc.Organizer, valid.UID, otherEvent.ID, apperror.CodePurchaseInvalid},
		{"pending", h.sc.Organizer, pending.UID, h.sc.Event.ID, apperror.CodePurchaseInvalid},
		{"cancelled", h.sc.Organizer, cancelled.UID, h.sc.Event.ID, apperror.CodePurchaseInvalid},
		{"refunded", h.sc.Organizer, refunded.UID, h.sc.Event.ID, apperror.CodePurchaseInvalid},
		{"already used", h.sc.Organizer, used.UID, h.sc.Event.ID, apperror.CodeTicketUsed},
		{"event mismatch wins over used", h.sc.Organizer, usedElsewhere.UID, h.sc.Event.ID, apperror.CodePurchaseInvalid},
		{"refund wins over used", h.sc.Organizer, usedAndRefunded.UID, h.sc.Event.ID, apperror.CodePurchaseInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.tickets.ValidateTicket(ctx, tt.user, tt.uid, tt.eventID)
			requireCode(t, err, tt.code)
		})
	}

	t.Run("refunding is still valid", func(t *testing.T) {
		_, err := h.tickets.ValidateTicket(ctx, h.sc.Organizer, refunding.UID, h.sc.Event.ID)
		assert.NoError(t, err)
	})
}

func TestValidateTicket_UnexpectedErrorBecomesInternal(t *testing.T) {
	h := newHarness(t)
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.tickets.ValidateTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	requireCode(t, err, apperror.CodeInternal)
	assert.NotContains(t, err.Error(), "context canceled", "no detail leaks to the caller")

	entries := h.logs.FilterMessage("validate ticket failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, p.UID, entries[0].ContextMap()["uid"])
}

// --- UseTicket -----------------------------------------------------------------

func TestUseTicket_MarksUsed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	got, err := h.tickets.UseTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	require.NoError(t, err)
	assert.True(t, got.Used)
	assert.Nil(t, got.Ticket)
	require.NotNil(t, got.UsedAt)
	assert.True(t, fixedNow.Equal(*got.UsedAt))

	stored := h.reload(t, p.UID)
	assert.True(t, stored.Used)
	assert.Equal(t, models.PurchaseStatusCompleted, stored.Status)

	_, err = h.tickets.UseTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	requireCode(t, err, apperror.CodeTicketUsed)

	_, err = h.tickets.ValidateTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	requireCode(t, err, apperror.CodeTicketUsed)
}

func TestUseTicket_FailureLeavesRowUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	otherEvent := h.CreateEvent(t, h.sc.Organizer.ID)
	stranger := h.CreateUser(t)

	tests := []struct {
		name     string
		user     *models.User
		eventID  int64
		mutators []func(*models.Purchase)
		code     string
	}{
		{"refunded", h.sc.Organizer, h.sc.Event.ID,
			[]func(*models.Purchase){testutil.WithRefundStatus(models.RefundStatusRefunded)}, apperror.CodePurchaseInvalid},
		{"ticket of another event", h.sc.Organizer, otherEvent.ID, nil, apperror.CodePurchaseInvalid},
		{"pending", h.sc.Organizer, h.sc.Event.ID,
			[]func(*models.Purchase){testutil.WithStatus(models.PurchaseStatusPending)}, apperror.CodePurchaseInvalid},
		{"used, refunded and pending", h.sc.Organizer, h.sc.Event.ID,
			[]func(*models.Purchase){
				testutil.Used,
				testutil.WithRefundStatus(models.RefundStatusRefunded),
				testutil.WithStatus(models.PurchaseStatusPending),
			}, apperror.CodePurchaseInvalid},
		{"not the organizer", stranger, h.sc.Event.ID, nil, apperror.CodeEventNotOwned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, tt.mutators...)
			before := h.reload(t, p.UID)

			_, err := h.tickets.UseTicket(ctx, tt.user, p.UID, tt.eventID)
			requireCode(t, err, tt.code)

			after := h.reload(t, p.UID)
			assert.Equal(t, before.Used, after.Used)
			assert.Equal(t, before.UsedAt, after.UsedAt)
			assert.Equal(t, before.Status, after.Status)
			assert.Equal(t, before.RefundStatus, after.RefundStatus)
			if before.UsedAt == nil {
				assert.False(t, after.Used)
			}
		})
	}
}

func TestUseTicket_ConcurrentCallsSucceedExactlyOnce(t *testing.T) {
	h := newHarness(t)
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.tickets.UseTicket(context.Background(), h.sc.Organizer, p.UID, h.sc.Event.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	require.Len(t, errs, callers-1)
	for _, err := range errs {
		requireCode(t, err, apperror.CodeTicketUsed)
	}
}

// --- events & metrics ----------------------------------------------------------

func TestUseTicket_EventDispatchedAfterCommit(t *testing.T) {
	h := newHarness(t)
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	var (
		seen        []services.PurchaseEvent
		usedOnEvent bool
		readErr     error
	)
	h.dispatcher.Listen(services.EventTicketUsed, events.ListenerFunc(func(ctx context.Context, e events.Event) error {
		seen = append(seen, e.Payload().(services.PurchaseEvent))
		// The single SQLite connection is free only once the transaction
		// has committed; reading through the pool would block otherwise.
		readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		stored, err := h.repo.FindByUID(readCtx, p.UID, false)
		if err != nil {
			readErr = err
			return err
		}
		usedOnEvent = stored.Used
		return nil
	}))

	_, err := h.tickets.UseTicket(context.Background(), h.sc.Organizer, p.UID, h.sc.Event.ID)
	require.NoError(t, err)

	require.NoError(t, readErr)
	require.Len(t, seen, 1)
	assert.True(t, usedOnEvent)
	assert.Equal(t, services.PurchaseEvent{
		UID:     p.UID,
		OwnerID: h.sc.Buyer.ID,
		EventID: h.sc.Event.ID,
		ActorID: h.sc.Organizer.ID,
		At:      fixedNow,
	}, seen[0])
}

func TestTicketChecks_NoEventOnFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID, testutil.Used)

	dispatched := 0
	h.dispatcher.Subscribe([]string{services.EventTicketUsed, services.EventTicketValidated},
		events.ListenerFunc(func(context.Context, events.Event) error {
			dispatched++
			return nil
		}))

	_, err := h.tickets.UseTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	requireCode(t, err, apperror.CodeTicketUsed)
	_, err = h.tickets.ValidateTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	requireCode(t, err, apperror.CodeTicketUsed)

	assert.Zero(t, dispatched)
}

func TestTicketChecks_ListenerFailureIsNotSurfaced(t *testing.T) {
	h := newHarness(t)
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	h.dispatcher.Listen(services.EventTicketValidated, events.ListenerFunc(func(context.Context, events.Event) error {
		return assert.AnError
	}))

	_, err := h.tickets.ValidateTicket(context.Background(), h.sc.Organizer, p.UID, h.sc.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.logs.FilterMessage("event listener failed").Len())
}

func TestTicketChecks_Metrics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	_, err := h.tickets.ValidateTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	require.NoError(t, err)
	_, err = h.tickets.UseTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	require.NoError(t, err)
	_, err = h.tickets.UseTicket(ctx, h.sc.Organizer, p.UID, h.sc.Event.ID)
	require.Error(t, err)
	_, err = h.tickets.ValidateTicket(ctx, h.sc.Buyer, p.UID, h.sc.Event.ID)
	require.Error(t, err)

	expected := `
# HELP ticket_checks_total Total ticket validate/use checks by outcome
# TYPE ticket_checks_total counter
ticket_checks_total{operation="use",result="ok"} 1
ticket_checks_total{operation="use",result="used"} 1
ticket_checks_total{operation="validate",result="not_owned"} 1
ticket_checks_total{operation="validate",result="ok"} 1
`
	assert.NoError(t, promtest.GatherAndCompare(h.registry, strings.NewReader(expected), "ticket_checks_total"))
}

// --- TicketQRCode --------------------------------------------------------------

func TestTicketQRCode_PNGForOwnerOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.CreatePurchase(t, h.sc.Buyer.ID, h.sc.Ticket.ID)

	png, err := h.tickets.TicketQRCode(ctx, h.sc.Buyer, p.UID, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	_, err = h.tickets.TicketQRCode(ctx, h.sc.Organizer, p.UID, 128)
	requireCode(t, err, apperror.CodePurchaseNotFound)
}
