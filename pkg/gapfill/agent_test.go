package gapfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jordanlanch/beautyos/pkg/audit"
	"github.com/jordanlanch/beautyos/pkg/database"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/idempotency"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTexter struct {
	to   []string
	body []string
	err  error
}

func (f *fakeTexter) Send(ctx context.Context, to, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if to == "" {
		return "no_phone", nil
	}
	f.to = append(f.to, to)
	f.body = append(f.body, body)
	return "SM-gap", nil
}

type fixture struct {
	agent     *Agent
	texter    *fakeTexter
	lifecycle *lifecycle.Store
	audit     *audit.Service
	studioID  string
}

func setup(t *testing.T) *fixture {
	ctx := context.Background()
	db, err := database.OpenInMemory(ctx, t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tenants := tenant.NewStore(db.Bun)
	studio, err := tenants.CreateStudio(ctx, tenant.CreateStudioInput{Name: "Nails by Nina", OwnerName: "Nina"})
	require.NoError(t, err)

	f := &fixture{
		texter:    &fakeTexter{},
		lifecycle: lifecycle.NewStore(db.Bun),
		audit:     audit.NewService(db.Bun),
		studioID:  studio.ID,
	}
	f.agent = NewAgent(tenants, f.lifecycle, f.audit, idempotency.NewDBStore(db.Bun), f.texter, "The Beauty Studio", logger.Discard())
	return f
}

func (f *fixture) client(t *testing.T, name, phone string) string {
	id, err := f.lifecycle.CreateClient(context.Background(), lifecycle.NewClient{Name: name, Phone: phone, StudioID: f.studioID})
	require.NoError(t, err)
	return id
}

func (f *fixture) booking(t *testing.T, service string, at time.Time) string {
	id, err := f.lifecycle.CreateBooking(context.Background(), lifecycle.NewBooking{
		ClientID:    f.client(t, "Canceller", "+15125550199"),
		Service:     service,
		Price:       60,
		ScheduledAt: at,
		StudioID:    f.studioID,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) waitlist(t *testing.T, clientID, service string) string {
	id, err := f.lifecycle.AddToWaitlist(context.Background(), lifecycle.NewWaitlistEntry{ClientID: clientID, Service: service, StudioID: f.studioID})
	require.NoError(t, err)
	return id
}

var slot = time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)

func TestHandleCancellation_NotifiesFirstWaitlisted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	bookingID := f.booking(t, "Brazilian Wax", slot)
	sarah := f.client(t, "Sarah Lee", "+15125550100")
	f.waitlist(t, sarah, "Brazilian Wax")

	result, err := f.agent.HandleCancellation(ctx, CancellationInput{
		BookingID:     bookingID,
		Service:       "Brazilian Wax",
		ScheduledAt:   slot,
		OriginalPrice: 60,
		StudioID:      f.studioID,
	})
	require.NoError(t, err)

	assert.True(t, result.CancellationProcessed)
	assert.True(t, result.WaitlistNotified)
	assert.Equal(t, "Sarah Lee", result.NotifiedClient)
	assert.Equal(t, "SM-gap", result.SMSSID)
	assert.Equal(t, "Hey Sarah! A spot just opened up for Brazilian Wax on Fri Mar 6 at 2:00 PM. Want it? Reply YES to grab it before it's gone! — Nails by Nina", result.SMSBody)
	assert.Equal(t, []string{"+15125550100"}, f.texter.to)

	remaining, err := f.lifecycle.FindWaitlistForService(ctx, "Brazilian Wax", f.studioID)
	require.NoError(t, err)
	assert.Empty(t, remaining, "notified entry must drop out of the waitlist")

	booking, err := f.lifecycle.GetBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.Status)

	t.Run("Replay notifies nobody", func(t *testing.T) {
		f.waitlist(t, f.client(t, "Second Sam", "+15125550102"), "Brazilian Wax")

		again, err := f.agent.HandleCancellation(ctx, CancellationInput{BookingID: bookingID, Service: "Brazilian Wax", ScheduledAt: slot, StudioID: f.studioID})
		require.NoError(t, err)
		assert.True(t, again.CancellationProcessed)
		assert.True(t, again.Duplicate)
		assert.False(t, again.WaitlistNotified)
		assert.Len(t, f.texter.to, 1)
	})
}

func TestHandleCancellation_FIFO(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.client(t, "Ana First", "+15125550103")
	second := f.client(t, "Bea Second", "+15125550104")
	f.waitlist(t, first, "Lash Lift")
	f.waitlist(t, second, "Lash Lift")

	result, err := f.agent.HandleCancellation(ctx, CancellationInput{BookingID: f.booking(t, "Lash Lift", slot)})
	require.NoError(t, err)
	assert.Equal(t, "Ana First", result.NotifiedClient)

	result, err = f.agent.HandleCancellation(ctx, CancellationInput{BookingID: f.booking(t, "Lash Lift", slot.Add(time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, "Bea Second", result.NotifiedClient)
}

func TestHandleCancellation_NoWaitlist(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.agent.HandleCancellation(ctx, CancellationInput{BookingID: f.booking(t, "Facial", slot), StudioID: f.studioID})
	require.NoError(t, err)
	assert.True(t, result.CancellationProcessed)
	assert.False(t, result.WaitlistNotified)
	assert.Equal(t, "No one on waitlist for this service.", result.Reason)

	events, err := f.audit.Recent(ctx, f.studioID, 1)
	require.NoError(t, err)
	assert.Equal(t, "no_waitlist", events[0].Action)
}

func TestHandleCancellation_NoPhoneStillMarksNotified(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.waitlist(t, f.client(t, "Quiet Quinn", ""), "Facial")

	result, err := f.agent.HandleCancellation(ctx, CancellationInput{BookingID: f.booking(t, "Facial", slot)})
	require.NoError(t, err)
	assert.Equal(t, "no_phone", result.SMSSID)

	remaining, err := f.lifecycle.FindWaitlistForService(ctx, "Facial", f.studioID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestHandleCancellation_Errors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.agent.HandleCancellation(ctx, CancellationInput{BookingID: "missing"})
	assert.True(t, domain.IsNotFound(err))

}

func TestHandleCancellation_FailedSendStillMarksNotified(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.waitlist(t, f.client(t, "Sarah", "+15125550100"), "Facial")
	next := f.waitlist(t, f.client(t, "Bea Backup", "+15125550104"), "Facial")
	f.texter.err = errors.New("twilio down")

	result, err := f.agent.HandleCancellation(ctx, CancellationInput{BookingID: f.booking(t, "Facial", slot), StudioID: f.studioID})
	require.NoError(t, err)
	assert.True(t, result.WaitlistNotified)
	assert.Equal(t, "Sarah", result.NotifiedClient)
	assert.Equal(t, "twilio down", result.DeliveryError)

	remaining, err := f.lifecycle.FindWaitlistForService(ctx, "Facial", f.studioID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, next, remaining[0].ID)

	events, err := f.audit.Recent(ctx, f.studioID, 1)
	require.NoError(t, err)
	assert.Equal(t, "waitlist_notified", events[0].Action)
	assert.Equal(t, "twilio down", events[0].Metadata["delivery_error"])

	f.texter.err = nil
	result, err = f.agent.HandleCancellation(ctx, CancellationInput{BookingID: f.booking(t, "Facial", slot.Add(time.Hour)), StudioID: f.studioID})
	require.NoError(t, err)
	assert.Equal(t, "Bea Backup", result.NotifiedClient)
	assert.Empty(t, result.DeliveryError)
}

func TestHandleGapFillReply(t *testing.T) {
	ctx := context.Background()

	t.Run("Yes books the slot once", func(t *testing.T) {
		f := setup(t)
		sarah := f.client(t, "Sarah Lee", "+15125550100")
		in := GapFillReplyInput{ClientID: sarah, Service: "Brazilian Wax", ScheduledAt: slot, Price: 60, ReplyText: "Grab it", StudioID: f.studioID}

		result, err := f.agent.HandleGapFillReply(ctx, in)
		require.NoError(t, err)
		assert.True(t, result.Filled)
		require.NotEmpty(t, result.BookingID)

		booking, err := f.lifecycle.GetBooking(ctx, result.BookingID)
		require.NoError(t, err)
		assert.Equal(t, models.SourceWaitlist, booking.Source)
		assert.Equal(t, 60.0, booking.FinalPrice)
		assert.True(t, slot.Equal(booking.ScheduledAt))

		again, err := f.agent.HandleGapFillReply(ctx, in)
		require.NoError(t, err)
		assert.True(t, again.Filled)
		assert.True(t, again.Duplicate)
		assert.Empty(t, again.BookingID)
	})

	t.Run("No declines", func(t *testing.T) {
		f := setup(t)
		sarah := f.client(t, "Sarah Lee", "+15125550100")

		result, err := f.agent.HandleGapFillReply(ctx, GapFillReplyInput{ClientID: sarah, Service: "Brazilian Wax", ScheduledAt: slot, ReplyText: "can't make it", StudioID: f.studioID})
		require.NoError(t, err)
		assert.False(t, result.Filled)

		events, err := f.audit.Recent(ctx, f.studioID, 1)
		require.NoError(t, err)
		assert.Equal(t, "waitlist_declined", events[0].Action)
	})

	t.Run("Unknown or foreign client is not found", func(t *testing.T) {
		f := setup(t)

		_, err := f.agent.HandleGapFillReply(ctx, GapFillReplyInput{ClientID: "missing", Service: "Facial", ScheduledAt: slot, ReplyText: "yes", StudioID: f.studioID})
		assert.True(t, domain.IsNotFound(err))

		sarah := f.client(t, "Sarah Lee", "+15125550100")
		_, err = f.agent.HandleGapFillReply(ctx, GapFillReplyInput{ClientID: sarah, Service: "Facial", ScheduledAt: slot, ReplyText: "yes", StudioID: "other-studio"})
		assert.True(t, domain.IsNotFound(err))

		events, err := f.audit.Recent(ctx, "other-studio", 0)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
