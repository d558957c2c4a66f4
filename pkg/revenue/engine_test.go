package revenue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jordanlanch/beautyos/pkg/ai/llm/llmtest"
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

type sentSMS struct{ to, body string }

type fakeTexter struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeTexter) Send(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if to == "" {
		return "no_phone", nil
	}
	f.sent = append(f.sent, sentSMS{to, body})
	return "SM-test", nil
}

type fixture struct {
	engine    *Engine
	fake      *llmtest.Fake
	texter    *fakeTexter
	tenants   *tenant.Store
	lifecycle *lifecycle.Store
	offers    *OfferStore
	audit     *audit.Service
	studioID  string
}

func setup(t *testing.T, replies ...string) *fixture {
	ctx := context.Background()
	db, err := database.OpenInMemory(ctx, t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		fake:      llmtest.New(replies...),
		texter:    &fakeTexter{},
		tenants:   tenant.NewStore(db.Bun),
		lifecycle: lifecycle.NewStore(db.Bun),
		offers:    NewOfferStore(db.Bun),
		audit:     audit.NewService(db.Bun),
	}

	studio, err := f.tenants.CreateStudio(ctx, tenant.CreateStudioInput{Name: "Nails by Nina", OwnerName: "Nina"})
	require.NoError(t, err)
	f.studioID = studio.ID

	f.engine = NewEngine(Deps{
		Tenants:     f.tenants,
		Lifecycle:   f.lifecycle,
		Offers:      f.offers,
		Audit:       f.audit,
		Idempotency: idempotency.NewDBStore(db.Bun),
		LLM:         f.fake,
		SMS:         f.texter,
	}, logger.Discard())
	return f
}

func (f *fixture) addService(t *testing.T, name string, addons ...models.Addon) string {
	ctx := context.Background()
	serviceID, err := f.tenants.CreateService(ctx, f.studioID, name, 60, 45)
	require.NoError(t, err)
	for _, a := range addons {
		_, err := f.tenants.CreateAddon(ctx, serviceID, f.studioID, a.Name, a.Price, a.DurationMin, a.Pitch)
		require.NoError(t, err)
	}
	return serviceID
}

func (f *fixture) booking(t *testing.T, name, phone, service string, price float64, in time.Duration) string {
	ctx := context.Background()
	clientID, err := f.lifecycle.CreateClient(ctx, lifecycle.NewClient{Name: name, Phone: phone, StudioID: f.studioID})
	require.NoError(t, err)
	bookingID, err := f.lifecycle.CreateBooking(ctx, lifecycle.NewBooking{
		ClientID:    clientID,
		Service:     service,
		Price:       price,
		ScheduledAt: time.Now().Add(in),
		StudioID:    f.studioID,
	})
	require.NoError(t, err)
	return bookingID
}

func TestFindBestAddon(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	none, err := f.engine.FindBestAddon(ctx, "Brazilian Wax", f.studioID)
	require.NoError(t, err)
	assert.Nil(t, none)

	f.addService(t, "Lash Lift")
	f.addService(t, "Brazilian Wax", models.Addon{Name: "Ingrown Treatment", Price: 15, DurationMin: 10})
	f.addService(t, "Brow Lamination", models.Addon{Name: "Brow Tint", Price: 12, DurationMin: 10})

	tests := []struct {
		booked string
		want   string
	}{
		{"brazilian wax", "Ingrown Treatment"},
		{"Full Brazilian Wax + Brows", "Ingrown Treatment"},
		{"brow", "Brow Tint"},
		{"Lash Lift", "Ingrown Treatment"}, // matching service has no add-ons, studio fallback
		{"Pedicure", "Ingrown Treatment"},
	}
	for _, tt := range tests {
		t.Run(tt.booked, func(t *testing.T) {
			addon, err := f.engine.FindBestAddon(ctx, tt.booked, f.studioID)
			require.NoError(t, err)
			require.NotNil(t, addon)
			assert.Equal(t, tt.want, addon.Name)
		})
	}
}

func TestProcessUpsellWindow(t *testing.T) {
	f := setup(t,
		`{"sms_body": "Hey Sarah! Tomorrow's Brazilian Wax could use an Ingrown Treatment ($15). Reply YES to add it!"}`,
	)
	ctx := context.Background()
	f.addService(t, "Brazilian Wax", models.Addon{Name: "Ingrown Treatment", Price: 15, DurationMin: 10, Pitch: "Smooth for weeks"})

	inWindow := f.booking(t, "Sarah Lee", "+15125550100", "Brazilian Wax", 60, 20*time.Hour)
	f.booking(t, "Late Larry", "+15125550101", "Brazilian Wax", 60, 48*time.Hour)

	results, err := f.engine.ProcessUpsellWindow(ctx, f.studioID)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, inWindow, results[0].BookingID)
	assert.Equal(t, "Sarah", results[0].ClientName)
	assert.Equal(t, "Ingrown Treatment", results[0].AddonOffered)
	assert.Equal(t, "SM-test", results[0].SMSSID)
	require.Len(t, f.texter.sent, 1)
	assert.Equal(t, "+15125550100", f.texter.sent[0].to)
	assert.Contains(t, f.fake.UserMessage(0), "Pitch angle: Smooth for weeks")

	offer, err := f.offers.ForBooking(ctx, inWindow)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, models.OfferOpen, offer.Status)
	assert.Equal(t, 15.0, offer.AddonPrice)

	t.Run("Second sweep sends nothing", func(t *testing.T) {
		results, err := f.engine.ProcessUpsellWindow(ctx, f.studioID)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Len(t, f.texter.sent, 1)
		assert.Equal(t, 1, f.fake.CallCount())
	})
}

func TestProcessUpsellWindow_SkipsWithoutAddonsAndPhone(t *testing.T) {
	f := setup(t, `{"sms_body": "Hey Pat! Add a Brow Tint? Reply YES!"}`)
	ctx := context.Background()

	f.booking(t, "Pat", "", "Brow Lamination", 50, time.Hour)

	results, err := f.engine.ProcessUpsellWindow(ctx, f.studioID)
	require.NoError(t, err)
	assert.Empty(t, results)

	f.addService(t, "Brow Lamination", models.Addon{Name: "Brow Tint", Price: 12, DurationMin: 10})

	results, err = f.engine.ProcessUpsellWindow(ctx, f.studioID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "no_phone", results[0].SMSSID)
	assert.Empty(t, f.texter.sent)
}

func TestProcessUpsellWindow_SMSErrorPropagates(t *testing.T) {
	f := setup(t, `{"sms_body": "hi"}`)
	f.addService(t, "Brazilian Wax", models.Addon{Name: "Ingrown Treatment", Price: 15})
	f.booking(t, "Sarah", "+15125550100", "Brazilian Wax", 60, time.Hour)
	f.texter.err = errors.New("twilio down")

	_, err := f.engine.ProcessUpsellWindow(context.Background(), f.studioID)
	assert.ErrorContains(t, err, "twilio down")
}

func TestHandleUpsellReply(t *testing.T) {
	ctx := context.Background()

	t.Run("Yes applies the offered add-on once", func(t *testing.T) {
		f := setup(t, `{"sms_body": "Add an Ingrown Treatment? Reply YES!"}`)
		f.addService(t, "Lash Lift", models.Addon{Name: "Lash Tint", Price: 20})
		f.addService(t, "Brazilian Wax", models.Addon{Name: "Ingrown Treatment", Price: 15})
		bookingID := f.booking(t, "Sarah Lee", "+15125550100", "Brazilian Wax", 60, time.Hour)

		_, err := f.engine.ProcessUpsellWindow(ctx, f.studioID)
		require.NoError(t, err)

		result, err := f.engine.HandleUpsellReply(ctx, ReplyInput{BookingID: bookingID, ReplyText: " Yes please ", StudioID: f.studioID})
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		assert.False(t, result.Duplicate)
		// the offer wins over the studio's first add-on
		assert.Equal(t, "Ingrown Treatment", result.Addon)
		assert.Equal(t, 15.0, result.AddedRevenue)

		booking, err := f.lifecycle.GetBooking(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, 75.0, booking.FinalPrice)
		assert.Equal(t, []models.AppliedAddon{{Name: "Ingrown Treatment", Price: 15}}, booking.AddOns)

		offer, err := f.offers.ForBooking(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, models.OfferAccepted, offer.Status)

		again, err := f.engine.HandleUpsellReply(ctx, ReplyInput{BookingID: bookingID, ReplyText: "yes", StudioID: f.studioID})
		require.NoError(t, err)
		assert.True(t, again.Accepted)
		assert.True(t, again.Duplicate)

		booking, err = f.lifecycle.GetBooking(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, 75.0, booking.FinalPrice)
		assert.Len(t, booking.AddOns, 1)
	})

	t.Run("Declined leaves the booking alone", func(t *testing.T) {
		f := setup(t, `{"sms_body": "Add one?"}`)
		f.addService(t, "Brazilian Wax", models.Addon{Name: "Ingrown Treatment", Price: 15})
		bookingID := f.booking(t, "Sarah Lee", "+15125550100", "Brazilian Wax", 60, time.Hour)
		_, err := f.engine.ProcessUpsellWindow(ctx, f.studioID)
		require.NoError(t, err)

		result, err := f.engine.HandleUpsellReply(ctx, ReplyInput{BookingID: bookingID, ReplyText: "no thanks", StudioID: f.studioID})
		require.NoError(t, err)
		assert.False(t, result.Accepted)

		booking, err := f.lifecycle.GetBooking(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, 60.0, booking.FinalPrice)
		assert.Empty(t, booking.AddOns)

		offer, err := f.offers.ForBooking(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, models.OfferDeclined, offer.Status)

		events, err := f.audit.Recent(ctx, f.studioID, 1)
		require.NoError(t, err)
		assert.Equal(t, "upsell_declined", events[0].Action)
	})

	t.Run("No offer falls back to first studio add-on", func(t *testing.T) {
		f := setup(t)
		f.addService(t, "Lash Lift", models.Addon{Name: "Lash Tint", Price: 20})
		bookingID := f.booking(t, "Sarah", "", "Brazilian Wax", 60, time.Hour)

		result, err := f.engine.HandleUpsellReply(ctx, ReplyInput{BookingID: bookingID, ReplyText: "yep"})
		require.NoError(t, err)
		assert.Equal(t, "Lash Tint", result.Addon)
		assert.Equal(t, 20.0, result.AddedRevenue)
	})

	t.Run("No add-ons at all uses generic fallback", func(t *testing.T) {
		f := setup(t)
		bookingID := f.booking(t, "Sarah", "", "Brazilian Wax", 60, time.Hour)

		result, err := f.engine.HandleUpsellReply(ctx, ReplyInput{BookingID: bookingID, ReplyText: "ok", StudioID: f.studioID})
		require.NoError(t, err)
		assert.Equal(t, "Add-on", result.Addon)
		assert.Equal(t, 10.0, result.AddedRevenue)

		booking, err := f.lifecycle.GetBooking(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, 70.0, booking.FinalPrice)
	})

	t.Run("Missing booking", func(t *testing.T) {
		f := setup(t)

		_, err := f.engine.HandleUpsellReply(ctx, ReplyInput{BookingID: "missing", ReplyText: "yes"})
		assert.True(t, domain.IsNotFound(err))
	})
}
