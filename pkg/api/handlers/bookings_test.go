package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	f := setup(t)
	h := NewBookingHandler(f.lifecycle)

	t.Run("creates client from details", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/bookings",
			`{"client_name":"Sarah Lee","client_phone":"(512) 555-0123","service":"Gel Manicure","price":45,"scheduled_at":"2026-03-06T14:00:00Z","source":"web"}`)
		require.NoError(t, h.CreateBooking(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, "web", body["source"])
		assert.EqualValues(t, 45, body["final_price"])

		client, err := f.lifecycle.GetClient(context.Background(), body["client_id"].(string))
		require.NoError(t, err)
		assert.Equal(t, "+15125550123", client.Phone)
		assert.Equal(t, f.studio.ID, client.StudioID)
	})

	t.Run("needs a client", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/bookings", `{"service":"Gel Manicure","scheduled_at":"2026-03-06T14:00:00Z"}`)
		require.NoError(t, h.CreateBooking(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/bookings",
			`{"client_name":"Sam","service":"Gel Manicure","scheduled_at":"2026-03-06T14:00:00Z","source":"tiktok"}`)
		require.NoError(t, h.CreateBooking(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects zero scheduled_at", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/bookings",
			`{"client_name":"Sam","service":"Gel Manicure","scheduled_at":"0001-01-01T00:00:00Z"}`)
		require.NoError(t, h.CreateBooking(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects bad phone", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/bookings",
			`{"client_name":"Sam","client_phone":"12","service":"Gel Manicure","scheduled_at":"2026-03-06T14:00:00Z"}`)
		require.NoError(t, h.CreateBooking(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("client of another studio is not found", func(t *testing.T) {
		ctx := context.Background()
		other, err := f.tenants.CreateStudio(ctx, tenant.CreateStudioInput{Name: "Brow Bar", OwnerName: "Bo"})
		require.NoError(t, err)
		clientID, err := f.lifecycle.CreateClient(ctx, lifecycle.NewClient{Name: "Taylor", StudioID: other.ID})
		require.NoError(t, err)

		c, rec := f.request(http.MethodPost, "/api/bookings",
			`{"client_id":"`+clientID+`","service":"Gel Manicure","scheduled_at":"2026-03-06T14:00:00Z"}`)
		require.NoError(t, h.CreateBooking(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAddToWaitlist(t *testing.T) {
	f := setup(t)
	h := NewBookingHandler(f.lifecycle)
	ctx := context.Background()

	clientID, err := f.lifecycle.CreateClient(ctx, lifecycle.NewClient{Name: "Sarah Lee", Phone: "+15125550123", StudioID: f.studio.ID})
	require.NoError(t, err)

	c, rec := f.request(http.MethodPost, "/api/waitlist", `{"client_id":"`+clientID+`","service":"Brazilian Wax","preferred_at":"Fridays"}`)
	require.NoError(t, h.AddToWaitlist(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, clientID, decode(t, rec)["client_id"])

	entries, err := f.lifecycle.FindWaitlistForService(ctx, "Brazilian Wax", f.studio.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Fridays", entries[0].PreferredAt)
}
