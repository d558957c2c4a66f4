package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jordanlanch/beautyos/pkg/ai/llm/llmtest"
	"github.com/jordanlanch/beautyos/pkg/gapfill"
	"github.com/jordanlanch/beautyos/pkg/idempotency"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/revenue"
	"github.com/jordanlanch/beautyos/pkg/vibecheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTexter struct {
	bodies []string
}

func (s *stubTexter) Send(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "no_phone", nil
	}
	s.bodies = append(s.bodies, body)
	return "SM-test", nil
}

type agentFixture struct {
	*fixture
	handler *AgentHandler
	llm     *llmtest.Fake
	texter  *stubTexter
	spy     *recorderSpy
}

func setupAgents(t *testing.T, replies ...string) *agentFixture {
	f := setup(t)
	idem := idempotency.NewDBStore(f.db.Bun)
	af := &agentFixture{
		fixture: f,
		llm:     llmtest.New(replies...),
		texter:  &stubTexter{},
		spy:     &recorderSpy{},
	}

	vibe := vibecheck.NewAgent(f.tenants, f.lifecycle, f.audit, af.llm, logger.Discard())
	engine := revenue.NewEngine(revenue.Deps{
		Tenants:     f.tenants,
		Lifecycle:   f.lifecycle,
		Offers:      revenue.NewOfferStore(f.db.Bun),
		Audit:       f.audit,
		Idempotency: idem,
		LLM:         af.llm,
		SMS:         af.texter,
	}, logger.Discard())
	gap := gapfill.NewAgent(f.tenants, f.lifecycle, f.audit, idem, af.texter, "The Beauty Studio", logger.Discard())

	af.handler = NewAgentHandler(vibe, engine, gap, af.spy)
	return af
}

func TestVibeCheckHandler(t *testing.T) {
	f := setupAgents(t, `{"is_approved": false, "vibe_score": 0.1, "reasoning": "Wants to skip the deposit", "draft_reply": "Our deposit policy is firm, sorry!", "requires_policy_confirmation": false, "detected_intent": "policy_bypass"}`)

	c, rec := f.request(http.MethodPost, "/api/vibe-check", `{"message":"can I skip the deposit?","sender_ig":"skipper"}`)
	require.NoError(t, f.handler.VibeCheck(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["is_approved"])
	assert.Equal(t, "declined", body["status"])
	assert.Equal(t, 1, f.spy.runs[models.AgentVibeCheck])

	c, rec = f.request(http.MethodPost, "/api/vibe-check", `{"sender_ig":"skipper"}`)
	require.NoError(t, f.handler.VibeCheck(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVibeCheckHandler_MalformedLLM(t *testing.T) {
	f := setupAgents(t, "I think they seem nice!")

	c, rec := f.request(http.MethodPost, "/api/vibe-check", `{"message":"hi!"}`)
	require.NoError(t, f.handler.VibeCheck(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "llm_malformed_response", decode(t, rec)["error"])
	assert.Equal(t, 1, f.spy.errs)
}

func TestConfirmPolicyHandler_UnknownClient(t *testing.T) {
	f := setupAgents(t)

	c, rec := f.request(http.MethodPost, "/api/vibe-check/confirm", `{"client_id":"missing","message":"yes I agree"}`)
	require.NoError(t, f.handler.ConfirmPolicy(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsellHandlers(t *testing.T) {
	f := setupAgents(t)

	c, rec := f.request(http.MethodPost, "/api/upsell/process", "")
	require.NoError(t, f.handler.ProcessUpsell(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 0, body["upsells_sent"])
	assert.Empty(t, body["details"])

	c, rec = f.request(http.MethodPost, "/api/upsell/reply", `{"booking_id":"missing","reply_text":"yes"}`)
	require.NoError(t, f.handler.UpsellReply(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGapFillHandlers(t *testing.T) {
	f := setupAgents(t)
	ctx := context.Background()
	slot := time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)

	canceller, err := f.lifecycle.CreateClient(ctx, lifecycle.NewClient{Name: "Casey", Phone: "+15125550199", StudioID: f.studio.ID})
	require.NoError(t, err)
	bookingID, err := f.lifecycle.CreateBooking(ctx, lifecycle.NewBooking{
		ClientID: canceller, Service: "Brazilian Wax", Price: 60, ScheduledAt: slot, StudioID: f.studio.ID,
	})
	require.NoError(t, err)
	waiting, err := f.lifecycle.CreateClient(ctx, lifecycle.NewClient{Name: "Sarah Lee", Phone: "+15125550123", StudioID: f.studio.ID})
	require.NoError(t, err)
	_, err = f.lifecycle.AddToWaitlist(ctx, lifecycle.NewWaitlistEntry{ClientID: waiting, Service: "Brazilian Wax", StudioID: f.studio.ID})
	require.NoError(t, err)

	c, rec := f.request(http.MethodPost, "/api/gap-fill/cancel", `{"booking_id":"`+bookingID+`"}`)
	require.NoError(t, f.handler.GapFillCancel(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["waitlist_notified"])
	require.Len(t, f.texter.bodies, 1)
	assert.Contains(t, f.texter.bodies[0], "Hey Sarah!")

	reply := `{"client_id":"` + waiting + `","service":"Brazilian Wax","scheduled_at":"2026-03-06T14:00:00Z","price":60,"reply_text":"Grab it"}`
	c, rec = f.request(http.MethodPost, "/api/gap-fill/reply", reply)
	require.NoError(t, f.handler.GapFillReply(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, true, body["filled"])
	assert.NotEmpty(t, body["booking_id"])

	c, rec = f.request(http.MethodPost, "/api/gap-fill/reply", `{"client_id":"x","service":"Brazilian Wax","price":60,"reply_text":"yes"}`)
	require.NoError(t, f.handler.GapFillReply(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "scheduled_at is required")

	c, rec = f.request(http.MethodPost, "/api/gap-fill/reply", `{"client_id":"`+waiting+`","service":"Brazilian Wax","scheduled_at":"0001-01-01T00:00:00Z","reply_text":"yes"}`)
	require.NoError(t, f.handler.GapFillReply(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "zero scheduled_at is rejected")

	c, rec = f.request(http.MethodPost, "/api/gap-fill/reply", `{"client_id":"nobody","service":"Brazilian Wax","scheduled_at":"2026-03-06T15:00:00Z","reply_text":"yes"}`)
	require.NoError(t, f.handler.GapFillReply(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 3, f.spy.runs[models.AgentGapFiller])
}
