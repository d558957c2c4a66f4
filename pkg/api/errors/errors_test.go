package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jordanlanch/beautyos/pkg/ai/llm"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestFromDomain_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domain.NewNotFoundError("booking"), http.StatusNotFound, "not_found"},
		{"conflict", domain.NewConflictError("email taken"), http.StatusConflict, "conflict"},
		{"invalid transition", lifecycle.RejectTransition(models.IntakeApproved, models.IntakePending), http.StatusConflict, "invalid_state"},
		{"validation", domain.NewValidationError("bad"), http.StatusBadRequest, "validation_error"},
		{"bad request", domain.NewBadRequestError("bad"), http.StatusBadRequest, "bad_request"},
		{"unauthorized", domain.NewUnauthorizedError(), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", domain.NewForbiddenError("no"), http.StatusForbidden, "forbidden"},
		{"wrapped", fmt.Errorf("handler: %w", domain.NewNotFoundError("lead")), http.StatusNotFound, "not_found"},
		{"malformed llm", &llm.MalformedResponseError{Raw: "??", Err: errors.New("bad json")}, http.StatusBadGateway, "llm_malformed_response"},
		{"plain error", errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
		{"internal domain error", domain.NewInternalError(errors.New("x")), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/vibe-check")
			require.NoError(t, FromDomain(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, parseBody(t, rec).Error)
		})
	}
}

func TestFromDomain_KeepsDomainMessage(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/social/leads/x")
	require.NoError(t, FromDomain(c, domain.NewNotFoundError("social lead")))
	assert.Equal(t, "social lead not found", parseBody(t, rec).Message)
}

func TestInternalError_HidesDetailsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(logger.NewWithWriter(&buf, "debug"))
	t.Cleanup(func() { SetLogger(logger.Default()) })

	c, rec := newContext(http.MethodGet, "/api/dashboard")
	require.NoError(t, InternalError(c, errors.New("sqlite: database is locked")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sqlite")
	assert.Contains(t, buf.String(), "database is locked")
	assert.Contains(t, buf.String(), "/api/dashboard")
}

func TestValidationError(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/services")
	require.NoError(t, ValidationError(c, errors.New("Name is required")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", parseBody(t, rec).Error)
	assert.NotContains(t, rec.Body.String(), "Name is required")
}

func TestNotFoundError(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/services/x")
	require.NoError(t, NotFoundError(c, "service"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "service not found", parseBody(t, rec).Message)
}
