package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jordanlanch/beautyos/pkg/audit"
	"github.com/jordanlanch/beautyos/pkg/database"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/middleware"
	"github.com/jordanlanch/beautyos/pkg/socialleads"
	"github.com/jordanlanch/beautyos/pkg/tenant"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	e         *echo.Echo
	db        *database.Client
	tenants   *tenant.Store
	lifecycle *lifecycle.Store
	leads     *socialleads.Store
	audit     *audit.Service
	studio    *tenant.CreatedStudio
}

func setup(t *testing.T) *fixture {
	ctx := context.Background()
	db, err := database.OpenInMemory(ctx, t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := echo.New()
	e.Validator = NewValidator()

	f := &fixture{
		e:         e,
		db:        db,
		tenants:   tenant.NewStore(db.Bun),
		lifecycle: lifecycle.NewStore(db.Bun),
		leads:     socialleads.NewStore(db.Bun),
		audit:     audit.NewService(db.Bun),
	}
	f.studio, err = f.tenants.CreateStudio(ctx, tenant.CreateStudioInput{
		Name:      "Nails by Nina",
		OwnerName: "Nina",
		Email:     "nina@example.com",
	})
	require.NoError(t, err)
	return f
}

// request builds an authenticated context. params are name/value pairs.
func (f *fixture) request(method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := f.anonymous(method, target, body, params...)
	c.Set(middleware.ContextStudioID, f.studio.ID)
	return c, rec
}

func (f *fixture) anonymous(method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type recorderSpy struct {
	runs map[string]int
	errs int
}

func (r *recorderSpy) RecordAgentRun(agent string, err error) {
	if r.runs == nil {
		r.runs = map[string]int{}
	}
	r.runs[agent]++
	if err != nil {
		r.errs++
	}
}
