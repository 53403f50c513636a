// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/gaiaresources/bdrs-review/internal/authz"
	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/facet"
	"github.com/gaiaresources/bdrs-review/internal/importer"
	"github.com/gaiaresources/bdrs-review/internal/review"
	"github.com/gaiaresources/bdrs-review/internal/session"
	"github.com/gaiaresources/bdrs-review/internal/testinfra"
)

type testServer struct {
	handler http.Handler
	db      *database.DB
	cfg     *config.Config
	fx      testinfra.Fixture
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultPageSize:  20,
			MaxPageSize:      500,
			ResultsBatchSize: 2,
		},
		Security: config.SecurityConfig{RateLimitDisabled: true},
		Session: config.SessionConfig{
			InMemory:   true,
			TTL:        time.Hour,
			CookieName: session.DefaultCookieName,
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testinfra.NewDB(t)
	fx := testinfra.Seed(t, db)
	cfg := testConfig()

	enforcer, err := authz.NewEnforcer(authz.Config{DecisionTTL: -1})
	require.NoError(t, err)
	t.Cleanup(enforcer.Close)

	sessions := session.NewMemoryStore(cfg.Session.TTL)
	t.Cleanup(func() { _ = sessions.Close() })

	h := NewHandler(Deps{
		DB:       db,
		Review:   review.NewService(db, facet.NewRegistry(time.Minute), cfg.API),
		Sessions: sessions,
		Importer: importer.NewRegistry(db, nil, nil),
		Enforcer: enforcer,
		Config:   cfg,
	})
	return &testServer{
		handler: NewRouter(h, ChiMiddlewareConfigFrom(cfg.Security)).SetupChi(),
		db:      db,
		cfg:     cfg,
		fx:      fx,
	}
}

// do sends a request under /api/v1. ident may be empty.
func (s *testServer) do(t *testing.T, method, path, ident string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, APIPrefix+path, body)
	if ident != "" {
		req.Header.Set(HeaderIdent, ident)
	}
	if method == http.MethodPost && body != nil && !strings.HasPrefix(path, "/import") && !strings.HasPrefix(path, "/record") {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(t *testing.T, path, ident string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodGet, path, ident, nil)
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}

func form(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Add(kv[i], kv[i+1])
	}
	return v
}
