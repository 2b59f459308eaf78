package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennadev/penna/config"
	"github.com/pennadev/penna/site"
	"github.com/pennadev/penna/templatex"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Load(filepath.Join("testdata", "config.toml"))
	require.NoError(t, err)
	cfg.OutputDir = filepath.Join(t.TempDir(), "public")

	engine, err := templatex.Load(filepath.Join("testdata", "layouts"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := site.NewService(cfg, engine, logger)
	require.NoError(t, svc.BuildStatic(context.Background()))

	return New(cfg, svc, logger, "penna-test", nil, false)
}

func doRequest(t *testing.T, srv *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	srv.withServerHeader(srv.logRequests(srv.mux)).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "penna-test", rec.Header().Get("Server"))
}

func TestServePost(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/posts/welcome/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Welcome</h1>")

	// Pretty URL without the trailing slash resolves to the same document.
	rec = doRequest(t, srv, http.MethodGet, "/posts/welcome", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeHome(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}

func TestServeStaticFile(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/robots.txt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User-agent")
}

func TestServeNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/does/not/exist/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found:")
}

func TestServeRejectsMethods(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/posts/welcome/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSearchIndexEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/search-index.json", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload struct {
		DocCount int `json:"c"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.DocCount)
}

func TestWebhookRebuild(t *testing.T) {
	srv := newTestServer(t)

	rebuilt := false
	srv.rebuild = func(ctx context.Context) error {
		rebuilt = true
		return nil
	}

	header := http.Header{"Authorization": []string{"integration-secret"}}
	rec := doRequest(t, srv, http.MethodPost, "/api/webhook/rebuild", header)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, rebuilt)

	// Git info is disabled in the fixture, so no commit field is reported.
	assert.JSONEq(t, `{"status":"rebuilt"}`, rec.Body.String())
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	srv := newTestServer(t)

	header := http.Header{"Authorization": []string{"wrong"}}
	rec := doRequest(t, srv, http.MethodPost, "/api/webhook/rebuild", header)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/webhook/rebuild", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookMethodAndDisabled(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/webhook/rebuild", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	srv.cfg.Webhook.Enabled = false
	rec = doRequest(t, srv, http.MethodPost, "/api/webhook/rebuild", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookRebuildFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.rebuild = func(ctx context.Context) error {
		return errors.New("boom")
	}

	header := http.Header{"Authorization": []string{"integration-secret"}}
	rec := doRequest(t, srv, http.MethodPost, "/api/webhook/rebuild", header)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIsWithin(t *testing.T) {
	assert.True(t, isWithin("public", filepath.Join("public", "index.html")))
	assert.True(t, isWithin("public", "public"))
	assert.False(t, isWithin("public", filepath.Join("public", "..", "secret")))
	assert.False(t, isWithin("public", "elsewhere"))
}
