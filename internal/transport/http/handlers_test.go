package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter int

func (c fixedCounter) ClientCount() int { return int(c) }

func TestHealthHandler(t *testing.T) {
	svc := new(MockPortalService)
	svc.On("Snapshot").Return(mainSnapshot())

	h := NewHealthHandler(svc, fixedCounter(2), testLogger())
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "main", body.View)
	assert.Equal(t, 2, body.Clients)
}

func TestHealthHandlerWithoutHub(t *testing.T) {
	svc := new(MockPortalService)
	svc.On("Snapshot").Return(mainSnapshot())

	rec := httptest.NewRecorder()
	NewHealthHandler(svc, nil, testLogger()).HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientLogHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLevel  string
	}{
		{"error level", `{"level":"error","message":"fetch failed","source":"app.js"}`, http.StatusOK, "ERROR"},
		{"unknown level is info", `{"level":"loud","message":"hi"}`, http.StatusOK, "INFO"},
		{"invalid json", `not json`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewClientLogHandler(slog.New(slog.NewJSONHandler(&buf, nil)))

			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantLevel == "" {
				assert.Zero(t, buf.Len())
				return
			}
			var entry map[string]any
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "client_log", entry["handler"])
		})
	}
}

func TestServeIndex(t *testing.T) {
	pages := fstest.MapFS{
		"index.html": {Data: []byte("<html>taskgate</html>")},
		"app.js":     {Data: []byte("// js")},
	}

	rec := httptest.NewRecorder()
	ServeIndex(pages, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskgate")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	StaticFiles(pages).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ServeIndex(fstest.MapFS{}, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
