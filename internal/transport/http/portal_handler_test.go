package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskgate/internal/portal"
	"taskgate/internal/session"
)

// MockPortalService implements PortalService for testing
type MockPortalService struct {
	mock.Mock
}

func (m *MockPortalService) Snapshot() portal.Snapshot {
	return m.Called().Get(0).(portal.Snapshot)
}

func (m *MockPortalService) Load(ctx context.Context) (portal.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(portal.Snapshot), args.Error(1)
}

func (m *MockPortalService) Activate(ctx context.Context, productKey string) (portal.Snapshot, error) {
	args := m.Called(ctx, productKey)
	return args.Get(0).(portal.Snapshot), args.Error(1)
}

func (m *MockPortalService) Submit(ctx context.Context, keyword, email string) (portal.Snapshot, error) {
	args := m.Called(ctx, keyword, email)
	return args.Get(0).(portal.Snapshot), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func mainSnapshot() portal.Snapshot {
	return portal.Snapshot{
		Version: 3,
		View:    session.ViewMain,
		Activation: portal.Panel{
			Phase:   portal.PhaseSuccess,
			Enabled: false,
			Status:  portal.Status{Text: portal.MsgActivated, Class: portal.ClassSuccess},
		},
		Submission: portal.SubmissionPanel{
			Panel: portal.Panel{Phase: portal.PhaseIdle, Enabled: true, Status: portal.Status{Class: portal.ClassNeutral}},
			Email: "a@b.c",
		},
	}
}

func serve(t *testing.T, h *PortalHandler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestPortalHandler_GetState(t *testing.T) {
	svc := new(MockPortalService)
	svc.On("Snapshot").Return(mainSnapshot())

	rec := serve(t, NewPortalHandler(svc, testLogger()), http.MethodGet, "/state", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got portal.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, mainSnapshot(), got)
	svc.AssertExpectations(t)
}

func TestPortalHandler_Load(t *testing.T) {
	svc := new(MockPortalService)
	svc.On("Load", mock.Anything).Return(mainSnapshot(), nil)

	rec := serve(t, NewPortalHandler(svc, testLogger()), http.MethodPost, "/load", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"view":"main"`)
	svc.AssertExpectations(t)
}

func TestPortalHandler_Activate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockPortalService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "key is forwarded and snapshot returned",
			body: `{"product_key":"  ABC-123 "}`,
			setupMock: func(m *MockPortalService) {
				m.On("Activate", mock.Anything, "  ABC-123 ").Return(mainSnapshot(), nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"view":"main"`,
		},
		{
			name: "empty key still reaches the portal",
			body: `{}`,
			setupMock: func(m *MockPortalService) {
				snap := portal.Snapshot{View: session.ViewActivation, Activation: portal.Panel{
					Phase: portal.PhaseError, Enabled: true,
					Status: portal.Status{Text: "Product key cannot be empty!", Class: portal.ClassError},
				}}
				m.On("Activate", mock.Anything, "").Return(snap, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   "Product key cannot be empty!",
		},
		{
			name:       "malformed json",
			body:       `{"product_key":`,
			setupMock:  func(m *MockPortalService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "INVALID_REQUEST",
		},
		{
			name: "disabled control",
			body: `{"product_key":"k"}`,
			setupMock: func(m *MockPortalService) {
				m.On("Activate", mock.Anything, "k").Return(portal.Snapshot{}, portal.ErrControlDisabled)
			},
			wantStatus: http.StatusConflict,
			wantBody:   "CONTROL_DISABLED",
		},
		{
			name: "hidden view",
			body: `{"product_key":"k"}`,
			setupMock: func(m *MockPortalService) {
				m.On("Activate", mock.Anything, "k").Return(portal.Snapshot{}, portal.ErrViewInactive)
			},
			wantStatus: http.StatusConflict,
			wantBody:   "VIEW_INACTIVE",
		},
		{
			name: "closed portal",
			body: `{"product_key":"k"}`,
			setupMock: func(m *MockPortalService) {
				m.On("Activate", mock.Anything, "k").Return(portal.Snapshot{}, portal.ErrClosed)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "SERVICE_UNAVAILABLE",
		},
		{
			name: "unexpected error",
			body: `{"product_key":"k"}`,
			setupMock: func(m *MockPortalService) {
				m.On("Activate", mock.Anything, "k").Return(portal.Snapshot{}, fmt.Errorf("boom"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPortalService)
			tt.setupMock(svc)

			rec := serve(t, NewPortalHandler(svc, testLogger()), http.MethodPost, "/activate", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestPortalHandler_Submit(t *testing.T) {
	t.Run("fields are forwarded untouched", func(t *testing.T) {
		svc := new(MockPortalService)
		snap := mainSnapshot()
		snap.Submission.Phase = portal.PhaseSuccess
		snap.Submission.Status = portal.Status{Text: portal.MsgSubmitted, Class: portal.ClassSuccess}
		svc.On("Submit", mock.Anything, " go ", "a@b.c").Return(snap, nil)

		rec := serve(t, NewPortalHandler(svc, testLogger()), http.MethodPost, "/submit",
			`{"keyword":" go ","email":"a@b.c"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var got portal.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, portal.PhaseSuccess, got.Submission.Phase)
		svc.AssertExpectations(t)
	})

	t.Run("disabled control", func(t *testing.T) {
		svc := new(MockPortalService)
		svc.On("Submit", mock.Anything, "k", "e").Return(portal.Snapshot{}, portal.ErrControlDisabled)

		rec := serve(t, NewPortalHandler(svc, testLogger()), http.MethodPost, "/submit",
			`{"keyword":"k","email":"e"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		svc := new(MockPortalService)
		rec := serve(t, NewPortalHandler(svc, testLogger()), http.MethodGet, "/submit", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
	})
}
