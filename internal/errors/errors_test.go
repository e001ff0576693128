package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      *ExchangeError
		sentinel error
		others   []error
		message  string
	}{
		{
			name:     "validation",
			err:      Validation("submission", "Keyword and email are required."),
			sentinel: ErrValidation,
			others:   []error{ErrServer, ErrTransport},
			message:  "submission: Keyword and email are required.",
		},
		{
			name:     "server with detail",
			err:      Server("activation", 403, "bad key"),
			sentinel: ErrServer,
			others:   []error{ErrValidation, ErrTransport},
			message:  "activation: server returned 403: bad key",
		},
		{
			name:     "server without detail",
			err:      Server("activation", 500, ""),
			sentinel: ErrServer,
			others:   []error{ErrValidation, ErrTransport},
			message:  "activation: server returned 500",
		},
		{
			name:     "transport",
			err:      Transport("submission", errors.New("connection refused")),
			sentinel: ErrTransport,
			others:   []error{ErrValidation, ErrServer},
			message:  "submission: request could not be completed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			for _, other := range tt.others {
				assert.NotErrorIs(t, wrapped, other)
			}
			assert.Equal(t, tt.message, tt.err.Error())

			ee, ok := AsExchange(wrapped)
			require.True(t, ok)
			assert.Same(t, tt.err, ee)
		})
	}
}

func TestTransportUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Transport("activation", cause)
	assert.ErrorIs(t, err, cause)
}

func TestAsExchangeMiss(t *testing.T) {
	_, ok := AsExchange(errors.New("plain"))
	assert.False(t, ok)
}

func TestAPIErrorRender(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/activate", nil)

	render.Render(rec, req, ErrControlDisabled.WithTrace("trace-1"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error_code":"CONTROL_DISABLED"`)
	assert.Contains(t, rec.Body.String(), `"trace_id":"trace-1"`)
	assert.Empty(t, ErrControlDisabled.TraceID)
}

func TestBadRequestCarriesDecodeError(t *testing.T) {
	err := BadRequest(errors.New("unexpected EOF"))

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeInvalidRequest, err.ErrorCode)
	assert.Equal(t, "unexpected EOF", err.Details)
	assert.Equal(t, "INVALID_REQUEST: Request body is not valid JSON", err.Error())
	assert.Nil(t, ErrInvalidRequest.Details, "the shared value is not modified")

	rec := httptest.NewRecorder()
	render.Render(rec, httptest.NewRequest(http.MethodPost, "/api/submit", nil), err.WithTrace("trace-2"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"details":"unexpected EOF"`)
}
