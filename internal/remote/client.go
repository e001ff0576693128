// Package remote performs the JSON POST exchanges with the activation and
// task-intake endpoints. It classifies outcomes into the exchange error
// taxonomy and records a span and metrics for every request.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"taskgate/internal/config"
	apierrors "taskgate/internal/errors"
	"taskgate/internal/infrastructure"
)

// maxBodySize caps how much of a response body is read
const maxBodySize = 1 << 20

// Outcome labels recorded on exchange metrics
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
)

// Options configures a Client
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	Tracer     trace.Tracer
	Metrics    *infrastructure.ExchangeMetrics
	Logger     *slog.Logger
}

// Client sends JSON POST requests
type Client struct {
	http      *http.Client
	userAgent string
	tracer    trace.Tracer
	metrics   *infrastructure.ExchangeMetrics
	logger    *slog.Logger
}

// New creates a Client. A nil HTTPClient gets one with opts.Timeout.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = config.DefaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.TracerName)
	}

	return &Client{
		http:      httpClient,
		userAgent: userAgent,
		tracer:    tracer,
		metrics:   opts.Metrics,
		logger:    infrastructure.WithComponent(opts.Logger, "remote"),
	}
}

// Response is a received HTTP response with its body read
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrNotJSON reports a response body that does not decode as a JSON value
var ErrNotJSON = errors.New("response body is not JSON")

// DecodeJSON unmarshals the body into v. A body that is not valid JSON
// returns an error wrapping ErrNotJSON.
func (r *Response) DecodeJSON(v any) error {
	if !json.Valid(r.Body) {
		return fmt.Errorf("status %d: %w", r.StatusCode, ErrNotJSON)
	}
	return json.Unmarshal(r.Body, v)
}

// Detail returns the string "detail" field of a JSON object body. Valid JSON
// without a string detail yields "". A body that is not JSON, or is JSON
// null, fails with ErrNotJSON.
func (r *Response) Detail() (string, error) {
	var body any
	if err := r.DecodeJSON(&body); err != nil {
		return "", err
	}
	if body == nil {
		return "", fmt.Errorf("status %d: null body: %w", r.StatusCode, ErrNotJSON)
	}
	obj, _ := body.(map[string]any)
	detail, _ := obj["detail"].(string)
	return detail, nil
}

// PostJSON sends payload to url. Any received response is returned with a nil
// error whatever its status. A request that produced no response returns a
// transport *ExchangeError.
func (c *Client) PostJSON(ctx context.Context, action, url string, payload any) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "remote."+action,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("remote.action", action),
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.full", url),
		),
	)
	defer span.End()

	done := c.metrics.Begin(ctx, action)
	start := time.Now()

	data, err := json.Marshal(payload)
	if err != nil {
		done(OutcomeTransport)
		return nil, c.transportFailure(ctx, span, action, fmt.Errorf("encode request: %w", err), start)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		done(OutcomeTransport)
		return nil, c.transportFailure(ctx, span, action, fmt.Errorf("create request: %w", err), start)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		done(OutcomeTransport)
		return nil, c.transportFailure(ctx, span, action, err, start)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		done(OutcomeTransport)
		return nil, c.transportFailure(ctx, span, action, fmt.Errorf("read response: %w", err), start)
	}

	result := &Response{StatusCode: resp.StatusCode, Body: body}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if result.OK() {
		done(OutcomeOK)
		span.SetStatus(codes.Ok, "")
		c.logger.DebugContext(ctx, "Remote exchange completed",
			slog.String("action", action),
			slog.Int("status_code", resp.StatusCode),
			slog.Duration("duration", time.Since(start)))
	} else {
		done(OutcomeRejected)
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		c.logger.WarnContext(ctx, "Remote exchange rejected",
			slog.String("action", action),
			slog.Int("status_code", resp.StatusCode),
			slog.Duration("duration", time.Since(start)))
	}

	return result, nil
}

func (c *Client) transportFailure(ctx context.Context, span trace.Span, action string, err error, start time.Time) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	c.logger.ErrorContext(ctx, "Remote exchange failed without a response",
		slog.String("action", action),
		slog.String("error", err.Error()),
		slog.Duration("duration", time.Since(start)))

	return apierrors.Transport(action, err)
}
