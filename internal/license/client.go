package license

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "taskgate/internal/errors"
	"taskgate/internal/infrastructure"
	"taskgate/internal/remote"
	"taskgate/internal/validation"
)

// MsgEmptyKey is shown when the product key is blank
const MsgEmptyKey = "Product key cannot be empty!"

const action = infrastructure.ActionActivation

// ActivationRequest is the body sent to the activation endpoint
type ActivationRequest struct {
	ProductKey string `json:"product_key" validate:"required"`
	MachineID  string `json:"machine_id" validate:"required"`
}

// ActivationResponse is the body of a successful activation
type ActivationResponse struct {
	LicenseKey string `json:"license_key"`
}

// Activator exchanges a product key for a license token
type Activator interface {
	Activate(ctx context.Context, productKey, machineID string) (string, error)
}

// Client talks to the activation endpoint
type Client struct {
	remote   *remote.Client
	url      string
	validate *validator.Validate
	logger   *slog.Logger
}

var _ Activator = (*Client)(nil)

// NewClient creates an activation client posting to url
func NewClient(rc *remote.Client, url string, logger *slog.Logger) *Client {
	return &Client{
		remote:   rc,
		url:      url,
		validate: validation.New(),
		logger:   infrastructure.WithComponent(logger, "license"),
	}
}

// NormalizeProductKey trims key and returns a validation error if nothing is left
func NormalizeProductKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", apierrors.Validation(action, MsgEmptyKey)
	}
	return key, nil
}

// Activate sends the product key and machine id and returns the license token
func (c *Client) Activate(ctx context.Context, productKey, machineID string) (string, error) {
	productKey, err := NormalizeProductKey(productKey)
	if err != nil {
		return "", err
	}

	req := ActivationRequest{ProductKey: productKey, MachineID: machineID}
	if err := c.validate.Struct(req); err != nil {
		// the key is already checked, so only the machine id can be missing
		return "", apierrors.Validation(action, "machine id is required")
	}

	c.logger.InfoContext(ctx, "Activating product key",
		slog.String("product_key", infrastructure.MaskSecret(productKey)),
		slog.String("machine_id", machineID),
		slog.String("endpoint", c.url))

	resp, err := c.remote.PostJSON(ctx, action, c.url, req)
	if err != nil {
		return "", err
	}

	if !resp.OK() {
		detail, err := resp.Detail()
		if err != nil {
			return "", c.unreadable(ctx, resp, err)
		}
		c.logger.WarnContext(ctx, "Activation rejected",
			slog.Int("status_code", resp.StatusCode),
			slog.String("detail", detail))
		return "", apierrors.Server(action, resp.StatusCode, detail)
	}

	var body ActivationResponse
	if err := resp.DecodeJSON(&body); errors.Is(err, remote.ErrNotJSON) {
		return "", c.unreadable(ctx, resp, err)
	} else if err != nil || body.LicenseKey == "" {
		c.logger.ErrorContext(ctx, "Activation response carried no license token",
			slog.Int("status_code", resp.StatusCode),
			slog.Int("body_size", len(resp.Body)))
		return "", apierrors.Server(action, resp.StatusCode, "")
	}

	c.logger.InfoContext(ctx, "Product key activated",
		slog.String("license_key", infrastructure.MaskSecret(body.LicenseKey)))

	return body.LicenseKey, nil
}

// unreadable reports a response whose body could not be read as JSON. The
// exchange is treated like one that never completed.
func (c *Client) unreadable(ctx context.Context, resp *remote.Response, err error) error {
	c.logger.ErrorContext(ctx, "Activation response could not be decoded",
		slog.Int("status_code", resp.StatusCode),
		slog.Int("body_size", len(resp.Body)),
		slog.String("error", err.Error()))
	return apierrors.Transport(action, err)
}
