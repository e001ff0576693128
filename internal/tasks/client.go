// Package tasks submits keyword/email pairs to the task-intake endpoint.
package tasks

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "taskgate/internal/errors"
	"taskgate/internal/infrastructure"
	"taskgate/internal/remote"
	"taskgate/internal/validation"
)

// Validation messages
const (
	MsgFieldsRequired = "Keyword and email cannot be empty."
	MsgInvalidEmail   = "Please enter a valid email address."
)

const action = infrastructure.ActionSubmission

// Submission is the body sent to the task-intake endpoint
type Submission struct {
	Keyword string `json:"keyword" validate:"required"`
	Email   string `json:"email" validate:"required,looseemail"`
}

// Submitter sends a task submission
type Submitter interface {
	Submit(ctx context.Context, keyword, email string) error
}

// Client talks to the task-intake endpoint
type Client struct {
	remote   *remote.Client
	url      string
	validate *validator.Validate
	logger   *slog.Logger
}

var _ Submitter = (*Client)(nil)

// NewClient creates a submission client posting to url
func NewClient(rc *remote.Client, url string, logger *slog.Logger) *Client {
	return &Client{
		remote:   rc,
		url:      url,
		validate: validation.New(),
		logger:   infrastructure.WithComponent(logger, "tasks"),
	}
}

// Validator checks submissions without sending them
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator
func NewValidator() *Validator {
	return &Validator{validate: validation.New()}
}

// Check trims both fields and validates them. Missing fields are reported
// before a malformed email.
func (v *Validator) Check(keyword, email string) (Submission, error) {
	return check(v.validate, keyword, email)
}

func check(v *validator.Validate, keyword, email string) (Submission, error) {
	sub := Submission{
		Keyword: strings.TrimSpace(keyword),
		Email:   strings.TrimSpace(email),
	}

	if err := v.Struct(sub); err != nil {
		if validation.HasTag(err, "required") {
			return sub, apierrors.Validation(action, MsgFieldsRequired)
		}
		return sub, apierrors.Validation(action, MsgInvalidEmail)
	}
	return sub, nil
}

// Submit validates and posts the keyword and email. The response body of a
// 2xx is not inspected.
func (c *Client) Submit(ctx context.Context, keyword, email string) error {
	sub, err := check(c.validate, keyword, email)
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Submitting task",
		slog.String("keyword", sub.Keyword),
		slog.String("email", infrastructure.MaskEmail(sub.Email)),
		slog.String("endpoint", c.url))

	resp, err := c.remote.PostJSON(ctx, action, c.url, sub)
	if err != nil {
		return err
	}

	if !resp.OK() {
		detail, err := resp.Detail()
		if err != nil {
			c.logger.ErrorContext(ctx, "Task submission response could not be decoded",
				slog.Int("status_code", resp.StatusCode),
				slog.Int("body_size", len(resp.Body)),
				slog.String("error", err.Error()))
			return apierrors.Transport(action, err)
		}
		c.logger.WarnContext(ctx, "Task submission rejected",
			slog.Int("status_code", resp.StatusCode),
			slog.String("detail", detail))
		return apierrors.Server(action, resp.StatusCode, detail)
	}

	c.logger.InfoContext(ctx, "Task submitted", slog.Int("status_code", resp.StatusCode))
	return nil
}
