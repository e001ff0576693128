package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"taskgate/internal/config"
	"taskgate/internal/infrastructure"
	"taskgate/internal/storage"
)

// Session provides typed accessors over the durable store
type Session struct {
	store  storage.Store
	logger *slog.Logger

	// deviceMu serializes generate-if-absent so concurrent first reads agree
	deviceMu sync.Mutex
	newID    func() string
}

// New creates a session backed by store
func New(store storage.Store, logger *slog.Logger) *Session {
	return &Session{
		store:  store,
		logger: infrastructure.WithComponent(logger, "session"),
		newID:  func() string { return uuid.New().String() },
	}
}

// DeviceID returns the installation's device identifier, generating and
// persisting a random one on first use.
func (s *Session) DeviceID(ctx context.Context) (string, error) {
	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	id, ok, err := s.store.Get(ctx, config.KeyDeviceID)
	if err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = s.newID()
	if err := s.store.Set(ctx, config.KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}

	s.logger.InfoContext(ctx, "Generated device identifier", slog.String("device_id", id))
	return id, nil
}

// LicenseToken returns the stored license token, or "" when none was stored
func (s *Session) LicenseToken(ctx context.Context) (string, error) {
	v, _, err := s.store.Get(ctx, config.KeyLicenseToken)
	if err != nil {
		return "", fmt.Errorf("read license token: %w", err)
	}
	return v, nil
}

// SetLicenseToken overwrites the stored license token
func (s *Session) SetLicenseToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, config.KeyLicenseToken, token); err != nil {
		return fmt.Errorf("persist license token: %w", err)
	}
	s.logger.InfoContext(ctx, "License token stored",
		slog.String("license_key", infrastructure.MaskSecret(token)))
	return nil
}

// LastEmail returns the last successfully submitted email, or ""
func (s *Session) LastEmail(ctx context.Context) (string, error) {
	v, _, err := s.store.Get(ctx, config.KeyLastEmail)
	if err != nil {
		return "", fmt.Errorf("read last email: %w", err)
	}
	return v, nil
}

// SetLastEmail overwrites the last-used email
func (s *Session) SetLastEmail(ctx context.Context, email string) error {
	if err := s.store.Set(ctx, config.KeyLastEmail, email); err != nil {
		return fmt.Errorf("persist last email: %w", err)
	}
	return nil
}
