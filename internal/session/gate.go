package session

import (
	"context"
	"log/slog"
)

// View is one of the two mutually exclusive views
type View string

const (
	ViewActivation View = "activation"
	ViewMain       View = "main"
)

// Gate decides which view is shown from the presence of a license token
type Gate struct {
	session *Session
}

// NewGate creates a gate over s
func NewGate(s *Session) *Gate {
	return &Gate{session: s}
}

// Evaluate returns ViewMain when a non-empty license token is stored and
// ViewActivation otherwise. A store failure counts as no token.
func (g *Gate) Evaluate(ctx context.Context) View {
	token, err := g.session.LicenseToken(ctx)
	if err != nil {
		g.session.logger.WarnContext(ctx, "License token unreadable, showing activation view",
			slog.String("error", err.Error()))
		return ViewActivation
	}
	if token == "" {
		return ViewActivation
	}
	return ViewMain
}
