package http

import (
	"context"

	"taskgate/internal/portal"
)

// PortalService is the view model the handlers drive
type PortalService interface {
	Snapshot() portal.Snapshot
	Load(ctx context.Context) (portal.Snapshot, error)
	Activate(ctx context.Context, productKey string) (portal.Snapshot, error)
	Submit(ctx context.Context, keyword, email string) (portal.Snapshot, error)
}
