package core

import (
	"context"

	"github.com/dkeye/SignCall/internal/domain"
)

// PresenceStore is the durable online/offline table owned outside the relay.
type PresenceStore interface {
	SetOnline(ctx context.Context, user domain.UserID, online bool) error
	ListOnline(ctx context.Context) ([]domain.PresenceEntry, error)
}
