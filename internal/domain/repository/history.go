package repository

import (
	"context"

	"SignalForge/internal/domain/models"
)

// SignalHistory provides read-only access to recently emitted signals for the
// API surface. Implementations may be backed by memory or by Storage.
type SignalHistory interface {
	Recent(ctx context.Context, symbol string, n int) ([]*models.Signal, error)
}
