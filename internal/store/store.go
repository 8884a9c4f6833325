// Package store defines the persistence interface for quarter bundles.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing and seed-only deployments).
package store

import (
	"context"
	"errors"

	"github.com/fxlens/fx-engine/internal/model"
	"github.com/fxlens/fx-engine/internal/quarter"
)

// ErrNotFound is returned when no bundle exists for a base quarter.
var ErrNotFound = errors.New("store: bundle not found")

// Store is the persistence interface. Bundles are immutable per base
// quarter; saving an existing base quarter replaces the whole bundle
// atomically.
type Store interface {
	// SaveBundle persists a validated bundle, replacing any bundle
	// already stored for the same base quarter.
	SaveBundle(ctx context.Context, b *model.QuarterBundle) error

	// GetBundle retrieves the bundle for a base quarter.
	GetBundle(ctx context.Context, base quarter.Label) (*model.QuarterBundle, error)

	// ListQuarters returns all stored base quarters in ascending
	// chronological order.
	ListQuarters(ctx context.Context) ([]quarter.Label, error)

	// LatestQuarter returns the most recent stored base quarter.
	LatestQuarter(ctx context.Context) (quarter.Label, error)
}
