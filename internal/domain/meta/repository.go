package meta

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for the reference catalog
type Repository interface {
	// FindByID finds a catalog entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Meta, error)

	// FindByKind returns all entries of one catalog, in creation order
	FindByKind(ctx context.Context, kind Kind) ([]Meta, error)

	// Save creates or updates a catalog entry
	Save(ctx context.Context, entry *Meta) error

	// Delete removes a catalog entry
	Delete(ctx context.Context, id uuid.UUID) error
}

// SnapshotProvider builds a point-in-time validation snapshot of the
// reference catalog. Specs take one snapshot per validation pass.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
