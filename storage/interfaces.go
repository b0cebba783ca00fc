package storage

import (
	"context"

	"github.com/poiesic/docsearch/core"
)

// SnapshotRepository persists the corpus snapshot.
// Implementations must be thread-safe and support concurrent access.
type SnapshotRepository interface {
	// SaveSnapshot replaces the stored snapshot with snap as one unit.
	// snap must pass core.ValidateSnapshot. On error the previous
	// snapshot stays in place.
	SaveSnapshot(ctx context.Context, snap *core.Snapshot) error

	// LoadSnapshot returns the stored snapshot.
	// Returns ErrNotFound if nothing has been saved.
	// Returns ErrCorruptSnapshot if verification fails.
	LoadSnapshot(ctx context.Context) (*core.Snapshot, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
