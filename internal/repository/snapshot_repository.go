// internal/repository/snapshot_repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
)

// SnapshotRepository loads one consistent read of items, suppliers, orders
// and settings as of now.
type SnapshotRepository interface {
	LoadSnapshot(ctx context.Context, now time.Time) (*domain.Snapshot, error)
	// Source identifies where snapshots come from; it scopes cache keys.
	Source() string
}

// SnapshotWriter persists an input snapshot so it can be loaded later.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
}
