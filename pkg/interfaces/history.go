package interfaces

import (
	"context"

	"hybridmcp/pkg/hybrid"
)

// SnapshotHistory bounded, newest-first history of resource snapshots
type SnapshotHistory interface {
	Append(ctx context.Context, snapshot hybrid.ResourceSnapshot) error
	// Recent returns up to n snapshots, newest first. n <= 0 returns all.
	Recent(ctx context.Context, n int) ([]hybrid.ResourceSnapshot, error)
	Len(ctx context.Context) (int, error)
}
