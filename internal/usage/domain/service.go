package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Calculate recomputes every governed count for one tenant from
	// authoritative state and upserts the snapshot.
	Calculate(ctx context.Context, tenantID snowflake.ID) (*Snapshot, error)

	// CalculateAll recalculates every active tenant in bounded concurrent
	// groups, collecting per-tenant failures into the result.
	CalculateAll(ctx context.Context) (*BatchResult, error)

	GetSnapshot(ctx context.Context, tenantID snowflake.ID) (*Snapshot, error)
}

var ErrSnapshotNotFound = errors.New("snapshot_not_found")
