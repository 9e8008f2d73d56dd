package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/plan"
)

// SnapshotRepository persists the cached census.
type SnapshotRepository interface {
	Upsert(ctx context.Context, snapshot Snapshot) error
	FindByTenant(ctx context.Context, tenantID snowflake.ID) (*Snapshot, error)
}

// CounterRepository counts governed resources from authoritative state.
// The domain-object tables belong to external CRUD services; this interface
// is the only thing the meter knows about them.
type CounterRepository interface {
	CountResource(ctx context.Context, tenantID snowflake.ID, resource plan.Resource) (int64, error)
	SumDocumentBytes(ctx context.Context, tenantID snowflake.ID) (int64, error)
}
