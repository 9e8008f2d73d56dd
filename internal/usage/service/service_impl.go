package service

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/plan"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
	"github.com/smallbiznis/warden/internal/usage/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 10

type service struct {
	snapshots   domain.SnapshotRepository
	counters    domain.CounterRepository
	tenants     tenantdomain.Repository
	clock       clock.Clock
	log         *zap.Logger
	concurrency int
}

func NewService(
	snapshots domain.SnapshotRepository,
	counters domain.CounterRepository,
	tenants tenantdomain.Repository,
	clk clock.Clock,
	log *zap.Logger,
	concurrency int,
) domain.Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &service{
		snapshots:   snapshots,
		counters:    counters,
		tenants:     tenants,
		clock:       clk,
		log:         log.Named("usage.meter"),
		concurrency: concurrency,
	}
}

func (s *service) Calculate(ctx context.Context, tenantID snowflake.ID) (*domain.Snapshot, error) {
	if _, err := s.tenants.FindByID(ctx, tenantID); err != nil {
		return nil, err
	}

	snapshot := domain.Snapshot{
		TenantID:         tenantID,
		LastCalculatedAt: s.clock.Now(),
	}

	for _, resource := range plan.Resources() {
		if resource == plan.ResourceStorageBytes {
			continue
		}
		count, err := s.counters.CountResource(ctx, tenantID, resource)
		if err != nil {
			return nil, err
		}
		snapshot.SetCount(resource, count)
	}

	// document rows with no recorded size contribute zero bytes
	storage, err := s.counters.SumDocumentBytes(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	snapshot.StorageBytes = storage

	if err := s.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *service) CalculateAll(ctx context.Context) (*domain.BatchResult, error) {
	start := s.clock.Now()

	ids, err := s.tenants.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.BatchResult{
		Total:     len(ids),
		StartedAt: start,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			_, err := s.Calculate(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// one tenant failing must not sink the batch
				result.Failed++
				result.Errors = append(result.Errors, domain.TenantError{
					TenantID: id,
					Err:      err.Error(),
				})
				s.log.Warn("usage calculation failed",
					zap.String("tenant_id", id.String()),
					zap.Error(err),
				)
				return nil
			}
			result.Succeeded++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Duration = s.clock.Now().Sub(start)
	s.log.Info("usage batch finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *service) GetSnapshot(ctx context.Context, tenantID snowflake.ID) (*domain.Snapshot, error) {
	return s.snapshots.FindByTenant(ctx, tenantID)
}
