package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/plan"
	"github.com/smallbiznis/warden/internal/quota/domain"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
	usagedomain "github.com/smallbiznis/warden/internal/usage/domain"
	"go.uber.org/zap"
)

type service struct {
	tenants   tenantdomain.Repository
	snapshots usagedomain.SnapshotRepository
	log       *zap.Logger
}

func NewService(
	tenants tenantdomain.Repository,
	snapshots usagedomain.SnapshotRepository,
	log *zap.Logger,
) domain.Service {
	return &service{
		tenants:   tenants,
		snapshots: snapshots,
		log:       log.Named("quota"),
	}
}

func (s *service) Check(ctx context.Context, resource plan.Resource, tenantID snowflake.ID, increment int64) (*domain.CheckResult, error) {
	if increment < 0 {
		return nil, domain.ErrInvalidIncrement
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	limit := plan.Limit(tenant.Tier, resource)
	result := &domain.CheckResult{
		Resource: resource,
		Limit:    limit,
	}

	if limit == plan.Unlimited {
		result.Allowed = true
		result.Unlimited = true
		return result, nil
	}

	used, err := s.currentUsed(ctx, tenantID, resource)
	if err != nil {
		return nil, err
	}
	result.Used = used

	if limit > 0 {
		result.Percentage = math.Round(float64(used)/float64(limit)*10000) / 100
	} else if used > 0 {
		result.Percentage = 100
	}

	projected := used + increment
	result.Allowed = projected <= limit
	if !result.Allowed {
		result.Reason = fmt.Sprintf("%s limit reached (%d of %d used on the %s plan)",
			resource, used, limit, plan.Get(tenant.Tier).Name)
	}

	return result, nil
}

// currentUsed reads the cached snapshot; a tenant that has never been
// metered counts as zero usage.
func (s *service) currentUsed(ctx context.Context, tenantID snowflake.ID, resource plan.Resource) (int64, error) {
	snapshot, err := s.snapshots.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, usagedomain.ErrSnapshotNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return snapshot.Count(resource), nil
}
