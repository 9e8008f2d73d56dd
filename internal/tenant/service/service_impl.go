package service

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/cache"
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/plan"
	"github.com/smallbiznis/warden/internal/tenant/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type service struct {
	repo       domain.Repository
	resolved   cache.TenantResolverCache
	genID      *snowflake.Node
	clock      clock.Clock
	log        *zap.Logger
	rootDomain string
}

func NewService(
	repo domain.Repository,
	resolved cache.TenantResolverCache,
	genID *snowflake.Node,
	clk clock.Clock,
	log *zap.Logger,
	rootDomain string,
) domain.Service {
	return &service{
		repo:       repo,
		resolved:   resolved,
		genID:      genID,
		clock:      clk,
		log:        log.Named("tenant"),
		rootDomain: strings.ToLower(strings.TrimSpace(rootDomain)),
	}
}

func (s *service) Resolve(ctx context.Context, host string) (*domain.Tenant, error) {
	host = normalizeHost(host)
	if host == "" {
		return nil, domain.ErrTenantNotFound
	}
	if isLocalHost(host) {
		return nil, domain.ErrLocalHost
	}

	if tenant, ok := s.resolved.Get(host); ok {
		return s.checkResolved(tenant, host)
	}

	var (
		tenant       *domain.Tenant
		err          error
		customDomain bool
	)
	if suffix := "." + s.rootDomain; strings.HasSuffix(host, suffix) {
		slug := strings.TrimSuffix(host, suffix)
		// nested labels (a.b.platform.tld) are not tenant hosts
		if slug == "" || strings.Contains(slug, ".") {
			return nil, domain.ErrTenantNotFound
		}
		tenant, err = s.repo.FindBySlug(ctx, slug)
	} else if host == s.rootDomain {
		return nil, domain.ErrTenantNotFound
	} else {
		customDomain = true
		tenant, err = s.repo.FindByCustomDomain(ctx, host)
	}
	if err != nil {
		return nil, err
	}

	// Tier eligibility is re-checked on every resolution so routing goes
	// stale at most one cache TTL after a downgrade.
	if customDomain && !plan.AllowsCustomDomain(tenant.Tier) {
		return nil, domain.ErrCustomDomainForbidden
	}

	s.resolved.Set(host, tenant)
	return s.checkResolved(tenant, host)
}

func (s *service) checkResolved(tenant *domain.Tenant, host string) (*domain.Tenant, error) {
	if tenant.Status == domain.StatusSuspended {
		return nil, domain.ErrTenantSuspended
	}
	if host == tenant.CustomDomain && !plan.AllowsCustomDomain(tenant.Tier) {
		return nil, domain.ErrCustomDomainForbidden
	}
	return tenant, nil
}

func (s *service) Create(ctx context.Context, req domain.CreateTenantRequest) (*domain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	tier := req.Tier
	if tier == "" {
		tier = plan.TierFree
	}
	if !plan.Valid(tier) {
		return nil, domain.ErrInvalidTier
	}

	slug := Slugify(name)
	if slug == "" {
		return nil, domain.ErrInvalidName
	}
	if existing, err := s.repo.FindBySlug(ctx, slug); err == nil && existing != nil {
		return nil, domain.ErrSlugTaken
	} else if err != nil && !errors.Is(err, domain.ErrTenantNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	tenant := domain.Tenant{
		ID:           s.genID.Generate(),
		Name:         name,
		Slug:         slug,
		Subdomain:    slug,
		Tier:         tier,
		Status:       domain.StatusActive,
		FeatureFlags: datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	s.log.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", slug),
		zap.String("tier", string(tier)),
	)
	return &tenant, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	tenantID, err := parseTenantID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, tenantID)
}

func (s *service) ChangeTier(ctx context.Context, id string, tier plan.Tier) (*domain.Tenant, error) {
	if !plan.Valid(tier) {
		return nil, domain.ErrInvalidTier
	}

	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tenant.Tier = tier
	tenant.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return nil, err
	}

	s.invalidateHosts(tenant)
	s.log.Info("tenant tier changed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("tier", string(tier)),
	)
	return tenant, nil
}

func (s *service) AttachCustomDomain(ctx context.Context, id, customDomain string) (*domain.Tenant, error) {
	customDomain = normalizeHost(customDomain)
	if customDomain == "" || strings.HasSuffix(customDomain, "."+s.rootDomain) {
		return nil, domain.ErrInvalidDomain
	}

	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plan.AllowsCustomDomain(tenant.Tier) {
		return nil, domain.ErrCustomDomainForbidden
	}

	previous := tenant.CustomDomain
	tenant.CustomDomain = customDomain
	tenant.CustomDomainVerified = false
	tenant.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return nil, err
	}

	s.resolved.Invalidate(previous, customDomain)
	return tenant, nil
}

func (s *service) VerifyCustomDomain(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.CustomDomain == "" {
		return nil, domain.ErrNoCustomDomain
	}

	tenant.CustomDomainVerified = true
	tenant.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return nil, err
	}

	s.resolved.Invalidate(tenant.CustomDomain)
	return tenant, nil
}

func (s *service) Suspend(ctx context.Context, id string) error {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tenant.Status = domain.StatusSuspended
	tenant.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return err
	}

	s.invalidateHosts(tenant)
	return nil
}

func (s *service) Activate(ctx context.Context, id string) error {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tenant.Status = domain.StatusActive
	tenant.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return err
	}

	s.invalidateHosts(tenant)
	return nil
}

func (s *service) invalidateHosts(tenant *domain.Tenant) {
	hosts := []string{tenant.Subdomain + "." + s.rootDomain}
	if tenant.CustomDomain != "" {
		hosts = append(hosts, tenant.CustomDomain)
	}
	s.resolved.Invalidate(hosts...)
}

func parseTenantID(id string) (snowflake.ID, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return 0, domain.ErrInvalidTenant
	}
	parsed, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidTenant
	}
	return parsed, nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

func isLocalHost(host string) bool {
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}
