package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/cache"
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/plan"
	"github.com/smallbiznis/warden/internal/tenant/domain"
	"github.com/smallbiznis/warden/internal/tenant/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testRootDomain = "platform.tld"

func setupService(t *testing.T) (domain.Service, domain.Repository, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Tenant{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := repository.NewRepository(db)
	svc := NewService(repo, cache.NewTenantResolverCache(), node, clk, zap.NewNop(), testRootDomain)
	return svc, repo, clk
}

func mustCreate(t *testing.T, svc domain.Service, name string, tier plan.Tier) *domain.Tenant {
	t.Helper()
	tenant, err := svc.Create(context.Background(), domain.CreateTenantRequest{Name: name, Tier: tier})
	if err != nil {
		t.Fatalf("create tenant %q: %v", name, err)
	}
	return tenant
}

func TestResolveSubdomain(t *testing.T) {
	svc, _, _ := setupService(t)
	created := mustCreate(t, svc, "Acme", plan.TierFree)

	resolved, err := svc.Resolve(context.Background(), "acme.platform.tld")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ID != created.ID {
		t.Fatalf("expected tenant %s, got %s", created.ID, resolved.ID)
	}
	if resolved.Slug != "acme" {
		t.Fatalf("expected slug acme, got %s", resolved.Slug)
	}
}

func TestResolveStripsPortAndCase(t *testing.T) {
	svc, _, _ := setupService(t)
	mustCreate(t, svc, "Acme", plan.TierFree)

	if _, err := svc.Resolve(context.Background(), "ACME.Platform.TLD:8443"); err != nil {
		t.Fatalf("resolve with port: %v", err)
	}
}

func TestResolveUnknownSubdomain(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Resolve(context.Background(), "unknown.platform.tld")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestResolveApexIsNotATenant(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Resolve(context.Background(), "platform.tld")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound for apex, got %v", err)
	}
}

func TestResolveLocalHostBypass(t *testing.T) {
	svc, _, _ := setupService(t)

	for _, host := range []string{"localhost", "localhost:3000", "127.0.0.1", "acme.localhost"} {
		_, err := svc.Resolve(context.Background(), host)
		if !errors.Is(err, domain.ErrLocalHost) {
			t.Fatalf("expected ErrLocalHost for %q, got %v", host, err)
		}
	}
}

func TestResolveCustomDomain(t *testing.T) {
	svc, _, _ := setupService(t)
	created := mustCreate(t, svc, "Globex", plan.TierProfessional)

	if _, err := svc.AttachCustomDomain(context.Background(), created.ID.String(), "crm.globex.com"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	// unverified domains do not route
	_, err := svc.Resolve(context.Background(), "crm.globex.com")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound before verification, got %v", err)
	}

	if _, err := svc.VerifyCustomDomain(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("verify: %v", err)
	}

	resolved, err := svc.Resolve(context.Background(), "crm.globex.com")
	if err != nil {
		t.Fatalf("resolve custom domain: %v", err)
	}
	if resolved.ID != created.ID {
		t.Fatalf("expected tenant %s, got %s", created.ID, resolved.ID)
	}
}

func TestResolveCustomDomainForbiddenAfterDowngrade(t *testing.T) {
	svc, _, _ := setupService(t)
	created := mustCreate(t, svc, "Initech", plan.TierProfessional)

	ctx := context.Background()
	if _, err := svc.AttachCustomDomain(ctx, created.ID.String(), "portal.initech.io"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := svc.VerifyCustomDomain(ctx, created.ID.String()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := svc.Resolve(ctx, "portal.initech.io"); err != nil {
		t.Fatalf("resolve before downgrade: %v", err)
	}

	if _, err := svc.ChangeTier(ctx, created.ID.String(), plan.TierFree); err != nil {
		t.Fatalf("downgrade: %v", err)
	}

	_, err := svc.Resolve(ctx, "portal.initech.io")
	if !errors.Is(err, domain.ErrCustomDomainForbidden) {
		t.Fatalf("expected ErrCustomDomainForbidden after downgrade, got %v", err)
	}

	// the subdomain keeps working
	if _, err := svc.Resolve(ctx, "initech.platform.tld"); err != nil {
		t.Fatalf("subdomain after downgrade: %v", err)
	}
}

func TestAttachCustomDomainRequiresEligibleTier(t *testing.T) {
	svc, _, _ := setupService(t)
	created := mustCreate(t, svc, "Freebie", plan.TierFree)

	_, err := svc.AttachCustomDomain(context.Background(), created.ID.String(), "www.freebie.dev")
	if !errors.Is(err, domain.ErrCustomDomainForbidden) {
		t.Fatalf("expected ErrCustomDomainForbidden, got %v", err)
	}
}

func TestResolveSuspendedTenant(t *testing.T) {
	svc, _, _ := setupService(t)
	created := mustCreate(t, svc, "Dormant", plan.TierStarter)

	if err := svc.Suspend(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	_, err := svc.Resolve(context.Background(), "dormant.platform.tld")
	if !errors.Is(err, domain.ErrTenantSuspended) {
		t.Fatalf("expected ErrTenantSuspended, got %v", err)
	}

	if err := svc.Activate(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), "dormant.platform.tld"); err != nil {
		t.Fatalf("resolve after reactivation: %v", err)
	}
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	svc, _, _ := setupService(t)
	mustCreate(t, svc, "Acme Corp", plan.TierFree)

	_, err := svc.Create(context.Background(), domain.CreateTenantRequest{Name: "ACME---Corp"})
	if !errors.Is(err, domain.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestChangeTierUpdatesTimestamp(t *testing.T) {
	svc, repo, clk := setupService(t)
	created := mustCreate(t, svc, "Growing", plan.TierFree)

	clk.Advance(time.Hour)
	updated, err := svc.ChangeTier(context.Background(), created.ID.String(), plan.TierStarter)
	if err != nil {
		t.Fatalf("change tier: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected UpdatedAt to advance")
	}

	stored, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Tier != plan.TierStarter {
		t.Fatalf("expected STARTER, got %s", stored.Tier)
	}
}
