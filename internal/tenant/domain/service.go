package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/warden/internal/plan"
)

type Service interface {
	// Resolve maps an inbound Host header to a tenant. It returns
	// ErrLocalHost for development hosts, ErrTenantNotFound when no
	// tenant matches, and ErrCustomDomainForbidden when the matched
	// tenant's tier no longer permits serving a custom domain.
	Resolve(ctx context.Context, host string) (*Tenant, error)

	Create(ctx context.Context, req CreateTenantRequest) (*Tenant, error)
	GetByID(ctx context.Context, id string) (*Tenant, error)
	ChangeTier(ctx context.Context, id string, tier plan.Tier) (*Tenant, error)
	AttachCustomDomain(ctx context.Context, id, domain string) (*Tenant, error)
	VerifyCustomDomain(ctx context.Context, id string) (*Tenant, error)
	Suspend(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
}

type CreateTenantRequest struct {
	Name string
	Tier plan.Tier
}

var (
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidTenant         = errors.New("invalid_tenant")
	ErrInvalidTier           = errors.New("invalid_tier")
	ErrInvalidDomain         = errors.New("invalid_domain")
	ErrSlugTaken             = errors.New("slug_taken")
	ErrTenantNotFound        = errors.New("tenant_not_found")
	ErrTenantSuspended       = errors.New("tenant_suspended")
	ErrLocalHost             = errors.New("local_host")
	ErrCustomDomainForbidden = errors.New("custom_domain_forbidden")
	ErrNoCustomDomain        = errors.New("no_custom_domain")
)
