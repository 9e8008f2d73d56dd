package cache

import (
	"strings"
	"time"

	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
)

const defaultResolutionTTL = 30 * time.Second

// TenantResolverCache stores hot-path host -> tenant resolutions.
type TenantResolverCache interface {
	Get(host string) (*tenantdomain.Tenant, bool)
	Set(host string, tenant *tenantdomain.Tenant)
	Invalidate(hosts ...string)
}

type tenantResolverCache struct {
	resolutions Cache[string, *tenantdomain.Tenant]
	ttl         time.Duration
}

// NewTenantResolverCache returns an in-memory cache tuned for domain routing.
// The TTL is short on purpose: a stale entry may outlive a tier downgrade by
// at most one TTL before the router re-checks eligibility.
func NewTenantResolverCache() TenantResolverCache {
	return &tenantResolverCache{
		resolutions: NewTTLCache[string, *tenantdomain.Tenant](),
		ttl:         defaultResolutionTTL,
	}
}

func (c *tenantResolverCache) Get(host string) (*tenantdomain.Tenant, bool) {
	return c.resolutions.Get(normalizeHost(host))
}

func (c *tenantResolverCache) Set(host string, tenant *tenantdomain.Tenant) {
	if tenant == nil {
		return
	}
	c.resolutions.Set(normalizeHost(host), tenant, c.ttl)
}

func (c *tenantResolverCache) Invalidate(hosts ...string) {
	for _, host := range hosts {
		host = normalizeHost(host)
		if host == "" {
			continue
		}
		c.resolutions.Delete(host)
	}
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
