package server

import (
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/warden/internal/plan"
	"github.com/smallbiznis/warden/internal/ratelimit"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
	"go.uber.org/zap"
)

const (
	contextTenantKey   = "tenant"
	contextIdentityKey = "identity"

	headerAPIKey   = "X-API-Key"
	headerJobToken = "X-Job-Token"

	sessionCookieName = "warden_session"
)

// TenantResolver maps the Host header to a tenant and injects it into the
// request context. Local development hosts pass through with no tenant.
func (s *Server) TenantResolver() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := s.tenantSvc.Resolve(c.Request.Context(), c.Request.Host)
		if err != nil {
			if errors.Is(err, tenantdomain.ErrLocalHost) {
				c.Next()
				return
			}
			AbortWithError(c, err)
			return
		}

		c.Set(contextTenantKey, tenant)
		c.Next()
	}
}

// AuthRequired resolves the session cookie or bearer token through the
// external session provider.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.sessions == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				token = cookie
			}
		}
		if strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.sessions.Authenticate(c.Request.Context(), token)
		if err != nil || identity == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

// RateLimit throttles a surface over a rolling window. The identifier scope
// is fixed per surface: authenticated traffic buckets by tenant, API-key
// traffic by key, everything else by client IP. Scopes are never mixed.
func (s *Server) RateLimit(surface string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestIdentifier(c)

		result, err := s.limiter.Check(c.Request.Context(), id, limit, window)
		if err != nil {
			s.log.Warn("rate limit check failed",
				zap.String("surface", surface),
				zap.Error(err),
			)
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := time.Until(result.ResetAt)
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			s.metrics.RecordRateLimitDenied(c.Request.Context(), surface)
			AbortWithError(c, ErrRateLimited)
			return
		}

		s.metrics.RecordRateLimitAllowed(c.Request.Context(), surface)
		c.Next()
	}
}

// QuotaGate blocks a mutating route when the tenant is at its ceiling for
// the resource. Domain-object handlers mount this immediately before their
// create operations.
func (s *Server) QuotaGate(resource plan.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := TenantFromContext(c)
		if tenant == nil {
			AbortWithError(c, tenantdomain.ErrTenantNotFound)
			return
		}

		result, err := s.quotaSvc.Check(c.Request.Context(), resource, tenant.ID, 1)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		s.metrics.RecordQuotaCheck(c.Request.Context(), string(resource), result.Allowed)
		if !result.Allowed {
			AbortWithError(c, &QuotaExceededError{Result: *result})
			return
		}
		c.Next()
	}
}

// JobTokenRequired authenticates scheduler triggers with the shared secret.
func (s *Server) JobTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(headerJobToken))
		expected := s.cfg.UsageJob.TriggerToken
		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// RequireRole gates a handler on the external role predicate.
func (s *Server) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFromContext(c)
		if identity == nil || !s.roles(identity, role) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func requestIdentifier(c *gin.Context) ratelimit.Identifier {
	if key := strings.TrimSpace(c.GetHeader(headerAPIKey)); key != "" {
		return ratelimit.APIKeyIdentifier(key)
	}
	if tenant := TenantFromContext(c); tenant != nil {
		return ratelimit.OrgIdentifier(tenant.ID)
	}
	return ratelimit.IPIdentifier(c.ClientIP())
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// TenantFromContext returns the tenant resolved by TenantResolver, or nil.
func TenantFromContext(c *gin.Context) *tenantdomain.Tenant {
	if v, ok := c.Get(contextTenantKey); ok {
		if tenant, ok := v.(*tenantdomain.Tenant); ok {
			return tenant
		}
	}
	return nil
}

// IdentityFromContext returns the authenticated identity, or nil.
func IdentityFromContext(c *gin.Context) *Identity {
	if v, ok := c.Get(contextIdentityKey); ok {
		if identity, ok := v.(*Identity); ok {
			return identity
		}
	}
	return nil
}
