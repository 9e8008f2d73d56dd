package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/warden/internal/plan"
	quotadomain "github.com/smallbiznis/warden/internal/quota/domain"
)

// CheckQuota is the advisory endpoint: it reports the decision without
// enforcing it, so dashboards can warn before a write is attempted.
func (s *Server) CheckQuota(c *gin.Context) {
	tenantID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resource := plan.Resource(strings.ToLower(strings.TrimSpace(c.Param("resource"))))
	if !validResource(resource) {
		AbortWithError(c, quotadomain.ErrInvalidResource)
		return
	}

	increment := int64(1)
	if raw := strings.TrimSpace(c.Query("increment")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			AbortWithError(c, quotadomain.ErrInvalidIncrement)
			return
		}
		increment = parsed
	}

	result, err := s.quotaSvc.Check(c.Request.Context(), resource, tenantID, increment)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.metrics.RecordQuotaCheck(c.Request.Context(), string(resource), result.Allowed)

	c.JSON(http.StatusOK, gin.H{
		"data":     result,
		"severity": quotadomain.Severity(*result),
	})
}

func validResource(resource plan.Resource) bool {
	for _, r := range plan.Resources() {
		if r == resource {
			return true
		}
	}
	return false
}
