package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
)

func (s *Server) GetUsage(c *gin.Context) {
	tenantID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	snapshot, err := s.usageSvc.GetSnapshot(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// RecalculateUsage is the authenticated trigger the platform scheduler
// calls on its daily cadence.
func (s *Server) RecalculateUsage(c *gin.Context) {
	if id := strings.TrimSpace(c.Query("tenant_id")); id != "" {
		tenantID, err := parseID(id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		snapshot, err := s.usageSvc.Calculate(c.Request.Context(), tenantID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": snapshot})
		return
	}

	result, err := s.usageSvc.CalculateAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.metrics.RecordUsageBatch(c.Request.Context(), result.Failed)

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, tenantdomain.ErrInvalidTenant
	}
	return id, nil
}
