package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/warden/internal/plan"
)

func (s *Server) ListPlans(c *gin.Context) {
	tiers := plan.Tiers()
	plans := make([]plan.Plan, 0, len(tiers))
	for _, tier := range tiers {
		plans = append(plans, plan.Get(tier))
	}

	c.JSON(http.StatusOK, gin.H{"data": plans})
}
