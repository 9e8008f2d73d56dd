package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RateLimitStatus reports the caller's remaining budget without consuming
// any of it.
func (s *Server) RateLimitStatus(c *gin.Context) {
	rl := s.cfg.RateLimit
	result, err := s.limiter.Status(c.Request.Context(), requestIdentifier(c), rl.APILimit, rl.APIWindow)
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
