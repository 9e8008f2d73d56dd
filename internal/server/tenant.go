package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/warden/internal/plan"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
)

type createTenantRequest struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

func (s *Server) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tenant, err := s.tenantSvc.Create(c.Request.Context(), tenantdomain.CreateTenantRequest{
		Name: req.Name,
		Tier: plan.Tier(strings.ToUpper(strings.TrimSpace(req.Tier))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": tenant})
}

func (s *Server) GetTenant(c *gin.Context) {
	tenant, err := s.tenantSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

type changeTierRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) ChangeTenantTier(c *gin.Context) {
	var req changeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tenant, err := s.tenantSvc.ChangeTier(
		c.Request.Context(),
		c.Param("id"),
		plan.Tier(strings.ToUpper(strings.TrimSpace(req.Tier))),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

type attachDomainRequest struct {
	Domain string `json:"domain"`
}

func (s *Server) AttachCustomDomain(c *gin.Context) {
	var req attachDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tenant, err := s.tenantSvc.AttachCustomDomain(c.Request.Context(), c.Param("id"), req.Domain)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (s *Server) VerifyCustomDomain(c *gin.Context) {
	tenant, err := s.tenantSvc.VerifyCustomDomain(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}
