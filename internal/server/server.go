package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/warden/internal/config"
	obsmetrics "github.com/smallbiznis/warden/internal/observability/metrics"
	quotadomain "github.com/smallbiznis/warden/internal/quota/domain"
	"github.com/smallbiznis/warden/internal/ratelimit"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
	usagedomain "github.com/smallbiznis/warden/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	TenantSvc tenantdomain.Service
	UsageSvc  usagedomain.Service
	QuotaSvc  quotadomain.Service
	Limiter   ratelimit.Limiter
	Metrics   *obsmetrics.Metrics  `optional:"true"`
	Sessions  SessionAuthenticator `optional:"true"`
	Roles     RolePredicate        `optional:"true"`
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	log       *zap.Logger
	tenantSvc tenantdomain.Service
	usageSvc  usagedomain.Service
	quotaSvc  quotadomain.Service
	limiter   ratelimit.Limiter
	metrics   *obsmetrics.Metrics
	sessions  SessionAuthenticator
	roles     RolePredicate
}

func New(p Params) *Server {
	roles := p.Roles
	if roles == nil {
		roles = DefaultRolePredicate
	}

	s := &Server{
		engine:    gin.New(),
		cfg:       p.Config,
		log:       p.Log.Named("server"),
		tenantSvc: p.TenantSvc,
		usageSvc:  p.UsageSvc,
		quotaSvc:  p.QuotaSvc,
		limiter:   p.Limiter,
		metrics:   p.Metrics,
		sessions:  p.Sessions,
		roles:     roles,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(ErrorHandlingMiddleware())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rl := s.cfg.RateLimit

	v1 := s.engine.Group("/v1")
	v1.Use(s.TenantResolver())
	v1.Use(s.RateLimit("api", rl.APILimit, rl.APIWindow))
	{
		v1.GET("/plans", s.ListPlans)
		v1.GET("/ratelimit/status", s.RateLimitStatus)

		v1.POST("/tenants", s.CreateTenant)
		v1.GET("/tenants/:id", s.GetTenant)
		v1.PUT("/tenants/:id/tier", s.AuthRequired(), s.RequireRole("OWNER"), s.ChangeTenantTier)
		v1.POST("/tenants/:id/custom-domain", s.AuthRequired(), s.RequireRole("OWNER"), s.AttachCustomDomain)
		v1.POST("/tenants/:id/custom-domain/verify", s.AuthRequired(), s.RequireRole("OWNER"), s.VerifyCustomDomain)

		v1.GET("/tenants/:id/usage", s.GetUsage)
		v1.GET("/tenants/:id/quota/:resource", s.CheckQuota)
	}

	internal := s.engine.Group("/internal")
	internal.Use(s.JobTokenRequired())
	{
		internal.POST("/usage/recalculate", s.RecalculateUsage)
	}
}

func RunHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server starting", zap.String("addr", s.cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(RunHTTP),
)
