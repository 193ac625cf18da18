package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cwu2020/reflist-sub001/internal/audit"
	auditdomain "github.com/cwu2020/reflist-sub001/internal/audit/domain"
	"github.com/cwu2020/reflist-sub001/internal/balance"
	balancedomain "github.com/cwu2020/reflist-sub001/internal/balance/domain"
	"github.com/cwu2020/reflist-sub001/internal/claim"
	claimdomain "github.com/cwu2020/reflist-sub001/internal/claim/domain"
	"github.com/cwu2020/reflist-sub001/internal/clock"
	"github.com/cwu2020/reflist-sub001/internal/commission"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	"github.com/cwu2020/reflist-sub001/internal/config"
	"github.com/cwu2020/reflist-sub001/internal/migration"
	"github.com/cwu2020/reflist-sub001/internal/observability"
	obsmiddleware "github.com/cwu2020/reflist-sub001/internal/observability/logger"
	obsmetrics "github.com/cwu2020/reflist-sub001/internal/observability/metrics"
	obstracing "github.com/cwu2020/reflist-sub001/internal/observability/tracing"
	"github.com/cwu2020/reflist-sub001/internal/partner"
	"github.com/cwu2020/reflist-sub001/internal/payout"
	payoutdomain "github.com/cwu2020/reflist-sub001/internal/payout/domain"
	"github.com/cwu2020/reflist-sub001/internal/providers"
	"github.com/cwu2020/reflist-sub001/internal/providers/pdf"
	"github.com/cwu2020/reflist-sub001/internal/ratelimit"
	"github.com/cwu2020/reflist-sub001/internal/scheduler"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	observability.Module,
	migration.Module,
	fx.Provide(registerGin),
	audit.Module,
	partner.Module,
	commission.Module,
	balance.Module,
	payout.Module,
	claim.Module,
	providers.Module,
	ratelimit.Module,
	scheduler.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB

	commissionSvc commissiondomain.Service
	payoutSvc     payoutdomain.Service
	balanceSvc    balancedomain.Service
	claimSvc      claimdomain.Service
	auditSvc      auditdomain.Service
	pdfProvider   pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	CommissionSvc commissiondomain.Service
	PayoutSvc     payoutdomain.Service
	BalanceSvc    balancedomain.Service
	ClaimSvc      claimdomain.Service
	AuditSvc      auditdomain.Service
	PDFProvider   pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		commissionSvc: p.CommissionSvc,
		payoutSvc:     p.PayoutSvc,
		balanceSvc:    p.BalanceSvc,
		claimSvc:      p.ClaimSvc,
		auditSvc:      p.AuditSvc,
		pdfProvider:   p.PDFProvider,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.WorkspaceContext())
	api.Use(s.ActorContext())

	// -------- Commissions --------
	api.GET("/commissions", s.ListCommissions)
	api.GET("/commissions/:id", s.GetCommissionByID)
	api.POST("/commissions/:id/transition", s.TransitionCommission)
	api.PUT("/commissions/:id/status", s.ForceCommissionStatus)
	api.DELETE("/commissions/:id", s.DeleteCommission)

	// -------- Payouts --------
	api.GET("/payouts", s.ListPayouts)
	api.POST("/payouts", s.CreatePayout)
	api.GET("/payouts/:id", s.GetPayoutByID)
	api.POST("/payouts/:id/transition", s.TransitionPayout)
	api.GET("/payouts/:id/statement", s.GetPayoutStatement)

	// -------- Withdrawals --------
	api.POST("/withdrawals", s.CreateWithdrawal)

	// -------- Balances --------
	api.GET("/balances", s.GetBalances)

	// -------- Claims --------
	api.GET("/claims/unclaimed", s.GetUnclaimed)
	api.POST("/claims", s.ClaimCommissions)
	api.POST("/verifications", s.StartVerification)
	api.GET("/verifications/:token", s.GetVerification)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}
