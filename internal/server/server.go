package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/folio/internal/account"
	"github.com/smallbiznis/folio/internal/audit"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/document"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	"github.com/smallbiznis/folio/internal/idempotency"
	"github.com/smallbiznis/folio/internal/inventory"
	"github.com/smallbiznis/folio/internal/item"
	"github.com/smallbiznis/folio/internal/ledger"
	"github.com/smallbiznis/folio/internal/observability"
	"github.com/smallbiznis/folio/internal/organization"
	"github.com/smallbiznis/folio/internal/sequence"
	"github.com/smallbiznis/folio/internal/tax"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	account.Module,
	audit.Module,
	document.Module,
	idempotency.Module,
	inventory.Module,
	item.Module,
	ledger.Module,
	observability.Module,
	organization.Module,
	sequence.Module,
	tax.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
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
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	db          *gorm.DB
	genID       *snowflake.Node
	documentSvc documentdomain.Service
	auditSvc    auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	GenID       *snowflake.Node
	DocumentSvc documentdomain.Service
	AuditSvc    auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		db:          p.DB,
		genID:       p.GenID,
		documentSvc: p.DocumentSvc,
		auditSvc:    p.AuditSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.OrgContext())

	// -------- Documents --------
	api.POST("/documents", s.CreateDocument)
	api.GET("/documents/:id", s.GetDocument)
	api.PUT("/documents/:id", s.UpdateDraftDocument)
	api.POST("/documents/:id/post", s.PostDocument)
	api.POST("/documents/:id/void", s.VoidDocument)

	// -------- Debit note allocations --------
	api.POST("/debit_notes/:id/apply", s.ApplyDebitNote)
	api.POST("/debit_notes/:id/unapply", s.UnapplyDebitNote)

	// -------- Purchase orders --------
	api.POST("/purchase_orders/:id/submit", s.SubmitPurchaseOrder)
	api.POST("/purchase_orders/:id/approve", s.ApprovePurchaseOrder)
	api.POST("/purchase_orders/:id/send", s.SendPurchaseOrder)
	api.POST("/purchase_orders/:id/receive", s.ReceivePurchaseOrder)
	api.POST("/purchase_orders/:id/close", s.ClosePurchaseOrder)
	api.POST("/purchase_orders/:id/cancel", s.CancelPurchaseOrder)

	// -------- Audit trail --------
	api.GET("/audit_logs", s.ListAuditLogs)
}
