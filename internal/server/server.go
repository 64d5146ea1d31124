package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agingdomain "github.com/littleoaks/sprout/internal/aging/domain"
	"github.com/littleoaks/sprout/internal/clock"
	"github.com/littleoaks/sprout/internal/config"
	familydomain "github.com/littleoaks/sprout/internal/familyaccount/domain"
	feedomain "github.com/littleoaks/sprout/internal/feeschedule/domain"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	paymentdomain "github.com/littleoaks/sprout/internal/payment/domain"
	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
	splitdomain "github.com/littleoaks/sprout/internal/splitbilling/domain"
)

// Module wires the HTTP server into the fx application.
var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Engine *gin.Engine
	DB     *gorm.DB
	Log    *zap.Logger
	Cfg    config.Config
	Clock  clock.Clock

	InvoiceSvc  invoicedomain.Service
	PaymentSvc  paymentdomain.Service
	SplitSvc    splitdomain.Service
	AgingSvc    agingdomain.Service
	FamilySvc   familydomain.Service
	FeeSvc      feedomain.Service
	SettingsSvc settingsdomain.Service
}

// Server holds the feature services behind the HTTP handlers.
type Server struct {
	engine *gin.Engine
	db     *gorm.DB
	log    *zap.Logger
	cfg    config.Config
	clock  clock.Clock

	invoiceSvc  invoicedomain.Service
	paymentSvc  paymentdomain.Service
	splitSvc    splitdomain.Service
	agingSvc    agingdomain.Service
	familySvc   familydomain.Service
	feeSvc      feedomain.Service
	settingsSvc settingsdomain.Service
}

// NewEngine builds the gin engine with shared middleware.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(log.Named("http")))
	registerValidations()
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		engine:      p.Engine,
		db:          p.DB,
		log:         p.Log.Named("server"),
		cfg:         p.Cfg,
		clock:       p.Clock,
		invoiceSvc:  p.InvoiceSvc,
		paymentSvc:  p.PaymentSvc,
		splitSvc:    p.SplitSvc,
		agingSvc:    p.AgingSvc,
		familySvc:   p.FamilySvc,
		feeSvc:      p.FeeSvc,
		settingsSvc: p.SettingsSvc,
	}
}

// RegisterRoutes mounts the billing API.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)

	api := s.engine.Group("/api/v1")

	view := api.Group("", RequirePermission(PermBillingView))
	{
		view.GET("/invoices", s.ListInvoices)
		view.GET("/invoices/:id", s.GetInvoice)
		view.GET("/invoices/:id/statements", s.GetStatements)
		view.GET("/reports/aging", s.GetAgingReport)
		view.GET("/families/:id/account", s.GetFamilyAccount)
		view.GET("/fee-tiers", s.ListFeeTiers)
		view.GET("/settings/facility", s.GetSettings)
	}

	manage := api.Group("", RequirePermission(PermBillingManage))
	{
		manage.POST("/invoices", s.CreateInvoice)
		manage.POST("/invoices/:id/void", s.VoidInvoice)
		manage.POST("/invoices/:id/lines", s.AddLineItem)
		manage.PATCH("/invoices/:id/lines/:lineId", s.UpdateLineItem)
		manage.DELETE("/invoices/:id/lines/:lineId", s.DeleteLineItem)
		manage.PUT("/invoices/:id/split", s.SetSplit)
		manage.POST("/invoices/:id/payments", s.RecordPayment)
		manage.POST("/fee-tiers", s.CreateFeeTier)
		manage.POST("/fee-tiers/:id/deactivate", s.DeactivateFeeTier)
		manage.PUT("/settings/facility", s.UpdateSettings)
	}
}

// Health reports liveness, including database reachability.
func (s *Server) Health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under fx lifecycle control.
func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("http server stopping")
			return srv.Shutdown(ctx)
		},
	})
}
