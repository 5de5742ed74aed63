package router

import (
	"fmt"

	"github.com/erp/catalogsync/internal/infrastructure/auth"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/interfaces/http/handler"
	"github.com/erp/catalogsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig carries everything NewEngine wires into the HTTP engine
type EngineConfig struct {
	Logger      *zap.Logger
	Validator   middleware.TokenValidator
	Tracing     middleware.TracingConfig
	Meter       metric.Meter
	MaxBodySize int64

	Health *handler.HealthHandler
	Sync   *handler.SyncHandler
	Orders *handler.OrderHandler
}

// NewEngine builds the gin engine with the middleware chain and all routes
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Secure(),
		middleware.Tracing(cfg.Tracing),
		metrics,
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", cfg.Health.Health)

	r := NewRouter(engine, WithAPIMiddleware(
		middleware.JWTAuth(middleware.DefaultJWTConfig(cfg.Validator, cfg.Logger)),
		middleware.SpanAttributes(),
	))
	r.Register(syncRoutes(cfg.Sync))
	r.Register(orderRoutes(cfg.Orders))
	r.Setup()

	return engine, nil
}

func syncRoutes(h *handler.SyncHandler) *DomainGroup {
	return NewDomainGroup("sync", "/sync").
		Use(middleware.RequireScope(auth.ScopeSync)).
		POST("/products/step", h.Step).
		POST("/scheduled/run", h.RunScheduled).
		GET("/rates", h.Rates).
		GET("/settings", h.GetSettings).
		PUT("/settings", h.UpdateSettings)
}

func orderRoutes(h *handler.OrderHandler) *DomainGroup {
	return NewDomainGroup("orders", "/orders").
		Use(middleware.RequireScope(auth.ScopeOrders)).
		POST("/:id/export", h.Export).
		POST("/:id/status", h.ChangeStatus)
}
