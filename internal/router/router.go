// Package router assembles the Echo server: global middleware, the /api
// routes and the operational endpoints.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shopsathi/shopsathi-api/internal/config"
	"github.com/shopsathi/shopsathi-api/internal/handler"
	"github.com/shopsathi/shopsathi-api/internal/metrics"
	"github.com/shopsathi/shopsathi-api/internal/middleware"
	"github.com/shopsathi/shopsathi-api/internal/utils"
)

// Deps is everything the routes need.  Redis may be nil; rate limiting,
// caching and token revocation then degrade to no-ops.
type Deps struct {
	Env       string
	JWTSecret string
	Revoked   middleware.RevocationChecker
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	Auth      *handler.AuthHandler
	Products  *handler.ProductHandler
	Customers *handler.CustomerHandler
	Orders    *handler.OrderHandler
	Purchases *handler.PurchaseHandler
	Reports   *handler.ReportHandler
}

// New builds the Echo instance with all middleware and routes registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = utils.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORS())
	e.Use(middleware.OptionalAuth(d.JWTSecret, d.Revoked, d.Logger))
	e.Use(middleware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		e.Use(middleware.Metrics(d.Metrics))
	}

	RegisterRoutes(e, d)
	RegisterAPI(e, d)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/", handler.Root(d.Env))
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", handler.APIHealth)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{
			Registry: d.Metrics.Registry,
		})))
	}
}

// RegisterAPI registers the shop endpoints.  Every one of them accepts an
// optional bearer token; without one the request works on guest data.
func RegisterAPI(e *echo.Echo, d Deps) {
	api := e.Group("/api",
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Logger),
		middleware.InvalidateOnWrite(d.Cache, d.Redis, d.Logger),
	)
	cached := middleware.NewRedisCache(d.Cache, d.Redis, d.Logger)

	auth := api.Group("/auth")
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/me", d.Auth.Me)

	api.GET("/products", d.Products.List)
	api.POST("/products", d.Products.Create)
	api.PUT("/products/:id", d.Products.Update)
	api.DELETE("/products/:id", d.Products.Delete)

	api.POST("/orders", d.Orders.Create)
	api.GET("/orders", d.Orders.List)
	api.GET("/orders/:id", d.Orders.Get)

	api.GET("/customers", d.Customers.List)
	api.POST("/customers", d.Customers.Create)
	api.PUT("/customers/:id", d.Customers.Update)
	api.DELETE("/customers/:id", d.Customers.Delete)

	api.GET("/purchases", d.Purchases.List)
	api.POST("/purchases", d.Purchases.Create)

	api.GET("/dashboard/stats", d.Reports.DashboardStats, cached)
	api.GET("/reports/sales-summary", d.Reports.SalesSummary, cached)
}
