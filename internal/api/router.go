package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/shopsphere/storefront/docs"
	"github.com/shopsphere/storefront/internal/api/handler"
	"github.com/shopsphere/storefront/internal/api/middleware"
	"github.com/shopsphere/storefront/internal/api/session"
	"github.com/shopsphere/storefront/internal/core/domain"
	"github.com/shopsphere/storefront/internal/core/service"
	storemongo "github.com/shopsphere/storefront/internal/infrastructure/db/mongo"
	storeredis "github.com/shopsphere/storefront/internal/infrastructure/db/redis"
	"github.com/shopsphere/storefront/internal/pkg/urlfilter"
)

// RouterConfig carries the external settings the router needs.
type RouterConfig struct {
	JWTSecret    string
	CookieSecure bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg RouterConfig, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log)

	// --- Dependencies ---
	cookies := session.NewManager(cfg.CookieSecure)
	identityRepo := storemongo.NewIdentityRepository(db)
	revocations := storeredis.NewRevocationStore(rdb)
	identitySvc := service.NewIdentityService(identityRepo, log)
	tokenSvc := service.NewTokenService(cfg.JWTSecret, domain.SessionTTL, revocations, log)
	filter := urlfilter.New(log)

	authHandler := handler.NewAuthHandler(identitySvc, tokenSvc, tokenSvc, cookies, log)
	surfaceHandler := handler.NewSurfaceHandler(tokenSvc, cookies, filter, log)
	dashboardHandler := handler.NewDashboardHandler(identityRepo)

	authenticate := middleware.Authenticate(tokenSvc)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("storefront"))
	e.Use(middleware.EdgeRelay(cookies))

	// --- Auth routes (exempt from edge propagation except /me) ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/set-cookie", authHandler.SetCookie)
	auth.POST("/clear-cookie", authHandler.ClearCookie)
	auth.GET("/me", authHandler.Me, authenticate)

	// --- Dashboard data endpoints (verify independently of the edge relay) ---
	admin := e.Group("/api/admin", authenticate, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/summary", dashboardHandler.AdminSummary)

	vendor := e.Group("/api/vendor", authenticate, middleware.RequireRole(domain.RoleVendor))
	vendor.GET("/summary", dashboardHandler.VendorSummary)

	// --- Gated surfaces ---
	e.GET("/login", surfaceHandler.Login)
	e.GET("/account", surfaceHandler.Account)
	e.GET("/account/*", surfaceHandler.Account)
	e.GET("/admin", surfaceHandler.Admin)
	e.GET("/admin/*", surfaceHandler.Admin)
	e.GET("/vendor", surfaceHandler.Vendor)
	e.GET("/vendor/*", surfaceHandler.Vendor)
	e.GET("/seller", surfaceHandler.Seller)
	e.GET("/seller/*", surfaceHandler.Seller)

	// --- Health probes, metrics, docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
