package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rulesiliveby/rules-api/internal/api/handler"
	"github.com/rulesiliveby/rules-api/internal/api/middleware"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
	"github.com/rulesiliveby/rules-api/internal/pkg/token"
)

// Deps carries everything the router needs. Services are constructed in main
// so the stats dispatcher can sit between the event service and the stats
// service.
type Deps struct {
	Auth   ports.AuthService
	Users  ports.UserService
	Rules  ports.RuleService
	Events ports.RuleEventService
	Stats  ports.StatsService

	Tokens        *token.Manager
	RefreshTTL    time.Duration
	SecureCookies bool

	Mongo *mongo.Database
	Redis *redis.Client
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("rules"))
	e.Use(middleware.Authenticate(deps.Tokens))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.RefreshTTL, deps.SecureCookies)
	userHandler := handler.NewUserHandler(deps.Users)
	ruleHandler := handler.NewRuleHandler(deps.Rules)
	eventHandler := handler.NewRuleEventHandler(deps.Events)
	statsHandler := handler.NewStatsHandler(deps.Stats)
	healthHandler := handler.NewHealthHandler(deps.Mongo, deps.Redis)

	// --- Session routes (no auth required) ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout)

	// --- Authenticated routes ---
	authed := e.Group("", middleware.RequireAuth())

	authed.GET("/users/me", userHandler.Me)
	authed.PUT("/users/:id", userHandler.Update)

	authed.POST("/rules", ruleHandler.Create)
	authed.GET("/rules", ruleHandler.List)
	// Stats routes under /rules must register before /rules/:id matching.
	authed.GET("/rules/stats/respected", statsHandler.RespectedRate)
	authed.GET("/rules/stats/most-broken", statsHandler.MostBroken)
	authed.GET("/rules/stats/most-respected", statsHandler.MostRespected)
	authed.GET("/rules/:id", ruleHandler.Get)
	authed.PUT("/rules/:id", ruleHandler.Update)
	authed.POST("/rules/:id/archive", ruleHandler.Archive)

	authed.POST("/rule-events", eventHandler.Create)
	authed.GET("/rule-events", eventHandler.List)
	authed.GET("/rule-events/:id", eventHandler.Get)
	authed.PUT("/rule-events/:id", eventHandler.Update)

	authed.GET("/stats/dashboard", statsHandler.Dashboard)

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness)    // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
