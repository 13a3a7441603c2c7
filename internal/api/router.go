package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MikeLinPlan/account-system/internal/api/handler"
	"github.com/MikeLinPlan/account-system/internal/api/middleware"
	"github.com/MikeLinPlan/account-system/internal/core/domain"
	"github.com/MikeLinPlan/account-system/internal/core/service"
	"github.com/MikeLinPlan/account-system/internal/infrastructure/config"
	mongodb "github.com/MikeLinPlan/account-system/internal/infrastructure/db/mongo"
	redisdb "github.com/MikeLinPlan/account-system/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("account"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	tokenRepo := mongodb.NewTokenRepository(db)
	userService := service.NewUserService(userRepo)
	tokenService := service.NewTokenService(tokenRepo)

	authHandler := handler.NewAuthHandler(userService, cfg.SessionSecret)
	userHandler := handler.NewUserHandler(userService)
	tokenHandler := handler.NewTokenHandler(tokenService)

	userAuth := middleware.Auth(cfg.SessionSecret, userRepo, domain.RoleCommon)
	adminAuth := middleware.Auth(cfg.SessionSecret, userRepo, domain.RoleAdmin)
	critical := middleware.CriticalRateLimit(redisdb.NewRateLimiter(
		rdb, "critical",
		cfg.RateLimit.CriticalRequests,
		time.Duration(cfg.RateLimit.CriticalDuration)*time.Second,
	))

	// --- API routes ---
	apiGroup := e.Group("/api")
	if cfg.RateLimit.GlobalEnabled {
		apiGroup.Use(middleware.GlobalRateLimit(cfg.RateLimit.GlobalRequests, cfg.RateLimit.GlobalDuration))
	}

	userGroup := apiGroup.Group("/user")
	userGroup.POST("/register", authHandler.Register, critical)
	userGroup.POST("/login", authHandler.Login, critical)
	userGroup.GET("/logout", authHandler.Logout)

	selfGroup := userGroup.Group("", userAuth)
	selfGroup.GET("/self", userHandler.GetSelf)
	selfGroup.PUT("/self", userHandler.UpdateSelf)
	selfGroup.DELETE("/self", userHandler.DeleteSelf)
	selfGroup.GET("/token", userHandler.GenerateAccessToken)

	adminGroup := userGroup.Group("", adminAuth)
	adminGroup.GET("", userHandler.ListUsers)
	adminGroup.GET("/search", userHandler.SearchUsers)
	adminGroup.GET("/:id", userHandler.GetUser)
	adminGroup.POST("", userHandler.CreateUser)
	adminGroup.PUT("", userHandler.UpdateUser)
	adminGroup.DELETE("/:id", userHandler.DeleteUser)

	tokenGroup := apiGroup.Group("/token", userAuth)
	tokenGroup.GET("", tokenHandler.ListTokens)
	tokenGroup.GET("/search", tokenHandler.SearchTokens)
	tokenGroup.GET("/:id", tokenHandler.GetToken)
	tokenGroup.POST("", tokenHandler.CreateToken)
	tokenGroup.PUT("", tokenHandler.UpdateToken)
	tokenGroup.DELETE("/:id", tokenHandler.DeleteToken)

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
