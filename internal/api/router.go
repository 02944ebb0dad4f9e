package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chatrelay/chat-system/internal/api/handler"
	"github.com/chatrelay/chat-system/internal/api/middleware"
	"github.com/chatrelay/chat-system/internal/core/ports"
	"github.com/chatrelay/chat-system/internal/core/service"
	mongodb "github.com/chatrelay/chat-system/internal/infrastructure/db/mongo"
	redisdb "github.com/chatrelay/chat-system/internal/infrastructure/db/redis"
	"github.com/chatrelay/chat-system/internal/infrastructure/hash"
	"github.com/chatrelay/chat-system/internal/pkg/config"
	"github.com/chatrelay/chat-system/internal/relay"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The registry, broadcaster, message repository, and presence store come in
// from main because the broadcaster's lifecycle is tied to the process.
func NewRouter(
	db *mongo.Database,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
	registry *relay.Registry,
	broadcaster *relay.Broadcaster,
	messages ports.MessageRepository,
	presence *redisdb.PresenceStore,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddleware("chatrelay"))

	// --- Dependencies ---
	accountRepo := mongodb.NewAccountRepository(db)
	hasher := hash.NewBcryptHasher(0)
	authService := service.NewAuthService(accountRepo, hasher, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := handler.NewAuthHandler(authService)
	authMiddleware := middleware.Auth(cfg.JWTSecret)

	chatHandler := handler.NewChatHandler(
		registry, broadcaster, messages, presence, log,
		cfg.JWTSecret, cfg.Chat.RequireAuth, cfg.Chat.HistoryReplay,
	)
	presenceHandler := handler.NewPresenceHandler(presence)

	// --- Auth routes ---
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)

	// --- Chat ---
	e.GET("/ws", chatHandler.Serve)
	e.GET("/v1/presence", presenceHandler.List, authMiddleware)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
