package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/chatrelay/chat-system/docs"
	"github.com/chatrelay/chat-system/internal/api"
	mongodb "github.com/chatrelay/chat-system/internal/infrastructure/db/mongo"
	redisdb "github.com/chatrelay/chat-system/internal/infrastructure/db/redis"
	"github.com/chatrelay/chat-system/internal/pkg/config"
	"github.com/chatrelay/chat-system/internal/relay"
	"github.com/chatrelay/chat-system/pkg/logger"
)

// @title           Chat Relay API
// @version         1.0
// @description     Real-time chat relay: account signup/login over HTTP, chat over a persistent websocket.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	// The unique username/email indexes back the signup duplicate check;
	// the process must not serve signups without them.
	if err := mongodb.NewAccountRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("account index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	messages := mongodb.NewMessageRepository(db)
	presence := redisdb.NewPresenceStore(rdb)

	registry := relay.NewRegistry()
	broadcaster := relay.NewBroadcaster(registry, messages, presence, log, relay.Options{
		EchoSender:  cfg.Chat.EchoSender,
		RequireAuth: cfg.Chat.RequireAuth,
	})
	broadcaster.Start(ctx)

	e := api.NewRouter(db, rdb, cfg, log, registry, broadcaster, messages, presence)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("chat relay listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
