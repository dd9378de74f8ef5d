package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rulesiliveby/rules-api/internal/api"
	"github.com/rulesiliveby/rules-api/internal/core/service"
	mongodb "github.com/rulesiliveby/rules-api/internal/infrastructure/db/mongo"
	redisdb "github.com/rulesiliveby/rules-api/internal/infrastructure/db/redis"
	"github.com/rulesiliveby/rules-api/internal/infrastructure/queue"
	"github.com/rulesiliveby/rules-api/internal/pkg/config"
	"github.com/rulesiliveby/rules-api/internal/pkg/token"
	"github.com/rulesiliveby/rules-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}()

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db)
	ruleRepo := mongodb.NewRuleRepository(db)
	eventRepo := mongodb.NewRuleEventRepository(db)
	statsRepo := mongodb.NewStatsRepository(db)
	statsCache := redisdb.NewStatsCache(rdb)

	for name, ensure := range map[string]func(context.Context) error{
		"users":       userRepo.EnsureIndexes,
		"rules":       ruleRepo.EnsureIndexes,
		"rule_events": eventRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}

	// --- Services ---
	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	statsService := service.NewStatsService(ruleRepo, eventRepo, statsRepo, statsCache, log)

	dispatcher := queue.NewDispatcher(0, statsService, log)
	dispatcher.Start(ctx)

	authService := service.NewAuthService(userRepo, tokens, log)
	userService := service.NewUserService(userRepo)
	ruleService := service.NewRuleService(ruleRepo, log)
	eventService := service.NewRuleEventService(eventRepo, ruleRepo, dispatcher, log)

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Auth:          authService,
		Users:         userService,
		Rules:         ruleService,
		Events:        eventService,
		Stats:         statsService,
		Tokens:        tokens,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
		SecureCookies: cfg.Auth.SecureCookies,
		Mongo:         db,
		Redis:         rdb,
		Log:           log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
