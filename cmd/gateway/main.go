package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"activeclub/gateway/internal/config"
	"activeclub/gateway/internal/handlers"
	"activeclub/gateway/internal/kv"
	"activeclub/gateway/internal/log"
	"activeclub/gateway/internal/loyalty"
	"activeclub/gateway/internal/otp"
	"activeclub/gateway/internal/server"
	"activeclub/gateway/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	store, err := kv.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	sessions := session.NewStore(store, cfg.Session, logger)
	lifecycle := session.NewLifecycle(sessions, cfg.Session, logger)
	lifecycle.OnInvalidated(func(reason string) {
		logger.Info().Str("reason", reason).Msg("session invalidated, login required")
	})

	authClient := otp.NewClient(cfg.OTP, sessions, logger)
	loyaltyClient := loyalty.NewClient(cfg.Loyalty, sessions, lifecycle, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, sessions, lifecycle, authClient, loyaltyClient, store)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	if err := lifecycle.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("lifecycle start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, lifecycle, store)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, lifecycle *session.Lifecycle, store *kv.Redis) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	lifecycle.Stop()

	if err := store.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("gateway exited cleanly")
}
