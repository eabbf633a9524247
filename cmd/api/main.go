package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ankunda/payflow/internal/bootstrap"
	"github.com/ankunda/payflow/internal/controller"
	infraRedis "github.com/ankunda/payflow/internal/infrastructure/redis"
	"github.com/ankunda/payflow/internal/providers"
	"github.com/ankunda/payflow/internal/repository/postgres"
	"github.com/ankunda/payflow/internal/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "payflow-api", "payflow")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	webhookRepo := postgres.NewWebhookRepository(app.Pool)
	catalogRepo := postgres.NewCatalogRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Providers ---
	registry := providers.NewRegistry(
		providers.NewMobileMoneyProvider("MTN_UGANDA", providers.WithLatency(200*time.Millisecond)),
		providers.NewMobileMoneyProvider("AIRTEL_UGANDA", providers.WithLatency(300*time.Millisecond)),
	)

	// --- Service ---
	locker := infraRedis.NewLockManager(app.Redis)
	paymentService := service.NewPaymentService(
		paymentRepo,
		webhookRepo,
		catalogRepo,
		txManager,
		locker,
		registry,
		app.Logger,
		service.Options{
			ProviderTimeout: app.Config.Payment.ProviderTimeout,
			WebhookLockTTL:  app.Config.Payment.WebhookLockTTL,
		},
	)

	// --- Router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:            app.Pool,
		RedisClient:     app.Redis,
		PaymentService:  paymentService,
		CatalogRepo:     catalogRepo,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         app.Metrics,
		CORSConfig:      app.Config.Server.CORS,
		AuthConfig:      app.Config.Auth,
		WebhookConfig:   app.Config.Webhook,
		RequestsPerMin:  app.Config.Server.RequestsPerMinute,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
