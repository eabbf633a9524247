package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ankunda/payflow/internal/bootstrap"
	infraRedis "github.com/ankunda/payflow/internal/infrastructure/redis"
	"github.com/ankunda/payflow/internal/providers"
	"github.com/ankunda/payflow/internal/repository/postgres"
	"github.com/ankunda/payflow/internal/service"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "payflow-reconciler", "payflow_reconciler")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	webhookRepo := postgres.NewWebhookRepository(app.Pool)
	catalogRepo := postgres.NewCatalogRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)
	locker := infraRedis.NewLockManager(app.Redis)

	registry := providers.NewRegistry(
		providers.NewMobileMoneyProvider("MTN_UGANDA", providers.WithLatency(200*time.Millisecond)),
		providers.NewMobileMoneyProvider("AIRTEL_UGANDA", providers.WithLatency(300*time.Millisecond)),
	)

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

	reconcilerCfg := app.Config.Reconciler
	app.Logger.Info().
		Dur("poll_interval", reconcilerCfg.PollInterval).
		Dur("pending_age", reconcilerCfg.PendingAge).
		Int("batch_size", reconcilerCfg.BatchSize).
		Msg("Reconciler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(reconcilerCfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			case <-ticker.C:
				app.Metrics.ReconcilerRuns.Inc()
				n, err := paymentService.ReconcilePending(gCtx, reconcilerCfg.PendingAge, reconcilerCfg.BatchSize)
				if err != nil {
					app.Logger.Error().Err(err).Msg("Reconciliation run failed")
					continue
				}
				if n > 0 {
					app.Metrics.ReconciledPayments.WithLabelValues("terminal").Add(float64(n))
					app.Logger.Info().Int("reconciled", n).Msg("Reconciliation run complete")
				}
			}
		}
	})

	g.Go(func() error {
		select {
		case <-quit:
			app.Logger.Info().Msg("Shutdown signal received")
			cancel()
			return nil
		case <-gCtx.Done():
			return gCtx.Err()
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Reconciler exited with error")
	}
	app.Logger.Info().Msg("Reconciler exited")
}
