package controller

import (
	"time"

	"github.com/ankunda/payflow/internal/domain/catalog"
	"github.com/ankunda/payflow/internal/infrastructure/config"
	"github.com/ankunda/payflow/internal/infrastructure/observability"
	customMW "github.com/ankunda/payflow/internal/middleware"
	"github.com/ankunda/payflow/internal/repository/postgres"
	"github.com/ankunda/payflow/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool            *pgxpool.Pool
	RedisClient     *redis.Client
	PaymentService  *service.PaymentService
	CatalogRepo     catalog.Repository
	IdempotencyRepo *postgres.IdempotencyRepository
	Metrics         *observability.Metrics
	CORSConfig      config.CORSConfig
	AuthConfig      config.AuthConfig
	WebhookConfig   config.WebhookConfig
	RequestsPerMin  int
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Webhook-Signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))
	if deps.RequestsPerMin > 0 {
		r.Use(customMW.RateLimit(deps.RequestsPerMin))
	}

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	paymentH := NewPaymentController(deps.PaymentService)
	webhookH := NewWebhookController(deps.PaymentService, deps.Metrics)
	catalogH := NewCatalogController(deps.CatalogRepo)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Provider-facing: authenticated by signature, not by JWT.
		signatureMW := customMW.WebhookSignature(deps.WebhookConfig.SigningSecret, deps.WebhookConfig.RequireSignature)
		r.With(signatureMW).Post("/webhooks/payment", webhookH.HandleWebhook)

		// Client-facing.
		r.Group(func(r chi.Router) {
			if deps.AuthConfig.JWTSecret != "" {
				r.Use(customMW.RequireAuth(deps.AuthConfig.JWTSecret))
			}

			idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo)

			r.With(idempotencyMW).Post("/payments", paymentH.CreatePayment)
			r.Get("/payments", paymentH.ListPayments)
			r.Get("/payments/{reference}", paymentH.GetPayment)
			r.Patch("/payments/{reference}/status", paymentH.UpdateStatus)

			r.Get("/currencies", catalogH.ListCurrencies)
			r.Get("/payment-methods", catalogH.ListPaymentMethods)
		})
	})

	return r
}
