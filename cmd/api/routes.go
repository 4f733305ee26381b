package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadboard/internal/infra/http/handlers"
	"github.com/xavierca1/leadboard/internal/infra/http/middleware"
	"github.com/xavierca1/leadboard/internal/infra/queue"
)

type routes struct {
	health  *handlers.HealthHandler
	stats   *handlers.StatsHandler
	reports *handlers.ReportHandler
	webhook *handlers.WebhookHandler
	auth    *handlers.AuthHandler
	store   *handlers.StoreHandler
	hub     *handlers.Hub
	authn   middleware.Authenticator
	limiter *middleware.RateLimiter
}

func newRouter(h routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	// Públicas
	r.Get("/", handlers.Dashboard)
	r.Get("/ping", h.health.Ping)
	r.Get("/clock", h.health.Clock)
	r.Get("/health", h.health.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/webhook", h.webhook.Handle)
	r.With(h.limiter.Limit).Post("/api/login", h.auth.Login)

	// Protegidas
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.authn, h.limiter))

		r.Get("/api/me", h.auth.Me)
		r.Get("/api/leads/by-stage", h.stats.ByStage)
		r.Get("/api/leads/info-stages-today", h.stats.StagesToday)
		r.Get("/api/leads/stream", h.hub.Stream)
		r.Get("/api/leads/stored/today", h.store.StoredToday)
		r.Get("/api/stats", h.stats.Stats)
		r.Get("/api/trend", h.stats.Trend)
		r.Get("/api/compare-stages", h.stats.CompareStages)
		r.Post("/api/reports/digest", h.store.SendDigest)

		r.Get("/daily", h.reports.Daily)
		r.Get("/compare", h.reports.Compare)
		r.Get("/trend", h.reports.Trend)
		r.Get("/stuck", h.reports.Stuck)
		r.Get("/download", h.reports.Download)
	})

	return r
}

func rabbitConn(r *queue.RabbitMQ) *amqp.Connection {
	if r == nil {
		return nil
	}
	return r.Conn
}
