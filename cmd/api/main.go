package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/xavierca1/leadboard/internal/config"
	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/infra/auth"
	"github.com/xavierca1/leadboard/internal/infra/database"
	"github.com/xavierca1/leadboard/internal/infra/http/handlers"
	"github.com/xavierca1/leadboard/internal/infra/http/middleware"
	"github.com/xavierca1/leadboard/internal/infra/integration/bitrix"
	"github.com/xavierca1/leadboard/internal/infra/mail"
	"github.com/xavierca1/leadboard/internal/infra/queue"
	"github.com/xavierca1/leadboard/internal/infra/stream"
	"github.com/xavierca1/leadboard/internal/infra/worker"
	"github.com/xavierca1/leadboard/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env not found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. CRM
	crm := bitrix.NewClient(cfg.BitrixWebhook,
		bitrix.WithTimeout(cfg.BitrixTimeout),
		bitrix.WithRetries(cfg.BitrixMaxRetries, cfg.BitrixRetryBase),
		bitrix.WithLocation(cfg.Timezone),
		bitrix.WithObserver(middleware.RecordCRMRequest),
	)

	// 2. Store de leads (opcional)
	var db *sql.DB
	var leadRepo entity.LeadRepositoryInterface
	if cfg.DatabaseURL != "" {
		db, err = database.NewDBConnection(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ database: %v", err)
		}
		defer db.Close()
		repo := database.NewLeadRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("❌ migrating lead store: %v", err)
		}
		leadRepo = repo
		log.Println("🗄️ lead store enabled")
	}

	// 3. Casos de uso
	directory := usecase.NewDirectory(crm, cfg.UsersTTL, middleware.CacheObserver{Name: "users"})
	reports := usecase.NewReports(crm, directory, usecase.ReportsConfig{
		Stages:        cfg.Stages,
		Location:      cfg.Timezone,
		BoardTTL:      cfg.BoardTTL,
		ReportTTL:     cfg.ReportTTL,
		BoardObserver: middleware.CacheObserver{Name: "board"},
		QueryObserver: middleware.CacheObserver{Name: "reports"},
	})
	ingestUC := usecase.NewIngestLeadUseCase(leadRepo, cfg.Stages, directory, reports)
	ingestUC.Lookup = crm

	var digestUC *usecase.SendDigestUseCase
	if cfg.MailHost != "" && len(cfg.DigestTo) > 0 {
		sender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
		digestUC = usecase.NewSendDigestUseCase(reports, sender, cfg.DigestTo)
	}

	// 4. Barramento de eventos
	hub := handlers.NewHub()
	publishers := usecase.MultiPublisher{hub}
	var rabbitMQ *queue.RabbitMQ
	var leadProducer queue.LeadEventProducer

	switch cfg.EventBus {
	case config.EventBusRabbitMQ:
		rabbitMQ, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("❌ rabbitmq: %v", err)
		}
		defer rabbitMQ.Close()

		producer := queue.NewProducer(rabbitMQ.Ch)
		publishers = append(publishers, producer)
		leadProducer = producer

		consumerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			log.Fatalf("❌ rabbitmq consumer channel: %v", err)
		}
		defer consumerCh.Close()
		leadWorker := queue.NewWorker(consumerCh, ingestUC)
		go func() {
			if err := leadWorker.Start(ctx, queue.LeadQueueName); err != nil {
				log.Printf("❌ lead worker: %v", err)
			}
		}()
	case config.EventBusKafka:
		kafka := stream.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafka.Close()
		publishers = append(publishers, kafka)
	}

	// 5. Workers em background
	if cfg.RefreshInterval > 0 {
		refresher := worker.NewRefreshWorker(reports, publishers, cfg.RefreshInterval).
			WithObserver(middleware.RecordBoardRefresh)
		go refresher.Start(ctx)
	}
	if digestUC != nil && cfg.DigestInterval > 0 {
		go worker.NewDigestWorker(digestUC, cfg.DigestInterval).Start(ctx)
	}

	// 6. Auth
	users := auth.LoadUsers(cfg.UsersFile)
	if err := users.Bootstrap(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("❌ bootstrap account: %v", err)
	}
	if users.Len() == 0 {
		log.Println("⚠️ no accounts configured, protected routes will reject every request")
	}
	authSvc := auth.NewService(users, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL))

	// 7. Rotas
	amqpConn := rabbitConn(rabbitMQ)
	r := newRouter(routes{
		health:  handlers.NewHealthHandler(db, amqpConn, crm, cfg.Timezone),
		stats:   handlers.NewStatsHandler(reports),
		reports: handlers.NewReportHandler(reports),
		webhook: handlers.NewWebhookHandler(leadProducer, ingestUC, cfg.WebhookToken, cfg.Timezone),
		auth:    handlers.NewAuthHandler(authSvc),
		store:   handlers.NewStoreHandler(ingestUC, digestUC, cfg.Timezone),
		hub:     hub,
		authn:   authSvc,
		limiter: middleware.NewRateLimiter(10, time.Minute),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🔥 leadboard listening on %s (stages=%d, bus=%s, tz=%s)", srv.Addr, len(cfg.Stages.All()), cfg.EventBus, cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ shutdown: %v", err)
	}
}
