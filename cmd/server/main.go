package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbgate/cbgate/internal/config"
	"github.com/cbgate/cbgate/internal/exchange"
	"github.com/cbgate/cbgate/internal/exchange/coinbase"
	"github.com/cbgate/cbgate/internal/exchange/kraken"
	"github.com/cbgate/cbgate/internal/handler"
	"github.com/cbgate/cbgate/internal/middleware"
	"github.com/cbgate/cbgate/internal/notify"
	"github.com/cbgate/cbgate/internal/pkg/logger"
	"github.com/cbgate/cbgate/internal/repository"
	"github.com/cbgate/cbgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// .env is optional; real deployments inject env vars directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// Exchange credentials are fatal at startup: a gateway that cannot
	// sign requests has nothing to offer
	creds, err := coinbase.LoadCredentials(cfg.Coinbase.CredentialsEnv)
	if err != nil {
		log.Fatalf("Failed to load exchange credentials: %v", err)
	}

	coinbaseClient, err := coinbase.New(creds, coinbase.Options{
		BaseURL:      cfg.Coinbase.APIBaseURL,
		PrecisionTTL: time.Duration(cfg.Coinbase.PrecisionTTLSeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to initialize coinbase client: %v", err)
	}
	logger.Info("✅ Coinbase client initialized", "account", creds.Name)

	exchanges := map[string]exchange.Exchange{
		coinbaseClient.Name(): coinbaseClient,
		"kraken":              kraken.New(),
	}

	// Idempotency replay store (Redis > Memory)
	var idempotencyStore middleware.IdempotencyStore
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			idempotencyStore = repository.NewRedisIdempotencyStore(redisClient,
				time.Duration(cfg.Redis.IdempotencyTTLSeconds)*time.Second)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, falling back to memory", "error", err)
		}
	}
	if idempotencyStore == nil {
		idempotencyStore = middleware.NewInMemIdempotencyStore()
	}

	// Audit persistence (Postgres > local file only)
	var auditRepo service.AuditRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("✅ Connected to PostgreSQL")
			auditRepo = repository.NewPostgresAuditRepo(db)
		} else {
			logger.Error("⚠️ Failed to connect to DB, audit logs will be file-only", "error", err)
		}
	}
	auditSvc, err := service.NewAuditService(cfg.Log.Dir, auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	notifier := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	webhookSvc := service.NewWebhookService(cfg.Exchange.Default, exchanges, notifier, cfg.Server.DryRun)

	webhookHandler := handler.NewWebhookHandler(webhookSvc)
	accountHandler := handler.NewAccountHandler(webhookSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)

	r := gin.Default()

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "cbgate"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.WebhookAuthMiddleware(cfg))
	v1.Use(middleware.RateLimitMiddleware(cfg.Rate.QPS, cfg.Rate.Burst))
	v1.Use(middleware.IdempotencyMiddleware(idempotencyStore))
	{
		v1.POST("/webhook", webhookHandler.Receive)
		v1.GET("/balances", accountHandler.Balances)
	}

	admin := r.Group("/v1/audit")
	admin.Use(middleware.AdminMiddleware(cfg))
	{
		admin.GET("", auditHandler.List)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 cbgate started", "port", cfg.Server.Port, "dry_run", cfg.Server.DryRun)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	auditSvc.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
