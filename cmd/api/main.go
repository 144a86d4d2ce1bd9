package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongoadapter "github.com/eventdesk/eventdesk/internal/adapters/mongo"
	"github.com/eventdesk/eventdesk/internal/adapters/pg"
	redisadapter "github.com/eventdesk/eventdesk/internal/adapters/redis"
	"github.com/eventdesk/eventdesk/internal/config"
	"github.com/eventdesk/eventdesk/internal/httpapi"
	"github.com/eventdesk/eventdesk/internal/idempotency"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/payment"
	"github.com/eventdesk/eventdesk/internal/ratelimit"
	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "eventdesk-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()
	observability.InitMetrics()

	pool, err := pgxpool.New(context.Background(), cfg.PGDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := pg.NewRepository(pool)
	if err := repo.Migrate(context.Background()); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database("eventdesk")
	catalogRepo := mongoadapter.NewCatalogRepository(mongoDB, logger)
	engageRepo := mongoadapter.NewEngageRepository(mongoDB, logger)
	if err := engageRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, time.Hour)
	rl := ratelimit.NewRateLimiter(redisCache)

	var gateway payment.Gateway
	if cfg.StripeKey != "" {
		gateway, err = payment.NewStripeGateway(cfg.StripeKey)
		if err != nil {
			log.Fatalf("failed to init stripe: %v", err)
		}
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, using offline payment gateway")
		gateway = payment.NewOfflineGateway()
	}

	handlers := httpapi.NewHandlers(cfg, repo, catalogRepo, engageRepo, redisCache, idemp, gateway, logger)
	r := httpapi.SetupRouter(handlers, logger, rl)

	srv := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
