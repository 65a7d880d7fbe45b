package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/internal/api"
	"storefront-service/internal/broker"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/payment"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/session"
	"storefront-service/internal/util"
	"storefront-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	var redisClient *redisclient.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	var publisher *broker.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		log.Println("Kafka producer initialized")
	}

	var productCache catalog.Cache
	if redisClient != nil {
		productCache = redisclient.NewProductCache(redisClient, cfg.Catalog.CacheTTL)
	}
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, productCache)

	backendClient := payment.NewBackendClient(cfg.Payment.BackendURL, cfg.Payment.Timeout)

	// A misconfigured processor is not fatal: checkouts fail fast with an
	// initialization reason instead.
	var processor payment.Processor
	if sp, err := payment.NewStripeProcessor(cfg.Payment.StripeSecretKey); err != nil {
		log.Printf("Payment processor not available: %v", err)
	} else {
		processor = sp
	}

	flowFactory := func(sessionID string, c *cart.Cart) *payment.Flow {
		return payment.NewFlow(backendClient, processor, publisher, c, sessionID, cfg.Payment.CelebrationDelay)
	}

	var snapshots session.SnapshotStore
	if redisClient != nil {
		snapshots = redisClient
	}
	sessionManager := session.NewManager(cfg.Session.TTL, flowFactory, snapshots)

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()

	janitor := worker.NewSessionJanitor(sessionManager, cfg.Session.SweepInterval)
	go func() {
		if err := janitor.Start(janitorCtx); err != nil && err != context.Canceled {
			log.Printf("Session janitor error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(catalogClient, sessionManager, backendClient, cfg.Session.CookieName)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	janitorCancel()
	janitor.Stop()

	log.Println("Server exited")
}
