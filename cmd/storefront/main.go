package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	cartcache "github.com/itik-it/grindstack/internal/cart/cache"
	cartrepo "github.com/itik-it/grindstack/internal/cart/repository"
	cartsvc "github.com/itik-it/grindstack/internal/cart/service"
	catalogrepo "github.com/itik-it/grindstack/internal/catalog/repository"
	catalogsvc "github.com/itik-it/grindstack/internal/catalog/service"
	"github.com/itik-it/grindstack/internal/checkout/idempotency"
	checkoutsvc "github.com/itik-it/grindstack/internal/checkout/service"
	"github.com/itik-it/grindstack/internal/config"
	"github.com/itik-it/grindstack/internal/events"
	h "github.com/itik-it/grindstack/internal/http"
	"github.com/itik-it/grindstack/internal/logging"
	"github.com/itik-it/grindstack/internal/mongodb"
	ordersrepo "github.com/itik-it/grindstack/internal/orders/repository"
)

type indexer interface {
	CreateIndexes(ctx context.Context) error
}

func main() {
	configDir := flag.String("config", "./configs", "directory containing base.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.Init(cfg.App.Name, cfg.App.LogFile)

	ctx := context.Background()

	// MongoDB holds the catalog and carts
	mongoDB, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)
	logger.Info("connected to MongoDB", "uri", cfg.Mongo.URI)

	productRepo := catalogrepo.NewMongoRepository(mongoDB)
	cartRepo := cartrepo.NewMongoRepository(mongoDB)
	for _, repo := range []interface{}{productRepo, cartRepo} {
		if idx, ok := repo.(indexer); ok {
			if err := idx.CreateIndexes(ctx); err != nil {
				log.Fatalf("Failed to create indexes: %v", err)
			}
		}
	}

	// Redis backs the cart cache and checkout idempotency locks
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	logger.Info("connected to Redis", "addr", cfg.Redis.Addr)

	// Postgres holds orders
	pgCred := &ordersrepo.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DBName,
		MigrationsDirPath: cfg.Postgres.MigrationsPath,
	}
	orderRepo, err := ordersrepo.NewRepository(pgCred)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(pgCred); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("connected to Postgres", "host", cfg.Postgres.Host)

	publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers...)
	defer publisher.Close()

	catalogService := catalogsvc.NewCatalogService(productRepo)
	cartService := cartsvc.NewCartService(cartRepo, cartcache.NewRedisCache(redisClient), logging.New("cart"))
	idemStore := idempotency.NewRedisStore(redisClient, cfg.Idempotency.TTL)
	checkoutService := checkoutsvc.NewCheckoutService(
		catalogService,
		cartService,
		orderRepo,
		idemStore,
		publisher,
		logging.New("checkout"),
	)

	handlers := h.Handlers{
		Products: h.NewProductHandler(catalogService, cfg.HTTP.RequestTimeout),
		Cart:     h.NewCartHandler(cartService, cfg.HTTP.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkoutService, cfg.HTTP.RequestTimeout),
		Orders:   h.NewOrdersHandler(orderRepo, cfg.HTTP.RequestTimeout),
	}

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      h.NewRouter(handlers, logging.New("http")),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("storefront listening", "addr", cfg.App.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}
