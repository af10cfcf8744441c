package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/boostgg/storefront/internal/cart"
	"github.com/boostgg/storefront/internal/catalog"
	"github.com/boostgg/storefront/internal/checkout"
	"github.com/boostgg/storefront/internal/draft"
	"github.com/boostgg/storefront/internal/gateway"
	"github.com/boostgg/storefront/internal/orders"
	"github.com/boostgg/storefront/internal/payment"
	"github.com/boostgg/storefront/internal/publisher"
	"github.com/boostgg/storefront/internal/session"
	"github.com/boostgg/storefront/internal/skillmaster"
	"github.com/boostgg/storefront/internal/users"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDB         string
	RedisAddr       string
	DBCreds         *orders.Credentials
	CatalogDBPath   string
	CatalogMigrate  string
	KafkaBrokers    []string
	PaymentBaseURL  string
	ResetTokenKey   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "storefront"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		DBCreds: &orders.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "storefront"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/orders/migrations"),
		},
		CatalogDBPath:   getEnv("CATALOG_DB_PATH", "./storefront.db"),
		CatalogMigrate:  getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		PaymentBaseURL:  getEnv("PAYMENT_BASE_URL", "http://localhost:4242"),
		ResetTokenKey:   getEnv("RESET_TOKEN_KEY", "0123456789abcdef0123456789abcdef"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("storefront starting...")

	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cart storage: MongoDB snapshots behind a Redis read cache
	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	cartService := cart.NewService(cartRepo, cart.NewRedisCache(redisClient))
	draftStore := draft.NewRedisStore(redisClient)

	// Orders and users share the Postgres database
	db, err := orders.Connect(cfg.DBCreds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ordersRepo := orders.NewRepository(db)
	defer ordersRepo.Close()

	if err := ordersRepo.RunMigrations(cfg.DBCreds.MigrationsDirPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userService := users.NewService(users.NewRepository(db))

	// Product catalog lives in embedded SQLite
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("Failed to open catalog database: %v", err)
	}
	defer catalogRepo.Close()

	if err := catalogRepo.RunMigrations(cfg.CatalogMigrate); err != nil {
		log.Fatalf("Failed to run catalog migrations: %v", err)
	}

	sessions := session.NewStore()
	sealer, err := session.NewResetSealer([]byte(cfg.ResetTokenKey))
	if err != nil {
		log.Fatalf("Failed to create reset token sealer: %v", err)
	}

	paymentClient := payment.NewClient(cfg.PaymentBaseURL, cfg.RequestTimeout)
	checkoutService := checkout.NewService(cartService, catalogRepo, paymentClient, draftStore, ordersRepo)

	// Outbox poller announces created orders; the board consumer picks
	// them up for skillmasters
	poller := publisher.NewOutboxPoller(ordersRepo, cfg.KafkaBrokers...)
	go poller.Run(ctx)

	board := skillmaster.NewBoard()
	defer board.Close()

	consumer := skillmaster.NewConsumer(board, cfg.KafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(ctx)

	handlers := gateway.Handlers{
		Cart:        gateway.NewCartHandler(cartService, catalogRepo, cfg.RequestTimeout),
		Checkout:    gateway.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		Products:    gateway.NewProductHandler(catalogRepo, cfg.RequestTimeout),
		Auth:        gateway.NewAuthHandler(userService, sessions, sealer, cfg.RequestTimeout),
		Orders:      gateway.NewOrdersHandler(ordersRepo, cfg.RequestTimeout),
		Admin:       gateway.NewAdminHandler(ordersRepo, userService, board, cfg.RequestTimeout),
		Skillmaster: gateway.NewSkillmasterHandler(board, ordersRepo, cfg.RequestTimeout),
	}

	router := gateway.NewRouter(handlers, sessions, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
