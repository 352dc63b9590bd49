package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ckumar010398/accounts-ms/internal/command"
	"github.com/ckumar010398/accounts-ms/internal/config"
	"github.com/ckumar010398/accounts-ms/internal/events"
	"github.com/ckumar010398/accounts-ms/internal/handler"
	"github.com/ckumar010398/accounts-ms/internal/middleware"
	"github.com/ckumar010398/accounts-ms/internal/query"
	redisClient "github.com/ckumar010398/accounts-ms/internal/redis"
	"github.com/ckumar010398/accounts-ms/internal/repository"
	"github.com/ckumar010398/accounts-ms/internal/repository/memory"
	"github.com/ckumar010398/accounts-ms/internal/utils"
)

// stores is the write side chosen by STORAGE_DRIVER.
type stores struct {
	customers interface {
		command.CustomerStore
		query.CustomerFinder
	}
	accounts interface {
		command.AccountStore
		query.AccountFinder
	}
	tx    command.Transactor
	close func()
}

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Write store
	write, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StorageDriver, err)
	}
	defer write.close()

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client, cfg.EventsStreamMaxLen)
	readRepo := repository.NewAccountReadRepository(redis.Client, cfg.ViewCacheTTL)

	commandSvc := command.NewAccountCommandService(write.customers, write.accounts, write.tx, readRepo, publisher, command.Settings{
		Defaults:              cfg.AccountDefaults(),
		MaxAttempts:           cfg.AccountNumberMaxAttempts,
		Auditor:               cfg.Auditor,
		GenerateAccountNumber: utils.GenerateAccountNumber,
	})
	querySvc := query.NewAccountQueryService(write.customers, write.accounts, readRepo)

	accountHandler := handler.NewAccountHandler(commandSvc, querySvc, handler.Info{
		BuildVersion: cfg.BuildInfo,
		Contact:      cfg.ContactInfo(),
	})

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	accountHandler.RegisterRoutes(router.Group("/api"))

	subscriberDone := make(chan struct{})
	go func() {
		defer close(subscriberDone)
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    cfg.EventsConsumerGroup,
			Consumer: consumerName(cfg.EventsConsumerName),
			Stream:   events.AccountEventsStream,
			Handler:  querySvc.HandleAccountEvent,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Subscriber stopped: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Accounts service starting on port %s (%s store)", cfg.ServerPort, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	<-subscriberDone
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		store := memory.NewStore()
		return &stores{
			customers: store.Customers(),
			accounts:  store.Accounts(),
			tx:        store,
			close:     func() {},
		}, nil
	}

	db, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &stores{
		customers: repository.NewCustomerWriteRepository(db),
		accounts:  repository.NewAccountWriteRepository(db),
		tx:        repository.NewTxManager(db),
		close:     func() { _ = db.Close() },
	}, nil
}

func consumerName(configured string) string {
	if configured != "" {
		return configured
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return "accounts-" + host
	}
	return "accounts-consumer-1"
}
