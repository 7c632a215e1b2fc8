package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AkshadGawde/Astrape-Ecommerce/config"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/auth"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/clients"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/delivery"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/events"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/middleware"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/storage"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/usecase"
	"github.com/AkshadGawde/Astrape-Ecommerce/pkg/db"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := setupLogger("info")

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s' in config, using default 'info'. Error: %v", cfg.LogLevel, err)
	} else {
		logger.SetLevel(logLevel)
	}
	logger.Info("Starting Storefront...")

	ctx := context.Background()

	// --- Storage ---
	kv, database, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				logger.Errorf("Error closing database connection: %v", err)
			} else {
				logger.Info("Database connection closed.")
			}
		}()
	}

	// --- Dependency Injection ---
	tokens := auth.NewTokenStore(kv, cfg.TokenKey, logger)
	resolver := auth.NewIdentityResolver(tokens, logger)
	tokenSource := clients.TokenSourceFunc(tokens.Get)

	cartAPI := clients.NewCartHTTPClient(cfg.APIBaseURL, cfg.APITimeout, tokenSource, logger)
	authAPI := clients.NewAuthHTTPClient(cfg.APIBaseURL, cfg.APITimeout, tokenSource, logger)
	catalogAPI := clients.NewCatalogHTTPClient(cfg.APIBaseURL, cfg.APITimeout, logger)
	logger.Info("Backend clients initialized.")

	bus := events.NewBus()
	guestCart := usecase.NewGuestCartRepository(kv, cfg.GuestCartKey, logger)
	cartStore := usecase.NewCartStore(resolver, cartAPI, guestCart, bus, cfg.RefetchTimeout, logger)
	session := usecase.NewSessionCoordinator(tokens, resolver, guestCart, cartAPI, authAPI, bus, logger, usecase.SessionOptions{
		KeepGuestCartOnMergeFailure: cfg.KeepGuestCartOnMergeFailure,
	})
	catalog := usecase.NewCatalogUseCase(catalogAPI, logger)

	// Every session transition switches the cart between guest storage and the server.
	unsubscribe := session.Subscribe(func(identity *domain.Identity) {
		if identity != nil {
			logger.Infof("Session changed to user %s, refreshing cart", identity.ID)
		} else {
			logger.Info("Session changed to guest, refreshing cart")
		}
		cartStore.Invalidate()
	})
	defer unsubscribe()
	bus.Subscribe(events.SessionExpired, func(events.Event) {
		logger.Warn("Stored credential expired; the next session read reports it")
	})
	logger.Info("Use cases initialized.")

	if err := cartStore.Load(ctx); err != nil {
		logger.Warnf("Initial cart load failed: %v", err)
	}

	cartHandler := delivery.NewCartHandler(cartStore, logger)
	sessionHandler := delivery.NewSessionHandler(session, logger)
	catalogHandler := delivery.NewCatalogHandler(catalog, logger)
	logger.Info("Handlers initialized.")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		delivery.SuccessResponse(c, http.StatusOK, "ok", gin.H{"session": session.State(c.Request.Context())})
	})
	cartHandler.RegisterRoutes(router)
	sessionHandler.RegisterRoutes(router)
	catalogHandler.RegisterRoutes(router)
	logger.Info("API Routes registered.")

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Storefront listening on %s (backend %s)", cfg.Port, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
		logger.Info("HTTP server stopped serving.")
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Warn("Shutdown signal received...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server forced to shut down: %v", err)
	}
	cartStore.Close()
	logger.Info("Storefront shut down gracefully.")
}

func setupLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", level, err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// openStorage builds the configured storage slot, sealed when a key is set.
// The returned *sql.DB is non-nil only for the postgres driver.
func openStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.KeyValueStore, *sql.DB, error) {
	var (
		kv       domain.KeyValueStore
		database *sql.DB
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; the session and guest cart are lost on exit")
		kv = storage.NewMemoryStore()
	case config.StorageFile:
		fileStore, err := storage.NewFileStore(cfg.StoragePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("Using file storage at %s", cfg.StoragePath)
		kv = fileStore
	case config.StoragePostgres:
		logger.Info("Connecting to database...")
		conn, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pgStore := storage.NewPostgresStore(conn, cfg.StorageNamespace, logger)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		logger.Info("Database connection established successfully.")
		kv, database = pgStore, conn
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	key, err := cfg.SealingKey()
	if err != nil {
		if database != nil {
			_ = database.Close()
		}
		return nil, nil, err
	}
	if key != nil {
		logger.Info("Storage values are sealed at rest")
		kv = storage.NewSealedStore(kv, key)
	}
	return kv, database, nil
}
