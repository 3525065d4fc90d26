package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andrelmp/precifica/internal/config"
	"github.com/andrelmp/precifica/internal/db"
	"github.com/andrelmp/precifica/internal/history"
	"github.com/andrelmp/precifica/internal/migrations"
	"github.com/andrelmp/precifica/internal/model"
	"github.com/andrelmp/precifica/internal/omie"
)

// productLookup is the slice of the OMIE client the handlers need.
type productLookup interface {
	LookupProduct(ctx context.Context, code string) (model.ProductData, error)
	Ping(ctx context.Context) error
	DemoMode() bool
}

type server struct {
	logger   *zap.Logger
	products productLookup
	history  *history.Store
}

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer cache.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := cache.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, product cache disabled", zap.Error(err))
			cache = nil
		}
		cancel()
	}

	omieClient := omie.NewClient(omie.Options{
		BaseURL:   cfg.OmieBaseURL,
		AppKey:    cfg.OmieAppKey,
		AppSecret: cfg.OmieAppSecret,
		Cache:     cache,
		CacheTTL:  cfg.CacheTTL,
		Logger:    logger,
	})
	if omieClient.DemoMode() {
		logger.Info("OMIE_BASE_URL not set, serving the demo catalog")
	}

	srv := &server{
		logger:   logger,
		products: omieClient,
		history:  history.NewStore(database, cfg.HistoryLimit),
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(cfg.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
