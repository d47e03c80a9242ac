// Package app wires configuration, dependencies and the HTTP server into
// a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	catalogpg "github.com/prismcart/search/internal/catalog/postgres"
	"github.com/prismcart/search/internal/config"
	"github.com/prismcart/search/internal/event"
	handlerhttp "github.com/prismcart/search/internal/handler/http"
	"github.com/prismcart/search/internal/index"
	"github.com/prismcart/search/internal/index/elastic"
	"github.com/prismcart/search/internal/index/memory"
	"github.com/prismcart/search/internal/service"
	syncpkg "github.com/prismcart/search/internal/sync"
	"github.com/prismcart/search/pkg/database"
	"github.com/prismcart/search/pkg/health"
	pkgkafka "github.com/prismcart/search/pkg/kafka"
	"github.com/prismcart/search/pkg/tracing"
)

// App holds everything that needs an ordered shutdown.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	kafka      *pkgkafka.Producer
	httpServer *http.Server
	traceStop  func(context.Context) error
}

// New builds the full dependency graph.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	traceStop, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSample,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		Database: cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSLMode,
		MaxConns: cfg.PostgresMaxConns,
	}, logger)
	if err != nil {
		return nil, err
	}

	var engine index.Engine
	switch cfg.Engine {
	case "memory":
		engine = memory.New()
	default:
		engine, err = elastic.New(ctx, elastic.Config{
			Addresses: []string{cfg.ElasticsearchURL},
			Username:  cfg.ElasticsearchUser,
			Password:  cfg.ElasticsearchPassword,
			Boosts: elastic.SuggestBoosts{
				PhrasePrefix: cfg.SuggestPhrasePrefixBoost,
				AndMatch:     cfg.SuggestAndMatchBoost,
				Fuzzy:        cfg.SuggestFuzzyBoost,
				ViewsFactor:  cfg.SuggestViewsFactor,
				SoldFactor:   cfg.SuggestSoldFactor,
			},
		}, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("redis unavailable, suggestion cache disabled", slog.String("error", err.Error()))
			redisClient = nil
		}
	}

	var kafkaProducer *pkgkafka.Producer
	var eventProducer *event.Producer
	if cfg.KafkaEnabled {
		kafkaProducer = pkgkafka.NewProducer(pkgkafka.ProducerConfig{Brokers: cfg.KafkaBrokers})
		eventProducer = event.NewProducer(kafkaProducer, logger)
	}

	products := catalogpg.NewProductRepository(pool)
	entities := catalogpg.NewEntityRepository(pool)

	bus := syncpkg.NewBus()
	syncer := syncpkg.NewSyncer(engine, products, entities, eventProducer, logger)
	syncer.Register(bus)

	searchSvc := service.NewSearchService(engine, products, logger)
	autocompleteSvc := service.NewAutocompleteService(engine, redisClient, logger)
	catalogSvc := service.NewCatalogService(products, entities, bus, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("index", engine.Ping)
	if kafkaProducer != nil {
		healthHandler.Register("kafka", kafkaProducer.Ping)
	}

	handler := handlerhttp.NewHandler(searchSvc, autocompleteSvc, catalogSvc, syncer, logger)
	router := handlerhttp.NewRouter(handler, healthHandler, cfg.ServiceName, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		kafka:  kafkaProducer,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		traceStop: traceStop,
	}, nil
}

// Run serves HTTP until the context is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	}
}

// Shutdown stops the server and closes every dependency.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	a.pool.Close()
	if err := a.traceStop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}
	return errors.Join(errs...)
}
