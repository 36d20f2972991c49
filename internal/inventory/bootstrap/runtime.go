package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/inventory/application"
	"github.com/commercemesh/fulfillment/internal/inventory/cache"
	"github.com/commercemesh/fulfillment/internal/inventory/httpapi"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
	invpostgres "github.com/commercemesh/fulfillment/internal/inventory/postgres"
	"github.com/commercemesh/fulfillment/internal/platform/events"
	"github.com/commercemesh/fulfillment/internal/platform/postgres"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	consumer   *events.ConsumerWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db, invpostgres.MigrationFS, invpostgres.MigrationDir); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	var closers []io.Closer

	var productCache *cache.RedisCache
	if cfg.RedisURL != "" {
		redisClient, redisErr := cache.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			logger.WarnContext(ctx, "redis disabled, serving reads from postgres only", "error", redisErr)
		} else {
			productCache = cache.NewRedisCache(redisClient)
			closers = append(closers, redisClient)
		}
	}

	publisher := ports.EventPublisher(events.NewLoggingPublisher(logger))
	consumerAdapter := events.Consumer(events.NewNoopConsumer())
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := events.NewKafkaPublisher(cfg.KafkaBrokers, nil)
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}

		kafkaConsumer, conErr := events.NewKafkaConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			[]string{contracts.TopicOrderCreated, contracts.TopicOrderProcessed},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, saga handler idle", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}

	repos := invpostgres.NewRepositories(db)
	deps := application.Dependencies{
		Config: application.Config{
			ServiceName:     cfg.ServiceID,
			ProductCacheTTL: cfg.ProductCacheTTL,
		},
		Logger:       logger,
		Products:     repos.Products,
		Reservations: repos.Reservations,
		Movements:    repos.Movements,
		Publisher:    publisher,
	}
	if productCache != nil {
		deps.Cache = productCache
	}
	service := application.NewService(deps)

	pingDB := func(ctx context.Context) error { return sqlDB.PingContext(ctx) }
	handler := httpapi.NewHandler(service, pingDB)
	router := httpapi.NewRouter(logger, handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		for _, closer := range closers {
			_ = closer.Close()
		}
		_ = sqlDB.Close()
		return nil, err
	}

	consumer := events.NewConsumerWorker(logger, consumerAdapter, func(ctx context.Context, msg events.Message) error {
		return service.HandleMessage(ctx, msg.Topic, msg.Payload)
	}, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		consumer:   consumer,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = sqlDB.Close()
		},
	}, nil
}

// Run serves the CRUD API and the saga consumer in one process until a
// shutdown signal arrives.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 3)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}
