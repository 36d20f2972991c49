package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/monitor/aggregator"
	"github.com/commercemesh/fulfillment/internal/monitor/healthcheck"
	"github.com/commercemesh/fulfillment/internal/monitor/httpapi"
	"github.com/commercemesh/fulfillment/internal/monitor/tap"
	"github.com/commercemesh/fulfillment/internal/platform/events"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	consumer   *events.ConsumerWorker
	poller     *healthcheck.Poller
	publisher  events.Publisher
	cleanupFn  func()
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	var closers []io.Closer

	publisher := events.Publisher(events.NewLoggingPublisher(logger))
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
			[]string{
				contracts.TopicOrderCreated,
				contracts.TopicOrderProcessed,
				contracts.TopicStockUpdate,
				contracts.TopicHealthCheck,
			},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, tap idle", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}

	agg := aggregator.New()
	messageTap := tap.New(logger, agg)
	checker := healthcheck.NewChecker([]healthcheck.Target{
		{Name: "inventory-service", Addr: cfg.InventoryHealthURL, Timeout: 5 * time.Second, Probe: healthcheck.ProbeHTTP},
		{Name: "orders-service", Addr: cfg.OrdersHealthURL, Timeout: 5 * time.Second, Probe: healthcheck.ProbeHTTP},
		{Name: "postgres", Addr: cfg.PostgresAddr, Timeout: 3 * time.Second, Probe: healthcheck.ProbeTCP},
		{Name: "kafka", Addr: cfg.KafkaAddr, Timeout: 3 * time.Second, Probe: healthcheck.ProbeTCP},
	})
	poller := healthcheck.NewPoller(logger, checker, agg, cfg.PollInterval)

	consumer := events.NewConsumerWorker(logger, consumerAdapter, func(ctx context.Context, msg events.Message) error {
		return messageTap.HandleMessage(ctx, msg.Topic, msg.Payload)
	}, cfg.ConsumerPollInterval)

	handler := httpapi.NewHandler(agg, checker)
	router := httpapi.NewRouter(logger, handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		consumer:   consumer,
		poller:     poller,
		publisher:  publisher,
		cleanupFn: func() {
			for _, closer := range closers {
				_ = closer.Close()
			}
		},
	}, nil
}

// Run serves the dashboard API, the tap consumer, the health poller,
// and the liveness publisher until a shutdown signal arrives.
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
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go r.publishLiveness(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn()
	return nil
}

// publishLiveness announces the monitor's own health on the
// health-check topic so the tap's feed includes this service too.
func (r *Runtime) publishLiveness(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	publish := func() {
		evt := contracts.HealthCheckEvent{
			Service:   r.cfg.ServiceID,
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Message:   "Monitor service health check",
		}
		payload, err := json.Marshal(evt)
		if err != nil {
			return
		}
		if err := r.publisher.Publish(ctx, contracts.TopicHealthCheck, payload, r.cfg.ServiceID); err != nil {
			r.logger.WarnContext(ctx, "publish health-check event failed", "error", err)
		}
	}

	publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}
