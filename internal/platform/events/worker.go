package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// Handler processes one delivered message. A returned error marks the
// message failed for logging purposes only; the worker never stops the
// loop or re-reads the message itself, redelivery is the broker's job.
type Handler func(ctx context.Context, msg Message) error

// ConsumerWorker drives a Consumer for the lifetime of the process.
// Broker errors are logged and the loop carries on polling, so transient
// outages cost only the messages' latency, never the service.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	handle   Handler
	interval time.Duration
	batch    int
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handle Handler, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger:   logger,
		consumer: consumer,
		handle:   handle,
		interval: interval,
		batch:    50,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, w.batch)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := w.handle(ctx, msg); err != nil {
			w.logger.WarnContext(ctx, "message handler failed",
				"module", "events.worker",
				"layer", "adapter",
				"operation", "handle",
				"outcome", "failure",
				"topic", msg.Topic,
				"error", err,
			)
		}
	}
	return nil
}
