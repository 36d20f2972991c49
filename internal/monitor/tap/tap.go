// Package tap consumes every saga topic with its own consumer group and
// turns anomalous messages into alerts. It never mutates the ledgers it
// observes.
package tap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/monitor/aggregator"
)

var highValueThreshold = decimal.NewFromInt(10000)

const (
	lowStockThreshold = 5

	severityInfo     = "info"
	severityWarning  = "warning"
	severityError    = "error"
	severityCritical = "critical"
)

type Tap struct {
	logger *slog.Logger
	agg    *aggregator.Aggregator
	nowFn  func() time.Time
}

func New(logger *slog.Logger, agg *aggregator.Aggregator) *Tap {
	return &Tap{
		logger: logger,
		agg:    agg,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// HandleMessage inspects one consumed message. Malformed payloads raise
// a monitoring_error alert instead of an error return, so the consumer
// loop never stalls on bad input.
func (t *Tap) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	t.agg.CountMessage(topic)

	var err error
	switch topic {
	case contracts.TopicOrderCreated:
		err = t.inspectOrderCreated(ctx, payload)
	case contracts.TopicOrderProcessed:
		err = t.inspectOrderProcessed(ctx, payload)
	case contracts.TopicStockUpdate:
		err = t.inspectStockUpdate(ctx, payload)
	case contracts.TopicHealthCheck:
		err = t.inspectHealthCheck(ctx, payload)
	default:
		t.logger.WarnContext(ctx, "message on unmonitored topic",
			"module", "monitor.tap", "topic", topic)
		return nil
	}

	if err != nil {
		t.logger.ErrorContext(ctx, "monitoring message failed",
			"module", "monitor.tap",
			"layer", "application",
			"operation", "handle_message",
			"outcome", "failure",
			"topic", topic,
			"error", err,
		)
		t.raise("monitoring_error",
			fmt.Sprintf("Error processing message from %s: %v", topic, err),
			"monitor-service", severityError)
	}
	return nil
}

func (t *Tap) inspectOrderCreated(ctx context.Context, payload []byte) error {
	var evt contracts.OrderCreatedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return err
	}
	if evt.TotalAmount.GreaterThan(highValueThreshold) {
		t.raise("high_value_order",
			fmt.Sprintf("High value %s order created: $%s", evt.OrderType, evt.TotalAmount.String()),
			"orders-service", severityInfo)
	}
	return nil
}

func (t *Tap) inspectOrderProcessed(ctx context.Context, payload []byte) error {
	outcome, err := contracts.DecodeOutcome(payload)
	if err != nil {
		return err
	}
	switch outcome.Kind {
	case contracts.OutcomeReservation:
		evt := outcome.Reservation
		if evt.Status == contracts.StatusStockReservationFailed {
			t.raise("stock_reservation_failed",
				fmt.Sprintf("Stock reservation failed for order %s: %s", evt.OrderID, strings.Join(evt.Errors, ", ")),
				"inventory-service", severityWarning)
		}
	case contracts.OutcomeTransition:
		evt := outcome.Transition
		if evt.NewStatus == "failed" || evt.NewStatus == "cancelled" {
			t.raise("order_processing_issue",
				fmt.Sprintf("Order %s processing issue: %s", evt.OrderID, evt.NewStatus),
				"orders-service", severityWarning)
		}
	}
	return nil
}

func (t *Tap) inspectStockUpdate(ctx context.Context, payload []byte) error {
	var evt contracts.StockUpdateEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return err
	}
	if evt.NewQuantity <= lowStockThreshold {
		t.raise("low_stock",
			fmt.Sprintf("Low stock alert for product %s: %d units remaining", evt.ProductID, evt.NewQuantity),
			"inventory-service", severityWarning)
	}
	// Negative stock should be unreachable given the ledger's pre-check.
	// Seeing it means an invariant broke somewhere upstream.
	if evt.NewQuantity < 0 {
		t.raise("negative_stock",
			fmt.Sprintf("Negative stock detected for product %s: %d", evt.ProductID, evt.NewQuantity),
			"inventory-service", severityCritical)
	}
	return nil
}

func (t *Tap) inspectHealthCheck(ctx context.Context, payload []byte) error {
	var evt contracts.HealthCheckEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return err
	}
	if evt.Status != "healthy" {
		t.raise("service_health_issue",
			fmt.Sprintf("Service %s reported unhealthy status: %s", evt.Service, evt.Status),
			evt.Service, severityWarning)
	}
	return nil
}

func (t *Tap) raise(alertType, message, service, severity string) {
	alert := aggregator.Alert{
		Timestamp: t.nowFn(),
		Type:      alertType,
		Message:   message,
		Service:   service,
		Severity:  severity,
	}
	t.agg.AddAlert(alert)
	t.logger.Warn("alert raised",
		"module", "monitor.tap",
		"alert_type", alertType,
		"service", service,
		"severity", severity,
		"message", message,
	)
}
