package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/inventory/domain"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

// HandleMessage dispatches one consumed message to the saga handlers.
// Returned errors are infrastructure faults only; business failures
// become failure outcome events and a nil return, so the broker never
// redelivers what has already been answered.
func (s *Service) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	switch topic {
	case contracts.TopicOrderCreated:
		return s.handleOrderCreated(ctx, payload)
	case contracts.TopicOrderProcessed:
		return s.handleOrderProcessed(ctx, payload)
	default:
		s.logger.WarnContext(ctx, "unknown topic",
			"module", "inventory.application",
			"layer", "application",
			"operation", "handle_message",
			"topic", topic,
		)
		return nil
	}
}

func (s *Service) handleOrderCreated(ctx context.Context, payload []byte) error {
	var evt contracts.OrderCreatedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: invalid order-created payload", domain.ErrInvalidInput)
	}
	s.logger.InfoContext(ctx, "processing order created",
		"module", "inventory.application",
		"layer", "application",
		"operation", "handle_order_created",
		"order_id", evt.OrderID,
		"order_type", evt.OrderType,
	)

	switch evt.OrderType {
	case "sell":
		return s.reserveStock(ctx, evt)
	case "buy":
		return s.replenishStock(ctx, evt)
	default:
		s.logger.WarnContext(ctx, "order-created with unknown order_type",
			"order_id", evt.OrderID, "order_type", evt.OrderType)
		return nil
	}
}

func (s *Service) reserveStock(ctx context.Context, evt contracts.OrderCreatedEvent) error {
	items, parseErrors := toReservationItems(evt.OrderItems)
	if len(parseErrors) > 0 {
		// Unresolvable product references fail the batch the same way a
		// missing product does.
		return s.publishOutcome(ctx, evt.OrderID, contracts.StatusStockReservationFailed, parseErrors)
	}

	changes, itemErrors, err := s.reservations.ReserveForOrder(ctx, evt.OrderID, items, s.nowFn())
	switch {
	case errors.Is(err, domain.ErrDuplicateMovement):
		// Redelivery of an already-applied reservation: no new movements,
		// but the order side still needs its (idempotent) outcome.
		s.logger.InfoContext(ctx, "reservation already applied, re-emitting outcome",
			"module", "inventory.application",
			"layer", "application",
			"operation", "reserve_stock",
			"order_id", evt.OrderID,
		)
		return s.publishOutcome(ctx, evt.OrderID, contracts.StatusStockReserved, nil)
	case err != nil:
		return err
	case len(itemErrors) > 0:
		s.logger.ErrorContext(ctx, "stock reservation failed",
			"module", "inventory.application",
			"layer", "application",
			"operation", "reserve_stock",
			"outcome", "failure",
			"order_id", evt.OrderID,
			"errors", itemErrors,
		)
		return s.publishOutcome(ctx, evt.OrderID, contracts.StatusStockReservationFailed, itemErrors)
	}

	for _, change := range changes {
		s.invalidateProduct(ctx, change.ProductID)
	}
	s.logger.InfoContext(ctx, "stock reserved",
		"module", "inventory.application",
		"layer", "application",
		"operation", "reserve_stock",
		"outcome", "success",
		"order_id", evt.OrderID,
		"items", len(changes),
	)
	return s.publishOutcome(ctx, evt.OrderID, contracts.StatusStockReserved, nil)
}

func (s *Service) replenishStock(ctx context.Context, evt contracts.OrderCreatedEvent) error {
	items, parseErrors := toReservationItems(evt.OrderItems)
	for _, msg := range parseErrors {
		s.logger.WarnContext(ctx, "skipping replenishment item", "order_id", evt.OrderID, "reason", msg)
	}

	changes, err := s.reservations.ReplenishForOrder(ctx, evt.OrderID, items, s.nowFn())
	switch {
	case errors.Is(err, domain.ErrDuplicateMovement):
		return s.publishOutcome(ctx, evt.OrderID, contracts.StatusStockUpdated, nil)
	case err != nil:
		return err
	}

	for _, change := range changes {
		s.invalidateProduct(ctx, change.ProductID)
	}
	s.logger.InfoContext(ctx, "stock added for buy order",
		"module", "inventory.application",
		"layer", "application",
		"operation", "replenish_stock",
		"outcome", "success",
		"order_id", evt.OrderID,
		"items", len(changes),
	)
	return s.publishOutcome(ctx, evt.OrderID, contracts.StatusStockUpdated, nil)
}

func (s *Service) handleOrderProcessed(ctx context.Context, payload []byte) error {
	outcome, err := contracts.DecodeOutcome(payload)
	if err != nil {
		return fmt.Errorf("%w: invalid order-processed payload", domain.ErrInvalidInput)
	}
	if outcome.Kind != contracts.OutcomeTransition {
		return nil
	}
	evt := outcome.Transition
	s.logger.InfoContext(ctx, "order status transition observed",
		"module", "inventory.application",
		"layer", "application",
		"operation", "handle_order_processed",
		"order_id", evt.OrderID,
		"new_status", evt.NewStatus,
	)
	// Known gap: reserved stock is NOT restored when an order is
	// cancelled or failed. Cancelled sell orders keep their reservation
	// decrements, under-reporting available stock.
	if evt.NewStatus == "cancelled" || evt.NewStatus == "failed" {
		s.logger.InfoContext(ctx, "order terminated, stock restoration might be needed",
			"module", "inventory.application",
			"layer", "application",
			"operation", "handle_order_processed",
			"order_id", evt.OrderID,
			"new_status", evt.NewStatus,
		)
	}
	return nil
}

func (s *Service) publishOutcome(ctx context.Context, orderID, status string, itemErrors []string) error {
	evt := contracts.ReservationOutcomeEvent{
		OrderID:   orderID,
		Status:    status,
		Errors:    itemErrors,
		Timestamp: s.nowFn(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, contracts.TopicOrderProcessed, payload, orderID)
}

func toReservationItems(items []contracts.OrderItemPayload) ([]ports.ReservationItem, []string) {
	out := make([]ports.ReservationItem, 0, len(items))
	var errs []string
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Product %s not found", item.ProductID))
			continue
		}
		if item.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("Invalid quantity %d for product %s", item.Quantity, item.ProductID))
			continue
		}
		out = append(out, ports.ReservationItem{ProductID: productID, Quantity: item.Quantity})
	}
	return out, errs
}
