package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/orders/domain"
)

// HandleMessage dispatches one consumed message. The orders side reacts
// only to reservation outcomes; everything else on its topics is
// observational.
func (s *Service) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	switch topic {
	case contracts.TopicOrderProcessed:
		return s.handleOrderProcessed(ctx, payload)
	case contracts.TopicStockUpdate:
		return s.handleStockUpdate(ctx, payload)
	default:
		s.logger.WarnContext(ctx, "unknown topic",
			"module", "orders.application",
			"layer", "application",
			"operation", "handle_message",
			"topic", topic,
		)
		return nil
	}
}

func (s *Service) handleOrderProcessed(ctx context.Context, payload []byte) error {
	outcome, err := contracts.DecodeOutcome(payload)
	if err != nil {
		return fmt.Errorf("%w: invalid order-processed payload", domain.ErrInvalidInput)
	}
	if outcome.Kind != contracts.OutcomeReservation {
		// Status transition echoes published by this service come back on
		// the same topic. Nothing to apply.
		return nil
	}
	return s.applyReservationOutcome(ctx, outcome.Reservation)
}

func (s *Service) applyReservationOutcome(ctx context.Context, evt contracts.ReservationOutcomeEvent) error {
	var path domain.OutcomePath
	switch evt.Status {
	case contracts.StatusStockReserved, contracts.StatusStockUpdated:
		path = domain.SuccessPath
	case contracts.StatusStockReservationFailed:
		path = domain.FailurePath
	default:
		s.logger.WarnContext(ctx, "unknown reservation outcome status",
			"module", "orders.application",
			"layer", "application",
			"operation", "apply_outcome",
			"order_id", evt.OrderID,
			"status", evt.Status,
		)
		return nil
	}

	orderID, err := uuid.Parse(evt.OrderID)
	if err != nil {
		s.logger.WarnContext(ctx, "reservation outcome with malformed order id",
			"order_id", evt.OrderID, "error", err)
		return nil
	}

	change, changed, err := s.orders.ApplyOutcome(ctx, orderID, path, s.nowFn())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Outcome for an order this ledger does not know. Dropped, not
		// retried: redelivery cannot make the order appear.
		s.logger.WarnContext(ctx, "reservation outcome for unknown order",
			"module", "orders.application",
			"layer", "application",
			"operation", "apply_outcome",
			"order_id", evt.OrderID,
			"status", evt.Status,
		)
		return nil
	case err != nil:
		return err
	}

	if !changed {
		s.logger.InfoContext(ctx, "reservation outcome already applied",
			"module", "orders.application",
			"layer", "application",
			"operation", "apply_outcome",
			"order_id", evt.OrderID,
			"status", string(change.Order.Status),
		)
		return nil
	}

	s.logger.InfoContext(ctx, "order status advanced by reservation outcome",
		"module", "orders.application",
		"layer", "application",
		"operation", "apply_outcome",
		"outcome", "success",
		"order_id", evt.OrderID,
		"old_status", string(change.Previous),
		"new_status", string(change.Order.Status),
		"reservation_errors", evt.Errors,
	)
	return nil
}

func (s *Service) handleStockUpdate(ctx context.Context, payload []byte) error {
	var evt contracts.StockUpdateEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: invalid stock-update payload", domain.ErrInvalidInput)
	}
	s.logger.InfoContext(ctx, "stock level changed",
		"module", "orders.application",
		"layer", "application",
		"operation", "handle_stock_update",
		"product_id", evt.ProductID,
		"old_quantity", evt.OldQuantity,
		"new_quantity", evt.NewQuantity,
		"movement_type", evt.MovementType,
	)
	return nil
}
