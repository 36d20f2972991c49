package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/inventory/domain"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

// UpdateStock applies a manual stock adjustment and broadcasts the
// resulting ledger fact on the stock-update topic.
func (s *Service) UpdateStock(ctx context.Context, productID uuid.UUID, req UpdateStockRequest) (UpdateStockResponse, error) {
	movementType := domain.MovementType(req.MovementType)
	if !movementType.Valid() {
		return UpdateStockResponse{}, fmt.Errorf("%w: unknown movement_type %q", domain.ErrInvalidInput, req.MovementType)
	}
	if req.QuantityChange == 0 {
		return UpdateStockResponse{}, fmt.Errorf("%w: quantity_change must not be zero", domain.ErrInvalidInput)
	}
	now := s.nowFn()
	change, err := s.products.AdjustStock(ctx, ports.AdjustStockParams{
		ProductID:      productID,
		QuantityChange: req.QuantityChange,
		MovementType:   movementType,
		ReferenceID:    req.ReferenceID,
		Notes:          req.Notes,
		Now:            now,
	})
	if err != nil {
		return UpdateStockResponse{}, err
	}
	s.invalidateProduct(ctx, productID)
	s.publishStockUpdate(ctx, change)

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return UpdateStockResponse{}, err
	}
	s.logger.InfoContext(ctx, "stock adjusted",
		"module", "inventory.application",
		"layer", "application",
		"operation", "update_stock",
		"outcome", "success",
		"product_id", productID,
		"old_quantity", change.OldQuantity,
		"new_quantity", change.NewQuantity,
	)
	return UpdateStockResponse{
		Product: toProductResponse(product),
		Movement: MovementResponse{
			ProductID:      productID.String(),
			QuantityChange: change.QuantityChange,
			MovementType:   string(change.MovementType),
			ReferenceID:    change.ReferenceID,
			Notes:          req.Notes,
			CreatedAt:      now,
		},
	}, nil
}

func (s *Service) ListMovements(ctx context.Context, productID uuid.UUID) ([]MovementResponse, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	movements, err := s.movements.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	return out, nil
}

// publishStockUpdate broadcasts a ledger fact. The orders service only
// logs these; the monitor's low-stock and negative-stock rules read
// them. Send failures are logged, not surfaced: the local commit stands.
func (s *Service) publishStockUpdate(ctx context.Context, change ports.StockChange) {
	evt := contracts.StockUpdateEvent{
		ProductID:      change.ProductID.String(),
		OldQuantity:    change.OldQuantity,
		NewQuantity:    change.NewQuantity,
		QuantityChange: change.QuantityChange,
		MovementType:   string(change.MovementType),
		ReferenceID:    change.ReferenceID,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal stock update failed", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, contracts.TopicStockUpdate, payload, change.ProductID.String()); err != nil {
		s.logger.ErrorContext(ctx, "publish stock update failed",
			"module", "inventory.application",
			"layer", "application",
			"operation", "publish_stock_update",
			"outcome", "failure",
			"product_id", change.ProductID,
			"error", err,
		)
	}
}
