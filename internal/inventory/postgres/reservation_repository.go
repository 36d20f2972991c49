package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/fulfillment/internal/inventory/domain"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

type reservationRepository struct {
	db *gorm.DB
}

// mergeItems folds repeated lines for the same product into one, so a
// batch writes at most one movement per product and a unique violation
// on (product_id, reference_id, movement_type) can only mean the whole
// order was delivered before.
func mergeItems(items []ports.ReservationItem) []ports.ReservationItem {
	merged := make([]ports.ReservationItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// ReserveForOrder walks the batch item by item but commits or discards
// it as a unit. On the first duplicate movement (the unique index on
// product_id/reference_id/movement_type) the whole batch is treated as
// a redelivery of an already-applied reservation.
func (r *reservationRepository) ReserveForOrder(ctx context.Context, orderID string, items []ports.ReservationItem, now time.Time) ([]ports.StockChange, []string, error) {
	var (
		changes    []ports.StockChange
		itemErrors []string
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range mergeItems(items) {
			var rec productModel
			if err := tx.Clauses(forUpdate()).Where("product_id = ?", item.ProductID).Take(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					itemErrors = append(itemErrors, fmt.Sprintf("Product %s not found", item.ProductID))
					continue
				}
				return err
			}
			if rec.StockQuantity < item.Quantity {
				itemErrors = append(itemErrors, fmt.Sprintf(
					"Insufficient stock for product %s: available %d, requested %d",
					item.ProductID, rec.StockQuantity, item.Quantity))
				continue
			}
			newQuantity := rec.StockQuantity - item.Quantity
			if err := tx.Model(&productModel{}).
				Where("product_id = ?", item.ProductID).
				Updates(map[string]any{
					"stock_quantity": newQuantity,
					"updated_at":     now,
				}).Error; err != nil {
				return err
			}
			movement := stockMovementModel{
				ProductID:      item.ProductID,
				QuantityChange: -item.Quantity,
				MovementType:   string(domain.MovementSaleReservation),
				ReferenceID:    orderID,
				Notes:          fmt.Sprintf("Stock reserved for order %s", orderID),
				CreatedAt:      now,
			}
			if err := tx.Create(&movement).Error; err != nil {
				if isUniqueViolation(err) {
					return domain.ErrDuplicateMovement
				}
				return err
			}
			changes = append(changes, ports.StockChange{
				ProductID:      item.ProductID,
				OldQuantity:    rec.StockQuantity,
				NewQuantity:    newQuantity,
				QuantityChange: -item.Quantity,
				MovementType:   domain.MovementSaleReservation,
				ReferenceID:    orderID,
			})
		}
		if len(itemErrors) > 0 {
			// Any failed item discards the partial decrements.
			return domain.ErrInsufficientStock
		}
		return nil
	})
	switch {
	case err == nil:
		return changes, nil, nil
	case errors.Is(err, domain.ErrInsufficientStock):
		return nil, itemErrors, nil
	default:
		return nil, nil, err
	}
}

func (r *reservationRepository) ReplenishForOrder(ctx context.Context, orderID string, items []ports.ReservationItem, now time.Time) ([]ports.StockChange, error) {
	var changes []ports.StockChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range mergeItems(items) {
			var rec productModel
			if err := tx.Clauses(forUpdate()).Where("product_id = ?", item.ProductID).Take(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Replenishment skips unknown products rather than
					// failing the batch.
					continue
				}
				return err
			}
			newQuantity := rec.StockQuantity + item.Quantity
			if err := tx.Model(&productModel{}).
				Where("product_id = ?", item.ProductID).
				Updates(map[string]any{
					"stock_quantity": newQuantity,
					"updated_at":     now,
				}).Error; err != nil {
				return err
			}
			movement := stockMovementModel{
				ProductID:      item.ProductID,
				QuantityChange: item.Quantity,
				MovementType:   string(domain.MovementPurchase),
				ReferenceID:    orderID,
				Notes:          fmt.Sprintf("Stock added from purchase order %s", orderID),
				CreatedAt:      now,
			}
			if err := tx.Create(&movement).Error; err != nil {
				if isUniqueViolation(err) {
					return domain.ErrDuplicateMovement
				}
				return err
			}
			changes = append(changes, ports.StockChange{
				ProductID:      item.ProductID,
				OldQuantity:    rec.StockQuantity,
				NewQuantity:    newQuantity,
				QuantityChange: item.Quantity,
				MovementType:   domain.MovementPurchase,
				ReferenceID:    orderID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

var _ ports.ReservationRepository = (*reservationRepository)(nil)
