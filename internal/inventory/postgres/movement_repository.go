package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/fulfillment/internal/inventory/domain"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

type movementRepository struct {
	db *gorm.DB
}

func (r *movementRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.StockMovement, error) {
	var recs []stockMovementModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.StockMovement, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainMovement(rec))
	}
	return out, nil
}

var _ ports.MovementRepository = (*movementRepository)(nil)
