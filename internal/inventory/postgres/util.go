package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercemesh/fulfillment/internal/inventory/domain"
)

// isUniqueViolation matches a 23505 however it surfaces: gorm's
// TranslateError hands repositories gorm.ErrDuplicatedKey, while
// drivers bypassing translation keep the raw postgres message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func toDomainProduct(rec productModel) domain.Product {
	return domain.Product{
		ProductID:     rec.ProductID,
		Name:          rec.Name,
		Description:   rec.Description,
		Price:         rec.Price,
		StockQuantity: rec.StockQuantity,
		MinStockLevel: rec.MinStockLevel,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func toDomainMovement(rec stockMovementModel) domain.StockMovement {
	return domain.StockMovement{
		MovementID:     rec.MovementID,
		ProductID:      rec.ProductID,
		QuantityChange: rec.QuantityChange,
		MovementType:   domain.MovementType(rec.MovementType),
		ReferenceID:    rec.ReferenceID,
		Notes:          rec.Notes,
		CreatedAt:      rec.CreatedAt,
	}
}
