package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/fulfillment/internal/inventory/domain"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) Create(ctx context.Context, params ports.CreateProductParams) (domain.Product, error) {
	rec := productModel{
		Name:          strings.TrimSpace(params.Name),
		Description:   params.Description,
		Price:         params.Price,
		StockQuantity: params.StockQuantity,
		MinStockLevel: params.MinStockLevel,
		CreatedAt:     params.CreatedAt,
		UpdatedAt:     params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, domain.ErrConflict
		}
		return domain.Product{}, err
	}
	return toDomainProduct(rec), nil
}

func (r *productRepository) GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	var rec productModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(rec), nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	var recs []productModel
	if err := r.db.WithContext(ctx).Order("created_at").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainProduct(rec))
	}
	return out, nil
}

func (r *productRepository) ListLowStock(ctx context.Context) ([]domain.Product, error) {
	var recs []productModel
	if err := r.db.WithContext(ctx).Where("stock_quantity <= min_stock_level").Order("stock_quantity").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainProduct(rec))
	}
	return out, nil
}

func (r *productRepository) Update(ctx context.Context, params ports.UpdateProductParams) (domain.Product, error) {
	updates := map[string]any{
		"updated_at": params.UpdatedAt,
	}
	if params.Name != nil {
		updates["name"] = strings.TrimSpace(*params.Name)
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.Price != nil {
		updates["price"] = *params.Price
	}
	if params.MinStockLevel != nil {
		updates["min_stock_level"] = *params.MinStockLevel
	}

	res := r.db.WithContext(ctx).Model(&productModel{}).Where("product_id = ?", params.ProductID).Updates(updates)
	if res.Error != nil {
		return domain.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, params.ProductID)
}

// AdjustStock writes the quantity change and its movement row in one
// transaction. The row lock taken by the read serializes concurrent
// adjustments against the same product.
func (r *productRepository) AdjustStock(ctx context.Context, params ports.AdjustStockParams) (ports.StockChange, error) {
	var change ports.StockChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec productModel
		if err := tx.Clauses(forUpdate()).Where("product_id = ?", params.ProductID).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		newQuantity := rec.StockQuantity + params.QuantityChange
		if params.QuantityChange < 0 && newQuantity < 0 {
			return fmt.Errorf("%w: available %d, requested %d", domain.ErrInsufficientStock, rec.StockQuantity, -params.QuantityChange)
		}
		if err := tx.Model(&productModel{}).
			Where("product_id = ?", params.ProductID).
			Updates(map[string]any{
				"stock_quantity": newQuantity,
				"updated_at":     params.Now,
			}).Error; err != nil {
			return err
		}
		movement := stockMovementModel{
			ProductID:      params.ProductID,
			QuantityChange: params.QuantityChange,
			MovementType:   string(params.MovementType),
			ReferenceID:    params.ReferenceID,
			Notes:          params.Notes,
			CreatedAt:      params.Now,
		}
		if err := tx.Create(&movement).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateMovement
			}
			return err
		}
		change = ports.StockChange{
			ProductID:      params.ProductID,
			OldQuantity:    rec.StockQuantity,
			NewQuantity:    newQuantity,
			QuantityChange: params.QuantityChange,
			MovementType:   params.MovementType,
			ReferenceID:    params.ReferenceID,
		}
		return nil
	})
	if err != nil {
		return ports.StockChange{}, err
	}
	return change, nil
}

var _ ports.ProductRepository = (*productRepository)(nil)
