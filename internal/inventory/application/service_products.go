package application

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/commercemesh/fulfillment/internal/inventory/domain"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

const productCacheKeyPrefix = "inventory:product:"

func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error) {
	if err := domain.ValidateProductName(req.Name); err != nil {
		return ProductResponse{}, err
	}
	if err := domain.ValidatePrice(req.Price); err != nil {
		return ProductResponse{}, err
	}
	if err := domain.ValidateStockQuantity(req.StockQuantity); err != nil {
		return ProductResponse{}, err
	}
	minLevel := 10
	if req.MinStockLevel != nil {
		minLevel = *req.MinStockLevel
	}
	created, err := s.products.Create(ctx, ports.CreateProductParams{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		MinStockLevel: minLevel,
		CreatedAt:     s.nowFn(),
	})
	if err != nil {
		return ProductResponse{}, err
	}
	s.logger.InfoContext(ctx, "product created",
		"module", "inventory.application",
		"layer", "application",
		"operation", "create_product",
		"outcome", "success",
		"product_id", created.ProductID,
	)
	return toProductResponse(created), nil
}

func (s *Service) GetProduct(ctx context.Context, productID uuid.UUID) (ProductResponse, error) {
	key := productCacheKeyPrefix + productID.String()
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var resp ProductResponse
			if unmarshalErr := json.Unmarshal([]byte(raw), &resp); unmarshalErr == nil {
				return resp, nil
			}
		}
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, err
	}
	resp := toProductResponse(product)
	if s.cache != nil {
		if raw, marshalErr := json.Marshal(resp); marshalErr == nil {
			_ = s.cache.Set(ctx, key, string(raw), s.cfg.ProductCacheTTL)
		}
	}
	return resp, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

func (s *Service) ListLowStockProducts(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

func (s *Service) UpdateProduct(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (ProductResponse, error) {
	if req.Name != nil {
		if err := domain.ValidateProductName(*req.Name); err != nil {
			return ProductResponse{}, err
		}
	}
	if req.Price != nil {
		if err := domain.ValidatePrice(*req.Price); err != nil {
			return ProductResponse{}, err
		}
	}
	updated, err := s.products.Update(ctx, ports.UpdateProductParams{
		ProductID:     productID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		MinStockLevel: req.MinStockLevel,
		UpdatedAt:     s.nowFn(),
	})
	if err != nil {
		return ProductResponse{}, err
	}
	s.invalidateProduct(ctx, productID)
	return toProductResponse(updated), nil
}

func (s *Service) invalidateProduct(ctx context.Context, productID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, productCacheKeyPrefix+productID.String())
}
