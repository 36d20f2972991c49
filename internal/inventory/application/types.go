package application

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName     string
	ProductCacheTTL time.Duration
}

type CreateProductRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel *int            `json:"min_stock_level"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	MinStockLevel *int             `json:"min_stock_level"`
}

type UpdateStockRequest struct {
	QuantityChange int    `json:"quantity_change"`
	MovementType   string `json:"movement_type"`
	ReferenceID    string `json:"reference_id"`
	Notes          string `json:"notes"`
}

type ProductResponse struct {
	ProductID     string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type MovementResponse struct {
	MovementID     string    `json:"id"`
	ProductID      string    `json:"product_id"`
	QuantityChange int       `json:"quantity_change"`
	MovementType   string    `json:"movement_type"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type UpdateStockResponse struct {
	Product  ProductResponse  `json:"product"`
	Movement MovementResponse `json:"stock_movement"`
}
