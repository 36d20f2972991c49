package application

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName string
}

type CreateOrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateOrderRequest struct {
	OrderType     string            `json:"order_type"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	Items         []CreateOrderItem `json:"items"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ListOrdersQuery struct {
	Status    string
	OrderType string
	Limit     int
	Offset    int
}

type OrderItemResponse struct {
	ItemID      string          `json:"item_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderResponse struct {
	OrderID       string              `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	OrderType     string              `json:"order_type"`
	Status        string              `json:"status"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email,omitempty"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	ProcessedAt   *time.Time          `json:"processed_at,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type OrderStatsResponse struct {
	TotalOrders  int64            `json:"total_orders"`
	ByStatus     map[string]int64 `json:"by_status"`
	ByType       map[string]int64 `json:"by_type"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
}
