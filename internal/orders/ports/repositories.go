package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercemesh/fulfillment/internal/orders/domain"
)

type NewOrderItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type CreateOrderParams struct {
	OrderNumber   string
	OrderType     domain.OrderType
	CustomerName  string
	CustomerEmail string
	Items         []NewOrderItem
	Now           time.Time
}

type ListOrdersParams struct {
	Status    *domain.OrderStatus
	OrderType *domain.OrderType
	Limit     int
	Offset    int
}

// StatusChange reports one applied transition, carrying the order as it
// looks after the move plus the status it moved from.
type StatusChange struct {
	Order    domain.Order
	Previous domain.OrderStatus
}

type OrderStats struct {
	TotalOrders  int64
	ByStatus     map[domain.OrderStatus]int64
	ByType       map[domain.OrderType]int64
	TotalRevenue decimal.Decimal
}

type OrderRepository interface {
	// Create inserts the order and all of its items in one transaction.
	Create(ctx context.Context, params CreateOrderParams) (domain.Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	List(ctx context.Context, params ListOrdersParams) ([]domain.Order, int64, error)

	// UpdateStatus moves the order to the requested status, rejecting
	// moves the status machine forbids with domain.ErrInvalidTransition.
	// Moving to completed stamps processed_at.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, now time.Time) (StatusChange, error)

	// ApplyOutcome resolves and applies the transition for a reservation
	// outcome. changed is false when the outcome was a no-op, which is
	// how redelivered events surface.
	ApplyOutcome(ctx context.Context, orderID uuid.UUID, path domain.OutcomePath, now time.Time) (change StatusChange, changed bool, err error)

	Stats(ctx context.Context) (OrderStats, error)
}
