package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercemesh/fulfillment/internal/inventory/domain"
)

type CreateProductParams struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	MinStockLevel int
	CreatedAt     time.Time
}

type UpdateProductParams struct {
	ProductID     uuid.UUID
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	MinStockLevel *int
	UpdatedAt     time.Time
}

type AdjustStockParams struct {
	ProductID      uuid.UUID
	QuantityChange int
	MovementType   domain.MovementType
	ReferenceID    string
	Notes          string
	Now            time.Time
}

// StockChange reports one applied mutation, with the quantities needed
// for the stock-update broadcast.
type StockChange struct {
	ProductID      uuid.UUID
	OldQuantity    int
	NewQuantity    int
	QuantityChange int
	MovementType   domain.MovementType
	ReferenceID    string
}

// ReservationItem is one requested line of a saga reservation batch.
type ReservationItem struct {
	ProductID uuid.UUID
	Quantity  int
}

type ProductRepository interface {
	Create(ctx context.Context, params CreateProductParams) (domain.Product, error)
	GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	ListLowStock(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, params UpdateProductParams) (domain.Product, error)

	// AdjustStock applies one manual stock mutation and its movement row
	// in a single transaction, rejecting changes that would drive the
	// quantity negative.
	AdjustStock(ctx context.Context, params AdjustStockParams) (StockChange, error)
}

// ReservationRepository runs the saga's batch mutations. Both methods
// are all-or-nothing: either every item's quantity change and movement
// row commits, or nothing does.
type ReservationRepository interface {
	// ReserveForOrder decrements stock for each item with a
	// sale_reservation movement referencing orderID. Business failures
	// (unknown product, insufficient stock) come back as itemErrors with
	// no rows written; err is reserved for infrastructure faults, except
	// domain.ErrDuplicateMovement which reports the whole batch as
	// already applied by an earlier delivery.
	ReserveForOrder(ctx context.Context, orderID string, items []ReservationItem, now time.Time) (changes []StockChange, itemErrors []string, err error)

	// ReplenishForOrder increments stock for each known item with a
	// purchase movement. Unknown products are skipped, matching the
	// replenishment path's no-capacity-check semantics.
	ReplenishForOrder(ctx context.Context, orderID string, items []ReservationItem, now time.Time) ([]StockChange, error)
}

type MovementRepository interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.StockMovement, error)
}

type Repositories struct {
	Products     ProductRepository
	Reservations ReservationRepository
	Movements    MovementRepository
}
