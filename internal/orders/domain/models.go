package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeBuy  OrderType = "buy"
	OrderTypeSell OrderType = "sell"
)

func ParseOrderType(raw string) (OrderType, error) {
	switch OrderType(strings.ToLower(strings.TrimSpace(raw))) {
	case OrderTypeBuy:
		return OrderTypeBuy, nil
	case OrderTypeSell:
		return OrderTypeSell, nil
	default:
		return "", fmt.Errorf("%w: invalid order type %q", ErrInvalidInput, raw)
	}
}

type Order struct {
	OrderID       uuid.UUID
	OrderNumber   string
	OrderType     OrderType
	Status        OrderStatus
	CustomerName  string
	CustomerEmail string
	TotalAmount   decimal.Decimal
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ProcessedAt   *time.Time
}

// OrderItem snapshots the product at order-creation time. Name and unit
// price are deliberately never resynced against later product changes.
type OrderItem struct {
	ItemID      uuid.UUID
	OrderID     uuid.UUID
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// NewOrderNumber builds the human-readable order number, e.g.
// ORD-20250901143015-8F0C2A1B.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102150405"), suffix)
}
