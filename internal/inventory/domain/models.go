package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementPurchase        MovementType = "purchase"
	MovementSaleReservation MovementType = "sale_reservation"
	MovementAdjustment      MovementType = "adjustment"
)

func (m MovementType) Valid() bool {
	switch m {
	case MovementPurchase, MovementSaleReservation, MovementAdjustment:
		return true
	}
	return false
}

type Product struct {
	ProductID     uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	MinStockLevel int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StockMovement is one immutable ledger row. The sum of QuantityChange
// over a product's movements always equals its current StockQuantity;
// both are written in the same transaction, never separately.
type StockMovement struct {
	MovementID     uuid.UUID
	ProductID      uuid.UUID
	QuantityChange int
	MovementType   MovementType
	ReferenceID    string
	Notes          string
	CreatedAt      time.Time
}
