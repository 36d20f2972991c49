package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productModel struct {
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name"`
	Description   string          `gorm:"column:description"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2)"`
	StockQuantity int             `gorm:"column:stock_quantity"`
	MinStockLevel int             `gorm:"column:min_stock_level"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "products" }

type stockMovementModel struct {
	MovementID     uuid.UUID `gorm:"column:movement_id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id"`
	QuantityChange int       `gorm:"column:quantity_change"`
	MovementType   string    `gorm:"column:movement_type"`
	ReferenceID    string    `gorm:"column:reference_id"`
	Notes          string    `gorm:"column:notes"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (stockMovementModel) TableName() string { return "stock_movements" }
