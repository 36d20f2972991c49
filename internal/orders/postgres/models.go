package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type orderModel struct {
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string          `gorm:"column:order_number"`
	OrderType     string          `gorm:"column:order_type"`
	Status        string          `gorm:"column:status"`
	CustomerName  string          `gorm:"column:customer_name"`
	CustomerEmail string          `gorm:"column:customer_email"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2)"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
	ProcessedAt   *time.Time      `gorm:"column:processed_at"`
}

func (orderModel) TableName() string { return "orders" }

type orderItemModel struct {
	ItemID      uuid.UUID       `gorm:"column:item_id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id"`
	ProductID   string          `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	Quantity    int             `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2)"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(10,2)"`
}

func (orderItemModel) TableName() string { return "order_items" }
