package postgres

import (
	"embed"

	"gorm.io/gorm"

	"github.com/commercemesh/fulfillment/internal/orders/ports"
)

//go:embed migrations/*.sql
var MigrationFS embed.FS

const MigrationDir = "migrations"

func NewOrderRepository(db *gorm.DB) ports.OrderRepository {
	return &orderRepository{db: db}
}
