package postgres

import (
	"embed"

	"gorm.io/gorm"

	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

//go:embed migrations/*.sql
var MigrationFS embed.FS

const MigrationDir = "migrations"

func NewRepositories(db *gorm.DB) ports.Repositories {
	return ports.Repositories{
		Products:     &productRepository{db: db},
		Reservations: &reservationRepository{db: db},
		Movements:    &movementRepository{db: db},
	}
}
