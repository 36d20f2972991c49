package application

import (
	"log/slog"
	"time"

	"github.com/commercemesh/fulfillment/internal/inventory/domain"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

type Service struct {
	cfg          Config
	logger       *slog.Logger
	products     ports.ProductRepository
	reservations ports.ReservationRepository
	movements    ports.MovementRepository
	publisher    ports.EventPublisher
	cache        ports.Cache
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Logger       *slog.Logger
	Products     ports.ProductRepository
	Reservations ports.ReservationRepository
	Movements    ports.MovementRepository
	Publisher    ports.EventPublisher
	Cache        ports.Cache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "inventory-service"
	}
	if cfg.ProductCacheTTL <= 0 {
		cfg.ProductCacheTTL = 5 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:          cfg,
		logger:       logger,
		products:     deps.Products,
		reservations: deps.Reservations,
		movements:    deps.Movements,
		publisher:    deps.Publisher,
		cache:        deps.Cache,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ProductID:     p.ProductID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		MinStockLevel: p.MinStockLevel,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toMovementResponse(m domain.StockMovement) MovementResponse {
	return MovementResponse{
		MovementID:     m.MovementID.String(),
		ProductID:      m.ProductID.String(),
		QuantityChange: m.QuantityChange,
		MovementType:   string(m.MovementType),
		ReferenceID:    m.ReferenceID,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}
