package application

import (
	"log/slog"
	"time"

	"github.com/commercemesh/fulfillment/internal/orders/domain"
	"github.com/commercemesh/fulfillment/internal/orders/ports"
)

type Service struct {
	cfg       Config
	logger    *slog.Logger
	orders    ports.OrderRepository
	publisher ports.EventPublisher
	nowFn     func() time.Time
}

type Dependencies struct {
	Config    Config
	Logger    *slog.Logger
	Orders    ports.OrderRepository
	Publisher ports.EventPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "orders-service"
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		logger:    logger,
		orders:    deps.Orders,
		publisher: deps.Publisher,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

func toOrderResponse(o domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ItemID:      item.ItemID.String(),
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return OrderResponse{
		OrderID:       o.OrderID.String(),
		OrderNumber:   o.OrderNumber,
		OrderType:     string(o.OrderType),
		Status:        string(o.Status),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		TotalAmount:   o.TotalAmount,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		ProcessedAt:   o.ProcessedAt,
	}
}
