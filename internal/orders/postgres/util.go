package postgres

import (
	"gorm.io/gorm/clause"

	"github.com/commercemesh/fulfillment/internal/orders/domain"
)

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func toDomainOrder(rec orderModel, items []orderItemModel) domain.Order {
	out := domain.Order{
		OrderID:       rec.OrderID,
		OrderNumber:   rec.OrderNumber,
		OrderType:     domain.OrderType(rec.OrderType),
		Status:        domain.OrderStatus(rec.Status),
		CustomerName:  rec.CustomerName,
		CustomerEmail: rec.CustomerEmail,
		TotalAmount:   rec.TotalAmount,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		ProcessedAt:   rec.ProcessedAt,
	}
	for _, item := range items {
		out.Items = append(out.Items, domain.OrderItem{
			ItemID:      item.ItemID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return out
}
