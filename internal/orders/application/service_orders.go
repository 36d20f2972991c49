package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/orders/domain"
	"github.com/commercemesh/fulfillment/internal/orders/ports"
)

func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (OrderResponse, error) {
	orderType, err := domain.ParseOrderType(req.OrderType)
	if err != nil {
		return OrderResponse{}, err
	}
	if err := domain.ValidateCustomerName(req.CustomerName); err != nil {
		return OrderResponse{}, err
	}
	if len(req.Items) == 0 {
		return OrderResponse{}, fmt.Errorf("%w: order must contain at least one item", domain.ErrInvalidInput)
	}

	items := make([]ports.NewOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if err := domain.ValidateItem(item.ProductID, item.Quantity, item.UnitPrice); err != nil {
			return OrderResponse{}, err
		}
		items = append(items, ports.NewOrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	now := s.nowFn()
	order, err := s.orders.Create(ctx, ports.CreateOrderParams{
		OrderNumber:   domain.NewOrderNumber(now),
		OrderType:     orderType,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Items:         items,
		Now:           now,
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.logger.InfoContext(ctx, "order created",
		"module", "orders.application",
		"layer", "application",
		"operation", "create_order",
		"outcome", "success",
		"order_id", order.OrderID.String(),
		"order_number", order.OrderNumber,
		"order_type", string(order.OrderType),
	)
	s.publishOrderCreated(ctx, order)
	return toOrderResponse(order), nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (OrderResponse, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

func (s *Service) ListOrders(ctx context.Context, query ListOrdersQuery) (OrderListResponse, error) {
	params := ports.ListOrdersParams{
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if query.Status != "" {
		status, err := domain.ParseOrderStatus(query.Status)
		if err != nil {
			return OrderListResponse{}, err
		}
		params.Status = &status
	}
	if query.OrderType != "" {
		orderType, err := domain.ParseOrderType(query.OrderType)
		if err != nil {
			return OrderListResponse{}, err
		}
		params.OrderType = &orderType
	}

	orders, total, err := s.orders.List(ctx, params)
	if err != nil {
		return OrderListResponse{}, err
	}
	out := OrderListResponse{
		Orders: make([]OrderResponse, 0, len(orders)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, order := range orders {
		out.Orders = append(out.Orders, toOrderResponse(order))
	}
	return out, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (OrderResponse, error) {
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		return OrderResponse{}, err
	}
	change, err := s.orders.UpdateStatus(ctx, orderID, status, s.nowFn())
	if err != nil {
		return OrderResponse{}, err
	}

	s.logger.InfoContext(ctx, "order status updated",
		"module", "orders.application",
		"layer", "application",
		"operation", "update_status",
		"outcome", "success",
		"order_id", orderID.String(),
		"old_status", string(change.Previous),
		"new_status", string(status),
	)
	s.publishTransition(ctx, change)
	return toOrderResponse(change.Order), nil
}

// CancelOrder is the delete surface. Orders are never removed from the
// ledger; cancellation is a status transition like any other.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID) (OrderResponse, error) {
	change, err := s.orders.UpdateStatus(ctx, orderID, domain.StatusCancelled, s.nowFn())
	if err != nil {
		return OrderResponse{}, err
	}

	s.logger.InfoContext(ctx, "order cancelled",
		"module", "orders.application",
		"layer", "application",
		"operation", "cancel_order",
		"outcome", "success",
		"order_id", orderID.String(),
		"old_status", string(change.Previous),
	)
	s.publishTransition(ctx, change)
	return toOrderResponse(change.Order), nil
}

func (s *Service) OrderStats(ctx context.Context) (OrderStatsResponse, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return OrderStatsResponse{}, err
	}
	out := OrderStatsResponse{
		TotalOrders:  stats.TotalOrders,
		ByStatus:     make(map[string]int64, len(stats.ByStatus)),
		ByType:       make(map[string]int64, len(stats.ByType)),
		TotalRevenue: stats.TotalRevenue,
	}
	for status, count := range stats.ByStatus {
		out.ByStatus[string(status)] = count
	}
	for orderType, count := range stats.ByType {
		out.ByType[string(orderType)] = count
	}
	return out, nil
}

// publishOrderCreated kicks off the reservation saga. The order is
// already committed; a publish failure is logged and the order stays
// pending until an operator replays it.
func (s *Service) publishOrderCreated(ctx context.Context, order domain.Order) {
	evt := contracts.OrderCreatedEvent{
		OrderID:       order.OrderID.String(),
		OrderNumber:   order.OrderNumber,
		OrderType:     string(order.OrderType),
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount,
		CreatedAt:     order.CreatedAt,
	}
	for _, item := range order.Items {
		evt.OrderItems = append(evt.OrderItems, contracts.OrderItemPayload{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal order-created event failed",
			"order_id", evt.OrderID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, contracts.TopicOrderCreated, payload, evt.OrderID); err != nil {
		s.logger.ErrorContext(ctx, "publish order-created event failed",
			"module", "orders.application",
			"layer", "application",
			"operation", "publish_order_created",
			"outcome", "failure",
			"order_id", evt.OrderID,
			"error", err,
		)
	}
}

func (s *Service) publishTransition(ctx context.Context, change ports.StatusChange) {
	evt := contracts.StatusTransitionEvent{
		OrderID:     change.Order.OrderID.String(),
		OrderNumber: change.Order.OrderNumber,
		OldStatus:   string(change.Previous),
		NewStatus:   string(change.Order.Status),
		UpdatedAt:   change.Order.UpdatedAt,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal status transition event failed",
			"order_id", evt.OrderID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, contracts.TopicOrderProcessed, payload, evt.OrderID); err != nil {
		s.logger.ErrorContext(ctx, "publish status transition event failed",
			"module", "orders.application",
			"layer", "application",
			"operation", "publish_transition",
			"outcome", "failure",
			"order_id", evt.OrderID,
			"error", err,
		)
	}
}
