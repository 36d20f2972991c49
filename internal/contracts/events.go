// Package contracts defines the Kafka topics and message payloads the
// three services exchange. Every payload is flat JSON; cross-service
// references travel as plain id strings, never as foreign keys.
package contracts

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated   = "order-created"
	TopicOrderProcessed = "order-processed"
	TopicStockUpdate    = "stock-update"
	TopicHealthCheck    = "health-check"
)

const (
	GroupInventory = "inventory-service-group"
	GroupOrders    = "orders-service-group"
	GroupMonitor   = "monitor-service-group"
)

// Reservation outcome statuses carried on the order-processed topic.
const (
	StatusStockReserved          = "stock_reserved"
	StatusStockUpdated           = "stock_updated"
	StatusStockReservationFailed = "stock_reservation_failed"
)

type OrderItemPayload struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderCreatedEvent struct {
	OrderID       string             `json:"order_id"`
	OrderNumber   string             `json:"order_number"`
	OrderType     string             `json:"order_type"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	OrderItems    []OrderItemPayload `json:"order_items"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ReservationOutcomeEvent reports the result of a saga step back on the
// order-processed topic. Errors is populated only on failure.
type ReservationOutcomeEvent struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusTransitionEvent announces a synchronous status change made
// through the orders API (update or cancel).
type StatusTransitionEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type StockUpdateEvent struct {
	ProductID      string `json:"product_id"`
	OldQuantity    int    `json:"old_quantity"`
	NewQuantity    int    `json:"new_quantity"`
	QuantityChange int    `json:"quantity_change"`
	MovementType   string `json:"movement_type"`
	ReferenceID    string `json:"reference_id,omitempty"`
}

type HealthCheckEvent struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

// OutcomeKind tags the two payload shapes that share the order-processed
// topic so consumers switch on a typed variant instead of probing maps.
type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeReservation
	OutcomeTransition
)

type OutcomeEvent struct {
	Kind        OutcomeKind
	Reservation ReservationOutcomeEvent
	Transition  StatusTransitionEvent
}

// DecodeOutcome classifies an order-processed payload. Reservation
// outcomes carry a bare status string; transition messages carry
// old_status/new_status instead.
func DecodeOutcome(payload []byte) (OutcomeEvent, error) {
	var probe struct {
		Status    string `json:"status"`
		NewStatus string `json:"new_status"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return OutcomeEvent{}, err
	}
	switch {
	case probe.Status != "":
		var evt ReservationOutcomeEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return OutcomeEvent{}, err
		}
		return OutcomeEvent{Kind: OutcomeReservation, Reservation: evt}, nil
	case probe.NewStatus != "":
		var evt StatusTransitionEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return OutcomeEvent{}, err
		}
		return OutcomeEvent{Kind: OutcomeTransition, Transition: evt}, nil
	default:
		return OutcomeEvent{Kind: OutcomeUnknown}, nil
	}
}
