package domain

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusFailed     OrderStatus = "failed"
)

func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: invalid order status %q", ErrInvalidInput, raw)
	}
}

// Terminal reports whether no further transition may leave the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// transitions is the full status machine. Absent entries are rejected.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusCancelled, StatusFailed},
}

// CanTransition reports whether from may move to to through the
// synchronous status endpoints.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OutcomePath is the reservation result reported back by the stock
// ledger for an order.
type OutcomePath int

const (
	SuccessPath OutcomePath = iota
	FailurePath
)

// ApplyOutcome resolves the status an order moves to when a reservation
// outcome arrives. Success moves pending orders to processing and is a
// no-op for every other status, so redelivered events cannot regress an
// order. Failure forces failed regardless of the current status.
func ApplyOutcome(current OrderStatus, path OutcomePath) (OrderStatus, bool) {
	switch path {
	case SuccessPath:
		if current == StatusPending {
			return StatusProcessing, true
		}
		return current, false
	case FailurePath:
		if current == StatusFailed {
			return current, false
		}
		return StatusFailed, true
	}
	return current, false
}
