package contracts

import (
	"testing"
)

func TestDecodeOutcomeReservation(t *testing.T) {
	t.Parallel()
	payload := []byte(`{"order_id":"o1","status":"stock_reservation_failed","errors":["Product x not found"],"timestamp":"2025-09-01T12:00:00Z"}`)

	outcome, err := DecodeOutcome(payload)
	if err != nil {
		t.Fatalf("DecodeOutcome: %v", err)
	}
	if outcome.Kind != OutcomeReservation {
		t.Fatalf("kind = %v, want reservation", outcome.Kind)
	}
	if outcome.Reservation.OrderID != "o1" || outcome.Reservation.Status != StatusStockReservationFailed {
		t.Fatalf("reservation = %+v", outcome.Reservation)
	}
	if len(outcome.Reservation.Errors) != 1 {
		t.Fatalf("errors = %v", outcome.Reservation.Errors)
	}
}

func TestDecodeOutcomeTransition(t *testing.T) {
	t.Parallel()
	payload := []byte(`{"order_id":"o2","order_number":"ORD-1","old_status":"pending","new_status":"cancelled","updated_at":"2025-09-01T12:00:00Z"}`)

	outcome, err := DecodeOutcome(payload)
	if err != nil {
		t.Fatalf("DecodeOutcome: %v", err)
	}
	if outcome.Kind != OutcomeTransition {
		t.Fatalf("kind = %v, want transition", outcome.Kind)
	}
	if outcome.Transition.NewStatus != "cancelled" || outcome.Transition.OldStatus != "pending" {
		t.Fatalf("transition = %+v", outcome.Transition)
	}
}

func TestDecodeOutcomeUnknownShape(t *testing.T) {
	t.Parallel()
	outcome, err := DecodeOutcome([]byte(`{"something":"else"}`))
	if err != nil {
		t.Fatalf("DecodeOutcome: %v", err)
	}
	if outcome.Kind != OutcomeUnknown {
		t.Fatalf("kind = %v, want unknown", outcome.Kind)
	}
}

func TestDecodeOutcomeMalformed(t *testing.T) {
	t.Parallel()
	if _, err := DecodeOutcome([]byte("{")); err == nil {
		t.Fatalf("malformed payload decoded without error")
	}
}
