package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/inventory/domain"
	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

// fakeLedger keeps products and movements in memory with the same
// all-or-nothing reservation contract as the postgres adapter.
type fakeLedger struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*domain.Product
	movements []domain.StockMovement
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{products: make(map[uuid.UUID]*domain.Product)}
}

func (f *fakeLedger) addProduct(stock int) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.products[id] = &domain.Product{
		ProductID:     id,
		Name:          "widget",
		Price:         decimal.NewFromInt(10),
		StockQuantity: stock,
		MinStockLevel: 10,
	}
	return id
}

func (f *fakeLedger) stock(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].StockQuantity
}

// movementSum returns the signed sum of all movement deltas for one
// product, for checking the ledger invariant against stock.
func (f *fakeLedger) movementSum(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, m := range f.movements {
		if m.ProductID == id {
			sum += m.QuantityChange
		}
	}
	return sum
}

func (f *fakeLedger) movementCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.movements)
}

func (f *fakeLedger) hasMovement(id uuid.UUID, movementType domain.MovementType, referenceID string) bool {
	for _, m := range f.movements {
		if m.ProductID == id && m.MovementType == movementType && m.ReferenceID == referenceID {
			return true
		}
	}
	return false
}

func (f *fakeLedger) ReserveForOrder(_ context.Context, orderID string, items []ports.ReservationItem, now time.Time) ([]ports.StockChange, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range items {
		if f.hasMovement(item.ProductID, domain.MovementSaleReservation, orderID) {
			return nil, nil, domain.ErrDuplicateMovement
		}
	}

	var itemErrors []string
	for _, item := range items {
		product, ok := f.products[item.ProductID]
		if !ok {
			itemErrors = append(itemErrors, fmt.Sprintf("Product %s not found", item.ProductID))
			continue
		}
		if product.StockQuantity < item.Quantity {
			itemErrors = append(itemErrors, fmt.Sprintf("Insufficient stock for product %s: available %d, requested %d", item.ProductID, product.StockQuantity, item.Quantity))
		}
	}
	if len(itemErrors) > 0 {
		return nil, itemErrors, nil
	}

	changes := make([]ports.StockChange, 0, len(items))
	for _, item := range items {
		product := f.products[item.ProductID]
		old := product.StockQuantity
		product.StockQuantity -= item.Quantity
		f.movements = append(f.movements, domain.StockMovement{
			MovementID:     uuid.New(),
			ProductID:      item.ProductID,
			QuantityChange: -item.Quantity,
			MovementType:   domain.MovementSaleReservation,
			ReferenceID:    orderID,
			CreatedAt:      now,
		})
		changes = append(changes, ports.StockChange{
			ProductID:      item.ProductID,
			OldQuantity:    old,
			NewQuantity:    product.StockQuantity,
			QuantityChange: -item.Quantity,
			MovementType:   domain.MovementSaleReservation,
			ReferenceID:    orderID,
		})
	}
	return changes, nil, nil
}

func (f *fakeLedger) ReplenishForOrder(_ context.Context, orderID string, items []ports.ReservationItem, now time.Time) ([]ports.StockChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var changes []ports.StockChange
	for _, item := range items {
		product, ok := f.products[item.ProductID]
		if !ok {
			continue
		}
		if f.hasMovement(item.ProductID, domain.MovementPurchase, orderID) {
			return nil, domain.ErrDuplicateMovement
		}
		old := product.StockQuantity
		product.StockQuantity += item.Quantity
		f.movements = append(f.movements, domain.StockMovement{
			MovementID:     uuid.New(),
			ProductID:      item.ProductID,
			QuantityChange: item.Quantity,
			MovementType:   domain.MovementPurchase,
			ReferenceID:    orderID,
			CreatedAt:      now,
		})
		changes = append(changes, ports.StockChange{
			ProductID:      item.ProductID,
			OldQuantity:    old,
			NewQuantity:    product.StockQuantity,
			QuantityChange: item.Quantity,
			MovementType:   domain.MovementPurchase,
			ReferenceID:    orderID,
		})
	}
	return changes, nil
}

type publishedEvent struct {
	EventType string
	Payload   []byte
	Key       string
}

type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturePublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{EventType: eventType, Payload: payload, Key: partitionKey})
	return nil
}

func (p *capturePublisher) outcomes(t *testing.T) []contracts.ReservationOutcomeEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []contracts.ReservationOutcomeEvent
	for _, evt := range p.events {
		if evt.EventType != contracts.TopicOrderProcessed {
			continue
		}
		var outcome contracts.ReservationOutcomeEvent
		if err := json.Unmarshal(evt.Payload, &outcome); err != nil {
			t.Fatalf("unmarshal outcome: %v", err)
		}
		out = append(out, outcome)
	}
	return out
}

func newSagaFixture(t *testing.T) (*Service, *fakeLedger, *capturePublisher) {
	t.Helper()
	ledger := newFakeLedger()
	publisher := &capturePublisher{}
	service := NewService(Dependencies{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Reservations: ledger,
		Publisher:    publisher,
	})
	return service, ledger, publisher
}

func orderCreatedPayload(t *testing.T, orderID, orderType string, items ...contracts.OrderItemPayload) []byte {
	t.Helper()
	payload, err := json.Marshal(contracts.OrderCreatedEvent{
		OrderID:      orderID,
		OrderNumber:  "ORD-20250901120000-DEADBEEF",
		OrderType:    orderType,
		CustomerName: "Ada",
		OrderItems:   items,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal order-created: %v", err)
	}
	return payload
}

func item(productID uuid.UUID, quantity int) contracts.OrderItemPayload {
	return contracts.OrderItemPayload{
		ProductID:   productID.String(),
		ProductName: "widget",
		Quantity:    quantity,
		UnitPrice:   decimal.NewFromInt(10),
		TotalPrice:  decimal.NewFromInt(int64(quantity) * 10),
	}
}

func TestReserveStockSuccess(t *testing.T) {
	t.Parallel()
	service, ledger, publisher := newSagaFixture(t)
	productID := ledger.addProduct(10)
	orderID := uuid.NewString()

	payload := orderCreatedPayload(t, orderID, "sell", item(productID, 4))
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderCreated, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if got := ledger.stock(productID); got != 6 {
		t.Fatalf("stock after reservation = %d, want 6", got)
	}
	if !ledger.hasMovement(productID, domain.MovementSaleReservation, orderID) {
		t.Fatalf("expected a sale_reservation movement referencing the order")
	}
	if got, want := ledger.stock(productID), 10+ledger.movementSum(productID); got != want {
		t.Fatalf("stock %d diverged from movement sum %d", got, want)
	}

	outcomes := publisher.outcomes(t)
	if len(outcomes) != 1 {
		t.Fatalf("published %d outcomes, want exactly 1", len(outcomes))
	}
	if outcomes[0].Status != contracts.StatusStockReserved {
		t.Fatalf("outcome status = %q, want %q", outcomes[0].Status, contracts.StatusStockReserved)
	}
	if outcomes[0].OrderID != orderID {
		t.Fatalf("outcome order id = %q, want %q", outcomes[0].OrderID, orderID)
	}
}

func TestReserveStockInsufficient(t *testing.T) {
	t.Parallel()
	service, ledger, publisher := newSagaFixture(t)
	productID := ledger.addProduct(3)

	payload := orderCreatedPayload(t, uuid.NewString(), "sell", item(productID, 5))
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderCreated, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if got := ledger.stock(productID); got != 3 {
		t.Fatalf("stock changed to %d on a failed reservation, want 3", got)
	}
	if ledger.movementCount() != 0 {
		t.Fatalf("failed reservation wrote %d movements, want 0", ledger.movementCount())
	}

	outcomes := publisher.outcomes(t)
	if len(outcomes) != 1 {
		t.Fatalf("published %d outcomes, want exactly 1", len(outcomes))
	}
	if outcomes[0].Status != contracts.StatusStockReservationFailed {
		t.Fatalf("outcome status = %q, want %q", outcomes[0].Status, contracts.StatusStockReservationFailed)
	}
	if len(outcomes[0].Errors) == 0 {
		t.Fatalf("failure outcome carries no item errors")
	}
}

func TestReserveStockPartialFailureWritesNothing(t *testing.T) {
	t.Parallel()
	service, ledger, publisher := newSagaFixture(t)
	okProduct := ledger.addProduct(10)
	shortProduct := ledger.addProduct(1)

	payload := orderCreatedPayload(t, uuid.NewString(), "sell", item(okProduct, 2), item(shortProduct, 5))
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderCreated, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if got := ledger.stock(okProduct); got != 10 {
		t.Fatalf("satisfiable line was partially applied, stock = %d, want 10", got)
	}
	if ledger.movementCount() != 0 {
		t.Fatalf("partial failure wrote %d movements, want 0", ledger.movementCount())
	}
	outcomes := publisher.outcomes(t)
	if len(outcomes) != 1 || outcomes[0].Status != contracts.StatusStockReservationFailed {
		t.Fatalf("expected exactly one failure outcome, got %+v", outcomes)
	}
}

func TestReserveStockUnknownProductFailsBatch(t *testing.T) {
	t.Parallel()
	service, ledger, publisher := newSagaFixture(t)

	payload := orderCreatedPayload(t, uuid.NewString(), "sell", item(uuid.New(), 1))
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderCreated, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if ledger.movementCount() != 0 {
		t.Fatalf("unknown product wrote %d movements, want 0", ledger.movementCount())
	}
	outcomes := publisher.outcomes(t)
	if len(outcomes) != 1 || outcomes[0].Status != contracts.StatusStockReservationFailed {
		t.Fatalf("expected exactly one failure outcome, got %+v", outcomes)
	}
}

func TestReserveStockRedeliveryReemitsOutcome(t *testing.T) {
	t.Parallel()
	service, ledger, publisher := newSagaFixture(t)
	productID := ledger.addProduct(10)
	orderID := uuid.NewString()
	payload := orderCreatedPayload(t, orderID, "sell", item(productID, 4))

	for i := 0; i < 2; i++ {
		if err := service.HandleMessage(context.Background(), contracts.TopicOrderCreated, payload); err != nil {
			t.Fatalf("HandleMessage delivery %d: %v", i+1, err)
		}
	}

	if got := ledger.stock(productID); got != 6 {
		t.Fatalf("redelivery double-applied the reservation, stock = %d, want 6", got)
	}
	if ledger.movementCount() != 1 {
		t.Fatalf("redelivery wrote %d movements, want 1", ledger.movementCount())
	}

	outcomes := publisher.outcomes(t)
	if len(outcomes) != 2 {
		t.Fatalf("published %d outcomes over two deliveries, want 2", len(outcomes))
	}
	for _, outcome := range outcomes {
		if outcome.Status != contracts.StatusStockReserved {
			t.Fatalf("outcome status = %q, want %q", outcome.Status, contracts.StatusStockReserved)
		}
	}
}

func TestReplenishStockForBuyOrder(t *testing.T) {
	t.Parallel()
	service, ledger, publisher := newSagaFixture(t)
	productID := ledger.addProduct(2)
	orderID := uuid.NewString()

	payload := orderCreatedPayload(t, orderID, "buy", item(productID, 8))
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderCreated, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if got := ledger.stock(productID); got != 10 {
		t.Fatalf("stock after replenishment = %d, want 10", got)
	}
	if got, want := ledger.stock(productID), 2+ledger.movementSum(productID); got != want {
		t.Fatalf("stock %d diverged from movement sum %d", got, want)
	}
	outcomes := publisher.outcomes(t)
	if len(outcomes) != 1 || outcomes[0].Status != contracts.StatusStockUpdated {
		t.Fatalf("expected one stock_updated outcome, got %+v", outcomes)
	}
}

func TestOrderProcessedTransitionDoesNotRestoreStock(t *testing.T) {
	t.Parallel()
	service, ledger, publisher := newSagaFixture(t)
	productID := ledger.addProduct(10)
	orderID := uuid.NewString()

	created := orderCreatedPayload(t, orderID, "sell", item(productID, 4))
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderCreated, created); err != nil {
		t.Fatalf("HandleMessage order-created: %v", err)
	}

	transition, err := json.Marshal(contracts.StatusTransitionEvent{
		OrderID:   orderID,
		OldStatus: "processing",
		NewStatus: "cancelled",
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal transition: %v", err)
	}
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderProcessed, transition); err != nil {
		t.Fatalf("HandleMessage order-processed: %v", err)
	}

	// Cancellation never compensates the reservation.
	if got := ledger.stock(productID); got != 6 {
		t.Fatalf("stock after cancellation = %d, want 6", got)
	}
	if got := len(publisher.outcomes(t)); got != 1 {
		t.Fatalf("transition observation changed outcome count to %d, want 1", got)
	}
}
