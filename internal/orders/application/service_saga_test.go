package application

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercemesh/fulfillment/internal/contracts"
	"github.com/commercemesh/fulfillment/internal/orders/domain"
	"github.com/commercemesh/fulfillment/internal/orders/ports"
)

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[uuid.UUID]*domain.Order)}
}

func (f *fakeOrderStore) add(status domain.OrderStatus) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.orders[id] = &domain.Order{
		OrderID:     id,
		OrderNumber: "ORD-20250901120000-DEADBEEF",
		OrderType:   domain.OrderTypeSell,
		Status:      status,
		TotalAmount: decimal.NewFromInt(40),
	}
	return id
}

func (f *fakeOrderStore) status(id uuid.UUID) domain.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

func (f *fakeOrderStore) Create(_ context.Context, params ports.CreateOrderParams) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	order := domain.Order{
		OrderID:      uuid.New(),
		OrderNumber:  params.OrderNumber,
		OrderType:    params.OrderType,
		Status:       domain.StatusPending,
		CustomerName: params.CustomerName,
		CreatedAt:    params.Now,
		UpdatedAt:    params.Now,
	}
	for _, item := range params.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)
		order.Items = append(order.Items, domain.OrderItem{
			ItemID:      uuid.New(),
			OrderID:     order.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  lineTotal,
		})
	}
	order.TotalAmount = total
	f.orders[order.OrderID] = &order
	return order, nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return *order, nil
}

func (f *fakeOrderStore) List(_ context.Context, _ ports.ListOrdersParams) ([]domain.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, orderID uuid.UUID, to domain.OrderStatus, now time.Time) (ports.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return ports.StatusChange{}, domain.ErrNotFound
	}
	previous := order.Status
	if !domain.CanTransition(previous, to) {
		return ports.StatusChange{}, domain.ErrInvalidTransition
	}
	order.Status = to
	order.UpdatedAt = now
	if to == domain.StatusCompleted {
		order.ProcessedAt = &now
	}
	return ports.StatusChange{Order: *order, Previous: previous}, nil
}

func (f *fakeOrderStore) ApplyOutcome(_ context.Context, orderID uuid.UUID, path domain.OutcomePath, now time.Time) (ports.StatusChange, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return ports.StatusChange{}, false, domain.ErrNotFound
	}
	previous := order.Status
	next, changed := domain.ApplyOutcome(previous, path)
	if changed {
		order.Status = next
		order.UpdatedAt = now
	}
	return ports.StatusChange{Order: *order, Previous: previous}, changed, nil
}

func (f *fakeOrderStore) Stats(_ context.Context) (ports.OrderStats, error) {
	return ports.OrderStats{
		ByStatus: map[domain.OrderStatus]int64{},
		ByType:   map[domain.OrderType]int64{},
	}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ []byte, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, eventType)
	return nil
}

func newOrdersFixture(t *testing.T) (*Service, *fakeOrderStore, *recordingPublisher) {
	t.Helper()
	store := newFakeOrderStore()
	publisher := &recordingPublisher{}
	service := NewService(Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Orders:    store,
		Publisher: publisher,
	})
	return service, store, publisher
}

func outcomePayload(t *testing.T, orderID, status string, errs ...string) []byte {
	t.Helper()
	payload, err := json.Marshal(contracts.ReservationOutcomeEvent{
		OrderID:   orderID,
		Status:    status,
		Errors:    errs,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal outcome: %v", err)
	}
	return payload
}

func TestReservedOutcomeAdvancesPendingOrder(t *testing.T) {
	t.Parallel()
	service, store, _ := newOrdersFixture(t)
	orderID := store.add(domain.StatusPending)

	payload := outcomePayload(t, orderID.String(), contracts.StatusStockReserved)
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderProcessed, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := store.status(orderID); got != domain.StatusProcessing {
		t.Fatalf("status = %s, want processing", got)
	}
}

func TestReservedOutcomeRedeliveryIsIdempotent(t *testing.T) {
	t.Parallel()
	service, store, _ := newOrdersFixture(t)
	orderID := store.add(domain.StatusPending)
	payload := outcomePayload(t, orderID.String(), contracts.StatusStockReserved)

	for i := 0; i < 3; i++ {
		if err := service.HandleMessage(context.Background(), contracts.TopicOrderProcessed, payload); err != nil {
			t.Fatalf("HandleMessage delivery %d: %v", i+1, err)
		}
	}
	if got := store.status(orderID); got != domain.StatusProcessing {
		t.Fatalf("status after redelivery = %s, want processing", got)
	}
}

func TestReservedOutcomeDoesNotRegressCompletedOrder(t *testing.T) {
	t.Parallel()
	service, store, _ := newOrdersFixture(t)
	orderID := store.add(domain.StatusCompleted)

	payload := outcomePayload(t, orderID.String(), contracts.StatusStockReserved)
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderProcessed, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := store.status(orderID); got != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", got)
	}
}

func TestFailedReservationFailsOrder(t *testing.T) {
	t.Parallel()
	service, store, _ := newOrdersFixture(t)
	orderID := store.add(domain.StatusPending)

	payload := outcomePayload(t, orderID.String(), contracts.StatusStockReservationFailed, "Insufficient stock for product x: available 3, requested 5")
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderProcessed, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := store.status(orderID); got != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestOutcomeForUnknownOrderIsDropped(t *testing.T) {
	t.Parallel()
	service, _, _ := newOrdersFixture(t)

	payload := outcomePayload(t, uuid.NewString(), contracts.StatusStockReserved)
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderProcessed, payload); err != nil {
		t.Fatalf("unknown order should be dropped, got error: %v", err)
	}
}

func TestTransitionEchoIsIgnored(t *testing.T) {
	t.Parallel()
	service, store, _ := newOrdersFixture(t)
	orderID := store.add(domain.StatusPending)

	payload, err := json.Marshal(contracts.StatusTransitionEvent{
		OrderID:   orderID.String(),
		OldStatus: "pending",
		NewStatus: "cancelled",
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal transition: %v", err)
	}
	if err := service.HandleMessage(context.Background(), contracts.TopicOrderProcessed, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := store.status(orderID); got != domain.StatusPending {
		t.Fatalf("transition echo moved the order to %s", got)
	}
}

func TestStockUpdateIsObservationalOnly(t *testing.T) {
	t.Parallel()
	service, store, _ := newOrdersFixture(t)
	orderID := store.add(domain.StatusPending)

	payload, err := json.Marshal(contracts.StockUpdateEvent{
		ProductID:      uuid.NewString(),
		OldQuantity:    10,
		NewQuantity:    6,
		QuantityChange: -4,
		MovementType:   "sale_reservation",
		ReferenceID:    orderID.String(),
	})
	if err != nil {
		t.Fatalf("marshal stock update: %v", err)
	}
	if err := service.HandleMessage(context.Background(), contracts.TopicStockUpdate, payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := store.status(orderID); got != domain.StatusPending {
		t.Fatalf("stock-update changed order status to %s", got)
	}
}

func TestCancelOrderRules(t *testing.T) {
	t.Parallel()
	service, store, publisher := newOrdersFixture(t)

	pending := store.add(domain.StatusPending)
	if _, err := service.CancelOrder(context.Background(), pending); err != nil {
		t.Fatalf("cancel pending order: %v", err)
	}
	if got := store.status(pending); got != domain.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got)
	}

	processing := store.add(domain.StatusProcessing)
	if _, err := service.CancelOrder(context.Background(), processing); err != nil {
		t.Fatalf("cancel processing order: %v", err)
	}

	completed := store.add(domain.StatusCompleted)
	if _, err := service.CancelOrder(context.Background(), completed); err == nil {
		t.Fatalf("cancelling a completed order succeeded")
	}

	cancelled := store.add(domain.StatusCancelled)
	if _, err := service.CancelOrder(context.Background(), cancelled); err == nil {
		t.Fatalf("cancelling a cancelled order succeeded")
	}

	publisher.mu.Lock()
	transitions := 0
	for _, topic := range publisher.topics {
		if topic == contracts.TopicOrderProcessed {
			transitions++
		}
	}
	publisher.mu.Unlock()
	if transitions != 2 {
		t.Fatalf("published %d transition events, want 2", transitions)
	}
}

func TestCreateOrderPublishesOrderCreated(t *testing.T) {
	t.Parallel()
	service, _, publisher := newOrdersFixture(t)

	resp, err := service.CreateOrder(context.Background(), CreateOrderRequest{
		OrderType:    "sell",
		CustomerName: "Ada",
		Items: []CreateOrderItem{
			{ProductID: uuid.NewString(), ProductName: "widget", Quantity: 4, UnitPrice: decimal.NewFromInt(10)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if resp.Status != string(domain.StatusPending) {
		t.Fatalf("new order status = %s, want pending", resp.Status)
	}
	if !resp.TotalAmount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("total amount = %s, want 40", resp.TotalAmount)
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if len(publisher.topics) != 1 || publisher.topics[0] != contracts.TopicOrderCreated {
		t.Fatalf("published topics = %v, want one order-created", publisher.topics)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()
	service, _, _ := newOrdersFixture(t)

	cases := []CreateOrderRequest{
		{OrderType: "hold", CustomerName: "Ada", Items: []CreateOrderItem{{ProductID: "p", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}},
		{OrderType: "sell", CustomerName: "", Items: []CreateOrderItem{{ProductID: "p", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}},
		{OrderType: "sell", CustomerName: "Ada"},
		{OrderType: "sell", CustomerName: "Ada", Items: []CreateOrderItem{{ProductID: "p", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}}},
		{OrderType: "sell", CustomerName: "Ada", Items: []CreateOrderItem{{ProductID: "p", Quantity: 1, UnitPrice: decimal.Zero}}},
	}
	for i, req := range cases {
		if _, err := service.CreateOrder(context.Background(), req); err == nil {
			t.Errorf("case %d: invalid request accepted", i)
		}
	}
}
