package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/fulfillment/internal/inventory/ports"
)

// The connection layer runs gorm with TranslateError, so a 23505
// reaches repositories as gorm.ErrDuplicatedKey rather than the raw
// postgres message. Both shapes must classify as a unique violation or
// redelivered reservations stop re-emitting their outcome.
func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"translated", gorm.ErrDuplicatedKey, true},
		{"translated wrapped", fmt.Errorf("create movement: %w", gorm.ErrDuplicatedKey), true},
		{"raw postgres", errors.New(`ERROR: duplicate key value violates unique constraint "uq_stock_movements_reference" (SQLSTATE 23505)`), true},
		{"unrelated", errors.New("dial tcp: connection refused"), false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("isUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

// An order may legitimately carry two lines for the same product. The
// batch must fold them before writing, or the second movement insert
// trips the dedup index on the first delivery and gets mistaken for a
// redelivery.
func TestMergeItemsFoldsRepeatedProducts(t *testing.T) {
	t.Parallel()
	first := uuid.New()
	second := uuid.New()
	merged := mergeItems([]ports.ReservationItem{
		{ProductID: first, Quantity: 2},
		{ProductID: second, Quantity: 1},
		{ProductID: first, Quantity: 3},
	})
	if len(merged) != 2 {
		t.Fatalf("merged batch has %d items, want 2", len(merged))
	}
	if merged[0].ProductID != first || merged[0].Quantity != 5 {
		t.Fatalf("first merged item = %+v, want product %s with quantity 5", merged[0], first)
	}
	if merged[1].ProductID != second || merged[1].Quantity != 1 {
		t.Fatalf("second merged item = %+v, want product %s with quantity 1", merged[1], second)
	}
}

func TestMergeItemsKeepsDistinctBatchUntouched(t *testing.T) {
	t.Parallel()
	items := []ports.ReservationItem{
		{ProductID: uuid.New(), Quantity: 4},
		{ProductID: uuid.New(), Quantity: 7},
	}
	merged := mergeItems(items)
	if len(merged) != len(items) {
		t.Fatalf("merged batch has %d items, want %d", len(merged), len(items))
	}
	for i := range items {
		if merged[i] != items[i] {
			t.Fatalf("item %d changed: got %+v, want %+v", i, merged[i], items[i])
		}
	}
}
