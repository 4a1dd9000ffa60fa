package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/reviewsku/internal/model"
)

// countingSource counts lookups and answers from a table.
type countingSource struct {
	calls  int
	orders map[string][]model.OrderLineItem
	err    error
}

func (s *countingSource) Resolve(_ context.Context, _, orderNumber string) ([]model.OrderLineItem, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.orders[orderNumber], nil
}

func TestResolver(t *testing.T) {
	t.Parallel()

	t.Run("second lookup is served from the cache", func(t *testing.T) {
		t.Parallel()

		source := &countingSource{orders: map[string][]model.OrderLineItem{
			"1001": {{SKU: "A", ProductID: "PID"}},
		}}
		r := NewResolver(setupTestStore(t, DefaultOptions()), source, "shop")

		for range 2 {
			items, err := r.Resolve(t.Context(), "r1", "1001")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != 1 || items[0].SKU != "A" {
				t.Errorf("items = %v", items)
			}
		}
		if source.calls != 1 {
			t.Errorf("source called %d times, want 1", source.calls)
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		t.Parallel()

		errDown := errors.New("down")
		source := &countingSource{err: errDown}
		r := NewResolver(setupTestStore(t, DefaultOptions()), source, "shop")

		for range 2 {
			if _, err := r.Resolve(t.Context(), "r1", "1001"); !errors.Is(err, errDown) {
				t.Errorf("expected errDown, got %v", err)
			}
		}
		if source.calls != 2 {
			t.Errorf("source called %d times, want 2", source.calls)
		}
	})

	t.Run("closed store falls back to the source", func(t *testing.T) {
		t.Parallel()

		store, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		_ = store.Close()

		source := &countingSource{orders: map[string][]model.OrderLineItem{"1": {{SKU: "A"}}}}
		items, err := NewResolver(store, source, "shop").Resolve(t.Context(), "r1", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 {
			t.Errorf("items = %v", items)
		}
	})
}
