package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/reviewsku/internal/model"
)

// TestNewBatchResolver tests the BatchResolver constructor.
func TestNewBatchResolver(t *testing.T) {
	t.Parallel()

	t.Run("default settings", func(t *testing.T) {
		t.Parallel()

		b := NewBatchResolver(&fakeResolver{})
		if b.concurrency != DefaultBatchConcurrency {
			t.Errorf("concurrency = %d, want %d", b.concurrency, DefaultBatchConcurrency)
		}
		if b.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		b := NewBatchResolver(&fakeResolver{}, WithConcurrency(0))
		if b.concurrency != DefaultBatchConcurrency {
			t.Errorf("concurrency = %d", b.concurrency)
		}
	})
}

// TestBatchResolverResolveAll tests concurrent lookups.
func TestBatchResolverResolveAll(t *testing.T) {
	t.Parallel()

	t.Run("results are parallel to reviews", func(t *testing.T) {
		t.Parallel()

		errDown := errors.New("down")
		resolver := &fakeResolver{
			orders: map[string][]model.OrderLineItem{"1": {{SKU: "A", ProductID: "P"}}},
			errs:   map[string]error{"3": errDown},
		}
		reviews := []model.ProductReview{
			{ID: "r1", OrderNumber: "1"},
			{ID: "r2"},
			{ID: "r3", OrderNumber: "3"},
		}

		results := NewBatchResolver(resolver, WithConcurrency(2)).ResolveAll(t.Context(), reviews)
		if len(results) != 3 {
			t.Fatalf("len(results) = %d", len(results))
		}
		if !results[0].Attempted || len(results[0].Items) != 1 || results[0].Items[0].SKU != "A" {
			t.Errorf("results[0] = %+v", results[0])
		}
		if results[1].Attempted {
			t.Error("review without order number must not be attempted")
		}
		if !results[2].Attempted || !errors.Is(results[2].Err, errDown) {
			t.Errorf("results[2] = %+v", results[2])
		}
	})

	t.Run("respects the concurrency limit", func(t *testing.T) {
		t.Parallel()

		var active, peak atomic.Int32
		resolver := ResolverFunc(func(context.Context, string, string) ([]model.OrderLineItem, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return nil, nil
		})

		reviews := make([]model.ProductReview, 12)
		for i := range reviews {
			reviews[i] = model.ProductReview{ID: "r", OrderNumber: "1"}
		}
		NewBatchResolver(resolver, WithConcurrency(3)).ResolveAll(t.Context(), reviews)

		if got := peak.Load(); got > 3 {
			t.Errorf("peak concurrency = %d, want <= 3", got)
		}
	})

	t.Run("cancellation stops dispatching", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		var started atomic.Int32
		resolver := ResolverFunc(func(ctx context.Context, _, _ string) ([]model.OrderLineItem, error) {
			if started.Add(1) == 2 {
				cancel()
			}
			<-ctx.Done()
			return nil, ctx.Err()
		})

		reviews := make([]model.ProductReview, 10)
		for i := range reviews {
			reviews[i] = model.ProductReview{ID: "r", OrderNumber: "1"}
		}
		results := NewBatchResolver(resolver, WithConcurrency(2)).ResolveAll(ctx, reviews)

		attempted := 0
		for _, r := range results {
			if r.Attempted {
				attempted++
			}
		}
		if attempted >= len(reviews) {
			t.Errorf("attempted = %d, expected fewer than %d", attempted, len(reviews))
		}
	})
}
