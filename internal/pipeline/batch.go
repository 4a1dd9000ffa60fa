package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/reviewsku/internal/model"
)

// DefaultBatchConcurrency is the number of concurrent lookups of a
// BatchResolver created without WithConcurrency.
const DefaultBatchConcurrency = 4

// BatchResolver looks up the orders of many reviews concurrently.
//
// Results are returned by review index. Folding them into a report is left to
// the caller, which keeps the report independent of completion order.
type BatchResolver struct {
	resolver    Resolver
	concurrency int
	callTimeout time.Duration
	logger      *slog.Logger
}

// BatchOption configures a BatchResolver.
type BatchOption func(*BatchResolver)

// WithBatchLogger sets a custom logger for batch resolution.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchResolver) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent lookups.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchResolver) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchCallTimeout bounds every single lookup. Zero disables the bound.
func WithBatchCallTimeout(d time.Duration) BatchOption {
	return func(b *BatchResolver) {
		if d >= 0 {
			b.callTimeout = d
		}
	}
}

// NewBatchResolver creates a BatchResolver on top of resolver.
func NewBatchResolver(resolver Resolver, opts ...BatchOption) *BatchResolver {
	b := &BatchResolver{
		resolver:    resolver,
		concurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// ResolveAll looks up the order of every review that has an order number.
// The returned slice is parallel to reviews. Entries of reviews without an
// order number, and of reviews not started before ctx was cancelled, have
// Attempted set to false.
//
// A failed lookup does not stop the others.
func (b *BatchResolver) ResolveAll(ctx context.Context, reviews []model.ProductReview) []Resolution {
	b.logger.Debug("starting batch resolution",
		"reviews", len(reviews),
		"concurrency", b.concurrency,
	)
	startTime := time.Now()

	results := make([]Resolution, len(reviews))

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for i, review := range reviews {
		if !review.HasOrderNumber() {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			// Every goroutine owns results[i]; no locking needed.
			results[i] = resolve(ctx, b.resolver, b.callTimeout, review)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	b.logger.Debug("batch resolution complete",
		"reviews", len(reviews),
		"elapsed", time.Since(startTime),
	)
	return results
}
