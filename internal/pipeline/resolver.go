package pipeline

import (
	"context"
	"time"

	"github.com/nao1215/reviewsku/internal/model"
)

// Resolver looks up the line items of an order.
//
// An order that does not exist or has no line items yields an empty slice
// and a nil error. reviewID is only used to describe failures.
type Resolver interface {
	Resolve(ctx context.Context, reviewID, orderNumber string) ([]model.OrderLineItem, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, reviewID, orderNumber string) ([]model.OrderLineItem, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, reviewID, orderNumber string) ([]model.OrderLineItem, error) {
	return f(ctx, reviewID, orderNumber)
}

// Resolution is the result of looking up the order of one review.
type Resolution struct {
	// Items are the order's line items. Nil when Err is set.
	Items []model.OrderLineItem

	// Err is the lookup failure, if any.
	Err error

	// Attempted is false when the lookup was never started, either because
	// the review has no order number or because the run was cancelled.
	Attempted bool
}

// resolve looks up the order of review with an optional per-call timeout.
func resolve(ctx context.Context, resolver Resolver, timeout time.Duration, review model.ProductReview) Resolution {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	items, err := resolver.Resolve(ctx, review.ID, review.OrderNumber)
	return Resolution{Items: items, Err: err, Attempted: true}
}
