package cache

import (
	"context"
	"log/slog"

	"github.com/nao1215/reviewsku/internal/model"
)

// Source looks up order line items, usually over the network.
type Source interface {
	Resolve(ctx context.Context, reviewID, orderNumber string) ([]model.OrderLineItem, error)
}

// Resolver answers lookups from a Store and falls back to a Source.
// Successful lookups, including empty ones, are written back. Failed lookups
// are not cached.
type Resolver struct {
	store  *Store
	next   Source
	shop   string
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver wraps next with the store. shop scopes the entries, so one
// cache file may serve several stores.
func NewResolver(store *Store, next Source, shop string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:  store,
		next:   next,
		shop:   shop,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve implements the pipeline's Resolver contract.
// A broken cache only costs a network lookup; it never fails the review.
func (r *Resolver) Resolve(ctx context.Context, reviewID, orderNumber string) ([]model.OrderLineItem, error) {
	items, ok, err := r.store.Get(ctx, r.shop, orderNumber)
	if err != nil {
		r.logger.Warn("order cache read failed", "order", orderNumber, "error", err)
	} else if ok {
		r.logger.Debug("order cache hit", "order", orderNumber)
		return items, nil
	}

	items, err = r.next.Resolve(ctx, reviewID, orderNumber)
	if err != nil {
		return nil, err
	}

	if err := r.store.Put(ctx, r.shop, orderNumber, items); err != nil {
		r.logger.Warn("order cache write failed", "order", orderNumber, "error", err)
	}
	return items, nil
}
