package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/reviewsku/internal/export"
	"github.com/nao1215/reviewsku/internal/model"
	"github.com/nao1215/reviewsku/internal/variant"
)

// ExtractStep reads the review export of the run.
// A malformed export is returned as an *export.FormatError and stops the run.
type ExtractStep struct {
	extractor *export.Extractor
	logger    *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates an extract step that reads exports with extractor.
func NewExtractStep(extractor *export.Extractor, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do reads the export and moves the run to resolving.
func (s *ExtractStep) Do(_ context.Context, run *model.Run) error {
	if run.State != model.StateIdle {
		return fmt.Errorf("%w: extract needs %s, run is %s", ErrInvalidState, model.StateIdle, run.State)
	}

	productID, reviews, err := s.extractor.Extract(run.ExportPath)
	if err != nil {
		return err
	}

	run.ProductID = productID
	run.Reviews = reviews
	run.Summary.ProductID = productID
	run.Summary.Reviews = len(reviews)
	run.State = model.StateResolving

	s.logger.Info("export extracted",
		"export", run.ExportPath,
		"product", productID.String(),
		"reviews", len(reviews),
		"resolvable", run.PendingResolutions(),
	)
	return nil
}

// ResolveStep looks up the order of every review and builds the report.
type ResolveStep struct {
	resolver    Resolver
	concurrency int
	callTimeout time.Duration
	onFailure   func(model.ResolutionFailure)
	logger      *slog.Logger
}

// ResolveStepOption configures a ResolveStep.
type ResolveStepOption func(*ResolveStep)

// WithResolveConcurrency sets how many lookups may run at once.
// Values above one switch to a BatchResolver.
func WithResolveConcurrency(n int) ResolveStepOption {
	return func(s *ResolveStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCallTimeout bounds every single lookup. Zero disables the bound.
func WithCallTimeout(d time.Duration) ResolveStepOption {
	return func(s *ResolveStep) {
		if d >= 0 {
			s.callTimeout = d
		}
	}
}

// WithFailureHandler registers a function that is called for every failed
// lookup, in export order.
func WithFailureHandler(fn func(model.ResolutionFailure)) ResolveStepOption {
	return func(s *ResolveStep) {
		s.onFailure = fn
	}
}

// WithResolveLogger sets a custom logger for the resolve step.
func WithResolveLogger(logger *slog.Logger) ResolveStepOption {
	return func(s *ResolveStep) {
		s.logger = logger
	}
}

// NewResolveStep creates a resolve step that looks orders up with resolver.
func NewResolveStep(resolver Resolver, opts ...ResolveStepOption) *ResolveStep {
	s := &ResolveStep{
		resolver:    resolver,
		concurrency: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve"
}

// Do resolves the run's reviews in export order and moves the run to done.
func (s *ResolveStep) Do(ctx context.Context, run *model.Run) error {
	if run.State != model.StateResolving {
		return fmt.Errorf("%w: resolve needs %s, run is %s", ErrInvalidState, model.StateResolving, run.State)
	}

	agg := variant.NewAggregatorWithReport(run.ProductID, run.Report)

	if s.concurrency > 1 {
		batch := NewBatchResolver(s.resolver,
			WithConcurrency(s.concurrency),
			WithBatchCallTimeout(s.callTimeout),
			WithBatchLogger(s.logger),
		)
		results := batch.ResolveAll(ctx, run.Reviews)
		for i, review := range run.Reviews {
			s.fold(ctx, run, agg, review, results[i])
		}
	} else {
		for _, review := range run.Reviews {
			var res Resolution
			if review.HasOrderNumber() && ctx.Err() == nil {
				res = resolve(ctx, s.resolver, s.callTimeout, review)
			}
			s.fold(ctx, run, agg, review, res)
		}
	}

	run.State = model.StateDone

	s.logger.Info("resolution finished",
		"product", agg.ProductID().String(),
		"matched", run.Summary.Matched,
		"unmatched", run.Summary.Unmatched,
		"skipped", run.Summary.Skipped,
		"failed", run.Summary.Failed,
		"cancelled", run.Summary.Cancelled,
	)
	return nil
}

// fold applies the outcome of one review to the run.
func (s *ResolveStep) fold(ctx context.Context, run *model.Run, agg *variant.Aggregator, review model.ProductReview, res Resolution) {
	if !review.HasOrderNumber() {
		run.Summary.Record(model.OutcomeSkipped)
		s.logger.Debug("review has no order number",
			"review", review.ID,
			"row", review.Row,
		)
		return
	}

	if !res.Attempted {
		run.Summary.Cancelled = true
		return
	}

	if res.Err != nil {
		if ctx.Err() != nil && errors.Is(res.Err, ctx.Err()) {
			// Abandoned by cancellation, not a failure of the order itself.
			run.Summary.Cancelled = true
			return
		}
		failure := model.ResolutionFailure{
			ReviewID:    review.ID,
			OrderNumber: review.OrderNumber,
			Cause:       res.Err.Error(),
		}
		run.AddFailure(failure)
		s.logger.Warn("order lookup failed",
			"review", review.ID,
			"order", review.OrderNumber,
			"error", res.Err,
		)
		if s.onFailure != nil {
			s.onFailure(failure)
		}
		return
	}

	sel := agg.Ingest(review.ID, res.Items)
	if !sel.Matched {
		run.Summary.Record(model.OutcomeUnmatched)
		s.logger.Debug("order has no line item of the product",
			"review", review.ID,
			"order", review.OrderNumber,
			"line_items", len(res.Items),
		)
		return
	}

	run.Summary.Record(model.OutcomeMatched)
	if sel.Ambiguous {
		run.Summary.Ambiguous++
		s.logger.Warn("order holds several variants of the product, using the first",
			"review", review.ID,
			"order", review.OrderNumber,
			"sku", sel.SKU,
			"candidates", sel.Candidates,
		)
	}
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Concurrency is the number of lookups that may run at once.
	Concurrency int

	// CallTimeout bounds every single lookup. Zero disables the bound.
	CallTimeout time.Duration

	// OnFailure is called for every failed lookup.
	OnFailure func(model.ResolutionFailure)
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineConcurrency sets the number of concurrent lookups.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineCallTimeout sets the timeout of a single lookup.
func WithPipelineCallTimeout(d time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CallTimeout = d
	}
}

// WithPipelineFailureHandler sets the function called for failed lookups.
func WithPipelineFailureHandler(fn func(model.ResolutionFailure)) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.OnFailure = fn
	}
}

// DefaultPipeline creates the extract and resolve pipeline.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineConcurrency, etc).
func DefaultPipeline(extractor *export.Extractor, resolver Resolver, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Concurrency: 1,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddStep(
		NewExtractStep(extractor, WithExtractLogger(p.logger)),
		NewResolveStep(resolver,
			WithResolveConcurrency(cfg.Concurrency),
			WithCallTimeout(cfg.CallTimeout),
			WithFailureHandler(cfg.OnFailure),
			WithResolveLogger(p.logger),
		),
	)
	return p
}
