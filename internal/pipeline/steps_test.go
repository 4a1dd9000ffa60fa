package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/reviewsku/internal/export"
	"github.com/nao1215/reviewsku/internal/model"
	"github.com/nao1215/reviewsku/internal/shopify"
)

// threeReviews is the export of the basic grouping scenario.
var threeReviews = []model.ProductReview{
	{ID: "r1", OrderNumber: "1001"},
	{ID: "r2", OrderNumber: ""},
	{ID: "r3", OrderNumber: "1002"},
}

// threeOrders are the orders of the basic grouping scenario.
func threeOrders() *fakeResolver {
	return &fakeResolver{
		orders: map[string][]model.OrderLineItem{
			"1001": {{SKU: "A", ProductID: "PID"}},
			"1002": {{SKU: "B", ProductID: "OTHER"}, {SKU: "C", ProductID: "PID"}},
		},
	}
}

// TestExtractStep tests reading the export into the run.
func TestExtractStep(t *testing.T) {
	t.Parallel()

	t.Run("moves the run to resolving", func(t *testing.T) {
		t.Parallel()

		path := writeExport(t, "PID", threeReviews...)
		step := NewExtractStep(export.NewExtractor(export.DefaultLayout()))
		if step.Name() != "extract" {
			t.Errorf("Name() = %q", step.Name())
		}

		run := model.NewRun(path)
		if err := step.Do(t.Context(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.State != model.StateResolving {
			t.Errorf("State = %s, want resolving", run.State)
		}
		if run.ProductID != "PID" || run.Summary.ProductID != "PID" {
			t.Errorf("ProductID = %q / %q", run.ProductID, run.Summary.ProductID)
		}
		if len(run.Reviews) != 3 || run.Summary.Reviews != 3 {
			t.Errorf("Reviews = %d / %d", len(run.Reviews), run.Summary.Reviews)
		}
	})

	t.Run("missing export is a format error", func(t *testing.T) {
		t.Parallel()

		step := NewExtractStep(export.NewExtractor(export.DefaultLayout()))
		run := model.NewRun("/nonexistent/reviews.csv")
		err := step.Do(t.Context(), run)
		if !errors.Is(err, export.ErrFormat) {
			t.Fatalf("expected ErrFormat, got %v", err)
		}
		if run.State != model.StateIdle {
			t.Errorf("State = %s, want idle", run.State)
		}
	})

	t.Run("rejects a run that is not idle", func(t *testing.T) {
		t.Parallel()

		step := NewExtractStep(export.NewExtractor(export.DefaultLayout()))
		run := resolvingRun("PID")
		if err := step.Do(t.Context(), run); !errors.Is(err, ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})
}

// TestResolveStep tests resolution in sequential and batch mode.
func TestResolveStep(t *testing.T) {
	t.Parallel()

	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			t.Parallel()

			t.Run("groups reviews by the sku of the reviewed product", func(t *testing.T) {
				t.Parallel()

				resolver := threeOrders()
				run := resolvingRun("PID", threeReviews...)
				step := NewResolveStep(resolver, WithResolveConcurrency(concurrency))

				if err := step.Do(t.Context(), run); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				got, err := run.Report.MarshalJSON()
				if err != nil {
					t.Fatal(err)
				}
				if want := `{"A":["r1"],"C":["r3"]}`; string(got) != want {
					t.Errorf("report = %s, want %s", got, want)
				}
				if resolver.callCount() != 2 {
					t.Errorf("resolver called %d times, want 2", resolver.callCount())
				}
				if slices.Contains(resolver.calls, "") {
					t.Error("review without order number was resolved")
				}
				if run.State != model.StateDone {
					t.Errorf("State = %s, want done", run.State)
				}

				want := model.RunSummary{ProductID: "PID", Reviews: 3, Skipped: 1, Matched: 2}
				if run.Summary.Skipped != want.Skipped || run.Summary.Matched != want.Matched ||
					run.Summary.Unmatched != 0 || run.Summary.Failed != 0 || run.Summary.Cancelled {
					t.Errorf("Summary = %+v", run.Summary)
				}
			})

			t.Run("a failed lookup does not stop the run", func(t *testing.T) {
				t.Parallel()

				cause := errors.New("connection reset")
				resolver := &fakeResolver{
					orders: map[string][]model.OrderLineItem{
						"1": {{SKU: "A", ProductID: "PID"}},
						"2": {{SKU: "B", ProductID: "PID"}},
						"4": {{SKU: "A", ProductID: "PID"}},
						"5": {{SKU: "C", ProductID: "PID"}},
					},
					errs: map[string]error{
						"3": &shopify.ResolutionError{ReviewID: "r3", OrderNumber: "3", Err: cause},
					},
				}
				run := resolvingRun("PID",
					model.ProductReview{ID: "r1", OrderNumber: "1"},
					model.ProductReview{ID: "r2", OrderNumber: "2"},
					model.ProductReview{ID: "r3", OrderNumber: "3"},
					model.ProductReview{ID: "r4", OrderNumber: "4"},
					model.ProductReview{ID: "r5", OrderNumber: "5"},
				)

				var reported []model.ResolutionFailure
				step := NewResolveStep(resolver,
					WithResolveConcurrency(concurrency),
					WithFailureHandler(func(f model.ResolutionFailure) {
						reported = append(reported, f)
					}),
				)
				if err := step.Do(t.Context(), run); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				got, err := run.Report.MarshalJSON()
				if err != nil {
					t.Fatal(err)
				}
				if want := `{"A":["r1","r4"],"B":["r2"],"C":["r5"]}`; string(got) != want {
					t.Errorf("report = %s, want %s", got, want)
				}
				if run.Summary.Failed != 1 || run.Summary.Matched != 4 {
					t.Errorf("Summary = %+v", run.Summary)
				}
				if len(reported) != 1 || reported[0].ReviewID != "r3" || reported[0].OrderNumber != "3" {
					t.Fatalf("reported failures = %+v", reported)
				}
				if !slices.Equal(run.Summary.Failures, reported) {
					t.Errorf("Failures = %+v", run.Summary.Failures)
				}
			})

			t.Run("empty and foreign orders are unmatched", func(t *testing.T) {
				t.Parallel()

				resolver := &fakeResolver{
					orders: map[string][]model.OrderLineItem{
						"2": {{SKU: "X", ProductID: "OTHER"}},
					},
				}
				run := resolvingRun("PID",
					model.ProductReview{ID: "r1", OrderNumber: "1"},
					model.ProductReview{ID: "r2", OrderNumber: "2"},
				)
				step := NewResolveStep(resolver, WithResolveConcurrency(concurrency))
				if err := step.Do(t.Context(), run); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if run.Report.Len() != 0 {
					t.Errorf("report has %d buckets, want 0", run.Report.Len())
				}
				if run.Summary.Unmatched != 2 || run.Summary.Failed != 0 {
					t.Errorf("Summary = %+v", run.Summary)
				}
			})

			t.Run("ambiguous orders keep the first sku", func(t *testing.T) {
				t.Parallel()

				resolver := &fakeResolver{
					orders: map[string][]model.OrderLineItem{
						"1": {{SKU: "S", ProductID: "PID"}, {SKU: "M", ProductID: "PID"}},
					},
				}
				run := resolvingRun("PID", model.ProductReview{ID: "r1", OrderNumber: "1"})
				step := NewResolveStep(resolver, WithResolveConcurrency(concurrency))
				if err := step.Do(t.Context(), run); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := run.Report.Reviews("S"); !slices.Equal(got, []string{"r1"}) {
					t.Errorf("Reviews(S) = %v", got)
				}
				if run.Report.Contains("r1") && run.Report.Reviews("M") != nil {
					t.Error("review must be in exactly one bucket")
				}
				if run.Summary.Ambiguous != 1 {
					t.Errorf("Ambiguous = %d, want 1", run.Summary.Ambiguous)
				}
			})

			t.Run("cancelled context stops new lookups", func(t *testing.T) {
				t.Parallel()

				ctx, cancel := context.WithCancel(t.Context())
				cancel()

				resolver := threeOrders()
				run := resolvingRun("PID", threeReviews...)
				step := NewResolveStep(resolver, WithResolveConcurrency(concurrency))
				if err := step.Do(ctx, run); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if resolver.callCount() != 0 {
					t.Errorf("resolver called %d times, want 0", resolver.callCount())
				}
				if !run.Summary.Cancelled {
					t.Error("expected run to be marked cancelled")
				}
				if run.State != model.StateDone {
					t.Errorf("State = %s, want done", run.State)
				}
				if run.Summary.Failed != 0 {
					t.Errorf("cancelled lookups must not count as failures: %+v", run.Summary)
				}
			})
		})
	}

	t.Run("report is identical across runs and concurrency levels", func(t *testing.T) {
		t.Parallel()

		reviews := make([]model.ProductReview, 0, 40)
		orders := make(map[string][]model.OrderLineItem)
		for i := range 40 {
			order := fmt.Sprintf("%d", 1000+i)
			reviews = append(reviews, model.ProductReview{ID: fmt.Sprintf("r%d", i), OrderNumber: order})
			orders[order] = []model.OrderLineItem{{SKU: fmt.Sprintf("SKU-%d", i%7), ProductID: "PID"}}
		}

		var fingerprints []string
		for _, concurrency := range []int{1, 1, 8} {
			run := resolvingRun("PID", reviews...)
			step := NewResolveStep(&fakeResolver{orders: orders}, WithResolveConcurrency(concurrency))
			if err := step.Do(t.Context(), run); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			fingerprints = append(fingerprints, run.Report.Fingerprint())
		}
		if fingerprints[0] != fingerprints[1] || fingerprints[0] != fingerprints[2] {
			t.Errorf("fingerprints differ: %v", fingerprints)
		}
	})

	t.Run("call timeout fails the slow lookup only", func(t *testing.T) {
		t.Parallel()

		resolver := ResolverFunc(func(ctx context.Context, _, orderNumber string) ([]model.OrderLineItem, error) {
			if orderNumber == "slow" {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return []model.OrderLineItem{{SKU: "A", ProductID: "PID"}}, nil
		})
		run := resolvingRun("PID",
			model.ProductReview{ID: "r1", OrderNumber: "slow"},
			model.ProductReview{ID: "r2", OrderNumber: "fast"},
		)
		step := NewResolveStep(resolver, WithCallTimeout(10*time.Millisecond))
		if err := step.Do(t.Context(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Summary.Failed != 1 || run.Summary.Matched != 1 {
			t.Errorf("Summary = %+v", run.Summary)
		}
		if run.Summary.Cancelled {
			t.Error("a per-call timeout is not a cancellation of the run")
		}
	})

	t.Run("rejects a run that was not extracted", func(t *testing.T) {
		t.Parallel()

		step := NewResolveStep(threeOrders())
		if err := step.Do(t.Context(), model.NewRun("x.csv")); !errors.Is(err, ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})
}

// TestDefaultPipeline runs extraction and resolution end to end.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	path := writeExport(t, "PID", threeReviews...)
	p := DefaultPipeline(export.NewExtractor(export.DefaultLayout()), threeOrders(), nil,
		WithPipelineConcurrency(2),
		WithPipelineCallTimeout(time.Second),
	)
	if got := p.StepNames(); !slices.Equal(got, []string{"extract", "resolve"}) {
		t.Errorf("StepNames() = %v", got)
	}

	run := model.NewRun(path)
	if err := p.Execute(t.Context(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := run.Report.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"A":["r1"],"C":["r3"]}`; string(got) != want {
		t.Errorf("report = %s, want %s", got, want)
	}
}
