package model

import "time"

// State is the lifecycle state of a pipeline run.
type State int

const (
	// StateIdle is the state before the export has been extracted.
	StateIdle State = iota

	// StateResolving is entered once the product id and reviews are known.
	StateResolving

	// StateDone is entered after every review has been handled or the run
	// was cancelled. The report is final in this state.
	StateDone
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Outcome is what happened to a single review during resolution.
type Outcome int

const (
	// OutcomeSkipped means the review had no order number and was never resolved.
	OutcomeSkipped Outcome = iota

	// OutcomeMatched means a line item of the reviewed product was found and
	// the review was added to that item's SKU bucket.
	OutcomeMatched

	// OutcomeUnmatched means the lookup succeeded but returned no line item
	// for the reviewed product. This is not an error.
	OutcomeUnmatched

	// OutcomeFailed means the order lookup failed.
	OutcomeFailed
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeMatched:
		return "matched"
	case OutcomeUnmatched:
		return "unmatched"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ResolutionFailure records a review whose order could not be looked up.
type ResolutionFailure struct {
	// ReviewID is the review the lookup was made for.
	ReviewID string `json:"review_id"`

	// OrderNumber is the order number that failed to resolve.
	OrderNumber string `json:"order_number"`

	// Cause is the error message of the underlying failure.
	Cause string `json:"cause"`
}

// RunSummary counts review outcomes for a run.
type RunSummary struct {
	// ProductID is the product the export was taken for.
	ProductID ProductIdentifier `json:"product_id"`

	// Reviews is the number of reviews extracted from the export.
	Reviews int `json:"reviews"`

	// Skipped is the number of reviews without an order number.
	Skipped int `json:"skipped"`

	// Matched is the number of reviews added to the report.
	Matched int `json:"matched"`

	// Unmatched is the number of reviews whose order had no line item for the product.
	Unmatched int `json:"unmatched"`

	// Failed is the number of reviews whose order lookup failed.
	Failed int `json:"failed"`

	// Ambiguous is the number of matched reviews whose order contained more
	// than one SKU of the product. The first line item still wins.
	Ambiguous int `json:"ambiguous"`

	// Failures lists every failed lookup in review order.
	Failures []ResolutionFailure `json:"failures,omitempty"`

	// Cancelled is true when the run stopped before every review was handled.
	Cancelled bool `json:"cancelled"`
}

// Record counts one outcome.
func (s *RunSummary) Record(o Outcome) {
	switch o {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeMatched:
		s.Matched++
	case OutcomeUnmatched:
		s.Unmatched++
	case OutcomeFailed:
		s.Failed++
	}
}

// Handled returns the number of reviews that reached an outcome.
func (s *RunSummary) Handled() int {
	return s.Skipped + s.Matched + s.Unmatched + s.Failed
}

// Run holds the state of one pipeline run from extraction to the final report.
// A Run is owned by the pipeline for its whole lifetime.
type Run struct {
	// ExportPath is the review export being processed.
	ExportPath string `json:"export_path"`

	// ProductID is captured by the extraction step.
	ProductID ProductIdentifier `json:"product_id"`

	// Reviews are the extracted reviews in export order.
	Reviews []ProductReview `json:"-"`

	// Report is the SKU to review mapping built during resolution.
	Report *VariantReport `json:"report"`

	// Summary counts what happened to each review.
	Summary RunSummary `json:"summary"`

	// State is the current lifecycle state.
	State State `json:"-"`

	// StartedAt is when the run was created.
	StartedAt time.Time `json:"-"`

	// PerformedSteps lists the names of the steps that completed.
	PerformedSteps []string `json:"-"`
}

// NewRun creates an idle run for the export at path.
func NewRun(path string) *Run {
	return &Run{
		ExportPath:     path,
		Report:         NewVariantReport(),
		State:          StateIdle,
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// AddFailure records a failed lookup and counts it.
func (r *Run) AddFailure(f ResolutionFailure) {
	r.Summary.Failures = append(r.Summary.Failures, f)
	r.Summary.Record(OutcomeFailed)
}

// PendingResolutions returns the number of reviews that carry an order number.
func (r *Run) PendingResolutions() int {
	n := 0
	for _, review := range r.Reviews {
		if review.HasOrderNumber() {
			n++
		}
	}
	return n
}
