package model

import "testing"

func TestNewRun(t *testing.T) {
	t.Parallel()

	run := NewRun("reviews.csv")

	if run.ExportPath != "reviews.csv" {
		t.Errorf("ExportPath = %q", run.ExportPath)
	}
	if run.State != StateIdle {
		t.Errorf("State = %s, want idle", run.State)
	}
	if run.Report == nil || run.Report.Len() != 0 {
		t.Error("expected an empty report")
	}
	if run.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
}

func TestRunSummary(t *testing.T) {
	t.Parallel()

	run := NewRun("reviews.csv")
	run.Summary.Record(OutcomeSkipped)
	run.Summary.Record(OutcomeMatched)
	run.Summary.Record(OutcomeMatched)
	run.Summary.Record(OutcomeUnmatched)
	run.AddFailure(ResolutionFailure{ReviewID: "r9", OrderNumber: "1009", Cause: "boom"})

	s := run.Summary
	if s.Skipped != 1 || s.Matched != 2 || s.Unmatched != 1 || s.Failed != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.Handled() != 5 {
		t.Errorf("Handled() = %d, want 5", s.Handled())
	}
	if len(s.Failures) != 1 || s.Failures[0].ReviewID != "r9" {
		t.Errorf("Failures = %+v", s.Failures)
	}
}

func TestPendingResolutions(t *testing.T) {
	t.Parallel()

	run := NewRun("reviews.csv")
	run.Reviews = []ProductReview{
		{ID: "r1", OrderNumber: "1001"},
		{ID: "r2"},
		{ID: "r3", OrderNumber: "1003"},
	}
	if got := run.PendingResolutions(); got != 2 {
		t.Errorf("PendingResolutions() = %d, want 2", got)
	}
}

func TestStrings(t *testing.T) {
	t.Parallel()

	states := map[State]string{
		StateIdle:      "idle",
		StateResolving: "resolving",
		StateDone:      "done",
		State(42):      "unknown",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}

	outcomes := map[Outcome]string{
		OutcomeSkipped:   "skipped",
		OutcomeMatched:   "matched",
		OutcomeUnmatched: "unmatched",
		OutcomeFailed:    "failed",
		Outcome(42):      "unknown",
	}
	for o, want := range outcomes {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
