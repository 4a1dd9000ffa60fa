package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/reviewsku/internal/model"
)

// Step is one stage of a run.
type Step interface {
	// Do executes the step against the run. An error stops the pipeline.
	// Recoverable problems are recorded in the run and nil is returned.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends steps to the pipeline in execution order.
func (p *Pipeline) AddStep(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order and returns the first step error.
//
// When ctx is cancelled between steps the remaining steps are skipped, the
// run is marked cancelled and done, and nil is returned: whatever the run
// holds at that point is its result.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	p.logger.Debug("pipeline started",
		"export", run.ExportPath,
		"steps", p.StepNames(),
	)

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			run.Summary.Cancelled = true
			run.State = model.StateDone
			return nil
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"position", i+1,
			"of", p.StepCount(),
			"export", run.ExportPath,
			"state", run.State.String(),
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"export", run.ExportPath,
				"error", err,
			)
			return err
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
