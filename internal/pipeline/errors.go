package pipeline

import "errors"

// ErrInvalidState is returned when a step runs against a run that is not in
// the state the step expects.
var ErrInvalidState = errors.New("run is in the wrong state for this step")
