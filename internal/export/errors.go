package export

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every FormatError via errors.Is.
var ErrFormat = errors.New("malformed review export")

// FormatError reports an export that cannot be opened or parsed.
// It is fatal for a run.
type FormatError struct {
	// Path is the export file, empty when reading from a stream.
	Path string

	// Row is the 1-based data row at fault, or 0 when the problem is not
	// tied to a row.
	Row int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	where := e.Path
	if where == "" {
		where = "review export"
	}
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: %v", where, e.Row, e.Err)
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is reports ErrFormat as a match so callers need not know the concrete type.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
