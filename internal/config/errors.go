package config

import (
	"errors"
	"fmt"
)

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
var (
	// ErrNoExport is returned when no review export path is given.
	ErrNoExport = errors.New("no review export specified: provide the path to a CSV export")

	// ErrInvalidTimeout is returned when the per-order timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	// A concurrency of 1 resolves orders one at a time.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLogFormat is returned when the log format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidColumn is returned when a column position is negative.
	ErrInvalidColumn = errors.New("invalid column position: must be non-negative")

	// ErrMissingShopName is returned when SHOP_NAME is not set.
	ErrMissingShopName = errors.New("missing shop name")

	// ErrMissingAPIKey is returned when API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing API key")
)

// ConfigError reports a required credential that is absent from the environment.
// It wraps ErrMissingShopName or ErrMissingAPIKey.
type ConfigError struct {
	// Name is the environment variable that was expected.
	Name string

	// Err is the sentinel describing the missing value.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: environment variable %s is not set", e.Err, e.Name)
}

// Unwrap returns the sentinel error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
