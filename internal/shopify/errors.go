package shopify

import (
	"errors"
	"fmt"
)

// Lookup errors.
var (
	// ErrResolution is matched by every *ResolutionError via errors.Is.
	ErrResolution = errors.New("order lookup failed")

	// ErrThrottled is returned when the API kept throttling after all retries.
	ErrThrottled = errors.New("throttled by the Admin API")

	// ErrUnexpectedResponse is returned when the response does not have the
	// shape of the order query.
	ErrUnexpectedResponse = errors.New("unexpected response shape")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrMissingCredentials is returned by NewClient without a store or token.
	ErrMissingCredentials = errors.New("shop name and API key are required")
)

// ResolutionError reports a failed lookup of one order.
// It is recoverable: the run continues with the next review.
type ResolutionError struct {
	// ReviewID is the review the lookup was made for.
	ReviewID string

	// OrderNumber is the order number that was looked up.
	OrderNumber string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("fetching the line items for order %s which resulted in review %s failed: %v",
		e.OrderNumber, e.ReviewID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is reports ErrResolution as a match.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// StatusError reports a non-successful HTTP status.
type StatusError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the beginning of the response body.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected response code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected response code: %d: %s", e.StatusCode, e.Body)
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns the extensions.code value, if any.
func (e GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// GraphQLErrors is the "errors" array of a GraphQL response.
type GraphQLErrors []GraphQLError

// Error implements the error interface.
func (e GraphQLErrors) Error() string {
	switch len(e) {
	case 0:
		return "graphql: no errors"
	case 1:
		return "graphql: " + e[0].Message
	default:
		return fmt.Sprintf("graphql: %s (and %d more)", e[0].Message, len(e)-1)
	}
}

// throttled reports whether any error carries the THROTTLED code.
func (e GraphQLErrors) throttled() bool {
	for _, ge := range e {
		if ge.Code() == "THROTTLED" {
			return true
		}
	}
	return false
}
