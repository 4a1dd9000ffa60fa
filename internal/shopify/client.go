package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/reviewsku/internal/model"
)

// Defaults used by NewClient.
const (
	// DefaultAPIVersion is the Admin API version the query was written for.
	DefaultAPIVersion = "2023-01"

	// DefaultOrderNameSuffix is appended to order numbers to form order names.
	DefaultOrderNameSuffix = "-QDO"

	// DefaultMaxRetries is the number of retries after a throttled request.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the wait before a retry when the API gives no hint.
	DefaultRetryDelay = 2 * time.Second

	// accessTokenHeader carries the Admin API access token.
	accessTokenHeader = "X-Shopify-Access-Token"

	// maxResponseSize bounds the bytes read from one response.
	// One order with MaxLineItems line items is far below this.
	maxResponseSize = 4 << 20

	// maxErrorBodySize bounds the body excerpt kept in a StatusError.
	maxErrorBodySize = 512
)

// Client looks up order line items through the Admin GraphQL API.
// It is safe for concurrent use.
type Client struct {
	endpoint        string
	apiKey          string
	orderNameSuffix string
	httpClient      *http.Client
	maxRetries      int
	retryDelay      time.Duration
	logger          *slog.Logger

	// proxyAddress is applied after all options, so the order of
	// WithHTTPClient and WithProxy does not matter.
	proxyAddress string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint replaces the GraphQL endpoint URL.
// It is used to point the client at a test server or a gateway.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithOrderNameSuffix sets the suffix the store appends to order numbers.
func WithOrderNameSuffix(suffix string) Option {
	return func(c *Client) {
		c.orderNameSuffix = suffix
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithProxy routes requests through a SOCKS5 proxy at host:port.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithMaxRetries sets how often a throttled request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay sets the wait before a retry when the API gives no hint.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Endpoint returns the GraphQL endpoint of a shop for an API version.
func Endpoint(shopName, apiVersion string) string {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", shopName, apiVersion)
}

// NewClient creates a client for the shop with the given access token.
// The apiVersion selects the endpoint unless WithEndpoint overrides it.
func NewClient(shopName, apiKey, apiVersion string, opts ...Option) (*Client, error) {
	if shopName == "" || apiKey == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		endpoint:        Endpoint(shopName, apiVersion),
		apiKey:          apiKey,
		orderNameSuffix: DefaultOrderNameSuffix,
		httpClient:      &http.Client{},
		maxRetries:      DefaultMaxRetries,
		retryDelay:      DefaultRetryDelay,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.proxyAddress != "" {
		hc, err := socksHTTPClient(c.httpClient, c.proxyAddress)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}
	return c, nil
}

// socksHTTPClient returns a copy of base whose transport dials through a
// SOCKS5 proxy.
func socksHTTPClient(base *http.Client, address string) (*http.Client, error) {
	if _, port, err := net.SplitHostPort(address); err != nil || port == "" {
		return nil, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer for %s does not support contexts", address)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = contextDialer.DialContext

	hc := *base
	hc.Transport = transport
	return &hc, nil
}

// Resolve returns the line items of the order with the given number.
// reviewID is only used to describe failures.
//
// An order that cannot be found, or that has no line items, yields an empty
// slice and no error. Every other failure is a *ResolutionError.
func (c *Client) Resolve(ctx context.Context, reviewID, orderNumber string) ([]model.OrderLineItem, error) {
	items, err := c.lookup(ctx, orderNumber)
	if err != nil {
		return nil, &ResolutionError{ReviewID: reviewID, OrderNumber: orderNumber, Err: err}
	}
	return items, nil
}

// lookup runs the order query, retrying while the API throttles.
func (c *Client) lookup(ctx context.Context, orderNumber string) ([]model.OrderLineItem, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:         orderLineItemsQuery,
		OperationName: orderLineItemsOperation.Name,
		Variables: map[string]any{
			orderNameVariable: OrderNameQuery(orderNumber, c.orderNameSuffix),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		resp, wait, err := c.do(ctx, body)
		if err == nil {
			return resp.Data.lineItems(), nil
		}
		if !errors.Is(err, ErrThrottled) || attempt >= c.maxRetries {
			return nil, err
		}

		if wait <= 0 {
			wait = c.retryDelay
		}
		c.logger.Debug("request throttled, retrying",
			"order", orderNumber,
			"attempt", attempt+1,
			"wait", wait,
		)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// do sends one request. When the API throttles, the returned error wraps
// ErrThrottled and wait holds the server's Retry-After hint, if any.
func (c *Client) do(ctx context.Context, body []byte) (*orderLineItemsResponse, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	wait := retryAfter(resp.Header.Get("Retry-After"))
	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, wait, fmt.Errorf("%w: %w", ErrThrottled, &StatusError{StatusCode: resp.StatusCode})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, 0, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	var decoded orderLineItemsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&decoded); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	if len(decoded.Errors) > 0 {
		if decoded.Errors.throttled() {
			return nil, wait, fmt.Errorf("%w: %w", ErrThrottled, decoded.Errors)
		}
		return nil, 0, decoded.Errors
	}
	if decoded.Data == nil || decoded.Data.Orders == nil {
		return nil, 0, fmt.Errorf("%w: missing data.orders", ErrUnexpectedResponse)
	}
	return &decoded, 0, nil
}

// retryAfter parses a Retry-After header given in seconds.
// Shopify sends fractional seconds, e.g. "2.0".
func retryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
