package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/reviewsku/internal/shopify"
)

// Default configuration values.
const (
	// DefaultAPIVersion is the Shopify Admin API version the order query was written against.
	DefaultAPIVersion = shopify.DefaultAPIVersion

	// DefaultOrderNameSuffix is appended to a review's order number to form the
	// order name the store uses. Store order names are "<number>-QDO".
	DefaultOrderNameSuffix = shopify.DefaultOrderNameSuffix

	// DefaultTimeout bounds a single order lookup including retries.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency resolves one order at a time.
	// Higher values fan out lookups and are bounded by the API's rate limits.
	DefaultConcurrency = 1

	// DefaultMaxRetries is how often a throttled lookup is retried.
	DefaultMaxRetries = shopify.DefaultMaxRetries

	// DefaultRetryDelay is the wait between retries when the API sends no Retry-After header.
	DefaultRetryDelay = shopify.DefaultRetryDelay

	// AppName is the application name used for XDG directory paths.
	AppName = "reviewsku"

	// EnvShopName names the environment variable holding the store name.
	EnvShopName = "SHOP_NAME"

	// EnvAPIKey names the environment variable holding the Admin API access token.
	EnvAPIKey = "API_KEY" //nolint:gosec // Variable name, not a credential

	// LogFormatText writes logfmt-style log lines.
	LogFormatText = "text"

	// LogFormatJSON writes one JSON object per log line.
	LogFormatJSON = "json"
)

// Config holds all configuration options for a reviewsku run.
// It is populated from defaults, the configuration file, CLI flags and the
// environment, then passed through the application rather than kept as
// global state.
type Config struct {
	// ExportPath is the review export CSV to process.
	ExportPath string

	// ShopName is the Shopify store name, i.e. the "<name>" in <name>.myshopify.com.
	ShopName string

	// APIKey is the Admin API access token. It is never logged.
	APIKey string

	// APIVersion is the Admin API version used in the GraphQL endpoint path.
	APIVersion string

	// Endpoint overrides the GraphQL endpoint URL. When empty the endpoint is
	// derived from ShopName and APIVersion.
	Endpoint string

	// OrderNameSuffix is appended to order numbers when searching orders by name.
	OrderNameSuffix string

	// Columns overrides the export column layout.
	Columns Columns

	// Timeout bounds each order lookup.
	Timeout time.Duration

	// Concurrency is the number of order lookups in flight at once.
	Concurrency int

	// MaxRetries is the number of retries for a throttled lookup.
	MaxRetries int

	// RetryDelay is the wait between retries when the API does not suggest one.
	RetryDelay time.Duration

	// ProxyAddress routes API traffic through a SOCKS5 proxy in "host:port" format.
	// Empty means a direct connection.
	ProxyAddress string

	// UseCache enables the on-disk order cache.
	UseCache bool

	// CacheDir is the directory holding the order cache database.
	CacheDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .reviewsku is searched in the current and home directory,
	// then config.yaml in the XDG config directory.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	ReportFile string
}

// Columns holds optional export layout overrides.
// A nil position or empty header keeps the export package default.
type Columns struct {
	// ReviewID is the position of the review id column.
	ReviewID *int `yaml:"review_id,omitempty"`

	// Title is the position of the review title column.
	Title *int `yaml:"title,omitempty"`

	// Content is the position of the review body column.
	Content *int `yaml:"content,omitempty"`

	// OrderNumber is the position of the order number column.
	OrderNumber *int `yaml:"order_number,omitempty"`

	// ProductID is the position of the product id column.
	ProductID *int `yaml:"product_id,omitempty"`

	// Headers selects columns by header text instead of position.
	// Keys are review_id, title, content, order_number and product_id.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		APIVersion:      DefaultAPIVersion,
		OrderNameSuffix: DefaultOrderNameSuffix,
		Timeout:         DefaultTimeout,
		Concurrency:     DefaultConcurrency,
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      DefaultRetryDelay,
		CacheDir:        XDGCacheDir(),
		LogFormat:       LogFormatText,
	}
}

// XDGCacheDir returns the XDG cache directory for reviewsku.
// On Linux: ~/.cache/reviewsku
// On macOS: ~/Library/Caches/reviewsku
// On Windows: %LOCALAPPDATA%\reviewsku\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGConfigDir returns the XDG config directory for reviewsku.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// LoadCredentials reads the store name and API key using getenv, which is
// normally os.Getenv. A missing value yields a *ConfigError naming the variable.
// The store name is checked first.
func (c *Config) LoadCredentials(getenv func(string) string) error {
	shop := getenv(EnvShopName)
	if shop == "" {
		return &ConfigError{Name: EnvShopName, Err: ErrMissingShopName}
	}
	key := getenv(EnvAPIKey)
	if key == "" {
		return &ConfigError{Name: EnvAPIKey, Err: ErrMissingAPIKey}
	}
	c.ShopName = shop
	c.APIKey = key
	return nil
}

// Validate checks if the configuration is valid.
// It returns the first problem found. Credentials are checked separately by
// LoadCredentials.
func (c *Config) Validate() error {
	if c.ExportPath == "" {
		return ErrNoExport
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	for _, pos := range []*int{c.Columns.ReviewID, c.Columns.Title, c.Columns.Content, c.Columns.OrderNumber, c.Columns.ProductID} {
		if pos != nil && *pos < 0 {
			return ErrInvalidColumn
		}
	}
	return nil
}
