package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".reviewsku"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .reviewsku configuration file.
// Credentials are deliberately absent; they only come from the environment.
type File struct {
	// Shopify holds API settings.
	Shopify ShopifyFile `yaml:"shopify,omitempty"`

	// Export holds the column layout of the review export.
	Export ExportFile `yaml:"export,omitempty"`

	// Resolve holds order lookup settings.
	Resolve ResolveFile `yaml:"resolve,omitempty"`
}

// ShopifyFile is the shopify section of the configuration file.
type ShopifyFile struct {
	APIVersion      string `yaml:"api_version,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	OrderNameSuffix string `yaml:"order_name_suffix,omitempty"`
}

// ExportFile is the export section of the configuration file.
type ExportFile struct {
	Columns Columns `yaml:"columns,omitempty"`
}

// ResolveFile is the resolve section of the configuration file.
type ResolveFile struct {
	Concurrency int           `yaml:"concurrency,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxRetries  *int          `yaml:"max_retries,omitempty"`
	RetryDelay  time.Duration `yaml:"retry_delay,omitempty"`
	Proxy       string        `yaml:"proxy,omitempty"`
	Cache       bool          `yaml:"cache,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply overlays the non-zero values of the file onto c.
func (cf *File) Apply(c *Config) {
	if cf.Shopify.APIVersion != "" {
		c.APIVersion = cf.Shopify.APIVersion
	}
	if cf.Shopify.Endpoint != "" {
		c.Endpoint = cf.Shopify.Endpoint
	}
	if cf.Shopify.OrderNameSuffix != "" {
		c.OrderNameSuffix = cf.Shopify.OrderNameSuffix
	}

	cols := cf.Export.Columns
	if cols.ReviewID != nil {
		c.Columns.ReviewID = cols.ReviewID
	}
	if cols.Title != nil {
		c.Columns.Title = cols.Title
	}
	if cols.Content != nil {
		c.Columns.Content = cols.Content
	}
	if cols.OrderNumber != nil {
		c.Columns.OrderNumber = cols.OrderNumber
	}
	if cols.ProductID != nil {
		c.Columns.ProductID = cols.ProductID
	}
	if len(cols.Headers) > 0 {
		if c.Columns.Headers == nil {
			c.Columns.Headers = make(map[string]string)
		}
		for k, v := range cols.Headers {
			c.Columns.Headers[k] = v
		}
	}

	if cf.Resolve.Concurrency > 0 {
		c.Concurrency = cf.Resolve.Concurrency
	}
	if cf.Resolve.Timeout > 0 {
		c.Timeout = cf.Resolve.Timeout
	}
	if cf.Resolve.MaxRetries != nil {
		c.MaxRetries = *cf.Resolve.MaxRetries
	}
	if cf.Resolve.RetryDelay > 0 {
		c.RetryDelay = cf.Resolve.RetryDelay
	}
	if cf.Resolve.Proxy != "" {
		c.ProxyAddress = cf.Resolve.Proxy
	}
	if cf.Resolve.Cache {
		c.UseCache = true
	}
}

// XDGConfigFile is the configuration file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .reviewsku in the current directory
// 3. Look for .reviewsku in the user's home directory
// 4. Look for config.yaml in the XDG config directory (~/.config/reviewsku)
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// searchPaths returns the implicit configuration file locations in lookup order.
func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), XDGConfigFile))
}
