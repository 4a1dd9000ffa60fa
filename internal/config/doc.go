// Package config provides configuration structures and utilities for reviewsku.
// It defines the options for reading review exports, talking to the Shopify
// Admin API, resolving orders, and choosing the report format. Credentials are
// read from the environment; everything else comes from defaults, an optional
// YAML file, and command line flags, in that order.
package config
