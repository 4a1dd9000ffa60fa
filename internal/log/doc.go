// Package log wraps log/slog with a handler that keeps credentials out of
// log output.
//
// Values are masked when the attribute key names a secret (the Shopify access
// token header, authorization, api_key and similar), when the value looks
// like a token, or when it contains a literal registered with WithSecrets.
// Verbose mode can therefore log requests and configuration freely.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true, log.WithSecrets(apiKey))
//	logger = log.WithRunID(logger)
//
//	logger.Debug("sending order query",
//	    "x-shopify-access-token", apiKey, // logged as ***REDACTED***
//	    "order", "1001",
//	)
package log
