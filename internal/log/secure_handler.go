package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// sensitiveKeys contains attribute keys that should always be sanitized.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":          true,
	"cookie":                 true,
	"set-cookie":             true,
	"x-api-key":              true,
	"x-shopify-access-token": true,
	"proxy-authorization":    true,

	// Authentication
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"access_token":  true,
	"refresh_token": true,
	"secret_key":    true,

	// Session
	"session":    true,
	"session_id": true,

	// Credentials
	"credential":  true,
	"credentials": true,
	"auth":        true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
// Values matching these patterns will be sanitized regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// Shopify access tokens (admin, custom app, private app, shared secret)
	regexp.MustCompile(`^shp(at|ca|pa|ss)_[A-Fa-f0-9]{32}$`),

	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// Long alphanumeric strings such as legacy private app passwords
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler is an slog.Handler that masks credentials before records
// reach the wrapped handler. An attribute is masked when its key names a
// secret, when its value looks like one, or when its value contains one of
// the literal secrets registered with WithSecrets. Registered secrets are also
// cut out of the record message.
type SecureHandler struct {
	next    slog.Handler
	secrets []string
}

// HandlerOption configures a SecureHandler.
type HandlerOption func(*SecureHandler)

// WithSecrets registers literal values that must never be logged, typically
// the Admin API access token of the current run. Empty values are ignored.
func WithSecrets(values ...string) HandlerOption {
	return func(h *SecureHandler) {
		for _, v := range values {
			if v != "" {
				h.secrets = append(h.secrets, v)
			}
		}
	}
}

// NewSecureHandler wraps next. A nil next falls back to the default logger's handler.
func NewSecureHandler(next slog.Handler, opts ...HandlerOption) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	h := &SecureHandler{next: next}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled defers to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle masks the record and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.scrub(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs masks attrs once, when they are bound to the logger.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		masked = append(masked, h.mask(a))
	}
	return &SecureHandler{next: h.next.WithAttrs(masked), secrets: h.secrets}
}

// WithGroup opens a group on the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name), secrets: h.secrets}
}

// mask returns a with its value replaced by MaskValue when it is sensitive.
// Groups are walked recursively.
func (h *SecureHandler) mask(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		members := a.Value.Group()
		masked := make([]slog.Attr, 0, len(members))
		for _, m := range members {
			masked = append(masked, h.mask(m))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
	case slog.KindString:
		if isSensitiveKey(a.Key) || isSensitiveValue(a.Value.String()) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, h.scrub(a.Value.String()))
	case slog.KindAny:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		// Errors and other values are rendered as text, so check that text.
		if err, ok := a.Value.Any().(error); ok && len(h.secrets) > 0 {
			if text := err.Error(); h.scrub(text) != text {
				return slog.String(a.Key, h.scrub(text))
			}
		}
		return a
	default:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		return a
	}
}

// scrub replaces every registered secret in s.
func (h *SecureHandler) scrub(s string) string {
	for _, secret := range h.secrets {
		if strings.Contains(s, secret) {
			s = strings.ReplaceAll(s, secret, MaskValue)
		}
	}
	return s
}

// isSensitiveKey reports whether an attribute key names a credential.
// The bare word "key" is not a keyword: it would mask "cache_key".
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if sensitiveKeys[key] {
		return true
	}
	for _, keyword := range []string{"password", "passwd", "secret", "token", "auth", "credential"} {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether a value looks like a credential.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// level maps the verbose flag to a log level: Debug when verbose, Warn otherwise.
func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewSecureLogger returns a text logger writing to w through a SecureHandler.
func NewSecureLogger(w io.Writer, verbose bool, opts ...HandlerOption) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewSecureHandler(text, opts...))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool, opts ...HandlerOption) *slog.Logger {
	js := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewSecureHandler(js, opts...))
}

// WithRunID returns a logger that tags every record with a random run id,
// so lines written by concurrent lookups can be told apart per run.
func WithRunID(logger *slog.Logger) *slog.Logger {
	return logger.With("run", uuid.NewString())
}
