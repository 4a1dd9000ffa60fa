package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nao1215/reviewsku/internal/model"
)

// errNoHeader is returned for a file without even a header row.
var errNoHeader = errors.New("export is empty: missing header row")

// errNoProductID is returned when no data row carries a product id.
var errNoProductID = errors.New("product id column is empty in every row")

// Extractor turns a review export into typed reviews.
type Extractor struct {
	layout Layout
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger for the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor for exports with the given layout.
func NewExtractor(layout Layout, opts ...Option) *Extractor {
	e := &Extractor{layout: layout}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract opens the export at path, reads it completely and closes it.
// Any failure is returned as a *FormatError.
func (e *Extractor) Extract(path string) (model.ProductIdentifier, []model.ProductReview, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided export path is intentional
	if err != nil {
		return "", nil, &FormatError{Path: path, Err: fmt.Errorf("could not read file: %w", err)}
	}
	defer f.Close()

	productID, reviews, err := e.Read(f)
	if err != nil {
		var ferr *FormatError
		if errors.As(err, &ferr) {
			ferr.Path = path
		}
		return "", nil, err
	}
	return productID, reviews, nil
}

// Read parses an export from r.
//
// The first row is the header. The product identifier is captured from the
// first data row with a non-empty product id column and kept for the whole
// export, even when later rows carry a different value.
func (e *Extractor) Read(r io.Reader) (model.ProductIdentifier, []model.ProductReview, error) {
	cr := csv.NewReader(r)
	// Row width is checked against the layout below, not against the header.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return "", nil, &FormatError{Err: errNoHeader}
	}
	if err != nil {
		return "", nil, &FormatError{Err: fmt.Errorf("could not parse CSV: %w", err)}
	}

	layout, err := e.layout.resolve(header)
	if err != nil {
		return "", nil, &FormatError{Err: err}
	}
	minColumns := layout.MinColumns()

	var (
		productID model.ProductIdentifier
		reviews   []model.ProductReview
	)

	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, &FormatError{Row: row, Err: fmt.Errorf("could not parse CSV: %w", err)}
		}
		if len(record) < minColumns {
			return "", nil, &FormatError{
				Row: row,
				Err: fmt.Errorf("expected at least %d columns, got %d", minColumns, len(record)),
			}
		}

		if pid := strings.TrimSpace(record[layout.ProductID]); pid != "" {
			switch {
			case productID == "":
				productID = model.ProductIdentifier(pid)
			case pid != productID.String():
				e.logger.Debug("ignoring differing product id",
					"row", row,
					"product", productID.String(),
					"found", pid,
				)
			}
		}

		reviews = append(reviews, model.ProductReview{
			ID:          strings.TrimSpace(record[layout.ReviewID]),
			OrderNumber: strings.TrimSpace(record[layout.OrderNumber]),
			Title:       plainText(record[layout.Title]),
			Content:     plainText(record[layout.Content]),
			Row:         row,
		})
	}

	if len(reviews) > 0 && productID == "" {
		return "", nil, &FormatError{Err: errNoProductID}
	}

	e.logger.Debug("export extracted",
		"product", productID.String(),
		"reviews", len(reviews),
	)

	return productID, reviews, nil
}
