package export

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Field names a column the extractor reads.
type Field string

// Fields read from every export row.
const (
	FieldReviewID    Field = "review_id"
	FieldTitle       Field = "title"
	FieldContent     Field = "content"
	FieldOrderNumber Field = "order_number"
	FieldProductID   Field = "product_id"
)

// Default column positions of the review platform's export schema.
const (
	DefaultReviewIDColumn    = 1
	DefaultTitleColumn       = 2
	DefaultContentColumn     = 3
	DefaultOrderNumberColumn = 22
	DefaultProductIDColumn   = 30
)

// Layout maps fields to zero-based column positions.
// When Headers names a field, its position is looked up in the header row
// instead, ignoring case and surrounding whitespace.
type Layout struct {
	ReviewID    int
	Title       int
	Content     int
	OrderNumber int
	ProductID   int

	// Headers maps a field to the header text of its column.
	Headers map[Field]string
}

// DefaultLayout returns the positional layout of the standard export.
func DefaultLayout() Layout {
	return Layout{
		ReviewID:    DefaultReviewIDColumn,
		Title:       DefaultTitleColumn,
		Content:     DefaultContentColumn,
		OrderNumber: DefaultOrderNumberColumn,
		ProductID:   DefaultProductIDColumn,
	}
}

// MinColumns returns the number of columns a row needs to satisfy the layout.
func (l Layout) MinColumns() int {
	maxPos := 0
	for _, pos := range []int{l.ReviewID, l.Title, l.Content, l.OrderNumber, l.ProductID} {
		if pos > maxPos {
			maxPos = pos
		}
	}
	return maxPos + 1
}

// position returns a pointer to the position field for f.
func (l *Layout) position(f Field) (*int, error) {
	switch f {
	case FieldReviewID:
		return &l.ReviewID, nil
	case FieldTitle:
		return &l.Title, nil
	case FieldContent:
		return &l.Content, nil
	case FieldOrderNumber:
		return &l.OrderNumber, nil
	case FieldProductID:
		return &l.ProductID, nil
	default:
		return nil, fmt.Errorf("unknown export field %q", f)
	}
}

// SetPosition places field f at column pos.
func (l *Layout) SetPosition(f Field, pos int) error {
	if pos < 0 {
		return fmt.Errorf("negative column position %d for %s", pos, f)
	}
	p, err := l.position(f)
	if err != nil {
		return err
	}
	*p = pos
	return nil
}

// SetHeader selects the column of field f by its header text.
func (l *Layout) SetHeader(f Field, header string) error {
	if _, err := l.position(f); err != nil {
		return err
	}
	if l.Headers == nil {
		l.Headers = make(map[Field]string)
	}
	l.Headers[f] = header
	return nil
}

// resolve returns a copy of the layout with every header-named field replaced
// by its position in header.
func (l Layout) resolve(header []string) (Layout, error) {
	if len(l.Headers) == 0 {
		return l, nil
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		key := foldHeader(h)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	resolved := l
	for field, name := range l.Headers {
		pos, err := resolved.position(field)
		if err != nil {
			return Layout{}, err
		}
		i, ok := index[foldHeader(name)]
		if !ok {
			return Layout{}, fmt.Errorf("header %q for %s not found", name, field)
		}
		*pos = i
	}
	return resolved, nil
}

// foldHeader normalizes a header cell for case-insensitive comparison.
// Spreadsheet exports often start with a UTF-8 byte order mark.
func foldHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return cases.Fold().String(strings.TrimSpace(s))
}
