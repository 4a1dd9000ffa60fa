package variant

import (
	"sync"

	"github.com/nao1215/reviewsku/internal/model"
)

// Selection describes what Ingest did with one review.
type Selection struct {
	// SKU is the SKU the review was added to. It is empty when Matched is false.
	SKU string

	// Matched reports whether the review was added to the report.
	Matched bool

	// Candidates is the number of line items that belonged to the product.
	Candidates int

	// Ambiguous is true when the candidates carried more than one distinct SKU.
	// The first candidate was still selected.
	Ambiguous bool
}

// Aggregator builds a VariantReport for one product.
// It is safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	productID model.ProductIdentifier
	report    *model.VariantReport
}

// NewAggregator returns an aggregator for the given product.
func NewAggregator(productID model.ProductIdentifier) *Aggregator {
	return NewAggregatorWithReport(productID, model.NewVariantReport())
}

// NewAggregatorWithReport returns an aggregator that adds to an existing report.
func NewAggregatorWithReport(productID model.ProductIdentifier, report *model.VariantReport) *Aggregator {
	if report == nil {
		report = model.NewVariantReport()
	}
	return &Aggregator{
		productID: productID,
		report:    report,
	}
}

// ProductID returns the product the aggregator filters on.
func (a *Aggregator) ProductID() model.ProductIdentifier {
	return a.productID
}

// Ingest filters items to the aggregator's product and appends reviewID to the
// bucket of the first remaining item's SKU. Nothing is added when no item
// belongs to the product.
func (a *Aggregator) Ingest(reviewID string, items []model.OrderLineItem) Selection {
	sel := Select(a.productID, items)
	if !sel.Matched {
		return sel
	}

	a.mu.Lock()
	a.report.Add(sel.SKU, reviewID)
	a.mu.Unlock()
	return sel
}

// Report returns the report built so far.
// The caller must not ingest further reviews while reading it.
func (a *Aggregator) Report() *model.VariantReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.report
}

// Select applies the product filter and the first-match rule without
// touching any report.
func Select(productID model.ProductIdentifier, items []model.OrderLineItem) Selection {
	var sel Selection
	for _, item := range items {
		if item.ProductID != productID.String() {
			continue
		}
		sel.Candidates++
		if !sel.Matched {
			sel.SKU = item.SKU
			sel.Matched = true
			continue
		}
		if item.SKU != sel.SKU {
			sel.Ambiguous = true
		}
	}
	return sel
}
