package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nao1215/reviewsku/internal/export"
	"github.com/nao1215/reviewsku/internal/model"
)

// fakeResolver answers lookups from a fixed table of orders.
type fakeResolver struct {
	mu     sync.Mutex
	orders map[string][]model.OrderLineItem
	errs   map[string]error
	calls  []string
}

func (f *fakeResolver) Resolve(_ context.Context, _, orderNumber string) ([]model.OrderLineItem, error) {
	f.mu.Lock()
	f.calls = append(f.calls, orderNumber)
	f.mu.Unlock()

	if err, ok := f.errs[orderNumber]; ok {
		return nil, err
	}
	items, ok := f.orders[orderNumber]
	if !ok {
		return []model.OrderLineItem{}, nil
	}
	return items, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// writeExport writes a CSV export in the default layout and returns its path.
// Each review becomes one row carrying productID.
func writeExport(t *testing.T, productID string, reviews ...model.ProductReview) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "reviews.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	width := export.DefaultProductIDColumn + 1
	w := csv.NewWriter(f)
	header := make([]string, width)
	for i := range header {
		header[i] = "col"
	}
	if err := w.Write(header); err != nil {
		t.Fatal(err)
	}
	for _, r := range reviews {
		row := make([]string, width)
		row[export.DefaultReviewIDColumn] = r.ID
		row[export.DefaultTitleColumn] = r.Title
		row[export.DefaultContentColumn] = r.Content
		row[export.DefaultOrderNumberColumn] = r.OrderNumber
		row[export.DefaultProductIDColumn] = productID
		if err := w.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatal(err)
	}
	return path
}

// resolvingRun returns a run that is ready for ResolveStep.
func resolvingRun(productID model.ProductIdentifier, reviews ...model.ProductReview) *model.Run {
	run := model.NewRun("reviews.csv")
	run.ProductID = productID
	run.Reviews = reviews
	run.Summary.ProductID = productID
	run.Summary.Reviews = len(reviews)
	run.State = model.StateResolving
	return run
}
