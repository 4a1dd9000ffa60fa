package variant

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/nao1215/reviewsku/internal/model"
)

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []model.OrderLineItem
		want  Selection
	}{
		{
			name: "single match",
			items: []model.OrderLineItem{
				{SKU: "A", ProductID: "P1"},
				{SKU: "B", ProductID: "P2"},
			},
			want: Selection{SKU: "A", Matched: true, Candidates: 1},
		},
		{
			name: "first match wins",
			items: []model.OrderLineItem{
				{SKU: "B", ProductID: "P2"},
				{SKU: "A", ProductID: "P1"},
				{SKU: "C", ProductID: "P1"},
			},
			want: Selection{SKU: "A", Matched: true, Candidates: 2, Ambiguous: true},
		},
		{
			name: "same sku twice is not ambiguous",
			items: []model.OrderLineItem{
				{SKU: "A", ProductID: "P1"},
				{SKU: "A", ProductID: "P1"},
			},
			want: Selection{SKU: "A", Matched: true, Candidates: 2},
		},
		{
			name: "no item of the product",
			items: []model.OrderLineItem{
				{SKU: "B", ProductID: "P2"},
			},
			want: Selection{},
		},
		{
			name:  "empty order",
			items: []model.OrderLineItem{},
			want:  Selection{},
		},
		{
			name: "empty sku still matches",
			items: []model.OrderLineItem{
				{SKU: "", ProductID: "P1"},
			},
			want: Selection{SKU: "", Matched: true, Candidates: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Select("P1", tt.items); got != tt.want {
				t.Errorf("Select() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAggregatorIngest(t *testing.T) {
	t.Parallel()

	t.Run("builds buckets in resolution order", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator("P1")
		agg.Ingest("r1", []model.OrderLineItem{{SKU: "A", ProductID: "P1"}, {SKU: "B", ProductID: "P2"}})
		agg.Ingest("r2", []model.OrderLineItem{})
		agg.Ingest("r3", []model.OrderLineItem{{SKU: "C", ProductID: "P1"}})
		agg.Ingest("r4", []model.OrderLineItem{{SKU: "A", ProductID: "P1"}})

		report := agg.Report()
		if got := report.SKUs(); !slices.Equal(got, []string{"A", "C"}) {
			t.Errorf("SKUs() = %v", got)
		}
		if got := report.Reviews("A"); !slices.Equal(got, []string{"r1", "r4"}) {
			t.Errorf("Reviews(A) = %v", got)
		}
		if got := report.Reviews("C"); !slices.Equal(got, []string{"r3"}) {
			t.Errorf("Reviews(C) = %v", got)
		}
		if report.Contains("r2") {
			t.Error("unmatched review must not appear in the report")
		}
	})

	t.Run("unmatched review adds nothing", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator("P1")
		sel := agg.Ingest("r1", []model.OrderLineItem{{SKU: "B", ProductID: "P2"}})
		if sel.Matched {
			t.Error("expected no match")
		}
		if agg.Report().Len() != 0 {
			t.Errorf("Len() = %d, want 0", agg.Report().Len())
		}
	})

	t.Run("repeated review ids are not deduplicated", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator("P1")
		agg.Ingest("r1", []model.OrderLineItem{{SKU: "A", ProductID: "P1"}})
		agg.Ingest("r1", []model.OrderLineItem{{SKU: "A", ProductID: "P1"}})
		if got := agg.Report().Reviews("A"); !slices.Equal(got, []string{"r1", "r1"}) {
			t.Errorf("Reviews(A) = %v", got)
		}
	})

	t.Run("adds to an existing report", func(t *testing.T) {
		t.Parallel()

		report := model.NewVariantReport()
		report.Add("Z", "r0")
		agg := NewAggregatorWithReport("P1", report)
		agg.Ingest("r1", []model.OrderLineItem{{SKU: "A", ProductID: "P1"}})
		if got := report.SKUs(); !slices.Equal(got, []string{"Z", "A"}) {
			t.Errorf("SKUs() = %v", got)
		}
	})

	t.Run("concurrent ingest", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator("P1")
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				agg.Ingest(fmt.Sprintf("r%d", i), []model.OrderLineItem{{SKU: "A", ProductID: "P1"}})
			}()
		}
		wg.Wait()

		if got := agg.Report().TotalReviews(); got != 50 {
			t.Errorf("TotalReviews() = %d, want 50", got)
		}
	})
}
