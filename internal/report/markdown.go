package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/reviewsku/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeVariants(md, run)
	w.writeSummary(md, run)
	w.writeFailures(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Review SKU Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Product", "`" + run.ProductID.String() + "`"},
			{"Export", "`" + tableCell(run.ExportPath) + "`"},
			{"Reviews", strconv.Itoa(run.Summary.Reviews)},
			{"Status", w.getStatusText(run)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on run state.
func (w *MarkdownWriter) getStatusText(run *model.Run) string {
	switch {
	case run.Summary.Cancelled:
		return "⚠️ " + statusText(run)
	case run.Summary.Failed > 0:
		return "❌ " + statusText(run)
	default:
		return "✅ " + statusText(run)
	}
}

func (w *MarkdownWriter) writeVariants(md *markdown.Markdown, run *model.Run) {
	md.H2("Variants")
	md.PlainText("")

	if run.Report.Len() == 0 {
		md.PlainText("No review could be attributed to a variant.")
		md.PlainText("")
		return
	}

	skus := run.Report.SKUs()
	rows := make([][]string, len(skus))
	for i, sku := range skus {
		ids := run.Report.Reviews(sku)
		cells := make([]string, len(ids))
		for j, id := range ids {
			cells[j] = tableCell(id)
		}
		rows[i] = []string{
			"`" + tableCell(displaySKU(sku)) + "`",
			strconv.Itoa(len(ids)),
			strings.Join(cells, ", "),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"SKU", "Reviews", "Review IDs"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(skus) > 1 {
		w.writePieChart(md, run)
	}
	w.writeReviews(md, run)
}

// writeReviews lists the text of every attributed review by SKU.
// The section is omitted when the export carried no review text.
func (w *MarkdownWriter) writeReviews(md *markdown.Markdown, run *model.Run) {
	excerpts := reviewExcerpts(run)
	if len(excerpts) == 0 {
		return
	}

	var rows [][]string
	for _, sku := range run.Report.SKUs() {
		for _, id := range run.Report.Reviews(sku) {
			rows = append(rows, []string{
				"`" + tableCell(displaySKU(sku)) + "`",
				tableCell(id),
				tableCell(excerpts[id]),
			})
		}
	}

	md.H3("Reviews")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"SKU", "Review", "Title"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of reviews per SKU.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.Run) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Reviews per Variant"),
		piechart.WithShowData(true),
	)
	for _, sku := range run.Report.SKUs() {
		chart.LabelAndIntValue(displaySKU(sku), uint64(len(run.Report.Reviews(sku))))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.Run) {
	md.H2("Summary")
	md.PlainText("")

	s := run.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Reviews"},
		Rows: [][]string{
			{"Matched", strconv.Itoa(s.Matched)},
			{"Unmatched", strconv.Itoa(s.Unmatched)},
			{"Skipped (no order number)", strconv.Itoa(s.Skipped)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"Ambiguous", strconv.Itoa(s.Ambiguous)},
		},
	})
	md.PlainText("")

	switch {
	case s.Cancelled:
		md.Warningf("The run was cancelled after %d of %d reviews. The report is partial.",
			s.Handled(), s.Reviews)
	case s.Failed > 0:
		md.Cautionf("%s could not be looked up. Their reviews are missing from the report.",
			plural(s.Failed, "order"))
	case s.Ambiguous > 0:
		md.Importantf("%s contained several variants of the product. The first line item was used.",
			plural(s.Ambiguous, "order"))
	default:
		md.Tip("Every resolvable review was looked up.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, run *model.Run) {
	if len(run.Summary.Failures) == 0 {
		return
	}

	md.H2("Failed Lookups")
	md.PlainText("")

	rows := make([][]string, len(run.Summary.Failures))
	for i, f := range run.Summary.Failures {
		rows[i] = []string{
			tableCell(f.ReviewID),
			tableCell(f.OrderNumber),
			tableCell(truncateString(f.Cause, 80)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Review", "Order", "Cause"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [reviewsku](https://github.com/nao1215/reviewsku)*")
}
