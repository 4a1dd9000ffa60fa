package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/reviewsku/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints the failed lookups section even when nothing failed.
	showEmpty bool

	// verbose adds review titles, failure causes, the ambiguity count and
	// the report fingerprint.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeVariants(&sb, run)
	w.writeFailures(&sb, run)
	w.writeSummary(&sb, run)
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                        REVIEW SKU REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Product:  %s\n", run.ProductID)
	fmt.Fprintf(sb, "Export:   %s\n", run.ExportPath)
	fmt.Fprintf(sb, "Reviews:  %d\n", run.Summary.Reviews)
	fmt.Fprintf(sb, "Status:   %s\n", statusText(run))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeVariants(sb *strings.Builder, run *model.Run) {
	w.writeSection(sb, "VARIANTS")

	if run.Report.Len() == 0 {
		sb.WriteString("  No review could be attributed to a variant\n\n")
		return
	}
	var excerpts map[string]string
	if w.verbose {
		excerpts = reviewExcerpts(run)
	}
	for _, sku := range run.Report.SKUs() {
		ids := run.Report.Reviews(sku)
		fmt.Fprintf(sb, "  %s (%s)\n", displaySKU(sku), plural(len(ids), "review"))
		for _, id := range ids {
			if text, ok := excerpts[id]; ok {
				fmt.Fprintf(sb, "    - %s  %q\n", id, text)
				continue
			}
			fmt.Fprintf(sb, "    - %s\n", id)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, run *model.Run) {
	if len(run.Summary.Failures) == 0 && !w.showEmpty {
		return
	}
	w.writeSection(sb, "FAILED LOOKUPS")

	if len(run.Summary.Failures) == 0 {
		sb.WriteString("  No failed lookups\n\n")
		return
	}
	for _, f := range run.Summary.Failures {
		fmt.Fprintf(sb, "  * review %s, order %s\n", f.ReviewID, f.OrderNumber)
		if w.verbose {
			fmt.Fprintf(sb, "    Cause: %s\n", f.Cause)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, run *model.Run) {
	w.writeSection(sb, "SUMMARY")

	s := run.Summary
	fmt.Fprintf(sb, "  Matched:    %d\n", s.Matched)
	fmt.Fprintf(sb, "  Unmatched:  %d\n", s.Unmatched)
	fmt.Fprintf(sb, "  Skipped:    %d\n", s.Skipped)
	fmt.Fprintf(sb, "  Failed:     %d\n", s.Failed)
	if w.verbose {
		fmt.Fprintf(sb, "  Ambiguous:  %d\n", s.Ambiguous)
		fmt.Fprintf(sb, "\n  Fingerprint: %s\n", run.Report.Fingerprint())
	}
	sb.WriteString("\n")
}

// displaySKU renders the empty SKU visibly.
func displaySKU(sku string) string {
	if sku == "" {
		return "(no sku)"
	}
	return sku
}
