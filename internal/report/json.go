package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/reviewsku/internal/model"
)

// JSONWriter outputs the SKU to review id mapping as a JSON object.
// Keys keep the order in which SKUs were first resolved.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run's variant report.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(run.Report)
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps the variant report with the run's metadata.
type JSONReport struct {
	// Version is the reviewsku version that generated this report.
	Version string `json:"version"`

	// Export is the path of the processed export.
	Export string `json:"export"`

	// GeneratedAt is when the run started.
	GeneratedAt time.Time `json:"generated_at"`

	// Variants maps SKUs to review ids.
	Variants *model.VariantReport `json:"variants"`

	// Summary counts what happened to each review.
	Summary model.RunSummary `json:"summary"`

	// Fingerprint is the SHA3-256 digest of Variants.
	Fingerprint string `json:"fingerprint"`
}

// NewJSONReport creates a JSONReport for run.
func NewJSONReport(run *model.Run, version string) *JSONReport {
	return &JSONReport{
		Version:     version,
		Export:      run.ExportPath,
		GeneratedAt: run.StartedAt.UTC(),
		Variants:    run.Report,
		Summary:     run.Summary,
		Fingerprint: run.Report.Fingerprint(),
	}
}

// FullJSONWriter outputs the variant report with metadata.
type FullJSONWriter struct {
	*JSONWriter

	// version is the reviewsku version string.
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the run wrapped with metadata.
func (w *FullJSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(NewJSONReport(run, w.version))
}
