package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/reviewsku/internal/model"
)

// Writer renders a finished run.
type Writer interface {
	// Write outputs the run's report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how the run ended.
func statusText(run *model.Run) string {
	if run.Summary.Cancelled {
		return "Cancelled (partial results)"
	}
	if run.Summary.Failed > 0 {
		return "Complete with failed lookups"
	}
	return "Complete"
}

// plural returns "1 review" or "n reviews".
func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// excerptLength is the number of characters shown of a review's text.
const excerptLength = 60

// reviewExcerpts maps review ids to a short text of the review: the title,
// or the start of the body when the title is empty. Reviews without text are
// left out. The first review wins when an id repeats.
func reviewExcerpts(run *model.Run) map[string]string {
	excerpts := make(map[string]string, len(run.Reviews))
	for _, r := range run.Reviews {
		if _, ok := excerpts[r.ID]; ok {
			continue
		}
		text := r.Title
		if text == "" {
			text = r.Content
		}
		if text != "" {
			excerpts[r.ID] = truncateString(text, excerptLength)
		}
	}
	return excerpts
}

// truncateString shortens s to at most maxLen runes, ending in "..." when
// anything was cut. It never splits a multi-byte character.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// tableCell escapes s for use inside a Markdown table cell.
// A literal "|" would end the cell and newlines would end the row.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
