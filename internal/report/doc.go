// Package report renders the result of a run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: the SKU to review id mapping as a JSON object
//   - FullJSONWriter: the mapping together with the run summary
//   - MarkdownWriter: a Markdown document for sharing
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
