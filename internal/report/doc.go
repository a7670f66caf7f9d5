// Package report renders scoring summaries.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for sharing and documentation
//
// Report data structures live in the model package. Writers implement the
// Writer interface so they can be used interchangeably and combined with
// MultiWriter.
package report
