package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// It uses plain ASCII formatting so output can be piped to files or grep.
type SimpleWriter struct {
	baseWriter

	// showFeatures prints the full feature vector of each result.
	showFeatures bool

	// verbose adds reason severities and per-result metadata.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowFeatures configures the writer to print feature scores.
func WithShowFeatures(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showFeatures = show
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

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSummary(&sb, summary)

	if len(summary.Results) > 0 {
		writeRule(&sb, "-", "RESULTS")
		for _, r := range summary.Results {
			w.writeResult(&sb, r)
		}
	}

	if summary.HasFailures() {
		writeRule(&sb, "-", "FAILURES")
		for _, f := range summary.Failures {
			sb.WriteString(fmt.Sprintf("  [x] %s\n", f.URL))
			sb.WriteString(fmt.Sprintf("      %s\n", f.Error))
		}
		sb.WriteString("\n")
	}

	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteResult outputs a single prediction in human-readable format.
func (w *SimpleWriter) WriteResult(result *model.PredictionResult) (int, error) {
	var sb strings.Builder
	w.writeResult(&sb, result)
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with batch information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PHISHSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Generated:  %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	if summary.ModelVersion != "" {
		sb.WriteString(fmt.Sprintf("Model:      %s\n", summary.ModelVersion))
	}
	sb.WriteString(fmt.Sprintf("Threshold:  %.2f\n", summary.Threshold))
	sb.WriteString("\n")
}

// writeSummary writes the verdict counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.Summary) {
	writeRule(sb, "-", "SUMMARY")

	sb.WriteString(fmt.Sprintf("  MALICIOUS: %d\n", summary.MaliciousCount))
	sb.WriteString(fmt.Sprintf("  BENIGN:    %d\n", summary.BenignCount))
	sb.WriteString(fmt.Sprintf("  FAILED:    %d\n", summary.FailedCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:     %d URLs\n", summary.Total()))
	sb.WriteString("\n")
}

// writeResult writes one prediction with its ranked reasons.
func (w *SimpleWriter) writeResult(sb *strings.Builder, r *model.PredictionResult) {
	sb.WriteString(fmt.Sprintf("[%s] %s\n", labelIndicator(r.Label), r.URL))
	sb.WriteString(fmt.Sprintf("    Verdict:     %s\n", r.Label))
	sb.WriteString(fmt.Sprintf("    Probability: %.4f\n", r.Probability))
	if w.verbose {
		sb.WriteString(fmt.Sprintf("    Source:      %s\n", r.Source))
		if r.ModelVersion != "" {
			sb.WriteString(fmt.Sprintf("    Model:       %s\n", r.ModelVersion))
		}
	}

	if len(r.Reasons) == 0 {
		sb.WriteString("    Reasons:     none\n")
	} else {
		sb.WriteString("    Reasons:\n")
		for i, reason := range r.Reasons {
			if w.verbose {
				sb.WriteString(fmt.Sprintf("      %d. %s (%s)\n", i+1, reason.Message, reason.Severity))
			} else {
				sb.WriteString(fmt.Sprintf("      %d. %s\n", i+1, reason.Message))
			}
		}
	}

	if w.showFeatures && len(r.FeatureScores) > 0 {
		sb.WriteString("    Features:\n")
		for _, f := range r.FeatureScores {
			sb.WriteString(fmt.Sprintf("      %-22s %g\n", f.Name, f.Value))
		}
	}
	sb.WriteString("\n")
}

// labelIndicator returns a visual indicator for the verdict.
func labelIndicator(l model.Label) string {
	switch l {
	case model.LabelMalicious:
		return "!!"
	case model.LabelBenign:
		return "ok"
	default:
		return "?"
	}
}

func writeRule(sb *strings.Builder, ch, title string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by phishscan\n")
	sb.WriteString("https://github.com/nao1215/phishscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
