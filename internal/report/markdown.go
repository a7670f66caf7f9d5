package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/phishscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing, e.g. pasting a
// batch result into an incident ticket.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeOverview(md, summary)
	w.writeResultsTable(md, summary.Results)
	for _, r := range summary.Results {
		w.writeResultDetails(md, r)
	}
	w.writeFailures(md, summary.Failures)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteResult outputs a single prediction in Markdown format.
func (w *MarkdownWriter) WriteResult(result *model.PredictionResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Phishscan Result")
	md.PlainText("")
	w.writeResultDetails(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with batch information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Phishscan Report")
	md.PlainText("")

	version := summary.ModelVersion
	if version == "" {
		version = "-"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Model", "`" + version + "`"},
			{"Threshold", formatFloat(summary.Threshold)},
			{"URLs", strconv.Itoa(summary.Total())},
		},
	})
	md.PlainText("")
}

// writeOverview writes verdict counts, a pie chart and an alert.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Verdicts")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows: [][]string{
			{"🔴 Malicious", strconv.Itoa(summary.MaliciousCount)},
			{"🟢 Benign", strconv.Itoa(summary.BenignCount)},
			{"⚪ Failed", strconv.Itoa(summary.FailedCount)},
			{"**Total**", "**" + strconv.Itoa(summary.Total()) + "**"},
		},
	})
	md.PlainText("")

	if summary.Total() > 0 {
		w.writePieChart(md, summary)
	}

	switch {
	case summary.HasMalicious():
		md.Cautionf("%d of %d URL(s) look malicious. Do not open them.", summary.MaliciousCount, summary.Total())
	case summary.HasFailures():
		md.Warningf("%d URL(s) could not be scored.", summary.FailedCount)
	case summary.Total() > 0:
		md.Tip("No malicious URLs detected.")
	default:
		md.Note("No URLs were scored.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart for the verdict distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Verdict Distribution"),
		piechart.WithShowData(true),
	)

	if summary.MaliciousCount > 0 {
		chart.LabelAndIntValue("Malicious", uint64(summary.MaliciousCount))
	}
	if summary.BenignCount > 0 {
		chart.LabelAndIntValue("Benign", uint64(summary.BenignCount))
	}
	if summary.FailedCount > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.FailedCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeResultsTable writes one row per scored URL.
func (w *MarkdownWriter) writeResultsTable(md *markdown.Markdown, results []*model.PredictionResult) {
	md.H2("Results")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No URLs were scored.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		top := "-"
		if len(r.Reasons) > 0 {
			top = r.Reasons[0].Message
		}
		rows[i] = []string{
			"`" + truncateString(r.URL, 60) + "`",
			labelText(r.Label),
			formatFloat(r.Probability),
			string(r.Source),
			truncateString(top, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Verdict", "Probability", "Source", "Top Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeResultDetails writes the ranked reasons of one prediction.
func (w *MarkdownWriter) writeResultDetails(md *markdown.Markdown, r *model.PredictionResult) {
	md.H3("`" + truncateString(r.URL, 80) + "`")
	md.PlainText("")
	md.PlainTextf("%s with probability %s (%s).", labelText(r.Label), formatFloat(r.Probability), r.Source)
	md.PlainText("")

	if len(r.Reasons) == 0 {
		md.PlainText("No suspicious signals.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			reason.Message,
			reason.Severity.String(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Reason", "Severity"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(r.FeatureScores) > 0 {
		var sb strings.Builder
		for _, f := range r.FeatureScores {
			sb.WriteString(f.Name)
			sb.WriteString(" = ")
			sb.WriteString(formatFloat(f.Value))
			sb.WriteString("\n")
		}
		md.Details("Feature scores", sb.String())
		md.PlainText("")
	}
}

// writeFailures lists URLs that could not be scored.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, failures []model.Failure) {
	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(failures))
	for i, f := range failures {
		rows[i] = []string{"`" + truncateString(f.URL, 60) + "`", truncateString(f.Error, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [phishscan](https://github.com/nao1215/phishscan)*")
}

func labelText(l model.Label) string {
	if l == model.LabelMalicious {
		return "🔴 malicious"
	}
	return "🟢 benign"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
