package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// Report colours.
const (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
)

// documentIndent matches the four-space indentation of the sample
// documents in the analysis report.
const documentIndent = "    "

// reportStyles holds the styles of one output stream. Colours are dropped
// when the stream is not a terminal.
type reportStyles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
}

func newReportStyles(w io.Writer) reportStyles {
	r := lipgloss.NewRenderer(w)
	return reportStyles{
		title:   r.NewStyle().Bold(true).Foreground(colourPrimary),
		muted:   r.NewStyle().Foreground(colourMuted),
		success: r.NewStyle().Foreground(colourSuccess),
	}
}

// reporter prints battery results for humans.
type reporter struct {
	w      io.Writer
	styles reportStyles
}

func newReporter(w io.Writer) *reporter {
	return &reporter{w: w, styles: newReportStyles(w)}
}

// Result prints one query result under its title.
func (r *reporter) Result(res domain.QueryResult) error {
	var b strings.Builder
	b.WriteString(r.styles.title.Render(res.Title + ":"))
	b.WriteString(" ")
	b.WriteString(r.styles.muted.Render("[" + res.Name + "]"))
	b.WriteString("\n")

	switch res.Kind {
	case domain.ResultStats:
		fmt.Fprintf(&b, "%d\n", res.Stats.SizeBytes)
		b.WriteString(r.styles.muted.Render(fmt.Sprintf("%d documents in %q", res.Stats.Documents, res.Stats.Name)))
		b.WriteString("\n")
	case domain.ResultCount:
		fmt.Fprintf(&b, "%d\n", res.Count)
	case domain.ResultDocument:
		b.WriteString(formatDocument(res.Document))
	case domain.ResultValues:
		values, err := json.Marshal(res.Values)
		if err != nil {
			return fmt.Errorf("format %s: %w", res.Name, err)
		}
		if res.Values == nil {
			values = []byte("[]")
		}
		b.Write(values)
		b.WriteString("\n")
		b.WriteString(r.styles.muted.Render(fmt.Sprintf("%d distinct", len(res.Values))))
		b.WriteString("\n")
	case domain.ResultRows:
		for _, row := range res.Rows {
			b.Write(row)
			b.WriteString("\n")
		}
		if len(res.Rows) == 0 {
			b.WriteString(r.styles.muted.Render("(no rows)"))
			b.WriteString("\n")
		}
	case domain.ResultModified:
		b.WriteString(r.styles.success.Render(fmt.Sprintf("%d documents modified", res.Count)))
		b.WriteString("\n")
		if res.Document != nil {
			b.WriteString(formatDocument(res.Document))
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}

// formatDocument indents a document, or reports its absence.
func formatDocument(doc json.RawMessage) string {
	if doc == nil {
		return "None\n"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", documentIndent); err != nil {
		return string(doc) + "\n"
	}
	buf.WriteByte('\n')
	return buf.String()
}

// jsonResult is the machine-readable form of a query result.
type jsonResult struct {
	Name     string            `json:"name"`
	Title    string            `json:"title"`
	Kind     string            `json:"kind"`
	Count    *int64            `json:"count,omitempty"`
	Stats    *jsonStats        `json:"stats,omitempty"`
	Document json.RawMessage   `json:"document,omitempty"`
	Values   []any             `json:"values,omitempty"`
	Rows     []json.RawMessage `json:"rows,omitempty"`
}

type jsonStats struct {
	Collection string `json:"collection"`
	Documents  int64  `json:"documents"`
	SizeBytes  int64  `json:"size_bytes"`
}

// writeJSONResult prints one result as a single JSON line.
func writeJSONResult(w io.Writer, res domain.QueryResult) error {
	out := jsonResult{
		Name:     res.Name,
		Title:    res.Title,
		Kind:     res.Kind.String(),
		Document: res.Document,
	}
	switch res.Kind {
	case domain.ResultStats:
		out.Stats = &jsonStats{
			Collection: res.Stats.Name,
			Documents:  res.Stats.Documents,
			SizeBytes:  res.Stats.SizeBytes,
		}
	case domain.ResultValues:
		out.Values = res.Values
	case domain.ResultRows:
		out.Rows = res.Rows
	}
	if res.Kind != domain.ResultStats {
		n := res.Count
		out.Count = &n
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", res.Name, err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
