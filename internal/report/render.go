package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kmerdiff/internal/model"
)

// Format selects the table syntax.
type Format string

const (
	// FormatLaTeX is a LaTeX table environment ready to paste into a document.
	FormatLaTeX Format = "latex"
	// FormatText is an aligned plain-text table.
	FormatText Format = "text"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatLaTeX, FormatText:
		return f, nil
	case "":
		return FormatLaTeX, nil
	}
	return "", fmt.Errorf("unknown format %q (want latex or text)", s)
}

// Options controls Render.
type Options struct {
	Treatment  string
	Alphabet   string
	Format     Format
	DateLayout string
	// Color styles the text table header; ignored for LaTeX.
	Color bool
}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))

// Header returns the column headings shared by every format.
func Header() []string {
	fields := []string{"model", "sample", "run", "training events", "trained kmers"}
	for _, cut := range model.Thresholds {
		fields = append(fields, ThresholdLabel(cut))
	}
	return fields
}

// ThresholdLabel formats a deviation threshold for a column heading.
func ThresholdLabel(cut float64) string {
	return strconv.FormatFloat(cut, 'f', 1, 64)
}

// Caption describes the table contents.
func Caption(treatment, alphabet string) []string {
	labels := make([]string, len(model.Thresholds))
	for i, cut := range model.Thresholds {
		labels[i] = ThresholdLabel(cut)
	}
	dna := DisplayTreatment(treatment) + "-treated DNA"
	if strings.EqualFold(treatment, "none") {
		dna = "untreated DNA"
	}
	return []string{
		fmt.Sprintf("Model training results for %s over the %s alphabet.", dna, alphabet),
		fmt.Sprintf("The final five fields are the number of k-mers where the mean of the trained Gaussian differs from the reference mean by at least %s pA.",
			strings.Join(labels, "/")),
	}
}

// Cells returns the display fields of a row after the model column.
func Cells(row model.Row) []string {
	cells := []string{
		DisplaySample(row.Sample) + " (" + DisplayTreatment(row.Treatment) + ")",
		strings.ToUpper(row.Pore) + " " + row.Lab + " " + row.Date,
		DisplayNumber(row.TotalEvents),
		strconv.Itoa(row.TrainedKmers),
	}
	for _, n := range row.DeviationCounts {
		cells = append(cells, strconv.Itoa(n))
	}
	return cells
}

// Render writes the table for the rows matching opts.Treatment and
// opts.Alphabet. No matching rows yields a table with headers only.
func Render(w io.Writer, rows []model.Row, opts Options) error {
	groups, err := Select(rows, opts.Treatment, opts.Alphabet, opts.DateLayout)
	if err != nil {
		return err
	}
	switch opts.Format {
	case FormatText:
		return renderText(w, groups, opts)
	case FormatLaTeX, "":
		return renderLaTeX(w, groups, opts)
	}
	return fmt.Errorf("unknown format %q", opts.Format)
}

func renderLaTeX(w io.Writer, groups []Group, opts Options) error {
	header := Header()
	columns := "|" + strings.Repeat("c|", len(header))

	var b strings.Builder
	b.WriteString(`\begin{table}[h]` + "\n")
	b.WriteString(`\begin{adjustbox}{center}` + "\n")
	b.WriteString(`\begin{tabular}{` + columns + "}\n")
	b.WriteString(`\hline` + "\n")
	b.WriteString(strings.Join(header, " & ") + `\\` + "\n")
	for _, g := range groups {
		b.WriteString(`\hline` + "\n")
		for i, row := range g.Rows {
			modelCell := ""
			if i == 0 {
				modelCell = fmt.Sprintf(`\multirow{%d}{*}{%s}`, len(g.Rows), escapeLaTeX(g.Family.DisplayName()))
			}
			fields := []string{modelCell}
			for _, cell := range Cells(row) {
				fields = append(fields, escapeLaTeX(cell))
			}
			b.WriteString(strings.Join(fields, " & ") + `\\` + "\n")
		}
		b.WriteString(`\hline` + "\n")
	}
	b.WriteString(`\end{tabular}` + "\n")
	b.WriteString(`\end{adjustbox}` + "\n")
	caption := Caption(opts.Treatment, opts.Alphabet)
	for i := range caption {
		caption[i] = escapeLaTeX(caption[i])
	}
	b.WriteString(`\caption{` + strings.Join(caption, "\n") + "}\n")
	b.WriteString(`\end{table}` + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// renderText writes the column header, then one heading line per group
// with its row count followed by the group's rows.
func renderText(w io.Writer, groups []Group, opts Options) error {
	header := Header()[1:]
	var tableRows [][]string
	for _, g := range groups {
		for _, row := range g.Rows {
			tableRows = append(tableRows, Cells(row))
		}
	}
	rightAlign := map[int]bool{}
	for i := 2; i < len(header); i++ {
		rightAlign[i] = true
	}
	formatted := formatTable(header, tableRows, rightAlign)
	if opts.Color && len(formatted) > 0 {
		formatted[0] = headerStyle.Render(formatted[0])
	}

	lines := []string{formatted[0]}
	next := 1
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("%s (%d)", g.Family.DisplayName(), len(g.Rows)))
		lines = append(lines, formatted[next:next+len(g.Rows)]...)
		next += len(g.Rows)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	for _, line := range Caption(opts.Treatment, opts.Alphabet) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
