package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	tableMaxWidth = 160
	tableColGap   = 2

	fgDefault          = "250"
	bgStripe1          = "233"
	bgStripe2          = "232"
	fgActive           = "233"
	bgActive           = "250"
	bgPaused           = "236"
	fgPriorityCritical = "160"
	fgPriorityHigh     = "166"
	fgPriorityLow      = "245"
	fgActiveCritical   = "124"
	fgActiveHigh       = "130"
	fgActiveLow        = "238"
	fgNote             = "240"
	fgContext          = "3"
)

// RowStyle holds the colours applied to one table row. Empty fields fall
// back to the table defaults, with the background alternating per row.
type RowStyle struct {
	Fg string
	Bg string
}

// Table renders rows of fixed-width columns, shrinking the widest column
// until everything fits the terminal.
type Table struct {
	header []string
	rows   [][]string
	styles []RowStyle
	width  int
}

func NewTable(width int, header ...string) *Table {
	if width > tableMaxWidth {
		width = tableMaxWidth
	}
	return &Table{header: header, width: width}
}

func (t *Table) AddRow(style RowStyle, cells ...string) {
	if len(cells) != len(t.header) {
		panic(fmt.Sprintf("row has %d cells, header has %d", len(cells), len(t.header)))
	}
	t.rows = append(t.rows, cells)
	t.styles = append(t.styles, style)
}

func (t *Table) Empty() bool { return len(t.rows) == 0 }

func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.header))
	for j, cell := range t.header {
		widths[j] = runewidth.StringWidth(cell)
	}
	for _, row := range t.rows {
		for j, cell := range row {
			if cw := runewidth.StringWidth(firstLine(cell)); cw > widths[j] {
				widths[j] = cw
			}
		}
	}

	budget := t.width - tableColGap*(len(t.header)-1)
	if budget < 0 {
		budget = 0
	}
	for sum(widths) > budget {
		widest := 0
		for j := range widths {
			if widths[j] > widths[widest] {
				widest = j
			}
		}
		if widths[widest] == 0 {
			break
		}
		widths[widest]--
	}

	gap := strings.Repeat(" ", tableColGap)

	headerStyle := lipgloss.NewStyle().
		Underline(true).
		Foreground(lipgloss.Color(fgDefault)).
		Background(lipgloss.Color(bgStripe2))
	fmt.Fprintln(w, headerStyle.Render(joinFixed(t.header, widths, gap)))

	for i, row := range t.rows {
		st := t.styles[i]
		if st.Fg == "" {
			st.Fg = fgDefault
		}
		if st.Bg == "" {
			if i%2 == 0 {
				st.Bg = bgStripe1
			} else {
				st.Bg = bgStripe2
			}
		}
		rowStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(st.Fg)).
			Background(lipgloss.Color(st.Bg))
		fmt.Fprintln(w, rowStyle.Render(joinFixed(row, widths, gap)))
	}
}

func joinFixed(cells []string, widths []int, gap string) string {
	fixed := make([]string, len(cells))
	for j, cell := range cells {
		fixed[j] = fixStr(cell, widths[j])
	}
	return strings.Join(fixed, gap)
}

// fixStr pads or truncates text to exactly width display cells. Only the
// first line of multi-line text is shown.
func fixStr(text string, width int) string {
	text = firstLine(text)
	cw := runewidth.StringWidth(text)
	if cw <= width {
		return text + strings.Repeat(" ", width-cw)
	}
	out := runewidth.Truncate(text, width, "…")
	if cw := runewidth.StringWidth(out); cw < width {
		out += strings.Repeat(" ", width-cw)
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func sum(ns []int) int {
	total := 0
	for _, n := range ns {
		total += n
	}
	return total
}
