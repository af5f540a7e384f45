// Package console renders rlconvert's terminal output: prompts, titles,
// summary tables and the per-artifact progress bar.
package console

import (
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	errorRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "9", Dark: "9"}).
			Bold(true).
			PaddingLeft(1).PaddingRight(1)
	doneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// DisableColor renders everything in plain ASCII from now on.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Title renders a section title.
func Title(s string) string { return titleStyle.Render(s) }

// Done renders a success line.
func Done(s string) string { return doneStyle.Render(s) }

// Error renders a failure line.
func Error(s string) string { return errorStyle.Render(s) }

// table is a lipgloss table with alternating row shades where individual
// rows can be flagged as errors.
type table struct {
	t      *lgtable.Table
	count  int
	errors map[int]bool
}

func newTable(alignments ...lipgloss.Position) *table {
	t := &table{errors: make(map[int]bool)}
	t.t = lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			switch {
			case row < 0:
				return headerRowStyle
			case t.errors[row]:
				s = errorRowStyle
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			return s.Align(alignment)
		})
	return t
}

func (t *table) headers(h ...string) { t.t.Headers(h...) }

func (t *table) row(isError bool, cells ...string) {
	if isError {
		t.errors[t.count] = true
	}
	t.t.Row(cells...)
	t.count++
}

func (t *table) String() string { return t.t.Render() }
