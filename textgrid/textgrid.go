// Package textgrid draws a datatable page as text, for terminals and logs.
// The layout follows the grid widget: toolbar, header, body or empty
// state, then the caption and page controls.
package textgrid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"sociogrid/datatable"
)

var (
	mutedColor  = lipgloss.Color("#9CA3AF")
	accentColor = lipgloss.Color("#A78BFA")
	borderColor = lipgloss.Color("#6B7280")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	disabledStyle = lipgloss.NewStyle().Foreground(mutedColor).Strikethrough(true)
	emptyStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(1, 2).
			Align(lipgloss.Center)
)

// Options controls rendering.
type Options struct {
	Messages datatable.Messages

	// MaxCellWidth truncates cell text. Zero keeps it whole.
	MaxCellWidth int

	// ShowSelection adds a leading column marking selected rows.
	ShowSelection bool
}

// DefaultOptions returns Spanish messages and 32-column cells.
func DefaultOptions() Options {
	return Options{Messages: datatable.DefaultMessages(), MaxCellWidth: 32}
}

// Render draws the current page of t.
func Render[R any](t *datatable.Table[R], opts Options) string {
	m := opts.Messages
	model := t.RowModel()
	cols := t.VisibleColumns()

	var b strings.Builder
	b.WriteString(toolbar(t, m))
	b.WriteString("\n")

	if model.Empty() {
		b.WriteString(emptyStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			lipgloss.NewStyle().Bold(true).Render(m.EmptyTitle),
			mutedStyle.Render(m.EmptyDescription),
		)))
	} else {
		b.WriteString(body(t, model, cols, opts))
	}
	b.WriteString("\n")
	b.WriteString(footer(t, m))
	b.WriteString("\n")
	return b.String()
}

func toolbar[R any](t *datatable.Table[R], m datatable.Messages) string {
	size := t.Pagination().PageSize
	sizes := make([]string, 0, len(t.PageSizes()))
	for _, s := range t.PageSizes() {
		label := strconv.Itoa(s)
		if s == size {
			label = "[" + label + "]"
		}
		sizes = append(sizes, label)
	}

	var hidden []string
	for _, c := range t.HideableColumns() {
		if !t.IsColumnVisible(c.ID) {
			hidden = append(hidden, c.Title())
		}
	}
	columns := m.Columns
	if len(hidden) > 0 {
		columns += " (-" + strings.Join(hidden, ", -") + ")"
	}

	return fmt.Sprintf("%s: %s   %s", m.ResultsPerPage, strings.Join(sizes, " "), mutedStyle.Render(columns))
}

func body[R any](t *datatable.Table[R], model datatable.RowModel[R], cols []datatable.Column[R], opts Options) string {
	headers := make([]string, 0, len(cols)+1)
	if opts.ShowSelection {
		headers = append(headers, checkbox(t.IsAllPageRowsSelected()))
	}
	for _, c := range cols {
		headers = append(headers, c.Title()+sortMarker(t.SortDirection(c.ID)))
	}

	rows := make([][]string, 0, len(model.Rows))
	for _, r := range model.Rows {
		cells := t.VisibleCells(r)
		line := make([]string, 0, len(cells)+1)
		if opts.ShowSelection {
			line = append(line, checkbox(t.IsRowSelected(r.ID)))
		}
		for _, c := range cells {
			line = append(line, clip(c.Text, opts.MaxCellWidth))
		}
		rows = append(rows, line)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

func footer[R any](t *datatable.Table[R], m datatable.Messages) string {
	prev, next := "< "+m.Previous, m.Next+" >"
	if !t.CanPreviousPage() {
		prev = disabledStyle.Render(prev)
	}
	if !t.CanNextPage() {
		next = disabledStyle.Render(next)
	}
	return fmt.Sprintf("%s   %s | %s", t.Caption(m), prev, next)
}

func sortMarker(d datatable.SortDirection) string {
	switch d {
	case datatable.SortAscending:
		return " ↑"
	case datatable.SortDescending:
		return " ↓"
	}
	return ""
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func clip(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
