// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package widget provides DataGrid, a Fyne widget presenting a
// datatable.Table: page-size selector, column menu, sortable header, body
// or empty state, results caption and previous/next buttons.
package widget

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"sociogrid/datatable"
)

// Config controls a DataGrid.
type Config struct {
	Messages datatable.Messages

	// EmptyIcon is shown above the empty-state title.
	EmptyIcon fyne.Resource

	// EmptyActionLabel and OnEmptyAction add a button to the empty state.
	EmptyActionLabel string
	OnEmptyAction    func()

	// Selectable adds a leading checkbox column.
	Selectable bool

	// ColumnWidth is the initial width of data columns.
	ColumnWidth float32
}

// DefaultConfig returns Spanish messages and a search icon.
func DefaultConfig() Config {
	return Config{
		Messages:    datatable.DefaultMessages(),
		EmptyIcon:   theme.SearchIcon(),
		ColumnWidth: 140,
	}
}

// DataGrid shows one page of a datatable.Table. All state lives in the
// table; the widget only forwards user actions and redraws on every new
// row model.
type DataGrid[R any] struct {
	widget.BaseWidget

	table  *datatable.Table[R]
	cfg    Config
	model  datatable.RowModel[R]
	cols   []datatable.Column[R]
	unsub  func()
	onSync func()

	pageSize *widget.Select
	columns  *widget.Button
	body     *widget.Table
	empty    *fyne.Container
	caption  *widget.Label
	prev     *widget.Button
	next     *widget.Button
	content  *fyne.Container
}

// NewDataGrid builds a grid over t and subscribes to its row models.
func NewDataGrid[R any](t *datatable.Table[R], cfg Config) *DataGrid[R] {
	if cfg.ColumnWidth <= 0 {
		cfg.ColumnWidth = DefaultConfig().ColumnWidth
	}
	if cfg.Messages == (datatable.Messages{}) {
		cfg.Messages = datatable.DefaultMessages()
	}
	g := &DataGrid[R]{table: t, cfg: cfg}
	g.ExtendBaseWidget(g)
	g.build()
	g.unsub = t.Subscribe(func(datatable.RowModel[R]) { g.sync() })
	g.sync()
	return g
}

func (g *DataGrid[R]) build() {
	m := g.cfg.Messages

	options := make([]string, 0, len(g.table.PageSizes()))
	for _, s := range g.table.PageSizes() {
		options = append(options, strconv.Itoa(s))
	}
	g.pageSize = widget.NewSelect(options, func(s string) {
		if n, err := strconv.Atoi(s); err == nil && n != g.table.Pagination().PageSize {
			g.table.SetPageSize(n)
			// A caller owning pagination may not have accepted the size yet.
			if cur := strconv.Itoa(g.table.Pagination().PageSize); cur != s {
				g.pageSize.SetSelected(cur)
			}
		}
	})

	g.columns = widget.NewButtonWithIcon(m.Columns, theme.ListIcon(), g.showColumnMenu)

	g.body = widget.NewTable(g.size, g.createCell, g.updateCell)
	g.body.ShowHeaderRow = true
	g.body.CreateHeader = g.createHeader
	g.body.UpdateHeader = g.updateHeader

	title := widget.NewLabelWithStyle(m.EmptyTitle, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	desc := widget.NewLabelWithStyle(m.EmptyDescription, fyne.TextAlignCenter, fyne.TextStyle{})
	desc.Wrapping = fyne.TextWrapWord
	parts := []fyne.CanvasObject{}
	if g.cfg.EmptyIcon != nil {
		parts = append(parts, widget.NewIcon(g.cfg.EmptyIcon))
	}
	parts = append(parts, title, desc)
	if g.cfg.OnEmptyAction != nil {
		parts = append(parts, container.NewCenter(widget.NewButton(g.cfg.EmptyActionLabel, g.cfg.OnEmptyAction)))
	}
	g.empty = container.NewCenter(container.NewVBox(parts...))

	g.caption = widget.NewLabel("")
	g.prev = widget.NewButtonWithIcon(m.Previous, theme.NavigateBackIcon(), g.table.PreviousPage)
	g.next = widget.NewButtonWithIcon(m.Next, theme.NavigateNextIcon(), g.table.NextPage)
	g.next.IconPlacement = widget.ButtonIconTrailingText

	toolbar := container.NewHBox(widget.NewLabel(m.ResultsPerPage), g.pageSize, layout.NewSpacer(), g.columns)
	footer := container.NewBorder(nil, nil, g.caption, container.NewHBox(g.prev, g.next))
	g.content = container.NewBorder(toolbar, footer, nil, nil, container.NewStack(g.body, g.empty))
}

// CreateRenderer implements fyne.Widget.
func (g *DataGrid[R]) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(g.content)
}

// Table returns the table shown by the grid.
func (g *DataGrid[R]) Table() *datatable.Table[R] { return g.table }

// OnSync registers fn to run after the grid redrew for a new row model.
func (g *DataGrid[R]) OnSync(fn func()) { g.onSync = fn }

// Unbind stops following the table.
func (g *DataGrid[R]) Unbind() {
	if g.unsub != nil {
		g.unsub()
		g.unsub = nil
	}
}

// sync copies the table state into the child widgets.
func (g *DataGrid[R]) sync() {
	g.model = g.table.RowModel()
	g.cols = g.table.VisibleColumns()

	size := strconv.Itoa(g.table.Pagination().PageSize)
	if g.pageSize.Selected != size {
		g.pageSize.SetSelected(size)
	}
	if len(g.table.HideableColumns()) == 0 {
		g.columns.Hide()
	} else {
		g.columns.Show()
	}

	g.caption.SetText(g.table.Caption(g.cfg.Messages))
	setEnabled(g.prev, g.table.CanPreviousPage())
	setEnabled(g.next, g.table.CanNextPage())

	if g.model.Empty() {
		g.body.Hide()
		g.empty.Show()
	} else {
		g.empty.Hide()
		g.body.Show()
		for i := range g.cols {
			g.body.SetColumnWidth(i+g.offset(), g.cfg.ColumnWidth)
		}
		if g.cfg.Selectable {
			g.body.SetColumnWidth(0, 48)
		}
		g.body.Refresh()
	}
	g.Refresh()

	if g.onSync != nil {
		g.onSync()
	}
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (g *DataGrid[R]) offset() int {
	if g.cfg.Selectable {
		return 1
	}
	return 0
}

func (g *DataGrid[R]) size() (int, int) {
	return len(g.model.Rows), len(g.cols) + g.offset()
}

func (g *DataGrid[R]) createCell() fyne.CanvasObject {
	label := widget.NewLabel("")
	label.Truncation = fyne.TextTruncateEllipsis
	return container.NewStack(label, widget.NewCheck("", nil))
}

func (g *DataGrid[R]) updateCell(id widget.TableCellID, obj fyne.CanvasObject) {
	stack := obj.(*fyne.Container)
	label := stack.Objects[0].(*widget.Label)
	check := stack.Objects[1].(*widget.Check)
	if id.Row < 0 || id.Row >= len(g.model.Rows) {
		return
	}
	row := g.model.Rows[id.Row]

	if g.cfg.Selectable && id.Col == 0 {
		label.Hide()
		check.OnChanged = nil
		check.SetChecked(g.table.IsRowSelected(row.ID))
		rowID := row.ID
		check.OnChanged = func(on bool) { g.table.ToggleRowSelected(rowID, on) }
		check.Show()
		return
	}

	check.Hide()
	c := id.Col - g.offset()
	if c < 0 || c >= len(g.cols) {
		return
	}
	label.SetText(row.Text(g.cols[c].ID))
	label.Show()
}

func (g *DataGrid[R]) createHeader() fyne.CanvasObject {
	b := widget.NewButton("", nil)
	b.Importance = widget.LowImportance
	b.Alignment = widget.ButtonAlignLeading
	return container.NewStack(b, widget.NewCheck("", nil))
}

func (g *DataGrid[R]) updateHeader(id widget.TableCellID, obj fyne.CanvasObject) {
	stack := obj.(*fyne.Container)
	b := stack.Objects[0].(*widget.Button)
	check := stack.Objects[1].(*widget.Check)

	if g.cfg.Selectable && id.Col == 0 {
		b.Hide()
		check.OnChanged = nil
		check.SetChecked(g.table.IsAllPageRowsSelected())
		check.OnChanged = func(on bool) { g.table.ToggleAllPageRowsSelected(on) }
		check.Show()
		return
	}

	check.Hide()
	c := id.Col - g.offset()
	if c < 0 || c >= len(g.cols) {
		return
	}
	col := g.cols[c]
	b.SetText(col.Title())
	b.SetIcon(sortIcon(g.table.SortDirection(col.ID)))
	if col.CanSort() {
		colID := col.ID
		b.OnTapped = func() { g.table.ToggleSorting(colID, false) }
	} else {
		b.OnTapped = nil
	}
	b.Show()
}

func sortIcon(d datatable.SortDirection) fyne.Resource {
	switch d {
	case datatable.SortAscending:
		return theme.MoveUpIcon()
	case datatable.SortDescending:
		return theme.MoveDownIcon()
	}
	return nil
}

// columnMenu lists the hideable columns with their visibility.
func (g *DataGrid[R]) columnMenu() *fyne.Menu {
	hideable := g.table.HideableColumns()
	items := make([]*fyne.MenuItem, 0, len(hideable))
	for _, c := range hideable {
		id := c.ID
		item := fyne.NewMenuItem(c.Title(), func() {
			g.table.ToggleColumnVisibility(id, !g.table.IsColumnVisible(id))
		})
		item.Checked = g.table.IsColumnVisible(id)
		items = append(items, item)
	}
	return fyne.NewMenu(g.cfg.Messages.Columns, items...)
}

func (g *DataGrid[R]) showColumnMenu() {
	c := fyne.CurrentApp().Driver().CanvasForObject(g.columns)
	if c == nil {
		return
	}
	pos := fyne.CurrentApp().Driver().AbsolutePositionForObject(g.columns)
	widget.ShowPopUpMenuAtPosition(g.columnMenu(), c, pos.AddXY(0, g.columns.Size().Height))
}
