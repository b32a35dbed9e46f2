package widget

import (
	"fmt"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sociogrid/datatable"
)

type socio struct {
	Num   int
	Name  string
	Email string
}

func newGrid(t *testing.T, n int, cfg Config) *DataGrid[socio] {
	t.Helper()
	return newGridWithOptions(t, n, cfg, datatable.Options[socio]{})
}

func newGridWithOptions(t *testing.T, n int, cfg Config, opts datatable.Options[socio]) *DataGrid[socio] {
	t.Helper()
	test.NewTempApp(t)

	data := make([]socio, n)
	for i := range data {
		data[i] = socio{Num: i + 1, Name: fmt.Sprintf("Socio %02d", i+1), Email: fmt.Sprintf("s%d@club.es", i+1)}
	}
	num := datatable.NewColumn[socio]("num", "Nº", func(s socio) any { return s.Num })
	num.Caps = datatable.CapSort | datatable.CapFilter
	cols := []datatable.Column[socio]{
		num,
		datatable.NewColumn[socio]("name", "Nombre", func(s socio) any { return s.Name }),
		datatable.NewColumn[socio]("email", "Email", func(s socio) any { return s.Email }),
	}
	tbl, err := datatable.NewTable(cols, data, opts)
	require.NoError(t, err)

	g := NewDataGrid(tbl, cfg)
	w := test.NewTempWindow(t, g)
	w.Resize(fyne.NewSize(800, 600))
	return g
}

func TestDataGridPaging(t *testing.T) {
	g := newGrid(t, 12, DefaultConfig())

	assert.Equal(t, "1-10 de 12 resultados.", g.caption.Text)
	assert.True(t, g.prev.Disabled())
	assert.False(t, g.next.Disabled())
	assert.Equal(t, "10", g.pageSize.Selected)
	rows, cols := g.size()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 3, cols)

	test.Tap(g.next)
	assert.Equal(t, "11-12 de 12 resultados.", g.caption.Text)
	assert.False(t, g.prev.Disabled())
	assert.True(t, g.next.Disabled())

	test.Tap(g.next)
	assert.Equal(t, 1, g.Table().Pagination().PageIndex)

	test.Tap(g.prev)
	assert.Equal(t, "1-10 de 12 resultados.", g.caption.Text)
}

func TestDataGridPageSizeSelector(t *testing.T) {
	g := newGrid(t, 12, DefaultConfig())
	assert.Equal(t, []string{"10", "20", "50", "75"}, g.pageSize.Options)

	g.pageSize.SetSelected("20")
	assert.Equal(t, 20, g.Table().Pagination().PageSize)
	assert.Equal(t, "1-12 de 12 resultados.", g.caption.Text)
	assert.True(t, g.next.Disabled())
}

func TestDataGridEmptyState(t *testing.T) {
	cfg := DefaultConfig()
	tapped := false
	cfg.EmptyActionLabel = "Limpiar filtros"
	cfg.OnEmptyAction = func() { tapped = true }
	g := newGrid(t, 12, cfg)

	assert.False(t, g.empty.Visible())
	g.Table().SetGlobalFilter("nadie")

	assert.True(t, g.empty.Visible())
	assert.False(t, g.body.Visible())
	assert.Equal(t, "No hay resultados.", g.caption.Text)
	assert.True(t, g.prev.Disabled())
	assert.True(t, g.next.Disabled())

	var action *widget.Button
	walk(g.empty, func(o fyne.CanvasObject) {
		if b, ok := o.(*widget.Button); ok && b.Text == "Limpiar filtros" {
			action = b
		}
	})
	require.NotNil(t, action)
	test.Tap(action)
	assert.True(t, tapped)

	g.Table().SetGlobalFilter("")
	assert.False(t, g.empty.Visible())
	assert.True(t, g.body.Visible())
}

func walk(o fyne.CanvasObject, fn func(fyne.CanvasObject)) {
	fn(o)
	if c, ok := o.(*fyne.Container); ok {
		for _, child := range c.Objects {
			walk(child, fn)
		}
	}
}

func TestDataGridColumnMenu(t *testing.T) {
	g := newGrid(t, 3, DefaultConfig())

	menu := g.columnMenu()
	require.Len(t, menu.Items, 2, "Nº cannot be hidden")
	assert.Equal(t, "Nombre", menu.Items[0].Label)
	assert.True(t, menu.Items[0].Checked)

	menu.Items[1].Action()
	assert.False(t, g.Table().IsColumnVisible("email"))
	_, cols := g.size()
	assert.Equal(t, 2, cols)
	assert.False(t, g.columnMenu().Items[1].Checked)

	g.columnMenu().Items[1].Action()
	_, cols = g.size()
	assert.Equal(t, 3, cols)
}

func TestDataGridHeaderSorts(t *testing.T) {
	g := newGrid(t, 3, DefaultConfig())

	header := g.createHeader()
	g.updateHeader(widget.TableCellID{Row: -1, Col: 0}, header)
	b := header.(*fyne.Container).Objects[0].(*widget.Button)
	assert.Equal(t, "Nº", b.Text)

	test.Tap(b)
	assert.Equal(t, datatable.SortAscending, g.Table().SortDirection("num"))
	test.Tap(b)
	assert.Equal(t, datatable.SortDescending, g.Table().SortDirection("num"))

	cell := g.createCell()
	g.updateCell(widget.TableCellID{Row: 0, Col: 1}, cell)
	assert.Equal(t, "Socio 03", cell.(*fyne.Container).Objects[0].(*widget.Label).Text)
}

func TestDataGridSelection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Selectable = true
	g := newGrid(t, 3, cfg)

	_, cols := g.size()
	assert.Equal(t, 4, cols)

	cell := g.createCell()
	g.updateCell(widget.TableCellID{Row: 1, Col: 0}, cell)
	check := cell.(*fyne.Container).Objects[1].(*widget.Check)
	assert.False(t, check.Checked)

	check.SetChecked(true)
	assert.True(t, g.Table().IsRowSelected("1"))

	header := g.createHeader()
	g.updateHeader(widget.TableCellID{Row: -1, Col: 0}, header)
	all := header.(*fyne.Container).Objects[1].(*widget.Check)
	all.SetChecked(true)
	assert.True(t, g.Table().IsAllPageRowsSelected())
	assert.Len(t, g.Table().SelectedRows(), 3)
}

func TestDataGridUnbind(t *testing.T) {
	g := newGrid(t, 12, DefaultConfig())
	synced := 0
	g.OnSync(func() { synced++ })

	g.Table().NextPage()
	assert.Equal(t, 1, synced)

	g.Unbind()
	g.Table().PreviousPage()
	assert.Equal(t, 1, synced)
	assert.Equal(t, "11-12 de 12 resultados.", g.caption.Text)
}

func TestDataGridExternalPagination(t *testing.T) {
	external := datatable.Pagination{PageIndex: 0, PageSize: 10}
	var requests []datatable.Pagination
	g := newGridWithOptions(t, 25, DefaultConfig(), datatable.Options[socio]{
		Pagination:         &external,
		OnPaginationChange: func(p datatable.Pagination) { requests = append(requests, p) },
	})
	recomputes := g.Table().Recomputations()

	test.Tap(g.next)
	require.Len(t, requests, 1)
	assert.Equal(t, datatable.Pagination{PageIndex: 1, PageSize: 10}, requests[0])
	assert.Equal(t, recomputes, g.Table().Recomputations())
	assert.Equal(t, "1-10 de 25 resultados.", g.caption.Text)

	g.pageSize.SetSelected("20")
	require.Len(t, requests, 2)
	assert.Equal(t, datatable.Pagination{PageIndex: 0, PageSize: 20}, requests[1])
	assert.Equal(t, "10", g.pageSize.Selected)
	assert.Equal(t, 10, g.Table().Pagination().PageSize)

	external = requests[1]
	opts := g.Table().Options()
	require.NoError(t, g.Table().SetOptions(opts))
	assert.Equal(t, "20", g.pageSize.Selected)
	assert.Equal(t, "1-20 de 25 resultados.", g.caption.Text)
}

func TestDataGridZeroConfigUsesDefaultMessages(t *testing.T) {
	g := newGrid(t, 0, Config{})

	m := datatable.DefaultMessages()
	assert.Equal(t, m.NoResults, g.caption.Text)
	assert.Equal(t, m.Previous, g.prev.Text)
	assert.Equal(t, m.Columns, g.columns.Text)
}
