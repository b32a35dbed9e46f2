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

package windows

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
	delta_sharing "github.com/magpierre/go_delta_sharing_client"

	"sociogrid/datatable"
	"sociogrid/internal/config"
	"sociogrid/internal/logging"
	"sociogrid/remote"
	"sociogrid/script"
	sgwidget "sociogrid/widget"
)

// Data holds one open grid tab.
type Data struct {
	name   string
	source datatable.DataSource
	table  *datatable.Table[datatable.Record]
	grid   *sgwidget.DataGrid[datatable.Record]
	search *widget.Entry
	script *script.Filter
	pager  *remote.Pager
	tab    *container.TabItem

	release func()
}

// Table returns the grid's table, nil while a remote tab waits for its
// first page.
func (d *Data) Table() *datatable.Table[datatable.Record] { return d.table }

// DataBrowser manages the grid tabs of the main window.
type DataBrowser struct {
	w              fyne.Window
	cfg            *config.Config
	log            *logging.Logger
	docTabs        *container.DocTabs
	tabDataMap     map[*container.TabItem]*Data
	statusCallback func(string)
}

// NewDataBrowser attaches a browser to docTabs.
func NewDataBrowser(w fyne.Window, docTabs *container.DocTabs, cfg *config.Config, log *logging.Logger, statusCallback func(string)) *DataBrowser {
	t := &DataBrowser{
		w:              w,
		cfg:            cfg,
		log:            log.WithComponent("browser"),
		docTabs:        docTabs,
		tabDataMap:     make(map[*container.TabItem]*Data),
		statusCallback: statusCallback,
	}

	docTabs.CloseIntercept = func(ti *container.TabItem) {
		t.closeTab(ti)
		if sel := docTabs.Selected(); sel != nil {
			t.updateStatusForTab(sel)
		} else {
			t.setStatus("Ready")
		}
	}
	docTabs.OnSelected = t.updateStatusForTab
	return t
}

func (t *DataBrowser) setStatus(s string) {
	if t.statusCallback != nil {
		t.statusCallback(s)
	}
}

// tableOptions returns the options every grid starts with.
func (t *DataBrowser) tableOptions(ids []string) datatable.Options[datatable.Record] {
	return datatable.Options[datatable.Record]{
		PageSizes:      t.cfg.Grid.PageSizes,
		GlobalFilterFn: QueryFilter[datatable.Record](NewQueryParser(ids), ids),
		Logger:         t.log.Slog(),
	}
}

func (t *DataBrowser) gridConfig() sgwidget.Config {
	cfg := sgwidget.DefaultConfig()
	cfg.Messages = t.cfg.Grid.Messages()
	cfg.Selectable = true
	return cfg
}

// OpenSource shows every row of ds in a new tab. release runs when the tab
// closes.
func (t *DataBrowser) OpenSource(name string, ds datatable.DataSource, release func()) error {
	cols, err := datatable.SourceColumns(ds)
	if err != nil {
		return err
	}
	records, err := datatable.SourceRecords(ds)
	if err != nil {
		return err
	}
	tbl, err := datatable.NewTable(cols, records, t.tableOptions(script.ColumnIDs(cols)))
	if err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}
	if size := t.cfg.Grid.DefaultPageSize; size > 0 {
		tbl.SetPageSize(size)
	}

	d := &Data{name: name, source: ds, table: tbl, release: release}
	d.grid = sgwidget.NewDataGrid(tbl, t.gridConfig())
	t.addTab(d)
	t.log.Info("table opened", "name", name, "rows", len(records), "columns", len(cols))
	return nil
}

// OpenRemote pages through a shared table. The tab shows a progress bar
// until the first page arrives.
func (t *DataBrowser) OpenRemote(profile string, table delta_sharing.Table, fileID string, pageSize int) {
	src := remote.NewDeltaSource(profile, table, fileID)
	if pageSize <= 0 {
		pageSize = t.cfg.Remote.PageSize
	}
	pager := remote.NewPager(src, remote.Config{
		Initial:  datatable.Pagination{PageIndex: 0, PageSize: pageSize},
		Timeout:  t.cfg.Remote.APITimeout(),
		Schedule: fyne.Do,
		Options: datatable.Options[datatable.Record]{
			PageSizes: t.cfg.Grid.PageSizes,
			Logger:    t.log.Slog(),
		},
		Logger: t.log.With("table", table.Name).Slog(),
	})

	name := fmt.Sprintf("%s.%s.%s", table.Share, table.Schema, table.Name)
	d := &Data{name: name, pager: pager, release: func() {
		pager.Close()
		src.Release()
	}}

	progress := widget.NewProgressBarInfinite()
	d.tab = container.NewTabItemWithIcon(name, theme.StorageIcon(),
		container.NewCenter(container.NewVBox(widget.NewLabel("Loading "+name+"..."), progress)))
	t.tabDataMap[d.tab] = d
	t.docTabs.Append(d.tab)
	t.docTabs.Select(d.tab)

	pager.OnPage(func(page remote.Page) {
		if d.table == nil {
			progress.Stop()
			d.table = pager.Table()
			ids := page.Names
			if err := pager.SetGlobalFilterFn(QueryFilter[datatable.Record](NewQueryParser(ids), ids)); err != nil {
				t.log.Warn("search unavailable", "err", err)
			}
			d.source = page
			d.grid = sgwidget.NewDataGrid(d.table, t.gridConfig())
			d.grid.OnSync(func() {
				if t.docTabs.Selected() == d.tab {
					t.updateStatusForTab(d.tab)
				}
			})
			d.tab.Content = t.tabContent(d)
			t.docTabs.Refresh()
		}
		d.source = page
		if t.docTabs.Selected() == d.tab {
			t.updateStatusForTab(d.tab)
		}
	})
	pager.OnError(func(err error) {
		t.log.Error("remote page failed", "table", name, "err", err)
		if d.table == nil {
			progress.Stop()
		}
		dialog.ShowError(err, t.w)
		t.setStatus("Error: " + err.Error())
	})
	pager.Start()
}

func (t *DataBrowser) addTab(d *Data) {
	d.tab = container.NewTabItemWithIcon(d.name, theme.GridIcon(), t.tabContent(d))
	t.tabDataMap[d.tab] = d
	d.grid.OnSync(func() {
		if t.docTabs.Selected() == d.tab {
			t.updateStatusForTab(d.tab)
		}
	})
	t.docTabs.Append(d.tab)
	t.docTabs.Select(d.tab)
	t.updateStatusForTab(d.tab)
}

// tabContent lays out the search bar above the grid.
func (t *DataBrowser) tabContent(d *Data) fyne.CanvasObject {
	d.search = widget.NewEntry()
	d.search.SetPlaceHolder("Buscar... (ciudad = Madrid AND cuota >= 20)")
	d.search.OnChanged = func(s string) {
		d.table.SetGlobalFilter(strings.TrimSpace(s))
	}

	scriptBtn := widget.NewButtonWithIcon("Script", theme.DocumentCreateIcon(), func() {
		ShowFilterEditor(t.w, d.script, func(f *script.Filter, query string) {
			t.applyScript(d, f, query)
		})
	})

	exportMenu := fyne.NewMenu("",
		fyne.NewMenuItem("Export CSV", func() { t.exportData(d, FormatCSV, false) }),
		fyne.NewMenuItem("Export JSON", func() { t.exportData(d, FormatJSON, false) }),
		fyne.NewMenuItem("Export Parquet", func() { t.exportData(d, FormatParquet, false) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export selected rows (CSV)", func() { t.exportData(d, FormatCSV, true) }),
	)
	var exportBtn *widget.Button
	exportBtn = widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), func() {
		pos := fyne.CurrentApp().Driver().AbsolutePositionForObject(exportBtn)
		widget.ShowPopUpMenuAtPosition(exportMenu, t.w.Canvas(), pos.Add(fyne.NewPos(0, exportBtn.Size().Height)))
	})

	clearBtn := widget.NewButtonWithIcon("", theme.ContentClearIcon(), func() {
		d.search.SetText("")
		d.table.ResetRowSelection()
	})

	bar := container.NewBorder(nil, nil, widget.NewIcon(theme.SearchIcon()),
		container.NewHBox(scriptBtn, exportBtn, clearBtn), d.search)
	return container.NewBorder(bar, nil, nil, nil, d.grid)
}

// applyScript installs a compiled filter as the tab's global filter. A nil
// filter goes back to the search box syntax.
func (t *DataBrowser) applyScript(d *Data, f *script.Filter, query string) {
	if d.table == nil {
		return
	}
	ids := script.ColumnIDs(d.table.AllColumns())
	fn := QueryFilter[datatable.Record](NewQueryParser(ids), ids)
	if f != nil {
		fn = script.GlobalFilter[datatable.Record](f, ids)
	}
	d.script = f

	var err error
	if d.pager != nil {
		err = d.pager.SetGlobalFilterFn(fn)
	} else {
		opts := d.table.Options()
		opts.GlobalFilterFn = fn
		err = d.table.SetOptions(opts)
	}
	if err != nil {
		dialog.ShowError(err, t.w)
		return
	}

	d.search.SetText(query)
	d.table.Refresh()
	if f != nil {
		t.log.Info("script filter applied", "table", d.name, "query", query)
		if serr := f.Err(); serr != nil {
			t.setStatus("Script error: " + serr.Error())
		}
	}
}

// updateStatusForTab updates the status bar with information about the given tab.
func (t *DataBrowser) updateStatusForTab(ti *container.TabItem) {
	if ti == nil {
		return
	}
	if d, ok := t.tabDataMap[ti]; ok && d.table != nil {
		t.setStatus(statusText(d.name, d.table))
	}
}

// statusText summarises a grid: rows and columns shown out of the total,
// the sort and the selection.
func statusText(name string, tbl *datatable.Table[datatable.Record]) string {
	model := tbl.RowModel()
	totalRows := len(tbl.Data())
	if tbl.Options().ManualPagination {
		totalRows = tbl.Total()
	}
	totalCols := len(tbl.AllColumns())
	visibleCols := len(tbl.VisibleColumns())

	var sb strings.Builder
	if model.Total != totalRows || visibleCols != totalCols {
		fmt.Fprintf(&sb, "Table %s (showing %d/%d columns x %s/%s rows)", name,
			visibleCols, totalCols, humanize.Comma(int64(model.Total)), humanize.Comma(int64(totalRows)))
	} else {
		fmt.Fprintf(&sb, "Table %s (%d columns x %s rows)", name, totalCols, humanize.Comma(int64(totalRows)))
	}

	for i, s := range tbl.Sorting() {
		if i == 0 {
			sb.WriteString(" | Sorted:")
		}
		c, _ := tbl.Column(s.ColumnID)
		arrow := "↑"
		if s.Direction == datatable.SortDescending {
			arrow = "↓"
		}
		fmt.Fprintf(&sb, " %s %s", c.Title(), arrow)
	}
	if n := len(tbl.SelectedRows()); n > 0 {
		fmt.Fprintf(&sb, " | %d selected", n)
	}
	return sb.String()
}

// Current returns the data of the selected tab.
func (t *DataBrowser) Current() *Data {
	return t.tabDataMap[t.docTabs.Selected()]
}

func (t *DataBrowser) closeTab(ti *container.TabItem) {
	if d, ok := t.tabDataMap[ti]; ok {
		if d.grid != nil {
			d.grid.Unbind()
		}
		if d.release != nil {
			d.release()
		}
		delete(t.tabDataMap, ti)
		t.log.Debug("tab closed", "name", d.name)
	}
	t.docTabs.Remove(ti)
}

// CloseAll closes every grid tab and frees its data.
func (t *DataBrowser) CloseAll() {
	for ti := range t.tabDataMap {
		t.closeTab(ti)
	}
}

// exportData asks for a target file and writes the tab's filtered rows.
func (t *DataBrowser) exportData(d *Data, format ExportFormat, selectedOnly bool) {
	if d.table == nil {
		return
	}
	saveDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.w)
			return
		}
		if writer == nil {
			return
		}
		filePath := writer.URI().Path()
		writer.Close()

		tbl, err := ExportRows(d.table, d.source, selectedOnly)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to prepare data: %w", err), t.w)
			return
		}

		progress := widget.NewProgressBarInfinite()
		progressDialog := dialog.NewCustomWithoutButtons("Exporting...", progress, t.w)
		progressDialog.Resize(fyne.NewSize(300, 100))
		progressDialog.Show()

		go func() {
			defer tbl.Release()
			var exportErr error
			switch format {
			case FormatCSV:
				exportErr = ExportToCSV(tbl, filePath)
			case FormatJSON:
				exportErr = ExportToJSON(tbl, filePath)
			default:
				exportErr = ExportToParquet(tbl, filePath)
			}
			rows := tbl.NumRows()

			fyne.Do(func() {
				progress.Stop()
				progressDialog.Hide()
				if exportErr != nil {
					t.log.Error("export failed", "path", filePath, "err", exportErr)
					dialog.ShowError(fmt.Errorf("export failed: %w", exportErr), t.w)
					return
				}
				t.log.Info("exported", "path", filePath, "rows", rows, "format", format.String())
				dialog.ShowInformation("Export Successful",
					fmt.Sprintf("%s rows exported to:\n%s", humanize.Comma(rows), filePath), t.w)
			})
		}()
	}, t.w)

	saveDialog.SetFileName(cleanFilename(d.name) + format.Extension())
	saveDialog.Show()
}
