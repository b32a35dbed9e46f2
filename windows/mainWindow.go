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
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"sociogrid/internal/config"
	"sociogrid/internal/logging"
)

// MainWindow is the application shell: a toolbar, the remote catalog on
// the left, grid tabs in the middle and a status bar.
type MainWindow struct {
	a           fyne.App
	w           fyne.Window
	cfg         *config.Config
	log         *logging.Logger
	left        *fyne.Container
	docTabs     *container.DocTabs
	dataBrowser *DataBrowser
	navTree     *NavigationTree
	tree        *widget.Tree
	statusBar   *widget.Label
}

// CreateMainWindow builds the main window of a.
func CreateMainWindow(a fyne.App, cfg *config.Config, log *logging.Logger) *MainWindow {
	t := &MainWindow{a: a, cfg: cfg, log: log.WithComponent("ui")}
	t.build()
	return t
}

func (t *MainWindow) build() {
	t.w = t.a.NewWindow("Sociogrid")
	t.w.Resize(fyne.NewSize(1100, 700))

	t.statusBar = widget.NewLabel("Ready")
	t.statusBar.TextStyle = fyne.TextStyle{Italic: true}
	t.statusBar.Truncation = fyne.TextTruncateEllipsis

	t.docTabs = container.NewDocTabs()
	t.dataBrowser = NewDataBrowser(t.w, t.docTabs, t.cfg, t.log, t.SetStatus)

	t.navTree = NewNavigationTree(t.cfg.Remote.APITimeout())
	t.tree = t.navTree.NewTreeWidget(t.openTable)
	t.left = container.NewBorder(widget.NewLabelWithStyle("Shares", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		nil, nil, nil, t.tree)
	t.left.Hide()

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.MenuIcon(), func() {
			if t.left.Visible() {
				t.left.Hide()
			} else {
				t.left.Show()
			}
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.FolderOpenIcon(), t.OpenDataFileDialog),
		widget.NewToolbarAction(theme.StorageIcon(), t.OpenProfile),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.HelpIcon(), t.showHelp),
	)

	split := container.NewHSplit(t.left, t.docTabs)
	split.SetOffset(0.22)

	t.w.SetContent(container.NewBorder(toolbar, t.statusBar, nil, nil, split))
	t.w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		for _, u := range uris {
			t.LoadDataFile(u.Path())
		}
	})
	t.w.SetOnClosed(t.dataBrowser.CloseAll)
}

// Window returns the top-level window.
func (t *MainWindow) Window() fyne.Window { return t.w }

// Browser returns the grid tabs.
func (t *MainWindow) Browser() *DataBrowser { return t.dataBrowser }

// ShowAndRun shows the window and runs the application loop.
func (t *MainWindow) ShowAndRun() {
	t.w.ShowAndRun()
}

// SetStatus updates the status bar message
func (t *MainWindow) SetStatus(message string) {
	if t.statusBar != nil {
		t.statusBar.SetText(message)
	}
}

// OpenDataFileDialog asks for a data file or profile to open.
func (t *MainWindow) OpenDataFileDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.w)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		t.LoadDataFile(path)
	}, t.w)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".tsv", ".parquet", ".json", ".share", ".txt"}))
	d.Resize(fyne.NewSize(800, 600))
	d.Show()
}

// LoadDataFile reads a file in the background and opens it in a new tab.
// A Delta Sharing profile loads its catalog instead.
func (t *MainWindow) LoadDataFile(filePath string) {
	t.SetStatus("Loading " + filepath.Base(filePath) + "...")
	go func() {
		lf, err := OpenDataFile(filePath, t.cfg.CSV)
		if err != nil {
			var content []byte
			if DetectFileType(filePath, "") == FileTypeJSON {
				content, _ = os.ReadFile(filePath)
			}
			if isDeltaSharingProfile(string(content)) {
				fyne.Do(func() { t.LoadProfile(string(content)) })
				return
			}
			t.log.Error("load failed", "path", filePath, "err", err)
			fyne.Do(func() {
				t.SetStatus("Error loading file: " + err.Error())
				dialog.ShowError(err, t.w)
			})
			return
		}
		fyne.Do(func() {
			if err := t.dataBrowser.OpenSource(lf.Name(), lf.Source, lf.Release); err != nil {
				lf.Release()
				dialog.ShowError(err, t.w)
				return
			}
			t.log.Info("file loaded", "path", filePath, "type", lf.Type.String())
			t.SetStatus(lf.Summary)
		})
	}()
}

// OpenProfile picks a profile file and loads its catalog.
func (t *MainWindow) OpenProfile() {
	startDir := ""
	if p := t.cfg.Remote.ProfilePath; p != "" {
		startDir = filepath.Dir(p)
	}
	NewProfileDialog(t.w, startDir, func(path, content string, err error) {
		if err != nil {
			t.SetStatus("Error opening profile")
			dialog.ShowError(err, t.w)
			return
		}
		t.log.Info("profile selected", "path", path)
		t.LoadProfile(content)
	}).Show()
}

// LoadProfile lists the shared tables of profile into the catalog tree.
func (t *MainWindow) LoadProfile(profile string) {
	if profile == "" {
		return
	}
	t.SetStatus("Loading profile...")
	go func() {
		err := t.navTree.LoadShares(profile)
		fyne.Do(func() {
			if err != nil {
				t.log.Error("profile load failed", "err", err)
				t.SetStatus("Error listing shares")
				dialog.ShowError(err, t.w)
				return
			}
			t.tree.Refresh()
			t.left.Show()
			t.SetStatus("Profile loaded successfully")
		})
	}()
}

func (t *MainWindow) openTable(node *TreeNode) {
	profile := t.navTree.Profile()
	ShowQueryOptionsDialog(t.w, profile, node.Table, t.cfg.Remote.APITimeout(),
		t.cfg.Grid.PageSizes, t.cfg.Remote.PageSize,
		func(opts *QueryOptions) {
			t.SetStatus("Loading " + node.Name + "...")
			t.dataBrowser.OpenRemote(profile, node.Table, opts.FileID, opts.PageSize)
		})
	t.tree.UnselectAll()
}

func (t *MainWindow) showHelp() {
	help := widget.NewRichTextFromMarkdown(`**Search**

* ` + "`ciudad = Madrid AND cuota >= 20`" + `
* operators: = != > < >= <= ~ (contains)
* a bare word searches every column

**Script** filters take a Go expression over ` + "`row`, `column` and `query`" + `.`)
	help.Wrapping = fyne.TextWrapWord
	dialog.ShowCustom("Help", "Close", help, t.w)
}
