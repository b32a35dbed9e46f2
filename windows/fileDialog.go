package windows

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

var profileExtensions = []string{".share", ".json", ".txt"}

// ProfileDialog browses the file system for a Delta Sharing profile.
type ProfileDialog struct {
	dialog      dialog.Dialog
	window      fyne.Window
	callback    func(path, content string, err error)
	fileList    *widget.List
	entries     []profileEntry
	homeDir     string
	currentPath string
	pathLabel   *widget.Label
}

type profileEntry struct {
	name string
	dir  bool
}

// NewProfileDialog starts in startDir, or the home directory when empty.
func NewProfileDialog(w fyne.Window, startDir string, callback func(path, content string, err error)) *ProfileDialog {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	if startDir == "" {
		startDir = homeDir
	}
	return &ProfileDialog{window: w, callback: callback, homeDir: homeDir, currentPath: startDir}
}

// profileCandidates lists visible sub-directories, then profile-like files,
// each sorted by name.
func profileCandidates(dir string) ([]profileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs, files []profileEntry
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasPrefix(name, "."):
		case e.IsDir():
			dirs = append(dirs, profileEntry{name: name, dir: true})
		case hasProfileExtension(name):
			files = append(files, profileEntry{name: name})
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].name < dirs[j].name })
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return append(dirs, files...), nil
}

func hasProfileExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range profileExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (pd *ProfileDialog) Show() {
	pd.pathLabel = widget.NewLabel(pd.currentPath)
	pd.pathLabel.Truncation = fyne.TextTruncateEllipsis
	pd.pathLabel.TextStyle = fyne.TextStyle{Bold: true}

	pd.fileList = widget.NewList(
		func() int { return len(pd.entries) },
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewIcon(theme.DocumentIcon()), widget.NewLabel("template"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			box := obj.(*fyne.Container)
			entry := pd.entries[id]
			icon := theme.DocumentIcon()
			if entry.dir {
				icon = theme.FolderIcon()
			}
			box.Objects[0].(*widget.Icon).SetResource(icon)
			box.Objects[1].(*widget.Label).SetText(entry.name)
		},
	)
	pd.fileList.OnSelected = pd.selected

	homeButton := widget.NewButtonWithIcon("Home", theme.HomeIcon(), func() { pd.navigate(pd.homeDir) })
	upButton := widget.NewButtonWithIcon("Up", theme.NavigateBackIcon(), func() {
		if parent := filepath.Dir(pd.currentPath); parent != pd.currentPath {
			pd.navigate(parent)
		}
	})
	refreshButton := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), pd.loadDirectory)

	navToolbar := container.NewBorder(nil, nil,
		container.NewHBox(homeButton, upButton, refreshButton), nil, pd.pathLabel)
	filterInfo := widget.NewLabel("Showing: " + strings.Join(profileExtensions, ", ") + " files and directories")
	filterInfo.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewBorder(
		container.NewVBox(navToolbar, widget.NewSeparator(), filterInfo),
		nil, nil, nil,
		pd.fileList,
	)

	pd.dialog = dialog.NewCustom("Select Delta Sharing Profile", "Close", content, pd.window)
	pd.dialog.Resize(fyne.NewSize(800, 600))
	pd.loadDirectory()
	pd.dialog.Show()
}

func (pd *ProfileDialog) selected(id widget.ListItemID) {
	entry := pd.entries[id]
	fullPath := filepath.Join(pd.currentPath, entry.name)
	if entry.dir {
		pd.navigate(fullPath)
		return
	}
	content, err := os.ReadFile(fullPath)
	pd.dialog.Hide()
	pd.callback(fullPath, string(content), err)
}

func (pd *ProfileDialog) navigate(dir string) {
	pd.currentPath = dir
	pd.loadDirectory()
	pd.fileList.UnselectAll()
}

func (pd *ProfileDialog) loadDirectory() {
	entries, err := profileCandidates(pd.currentPath)
	if err != nil {
		dialog.ShowError(err, pd.window)
		return
	}
	pd.entries = entries
	pd.pathLabel.SetText(pd.currentPath)
	pd.fileList.Refresh()
}
