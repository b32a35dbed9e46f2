package windows

import (
	"fmt"
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"sociogrid/script"
)

const filterPlaceholder = `// A boolean expression over row, column and query, e.g.
//   strings.Contains(fmt.Sprint(row["ciudad"]), query)
// or a complete file declaring
//   package filter
//   func Match(row map[string]any, column string, query string) bool`

// GoEditor edits and compiles a Go filter script.
type GoEditor struct {
	w          fyne.Window
	codeEditor *widget.Entry
	queryEntry *widget.Entry
	outputText *widget.RichText
	compileBtn *widget.Button
	preview    *ScriptPreview
	tabs       *container.AppTabs
	container  *fyne.Container

	compiled *script.Filter
}

// NewGoEditor creates an editor, prefilled with the source of current when
// it is set.
func NewGoEditor(w fyne.Window, current *script.Filter) *GoEditor {
	ge := &GoEditor{w: w}
	ge.createUI()
	if current != nil {
		ge.codeEditor.SetText(current.Source())
		ge.compiled = current
	}
	return ge
}

func (ge *GoEditor) createUI() {
	ge.codeEditor = widget.NewMultiLineEntry()
	ge.codeEditor.SetPlaceHolder(filterPlaceholder)
	ge.codeEditor.Wrapping = fyne.TextWrapOff
	ge.codeEditor.SetMinRowsVisible(10)
	ge.codeEditor.OnChanged = func(string) { ge.compiled = nil }

	ge.queryEntry = widget.NewEntry()
	ge.queryEntry.SetText("*")

	ge.outputText = widget.NewRichText()
	ge.outputText.Wrapping = fyne.TextWrapWord
	ge.setOutput("Compile the script to check it.", false)

	ge.compileBtn = widget.NewButtonWithIcon("Compile", theme.MediaPlayIcon(), func() { ge.compile(nil) })
	openBtn := widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), ge.loadCode)
	saveBtn := widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), ge.saveCode)

	ge.preview = NewScriptPreview()
	previewTab := container.NewTabItem("Preview", container.NewScroll(ge.preview))
	ge.tabs = container.NewAppTabs(
		container.NewTabItem("Code", container.NewScroll(ge.codeEditor)),
		previewTab,
	)
	ge.tabs.OnSelected = func(ti *container.TabItem) {
		if ti == previewTab && ge.preview.src != ge.codeEditor.Text {
			ge.preview.SetText(ge.codeEditor.Text)
		}
	}

	queryRow := container.NewBorder(nil, nil, widget.NewLabel("Query:"), nil, ge.queryEntry)
	ge.container = container.NewBorder(
		container.NewHBox(ge.compileBtn, openBtn, saveBtn),
		container.NewVBox(queryRow, widget.NewSeparator(), ge.outputText),
		nil, nil,
		ge.tabs,
	)
}

// GetContainer returns the editor layout.
func (ge *GoEditor) GetContainer() *fyne.Container {
	return ge.container
}

// SetCode replaces the script source.
func (ge *GoEditor) SetCode(code string) {
	ge.codeEditor.SetText(code)
}

// Query is the text handed to the script as its query argument.
func (ge *GoEditor) Query() string {
	return ge.queryEntry.Text
}

// compile interprets the script off the UI goroutine and then runs done
// with the result.
func (ge *GoEditor) compile(done func(*script.Filter)) {
	code := ge.codeEditor.Text
	if code == "" {
		ge.setOutput("Error: No code to compile", true)
		return
	}
	if ge.compiled != nil && ge.compiled.Source() == code {
		if done != nil {
			done(ge.compiled)
		}
		return
	}

	ge.compileBtn.Disable()
	ge.setOutput("Compiling...", false)
	go func() {
		f, err := script.Compile(code)
		fyne.Do(func() {
			ge.compileBtn.Enable()
			ge.preview.SetText(code)
			if err != nil {
				ge.setOutput(err.Error(), true)
				if line := script.ErrorLine(code, err); line > 0 {
					ge.preview.SetErrorLine(line)
					ge.tabs.SelectIndex(1)
				}
				return
			}
			ge.compiled = f
			ge.setOutput("Compiled.", false)
			if done != nil {
				done(f)
			}
		})
	}()
}

func (ge *GoEditor) setOutput(text string, bold bool) {
	ge.outputText.Segments = []widget.RichTextSegment{&widget.TextSegment{
		Text: text,
		Style: widget.RichTextStyle{
			TextStyle: fyne.TextStyle{Bold: bold},
			ColorName: theme.ColorNameForeground,
		},
	}}
	ge.outputText.Refresh()
}

func (ge *GoEditor) saveCode() {
	code := ge.codeEditor.Text
	if code == "" {
		dialog.ShowInformation("Nothing to Save", "The editor is empty.", ge.w)
		return
	}

	saveDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, ge.w)
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()
		if _, err := writer.Write([]byte(code)); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save file: %w", err), ge.w)
			return
		}
		ge.setOutput(fmt.Sprintf("Saved to %s (%d bytes)", writer.URI().Name(), len(code)), false)
	}, ge.w)

	saveDialog.SetFileName("filter.go")
	saveDialog.SetFilter(storage.NewExtensionFileFilter([]string{".go"}))
	saveDialog.Show()
}

func (ge *GoEditor) loadCode() {
	openDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, ge.w)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()
		content, err := io.ReadAll(reader)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read file: %w", err), ge.w)
			return
		}
		ge.codeEditor.SetText(string(content))
		ge.setOutput(fmt.Sprintf("Loaded %s (%d bytes)", reader.URI().Name(), len(content)), false)
	}, ge.w)

	openDialog.SetFilter(storage.NewExtensionFileFilter([]string{".go"}))
	openDialog.Show()
}

// ShowFilterEditor opens the script editor. onApply receives the compiled
// filter and the query, or a nil filter when the script is removed.
func ShowFilterEditor(w fyne.Window, current *script.Filter, onApply func(*script.Filter, string)) {
	ge := NewGoEditor(w, current)

	var d *dialog.CustomDialog
	apply := widget.NewButtonWithIcon("Apply", theme.ConfirmIcon(), func() {
		ge.compile(func(f *script.Filter) {
			d.Hide()
			query := ge.Query()
			if query == "" {
				query = "*"
			}
			onApply(f, query)
		})
	})
	apply.Importance = widget.HighImportance
	remove := widget.NewButtonWithIcon("Remove script", theme.DeleteIcon(), func() {
		d.Hide()
		onApply(nil, "")
	})
	cancel := widget.NewButton("Cancel", func() { d.Hide() })

	d = dialog.NewCustomWithoutButtons("Filter script", ge.GetContainer(), w)
	d.SetButtons([]fyne.CanvasObject{cancel, remove, apply})
	d.Resize(fyne.NewSize(700, 500))
	d.Show()
}
