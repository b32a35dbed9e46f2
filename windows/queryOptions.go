package windows

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	delta_sharing "github.com/magpierre/go_delta_sharing_client"

	"sociogrid/remote"
)

// QueryOptions holds how a shared table is opened.
type QueryOptions struct {
	FileID   string
	PageSize int
}

// QueryOptionsDialog lets the user pick the data file and page size of a
// shared table.
type QueryOptionsDialog struct {
	dialog    dialog.Dialog
	window    fyne.Window
	files     []string
	pageSizes []int
	fileSel   *widget.Select
	sizeSel   *widget.Select
	callback  func(*QueryOptions)
}

// NewQueryOptionsDialog builds the dialog. The first file and defaultSize
// are preselected.
func NewQueryOptionsDialog(w fyne.Window, table delta_sharing.Table, files []string, pageSizes []int, defaultSize int, callback func(*QueryOptions)) *QueryOptionsDialog {
	qod := &QueryOptionsDialog{
		window:    w,
		files:     files,
		pageSizes: pageSizes,
		callback:  callback,
	}

	qod.fileSel = widget.NewSelect(files, nil)
	if len(files) > 0 {
		qod.fileSel.SetSelectedIndex(0)
	}

	sizes := make([]string, len(pageSizes))
	for i, s := range pageSizes {
		sizes[i] = strconv.Itoa(s)
	}
	qod.sizeSel = widget.NewSelect(sizes, nil)
	qod.sizeSel.SetSelected(strconv.Itoa(defaultSize))
	if qod.sizeSel.Selected == "" && len(sizes) > 0 {
		qod.sizeSel.SetSelectedIndex(0)
	}

	title := widget.NewLabel(fmt.Sprintf("%s.%s.%s", table.Share, table.Schema, table.Name))
	title.TextStyle = fyne.TextStyle{Bold: true}
	form := widget.NewForm(
		widget.NewFormItem("Data file", qod.fileSel),
		widget.NewFormItem("Rows per page", qod.sizeSel),
	)

	qod.dialog = dialog.NewCustomConfirm("Open shared table", "Load Data", "Cancel",
		container.NewVBox(title, form),
		func(confirmed bool) {
			if confirmed {
				qod.handleConfirm()
			}
		}, w)
	qod.dialog.Resize(fyne.NewSize(500, 250))
	return qod
}

// Options returns the current choice.
func (qod *QueryOptionsDialog) Options() (*QueryOptions, error) {
	if qod.fileSel.Selected == "" {
		return nil, fmt.Errorf("please select a data file")
	}
	size, err := strconv.Atoi(qod.sizeSel.Selected)
	if err != nil || size <= 0 {
		return nil, fmt.Errorf("invalid page size: %q", qod.sizeSel.Selected)
	}
	return &QueryOptions{FileID: qod.fileSel.Selected, PageSize: size}, nil
}

func (qod *QueryOptionsDialog) handleConfirm() {
	opts, err := qod.Options()
	if err != nil {
		dialog.ShowError(err, qod.window)
		return
	}
	if qod.callback != nil {
		qod.callback(opts)
	}
}

func (qod *QueryOptionsDialog) Show() {
	qod.dialog.Show()
}

// ShowQueryOptionsDialog lists the table's files in the background and
// then asks for the options.
func ShowQueryOptionsDialog(w fyne.Window, profile string, table delta_sharing.Table, timeout time.Duration,
	pageSizes []int, defaultSize int, callback func(*QueryOptions)) {

	progressBar := widget.NewProgressBarInfinite()
	progressDialog := dialog.NewCustomWithoutButtons("Listing files", progressBar, w)
	progressDialog.Resize(fyne.NewSize(300, 100))
	progressDialog.Show()

	go func() {
		ctx, cancel := createTimeoutContext(timeout)
		defer cancel()
		files, err := remote.TableFiles(ctx, profile, table)
		if err == nil && len(files) == 0 {
			err = remote.ErrNoFiles
		}

		fyne.Do(func() {
			progressBar.Stop()
			progressDialog.Hide()
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			NewQueryOptionsDialog(w, table, files, pageSizes, defaultSize, callback).Show()
		})
	}()
}
