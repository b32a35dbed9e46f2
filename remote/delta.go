package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	delta_sharing "github.com/magpierre/go_delta_sharing_client"

	"sociogrid/datatable"
)

// ErrNoFiles is returned when a shared table lists no data files.
var ErrNoFiles = errors.New("remote: table has no data files")

// DeltaSource serves pages of one Delta Sharing table file. The file is
// downloaded on the first fetch and then paged locally.
type DeltaSource struct {
	profile string
	table   delta_sharing.Table
	fileID  string

	mu     sync.Mutex
	loaded *ArrowSource
}

// NewDeltaSource reads table with the credentials in profile, the JSON
// content of a Delta Sharing profile file. An empty fileID picks the first
// file the server lists.
func NewDeltaSource(profile string, table delta_sharing.Table, fileID string) *DeltaSource {
	return &DeltaSource{profile: profile, table: table, fileID: fileID}
}

// Table returns the shared table being served.
func (d *DeltaSource) Table() delta_sharing.Table { return d.table }

// FetchPage implements PageSource.
func (d *DeltaSource) FetchPage(ctx context.Context, p datatable.Pagination) (Page, error) {
	src, err := d.load(ctx)
	if err != nil {
		return Page{}, err
	}
	return src.FetchPage(ctx, p)
}

func (d *DeltaSource) load(ctx context.Context) (*ArrowSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded != nil {
		return d.loaded, nil
	}

	client, err := delta_sharing.NewSharingClientV2FromString(d.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create Delta Sharing client: %w", err)
	}

	files, err := ListFiles(ctx, client, d.table)
	if err != nil {
		return nil, err
	}
	fileID, err := pickFile(files, d.fileID)
	if err != nil {
		return nil, err
	}

	tbl, err := delta_sharing.LoadArrowTable(ctx, client, d.table, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", d.table.Name, err)
	}
	defer tbl.Release()

	src, err := NewArrowSource(tbl)
	if err != nil {
		return nil, err
	}
	d.fileID = fileID
	d.loaded = src
	return src, nil
}

// Release drops the downloaded table.
func (d *DeltaSource) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded != nil {
		d.loaded.Release()
		d.loaded = nil
	}
}

func pickFile(files []string, want string) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}
	if want == "" {
		return files[0], nil
	}
	for _, id := range files {
		if id == want {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: file %q not listed", ErrNoFiles, want)
}

// ListFiles returns the IDs of the data files of a shared table.
func ListFiles(ctx context.Context, client delta_sharing.SharingClientV2, table delta_sharing.Table) ([]string, error) {
	resp, err := client.ListFilesInTable(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %s: %w", table.Name, err)
	}
	ids := make([]string, 0, len(resp.AddFiles))
	for _, f := range resp.AddFiles {
		ids = append(ids, f.Id)
	}
	return ids, nil
}

// ListTables returns every table the profile can read, across all shares.
func ListTables(ctx context.Context, profile string) ([]delta_sharing.Table, error) {
	client, err := delta_sharing.NewSharingClientV2FromString(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create Delta Sharing client: %w", err)
	}
	tables, _, err := client.ListAllTables_V2(ctx, 0, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list all tables: %w", err)
	}
	return tables, nil
}

// TableFiles lists the data file IDs of a shared table using the
// credentials in profile.
func TableFiles(ctx context.Context, profile string, table delta_sharing.Table) ([]string, error) {
	client, err := delta_sharing.NewSharingClientV2FromString(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create Delta Sharing client: %w", err)
	}
	return ListFiles(ctx, client, table)
}
