package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"sociogrid/datatable"
	"sociogrid/script"
	"sociogrid/windows"
)

// gridFlags are the table state options shared by print and export.
type gridFlags struct {
	sort    []string
	filter  []string
	search  string
	hide    []string
	script  string
	query   string
	rowIDs  []string
	pageSz  int
	pageNum int
}

func (f *gridFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.sort, "sort", nil, "sort by column, e.g. cuota:desc (repeatable, first wins)")
	cmd.Flags().StringArrayVar(&f.filter, "filter", nil, "column filter, e.g. ciudad=madrid (repeatable)")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "global search, e.g. \"cuota >= 20 AND ciudad = Madrid\"")
	cmd.Flags().StringSliceVar(&f.hide, "hide", nil, "hide columns")
	cmd.Flags().StringVar(&f.script, "script", "", "Go file with a Match filter function")
	cmd.Flags().StringVar(&f.query, "query", "*", "query passed to the script filter")
	cmd.Flags().StringSliceVar(&f.rowIDs, "select", nil, "select rows by id (row position)")
}

// parseSort reads "col" or "col:asc|desc" entries.
func parseSort(specs []string) ([]datatable.ColumnSort, error) {
	var out []datatable.ColumnSort
	for _, s := range specs {
		id, dir, _ := strings.Cut(s, ":")
		cs := datatable.ColumnSort{ColumnID: strings.TrimSpace(id), Direction: datatable.SortAscending}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			cs.Direction = datatable.SortDescending
		default:
			return nil, fmt.Errorf("invalid sort direction %q for column %s", dir, id)
		}
		if cs.ColumnID == "" {
			return nil, fmt.Errorf("invalid sort %q", s)
		}
		out = append(out, cs)
	}
	return out, nil
}

// parseFilters reads "col=value" entries.
func parseFilters(specs []string) (datatable.ColumnFilters, error) {
	out := datatable.ColumnFilters{}
	for _, s := range specs {
		id, value, ok := strings.Cut(s, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: %q, want column=value", datatable.ErrInvalidFilter, s)
		}
		out[id] = value
	}
	return out, nil
}

// openGrid loads path and applies the flags to a new table.
func (e *env) openGrid(path string, f *gridFlags) (*datatable.Table[datatable.Record], *windows.LoadedFile, error) {
	lf, err := windows.OpenDataFile(path, e.cfg.CSV)
	if err != nil {
		return nil, nil, err
	}
	tbl, err := e.newGrid(lf.Source, f)
	if err != nil {
		lf.Release()
		return nil, nil, err
	}
	e.log.Debug("grid ready", "path", path, "rows", tbl.RowModel().Total)
	return tbl, lf, nil
}

func (e *env) newGrid(ds datatable.DataSource, f *gridFlags) (*datatable.Table[datatable.Record], error) {
	cols, err := datatable.SourceColumns(ds)
	if err != nil {
		return nil, err
	}
	ids := script.ColumnIDs(cols)

	sorting, err := parseSort(f.sort)
	if err != nil {
		return nil, err
	}
	filters, err := parseFilters(f.filter)
	if err != nil {
		return nil, err
	}
	for _, s := range sorting {
		if !slices.Contains(ids, s.ColumnID) {
			return nil, fmt.Errorf("%w: %s", datatable.ErrColumnNotFound, s.ColumnID)
		}
	}
	for id := range filters {
		if !slices.Contains(ids, id) {
			return nil, fmt.Errorf("%w: %s", datatable.ErrColumnNotFound, id)
		}
	}

	fn := windows.QueryFilter[datatable.Record](windows.NewQueryParser(ids), ids)
	search := f.search
	if f.script != "" {
		src, err := os.ReadFile(f.script)
		if err != nil {
			return nil, err
		}
		filter, err := script.Compile(string(src))
		if err != nil {
			return nil, err
		}
		fn = script.GlobalFilter[datatable.Record](filter, ids)
		search = f.query
	}

	sizes := slices.Clone(e.cfg.Grid.PageSizes)
	if f.pageSz > 0 && !slices.Contains(sizes, f.pageSz) {
		sizes = append(sizes, f.pageSz)
		slices.Sort(sizes)
	}
	visibility := datatable.Visibility{}
	for _, id := range f.hide {
		visibility[id] = false
	}

	records, err := datatable.SourceRecords(ds)
	if err != nil {
		return nil, err
	}
	tbl, err := datatable.NewTable(cols, records, datatable.Options[datatable.Record]{
		PageSizes:         sizes,
		GlobalFilterFn:    fn,
		InitialSorting:    sorting,
		InitialVisibility: visibility,
		Logger:            e.log.Slog(),
	})
	if err != nil {
		return nil, err
	}

	tbl.SetColumnFilters(filters)
	tbl.SetGlobalFilter(search)
	for _, id := range f.rowIDs {
		tbl.ToggleRowSelected(id, true)
	}
	if f.pageSz > 0 {
		tbl.SetPageSize(f.pageSz)
	}
	if f.pageNum > 1 {
		if f.pageNum > tbl.PageCount() {
			return nil, fmt.Errorf("page %d outside 1..%d", f.pageNum, max(tbl.PageCount(), 1))
		}
		tbl.SetPageIndex(f.pageNum - 1)
	}
	return tbl, nil
}
