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

package datatable

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

// Options configures a Table. The zero value is a usable, fully
// self-managed table with the default page sizes.
type Options[R any] struct {
	// PageSizes lists the selectable page sizes. Defaults to DefaultPageSizes.
	PageSizes []int

	// Pagination, when set, makes the caller the owner of the pagination
	// state. Page changes are then sent to OnPaginationChange and the
	// caller is expected to hand the new value back through SetOptions.
	Pagination         *Pagination
	OnPaginationChange func(Pagination)

	// GlobalFilter and OnGlobalFilterChange work like Pagination.
	GlobalFilter         *string
	OnGlobalFilterChange func(string)
	GlobalFilterFn       GlobalFilterFunc[R]

	GetRowID func(row R, index int) string

	// ManualPagination means the data handed to the table already is the
	// current page. RowCount is the total across all pages.
	ManualPagination bool
	RowCount         int

	InitialSorting    []ColumnSort
	InitialVisibility Visibility

	Logger *slog.Logger
}

// Table coordinates the state of one data grid: sorting, column filters,
// the global filter, column visibility, row selection and pagination. Every
// change runs the row pipeline exactly once and notifies subscribers.
//
// A Table is not safe for concurrent use; callers drive it from one
// goroutine, normally the UI thread.
type Table[R any] struct {
	cols      *columnSet[R]
	data      []R
	opts      Options[R]
	pageSizes []int
	log       *slog.Logger

	sorting       []ColumnSort
	columnFilters ColumnFilters
	globalFilter  string
	visibility    Visibility
	selection     RowSelection
	pagination    Pagination

	model       RowModel[R]
	modelGlobal string
	recomputes  int

	depth   int
	pending bool

	listeners []listener[R]
	nextID    int
}

type listener[R any] struct {
	id int
	fn func(RowModel[R])
}

// NewTable creates a table over data. Columns must have unique, non-empty IDs.
func NewTable[R any](columns []Column[R], data []R, opts Options[R]) (*Table[R], error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	sizes, err := normalizePageSizes(opts.PageSizes)
	if err != nil {
		return nil, err
	}

	t := &Table[R]{
		cols:          indexColumns(slices.Clone(columns)),
		data:          data,
		opts:          opts,
		pageSizes:     sizes,
		log:           loggerOrDiscard(opts.Logger),
		columnFilters: ColumnFilters{},
		visibility:    Visibility{},
		selection:     RowSelection{},
		pagination:    Pagination{PageIndex: 0, PageSize: defaultPageSize(sizes)},
	}
	t.sorting = t.validSorting(opts.InitialSorting)
	for id, visible := range opts.InitialVisibility {
		if c, ok := t.cols.lookup(id); ok && c.CanHide() {
			t.visibility[id] = visible
		}
	}
	t.warnPartialOwnership(opts)
	t.recompute()
	return t, nil
}

func normalizePageSizes(sizes []int) ([]int, error) {
	if len(sizes) == 0 {
		return DefaultPageSizes(), nil
	}
	out := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, s)
		}
		if slices.Contains(out, s) {
			return nil, fmt.Errorf("%w: duplicate %d", ErrInvalidPageSize, s)
		}
		out = append(out, s)
	}
	return out, nil
}

func defaultPageSize(sizes []int) int {
	if slices.Contains(sizes, DefaultPageSize) {
		return DefaultPageSize
	}
	return sizes[0]
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

func (t *Table[R]) warnPartialOwnership(opts Options[R]) {
	if opts.Pagination == nil && opts.OnPaginationChange != nil {
		t.log.Warn("pagination handler without pagination value, table keeps its own pagination")
	}
	if opts.Pagination != nil && opts.OnPaginationChange == nil {
		t.log.Warn("pagination value without handler, page changes are dropped")
	}
	if opts.GlobalFilter == nil && opts.OnGlobalFilterChange != nil {
		t.log.Warn("global filter handler without global filter value, table keeps its own filter")
	}
}

// mutate runs fn and recomputes once if fn changed internal state. Change
// handlers that call back into the table while fn runs are folded into
// the same recomputation.
func (t *Table[R]) mutate(fn func() bool) {
	t.depth++
	changed := fn()
	t.depth--
	if changed {
		t.pending = true
	}
	if t.depth == 0 && t.pending {
		t.pending = false
		t.recompute()
	}
}

func (t *Table[R]) paginationState() Owned[Pagination] {
	return ResolveOwned(&t.pagination, t.opts.Pagination, t.opts.OnPaginationChange)
}

func (t *Table[R]) globalFilterState() Owned[string] {
	return ResolveOwned(&t.globalFilter, t.opts.GlobalFilter, t.opts.OnGlobalFilterChange)
}

func (t *Table[R]) input(p Pagination, global string) PipelineInput[R] {
	var g any
	if global != "" {
		g = global
	}
	return PipelineInput[R]{
		Rows:             t.data,
		Sorting:          t.sorting,
		ColumnFilters:    t.columnFilters,
		GlobalFilter:     g,
		GlobalFilterFn:   t.opts.GlobalFilterFn,
		Pagination:       p,
		GetRowID:         t.opts.GetRowID,
		ManualPagination: t.opts.ManualPagination,
		RowCount:         t.opts.RowCount,
	}
}

func (t *Table[R]) recompute() {
	p := t.paginationState()
	global := t.globalFilterState().Value
	in := t.input(p.Value, global)
	m := run(t.cols, in)

	// An internally owned page index never points past the last page.
	if p.Owner == Internal && !t.opts.ManualPagination && m.Total > 0 && len(m.Rows) == 0 {
		t.pagination.PageIndex = max(PageCount(m.Total, t.pagination.PageSize)-1, 0)
		in.Pagination = t.pagination
		m = run(t.cols, in)
	}

	t.model = m
	t.modelGlobal = global
	t.recomputes++
	t.log.Debug("row model recomputed",
		"total", m.Total, "page_index", m.Pagination.PageIndex,
		"page_size", m.Pagination.PageSize, "rows", len(m.Rows))

	for _, l := range slices.Clone(t.listeners) {
		l.fn(m)
	}
}

// resetPageIndex moves back to the first page, or asks the owner to.
func (t *Table[R]) resetPageIndex() {
	p := t.paginationState()
	if p.Value.PageIndex == 0 {
		return
	}
	next := p.Value
	next.PageIndex = 0
	p.Set(next)
}

// Subscribe registers fn to be called with every new row model. The
// returned function removes the subscription.
func (t *Table[R]) Subscribe(fn func(RowModel[R])) func() {
	id := t.nextID
	t.nextID++
	t.listeners = append(t.listeners, listener[R]{id: id, fn: fn})
	return func() {
		t.listeners = slices.DeleteFunc(t.listeners, func(l listener[R]) bool { return l.id == id })
	}
}

// Recomputations returns how many times the row pipeline has run.
func (t *Table[R]) Recomputations() int {
	return t.recomputes
}

// RowModel returns the current row model. Foreign-owned state is read
// again on every call, so a stale model is rebuilt before it is returned.
func (t *Table[R]) RowModel() RowModel[R] {
	if t.depth == 0 && (t.model.Pagination != t.Pagination() || t.modelGlobal != t.GlobalFilter()) {
		t.recompute()
	}
	return t.model
}

// Refresh reruns the pipeline, e.g. after rows were edited in place.
func (t *Table[R]) Refresh() {
	t.mutate(func() bool { return true })
}

// Data returns the rows the table was built over.
func (t *Table[R]) Data() []R {
	return t.data
}

// SetData replaces the rows. Filters, sorting and selection are kept; an
// internal page index past the new last page is clamped.
func (t *Table[R]) SetData(data []R) {
	t.mutate(func() bool {
		t.data = data
		return true
	})
}

// Options returns the options the table currently runs with.
func (t *Table[R]) Options() Options[R] {
	return t.opts
}

// SetOptions replaces the options. It is how a caller owning pagination or
// the global filter hands back the values it accepted.
func (t *Table[R]) SetOptions(opts Options[R]) error {
	sizes, err := normalizePageSizes(opts.PageSizes)
	if err != nil {
		return err
	}
	t.mutate(func() bool {
		t.opts = opts
		t.pageSizes = sizes
		t.log = loggerOrDiscard(opts.Logger)
		t.warnPartialOwnership(opts)

		if !slices.Contains(sizes, t.pagination.PageSize) {
			t.pagination = Pagination{PageIndex: 0, PageSize: defaultPageSize(sizes)}
		}
		if g := t.globalFilterState().Value; g != t.modelGlobal {
			t.resetPageIndex()
		}
		return true
	})
	return nil
}

// Update replaces rows and options together, with one recomputation. A
// caller serving pages itself uses it to hand over a fetched page.
func (t *Table[R]) Update(data []R, opts Options[R]) error {
	if _, err := normalizePageSizes(opts.PageSizes); err != nil {
		return err
	}
	t.mutate(func() bool {
		t.data = data
		_ = t.SetOptions(opts)
		return true
	})
	return nil
}

// Column returns the column with the given ID.
func (t *Table[R]) Column(id string) (Column[R], bool) {
	return t.cols.lookup(id)
}

// AllColumns returns every column in declaration order.
func (t *Table[R]) AllColumns() []Column[R] {
	return slices.Clone(t.cols.list)
}

// Sorting returns the active sort entries, primary first.
func (t *Table[R]) Sorting() []ColumnSort {
	return slices.Clone(t.sorting)
}

// SortDirection returns the direction the column is sorted in.
func (t *Table[R]) SortDirection(columnID string) SortDirection {
	for _, s := range t.sorting {
		if s.ColumnID == columnID {
			return s.Direction
		}
	}
	return SortNone
}

func (t *Table[R]) validSorting(sorting []ColumnSort) []ColumnSort {
	out := make([]ColumnSort, 0, len(sorting))
	for _, k := range resolveSorting(t.cols, sorting) {
		dir := SortAscending
		if k.desc {
			dir = SortDescending
		}
		out = append(out, ColumnSort{ColumnID: k.col.ID, Direction: dir})
	}
	return out
}

// SetSorting replaces the sort entries. Unknown and unsortable columns are
// dropped. The page index goes back to the first page.
func (t *Table[R]) SetSorting(sorting []ColumnSort) {
	t.mutate(func() bool {
		t.sorting = t.validSorting(sorting)
		t.resetPageIndex()
		return true
	})
}

// ToggleSorting cycles a column through ascending, descending and unsorted.
// With multi the column is added to the existing sort instead of replacing it.
func (t *Table[R]) ToggleSorting(columnID string, multi bool) {
	c, ok := t.cols.lookup(columnID)
	if !ok || !c.CanSort() {
		t.log.Debug("ignoring sort toggle", "column", columnID)
		return
	}

	var next SortDirection
	switch t.SortDirection(columnID) {
	case SortNone:
		next = SortAscending
	case SortAscending:
		next = SortDescending
	default:
		next = SortNone
	}

	if !multi {
		var sorting []ColumnSort
		if next != SortNone {
			sorting = []ColumnSort{{ColumnID: columnID, Direction: next}}
		}
		t.SetSorting(sorting)
		return
	}

	sorting := slices.DeleteFunc(t.Sorting(), func(s ColumnSort) bool { return s.ColumnID == columnID })
	if next != SortNone {
		if i := slices.IndexFunc(t.sorting, func(s ColumnSort) bool { return s.ColumnID == columnID }); i >= 0 {
			sorting = slices.Insert(sorting, i, ColumnSort{ColumnID: columnID, Direction: next})
		} else {
			sorting = append(sorting, ColumnSort{ColumnID: columnID, Direction: next})
		}
	}
	t.SetSorting(sorting)
}

// ColumnFilters returns a copy of the active column filters.
func (t *Table[R]) ColumnFilters() ColumnFilters {
	return maps.Clone(t.columnFilters)
}

// ColumnFilter returns the filter value set on a column, or nil.
func (t *Table[R]) ColumnFilter(columnID string) any {
	return t.columnFilters[columnID]
}

// SetColumnFilter sets or, for nil and "", clears a column filter.
// The page index goes back to the first page.
func (t *Table[R]) SetColumnFilter(columnID string, value any) {
	t.mutate(func() bool {
		if isActiveFilter(value) {
			t.columnFilters[columnID] = value
		} else {
			delete(t.columnFilters, columnID)
		}
		t.resetPageIndex()
		return true
	})
}

// SetColumnFilters replaces every column filter.
func (t *Table[R]) SetColumnFilters(filters ColumnFilters) {
	t.mutate(func() bool {
		t.columnFilters = ColumnFilters{}
		for id, v := range filters {
			if isActiveFilter(v) {
				t.columnFilters[id] = v
			}
		}
		t.resetPageIndex()
		return true
	})
}

// GlobalFilter returns the effective global filter text.
func (t *Table[R]) GlobalFilter() string {
	return t.globalFilterState().Value
}

// GlobalFilterOwner tells who owns the global filter.
func (t *Table[R]) GlobalFilterOwner() Ownership {
	return t.globalFilterState().Owner
}

// SetGlobalFilter changes the global filter, or asks its owner to.
func (t *Table[R]) SetGlobalFilter(value string) {
	t.mutate(func() bool {
		g := t.globalFilterState()
		if g.Value == value {
			return false
		}
		if g.ReadOnly() {
			t.log.Debug("global filter is read-only, change dropped", "value", value)
			return false
		}
		g.Set(value)
		if g.Owner == External {
			return false
		}
		t.resetPageIndex()
		return true
	})
}

// Visibility returns a copy of the visibility map. Columns not present are visible.
func (t *Table[R]) Visibility() Visibility {
	return maps.Clone(t.visibility)
}

// IsColumnVisible reports whether a column is shown. Columns that cannot
// be hidden are always visible.
func (t *Table[R]) IsColumnVisible(columnID string) bool {
	c, ok := t.cols.lookup(columnID)
	if !ok {
		return false
	}
	if !c.CanHide() {
		return true
	}
	v, set := t.visibility[columnID]
	return !set || v
}

// SetColumnVisibility replaces the visibility map. Entries for unknown or
// non-hideable columns are ignored.
func (t *Table[R]) SetColumnVisibility(v Visibility) {
	t.mutate(func() bool {
		t.visibility = Visibility{}
		for id, visible := range v {
			if c, ok := t.cols.lookup(id); ok && c.CanHide() {
				t.visibility[id] = visible
			}
		}
		return true
	})
}

// ToggleColumnVisibility shows or hides one column.
func (t *Table[R]) ToggleColumnVisibility(columnID string, visible bool) {
	c, ok := t.cols.lookup(columnID)
	if !ok || !c.CanHide() {
		t.log.Debug("ignoring visibility toggle", "column", columnID)
		return
	}
	t.mutate(func() bool {
		if t.IsColumnVisible(columnID) == visible {
			return false
		}
		t.visibility[columnID] = visible
		return true
	})
}

// VisibleColumns returns the shown columns in declaration order.
func (t *Table[R]) VisibleColumns() []Column[R] {
	var out []Column[R]
	for _, c := range t.cols.list {
		if t.IsColumnVisible(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// HideableColumns returns the columns offered in the column chooser.
func (t *Table[R]) HideableColumns() []Column[R] {
	var out []Column[R]
	for _, c := range t.cols.list {
		if c.CanHide() {
			out = append(out, c)
		}
	}
	return out
}

// VisibleCells renders a row's cells for the shown columns.
func (t *Table[R]) VisibleCells(row Row[R]) []Cell {
	cols := t.VisibleColumns()
	cells := make([]Cell, len(cols))
	for i, c := range cols {
		cells[i] = Cell{ColumnID: c.ID, Text: c.text(row.Original), Value: c.value(row.Original)}
	}
	return cells
}

// RowSelection returns a copy of the selected row IDs.
func (t *Table[R]) RowSelection() RowSelection {
	return maps.Clone(t.selection)
}

// IsRowSelected reports whether a row is selected.
func (t *Table[R]) IsRowSelected(rowID string) bool {
	return t.selection[rowID]
}

// SetRowSelection replaces the selection.
func (t *Table[R]) SetRowSelection(sel RowSelection) {
	t.mutate(func() bool {
		t.selection = RowSelection{}
		for id, on := range sel {
			if on {
				t.selection[id] = true
			}
		}
		return true
	})
}

// ToggleRowSelected selects or deselects one row.
func (t *Table[R]) ToggleRowSelected(rowID string, selected bool) {
	t.mutate(func() bool {
		if t.selection[rowID] == selected {
			return false
		}
		if selected {
			t.selection[rowID] = true
		} else {
			delete(t.selection, rowID)
		}
		return true
	})
}

// ToggleAllPageRowsSelected selects or deselects every row on the current page.
func (t *Table[R]) ToggleAllPageRowsSelected(selected bool) {
	rows := t.RowModel().Rows
	t.mutate(func() bool {
		changed := false
		for _, r := range rows {
			if t.selection[r.ID] == selected {
				continue
			}
			changed = true
			if selected {
				t.selection[r.ID] = true
			} else {
				delete(t.selection, r.ID)
			}
		}
		return changed
	})
}

// IsAllPageRowsSelected reports whether the current page is non-empty and
// fully selected.
func (t *Table[R]) IsAllPageRowsSelected() bool {
	rows := t.RowModel().Rows
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if !t.selection[r.ID] {
			return false
		}
	}
	return true
}

// ResetRowSelection clears the selection.
func (t *Table[R]) ResetRowSelection() {
	t.mutate(func() bool {
		if len(t.selection) == 0 {
			return false
		}
		t.selection = RowSelection{}
		return true
	})
}

// SelectedRows returns the selected rows across the whole dataset, in
// dataset order.
func (t *Table[R]) SelectedRows() []Row[R] {
	var out []Row[R]
	for _, r := range coreRows(t.cols, t.data, t.opts.GetRowID) {
		if t.selection[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// FilteredSelectedRows returns the selected rows that pass the filters, in
// sorted order.
func (t *Table[R]) FilteredSelectedRows() []Row[R] {
	var out []Row[R]
	for _, r := range t.RowModel().Filtered {
		if t.selection[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// Pagination returns the effective pagination state.
func (t *Table[R]) Pagination() Pagination {
	return t.paginationState().Value
}

// PaginationOwner tells who owns the pagination state.
func (t *Table[R]) PaginationOwner() Ownership {
	return t.paginationState().Owner
}

// PageSizes returns the selectable page sizes.
func (t *Table[R]) PageSizes() []int {
	return slices.Clone(t.pageSizes)
}

// PageCount returns the number of pages over the filtered rows.
func (t *Table[R]) PageCount() int {
	m := t.RowModel()
	return PageCount(m.Total, t.Pagination().PageSize)
}

// Total returns the post-filter row count.
func (t *Table[R]) Total() int {
	return t.RowModel().Total
}

// validPagination checks a requested pagination. The size must be one of
// PageSizes only when it changes, so a caller-owned size outside the list
// still pages.
func (t *Table[R]) validPagination(p Pagination) error {
	if p.PageSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, p.PageSize)
	}
	if p.PageSize != t.Pagination().PageSize && !slices.Contains(t.pageSizes, p.PageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, p.PageSize)
	}
	last := max(PageCount(t.RowModel().Total, p.PageSize)-1, 0)
	if p.PageIndex < 0 || p.PageIndex > last {
		return fmt.Errorf("page index %d outside 0..%d", p.PageIndex, last)
	}
	return nil
}

// SetPagination moves to p. Out-of-range requests are ignored. When the
// caller owns pagination the request goes to its handler and nothing
// changes until it hands the value back.
func (t *Table[R]) SetPagination(p Pagination) {
	if err := t.validPagination(p); err != nil {
		t.log.Debug("ignoring pagination request", "error", err)
		return
	}
	t.mutate(func() bool {
		st := t.paginationState()
		if st.Value == p {
			return false
		}
		st.Set(p)
		return st.Owner == Internal
	})
}

// SetPageIndex moves to a page of the current size.
func (t *Table[R]) SetPageIndex(index int) {
	t.SetPagination(Pagination{PageIndex: index, PageSize: t.Pagination().PageSize})
}

// SetPageSize changes the page size, keeping the first row of the current
// page in view. Sizes not offered by PageSizes are ignored.
func (t *Table[R]) SetPageSize(size int) {
	if size <= 0 || !slices.Contains(t.pageSizes, size) {
		t.log.Debug("ignoring page size", "size", size)
		return
	}
	cur := t.Pagination()
	index := 0
	if cur.PageSize > 0 {
		index = cur.PageIndex * cur.PageSize / size
	}
	t.SetPagination(Pagination{PageIndex: index, PageSize: size})
}

// CanPreviousPage reports whether a page exists before the current one.
func (t *Table[R]) CanPreviousPage() bool {
	return CanPreviousPage(t.Pagination().PageIndex)
}

// CanNextPage reports whether a page exists after the current one.
func (t *Table[R]) CanNextPage() bool {
	p := t.Pagination()
	return CanNextPage(t.RowModel().Total, p.PageIndex, p.PageSize)
}

// PreviousPage moves back one page if possible.
func (t *Table[R]) PreviousPage() {
	if t.CanPreviousPage() {
		t.SetPageIndex(t.Pagination().PageIndex - 1)
	}
}

// NextPage moves forward one page if possible.
func (t *Table[R]) NextPage() {
	if t.CanNextPage() {
		t.SetPageIndex(t.Pagination().PageIndex + 1)
	}
}

// FirstPage moves to the first page.
func (t *Table[R]) FirstPage() {
	t.SetPageIndex(0)
}

// LastPage moves to the last page.
func (t *Table[R]) LastPage() {
	t.SetPageIndex(max(t.PageCount()-1, 0))
}

// Caption renders the results range of the current page.
func (t *Table[R]) Caption(m Messages) string {
	p := t.Pagination()
	return Caption(t.RowModel().Total, p.PageIndex, p.PageSize, m)
}
