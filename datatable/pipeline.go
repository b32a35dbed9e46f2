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
	"slices"
	"strconv"

	"sociogrid/datatable/internal/filter"
)

// PipelineInput is everything the row pipeline reads.
type PipelineInput[R any] struct {
	Rows           []R
	Columns        []Column[R]
	Sorting        []ColumnSort
	ColumnFilters  ColumnFilters
	GlobalFilter   any
	GlobalFilterFn GlobalFilterFunc[R]
	Pagination     Pagination

	// GetRowID derives row IDs. Defaults to the dataset index.
	GetRowID func(row R, index int) string

	// ManualPagination means Rows already is the requested page; no
	// windowing is applied and RowCount, when positive, is the total.
	ManualPagination bool
	RowCount         int
}

// RowModel is the result of one pipeline run.
type RowModel[R any] struct {
	// Rows is the visible row window.
	Rows []Row[R]

	// Filtered holds every row that passed the filters, in sorted order.
	Filtered []Row[R]

	// Total is the post-filter, pre-pagination row count.
	Total int

	// Pagination is the state the window was cut with.
	Pagination Pagination
}

// PageCount returns the number of pages for the filtered rows.
func (m RowModel[R]) PageCount() int {
	return PageCount(m.Total, m.Pagination.PageSize)
}

// Empty reports whether the visible window holds no rows.
func (m RowModel[R]) Empty() bool {
	return len(m.Rows) == 0
}

// Run applies column filters, the global filter, sorting and pagination to
// the rows, in that order. It never fails: malformed filters match nothing
// and out-of-range pages produce an empty window.
func Run[R any](in PipelineInput[R]) RowModel[R] {
	return run(indexColumns(in.Columns), in)
}

func run[R any](cols *columnSet[R], in PipelineInput[R]) RowModel[R] {
	rows := coreRows(cols, in.Rows, in.GetRowID)

	filtered := filterRows(cols, rows, in.ColumnFilters, in.GlobalFilter, in.GlobalFilterFn)

	if keys := resolveSorting(cols, in.Sorting); len(keys) > 0 {
		slices.SortStableFunc(filtered, rowComparator(keys, newCollator()))
	}

	model := RowModel[R]{
		Filtered:   filtered,
		Total:      len(filtered),
		Pagination: in.Pagination,
	}
	if in.ManualPagination {
		model.Rows = filtered
		if in.RowCount > 0 {
			model.Total = in.RowCount
		}
		return model
	}
	model.Rows = window(filtered, in.Pagination)
	return model
}

func coreRows[R any](cols *columnSet[R], data []R, getID func(R, int) string) []Row[R] {
	rows := make([]Row[R], len(data))
	for i, d := range data {
		id := ""
		if getID != nil {
			id = getID(d, i)
		}
		if id == "" {
			id = strconv.Itoa(i)
		}
		rows[i] = Row[R]{ID: id, Index: i, Original: d, cols: cols}
	}
	return rows
}

// filterRows keeps rows matching every active column filter and then the global filter.
func filterRows[R any](cols *columnSet[R], rows []Row[R], columnFilters ColumnFilters,
	globalValue any, globalFn GlobalFilterFunc[R]) []Row[R] {

	conj := filter.All[Row[R]]()
	for id, value := range columnFilters {
		if !isActiveFilter(value) {
			continue
		}
		c, ok := cols.lookup(id)
		if !ok {
			// A filter on a column that does not exist matches nothing.
			conj.Add(func(Row[R]) bool { return false })
			continue
		}
		if !c.CanFilter() {
			continue
		}
		match := c.FilterFn
		if match == nil {
			match = FilterIncludes[R]
		}
		columnID, v := c.ID, value
		conj.Add(func(r Row[R]) bool { return match(r, columnID, v) })
	}

	if isActiveFilter(globalValue) {
		match := globalFn
		if match == nil {
			match = FilterIncludes[R]
		}
		disj := filter.Any[Row[R]]()
		for _, c := range cols.list {
			if !c.CanFilter() {
				continue
			}
			columnID := c.ID
			disj.Add(func(r Row[R]) bool { return match(r, columnID, globalValue) })
		}
		if disj.Len() > 0 {
			conj.Add(disj.Evaluate)
		}
	}

	out := make([]Row[R], 0, len(rows))
	for _, r := range rows {
		if conj.Evaluate(r) {
			out = append(out, r)
		}
	}
	return out
}

// window slices one page out of rows. Invalid or out-of-range pages are empty.
func window[R any](rows []Row[R], p Pagination) []Row[R] {
	if p.PageIndex < 0 || p.PageSize <= 0 {
		return nil
	}
	start := p.PageIndex * p.PageSize
	if start >= len(rows) {
		return nil
	}
	end := min(start+p.PageSize, len(rows))
	return rows[start:end]
}

// PageCount returns ceil(total/pageSize), or 0 for an empty result.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
