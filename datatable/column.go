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
	"reflect"
	"time"
)

// Capability is the set of interactions a column allows.
type Capability uint8

const (
	// CapSort allows the column to take part in sorting.
	CapSort Capability = 1 << iota
	// CapFilter allows column filters and the global filter to read the column.
	CapFilter
	// CapHide allows the column to be hidden from the column menu.
	CapHide

	// CapAll enables every capability.
	CapAll = CapSort | CapFilter | CapHide
)

// Has reports whether every capability in f is set.
func (c Capability) Has(f Capability) bool {
	return c&f == f
}

// FilterFunc decides whether a row matches a filter value for one column.
// It is used both for per-column filters and for the global filter.
type FilterFunc[R any] func(row Row[R], columnID string, filterValue any) bool

// GlobalFilterFunc replaces the default global filter matcher. It is asked
// once per filterable column and the row passes when any column accepts it.
type GlobalFilterFunc[R any] func(row Row[R], columnID string, filterValue any) bool

// Column describes one column of a table over rows of type R.
type Column[R any] struct {
	// ID identifies the column and must be unique within a table.
	ID string

	// Header is the text shown in the header row. Defaults to ID.
	Header string

	// Accessor returns the value used for sorting and filtering.
	Accessor func(row R) any

	// Cell returns the display text. When nil the accessor value is formatted.
	Cell func(row R) string

	// SortFn overrides the default comparator for this column.
	SortFn func(a, b R) int

	// FilterFn overrides FilterIncludes for column filters on this column.
	FilterFn FilterFunc[R]

	// Caps lists what the column supports.
	Caps Capability
}

// NewColumn returns a column with every capability enabled.
func NewColumn[R any](id, header string, accessor func(row R) any) Column[R] {
	return Column[R]{
		ID:       id,
		Header:   header,
		Accessor: accessor,
		Caps:     CapAll,
	}
}

// CanSort reports whether the column can be sorted.
func (c Column[R]) CanSort() bool { return c.Caps.Has(CapSort) }

// CanFilter reports whether the column takes part in filtering.
func (c Column[R]) CanFilter() bool { return c.Caps.Has(CapFilter) }

// CanHide reports whether the column visibility can be toggled.
func (c Column[R]) CanHide() bool { return c.Caps.Has(CapHide) }

// Title returns the header text.
func (c Column[R]) Title() string {
	if c.Header != "" {
		return c.Header
	}
	return c.ID
}

func (c Column[R]) value(row R) any {
	if c.Accessor == nil {
		return nil
	}
	return c.Accessor(row)
}

func (c Column[R]) text(row R) string {
	if c.Cell != nil {
		return c.Cell(row)
	}
	return Stringify(c.value(row))
}

// searchText is what filters match against.
func (c Column[R]) searchText(row R) string {
	if c.Accessor == nil && c.Cell != nil {
		return c.Cell(row)
	}
	return Stringify(c.value(row))
}

// Stringify formats an accessor value for display and text matching.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case Value:
		return x.Formatted
	case *Value:
		if x == nil {
			return ""
		}
		return x.Formatted
	}
	if isNilPointer(v) {
		return ""
	}
	if x, ok := v.(fmt.Stringer); ok {
		if t, ok := deref(v).(time.Time); ok {
			return formatValue(t, TypeTimestamp)
		}
		return x.String()
	}
	return formatValue(v, TypeString)
}

// isNilPointer reports whether v is a typed nil pointer, such as an unset
// *time.Time.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// deref follows non-nil pointers to the value they point at. A nil pointer
// becomes nil.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// columnSet indexes column definitions by ID.
type columnSet[R any] struct {
	list  []Column[R]
	index map[string]int
}

// indexColumns builds a lookup. The first definition of a duplicated ID wins.
func indexColumns[R any](cols []Column[R]) *columnSet[R] {
	s := &columnSet[R]{
		list:  cols,
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := s.index[c.ID]; !dup {
			s.index[c.ID] = i
		}
	}
	return s
}

// validateColumns rejects empty and duplicated IDs.
func validateColumns[R any](cols []Column[R]) error {
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if c.ID == "" {
			return fmt.Errorf("%w: column %d has no id", ErrInvalidColumn, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func (s *columnSet[R]) lookup(id string) (Column[R], bool) {
	i, ok := s.index[id]
	if !ok {
		return Column[R]{}, false
	}
	return s.list[i], true
}

// Row is one dataset record as seen by the pipeline.
type Row[R any] struct {
	// ID identifies the row for selection. Defaults to the dataset index.
	ID string

	// Index is the position of the row in the dataset.
	Index int

	// Original is the caller's record.
	Original R

	cols *columnSet[R]
}

// Value returns the accessor value of a column for this row.
func (r Row[R]) Value(columnID string) (any, bool) {
	if r.cols == nil {
		return nil, false
	}
	c, ok := r.cols.lookup(columnID)
	if !ok {
		return nil, false
	}
	return c.value(r.Original), true
}

// Text returns the display text of a column for this row.
func (r Row[R]) Text(columnID string) string {
	if r.cols == nil {
		return ""
	}
	c, ok := r.cols.lookup(columnID)
	if !ok {
		return ""
	}
	return c.text(r.Original)
}

// Cell is one rendered cell of a row.
type Cell struct {
	ColumnID string
	Text     string
	Value    any
}
