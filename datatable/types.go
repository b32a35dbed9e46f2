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

// Package datatable provides a reusable, presentation-independent data table
// engine: column definitions, interaction state (sorting, filters, column
// visibility, row selection, pagination) and the row pipeline that turns a
// dataset into the visible row window.
package datatable

import (
	"fmt"
	"strconv"
	"time"
)

// DataType represents the type of data in a column.
type DataType int

const (
	// TypeString represents string data.
	TypeString DataType = iota
	// TypeInt represents integer data (any size).
	TypeInt
	// TypeFloat represents floating-point data (any precision).
	TypeFloat
	// TypeBool represents boolean data.
	TypeBool
	// TypeDate represents date data (without time).
	TypeDate
	// TypeTimestamp represents timestamp data (date + time).
	TypeTimestamp
	// TypeBinary represents binary/blob data.
	TypeBinary
	// TypeDecimal represents decimal/numeric data (fixed precision).
	TypeDecimal
	// TypeStruct represents structured data (nested fields).
	TypeStruct
	// TypeList represents list/array data.
	TypeList
)

// String returns the string representation of a DataType.
func (dt DataType) String() string {
	switch dt {
	case TypeString:
		return "String"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeBool:
		return "Bool"
	case TypeDate:
		return "Date"
	case TypeTimestamp:
		return "Timestamp"
	case TypeBinary:
		return "Binary"
	case TypeDecimal:
		return "Decimal"
	case TypeStruct:
		return "Struct"
	case TypeList:
		return "List"
	default:
		return fmt.Sprintf("Unknown(%d)", dt)
	}
}

// Value is a typed container for cell values.
// It holds the raw value, type information, and a pre-formatted string for display.
type Value struct {
	// Raw holds the underlying value.
	// The type depends on the DataType field.
	Raw any

	// Type indicates the data type of this value.
	Type DataType

	// IsNull indicates whether this value is null/nil.
	IsNull bool

	// Formatted is a pre-formatted string representation for display.
	Formatted string
}

// NewValue creates a new Value from a raw value and type.
func NewValue(raw any, dataType DataType) Value {
	if raw == nil {
		return NewNullValue(dataType)
	}

	return Value{
		Raw:       raw,
		Type:      dataType,
		Formatted: formatValue(raw, dataType),
	}
}

// NewNullValue creates a null value of the specified type.
func NewNullValue(dataType DataType) Value {
	return Value{
		Type:   dataType,
		IsNull: true,
	}
}

// formatValue converts a raw value to its display string.
func formatValue(raw any, dataType DataType) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		if dataType == TypeDate {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.DateTime)
	case []byte:
		return string(v)
	}
	return fmt.Sprint(raw)
}

// Record is one row of a DataSource: one Value per column.
type Record []Value

// Metadata holds optional metadata about a data source.
type Metadata map[string]any

// SortDirection specifies the direction of sorting.
type SortDirection int

const (
	// SortNone indicates no sorting.
	SortNone SortDirection = iota
	// SortAscending indicates ascending sort order.
	SortAscending
	// SortDescending indicates descending sort order.
	SortDescending
)

// String returns the string representation of a SortDirection.
func (sd SortDirection) String() string {
	switch sd {
	case SortNone:
		return "None"
	case SortAscending:
		return "Ascending"
	case SortDescending:
		return "Descending"
	default:
		return fmt.Sprintf("Unknown(%d)", sd)
	}
}

// ColumnSort is one entry of the sorting state. Entries earlier in the
// sorting slice take precedence over later ones.
type ColumnSort struct {
	ColumnID  string
	Direction SortDirection
}

// IsSorted returns true if this entry represents an active sort.
func (s ColumnSort) IsSorted() bool {
	return s.ColumnID != "" && s.Direction != SortNone
}

// ColumnFilters maps a column ID to its filter value.
type ColumnFilters map[string]any

// Visibility maps a column ID to whether it is shown. Absent means visible.
type Visibility map[string]bool

// RowSelection is the set of selected row IDs.
type RowSelection map[string]bool

// Pagination is the page window requested from the pipeline.
type Pagination struct {
	PageIndex int
	PageSize  int
}

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// DefaultPageSizes returns the page sizes offered by the page-size selector.
func DefaultPageSizes() []int {
	return []int{10, 20, 50, 75}
}

// DefaultPagination returns the initial internally owned pagination state.
func DefaultPagination() Pagination {
	return Pagination{PageIndex: 0, PageSize: DefaultPageSize}
}
