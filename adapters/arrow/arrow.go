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

// Package arrow adapts Apache Arrow tables to datatable.DataSource and back.
package arrow

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"sociogrid/datatable"
)

// Source is a datatable.DataSource over an Arrow table. Cell values are
// converted once, when the source is created.
type Source struct {
	table arrow.Table
	names []string
	types []datatable.DataType
	rows  []datatable.Record
	meta  datatable.Metadata
}

var _ datatable.DataSource = (*Source)(nil)

// NewFromArrowTable converts tbl. The table is retained until Release.
func NewFromArrowTable(tbl arrow.Table) (*Source, error) {
	if tbl == nil {
		return nil, datatable.ErrNoDataSource
	}

	schema := tbl.Schema()
	numCols := int(tbl.NumCols())
	numRows := int(tbl.NumRows())

	s := &Source{
		table: tbl,
		names: make([]string, numCols),
		types: make([]datatable.DataType, numCols),
		rows:  make([]datatable.Record, numRows),
		meta: datatable.Metadata{
			"source": "arrow",
			"schema": schema.String(),
		},
	}
	for r := range s.rows {
		s.rows[r] = make(datatable.Record, numCols)
	}

	for c := 0; c < numCols; c++ {
		field := schema.Field(c)
		s.names[c] = field.Name
		s.types[c] = DataTypeOf(field.Type)

		r := 0
		for _, chunk := range tbl.Column(c).Data().Chunks() {
			for i := 0; i < chunk.Len() && r < numRows; i++ {
				s.rows[r][c] = ValueAt(chunk, i)
				r++
			}
		}
		if r != numRows {
			return nil, fmt.Errorf("column %q has %d values, table has %d rows", field.Name, r, numRows)
		}
	}

	if md := schema.Metadata(); md.Len() > 0 {
		for i, k := range md.Keys() {
			s.meta["schema."+k] = md.Values()[i]
		}
	}

	tbl.Retain()
	return s, nil
}

// Table returns the underlying Arrow table.
func (s *Source) Table() arrow.Table { return s.table }

// Release drops the reference taken by NewFromArrowTable.
func (s *Source) Release() {
	if s.table != nil {
		s.table.Release()
		s.table = nil
	}
}

// RowCount implements datatable.DataSource.
func (s *Source) RowCount() int { return len(s.rows) }

// ColumnCount implements datatable.DataSource.
func (s *Source) ColumnCount() int { return len(s.names) }

// ColumnName implements datatable.DataSource.
func (s *Source) ColumnName(col int) (string, error) {
	if col < 0 || col >= len(s.names) {
		return "", datatable.ErrInvalidColumn
	}
	return s.names[col], nil
}

// ColumnType implements datatable.DataSource.
func (s *Source) ColumnType(col int) (datatable.DataType, error) {
	if col < 0 || col >= len(s.types) {
		return 0, datatable.ErrInvalidColumn
	}
	return s.types[col], nil
}

// Cell implements datatable.DataSource.
func (s *Source) Cell(row, col int) (datatable.Value, error) {
	if row < 0 || row >= len(s.rows) {
		return datatable.Value{}, datatable.ErrInvalidRow
	}
	if col < 0 || col >= len(s.names) {
		return datatable.Value{}, datatable.ErrInvalidColumn
	}
	return s.rows[row][col], nil
}

// Row implements datatable.DataSource.
func (s *Source) Row(row int) ([]datatable.Value, error) {
	if row < 0 || row >= len(s.rows) {
		return nil, datatable.ErrInvalidRow
	}
	return s.rows[row], nil
}

// Metadata implements datatable.DataSource.
func (s *Source) Metadata() datatable.Metadata { return s.meta }

// Annotate records a metadata entry, e.g. the file a source was loaded from.
func (s *Source) Annotate(key string, value any) {
	s.meta[key] = value
}

// DataTypeOf maps an Arrow type onto the datatable type families.
func DataTypeOf(dt arrow.DataType) datatable.DataType {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return datatable.TypeInt
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return datatable.TypeFloat
	case arrow.BOOL:
		return datatable.TypeBool
	case arrow.DATE32, arrow.DATE64:
		return datatable.TypeDate
	case arrow.TIMESTAMP:
		return datatable.TypeTimestamp
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		return datatable.TypeBinary
	case arrow.DECIMAL128, arrow.DECIMAL256:
		return datatable.TypeDecimal
	case arrow.STRUCT:
		return datatable.TypeStruct
	case arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST:
		return datatable.TypeList
	default:
		return datatable.TypeString
	}
}

// ValueAt converts one element of an Arrow array.
func ValueAt(arr arrow.Array, i int) datatable.Value {
	dt := DataTypeOf(arr.DataType())
	if arr.IsNull(i) {
		return datatable.NewNullValue(dt)
	}

	switch a := arr.(type) {
	case *array.String:
		return datatable.NewValue(a.Value(i), dt)
	case *array.LargeString:
		return datatable.NewValue(a.Value(i), dt)
	case *array.Binary:
		return datatable.NewValue(a.Value(i), dt)
	case *array.Boolean:
		return datatable.NewValue(a.Value(i), dt)
	case *array.Int8:
		return datatable.NewValue(int64(a.Value(i)), dt)
	case *array.Int16:
		return datatable.NewValue(int64(a.Value(i)), dt)
	case *array.Int32:
		return datatable.NewValue(int64(a.Value(i)), dt)
	case *array.Int64:
		return datatable.NewValue(a.Value(i), dt)
	case *array.Uint8:
		return datatable.NewValue(int64(a.Value(i)), dt)
	case *array.Uint16:
		return datatable.NewValue(int64(a.Value(i)), dt)
	case *array.Uint32:
		return datatable.NewValue(int64(a.Value(i)), dt)
	case *array.Uint64:
		return datatable.NewValue(a.Value(i), dt)
	case *array.Float16:
		return datatable.NewValue(float64(a.Value(i).Float32()), dt)
	case *array.Float32:
		return datatable.NewValue(float64(a.Value(i)), dt)
	case *array.Float64:
		return datatable.NewValue(a.Value(i), dt)
	case *array.Date32:
		return datatable.NewValue(a.Value(i).ToTime(), dt)
	case *array.Date64:
		return datatable.NewValue(a.Value(i).ToTime(), dt)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return datatable.NewValue(a.Value(i).ToTime(unit), dt)
	case *array.Decimal128, *array.Decimal256:
		str := arr.ValueStr(i)
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return datatable.Value{Raw: str, Type: dt, Formatted: str}
		}
		return datatable.Value{Raw: f, Type: dt, Formatted: str}
	}

	return datatable.Value{Raw: arr.GetOneForMarshal(i), Type: dt, Formatted: arr.ValueStr(i)}
}
