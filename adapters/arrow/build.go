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

package arrow

import (
	"fmt"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"sociogrid/datatable"
)

// Take builds a new Arrow table holding the given rows, in the given order,
// and only the named columns. Column types are copied from the source table.
func (s *Source) Take(rows []int, columns []string) (arrow.Table, error) {
	if s.table == nil {
		return nil, datatable.ErrNoDataSource
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", datatable.ErrExportFailed)
	}

	schema := s.table.Schema()
	pool := memory.NewGoAllocator()

	fields := make([]arrow.Field, 0, len(columns))
	cols := make([]arrow.Column, 0, len(columns))
	for _, name := range columns {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("%w: %q", datatable.ErrColumnNotFound, name)
		}
		field := schema.Field(idx[0])
		chunks := newChunkIndex(s.table.Column(idx[0]).Data().Chunks())

		builder := array.NewBuilder(pool, field.Type)
		for _, r := range rows {
			arr, pos, ok := chunks.locate(r)
			if !ok {
				builder.Release()
				return nil, fmt.Errorf("%w: %d", datatable.ErrInvalidRow, r)
			}
			appendValueToBuilder(builder, arr, pos)
		}
		arr := builder.NewArray()
		builder.Release()

		chunked := arrow.NewChunked(field.Type, []arrow.Array{arr})
		arr.Release()
		fields = append(fields, field)
		cols = append(cols, *arrow.NewColumn(field, chunked))
		chunked.Release()
	}

	tbl := array.NewTable(arrow.NewSchema(fields, nil), cols, int64(len(rows)))
	for i := range cols {
		cols[i].Release()
	}
	return tbl, nil
}

type chunkIndex struct {
	chunks []arrow.Array
	starts []int
}

func newChunkIndex(chunks []arrow.Array) chunkIndex {
	ci := chunkIndex{chunks: chunks, starts: make([]int, len(chunks))}
	n := 0
	for i, c := range chunks {
		ci.starts[i] = n
		n += c.Len()
	}
	return ci
}

func (ci chunkIndex) locate(row int) (arrow.Array, int, bool) {
	if row < 0 {
		return nil, 0, false
	}
	i := sort.Search(len(ci.starts), func(i int) bool { return ci.starts[i] > row }) - 1
	if i < 0 {
		return nil, 0, false
	}
	pos := row - ci.starts[i]
	if pos >= ci.chunks[i].Len() {
		return nil, 0, false
	}
	return ci.chunks[i], pos, true
}

// appendValueToBuilder appends a typed value from an Arrow array to a builder.
func appendValueToBuilder(builder array.Builder, col arrow.Array, pos int) {
	if col.IsNull(pos) {
		builder.AppendNull()
		return
	}

	switch col.DataType().ID() {
	case arrow.STRING:
		builder.(*array.StringBuilder).Append(col.(*array.String).Value(pos))
	case arrow.LARGE_STRING:
		builder.(*array.LargeStringBuilder).Append(col.(*array.LargeString).Value(pos))
	case arrow.BINARY:
		builder.(*array.BinaryBuilder).Append(col.(*array.Binary).Value(pos))
	case arrow.BOOL:
		builder.(*array.BooleanBuilder).Append(col.(*array.Boolean).Value(pos))
	case arrow.INT8:
		builder.(*array.Int8Builder).Append(col.(*array.Int8).Value(pos))
	case arrow.INT16:
		builder.(*array.Int16Builder).Append(col.(*array.Int16).Value(pos))
	case arrow.INT32:
		builder.(*array.Int32Builder).Append(col.(*array.Int32).Value(pos))
	case arrow.INT64:
		builder.(*array.Int64Builder).Append(col.(*array.Int64).Value(pos))
	case arrow.UINT8:
		builder.(*array.Uint8Builder).Append(col.(*array.Uint8).Value(pos))
	case arrow.UINT16:
		builder.(*array.Uint16Builder).Append(col.(*array.Uint16).Value(pos))
	case arrow.UINT32:
		builder.(*array.Uint32Builder).Append(col.(*array.Uint32).Value(pos))
	case arrow.UINT64:
		builder.(*array.Uint64Builder).Append(col.(*array.Uint64).Value(pos))
	case arrow.FLOAT16:
		builder.(*array.Float16Builder).Append(col.(*array.Float16).Value(pos))
	case arrow.FLOAT32:
		builder.(*array.Float32Builder).Append(col.(*array.Float32).Value(pos))
	case arrow.FLOAT64:
		builder.(*array.Float64Builder).Append(col.(*array.Float64).Value(pos))
	case arrow.DATE32:
		builder.(*array.Date32Builder).Append(col.(*array.Date32).Value(pos))
	case arrow.DATE64:
		builder.(*array.Date64Builder).Append(col.(*array.Date64).Value(pos))
	case arrow.TIMESTAMP:
		builder.(*array.TimestampBuilder).Append(col.(*array.Timestamp).Value(pos))
	case arrow.DECIMAL128:
		builder.(*array.Decimal128Builder).Append(col.(*array.Decimal128).Value(pos))
	case arrow.STRUCT:
		b := builder.(*array.StructBuilder)
		s := col.(*array.Struct)
		b.Append(true)
		for i := 0; i < s.NumField(); i++ {
			appendValueToBuilder(b.FieldBuilder(i), s.Field(i), pos)
		}
	case arrow.LIST:
		b := builder.(*array.ListBuilder)
		l := col.(*array.List)
		b.Append(true)
		start, end := l.ValueOffsets(pos)
		values := l.ListValues()
		for i := int(start); i < int(end); i++ {
			appendValueToBuilder(b.ValueBuilder(), values, i)
		}
	default:
		builder.AppendNull()
	}
}

// ToArrowTable builds an Arrow table from records of any DataSource. Only
// the columns at the given indices are kept; their Arrow type is derived
// from types.
func ToArrowTable(names []string, types []datatable.DataType, records []datatable.Record, columns []int) (arrow.Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no rows", datatable.ErrExportFailed)
	}
	pool := memory.NewGoAllocator()

	fields := make([]arrow.Field, 0, len(columns))
	cols := make([]arrow.Column, 0, len(columns))
	for _, c := range columns {
		if c < 0 || c >= len(names) || c >= len(types) {
			return nil, fmt.Errorf("%w: %d", datatable.ErrInvalidColumn, c)
		}
		field := arrow.Field{Name: names[c], Type: arrowTypeOf(types[c]), Nullable: true}

		builder := array.NewBuilder(pool, field.Type)
		for _, rec := range records {
			if c >= len(rec) {
				builder.AppendNull()
				continue
			}
			appendDatatableValue(builder, rec[c])
		}
		arr := builder.NewArray()
		builder.Release()

		chunked := arrow.NewChunked(field.Type, []arrow.Array{arr})
		arr.Release()
		fields = append(fields, field)
		cols = append(cols, *arrow.NewColumn(field, chunked))
		chunked.Release()
	}

	tbl := array.NewTable(arrow.NewSchema(fields, nil), cols, int64(len(records)))
	for i := range cols {
		cols[i].Release()
	}
	return tbl, nil
}

func arrowTypeOf(dt datatable.DataType) arrow.DataType {
	switch dt {
	case datatable.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case datatable.TypeFloat, datatable.TypeDecimal:
		return arrow.PrimitiveTypes.Float64
	case datatable.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	case datatable.TypeDate:
		return arrow.FixedWidthTypes.Date32
	case datatable.TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	case datatable.TypeBinary:
		return arrow.BinaryTypes.Binary
	default:
		return arrow.BinaryTypes.String
	}
}

// appendDatatableValue appends v, falling back to null when the raw value
// does not fit the builder.
func appendDatatableValue(builder array.Builder, v datatable.Value) {
	if v.IsNull {
		builder.AppendNull()
		return
	}
	switch b := builder.(type) {
	case *array.Int64Builder:
		if n, ok := asInt64(v.Raw); ok {
			b.Append(n)
			return
		}
	case *array.Float64Builder:
		if f, ok := asFloat64(v.Raw); ok {
			b.Append(f)
			return
		}
	case *array.BooleanBuilder:
		if x, ok := v.Raw.(bool); ok {
			b.Append(x)
			return
		}
	case *array.Date32Builder:
		if t, ok := v.Raw.(time.Time); ok {
			b.Append(arrow.Date32FromTime(t))
			return
		}
	case *array.TimestampBuilder:
		if t, ok := v.Raw.(time.Time); ok {
			b.AppendTime(t)
			return
		}
	case *array.BinaryBuilder:
		if x, ok := v.Raw.([]byte); ok {
			b.Append(x)
			return
		}
	case *array.StringBuilder:
		b.Append(v.Formatted)
		return
	}
	builder.AppendNull()
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
