package arrow

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sociogrid/datatable"
)

func sociosTable(t *testing.T) arrow.Table {
	t.Helper()
	pool := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "nombre", Type: arrow.BinaryTypes.String},
		{Name: "numero", Type: arrow.PrimitiveTypes.Int32},
		{Name: "cuota", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "alta", Type: arrow.FixedWidthTypes.Date32},
	}, nil)

	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"Zoe", "Ana", "Luis"}, nil)
	b.Field(1).(*array.Int32Builder).AppendValues([]int32{3, 1, 2}, nil)
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{30, 0, 9.5}, []bool{true, false, true})
	b.Field(3).(*array.Date32Builder).AppendValues([]arrow.Date32{
		arrow.Date32FromTime(day),
		arrow.Date32FromTime(day.AddDate(0, 1, 0)),
		arrow.Date32FromTime(day.AddDate(1, 0, 0)),
	}, nil)

	rec := b.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec})
}

func TestNewFromArrowTable(t *testing.T) {
	tbl := sociosTable(t)
	defer tbl.Release()

	src, err := NewFromArrowTable(tbl)
	require.NoError(t, err)
	defer src.Release()

	assert.Equal(t, 3, src.RowCount())
	assert.Equal(t, 4, src.ColumnCount())

	name, err := src.ColumnName(1)
	require.NoError(t, err)
	assert.Equal(t, "numero", name)

	typ, err := src.ColumnType(3)
	require.NoError(t, err)
	assert.Equal(t, datatable.TypeDate, typ)

	v, err := src.Cell(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Raw)

	v, err = src.Cell(1, 2)
	require.NoError(t, err)
	assert.True(t, v.IsNull)

	v, err = src.Cell(0, 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", v.Formatted)

	_, err = src.Cell(5, 0)
	assert.ErrorIs(t, err, datatable.ErrInvalidRow)
	_, err = src.ColumnName(9)
	assert.ErrorIs(t, err, datatable.ErrInvalidColumn)

	assert.Equal(t, "arrow", src.Metadata()["source"])
}

func TestNewFromArrowTableNil(t *testing.T) {
	_, err := NewFromArrowTable(nil)
	assert.ErrorIs(t, err, datatable.ErrNoDataSource)
}

func TestSourceTableSortsTypedValues(t *testing.T) {
	tbl := sociosTable(t)
	defer tbl.Release()
	src, err := NewFromArrowTable(tbl)
	require.NoError(t, err)
	defer src.Release()

	grid, err := datatable.NewSourceTable(src, datatable.Options[datatable.Record]{})
	require.NoError(t, err)

	grid.ToggleSorting("cuota", false)
	grid.ToggleSorting("cuota", false)
	rows := grid.RowModel().Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "Zoe", rows[0].Text("nombre"))
	assert.Equal(t, "Luis", rows[1].Text("nombre"))
	assert.Equal(t, "Ana", rows[2].Text("nombre"))
}

func TestTake(t *testing.T) {
	tbl := sociosTable(t)
	defer tbl.Release()
	src, err := NewFromArrowTable(tbl)
	require.NoError(t, err)
	defer src.Release()

	out, err := src.Take([]int{2, 0}, []string{"numero", "nombre"})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, int64(2), out.NumRows())
	assert.Equal(t, "numero", out.Schema().Field(0).Name)
	assert.Equal(t, arrow.INT32, out.Schema().Field(0).Type.ID())

	back, err := NewFromArrowTable(out)
	require.NoError(t, err)
	defer back.Release()
	v, _ := back.Cell(0, 1)
	assert.Equal(t, "Luis", v.Formatted)
	v, _ = back.Cell(1, 0)
	assert.Equal(t, int64(3), v.Raw)

	_, err = src.Take([]int{0}, []string{"missing"})
	assert.ErrorIs(t, err, datatable.ErrColumnNotFound)
	_, err = src.Take([]int{7}, []string{"nombre"})
	assert.ErrorIs(t, err, datatable.ErrInvalidRow)
	_, err = src.Take(nil, []string{"nombre"})
	assert.ErrorIs(t, err, datatable.ErrExportFailed)
}

func TestToArrowTable(t *testing.T) {
	records := []datatable.Record{
		{datatable.NewValue("Ana", datatable.TypeString), datatable.NewValue(int64(4), datatable.TypeInt), datatable.NewValue(true, datatable.TypeBool)},
		{datatable.NewValue("Luis", datatable.TypeString), datatable.NewNullValue(datatable.TypeInt), datatable.NewValue(false, datatable.TypeBool)},
	}
	names := []string{"nombre", "numero", "activo"}
	types := []datatable.DataType{datatable.TypeString, datatable.TypeInt, datatable.TypeBool}

	out, err := ToArrowTable(names, types, records, []int{0, 1, 2})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, int64(2), out.NumRows())
	assert.Equal(t, arrow.INT64, out.Schema().Field(1).Type.ID())
	assert.Equal(t, 1, out.Column(1).NullN())

	_, err = ToArrowTable(names, types, records, []int{5})
	assert.ErrorIs(t, err, datatable.ErrInvalidColumn)
	_, err = ToArrowTable(names, types, nil, []int{0})
	assert.ErrorIs(t, err, datatable.ErrExportFailed)
}
