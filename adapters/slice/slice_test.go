package slice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sociogrid/datatable"
)

func TestNewFromJSON(t *testing.T) {
	src, err := NewFromJSON([]byte(`[
		{"nombre": "Ana", "cuota": 30, "activo": true},
		{"nombre": "Luis", "cuota": 12.5, "activo": false, "notas": {"a": 1}},
		{"nombre": null, "cuota": 7, "activo": "si"}
	]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"activo", "cuota", "nombre", "notas"}, src.Names())
	assert.Equal(t, 3, src.RowCount())

	typ, _ := src.ColumnType(0)
	assert.Equal(t, datatable.TypeString, typ, "mixed bool and text")
	typ, _ = src.ColumnType(1)
	assert.Equal(t, datatable.TypeFloat, typ)
	typ, _ = src.ColumnType(3)
	assert.Equal(t, datatable.TypeStruct, typ)

	v, _ := src.Cell(1, 3)
	assert.Equal(t, `{"a":1}`, v.Formatted)
	v, _ = src.Cell(2, 2)
	assert.True(t, v.IsNull)
	v, _ = src.Cell(0, 3)
	assert.True(t, v.IsNull)
	v, _ = src.Cell(0, 1)
	assert.Equal(t, "30", v.Formatted)

	assert.Equal(t, "json", src.Metadata()["source"])
}

func TestNewFromJSONSingleObject(t *testing.T) {
	src, err := NewFromJSON([]byte(`{"id": 4, "nombre": "Eva"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, src.RowCount())

	typ, _ := src.ColumnType(0)
	assert.Equal(t, datatable.TypeInt, typ)
	v, _ := src.Cell(0, 0)
	assert.Equal(t, int64(4), v.Raw)
}

func TestNewFromMapsErrors(t *testing.T) {
	_, err := NewFromMaps(nil)
	assert.ErrorIs(t, err, datatable.ErrEmptyData)

	_, err = NewFromJSON([]byte(`not json`))
	assert.Error(t, err)

	src, err := NewFromMaps([]map[string]any{{"a": 1}})
	require.NoError(t, err)
	_, err = src.Row(3)
	assert.ErrorIs(t, err, datatable.ErrInvalidRow)
	_, err = src.Cell(0, 4)
	assert.ErrorIs(t, err, datatable.ErrInvalidColumn)
}
