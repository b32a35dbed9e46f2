package datatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSource struct {
	names []string
	types []DataType
	rows  []Record
}

func (m *memSource) RowCount() int    { return len(m.rows) }
func (m *memSource) ColumnCount() int { return len(m.names) }

func (m *memSource) ColumnName(col int) (string, error) {
	if col < 0 || col >= len(m.names) {
		return "", ErrInvalidColumn
	}
	return m.names[col], nil
}

func (m *memSource) ColumnType(col int) (DataType, error) {
	if col < 0 || col >= len(m.types) {
		return 0, ErrInvalidColumn
	}
	return m.types[col], nil
}

func (m *memSource) Cell(row, col int) (Value, error) {
	r, err := m.Row(row)
	if err != nil {
		return Value{}, err
	}
	if col < 0 || col >= len(r) {
		return Value{}, ErrInvalidColumn
	}
	return r[col], nil
}

func (m *memSource) Row(row int) ([]Value, error) {
	if row < 0 || row >= len(m.rows) {
		return nil, ErrInvalidRow
	}
	return m.rows[row], nil
}

func (m *memSource) Metadata() Metadata { return Metadata{} }

func TestNewSourceTable(t *testing.T) {
	src := &memSource{
		names: []string{"nombre", "cuota"},
		types: []DataType{TypeString, TypeFloat},
		rows: []Record{
			{NewValue("Zoe", TypeString), NewValue(30.0, TypeFloat)},
			{NewValue("Ana", TypeString), NewNullValue(TypeFloat)},
			{NewValue("Luis", TypeString), NewValue(9.5, TypeFloat)},
		},
	}

	tbl, err := NewSourceTable(src, Options[Record]{})
	require.NoError(t, err)
	require.Len(t, tbl.AllColumns(), 2)

	tbl.ToggleSorting("cuota", false)
	rows := tbl.RowModel().Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "Luis", rows[0].Text("nombre"))
	assert.Equal(t, "Zoe", rows[1].Text("nombre"))
	assert.Equal(t, "", rows[2].Text("cuota"))

	tbl.SetColumnFilter("nombre", "an")
	assert.Equal(t, 1, tbl.Total())
}

func TestSourceHelpersRejectNil(t *testing.T) {
	_, err := SourceColumns(nil)
	assert.ErrorIs(t, err, ErrNoDataSource)
	_, err = SourceRecords(nil)
	assert.ErrorIs(t, err, ErrNoDataSource)
}
