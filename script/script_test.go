package script

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sociogrid/datatable"
)

func TestCompileExpression(t *testing.T) {
	f, err := Compile(`strings.HasPrefix(fmt.Sprint(row["nombre"]), query)`)
	require.NoError(t, err)

	assert.True(t, f.Match(map[string]any{"nombre": "Ana"}, "nombre", "An"))
	assert.False(t, f.Match(map[string]any{"nombre": "Luis"}, "nombre", "An"))
	assert.NoError(t, f.Err())
}

func TestCompileFile(t *testing.T) {
	src := `package filter

func Match(row map[string]any, column string, query string) bool {
	return column == "estado" && row["estado"] == query
}
`
	f, err := Compile(src)
	require.NoError(t, err)
	assert.Equal(t, src, f.Source())

	row := map[string]any{"estado": "activo"}
	assert.True(t, f.Match(row, "estado", "activo"))
	assert.False(t, f.Match(row, "nombre", "activo"))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "empty", src: "   "},
		{name: "syntax", src: `row["nombre"] ==`},
		{name: "undefined name", src: `missing == query`},
		{name: "wrong package", src: "package main\n\nfunc Match(row map[string]any, column string, query string) bool { return true }\n"},
		{name: "no Match", src: "package filter\n\nfunc Other() bool { return true }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src)
			assert.ErrorIs(t, err, ErrCompile)
		})
	}
}

func TestPanickingScriptDoesNotMatch(t *testing.T) {
	f, err := Compile(`row["numero"].(string) == query`)
	require.NoError(t, err)

	assert.False(t, f.Match(map[string]any{"numero": int64(7)}, "numero", "7"))
	assert.Error(t, f.Err())
}

type socio struct {
	Name   string
	Status string
}

func TestGlobalFilterOnTable(t *testing.T) {
	cols := []datatable.Column[socio]{
		datatable.NewColumn[socio]("nombre", "Nombre", func(s socio) any { return s.Name }),
		datatable.NewColumn[socio]("estado", "Estado", func(s socio) any { return s.Status }),
	}
	data := []socio{
		{Name: "Ana", Status: "activo"},
		{Name: "Luis", Status: "baja"},
		{Name: "Marta", Status: "activo"},
	}

	f, err := Compile(`row["estado"] == query`)
	require.NoError(t, err)

	query := "activo"
	tbl, err := datatable.NewTable(cols, data, datatable.Options[socio]{
		GlobalFilter:         &query,
		OnGlobalFilterChange: func(string) {},
		GlobalFilterFn:       GlobalFilter[socio](f, ColumnIDs(cols)),
	})
	require.NoError(t, err)

	rows := tbl.RowModel().Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0].Original.Name)
	assert.Equal(t, "Marta", rows[1].Original.Name)
}

func TestGlobalFilterOnRecords(t *testing.T) {
	records := []datatable.Record{
		{datatable.NewValue("Ana", datatable.TypeString), datatable.NewValue(int64(30), datatable.TypeInt)},
		{datatable.NewValue("Luis", datatable.TypeString), datatable.NewValue(int64(10), datatable.TypeInt)},
	}
	cols := []datatable.Column[datatable.Record]{
		datatable.NewColumn[datatable.Record]("nombre", "nombre", func(r datatable.Record) any { return r[0].Raw }),
		datatable.NewColumn[datatable.Record]("cuota", "cuota", func(r datatable.Record) any { return r[1].Raw }),
	}

	f, err := Compile(`row["cuota"].(int64) > 20`)
	require.NoError(t, err)
	match := GlobalFilter[datatable.Record](f, ColumnIDs(cols))

	tbl, err := datatable.NewTable(cols, records, datatable.Options[datatable.Record]{GlobalFilterFn: match})
	require.NoError(t, err)
	tbl.SetGlobalFilter("x")

	rows := tbl.RowModel().Rows
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].Text("nombre"))
}

func TestErrorLine(t *testing.T) {
	file := "package filter\n\nfunc Match(row map[string]any, column string, query string) bool {\n\treturn missing\n}\n"
	tests := []struct {
		name string
		src  string
		err  error
		want int
	}{
		{name: "file", src: file, err: fmt.Errorf("%w: 4:9: undefined: missing", ErrCompile), want: 4},
		{name: "leading blank lines", src: "\n\n" + file, err: fmt.Errorf("%w: 4:9: undefined: missing", ErrCompile), want: 6},
		{name: "expression", src: "missing == query", err: fmt.Errorf("%w: 12:9: undefined: missing", ErrCompile), want: 1},
		{name: "outside source", src: file, err: fmt.Errorf("%w: 40:1: oops", ErrCompile), want: 0},
		{name: "no position", src: file, err: fmt.Errorf("%w: empty script", ErrCompile), want: 0},
		{name: "nil", src: file, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorLine(tt.src, tt.err))
		})
	}
}
