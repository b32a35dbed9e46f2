package windows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sociogrid/datatable"
)

type socio struct {
	Nombre string
	Ciudad string
	Cuota  float64
	Activo bool
}

func sociosGrid(t *testing.T) *datatable.Table[socio] {
	t.Helper()
	cols := []datatable.Column[socio]{
		datatable.NewColumn("nombre", "Nombre", func(s socio) any { return s.Nombre }),
		datatable.NewColumn("ciudad", "Ciudad", func(s socio) any { return s.Ciudad }),
		datatable.NewColumn("cuota", "Cuota", func(s socio) any { return s.Cuota }),
		datatable.NewColumn("activo", "Activo", func(s socio) any { return s.Activo }),
	}
	data := []socio{
		{"Ana", "Madrid", 25, true},
		{"Luis", "Sevilla", 10, false},
		{"José", "Madrid", 12.5, true},
		{"Marta", "Bilbao", 40, true},
	}
	ids := []string{"nombre", "ciudad", "cuota", "activo"}
	tbl, err := datatable.NewTable(cols, data, datatable.Options[socio]{
		GlobalFilterFn: QueryFilter[socio](NewQueryParser(ids), ids),
	})
	require.NoError(t, err)
	return tbl
}

func names(rows []datatable.Row[socio]) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Original.Nombre
	}
	return out
}

func TestParseQuery(t *testing.T) {
	qp := NewQueryParser([]string{"Nombre", "cuota"})

	q, err := qp.ParseQuery("  ")
	require.NoError(t, err)
	assert.Nil(t, q)

	q, err = qp.ParseQuery("nombre ~ an or CUOTA >= 10")
	require.NoError(t, err)
	require.Len(t, q.Expressions, 2)
	assert.Equal(t, Expression{ColumnID: "Nombre", Operator: OpContains, Value: "an"}, q.Expressions[0])
	assert.Equal(t, Expression{ColumnID: "cuota", Operator: OpGreaterEqual, Value: "10"}, q.Expressions[1])
	assert.Equal(t, []LogicalOp{LogicOR}, q.LogicOps)

	q, err = qp.ParseQuery(`nombre = "Ana Mar"`)
	require.NoError(t, err)
	assert.Equal(t, "Ana Mar", q.Expressions[0].Value)

	q, err = qp.ParseQuery("madrid")
	require.NoError(t, err)
	assert.Equal(t, Expression{Operator: OpContains, Value: "madrid"}, q.Expressions[0])
}

func TestParseQueryErrors(t *testing.T) {
	qp := NewQueryParser([]string{"nombre"})

	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"leading operator", "AND nombre = x", datatable.ErrInvalidFilter},
		{"trailing operator", "nombre = x OR", datatable.ErrInvalidFilter},
		{"double operator", "a AND OR b", datatable.ErrInvalidFilter},
		{"unknown column", "edad > 3", datatable.ErrColumnNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := qp.ParseQuery(tt.query)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQueryFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"ciudad = madrid", []string{"Ana", "José"}},
		{"ciudad = madrid AND cuota >= 20", []string{"Ana"}},
		{"cuota > 12 OR activo = false", []string{"Ana", "Luis", "Marta"}},
		{"cuota < 12.5", []string{"Luis"}},
		{"nombre ~ jose", []string{"José"}},
		{"ciudad != Madrid", []string{"Luis", "Marta"}},
		{"bilbao", []string{"Marta"}},
		{"edad > 3", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tbl := sociosGrid(t)
			tbl.SetGlobalFilter(tt.query)
			got := names(tbl.RowModel().Filtered)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryFilterTracksQueryChanges(t *testing.T) {
	tbl := sociosGrid(t)
	tbl.SetGlobalFilter("ciudad = sevilla")
	assert.Equal(t, []string{"Luis"}, names(tbl.RowModel().Filtered))

	tbl.SetGlobalFilter("ciudad = bilbao")
	assert.Equal(t, []string{"Marta"}, names(tbl.RowModel().Filtered))

	tbl.SetGlobalFilter("")
	assert.Len(t, tbl.RowModel().Filtered, 4)
}
