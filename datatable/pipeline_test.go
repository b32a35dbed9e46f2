package datatable

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socio struct {
	Num    int
	Name   string
	Email  string
	Status string
	Fee    any
}

func socioColumns() []Column[socio] {
	email := NewColumn("email", "Correo", func(s socio) any { return s.Email })
	email.Caps = CapHide
	return []Column[socio]{
		NewColumn("num", "Nº", func(s socio) any { return s.Num }),
		NewColumn("name", "Nombre", func(s socio) any { return s.Name }),
		email,
		NewColumn("status", "Estado", func(s socio) any { return s.Status }),
		NewColumn("fee", "Cuota", func(s socio) any { return s.Fee }),
	}
}

func numberedSocios(n int) []socio {
	out := make([]socio, n)
	for i := range out {
		out[i] = socio{
			Num:    i + 1,
			Name:   fmt.Sprintf("Socio %02d", i+1),
			Email:  fmt.Sprintf("socio%02d@club.es", i+1),
			Status: []string{"activo", "baja"}[i%2],
			Fee:    float64(10 * (i%3 + 1)),
		}
	}
	return out
}

func rowNums(rows []Row[socio]) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Original.Num
	}
	return out
}

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestRunWindowsPages(t *testing.T) {
	data := numberedSocios(25)

	tests := []struct {
		name      string
		pageIndex int
		want      []int
	}{
		{"first page", 0, seq(1, 10)},
		{"partial last page", 2, seq(21, 25)},
		{"past the end", 3, nil},
		{"negative index", -1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Run(PipelineInput[socio]{
				Rows:       data,
				Columns:    socioColumns(),
				Pagination: Pagination{PageIndex: tt.pageIndex, PageSize: 10},
			})
			assert.Equal(t, 25, m.Total)
			if diff := cmp.Diff(tt.want, rowNums(m.Rows), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("window mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunTotalIsPostFilterPrePagination(t *testing.T) {
	m := Run(PipelineInput[socio]{
		Rows:          numberedSocios(25),
		Columns:       socioColumns(),
		ColumnFilters: ColumnFilters{"status": "activo"},
		Pagination:    Pagination{PageIndex: 0, PageSize: 10},
	})
	assert.Equal(t, 13, m.Total)
	assert.Len(t, m.Rows, 10)
	assert.Len(t, m.Filtered, 13)
	assert.Equal(t, 2, m.PageCount())
}

func TestRunColumnFiltersAreConjunctive(t *testing.T) {
	data := []socio{
		{Num: 1, Name: "Ana", Status: "activo"},
		{Num: 2, Name: "Ana", Status: "baja"},
		{Num: 3, Name: "Luis", Status: "activo"},
	}
	m := Run(PipelineInput[socio]{
		Rows:          data,
		Columns:       socioColumns(),
		ColumnFilters: ColumnFilters{"name": "ana", "status": "activo"},
		Pagination:    DefaultPagination(),
	})
	assert.Equal(t, []int{1}, rowNums(m.Rows))
}

func TestRunFilterIgnoresAccentsAndCase(t *testing.T) {
	data := []socio{
		{Num: 1, Name: "José Núñez"},
		{Num: 2, Name: "Jose Nunez"},
		{Num: 3, Name: "María"},
	}
	m := Run(PipelineInput[socio]{
		Rows:          data,
		Columns:       socioColumns(),
		ColumnFilters: ColumnFilters{"name": "JOSE NUÑEZ"},
		Pagination:    DefaultPagination(),
	})
	assert.Equal(t, []int{1, 2}, rowNums(m.Rows))
}

func TestRunMalformedFiltersMatchNothing(t *testing.T) {
	data := numberedSocios(5)

	t.Run("unknown column", func(t *testing.T) {
		m := Run(PipelineInput[socio]{
			Rows:          data,
			Columns:       socioColumns(),
			ColumnFilters: ColumnFilters{"missing": "x"},
			Pagination:    DefaultPagination(),
		})
		assert.Zero(t, m.Total)
		assert.True(t, m.Empty())
	})

	t.Run("bad range", func(t *testing.T) {
		cols := socioColumns()
		cols[4].FilterFn = FilterInRange[socio]
		m := Run(PipelineInput[socio]{
			Rows:          data,
			Columns:       cols,
			ColumnFilters: ColumnFilters{"fee": "not a range"},
			Pagination:    DefaultPagination(),
		})
		assert.Zero(t, m.Total)
	})

	t.Run("empty value is inactive", func(t *testing.T) {
		m := Run(PipelineInput[socio]{
			Rows:          data,
			Columns:       socioColumns(),
			ColumnFilters: ColumnFilters{"name": ""},
			Pagination:    DefaultPagination(),
		})
		assert.Equal(t, 5, m.Total)
	})
}

func TestRunGlobalFilter(t *testing.T) {
	data := []socio{
		{Num: 1, Name: "Ana", Email: "zeta@club.es", Status: "activo"},
		{Num: 2, Name: "Zoe", Email: "zoe@club.es", Status: "baja"},
		{Num: 3, Name: "Luis", Email: "luis@club.es", Status: "activo"},
	}

	t.Run("default matches filterable columns only", func(t *testing.T) {
		m := Run(PipelineInput[socio]{
			Rows:         data,
			Columns:      socioColumns(),
			GlobalFilter: "ZE",
			Pagination:   DefaultPagination(),
		})
		// row 1 only matches through the non-filterable email column
		assert.Empty(t, rowNums(m.Rows))

		m = Run(PipelineInput[socio]{
			Rows:         data,
			Columns:      socioColumns(),
			GlobalFilter: "zo",
			Pagination:   DefaultPagination(),
		})
		assert.Equal(t, []int{2}, rowNums(m.Rows))
	})

	t.Run("applies after column filters", func(t *testing.T) {
		m := Run(PipelineInput[socio]{
			Rows:          data,
			Columns:       socioColumns(),
			ColumnFilters: ColumnFilters{"status": "activo"},
			GlobalFilter:  "an",
			Pagination:    DefaultPagination(),
		})
		assert.Equal(t, []int{1}, rowNums(m.Rows))
	})

	t.Run("custom function replaces the default", func(t *testing.T) {
		var seen []string
		m := Run(PipelineInput[socio]{
			Rows:         data,
			Columns:      socioColumns(),
			GlobalFilter: "anything",
			GlobalFilterFn: func(row Row[socio], columnID string, _ any) bool {
				seen = append(seen, columnID)
				return row.Original.Num == 3
			},
			Pagination: DefaultPagination(),
		})
		assert.Equal(t, []int{3}, rowNums(m.Rows))
		assert.NotContains(t, seen, "email")
	})
}

func TestRunSortIsStable(t *testing.T) {
	data := []socio{
		{Num: 1, Status: "baja"},
		{Num: 2, Status: "activo"},
		{Num: 3, Status: "baja"},
		{Num: 4, Status: "activo"},
		{Num: 5, Status: "activo"},
	}
	m := Run(PipelineInput[socio]{
		Rows:       data,
		Columns:    socioColumns(),
		Sorting:    []ColumnSort{{ColumnID: "status", Direction: SortAscending}},
		Pagination: DefaultPagination(),
	})
	assert.Equal(t, []int{2, 4, 5, 1, 3}, rowNums(m.Rows))

	m = Run(PipelineInput[socio]{
		Rows:       data,
		Columns:    socioColumns(),
		Sorting:    []ColumnSort{{ColumnID: "status", Direction: SortDescending}},
		Pagination: DefaultPagination(),
	})
	assert.Equal(t, []int{1, 3, 2, 4, 5}, rowNums(m.Rows))
}

func TestRunMultiKeySort(t *testing.T) {
	data := []socio{
		{Num: 1, Name: "Beatriz", Status: "baja"},
		{Num: 2, Name: "Ana", Status: "activo"},
		{Num: 3, Name: "Carlos", Status: "activo"},
		{Num: 4, Name: "Ana", Status: "baja"},
	}
	m := Run(PipelineInput[socio]{
		Rows:    data,
		Columns: socioColumns(),
		Sorting: []ColumnSort{
			{ColumnID: "status", Direction: SortDescending},
			{ColumnID: "name", Direction: SortAscending},
		},
		Pagination: DefaultPagination(),
	})
	assert.Equal(t, []int{4, 1, 2, 3}, rowNums(m.Rows))
}

func TestRunSortCollationAndTypes(t *testing.T) {
	t.Run("spanish collation", func(t *testing.T) {
		data := []socio{
			{Num: 1, Name: "oso"},
			{Num: 2, Name: "ñandú"},
			{Num: 3, Name: "nube"},
			{Num: 4, Name: "Álvaro"},
		}
		m := Run(PipelineInput[socio]{
			Rows:       data,
			Columns:    socioColumns(),
			Sorting:    []ColumnSort{{ColumnID: "name", Direction: SortAscending}},
			Pagination: DefaultPagination(),
		})
		assert.Equal(t, []int{4, 3, 2, 1}, rowNums(m.Rows))
	})

	t.Run("numbers compare numerically", func(t *testing.T) {
		data := []socio{{Num: 10}, {Num: 9}, {Num: 100}}
		m := Run(PipelineInput[socio]{
			Rows:       data,
			Columns:    socioColumns(),
			Sorting:    []ColumnSort{{ColumnID: "num", Direction: SortAscending}},
			Pagination: DefaultPagination(),
		})
		assert.Equal(t, []int{9, 10, 100}, rowNums(m.Rows))
	})

	t.Run("nil sorts last both ways", func(t *testing.T) {
		data := []socio{{Num: 1, Fee: nil}, {Num: 2, Fee: 5.0}, {Num: 3, Fee: 1.5}}
		for _, dir := range []SortDirection{SortAscending, SortDescending} {
			m := Run(PipelineInput[socio]{
				Rows:       data,
				Columns:    socioColumns(),
				Sorting:    []ColumnSort{{ColumnID: "fee", Direction: dir}},
				Pagination: DefaultPagination(),
			})
			assert.Equal(t, 1, m.Rows[2].Original.Num, dir.String())
		}
	})

	t.Run("unsortable columns are ignored", func(t *testing.T) {
		data := []socio{{Num: 1, Email: "b"}, {Num: 2, Email: "a"}}
		m := Run(PipelineInput[socio]{
			Rows:       data,
			Columns:    socioColumns(),
			Sorting:    []ColumnSort{{ColumnID: "email", Direction: SortAscending}},
			Pagination: DefaultPagination(),
		})
		assert.Equal(t, []int{1, 2}, rowNums(m.Rows))
	})
}

func TestRunNilPointers(t *testing.T) {
	alta := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	baja := time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)
	data := []socio{
		{Num: 1, Name: "Ana", Fee: (*time.Time)(nil)},
		{Num: 2, Name: "Luis", Fee: &alta},
		{Num: 3, Name: "Marta", Fee: &baja},
	}

	m := Run(PipelineInput[socio]{
		Rows:       data,
		Columns:    socioColumns(),
		Pagination: DefaultPagination(),
	})
	require.Len(t, m.Rows, 3)
	assert.Equal(t, "", m.Rows[0].Text("fee"))
	assert.Equal(t, "2024-03-01 00:00:00", m.Rows[1].Text("fee"))

	for _, dir := range []SortDirection{SortAscending, SortDescending} {
		m := Run(PipelineInput[socio]{
			Rows:       data,
			Columns:    socioColumns(),
			Sorting:    []ColumnSort{{ColumnID: "fee", Direction: dir}},
			Pagination: DefaultPagination(),
		})
		want := []int{3, 2, 1}
		if dir == SortDescending {
			want = []int{2, 3, 1}
		}
		assert.Equal(t, want, rowNums(m.Rows), dir.String())
	}

	m = Run(PipelineInput[socio]{
		Rows:         data,
		Columns:      socioColumns(),
		GlobalFilter: "2023",
		Pagination:   DefaultPagination(),
	})
	assert.Equal(t, []int{3}, rowNums(m.Rows))
}

func TestRunManualPagination(t *testing.T) {
	m := Run(PipelineInput[socio]{
		Rows:             numberedSocios(10),
		Columns:          socioColumns(),
		Pagination:       Pagination{PageIndex: 3, PageSize: 10},
		ManualPagination: true,
		RowCount:         42,
	})
	assert.Len(t, m.Rows, 10)
	assert.Equal(t, 42, m.Total)
	assert.Equal(t, 5, m.PageCount())
}

func TestRunRowIDs(t *testing.T) {
	m := Run(PipelineInput[socio]{
		Rows:       numberedSocios(3),
		Columns:    socioColumns(),
		Pagination: DefaultPagination(),
	})
	require.Len(t, m.Rows, 3)
	assert.Equal(t, "0", m.Rows[0].ID)

	m = Run(PipelineInput[socio]{
		Rows:       numberedSocios(3),
		Columns:    socioColumns(),
		GetRowID:   func(s socio, _ int) string { return s.Email },
		Pagination: DefaultPagination(),
	})
	assert.Equal(t, "socio01@club.es", m.Rows[0].ID)
	assert.Equal(t, "Socio 01", m.Rows[0].Text("name"))
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 3, PageCount(25, 10))
	assert.Equal(t, 0, PageCount(25, 0))
}
