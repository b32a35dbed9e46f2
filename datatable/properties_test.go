package datatable

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func sociosNamed(names []string, statuses []string) []socio {
	out := make([]socio, len(names))
	for i, n := range names {
		s := ""
		if len(statuses) > 0 {
			s = statuses[i%len(statuses)]
		}
		out[i] = socio{Num: i, Name: n, Status: s}
	}
	return out
}

func TestFilteringIsMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	total := func(rows []socio, filters ColumnFilters, global any) int {
		return Run(PipelineInput[socio]{
			Rows:          rows,
			Columns:       socioColumns(),
			ColumnFilters: filters,
			GlobalFilter:  global,
			Pagination:    DefaultPagination(),
		}).Total
	}

	properties.Property("adding filters never grows the result", prop.ForAll(
		func(names, statuses []string, f1, f2, g string) bool {
			rows := sociosNamed(names, statuses)
			none := total(rows, nil, nil)
			one := total(rows, ColumnFilters{"name": f1}, nil)
			two := total(rows, ColumnFilters{"name": f1, "status": f2}, nil)
			all := total(rows, ColumnFilters{"name": f1, "status": f2}, g)
			return none == len(rows) && one <= none && two <= one && all <= two
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
		gen.OneConstOf("", "a", "an", "x"),
		gen.OneConstOf("", "b", "z"),
		gen.OneConstOf("", "o", "1"),
	))

	properties.TestingRun(t)
}

func TestSortIsStableForEqualKeys(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("equal keys keep dataset order", prop.ForAll(
		func(keys []int, desc bool) bool {
			rows := make([]socio, len(keys))
			for i, k := range keys {
				rows[i] = socio{Num: i, Status: strconv.Itoa(k)}
			}
			dir := SortAscending
			if desc {
				dir = SortDescending
			}
			m := Run(PipelineInput[socio]{
				Rows:       rows,
				Columns:    socioColumns(),
				Sorting:    []ColumnSort{{ColumnID: "status", Direction: dir}},
				Pagination: Pagination{PageIndex: 0, PageSize: len(rows) + 1},
			})
			for i := 1; i < len(m.Rows); i++ {
				a, b := m.Rows[i-1].Original, m.Rows[i].Original
				if a.Status == b.Status && a.Num > b.Num {
					return false
				}
			}
			return len(m.Rows) == len(rows)
		},
		gen.SliceOf(gen.IntRange(0, 3)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestWindowSize(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("window holds min(size, rest) rows", prop.ForAll(
		func(n, pageIndex int, size int) bool {
			m := Run(PipelineInput[socio]{
				Rows:       numberedSocios(n),
				Columns:    socioColumns(),
				Pagination: Pagination{PageIndex: pageIndex, PageSize: size},
			})
			want := max(0, min(size, n-pageIndex*size))
			if len(m.Rows) != want || m.Total != n {
				return false
			}
			return len(m.Rows) == 0 || m.Rows[0].Original.Num == pageIndex*size+1
		},
		gen.IntRange(0, 120),
		gen.IntRange(0, 15),
		gen.OneConstOf(10, 20, 50, 75),
	))

	properties.TestingRun(t)
}
