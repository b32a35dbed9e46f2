package remote

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	arrowadapter "sociogrid/adapters/arrow"
	"sociogrid/datatable"
)

// ArrowSource serves pages sliced out of an Arrow table. Only the rows of
// the requested page are converted.
type ArrowSource struct {
	table arrow.Table
	names []string
	types []datatable.DataType
}

// NewArrowSource retains tbl until Release.
func NewArrowSource(tbl arrow.Table) (*ArrowSource, error) {
	if tbl == nil {
		return nil, datatable.ErrNoDataSource
	}
	schema := tbl.Schema()
	s := &ArrowSource{
		table: tbl,
		names: make([]string, schema.NumFields()),
		types: make([]datatable.DataType, schema.NumFields()),
	}
	for i, f := range schema.Fields() {
		s.names[i] = f.Name
		s.types[i] = arrowadapter.DataTypeOf(f.Type)
	}
	tbl.Retain()
	return s, nil
}

// Release drops the reference taken by NewArrowSource.
func (s *ArrowSource) Release() {
	if s.table != nil {
		s.table.Release()
		s.table = nil
	}
}

// Total returns the number of rows in the table.
func (s *ArrowSource) Total() int {
	if s.table == nil {
		return 0
	}
	return int(s.table.NumRows())
}

// FetchPage implements PageSource. A page past the end is empty.
func (s *ArrowSource) FetchPage(ctx context.Context, p datatable.Pagination) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if s.table == nil {
		return Page{}, datatable.ErrNoDataSource
	}
	if p.PageIndex < 0 || p.PageSize <= 0 {
		return Page{}, fmt.Errorf("%w: page %d of size %d", datatable.ErrInvalidPageSize, p.PageIndex, p.PageSize)
	}

	page := Page{Names: s.names, Types: s.types, Total: s.Total(), Pagination: p}
	start := int64(p.PageIndex) * int64(p.PageSize)
	if start >= s.table.NumRows() {
		return page, nil
	}
	end := min(start+int64(p.PageSize), s.table.NumRows())

	cols := make([]arrow.Column, s.table.NumCols())
	for i := range cols {
		col := array.NewColumnSlice(s.table.Column(i), start, end)
		cols[i] = *col
	}
	slice := array.NewTable(s.table.Schema(), cols, end-start)
	for i := range cols {
		cols[i].Release()
	}
	defer slice.Release()

	src, err := arrowadapter.NewFromArrowTable(slice)
	if err != nil {
		return Page{}, err
	}
	defer src.Release()

	page.Records, err = datatable.SourceRecords(src)
	if err != nil {
		return Page{}, err
	}
	return page, nil
}
