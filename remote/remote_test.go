package remote

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sociogrid/datatable"
)

func numbersTable(t *testing.T, n int) arrow.Table {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "numero", Type: arrow.PrimitiveTypes.Int64},
		{Name: "nombre", Type: arrow.BinaryTypes.String},
	}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	for i := 1; i <= n; i++ {
		b.Field(0).(*array.Int64Builder).Append(int64(i))
		b.Field(1).(*array.StringBuilder).Append(fmt.Sprintf("socio %d", i))
	}
	rec := b.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec})
}

func numbers(page Page) []int64 {
	out := make([]int64, len(page.Records))
	for i, r := range page.Records {
		out[i] = r[0].Raw.(int64)
	}
	return out
}

func TestArrowSourceFetchPage(t *testing.T) {
	tbl := numbersTable(t, 5)
	defer tbl.Release()
	src, err := NewArrowSource(tbl)
	require.NoError(t, err)
	defer src.Release()

	ctx := context.Background()
	page, err := src.FetchPage(ctx, datatable.Pagination{PageIndex: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, []string{"numero", "nombre"}, page.Names)
	if diff := cmp.Diff([]int64{3, 4}, numbers(page)); diff != "" {
		t.Errorf("page rows (-want +got):\n%s", diff)
	}

	page, err = src.FetchPage(ctx, datatable.Pagination{PageIndex: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, numbers(page))

	page, err = src.FetchPage(ctx, datatable.Pagination{PageIndex: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Records)

	_, err = src.FetchPage(ctx, datatable.Pagination{PageIndex: 0, PageSize: 0})
	assert.ErrorIs(t, err, datatable.ErrInvalidPageSize)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.FetchPage(cancelled, datatable.Pagination{PageIndex: 0, PageSize: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewArrowSourceNil(t *testing.T) {
	_, err := NewArrowSource(nil)
	assert.ErrorIs(t, err, datatable.ErrNoDataSource)
}

// queue collects deliveries so the test goroutine can run them, the way a
// UI event loop would.
type queue chan func()

func (q queue) schedule(fn func()) { q <- fn }

func (q queue) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q:
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery")
	}
}

func TestPagerFeedsTable(t *testing.T) {
	tbl := numbersTable(t, 5)
	defer tbl.Release()
	src, err := NewArrowSource(tbl)
	require.NoError(t, err)
	defer src.Release()

	q := make(queue, 4)
	pager := NewPager(src, Config{
		Initial:  datatable.Pagination{PageIndex: 0, PageSize: 2},
		Schedule: q.schedule,
		Options:  datatable.Options[datatable.Record]{PageSizes: []int{2, 4}},
	})
	var pages []datatable.Pagination
	pager.OnPage(func(p Page) { pages = append(pages, p.Pagination) })

	assert.Nil(t, pager.Table())
	pager.Start()
	assert.True(t, pager.Loading())
	q.runNext(t)
	assert.False(t, pager.Loading())

	grid := pager.Table()
	require.NotNil(t, grid)
	assert.Equal(t, datatable.External, grid.PaginationOwner())
	assert.Equal(t, "1-2 de 5 resultados.", grid.Caption(datatable.DefaultMessages()))
	assert.Equal(t, 3, grid.PageCount())

	before := grid.Recomputations()
	grid.NextPage()
	assert.Equal(t, before, grid.Recomputations(), "request alone changes nothing")
	assert.Equal(t, 0, grid.Pagination().PageIndex)

	q.runNext(t)
	assert.Equal(t, before+1, grid.Recomputations())
	assert.Equal(t, 1, grid.Pagination().PageIndex)
	assert.Equal(t, "socio 3", grid.RowModel().Rows[0].Text("nombre"))

	grid.SetPageSize(4)
	q.runNext(t)
	assert.Equal(t, datatable.Pagination{PageIndex: 0, PageSize: 4}, grid.Pagination())
	assert.Len(t, grid.RowModel().Rows, 4)

	assert.Equal(t, []datatable.Pagination{
		{PageIndex: 0, PageSize: 2},
		{PageIndex: 1, PageSize: 2},
		{PageIndex: 0, PageSize: 4},
	}, pages)
}

func TestPagerKeepsGlobalFilterFnAcrossPages(t *testing.T) {
	tbl := numbersTable(t, 5)
	defer tbl.Release()
	src, err := NewArrowSource(tbl)
	require.NoError(t, err)
	defer src.Release()

	q := make(queue, 2)
	pager := NewPager(src, Config{
		Initial:  datatable.Pagination{PageIndex: 0, PageSize: 2},
		Schedule: q.schedule,
		Options:  datatable.Options[datatable.Record]{PageSizes: []int{2}},
	})
	require.NoError(t, pager.SetGlobalFilterFn(nil))
	pager.Start()
	q.runNext(t)

	grid := pager.Table()
	require.NoError(t, pager.SetGlobalFilterFn(func(row datatable.Row[datatable.Record], _ string, v any) bool {
		return row.Text("nombre") == "socio 4"
	}))
	grid.SetGlobalFilter("4")
	assert.Empty(t, grid.RowModel().Filtered)

	grid.NextPage()
	q.runNext(t)
	require.Len(t, grid.RowModel().Filtered, 1)
	assert.Equal(t, "socio 4", grid.RowModel().Filtered[0].Text("nombre"))
}

func TestPagerDropsStaleResponses(t *testing.T) {
	release := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	src := PageSourceFunc(func(ctx context.Context, p datatable.Pagination) (Page, error) {
		<-release[p.PageIndex]
		return Page{
			Names:   []string{"numero"},
			Types:   []datatable.DataType{datatable.TypeInt},
			Records: []datatable.Record{{datatable.NewValue(int64(p.PageIndex), datatable.TypeInt)}},
			Total:   30,
		}, nil
	})

	q := make(queue, 4)
	pager := NewPager(src, Config{Schedule: q.schedule})
	var accepted []int
	pager.OnPage(func(p Page) { accepted = append(accepted, p.Pagination.PageIndex) })

	pager.Request(datatable.Pagination{PageIndex: 1, PageSize: 10})
	pager.Request(datatable.Pagination{PageIndex: 2, PageSize: 10})

	close(release[1])
	q.runNext(t)
	close(release[2])
	q.runNext(t)

	assert.Equal(t, []int{2}, accepted)
	assert.Equal(t, datatable.Pagination{PageIndex: 2, PageSize: 10}, pager.Pagination())
}

func TestPagerKeepsPaginationOnError(t *testing.T) {
	boom := errors.New("boom")
	src := PageSourceFunc(func(context.Context, datatable.Pagination) (Page, error) {
		return Page{}, boom
	})

	q := make(queue, 1)
	pager := NewPager(src, Config{Schedule: q.schedule})
	var got error
	pager.OnError(func(err error) { got = err })

	pager.Request(datatable.Pagination{PageIndex: 3, PageSize: 10})
	q.runNext(t)

	assert.ErrorIs(t, got, boom)
	assert.Equal(t, datatable.DefaultPagination(), pager.Pagination())
	assert.Nil(t, pager.Table())
}

func TestPagerClose(t *testing.T) {
	src := PageSourceFunc(func(ctx context.Context, p datatable.Pagination) (Page, error) {
		<-ctx.Done()
		return Page{}, ctx.Err()
	})
	q := make(queue, 1)
	pager := NewPager(src, Config{Schedule: q.schedule})
	called := false
	pager.OnError(func(error) { called = true })

	pager.Start()
	pager.Close()
	q.runNext(t)
	assert.False(t, called)

	pager.Request(datatable.Pagination{PageIndex: 1, PageSize: 10})
	assert.Empty(t, q)
}

func TestPickFile(t *testing.T) {
	_, err := pickFile(nil, "")
	assert.ErrorIs(t, err, ErrNoFiles)

	id, err := pickFile([]string{"a", "b"}, "")
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	id, err = pickFile([]string{"a", "b"}, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", id)

	_, err = pickFile([]string{"a"}, "z")
	assert.ErrorIs(t, err, ErrNoFiles)
}
