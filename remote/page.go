// Package remote serves table pages from sources the table does not hold
// in memory. A Pager owns the pagination state of a table and fetches the
// requested page before handing it, and the accepted pagination, back.
package remote

import (
	"context"

	"sociogrid/datatable"
)

// Page is one page of rows. It is itself a datatable.DataSource, so its
// columns can be derived with datatable.SourceColumns.
type Page struct {
	Names   []string
	Types   []datatable.DataType
	Records []datatable.Record

	// Total is the number of rows in the whole source.
	Total int

	// Pagination is the page that was served.
	Pagination datatable.Pagination
}

var _ datatable.DataSource = Page{}

// PageSource fetches pages. Implementations must be safe to call from a
// goroutine other than the one that owns the table.
type PageSource interface {
	FetchPage(ctx context.Context, p datatable.Pagination) (Page, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, p datatable.Pagination) (Page, error)

// FetchPage implements PageSource.
func (f PageSourceFunc) FetchPage(ctx context.Context, p datatable.Pagination) (Page, error) {
	return f(ctx, p)
}

// RowCount implements datatable.DataSource.
func (p Page) RowCount() int { return len(p.Records) }

// ColumnCount implements datatable.DataSource.
func (p Page) ColumnCount() int { return len(p.Names) }

// ColumnName implements datatable.DataSource.
func (p Page) ColumnName(col int) (string, error) {
	if col < 0 || col >= len(p.Names) {
		return "", datatable.ErrInvalidColumn
	}
	return p.Names[col], nil
}

// ColumnType implements datatable.DataSource.
func (p Page) ColumnType(col int) (datatable.DataType, error) {
	if col < 0 || col >= len(p.Types) {
		return 0, datatable.ErrInvalidColumn
	}
	return p.Types[col], nil
}

// Cell implements datatable.DataSource.
func (p Page) Cell(row, col int) (datatable.Value, error) {
	if row < 0 || row >= len(p.Records) {
		return datatable.Value{}, datatable.ErrInvalidRow
	}
	if col < 0 || col >= len(p.Records[row]) {
		return datatable.Value{}, datatable.ErrInvalidColumn
	}
	return p.Records[row][col], nil
}

// Row implements datatable.DataSource.
func (p Page) Row(row int) ([]datatable.Value, error) {
	if row < 0 || row >= len(p.Records) {
		return nil, datatable.ErrInvalidRow
	}
	return p.Records[row], nil
}

// Metadata implements datatable.DataSource.
func (p Page) Metadata() datatable.Metadata {
	return datatable.Metadata{
		"source":     "remote",
		"total":      p.Total,
		"page_index": p.Pagination.PageIndex,
		"page_size":  p.Pagination.PageSize,
	}
}
