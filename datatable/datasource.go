package datatable

import "fmt"

// DataSource provides read-only access to tabular data.
// Implementations must be thread-safe for concurrent reads.
// All methods should return errors rather than panic.
type DataSource interface {
	// RowCount returns the total number of rows in the data source.
	RowCount() int

	// ColumnCount returns the total number of columns in the data source.
	ColumnCount() int

	// ColumnName returns the name of the column at the given index.
	// Returns ErrInvalidColumn if col is out of range.
	ColumnName(col int) (string, error)

	// ColumnType returns the data type of the column at the given index.
	// Returns ErrInvalidColumn if col is out of range.
	ColumnType(col int) (DataType, error)

	// Cell returns the value at the specified row and column.
	// Returns ErrInvalidRow if row is out of range.
	// Returns ErrInvalidColumn if col is out of range.
	Cell(row, col int) (Value, error)

	// Row returns all values for the specified row.
	// Returns ErrInvalidRow if row is out of range.
	Row(row int) ([]Value, error)

	// Metadata returns optional metadata about the data source.
	// Returns an empty Metadata map if no metadata is available.
	Metadata() Metadata
}

// SourceRecords reads every row of ds into memory.
func SourceRecords(ds DataSource) ([]Record, error) {
	if ds == nil {
		return nil, ErrNoDataSource
	}
	records := make([]Record, ds.RowCount())
	for i := range records {
		row, err := ds.Row(i)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records[i] = row
	}
	return records, nil
}

// SourceColumns derives one column per DataSource column. The accessor
// yields the raw value, or nil for nulls, so that sorting places nulls last
// and compares numbers numerically; the cell shows the formatted text.
func SourceColumns(ds DataSource) ([]Column[Record], error) {
	if ds == nil {
		return nil, ErrNoDataSource
	}
	cols := make([]Column[Record], 0, ds.ColumnCount())
	for i := 0; i < ds.ColumnCount(); i++ {
		name, err := ds.ColumnName(i)
		if err != nil {
			return nil, err
		}
		idx := i
		cols = append(cols, Column[Record]{
			ID:     name,
			Header: name,
			Accessor: func(r Record) any {
				if idx >= len(r) || r[idx].IsNull {
					return nil
				}
				return r[idx].Raw
			},
			Cell: func(r Record) string {
				if idx >= len(r) {
					return ""
				}
				return r[idx].Formatted
			},
			Caps: CapAll,
		})
	}
	return cols, nil
}

// NewSourceTable builds a Table over every row of a DataSource.
func NewSourceTable(ds DataSource, opts Options[Record]) (*Table[Record], error) {
	cols, err := SourceColumns(ds)
	if err != nil {
		return nil, err
	}
	records, err := SourceRecords(ds)
	if err != nil {
		return nil, err
	}
	return NewTable(cols, records, opts)
}
