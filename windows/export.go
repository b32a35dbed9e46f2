// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package windows

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	arrowadapter "sociogrid/adapters/arrow"
	"sociogrid/datatable"
)

// ExportFormat represents the supported export formats
type ExportFormat int

const (
	FormatParquet ExportFormat = iota
	FormatCSV
	FormatJSON
)

func (f ExportFormat) String() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatJSON:
		return "JSON"
	default:
		return "Parquet"
	}
}

// Extension returns the file extension, with the leading dot.
func (f ExportFormat) Extension() string {
	return "." + strings.ToLower(f.String())
}

// FormatFromPath picks the export format from a file extension.
func FormatFromPath(path string) (ExportFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("%w: unsupported extension %q", datatable.ErrExportFailed, filepath.Ext(path))
}

// Export writes table to filePath in the format its extension names.
func Export(table arrow.Table, filePath string) error {
	format, err := FormatFromPath(filePath)
	if err != nil {
		return err
	}
	switch format {
	case FormatCSV:
		return ExportToCSV(table, filePath)
	case FormatJSON:
		return ExportToJSON(table, filePath)
	default:
		return ExportToParquet(table, filePath)
	}
}

// ExportRows builds the Arrow table to export from a grid: its filtered
// rows in display order, or only the selected ones, restricted to the
// visible columns. Arrow-backed sources keep their column types.
func ExportRows(grid *datatable.Table[datatable.Record], ds datatable.DataSource, selectedOnly bool) (arrow.Table, error) {
	if ds == nil {
		return nil, datatable.ErrNoDataSource
	}
	rows := grid.RowModel().Filtered
	if selectedOnly {
		rows = grid.FilteredSelectedRows()
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to export", datatable.ErrExportFailed)
	}

	var ids []string
	for _, c := range grid.VisibleColumns() {
		ids = append(ids, c.ID)
	}

	if src, ok := ds.(*arrowadapter.Source); ok && src.Table() != nil && !grid.Options().ManualPagination {
		indices := make([]int, len(rows))
		for i, r := range rows {
			indices[i] = r.Index
		}
		return src.Take(indices, ids)
	}

	names := make([]string, ds.ColumnCount())
	types := make([]datatable.DataType, ds.ColumnCount())
	position := make(map[string]int, len(names))
	for i := range names {
		name, err := ds.ColumnName(i)
		if err != nil {
			return nil, err
		}
		typ, err := ds.ColumnType(i)
		if err != nil {
			return nil, err
		}
		names[i], types[i], position[name] = name, typ, i
	}
	columns := make([]int, 0, len(ids))
	for _, id := range ids {
		i, ok := position[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", datatable.ErrColumnNotFound, id)
		}
		columns = append(columns, i)
	}
	records := make([]datatable.Record, len(rows))
	for i, r := range rows {
		records[i] = r.Original
	}
	return arrowadapter.ToArrowTable(names, types, records, columns)
}

// ExportToParquet exports the Arrow table to a Parquet file
func ExportToParquet(table arrow.Table, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(table.Schema(), file, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.WriteTable(table, table.NumRows()); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}
	return writer.Close()
}

// ExportToCSV exports the Arrow table to a CSV file with a header line.
// Nulls are written as empty fields.
func ExportToCSV(table arrow.Table, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := arrowcsv.NewWriter(file, table.Schema(),
		arrowcsv.WithHeader(true),
		arrowcsv.WithNullWriter(""),
	)

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()
	for tr.Next() {
		if err := w.Write(tr.Record()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	if err := tr.Err(); err != nil {
		return fmt.Errorf("error reading table: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return w.Error()
}

// ExportToJSON exports the Arrow table as an indented JSON array of objects.
func ExportToJSON(table arrow.Table, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()

	fields := table.Schema().Fields()
	records := make([]map[string]any, 0, table.NumRows())
	for tr.Next() {
		rec := tr.Record()
		for row := 0; row < int(rec.NumRows()); row++ {
			record := make(map[string]any, len(fields))
			for col, arr := range rec.Columns() {
				record[fields[col].Name] = arr.GetOneForMarshal(row)
			}
			records = append(records, record)
		}
	}
	if err := tr.Err(); err != nil {
		return fmt.Errorf("error reading table: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// cleanFilename makes a name safe for use as a file name.
func cleanFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	return replacer.Replace(name)
}
