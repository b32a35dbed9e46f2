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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/dustin/go-humanize"

	arrowadapter "sociogrid/adapters/arrow"
	csvadapter "sociogrid/adapters/csv"
	sliceadapter "sociogrid/adapters/slice"
	"sociogrid/datatable"
	"sociogrid/internal/config"
)

// ErrUnsupportedFile is returned for files no adapter can read.
var ErrUnsupportedFile = errors.New("unsupported file type")

// FileType represents the type of data file
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeCSV
	FileTypeParquet
	FileTypeJSON
	FileTypeDeltaSharingProfile
)

func (f FileType) String() string {
	switch f {
	case FileTypeCSV:
		return "CSV"
	case FileTypeParquet:
		return "Parquet"
	case FileTypeJSON:
		return "JSON"
	case FileTypeDeltaSharingProfile:
		return "Delta Sharing profile"
	default:
		return "unknown"
	}
}

// DetectFileType determines the type of file based on extension and content
func DetectFileType(filePath string, content string) FileType {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv", ".tsv":
		return FileTypeCSV
	case ".parquet":
		return FileTypeParquet
	case ".json", ".share", ".txt":
		if isDeltaSharingProfile(content) {
			return FileTypeDeltaSharingProfile
		}
		return FileTypeJSON
	default:
		return FileTypeUnknown
	}
}

// isDeltaSharingProfile checks if the content looks like a Delta Sharing profile
func isDeltaSharingProfile(content string) bool {
	var profile map[string]any
	if err := json.Unmarshal([]byte(content), &profile); err != nil {
		return false
	}
	_, hasVersion := profile["shareCredentialsVersion"]
	_, hasEndpoint := profile["endpoint"]
	_, hasBearerToken := profile["bearerToken"]
	return hasVersion && hasEndpoint && hasBearerToken
}

// LoadedFile is a data file read into memory.
type LoadedFile struct {
	Path    string
	Type    FileType
	Source  datatable.DataSource
	Summary string
}

// Name is the base name of the file, used as tab title.
func (l *LoadedFile) Name() string { return filepath.Base(l.Path) }

// Release frees Arrow memory held by the source.
func (l *LoadedFile) Release() {
	if src, ok := l.Source.(*arrowadapter.Source); ok {
		src.Release()
	}
}

// OpenDataFile reads a CSV, Parquet or JSON file.
func OpenDataFile(filePath string, cfg config.CSVConfig) (*LoadedFile, error) {
	content := ""
	if ext := strings.ToLower(filepath.Ext(filePath)); ext == ".json" || ext == ".share" || ext == ".txt" {
		b, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		content = string(b)
	}

	fileType := DetectFileType(filePath, content)
	var (
		lf  *LoadedFile
		err error
	)
	switch fileType {
	case FileTypeCSV:
		lf, err = loadCSVFile(filePath, cfg)
	case FileTypeParquet:
		lf, err = loadParquetFile(filePath)
	case FileTypeJSON:
		lf, err = loadJSONFile(filePath, []byte(content))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(filePath))
	}
	if err != nil {
		return nil, err
	}
	lf.Path, lf.Type = filePath, fileType
	return lf, nil
}

func loadCSVFile(filePath string, cfg config.CSVConfig) (*LoadedFile, error) {
	separator := cfg.DelimiterRune()
	if separator == 0 {
		sep, err := csvadapter.DetectSeparator(filePath)
		if err != nil {
			return nil, err
		}
		separator = sep
	}

	csvCfg := csvadapter.DefaultConfig()
	csvCfg.HasHeaders = cfg.HasHeaders
	csvCfg.Delimiter = separator
	if cfg.NullValues != nil {
		csvCfg.NullValues = cfg.NullValues
	}

	src, err := csvadapter.NewFromFile(filePath, csvCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load CSV file: %w", err)
	}
	return &LoadedFile{
		Source: src,
		Summary: fmt.Sprintf("Loaded CSV file: %s (%s rows, %d columns, separator: %s)",
			filepath.Base(filePath), humanize.Comma(int64(src.RowCount())), src.ColumnCount(),
			csvadapter.SeparatorName(separator)),
	}, nil
}

func loadParquetFile(filePath string) (*LoadedFile, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	fileInfo, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	pf, err := file.NewParquetReader(f, file.WithReadProps(parquet.NewReaderProperties(memory.DefaultAllocator)))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := reader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	src, err := arrowadapter.NewFromArrowTable(table)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow data source: %w", err)
	}
	src.Annotate("path", filePath)
	return &LoadedFile{
		Source: src,
		Summary: fmt.Sprintf("Loaded Parquet file: %s (%s rows, %d columns, %s)",
			filepath.Base(filePath), humanize.Comma(int64(src.RowCount())), src.ColumnCount(),
			humanize.Bytes(uint64(fileInfo.Size()))),
	}, nil
}

func loadJSONFile(filePath string, content []byte) (*LoadedFile, error) {
	src, err := sliceadapter.NewFromJSON(content)
	if err != nil {
		return nil, fmt.Errorf("failed to create data source from JSON: %w", err)
	}
	return &LoadedFile{
		Source: src,
		Summary: fmt.Sprintf("Loaded JSON file: %s (%s rows, %d columns)",
			filepath.Base(filePath), humanize.Comma(int64(src.RowCount())), src.ColumnCount()),
	}, nil
}
