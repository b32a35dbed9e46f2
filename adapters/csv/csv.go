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

// Package csv loads delimited text files into a datatable.DataSource using
// Arrow's CSV reader.
package csv

import (
	"bufio"
	"bytes"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	arrowadapter "sociogrid/adapters/arrow"
	"sociogrid/datatable"
)

// Config controls how a CSV file is read.
type Config struct {
	// HasHeaders treats the first line as column names.
	HasHeaders bool

	// TrimSpace removes leading and trailing blanks from every field.
	TrimSpace bool

	// Delimiter separates fields. Zero means DetectSeparator is used.
	Delimiter rune

	// NullValues are the field values read as null.
	NullValues []string

	// ChunkSize is the number of rows per Arrow record batch.
	ChunkSize int
}

// DefaultConfig returns the settings used by the file loader.
func DefaultConfig() Config {
	return Config{
		HasHeaders: true,
		TrimSpace:  true,
		Delimiter:  ',',
		NullValues: []string{"", "NULL", "null", "NA"},
		ChunkSize:  4096,
	}
}

// NewFromFile reads a whole CSV file. Column types are inferred from the
// first data row; when a later row does not fit, every column is read as text.
func NewFromFile(path string, cfg Config) (*arrowadapter.Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = detect(firstLine(content))
	}
	src, err := NewFromBytes(content, cfg)
	if err != nil {
		return nil, err
	}
	src.Annotate("path", path)
	return src, nil
}

// NewFromBytes reads CSV content held in memory.
func NewFromBytes(content []byte, cfg Config) (*arrowadapter.Source, error) {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = detect(firstLine(content))
	}
	if cfg.TrimSpace {
		trimmed, err := trimFields(content, cfg.Delimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		content = trimmed
	}

	if !cfg.HasHeaders {
		content, err := withGeneratedHeader(content, cfg.Delimiter)
		if err != nil {
			return nil, err
		}
		return NewFromBytes(content, Config{
			HasHeaders: true,
			Delimiter:  cfg.Delimiter,
			NullValues: cfg.NullValues,
			ChunkSize:  cfg.ChunkSize,
		})
	}

	tbl, err := readInferred(content, cfg)
	if err != nil {
		tbl, err = readAsText(content, cfg)
		if err != nil {
			return nil, err
		}
	}
	defer tbl.Release()

	src, err := arrowadapter.NewFromArrowTable(tbl)
	if err != nil {
		return nil, err
	}
	src.Annotate("source", "csv")
	src.Annotate("separator", SeparatorName(cfg.Delimiter))
	return src, nil
}

func options(cfg Config) []arrowcsv.Option {
	chunk := cfg.ChunkSize
	if chunk == 0 {
		chunk = -1
	}
	return []arrowcsv.Option{
		arrowcsv.WithComma(cfg.Delimiter),
		arrowcsv.WithHeader(cfg.HasHeaders),
		arrowcsv.WithNullReader(true, cfg.NullValues...),
		arrowcsv.WithChunk(chunk),
		arrowcsv.WithLazyQuotes(true),
		arrowcsv.WithAllocator(memory.NewGoAllocator()),
	}
}

func readInferred(content []byte, cfg Config) (arrow.Table, error) {
	r := arrowcsv.NewInferringReader(bytes.NewReader(content), options(cfg)...)
	defer r.Release()
	return collect(r)
}

// readAsText reads every column as a nullable string.
func readAsText(content []byte, cfg Config) (arrow.Table, error) {
	header, err := headerNames(content, cfg)
	if err != nil {
		return nil, err
	}
	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	r := arrowcsv.NewReader(bytes.NewReader(content), arrow.NewSchema(fields, nil), options(cfg)...)
	defer r.Release()
	return collect(r)
}

func collect(r *arrowcsv.Reader) (arrow.Table, error) {
	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for r.Next() {
		rec := r.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if r.Schema() == nil {
		return nil, datatable.ErrEmptyData
	}
	return array.NewTableFromRecords(r.Schema(), recs), nil
}

func headerNames(content []byte, cfg Config) ([]string, error) {
	cr := stdcsv.NewReader(bytes.NewReader(content))
	cr.Comma = cfg.Delimiter
	cr.LazyQuotes = true
	first, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, datatable.ErrEmptyData
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if cfg.HasHeaders {
		return first, nil
	}
	return generatedNames(len(first)), nil
}

func generatedNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
	}
	return names
}

// withGeneratedHeader prepends f0, f1, ... column names. The inferring
// reader would otherwise spend the first data row on column names.
func withGeneratedHeader(content []byte, sep rune) ([]byte, error) {
	names, err := headerNames(content, Config{Delimiter: sep})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	cw := stdcsv.NewWriter(&buf)
	cw.Comma = sep
	if err := cw.Write(names); err != nil {
		return nil, err
	}
	cw.Flush()
	buf.Write(content)
	return buf.Bytes(), cw.Error()
}

// trimFields rewrites content with surrounding blanks removed from each field.
func trimFields(content []byte, sep rune) ([]byte, error) {
	cr := stdcsv.NewReader(bytes.NewReader(content))
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var buf bytes.Buffer
	cw := stdcsv.NewWriter(&buf)
	cw.Comma = sep
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if err := cw.Write(rec); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func firstLine(content []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(content))
	if sc.Scan() {
		return sc.Text()
	}
	return ""
}

var separators = []rune{',', ';', '\t', '|'}

func detect(line string) rune {
	best, bestCount := ',', 0
	for _, sep := range separators {
		if n := strings.Count(line, string(sep)); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

// DetectSeparator guesses the field separator from the first line of a
// file. Comma wins ties and is the fallback.
func DetectSeparator(path string) (rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return ',', fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return ',', sc.Err()
	}
	return detect(sc.Text()), nil
}

// SeparatorName returns a human-readable name for the separator.
func SeparatorName(sep rune) string {
	switch sep {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	case '|':
		return "pipe"
	default:
		return string(sep)
	}
}
