// Package slice adapts in-memory records, such as decoded JSON, to
// datatable.DataSource.
package slice

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"sociogrid/datatable"
)

// Source is a datatable.DataSource over a slice of maps.
type Source struct {
	names []string
	types []datatable.DataType
	rows  []datatable.Record
	meta  datatable.Metadata
}

var _ datatable.DataSource = (*Source)(nil)

// NewFromMaps builds a source from records keyed by column name. Columns
// are the union of all keys: those of the first record sorted by name,
// then keys first seen in later records. A column's type is the type of its
// first non-null value; integer columns holding fractions become float and
// columns mixing other types are shown as text.
func NewFromMaps(data []map[string]any) (*Source, error) {
	if len(data) == 0 {
		return nil, datatable.ErrEmptyData
	}

	var names []string
	index := map[string]int{}
	for _, rec := range data {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if _, ok := index[k]; !ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			index[k] = len(names)
			names = append(names, k)
		}
	}

	types := make([]datatable.DataType, len(names))
	known := make([]bool, len(names))
	for _, rec := range data {
		for k, v := range rec {
			if v == nil {
				continue
			}
			c := index[k]
			t := typeOf(v)
			switch {
			case !known[c]:
				types[c], known[c] = t, true
			case types[c] != t && numeric(types[c]) && numeric(t):
				types[c] = datatable.TypeFloat
			case types[c] != t:
				types[c] = datatable.TypeString
			}
		}
	}

	rows := make([]datatable.Record, len(data))
	for r, rec := range data {
		row := make(datatable.Record, len(names))
		for c, name := range names {
			row[c] = toValue(rec[name], types[c])
		}
		rows[r] = row
	}

	return &Source{
		names: names,
		types: types,
		rows:  rows,
		meta:  datatable.Metadata{"source": "slice"},
	}, nil
}

// NewFromJSON decodes a JSON array of objects, or a single object, and
// builds a source from it.
func NewFromJSON(content []byte) (*Source, error) {
	var data []map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		var single map[string]any
		if err := json.Unmarshal(content, &single); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		data = []map[string]any{single}
	}
	src, err := NewFromMaps(data)
	if err != nil {
		return nil, err
	}
	src.meta["source"] = "json"
	return src, nil
}

func typeOf(v any) datatable.DataType {
	switch x := v.(type) {
	case bool:
		return datatable.TypeBool
	case int, int32, int64:
		return datatable.TypeInt
	case float64:
		if x == float64(int64(x)) {
			return datatable.TypeInt
		}
		return datatable.TypeFloat
	case float32:
		return datatable.TypeFloat
	case map[string]any:
		return datatable.TypeStruct
	case []any:
		return datatable.TypeList
	default:
		return datatable.TypeString
	}
}

func numeric(t datatable.DataType) bool {
	return t == datatable.TypeInt || t == datatable.TypeFloat
}

func toValue(v any, t datatable.DataType) datatable.Value {
	if v == nil {
		return datatable.NewNullValue(t)
	}
	switch x := v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return datatable.NewValue(fmt.Sprint(x), t)
		}
		return datatable.Value{Raw: x, Type: t, Formatted: string(b)}
	case float64:
		if t == datatable.TypeInt && x == float64(int64(x)) {
			return datatable.NewValue(int64(x), t)
		}
	}
	return datatable.NewValue(v, t)
}

// Names returns the column names in display order.
func (s *Source) Names() []string { return slices.Clone(s.names) }

// RowCount implements datatable.DataSource.
func (s *Source) RowCount() int { return len(s.rows) }

// ColumnCount implements datatable.DataSource.
func (s *Source) ColumnCount() int { return len(s.names) }

// ColumnName implements datatable.DataSource.
func (s *Source) ColumnName(col int) (string, error) {
	if col < 0 || col >= len(s.names) {
		return "", datatable.ErrInvalidColumn
	}
	return s.names[col], nil
}

// ColumnType implements datatable.DataSource.
func (s *Source) ColumnType(col int) (datatable.DataType, error) {
	if col < 0 || col >= len(s.types) {
		return 0, datatable.ErrInvalidColumn
	}
	return s.types[col], nil
}

// Cell implements datatable.DataSource.
func (s *Source) Cell(row, col int) (datatable.Value, error) {
	if row < 0 || row >= len(s.rows) {
		return datatable.Value{}, datatable.ErrInvalidRow
	}
	if col < 0 || col >= len(s.names) {
		return datatable.Value{}, datatable.ErrInvalidColumn
	}
	return s.rows[row][col], nil
}

// Row implements datatable.DataSource.
func (s *Source) Row(row int) ([]datatable.Value, error) {
	if row < 0 || row >= len(s.rows) {
		return nil, datatable.ErrInvalidRow
	}
	return s.rows[row], nil
}

// Metadata implements datatable.DataSource.
func (s *Source) Metadata() datatable.Metadata { return s.meta }
