package datatable

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes text for case- and accent-insensitive matching:
// "José" and "JOSE" fold to the same string.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Range is an inclusive numeric range for FilterInRange. A nil bound is open.
type Range struct {
	Min any
	Max any
}

// FilterIncludes matches when the column text contains the filter text,
// ignoring case and accents.
func FilterIncludes[R any](row Row[R], columnID string, filterValue any) bool {
	text, ok := columnSearchText(row, columnID)
	if !ok {
		return false
	}
	return strings.Contains(Fold(text), Fold(Stringify(filterValue)))
}

// FilterIncludesSensitive matches when the column text contains the filter text exactly.
func FilterIncludesSensitive[R any](row Row[R], columnID string, filterValue any) bool {
	text, ok := columnSearchText(row, columnID)
	if !ok {
		return false
	}
	return strings.Contains(text, Stringify(filterValue))
}

// FilterEquals matches when the column value equals the filter value.
// Numbers compare numerically, everything else by folded text.
func FilterEquals[R any](row Row[R], columnID string, filterValue any) bool {
	v, ok := row.Value(columnID)
	if !ok {
		return false
	}
	return valuesEqual(v, filterValue)
}

// FilterOneOf matches when the column value equals any element of a slice filter value.
func FilterOneOf[R any](row Row[R], columnID string, filterValue any) bool {
	v, ok := row.Value(columnID)
	if !ok {
		return false
	}
	rv := reflect.ValueOf(filterValue)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if valuesEqual(v, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// FilterInRange matches numeric column values inside a Range, or a two
// element slice [min, max]. Anything else is a malformed filter and matches nothing.
func FilterInRange[R any](row Row[R], columnID string, filterValue any) bool {
	var r Range
	switch f := filterValue.(type) {
	case Range:
		r = f
	case *Range:
		if f == nil {
			return false
		}
		r = *f
	default:
		rv := reflect.ValueOf(filterValue)
		if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() != 2 {
			return false
		}
		r = Range{Min: rv.Index(0).Interface(), Max: rv.Index(1).Interface()}
	}

	v, ok := row.Value(columnID)
	if !ok {
		return false
	}
	n, ok := toFloat(v)
	if !ok {
		return false
	}
	if r.Min != nil {
		lo, ok := toFloat(r.Min)
		if !ok || n < lo {
			return false
		}
	}
	if r.Max != nil {
		hi, ok := toFloat(r.Max)
		if !ok || n > hi {
			return false
		}
	}
	return true
}

func columnSearchText[R any](row Row[R], columnID string) (string, bool) {
	if row.cols == nil {
		return "", false
	}
	c, ok := row.cols.lookup(columnID)
	if !ok {
		return "", false
	}
	return c.searchText(row.Original), true
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return Fold(Stringify(a)) == Fold(Stringify(b))
}

// toFloat converts numeric values, and strings holding numbers, to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case Value:
		if n.IsNull {
			return 0, false
		}
		return toFloat(n.Raw)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// isActiveFilter reports whether a filter value constrains anything.
func isActiveFilter(v any) bool {
	switch f := v.(type) {
	case nil:
		return false
	case string:
		return f != ""
	}
	return true
}
