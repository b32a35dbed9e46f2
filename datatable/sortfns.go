package datatable

import (
	"cmp"
	"reflect"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortLanguage is the collation used for string columns.
var SortLanguage = language.Spanish

func newCollator() *collate.Collator {
	return collate.New(SortLanguage, collate.Numeric)
}

// CompareValues orders two non-nil accessor values. Numbers compare
// numerically, times chronologically, booleans false before true and
// everything else as collated text.
func CompareValues(a, b any, coll *collate.Collator) int {
	if va, ok := a.(Value); ok {
		a = va.Raw
	}
	if vb, ok := b.(Value); ok {
		b = vb.Raw
	}
	a, b = deref(a), deref(b)

	if ia, ok := toInt(a); ok {
		if ib, ok := toInt(b); ok {
			return cmp.Compare(ia, ib)
		}
	}
	if fa, ok := toNumber(a); ok {
		if fb, ok := toNumber(b); ok {
			return cmp.Compare(fa, fb)
		}
	}

	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}

	if coll == nil {
		coll = newCollator()
	}
	return coll.CompareString(Stringify(a), Stringify(b))
}

func toInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	}
	return 0, false
}

// toNumber is toFloat without string parsing: text columns stay text.
func toNumber(v any) (float64, bool) {
	if _, ok := v.(string); ok {
		return 0, false
	}
	return toFloat(v)
}

func isNil(v any) bool {
	if v == nil || isNilPointer(v) {
		return true
	}
	if val, ok := v.(Value); ok {
		return val.IsNull
	}
	return false
}

// sortKey is one resolved entry of the sorting state.
type sortKey[R any] struct {
	col  Column[R]
	desc bool
}

// resolveSorting drops entries naming unknown or unsortable columns, or no direction.
func resolveSorting[R any](cols *columnSet[R], sorting []ColumnSort) []sortKey[R] {
	keys := make([]sortKey[R], 0, len(sorting))
	seen := make(map[string]bool, len(sorting))
	for _, s := range sorting {
		if !s.IsSorted() || seen[s.ColumnID] {
			continue
		}
		c, ok := cols.lookup(s.ColumnID)
		if !ok || !c.CanSort() {
			continue
		}
		seen[s.ColumnID] = true
		keys = append(keys, sortKey[R]{col: c, desc: s.Direction == SortDescending})
	}
	return keys
}

// rowComparator chains the sort keys. Nil values sort last in either direction.
func rowComparator[R any](keys []sortKey[R], coll *collate.Collator) func(a, b Row[R]) int {
	return func(a, b Row[R]) int {
		for _, k := range keys {
			var c int
			if k.col.SortFn != nil {
				c = k.col.SortFn(a.Original, b.Original)
			} else {
				va, vb := k.col.value(a.Original), k.col.value(b.Original)
				na, nb := isNil(va), isNil(vb)
				switch {
				case na && nb:
					continue
				case na:
					return 1
				case nb:
					return -1
				}
				c = CompareValues(va, vb, coll)
			}
			if c == 0 {
				continue
			}
			if k.desc {
				return -c
			}
			return c
		}
		return 0
	}
}
