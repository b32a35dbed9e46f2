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

// Package script compiles row predicates written in Go and runs them with
// the yaegi interpreter. A compiled Filter can replace a table's global
// filter.
//
// A script is either a complete file:
//
//	package filter
//
//	func Match(row map[string]any, column string, query string) bool {
//		return row["estado"] == query
//	}
//
// or a single boolean expression over row, column and query, for example
// `strings.HasPrefix(fmt.Sprint(row["nombre"]), query)`.
package script

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"sociogrid/datatable"
)

// ErrCompile is returned when a script cannot be interpreted.
var ErrCompile = errors.New("script: compile failed")

// PackageName is the package a complete script must declare.
const PackageName = "filter"

// MatchFunc is the signature scripts implement.
type MatchFunc func(row map[string]any, column string, query string) bool

const expressionTemplate = `package filter

import (
	"fmt"
	"strings"
)

var _ = fmt.Sprint
var _ = strings.Contains

func Match(row map[string]any, column string, query string) bool {
	return %s
}
`

// Filter is a compiled predicate.
type Filter struct {
	source string
	match  MatchFunc

	mu      sync.Mutex
	lastErr error
}

// Compile interprets src and looks up its Match function.
func Compile(src string) (*Filter, error) {
	code := strings.TrimSpace(src)
	if code == "" {
		return nil, fmt.Errorf("%w: empty script", ErrCompile)
	}
	if !strings.HasPrefix(code, "package ") {
		code = fmt.Sprintf(expressionTemplate, code)
	} else if name := packageOf(code); name != PackageName {
		return nil, fmt.Errorf("%w: package %q, want %q", ErrCompile, name, PackageName)
	}

	i := interp.New(interp.Options{Stdout: io.Discard, Stderr: io.Discard})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("%w: loading stdlib: %v", ErrCompile, err)
	}
	if _, err := i.Eval(code); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	v, err := i.Eval(PackageName + ".Match")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	fn, ok := v.Interface().(func(map[string]any, string, string) bool)
	if !ok {
		return nil, fmt.Errorf("%w: Match has type %s", ErrCompile, v.Type())
	}
	return &Filter{source: src, match: fn}, nil
}

var positionRE = regexp.MustCompile(`(\d+):\d+: `)

// ErrorLine returns the line of src a compile error points at, starting
// at 1, or 0 when err carries no usable position.
func ErrorLine(src string, err error) int {
	if err == nil {
		return 0
	}
	m := positionRE.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	line, _ := strconv.Atoi(m[1])

	trimmed := strings.TrimLeft(src, " \t\r\n")
	line += strings.Count(src[:len(src)-len(trimmed)], "\n")
	if !strings.HasPrefix(trimmed, "package ") {
		line -= strings.Count(expressionTemplate[:strings.Index(expressionTemplate, "%s")], "\n")
	}
	if line < 1 || line > strings.Count(src, "\n")+1 {
		return 0
	}
	return line
}

func packageOf(code string) string {
	line, _, _ := strings.Cut(code, "\n")
	return strings.TrimSpace(strings.TrimPrefix(line, "package "))
}

// Source returns the script as given to Compile.
func (f *Filter) Source() string { return f.source }

// Match runs the script. A panicking script does not match; the panic is
// kept and reported by Err.
func (f *Filter) Match(row map[string]any, column, query string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.mu.Lock()
			f.lastErr = fmt.Errorf("script panicked: %v", r)
			f.mu.Unlock()
			ok = false
		}
	}()
	return f.match(row, column, query)
}

// Err returns the most recent runtime failure, if any.
func (f *Filter) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// GlobalFilter adapts f to a table's global filter. The row map holds the
// accessor value of each listed column; the query is the filter value as
// text.
func GlobalFilter[R any](f *Filter, columnIDs []string) datatable.GlobalFilterFunc[R] {
	ids := append([]string(nil), columnIDs...)
	return func(row datatable.Row[R], columnID string, filterValue any) bool {
		values := make(map[string]any, len(ids))
		for _, id := range ids {
			if v, ok := row.Value(id); ok {
				values[id] = v
			}
		}
		return f.Match(values, columnID, datatable.Stringify(filterValue))
	}
}

// ColumnIDs lists the IDs of columns, in order.
func ColumnIDs[R any](columns []datatable.Column[R]) []string {
	ids := make([]string, len(columns))
	for i, c := range columns {
		ids[i] = c.ID
	}
	return ids
}
