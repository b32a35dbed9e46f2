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
	"fmt"
	"strconv"
	"strings"
	"sync"

	"sociogrid/datatable"
)

// QueryParser parses search box expressions such as
//
//	ciudad = Madrid AND cuota >= 20
//	nombre ~ an OR activo = true
//
// A term without an operator matches rows where any column contains it.
type QueryParser struct {
	columns map[string]string // folded name -> column ID
}

// CompOp is a comparison operator.
type CompOp int

const (
	OpEqual CompOp = iota
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpContains
)

// Expression is a single comparison. An empty ColumnID searches every column.
type Expression struct {
	ColumnID string
	Operator CompOp
	Value    string
}

// LogicalOp joins two expressions.
type LogicalOp int

const (
	LogicAND LogicalOp = iota
	LogicOR
)

// Query is a parsed search. Operators are applied left to right.
type Query struct {
	Expressions []Expression
	LogicOps    []LogicalOp
}

// NewQueryParser accepts the IDs of the columns a query may name. Names are
// matched case-insensitively.
func NewQueryParser(columnIDs []string) *QueryParser {
	columns := make(map[string]string, len(columnIDs))
	for _, id := range columnIDs {
		columns[datatable.Fold(id)] = id
	}
	return &QueryParser{columns: columns}
}

// ParseQuery parses queryStr. A blank query yields nil and no error.
func (qp *QueryParser) ParseQuery(queryStr string) (*Query, error) {
	if strings.TrimSpace(queryStr) == "" {
		return nil, nil
	}

	query := &Query{}
	expectExpr := true
	for _, part := range splitByLogicOps(queryStr) {
		if part.isOperator != !expectExpr {
			return nil, fmt.Errorf("%w: misplaced %q", datatable.ErrInvalidFilter, part.text)
		}
		expectExpr = !expectExpr
		if part.isOperator {
			op := LogicAND
			if strings.EqualFold(part.text, "OR") {
				op = LogicOR
			}
			query.LogicOps = append(query.LogicOps, op)
			continue
		}
		expr, err := qp.parseExpression(part.text)
		if err != nil {
			return nil, err
		}
		query.Expressions = append(query.Expressions, expr)
	}

	if len(query.LogicOps) != len(query.Expressions)-1 {
		return nil, fmt.Errorf("%w: mismatched expressions and operators", datatable.ErrInvalidFilter)
	}
	return query, nil
}

type queryPart struct {
	text       string
	isOperator bool
}

// splitByLogicOps splits on standalone AND / OR words, keeping them.
func splitByLogicOps(query string) []queryPart {
	var parts []queryPart
	var current []string
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, queryPart{text: strings.Join(current, " ")})
			current = nil
		}
	}
	for _, word := range strings.Fields(query) {
		if strings.EqualFold(word, "AND") || strings.EqualFold(word, "OR") {
			flush()
			parts = append(parts, queryPart{text: strings.ToUpper(word), isOperator: true})
			continue
		}
		current = append(current, word)
	}
	flush()
	return parts
}

var operators = []struct {
	op     CompOp
	symbol string
}{
	{OpGreaterEqual, ">="},
	{OpLessEqual, "<="},
	{OpNotEqual, "!="},
	{OpEqual, "="},
	{OpGreater, ">"},
	{OpLess, "<"},
	{OpContains, "~"},
}

func (qp *QueryParser) parseExpression(exprStr string) (Expression, error) {
	exprStr = strings.TrimSpace(exprStr)

	for _, o := range operators {
		idx := strings.Index(exprStr, o.symbol)
		if idx <= 0 {
			continue
		}
		name := strings.TrimSpace(exprStr[:idx])
		id, ok := qp.columns[datatable.Fold(name)]
		if !ok {
			return Expression{}, fmt.Errorf("%w: %s", datatable.ErrColumnNotFound, name)
		}
		value := strings.Trim(strings.TrimSpace(exprStr[idx+len(o.symbol):]), "\"'")
		return Expression{ColumnID: id, Operator: o.op, Value: value}, nil
	}

	return Expression{Operator: OpContains, Value: strings.Trim(exprStr, "\"'")}, nil
}

// EvaluateRow reports whether row satisfies query. A nil query matches.
func EvaluateRow[R any](query *Query, row datatable.Row[R], columnIDs []string) bool {
	if query == nil || len(query.Expressions) == 0 {
		return true
	}
	result := evaluateExpression(query.Expressions[0], row, columnIDs)
	for i, op := range query.LogicOps {
		next := evaluateExpression(query.Expressions[i+1], row, columnIDs)
		switch op {
		case LogicAND:
			result = result && next
		case LogicOR:
			result = result || next
		}
	}
	return result
}

func evaluateExpression[R any](expr Expression, row datatable.Row[R], columnIDs []string) bool {
	if expr.ColumnID == "" {
		term := datatable.Fold(expr.Value)
		for _, id := range columnIDs {
			if strings.Contains(datatable.Fold(row.Text(id)), term) {
				return true
			}
		}
		return false
	}

	cell := row.Text(expr.ColumnID)
	switch expr.Operator {
	case OpEqual:
		return datatable.Fold(cell) == datatable.Fold(expr.Value)
	case OpNotEqual:
		return datatable.Fold(cell) != datatable.Fold(expr.Value)
	case OpContains:
		return strings.Contains(datatable.Fold(cell), datatable.Fold(expr.Value))
	}

	raw, _ := row.Value(expr.ColumnID)
	return compare(raw, cell, expr.Value, expr.Operator)
}

// compare orders numerically when both sides are numbers and by folded
// text otherwise.
func compare(raw any, cell, want string, op CompOp) bool {
	var cmp int
	a, okA := number(raw, cell)
	b, errB := strconv.ParseFloat(strings.TrimSpace(want), 64)
	if okA && errB == nil {
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(datatable.Fold(cell), datatable.Fold(want))
	}

	switch op {
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	}
	return false
}

func number(raw any, text string) (float64, bool) {
	switch n := raw.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case nil:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	return f, err == nil
}

// QueryFilter turns the parser into a table global filter. The filter value
// is parsed once per distinct query; a query that does not parse falls back
// to a plain substring search.
func QueryFilter[R any](qp *QueryParser, columnIDs []string) datatable.GlobalFilterFunc[R] {
	ids := append([]string(nil), columnIDs...)
	var (
		mu     sync.Mutex
		last   string
		parsed *Query
	)
	return func(row datatable.Row[R], columnID string, filterValue any) bool {
		text := datatable.Stringify(filterValue)

		mu.Lock()
		if parsed == nil || text != last {
			q, err := qp.ParseQuery(text)
			if err != nil {
				q = &Query{Expressions: []Expression{{Operator: OpContains, Value: text}}}
			}
			last, parsed = text, q
		}
		q := parsed
		mu.Unlock()

		return EvaluateRow(q, row, ids)
	}
}
