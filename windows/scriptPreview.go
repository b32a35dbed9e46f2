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
	"go/scanner"
	"go/token"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

type tokenClass int

const (
	classPlain tokenClass = iota
	classKeyword
	classString
	classComment
	classNumber
	classBuiltin
)

var classStyles = map[tokenClass]*widget.CustomTextGridStyle{
	classKeyword: {
		FGColor:   color.NRGBA{R: 255, G: 20, B: 147, A: 255},
		TextStyle: fyne.TextStyle{Bold: true},
	},
	classString: {FGColor: color.NRGBA{R: 0, G: 180, B: 0, A: 255}},
	classComment: {
		FGColor:   color.NRGBA{R: 128, G: 128, B: 128, A: 255},
		TextStyle: fyne.TextStyle{Italic: true},
	},
	classNumber: {FGColor: color.NRGBA{R: 0, G: 150, B: 255, A: 255}},
	classBuiltin: {
		FGColor:   color.NRGBA{R: 0, G: 180, B: 180, A: 255},
		TextStyle: fyne.TextStyle{Bold: true},
	},
}

var errorLineColor = color.NRGBA{R: 0xf4, G: 0x43, B: 0x36, A: 0x50}

var goBuiltins = map[string]bool{
	"any": true, "bool": true, "byte": true, "error": true,
	"float32": true, "float64": true, "int": true, "int64": true,
	"rune": true, "string": true, "uint": true, "uint64": true,
	"nil": true, "true": true, "false": true,
	"len": true, "append": true, "make": true,
}

// ScriptPreview shows a filter script with Go highlighting and marks the
// line a compile error points at.
type ScriptPreview struct {
	widget.BaseWidget
	grid    *widget.TextGrid
	src     string
	errLine int
}

// NewScriptPreview creates an empty preview.
func NewScriptPreview() *ScriptPreview {
	p := &ScriptPreview{grid: widget.NewTextGrid()}
	p.grid.ShowLineNumbers = true
	p.ExtendBaseWidget(p)
	return p
}

// SetText replaces the source and clears the error mark.
func (p *ScriptPreview) SetText(src string) {
	p.src = src
	p.errLine = 0
	p.render()
}

// SetErrorLine marks line, starting at 1. Zero removes the mark.
func (p *ScriptPreview) SetErrorLine(line int) {
	p.errLine = line
	p.render()
}

// ErrorLine returns the marked line, or 0.
func (p *ScriptPreview) ErrorLine() int { return p.errLine }

func (p *ScriptPreview) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.grid)
}

func (p *ScriptPreview) render() {
	rows := highlightGo(p.src)
	if p.errLine > 0 && p.errLine <= len(rows) {
		markRow(&rows[p.errLine-1])
	}
	p.grid.Rows = rows
	p.grid.Refresh()
}

func markRow(row *widget.TextGridRow) {
	row.Style = &widget.CustomTextGridStyle{BGColor: errorLineColor}
	for i, c := range row.Cells {
		style := &widget.CustomTextGridStyle{BGColor: errorLineColor}
		if s, ok := c.Style.(*widget.CustomTextGridStyle); ok && s != nil {
			style.FGColor = s.FGColor
			style.TextStyle = s.TextStyle
		}
		row.Cells[i].Style = style
	}
}

// highlightGo splits src into styled rows, one per line.
func highlightGo(src string) []widget.TextGridRow {
	classes := classify(src)
	lines := strings.Split(src, "\n")
	rows := make([]widget.TextGridRow, len(lines))

	offset := 0
	for n, line := range lines {
		cells := make([]widget.TextGridCell, 0, len(line))
		for i, r := range line {
			cell := widget.TextGridCell{Rune: r}
			if s, ok := classStyles[classes[offset+i]]; ok {
				cell.Style = s
			}
			cells = append(cells, cell)
		}
		rows[n] = widget.TextGridRow{Cells: cells}
		offset += len(line) + 1
	}
	return rows
}

// classify returns the highlight class of every byte of src. Scan errors
// leave the affected bytes plain.
func classify(src string) []tokenClass {
	classes := make([]tokenClass, len(src))
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, []byte(src), nil, scanner.ScanComments)
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		c := classOf(tok, lit)
		if c == classPlain {
			continue
		}
		start := file.Offset(pos)
		end := min(start+len(lit), len(classes))
		for i := start; i < end; i++ {
			classes[i] = c
		}
	}
	return classes
}

func classOf(tok token.Token, lit string) tokenClass {
	switch {
	case tok.IsKeyword():
		return classKeyword
	case tok == token.STRING || tok == token.CHAR:
		return classString
	case tok == token.COMMENT:
		return classComment
	case tok == token.INT || tok == token.FLOAT || tok == token.IMAG:
		return classNumber
	case tok == token.IDENT && goBuiltins[lit]:
		return classBuiltin
	}
	return classPlain
}
