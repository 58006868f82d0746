// Package importer turns hand-maintained schedule spreadsheets into validated
// lesson-slot candidates. Every stage in this package is pure: directory and
// alias snapshots are passed in as values and nothing here performs I/O.
package importer

import (
	"fmt"
	"strings"
)

// RawGrid is a rectangular table of trimmed cell strings. Row 0 of a block
// holds column headers; one designated column holds the time label.
type RawGrid [][]string

// Layout identifies the historical spreadsheet layout of a grid.
type Layout string

const (
	// LayoutMultiBlock marks grids built from stacked blocks with a day-group marker row.
	LayoutMultiBlock Layout = "multi_block"
	// LayoutLegacy marks the single-column-per-teacher grid without marker rows.
	LayoutLegacy Layout = "legacy"
)

// ParseOptions controls delimited-text parsing.
type ParseOptions struct {
	Delimiter     rune
	KeepEmptyRows bool
}

// ParseDelimited parses delimited text into a RawGrid. Quoted fields may hold
// the delimiter, line breaks and doubled-quote escapes. With KeepEmptyRows the
// blank lines separating schedule blocks survive as empty rows.
func ParseDelimited(text string, opts ParseOptions) (RawGrid, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	text = strings.TrimPrefix(text, "\ufeff")

	var (
		grid    RawGrid
		row     []string
		field   strings.Builder
		quoted  bool
		started bool
		line    = 1
	)

	flushField := func() {
		row = append(row, strings.TrimSpace(field.String()))
		field.Reset()
		started = false
	}
	flushRow := func() {
		flushField()
		if opts.KeepEmptyRows || !isBlank(row) {
			grid = append(grid, row)
		}
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if quoted {
			switch {
			case ch == '"' && i+1 < len(runes) && runes[i+1] == '"':
				field.WriteRune('"')
				i++
			case ch == '"':
				quoted = false
			default:
				if ch == '\n' {
					line++
				}
				field.WriteRune(ch)
			}
			continue
		}

		switch {
		case ch == '"' && !started && strings.TrimSpace(field.String()) == "":
			field.Reset()
			quoted = true
			started = true
		case ch == delim:
			flushField()
		case ch == '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			flushRow()
			line++
		case ch == '\n':
			flushRow()
			line++
		default:
			field.WriteRune(ch)
			if ch != ' ' && ch != '\t' {
				started = true
			}
		}
	}
	if quoted {
		return nil, fmt.Errorf("parse delimited text: unterminated quoted field at line %d", line)
	}
	if field.Len() > 0 || len(row) > 0 {
		flushRow()
	}

	return grid.normalize(), nil
}

// NewRawGrid trims every cell and pads the rows to a rectangle. Sources that
// already hold cells, such as workbooks or the Sheets API, use it instead of
// ParseDelimited.
func NewRawGrid(rows [][]string) RawGrid {
	g := make(RawGrid, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
		}
		g[i] = cells
	}
	return g.normalize()
}

// normalize pads every row to the widest row so the grid is rectangular.
func (g RawGrid) normalize() RawGrid {
	width := g.Width()
	for i, row := range g {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			g[i] = padded
		}
	}
	return g
}

// Width returns the number of columns of the widest row.
func (g RawGrid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns the trimmed value at (row, col) or "" when out of range.
func (g RawGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][col])
}

// IsBlankRow reports whether every cell of the row is empty.
func (g RawGrid) IsBlankRow(row int) bool {
	if row < 0 || row >= len(g) {
		return true
	}
	return isBlank(g[row])
}

// DropEmptyRows returns a copy of the grid without blank rows.
func (g RawGrid) DropEmptyRows() RawGrid {
	out := make(RawGrid, 0, len(g))
	for _, row := range g {
		if !isBlank(row) {
			out = append(out, row)
		}
	}
	return out
}

// DetectLayout scans the leading rows for day-group marker tokens. A marker
// anywhere in the scanned window means the grid uses stacked blocks.
func DetectLayout(g RawGrid) Layout {
	limit := len(g)
	if limit > layoutScanRows {
		limit = layoutScanRows
	}
	for r := 0; r < limit; r++ {
		for _, cell := range g[r] {
			if _, ok := ParseDayGroupMarker(cell); ok {
				return LayoutMultiBlock
			}
		}
	}
	return LayoutLegacy
}

const layoutScanRows = 5

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
