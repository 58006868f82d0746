package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TeacherColumn is one teacher header together with the data columns it owns.
// A column index of -1 means the teacher has no column for that day group.
type TeacherColumn struct {
	Raw            string `json:"raw"`
	Name           string `json:"name"`
	Specialization string `json:"specialization,omitempty"`
	Room           string `json:"room,omitempty"`
	MWFCol         int    `json:"mwfCol"`
	TTCol          int    `json:"ttCol"`
}

// ScheduleBlock is a header row, a marker row and the data rows below them.
type ScheduleBlock struct {
	HeaderRow int
	Teachers  []TeacherColumn
	DataRows  []int
}

// GridCell is one non-empty lesson cell tied to its teacher, time and day group.
type GridCell struct {
	Teacher  TeacherColumn `json:"teacher"`
	Raw      string        `json:"raw"`
	Time     string        `json:"time"`
	DayGroup DayGroup      `json:"dayGroup"`
	Room     string        `json:"room,omitempty"`
	Row      int           `json:"row"`
	Col      int           `json:"col"`
}

// Key identifies the cell by its grid coordinates.
func (c GridCell) Key() string {
	return fmt.Sprintf("r%dc%d", c.Row, c.Col)
}

const timeColumn = 0

// SegmentBlocks splits a keep-empty grid into schedule blocks. A block is a
// run of consecutive non-blank rows with at least three rows whose second row
// carries a day-group marker.
func SegmentBlocks(g RawGrid) []ScheduleBlock {
	var blocks []ScheduleBlock
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if block, ok := buildBlock(g, start, end); ok {
			blocks = append(blocks, block)
		}
		start = -1
	}
	for r := range g {
		if g.IsBlankRow(r) {
			flush(r)
			continue
		}
		if start < 0 {
			start = r
		}
	}
	flush(len(g))
	return blocks
}

func buildBlock(g RawGrid, start, end int) (ScheduleBlock, bool) {
	if end-start < 3 {
		return ScheduleBlock{}, false
	}
	markerRow := start + 1
	markers := make(map[int]DayGroup)
	for c := 0; c < len(g[markerRow]); c++ {
		if dg, ok := ParseDayGroupMarker(g.Cell(markerRow, c)); ok {
			markers[c] = dg
		}
	}
	if len(markers) == 0 {
		return ScheduleBlock{}, false
	}

	block := ScheduleBlock{HeaderRow: start}
	header := g[start]
	for c := timeColumn + 1; c < len(header); c++ {
		raw := g.Cell(start, c)
		if raw == "" || isLegendToken(raw) {
			continue
		}
		col := ParseTeacherHeader(raw)
		col.MWFCol, col.TTCol = pairColumns(g, start, c, markers)
		block.Teachers = append(block.Teachers, col)
	}
	for r := start + 2; r < end; r++ {
		block.DataRows = append(block.DataRows, r)
	}
	return block, true
}

// pairColumns assigns the header column and its blank right neighbour to the
// two day groups. The marker row decides the order; Mon/Wed/Fri comes first
// when the markers are silent.
func pairColumns(g RawGrid, headerRow, c int, markers map[int]DayGroup) (mwf, tt int) {
	next := c + 1
	hasPair := next < g.Width() && g.Cell(headerRow, next) == ""
	if !hasPair {
		if markers[c] == DayGroupTT {
			return -1, c
		}
		return c, -1
	}
	first, second := markers[c], markers[next]
	if first == DayGroupTT || (first == "" && second == DayGroupMWF) {
		return next, c
	}
	return c, next
}

// isLegendToken flags header cells that annotate the sheet instead of naming
// a teacher: anything with a backslash, or a short all-caps abbreviation.
func isLegendToken(raw string) bool {
	if strings.Contains(raw, `\`) {
		return true
	}
	if utf8.RuneCountInString(raw) > 4 {
		return false
	}
	letters := 0
	for _, r := range raw {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
			continue
		}
		if !unicode.IsSpace(r) && r != '.' {
			return false
		}
	}
	return letters > 0
}

var roomPattern = regexp.MustCompile(`(?i)(?:каб(?:инет)?\.?\s*(\d+(?:\s*\+\s*\d+)*))|(?:(\d+(?:\s*\+\s*\d+)*)\s*каб(?:инет)?\.?)`)

var specializationTags = map[string]string{
	"деф":   "ДЕФ",
	"лог":   "ЛОГ",
	"псих":  "ПСИХ",
	"нейро": "НЕЙРО",
	"афк":   "АФК",
	"ава":   "АВА",
	"aba":   "ABA",
}

// ParseTeacherHeader strips the room annotation and the trailing
// specialization tag from a header cell. The remainder is the display name.
func ParseTeacherHeader(raw string) TeacherColumn {
	col := TeacherColumn{Raw: strings.TrimSpace(raw), MWFCol: -1, TTCol: -1}
	rest := col.Raw

	if loc := roomPattern.FindStringSubmatchIndex(rest); loc != nil {
		number := ""
		if loc[2] >= 0 {
			number = rest[loc[2]:loc[3]]
		} else if loc[4] >= 0 {
			number = rest[loc[4]:loc[5]]
		}
		number = strings.Join(strings.Fields(number), "")
		col.Room = "Каб." + number
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
	}

	fields := strings.Fields(strings.NewReplacer(",", " ", "(", " ", ")", " ").Replace(rest))
	if len(fields) > 1 {
		last := strings.ToLower(strings.Trim(fields[len(fields)-1], "."))
		if tag, ok := specializationTags[last]; ok {
			col.Specialization = tag
			fields = fields[:len(fields)-1]
		}
	}
	col.Name = strings.Join(fields, " ")
	return col
}

// ExtractOptions carries the request-level settings of one extraction.
type ExtractOptions struct {
	// DayGroup is required for legacy grids and ignored otherwise.
	DayGroup  DayGroup
	TimeSlots TimeSlots
}

// Extraction is the outcome of ingestion and segmentation.
type Extraction struct {
	Layout Layout
	Blocks int
	Cells  []GridCell
}

// ErrDayGroupRequired is returned for legacy grids extracted without a day group.
var ErrDayGroupRequired = errors.New("day group is required for legacy layout")

// ErrNoBlocks is returned when a multi-block grid yields no qualifying block.
var ErrNoBlocks = errors.New("no schedule blocks found")

// Extract detects the layout of a keep-empty grid and flattens it into the
// non-empty lesson cells. Rows whose time label does not parse are skipped.
func Extract(g RawGrid, opts ExtractOptions) (*Extraction, error) {
	slots := opts.TimeSlots
	if slots == nil {
		slots = NewTimeSlots(nil)
	}
	layout := DetectLayout(g)
	if layout == LayoutLegacy {
		return extractLegacy(g, opts.DayGroup, slots)
	}

	blocks := SegmentBlocks(g)
	if len(blocks) == 0 {
		return nil, ErrNoBlocks
	}
	out := &Extraction{Layout: LayoutMultiBlock, Blocks: len(blocks)}
	for _, block := range blocks {
		for _, r := range block.DataRows {
			start, ok := slots.Parse(g.Cell(r, timeColumn))
			if !ok {
				continue
			}
			for _, teacher := range block.Teachers {
				out.Cells = appendCell(out.Cells, g, r, teacher.MWFCol, teacher, start, DayGroupMWF)
				out.Cells = appendCell(out.Cells, g, r, teacher.TTCol, teacher, start, DayGroupTT)
			}
		}
	}
	return out, nil
}

func extractLegacy(g RawGrid, dayGroup DayGroup, slots TimeSlots) (*Extraction, error) {
	if !dayGroup.Valid() {
		return nil, ErrDayGroupRequired
	}
	compact := g.DropEmptyRows()
	out := &Extraction{Layout: LayoutLegacy}
	if len(compact) < 2 {
		return out, nil
	}
	out.Blocks = 1

	var teachers []TeacherColumn
	for c := timeColumn + 1; c < len(compact[0]); c++ {
		raw := compact.Cell(0, c)
		if raw == "" || isLegendToken(raw) {
			continue
		}
		col := ParseTeacherHeader(raw)
		if dayGroup == DayGroupMWF {
			col.MWFCol = c
		} else {
			col.TTCol = c
		}
		teachers = append(teachers, col)
	}

	for r := 1; r < len(compact); r++ {
		start, ok := slots.Parse(compact.Cell(r, timeColumn))
		if !ok {
			continue
		}
		for _, teacher := range teachers {
			out.Cells = appendCell(out.Cells, compact, r, teacher.MWFCol, teacher, start, DayGroupMWF)
			out.Cells = appendCell(out.Cells, compact, r, teacher.TTCol, teacher, start, DayGroupTT)
		}
	}
	return out, nil
}

func appendCell(cells []GridCell, g RawGrid, row, col int, teacher TeacherColumn, start string, dg DayGroup) []GridCell {
	if col < 0 {
		return cells
	}
	value := g.Cell(row, col)
	if value == "" {
		return cells
	}
	return append(cells, GridCell{
		Teacher:  teacher,
		Raw:      value,
		Time:     start,
		DayGroup: dg,
		Room:     teacher.Room,
		Row:      row,
		Col:      col,
	})
}
