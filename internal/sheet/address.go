package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ColumnName returns the letters for a 1-based column index: 1 is "A",
// 27 is "AA".
func ColumnName(index int) string {
	name, err := excelize.ColumnNumberToName(index)
	if err != nil {
		return ""
	}
	return name
}

// ColumnIndex is the inverse of ColumnName.
func ColumnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(name)))
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", name, err)
	}
	return n, nil
}

// CellName joins a 1-based column index and row into an address.
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}

// ParseCell splits an address such as "B12" into column and row indexes.
func ParseCell(addr string) (col, row int, err error) {
	col, row, err = excelize.CellNameToCoordinates(strings.ToUpper(strings.TrimSpace(addr)))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell %q: %w", addr, err)
	}
	return col, row, nil
}

// Range is a rectangular block of cells with 1-based, inclusive bounds.
type Range struct {
	Left, Top, Right, Bottom int
}

// SingleCell returns the range covering one cell.
func SingleCell(col, row int) Range {
	return Range{Left: col, Top: row, Right: col, Bottom: row}
}

// ParseRange parses "A1:C3" or a single address like "B2". The corners
// may be given in any order.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}

	c1, r1, err := ParseCell(parts[0])
	if err != nil {
		return Range{}, err
	}
	c2, r2 := c1, r1
	if len(parts) == 2 {
		c2, r2, err = ParseCell(parts[1])
		if err != nil {
			return Range{}, err
		}
	}
	return Range{
		Left: min(c1, c2), Top: min(r1, r2),
		Right: max(c1, c2), Bottom: max(r1, r2),
	}, nil
}

// String renders the range in A1:B2 notation, or as a plain address
// when it is a single cell.
func (r Range) String() string {
	if r.IsSingle() {
		return CellName(r.Left, r.Top)
	}
	return CellName(r.Left, r.Top) + ":" + CellName(r.Right, r.Bottom)
}

// IsSingle reports whether the range is one cell.
func (r Range) IsSingle() bool {
	return r.Left == r.Right && r.Top == r.Bottom
}

// Size returns the number of cells in the range.
func (r Range) Size() int {
	return (r.Right - r.Left + 1) * (r.Bottom - r.Top + 1)
}

// Cells returns the addresses in row-major order.
func (r Range) Cells() []string {
	out := make([]string, 0, r.Size())
	for row := r.Top; row <= r.Bottom; row++ {
		for col := r.Left; col <= r.Right; col++ {
			out = append(out, CellName(col, row))
		}
	}
	return out
}
