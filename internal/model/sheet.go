package model

import "strconv"

// Cell is one spreadsheet cell. Value is the raw text the user entered,
// Formula is set (with a leading "=") when the cell is computed, and
// Display is the value shown after calculation.
type Cell struct {
	Column  string
	Row     int
	Value   string
	Formula string
	Display string
}

// Address returns the A1-style address of the cell.
func (c Cell) Address() string {
	return c.Column + strconv.Itoa(c.Row)
}

// Row is a spreadsheet row.
type Row struct {
	Number int
	Cells  []Cell
}

// CellChange is a single edit produced by a command, either from the
// local parser or from the LLM.
type CellChange struct {
	Column  string `json:"column"`
	Row     int    `json:"row"`
	Value   string `json:"value,omitempty"`
	Formula string `json:"formula,omitempty"`
}

// Address returns the A1-style address the change targets.
func (c CellChange) Address() string {
	return c.Column + strconv.Itoa(c.Row)
}
