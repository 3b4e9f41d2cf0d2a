// Package sheet is the spreadsheet engine: an .xlsx workbook with the
// senior-friendly range operations, the budget template and the keypad
// calculator.
package sheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
)

const (
	MinRows = 10
	MinCols = 5

	// FontSize is the font size written to every cell.
	FontSize = 14

	// ErrorDisplay is shown for formulas that cannot be evaluated.
	ErrorDisplay = "#ERROR"
)

// Workbook is a single-sheet workbook backed by excelize, which also
// evaluates formulas.
type Workbook struct {
	f         *excelize.File
	sheet     string
	rows      int
	cols      int
	baseStyle int

	// formulas maps addresses to "=..." text. excelize finds a cell by
	// walking the row list, so whole-grid reads go through GetRows plus
	// this index instead of per-cell lookups.
	formulas map[string]string

	// Path is where the workbook was loaded from or last saved to.
	Path string
}

// New returns an empty workbook with the minimum grid.
func New() (*Workbook, error) {
	f := excelize.NewFile()
	w := &Workbook{f: f, sheet: f.GetSheetName(0), rows: MinRows, cols: MinCols, formulas: map[string]string{}}
	if err := w.initStyle(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// Load opens an .xlsx file. The grid covers the used range and never
// shrinks below MinRows x MinCols.
func Load(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("ファイルが見つかりません: "+filepath.Base(path), err)
		}
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperr.External("ファイルを開けませんでした。Excelファイルか確認してください。",
			fmt.Errorf("opening %s: %w", path, err))
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		if list := f.GetSheetList(); len(list) > 0 {
			sheet = list[0]
		}
	}

	w := &Workbook{f: f, sheet: sheet, rows: MinRows, cols: MinCols, formulas: map[string]string{}, Path: path}
	if err := w.initStyle(); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.measure(); err != nil {
		f.Close()
		return nil, err
	}
	w.indexFormulas()
	return w, nil
}

// indexFormulas records the formulas of a freshly opened file. It is the
// only place that looks at every cell one by one.
func (w *Workbook) indexFormulas() {
	for r := 1; r <= w.rows; r++ {
		for c := 1; c <= w.cols; c++ {
			addr := CellName(c, r)
			if formula, err := w.f.GetCellFormula(w.sheet, addr); err == nil && formula != "" {
				w.formulas[addr] = "=" + strings.TrimPrefix(formula, "=")
			}
		}
	}
}

func (w *Workbook) initStyle() error {
	id, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: FontSize}})
	if err != nil {
		return fmt.Errorf("creating base style: %w", err)
	}
	w.baseStyle = id
	return nil
}

// measure grows the grid to the used range of the sheet.
func (w *Workbook) measure() error {
	rows, err := w.f.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}
	w.grow(0, len(rows))
	for _, r := range rows {
		w.grow(len(r), 0)
	}

	dim, err := w.f.GetSheetDimension(w.sheet)
	if err == nil && dim != "" {
		if rg, err := ParseRange(dim); err == nil {
			w.grow(rg.Right, rg.Bottom)
		}
	}
	return nil
}

func (w *Workbook) grow(col, row int) {
	if col > w.cols {
		w.cols = col
	}
	if row > w.rows {
		w.rows = row
	}
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetName returns the name of the worksheet being edited.
func (w *Workbook) SheetName() string {
	return w.sheet
}

// Dimensions returns the number of rows and columns in the grid.
func (w *Workbook) Dimensions() (rows, cols int) {
	return w.rows, w.cols
}

// Cell returns the cell at col (1-based index) and row.
func (w *Workbook) Cell(col, row int) model.Cell {
	addr := CellName(col, row)
	c := model.Cell{Column: ColumnName(col), Row: row}
	if addr == "" {
		return c
	}

	c.Formula = w.formulas[addr]
	if v, err := w.f.GetCellValue(w.sheet, addr); err == nil {
		c.Value = v
	}
	c.Display = w.display(addr, c)
	return c
}

// CellAt returns the cell for an A1-style address.
func (w *Workbook) CellAt(addr string) (model.Cell, error) {
	col, row, err := ParseCell(addr)
	if err != nil {
		return model.Cell{}, err
	}
	return w.Cell(col, row), nil
}

func (w *Workbook) display(addr string, c model.Cell) string {
	if c.Formula == "" {
		return c.Value
	}
	v, err := w.f.CalcCellValue(w.sheet, addr)
	if err != nil {
		return ErrorDisplay
	}
	if strings.HasPrefix(v, "#") {
		return ErrorDisplay
	}
	return v
}

// NumberAt returns the numeric display value of a cell.
func (w *Workbook) NumberAt(col, row int) (float64, bool) {
	d := strings.ReplaceAll(w.Cell(col, row).Display, ",", "")
	n, err := strconv.ParseFloat(strings.TrimSpace(d), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetValue writes a raw value. Numbers are stored as numbers, anything
// else as text, and an empty value clears the cell.
func (w *Workbook) SetValue(addr, value string) error {
	col, row, err := ParseCell(addr)
	if err != nil {
		return err
	}
	if err := w.f.SetCellFormula(w.sheet, addr, ""); err != nil {
		return fmt.Errorf("clearing formula in %s: %w", addr, err)
	}
	delete(w.formulas, addr)

	value = strings.TrimSpace(value)
	if value == "" {
		err = w.f.SetCellValue(w.sheet, addr, nil)
	} else if n, perr := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); perr == nil {
		err = w.f.SetCellFloat(w.sheet, addr, n, -1, 64)
	} else {
		err = w.f.SetCellStr(w.sheet, addr, value)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", addr, err)
	}

	w.grow(col, row)
	return w.styleIfPlain(addr)
}

// SetFormula writes a formula; the leading "=" is optional.
func (w *Workbook) SetFormula(addr, formula string) error {
	col, row, err := ParseCell(addr)
	if err != nil {
		return err
	}
	formula = strings.TrimPrefix(strings.TrimSpace(formula), "=")
	if formula == "" {
		return apperr.Validation("数式が空です")
	}
	if err := w.f.SetCellFormula(w.sheet, addr, formula); err != nil {
		return fmt.Errorf("writing formula to %s: %w", addr, err)
	}
	w.formulas[addr] = "=" + formula

	w.grow(col, row)
	return w.styleIfPlain(addr)
}

func (w *Workbook) styleIfPlain(addr string) error {
	id, err := w.f.GetCellStyle(w.sheet, addr)
	if err != nil || id != 0 {
		return nil
	}
	return w.f.SetCellStyle(w.sheet, addr, addr, w.baseStyle)
}

// Clear empties a cell.
func (w *Workbook) Clear(addr string) error {
	return w.SetValue(addr, "")
}

// Apply writes a batch of changes, preferring the formula of a change
// when it has one.
func (w *Workbook) Apply(changes []model.CellChange) error {
	for _, ch := range changes {
		if ch.Row < 1 || ch.Column == "" {
			return apperr.Validation(fmt.Sprintf("セルの場所が正しくありません: %s%d", ch.Column, ch.Row))
		}
		addr := strings.ToUpper(ch.Column) + strconv.Itoa(ch.Row)
		var err error
		if strings.TrimPrefix(ch.Formula, "=") != "" {
			err = w.SetFormula(addr, ch.Formula)
		} else {
			err = w.SetValue(addr, ch.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Rows returns every cell of the grid with display values filled in. The
// sheet is read in one pass; only formula cells are evaluated.
func (w *Workbook) Rows() []model.Row {
	values, err := w.f.GetRows(w.sheet)
	if err != nil {
		values = nil
	}
	names := make([]string, w.cols)
	for c := range names {
		names[c] = ColumnName(c + 1)
	}

	out := make([]model.Row, 0, w.rows)
	for r := 1; r <= w.rows; r++ {
		var stored []string
		if r <= len(values) {
			stored = values[r-1]
		}
		row := model.Row{Number: r, Cells: make([]model.Cell, w.cols)}
		for c := range row.Cells {
			cell := model.Cell{Column: names[c], Row: r}
			if c < len(stored) {
				cell.Value = stored[c]
			}
			addr := cell.Address()
			cell.Formula = w.formulas[addr]
			cell.Display = w.display(addr, cell)
			row.Cells[c] = cell
		}
		out = append(out, row)
	}
	return out
}

// Context renders the non-empty cells one per line ("A1=家計簿",
// "D4=B4-C4 → 0") for the LLM prompt.
func (w *Workbook) Context() string {
	var lines []string
	for _, row := range w.Rows() {
		for _, c := range row.Cells {
			switch {
			case c.Formula != "":
				lines = append(lines, fmt.Sprintf("%s%s → %s", c.Address(), c.Formula, c.Display))
			case c.Value != "":
				lines = append(lines, c.Address()+"="+c.Value)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Save writes the workbook to path (must end in .xlsx).
func (w *Workbook) Save(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return apperr.Validation("保存できるのは .xlsx ファイルだけです")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := w.f.SaveAs(path); err != nil {
		return apperr.Internal("ファイルを保存できませんでした", fmt.Errorf("saving %s: %w", path, err))
	}
	w.Path = path
	return nil
}
