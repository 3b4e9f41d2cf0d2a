package spreadsheet

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/command"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/printing"
	"github.com/nhle/harmonicsheet/internal/sheet"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// Interpreter turns an instruction into cell changes.
type Interpreter interface {
	Interpret(ctx context.Context, text, sheet string) command.Result
	UsesAI() bool
}

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeGrid Mode = iota
	ModeEdit
	ModeInstruct
	ModeOpen
	ModeSave
	ModeOperations
	ModeCalculator
	ModeBusy
)

// instructionTimeout bounds one LLM round trip.
const instructionTimeout = 60 * time.Second

// BaseColumnWidth is the cell width at font scale 1.0.
const BaseColumnWidth = 10

// WorkbookLoadedMsg carries a workbook opened from disk.
type WorkbookLoadedMsg struct {
	Workbook *sheet.Workbook
	Path     string
	Err      error
}

type instructionDoneMsg struct {
	result command.Result
}

// opBindings holds form values on the heap so huh's pointers survive
// model copies.
type opBindings struct {
	op      string
	percent string
}

// Model is the spreadsheet screen.
type Model struct {
	wb       *sheet.Workbook
	interp   Interpreter
	printer  *printing.Printer
	keys     *keys.KeyMap
	mode     Mode
	input    textinput.Model
	opsForm  *huh.Form
	fb       *opBindings
	calc     *sheet.Calculator
	spinner  spinner.Model
	colWidth int

	cursorCol, cursorRow int
	anchorCol, anchorRow int
	selecting            bool
	offsetCol, offsetRow int

	message string
	isError bool

	width, height int
}

// New creates the spreadsheet screen with an empty workbook.
func New(interp Interpreter, printer *printing.Printer, k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		interp:    interp,
		printer:   printer,
		keys:      k,
		input:     ti,
		fb:        &opBindings{},
		calc:      sheet.NewCalculator(),
		spinner:   sp,
		colWidth:  BaseColumnWidth,
		cursorCol: 1,
		cursorRow: 1,
		width:     width,
		height:    height,
	}
	if wb, err := sheet.New(); err == nil {
		m.wb = wb
	}
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Workbook returns the open workbook.
func (m Model) Workbook() *sheet.Workbook {
	return m.wb
}

// Mode returns the current input mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Cursor returns the address under the cursor.
func (m Model) Cursor() string {
	return sheet.CellName(m.cursorCol, m.cursorRow)
}

// Selection returns the selected range; a single cell when nothing is
// being extended.
func (m Model) Selection() sheet.Range {
	if !m.selecting {
		return sheet.SingleCell(m.cursorCol, m.cursorRow)
	}
	return sheet.Range{
		Left:   min(m.anchorCol, m.cursorCol),
		Top:    min(m.anchorRow, m.cursorRow),
		Right:  max(m.anchorCol, m.cursorCol),
		Bottom: max(m.anchorRow, m.cursorRow),
	}
}

// Message returns the last feedback shown under the grid.
func (m Model) Message() string {
	return m.message
}

// SetWorkbook replaces the open workbook, closing the previous one.
func (m *Model) SetWorkbook(wb *sheet.Workbook) {
	if m.wb != nil && m.wb != wb {
		m.wb.Close()
	}
	m.wb = wb
	m.cursorCol, m.cursorRow = 1, 1
	m.offsetCol, m.offsetRow = 0, 0
	m.selecting = false
	m.mode = ModeGrid
}

// NewBudget replaces the workbook with the household budget template.
func (m *Model) NewBudget(now time.Time) tea.Cmd {
	wb, err := sheet.BudgetTemplate(now)
	if err != nil {
		return status("", err)
	}
	m.SetWorkbook(wb)
	m.setMessage("家計簿のひな形を作りました。", false)
	return nil
}

// Open loads path in the background.
func (m Model) Open(path string) tea.Cmd {
	return func() tea.Msg {
		wb, err := sheet.Load(path)
		return WorkbookLoadedMsg{Workbook: wb, Path: path, Err: err}
	}
}

// SetScale widens the cells for larger font settings.
func (m *Model) SetScale(scale float64) {
	m.colWidth = max(6, int(float64(BaseColumnWidth)*scale+0.5))
}

// Update handles messages for the spreadsheet screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case WorkbookLoadedMsg:
		if msg.Err != nil {
			m.setMessage(apperr.UserMessage(msg.Err), true)
			return m, status("", msg.Err)
		}
		m.SetWorkbook(msg.Workbook)
		m.setMessage(filepath.Base(msg.Path)+" を開きました。", false)
		return m, opened(msg.Path)

	case instructionDoneMsg:
		m.mode = ModeGrid
		cmd := m.applyInstruction(msg.result)
		return m, cmd

	case spinner.TickMsg:
		if m.mode == ModeBusy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeGrid:
			return m.handleGridKeys(msg)
		case ModeEdit, ModeInstruct, ModeOpen, ModeSave:
			return m.handleInputKeys(msg)
		case ModeCalculator:
			return m.handleCalculatorKeys(msg)
		case ModeBusy:
			return m, nil
		}
	}

	if m.mode == ModeOperations {
		return m.updateOperations(msg)
	}
	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleGridKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "shift+up":
		m.extend(0, -1)
		return m, nil
	case "shift+down":
		m.extend(0, 1)
		return m, nil
	case "shift+left":
		m.extend(-1, 0)
		return m, nil
	case "shift+right":
		m.extend(1, 0)
		return m, nil
	case "tab":
		m.move(1, 0)
		return m, nil
	case "shift+tab":
		m.move(-1, 0)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		if m.selecting {
			m.selecting = false
			return m, nil
		}
		return m, func() tea.Msg { return ui.BackMsg{} }
	case key.Matches(msg, m.keys.Up):
		m.move(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.move(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.move(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.move(1, 0)
	case key.Matches(msg, m.keys.Select):
		cmd := m.startEdit("")
		return m, cmd
	case key.Matches(msg, m.keys.Delete), msg.String() == "backspace":
		cmd := m.clearSelection()
		return m, cmd
	case key.Matches(msg, m.keys.Instruct):
		cmd := m.startInput(ModeInstruct, "指示: ", "例: A2に1万円入れて", "")
		return m, cmd
	case key.Matches(msg, m.keys.Open):
		cmd := m.startInput(ModeOpen, "開くファイル: ", "例: ~/Documents/家計簿.xlsx", "")
		return m, cmd
	case key.Matches(msg, m.keys.Save):
		if m.wb != nil && m.wb.Path != "" {
			return m, m.save(m.wb.Path)
		}
		cmd := m.startInput(ModeSave, "保存先: ", "例: ~/Documents/表.xlsx", "")
		return m, cmd
	case key.Matches(msg, m.keys.New):
		wb, err := sheet.New()
		if err != nil {
			return m, status("", err)
		}
		m.SetWorkbook(wb)
		m.setMessage("新しい表を作りました。", false)
	case key.Matches(msg, m.keys.Operations):
		cmd := m.startOperations()
		return m, cmd
	case key.Matches(msg, m.keys.Calculator):
		m.mode = ModeCalculator
	case key.Matches(msg, m.keys.Print):
		if m.printer != nil && m.wb != nil {
			job := m.printer.SheetJob(m.wb)
			return m, func() tea.Msg { return ui.PrintMsg{Job: job} }
		}
	case key.Matches(msg, m.keys.Speak):
		return m, m.speakCell()
	default:
		// Typing a character starts editing the cell with it.
		if msg.Type == tea.KeyRunes && !msg.Alt {
			cmd := m.startEdit(string(msg.Runes))
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) move(dc, dr int) {
	m.selecting = false
	m.cursorCol = max(1, m.cursorCol+dc)
	m.cursorRow = max(1, m.cursorRow+dr)
	m.scrollToCursor()
}

func (m *Model) extend(dc, dr int) {
	if !m.selecting {
		m.anchorCol, m.anchorRow = m.cursorCol, m.cursorRow
		m.selecting = true
	}
	m.cursorCol = max(1, m.cursorCol+dc)
	m.cursorRow = max(1, m.cursorRow+dr)
	m.scrollToCursor()
}

func (m *Model) scrollToCursor() {
	cols, rows := m.visibleCols(), m.visibleRows()
	if m.cursorCol-1 < m.offsetCol {
		m.offsetCol = m.cursorCol - 1
	} else if m.cursorCol > m.offsetCol+cols {
		m.offsetCol = m.cursorCol - cols
	}
	if m.cursorRow-1 < m.offsetRow {
		m.offsetRow = m.cursorRow - 1
	} else if m.cursorRow > m.offsetRow+rows {
		m.offsetRow = m.cursorRow - rows
	}
}

func (m *Model) startEdit(initial string) tea.Cmd {
	if initial == "" && m.wb != nil {
		c := m.wb.Cell(m.cursorCol, m.cursorRow)
		initial = c.Value
		if c.Formula != "" {
			initial = c.Formula
		}
	}
	return m.startInput(ModeEdit, m.Cursor()+": ", "数字・文字・=から始まる式", initial)
}

func (m *Model) startInput(mode Mode, prompt, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Width = max(20, m.width-len(prompt)-4)
	return m.input.Focus()
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeGrid
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case "enter":
		value := m.input.Value()
		mode := m.mode
		m.mode = ModeGrid
		m.input.Blur()
		m.input.Reset()
		switch mode {
		case ModeEdit:
			cmd := m.commitEdit(value)
			return m, cmd
		case ModeInstruct:
			return m.runInstruction(value)
		case ModeOpen:
			if p := ui.ExpandPath(value); p != "" {
				return m, m.Open(p)
			}
		case ModeSave:
			if p := ui.ExpandPath(value); p != "" {
				return m, m.save(ui.WithExt(p, ".xlsx"))
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) commitEdit(value string) tea.Cmd {
	if m.wb == nil {
		return nil
	}
	addr := m.Cursor()
	var err error
	if strings.HasPrefix(strings.TrimSpace(value), "=") {
		err = m.wb.SetFormula(addr, value)
	} else {
		err = m.wb.SetValue(addr, value)
	}
	if err != nil {
		m.setMessage(apperr.UserMessage(err), true)
		return status("", err)
	}
	m.move(0, 1)
	return nil
}

func (m *Model) clearSelection() tea.Cmd {
	if m.wb == nil {
		return nil
	}
	for _, addr := range m.Selection().Cells() {
		if err := m.wb.Clear(addr); err != nil {
			return status("", err)
		}
	}
	return nil
}

func (m Model) runInstruction(text string) (Model, tea.Cmd) {
	text = strings.TrimSpace(text)
	if text == "" || m.wb == nil {
		return m, nil
	}
	interp, wb := m.interp, m.wb
	useAI := interp.UsesAI()
	m.mode = ModeBusy
	if useAI {
		m.setMessage("AIに問い合わせています…", false)
	}
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), instructionTimeout)
		defer cancel()
		// Keys are ignored while busy, so the grid cannot change under
		// the snapshot. The local parser never reads it.
		var snapshot string
		if useAI {
			snapshot = wb.Context()
		}
		return instructionDoneMsg{result: interp.Interpret(ctx, text, snapshot)}
	})
}

func (m *Model) applyInstruction(res command.Result) tea.Cmd {
	if !res.Success {
		m.setMessage(res.Message, true)
		return status(res.Message, nil)
	}
	if err := m.wb.Apply(res.Changes); err != nil {
		m.setMessage(apperr.UserMessage(err), true)
		return status("", err)
	}
	if len(res.Changes) > 0 {
		last := res.Changes[len(res.Changes)-1]
		if col, err := sheet.ColumnIndex(last.Column); err == nil && last.Row > 0 {
			m.selecting = false
			m.cursorCol, m.cursorRow = col, last.Row
			m.scrollToCursor()
		}
	}
	m.setMessage(res.Message, false)
	return status(res.Message, nil)
}

func (m Model) save(path string) tea.Cmd {
	wb := m.wb
	return func() tea.Msg {
		if err := wb.Save(path); err != nil {
			return ui.StatusMsg{Err: err}
		}
		return ui.OpenedFileMsg{View: ui.ViewSheet, Path: path}
	}
}

func (m Model) speakCell() tea.Cmd {
	if m.wb == nil {
		return nil
	}
	c := m.wb.Cell(m.cursorCol, m.cursorRow)
	text := c.Address() + "、"
	if c.Display == "" {
		text += "空白"
	} else {
		text += c.Display
	}
	return func() tea.Msg { return ui.SpeakMsg{Text: text} }
}

func (m *Model) setMessage(text string, isError bool) {
	m.message = text
	m.isError = isError
}

func status(text string, err error) tea.Cmd {
	return func() tea.Msg { return ui.StatusMsg{Text: text, Err: err} }
}

func opened(path string) tea.Cmd {
	return func() tea.Msg { return ui.OpenedFileMsg{View: ui.ViewSheet, Path: path} }
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.scrollToCursor()
}

func (m Model) visibleCols() int {
	avail := m.width - rowHeaderWidth - calcWidth(m.mode)
	return max(1, avail/(m.colWidth+1))
}

func (m Model) visibleRows() int {
	// Title, column header, the message line and the input line.
	return max(1, m.height-5)
}
