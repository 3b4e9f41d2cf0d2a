package spreadsheet

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/sheet"
	"github.com/nhle/harmonicsheet/internal/theme"
)

const (
	rowHeaderWidth = 5
	calcPanelWidth = 30
)

func calcWidth(mode Mode) int {
	if mode == ModeCalculator {
		return calcPanelWidth + 2
	}
	return 0
}

// View renders the spreadsheet screen.
func (m Model) View() string {
	title := theme.TitleStyle.Render(m.title())

	var body string
	if m.mode == ModeOperations && m.opsForm != nil {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderGrid(),
			"  ",
			theme.PanelStyle.Render(m.opsForm.View()),
		)
	} else if m.mode == ModeCalculator {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderGrid(), "  ", m.renderCalculator())
	} else {
		body = m.renderGrid()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		body,
		m.renderFooter(),
	)
}

func (m Model) title() string {
	name := "新しい表"
	if m.wb != nil && m.wb.Path != "" {
		name = filepath.Base(m.wb.Path)
	}
	r := m.Selection()
	pos := m.Cursor()
	if !r.IsSingle() {
		pos = fmt.Sprintf("%s（%dセル）", r.String(), r.Size())
	}
	return fmt.Sprintf("表計算  %s  %s", name, pos)
}

func (m Model) renderGrid() string {
	if m.wb == nil {
		return theme.ErrorStyle.Render("表を開けませんでした。")
	}

	cols, rows := m.visibleCols(), m.visibleRows()
	sel := m.Selection()
	cell := lipgloss.NewStyle().Width(m.colWidth).MaxWidth(m.colWidth)
	rowHeader := theme.GridHeaderStyle.Width(rowHeaderWidth).Align(lipgloss.Right)

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", rowHeaderWidth))
	for c := m.offsetCol + 1; c <= m.offsetCol+cols; c++ {
		b.WriteString(" ")
		b.WriteString(theme.GridHeaderStyle.Width(m.colWidth).Render(sheet.ColumnName(c)))
	}
	b.WriteString("\n")

	for r := m.offsetRow + 1; r <= m.offsetRow+rows; r++ {
		b.WriteString(rowHeader.Render(strconv.Itoa(r)))
		for c := m.offsetCol + 1; c <= m.offsetCol+cols; c++ {
			b.WriteString(" ")
			v := m.wb.Cell(c, r)
			text := truncate(v.Display, m.colWidth)
			style := theme.CellStyle.Inherit(cell)
			if isNumeric(v.Display) {
				style = style.Align(lipgloss.Right)
			}
			switch {
			case c == m.cursorCol && r == m.cursorRow:
				style = theme.CursorCellStyle.Inherit(style)
			case c >= sel.Left && c <= sel.Right && r >= sel.Top && r <= sel.Bottom:
				style = theme.SelectedCellStyle.Inherit(style)
			}
			b.WriteString(style.Render(text))
		}
		if r < m.offsetRow+rows {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderCalculator() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("電卓"))
	b.WriteString("\n")
	b.WriteString(theme.MutedStyle.Render(m.calc.Display()))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Width(calcPanelWidth - 4).Align(lipgloss.Right).
		Render(m.calc.Value()))
	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("数字 + - * / = % . ⌫\nc 消す  r 履歴  i セルに入れる"))
	history := m.calc.History()
	if len(history) > 0 {
		b.WriteString("\n\n")
		b.WriteString(theme.MutedStyle.Render("履歴"))
		for i, h := range history {
			if i >= 5 {
				break
			}
			b.WriteString("\n")
			b.WriteString(h)
		}
	}
	return theme.PanelStyle.Width(calcPanelWidth).Render(b.String())
}

func (m Model) renderFooter() string {
	switch m.mode {
	case ModeEdit, ModeInstruct, ModeOpen, ModeSave:
		return "\n" + m.input.View()
	case ModeBusy:
		return "\n" + m.spinner.View() + " 考えています…"
	}

	line := ""
	if m.wb != nil {
		c := m.wb.Cell(m.cursorCol, m.cursorRow)
		if c.Formula != "" {
			line = theme.MutedStyle.Render(c.Address() + ": " + c.Formula)
		}
	}
	msg := ""
	if m.message != "" {
		if m.isError {
			msg = theme.ErrorStyle.Render(m.message)
		} else {
			msg = theme.SuccessStyle.Render(m.message)
		}
	}
	return line + "\n" + msg
}

func truncate(s string, w int) string {
	if lipgloss.Width(s) <= w {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > w-1 {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "…"
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}
