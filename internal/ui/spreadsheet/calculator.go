package spreadsheet

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/harmonicsheet/internal/ui"
)

// handleCalculatorKeys drives the keypad calculator beside the grid.
// "i" writes the result into the cell under the cursor.
func (m Model) handleCalculatorKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	s := msg.String()
	switch s {
	case "esc", "f7":
		m.mode = ModeGrid
		return m, nil
	case "enter", "=":
		m.calc.Equals()
	case "backspace":
		m.calc.Backspace()
	case "c", "C", "delete":
		m.calc.Clear()
	case ".":
		m.calc.Decimal()
	case "%":
		m.calc.Percent()
	case "+", "-", "*", "/":
		m.calc.Operator(s)
	case "r":
		m.calc.Recall(0)
	case "x":
		m.calc.ClearHistory()
	case "i":
		value := m.calc.Value()
		m.mode = ModeGrid
		cmd := m.commitEdit(value)
		return m, cmd
	case "ctrl+r":
		text := m.calc.Value()
		return m, func() tea.Msg { return ui.SpeakMsg{Text: text} }
	default:
		if len(msg.Runes) == 1 && msg.Runes[0] >= '0' && msg.Runes[0] <= '9' {
			m.calc.Digit(msg.Runes[0])
		}
	}
	return m, nil
}
