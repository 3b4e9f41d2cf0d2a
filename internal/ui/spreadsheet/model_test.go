package spreadsheet

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/command"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/ui"
)

type localInterpreter struct{ calls int }

func (l *localInterpreter) Interpret(_ context.Context, text, _ string) command.Result {
	l.calls++
	return command.Parse(text)
}

func (l *localInterpreter) UsesAI() bool { return false }

// aiInterpreter records the sheet snapshot it was given.
type aiInterpreter struct{ sheet string }

func (a *aiInterpreter) Interpret(_ context.Context, text, sheet string) command.Result {
	a.sheet = sheet
	return command.Parse(text)
}

func (a *aiInterpreter) UsesAI() bool { return true }

func newModel(t *testing.T) (Model, *localInterpreter) {
	t.Helper()
	interp := &localInterpreter{}
	m := New(interp, nil, keys.DefaultKeyMap(), 100, 30)
	require.NotNil(t, m.Workbook())
	t.Cleanup(func() { m.Workbook().Close() })
	return m, interp
}

func press(m Model, msgs ...tea.KeyMsg) Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestTypingWritesCellAndMovesDown(t *testing.T) {
	m, _ := newModel(t)

	m = press(m, runes("1"), runes("2"), enter)

	assert.Equal(t, ModeGrid, m.Mode())
	assert.Equal(t, "A2", m.Cursor())
	c, err := m.Workbook().CellAt("A1")
	require.NoError(t, err)
	assert.Equal(t, "12", c.Display)
}

func TestEditingFormula(t *testing.T) {
	m, _ := newModel(t)
	m = press(m, runes("4"), enter, runes("6"), enter)
	m = press(m, runes("="), runes("A1+A2"), enter)

	c, err := m.Workbook().CellAt("A3")
	require.NoError(t, err)
	assert.Equal(t, "=A1+A2", c.Formula)
	assert.Equal(t, "10", c.Display)
}

func TestEscCancelsEdit(t *testing.T) {
	m, _ := newModel(t)
	m = press(m, runes("9"), esc)

	assert.Equal(t, ModeGrid, m.Mode())
	c, err := m.Workbook().CellAt("A1")
	require.NoError(t, err)
	assert.Empty(t, c.Display)
}

func TestShiftArrowsExtendSelection(t *testing.T) {
	m, _ := newModel(t)
	m = press(m,
		tea.KeyMsg{Type: tea.KeyShiftRight},
		tea.KeyMsg{Type: tea.KeyShiftDown},
	)
	assert.Equal(t, "A1:B2", m.Selection().String())

	m = press(m, down)
	assert.True(t, m.Selection().IsSingle())
	assert.Equal(t, "B3", m.Cursor())
}

func TestEscOnGridGoesBack(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(esc)
	require.NotNil(t, cmd)
	assert.IsType(t, ui.BackMsg{}, cmd())
}

func TestInstructionAppliesChanges(t *testing.T) {
	m, interp := newModel(t)

	m, cmd := m.Update(instructionDoneMsg{result: command.Parse("B2に1万円入れて")})
	require.NotNil(t, cmd)
	assert.Equal(t, "B2", m.Cursor())
	c, err := m.Workbook().CellAt("B2")
	require.NoError(t, err)
	assert.Equal(t, "10000", c.Display)
	assert.Equal(t, 0, interp.calls)

	m, _ = m.Update(instructionDoneMsg{result: command.Parse("なにか")})
	assert.Equal(t, command.FailureMessage, m.Message())
}

func TestInstructionRunsInterpreter(t *testing.T) {
	m, interp := newModel(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	require.Equal(t, ModeInstruct, m.Mode())

	m = press(m, runes("A1とA2を足してA3に"))
	m, cmd := m.Update(enter)
	require.Equal(t, ModeBusy, m.Mode())
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	var done tea.Msg
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(instructionDoneMsg); ok {
			done = msg
		}
	}
	require.NotNil(t, done)
	assert.Equal(t, 1, interp.calls)

	m, _ = m.Update(done)
	c, err := m.Workbook().CellAt("A3")
	require.NoError(t, err)
	assert.Equal(t, "=A1+A2", c.Formula)
}

func runBusyCmd(t *testing.T, cmd tea.Cmd) instructionDoneMsg {
	t.Helper()
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(instructionDoneMsg); ok {
			return msg
		}
	}
	t.Fatal("no instruction result in batch")
	return instructionDoneMsg{}
}

func TestInstructionSnapshotTakenInCommand(t *testing.T) {
	interp := &aiInterpreter{}
	m := New(interp, nil, keys.DefaultKeyMap(), 100, 30)
	t.Cleanup(func() { m.Workbook().Close() })
	require.NoError(t, m.Workbook().Apply([]model.CellChange{{Column: "A", Row: 30000, Value: "1"}}))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	m = press(m, runes("B1に5入れて"))
	m, cmd := m.Update(enter)
	require.Equal(t, ModeBusy, m.Mode())
	assert.Empty(t, interp.sheet)

	done := runBusyCmd(t, cmd)
	assert.Equal(t, "A30000=1", interp.sheet)
	assert.True(t, done.result.Success)
}

func TestRunOperation(t *testing.T) {
	m, _ := newModel(t)
	require.NoError(t, m.Workbook().Apply([]model.CellChange{
		{Column: "A", Row: 1, Value: "100"},
		{Column: "A", Row: 2, Value: "200"},
	}))
	m = press(m, tea.KeyMsg{Type: tea.KeyShiftDown})

	res, err := m.runOperation(OpSum, "")
	require.NoError(t, err)
	assert.Equal(t, "A3", res.Target)

	_, err = m.runOperation(OpDiscount, "abc")
	assert.Error(t, err)

	res, err = m.runOperation(OpDiscount, "30%")
	require.NoError(t, err)
	c, err := m.Workbook().CellAt(res.Target)
	require.NoError(t, err)
	assert.Equal(t, "=SUM(A1:A2)*0.7", c.Formula)
}

func TestValidatePercent(t *testing.T) {
	assert.NoError(t, validatePercent("15"))
	assert.Error(t, validatePercent("0"))
	assert.Error(t, validatePercent("100"))
	assert.Error(t, validatePercent("abc"))
}

func TestCalculatorInsertsResult(t *testing.T) {
	m, _ := newModel(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyF7})
	require.Equal(t, ModeCalculator, m.Mode())

	m = press(m, runes("1"), runes("2"), runes("*"), runes("3"), enter, runes("i"))

	assert.Equal(t, ModeGrid, m.Mode())
	c, err := m.Workbook().CellAt("A1")
	require.NoError(t, err)
	assert.Equal(t, "36", c.Display)
}

func TestSpeakCell(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.SpeakMsg{Text: "A1、空白"}, cmd())
}
