package guide

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/tutorial"
	"github.com/nhle/harmonicsheet/internal/ui"
)

func newGuide(t *testing.T) (Model, *tutorial.Service) {
	t.Helper()
	svc, err := tutorial.Open(t.TempDir())
	require.NoError(t, err)
	return New(svc, keys.DefaultKeyMap(), 100, 40), svc
}

func TestStepsAdvanceAndGoBack(t *testing.T) {
	m, svc := newGuide(t)
	assert.Contains(t, m.View(), "ステップ 1 /")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, svc.Progress().CurrentStep)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, svc.Progress().CurrentStep)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 1, svc.Progress().CurrentStep)
	assert.Contains(t, m.View(), "ステップ 2 /")
}

func TestSkipAndReset(t *testing.T) {
	m, svc := newGuide(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	assert.True(t, svc.IsCompleted())
	assert.Contains(t, m.View(), "ガイドはすべて終わりました")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.False(t, svc.IsCompleted())
	assert.Equal(t, 0, svc.Progress().CurrentStep)
	assert.Empty(t, m.Message())
}

func TestGoToTargetScreen(t *testing.T) {
	m, _ := newGuide(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	require.NotNil(t, cmd)
	nav, ok := cmd().(ui.NavigateMsg)
	require.True(t, ok)
	assert.Equal(t, ui.ViewDocument, nav.View)
}

func TestSpeakAndBack(t *testing.T) {
	m, _ := newGuide(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	speak, ok := cmd().(ui.SpeakMsg)
	require.True(t, ok)
	assert.Contains(t, speak.Text, "HarmonicSheetへようこそ")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, ui.BackMsg{}, cmd())
}
