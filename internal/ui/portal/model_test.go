package portal

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/ui"
)

func TestNumberKeysOpenScreens(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.NavigateMsg{View: ui.ViewMail}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("4")})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.NewBudgetMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("9")})
	assert.Nil(t, cmd)
}

func TestRecentFilesFollowMenu(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetRecent([]string{"/home/a/手紙.docx"}, []string{"/home/a/家計簿.xlsx"})

	require.Len(t, m.Entries(), len(menu)+2)
	assert.Contains(t, m.View(), "最近使ったファイル")

	for i := 0; i < len(menu)+1; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.NavigateMsg{View: ui.ViewSheet, Path: "/home/a/家計簿.xlsx"}, cmd())
}

func TestUpWraps(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, len(menu)-1, m.Selected())
}

func TestUnreadAndGuideReminder(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetUnread(2)
	m.SetShowGuide(true)

	view := m.View()
	assert.Contains(t, view, "2通の未読")
	assert.Contains(t, view, "使い方ガイド")
}
