package editor

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/ai"
	"github.com/nhle/harmonicsheet/internal/document"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/ui"
)

type politeProcessor struct{}

func (politeProcessor) ProcessDocumentCommand(_ context.Context, _, text string) (ai.DocumentResult, error) {
	return ai.DocumentResult{Success: true, Message: "丁寧にしました。", NewText: text + "\nよろしくお願いいたします。"}, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypingUpdatesDocument(t *testing.T) {
	m := New(nil, nil, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(runes("こんにちは"))

	d := m.Document()
	assert.Equal(t, "こんにちは", d.Text)
	assert.True(t, d.Modified)
	assert.Equal(t, document.DefaultName, d.Name)
}

func TestSaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letter.txt")
	m := New(nil, nil, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(runes("拝啓"))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, ModeSave, m.Mode())
	m, _ = m.Update(runes(path))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m, cmd = m.Update(cmd())
	assert.Equal(t, "保存しました。", m.Message())
	assert.Equal(t, ui.OpenedFileMsg{View: ui.ViewDocument, Path: path}, cmd())
	assert.False(t, m.Document().Modified)

	fresh := New(nil, nil, keys.DefaultKeyMap(), 80, 24)
	fresh, _ = fresh.Update(fresh.Open(path)())
	assert.Equal(t, "拝啓", fresh.Document().Text)
	assert.Equal(t, "letter", fresh.Document().Name)
}

func TestInstructionReplacesText(t *testing.T) {
	m := New(politeProcessor{}, nil, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(runes("お元気ですか"))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	m, _ = m.Update(runes("丁寧にして"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeBusy, m.Mode())

	var done tea.Msg
	for _, c := range cmd().(tea.BatchMsg) {
		if c == nil {
			continue
		}
		if msg, ok := c().(instructionDoneMsg); ok {
			done = msg
		}
	}
	require.NotNil(t, done)

	m, _ = m.Update(done)
	assert.Equal(t, ModeWrite, m.Mode())
	assert.Equal(t, "お元気ですか\nよろしくお願いいたします。", m.Document().Text)
	assert.Equal(t, "丁寧にしました。", m.Message())
}

func TestSpeakReadsDocument(t *testing.T) {
	m := New(nil, nil, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(runes("本日は晴天なり"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.SpeakMsg{Text: "本日は晴天なり"}, cmd())
}
