package settings

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/ui"
)

type fakeStore struct {
	saved   *model.AppSettings
	access  model.AccessibilitySettings
	saveErr error
	testErr error
	tested  bool
}

func (f *fakeStore) Save(s *model.AppSettings, a model.AccessibilitySettings) error {
	f.saved = s
	f.access = a
	return f.saveErr
}

func (f *fakeStore) TestConnection(_ context.Context, _ *model.AppSettings) error {
	f.tested = true
	return f.testErr
}

func current() *model.AppSettings {
	s := model.DefaultSettings()
	s.EmailAddress = "taro@example.com"
	s.EmailPassword = "secret"
	s.DisplayName = "山田太郎"
	s.SMTPServer = "smtp.example.com"
	s.IMAPServer = "imap.example.com"
	s.SpeechRate = 5
	return s
}

func TestOpenFillsForm(t *testing.T) {
	m := New(&fakeStore{}, keys.DefaultKeyMap(), 100, 40)
	cmd := m.Open(current(), model.AccessibilitySettings{FontScale: 1.3, HighContrastMode: true})
	assert.NotNil(t, cmd)

	s, a := m.values()
	assert.Equal(t, "taro@example.com", s.EmailAddress)
	assert.Equal(t, "secret", s.EmailPassword)
	assert.Equal(t, 587, s.SMTPPort)
	assert.Equal(t, 993, s.IMAPPort)
	assert.Equal(t, "modern", s.Theme)
	assert.Equal(t, 5, s.SpeechRate)
	assert.InDelta(t, 1.25, a.FontScale, 0.001)
	assert.True(t, a.HighContrastMode)
	assert.Contains(t, m.View(), "設定")
}

func TestSaveSuccess(t *testing.T) {
	st := &fakeStore{}
	m := New(st, keys.DefaultKeyMap(), 100, 40)
	m.Open(current(), model.DefaultAccessibility())

	s, a := m.values()
	msg := m.save(s, a)()
	m, cmd := m.Update(msg)

	require.Equal(t, ModeResult, m.Mode())
	assert.Equal(t, "設定を保存しました。", m.Result())
	assert.Equal(t, "山田太郎", st.saved.DisplayName)
	require.NotNil(t, cmd)
	saved, ok := cmd().(ui.SettingsSavedMsg)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com", saved.Settings.SMTPServer)
	assert.False(t, st.tested)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, ui.BackMsg{}, cmd())
}

func TestSaveFailureShowsMessage(t *testing.T) {
	st := &fakeStore{saveErr: apperr.Internal("設定を保存できませんでした", errors.New("disk full"))}
	m := New(st, keys.DefaultKeyMap(), 100, 40)
	m.Open(current(), model.DefaultAccessibility())

	s, a := m.values()
	m, cmd := m.Update(m.save(s, a)())

	assert.Nil(t, cmd)
	assert.Equal(t, ModeResult, m.Mode())
	assert.Equal(t, "設定を保存できませんでした", m.Result())
}

func TestConnectionTestAfterSave(t *testing.T) {
	st := &fakeStore{testErr: apperr.Auth("メールのパスワードが違います", nil)}
	m := New(st, keys.DefaultKeyMap(), 100, 40)
	m.Open(current(), model.DefaultAccessibility())
	m.fb.test = true

	s, a := m.values()
	m, cmd := m.Update(m.save(s, a)())
	require.Equal(t, ModeTesting, m.Mode())
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "接続しています")

	m, _ = m.Update(m.testConnection(s)())
	assert.True(t, st.tested)
	assert.Equal(t, ModeResult, m.Mode())
	assert.Contains(t, m.Result(), "接続できませんでした")
	assert.Contains(t, m.Result(), "パスワードが違います")
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, validatePort(""))
	assert.NoError(t, validatePort("465"))
	assert.Error(t, validatePort("0"))
	assert.Error(t, validatePort("70000"))
	assert.Error(t, validatePort("abc"))
}

func TestRoundScale(t *testing.T) {
	assert.InDelta(t, 1.0, roundScale(0), 0.001)
	assert.InDelta(t, 1.5, roundScale(1.4), 0.001)
	assert.InDelta(t, 0.75, roundScale(0.8), 0.001)
}
