package addressbook

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/contacts"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/ui"
)

func newBook(t *testing.T) *contacts.Service {
	t.Helper()
	book, err := contacts.Open(t.TempDir())
	require.NoError(t, err)
	for _, c := range []model.Contact{
		{DisplayName: "山田花子", Email: "hanako@example.com", Group: "家族", IsFavorite: true},
		{DisplayName: "佐藤医院", Email: "clinic@example.com", Group: "病院"},
		{DisplayName: "鈴木一郎", Email: "ichiro@example.com", Group: "友人"},
	} {
		_, err := book.Add(c)
		require.NoError(t, err)
	}
	return book
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func names(cs []model.Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.DisplayName
	}
	return out
}

func TestListsEveryContact(t *testing.T) {
	m := New(newBook(t), keys.DefaultKeyMap(), 80, 30)

	require.Len(t, m.Contacts(), 3)
	assert.Equal(t, "山田花子", m.Contacts()[0].DisplayName, "favourites come first")
	assert.Contains(t, m.View(), "連絡帳")
}

func TestTabCyclesFilters(t *testing.T) {
	m := New(newBook(t), keys.DefaultKeyMap(), 80, 30)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, []string{"山田花子"}, names(m.Contacts()), "favourites")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, []string{"山田花子"}, names(m.Contacts()), "家族")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, []string{"鈴木一郎"}, names(m.Contacts()), "友人")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, []string{"山田花子"}, names(m.Contacts()))
}

func TestSearch(t *testing.T) {
	m := New(newBook(t), keys.DefaultKeyMap(), 80, 30)

	m, _ = m.Update(runes("/"))
	require.Equal(t, ModeSearch, m.Mode())
	m, _ = m.Update(runes("clinic"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeList, m.Mode())
	assert.Equal(t, []string{"佐藤医院"}, names(m.Contacts()))

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd, "esc clears the search before leaving")
	assert.Len(t, m.Contacts(), 3)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, ui.BackMsg{}, cmd())
}

func TestEnterComposesToContact(t *testing.T) {
	m := New(newBook(t), keys.DefaultKeyMap(), 80, 30)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(ui.ComposeMsg)
	require.True(t, ok)
	assert.Equal(t, "hanako@example.com", msg.Draft.To)
}

func TestToggleFavorite(t *testing.T) {
	book := newBook(t)
	m := New(book, keys.DefaultKeyMap(), 80, 30)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(runes("f"))
	require.NotNil(t, cmd)
	m, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	assert.IsType(t, ChangedMsg{}, cmd())

	assert.Contains(t, m.Message(), "お気に入りにしました")
	assert.Len(t, book.Favorites(), 2)
}

func TestAddOpensForm(t *testing.T) {
	m := New(newBook(t), keys.DefaultKeyMap(), 80, 30)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, ModeForm, m.Mode())
	assert.Contains(t, m.View(), "連絡先を追加")
}

func TestDeleteAsksFirst(t *testing.T) {
	m := New(newBook(t), keys.DefaultKeyMap(), 80, 30)

	m, _ = m.Update(runes("d"))
	assert.Equal(t, ModeConfirmDelete, m.Mode())
	assert.Contains(t, m.View(), "山田花子 を削除しますか？")
}

func TestSaveErrorIsShown(t *testing.T) {
	book := newBook(t)
	m := New(book, keys.DefaultKeyMap(), 80, 30)

	c := m.Contacts()[0]
	c.Email = ""
	cmd := m.update(c, "保存しました")
	m, next := m.Update(cmd())

	assert.Nil(t, next)
	assert.Equal(t, "メールアドレスを入力してください", m.Message())
}
