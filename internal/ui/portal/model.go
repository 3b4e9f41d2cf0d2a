// Package portal is the home screen: large numbered menu entries plus the
// recently opened files.
package portal

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// Entry is one selectable line on the home screen.
type Entry struct {
	Label string
	Hint  string
	View  ui.View
	// Path is set for recent files.
	Path   string
	budget bool
}

var menu = []Entry{
	{Label: "文書", Hint: "手紙や報告書を書く", View: ui.ViewDocument},
	{Label: "表計算", Hint: "数字を入れて計算する", View: ui.ViewSheet},
	{Label: "メール", Hint: "メールを読む・送る", View: ui.ViewMail},
	{Label: "家計簿", Hint: "家計簿のひな形を開く", View: ui.ViewSheet, budget: true},
	{Label: "連絡帳", Hint: "よく使う宛先", View: ui.ViewContacts},
	{Label: "設定", Hint: "メールや文字の大きさ", View: ui.ViewSettings},
	{Label: "使い方ガイド", Hint: "はじめての方へ", View: ui.ViewTutorial},
	{Label: "ヘルプ", Hint: "困ったときは", View: ui.ViewHelp},
}

// Model is the home screen.
type Model struct {
	keys      *keys.KeyMap
	entries   []Entry
	selected  int
	unread    int
	showGuide bool
	width     int
	height    int
}

// New creates the home screen.
func New(k *keys.KeyMap, width, height int) Model {
	m := Model{keys: k, width: width, height: height}
	m.SetRecent(nil, nil)
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetRecent replaces the recent file entries below the menu.
func (m *Model) SetRecent(documents, sheets []string) {
	entries := append([]Entry(nil), menu...)
	for _, p := range documents {
		entries = append(entries, Entry{Label: filepath.Base(p), Hint: "文書", View: ui.ViewDocument, Path: p})
	}
	for _, p := range sheets {
		entries = append(entries, Entry{Label: filepath.Base(p), Hint: "表", View: ui.ViewSheet, Path: p})
	}
	m.entries = entries
	if m.selected >= len(entries) {
		m.selected = 0
	}
}

// SetUnread sets the number of unread messages shown next to メール.
func (m *Model) SetUnread(n int) {
	m.unread = n
}

// SetShowGuide shows a reminder to start the tutorial.
func (m *Model) SetShowGuide(show bool) {
	m.showGuide = show
}

// Entries returns every selectable entry.
func (m Model) Entries() []Entry {
	return m.entries
}

// Selected returns the index of the highlighted entry.
func (m Model) Selected() int {
	return m.selected
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles key presses on the home screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			m.selected = (m.selected + 1) % len(m.entries)
		case key.Matches(msg, m.keys.Up):
			m.selected = (m.selected - 1 + len(m.entries)) % len(m.entries)
		case key.Matches(msg, m.keys.Select):
			return m, m.open(m.entries[m.selected])
		case key.Matches(msg, m.keys.Speak):
			e := m.entries[m.selected]
			text := e.Label + "。" + e.Hint
			return m, func() tea.Msg { return ui.SpeakMsg{Text: text} }
		default:
			s := msg.String()
			if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
				i := int(s[0] - '1')
				if i < len(menu) {
					m.selected = i
					return m, m.open(m.entries[i])
				}
			}
		}
	}
	return m, nil
}

func (m Model) open(e Entry) tea.Cmd {
	if e.budget {
		return func() tea.Msg { return ui.NewBudgetMsg{} }
	}
	return func() tea.Msg { return ui.NavigateMsg{View: e.View, Path: e.Path} }
}

// View renders the home screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("何をしますか？"))
	b.WriteString("\n\n")

	for i, e := range m.entries {
		if i == len(menu) {
			b.WriteString("\n")
			b.WriteString(theme.TitleStyle.Render("最近使ったファイル"))
			b.WriteString("\n")
		}
		var line string
		if i < len(menu) {
			line = fmt.Sprintf("%d  %-8s", i+1, e.Label)
			if e.View == ui.ViewMail && m.unread > 0 {
				line += fmt.Sprintf(" (%d通の未読)", m.unread)
			}
			line += "  " + theme.MutedStyle.Render(e.Hint)
		} else {
			line = fmt.Sprintf("   %s  %s", e.Label, theme.MutedStyle.Render("["+e.Hint+"]"))
		}
		if i == m.selected {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.showGuide {
		b.WriteString("\n")
		b.WriteString(theme.WarningStyle.Render("はじめての方は 7 を押して「使い方ガイド」をご覧ください。"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("数字キーまたは ↑↓ と enter で選ぶ | ctrl+r 読み上げ | F1 ヘルプ | ctrl+q 終了"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}
