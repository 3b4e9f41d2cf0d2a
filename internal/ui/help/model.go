package help

import (
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/speech"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// Hints returns the help text for a topic.
type Hints interface {
	Hint(topic string) string
}

// topics are shown in this order with these headings.
var topics = []struct {
	key, title string
}{
	{"spreadsheet_input", "表に数字を入れる"},
	{"spreadsheet_formula", "表で計算する"},
	{"mail_compose", "メールを書く"},
	{"mail_reply", "メールに返信する"},
	{"voice_input", "声で入力する"},
	{"print", "印刷する"},
	{"save", "保存する"},
}

// Model is the help screen: shortcut keys followed by how-to topics.
type Model struct {
	keys     *keys.KeyMap
	hints    Hints
	help     help.Model
	viewport viewport.Model
	width    int
	height   int
}

// New creates a new help view model.
func New(k *keys.KeyMap, hints Hints, width, height int) Model {
	h := help.New()
	h.Width = width
	m := Model{
		keys:     k,
		hints:    hints,
		help:     h,
		viewport: viewport.New(width, height),
	}
	m.SetSize(width, height)
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update scrolls the help text and closes on esc.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Help):
			return m, func() tea.Msg { return ui.BackMsg{} }
		case key.Matches(msg, m.keys.Speak):
			text := m.topicsText()
			return m, func() tea.Msg { return ui.SpeakMsg{Text: text} }
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// topicsText is the plain text of every topic, used for reading aloud.
func (m Model) topicsText() string {
	var b strings.Builder
	for _, t := range topics {
		b.WriteString(t.title)
		b.WriteString("。")
		b.WriteString(m.hint(t.key))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) hint(topic string) string {
	if topic == "voice_input" && runtime.GOOS != "windows" {
		return speech.VoiceTypingHint(runtime.GOOS)
	}
	if m.hints == nil {
		return ""
	}
	return m.hints.Hint(topic)
}

func (m Model) content() string {
	m.help.ShowAll = true
	keysHelp := m.help.View(m.keys)

	var md strings.Builder
	md.WriteString("## 困ったときは\n\n")
	for _, t := range topics {
		md.WriteString("### ")
		md.WriteString(t.title)
		md.WriteString("\n\n")
		md.WriteString(strings.ReplaceAll(m.hint(t.key), "\n", "  \n"))
		md.WriteString("\n\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("キー操作"),
		keysHelp,
		"",
		ui.RenderMarkdown(md.String(), m.width-8),
	)
}

// View renders the help screen.
func (m Model) View() string {
	return theme.PanelStyle.
		Width(m.width - 4).
		Render(m.viewport.View() + "\n" + theme.HelpStyle.Render("↑↓ スクロール | ctrl+r 読み上げ | esc もどる"))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
	m.viewport.Width = max(10, width-6)
	m.viewport.Height = max(3, height-6)
	m.viewport.SetContent(m.content())
}
