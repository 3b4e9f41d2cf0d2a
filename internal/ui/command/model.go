package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sheetcmd "github.com/nhle/harmonicsheet/internal/command"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// CommandMsg is emitted when the user executes a command. It carries the
// canonical command name, or the raw text when nothing matched.
type CommandMsg string

// Canonical command names.
const (
	Home         = "ホーム"
	Document     = "文書"
	Sheet        = "表"
	Budget       = "家計簿"
	Mail         = "メール"
	NewMail      = "新しいメール"
	Refresh      = "受信"
	Contacts     = "連絡帳"
	Settings     = "設定"
	Tutorial     = "使い方ガイド"
	Help         = "ヘルプ"
	Larger       = "文字を大きく"
	Smaller      = "文字を小さく"
	Contrast     = "ハイコントラスト"
	StopSpeaking = "読み上げを止める"
	Quit         = "終了"
)

type entry struct {
	name    string
	aliases []string
}

var entries = []entry{
	{Home, []string{"home", "ほーむ", "最初の画面"}},
	{Document, []string{"document", "doc", "ぶんしょ", "手紙"}},
	{Sheet, []string{"sheet", "ひょう", "表計算"}},
	{Budget, []string{"budget", "かけいぼ"}},
	{Mail, []string{"mail", "めーる", "受信箱"}},
	{NewMail, []string{"compose", "メールを書く"}},
	{Refresh, []string{"refresh", "sync", "更新", "メールを受信"}},
	{Contacts, []string{"contacts", "れんらくちょう", "アドレス帳"}},
	{Settings, []string{"settings", "config", "せってい"}},
	{Tutorial, []string{"tutorial", "guide", "ガイド", "使い方"}},
	{Help, []string{"help", "へるぷ"}},
	{Larger, []string{"larger", "大きく"}},
	{Smaller, []string{"smaller", "小さく"}},
	{Contrast, []string{"contrast", "コントラスト"}},
	{StopSpeaking, []string{"stop", "止めて", "読み上げ停止"}},
	{Quit, []string{"quit", "q", "exit", "おわる"}},
}

// Resolve maps typed text to a canonical command name. ok is false when
// nothing matched.
func Resolve(text string) (name string, ok bool) {
	text = strings.ToLower(sheetcmd.Normalize(text))
	for _, e := range entries {
		if text == e.name {
			return e.name, true
		}
		for _, a := range e.aliases {
			if text == strings.ToLower(a) {
				return e.name, true
			}
		}
	}
	return text, false
}

// Names lists every canonical command name.
func Names() []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new command palette model.
func New(k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "コマンドを入力（例: 表、メール、設定）"
	ti.Prompt = "> "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.input.Reset()
			return m, func() tea.Msg { return ui.BackMsg{} }
		case msg.Type == tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if text == "" {
				return m, nil
			}
			name, _ := Resolve(text)
			return m, func() tea.Msg { return CommandMsg(name) }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	title := theme.TitleStyle.Render("コマンド")
	input := m.input.View()
	hint := theme.HelpStyle.Render("tab で候補を入力 | enter 実行 | esc もどる")
	list := theme.MutedStyle.Render(strings.Join(Names(), "・"))

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, "", list, "", hint)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
