// Package settings is the screen where the user enters their mail account,
// AI key and display preferences.
package settings

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// Store persists what the screen edits.
type Store interface {
	Save(s *model.AppSettings, a model.AccessibilitySettings) error
	// TestConnection logs in to the mail server with s.
	TestConnection(ctx context.Context, s *model.AppSettings) error
}

// Mode represents the current state of the settings screen.
type Mode int

const (
	ModeForm Mode = iota
	ModeSaving
	ModeTesting
	ModeResult
)

const testTimeout = 30 * time.Second

type savedMsg struct {
	settings *model.AppSettings
	err      error
}

type testedMsg struct {
	err error
}

// formBindings holds the values huh writes into. It lives on the heap so
// the pointers handed to huh survive copies of Model.
type formBindings struct {
	apiKey       string
	address      string
	password     string
	displayName  string
	smtpServer   string
	smtpPort     string
	imapServer   string
	imapPort     string
	theme        string
	fontScale    float64
	speechRate   int
	highContrast bool
	test         bool
}

// Model is the Bubble Tea model for the settings screen.
type Model struct {
	store   Store
	keys    *keys.KeyMap
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	spinner spinner.Model

	result  string
	isError bool

	width, height int
}

// New creates the settings screen.
func New(store Store, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		store:   store,
		keys:    k,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Mode returns the current mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Result returns the outcome line shown after saving.
func (m Model) Result() string {
	return m.result
}

// Open fills the form from the current settings and focuses it.
func (m *Model) Open(s *model.AppSettings, a model.AccessibilitySettings) tea.Cmd {
	if s == nil {
		s = model.DefaultSettings()
	}
	*m.fb = formBindings{
		apiKey:       s.ClaudeAPIKey,
		address:      s.EmailAddress,
		password:     s.EmailPassword,
		displayName:  s.DisplayName,
		smtpServer:   s.SMTPServer,
		smtpPort:     portString(s.SMTPPort, model.DefaultSMTPPort),
		imapServer:   s.IMAPServer,
		imapPort:     portString(s.IMAPPort, model.DefaultIMAPPort),
		theme:        s.Theme,
		fontScale:    roundScale(a.FontScale),
		speechRate:   s.SpeechRate,
		highContrast: a.HighContrastMode,
	}
	if m.fb.theme == "" {
		m.fb.theme = theme.Modern
	}
	m.result = ""
	m.isError = false
	m.mode = ModeForm
	m.form = m.buildForm()
	return m.form.Init()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the settings screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.finish(apperr.UserMessage(msg.err), true)
			return m, nil
		}
		saved := func() tea.Msg { return ui.SettingsSavedMsg{Settings: msg.settings} }
		if m.fb.test && msg.settings.MailConfigured() {
			m.mode = ModeTesting
			return m, tea.Batch(saved, m.spinner.Tick, m.testConnection(msg.settings))
		}
		m.finish("設定を保存しました。", false)
		return m, saved

	case testedMsg:
		if msg.err != nil {
			m.finish("設定を保存しましたが、メールサーバーに接続できませんでした。"+apperr.UserMessage(msg.err), true)
			return m, nil
		}
		m.finish("設定を保存しました。メールサーバーに接続できました。", false)
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeSaving || m.mode == ModeTesting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)
	case ModeResult:
		if k, ok := msg.(tea.KeyMsg); ok {
			if key.Matches(k, m.keys.Back) || key.Matches(k, m.keys.Select) {
				return m, func() tea.Msg { return ui.BackMsg{} }
			}
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		cmd := m.Open(nil, model.DefaultAccessibility())
		return m, cmd
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		s, a := m.values()
		m.mode = ModeSaving
		return m, tea.Batch(m.spinner.Tick, m.save(s, a))
	case huh.StateAborted:
		return m, func() tea.Msg { return ui.BackMsg{} }
	}
	return m, cmd
}

// values converts the form bindings back into settings.
func (m Model) values() (*model.AppSettings, model.AccessibilitySettings) {
	smtpPort, _ := strconv.Atoi(strings.TrimSpace(m.fb.smtpPort))
	imapPort, _ := strconv.Atoi(strings.TrimSpace(m.fb.imapPort))
	s := &model.AppSettings{
		ClaudeAPIKey:  strings.TrimSpace(m.fb.apiKey),
		EmailAddress:  strings.TrimSpace(m.fb.address),
		EmailPassword: m.fb.password,
		DisplayName:   strings.TrimSpace(m.fb.displayName),
		SMTPServer:    strings.TrimSpace(m.fb.smtpServer),
		SMTPPort:      smtpPort,
		IMAPServer:    strings.TrimSpace(m.fb.imapServer),
		IMAPPort:      imapPort,
		SpeechRate:    m.fb.speechRate,
		Theme:         m.fb.theme,
	}
	if s.SMTPPort == 0 {
		s.SMTPPort = model.DefaultSMTPPort
	}
	if s.IMAPPort == 0 {
		s.IMAPPort = model.DefaultIMAPPort
	}
	a := model.AccessibilitySettings{
		FontScale:        m.fb.fontScale,
		SpeechRate:       m.fb.speechRate,
		HighContrastMode: m.fb.highContrast,
	}.Clamp()
	return s, a
}

func (m Model) save(s *model.AppSettings, a model.AccessibilitySettings) tea.Cmd {
	st := m.store
	return func() tea.Msg {
		return savedMsg{settings: s, err: st.Save(s, a)}
	}
}

func (m Model) testConnection(s *model.AppSettings) tea.Cmd {
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		return testedMsg{err: st.TestConnection(ctx, s)}
	}
}

func (m *Model) finish(text string, isError bool) {
	m.mode = ModeResult
	m.result = text
	m.isError = isError
}

func (m *Model) buildForm() *huh.Form {
	themes := make([]huh.Option[string], len(theme.Names))
	for i, name := range theme.Names {
		themes[i] = huh.NewOption(theme.Label(name), name)
	}

	var scales []huh.Option[float64]
	for s := model.MinFontScale; s <= model.MaxFontScale+0.001; s += 0.25 {
		scales = append(scales, huh.NewOption(fmt.Sprintf("%d%%", int(math.Round(s*100))), roundScale(s)))
	}

	rates := make([]huh.Option[int], 0, 11)
	for r := 0; r <= 10; r++ {
		label := strconv.Itoa(r)
		switch r {
		case 0:
			label += "（とてもゆっくり）"
		case model.DefaultSpeechRate:
			label += "（標準）"
		case 10:
			label += "（とても速い）"
		}
		rates = append(rates, huh.NewOption(label, r))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("お名前").
				Description("メールの差出人として表示されます").
				Value(&m.fb.displayName),
			huh.NewInput().
				Title("メールアドレス").
				Placeholder("example@gmail.com").
				Value(&m.fb.address),
			huh.NewInput().
				Title("メールのパスワード").
				Description("Gmail の場合はアプリパスワードを入力します").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		).Title("メールアカウント"),
		huh.NewGroup(
			huh.NewInput().
				Title("送信サーバー (SMTP)").
				Placeholder("smtp.gmail.com").
				Value(&m.fb.smtpServer),
			huh.NewInput().
				Title("送信ポート").
				Placeholder("587").
				Value(&m.fb.smtpPort).
				Validate(validatePort),
			huh.NewInput().
				Title("受信サーバー (IMAP)").
				Placeholder("imap.gmail.com").
				Value(&m.fb.imapServer),
			huh.NewInput().
				Title("受信ポート").
				Placeholder("993").
				Value(&m.fb.imapPort).
				Validate(validatePort),
		).Title("メールサーバー"),
		huh.NewGroup(
			huh.NewInput().
				Title("AI のキー (Claude API)").
				Description("空欄のままでも、簡単な指示は使えます").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.apiKey),
		).Title("AI アシスタント"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("色の組み合わせ").
				Options(themes...).
				Value(&m.fb.theme),
			huh.NewSelect[float64]().
				Title("表の文字の大きさ").
				Options(scales...).
				Value(&m.fb.fontScale),
			huh.NewSelect[int]().
				Title("読み上げの速さ").
				Options(rates...).
				Value(&m.fb.speechRate),
			huh.NewConfirm().
				Title("ハイコントラスト表示にしますか？").
				Affirmative("はい").
				Negative("いいえ").
				Value(&m.fb.highContrast),
			huh.NewConfirm().
				Title("保存のあと、メールの接続を確認しますか？").
				Affirmative("はい").
				Negative("いいえ").
				Value(&m.fb.test),
		).Title("表示と読み上げ"),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 10
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

// View renders the settings screen.
func (m Model) View() string {
	var content string
	switch m.mode {
	case ModeSaving:
		content = fmt.Sprintf("%s 保存しています...", m.spinner.View())
	case ModeTesting:
		content = fmt.Sprintf("%s メールサーバーに接続しています...", m.spinner.View())
	case ModeResult:
		style := theme.SuccessStyle
		if m.isError {
			style = theme.ErrorStyle
		}
		content = style.Render(m.result) + "\n\n" + theme.HelpStyle.Render("enter または esc でもどります")
	default:
		if m.form == nil {
			return ""
		}
		content = m.form.View()
	}

	title := theme.TitleStyle.Render("設定")
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n\n" + content)
}

func validatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return apperr.Validation("ポート番号は 1 から 65535 の数字で入力してください")
	}
	return nil
}

func portString(port, def int) string {
	if port <= 0 {
		port = def
	}
	return strconv.Itoa(port)
}

// roundScale snaps a font scale to the quarter steps offered in the form.
func roundScale(s float64) float64 {
	if s <= 0 {
		s = 1
	}
	return math.Round(s*4) / 4
}
