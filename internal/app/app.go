package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/mail"
	"github.com/nhle/harmonicsheet/internal/model"
	appsync "github.com/nhle/harmonicsheet/internal/sync"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
	"github.com/nhle/harmonicsheet/internal/ui/addressbook"
	"github.com/nhle/harmonicsheet/internal/ui/command"
	"github.com/nhle/harmonicsheet/internal/ui/editor"
	"github.com/nhle/harmonicsheet/internal/ui/guide"
	helpview "github.com/nhle/harmonicsheet/internal/ui/help"
	"github.com/nhle/harmonicsheet/internal/ui/mailbox"
	"github.com/nhle/harmonicsheet/internal/ui/portal"
	settingsview "github.com/nhle/harmonicsheet/internal/ui/settings"
	"github.com/nhle/harmonicsheet/internal/ui/spreadsheet"
)

const (
	speakTimeout = 10 * time.Minute
	printTimeout = 2 * time.Minute
	loadTimeout  = 30 * time.Second
)

// startupLoadedMsg carries what is read from disk before the first sync.
type startupLoadedMsg struct {
	messages  []model.MailMessage
	documents []string
	sheets    []string
	err       error
}

// recentLoadedMsg carries refreshed recent file lists.
type recentLoadedMsg struct {
	documents []string
	sheets    []string
}

// accessibilityChangedMsg is sent when the accessibility settings change.
type accessibilityChangedMsg struct {
	settings model.AccessibilitySettings
}

type speakDoneMsg struct {
	err error
}

type printedMsg struct {
	title string
	err   error
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the services.
type Model struct {
	services     *Services
	keys         *keys.KeyMap
	layout       ui.Layout
	currentView  ui.View
	previousView ui.View

	portal       portal.Model
	sheet        spreadsheet.Model
	editor       editor.Model
	mailbox      mailbox.Model
	contactsView addressbook.Model
	settingsView settingsview.Model
	guideView    guide.Model
	helpView     helpview.Model
	commandView  command.Model

	poller   *appsync.Poller
	accessCh chan model.AccessibilitySettings
	unsub    func()

	status      string
	statusError bool
	unread      int
	ready       bool
}

// New creates the root model over s.
func New(s *Services) Model {
	k := keys.DefaultKeyMap()

	m := Model{
		services:     s,
		keys:         k,
		currentView:  ui.ViewPortal,
		portal:       portal.New(k, 80, 24),
		sheet:        spreadsheet.New(s.Interpreter, s.Printer, k, 80, 24),
		editor:       editor.New(s.AI, s.Printer, k, 80, 24),
		mailbox:      mailbox.New(s.Mail, s.AI, s.Printer, k, 80, 24),
		contactsView: addressbook.New(s.Contacts, k, 80, 24),
		settingsView: settingsview.New(s, k, 80, 24),
		guideView:    guide.New(s.Tutorial, k, 80, 24),
		helpView:     helpview.New(k, s.Tutorial, 80, 24),
		commandView:  command.New(k, 80, 24),
		accessCh:     make(chan model.AccessibilitySettings, 1),
	}
	m.poller = m.newPoller()

	ch := m.accessCh
	m.unsub = s.Accessibility.Subscribe(func(a model.AccessibilitySettings) {
		// Only the latest settings matter.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- a:
		default:
		}
	})

	m.applyAccessibility(s.Accessibility.Settings())
	m.status = ""
	m.portal.SetShowGuide(!s.Tutorial.IsCompleted())
	m.mailbox.SetContacts(m.contactAddresses())
	return m
}

func (m Model) newPoller() *appsync.Poller {
	return appsync.New(m.services.Mail, m.services.PollInterval(),
		appsync.WithClock(m.services.Clock),
		appsync.WithLogger(m.services.Logger.Named("poller")),
	)
}

// Init loads cached data and starts the inbox poller.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadStartup(), m.waitForAccessibility()}
	if m.services.Mail.Settings().CanReceive() {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Shutdown stops background work. It is called after the program exits.
func (m Model) Shutdown() {
	m.poller.Stop()
	m.services.Speaker.Stop()
	if m.unsub != nil {
		m.unsub()
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.portal.SetSize(w, h)
		m.sheet.SetSize(w, h)
		m.editor.SetSize(w, h)
		m.mailbox.SetSize(w, h)
		m.contactsView.SetSize(w, h)
		m.guideView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(tea.WindowSizeMsg{Width: w, Height: h})

	case startupLoadedMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
		}
		m.portal.SetRecent(msg.documents, msg.sheets)
		cmd := m.setMessages(msg.messages)
		return m, cmd

	case recentLoadedMsg:
		m.portal.SetRecent(msg.documents, msg.sheets)
		return m, nil

	case accessibilityChangedMsg:
		m.applyAccessibility(msg.settings)
		return m, m.waitForAccessibility()

	case appsync.SyncResultMsg:
		return m.handleSync(msg)

	case mailbox.RefreshMsg:
		if !m.services.Mail.Settings().CanReceive() {
			m.setStatus("受信サーバーが設定されていません。設定画面で設定してください。", nil)
			return m, nil
		}
		m.setStatus("メールを受信しています...", nil)
		return m, tea.Batch(m.poller.Start(), m.poller.Refresh())

	case mailbox.SentMsg:
		m.setStatus("メールを送信しました。", nil)
		return m, m.markRecipientUsed(msg.Draft.To)

	case addressbook.ChangedMsg:
		m.mailbox.SetContacts(m.contactAddresses())
		return m, nil

	case ui.NavigateMsg:
		cmd := m.navigate(msg.View, msg.Path)
		return m, cmd

	case ui.NewBudgetMsg:
		m.switchTo(ui.ViewSheet)
		cmd := m.sheet.NewBudget(m.services.Clock.Now())
		return m, cmd

	case ui.BackMsg:
		if m.currentView == ui.ViewHelp || m.currentView == ui.ViewCommand {
			m.currentView = m.previousView
		} else {
			m.currentView = ui.ViewPortal
		}
		return m, nil

	case ui.StatusMsg:
		m.setStatus(msg.Text, msg.Err)
		return m, nil

	case ui.SpeakMsg:
		return m, m.speak(msg.Text)

	case ui.StopSpeakingMsg:
		m.services.Speaker.Stop()
		return m, nil

	case speakDoneMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
		}
		return m, nil

	case ui.PrintMsg:
		m.setStatus("印刷しています...", nil)
		return m, m.print(msg)

	case printedMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("「%s」を印刷しました。", msg.title), nil)
		return m, nil

	case ui.ComposeMsg:
		m.switchTo(ui.ViewMail)
		cmd := m.mailbox.StartCompose(msg.Draft)
		return m, cmd

	case ui.SettingsSavedMsg:
		cmd := m.applySettings(msg.Settings)
		return m, cmd

	case ui.OpenedFileMsg:
		return m, m.rememberFile(msg)

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case spreadsheet.WorkbookLoadedMsg:
		var cmd tea.Cmd
		m.sheet, cmd = m.sheet.Update(msg)
		return m, cmd

	case editor.DocumentLoadedMsg:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if model, cmd, handled := m.handleGlobalKeys(msg); handled {
			return model, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKeys handles keys that work on every screen.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Shutdown()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ui.ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ui.ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		if m.currentView == ui.ViewCommand {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ui.ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.Larger):
		m.setStatus("", m.services.Accessibility.IncreaseFont())
		return m, nil, true

	case key.Matches(msg, m.keys.Smaller):
		m.setStatus("", m.services.Accessibility.DecreaseFont())
		return m, nil, true

	case key.Matches(msg, m.keys.Contrast):
		m.setStatus("", m.services.Accessibility.ToggleHighContrast())
		return m, nil, true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ui.ViewPortal:
		m.portal, cmd = m.portal.Update(msg)
	case ui.ViewSheet:
		m.sheet, cmd = m.sheet.Update(msg)
	case ui.ViewDocument:
		m.editor, cmd = m.editor.Update(msg)
	case ui.ViewMail:
		m.mailbox, cmd = m.mailbox.Update(msg)
	case ui.ViewContacts:
		m.contactsView, cmd = m.contactsView.Update(msg)
	case ui.ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ui.ViewTutorial:
		m.guideView, cmd = m.guideView.Update(msg)
	case ui.ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ui.ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// switchTo makes view the active screen.
func (m *Model) switchTo(view ui.View) {
	if view != m.currentView {
		m.previousView = m.currentView
		m.status = ""
	}
	m.currentView = view
}

// navigate switches screens, opening path in the target view when set.
func (m *Model) navigate(view ui.View, path string) tea.Cmd {
	m.switchTo(view)

	switch view {
	case ui.ViewSheet:
		if path != "" {
			return m.sheet.Open(path)
		}
	case ui.ViewDocument:
		if path != "" {
			return m.editor.Open(path)
		}
	case ui.ViewMail:
		m.mailbox.SetContacts(m.contactAddresses())
	case ui.ViewContacts:
		m.contactsView.Reload()
	case ui.ViewSettings:
		return m.settingsView.Open(m.services.Settings, m.services.Accessibility.Settings())
	case ui.ViewPortal:
		m.portal.SetShowGuide(!m.services.Tutorial.IsCompleted())
	case ui.ViewCommand:
		return m.commandView.Focus()
	}
	return nil
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(name string) tea.Cmd {
	switch name {
	case command.Home:
		return m.navigate(ui.ViewPortal, "")
	case command.Document:
		return m.navigate(ui.ViewDocument, "")
	case command.Sheet:
		return m.navigate(ui.ViewSheet, "")
	case command.Budget:
		m.switchTo(ui.ViewSheet)
		return m.sheet.NewBudget(m.services.Clock.Now())
	case command.Mail:
		return m.navigate(ui.ViewMail, "")
	case command.NewMail:
		m.switchTo(ui.ViewMail)
		return m.mailbox.StartCompose(model.MailDraft{})
	case command.Refresh:
		return func() tea.Msg { return mailbox.RefreshMsg{} }
	case command.Contacts:
		return m.navigate(ui.ViewContacts, "")
	case command.Settings:
		return m.navigate(ui.ViewSettings, "")
	case command.Tutorial:
		return m.navigate(ui.ViewTutorial, "")
	case command.Help:
		m.switchTo(ui.ViewHelp)
		return nil
	case command.Larger:
		m.setStatus("", m.services.Accessibility.IncreaseFont())
	case command.Smaller:
		m.setStatus("", m.services.Accessibility.DecreaseFont())
	case command.Contrast:
		m.setStatus("", m.services.Accessibility.ToggleHighContrast())
	case command.StopSpeaking:
		m.services.Speaker.Stop()
	case command.Quit:
		m.Shutdown()
		return tea.Quit
	default:
		m.setStatus(fmt.Sprintf("「%s」というコマンドはありません。", name), nil)
		m.statusError = true
	}
	return nil
}

func (m *Model) handleSync(msg appsync.SyncResultMsg) (tea.Model, tea.Cmd) {
	wait := m.poller.WaitForNextResult()
	switch {
	case msg.AuthError != nil:
		m.setStatus(msg.AuthError.Message, nil)
		m.statusError = true
		return *m, wait
	case msg.Error != nil:
		m.setStatus("", msg.Error)
		return *m, wait
	}

	cmd := m.setMessages(msg.Messages)
	if msg.NewCount > 0 {
		m.setStatus(fmt.Sprintf("新しいメールが %d 通届きました。", msg.NewCount), nil)
	} else if m.status == "メールを受信しています..." {
		m.setStatus("メールを受信しました。", nil)
	}
	return *m, tea.Batch(cmd, wait)
}

func (m *Model) setMessages(msgs []model.MailMessage) tea.Cmd {
	unread := 0
	for _, msg := range msgs {
		if !msg.IsRead {
			unread++
		}
	}
	m.unread = unread
	m.portal.SetUnread(unread)
	return m.mailbox.SetMessages(msgs)
}

func (m *Model) setStatus(text string, err error) {
	if err != nil {
		m.status = apperr.UserMessage(err)
		m.statusError = true
		m.services.Logger.Debug("status error", zap.Error(err))
		return
	}
	if text == "" {
		return
	}
	m.status = text
	m.statusError = false
}

// applyAccessibility re-renders the theme and cell widths.
func (m *Model) applyAccessibility(a model.AccessibilitySettings) {
	theme.Apply(m.services.Settings.Theme, a.HighContrastMode)
	m.sheet.SetScale(a.FontScale)
	m.status = fmt.Sprintf("文字の大きさ %d%%", int(math.Round(a.FontScale*100)))
	if a.HighContrastMode {
		m.status += "・ハイコントラスト"
	}
	m.statusError = false
}

func (m Model) waitForAccessibility() tea.Cmd {
	ch := m.accessCh
	return func() tea.Msg {
		return accessibilityChangedMsg{settings: <-ch}
	}
}

// applySettings hands saved settings to the running services. The poller
// is rebuilt because the mail account may have changed.
func (m *Model) applySettings(s *model.AppSettings) tea.Cmd {
	if s == nil {
		return nil
	}
	svc := m.services.Reconfigure(s)
	m.mailbox.SetService(svc)
	theme.Apply(s.Theme, m.services.Accessibility.Settings().HighContrastMode)

	m.poller.Stop()
	m.poller = m.newPoller()
	m.setStatus("設定を保存しました。", nil)
	if svc.Settings().CanReceive() {
		return m.poller.Start()
	}
	return nil
}

func (m Model) speak(text string) tea.Cmd {
	sp := m.services.Speaker
	if sp.IsSpeaking() {
		sp.Stop()
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
		defer cancel()
		return speakDoneMsg{err: sp.Speak(ctx, text)}
	}
}

func (m Model) print(msg ui.PrintMsg) tea.Cmd {
	p := m.services.Printer
	job := msg.Job
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), printTimeout)
		defer cancel()
		return printedMsg{title: job.Title, err: p.Print(ctx, job)}
	}
}

func (m Model) markRecipientUsed(to string) tea.Cmd {
	book := m.services.Contacts
	logger := m.services.Logger
	return func() tea.Msg {
		for _, addr := range mail.RecipientAddresses(to) {
			c, ok := book.ByEmail(addr)
			if !ok {
				continue
			}
			if err := book.MarkAsUsed(c.ID); err != nil {
				logger.Warn("marking contact used", zap.Error(err))
			}
		}
		return nil
	}
}

func (m Model) contactAddresses() []string {
	all := m.services.Contacts.All()
	out := make([]string, len(all))
	for i, c := range all {
		out[i] = c.Email
	}
	return out
}

// rememberFile records path in its recent list and reloads both lists.
func (m Model) rememberFile(msg ui.OpenedFileMsg) tea.Cmd {
	s := m.services
	return func() tea.Msg {
		list := s.RecentDocs
		if msg.View == ui.ViewSheet {
			list = s.RecentSheets
		}
		if err := list.Add(msg.Path); err != nil {
			s.Logger.Warn("saving recent file", zap.Error(err))
		}
		docs, _ := s.RecentDocs.List()
		sheets, _ := s.RecentSheets.List()
		return recentLoadedMsg{documents: docs, sheets: sheets}
	}
}

// loadStartup reads the cached inbox and the recent file lists in
// parallel.
func (m Model) loadStartup() tea.Cmd {
	s := m.services
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var out startupLoadedMsg
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			msgs, err := s.Mail.Cached(gctx)
			out.messages = msgs
			return err
		})
		g.Go(func() error {
			docs, err := s.RecentDocs.List()
			out.documents = docs
			return err
		})
		g.Go(func() error {
			sheets, err := s.RecentSheets.List()
			out.sheets = sheets
			return err
		})
		if err := g.Wait(); err != nil {
			s.Logger.Warn("startup load", zap.Error(err))
			out.err = apperr.Internal("前回のデータを読み込めませんでした", err)
		}
		return out
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "読み込み中..."
	}

	header := m.layout.Header(m.currentView.String(), m.mailStatus())
	footer := m.layout.Footer(m.statusLine(), m.hints())

	return m.layout.Frame(header, m.renderContent(), footer)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ui.ViewSheet:
		return m.sheet.View()
	case ui.ViewDocument:
		return m.editor.View()
	case ui.ViewMail:
		return m.mailbox.View()
	case ui.ViewContacts:
		return m.contactsView.View()
	case ui.ViewSettings:
		return m.settingsView.View()
	case ui.ViewTutorial:
		return m.guideView.View()
	case ui.ViewHelp:
		return m.helpView.View()
	case ui.ViewCommand:
		return m.commandView.View()
	default:
		return m.portal.View()
	}
}

// mailStatus returns a short string describing the inbox state.
func (m Model) mailStatus() string {
	if !m.services.Mail.Settings().CanReceive() {
		return "メール未設定"
	}
	st := m.poller.Status()
	switch st.State {
	case appsync.SyncRunning:
		return "受信中..."
	case appsync.SyncError:
		return "⚠ 受信できません"
	}
	if m.unread > 0 {
		return fmt.Sprintf("未読 %d 通", m.unread)
	}
	return "未読なし"
}

// statusLine returns the last status message, styled as an error when
// it is one.
func (m Model) statusLine() string {
	if m.statusError {
		return theme.ErrorStyle.Render(m.status)
	}
	return m.status
}

// hints lists the keys that work on the current screen.
func (m Model) hints() []ui.Hint {
	switch m.currentView {
	case ui.ViewHelp:
		return []ui.Hint{{Key: "F1", Label: "閉じる"}, {Key: "Esc", Label: "もどる"}}
	case ui.ViewCommand:
		return []ui.Hint{{Key: "Enter", Label: "実行"}, {Key: "Esc", Label: "もどる"}}
	}
	return []ui.Hint{
		{Key: "F1", Label: "ヘルプ"},
		{Key: "Ctrl+K", Label: "コマンド"},
		{Key: "F3/F2", Label: "文字の大きさ"},
		{Key: "F4", Label: "コントラスト"},
		{Key: "Ctrl+R", Label: "読み上げ"},
		{Key: "Ctrl+Q", Label: "終了"},
	}
}
