package mailbox

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/ai"
	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/mail"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/printing"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// Service is the part of the mail service the screen uses.
type Service interface {
	IsConfigured() bool
	MarkRead(ctx context.Context, uid uint32) error
	Send(ctx context.Context, draft model.MailDraft) error
}

// Assistant drafts mail from an instruction.
type Assistant interface {
	ProcessMailCommand(ctx context.Context, command string, draft model.MailDraft) (ai.MailResult, error)
}

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeList Mode = iota
	ModeRead
	ModeCompose
	ModeInstruct
	ModeBusy
)

const (
	sendTimeout        = 2 * time.Minute
	instructionTimeout = 60 * time.Second
	markReadTimeout    = 30 * time.Second
)

// RefreshMsg asks the root model to check for new mail now.
type RefreshMsg struct{}

// SentMsg reports a message that was delivered.
type SentMsg struct {
	Draft model.MailDraft
}

type sendResultMsg struct {
	draft model.MailDraft
	err   error
}

type draftReadyMsg struct {
	result ai.MailResult
	err    error
}

// composeBindings holds form values on the heap so huh's pointers stay
// valid across model copies.
type composeBindings struct {
	to          string
	subject     string
	body        string
	attachments string
	send        bool
}

// Model is the mail screen.
type Model struct {
	service   Service
	assistant Assistant
	printer   *printing.Printer
	keys      *keys.KeyMap
	mode      Mode
	list      list.Model
	reader    viewport.Model
	current   model.MailMessage
	form      *huh.Form
	fb        *composeBindings
	carried   []model.MailAttachment
	input     textinput.Model
	spinner   spinner.Model
	contacts  []string
	message   string
	isError   bool
	width     int
	height    int
}

// New creates the mail screen.
func New(svc Service, assistant Assistant, printer *printing.Printer, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "受信トレイ"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("通", "通")

	ti := textinput.New()
	ti.Prompt = "指示: "
	ti.Placeholder = "例: 息子に週末の予定を聞くメールを書いて"
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		service:   svc,
		assistant: assistant,
		printer:   printer,
		keys:      k,
		list:      l,
		reader:    viewport.New(width, height-4),
		fb:        &composeBindings{},
		input:     ti,
		spinner:   sp,
		width:     width,
		height:    height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Mode returns the current input mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Message returns the last feedback line.
func (m Model) Message() string {
	return m.message
}

// SetMessages replaces the inbox contents, keeping the selection on the
// same message when it is still present.
func (m *Model) SetMessages(msgs []model.MailMessage) tea.Cmd {
	var selected uint32
	if it, ok := m.list.SelectedItem().(MessageItem); ok {
		selected = it.Message.UID
	}
	items := make([]list.Item, len(msgs))
	index := 0
	for i, msg := range msgs {
		items[i] = MessageItem{Message: msg}
		if msg.UID == selected {
			index = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(index)
	return cmd
}

// Messages returns the messages in the inbox list.
func (m Model) Messages() []model.MailMessage {
	items := m.list.Items()
	out := make([]model.MailMessage, 0, len(items))
	for _, it := range items {
		if mi, ok := it.(MessageItem); ok {
			out = append(out, mi.Message)
		}
	}
	return out
}

// SetService swaps the mail service after the account settings change.
func (m *Model) SetService(svc Service) {
	m.service = svc
}

// SetContacts sets the addresses suggested in the To field.
func (m *Model) SetContacts(addresses []string) {
	m.contacts = addresses
}

// StartCompose opens the composer with draft.
func (m *Model) StartCompose(draft model.MailDraft) tea.Cmd {
	if !m.service.IsConfigured() {
		m.setMessage("メール設定がされていません。設定画面でメールアカウントを設定してください。", true)
		m.mode = ModeList
		return nil
	}
	m.fb.to = draft.To
	m.fb.subject = draft.Subject
	m.fb.body = draft.Body
	m.fb.attachments = ""
	m.fb.send = true
	m.carried = nil
	var paths []string
	for _, a := range draft.Attachments {
		if a.FilePath != "" {
			paths = append(paths, a.FilePath)
		} else if a.Content != nil {
			m.carried = append(m.carried, a)
		}
	}
	m.fb.attachments = strings.Join(paths, ", ")
	m.form = m.buildComposeForm()
	m.mode = ModeCompose
	return m.form.Init()
}

func (m *Model) buildComposeForm() *huh.Form {
	attachNote := "パスをカンマで区切って入力します"
	if len(m.carried) > 0 {
		names := make([]string, len(m.carried))
		for i, a := range m.carried {
			names[i] = a.FileName
		}
		attachNote = "転送する添付: " + strings.Join(names, ", ")
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("宛先").
				Placeholder("example@example.com").
				Suggestions(m.contacts).
				Value(&m.fb.to).
				Validate(validateRequired("宛先を入力してください")),
			huh.NewInput().
				Title("件名").
				Value(&m.fb.subject),
			huh.NewText().
				Title("本文").
				Lines(8).
				Value(&m.fb.body),
			huh.NewInput().
				Title("添付ファイル").
				Description(attachNote).
				Value(&m.fb.attachments),
			huh.NewConfirm().
				Title("このメールを送りますか？").
				Affirmative("送信").
				Negative("やめる").
				Value(&m.fb.send),
		),
	).WithWidth(max(40, min(100, m.width-4)))
}

// Update handles messages for the mail screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case sendResultMsg:
		if msg.err != nil {
			m.mode = ModeCompose
			m.form = m.buildComposeForm()
			m.setMessage(apperr.UserMessage(msg.err), true)
			return m, tea.Batch(m.form.Init(), status("", msg.err))
		}
		m.mode = ModeList
		m.setMessage("メールを送信しました。", false)
		draft := msg.draft
		return m, tea.Batch(
			status("メールを送信しました。", nil),
			func() tea.Msg { return SentMsg{Draft: draft} },
		)

	case draftReadyMsg:
		m.mode = ModeList
		if msg.err != nil || !msg.result.Success {
			text := msg.result.Message
			if text == "" && msg.err != nil {
				text = apperr.UserMessage(msg.err)
			}
			m.setMessage(text, true)
			return m, status(text, nil)
		}
		draft := model.MailDraft{To: msg.result.To, Subject: msg.result.Subject, Body: msg.result.Body}
		cmd := m.StartCompose(draft)
		m.setMessage(msg.result.Message, false)
		return m, cmd

	case spinner.TickMsg:
		if m.mode == ModeBusy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			return m.handleListKeys(msg)
		case ModeRead:
			return m.handleReadKeys(msg)
		case ModeInstruct:
			return m.handleInstructKeys(msg)
		case ModeBusy:
			return m, nil
		}
	}

	if m.mode == ModeCompose {
		return m.updateCompose(msg)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ui.BackMsg{} }
	case key.Matches(msg, m.keys.Select):
		it, ok := m.list.SelectedItem().(MessageItem)
		if !ok {
			return m, nil
		}
		cmd := m.open(it.Message)
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		if !m.service.IsConfigured() {
			m.setMessage("メール設定がされていません。設定画面でメールアカウントを設定してください。", true)
			return m, nil
		}
		m.setMessage("新しいメールを確認しています…", false)
		return m, func() tea.Msg { return RefreshMsg{} }
	case key.Matches(msg, m.keys.Compose):
		cmd := m.StartCompose(model.MailDraft{})
		return m, cmd
	case key.Matches(msg, m.keys.Instruct):
		m.mode = ModeInstruct
		m.input.Reset()
		m.input.Width = max(20, m.width-10)
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Reply), key.Matches(msg, m.keys.Forward),
		key.Matches(msg, m.keys.Speak), key.Matches(msg, m.keys.Print):
		if it, ok := m.list.SelectedItem().(MessageItem); ok {
			m.current = it.Message
			return m.handleMessageAction(msg)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// open shows msg in the reader and marks it read.
func (m *Model) open(msg model.MailMessage) tea.Cmd {
	m.current = msg
	m.mode = ModeRead
	m.reader.SetContent(m.renderMessage(msg))
	m.reader.GotoTop()
	if msg.IsRead {
		return nil
	}

	msg.IsRead = true
	m.current = msg
	items := m.list.Items()
	for i, it := range items {
		if mi, ok := it.(MessageItem); ok && mi.Message.UID == msg.UID {
			m.list.SetItem(i, MessageItem{Message: msg})
			break
		}
	}
	svc, uid := m.service, msg.UID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), markReadTimeout)
		defer cancel()
		if err := svc.MarkRead(ctx, uid); err != nil {
			return ui.StatusMsg{Err: err}
		}
		return nil
	}
}

func (m Model) handleReadKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = ModeList
		return m, nil
	}
	if key.Matches(msg, m.keys.Reply, m.keys.Forward, m.keys.Speak, m.keys.Print) {
		return m.handleMessageAction(msg)
	}
	var cmd tea.Cmd
	m.reader, cmd = m.reader.Update(msg)
	return m, cmd
}

// handleMessageAction runs reply, forward, speak or print on m.current.
func (m Model) handleMessageAction(msg tea.KeyMsg) (Model, tea.Cmd) {
	current := m.current
	switch {
	case key.Matches(msg, m.keys.Reply):
		cmd := m.StartCompose(mail.Reply(current))
		return m, cmd
	case key.Matches(msg, m.keys.Forward):
		cmd := m.StartCompose(mail.Forward(current))
		return m, cmd
	case key.Matches(msg, m.keys.Speak):
		text := mail.ReadAloudText(current)
		return m, func() tea.Msg { return ui.SpeakMsg{Text: text} }
	case key.Matches(msg, m.keys.Print):
		if m.printer == nil {
			return m, nil
		}
		job := m.printer.MailJob(current)
		return m, func() tea.Msg { return ui.PrintMsg{Job: job} }
	}
	return m, nil
}

func (m Model) handleInstructKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeList
		m.input.Blur()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.mode = ModeList
		if text == "" || m.assistant == nil {
			return m, nil
		}
		var draft model.MailDraft
		if it, ok := m.list.SelectedItem().(MessageItem); ok && strings.Contains(text, "返信") {
			draft = mail.Reply(it.Message)
		}
		assistant := m.assistant
		m.mode = ModeBusy
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), instructionTimeout)
			defer cancel()
			res, err := assistant.ProcessMailCommand(ctx, text, draft)
			if err == nil && res.Action != ai.MailActionCompose && draft.To != "" && res.To == "" {
				res.To = draft.To
			}
			return draftReadyMsg{result: res, err: err}
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateCompose(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = ModeList
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if !m.fb.send {
			m.mode = ModeList
			m.setMessage("送信をやめました。", false)
			return m, nil
		}
		draft := m.draft()
		svc := m.service
		m.mode = ModeBusy
		m.setMessage("送信しています…", false)
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			return sendResultMsg{draft: draft, err: svc.Send(ctx, draft)}
		})
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}
	return m, cmd
}

// draft builds the outgoing message from the form.
func (m Model) draft() model.MailDraft {
	d := model.MailDraft{
		To:          strings.TrimSpace(m.fb.to),
		Subject:     strings.TrimSpace(m.fb.subject),
		Body:        m.fb.body,
		Attachments: append([]model.MailAttachment(nil), m.carried...),
	}
	for _, p := range strings.FieldsFunc(m.fb.attachments, func(r rune) bool {
		return r == ',' || r == '、' || r == '\n'
	}) {
		if p = ui.ExpandPath(p); p != "" {
			d.Attachments = append(d.Attachments, model.MailAttachment{FileName: filepath.Base(p), FilePath: p})
		}
	}
	return d
}

func (m Model) renderMessage(msg model.MailMessage) string {
	label := theme.MutedStyle
	var b strings.Builder
	from := msg.From
	if msg.FromAddress != "" && msg.FromAddress != msg.From {
		from = fmt.Sprintf("%s <%s>", msg.From, msg.FromAddress)
	}
	fmt.Fprintf(&b, "%s %s\n", label.Render("送信者:"), from)
	fmt.Fprintf(&b, "%s %s\n", label.Render("宛先:"), msg.To)
	if !msg.Date.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", label.Render("日時:"), msg.Date.Local().Format("2006/01/02 15:04"))
	}
	fmt.Fprintf(&b, "%s %s\n", label.Render("件名:"), theme.TitleStyle.UnsetMarginBottom().Render(msg.Subject))
	for _, a := range msg.Attachments {
		fmt.Fprintf(&b, "%s %s (%s)\n", label.Render("添付:"), a.FileName, mail.FormatSize(a.Size))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(max(20, m.width-4)).Render(msg.Body))
	return b.String()
}

func (m *Model) setMessage(text string, isError bool) {
	m.message = text
	m.isError = isError
}

func status(text string, err error) tea.Cmd {
	return func() tea.Msg { return ui.StatusMsg{Text: text, Err: err} }
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(3, height-2))
	m.reader.Width = width
	m.reader.Height = max(3, height-3)
}

// View renders the mail screen.
func (m Model) View() string {
	var body string
	switch m.mode {
	case ModeRead:
		body = m.reader.View()
	case ModeCompose:
		if m.form != nil {
			body = m.form.View()
		}
	default:
		if len(m.list.Items()) == 0 {
			empty := "メールはありません。"
			if !m.service.IsConfigured() {
				empty = "メール設定がされていません。設定画面でメールアカウントを設定してください。"
			}
			body = theme.TitleStyle.Render("受信トレイ") + "\n" + theme.MutedStyle.Render(empty)
		} else {
			body = m.list.View()
		}
	}

	var footer string
	switch m.mode {
	case ModeInstruct:
		footer = m.input.View()
	case ModeBusy:
		footer = m.spinner.View() + " " + m.message
	default:
		if m.message != "" {
			if m.isError {
				footer = theme.ErrorStyle.Render(m.message)
			} else {
				footer = theme.SuccessStyle.Render(m.message)
			}
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func validateRequired(message string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return apperr.Validation(message)
		}
		return nil
	}
}
