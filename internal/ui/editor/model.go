package editor

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/document"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/printing"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeWrite Mode = iota
	ModeInstruct
	ModeOpen
	ModeSave
	ModeBusy
)

const instructionTimeout = 90 * time.Second

// DocumentLoadedMsg carries a document read from disk.
type DocumentLoadedMsg struct {
	Document *document.Document
	Path     string
	Err      error
}

type documentSavedMsg struct {
	path string
	err  error
}

type instructionDoneMsg struct {
	text    string
	message string
	err     error
}

// Model is the document screen.
type Model struct {
	doc       *document.Document
	processor document.Processor
	printer   *printing.Printer
	keys      *keys.KeyMap
	mode      Mode
	area      textarea.Model
	input     textinput.Model
	spinner   spinner.Model
	message   string
	isError   bool
	width     int
	height    int
}

// New creates the document screen with an empty document. processor may
// be nil when no AI is available.
func New(processor document.Processor, printer *printing.Printer, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "ここに文章を書きます"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Focus()

	ti := textinput.New()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		doc:       document.New(),
		processor: processor,
		printer:   printer,
		keys:      k,
		area:      ta,
		input:     ti,
		spinner:   sp,
	}
	m.SetSize(width, height)
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Document returns the open document with the editor text applied.
func (m Model) Document() *document.Document {
	m.sync()
	return m.doc
}

// Mode returns the current input mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Message returns the last feedback line.
func (m Model) Message() string {
	return m.message
}

// Open loads path in the background.
func (m Model) Open(path string) tea.Cmd {
	return func() tea.Msg {
		d, err := document.Load(path)
		return DocumentLoadedMsg{Document: d, Path: path, Err: err}
	}
}

// SetDocument replaces the open document.
func (m *Model) SetDocument(d *document.Document) {
	m.doc = d
	m.area.SetValue(d.Text)
	m.mode = ModeWrite
	m.area.Focus()
}

// sync copies the editor text into the document.
func (m *Model) sync() {
	if text := m.area.Value(); text != m.doc.Text {
		m.doc.SetText(text)
	}
}

// Update handles messages for the document screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case DocumentLoadedMsg:
		if msg.Err != nil {
			m.setMessage(apperr.UserMessage(msg.Err), true)
			return m, status("", msg.Err)
		}
		m.SetDocument(msg.Document)
		m.setMessage(msg.Document.Name+" を開きました。", false)
		return m, opened(msg.Path)

	case documentSavedMsg:
		if msg.err != nil {
			m.setMessage(apperr.UserMessage(msg.err), true)
			return m, status("", msg.err)
		}
		m.doc.Path = msg.path
		m.doc.Name = strings.TrimSuffix(filepath.Base(msg.path), filepath.Ext(msg.path))
		m.doc.Modified = false
		m.setMessage("保存しました。", false)
		return m, opened(msg.path)

	case instructionDoneMsg:
		m.mode = ModeWrite
		m.area.Focus()
		if msg.err != nil {
			text := msg.message
			if text == "" {
				text = apperr.UserMessage(msg.err)
			}
			m.setMessage(text, true)
			return m, status(text, nil)
		}
		if msg.text != m.doc.Text {
			m.area.SetValue(msg.text)
			m.doc.SetText(msg.text)
		}
		m.setMessage(msg.message, false)
		return m, status(msg.message, nil)

	case spinner.TickMsg:
		if m.mode == ModeBusy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeInstruct, ModeOpen, ModeSave:
			return m.handleInputKeys(msg)
		case ModeBusy:
			return m, nil
		}
		return m.handleWriteKeys(msg)
	}

	var cmd tea.Cmd
	if m.mode == ModeWrite {
		m.area, cmd = m.area.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleWriteKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.sync()
		return m, func() tea.Msg { return ui.BackMsg{} }
	case key.Matches(msg, m.keys.New):
		m.SetDocument(document.New())
		m.setMessage("新しい文書を作りました。", false)
		return m, nil
	case key.Matches(msg, m.keys.Open):
		cmd := m.startInput(ModeOpen, "開くファイル: ", "例: ~/Documents/手紙.docx")
		return m, cmd
	case key.Matches(msg, m.keys.Save):
		m.sync()
		if m.doc.Path != "" {
			return m, m.save(m.doc.Path)
		}
		cmd := m.startInput(ModeSave, "保存先: ", "例: ~/Documents/手紙.docx（.txt も使えます）")
		return m, cmd
	case key.Matches(msg, m.keys.Instruct):
		cmd := m.startInput(ModeInstruct, "指示: ", "例: もっと丁寧な文章にして")
		return m, cmd
	case key.Matches(msg, m.keys.Print):
		m.sync()
		if m.printer != nil {
			job := m.printer.DocumentJob(m.doc)
			return m, func() tea.Msg { return ui.PrintMsg{Job: job} }
		}
		return m, nil
	case key.Matches(msg, m.keys.Speak):
		m.sync()
		text := m.doc.ReadAloudText()
		return m, func() tea.Msg { return ui.SpeakMsg{Text: text} }
	}

	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	m.sync()
	return m, cmd
}

func (m *Model) startInput(mode Mode, prompt, placeholder string) tea.Cmd {
	m.mode = mode
	m.area.Blur()
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.Reset()
	m.input.Width = max(20, m.width-lipgloss.Width(prompt)-4)
	return m.input.Focus()
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeWrite
		m.input.Blur()
		cmd := m.area.Focus()
		return m, cmd
	case "enter":
		value := m.input.Value()
		mode := m.mode
		m.input.Blur()
		m.mode = ModeWrite
		m.area.Focus()
		switch mode {
		case ModeInstruct:
			return m.runInstruction(value)
		case ModeOpen:
			if p := ui.ExpandPath(value); p != "" {
				return m, m.Open(p)
			}
		case ModeSave:
			if p := ui.ExpandPath(value); p != "" {
				return m, m.save(ui.WithExt(p, ".docx"))
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) runInstruction(text string) (Model, tea.Cmd) {
	text = strings.TrimSpace(text)
	if text == "" {
		return m, nil
	}
	if m.processor == nil {
		m.setMessage("AIが設定されていません。設定画面でAPIキーを入力してください。", true)
		return m, nil
	}
	m.sync()
	// Work on a copy so the editor keeps the text until the reply lands.
	work := *m.doc
	p := m.processor
	m.mode = ModeBusy
	m.area.Blur()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), instructionTimeout)
		defer cancel()
		message, err := work.ApplyCommand(ctx, p, text)
		return instructionDoneMsg{text: work.Text, message: message, err: err}
	})
}

func (m Model) save(path string) tea.Cmd {
	d := *m.doc
	return func() tea.Msg {
		err := d.Save(path)
		return documentSavedMsg{path: path, err: err}
	}
}

func (m *Model) setMessage(text string, isError bool) {
	m.message = text
	m.isError = isError
}

func status(text string, err error) tea.Cmd {
	return func() tea.Msg { return ui.StatusMsg{Text: text, Err: err} }
}

func opened(path string) tea.Cmd {
	return func() tea.Msg { return ui.OpenedFileMsg{View: ui.ViewDocument, Path: path} }
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.area.SetWidth(max(20, width-4))
	m.area.SetHeight(max(3, height-5))
}

// View renders the document screen.
func (m Model) View() string {
	name := m.doc.Name
	if m.doc.Modified {
		name += " *"
	}
	title := theme.TitleStyle.Render("文書  " + name)

	var footer string
	switch m.mode {
	case ModeInstruct, ModeOpen, ModeSave:
		footer = m.input.View()
	case ModeBusy:
		footer = m.spinner.View() + " AIが考えています…"
	default:
		if m.message != "" {
			if m.isError {
				footer = theme.ErrorStyle.Render(m.message)
			} else {
				footer = theme.SuccessStyle.Render(m.message)
			}
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		theme.BorderStyle.Render(m.area.View()),
		footer,
	)
}
