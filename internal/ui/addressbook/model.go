package addressbook

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// Book is the contact store behind the screen.
type Book interface {
	All() []model.Contact
	ByGroup(group string) []model.Contact
	Favorites() []model.Contact
	Search(query string) []model.Contact
	Add(c model.Contact) (model.Contact, error)
	Update(c model.Contact) error
	Delete(id string) error
}

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeList Mode = iota
	ModeSearch
	ModeForm
	ModeConfirmDelete
)

// Filters cycled with tab: everyone, favourites, then each group.
const (
	filterAll       = "すべて"
	filterFavorites = "お気に入り"
)

// ChangedMsg is sent after a contact was added, edited or deleted.
type ChangedMsg struct{}

type savedMsg struct {
	text string
	err  error
}

// formBindings holds form values on the heap so huh's pointers stay
// valid across model copies.
type formBindings struct {
	name     string
	email    string
	phone    string
	group    string
	notes    string
	favorite bool
	confirm  bool
}

// Model is the address book screen.
type Model struct {
	book     Book
	keys     *keys.KeyMap
	mode     Mode
	contacts []model.Contact
	selected int
	filter   int
	query    string
	search   textinput.Model
	form     *huh.Form
	fb       *formBindings
	editing  *model.Contact
	message  string
	isError  bool
	width    int
	height   int
}

// New creates the address book screen.
func New(book Book, k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Prompt = "検索: "
	si.Placeholder = "名前・メールアドレス・メモ"

	m := Model{
		book:   book,
		keys:   k,
		search: si,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.Reload()
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Mode returns the current input mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Contacts returns the contacts currently listed.
func (m Model) Contacts() []model.Contact {
	return m.contacts
}

// Message returns the last feedback line.
func (m Model) Message() string {
	return m.message
}

func filters() []string {
	return append([]string{filterAll, filterFavorites}, model.ContactGroups...)
}

// Reload reads the contacts for the current filter and search.
func (m *Model) Reload() {
	switch f := filters()[m.filter]; {
	case m.query != "":
		m.contacts = m.book.Search(m.query)
	case f == filterAll:
		m.contacts = m.book.All()
	case f == filterFavorites:
		m.contacts = m.book.Favorites()
	default:
		m.contacts = m.book.ByGroup(f)
	}
	if m.selected >= len(m.contacts) {
		m.selected = max(0, len(m.contacts)-1)
	}
}

func (m Model) current() (model.Contact, bool) {
	if len(m.contacts) == 0 {
		return model.Contact{}, false
	}
	return m.contacts[m.selected], true
}

// Update handles messages for the address book.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case savedMsg:
		m.mode = ModeList
		m.Reload()
		if msg.err != nil {
			m.setMessage(apperr.UserMessage(msg.err), true)
			return m, nil
		}
		m.setMessage(msg.text, false)
		return m, func() tea.Msg { return ChangedMsg{} }

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			return m.handleListKeys(msg)
		case ModeSearch:
			return m.handleSearchKeys(msg)
		}
	}

	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.query != "" {
			m.query = ""
			m.Reload()
			return m, nil
		}
		return m, func() tea.Msg { return ui.BackMsg{} }
	case key.Matches(msg, m.keys.Down):
		if len(m.contacts) > 0 {
			m.selected = (m.selected + 1) % len(m.contacts)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.contacts) > 0 {
			m.selected = (m.selected - 1 + len(m.contacts)) % len(m.contacts)
		}
	case key.Matches(msg, m.keys.Select):
		c, ok := m.current()
		if !ok {
			return m, nil
		}
		draft := model.MailDraft{To: c.Email}
		return m, func() tea.Msg { return ui.ComposeMsg{Draft: draft} }
	case key.Matches(msg, m.keys.New):
		cmd := m.startForm(nil)
		return m, cmd
	case key.Matches(msg, m.keys.Speak):
		c, ok := m.current()
		if !ok {
			return m, nil
		}
		text := c.DisplayName + "、" + c.Group
		return m, func() tea.Msg { return ui.SpeakMsg{Text: text} }
	}

	switch msg.String() {
	case "tab":
		m.filter = (m.filter + 1) % len(filters())
		m.selected = 0
		m.Reload()
	case "shift+tab":
		m.filter = (m.filter - 1 + len(filters())) % len(filters())
		m.selected = 0
		m.Reload()
	case "/":
		m.mode = ModeSearch
		m.search.SetValue(m.query)
		cmd := m.search.Focus()
		return m, cmd
	case "e":
		if c, ok := m.current(); ok {
			cmd := m.startForm(&c)
			return m, cmd
		}
	case "f":
		if c, ok := m.current(); ok {
			c.IsFavorite = !c.IsFavorite
			text := c.DisplayName + " をお気に入りから外しました。"
			if c.IsFavorite {
				text = c.DisplayName + " をお気に入りにしました。"
			}
			return m, m.update(c, text)
		}
	case "d", "delete":
		if _, ok := m.current(); ok {
			cmd := m.startConfirmDelete()
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = ModeList
		m.query = strings.TrimSpace(m.search.Value())
		m.search.Blur()
		m.selected = 0
		m.Reload()
		return m, nil
	case "esc":
		m.mode = ModeList
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) startForm(c *model.Contact) tea.Cmd {
	m.editing = c
	*m.fb = formBindings{group: model.DefaultGroup}
	title := "連絡先を追加"
	if c != nil {
		title = "連絡先を編集"
		m.fb.name = c.DisplayName
		m.fb.email = c.Email
		m.fb.phone = c.PhoneNumber
		m.fb.group = c.Group
		m.fb.notes = c.Notes
		m.fb.favorite = c.IsFavorite
	}

	groups := make([]huh.Option[string], len(model.ContactGroups))
	for i, g := range model.ContactGroups {
		groups[i] = huh.NewOption(g, g)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title+"：お名前").
				Value(&m.fb.name).
				Validate(required("お名前を入力してください")),
			huh.NewInput().
				Title("メールアドレス").
				Placeholder("example@example.com").
				Value(&m.fb.email).
				Validate(required("メールアドレスを入力してください")),
			huh.NewInput().
				Title("電話番号").
				Value(&m.fb.phone),
			huh.NewSelect[string]().
				Title("グループ").
				Options(groups...).
				Value(&m.fb.group),
			huh.NewText().
				Title("メモ").
				Lines(3).
				Value(&m.fb.notes),
			huh.NewConfirm().
				Title("お気に入りにしますか？").
				Affirmative("はい").
				Negative("いいえ").
				Value(&m.fb.favorite),
		),
	).WithWidth(max(40, min(80, m.width-4)))
	m.mode = ModeForm
	return m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
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
		c := model.Contact{}
		if m.editing != nil {
			c = *m.editing
		}
		c.DisplayName = strings.TrimSpace(m.fb.name)
		c.Email = strings.TrimSpace(m.fb.email)
		c.PhoneNumber = strings.TrimSpace(m.fb.phone)
		c.Group = m.fb.group
		c.Notes = strings.TrimSpace(m.fb.notes)
		c.IsFavorite = m.fb.favorite
		if m.editing != nil {
			return m, m.update(c, c.DisplayName+" を保存しました。")
		}
		book := m.book
		return m, func() tea.Msg {
			added, err := book.Add(c)
			return savedMsg{text: added.DisplayName + " を追加しました。", err: err}
		}
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}
	return m, cmd
}

func (m Model) update(c model.Contact, text string) tea.Cmd {
	book := m.book
	return func() tea.Msg {
		return savedMsg{text: text, err: book.Update(c)}
	}
}

func (m *Model) startConfirmDelete() tea.Cmd {
	c, _ := m.current()
	m.fb.confirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s を削除しますか？", c.DisplayName)).
				Affirmative("削除する").
				Negative("やめる").
				Value(&m.fb.confirm),
		),
	).WithWidth(max(40, min(80, m.width-4)))
	m.mode = ModeConfirmDelete
	return m.form.Init()
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
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
		c, ok := m.current()
		if !m.fb.confirm || !ok {
			m.mode = ModeList
			return m, nil
		}
		book := m.book
		return m, func() tea.Msg {
			return savedMsg{text: c.DisplayName + " を削除しました。", err: book.Delete(c.ID)}
		}
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}
	return m, cmd
}

func (m *Model) setMessage(text string, isError bool) {
	m.message = text
	m.isError = isError
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the address book.
func (m Model) View() string {
	if (m.mode == ModeForm || m.mode == ModeConfirmDelete) && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("連絡帳"))
	b.WriteString("\n")

	tabs := make([]string, 0, len(filters()))
	for i, f := range filters() {
		if i == m.filter && m.query == "" {
			tabs = append(tabs, theme.HeaderStyle.Render(f))
		} else {
			tabs = append(tabs, theme.MutedStyle.Padding(0, 1).Render(f))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	if m.mode == ModeSearch {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	} else if m.query != "" {
		b.WriteString(theme.MutedStyle.Render(fmt.Sprintf("「%s」の検索結果（esc で解除）", m.query)))
		b.WriteString("\n\n")
	}

	if len(m.contacts) == 0 {
		b.WriteString(theme.MutedStyle.Render("連絡先がありません。ctrl+n で追加できます。"))
	}
	for i, c := range m.contacts {
		star := "  "
		if c.IsFavorite {
			star = theme.WarningStyle.Render("★ ")
		}
		line := fmt.Sprintf("%s%s  %s  [%s]", star, c.DisplayName, c.Email, c.Group)
		if c.PhoneNumber != "" {
			line += "  " + c.PhoneNumber
		}
		if i == m.selected {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.message != "" {
		b.WriteString("\n")
		if m.isError {
			b.WriteString(theme.ErrorStyle.Render(m.message))
		} else {
			b.WriteString(theme.SuccessStyle.Render(m.message))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("enter メールを書く | ctrl+n 追加 | e 編集 | f お気に入り | d 削除 | / 検索 | tab グループ"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func required(message string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return apperr.Validation(message)
		}
		return nil
	}
}
