// Package guide shows the step-by-step tutorial for first-time users.
package guide

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/keys"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/theme"
	"github.com/nhle/harmonicsheet/internal/ui"
)

// Tutorial is the progress tracker behind the guide.
type Tutorial interface {
	TotalSteps() int
	Progress() model.TutorialProgress
	Current() (model.TutorialStep, bool)
	Next() error
	Previous() error
	Skip() error
	Reset() error
}

// Model is the tutorial screen.
type Model struct {
	tutorial Tutorial
	keys     *keys.KeyMap
	bar      progress.Model
	message  string
	width    int
	height   int
}

// New creates the tutorial screen.
func New(t Tutorial, k *keys.KeyMap, width, height int) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	return Model{tutorial: t, keys: k, bar: bar, width: width, height: height}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Message returns the last error shown on the screen.
func (m Model) Message() string {
	return m.message
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles key presses on the tutorial screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	step, ok := m.tutorial.Current()

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ui.BackMsg{} }
	case key.Matches(msg, m.keys.Speak):
		if !ok {
			return m, nil
		}
		text := step.Title + "。" + step.Description
		return m, func() tea.Msg { return ui.SpeakMsg{Text: text} }
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Right):
		if ok {
			m.apply(m.tutorial.Next())
		}
		return m, nil
	case key.Matches(msg, m.keys.Left):
		if ok {
			m.apply(m.tutorial.Previous())
		}
		return m, nil
	}

	switch msg.String() {
	case "s":
		if ok {
			m.apply(m.tutorial.Skip())
		}
	case "r":
		m.apply(m.tutorial.Reset())
	case "g":
		if !ok {
			return m, nil
		}
		if view, found := ui.ViewFromTarget(step.Target); found {
			return m, func() tea.Msg { return ui.NavigateMsg{View: view} }
		}
	}
	return m, nil
}

func (m *Model) apply(err error) {
	m.message = ""
	if err != nil {
		m.message = apperr.UserMessage(err)
	}
}

// View renders the current step.
func (m Model) View() string {
	width := max(30, min(80, m.width-6))
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("使い方ガイド"))
	b.WriteString("\n\n")

	step, ok := m.tutorial.Current()
	if !ok {
		b.WriteString(theme.SuccessStyle.Render("ガイドはすべて終わりました。"))
		b.WriteString("\n\n")
		b.WriteString(theme.HelpStyle.Render("r 最初からもう一度 | esc もどる"))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	p := m.tutorial.Progress()
	total := m.tutorial.TotalSteps()
	m.bar.Width = width
	b.WriteString(fmt.Sprintf("ステップ %d / %d\n", p.CurrentStep+1, total))
	b.WriteString(m.bar.ViewAs(float64(p.CurrentStep+1) / float64(total)))
	b.WriteString("\n\n")

	md := "## " + step.Title + "\n\n" + strings.ReplaceAll(step.Description, "\n", "  \n")
	b.WriteString(ui.RenderMarkdown(md, width))
	b.WriteString("\n\n")

	if m.message != "" {
		b.WriteString(theme.ErrorStyle.Render(m.message))
		b.WriteString("\n\n")
	}

	help := "enter/→ 次へ | ← 前へ | s ガイドを閉じる | r 最初から | ctrl+r 読み上げ"
	if _, found := ui.ViewFromTarget(step.Target); found && step.Target != "portal" {
		help += " | g この画面を開く"
	}
	b.WriteString(theme.HelpStyle.Render(help))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
