package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/theme"
)

const (
	headerLines = 1
	// The footer keeps the key hints visible under the status message.
	footerLines = 2
)

// Hint is one key shown in the footer, e.g. {"F1", "ヘルプ"}.
type Hint struct {
	Key   string
	Label string
}

// Layout splits the terminal into a title bar, the active screen and a
// two line footer.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth is the width handed to the active screen.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height left for the active screen.
func (l Layout) ContentHeight() int {
	h := l.Height - headerLines - footerLines
	if h < 1 {
		return 1
	}
	return h
}

// Header renders the title bar: the screen name on the left and the mail
// status on the right.
func (l Layout) Header(screen, right string) string {
	left := theme.HeaderStyle.Render("HarmonicSheet ▸ " + screen)
	rightR := theme.HeaderStyle.Render(right)
	return joinBar(theme.HeaderStyle, l.Width, left, rightR)
}

// Footer renders the status message above the key hints. An empty status
// leaves the first line blank so the hints never move.
func (l Layout) Footer(status string, hints []Hint) string {
	msg := joinBar(theme.StatusBarStyle, l.Width, theme.StatusBarStyle.Render(status), "")
	keys := joinBar(theme.StatusBarStyle, l.Width, theme.StatusBarStyle.Render(RenderHints(hints)), "")
	return lipgloss.JoinVertical(lipgloss.Left, msg, keys)
}

// Frame stacks header, content and footer, padding or clipping the
// content so the footer stays on the last lines.
func (l Layout) Frame(header, content, footer string) string {
	body := lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// RenderHints formats hints as "[F1] ヘルプ  [Ctrl+K] コマンド".
func RenderHints(hints []Hint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, "["+h.Key+"] "+h.Label)
	}
	return strings.Join(parts, "  ")
}

// joinBar places left and right at the edges of a full-width bar in the
// style's background.
func joinBar(style lipgloss.Style, width int, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
