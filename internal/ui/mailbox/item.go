package mailbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/theme"
)

// MessageItem wraps a model.MailMessage so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.MailMessage
}

// FilterValue returns the string used for filtering.
func (i MessageItem) FilterValue() string {
	return i.Message.From + " " + i.Message.Subject
}

// ItemDelegate draws one message as two lines: sender and date, then
// the subject.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single message.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}
	msg := mi.Message

	marker := "  "
	if !msg.IsRead {
		marker = theme.WarningStyle.Render("● ")
	}
	clip := ""
	if msg.HasAttachment {
		clip = "  [添付]"
	}
	from := msg.From
	if from == "" {
		from = msg.FromAddress
	}

	line1 := fmt.Sprintf("%s%s  %s%s", marker, from, formatDate(msg.Date), clip)
	line2 := "  " + msg.Subject

	style := theme.ListItemStyle
	if index == m.Index() {
		style = theme.SelectedItemStyle
	}
	if !msg.IsRead {
		style = style.Bold(true)
	}
	width := m.Width() - 4
	fmt.Fprint(w, style.Render(lipgloss.NewStyle().MaxWidth(width).Render(line1)+"\n"+
		lipgloss.NewStyle().MaxWidth(width).Render(line2)))
}

// formatDate shows the time for today's mail and the date otherwise.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return "今日 " + t.Format("15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("1月2日 15:04")
	}
	return t.Format("2006年1月2日")
}
