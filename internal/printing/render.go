package printing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/harmonicsheet/internal/document"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/sheet"
)

const (
	// SheetTitle heads a printed spreadsheet.
	SheetTitle = "表データ"

	footerLayout = "2006/01/02 15:04"
	mailLayout   = "2006/01/02 15:04"
	columnGap    = "  "
)

// Footer is the line closing every printed page.
func Footer(now time.Time) string {
	return "印刷日時: " + now.Format(footerLayout)
}

func page(title, body string, now time.Time) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", max(lipgloss.Width(title), 4)))
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n\n")
	b.WriteString(Footer(now))
	b.WriteString("\n")
	return b.String()
}

// RenderSheet lays the used part of the grid out as aligned text with
// column letters on top and row numbers on the left.
func RenderSheet(w *sheet.Workbook, now time.Time) string {
	rows := w.Rows()
	lastRow, lastCol := 1, 1
	for _, row := range rows {
		for i, c := range row.Cells {
			if c.Display != "" {
				lastRow = max(lastRow, row.Number)
				lastCol = max(lastCol, i+1)
			}
		}
	}

	numWidth := len(strconv.Itoa(lastRow))
	widths := make([]int, lastCol)
	for c := range widths {
		widths[c] = lipgloss.Width(sheet.ColumnName(c + 1))
	}
	for _, row := range rows[:lastRow] {
		for c := 0; c < lastCol; c++ {
			widths[c] = max(widths[c], lipgloss.Width(row.Cells[c].Display))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", numWidth))
	for c, wd := range widths {
		b.WriteString(columnGap)
		b.WriteString(pad(sheet.ColumnName(c+1), wd, false))
	}
	b.WriteString("\n")
	for _, row := range rows[:lastRow] {
		line := pad(strconv.Itoa(row.Number), numWidth, true)
		for c, wd := range widths {
			cell := row.Cells[c]
			line += columnGap + pad(cell.Display, wd, isNumber(cell.Display))
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}
	return page(SheetTitle, b.String(), now)
}

// RenderDocument prints the document name followed by its text.
func RenderDocument(d *document.Document, now time.Time) string {
	title := d.Name
	if title == "" {
		title = document.DefaultName
	}
	return page(title, d.Text, now)
}

// RenderMail prints the message headers followed by the body.
func RenderMail(msg model.MailMessage, now time.Time) string {
	from := msg.From
	if msg.FromAddress != "" && msg.FromAddress != msg.From {
		from = fmt.Sprintf("%s <%s>", msg.From, msg.FromAddress)
	}
	subject := msg.Subject
	if subject == "" {
		subject = model.NoSubject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "送信者: %s\n", from)
	fmt.Fprintf(&b, "宛先: %s\n", msg.To)
	if !msg.Date.IsZero() {
		fmt.Fprintf(&b, "日時: %s\n", msg.Date.Local().Format(mailLayout))
	}
	fmt.Fprintf(&b, "件名: %s\n", subject)
	for _, att := range msg.Attachments {
		fmt.Fprintf(&b, "添付: %s\n", att.FileName)
	}
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n\n")
	b.WriteString(msg.Body)
	return page("", b.String(), now)
}

// pad fills s with spaces to display width w, right-aligning numbers.
func pad(s string, w int, right bool) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}
