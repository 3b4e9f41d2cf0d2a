package mail

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nhle/harmonicsheet/internal/model"
)

// Reply returns a draft answering msg: addressed to the sender, with a
// "Re:" subject and the original body quoted below the cursor.
func Reply(msg model.MailMessage) model.MailDraft {
	return model.MailDraft{
		To:      senderAddress(msg),
		Subject: prefixSubject("Re: ", msg.Subject),
		Body:    "\n\n---元のメール---\n" + msg.Body,
	}
}

// Forward returns a draft forwarding msg, including its attachments.
func Forward(msg model.MailMessage) model.MailDraft {
	var b strings.Builder
	b.WriteString("\n\n---転送するメール---\n")
	b.WriteString("送信者: " + msg.From + "\n")
	if !msg.Date.IsZero() {
		b.WriteString("日時: " + msg.Date.Format("2006/01/02 15:04") + "\n")
	}
	b.WriteString("件名: " + msg.Subject + "\n\n")
	b.WriteString(msg.Body)

	return model.MailDraft{
		Subject:     prefixSubject("Fwd: ", msg.Subject),
		Body:        b.String(),
		Attachments: msg.Attachments,
	}
}

// ReadAloudText is what the speaker reads for a message.
func ReadAloudText(msg model.MailMessage) string {
	return "送信者、" + msg.From + "。件名、" + msg.Subject + "。本文、" + msg.Body
}

func senderAddress(msg model.MailMessage) string {
	if msg.FromAddress != "" {
		return msg.FromAddress
	}
	return msg.From
}

func prefixSubject(prefix, subject string) string {
	if subject == model.NoSubject {
		subject = ""
	}
	if strings.HasPrefix(strings.ToLower(subject), strings.ToLower(prefix)) {
		return subject
	}
	return prefix + subject
}

func sortNewestFirst(msgs []model.MailMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Date.Equal(msgs[j].Date) {
			return msgs[i].UID > msgs[j].UID
		}
		return msgs[i].Date.After(msgs[j].Date)
	})
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML gives a basic plain-text rendering of an HTML body.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>"} {
		result = strings.ReplaceAll(result, tag, "\n")
	}
	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(result)
}

// FormatSize formats an attachment size for display.
func FormatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
