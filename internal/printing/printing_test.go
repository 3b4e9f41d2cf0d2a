package printing

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/document"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/sheet"
)

var printedAt = time.Date(2026, 3, 5, 9, 7, 0, 0, time.Local)

func TestFooter(t *testing.T) {
	assert.Equal(t, "印刷日時: 2026/03/05 09:07", Footer(printedAt))
}

func TestRenderSheet(t *testing.T) {
	w, err := sheet.New()
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	require.NoError(t, w.SetValue("A1", "食費"))
	require.NoError(t, w.SetValue("B1", "30000"))
	require.NoError(t, w.SetValue("B2", "500"))
	require.NoError(t, w.SetFormula("B3", "SUM(B1:B2)"))

	out := RenderSheet(w, printedAt)
	lines := strings.Split(out, "\n")

	assert.Equal(t, SheetTitle, lines[0])
	assert.Contains(t, out, "食費")
	assert.Contains(t, out, "30500")
	assert.NotContains(t, out, " C", "columns past the used range are not printed")
	assert.True(t, strings.HasSuffix(out, Footer(printedAt)+"\n"))

	// The numbers in column B share a right edge.
	var bLines []string
	for _, l := range lines {
		if strings.HasSuffix(l, "30000") || strings.HasSuffix(l, "500") || strings.HasSuffix(l, "30500") {
			bLines = append(bLines, l)
		}
	}
	require.Len(t, bLines, 3)
	assert.Equal(t, lipgloss.Width(bLines[0]), lipgloss.Width(bLines[1]))
	assert.Equal(t, lipgloss.Width(bLines[0]), lipgloss.Width(bLines[2]))
}

func TestRenderDocument(t *testing.T) {
	d := document.New()
	d.SetText("拝啓\n春の候")
	out := RenderDocument(d, printedAt)
	assert.True(t, strings.HasPrefix(out, document.DefaultName+"\n"))
	assert.Contains(t, out, "拝啓\n春の候")
	assert.Contains(t, out, Footer(printedAt))
}

func TestRenderMail(t *testing.T) {
	msg := model.MailMessage{
		From:        "山田花子",
		FromAddress: "hanako@example.com",
		To:          "taro@example.com",
		Subject:     "",
		Body:        "お元気ですか",
		Date:        printedAt,
		Attachments: []model.MailAttachment{{FileName: "photo.jpg"}},
	}
	out := RenderMail(msg, printedAt)
	assert.Contains(t, out, "送信者: 山田花子 <hanako@example.com>")
	assert.Contains(t, out, "宛先: taro@example.com")
	assert.Contains(t, out, "日時: 2026/03/05 09:07")
	assert.Contains(t, out, "件名: "+model.NoSubject)
	assert.Contains(t, out, "添付: photo.jpg")
	assert.Contains(t, out, "お元気ですか")
}

func copySpooler(dest string) Spooler {
	return Spooler{
		Name: "sh",
		Args: func(_, file string) []string {
			return []string{"-c", `cp "$1" "$2"`, "sh", file, dest}
		},
	}
}

func TestPrintSubmitsJob(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	dest := filepath.Join(dir, "printed.txt")
	p := New(
		WithClock(clockwork.NewFakeClockAt(printedAt)),
		WithTempDir(filepath.Join(dir, "spool")),
		WithSpoolers(copySpooler(dest)),
	)

	d := document.New()
	d.SetText("お知らせ")
	job := p.DocumentJob(d)
	require.NotEmpty(t, job.ID)
	require.NoError(t, p.Print(context.Background(), job))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(got), "お知らせ")
	assert.Contains(t, string(got), "印刷日時: 2026/03/05 09:07")

	left, err := os.ReadDir(filepath.Join(dir, "spool"))
	require.NoError(t, err)
	assert.Empty(t, left, "job file is removed after submission")
}

func TestPrintFailures(t *testing.T) {
	p := New(WithTempDir(t.TempDir()), WithSpoolers(Spooler{Name: "no-such-spooler-xyz"}))

	err := p.Print(context.Background(), Job{Title: "x", Text: "  "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = p.Print(context.Background(), Job{Title: "x", Text: "本文"})
	assert.True(t, apperr.Is(err, apperr.KindNotConfigured))

	if runtime.GOOS != "windows" {
		failing := New(WithTempDir(t.TempDir()), WithSpoolers(Spooler{
			Name: "sh",
			Args: func(_, _ string) []string { return []string{"-c", "exit 3"} },
		}))
		err = failing.Print(context.Background(), Job{Title: "x", Text: "本文"})
		assert.True(t, apperr.Is(err, apperr.KindExternal))
	}
}

func TestSaveSheetForPrint(t *testing.T) {
	w, err := sheet.New()
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	require.NoError(t, w.SetValue("A1", "1"))

	dir := t.TempDir()
	p := New(WithTempDir(dir))
	path, err := p.SaveSheetForPrint(w)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.FileExists(t, path)
	assert.Empty(t, w.Path)
}
