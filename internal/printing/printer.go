// Package printing renders sheets, documents and mail as plain text pages
// and hands them to the system print spooler.
package printing

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/document"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/sheet"
)

// Job is one page set waiting to be printed.
type Job struct {
	ID    string
	Title string
	Text  string
}

// Spooler is a print command found on PATH.
type Spooler struct {
	Name string
	Args func(title, file string) []string
}

// Spoolers returns the print commands tried on goos, in order.
func Spoolers(goos string) []Spooler {
	if goos == "windows" {
		return []Spooler{outPrinter}
	}
	return []Spooler{lp, lpr}
}

var (
	lp = Spooler{
		Name: "lp",
		Args: func(title, file string) []string { return []string{"-t", title, file} },
	}
	lpr = Spooler{
		Name: "lpr",
		Args: func(title, file string) []string { return []string{"-T", title, file} },
	}
	outPrinter = Spooler{
		Name: "powershell",
		Args: func(_, file string) []string {
			quoted := "'" + strings.ReplaceAll(file, "'", "''") + "'"
			return []string{"-NoProfile", "-NonInteractive", "-Command",
				"Get-Content -Encoding UTF8 -LiteralPath " + quoted + " | Out-Printer"}
		},
	}
)

var (
	// ErrNoPrinter is returned when no print command is installed.
	ErrNoPrinter = apperr.NotConfigured("プリンターが見つかりません。プリンターの設定を確認してください。")

	errEmptyJob = apperr.Validation("印刷する内容がありません。")
)

// Printer builds jobs and submits them.
type Printer struct {
	clock    clockwork.Clock
	logger   *zap.Logger
	tempDir  string
	spoolers []Spooler
	lookPath func(string) (string, error)
}

// Option configures a Printer.
type Option func(*Printer)

// WithClock sets the clock used for the footer.
func WithClock(c clockwork.Clock) Option {
	return func(p *Printer) { p.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Printer) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTempDir sets where job files are written.
func WithTempDir(dir string) Option {
	return func(p *Printer) { p.tempDir = dir }
}

// WithSpoolers replaces the platform print commands.
func WithSpoolers(s ...Spooler) Option {
	return func(p *Printer) { p.spoolers = s }
}

// New returns a printer for the current platform.
func New(opts ...Option) *Printer {
	p := &Printer{
		clock:    clockwork.NewRealClock(),
		logger:   zap.NewNop(),
		tempDir:  filepath.Join(os.TempDir(), "harmonicsheet-print"),
		spoolers: Spoolers(runtime.GOOS),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Printer) newJob(title, text string) Job {
	return Job{ID: ulid.Make().String(), Title: title, Text: text}
}

// SheetJob renders a spreadsheet.
func (p *Printer) SheetJob(w *sheet.Workbook) Job {
	return p.newJob(SheetTitle, RenderSheet(w, p.clock.Now()))
}

// DocumentJob renders a document.
func (p *Printer) DocumentJob(d *document.Document) Job {
	title := d.Name
	if title == "" {
		title = document.DefaultName
	}
	return p.newJob(title, RenderDocument(d, p.clock.Now()))
}

// MailJob renders a received message.
func (p *Printer) MailJob(msg model.MailMessage) Job {
	title := msg.Subject
	if title == "" {
		title = model.NoSubject
	}
	return p.newJob(title, RenderMail(msg, p.clock.Now()))
}

// SaveSheetForPrint writes a fit-to-page copy of w next to the job
// files and returns its path.
func (p *Printer) SaveSheetForPrint(w *sheet.Workbook) (string, error) {
	path, err := w.SaveForPrint(p.tempDir)
	if err != nil {
		return "", apperr.Internal("印刷用のファイルを作れませんでした。", err)
	}
	return path, nil
}

// Print writes job to a temporary file and submits it to the first
// available spooler.
func (p *Printer) Print(ctx context.Context, job Job) error {
	if strings.TrimSpace(job.Text) == "" {
		return errEmptyJob
	}
	if job.ID == "" {
		job.ID = ulid.Make().String()
	}

	spooler, path, err := p.resolve()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.tempDir, 0o755); err != nil {
		return fmt.Errorf("creating print directory: %w", err)
	}
	file := filepath.Join(p.tempDir, job.ID+".txt")
	if err := os.WriteFile(file, []byte(job.Text), 0o600); err != nil {
		return fmt.Errorf("writing print job %s: %w", job.ID, err)
	}
	defer os.Remove(file)

	out, err := exec.CommandContext(ctx, path, spooler.Args(job.Title, file)...).CombinedOutput()
	if err != nil {
		p.logger.Warn("print failed",
			zap.String("job", job.ID),
			zap.String("spooler", spooler.Name),
			zap.ByteString("output", out),
			zap.Error(err),
		)
		return apperr.External("印刷できませんでした。プリンターの電源と接続を確認してください。",
			fmt.Errorf("%s: %w", spooler.Name, err))
	}
	p.logger.Info("print job submitted", zap.String("job", job.ID), zap.String("spooler", spooler.Name))
	return nil
}

func (p *Printer) resolve() (Spooler, string, error) {
	for _, s := range p.spoolers {
		if path, err := p.lookPath(s.Name); err == nil {
			return s, path, nil
		}
	}
	return Spooler{}, "", ErrNoPrinter
}
