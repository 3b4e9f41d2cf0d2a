// Package document loads, edits and saves plain letters as .txt or
// .docx files.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhle/harmonicsheet/internal/ai"
	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/store"
)

// DefaultName is the name of a document that has not been saved yet.
const DefaultName = "新しい文書"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is one open document.
type Document struct {
	Name     string
	Path     string
	Text     string
	Modified bool
}

// New returns an empty, unsaved document.
func New() *Document {
	return &Document{Name: DefaultName}
}

// Load reads a .txt or .docx file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("ファイルが見つかりません: "+filepath.Base(path), err)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var text string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		text = string(bytes.TrimPrefix(data, utf8BOM))
	case ".docx":
		text, err = readDocx(data)
		if err != nil {
			return nil, apperr.External("文書を開けませんでした。Wordファイルか確認してください。",
				fmt.Errorf("parsing %s: %w", path, err))
		}
	default:
		return nil, apperr.Validation("開けるのは .txt と .docx のファイルだけです")
	}

	return &Document{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: path,
		Text: strings.ReplaceAll(text, "\r\n", "\n"),
	}, nil
}

// SetText replaces the text and marks the document modified.
func (d *Document) SetText(text string) {
	if text != d.Text {
		d.Text = text
		d.Modified = true
	}
}

// Save writes the document to path; the format follows the extension.
// Text files get a UTF-8 byte order mark so Windows editors detect the
// encoding.
func (d *Document) Save(path string) error {
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		data = append(append([]byte{}, utf8BOM...), d.Text...)
	case ".docx":
		var err error
		data, err = writeDocx(d.Text)
		if err != nil {
			return fmt.Errorf("building %s: %w", path, err)
		}
	default:
		return apperr.Validation("保存できるのは .txt と .docx のファイルだけです")
	}

	if err := store.AtomicWriteFile(path, data, 0o644); err != nil {
		return apperr.Internal("ファイルを保存できませんでした", fmt.Errorf("saving %s: %w", path, err))
	}
	d.Path = path
	d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	d.Modified = false
	return nil
}

// ReadAloudText is what the speaker reads for the document.
func (d *Document) ReadAloudText() string {
	return d.Text
}

// Processor rewrites text following a natural-language instruction.
type Processor interface {
	ProcessDocumentCommand(ctx context.Context, command, text string) (ai.DocumentResult, error)
}

// ApplyCommand asks p to edit the document and, on success, replaces
// the text. The returned message is meant for the status bar.
func (d *Document) ApplyCommand(ctx context.Context, p Processor, command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", apperr.Validation("指示を入力してください")
	}

	res, err := p.ProcessDocumentCommand(ctx, command, d.Text)
	if err != nil {
		return res.Message, err
	}
	if !res.Success {
		return res.Message, nil
	}
	d.SetText(res.NewText)
	if res.Message == "" {
		return "文書を書き換えました", nil
	}
	return res.Message, nil
}
