package document

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// bodyFontHalfPoints is the run size in half points (14pt).
const bodyFontHalfPoints = 28

// readDocx returns the body paragraphs of a Word file, one line per
// paragraph. Tables and drawings are skipped.
func readDocx(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening package: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, p.String())
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// writeDocx builds an A4 Word file with one paragraph per line of text.
func writeDocx(text string) ([]byte, error) {
	size := strconv.Itoa(bodyFontHalfPoints)
	w := docx.New().WithDefaultTheme().WithA4Page()
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		p := w.AddParagraph()
		if line == "" {
			continue
		}
		segments := strings.Split(line, "\t")
		run := p.AddText(segments[0]).Size(size)
		for _, seg := range segments[1:] {
			run.AddTab()
			run = p.AddText(seg).Size(size)
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing package: %w", err)
	}
	return buf.Bytes(), nil
}
