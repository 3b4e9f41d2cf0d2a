package store

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// MaxRecentFiles is how many paths a recent list remembers.
const MaxRecentFiles = 10

const (
	RecentSpreadsheetsFile = "recent_spreadsheets.txt"
	RecentDocumentsFile    = "recent_documents.txt"
)

// RecentFiles is a most-recent-first list of file paths persisted as
// one path per line.
type RecentFiles struct {
	path string
	mu   sync.Mutex
}

// NewRecentFiles returns a recent list backed by the text file at path.
func NewRecentFiles(path string) *RecentFiles {
	return &RecentFiles{path: path}
}

// List returns the remembered paths that still exist, newest first.
func (r *RecentFiles) List() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths, err := r.read()
	if err != nil {
		return nil, err
	}

	existing := paths[:0]
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	return existing, nil
}

// Add moves path to the front of the list, dropping duplicates, missing
// files and anything past MaxRecentFiles.
func (r *RecentFiles) Add(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	paths, err := r.read()
	if err != nil {
		return err
	}

	out := []string{path}
	for _, p := range paths {
		if p == path {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		out = append(out, p)
		if len(out) == MaxRecentFiles {
			break
		}
	}

	data := strings.Join(out, "\n") + "\n"
	if err := AtomicWriteFile(r.path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("saving recent files: %w", err)
	}
	return nil
}

func (r *RecentFiles) read() ([]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening recent files: %w", err)
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading recent files: %w", err)
	}
	return paths, nil
}
