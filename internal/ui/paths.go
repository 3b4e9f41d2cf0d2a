package ui

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath trims quotes and whitespace from a typed path and expands
// a leading "~" to the home directory.
func ExpandPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), `"'`)
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// WithExt appends ext when p has no extension.
func WithExt(p, ext string) string {
	if filepath.Ext(p) == "" {
		return p + ext
	}
	return p
}
