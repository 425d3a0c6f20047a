package ingest

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// DragEnter marks a drag as hovering over the JSON input.
func (i *Ingestor) DragEnter() {
	i.dragging = true
}

// DragLeave clears the hover affordance.
func (i *Ingestor) DragLeave() {
	i.dragging = false
}

// Dragging reports whether a drag is hovering. It is a display flag only.
func (i *Ingestor) Dragging() bool {
	return i.dragging
}

// Drop ends the drag and ingests the first dropped file with the same rules
// as Upload.
func (i *Ingestor) Drop(files []File) (tea.Cmd, error) {
	i.dragging = false
	f, err := i.Accept(files)
	if err != nil {
		return nil, err
	}
	return i.ReadCmd(f, SourceDrop), nil
}

// ParseDroppedPaths recognizes a terminal paste produced by dropping files
// onto the window. Terminals paste one or more paths, shell-escaped or
// quoted, optionally as file:// URLs. It returns nil when any token does
// not look like an absolute path, so ordinary pasted text is left alone.
func ParseDroppedPaths(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var paths []string
	for _, tok := range splitShellWords(s) {
		if strings.HasPrefix(tok, "file://") {
			u, err := url.Parse(tok)
			if err != nil {
				return nil
			}
			tok = u.Path
		}
		if strings.HasPrefix(tok, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil
			}
			tok = filepath.Join(home, tok[2:])
		}
		if !filepath.IsAbs(tok) {
			return nil
		}
		paths = append(paths, tok)
	}
	return paths
}

// splitShellWords splits on unescaped whitespace, honoring single quotes,
// double quotes, and backslash escapes.
func splitShellWords(s string) []string {
	var (
		words []string
		cur   strings.Builder
		quote rune
		esc   bool
		has   bool
	)
	for _, r := range s {
		switch {
		case esc:
			cur.WriteRune(r)
			esc = false
		case r == '\\' && quote != '\'':
			esc = true
			has = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			has = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if has {
				words = append(words, cur.String())
				cur.Reset()
				has = false
			}
		default:
			cur.WriteRune(r)
			has = true
		}
	}
	if has {
		words = append(words, cur.String())
	}
	return words
}
