// Package help renders the keyboard reference overlay as Markdown through
// glamour.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/instadash/internal/ui/styles"
)

// Section is a titled group of bindings.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Markdown builds the help document. Disabled bindings are skipped.
func Markdown(intro string, sections []Section) string {
	var b strings.Builder
	b.WriteString("# instadash\n\n")
	if intro != "" {
		b.WriteString(intro + "\n\n")
	}
	for _, s := range sections {
		rows := 0
		for _, kb := range s.Bindings {
			if !kb.Enabled() {
				continue
			}
			if rows == 0 {
				fmt.Fprintf(&b, "## %s\n\n| Key | Action |\n|---|---|\n", s.Title)
			}
			h := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
			rows++
		}
		if rows > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Render turns markdown into styled terminal text wrapped to width.
func Render(markdown string, width int) (string, error) {
	style := "dark"
	if !lipgloss.HasDarkBackground() {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering help: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

// Overlay renders the help document inside a modal box sized for a
// width x height screen. Rendering failures fall back to the raw Markdown.
func Overlay(markdown string, width, height int) string {
	inner := max(min(width-8, 80), 20)
	body, err := Render(markdown, inner)
	if err != nil {
		body = markdown
	}
	footer := styles.HintStyle.Render("esc or ? to close")
	box := styles.ModalStyle.Width(inner).MaxHeight(max(height-2, 5)).Render(body + "\n\n" + footer)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
