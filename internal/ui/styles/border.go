package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	cornerTL = "╭"
	cornerTR = "╮"
	cornerBL = "╰"
	cornerBR = "╯"
	lineH    = "─"
	lineV    = "│"
)

// Panel is a rounded box with titles set into its top edge:
//
//	╭─ Left ──────────── Right ─╮
type Panel struct {
	Left, Right string
	Width       int
	Height      int
	Focused     bool
	// TitleColor colors both titles; zero uses TextSecondaryColor.
	TitleColor lipgloss.TerminalColor
}

// Render draws content inside the panel, clipping or padding it to fit.
func (p Panel) Render(content string) string {
	border := BorderDefaultColor
	if p.Focused {
		border = BorderFocusColor
	}
	var title lipgloss.TerminalColor = TextSecondaryColor
	if p.TitleColor != nil {
		title = p.TitleColor
	}
	edge := lipgloss.NewStyle().Foreground(border)
	titleStyle := lipgloss.NewStyle().Foreground(title)

	inner := max(p.Width-2, 1)
	rows := max(p.Height-2, 1)

	body := lipgloss.NewStyle().Width(inner).Height(rows).MaxHeight(rows).Render(content)
	lines := strings.Split(body, "\n")

	var b strings.Builder
	b.WriteString(topEdge(p.Left, p.Right, inner, edge, titleStyle))
	for i := range rows {
		var line string
		if i < len(lines) {
			line = ansi.Truncate(lines[i], inner, "")
		}
		if w := lipgloss.Width(line); w < inner {
			line += strings.Repeat(" ", inner-w)
		}
		b.WriteString("\n" + edge.Render(lineV) + line + edge.Render(lineV))
	}
	b.WriteString("\n" + edge.Render(cornerBL+strings.Repeat(lineH, inner)+cornerBR))
	return b.String()
}

// topEdge fits as much of the titles as inner allows. The right title is
// dropped first, then the left title is truncated.
func topEdge(left, right string, inner int, edge, title lipgloss.Style) string {
	plain := edge.Render(cornerTL + strings.Repeat(lineH, inner) + cornerTR)

	lw, rw := lipgloss.Width(left), lipgloss.Width(right)
	// "─ " + left + " " + dashes(>=1) + " " + right + " ─"
	need := 0
	if left != "" {
		need += lw + 3
	}
	if right != "" {
		need += rw + 3
	}
	if right != "" && need+1 > inner {
		right, rw = "", 0
		need = lw + 3
	}
	if left == "" && right == "" {
		return plain
	}
	if left != "" && need+1 > inner {
		avail := inner - 4
		if avail < 1 {
			return plain
		}
		left = TruncateString(left, avail)
		lw = lipgloss.Width(left)
		need = lw + 3
	}

	dashes := max(inner-need, 1)
	var b strings.Builder
	b.WriteString(edge.Render(cornerTL))
	if left != "" {
		b.WriteString(edge.Render(lineH+" ") + title.Render(left) + edge.Render(" "))
	}
	b.WriteString(edge.Render(strings.Repeat(lineH, dashes)))
	if right != "" {
		b.WriteString(edge.Render(" ") + title.Render(right) + edge.Render(" "+lineH))
	}
	b.WriteString(edge.Render(cornerTR))
	return b.String()
}

// TruncateString shortens s to maxWidth display cells, ending in "..."
// when anything was cut.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return ansi.Truncate(s, maxWidth, "...")
}
