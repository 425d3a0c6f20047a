package styles

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// FormatBytes renders a size as B, KB, or MB with one decimal.
func FormatBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// FormatCounter renders "n/max", styled as a warning at the limit.
func FormatCounter(n, limit int) string {
	s := fmt.Sprintf("%d/%d", n, limit)
	if n >= limit {
		return WarningStyle.Render(s)
	}
	return MutedStyle.Render(s)
}

// Wrap word-wraps s to width, hard-breaking words longer than a line.
func Wrap(s string, width int) string {
	if width < 1 {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}

// PadRight pads s with spaces to width display cells.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Meter draws a fixed-width bar filled in proportion to frac.
func Meter(frac float64, width int) string {
	if width < 1 {
		return ""
	}
	frac = min(max(frac, 0), 1)
	filled := int(frac*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
