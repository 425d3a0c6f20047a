package preview

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffStats counts changed lines between two artifacts.
type DiffStats struct {
	Added   int
	Removed int
}

// Changed reports whether any line differs.
func (d DiffStats) Changed() bool {
	return d.Added > 0 || d.Removed > 0
}

// Diff compares prev and next line by line.
func Diff(prev, next string) DiffStats {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(prev, next)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var stats DiffStats
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Added += n
		case diffmatchpatch.DiffDelete:
			stats.Removed += n
		}
	}
	return stats
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	if s[len(s)-1] != '\n' {
		n++
	}
	return n
}
