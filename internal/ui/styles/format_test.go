package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 << 20, "5.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.n))
	}
}

func TestFormatCounter(t *testing.T) {
	assert.Equal(t, "12/500", ansi.Strip(FormatCounter(12, 500)))
	assert.Equal(t, "500/500", ansi.Strip(FormatCounter(500, 500)))
}

func TestWrap(t *testing.T) {
	out := Wrap("the quick brown fox jumps", 10)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 10, "line %q", line)
	}
	assert.Equal(t, "abcde\nfghij", Wrap("abcdefghij", 5), "long words are hard-wrapped")
	assert.Equal(t, "as is", Wrap("as is", 0))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "日本 ", PadRight("日本", 5))
}

func TestMeter(t *testing.T) {
	assert.Equal(t, "░░░░", Meter(0, 4))
	assert.Equal(t, "██░░", Meter(0.5, 4))
	assert.Equal(t, "████", Meter(3, 4))
	assert.Empty(t, Meter(0.5, 0))
}
