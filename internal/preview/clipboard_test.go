package preview

import (
	"encoding/base64"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestSystemClipboard_Method(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want clipboardMethod
	}{
		{"local", nil, methodNative},
		{"local tmux", map[string]string{"TMUX": "/tmp/tmux"}, methodNative},
		{"ssh tty", map[string]string{"SSH_TTY": "/dev/pts/1"}, methodOSC52},
		{"ssh connection", map[string]string{"SSH_CONNECTION": "1.2.3.4 5 6.7.8.9 22"}, methodOSC52},
		{"remote tmux", map[string]string{"SSH_CLIENT": "x", "TMUX": "/tmp/tmux"}, methodOSC52},
		{"screen", map[string]string{"STY": "123.pts"}, methodOSC52},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SystemClipboard{Getenv: envFrom(tt.env)}
			require.Equal(t, tt.want, c.method())
		})
	}
}

func TestSystemClipboard_OSC52Sequence(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("<html></html>"))

	plain := SystemClipboard{Getenv: envFrom(nil)}
	require.Equal(t, "\x1b]52;c;"+encoded+"\x07", plain.osc52Sequence("<html></html>"))

	tmux := SystemClipboard{Getenv: envFrom(map[string]string{"TMUX": "x"})}
	seq := tmux.osc52Sequence("<html></html>")
	require.True(t, strings.HasPrefix(seq, "\x1bPtmux;"))
	require.Contains(t, seq, encoded)
}

func TestSystemClipboard_CopyViaOSC52WritesTTY(t *testing.T) {
	tty := filepath.Join(t.TempDir(), "tty")
	require.NoError(t, os.WriteFile(tty, nil, 0600))

	c := SystemClipboard{
		Getenv: envFrom(map[string]string{"SSH_TTY": "/dev/pts/9"}),
		TTY:    tty,
	}
	require.NoError(t, c.Copy("hello"))

	data, err := os.ReadFile(tty)
	require.NoError(t, err)
	require.Equal(t, "\x1b]52;c;aGVsbG8=\x07", string(data))
}

func TestSystemClipboard_MissingTTY(t *testing.T) {
	c := SystemClipboard{
		Getenv: envFrom(map[string]string{"STY": "1"}),
		TTY:    filepath.Join(t.TempDir(), "missing", "tty"),
	}
	require.Error(t, c.Copy("x"))
}

func TestSystemClipboard_NativeCommand(t *testing.T) {
	c := SystemClipboard{Getenv: envFrom(map[string]string{"WAYLAND_DISPLAY": "wayland-0"})}
	name, _ := c.nativeCommand()
	require.Contains(t, []string{"pbcopy", "wl-copy"}, name)
}

func TestPipeTo(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	cmd := exec.Command("cat")
	require.NoError(t, pipeTo(cmd, "hello"))
	require.NotNil(t, cmd.ProcessState)
}

func TestPipeTo_WaitsAfterWriteFailure(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	// true exits without reading, so a write larger than the pipe buffer fails.
	cmd := exec.Command("true")
	err := pipeTo(cmd, strings.Repeat("x", 1<<20))
	require.Error(t, err)
	require.NotNil(t, cmd.ProcessState, "the process is reaped")
}
