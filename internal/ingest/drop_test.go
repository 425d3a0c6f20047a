package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDragFlag(t *testing.T) {
	ing := New()
	require.False(t, ing.Dragging())

	ing.DragEnter()
	require.True(t, ing.Dragging())

	ing.DragLeave()
	require.False(t, ing.Dragging())

	ing.DragEnter()
	_, _ = ing.Drop([]File{{Path: "/x.txt", Type: "text/plain"}})
	require.False(t, ing.Dragging(), "drop clears the flag even when rejected")
}

func TestDrop_MirrorsUpload(t *testing.T) {
	ing := New()
	path := filepath.Join(t.TempDir(), "d.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dropped":true}`), 0600))

	ing.DragEnter()
	cmd, err := ing.Drop([]File{FileFromPath(path), FileFromPath("/ignored.json")})
	require.NoError(t, err)

	loaded, ok := cmd().(LoadedMsg)
	require.True(t, ok)
	require.Equal(t, SourceDrop, loaded.Result.Source)
	require.Equal(t, path, loaded.Result.Path)
	require.True(t, loaded.Result.Valid)
}

func TestParseDroppedPaths(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single path", "/tmp/data.json", []string{"/tmp/data.json"}},
		{"trailing space", "/tmp/data.json ", []string{"/tmp/data.json"}},
		{"escaped space", `/tmp/my\ data.json`, []string{"/tmp/my data.json"}},
		{"single quoted", `'/tmp/my data.json'`, []string{"/tmp/my data.json"}},
		{"double quoted", `"/tmp/my data.json"`, []string{"/tmp/my data.json"}},
		{"multiple", "/tmp/a.json /tmp/b.json", []string{"/tmp/a.json", "/tmp/b.json"}},
		{"file url", "file:///tmp/a%20b.json", []string{"/tmp/a b.json"}},
		{"plain text", "make it blue", nil},
		{"json text", `{"a": 1}`, nil},
		{"relative", "data.json", nil},
		{"mixed", "/tmp/a.json and more", nil},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseDroppedPaths(tt.input))
		})
	}
}

func TestParseDroppedPaths_HomeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	require.Equal(t, []string{filepath.Join(home, "data.json")}, ParseDroppedPaths("~/data.json"))
}
