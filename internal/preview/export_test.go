package preview

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/instadash/internal/workflow"
)

type mockClipboard struct {
	copiedText string
	copyErr    error
	copyCalled bool
}

func (m *mockClipboard) Copy(text string) error {
	m.copyCalled = true
	m.copiedText = text
	return m.copyErr
}

type exportCounter struct {
	kinds []string
	errs  []error
}

func (c *exportCounter) ObserveExport(kind string, err error) {
	c.kinds = append(c.kinds, kind)
	c.errs = append(c.errs, err)
}

func artifactState(html string, phase workflow.Phase) workflow.State {
	return workflow.State{ArtifactHTML: &html, Phase: phase}
}

var fixedNow = time.UnixMilli(1767225600123)

func TestDownloadFilename(t *testing.T) {
	require.Equal(t, "dashboard_1767225600123.html", DownloadFilename(fixedNow))
}

func TestCopy(t *testing.T) {
	clip := &mockClipboard{}
	obs := &exportCounter{}
	e := NewExporter(ExporterConfig{Clipboard: clip, Observer: obs})

	err := e.Copy(artifactState("<html>x</html>", workflow.PhaseSucceeded))
	require.NoError(t, err)
	require.True(t, clip.copyCalled)
	require.Equal(t, "<html>x</html>", clip.copiedText)
	require.Equal(t, CopySuccessMessage, CopyMessage(err))
	require.Equal(t, []string{"copy"}, obs.kinds)
}

func TestCopy_Failure(t *testing.T) {
	clip := &mockClipboard{copyErr: errors.New("xclip not found")}
	e := NewExporter(ExporterConfig{Clipboard: clip})

	err := e.Copy(artifactState("<p/>", workflow.PhaseFailed))
	require.Error(t, err)
	require.Equal(t, CopyFailureMessage, CopyMessage(err))
}

func TestExport_Unavailable(t *testing.T) {
	tests := []struct {
		name  string
		state workflow.State
	}{
		{"no artifact", workflow.State{Phase: workflow.PhaseIdle}},
		{"pending", artifactState("<p/>", workflow.PhasePending)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := &mockClipboard{}
			e := NewExporter(ExporterConfig{Clipboard: clip, Dir: t.TempDir()})

			require.ErrorIs(t, e.Copy(tt.state), ErrExportUnavailable)
			require.False(t, clip.copyCalled)

			_, err := e.Download(tt.state)
			require.ErrorIs(t, err, ErrExportUnavailable)
			entries, _ := os.ReadDir(e.Dir())
			require.Empty(t, entries)
		})
	}
}

func TestDownload_WritesExactBytes(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(ExporterConfig{Dir: dir, Now: func() time.Time { return fixedNow }, Clipboard: &mockClipboard{}})

	html := "<!doctype html>\n<html><body>ünïcödé</body></html>"
	path, err := e.Download(artifactState(html, workflow.PhaseSucceeded))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "dashboard_1767225600123.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, html, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging file is removed")
}

func TestDownload_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")
	e := NewExporter(ExporterConfig{Dir: dir, Clipboard: &mockClipboard{}})

	path, err := e.Download(artifactState("<p/>", workflow.PhaseSucceeded))
	require.NoError(t, err)
	require.FileExists(t, path)
}

func TestDownload_UnwritableDirectory(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	e := NewExporter(ExporterConfig{Dir: filepath.Join(blocker, "sub"), Clipboard: &mockClipboard{}})
	_, err := e.Download(artifactState("<p/>", workflow.PhaseSucceeded))
	require.Error(t, err)
}

// Exports are byte-identical to the artifact.
func TestExport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		html := rapid.String().Draw(rt, "html")
		clip := &mockClipboard{}
		n := rapid.Int64Range(0, 1<<40).Draw(rt, "ms")
		e := NewExporter(ExporterConfig{Clipboard: clip, Dir: dir, Now: func() time.Time { return time.UnixMilli(n) }})
		st := artifactState(html, workflow.PhaseSucceeded)

		if err := e.Copy(st); err != nil {
			rt.Fatal(err)
		}
		if clip.copiedText != html {
			rt.Fatalf("clipboard %q != %q", clip.copiedText, html)
		}

		path, err := e.Download(st)
		if err != nil {
			rt.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			rt.Fatal(err)
		}
		if string(data) != html {
			rt.Fatalf("download %q != %q", data, html)
		}
		_ = os.Remove(path)
	})
}
