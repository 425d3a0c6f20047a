package preview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderer_Show(t *testing.T) {
	r := NewRenderer()
	_, shown := r.Frame()
	require.False(t, shown)

	require.True(t, r.Show("<title>One</title>\n<p>1</p>"))
	f, shown := r.Frame()
	require.True(t, shown)
	require.Equal(t, 1, f.Revision)
	require.Equal(t, "One", f.Summary.Title)
	require.False(t, f.Diff.Changed())

	require.False(t, r.Show("<title>One</title>\n<p>1</p>"), "same artifact is not re-rendered")

	require.True(t, r.Show("<title>Two</title>\n<p>1</p>"))
	f, _ = r.Frame()
	require.Equal(t, 2, f.Revision)
	require.Equal(t, "Two", f.Summary.Title)
	require.Equal(t, DiffStats{Added: 1, Removed: 1}, f.Diff)
}

func TestRenderer_Sync(t *testing.T) {
	r := NewRenderer()
	require.False(t, r.Sync(nil))

	html := "<p/>"
	require.True(t, r.Sync(&html))
	require.False(t, r.Sync(nil), "nil keeps the current frame")

	f, shown := r.Frame()
	require.True(t, shown)
	require.Equal(t, "<p/>", f.HTML)
}
