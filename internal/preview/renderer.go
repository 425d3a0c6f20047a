// Package preview renders generated artifacts in an isolated browser
// context and exports them to the clipboard or disk.
package preview

import (
	"sync"
)

// Frame is one rendered revision of the artifact.
type Frame struct {
	Revision int
	HTML     string
	Summary  Summary
	// Diff compares this frame with the one it replaced.
	Diff DiffStats
}

// Renderer holds the artifact currently on display. Every change replaces
// the whole frame; nothing is patched in place.
type Renderer struct {
	mu    sync.RWMutex
	frame Frame
	shown bool
}

// NewRenderer creates an empty Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Show displays html. It returns false, leaving the frame alone, when html
// is already on display.
func (r *Renderer) Show(html string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shown && r.frame.HTML == html {
		return false
	}

	var diff DiffStats
	if r.shown {
		diff = Diff(r.frame.HTML, html)
	}
	r.frame = Frame{
		Revision: r.frame.Revision + 1,
		HTML:     html,
		Summary:  Summarize(html),
		Diff:     diff,
	}
	r.shown = true
	return true
}

// Sync shows artifact when it is non-nil. A nil artifact leaves the current
// frame in place.
func (r *Renderer) Sync(artifact *string) bool {
	if artifact == nil {
		return false
	}
	return r.Show(*artifact)
}

// Frame returns the current frame and whether anything has been shown.
func (r *Renderer) Frame() (Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame, r.shown
}
