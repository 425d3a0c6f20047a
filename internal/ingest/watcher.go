package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/instadash/internal/log"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 150 * time.Millisecond

// Watcher re-ingests a file-sourced input whenever it changes on disk.
// It watches the parent directory so atomic-rename saves are seen.
type Watcher struct {
	ingestor *Ingestor
	debounce time.Duration

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	file    File
	results chan tea.Msg
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWatcher creates a Watcher that reads through ingestor.
func NewWatcher(ingestor *Ingestor, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		ingestor: ingestor,
		debounce: debounce,
		results:  make(chan tea.Msg, 1),
	}
}

// Watch starts following f, replacing any previously watched file.
func (w *Watcher) Watch(f File) error {
	w.Stop()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(f.Path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.fsw = fsw
	w.file = f
	w.cancel = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	log.Debug(log.CatIngest, "watching file", "path", f.Path)
	log.SafeGo("ingest.watch", func() {
		defer close(done)
		w.loop(ctx, fsw, f)
	})
	return nil
}

// Watching returns the path currently followed, or "".
func (w *Watcher) Watching() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return ""
	}
	return w.file.Path
}

// Stop ends watching. It is safe to call before Watch or more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done, fsw := w.cancel, w.done, w.fsw
	w.cancel, w.done, w.fsw = nil, nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = fsw.Close()
	<-done
}

// WaitCmd blocks until the next change has been read. The TUI re-issues it
// after each delivered message.
func (w *Watcher) WaitCmd() tea.Cmd {
	return func() tea.Msg {
		return <-w.results
	}
}

// Results exposes the raw message stream for headless callers.
func (w *Watcher) Results() <-chan tea.Msg {
	return w.results
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, f File) {
	target := filepath.Clean(f.Path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatIngest, "watcher error", err, "path", f.Path)

		case <-fire:
			fire = nil
			res, err := w.ingestor.Read(ctx, f, SourceWatch)
			var msg tea.Msg = LoadedMsg{Result: res}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				msg = FailedMsg{Err: err}
			}
			w.deliver(ctx, msg)
		}
	}
}

// deliver keeps only the newest pending message.
func (w *Watcher) deliver(ctx context.Context, msg tea.Msg) {
	for {
		select {
		case w.results <- msg:
			return
		case <-ctx.Done():
			return
		default:
			select {
			case <-w.results:
			default:
			}
		}
	}
}
