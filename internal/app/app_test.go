package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/instadash/internal/generation"
	"github.com/zjrosen/instadash/internal/ingest"
	"github.com/zjrosen/instadash/internal/preview"
	"github.com/zjrosen/instadash/internal/ui/editor"
	"github.com/zjrosen/instadash/internal/ui/offline"
	"github.com/zjrosen/instadash/internal/workflow"
)

const dashboardHTML = "<!doctype html><html><head><title>Sales Overview</title></head>" +
	"<body><canvas id=\"c\"></canvas><script>draw()</script></body></html>"

type fakeGenerator struct {
	html string
	err  error
}

func (g *fakeGenerator) Generate(context.Context, generation.Request) (string, error) {
	return g.html, g.err
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) Copy(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type fakeHealth struct {
	health generation.Health
	err    error
	calls  int
}

func (h *fakeHealth) Health(context.Context) (generation.Health, error) {
	h.calls++
	return h.health, h.err
}

type fixture struct {
	model     Model
	ctrl      *workflow.Controller
	gen       *fakeGenerator
	clipboard *fakeClipboard
	renderer  *preview.Renderer
	dir       string
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	f := &fixture{
		ctrl:      workflow.New(workflow.Config{BannerDuration: time.Millisecond}),
		gen:       &fakeGenerator{html: dashboardHTML},
		clipboard: &fakeClipboard{},
		renderer:  preview.NewRenderer(),
		dir:       t.TempDir(),
	}
	cfg := Config{
		Controller: f.ctrl,
		Generator:  f.gen,
		Ingestor:   ingest.New(),
		Exporter: preview.NewExporter(preview.ExporterConfig{
			Clipboard: f.clipboard,
			Dir:       f.dir,
			Now:       func() time.Time { return time.UnixMilli(1700000000000) },
		}),
		Renderer:    f.renderer,
		Endpoint:    "http://localhost:8000/generate-dashboard",
		PreviewURL:  "http://127.0.0.1:9999",
		OpenBrowser: func(string) error { return nil },
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	m := New(cfg)
	t.Cleanup(m.Close)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 44})
	f.model = next.(Model)
	return f
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

func (f *fixture) press(k tea.KeyType) tea.Cmd {
	return f.send(tea.KeyMsg{Type: k})
}

func (f *fixture) typeText(s string) tea.Cmd {
	return f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// generate presses ctrl+g and feeds back the generator's result.
func (f *fixture) generate(t *testing.T) {
	t.Helper()
	require.NotNil(t, f.press(tea.KeyCtrlG))
	require.Equal(t, workflow.PhasePending, f.ctrl.Phase())
	html, err := f.gen.Generate(context.Background(), generation.Request{})
	f.send(workflow.ResultMsg{HTML: html, Err: err})
}

// find runs cmd, expanding batches, until it produces a message of type T.
// Commands that sleep, such as cursor blinks, are run concurrently and
// abandoned when something else answers first.
func find[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	out := make(chan tea.Msg, 16)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, sub := range batch {
					run(sub)
				}
				return
			}
			out <- msg
		}()
	}
	run(cmd)

	timeout := time.After(3 * time.Second)
	for {
		select {
		case msg := <-out:
			if v, ok := msg.(T); ok {
				return v
			}
		case <-timeout:
			var zero T
			t.Fatalf("no %T produced", zero)
			return zero
		}
	}
}

func TestView_EmptyState(t *testing.T) {
	f := newFixture(t)
	view := f.model.View()

	assert.Contains(t, view, "No Dashboard Yet")
	assert.Contains(t, view, "JSON Data")
	assert.Contains(t, view, "Dashboard Description")
	assert.Contains(t, view, "0/500")
	assert.Contains(t, view, "0.3")
	assert.Contains(t, view, "Consistent")
}

func TestView_TooSmall(t *testing.T) {
	f := newFixture(t)
	f.send(tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, f.model.View(), "Terminal too small")
}

func TestGenerate_NotReadyWithEmptyFields(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.press(tea.KeyCtrlG))
	assert.Equal(t, workflow.PhaseIdle, f.ctrl.Phase())
	assert.Zero(t, f.ctrl.State().Attempts)
}

func TestGenerate_InvalidJSONShowsError(t *testing.T) {
	f := newFixture(t)
	f.typeText("{not json")
	f.press(tea.KeyTab)
	f.typeText("a dashboard")

	assert.Nil(t, f.press(tea.KeyCtrlG))
	assert.Equal(t, workflow.PhaseFailed, f.ctrl.Phase())
	assert.Contains(t, f.model.View(), "⚠ Error:")
	assert.Contains(t, f.model.View(), "Invalid JSON format")
}

func TestGenerate_Success(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyCtrlL)

	require.NotNil(t, f.press(tea.KeyCtrlG))
	assert.Contains(t, f.model.View(), "Generating your beautiful dashboard...")
	assert.Nil(t, f.press(tea.KeyCtrlG), "second submit while pending is ignored")

	f.send(workflow.ResultMsg{HTML: dashboardHTML})

	st := f.ctrl.State()
	assert.Equal(t, workflow.PhaseSucceeded, st.Phase)
	assert.True(t, st.SuccessBanner)
	frame, shown := f.renderer.Frame()
	require.True(t, shown)
	assert.Equal(t, 1, frame.Revision)

	view := f.model.View()
	assert.Contains(t, view, "Dashboard generated successfully!")
	assert.Contains(t, view, "Sales Overview")
	assert.Contains(t, view, "Copy Code")
	assert.Contains(t, view, "http://127.0.0.1:9999")
}

func TestGenerate_FailureKeepsArtifact(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyCtrlL)
	f.generate(t)

	f.gen.err = &generation.ServiceError{Status: 500, Message: "Model overloaded"}
	f.generate(t)

	st := f.ctrl.State()
	assert.Equal(t, workflow.PhaseFailed, st.Phase)
	assert.True(t, st.HasArtifact())
	view := f.model.View()
	assert.Contains(t, view, "Model overloaded")
	assert.Contains(t, view, "Sales Overview")
}

func TestBannerExpiry_IgnoresStaleToken(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyCtrlL)
	f.generate(t)
	f.generate(t)
	require.True(t, f.ctrl.State().SuccessBanner)

	f.send(workflow.BannerExpiredMsg{Token: 1})
	assert.True(t, f.ctrl.State().SuccessBanner, "token from the first success is stale")

	f.send(workflow.BannerExpiredMsg{Token: 2})
	assert.False(t, f.ctrl.State().SuccessBanner)
}

func TestTyping_SyncsController(t *testing.T) {
	f := newFixture(t)

	f.typeText(`{"a": 1}`)
	assert.Equal(t, `{"a": 1}`, f.ctrl.State().JSONText)
	assert.Contains(t, f.model.View(), "✓ valid JSON")

	f.press(tea.KeyBackspace)
	assert.Contains(t, f.model.View(), "✗ invalid JSON")

	f.press(tea.KeyTab)
	f.typeText(strings.Repeat("x", 600))
	assert.Equal(t, workflow.MaxPromptLength, workflow.PromptLength(f.ctrl.State().PromptText))
	assert.Contains(t, f.model.View(), "500/500")
}

func TestTemperature_Keys(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyShiftTab)
	require.Equal(t, focusTemperature, f.model.focus)

	f.press(tea.KeyRight)
	assert.InDelta(t, 0.4, f.ctrl.State().Temperature, 1e-9)
	f.typeText("-")
	f.typeText("-")
	assert.InDelta(t, 0.2, f.ctrl.State().Temperature, 1e-9)
	assert.Contains(t, f.model.View(), "0.2")
}

func TestTemperature_KeysTypeIntoEditors(t *testing.T) {
	f := newFixture(t)
	f.typeText("-")
	assert.InDelta(t, workflow.DefaultTemperature, f.ctrl.State().Temperature, 1e-9)
	assert.Equal(t, "-", f.ctrl.State().JSONText)
}

func TestLoadExample(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyCtrlL)

	assert.Equal(t, workflow.ExampleJSON, f.model.jsonArea.Value())
	assert.Equal(t, f.ctrl.State().PromptText, f.model.prompt.Value())
	assert.Contains(t, f.model.View(), "Example data loaded")
}

func TestUpload_ReadsFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "sales.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"revenue": [1, 2, 3]}`), 0o600))

	f.press(tea.KeyCtrlO)
	require.Equal(t, modeUpload, f.model.mode)
	assert.Contains(t, f.model.View(), "File: ")

	f.typeText(path)
	cmd := f.press(tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, modeForm, f.model.mode)

	loaded := find[ingest.LoadedMsg](t, cmd)
	assert.Equal(t, ingest.SourceUpload, loaded.Result.Source)
	f.send(loaded)

	assert.Equal(t, `{"revenue": [1, 2, 3]}`, f.ctrl.State().JSONText)
	assert.Contains(t, f.model.View(), "sales.json")
}

func TestUpload_RejectsNonJSON(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	f.press(tea.KeyCtrlO)
	f.typeText(path)
	f.press(tea.KeyEnter)

	assert.Equal(t, statusError, f.model.status.kind)
	assert.Equal(t, ingest.Message(ingest.ErrUnsupportedType), f.model.status.text)
	assert.Empty(t, f.ctrl.State().JSONText)
}

func TestUpload_EscCancels(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyCtrlO)
	f.typeText("/tmp/ignored.json")
	f.press(tea.KeyEsc)
	assert.Equal(t, modeForm, f.model.mode)
	assert.NotContains(t, f.model.View(), "File: ")
}

func TestPaste_DroppedFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "dropped data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1, 2]`), 0o600))

	cmd := f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("'" + path + "'"), Paste: true})
	require.NotNil(t, cmd)
	assert.Empty(t, f.model.jsonArea.Value(), "the path is not typed into the editor")
	assert.False(t, f.model.ingestor.Dragging(), "a pasted drop has no hover phase")

	loaded := find[ingest.LoadedMsg](t, cmd)
	assert.Equal(t, ingest.SourceDrop, loaded.Result.Source)
	f.send(loaded)
	assert.Equal(t, `[1, 2]`, f.ctrl.State().JSONText)
}

func TestPaste_OrdinaryText(t *testing.T) {
	f := newFixture(t)
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(`{"pasted": true}`), Paste: true})
	assert.Equal(t, `{"pasted": true}`, f.ctrl.State().JSONText)
}

func TestIngestFailure(t *testing.T) {
	f := newFixture(t)
	f.send(ingest.FailedMsg{Err: &ingest.ReadError{Path: "/tmp/x.json", Err: os.ErrPermission}})
	assert.Equal(t, statusError, f.model.status.kind)
	assert.NotEmpty(t, f.model.status.text)
}

func TestWatcher_ReloadsChangedFile(t *testing.T) {
	ing := ingest.New()
	w := ingest.NewWatcher(ing, 10*time.Millisecond)
	f := newFixture(t, func(c *Config) {
		c.Ingestor = ing
		c.Watcher = w
	})

	path := filepath.Join(t.TempDir(), "live.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v": 1}`), 0o600))

	cmd := f.send(ingest.LoadedMsg{Result: ingest.Result{
		Text:   `{"v": 1}`,
		Valid:  true,
		Source: ingest.SourceUpload,
		Path:   path,
	}})
	require.NotNil(t, cmd)
	assert.Equal(t, path, w.Watching())
	assert.Contains(t, f.model.View(), "(watching)")

	require.NoError(t, os.WriteFile(path, []byte(`{"v": 2}`), 0o600))
	watched := find[watchedMsg](t, cmd)
	next := f.send(watched)

	assert.Equal(t, `{"v": 2}`, f.ctrl.State().JSONText)
	assert.NotNil(t, next, "the watcher is re-armed")
	assert.True(t, f.model.watching)
}

func TestEditor_Finished(t *testing.T) {
	f := newFixture(t)
	f.send(editor.FinishedMsg{Target: editor.TargetJSON, Content: `{"from": "editor"}`})
	f.send(editor.FinishedMsg{Target: editor.TargetPrompt, Content: "Make it blue"})

	st := f.ctrl.State()
	assert.Equal(t, `{"from": "editor"}`, st.JSONText)
	assert.Equal(t, "Make it blue", st.PromptText)

	f.send(editor.FinishedMsg{Target: editor.TargetJSON, Err: errors.New("exit status 1")})
	assert.Contains(t, f.model.status.text, "Editor failed")
}

// jsonArray returns a valid JSON array spread over n lines.
func jsonArray(n int) string {
	var b strings.Builder
	b.WriteString("[\n")
	for i := 0; i < n-2; i++ {
		b.WriteString("  0")
		if i < n-3 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("]")
	return b.String()
}

func TestLoaded_LargeFileKeepsFullText(t *testing.T) {
	f := newFixture(t)
	text := jsonArray(12003)
	require.Equal(t, 12003, strings.Count(text, "\n")+1)

	f.send(ingest.LoadedMsg{Result: ingest.Result{Text: text, Valid: true, Source: ingest.SourceUpload, Path: "/tmp/big.json"}})
	require.Equal(t, text, f.ctrl.State().JSONText)
	assert.Contains(t, f.model.View(), "read-only")

	f.press(tea.KeyRight)
	assert.Equal(t, text, f.ctrl.State().JSONText, "navigation does not write back")

	f.typeText("x")
	assert.Equal(t, text, f.ctrl.State().JSONText, "edits are refused")
	assert.Equal(t, statusError, f.model.status.kind)
	assert.Contains(t, f.model.status.text, "$EDITOR")

	f.press(tea.KeyTab)
	f.typeText("a chart")
	require.NotNil(t, f.press(tea.KeyCtrlG))
	assert.Equal(t, workflow.PhasePending, f.ctrl.Phase())
}

func TestEditor_FinishedWithLargeJSON(t *testing.T) {
	f := newFixture(t)
	text := jsonArray(10500)

	f.send(editor.FinishedMsg{Target: editor.TargetJSON, Content: text})
	assert.Equal(t, text, f.ctrl.State().JSONText)
	assert.True(t, f.model.jsonOverflow)

	f.send(editor.FinishedMsg{Target: editor.TargetJSON, Content: `{"small": true}`})
	assert.False(t, f.model.jsonOverflow)
	f.typeText(" ")
	assert.Equal(t, `{"small": true} `, f.ctrl.State().JSONText)
}

func TestJSONEditor_GrowsPastDefaultHeight(t *testing.T) {
	f := newFixture(t)
	text := jsonArray(100)
	f.send(ingest.LoadedMsg{Result: ingest.Result{Text: text, Valid: true, Source: ingest.SourceUpload, Path: "/tmp/data.json"}})

	f.press(tea.KeyEnter)
	assert.Equal(t, 101, strings.Count(f.ctrl.State().JSONText, "\n")+1)
}

func TestCopy(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.press(tea.KeyCtrlY), "nothing to copy yet")

	f.press(tea.KeyCtrlL)
	f.generate(t)

	cmd := f.press(tea.KeyCtrlY)
	require.NotNil(t, cmd)
	f.send(cmd())

	assert.Equal(t, dashboardHTML, f.clipboard.text)
	assert.Equal(t, modeNotice, f.model.mode)
	assert.Contains(t, f.model.View(), preview.CopySuccessMessage)

	f.typeText("x")
	assert.Equal(t, modeForm, f.model.mode)
}

func TestCopy_Failure(t *testing.T) {
	f := newFixture(t)
	f.clipboard.err = errors.New("no clipboard")
	f.press(tea.KeyCtrlL)
	f.generate(t)

	f.send(f.press(tea.KeyCtrlY)())
	assert.Contains(t, f.model.View(), preview.CopyFailureMessage)
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyCtrlL)
	f.generate(t)

	cmd := f.press(tea.KeyCtrlS)
	require.NotNil(t, cmd)
	f.send(cmd())

	want := filepath.Join(f.dir, "dashboard_1700000000000.html")
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, dashboardHTML, string(data))
	assert.Equal(t, "Saved "+want, f.model.status.text)
}

func TestOpenPreview(t *testing.T) {
	var opened string
	f := newFixture(t, func(c *Config) {
		c.OpenBrowser = func(url string) error { opened = url; return nil }
	})

	cmd := f.press(tea.KeyCtrlP)
	require.NotNil(t, cmd)
	f.send(cmd())
	assert.Equal(t, "http://127.0.0.1:9999", opened)
}

func TestOpenPreview_Disabled(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.PreviewURL = "" })
	assert.Nil(t, f.press(tea.KeyCtrlP))
	assert.Equal(t, statusError, f.model.status.kind)
}

func TestOpenOnSuccess_OnlyOnce(t *testing.T) {
	opened := 0
	f := newFixture(t, func(c *Config) {
		c.OpenOnSuccess = true
		c.OpenBrowser = func(string) error { opened++; return nil }
	})
	f.press(tea.KeyCtrlL)

	require.NotNil(t, f.press(tea.KeyCtrlG))
	cmd := f.send(workflow.ResultMsg{HTML: dashboardHTML})
	f.send(find[browserMsg](t, cmd))
	assert.Equal(t, 1, opened)

	require.NotNil(t, f.press(tea.KeyCtrlG))
	f.send(workflow.ResultMsg{HTML: dashboardHTML})
	assert.True(t, f.model.openedPreview)
}

func TestHealth_OfflineThenRecovered(t *testing.T) {
	checker := &fakeHealth{err: errors.New("connection refused")}
	f := newFixture(t, func(c *Config) { c.Health = checker })

	f.send(f.model.checkHealth(false)())
	require.Equal(t, modeOffline, f.model.mode)
	assert.Contains(t, f.model.View(), "Can't reach the dashboard service")
	assert.Contains(t, f.model.View(), "connection refused")

	checker.err = nil
	checker.health = generation.Health{Status: "healthy", GroqConfigured: true}
	cmd := f.send(offline.RetryMsg{})
	require.NotNil(t, cmd)
	f.send(cmd())

	assert.Equal(t, modeForm, f.model.mode)
	assert.Contains(t, f.model.View(), "service ready")
	assert.Equal(t, 2, checker.calls)
}

func TestHealth_Dismiss(t *testing.T) {
	checker := &fakeHealth{err: errors.New("connection refused")}
	f := newFixture(t, func(c *Config) { c.Health = checker })
	f.send(f.model.checkHealth(false)())

	cmd := f.typeText("c")
	require.NotNil(t, cmd)
	f.send(cmd())

	assert.Equal(t, modeForm, f.model.mode)
	assert.Contains(t, f.model.View(), "service offline")
}

func TestHealth_ScheduledProbeReschedules(t *testing.T) {
	checker := &fakeHealth{health: generation.Health{Status: "healthy"}}
	f := newFixture(t, func(c *Config) { c.Health = checker })

	assert.NotNil(t, f.send(healthMsg{health: checker.health, scheduled: true}))
	assert.Nil(t, f.send(healthMsg{health: checker.health}))
}

func TestHelp_Overlay(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyF1)
	require.Equal(t, modeHelp, f.model.mode)
	assert.Contains(t, f.model.View(), "Exporting")

	f.press(tea.KeyEsc)
	assert.Equal(t, modeForm, f.model.mode)
}

func TestHelp_QuestionMarkOnlyOutsideEditors(t *testing.T) {
	f := newFixture(t)
	f.typeText("?")
	assert.Equal(t, modeForm, f.model.mode)
	assert.Equal(t, "?", f.ctrl.State().JSONText)

	f.press(tea.KeyShiftTab)
	f.typeText("?")
	assert.Equal(t, modeHelp, f.model.mode)
}

func TestQuit(t *testing.T) {
	f := newFixture(t)
	cmd := f.press(tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestProgram_GenerateFlow(t *testing.T) {
	f := newFixture(t)
	tm := teatest.NewTestModel(t, f.model, teatest.WithInitialTermSize(140, 44))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("No Dashboard Yet"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlL})
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlG})

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Sales Overview"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)

	assert.Equal(t, workflow.PhaseSucceeded, final.ctrl.Phase())
	assert.Equal(t, workflow.ExampleJSON, final.jsonArea.Value())
}
