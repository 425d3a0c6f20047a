// Package app contains the root Bubble Tea model: the JSON and prompt
// editors, the temperature control, the generate/export actions, and the
// preview status pane.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	bhelp "github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/instadash/internal/generation"
	"github.com/zjrosen/instadash/internal/ingest"
	"github.com/zjrosen/instadash/internal/log"
	"github.com/zjrosen/instadash/internal/metrics"
	"github.com/zjrosen/instadash/internal/preview"
	"github.com/zjrosen/instadash/internal/ui/editor"
	"github.com/zjrosen/instadash/internal/ui/help"
	"github.com/zjrosen/instadash/internal/ui/offline"
	"github.com/zjrosen/instadash/internal/validate"
	"github.com/zjrosen/instadash/internal/workflow"
)

// DefaultHealthInterval spaces background health probes.
const DefaultHealthInterval = 30 * time.Second

const healthProbeTimeout = 5 * time.Second

// jsonEditorMaxLines is the most lines bubbles' textarea holds. Longer
// documents are shown truncated and read-only; $EDITOR still edits them.
const jsonEditorMaxLines = 10000

// HealthChecker probes the generation service.
type HealthChecker interface {
	Health(ctx context.Context) (generation.Health, error)
}

// Config wires the model to its collaborators. Controller, Generator,
// Ingestor, Exporter, and Renderer are required.
type Config struct {
	Controller *workflow.Controller
	Generator  workflow.Generator
	Ingestor   *ingest.Ingestor
	Exporter   *preview.Exporter
	Renderer   *preview.Renderer

	// Health enables the status indicator and the offline screen.
	Health HealthChecker
	// Watcher reloads uploaded files when they change on disk.
	Watcher *ingest.Watcher
	Metrics *metrics.Metrics

	Endpoint string
	// PreviewURL is the local preview server; empty disables ctrl+p.
	PreviewURL string
	// OpenOnSuccess opens the preview after the first successful generation.
	OpenOnSuccess bool
	OpenBrowser   func(url string) error

	// Initial is loaded into the JSON editor on startup, as if uploaded.
	Initial *ingest.Result

	HealthInterval time.Duration
	Context        context.Context
}

type focusArea int

const (
	focusJSON focusArea = iota
	focusPrompt
	focusTemperature
	focusCount
)

type mode int

const (
	modeForm mode = iota
	modeUpload
	modeHelp
	modeNotice
	modeOffline
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusError
)

type status struct {
	text string
	kind statusKind
}

// Zone IDs for clickable regions.
const (
	zoneJSON     = "json"
	zonePrompt   = "prompt"
	zoneTemp     = "temperature"
	zoneGenerate = "generate"
	zoneUpload   = "upload"
	zoneExample  = "example"
	zoneCopy     = "copy"
	zoneDownload = "download"
	zonePreview  = "preview"
)

type (
	healthMsg struct {
		health    generation.Health
		err       error
		scheduled bool
	}
	healthTickMsg struct{}
	copiedMsg     struct{ err error }
	downloadedMsg struct {
		path string
		err  error
	}
	browserMsg struct{ err error }
	// watchedMsg wraps a message read from the file watcher.
	watchedMsg struct{ msg tea.Msg }
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx      context.Context
	ctrl     *workflow.Controller
	gen      workflow.Generator
	ingestor *ingest.Ingestor
	watcher  *ingest.Watcher
	exporter *preview.Exporter
	renderer *preview.Renderer
	checker  HealthChecker
	metrics  *metrics.Metrics

	initial        *ingest.Result
	endpoint       string
	previewURL     string
	openOnSuccess  bool
	openBrowser    func(string) error
	healthInterval time.Duration

	keys      keyMap
	zones     *zone.Manager
	jsonArea  textarea.Model
	prompt    textarea.Model
	pathInput textinput.Model
	spinner   spinner.Model
	statusBar bhelp.Model
	offline   offline.Model

	focus    focusArea
	mode     mode
	width    int
	height   int
	helpView string

	jsonSource   string
	jsonIssues   []validate.Issue
	jsonOverflow bool
	status     status
	notice     string

	health        *generation.Health
	healthErr     error
	healthChecked bool
	watching      bool
	openedPreview bool
}

// New creates the model from cfg.
func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	interval := cfg.HealthInterval
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	open := cfg.OpenBrowser
	if open == nil {
		open = preview.OpenBrowser
	}

	st := cfg.Controller.State()

	ja := textarea.New()
	ja.Placeholder = "{\n  \"report_title\": \"My Dashboard\",\n  \"data\": [...]\n}"
	ja.ShowLineNumbers = true
	ja.CharLimit = 0
	ja.MaxHeight = 0
	ja.SetValue(st.JSONText)
	ja.Focus()

	pa := textarea.New()
	pa.Placeholder = "Example: Design a sleek analytics dashboard with a dark theme. " +
		"Display key metrics as glowing cards with gradient borders..."
	pa.ShowLineNumbers = false
	pa.CharLimit = workflow.MaxPromptLength
	pa.SetValue(st.PromptText)
	pa.Blur()

	pi := textinput.New()
	pi.Prompt = "File: "
	pi.Placeholder = "/path/to/data.json"

	return Model{
		ctx:            ctx,
		ctrl:           cfg.Controller,
		gen:            cfg.Generator,
		ingestor:       cfg.Ingestor,
		watcher:        cfg.Watcher,
		exporter:       cfg.Exporter,
		renderer:       cfg.Renderer,
		checker:        cfg.Health,
		metrics:        cfg.Metrics,
		initial:        cfg.Initial,
		endpoint:       cfg.Endpoint,
		previewURL:     cfg.PreviewURL,
		openOnSuccess:  cfg.OpenOnSuccess,
		openBrowser:    open,
		healthInterval: interval,
		keys:           defaultKeyMap(),
		zones:          zone.New(),
		jsonArea:       ja,
		prompt:         pa,
		pathInput:      pi,
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		statusBar:      bhelp.New(),
	}
}

// Init starts the cursor blink, the first health probe, and loads the
// initial file if there is one.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.checkHealth(true)}
	if m.initial != nil {
		res := *m.initial
		cmds = append(cmds, func() tea.Msg { return ingest.LoadedMsg{Result: res} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.offline = m.offline.SetSize(msg.Width, msg.Height)
		m.layout()
		if m.mode == modeHelp {
			m.helpView = help.Overlay(help.Markdown(helpIntro, m.keys.sections()), m.width, m.height)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case healthMsg:
		return m.handleHealth(msg)

	case healthTickMsg:
		return m, m.checkHealth(true)

	case offline.RetryMsg:
		if hc, ok := m.checker.(interface{ InvalidateHealth() }); ok {
			hc.InvalidateHealth()
		}
		return m, m.checkHealth(false)

	case offline.DismissMsg:
		m.mode = modeForm
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Phase() != workflow.PhasePending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case workflow.ResultMsg:
		return m.handleResult(msg)

	case workflow.BannerExpiredMsg:
		m.ctrl.ExpireBanner(msg.Token)
		return m, nil

	case ingest.LoadedMsg:
		return m.handleLoaded(msg.Result)

	case ingest.FailedMsg:
		m.metrics.ObserveIngestion("file", msg.Err)
		m.setError(ingest.Message(msg.Err))
		return m, nil

	case watchedMsg:
		m.watching = false
		next, cmd := m.Update(msg.msg)
		nm := next.(Model)
		wait := nm.waitWatch()
		return nm, tea.Batch(cmd, wait)

	case editor.ExecMsg:
		return m, msg.ExecCmd()

	case editor.FinishedMsg:
		return m.handleEdited(msg)

	case copiedMsg:
		m.notice = preview.CopyMessage(msg.err)
		m.mode = modeNotice
		return m, nil

	case downloadedMsg:
		if msg.err != nil {
			m.setError("Could not save dashboard: " + msg.err.Error())
		} else {
			m.setInfo("Saved " + msg.path)
		}
		return m, nil

	case browserMsg:
		if msg.err != nil {
			m.setError("Could not open browser: " + msg.err.Error())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && m.mode != modeOffline {
		return m, tea.Quit
	}

	switch m.mode {
	case modeOffline:
		var cmd tea.Cmd
		m.offline, cmd = m.offline.Update(msg)
		return m, cmd

	case modeHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Close) {
			m.mode = modeForm
		}
		return m, nil

	case modeNotice:
		m.mode = modeForm
		m.notice = ""
		return m, nil

	case modeUpload:
		return m.handleUploadKey(msg)
	}

	switch {
	case msg.String() == "f1" || (msg.String() == "?" && m.focus == focusTemperature):
		m.mode = modeHelp
		m.helpView = help.Overlay(help.Markdown(helpIntro, m.keys.sections()), m.width, m.height)
		return m, nil
	case key.Matches(msg, m.keys.Generate):
		cmd := m.generate()
		return m, cmd
	case key.Matches(msg, m.keys.Upload):
		cmd := m.startUpload()
		return m, cmd
	case key.Matches(msg, m.keys.Example):
		m.loadExample()
		return m, nil
	case key.Matches(msg, m.keys.Editor):
		cmd := m.openEditor()
		return m, cmd
	case key.Matches(msg, m.keys.Copy):
		cmd := m.copyHTML()
		return m, cmd
	case key.Matches(msg, m.keys.Download):
		cmd := m.download()
		return m, cmd
	case key.Matches(msg, m.keys.Preview):
		cmd := m.openPreview()
		return m, cmd
	case key.Matches(msg, m.keys.NextFocus):
		cmd := m.setFocus((m.focus + 1) % focusCount)
		return m, cmd
	case key.Matches(msg, m.keys.PrevFocus):
		cmd := m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, cmd
	}

	switch m.focus {
	case focusTemperature:
		switch {
		case key.Matches(msg, m.keys.TempDown):
			m.ctrl.AdjustTemperature(-1)
		case key.Matches(msg, m.keys.TempUp):
			m.ctrl.AdjustTemperature(1)
		case msg.Type == tea.KeyEnter:
			cmd := m.generate()
			return m, cmd
		}
		return m, nil

	case focusJSON:
		if msg.Paste {
			if paths := ingest.ParseDroppedPaths(string(msg.Runes)); paths != nil {
				cmd := m.drop(paths)
				return m, cmd
			}
		}
		before := m.jsonArea.Value()
		var cmd tea.Cmd
		m.jsonArea, cmd = m.jsonArea.Update(msg)
		if m.jsonArea.Value() == before {
			return m, cmd
		}
		if m.jsonOverflow {
			m.jsonArea.SetValue(before)
			m.setError(fmt.Sprintf("JSON over %d lines is read-only here; press ctrl+e to edit it in $EDITOR", jsonEditorMaxLines))
			return m, cmd
		}
		m.syncJSON()
		return m, cmd

	case focusPrompt:
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		m.syncPrompt()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeForm
		m.pathInput.Blur()
		cmd := m.setFocus(m.focus)
		return m, cmd
	case tea.KeyEnter:
		path := strings.TrimSpace(m.pathInput.Value())
		m.mode = modeForm
		m.pathInput.Blur()
		focusCmd := m.setFocus(m.focus)
		if path == "" {
			return m, focusCmd
		}
		if dropped := ingest.ParseDroppedPaths(path); len(dropped) > 0 {
			path = dropped[0]
		} else if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		cmd, err := m.ingestor.Upload([]ingest.File{ingest.FileFromPath(path)})
		if err != nil {
			m.metrics.ObserveIngestion(ingest.SourceUpload.String(), err)
			m.setError(ingest.Message(err))
			return m, focusCmd
		}
		m.setInfo("Reading " + filepath.Base(path) + "...")
		return m, tea.Batch(focusCmd, cmd)
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeForm || msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	switch {
	case m.zones.Get(zoneGenerate).InBounds(msg):
		cmd := m.generate()
		return m, cmd
	case m.zones.Get(zoneUpload).InBounds(msg):
		cmd := m.startUpload()
		return m, cmd
	case m.zones.Get(zoneExample).InBounds(msg):
		m.loadExample()
		return m, nil
	case m.zones.Get(zoneCopy).InBounds(msg):
		cmd := m.copyHTML()
		return m, cmd
	case m.zones.Get(zoneDownload).InBounds(msg):
		cmd := m.download()
		return m, cmd
	case m.zones.Get(zonePreview).InBounds(msg):
		cmd := m.openPreview()
		return m, cmd
	case m.zones.Get(zoneJSON).InBounds(msg):
		cmd := m.setFocus(focusJSON)
		return m, cmd
	case m.zones.Get(zonePrompt).InBounds(msg):
		cmd := m.setFocus(focusPrompt)
		return m, cmd
	case m.zones.Get(zoneTemp).InBounds(msg):
		cmd := m.setFocus(focusTemperature)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleHealth(msg healthMsg) (tea.Model, tea.Cmd) {
	first := !m.healthChecked
	m.healthChecked = true
	m.healthErr = msg.err
	if msg.err == nil {
		h := msg.health
		m.health = &h
	}

	switch {
	case msg.err != nil && first:
		log.Warn(log.CatUI, "generation service unreachable", "endpoint", m.endpoint, "error", msg.err.Error())
		m.offline = offline.New(m.endpoint, msg.err.Error()).SetSize(m.width, m.height)
		m.mode = modeOffline
	case m.mode == modeOffline && msg.err != nil:
		m.offline = m.offline.SetReason(msg.err.Error())
	case m.mode == modeOffline:
		m.mode = modeForm
	}

	if !msg.scheduled {
		return m, nil
	}
	return m, tea.Tick(m.healthInterval, func(time.Time) tea.Msg { return healthTickMsg{} })
}

func (m Model) handleResult(msg workflow.ResultMsg) (tea.Model, tea.Cmd) {
	token, err := m.ctrl.Complete(msg.HTML, msg.Err)
	if err != nil {
		return m, nil
	}
	st := m.ctrl.State()
	m.renderer.Sync(st.ArtifactHTML)

	cmds := []tea.Cmd{m.ctrl.BannerCmd(token)}
	if msg.Err == nil && m.openOnSuccess && !m.openedPreview && m.previewURL != "" {
		m.openedPreview = true
		cmds = append(cmds, m.openPreview())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleLoaded(res ingest.Result) (tea.Model, tea.Cmd) {
	m.metrics.ObserveIngestion(res.Source.String(), nil)
	m.setJSONText(res.Text)
	m.ctrl.SetJSON(res.Text)
	m.jsonIssues = res.Issues
	m.jsonSource = filepath.Base(res.Path)
	m.setInfo(fmt.Sprintf("Loaded %s (%s)", m.jsonSource, res.Source))

	if m.watcher == nil || res.Source == ingest.SourceWatch {
		return m, nil
	}
	if err := m.watcher.Watch(ingest.FileFromPath(res.Path)); err != nil {
		log.ErrorErr(log.CatIngest, "cannot watch uploaded file", err, "path", res.Path)
		return m, nil
	}
	cmd := m.waitWatch()
	return m, cmd
}

func (m Model) handleEdited(msg editor.FinishedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.setError("Editor failed: " + msg.Err.Error())
		return m, nil
	}
	switch msg.Target {
	case editor.TargetJSON:
		m.setJSONText(msg.Content)
		m.jsonIssues = m.ingestor.Edit(msg.Content).Issues
		m.jsonSource = ""
		m.ctrl.SetJSON(msg.Content)
	case editor.TargetPrompt:
		m.prompt.SetValue(msg.Content)
		m.syncPrompt()
	}
	return m, nil
}

// waitWatch arms a single read from the watcher.
func (m *Model) waitWatch() tea.Cmd {
	if m.watcher == nil || m.watching || m.watcher.Watching() == "" {
		return nil
	}
	m.watching = true
	wait := m.watcher.WaitCmd()
	return func() tea.Msg { return watchedMsg{msg: wait()} }
}

func (m *Model) generate() tea.Cmd {
	if !m.ctrl.CanGenerate() {
		return nil
	}
	req, err := m.ctrl.Begin()
	if err != nil {
		var verr *workflow.ValidationError
		if !errors.As(err, &verr) {
			log.Debug(log.CatUI, "generate ignored", "reason", err.Error())
		}
		return nil
	}
	m.status = status{}
	return tea.Batch(m.spinner.Tick, workflow.GenerateCmd(m.ctx, m.gen, req))
}

func (m *Model) startUpload() tea.Cmd {
	m.mode = modeUpload
	m.jsonArea.Blur()
	m.prompt.Blur()
	m.pathInput.SetValue("")
	return m.pathInput.Focus()
}

func (m *Model) drop(paths []string) tea.Cmd {
	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		files = append(files, ingest.FileFromPath(p))
	}
	cmd, err := m.ingestor.Drop(files)
	if err != nil {
		m.metrics.ObserveIngestion(ingest.SourceDrop.String(), err)
		m.setError(ingest.Message(err))
		return nil
	}
	m.setInfo("Reading " + files[0].Name() + "...")
	return cmd
}

func (m *Model) loadExample() {
	if !m.ctrl.LoadExample() {
		return
	}
	st := m.ctrl.State()
	m.setJSONText(st.JSONText)
	m.prompt.SetValue(st.PromptText)
	m.jsonIssues = m.ingestor.Edit(st.JSONText).Issues
	m.jsonSource = "example"
	m.setInfo("Example data loaded")
}

func (m *Model) openEditor() tea.Cmd {
	switch m.focus {
	case focusJSON:
		return editor.OpenCmd(editor.TargetJSON, m.ctrl.State().JSONText)
	case focusPrompt:
		return editor.OpenCmd(editor.TargetPrompt, m.prompt.Value())
	}
	return nil
}

func (m *Model) copyHTML() tea.Cmd {
	st := m.ctrl.State()
	if !st.CanExport() {
		return nil
	}
	exp := m.exporter
	return func() tea.Msg { return copiedMsg{err: exp.Copy(st)} }
}

func (m *Model) download() tea.Cmd {
	st := m.ctrl.State()
	if !st.CanExport() {
		return nil
	}
	exp := m.exporter
	return func() tea.Msg {
		path, err := exp.Download(st)
		return downloadedMsg{path: path, err: err}
	}
}

func (m *Model) openPreview() tea.Cmd {
	if m.previewURL == "" {
		m.setError("The preview server is disabled")
		return nil
	}
	url, open := m.previewURL, m.openBrowser
	return func() tea.Msg { return browserMsg{err: open(url)} }
}

func (m Model) checkHealth(scheduled bool) tea.Cmd {
	if m.checker == nil {
		return nil
	}
	ctx, checker := m.ctx, m.checker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		defer cancel()
		h, err := checker.Health(ctx)
		return healthMsg{health: h, err: err, scheduled: scheduled}
	}
}

func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	m.jsonArea.Blur()
	m.prompt.Blur()
	switch f {
	case focusJSON:
		return m.jsonArea.Focus()
	case focusPrompt:
		return m.prompt.Focus()
	}
	return nil
}

// setJSONText replaces the editor contents. Text the editor cannot hold is
// shown truncated and marked read-only; the controller keeps the full text.
func (m *Model) setJSONText(text string) {
	m.jsonArea.SetValue(text)
	m.jsonOverflow = strings.Count(text, "\n") >= jsonEditorMaxLines
}

func (m *Model) syncJSON() {
	text := m.jsonArea.Value()
	if text == m.ctrl.State().JSONText {
		return
	}
	res := m.ingestor.Edit(text)
	m.jsonIssues = res.Issues
	m.jsonSource = ""
	m.ctrl.SetJSON(text)
}

func (m *Model) syncPrompt() {
	text := m.prompt.Value()
	m.ctrl.SetPrompt(text)
	if stored := m.ctrl.State().PromptText; stored != text {
		m.prompt.SetValue(stored)
	}
}

func (m *Model) setInfo(s string)  { m.status = status{text: s, kind: statusInfo} }
func (m *Model) setError(s string) { m.status = status{text: s, kind: statusError} }

// Close releases the watcher and the mouse zone worker.
func (m Model) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	m.zones.Close()
}
