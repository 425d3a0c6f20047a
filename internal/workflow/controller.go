// Package workflow owns the generation lifecycle: it gates submissions on
// input validity, enforces a single in-flight request, and applies results
// to one authoritative State.
package workflow

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rivo/uniseg"

	"github.com/zjrosen/instadash/internal/generation"
	"github.com/zjrosen/instadash/internal/log"
	"github.com/zjrosen/instadash/internal/validate"
)

const (
	// MaxPromptLength is the prompt bound in user-perceived characters.
	MaxPromptLength = 500

	// BannerDuration is how long the success banner stays up.
	BannerDuration = 3 * time.Second
)

// Generator sends one generation request.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (string, error)
}

// Clock interface for time operations (allows testing).
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Attempt describes one submission, reported to Recorders.
type Attempt struct {
	Number     int
	Request    generation.Request
	Outcome    string
	Message    string
	HTMLBytes  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed is the time between submission and result.
func (a Attempt) Elapsed() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// OutcomeValidation marks attempts rejected before any request was sent.
const OutcomeValidation = "validation"

// Recorder observes attempts. Calls are made after the controller's lock is
// released, in transition order.
type Recorder interface {
	AttemptStarted(a Attempt)
	AttemptFinished(a Attempt)
}

// Config configures a Controller.
type Config struct {
	// Temperature is the initial temperature. Zero means DefaultTemperature;
	// use SetTemperature(0) for a deterministic start.
	Temperature float64

	// Prompt pre-fills the prompt field.
	Prompt string

	// BannerDuration overrides the success banner window.
	BannerDuration time.Duration

	Clock     Clock
	Recorders []Recorder
}

// BannerExpiredMsg asks the controller to clear the banner armed with Token.
type BannerExpiredMsg struct {
	Token uint64
}

// Controller is the single owner of workflow State. All methods are safe
// for concurrent use; mutations are serialized.
type Controller struct {
	mu        sync.RWMutex
	state     State
	bannerSeq uint64
	current   Attempt

	bannerDuration time.Duration
	clock          Clock
	recorders      []Recorder
}

// New creates a Controller in PhaseIdle.
func New(cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	banner := cfg.BannerDuration
	if banner <= 0 {
		banner = BannerDuration
	}

	c := &Controller{
		bannerDuration: banner,
		clock:          clock,
		recorders:      cfg.Recorders,
	}
	c.state = State{
		PromptText:  truncatePrompt(cfg.Prompt),
		Temperature: ClampTemperature(temp),
		Phase:       PhaseIdle,
		UpdatedAt:   clock.Now(),
	}
	return c
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.ArtifactHTML = copyPtr(c.state.ArtifactHTML)
	s.ErrorMessage = copyPtr(c.state.ErrorMessage)
	return s
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Phase
}

// SetJSON replaces the JSON text and reports its validity. Invalid text is
// stored as-is.
func (c *Controller) SetJSON(text string) validate.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.JSONText = text
	c.touch()
	return validate.ValidateJSON(text)
}

// SetPrompt replaces the prompt, truncated to MaxPromptLength characters.
func (c *Controller) SetPrompt(text string) validate.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.PromptText = truncatePrompt(text)
	c.touch()
	return validate.ValidatePrompt(c.state.PromptText)
}

// SetTemperature stores v clamped and snapped to the step grid, and returns
// the stored value.
func (c *Controller) SetTemperature(v float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Temperature = ClampTemperature(v)
	c.touch()
	return c.state.Temperature
}

// AdjustTemperature moves the temperature by steps increments.
func (c *Controller) AdjustTemperature(steps int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Temperature = ClampTemperature(c.state.Temperature + float64(steps)*TemperatureStep)
	c.touch()
	return c.state.Temperature
}

// LoadExample fills both fields with the sample report and clears any error.
// It is ignored while a request is pending.
func (c *Controller) LoadExample() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhasePending {
		return false
	}
	c.state.JSONText = ExampleJSON
	c.state.PromptText = truncatePrompt(ExamplePrompt)
	c.state.ErrorMessage = nil
	if c.state.Phase == PhaseFailed {
		c.state.Phase = PhaseIdle
	}
	c.touch()
	return true
}

// CanGenerate reports whether the generate affordance is enabled: nothing
// is pending and both fields are non-empty. JSON validity is not required.
func (c *Controller) CanGenerate() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canGenerate()
}

func (c *Controller) canGenerate() bool {
	return c.state.Phase != PhasePending && c.state.JSONText != "" && c.state.PromptText != ""
}

// Begin starts an attempt. It validates the inputs and either moves to
// PhasePending, returning the request to send, or to PhaseFailed with a
// *ValidationError. Empty fields fail validation like any other bad input;
// callers gate the affordance with CanGenerate. While pending it returns
// ErrInFlight and changes nothing.
func (c *Controller) Begin() (generation.Request, error) {
	c.mu.Lock()

	if c.state.Phase == PhasePending {
		c.mu.Unlock()
		return generation.Request{}, ErrInFlight
	}
	now := c.clock.Now()
	c.state.Phase = PhaseValidating
	c.state.ErrorMessage = nil
	c.state.SuccessBanner = false

	verr := &ValidationError{
		InvalidJSON: !validate.IsParsableJSON(c.state.JSONText),
		EmptyPrompt: !validate.ValidatePrompt(c.state.PromptText).Valid,
	}
	req := generation.Request{
		JSONData:    c.state.JSONText,
		UserPrompt:  c.state.PromptText,
		Temperature: c.state.Temperature,
	}

	if verr.InvalidJSON || verr.EmptyPrompt {
		c.state.Phase = PhaseFailed
		c.state.ErrorMessage = strPtr(verr.Error())
		c.touch()
		attempt := Attempt{
			Request:    req,
			Outcome:    OutcomeValidation,
			Message:    verr.Error(),
			StartedAt:  now,
			FinishedAt: now,
		}
		c.mu.Unlock()

		log.Debug(log.CatWorkflow, "validation failed",
			"invalid_json", verr.InvalidJSON,
			"empty_prompt", verr.EmptyPrompt)
		c.notifyFinished(attempt)
		return generation.Request{}, verr
	}

	c.state.Phase = PhasePending
	c.state.Attempts++
	c.touch()
	c.current = Attempt{Number: c.state.Attempts, Request: req, StartedAt: now}
	attempt := c.current
	c.mu.Unlock()

	log.Info(log.CatWorkflow, "generation started",
		"attempt", attempt.Number,
		"json_bytes", len(req.JSONData),
		"temperature", req.Temperature)
	for _, r := range c.recorders {
		r.AttemptStarted(attempt)
	}
	return req, nil
}

// Complete applies the result of the pending request. On success it stores
// html, clears the error, arms the banner, and returns the banner token. On
// failure it records the message and leaves any earlier artifact in place.
func (c *Controller) Complete(html string, genErr error) (uint64, error) {
	c.mu.Lock()

	if c.state.Phase != PhasePending {
		c.mu.Unlock()
		return 0, ErrNotPending
	}

	attempt := c.current
	attempt.FinishedAt = c.clock.Now()
	attempt.Outcome = generation.Outcome(genErr)

	var token uint64
	if genErr == nil {
		c.state.Phase = PhaseSucceeded
		c.state.ArtifactHTML = strPtr(html)
		c.state.ErrorMessage = nil
		c.state.SuccessBanner = true
		c.bannerSeq++
		token = c.bannerSeq
		attempt.HTMLBytes = len(html)
	} else {
		msg := generation.Message(genErr)
		c.state.Phase = PhaseFailed
		c.state.ErrorMessage = strPtr(msg)
		attempt.Message = msg
	}
	c.touch()
	c.mu.Unlock()

	if genErr != nil {
		log.ErrorErr(log.CatWorkflow, "generation failed", genErr, "attempt", attempt.Number)
	} else {
		log.Info(log.CatWorkflow, "generation succeeded",
			"attempt", attempt.Number,
			"html_bytes", attempt.HTMLBytes,
			"elapsed", attempt.Elapsed().String())
	}
	c.notifyFinished(attempt)
	return token, nil
}

// ExpireBanner clears the success banner if token is still current.
// Stale tokens from earlier successes are ignored.
func (c *Controller) ExpireBanner(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == 0 || token != c.bannerSeq || !c.state.SuccessBanner {
		return false
	}
	c.state.SuccessBanner = false
	c.touch()
	return true
}

// BannerCmd schedules expiry of the banner armed with token.
func (c *Controller) BannerCmd(token uint64) tea.Cmd {
	if token == 0 {
		return nil
	}
	return tea.Tick(c.bannerDuration, func(time.Time) tea.Msg {
		return BannerExpiredMsg{Token: token}
	})
}

// GenerateCmd sends req with gen and reports back with a ResultMsg.
func GenerateCmd(ctx context.Context, gen Generator, req generation.Request) tea.Cmd {
	return func() tea.Msg {
		html, err := gen.Generate(ctx, req)
		return ResultMsg{HTML: html, Err: err}
	}
}

// ResultMsg carries the outcome of GenerateCmd.
type ResultMsg struct {
	HTML string
	Err  error
}

// Run performs one full cycle synchronously: Begin, Generate, Complete.
// The banner is left armed; headless callers have no use for it.
func (c *Controller) Run(ctx context.Context, gen Generator) (string, error) {
	req, err := c.Begin()
	if err != nil {
		return "", err
	}
	html, genErr := gen.Generate(ctx, req)
	if _, err := c.Complete(html, genErr); err != nil {
		return "", err
	}
	if genErr != nil {
		return "", genErr
	}
	return html, nil
}

func (c *Controller) notifyFinished(a Attempt) {
	for _, r := range c.recorders {
		r.AttemptFinished(a)
	}
}

func (c *Controller) touch() {
	c.state.UpdatedAt = c.clock.Now()
}

func truncatePrompt(s string) string {
	if uniseg.GraphemeClusterCount(s) <= MaxPromptLength {
		return s
	}
	var b []byte
	n := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() && n < MaxPromptLength {
		b = append(b, g.Bytes()...)
		n++
	}
	return string(b)
}

// PromptLength returns the prompt length in user-perceived characters.
func PromptLength(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
