// Package generation talks to the remote dashboard generation service.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/instadash/internal/log"
)

const (
	// DefaultEndpoint is where the reference service listens.
	DefaultEndpoint = "http://localhost:8000/generate-dashboard"

	// DefaultTimeout bounds a single request end to end.
	DefaultTimeout = 120 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20

	tracerName = "github.com/zjrosen/instadash/internal/generation"
)

// Request is the wire body of a generation call.
type Request struct {
	JSONData    string  `json:"json_data"`
	UserPrompt  string  `json:"user_prompt"`
	Temperature float64 `json:"temperature"`
}

// response covers every documented response shape. Pointers distinguish
// absent fields from zero values.
type response struct {
	Success     *bool          `json:"success"`
	HTMLContent *string        `json:"html_content"`
	Error       *string        `json:"error"`
	Detail      *string        `json:"detail"`
	Metadata    map[string]any `json:"metadata"`
}

// Config configures a Client.
type Config struct {
	// Endpoint is the full URL of the generate route.
	Endpoint string

	// HealthURL is probed by Health. Derived from Endpoint when empty.
	HealthURL string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is used for all requests. A client with Timeout is built when nil.
	HTTPClient *http.Client

	// HealthTTL is how long a health probe result is reused.
	HealthTTL time.Duration
}

// Client sends generation requests. It never retries.
type Client struct {
	endpoint  string
	healthURL string
	http      *http.Client
	health    *cache.Cache
	tracer    trace.Tracer
}

// NewClient creates a Client, applying defaults to cfg.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HealthTTL <= 0 {
		cfg.HealthTTL = DefaultHealthTTL
	}
	if cfg.HealthURL == "" {
		cfg.HealthURL = deriveHealthURL(cfg.Endpoint)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint:  cfg.Endpoint,
		healthURL: cfg.HealthURL,
		http:      httpClient,
		health:    cache.New(cfg.HealthTTL, 2*cfg.HealthTTL),
		tracer:    otel.Tracer(tracerName),
	}
}

// Endpoint returns the generate URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Generate sends req and returns the generated HTML. Errors are one of
// *TransportError, *ServiceError, or *DecodeError.
//
// The caller must have validated req: JSONData must parse and UserPrompt
// must be non-blank.
func (c *Client) Generate(ctx context.Context, req Request) (html string, err error) {
	ctx, span := c.tracer.Start(ctx, "generation.Generate", trace.WithAttributes(
		attribute.String("http.url", c.endpoint),
		attribute.Int("instadash.json_bytes", len(req.JSONData)),
		attribute.Int("instadash.prompt_bytes", len(req.UserPrompt)),
		attribute.Float64("instadash.temperature", req.Temperature),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, Outcome(err))
		} else {
			span.SetAttributes(attribute.Int("instadash.html_bytes", len(html)))
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	body, err := encodeRequest(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.ErrorErr(log.CatHTTP, "generation request failed", err, "endpoint", c.endpoint)
		return "", &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	log.Debug(log.CatHTTP, "generation response",
		"status", resp.StatusCode,
		"elapsed", time.Since(start).String())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{Err: err}
	}

	return decodeResponse(resp.StatusCode, raw)
}

// encodeRequest marshals req without HTML escaping so the body carries the
// user's text verbatim.
func encodeRequest(req Request) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeResponse(status int, raw []byte) (string, error) {
	ok := status >= 200 && status < 300

	var r response
	decodeErr := json.Unmarshal(raw, &r)

	if !ok {
		msg := FallbackMessage
		if decodeErr == nil && r.Detail != nil && *r.Detail != "" {
			msg = *r.Detail
		}
		log.Warn(log.CatHTTP, "generation service error", "status", status, "message", msg)
		return "", &ServiceError{Status: status, Message: msg}
	}

	if decodeErr != nil {
		return "", &DecodeError{Status: status, Reason: "body is not a JSON object", Err: decodeErr}
	}
	if r.Success == nil {
		return "", &DecodeError{Status: status, Reason: "missing success field"}
	}
	if !*r.Success {
		msg := FallbackMessage
		if r.Error != nil && *r.Error != "" {
			msg = *r.Error
		}
		log.Warn(log.CatHTTP, "generation reported failure", "status", status, "message", msg)
		return "", &ServiceError{Status: status, Message: msg}
	}
	if r.HTMLContent == nil {
		return "", &DecodeError{Status: status, Reason: "success without html_content"}
	}
	return *r.HTMLContent, nil
}
