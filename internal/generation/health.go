package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/zjrosen/instadash/internal/log"
)

// DefaultHealthTTL is how long a probe result is reused.
const DefaultHealthTTL = 30 * time.Second

const healthKey = "health"

// Health is the service's /health payload.
type Health struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	GroqConfigured bool   `json:"groq_configured"`
	CheckedAt      time.Time
}

// Healthy reports whether the service said it is ready to generate.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// Health probes the service. Successful probes are cached for the
// configured TTL; failures are not cached.
func (c *Client) Health(ctx context.Context) (Health, error) {
	if cached, ok := c.health.Get(healthKey); ok {
		return cached.(Health), nil
	}

	ctx, span := c.tracer.Start(ctx, "generation.Health")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return Health{}, &TransportError{Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug(log.CatHTTP, "health probe failed", "url", c.healthURL, "error", err)
		return Health{}, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Health{}, &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Health{}, &ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("health check returned %d", resp.StatusCode)}
	}

	var h Health
	if err := json.Unmarshal(raw, &h); err != nil {
		return Health{}, &DecodeError{Status: resp.StatusCode, Reason: "invalid health payload", Err: err}
	}
	h.CheckedAt = time.Now()

	c.health.Set(healthKey, h, cache.DefaultExpiration)
	return h, nil
}

// InvalidateHealth drops the cached probe result.
func (c *Client) InvalidateHealth() {
	c.health.Delete(healthKey)
}

// deriveHealthURL replaces the endpoint's path with /health.
func deriveHealthURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	u.Path = "/health"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
