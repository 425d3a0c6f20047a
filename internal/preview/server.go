package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/zjrosen/instadash/internal/log"
	"github.com/zjrosen/instadash/internal/workflow"
)

// SandboxPolicy keeps the artifact's origin but otherwise applies the full
// sandbox, so scripts inside it never run.
const SandboxPolicy = "sandbox allow-same-origin"

// DefaultAddr binds an ephemeral loopback port.
const DefaultAddr = "127.0.0.1:0"

// StateSource exposes the workflow state to HTTP handlers.
type StateSource interface {
	State() workflow.State
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr     string
	Renderer *Renderer
	State    StateSource
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Now     func() time.Time
}

// Server serves the preview shell, the sandboxed artifact, and a small
// JSON API on the loopback interface.
type Server struct {
	addr     string
	renderer *Renderer
	state    StateSource
	metrics  http.Handler
	now      func() time.Time

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	baseURL  string
}

// NewServer creates a Server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Renderer == nil {
		cfg.Renderer = NewRenderer()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		addr:     cfg.Addr,
		renderer: cfg.Renderer,
		state:    cfg.State,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
}

// ArtifactResponse is returned by GET /api/artifact.
type ArtifactResponse struct {
	Revision    int    `json:"revision"`
	HasArtifact bool   `json:"has_artifact"`
	Title       string `json:"title,omitempty"`
	Bytes       int    `json:"bytes"`
	Phase       string `json:"phase,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// APIError is the error envelope for every JSON endpoint.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.Health)
	mux.HandleFunc("GET /api/artifact", s.ArtifactInfo)
	mux.HandleFunc("GET /artifact", s.Artifact)
	mux.HandleFunc("GET /download", s.Download)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.HandleFunc("GET /{$}", s.Shell)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.baseURL = "http://" + ln.Addr().String()
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := s.srv
	log.SafeGo("preview.serve", func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorErr(log.CatPreview, "preview server stopped", err)
		}
	})
	log.Info(log.CatPreview, "preview server listening", "url", s.baseURL)
	return nil
}

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.baseURL = ""
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Health reports liveness.
// GET /api/health
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ArtifactInfo describes the frame on display. The shell polls it to know
// when to reload.
// GET /api/artifact
func (s *Server) ArtifactInfo(w http.ResponseWriter, _ *http.Request) {
	frame, shown := s.renderer.Frame()
	resp := ArtifactResponse{
		Revision:    frame.Revision,
		HasArtifact: shown,
		Title:       frame.Summary.Title,
		Bytes:       frame.Summary.Bytes,
	}
	if s.state != nil {
		st := s.state.State()
		resp.Phase = st.Phase.String()
		resp.Error = st.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// Artifact serves the raw artifact under a sandboxing CSP.
// GET /artifact
func (s *Server) Artifact(w http.ResponseWriter, _ *http.Request) {
	frame, shown := s.renderer.Frame()
	if !shown {
		s.writeError(w, http.StatusNotFound, "no_artifact", "No dashboard has been generated yet", "")
		return
	}
	setArtifactHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Artifact-Revision", strconv.Itoa(frame.Revision))
	_, _ = w.Write([]byte(frame.HTML))
}

// Download serves the artifact as an attachment.
// GET /download
func (s *Server) Download(w http.ResponseWriter, _ *http.Request) {
	frame, shown := s.renderer.Frame()
	if !shown {
		s.writeError(w, http.StatusNotFound, "no_artifact", "No dashboard has been generated yet", "")
		return
	}
	if s.state != nil && s.state.State().Phase == workflow.PhasePending {
		s.writeError(w, http.StatusConflict, "pending", "A generation is in progress", "")
		return
	}
	setArtifactHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadFilename(s.now())))
	_, _ = w.Write([]byte(frame.HTML))
}

// Shell serves the page that frames the artifact.
// GET /
func (s *Server) Shell(w http.ResponseWriter, _ *http.Request) {
	frame, shown := s.renderer.Frame()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'unsafe-inline' 'self'; style-src 'unsafe-inline'; frame-src 'self'")
	err := shellTemplate.Execute(w, shellData{
		Revision: frame.Revision,
		Shown:    shown,
		Title:    frame.Summary.Title,
	})
	if err != nil {
		log.ErrorErr(log.CatPreview, "rendering shell", err)
	}
}

func setArtifactHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Security-Policy", SandboxPolicy)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-store")
	h.Set("Referrer-Policy", "no-referrer")
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(log.CatPreview, "Failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response in the standard APIError format.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message, details string) {
	s.writeJSON(w, status, APIError{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

type shellData struct {
	Revision int
	Shown    bool
	Title    string
}

var shellTemplate = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Title}}{{.Title}} · {{end}}instadash preview</title>
<style>
  html, body { margin: 0; height: 100%; background: #0f1117; color: #c9d1d9; font-family: sans-serif; }
  header { display: flex; gap: 1rem; align-items: center; padding: .5rem 1rem; border-bottom: 1px solid #30363d; }
  header a { color: #58a6ff; }
  iframe { border: 0; width: 100%; height: calc(100% - 2.6rem); background: #fff; }
  .empty { padding: 3rem; text-align: center; color: #8b949e; }
</style>
</head>
<body>
<header>
  <strong>instadash</strong>
  <span id="status">{{if .Shown}}revision {{.Revision}}{{else}}waiting for a dashboard{{end}}</span>
  {{if .Shown}}<a href="/download">Download</a>{{end}}
</header>
{{if .Shown}}
<iframe id="artifact" sandbox="allow-same-origin" src="/artifact?rev={{.Revision}}" title="Dashboard preview"></iframe>
{{else}}
<div class="empty">Generate a dashboard in the terminal to see it here.</div>
{{end}}
<script>
  const shown = {{.Revision}};
  setInterval(async () => {
    try {
      const res = await fetch('/api/artifact', {cache: 'no-store'});
      const info = await res.json();
      if (info.revision !== shown) location.reload();
    } catch (e) {}
  }, 1500);
</script>
</body>
</html>
`))
