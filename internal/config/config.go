// Package config provides configuration types and defaults for instadash.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// AppName names the config directory, env prefix, and config file.
const AppName = "instadash"

// Config holds all configuration options for instadash.
type Config struct {
	Service  ServiceConfig  `mapstructure:"service" yaml:"service"`
	Ingest   IngestConfig   `mapstructure:"ingest" yaml:"ingest"`
	Preview  PreviewConfig  `mapstructure:"preview" yaml:"preview"`
	Export   ExportConfig   `mapstructure:"export" yaml:"export"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
	Theme    ThemeConfig    `mapstructure:"theme" yaml:"theme"`
}

// ServiceConfig points at the dashboard generation service.
type ServiceConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// HealthPath overrides the probe path; empty derives /health from Endpoint.
	HealthPath string `mapstructure:"health_path" yaml:"health_path"`
}

// IngestConfig controls JSON file loading.
type IngestConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size" yaml:"max_file_size"`
	// Watch reloads the last uploaded file when it changes on disk.
	Watch      bool   `mapstructure:"watch" yaml:"watch"`
	SchemaPath string `mapstructure:"schema_path" yaml:"schema_path"`
}

// PreviewConfig controls the local sandboxed preview server.
type PreviewConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	OpenBrowser bool   `mapstructure:"open_browser" yaml:"open_browser"`
}

// ExportConfig controls where downloads are written.
type ExportConfig struct {
	DownloadDir string `mapstructure:"download_dir" yaml:"download_dir"`
}

// HistoryConfig controls the attempt history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultsConfig seeds the form on startup.
type DefaultsConfig struct {
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	Prompt      string  `mapstructure:"prompt" yaml:"prompt"`
}

// ThemeConfig holds all theme customization options.
type ThemeConfig struct {
	// Preset loads a built-in theme as the base (optional).
	// Valid values: "default", "dracula", "nord", "high-contrast"
	Preset string `mapstructure:"preset" yaml:"preset"`

	// Mode forces light or dark mode. If empty, uses terminal detection.
	// Valid values: "light", "dark", ""
	Mode string `mapstructure:"mode" yaml:"mode"`

	// Colors allows overriding individual color tokens.
	// Keys use dot notation: "text.primary", "status.error", etc.
	// Colors is filled by Load, which flattens viper's nested keys.
	Colors map[string]string `mapstructure:"-" yaml:"colors,omitempty"`
}

// Tracing exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

var (
	validExporters = []string{ExporterStdout, ExporterOTLP}
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validModes     = []string{"", "light", "dark"}
)

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Service: ServiceConfig{
			Endpoint: "http://localhost:8000/generate-dashboard",
			Timeout:  120 * time.Second,
		},
		Ingest: IngestConfig{
			MaxFileSize: 5 << 20,
		},
		Preview: PreviewConfig{
			Addr: "127.0.0.1:0",
		},
		Export: ExportConfig{
			DownloadDir: ".",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(DefaultDir(), "history.db"),
		},
		Tracing: TracingConfig{
			Exporter: ExporterStdout,
			Endpoint: "localhost:4317",
		},
		Log: LogConfig{
			Level: "info",
		},
		Defaults: DefaultsConfig{
			Temperature: 0.3,
		},
	}
}

// DefaultDir is ~/.config/instadash, or a relative .instadash when the
// home directory cannot be resolved.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultConfigPath is where init writes and Load looks first.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Validate checks the configuration for values the application cannot use.
func (c Config) Validate() error {
	u, err := url.Parse(c.Service.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service.endpoint: %q is not an http(s) URL", c.Service.Endpoint)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("service.timeout: must be positive, got %s", c.Service.Timeout)
	}
	if c.Ingest.MaxFileSize <= 0 {
		return fmt.Errorf("ingest.max_file_size: must be positive, got %d", c.Ingest.MaxFileSize)
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path: required when history is enabled")
	}
	if c.Tracing.Enabled && !slices.Contains(validExporters, c.Tracing.Exporter) {
		return fmt.Errorf("tracing.exporter: %q is not one of %v", c.Tracing.Exporter, validExporters)
	}
	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("log.level: %q is not one of %v", c.Log.Level, validLogLevels)
	}
	if t := c.Defaults.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("defaults.temperature: %v is outside [0, 2]", t)
	}
	if !slices.Contains(validModes, c.Theme.Mode) {
		return fmt.Errorf("theme.mode: %q must be light, dark, or empty", c.Theme.Mode)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# instadash configuration
#
# Every key can also be set from the environment with the INSTADASH_ prefix,
# e.g. INSTADASH_SERVICE_ENDPOINT. A .env file in the working directory is
# loaded first.

service:
  # Dashboard generation endpoint (POST)
  endpoint: http://localhost:8000/generate-dashboard
  # Give up on a generation after this long
  timeout: 2m
  # Health probe path; empty derives /health from the endpoint
  # health_path: /health

ingest:
  max_file_size: 5242880   # bytes
  watch: false             # reload an uploaded file when it changes
  # Optional JSON Schema; mismatches are shown as hints, never block generation
  # schema_path: ./schema.json

preview:
  # Local sandboxed preview server. Port 0 picks a free port.
  addr: 127.0.0.1:0
  open_browser: false

export:
  download_dir: .

history:
  enabled: true
  # path: ~/.config/instadash/history.db

tracing:
  enabled: false
  exporter: stdout         # stdout | otlp
  endpoint: localhost:4317 # otlp gRPC collector

log:
  # Logs go to a file because the terminal belongs to the UI.
  # path: /tmp/instadash.log
  level: info              # debug | info | warn | error

defaults:
  temperature: 0.3
  # prompt: "Dark analytics theme with a bar chart and summary cards"

theme:
  # preset: dracula
  #
  # Available presets:
  #   default        - Default instadash theme
  #   dracula        - Dark theme with vibrant colors
  #   nord           - Arctic, north-bluish palette
  #   high-contrast  - High contrast for accessibility
  #
  # mode: dark
  # colors:
  #   text.primary: "#FFFFFF"
  #   status.error: "#FF0000"
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
