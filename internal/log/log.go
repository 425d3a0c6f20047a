// Package log provides category-scoped structured logging backed by zap.
//
// Logging is disabled until Init is called. The TUI owns stdout, so
// production logs always go to a file.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies the subsystem emitting a log line.
type Category string

const (
	CatUI       Category = "ui"
	CatConfig   Category = "config"
	CatDB       Category = "db"
	CatHTTP     Category = "http"
	CatIngest   Category = "ingest"
	CatWorkflow Category = "workflow"
	CatPreview  Category = "preview"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
	closer = func() error { return nil }
)

// Options configures Init.
type Options struct {
	// Path is the log file. Empty disables logging.
	Path string
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// JSON selects the production JSON encoder instead of the console one.
	JSON bool
}

// Init installs the global logger. It returns a cleanup func that flushes
// and closes the log file.
func Init(opts Options) (func() error, error) {
	if opts.Path == "" {
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	// #nosec G304 -- path comes from user config
	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encoder := zapcore.NewConsoleEncoder(encCfg)
	if opts.JSON {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(f), parseLevel(opts.Level))
	SetLogger(zap.New(core))

	cleanup := func() error {
		mu.RLock()
		l := logger
		mu.RUnlock()
		_ = l.Sync()
		return f.Close()
	}
	mu.Lock()
	closer = cleanup
	mu.Unlock()
	return cleanup, nil
}

// SetLogger replaces the global logger. Tests use this with zaptest or
// observer cores.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l.Sugar()
}

// Close flushes and closes the log file opened by Init.
func Close() error {
	mu.RLock()
	c := closer
	mu.RUnlock()
	return c()
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func withCat(cat Category, kv []any) []any {
	return append([]any{"cat", string(cat)}, kv...)
}

// Debug logs at debug level. kv is a flat list of alternating keys and values.
func Debug(cat Category, msg string, kv ...any) {
	current().Debugw(msg, withCat(cat, kv)...)
}

func Info(cat Category, msg string, kv ...any) {
	current().Infow(msg, withCat(cat, kv)...)
}

func Warn(cat Category, msg string, kv ...any) {
	current().Warnw(msg, withCat(cat, kv)...)
}

func Error(cat Category, msg string, kv ...any) {
	current().Errorw(msg, withCat(cat, kv)...)
}

// ErrorErr logs err under the "error" key.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	current().Errorw(msg, withCat(cat, append([]any{"error", err}, kv...))...)
}

// SafeGo runs fn in a goroutine, logging and swallowing any panic.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				current().Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
