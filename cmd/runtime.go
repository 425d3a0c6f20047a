package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/zjrosen/instadash/internal/config"
	"github.com/zjrosen/instadash/internal/generation"
	"github.com/zjrosen/instadash/internal/history"
	"github.com/zjrosen/instadash/internal/infrastructure/sqlite"
	"github.com/zjrosen/instadash/internal/ingest"
	"github.com/zjrosen/instadash/internal/log"
	"github.com/zjrosen/instadash/internal/metrics"
	"github.com/zjrosen/instadash/internal/preview"
	"github.com/zjrosen/instadash/internal/tracing"
	"github.com/zjrosen/instadash/internal/ui/styles"
	"github.com/zjrosen/instadash/internal/validate"
	"github.com/zjrosen/instadash/internal/workflow"
)

// debugLogFile is used when --debug is set without log.path.
const debugLogFile = "debug.log"

type runtimeOptions struct {
	debug bool
	// traceOut receives stdout-exporter spans. Nil writes traces.jsonl next
	// to the config.
	traceOut io.Writer
}

// runtime is the set of services shared by the UI and headless commands.
type runtime struct {
	client     *generation.Client
	metrics    *metrics.Metrics
	ingestor   *ingest.Ingestor
	controller *workflow.Controller
	exporter   *preview.Exporter
	db         *sqlite.DB
	recorder   *history.Recorder

	closers []func() error
}

func newRuntime(ctx context.Context, cfg config.Config, opts runtimeOptions) (_ *runtime, err error) {
	rt := &runtime{}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	logOpts := log.Options{Path: cfg.Log.Path, Level: cfg.Log.Level}
	if opts.debug {
		logOpts.Level = "debug"
		if logOpts.Path == "" {
			logOpts.Path = filepath.Join(config.DefaultDir(), debugLogFile)
		}
	}
	closeLog, err := log.Init(logOpts)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, closeLog)

	if err := styles.ApplyTheme(styles.ThemeConfig{
		Preset: cfg.Theme.Preset,
		Mode:   cfg.Theme.Mode,
		Colors: cfg.Theme.Colors,
	}); err != nil {
		return nil, fmt.Errorf("theme: %w", err)
	}

	traceOut := opts.traceOut
	if cfg.Tracing.Enabled && cfg.Tracing.Exporter == config.ExporterStdout && traceOut == nil {
		f, err := openTraceFile(filepath.Join(config.DefaultDir(), "traces.jsonl"))
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, f.Close)
		traceOut = f
	}
	shutdown, err := tracing.Setup(ctx, tracing.Options{
		Enabled:  cfg.Tracing.Enabled,
		Exporter: cfg.Tracing.Exporter,
		Endpoint: cfg.Tracing.Endpoint,
		Writer:   traceOut,
		Version:  version,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	rt.closers = append(rt.closers, func() error { return shutdown(context.Background()) })

	rt.metrics = metrics.New()

	ingestOpts := []ingest.Option{ingest.WithMaxFileSize(cfg.Ingest.MaxFileSize)}
	if cfg.Ingest.SchemaPath != "" {
		schema, err := validate.LoadSchemaValidator(cfg.Ingest.SchemaPath)
		if err != nil {
			return nil, err
		}
		ingestOpts = append(ingestOpts, ingest.WithSchema(schema))
	}
	rt.ingestor = ingest.New(ingestOpts...)

	rt.client = generation.NewClient(generation.Config{
		Endpoint:  cfg.Service.Endpoint,
		HealthURL: healthURL(cfg.Service.Endpoint, cfg.Service.HealthPath),
		Timeout:   cfg.Service.Timeout,
	})

	recorders := []workflow.Recorder{rt.metrics.WorkflowRecorder()}
	if cfg.History.Enabled {
		db, err := sqlite.NewDB(cfg.History.Path)
		if err != nil {
			log.ErrorErr(log.CatDB, "history disabled", err, "path", cfg.History.Path)
		} else {
			rt.db = db
			rt.closers = append(rt.closers, db.Close)
			rt.recorder = history.NewRecorder(db.AttemptRepository())
			recorders = append(recorders, rt.recorder)
		}
	}

	rt.controller = workflow.New(workflow.Config{
		Temperature: cfg.Defaults.Temperature,
		Prompt:      cfg.Defaults.Prompt,
		Recorders:   recorders,
	})
	rt.exporter = preview.NewExporter(preview.ExporterConfig{
		Dir:      cfg.Export.DownloadDir,
		Observer: rt.metrics,
	})
	return rt, nil
}

// Close releases everything in reverse order of acquisition.
func (rt *runtime) Close() {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", err)
	}
}

// healthURL swaps the endpoint's path for path. An empty path lets the
// client derive /health itself.
func healthURL(endpoint, path string) string {
	if path == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	u.Path = path
	u.RawQuery = ""
	return u.String()
}

func openTraceFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	// #nosec G304 -- path is under the config directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	return f, nil
}
