// Package cmd holds the instadash command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/instadash/internal/app"
	"github.com/zjrosen/instadash/internal/config"
	"github.com/zjrosen/instadash/internal/ingest"
	"github.com/zjrosen/instadash/internal/log"
	"github.com/zjrosen/instadash/internal/preview"
)

var (
	version = "dev"

	cfgFile  string
	debug    bool
	jsonFile string

	loaded config.Loaded
)

var rootCmd = &cobra.Command{
	Use:   "instadash",
	Short: "Turn JSON data into an interactive HTML dashboard",
	Long: `instadash sends JSON data and a short description to a dashboard
generation service and previews the HTML it returns in a sandboxed browser
tab. The result can be copied to the clipboard or saved as a file.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runApp,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by --version and recorded on traces.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./.instadash.yaml or ~/.config/instadash/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "write debug logs")
	rootCmd.Flags().StringVarP(&jsonFile, "file", "f", "", "JSON file to load on startup")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	l, err := config.Load(cfgFile, ".")
	if err != nil {
		return err
	}
	loaded = l
	return nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, loaded.Config, runtimeOptions{debug: debug})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := loaded.Config
	log.Info(log.CatConfig, "starting", "version", version, "config", loaded.File, "endpoint", cfg.Service.Endpoint)

	var initial *ingest.Result
	if jsonFile != "" {
		f, err := rt.ingestor.Accept([]ingest.File{ingest.FileFromPath(jsonFile)})
		if err != nil {
			return errors.New(ingest.Message(err))
		}
		res, err := rt.ingestor.Read(ctx, f, ingest.SourceUpload)
		if err != nil {
			return errors.New(ingest.Message(err))
		}
		initial = &res
	}

	renderer := preview.NewRenderer()
	server := preview.NewServer(preview.ServerConfig{
		Addr:     cfg.Preview.Addr,
		Renderer: renderer,
		State:    rt.controller,
		Metrics:  rt.metrics.Handler(),
	})
	if err := server.Start(); err != nil {
		log.ErrorErr(log.CatPreview, "preview server disabled", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	var watcher *ingest.Watcher
	if cfg.Ingest.Watch {
		watcher = ingest.NewWatcher(rt.ingestor, 0)
	}

	model := app.New(app.Config{
		Controller:    rt.controller,
		Generator:     rt.client,
		Ingestor:      rt.ingestor,
		Exporter:      rt.exporter,
		Renderer:      renderer,
		Health:        rt.client,
		Watcher:       watcher,
		Metrics:       rt.metrics,
		Endpoint:      rt.client.Endpoint(),
		PreviewURL:    server.URL(),
		OpenOnSuccess: cfg.Preview.OpenBrowser,
		Initial:       initial,
		Context:       ctx,
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		m.Close()
	} else {
		model.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
