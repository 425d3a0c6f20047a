package preview

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/instadash/internal/log"
	"github.com/zjrosen/instadash/internal/workflow"
)

const (
	// CopySuccessMessage acknowledges a successful copy.
	CopySuccessMessage = "✓ HTML code copied to clipboard!"

	// CopyFailureMessage reports a failed copy.
	CopyFailureMessage = "Failed to copy code. Please try again."
)

// ErrExportUnavailable is returned when there is no artifact to export or a
// generation is pending.
var ErrExportUnavailable = errors.New("nothing to export")

// ExportObserver is told about every export attempt.
type ExportObserver interface {
	ObserveExport(kind string, err error)
}

// Exporter copies and downloads artifacts.
type Exporter struct {
	clipboard Clipboard
	dir       string
	now       func() time.Time
	observer  ExportObserver
}

// ExporterConfig configures an Exporter.
type ExporterConfig struct {
	Clipboard Clipboard
	// Dir receives downloads. Defaults to the current directory.
	Dir      string
	Now      func() time.Time
	Observer ExportObserver
}

// NewExporter creates an Exporter.
func NewExporter(cfg ExporterConfig) *Exporter {
	if cfg.Clipboard == nil {
		cfg.Clipboard = SystemClipboard{}
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Exporter{
		clipboard: cfg.Clipboard,
		dir:       cfg.Dir,
		now:       cfg.Now,
		observer:  cfg.Observer,
	}
}

// Dir returns the download directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// DownloadFilename returns dashboard_<unix-ms>.html for t.
func DownloadFilename(t time.Time) string {
	return fmt.Sprintf("dashboard_%d.html", t.UnixMilli())
}

// Copy puts the artifact on the clipboard.
func (e *Exporter) Copy(s workflow.State) error {
	if !s.CanExport() {
		return ErrExportUnavailable
	}
	err := e.clipboard.Copy(s.Artifact())
	if err != nil {
		log.ErrorErr(log.CatPreview, "copy failed", err)
	}
	e.observe("copy", err)
	return err
}

// CopyMessage returns the acknowledgment text for a Copy result.
func CopyMessage(err error) string {
	if err != nil {
		return CopyFailureMessage
	}
	return CopySuccessMessage
}

// Download writes the artifact to a new file in the download directory and
// returns its path. The file is staged under a temporary name and renamed
// into place; the staging file never survives a failure.
func (e *Exporter) Download(s workflow.State) (string, error) {
	if !s.CanExport() {
		return "", ErrExportUnavailable
	}
	path, err := e.write(s.Artifact())
	e.observe("download", err)
	if err != nil {
		log.ErrorErr(log.CatPreview, "download failed", err, "dir", e.dir)
		return "", err
	}
	log.Info(log.CatPreview, "artifact downloaded", "path", path)
	return path, nil
}

func (e *Exporter) write(html string) (string, error) {
	if err := os.MkdirAll(e.dir, 0750); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	path := filepath.Join(e.dir, DownloadFilename(e.now()))

	tmp, err := os.CreateTemp(e.dir, ".dashboard-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.WriteString(html); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("renaming to %s: %w", path, err)
	}
	return path, nil
}

func (e *Exporter) observe(kind string, err error) {
	if e.observer != nil {
		e.observer.ObserveExport(kind, err)
	}
}
