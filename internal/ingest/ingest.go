// Package ingest acquires JSON text from the three input channels (manual
// edit, file picker, drag-and-drop) and reports its validity.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/instadash/internal/log"
	"github.com/zjrosen/instadash/internal/validate"
)

// JSONMediaType is the only declared media type accepted for upload.
const JSONMediaType = "application/json"

// DefaultMaxFileSize bounds how much of a file is read into the editor.
const DefaultMaxFileSize int64 = 5 << 20

// Source identifies the channel an ingestion result came from.
type Source int

const (
	SourceEdit Source = iota
	SourceUpload
	SourceDrop
	SourceWatch
)

func (s Source) String() string {
	switch s {
	case SourceEdit:
		return "edit"
	case SourceUpload:
		return "upload"
	case SourceDrop:
		return "drop"
	case SourceWatch:
		return "watch"
	default:
		return "unknown"
	}
}

// File is a candidate input file. Type is the declared media type.
type File struct {
	Path string
	Type string
}

// FileFromPath describes the file at path, deriving its declared media type
// from the extension.
func FileFromPath(path string) File {
	return File{Path: path, Type: mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))}
}

// Name returns the base name of the file.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// Result is the outcome of one ingestion.
type Result struct {
	Text   string
	Valid  bool
	Source Source
	Path   string
	// Issues holds advisory schema findings; they do not affect Valid.
	Issues []validate.Issue
}

// LoadedMsg is delivered when an asynchronous file read completes.
type LoadedMsg struct {
	Result Result
}

// FailedMsg is delivered when a file is rejected or cannot be read.
type FailedMsg struct {
	Err error
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithMaxFileSize overrides DefaultMaxFileSize. Non-positive values are ignored.
func WithMaxFileSize(n int64) Option {
	return func(i *Ingestor) {
		if n > 0 {
			i.maxSize = n
		}
	}
}

// WithSchema attaches an advisory schema validator.
func WithSchema(v *validate.SchemaValidator) Option {
	return func(i *Ingestor) {
		i.schema = v
	}
}

// Ingestor normalizes every input channel into a single Result.
// It is not safe for concurrent use; the UI event loop owns it.
type Ingestor struct {
	maxSize  int64
	schema   *validate.SchemaValidator
	dragging bool
}

// New creates an Ingestor.
func New(opts ...Option) *Ingestor {
	i := &Ingestor{maxSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// MaxFileSize returns the configured size bound in bytes.
func (i *Ingestor) MaxFileSize() int64 {
	return i.maxSize
}

// Edit validates manually entered text.
func (i *Ingestor) Edit(text string) Result {
	return i.result(text, SourceEdit, "")
}

// Accept picks the first file and checks its declared type. Remaining
// files are ignored.
func (i *Ingestor) Accept(files []File) (File, error) {
	if len(files) == 0 {
		return File{}, ErrNoFile
	}
	f := files[0]
	if !isJSONType(f.Type) {
		log.Debug(log.CatIngest, "rejected file", "path", f.Path, "type", f.Type)
		return File{}, ErrUnsupportedType
	}
	return f, nil
}

// Read loads f and validates its content. On any failure no Result is
// produced, so callers keep their existing text.
func (i *Ingestor) Read(ctx context.Context, f File, src Source) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &ReadError{Path: f.Path, Err: err}
	}

	// #nosec G304 -- path was chosen by the user
	fh, err := os.Open(f.Path)
	if err != nil {
		return Result{}, &ReadError{Path: f.Path, Err: err}
	}
	defer func() { _ = fh.Close() }()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(fh, i.maxSize+1))
	if err != nil {
		return Result{}, &ReadError{Path: f.Path, Err: err}
	}
	if n > i.maxSize {
		return Result{}, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, f.Name(), i.maxSize)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, &ReadError{Path: f.Path, Err: err}
	}

	log.Debug(log.CatIngest, "file read", "path", f.Path, "bytes", n, "source", src.String())
	return i.result(buf.String(), src, f.Path), nil
}

// ReadCmd runs Read off the event loop and reports back with LoadedMsg or
// FailedMsg.
func (i *Ingestor) ReadCmd(f File, src Source) tea.Cmd {
	return func() tea.Msg {
		res, err := i.Read(context.Background(), f, src)
		if err != nil {
			log.ErrorErr(log.CatIngest, "file read failed", err, "path", f.Path)
			return FailedMsg{Err: err}
		}
		return LoadedMsg{Result: res}
	}
}

// Upload accepts files from the picker and starts reading the first one.
// Rejections are returned synchronously and nothing is read.
func (i *Ingestor) Upload(files []File) (tea.Cmd, error) {
	f, err := i.Accept(files)
	if err != nil {
		return nil, err
	}
	return i.ReadCmd(f, SourceUpload), nil
}

func (i *Ingestor) result(text string, src Source, path string) Result {
	res := Result{
		Text:   text,
		Valid:  validate.ValidateJSON(text).Valid,
		Source: src,
		Path:   path,
	}
	if res.Valid {
		res.Issues = i.schema.Check(text)
	}
	return res
}

func isJSONType(declared string) bool {
	if declared == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return mediaType == JSONMediaType
}
