// Package upload validates data files and sends them to the backend with
// byte-accurate progress reporting.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"

	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/notify"
)

// ErrUnsupportedType is returned for files outside the extension allow-list.
var ErrUnsupportedType = errors.New("unsupported file type")

// RecommendedMaxSize is the size above which a warning is shown. Larger
// files are still uploaded.
const RecommendedMaxSize = 100 << 20

var baseExtensions = []string{".csv", ".json", ".xlsx", ".xls", ".geojson", ".kml", ".txt"}

// Options configures the allow-list.
type Options struct {
	// AllowNetCDF adds .nc files.
	AllowNetCDF bool
}

// Extensions returns the accepted extensions.
func (o Options) Extensions() []string {
	exts := slices.Clone(baseExtensions)
	if o.AllowNetCDF {
		exts = append(exts, ".nc")
	}
	return exts
}

// Check validates a file name against the allow-list.
func (o Options) Check(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(o.Extensions(), ext) {
		return fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedType, filepath.Base(name), strings.Join(o.Extensions(), " "))
	}
	return nil
}

// Backend is the upload endpoint.
type Backend interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (*models.UploadResult, error)
}

// Progress is a snapshot of an upload in flight.
type Progress struct {
	Sent  int64
	Total int64
}

// Fraction returns Sent/Total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(float64(p.Sent)/float64(p.Total), 1)
}

// ProgressFunc receives progress updates from the sending goroutine.
type ProgressFunc func(Progress)

// Uploader sends local files to the backend.
type Uploader struct {
	backend  Backend
	opts     Options
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates an Uploader.
func New(backend Backend, opts Options, notifier notify.Notifier, logger *slog.Logger) *Uploader {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{backend: backend, opts: opts, notifier: notifier, logger: logger}
}

// Options returns the allow-list in effect.
func (u *Uploader) Options() Options {
	return u.opts
}

// UploadFile validates and uploads the file at path. progress may be nil.
func (u *Uploader) UploadFile(ctx context.Context, path string, progress ProgressFunc) (*models.UploadResult, error) {
	if err := u.opts.Check(path); err != nil {
		notify.Error(u.notifier, err.Error())
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > RecommendedMaxSize {
		notify.Warn(u.notifier, fmt.Sprintf("%s exceeds the recommended 100MB; upload may be slow", filepath.Base(path)))
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	u.logger.Info("uploading file", "file", filepath.Base(path), "size", info.Size(), "content_type", mtype.String())

	body := &progressReader{r: f, total: info.Size(), fn: progress}
	result, err := u.backend.Upload(ctx, filepath.Base(path), mtype.String(), body)
	if err != nil {
		notify.Error(u.notifier, fmt.Sprintf("Upload failed: %v", err))
		return nil, err
	}

	notify.Success(u.notifier, fmt.Sprintf("Uploaded %s", filepath.Base(path)))
	return result, nil
}

// progressReader reports bytes as they are consumed by the transport.
type progressReader struct {
	r     io.Reader
	total int64
	sent  atomic.Int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.fn(Progress{Sent: p.sent.Add(int64(n)), Total: p.total})
	}
	return n, err
}
