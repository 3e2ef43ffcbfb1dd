package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/notify"
)

// ErrNothingToExport is returned when the view to export is empty.
var ErrNothingToExport = errors.New("nothing to export")

// Exporter saves views of T to files in a directory.
type Exporter[T any] struct {
	dir      string
	columns  []Column[T]
	notifier notify.Notifier
	now      func() time.Time
}

// NewExporter creates an exporter writing into dir.
func NewExporter[T any](dir string, columns []Column[T], notifier notify.Notifier) *Exporter[T] {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Exporter[T]{dir: dir, columns: columns, notifier: notifier, now: time.Now}
}

// Columns returns the exported columns.
func (e *Exporter[T]) Columns() []Column[T] {
	return e.columns
}

// Export encodes items and saves them as <prefix>_<YYYY-MM-DD>.<ext>,
// returning the path written. An empty view writes nothing, emits a single
// warning notice and returns ErrNothingToExport.
//
// Output goes to a temporary file first, which is always removed; the final
// name only appears once encoding has succeeded.
func (e *Exporter[T]) Export(items []T, format Format, prefix string) (string, error) {
	if len(items) == 0 {
		notify.Warn(e.notifier, "No data to export")
		return "", ErrNothingToExport
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(e.dir, "."+prefix+"-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, items, e.columns, format); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path, err := e.targetPath(prefix, format)
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}

	notify.Success(e.notifier, fmt.Sprintf("Exported %d records to %s", len(items), filepath.Base(path)))
	return path, nil
}

// targetPath picks a date-stamped file name that does not exist yet.
func (e *Exporter[T]) targetPath(prefix string, format Format) (string, error) {
	stamp := e.now().Format("2006-01-02")
	base := fmt.Sprintf("%s_%s", prefix, stamp)
	path := filepath.Join(e.dir, base+"."+format.Extension())
	for i := 2; ; i++ {
		_, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return path, nil
		case err != nil:
			return "", fmt.Errorf("check export path: %w", err)
		}
		path = filepath.Join(e.dir, fmt.Sprintf("%s_%d.%s", base, i, format.Extension()))
	}
}
