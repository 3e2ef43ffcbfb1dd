package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/export"
	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/raphaelgruber/oceanboard/internal/views"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportLocal  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full observation dataset",
	Long: `Download the full observation dataset rendered by the backend and save it
to the export directory as <dataset>_<date>.<ext>. Existing files are never
overwritten; a numeric suffix is added instead.

When the backend cannot render the export, the records are exported locally
(sample data if the backend is down).

Examples:
  oceanboard export --format csv
  oceanboard export --format xlsx --export-dir ./exports
  oceanboard export --format json --local`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv, json, excel, xlsx)")
	exportCmd.Flags().BoolVar(&exportLocal, "local", false, "encode locally instead of asking the backend")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	if !exportLocal {
		file, err := api.Export(cmd.Context(), string(format))
		switch {
		case err == nil:
			return saveDownload(file, format)
		case errors.Is(err, client.ErrUnauthenticated):
			return err
		}
		logger.Warn("backend export failed, exporting locally", "format", format, "error", err)
	}

	view := newFactory().Explorer()
	if _, err := view.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	return exportView(view, string(format))
}

// saveDownload writes a server-rendered export next to local exports.
func saveDownload(file *client.ExportFile, format export.Format) error {
	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	name := filepath.Base(file.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("%s_%s.%s", views.NameExplorer, time.Now().Format("2006-01-02"), format.Extension())
	}

	f, path, err := createUnique(cfg.ExportDir, name)
	if err != nil {
		return err
	}
	if _, err := f.Write(file.Data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}

	notify.Success(notifier, fmt.Sprintf("Saved %s (%d bytes)", filepath.Base(path), len(file.Data)))
	return nil
}

// createUnique creates dir/name, or dir/stem_N.ext for the first free N >= 2.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 1; ; n++ {
		candidate := name
		if n > 1 {
			candidate = stem + "_" + strconv.Itoa(n) + ext
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("create export file: %w", err)
		}
		return f, path, nil
	}
}
