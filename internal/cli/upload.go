package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/raphaelgruber/oceanboard/internal/upload"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	uploadNetCDF     bool
	uploadNoProgress bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a dataset",
	Long: `Upload a dataset file to the backend. Accepted types: .csv, .json,
.xlsx, .xls, .geojson, .kml and .txt (plus .nc with --netcdf).
Files over 100 MB are accepted with a warning.

Examples:
  oceanboard upload observations.csv
  oceanboard upload floats.nc --netcdf`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadNetCDF, "netcdf", false, "also accept NetCDF files")
	uploadCmd.Flags().BoolVar(&uploadNoProgress, "no-progress", false, "print the result without the progress bar")
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	opts := upload.Options{AllowNetCDF: uploadNetCDF}

	interactive := !uploadNoProgress && term.IsTerminal(int(os.Stdout.Fd()))
	if !interactive {
		uploader := upload.New(api, opts, notifier, logger)
		result, err := uploader.UploadFile(cmd.Context(), path, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records, %s (%s)\n",
			result.Filename, result.Records, formatBytes(result.Size), result.ContentType)
		return nil
	}

	// The progress UI owns the terminal; notices only go to the log, except
	// the size warning which is shown before the UI starts.
	if info, err := os.Stat(path); err == nil && info.Size() > upload.RecommendedMaxSize {
		notify.Warn(notifier, fmt.Sprintf("%s exceeds the recommended 100MB; upload may be slow", filepath.Base(path)))
	}
	if err := opts.Check(path); err != nil {
		return err
	}

	uploader := upload.New(api, opts, notify.NewLogger(logger), logger)
	_, err := runUploadProgress(cmd.Context(), uploader, path, filepath.Base(path))
	return err
}
