// Package cli provides the command-line interface for oceanboard.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/raphaelgruber/oceanboard/internal/appstate"
	"github.com/raphaelgruber/oceanboard/internal/breaker"
	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/config"
	"github.com/raphaelgruber/oceanboard/internal/filter"
	"github.com/raphaelgruber/oceanboard/internal/metrics"
	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/raphaelgruber/oceanboard/internal/synth"
	"github.com/raphaelgruber/oceanboard/internal/views"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose         bool
	apiURLFlag      string
	exportDirFlag   string
	rangePolicyFlag string
	seedFlag        uint64

	// Per-invocation state, built in setup
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func() error
	state     *appstate.Store
	api       *client.Client
	collector *metrics.Collector
	notifier  notify.Notifier
	theme     Theme
	policy    filter.Policy
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "oceanboard",
	Short: "Ocean observation dashboard for the terminal",
	Long: `Oceanboard browses ocean float observations: dashboard summaries,
a filterable data explorer, a geographic view, an assistant chat and
dataset uploads.

When the backend is unreachable every page falls back to generated
sample data and says so. An expired or missing login is never hidden:
run 'oceanboard login' first.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	cfg = config.Load()
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = apiURLFlag
	}
	if flags.Changed("export-dir") {
		cfg.ExportDir = exportDirFlag
	}
	if flags.Changed("range-policy") {
		cfg.RangePolicy = rangePolicyFlag
	}
	if flags.Changed("seed") {
		cfg.Seed = seedFlag
	}

	level := cfg.LogLevel
	if verbose {
		logger, closeLog = config.SetupLogger(cfg.LogFile, slog.LevelDebug, "cli")
	} else {
		logger, closeLog = config.SetupFileLogger(cfg.LogFile, level, "cli")
	}

	var err error
	policy, err = filter.ParsePolicy(cfg.RangePolicy)
	if err != nil {
		return err
	}

	state, err = appstate.Open(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}

	theme = themeFor(state.DarkMode())
	notifier = newConsoleNotifier(cmd.ErrOrStderr(), theme, notify.NewLogger(logger))
	collector = metrics.NewCollector()
	api = client.New(cfg.APIURL, state, cfg.ClientTimeout,
		client.WithBreaker(breaker.New(cfg.BreakerFailures, cfg.BreakerCooldown)),
		client.WithLogger(logger),
	)

	logger.Debug("cli ready", "command", cmd.CommandPath(), "api_url", cfg.APIURL)
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if collector != nil && verbose {
		for _, v := range collector.Snapshot().Views {
			logger.Debug("view stats",
				"view", v.View,
				"fetches", v.Fetches,
				"fallbacks", v.Fallbacks,
				"stale", v.Stale,
				"avg_ms", v.AvgTimeMs,
			)
		}
	}
	if closeLog != nil {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		closeLog = nil
	}
}

// newFactory builds the page views for the current invocation.
func newFactory() *views.Factory {
	return &views.Factory{
		Client:       api,
		Synth:        synth.New(cfg.Seed),
		Policy:       policy,
		FetchTimeout: cfg.FetchTimeout,
		ExportDir:    cfg.ExportDir,
		Notifier:     notifier,
		Metrics:      collector,
		Logger:       logger,
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// An authentication failure is reported as a request to log in.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if errors.Is(err, client.ErrUnauthenticated) {
		return fmt.Errorf("%w: please log in with 'oceanboard login'", err)
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs to stderr)")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "backend base URL (overrides OCEANBOARD_API_URL)")
	rootCmd.PersistentFlags().StringVar(&exportDirFlag, "export-dir", "", "directory for exported files (overrides OCEANBOARD_EXPORT_DIR)")
	rootCmd.PersistentFlags().StringVar(&rangePolicyFlag, "range-policy", "", "inverted range handling: empty, swap or reject")
	rootCmd.PersistentFlags().Uint64Var(&seedFlag, "seed", 0, "sample data seed (0 = random)")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(geoCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(statsCmd)
}
