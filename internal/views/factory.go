package views

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/dataview"
	"github.com/raphaelgruber/oceanboard/internal/export"
	"github.com/raphaelgruber/oceanboard/internal/filter"
	"github.com/raphaelgruber/oceanboard/internal/metrics"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/raphaelgruber/oceanboard/internal/synth"
)

// Synthetic dataset sizes per page.
const (
	ExplorerSize = 500
	GeoSize      = 1000
	ActivitySize = 20
)

// View names, also used as export file prefixes.
const (
	NameExplorer = "ocean_data"
	NameGeo      = "geographic_data"
	NameMonthly  = "monthly_distribution"
	NameProfiler = "profiler_stats"
	NameActivity = "user_activity"
)

// Factory builds the page views.
type Factory struct {
	Client       *client.Client
	Synth        *synth.Generator
	Policy       filter.Policy
	FetchTimeout time.Duration
	ExportDir    string
	Notifier     notify.Notifier
	Metrics      *metrics.Collector
	Logger       *slog.Logger
}

func (f *Factory) options() []dataview.FallbackOption {
	opts := []dataview.FallbackOption{dataview.WithTimeout(f.FetchTimeout)}
	if f.Notifier != nil {
		opts = append(opts, dataview.WithNotifier(f.Notifier))
	}
	if f.Logger != nil {
		opts = append(opts, dataview.WithLogger(f.Logger))
	}
	return opts
}

func (f *Factory) notifier() notify.Notifier {
	if f.Notifier == nil {
		return notify.Discard{}
	}
	return f.Notifier
}

// Explorer is the data explorer: records with full filtering and export.
func (f *Factory) Explorer() *dataview.View[models.Record] {
	remote := dataview.Remote("records", func(ctx context.Context) ([]models.Record, error) {
		return f.Client.Records(ctx, ExplorerSize)
	})
	fallback := dataview.Synthetic("records", ExplorerSize, f.Synth.Records)

	return dataview.New(dataview.Config[models.Record]{
		Name:     NameExplorer,
		Loader:   dataview.NewFallback[models.Record](remote, fallback, f.options()...),
		Filter:   filter.New(RecordSchema(), f.Policy),
		Exporter: export.NewExporter(f.ExportDir, RecordColumns(), f.notifier()),
		Metrics:  f.Metrics,
		Logger:   f.Logger,
	})
}

// Geographic is the map page. region restricts the backend query; "" or All fetches everything.
func (f *Factory) Geographic(region string) *dataview.View[models.GeoPoint] {
	if region == filter.All {
		region = ""
	}
	remote := dataview.Remote("geographic-data", func(ctx context.Context) ([]models.GeoPoint, error) {
		return f.Client.GeographicData(ctx, region, GeoSize)
	})
	fallback := dataview.Synthetic("geographic-data", GeoSize, f.Synth.GeoPoints)

	cfg := dataview.Config[models.GeoPoint]{
		Name:     NameGeo,
		Loader:   dataview.NewFallback[models.GeoPoint](remote, fallback, f.options()...),
		Filter:   filter.New(GeoSchema(), f.Policy),
		Exporter: export.NewExporter(f.ExportDir, GeoColumns(), f.notifier()),
		Metrics:  f.Metrics,
		Logger:   f.Logger,
	}
	if region != "" {
		// Synthetic points are not region-restricted; the filter keeps the page consistent.
		cfg.Preset = func(s filter.Set) filter.Set { return s.WithEnum(FieldRegion, region) }
	}
	return dataview.New(cfg)
}

// Monthly is the monthly distribution chart.
func (f *Factory) Monthly() *dataview.View[models.MonthlyCount] {
	remote := dataview.Remote("monthly-distribution", f.Client.MonthlyDistribution)
	fallback := dataview.Synthetic("monthly-distribution", 12, func(int) []models.MonthlyCount { return f.Synth.Monthly() })

	return dataview.New(dataview.Config[models.MonthlyCount]{
		Name:   NameMonthly,
		Loader: dataview.NewFallback[models.MonthlyCount](remote, fallback, f.options()...),
		Exporter: export.NewExporter(f.ExportDir, []export.Column[models.MonthlyCount]{
			export.TextColumn("Month", func(m models.MonthlyCount) string { return m.Month }),
			export.IntColumn("Count", func(m models.MonthlyCount) int { return m.Count }),
		}, f.notifier()),
		Metrics: f.Metrics,
		Logger:  f.Logger,
	})
}

// Profiler is the per-parameter summary table.
func (f *Factory) Profiler() *dataview.View[models.ProfilerStat] {
	remote := dataview.Remote("profiler-stats", f.Client.ProfilerStats)
	fallback := dataview.Synthetic("profiler-stats", 4, func(int) []models.ProfilerStat { return f.Synth.ProfilerStats() })

	return dataview.New(dataview.Config[models.ProfilerStat]{
		Name:   NameProfiler,
		Loader: dataview.NewFallback[models.ProfilerStat](remote, fallback, f.options()...),
		Exporter: export.NewExporter(f.ExportDir, []export.Column[models.ProfilerStat]{
			export.TextColumn("Parameter", func(s models.ProfilerStat) string { return s.Parameter }),
			export.NumberColumn("Min", func(s models.ProfilerStat) float64 { return s.Min }, 2),
			export.NumberColumn("Max", func(s models.ProfilerStat) float64 { return s.Max }, 2),
			export.NumberColumn("Mean", func(s models.ProfilerStat) float64 { return s.Mean }, 2),
			export.IntColumn("Count", func(s models.ProfilerStat) int { return s.Count }),
		}, f.notifier()),
		Metrics: f.Metrics,
		Logger:  f.Logger,
	})
}

// Activity is the user's recent activity feed.
func (f *Factory) Activity() *dataview.View[models.Activity] {
	remote := dataview.Remote("user-activity", f.Client.UserActivity)
	fallback := dataview.Synthetic("user-activity", ActivitySize, f.Synth.Activity)

	return dataview.New(dataview.Config[models.Activity]{
		Name:    NameActivity,
		Loader:  dataview.NewFallback[models.Activity](remote, fallback, f.options()...),
		Metrics: f.Metrics,
		Logger:  f.Logger,
	})
}

// DashboardStats loads the summary cards.
func (f *Factory) DashboardStats(ctx context.Context) (models.DashboardStats, dataview.Origin, error) {
	loader := dataview.NewFallback[models.DashboardStats](
		dataview.RemoteOne("dashboard-stats", f.Client.DashboardStats),
		dataview.SyntheticOne("dashboard-stats", f.Synth.DashboardStats),
		f.options()...,
	)
	return loadOneTimed(ctx, f, "dashboard_stats", loader)
}

// UserStats loads the user's usage counters.
func (f *Factory) UserStats(ctx context.Context) (models.UserStats, dataview.Origin, error) {
	loader := dataview.NewFallback[models.UserStats](
		dataview.RemoteOne("user-stats", f.Client.UserStats),
		dataview.SyntheticOne("user-stats", f.Synth.UserStats),
		f.options()...,
	)
	return loadOneTimed(ctx, f, "user_stats", loader)
}

// Profile loads the signed-in user's profile; username seeds the placeholder.
func (f *Factory) Profile(ctx context.Context, username string) (models.UserProfile, dataview.Origin, error) {
	loader := dataview.NewFallback[models.UserProfile](
		dataview.RemoteOne("profile", f.Client.Profile),
		dataview.SyntheticOne("profile", func() models.UserProfile { return f.Synth.Profile(username) }),
		f.options()...,
	)
	return loadOneTimed(ctx, f, "profile", loader)
}

func loadOneTimed[T any](ctx context.Context, f *Factory, name string, loader dataview.Loader[T]) (T, dataview.Origin, error) {
	start := time.Now()
	v, origin, err := dataview.LoadOne(ctx, loader)
	if err == nil {
		f.Metrics.RecordFetch(name, time.Since(start), origin == dataview.OriginSynthetic)
	}
	return v, origin, err
}
