package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raphaelgruber/oceanboard/internal/filter"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/spf13/cobra"
)

var (
	geoRegion string
	geoLimit  int
	geoExport string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the summary dashboard",
	Long: `Show summary cards, the monthly observation distribution and
per-parameter statistics.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Show observation locations",
	Long: `Show float positions with temperature and salinity, optionally for one region.

Examples:
  oceanboard geo
  oceanboard geo --region Pacific --limit 50
  oceanboard geo --region Atlantic --export csv`,
	Args: cobra.NoArgs,
	RunE: runGeo,
}

func init() {
	geoCmd.Flags().StringVarP(&geoRegion, "region", "r", filter.All, "ocean region")
	geoCmd.Flags().IntVarP(&geoLimit, "limit", "n", 20, "rows to display")
	geoCmd.Flags().StringVar(&geoExport, "export", "", "export the points (csv, json, excel, xlsx)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	f := newFactory()

	stats, origin, err := f.DashboardStats(ctx)
	if err != nil {
		return fmt.Errorf("load dashboard: %w", err)
	}
	printHeading(out, "Overview", origin)
	fmt.Fprintln(out, renderTable(
		[]string{"Records", "Regions", "Avg temp (°C)", "Avg salinity (PSU)", "Active floats"},
		[][]string{{
			strconv.Itoa(stats.TotalRecords),
			strconv.Itoa(stats.UniqueRegions),
			formatFloat(stats.AvgTemperature, 2),
			formatFloat(stats.AvgSalinity, 2),
			strconv.Itoa(stats.ActiveFloats),
		}},
	))
	if len(stats.Regions) > 0 {
		fmt.Fprintln(out, theme.hintStyle().Render("Regions: "+strings.Join(stats.Regions, ", ")))
	}
	fmt.Fprintln(out)

	monthly := f.Monthly()
	res, err := monthly.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("load monthly distribution: %w", err)
	}
	printHeading(out, "Observations per month", res.Origin)
	fmt.Fprintln(out, renderMonthly(monthly.Data()))
	fmt.Fprintln(out)

	profiler := f.Profiler()
	pres, err := profiler.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("load profiler stats: %w", err)
	}
	printHeading(out, "Parameters", pres.Origin)
	rows := make([][]string, 0, len(profiler.Data()))
	for _, s := range profiler.Data() {
		rows = append(rows, []string{
			s.Parameter,
			formatFloat(s.Min, 2),
			formatFloat(s.Max, 2),
			formatFloat(s.Mean, 2),
			strconv.Itoa(s.Count),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Parameter", "Min", "Max", "Mean", "Count"}, rows))
	return nil
}

// renderMonthly draws one bar per month scaled to the busiest month.
func renderMonthly(counts []models.MonthlyCount) string {
	const width = 40
	peak := 0
	for _, c := range counts {
		peak = max(peak, c.Count)
	}

	var b strings.Builder
	bar := theme.statusStyle()
	for _, c := range counts {
		n := 0
		if peak > 0 {
			n = c.Count * width / peak
		}
		fmt.Fprintf(&b, "%-4s %s %d\n", c.Month, bar.Render(strings.Repeat("█", n)), c.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

func runGeo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	view := newFactory().Geographic(geoRegion)
	res, err := view.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("load geographic data: %w", err)
	}

	points := view.Filtered()
	title := "Observation locations"
	if geoRegion != "" && geoRegion != filter.All {
		title += " · " + geoRegion
	}
	printHeading(out, title, res.Origin)

	shown := points[:clampLimit(geoLimit, len(points))]
	rows := make([][]string, 0, len(shown))
	for _, p := range shown {
		rows = append(rows, []string{
			formatFloat(p.Latitude, 4),
			formatFloat(p.Longitude, 4),
			formatFloat(p.Temperature, 2),
			formatFloat(p.Salinity, 2),
			p.Region,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Latitude", "Longitude", "Temp (°C)", "Salinity", "Region"}, rows))
	fmt.Fprintln(out, theme.hintStyle().Render(fmt.Sprintf("Showing %d of %d points", len(rows), len(points))))

	if geoExport == "" {
		return nil
	}
	return exportView(view, geoExport)
}
