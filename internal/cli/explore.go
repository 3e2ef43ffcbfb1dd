package cli

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/raphaelgruber/oceanboard/internal/dataview"
	"github.com/raphaelgruber/oceanboard/internal/export"
	"github.com/raphaelgruber/oceanboard/internal/filter"
	"github.com/raphaelgruber/oceanboard/internal/views"
	"github.com/spf13/cobra"
)

var (
	exploreSearch string
	exploreRegion string
	exploreYear   string
	exploreRanges []string
	exploreLimit  int
	exploreExport string
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse and filter observation records",
	Long: `Browse observation records with free-text search, region and year
selection and numeric ranges. Ranges are inclusive and written as
field=min:max; leave a side empty to keep its default bound.

Range fields: temperature, salinity, depth, latitude, longitude.

Examples:
  oceanboard explore --search pacific
  oceanboard explore --region Atlantic --year 2023
  oceanboard explore --range temperature=10:25 --range depth=:500
  oceanboard explore --region Indian --export xlsx`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVarP(&exploreSearch, "search", "s", "", "case-insensitive text search over id, region and quality")
	exploreCmd.Flags().StringVarP(&exploreRegion, "region", "r", filter.All, "ocean region")
	exploreCmd.Flags().StringVarP(&exploreYear, "year", "y", filter.All, "observation year")
	exploreCmd.Flags().StringArrayVar(&exploreRanges, "range", nil, "numeric range field=min:max (repeatable)")
	exploreCmd.Flags().IntVarP(&exploreLimit, "limit", "n", 20, "rows to display")
	exploreCmd.Flags().StringVar(&exploreExport, "export", "", "export the filtered records (csv, json, excel, xlsx)")
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	view := newFactory().Explorer()
	set, err := buildRecordFilter(view.Filter(), exploreSearch, exploreRegion, exploreYear, exploreRanges)
	if err != nil {
		return err
	}
	if err := view.SetFilter(set); err != nil {
		return fmt.Errorf("apply filters: %w", err)
	}

	res, err := view.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	records := view.Filtered()
	printHeading(out, "Data explorer", res.Origin)

	shown := records[:clampLimit(exploreLimit, len(records))]
	rows := make([][]string, 0, len(shown))
	for _, r := range shown {
		rows = append(rows, []string{
			r.ID,
			r.Timestamp,
			formatFloat(r.Latitude, 2),
			formatFloat(r.Longitude, 2),
			formatFloat(r.Temperature, 2),
			formatFloat(r.Salinity, 2),
			formatFloat(r.Depth, 1),
			r.Region,
			strconv.Itoa(r.Year),
			r.Quality,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Timestamp", "Lat", "Lon", "Temp (°C)", "Salinity", "Depth (m)", "Region", "Year", "Quality"},
		rows,
	))
	fmt.Fprintln(out, theme.hintStyle().Render(fmt.Sprintf("Showing %d of %d matching records (%d loaded)",
		len(rows), len(records), len(view.Data()))))

	if exploreExport == "" {
		return nil
	}
	return exportView(view, exploreExport)
}

// buildRecordFilter layers the command-line selections over base.
func buildRecordFilter(base filter.Set, search, region, year string, ranges []string) (filter.Set, error) {
	set := base.WithSearch(search)
	if region != "" {
		set = set.WithEnum(views.FieldRegion, region)
	}
	if year != "" {
		set = set.WithEnum(views.FieldYear, year)
	}
	for _, arg := range ranges {
		field, r, err := parseRange(set, arg)
		if err != nil {
			return filter.Set{}, err
		}
		set = set.WithRange(field, r)
	}
	return set, nil
}

// parseRange reads field=min:max. An empty side keeps the bound currently in set.
func parseRange(set filter.Set, arg string) (string, filter.Range, error) {
	field, bounds, ok := strings.Cut(arg, "=")
	if !ok {
		return "", filter.Range{}, fmt.Errorf("invalid range %q: want field=min:max", arg)
	}
	field = strings.ToLower(strings.TrimSpace(field))

	current, known := set.Ranges[field]
	if !known {
		fields := make([]string, 0, len(set.Ranges))
		for name := range set.Ranges {
			fields = append(fields, name)
		}
		slices.Sort(fields)
		return "", filter.Range{}, fmt.Errorf("unknown range field %q (want one of %s)", field, strings.Join(fields, ", "))
	}

	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok {
		return "", filter.Range{}, fmt.Errorf("invalid range %q: want field=min:max", arg)
	}
	r := current
	if lo = strings.TrimSpace(lo); lo != "" {
		v, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return "", filter.Range{}, fmt.Errorf("invalid minimum %q for %s", lo, field)
		}
		r.Min = v
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		v, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return "", filter.Range{}, fmt.Errorf("invalid maximum %q for %s", hi, field)
		}
		r.Max = v
	}
	return field, r, nil
}

// exportView writes the filtered rows of view to the export directory.
// An empty selection has already been reported as a warning and is not an error.
func exportView[T any](view *dataview.View[T], formatName string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	_, err = view.Export(format)
	if errors.Is(err, export.ErrNothingToExport) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", view.Name(), err)
	}
	return nil
}
