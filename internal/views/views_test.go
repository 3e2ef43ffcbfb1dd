package views

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/dataview"
	"github.com/raphaelgruber/oceanboard/internal/export"
	"github.com/raphaelgruber/oceanboard/internal/filter"
	"github.com/raphaelgruber/oceanboard/internal/metrics"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/raphaelgruber/oceanboard/internal/synth"
)

type token string

func (t token) Token() (string, error) { return string(t), nil }

func newFactory(t *testing.T, handler http.HandlerFunc) (*Factory, *notify.Recorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &notify.Recorder{}
	return &Factory{
		Client:       client.New(srv.URL, token("tok"), 5*time.Second),
		Synth:        synth.New(42),
		Policy:       filter.PolicyEmpty,
		FetchTimeout: 2 * time.Second,
		ExportDir:    t.TempDir(),
		Notifier:     rec,
		Metrics:      metrics.NewCollector(),
	}, rec
}

func serveRecords(records []models.Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"records": records})
	}
}

func fixture(temps ...float64) []models.Record {
	regions := []string{models.RegionAtlantic, models.RegionPacific, models.RegionIndian}
	out := make([]models.Record, len(temps))
	for i, temp := range temps {
		out[i] = models.Record{
			ID:          "R" + string(rune('1'+i)),
			Timestamp:   "2024-05-01T00:00:00Z",
			Temperature: temp,
			Salinity:    35,
			Depth:       100 * float64(i+1),
			Region:      regions[i%len(regions)],
			Year:        2024,
			Quality:     models.QualityGood,
		}
	}
	return out
}

func TestExplorerTemperatureScenario(t *testing.T) {
	f, rec := newFactory(t, serveRecords(fixture(10, 22, 30)))
	v := f.Explorer()

	res, err := v.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dataview.OriginRemote, res.Origin)
	assert.Len(t, v.Filtered(), 3)

	require.NoError(t, v.UpdateFilter(func(s filter.Set) filter.Set {
		return s.WithRange(FieldTemperature, filter.Range{Min: 20, Max: 40})
	}))

	got := v.Filtered()
	require.Len(t, got, 2)
	assert.Equal(t, 22.0, got[0].Temperature)
	assert.Equal(t, 30.0, got[1].Temperature)
	assert.Empty(t, rec.Notices())
}

func TestExplorerDefaultFilterKeepsOutOfRangeRecords(t *testing.T) {
	records := fixture(4, 12, 18)
	records[0].Depth = 8000
	records[1].Salinity = 40.5
	records[2].Salinity = 0 // missing in the payload

	f, _ := newFactory(t, serveRecords(records))
	v := f.Explorer()
	_, err := v.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records, v.Filtered())

	require.NoError(t, v.UpdateFilter(func(s filter.Set) filter.Set {
		return s.WithRange(FieldDepth, filter.Range{Min: 0, Max: 1000})
	}))
	require.Len(t, v.Filtered(), 2)
	assert.Equal(t, "R2", v.Filtered()[0].ID)
}

func TestExplorerRegionAllRestores(t *testing.T) {
	f, _ := newFactory(t, serveRecords(fixture(10, 22, 30)))
	v := f.Explorer()
	_, err := v.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, v.SetFilter(v.Filter().WithEnum(FieldRegion, models.RegionPacific)))
	require.Len(t, v.Filtered(), 1)
	assert.Equal(t, models.RegionPacific, v.Filtered()[0].Region)

	require.NoError(t, v.SetFilter(v.Filter().WithEnum(FieldRegion, filter.All)))
	assert.Equal(t, v.Data(), v.Filtered())
}

func TestExplorerFallsBackToSynthetic(t *testing.T) {
	f, rec := newFactory(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	})
	v := f.Explorer()

	res, err := v.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dataview.OriginSynthetic, res.Origin)
	require.Len(t, v.Data(), ExplorerSize)
	for _, r := range v.Data() {
		assert.True(t, r.Valid(), "record %s out of range", r.ID)
		assert.Contains(t, models.Regions, r.Region)
		assert.Contains(t, models.Qualities, r.Quality)
	}
	assert.Equal(t, 1, rec.Count(notify.LevelWarn))

	snap := f.Metrics.Snapshot()
	require.Len(t, snap.Views, 1)
	assert.Equal(t, NameExplorer, snap.Views[0].View)
	assert.Equal(t, int64(1), snap.Views[0].Fallbacks)
}

func TestExplorerPropagatesUnauthenticated(t *testing.T) {
	f, rec := newFactory(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	})

	_, err := f.Explorer().Refresh(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Empty(t, rec.Notices())
}

func TestExplorerCSVExport(t *testing.T) {
	records := fixture(10.5, 22.25)
	records[0].Depth = 12.5
	records[1].Depth = 1500
	f, _ := newFactory(t, serveRecords(records))
	v := f.Explorer()
	_, err := v.Refresh(context.Background())
	require.NoError(t, err)

	path, err := v.Export(export.FormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), NameExplorer+"_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Timestamp,Latitude,Longitude,Temperature (°C)"))
	assert.Contains(t, lines[1], ",12.50,")
	assert.Contains(t, lines[2], ",1500.00,")
}

func TestGeographicRegionQuery(t *testing.T) {
	var gotRegion string
	f, _ := newFactory(t, func(w http.ResponseWriter, r *http.Request) {
		gotRegion = r.URL.Query().Get("region")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []models.GeoPoint{
			{Latitude: 10, Longitude: -30, Temperature: 20, Salinity: 35, Region: models.RegionAtlantic},
		}})
	})

	v := f.Geographic(models.RegionAtlantic)
	_, err := v.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RegionAtlantic, gotRegion)
	assert.Len(t, v.Filtered(), 1)

	v = f.Geographic(filter.All)
	_, err = v.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotRegion)
}

func TestGeographicFallbackKeepsRegion(t *testing.T) {
	f, _ := newFactory(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	v := f.Geographic(models.RegionPacific)
	assert.Equal(t, models.RegionPacific, v.Filter().Enums[FieldRegion])

	res, err := v.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dataview.OriginSynthetic, res.Origin)
	require.NotEmpty(t, v.Filtered())
	for _, p := range v.Filtered() {
		assert.Equal(t, models.RegionPacific, p.Region)
	}
}

func TestSingleObjectFallback(t *testing.T) {
	f, rec := newFactory(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	stats, origin, err := f.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dataview.OriginSynthetic, origin)
	assert.Equal(t, len(models.Regions), stats.UniqueRegions)

	profile, origin, err := f.Profile(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, dataview.OriginSynthetic, origin)
	assert.Equal(t, "ana", profile.Username)

	_, _, err = f.UserStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Count(notify.LevelWarn))
}

func TestSmallViewsFallBack(t *testing.T) {
	f, _ := newFactory(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	monthly := f.Monthly()
	_, err := monthly.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, monthly.Data(), 12)

	profiler := f.Profiler()
	_, err = profiler.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiler.Data(), 4)

	activity := f.Activity()
	_, err = activity.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, activity.Data(), ActivitySize)
}
