package synth

import (
	"testing"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsSatisfyInvariants(t *testing.T) {
	g := New(42)
	records := g.Records(1000)
	require.Len(t, records, 1000)

	ids := map[string]bool{}
	for _, r := range records {
		assert.True(t, r.Valid(), "record %s out of range: %+v", r.ID, r)
		assert.Contains(t, models.Regions, r.Region)
		assert.Contains(t, models.Qualities, r.Quality)

		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		require.NoError(t, err)
		assert.Equal(t, ts.Year(), r.Year)

		assert.False(t, ids[r.ID], "duplicate id %s", r.ID)
		ids[r.ID] = true
	}
}

func TestSameSeedSameData(t *testing.T) {
	a := New(7)
	b := New(7)
	fixed := func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	a.now, b.now = fixed, fixed

	assert.Equal(t, a.Records(50), b.Records(50))
	assert.Equal(t, a.Monthly(), b.Monthly())
}

func TestGeoPointsInRange(t *testing.T) {
	for _, p := range New(3).GeoPoints(500) {
		assert.GreaterOrEqual(t, p.Latitude, -90.0)
		assert.LessOrEqual(t, p.Latitude, 90.0)
		assert.GreaterOrEqual(t, p.Longitude, -180.0)
		assert.LessOrEqual(t, p.Longitude, 180.0)
	}
}

func TestSummaries(t *testing.T) {
	g := New(11)

	monthly := g.Monthly()
	require.Len(t, monthly, 12)
	assert.Equal(t, "Jan", monthly[0].Month)
	assert.Equal(t, "Dec", monthly[11].Month)

	for _, s := range g.ProfilerStats() {
		assert.LessOrEqual(t, s.Min, s.Mean, s.Parameter)
		assert.LessOrEqual(t, s.Mean, s.Max, s.Parameter)
	}

	stats := g.DashboardStats()
	assert.Equal(t, len(models.Regions), stats.UniqueRegions)

	activity := g.Activity(5)
	require.Len(t, activity, 5)
	for i := 1; i < len(activity); i++ {
		assert.True(t, activity[i].Timestamp.Before(activity[i-1].Timestamp), "activity must be newest first")
	}

	assert.Equal(t, "guest", g.Profile("").Username)
}

func TestChartsHaveMatchingSeries(t *testing.T) {
	g := New(5)
	charts := []models.ChartSpec{
		g.TemperatureProfile(),
		g.SalinityHistogram(),
		g.DepthScatter(),
		g.FloatMap(),
		g.RegionBars(),
	}
	for _, c := range charts {
		require.NotEmpty(t, c.Series, c.Title)
		for _, s := range c.Series {
			assert.Equal(t, len(s.X), len(s.Y), "%s: x/y length mismatch", c.Title)
			assert.NotEmpty(t, s.X, c.Title)
		}
	}
}
