// Package synth generates plausible sample data for views whose remote source
// is unavailable. Every generator returns values that satisfy the model
// invariants (coordinates in range, non-negative depth, known regions).
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/models"
)

// regionBox bounds the positions generated for a region.
type regionBox struct {
	latMin, latMax float64
	lonMin, lonMax float64
	surfMin        float64 // surface temperature range, °C
	surfMax        float64
}

var regionBoxes = map[string]regionBox{
	models.RegionAtlantic: {latMin: -55, latMax: 65, lonMin: -70, lonMax: 15, surfMin: 4, surfMax: 28},
	models.RegionPacific:  {latMin: -55, latMax: 60, lonMin: 130, lonMax: 180, surfMin: 4, surfMax: 30},
	models.RegionIndian:   {latMin: -55, latMax: 25, lonMin: 25, lonMax: 115, surfMin: 8, surfMax: 30},
	models.RegionArctic:   {latMin: 66, latMax: 90, lonMin: -180, lonMax: 180, surfMin: -1.8, surfMax: 5},
	models.RegionSouthern: {latMin: -78, latMax: -60, lonMin: -180, lonMax: 180, surfMin: -1.8, surfMax: 6},
}

// Generator produces sample data. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a generator. A zero seed seeds from the clock.
func New(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x5deece66d)),
		now: time.Now,
	}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func expDecay(x, scale float64) float64 {
	return math.Exp(-x / scale)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Records returns n synthetic observations.
func (g *Generator) Records(n int) []models.Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	out := make([]models.Record, n)
	for i := range out {
		region := models.Regions[g.rng.IntN(len(models.Regions))]
		box := regionBoxes[region]

		depth := round(g.uniform(0, 2000), 1)
		// Temperature decays with depth towards ~2°C.
		surface := g.uniform(box.surfMin, box.surfMax)
		temp := 2 + (surface-2)*expDecay(depth, 700) + g.uniform(-0.5, 0.5)
		temp = math.Max(temp, -1.9)

		ts := now.Add(-time.Duration(g.rng.IntN(5*365*24)) * time.Hour)

		quality := models.QualityGood
		if g.rng.Float64() < 0.15 {
			quality = models.QualityPoor
		}

		out[i] = models.Record{
			ID:          fmt.Sprintf("SYN-%05d", i+1),
			Timestamp:   ts.Format(time.RFC3339),
			Latitude:    round(g.uniform(box.latMin, box.latMax), 4),
			Longitude:   round(g.uniform(box.lonMin, box.lonMax), 4),
			Temperature: round(temp, 2),
			Salinity:    round(g.uniform(32.5, 37.5), 2),
			Pressure:    round(depth*1.0197, 2),
			Depth:       depth,
			Region:      region,
			Year:        ts.Year(),
			Quality:     quality,
		}
	}
	return out
}

// GeoPoints returns n synthetic map points.
func (g *Generator) GeoPoints(n int) []models.GeoPoint {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]models.GeoPoint, n)
	for i := range out {
		region := models.Regions[g.rng.IntN(len(models.Regions))]
		box := regionBoxes[region]
		out[i] = models.GeoPoint{
			Latitude:    round(g.uniform(box.latMin, box.latMax), 4),
			Longitude:   round(g.uniform(box.lonMin, box.lonMax), 4),
			Temperature: round(g.uniform(box.surfMin, box.surfMax), 2),
			Salinity:    round(g.uniform(32.5, 37.5), 2),
			Region:      region,
		}
	}
	return out
}

// Monthly returns one count per calendar month.
func (g *Generator) Monthly() []models.MonthlyCount {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]models.MonthlyCount, 12)
	for i := range out {
		out[i] = models.MonthlyCount{
			Month: time.Month(i + 1).String()[:3],
			Count: 800 + g.rng.IntN(1700),
		}
	}
	return out
}

// ProfilerStats returns summary statistics for the measured parameters.
func (g *Generator) ProfilerStats() []models.ProfilerStat {
	g.mu.Lock()
	defer g.mu.Unlock()

	params := []struct {
		name     string
		min, max float64
	}{
		{"temperature", -1.8, 30},
		{"salinity", 32.5, 37.5},
		{"pressure", 0, 2040},
		{"depth", 0, 2000},
	}
	out := make([]models.ProfilerStat, len(params))
	for i, p := range params {
		lo := p.min + g.rng.Float64()*(p.max-p.min)*0.1
		hi := p.max - g.rng.Float64()*(p.max-p.min)*0.1
		out[i] = models.ProfilerStat{
			Parameter: p.name,
			Min:       round(lo, 2),
			Max:       round(hi, 2),
			Mean:      round(lo+(hi-lo)*g.uniform(0.35, 0.65), 2),
			Count:     5000 + g.rng.IntN(20000),
		}
	}
	return out
}

// DashboardStats returns the summary cards.
func (g *Generator) DashboardStats() models.DashboardStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	regions := make([]string, len(models.Regions))
	copy(regions, models.Regions)
	return models.DashboardStats{
		TotalRecords:   50000 + g.rng.IntN(100000),
		UniqueRegions:  len(regions),
		Regions:        regions,
		AvgTemperature: round(g.uniform(12, 18), 2),
		AvgSalinity:    round(g.uniform(34, 35.5), 2),
		ActiveFloats:   3000 + g.rng.IntN(1000),
		LastUpdated:    g.now().UTC(),
	}
}

var activityActions = []struct{ action, detail string }{
	{"upload", "Uploaded argo_profiles.csv"},
	{"export", "Exported explorer view as CSV"},
	{"query", "Asked about salinity in the Indian Ocean"},
	{"login", "Signed in"},
	{"filter", "Filtered explorer by region"},
}

// Activity returns n activity entries, newest first.
func (g *Generator) Activity(n int) []models.Activity {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	out := make([]models.Activity, n)
	offset := time.Duration(0)
	for i := range out {
		a := activityActions[g.rng.IntN(len(activityActions))]
		offset += time.Duration(5+g.rng.IntN(240)) * time.Minute
		out[i] = models.Activity{Action: a.action, Detail: a.detail, Timestamp: now.Add(-offset)}
	}
	return out
}

// UserStats returns usage counters.
func (g *Generator) UserStats() models.UserStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	return models.UserStats{
		Uploads:  g.rng.IntN(40),
		Exports:  g.rng.IntN(60),
		Queries:  g.rng.IntN(300),
		Sessions: 1 + g.rng.IntN(50),
	}
}

// Profile returns a placeholder profile for username.
func (g *Generator) Profile(username string) models.UserProfile {
	if username == "" {
		username = "guest"
	}
	return models.UserProfile{
		Username:     username,
		Email:        username + "@example.org",
		FullName:     "Ocean Researcher",
		Role:         "user",
		Organization: "Independent",
	}
}
