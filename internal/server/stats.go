package server

import (
	"math"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/models"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// summarize computes the dashboard cards from the dataset.
func summarize(records []models.Record, now time.Time) models.DashboardStats {
	stats := models.DashboardStats{TotalRecords: len(records), LastUpdated: now}
	if len(records) == 0 {
		stats.Regions = []string{}
		return stats
	}

	seen := map[string]bool{}
	floats := map[[2]int]bool{}
	var temp, sal float64
	for _, r := range records {
		if !seen[r.Region] {
			seen[r.Region] = true
			stats.Regions = append(stats.Regions, r.Region)
		}
		// Floats are identified by their rounded position.
		floats[positionKey(r)] = true
		temp += r.Temperature
		sal += r.Salinity
	}
	n := float64(len(records))
	stats.UniqueRegions = len(stats.Regions)
	stats.AvgTemperature = round2(temp / n)
	stats.AvgSalinity = round2(sal / n)
	stats.ActiveFloats = len(floats)
	return stats
}

func positionKey(r models.Record) [2]int {
	return [2]int{int(math.Round(r.Latitude)), int(math.Round(r.Longitude))}
}

// monthlyCounts counts observations per calendar month, January first.
func monthlyCounts(records []models.Record) []models.MonthlyCount {
	var counts [12]int
	for _, r := range records {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			continue
		}
		counts[ts.Month()-1]++
	}

	out := make([]models.MonthlyCount, 12)
	for i, c := range counts {
		out[i] = models.MonthlyCount{Month: time.Month(i + 1).String()[:3], Count: c}
	}
	return out
}

// profile computes min/max/mean per measured parameter.
func profile(records []models.Record) []models.ProfilerStat {
	params := []struct {
		name  string
		value func(models.Record) float64
	}{
		{"temperature", func(r models.Record) float64 { return r.Temperature }},
		{"salinity", func(r models.Record) float64 { return r.Salinity }},
		{"pressure", func(r models.Record) float64 { return r.Pressure }},
		{"depth", func(r models.Record) float64 { return r.Depth }},
	}

	out := make([]models.ProfilerStat, len(params))
	for i, p := range params {
		stat := models.ProfilerStat{Parameter: p.name, Count: len(records)}
		if len(records) > 0 {
			lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
			for _, r := range records {
				v := p.value(r)
				lo = min(lo, v)
				hi = max(hi, v)
				sum += v
			}
			stat.Min, stat.Max, stat.Mean = round2(lo), round2(hi), round2(sum/float64(len(records)))
		}
		out[i] = stat
	}
	return out
}
