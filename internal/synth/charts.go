package synth

import (
	"strings"

	"github.com/raphaelgruber/oceanboard/internal/models"
)

// TemperatureProfile returns a temperature-versus-depth line chart.
func (g *Generator) TemperatureProfile() models.ChartSpec {
	g.mu.Lock()
	defer g.mu.Unlock()

	surface := g.uniform(18, 28)
	depths := make([]float64, 0, 21)
	temps := make([]float64, 0, 21)
	for d := 0.0; d <= 2000; d += 100 {
		depths = append(depths, d)
		temps = append(temps, round(2+(surface-2)*expDecay(d, 700)+g.uniform(-0.3, 0.3), 2))
	}
	return models.ChartSpec{
		Type:   models.ChartLine,
		Title:  "Temperature Profile",
		XLabel: "Temperature (°C)",
		YLabel: "Depth (m)",
		Series: []models.Series{{Name: "temperature", X: temps, Y: depths}},
	}
}

// SalinityHistogram returns a salinity distribution chart.
func (g *Generator) SalinityHistogram() models.ChartSpec {
	g.mu.Lock()
	defer g.mu.Unlock()

	var bins, counts []float64
	for s := 33.0; s <= 37.0; s += 0.25 {
		bins = append(bins, s)
		// Peak near 35 PSU.
		dist := s - 35
		counts = append(counts, round(400*expDecay(dist*dist, 0.8)+g.uniform(0, 40), 0))
	}
	return models.ChartSpec{
		Type:   models.ChartHistogram,
		Title:  "Salinity Distribution",
		XLabel: "Salinity (PSU)",
		YLabel: "Observations",
		Series: []models.Series{{Name: "salinity", X: bins, Y: counts}},
	}
}

// DepthScatter returns a depth-versus-pressure scatter chart.
func (g *Generator) DepthScatter() models.ChartSpec {
	g.mu.Lock()
	defer g.mu.Unlock()

	x := make([]float64, 50)
	y := make([]float64, 50)
	for i := range x {
		d := g.uniform(0, 2000)
		x[i] = round(d*1.0197+g.uniform(-5, 5), 2)
		y[i] = round(d, 1)
	}
	return models.ChartSpec{
		Type:   models.ChartScatter,
		Title:  "Depth vs Pressure",
		XLabel: "Pressure (dbar)",
		YLabel: "Depth (m)",
		Series: []models.Series{{Name: "profiles", X: x, Y: y}},
	}
}

// FloatMap returns a map chart of float positions.
func (g *Generator) FloatMap() models.ChartSpec {
	points := g.GeoPoints(40)
	lons := make([]float64, len(points))
	lats := make([]float64, len(points))
	for i, p := range points {
		lons[i] = p.Longitude
		lats[i] = p.Latitude
	}
	return models.ChartSpec{
		Type:   models.ChartMap,
		Title:  "Float Locations",
		XLabel: "Longitude",
		YLabel: "Latitude",
		Series: []models.Series{{Name: "floats", X: lons, Y: lats}},
	}
}

// RegionBars returns a bar chart of observation counts per region.
func (g *Generator) RegionBars() models.ChartSpec {
	g.mu.Lock()
	defer g.mu.Unlock()

	x := make([]float64, len(models.Regions))
	y := make([]float64, len(models.Regions))
	for i := range models.Regions {
		x[i] = float64(i)
		y[i] = float64(1000 + g.rng.IntN(9000))
	}
	return models.ChartSpec{
		Type:   models.ChartBar,
		Title:  "Observations by Region (" + strings.Join(models.Regions, ", ") + ")",
		XLabel: "Region",
		YLabel: "Observations",
		Series: []models.Series{{Name: "observations", X: x, Y: y}},
	}
}
