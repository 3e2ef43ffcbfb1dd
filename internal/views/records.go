// Package views wires the dashboard pages: each page is a dataview.View over
// one backend endpoint with a synthetic fallback of fixed size.
package views

import (
	"github.com/raphaelgruber/oceanboard/internal/export"
	"github.com/raphaelgruber/oceanboard/internal/filter"
	"github.com/raphaelgruber/oceanboard/internal/models"
)

// Filter field names for records.
const (
	FieldID          = "id"
	FieldRegion      = "region"
	FieldYear        = "year"
	FieldQuality     = "quality"
	FieldTemperature = "temperature"
	FieldSalinity    = "salinity"
	FieldDepth       = "depth"
	FieldLatitude    = "latitude"
	FieldLongitude   = "longitude"
)

// RecordSchema is the explorer filter schema.
func RecordSchema() filter.Schema[models.Record] {
	return filter.Schema[models.Record]{
		Text: []filter.TextField[models.Record]{
			{Name: FieldID, Value: func(r models.Record) string { return r.ID }},
			{Name: FieldRegion, Value: func(r models.Record) string { return r.Region }},
			{Name: FieldQuality, Value: func(r models.Record) string { return r.Quality }},
		},
		Enums: []filter.EnumField[models.Record]{
			{Name: FieldRegion, Value: func(r models.Record) string { return r.Region }},
			{Name: FieldYear, Value: models.Record.YearString},
		},
		Ranges: []filter.RangeField[models.Record]{
			{Name: FieldTemperature, Value: func(r models.Record) float64 { return r.Temperature }, Bounds: filter.Range{Min: -5, Max: 40}},
			{Name: FieldSalinity, Value: func(r models.Record) float64 { return r.Salinity }, Bounds: filter.Range{Min: 30, Max: 40}},
			{Name: FieldDepth, Value: func(r models.Record) float64 { return r.Depth }, Bounds: filter.Range{Min: 0, Max: 6000}},
			{Name: FieldLatitude, Value: func(r models.Record) float64 { return r.Latitude }, Bounds: filter.Range{Min: -90, Max: 90}},
			{Name: FieldLongitude, Value: func(r models.Record) float64 { return r.Longitude }, Bounds: filter.Range{Min: -180, Max: 180}},
		},
	}
}

// RecordColumns are the explorer export columns.
func RecordColumns() []export.Column[models.Record] {
	return []export.Column[models.Record]{
		export.TextColumn("ID", func(r models.Record) string { return r.ID }),
		export.TextColumn("Timestamp", func(r models.Record) string { return r.Timestamp }),
		export.NumberColumn("Latitude", func(r models.Record) float64 { return r.Latitude }, 4),
		export.NumberColumn("Longitude", func(r models.Record) float64 { return r.Longitude }, 4),
		export.NumberColumn("Temperature (°C)", func(r models.Record) float64 { return r.Temperature }, 2),
		export.NumberColumn("Salinity (PSU)", func(r models.Record) float64 { return r.Salinity }, 2),
		export.NumberColumn("Pressure (dbar)", func(r models.Record) float64 { return r.Pressure }, 2),
		export.NumberColumn("Depth (m)", func(r models.Record) float64 { return r.Depth }, 2),
		export.TextColumn("Region", func(r models.Record) string { return r.Region }),
		export.IntColumn("Year", func(r models.Record) int { return r.Year }),
		export.TextColumn("Quality", func(r models.Record) string { return r.Quality }),
	}
}

// GeoSchema filters map points by region and temperature.
func GeoSchema() filter.Schema[models.GeoPoint] {
	return filter.Schema[models.GeoPoint]{
		Enums: []filter.EnumField[models.GeoPoint]{
			{Name: FieldRegion, Value: func(p models.GeoPoint) string { return p.Region }},
		},
		Ranges: []filter.RangeField[models.GeoPoint]{
			{Name: FieldTemperature, Value: func(p models.GeoPoint) float64 { return p.Temperature }, Bounds: filter.Range{Min: -5, Max: 40}},
			{Name: FieldSalinity, Value: func(p models.GeoPoint) float64 { return p.Salinity }, Bounds: filter.Range{Min: 30, Max: 40}},
		},
	}
}

// GeoColumns are the map export columns.
func GeoColumns() []export.Column[models.GeoPoint] {
	return []export.Column[models.GeoPoint]{
		export.NumberColumn("Latitude", func(p models.GeoPoint) float64 { return p.Latitude }, 4),
		export.NumberColumn("Longitude", func(p models.GeoPoint) float64 { return p.Longitude }, 4),
		export.NumberColumn("Temperature (°C)", func(p models.GeoPoint) float64 { return p.Temperature }, 2),
		export.NumberColumn("Salinity (PSU)", func(p models.GeoPoint) float64 { return p.Salinity }, 2),
		export.TextColumn("Region", func(p models.GeoPoint) string { return p.Region }),
	}
}
