// Package models defines the data structures shared by the oceanboard client,
// its views and the development backend.
package models

import "strconv"

// Region names used by ocean observations.
const (
	RegionAtlantic = "Atlantic"
	RegionPacific  = "Pacific"
	RegionIndian   = "Indian"
	RegionArctic   = "Arctic"
	RegionSouthern = "Southern"
)

// Quality flags attached to an observation.
const (
	QualityGood = "Good"
	QualityPoor = "Poor"
)

// Regions lists every known region in display order.
var Regions = []string{RegionAtlantic, RegionPacific, RegionIndian, RegionArctic, RegionSouthern}

// Qualities lists every known quality flag.
var Qualities = []string{QualityGood, QualityPoor}

// Record is a single ocean observation.
// Records are never mutated once they are part of a dataset.
type Record struct {
	ID          string  `json:"id"`
	Timestamp   string  `json:"timestamp"` // ISO-8601
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Temperature float64 `json:"temperature"` // °C
	Salinity    float64 `json:"salinity"`    // PSU
	Pressure    float64 `json:"pressure"`    // dbar
	Depth       float64 `json:"depth"`       // meters
	Region      string  `json:"region"`
	Year        int     `json:"year"`
	Quality     string  `json:"quality"`
}

// YearString returns the year as a string, for enum filtering.
func (r Record) YearString() string {
	return strconv.Itoa(r.Year)
}

// Valid reports whether the record satisfies the coordinate and depth invariants.
func (r Record) Valid() bool {
	return r.Latitude >= -90 && r.Latitude <= 90 &&
		r.Longitude >= -180 && r.Longitude <= 180 &&
		r.Depth >= 0
}

// GeoPoint is a position-tagged measurement used by the map view.
type GeoPoint struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Temperature float64 `json:"temperature"`
	Salinity    float64 `json:"salinity"`
	Region      string  `json:"region"`
}

// MonthlyCount is the number of observations recorded in a month.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ProfilerStat summarizes one measured parameter across the profiler fleet.
type ProfilerStat struct {
	Parameter string  `json:"parameter"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Count     int     `json:"count"`
}
