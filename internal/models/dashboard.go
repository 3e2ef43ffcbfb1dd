package models

import "time"

// DashboardStats holds the summary cards shown on the dashboard.
type DashboardStats struct {
	TotalRecords   int       `json:"total_records"`
	UniqueRegions  int       `json:"unique_regions"`
	Regions        []string  `json:"regions"`
	AvgTemperature float64   `json:"avg_temperature"`
	AvgSalinity    float64   `json:"avg_salinity"`
	ActiveFloats   int       `json:"active_floats"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Activity is one entry in a user's activity feed.
type Activity struct {
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// UserStats aggregates per-user usage counters.
type UserStats struct {
	Uploads  int `json:"uploads"`
	Exports  int `json:"exports"`
	Queries  int `json:"queries"`
	Sessions int `json:"sessions"`
}

// Notification is a message shown in the notification tray.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
