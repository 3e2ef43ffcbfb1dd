package models

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chart types understood by the charting layer.
const (
	ChartLine      = "line"
	ChartScatter   = "scatter"
	ChartBar       = "bar"
	ChartHistogram = "histogram"
	ChartMap       = "map"
)

// ChatSession represents a conversation with the insights assistant.
type ChatSession struct {
	ID        string    `json:"session_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is a single turn in a chat session.
// Messages are appended in order and never edited.
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Charts    []ChartSpec `json:"charts,omitempty"`
}

// ChartSpec is a declarative figure description.
type ChartSpec struct {
	Type   string   `json:"type"`
	Title  string   `json:"title"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	Series []Series `json:"series"`
}

// Series is one named trace of a chart.
type Series struct {
	Name string    `json:"name"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}
