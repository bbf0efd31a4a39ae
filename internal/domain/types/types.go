// Package types contains common types used across the application
package types

import "time"

// Analysis is the read shape returned by synchronous analysis.
type Analysis struct {
	DurationMS   int64   `json:"duration_ms"`
	Duration     string  `json:"duration"`
	ActionCount  int     `json:"action_count"`
	AverageSpeed float64 `json:"average_speed"`
	Gaps         int     `json:"gaps"`
	Segments     int     `json:"segments"`
	Summary      string  `json:"summary"`
}

// Entry represents a script library entry ranked by average speed
type Entry struct {
	Rank         int       `json:"rank"`
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	Creator      string    `json:"creator,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	Duration     string    `json:"duration"`
	ActionCount  int       `json:"action_count"`
	AverageSpeed float64   `json:"average_speed"`
	CreatedAt    time.Time `json:"created_at"`
}
