package domain

import "time"

// DetectionRecord is one entry in the detection history.
type DetectionRecord struct {
	ID           int64         `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Success      bool          `json:"success"`
	TotalObjects int           `json:"total_objects"`
	Labels       []PlasticType `json:"labels"`
	DurationMs   int64         `json:"duration_ms"`
}
