package models

import "time"

// TargetProfile is the registered identity persons are compared against.
// Treat it as read-only once published.
type TargetProfile struct {
	Embedding  []float32
	Threshold  float64
	Registered time.Time
}
