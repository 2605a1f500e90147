package models

import "time"

type AlertKind string

const (
	AlertWeapon    AlertKind = "weapon"
	AlertTarget    AlertKind = "target"
	AlertProximity AlertKind = "proximity"
)

// Alert is an immutable record of a security relevant event.
type Alert struct {
	ID         string    `json:"id"`
	Kind       AlertKind `json:"kind"`
	Camera     int       `json:"camera"`
	Message    string    `json:"message"`
	Confidence float64   `json:"confidence,omitempty"`
	Distance   float64   `json:"distance,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Evidence   string    `json:"evidence,omitempty"`
	Subtype    string    `json:"subtype,omitempty"`
	TrackID    *int      `json:"track_id,omitempty"`
	TrackIDs   []int     `json:"track_ids,omitempty"` // proximity pair
}
