package models

import "time"

// EvidenceRecord represents a persisted evidence image in the catalog.
type EvidenceRecord struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Kind       AlertKind `json:"kind"`
	Subtype    string    `json:"subtype"`
	Camera     int       `json:"camera"`
	TrackID    int       `json:"track_id"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	FilePath   string    `json:"filepath"`
	FileSize   int64     `json:"filesize"`
}

// EvidenceFilter contains filtering options for querying the catalog.
type EvidenceFilter struct {
	Kind   AlertKind
	Camera *int
	Since  time.Time
	Limit  int
	Offset int
}

// EvidenceContext describes the event an evidence image belongs to.
type EvidenceContext struct {
	Camera     int
	TrackID    int
	Kind       AlertKind
	Subtype    string
	Confidence float64
	At         time.Time
}

// EvidenceStats summarizes the catalog.
type EvidenceStats struct {
	Total          int               `json:"total"`
	TotalSizeBytes int64             `json:"total_size_bytes"`
	PerKind        map[AlertKind]int `json:"per_kind"`
	PerCamera      map[int]int       `json:"per_camera"`
}
