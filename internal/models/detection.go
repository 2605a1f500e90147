package models

import "image"

// NoTrack is the track id of a detection the tracker could not follow.
const NoTrack = -1

// Role is what the pipeline does with a detector class.
type Role int

const (
	RoleOther Role = iota
	RolePerson
	RoleWeapon
)

func (r Role) String() string {
	switch r {
	case RolePerson:
		return "person"
	case RoleWeapon:
		return "weapon"
	default:
		return "other"
	}
}

// Detection represents one tracked object in one frame.
type Detection struct {
	Box        image.Rectangle `json:"box"`
	ClassID    int             `json:"class_id"`
	Class      string          `json:"class"`
	Confidence float64         `json:"confidence"`
	TrackID    int             `json:"track_id"`
}

// Center returns the integer center of the bounding box.
func (d Detection) Center() image.Point {
	return image.Pt((d.Box.Min.X+d.Box.Max.X)/2, (d.Box.Min.Y+d.Box.Max.Y)/2)
}

// Tracked reports whether the detection carries identity across frames.
func (d Detection) Tracked() bool {
	return d.TrackID != NoTrack
}
