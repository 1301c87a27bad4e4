package session

import (
	"time"

	"backend-fitquest/internal/shared/geo"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// RoutePoint is one recorded GPS fix. Timestamp is unix milliseconds.
type RoutePoint struct {
	Latitude  float64  `json:"latitude" yaml:"latitude"`
	Longitude float64  `json:"longitude" yaml:"longitude"`
	Timestamp int64    `json:"timestamp" yaml:"timestamp"`
	Altitude  *float64 `json:"altitude,omitempty" yaml:"altitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	Heading   *float64 `json:"heading,omitempty" yaml:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
}

func (p RoutePoint) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

type Targets struct {
	DistanceMeters  *float64 `json:"target_distance_meters,omitempty"`
	DurationSeconds *int     `json:"target_duration_seconds,omitempty"`
}

// Snapshot is a read-only copy of a session taken at one instant.
type Snapshot struct {
	ID                string        `json:"session_id"`
	Status            Status        `json:"status"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time,omitempty"`
	PausedAccumulated time.Duration `json:"-"`
	Points            []RoutePoint  `json:"points"`
	Targets           Targets       `json:"targets"`
}

// ActiveDuration is the elapsed time between start and end minus paused time.
// It is zero for sessions that have not completed.
func (s Snapshot) ActiveDuration() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}
	d := s.EndTime.Sub(s.StartTime) - s.PausedAccumulated
	if d < 0 {
		return 0
	}
	return d
}
