package workout

import (
	"time"

	"backend-fitquest/internal/metrics"
	"backend-fitquest/internal/session"
)

// Payload is the body of a workout-completion call, built once per finished run.
type Payload struct {
	SessionID             string               `json:"session_id"`
	WorkoutType           string               `json:"workout_type"`
	StartTime             time.Time            `json:"start_time"`
	EndTime               time.Time            `json:"end_time"`
	Timezone              string               `json:"timezone"`
	TimezoneOffsetMinutes int                  `json:"timezone_offset_minutes"`
	TargetDistanceMeters  *float64             `json:"target_distance_meters,omitempty"`
	TargetDurationSeconds *int                 `json:"target_duration_seconds,omitempty"`
	GPSPoints             []session.RoutePoint `json:"gps_points"`
	CalculatedMetrics     metrics.Calculated   `json:"calculated_metrics"`
}

type Workout struct {
	ID                    string               `json:"id"`
	SessionID             string               `json:"session_id"`
	UserID                string               `json:"user_id"`
	WorkoutType           string               `json:"workout_type"`
	StartTime             time.Time            `json:"start_time"`
	EndTime               time.Time            `json:"end_time"`
	Timezone              string               `json:"timezone"`
	TimezoneOffsetMinutes int                  `json:"timezone_offset_minutes"`
	DistanceMeters        float64              `json:"distance_m"`
	DurationSeconds       int64                `json:"duration_sec"`
	Calories              int                  `json:"calories"`
	GPSPoints             []session.RoutePoint `json:"gps_points,omitempty"`
	CalculatedMetrics     *metrics.Calculated  `json:"calculated_metrics,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
}

type Ack struct {
	WorkoutID string `json:"workout_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}
