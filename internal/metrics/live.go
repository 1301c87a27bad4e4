// Package metrics derives run metrics from a route-point sequence. Every function
// here is pure: identical inputs always give identical outputs.
package metrics

import (
	"math"
	"time"

	"backend-fitquest/internal/session"
	"backend-fitquest/internal/shared/geo"
)

const (
	// AssumedWeightKg is used for calorie estimates; no body weight is collected.
	AssumedWeightKg = 70.0

	calorieFactor = 0.75

	minPaceDistanceKm = 0.001
	minLivePace       = 1.0
	maxLivePace       = 99.0

	currentPaceWindowMs = int64(30 * time.Second / time.Millisecond)
)

// Live is recomputed on every tick while a run is active.
type Live struct {
	DistanceMeters        float64 `json:"distance_meters"`
	ActiveDurationSeconds int64   `json:"active_duration_seconds"`
	CurrentPaceMinPerKm   float64 `json:"current_pace_min_per_km"`
	AveragePaceMinPerKm   float64 `json:"average_pace_min_per_km"`
	PaceDisplay           string  `json:"pace_display"`
	CaloriesKcal          int     `json:"calories_kcal"`
}

// TotalDistance sums the great-circle distance between consecutive points.
func TotalDistance(points []session.RoutePoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += geo.DistanceMeters(points[i-1].Coordinate(), points[i].Coordinate())
	}
	return total
}

func ComputeLive(points []session.RoutePoint, start time.Time, paused time.Duration, now time.Time) Live {
	distance := TotalDistance(points)
	seconds := ActiveSeconds(start, paused, now)
	average := livePace(float64(seconds)/60, distance/1000)
	current := currentPace(points, average)

	return Live{
		DistanceMeters:        math.Round(distance),
		ActiveDurationSeconds: seconds,
		CurrentPaceMinPerKm:   round2(current),
		AveragePaceMinPerKm:   round2(average),
		PaceDisplay:           FormatPace(average),
		CaloriesKcal:          EstimateCalories(distance),
	}
}

// ActiveSeconds is whole seconds between start and now excluding paused time, floored at 0.
func ActiveSeconds(start time.Time, paused time.Duration, now time.Time) int64 {
	if start.IsZero() {
		return 0
	}
	active := now.Sub(start) - paused
	if active <= 0 {
		return 0
	}
	return int64(active / time.Second)
}

// EstimateCalories is distanceKm x 70 kg x 0.75, rounded.
func EstimateCalories(distanceMeters float64) int {
	return int(math.Round(distanceMeters / 1000 * AssumedWeightKg * calorieFactor))
}

func livePace(minutes, km float64) float64 {
	if km < minPaceDistanceKm || minutes <= 0 {
		return 0
	}
	return clamp(minutes/km, minLivePace, maxLivePace)
}

// currentPace uses the trailing window of point timestamps. With fewer than two
// points in the window it falls back to the average pace.
func currentPace(points []session.RoutePoint, average float64) float64 {
	if len(points) < 2 {
		return average
	}
	last := points[len(points)-1].Timestamp
	first := len(points) - 1
	for first > 0 && points[first-1].Timestamp >= last-currentPaceWindowMs {
		first--
	}
	window := points[first:]
	if len(window) < 2 {
		return average
	}
	spanMs := window[len(window)-1].Timestamp - window[0].Timestamp
	if spanMs <= 0 {
		return average
	}
	return livePace(float64(spanMs)/60000, TotalDistance(window)/1000)
}
