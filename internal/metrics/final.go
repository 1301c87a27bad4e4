package metrics

import (
	"math"
	"time"

	"backend-fitquest/internal/session"
)

const (
	metersPerMile = 1609.344

	minPaceMinPerKm   = 2.0
	maxPaceMinPerKm   = 20.0
	minPaceMinPerMile = 3.2
	maxPaceMinPerMile = 32.0
	minKmPerHour      = 3.0
	maxKmPerHour      = 30.0
	minMph            = 1.9
	maxMph            = 18.6

	CalorieFormula = "distance_km * weight_kg * 0.75"
)

type Distance struct {
	Meters     float64 `json:"meters"`
	Kilometers float64 `json:"kilometers"`
	Miles      float64 `json:"miles"`
}

type Duration struct {
	Seconds   int64   `json:"seconds"`
	Minutes   float64 `json:"minutes"`
	Formatted string  `json:"formatted"`
}

type Pace struct {
	MinPerKm          float64 `json:"min_per_km"`
	MinPerMile        float64 `json:"min_per_mile"`
	KmPerHour         float64 `json:"km_per_hour"`
	Mph               float64 `json:"mph"`
	MinPerKmDisplay   string  `json:"min_per_km_display"`
	MinPerMileDisplay string  `json:"min_per_mile_display"`
}

type Calories struct {
	Burned        int     `json:"burned"`
	Estimated     bool    `json:"estimated"`
	Formula       string  `json:"formula"`
	AssumedWeight float64 `json:"assumed_weight"`
}

// Calculated is the finalize-time summary of a completed run.
type Calculated struct {
	Distance         Distance          `json:"distance"`
	Duration         Duration          `json:"duration"`
	Pace             Pace              `json:"pace"`
	Calories         Calories          `json:"calories"`
	ElevationGain    float64           `json:"elevation_gain"`
	ElevationLoss    float64           `json:"elevation_loss"`
	ElevationProfile []ElevationSample `json:"elevation_profile"`
}

func ComputeFinal(s session.Snapshot) Calculated {
	return ComputeFinalFromPoints(s.Points, s.ActiveDuration())
}

// ComputeFinalFromPoints builds the summary from raw points and the active duration.
// Speeds and paces are clamped to human running bounds, which clips legitimately
// extreme efforts along with GPS jitter.
func ComputeFinalFromPoints(points []session.RoutePoint, active time.Duration) Calculated {
	meters := TotalDistance(points)
	km := meters / 1000
	miles := meters / metersPerMile

	seconds := int64(0)
	if active > 0 {
		seconds = int64(active / time.Second)
	}
	minutes := float64(seconds) / 60

	gain, loss, profile := Elevation(points)

	return Calculated{
		Distance: Distance{
			Meters:     math.Round(meters),
			Kilometers: round2(km),
			Miles:      round2(miles),
		},
		Duration: Duration{
			Seconds:   seconds,
			Minutes:   round2(minutes),
			Formatted: FormatDuration(seconds),
		},
		Pace: finalPace(km, miles, minutes),
		Calories: Calories{
			Burned:        EstimateCalories(meters),
			Estimated:     true,
			Formula:       CalorieFormula,
			AssumedWeight: AssumedWeightKg,
		},
		ElevationGain:    gain,
		ElevationLoss:    loss,
		ElevationProfile: profile,
	}
}

// finalPace always lands inside the clamp ranges. Under a metre of distance the
// run counts as the slowest pace; with no active time it counts as the fastest.
// Only a run with neither has no pace at all.
func finalPace(km, miles, minutes float64) Pace {
	stationary := km < minPaceDistanceKm
	if stationary && minutes <= 0 {
		return Pace{MinPerKmDisplay: noPace, MinPerMileDisplay: noPace}
	}

	var perKm, perMile, kmh, mph float64
	switch {
	case stationary:
		perKm, perMile, kmh, mph = maxPaceMinPerKm, maxPaceMinPerMile, minKmPerHour, minMph
	case minutes <= 0:
		perKm, perMile, kmh, mph = minPaceMinPerKm, minPaceMinPerMile, maxKmPerHour, maxMph
	default:
		hours := minutes / 60
		perKm = clamp(minutes/km, minPaceMinPerKm, maxPaceMinPerKm)
		perMile = clamp(minutes/miles, minPaceMinPerMile, maxPaceMinPerMile)
		kmh = clamp(km/hours, minKmPerHour, maxKmPerHour)
		mph = clamp(miles/hours, minMph, maxMph)
	}
	return Pace{
		MinPerKm:          round2(perKm),
		MinPerMile:        round2(perMile),
		KmPerHour:         round2(kmh),
		Mph:               round2(mph),
		MinPerKmDisplay:   FormatPace(perKm),
		MinPerMileDisplay: FormatPace(perMile),
	}
}
