package metrics

import (
	"fmt"
	"math"
)

const noPace = "--:--"

// FormatPace renders minutes-per-unit as zero-padded MM:SS.
func FormatPace(pace float64) string {
	if pace <= 0 || math.IsNaN(pace) || math.IsInf(pace, 0) {
		return noPace
	}
	minutes := math.Floor(pace)
	seconds := math.Round((pace - minutes) * 60)
	if seconds >= 60 {
		minutes++
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", int(minutes), int(seconds))
}

// FormatDuration renders H:MM:SS from one hour upwards, MM:SS below.
func FormatDuration(totalSeconds int64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
