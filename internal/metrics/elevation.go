package metrics

import (
	"backend-fitquest/internal/session"
	"backend-fitquest/internal/shared/geo"
)

const maxProfileSamples = 200

type ElevationSample struct {
	DistanceMeters float64 `json:"distance_m"`
	AltitudeMeters float64 `json:"altitude_m"`
}

// Elevation accumulates gain and loss across consecutive points that carry a
// positive altitude. Points without one are skipped before deltas are taken,
// so the delta spans the gap between retained samples.
func Elevation(points []session.RoutePoint) (gain, loss float64, profile []ElevationSample) {
	var (
		cumulative  float64
		previous    float64
		hasPrevious bool
		retained    []ElevationSample
	)

	for i, p := range points {
		if i > 0 {
			cumulative += geo.DistanceMeters(points[i-1].Coordinate(), p.Coordinate())
		}
		if p.Altitude == nil || *p.Altitude <= 0 {
			continue
		}
		alt := *p.Altitude
		if hasPrevious {
			diff := alt - previous
			if diff > 0 {
				gain += diff
			} else {
				loss -= diff
			}
		}
		previous = alt
		hasPrevious = true
		retained = append(retained, ElevationSample{DistanceMeters: round2(cumulative), AltitudeMeters: round2(alt)})
	}

	return round2(gain), round2(loss), downsample(retained, maxProfileSamples)
}

func downsample(samples []ElevationSample, limit int) []ElevationSample {
	if len(samples) <= limit {
		if samples == nil {
			return []ElevationSample{}
		}
		return samples
	}
	stride := (len(samples) + limit - 1) / limit
	out := make([]ElevationSample, 0, limit+1)
	for i := 0; i < len(samples); i += stride {
		out = append(out, samples[i])
	}
	if last := samples[len(samples)-1]; out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}
