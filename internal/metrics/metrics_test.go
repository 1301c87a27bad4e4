package metrics

import (
	"math"
	"reflect"
	"testing"
	"time"

	"backend-fitquest/internal/session"
)

func alt(v float64) *float64 { return &v }

func TestTotalDistanceShortSequences(t *testing.T) {
	if d := TotalDistance(nil); d != 0 {
		t.Fatalf("expected 0 for no points, got %v", d)
	}
	one := []session.RoutePoint{{Latitude: 1, Longitude: 1}}
	if d := TotalDistance(one); d != 0 {
		t.Fatalf("expected 0 for single point, got %v", d)
	}
}

func TestComputeLiveOneMinuteScenario(t *testing.T) {
	start := time.UnixMilli(0)
	points := []session.RoutePoint{
		{Latitude: 0, Longitude: 0, Timestamp: 0},
		{Latitude: 0, Longitude: 0.001, Timestamp: 60000},
	}

	live := ComputeLive(points, start, 0, start.Add(time.Minute))
	if live.DistanceMeters != 111 {
		t.Fatalf("expected ~111m, got %v", live.DistanceMeters)
	}
	if live.ActiveDurationSeconds != 60 {
		t.Fatalf("expected 60s, got %d", live.ActiveDurationSeconds)
	}
	if math.Abs(live.AveragePaceMinPerKm-9.0) > 0.05 {
		t.Fatalf("expected pace ~9.0, got %v", live.AveragePaceMinPerKm)
	}
	if live.PaceDisplay != "09:00" {
		t.Fatalf("unexpected pace display %q", live.PaceDisplay)
	}
	if live.CaloriesKcal != 6 {
		t.Fatalf("expected 6 kcal, got %d", live.CaloriesKcal)
	}
}

func TestComputeLiveIsPure(t *testing.T) {
	start := time.UnixMilli(1_000)
	points := []session.RoutePoint{
		{Latitude: -6.2, Longitude: 106.8, Timestamp: 1_000},
		{Latitude: -6.2005, Longitude: 106.8004, Timestamp: 31_000},
		{Latitude: -6.201, Longitude: 106.8008, Timestamp: 61_000},
	}
	now := start.Add(90 * time.Second)
	a := ComputeLive(points, start, 5*time.Second, now)
	b := ComputeLive(points, start, 5*time.Second, now)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical output, got %+v vs %+v", a, b)
	}
}

func TestComputeLiveDurationFlooredAtZero(t *testing.T) {
	start := time.UnixMilli(10_000)
	live := ComputeLive(nil, start, time.Minute, start.Add(time.Second))
	if live.ActiveDurationSeconds != 0 {
		t.Fatalf("expected 0s, got %d", live.ActiveDurationSeconds)
	}
	if live.AveragePaceMinPerKm != 0 || live.PaceDisplay != "--:--" {
		t.Fatalf("expected no pace, got %+v", live)
	}
}

func TestComputeLiveNearZeroDistanceClampsPace(t *testing.T) {
	start := time.UnixMilli(0)
	points := []session.RoutePoint{
		{Latitude: 0, Longitude: 0, Timestamp: 0},
		{Latitude: 0, Longitude: 0.00001, Timestamp: 60000},
	}
	live := ComputeLive(points, start, 0, start.Add(time.Minute))
	if live.AveragePaceMinPerKm != maxLivePace {
		t.Fatalf("expected clamped pace %v, got %v", maxLivePace, live.AveragePaceMinPerKm)
	}
	if math.IsNaN(live.CurrentPaceMinPerKm) || math.IsInf(live.CurrentPaceMinPerKm, 0) {
		t.Fatalf("current pace must be finite")
	}
}

func TestComputeLiveBelowOneMeterHasNoPace(t *testing.T) {
	start := time.UnixMilli(0)
	points := []session.RoutePoint{
		{Latitude: 0, Longitude: 0, Timestamp: 0},
		{Latitude: 0, Longitude: 0.000004, Timestamp: 60000},
	}
	live := ComputeLive(points, start, 0, start.Add(time.Minute))
	if live.AveragePaceMinPerKm != 0 || live.PaceDisplay != "--:--" {
		t.Fatalf("expected no pace, got %+v", live)
	}
}

func TestCurrentPaceUsesTrailingWindow(t *testing.T) {
	start := time.UnixMilli(0)
	points := []session.RoutePoint{
		{Latitude: 0, Longitude: 0, Timestamp: 0},
		// slow first minute
		{Latitude: 0, Longitude: 0.001, Timestamp: 60_000},
		// fast last 20 seconds: ~111m
		{Latitude: 0, Longitude: 0.002, Timestamp: 80_000},
	}
	live := ComputeLive(points, start, 0, start.Add(80*time.Second))
	if live.CurrentPaceMinPerKm >= live.AveragePaceMinPerKm {
		t.Fatalf("expected current pace faster than average: %+v", live)
	}
	if math.Abs(live.CurrentPaceMinPerKm-3.0) > 0.05 {
		t.Fatalf("expected current pace ~3.0, got %v", live.CurrentPaceMinPerKm)
	}
}

func TestFormatPace(t *testing.T) {
	cases := map[float64]string{
		0:          "--:--",
		-1:         "--:--",
		math.NaN(): "--:--",
		5.5:        "05:30",
		8.999:      "09:00",
		12.25:      "12:15",
	}
	for in, want := range cases {
		if got := FormatPace(in); got != want {
			t.Fatalf("FormatPace(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(59); got != "00:59" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatDuration(3725); got != "1:02:05" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatDuration(-3); got != "00:00" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestElevationSkipsNonPositiveAltitudes(t *testing.T) {
	points := []session.RoutePoint{
		{Latitude: 0, Longitude: 0, Altitude: alt(100)},
		{Latitude: 0, Longitude: 0.001},
		{Latitude: 0, Longitude: 0.002, Altitude: alt(0)},
		{Latitude: 0, Longitude: 0.003, Altitude: alt(110)},
		{Latitude: 0, Longitude: 0.004, Altitude: alt(105)},
		{Latitude: 0, Longitude: 0.005, Altitude: alt(-5)},
		{Latitude: 0, Longitude: 0.006, Altitude: alt(120)},
	}
	gain, loss, profile := Elevation(points)
	if gain != 25 || loss != 5 {
		t.Fatalf("expected gain 25 loss 5, got %v %v", gain, loss)
	}
	if len(profile) != 4 {
		t.Fatalf("expected 4 profile samples, got %d", len(profile))
	}
	if profile[1].DistanceMeters < 333 || profile[1].DistanceMeters > 334 {
		t.Fatalf("expected cumulative distance along full route, got %v", profile[1].DistanceMeters)
	}
}

func TestElevationProfileDownsampled(t *testing.T) {
	points := make([]session.RoutePoint, 1000)
	for i := range points {
		points[i] = session.RoutePoint{Latitude: 0, Longitude: float64(i) * 0.0001, Altitude: alt(float64(100 + i%7))}
	}
	_, _, profile := Elevation(points)
	if len(profile) > maxProfileSamples+1 {
		t.Fatalf("expected at most %d samples, got %d", maxProfileSamples+1, len(profile))
	}
	if profile[len(profile)-1].AltitudeMeters != float64(100+999%7) {
		t.Fatalf("expected last sample retained")
	}
}

func TestElevationEmptyProfileIsNotNil(t *testing.T) {
	_, _, profile := Elevation(nil)
	if profile == nil {
		t.Fatalf("expected empty, non-nil profile")
	}
}

func TestComputeFinalScenario(t *testing.T) {
	start := time.UnixMilli(0)
	snap := session.Snapshot{
		Status:    session.StatusCompleted,
		StartTime: start,
		EndTime:   start.Add(70 * time.Second),
		// 10 seconds paused
		PausedAccumulated: 10 * time.Second,
		Points: []session.RoutePoint{
			{Latitude: 0, Longitude: 0, Timestamp: 0},
			{Latitude: 0, Longitude: 0.001, Timestamp: 70000},
		},
	}

	calc := ComputeFinal(snap)
	if calc.Distance.Meters != 111 || calc.Distance.Kilometers != 0.11 || calc.Distance.Miles != 0.07 {
		t.Fatalf("unexpected distance: %+v", calc.Distance)
	}
	if calc.Duration.Seconds != 60 || calc.Duration.Formatted != "01:00" || calc.Duration.Minutes != 1 {
		t.Fatalf("unexpected duration: %+v", calc.Duration)
	}
	if math.Abs(calc.Pace.MinPerKm-8.99) > 0.01 || calc.Pace.MinPerKmDisplay != "09:00" {
		t.Fatalf("unexpected pace: %+v", calc.Pace)
	}
	if math.Abs(calc.Pace.KmPerHour-6.67) > 0.01 {
		t.Fatalf("unexpected speed: %+v", calc.Pace)
	}
	if calc.Calories.Burned != 6 || !calc.Calories.Estimated || calc.Calories.AssumedWeight != 70 || calc.Calories.Formula != CalorieFormula {
		t.Fatalf("unexpected calories: %+v", calc.Calories)
	}
}

func TestComputeFinalClampsJitter(t *testing.T) {
	points := []session.RoutePoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.00001},
	}
	calc := ComputeFinalFromPoints(points, time.Minute)
	p := calc.Pace
	if p.MinPerKm != maxPaceMinPerKm || p.MinPerMile != maxPaceMinPerMile {
		t.Fatalf("expected slowest pace clamps, got %+v", p)
	}
	if p.KmPerHour != minKmPerHour || p.Mph != minMph {
		t.Fatalf("expected minimum speed clamps, got %+v", p)
	}

	// ~1.1km in one minute
	fast := []session.RoutePoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.01},
	}
	calc = ComputeFinalFromPoints(fast, time.Minute)
	if calc.Pace.MinPerKm != minPaceMinPerKm || calc.Pace.KmPerHour != maxKmPerHour || calc.Pace.Mph != maxMph {
		t.Fatalf("expected fastest clamps, got %+v", calc.Pace)
	}
}

func TestComputeFinalWithoutDistance(t *testing.T) {
	calc := ComputeFinalFromPoints(nil, 5*time.Minute)
	if calc.Pace.MinPerKm != maxPaceMinPerKm || calc.Pace.MinPerMile != maxPaceMinPerMile {
		t.Fatalf("expected slowest pace clamps, got %+v", calc.Pace)
	}
	if calc.Pace.KmPerHour != minKmPerHour || calc.Pace.Mph != minMph {
		t.Fatalf("expected slowest speed clamps, got %+v", calc.Pace)
	}
	if calc.Pace.MinPerKmDisplay != "20:00" || calc.Pace.MinPerMileDisplay != "32:00" {
		t.Fatalf("unexpected pace display %+v", calc.Pace)
	}
	if calc.Duration.Seconds != 300 {
		t.Fatalf("expected duration kept, got %+v", calc.Duration)
	}
}

func TestComputeFinalSubMetreDistanceClamps(t *testing.T) {
	// about 0.4 m of jitter over five minutes
	points := []session.RoutePoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.0000036},
	}
	calc := ComputeFinalFromPoints(points, 5*time.Minute)
	if calc.Pace.MinPerKm != maxPaceMinPerKm || calc.Pace.KmPerHour != minKmPerHour {
		t.Fatalf("expected slowest clamps, got %+v", calc.Pace)
	}
}

func TestComputeFinalWithoutActiveTime(t *testing.T) {
	points := []session.RoutePoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.001},
	}
	calc := ComputeFinalFromPoints(points, 0)
	if calc.Pace.MinPerKm != minPaceMinPerKm || calc.Pace.KmPerHour != maxKmPerHour {
		t.Fatalf("expected fastest clamps, got %+v", calc.Pace)
	}

	empty := ComputeFinalFromPoints(nil, 0)
	if empty.Pace.MinPerKm != 0 || empty.Pace.MinPerKmDisplay != "--:--" {
		t.Fatalf("a run with no distance and no time has no pace, got %+v", empty.Pace)
	}
}
