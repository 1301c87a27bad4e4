package tracking

import (
	"context"
	"log/slog"
	"time"

	"backend-fitquest/internal/logging"
	"backend-fitquest/internal/metrics"
	"backend-fitquest/internal/session"
	"backend-fitquest/internal/stats"
	"backend-fitquest/internal/workout"
)

// RunFinalizer uploads a completed run and records it in the stats aggregator.
// The two hand-offs are independent and neither failure undoes completion.
type RunFinalizer struct {
	Completer Completer
	Stats     StatsRecorder
	Logger    *slog.Logger
	// Report is called for every hand-off failure, e.g. reporting.Capture.
	Report func(stage string, err error, tags map[string]string)
}

func NewRunFinalizer(completer Completer, statsRecorder StatsRecorder, logger *slog.Logger) *RunFinalizer {
	return &RunFinalizer{Completer: completer, Stats: statsRecorder, Logger: logger}
}

func (f *RunFinalizer) Finalize(ctx context.Context, run Run, token string) Summary {
	snap := run.Snapshot
	calculated := metrics.ComputeFinal(snap)
	summary := Summary{SessionID: snap.ID, Metrics: calculated}
	logger := f.logger().With("session_id", snap.ID, "user_id", run.UserID)
	tags := map[string]string{"session_id": snap.ID, "user_id": run.UserID}

	switch {
	case f.Completer == nil:
	case token == "":
		logger.Info("no auth token, workout kept locally")
	default:
		if err := f.Completer.CompleteWorkout(ctx, BuildPayload(run, calculated), token); err != nil {
			summary.UploadError = err.Error()
			logger.Error("workout upload failed", "error", err)
			f.report("workout_upload", err, tags)
		} else {
			summary.Uploaded = true
		}
	}

	if f.Stats != nil {
		entry := stats.Entry{
			DistanceMeters:  calculated.Distance.Meters,
			DurationSeconds: calculated.Duration.Seconds,
			Calories:        calculated.Calories.Burned,
			At:              snap.StartTime.In(timezone(run.Timezone)),
		}
		if err := f.Stats.AddWorkoutData(ctx, run.UserID, entry); err != nil {
			summary.StatsError = err.Error()
			logger.Error("stats update failed", "error", err)
			f.report("stats_update", err, tags)
		} else {
			summary.StatsRecorded = true
		}
	}
	return summary
}

// BuildPayload assembles the workout-completion body for a completed run.
func BuildPayload(run Run, calculated metrics.Calculated) workout.Payload {
	snap := run.Snapshot
	loc := timezone(run.Timezone)
	start := snap.StartTime.In(loc)
	_, offset := start.Zone()

	points := snap.Points
	if points == nil {
		points = []session.RoutePoint{}
	}
	return workout.Payload{
		SessionID:             snap.ID,
		WorkoutType:           run.WorkoutType,
		StartTime:             start,
		EndTime:               snap.EndTime.In(loc),
		Timezone:              loc.String(),
		TimezoneOffsetMinutes: offset / 60,
		TargetDistanceMeters:  snap.Targets.DistanceMeters,
		TargetDurationSeconds: snap.Targets.DurationSeconds,
		GPSPoints:             points,
		CalculatedMetrics:     calculated,
	}
}

func timezone(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

func (f *RunFinalizer) logger() *slog.Logger {
	if f.Logger == nil {
		return logging.Discard()
	}
	return f.Logger
}

func (f *RunFinalizer) report(stage string, err error, tags map[string]string) {
	if f.Report != nil {
		f.Report(stage, err, tags)
	}
}
