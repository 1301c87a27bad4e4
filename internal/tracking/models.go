package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-fitquest/internal/location"
	"backend-fitquest/internal/metrics"
	"backend-fitquest/internal/session"
	"backend-fitquest/internal/stats"
	"backend-fitquest/internal/workout"
)

var (
	ErrPermissionDenied = errors.New("location permission not granted")
	ErrSubscription     = errors.New("location subscription failed")
)

// State is the published view of a controller. Observers only ever see copies.
type State struct {
	SessionID    string                    `json:"session_id,omitempty"`
	Status       session.Status            `json:"status"`
	WorkoutType  string                    `json:"workout_type,omitempty"`
	AccuracyTier location.AccuracyTier     `json:"accuracy_tier,omitempty"`
	Upgraded     bool                      `json:"upgraded"`
	SampleCount  int                       `json:"sample_count"`
	PointCount   int                       `json:"point_count"`
	Metrics      metrics.Live              `json:"metrics"`
	Permission   location.PermissionStatus `json:"permission,omitempty"`
	LastPosition *location.Position        `json:"last_position,omitempty"`
	Error        string                    `json:"error,omitempty"`
	Finalizing   bool                      `json:"finalizing,omitempty"`
	Summary      *Summary                  `json:"summary,omitempty"`
}

type RunOptions struct {
	WorkoutType string
	Targets     session.Targets
	UserID      string
	// Timezone defaults to UTC.
	Timezone *time.Location
	// Tokens supplies the bearer token at finalize time. Nil means local-only completion.
	Tokens TokenSource
}

// Run is everything the finalizer needs about one completed session.
type Run struct {
	UserID      string
	WorkoutType string
	Timezone    *time.Location
	Snapshot    session.Snapshot
}

type Summary struct {
	SessionID     string             `json:"session_id"`
	Metrics       metrics.Calculated `json:"calculated_metrics"`
	Uploaded      bool               `json:"uploaded"`
	StatsRecorded bool               `json:"stats_recorded"`
	UploadError   string             `json:"upload_error,omitempty"`
	StatsError    string             `json:"stats_error,omitempty"`
}

type Finalizer interface {
	Finalize(ctx context.Context, run Run, token string) Summary
}

type Completer interface {
	CompleteWorkout(ctx context.Context, p workout.Payload, token string) error
}

type StatsRecorder interface {
	AddWorkoutData(ctx context.Context, userID string, e stats.Entry) error
}

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// TokenHolder keeps the most recent token seen for a run, so finalize uses a
// fresh token rather than the one the run was started with.
type TokenHolder struct {
	mu    sync.Mutex
	token string
}

func (h *TokenHolder) Set(token string) {
	if token == "" {
		return
	}
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *TokenHolder) Token(context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token, nil
}

func toRoutePoint(p location.Position) session.RoutePoint {
	return session.RoutePoint{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timestamp: p.Timestamp,
		Altitude:  p.Altitude,
		Accuracy:  p.Accuracy,
		Heading:   p.Heading,
		Speed:     p.Speed,
	}
}
