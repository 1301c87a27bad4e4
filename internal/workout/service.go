package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend-fitquest/internal/db"
	"backend-fitquest/internal/metrics"
	"backend-fitquest/internal/session"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrAlreadyCompleted = errors.New("workout already completed for this session")
	ErrInvalidPayload   = errors.New("invalid workout payload")
)

const defaultListLimit = 20

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Complete(ctx context.Context, userID string, p Payload) (Workout, error) {
	if err := validate(userID, p); err != nil {
		return Workout{}, err
	}
	points, err := json.Marshal(pointsOrEmpty(p.GPSPoints))
	if err != nil {
		return Workout{}, fmt.Errorf("encode gps points: %w", err)
	}
	calculated, err := json.Marshal(p.CalculatedMetrics)
	if err != nil {
		return Workout{}, fmt.Errorf("encode metrics: %w", err)
	}

	w := Workout{
		ID:                    uuid.NewString(),
		SessionID:             p.SessionID,
		UserID:                userID,
		WorkoutType:           p.WorkoutType,
		StartTime:             p.StartTime,
		EndTime:               p.EndTime,
		Timezone:              p.Timezone,
		TimezoneOffsetMinutes: p.TimezoneOffsetMinutes,
		DistanceMeters:        p.CalculatedMetrics.Distance.Meters,
		DurationSeconds:       p.CalculatedMetrics.Duration.Seconds,
		Calories:              p.CalculatedMetrics.Calories.Burned,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO workouts (id, session_id, user_id, workout_type, start_time, end_time, timezone,
			timezone_offset_minutes, distance_m, duration_sec, calories, gps_points, calculated_metrics)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING created_at
	`, w.ID, w.SessionID, w.UserID, w.WorkoutType, w.StartTime, w.EndTime, w.Timezone,
		w.TimezoneOffsetMinutes, w.DistanceMeters, w.DurationSeconds, w.Calories, points, calculated)
	if err := row.Scan(&w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workout{}, ErrAlreadyCompleted
		}
		return Workout{}, err
	}
	return w, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Workout, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, session_id, user_id, workout_type, start_time, end_time, timezone, timezone_offset_minutes,
			distance_m, duration_sec, calories, gps_points, calculated_metrics, created_at
		FROM workouts WHERE id=$1 AND user_id=$2
	`, id, userID)

	var (
		w          Workout
		points     []byte
		calculated []byte
	)
	if err := row.Scan(&w.ID, &w.SessionID, &w.UserID, &w.WorkoutType, &w.StartTime, &w.EndTime, &w.Timezone,
		&w.TimezoneOffsetMinutes, &w.DistanceMeters, &w.DurationSeconds, &w.Calories, &points, &calculated, &w.CreatedAt); err != nil {
		return Workout{}, err
	}
	if err := json.Unmarshal(points, &w.GPSPoints); err != nil {
		return Workout{}, fmt.Errorf("decode gps points: %w", err)
	}
	var m metrics.Calculated
	if err := json.Unmarshal(calculated, &m); err != nil {
		return Workout{}, fmt.Errorf("decode metrics: %w", err)
	}
	w.CalculatedMetrics = &m
	return w, nil
}

// List returns the user's workouts, newest first, without GPS points.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Workout, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultListLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, user_id, workout_type, start_time, end_time, timezone, timezone_offset_minutes,
			distance_m, duration_sec, calories, created_at
		FROM workouts WHERE user_id=$1
		ORDER BY start_time DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := []Workout{}
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.SessionID, &w.UserID, &w.WorkoutType, &w.StartTime, &w.EndTime, &w.Timezone,
			&w.TimezoneOffsetMinutes, &w.DistanceMeters, &w.DurationSeconds, &w.Calories, &w.CreatedAt); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func validate(userID string, p Payload) error {
	switch {
	case userID == "":
		return fmt.Errorf("%w: user_id required", ErrInvalidPayload)
	case p.SessionID == "":
		return fmt.Errorf("%w: session_id required", ErrInvalidPayload)
	case p.StartTime.IsZero() || p.EndTime.Before(p.StartTime):
		return fmt.Errorf("%w: end_time must not precede start_time", ErrInvalidPayload)
	}
	return nil
}

func pointsOrEmpty(points []session.RoutePoint) []session.RoutePoint {
	if points == nil {
		return []session.RoutePoint{}
	}
	return points
}
