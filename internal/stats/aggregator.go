// Package stats keeps per-user daily and weekly workout totals in Redis hashes.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("stats store unavailable")

const (
	dailyTTL  = 90 * 24 * time.Hour
	weeklyTTL = 2 * 365 * 24 * time.Hour
)

// Entry is one workout's contribution. At decides the day and ISO week it counts towards.
type Entry struct {
	DistanceMeters  float64   `json:"distance_meters"`
	DurationSeconds int64     `json:"duration_seconds"`
	Calories        int       `json:"calories"`
	At              time.Time `json:"-"`
}

type Totals struct {
	Period          string  `json:"period"`
	Key             string  `json:"key"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int64   `json:"duration_seconds"`
	Calories        int64   `json:"calories"`
	Workouts        int64   `json:"workouts"`
}

type Aggregator struct {
	redis *redis.Client
}

func NewAggregator(rdb *redis.Client) *Aggregator {
	return &Aggregator{redis: rdb}
}

func (a *Aggregator) AddWorkoutData(ctx context.Context, userID string, e Entry) error {
	if a == nil || a.redis == nil {
		return ErrUnavailable
	}
	if userID == "" {
		return errors.New("stats: user id required")
	}
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	pipe := a.redis.TxPipeline()
	for _, k := range []struct {
		key string
		ttl time.Duration
	}{
		{dailyKey(userID, at), dailyTTL},
		{weeklyKey(userID, at), weeklyTTL},
	} {
		pipe.HIncrByFloat(ctx, k.key, "distance_meters", e.DistanceMeters)
		pipe.HIncrBy(ctx, k.key, "duration_seconds", e.DurationSeconds)
		pipe.HIncrBy(ctx, k.key, "calories", int64(e.Calories))
		pipe.HIncrBy(ctx, k.key, "workouts", 1)
		pipe.Expire(ctx, k.key, k.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stats: record workout: %w", err)
	}
	return nil
}

func (a *Aggregator) Daily(ctx context.Context, userID string, day time.Time) (Totals, error) {
	return a.read(ctx, "daily", day.Format("2006-01-02"), dailyKey(userID, day))
}

func (a *Aggregator) Weekly(ctx context.Context, userID string, day time.Time) (Totals, error) {
	return a.read(ctx, "weekly", isoWeek(day), weeklyKey(userID, day))
}

func (a *Aggregator) read(ctx context.Context, period, label, key string) (Totals, error) {
	if a == nil || a.redis == nil {
		return Totals{}, ErrUnavailable
	}
	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return Totals{}, fmt.Errorf("stats: read %s: %w", period, err)
	}

	t := Totals{Period: period, Key: label}
	t.DistanceMeters, _ = strconv.ParseFloat(fields["distance_meters"], 64)
	t.DurationSeconds, _ = strconv.ParseInt(fields["duration_seconds"], 10, 64)
	t.Calories, _ = strconv.ParseInt(fields["calories"], 10, 64)
	t.Workouts, _ = strconv.ParseInt(fields["workouts"], 10, 64)
	return t, nil
}

func dailyKey(userID string, t time.Time) string {
	return "stats:" + userID + ":daily:" + t.Format("2006-01-02")
}

func weeklyKey(userID string, t time.Time) string {
	return "stats:" + userID + ":weekly:" + isoWeek(t)
}

func isoWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
