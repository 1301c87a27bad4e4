package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"backend-fitquest/internal/location"

	"gopkg.in/yaml.v3"
)

// Route is a recorded or hand-written run to replay. Offsets are seconds from Start.
type Route struct {
	Name                 string    `yaml:"name"`
	WorkoutType          string    `yaml:"workout_type"`
	Timezone             string    `yaml:"timezone"`
	Start                time.Time `yaml:"start"`
	TargetDistanceMeters *float64  `yaml:"target_distance_meters"`
	Fixes                []Fix     `yaml:"fixes"`
	Pauses               []Pause   `yaml:"pauses"`
}

type Fix struct {
	Lat      float64  `yaml:"lat"`
	Lng      float64  `yaml:"lng"`
	T        float64  `yaml:"t"`
	Alt      *float64 `yaml:"alt"`
	Accuracy *float64 `yaml:"accuracy"`
}

type Pause struct {
	At  float64 `yaml:"at"`
	For float64 `yaml:"for"`
}

func loadRoute(path string) (Route, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Route{}, fmt.Errorf("read route: %w", err)
	}
	return parseRoute(raw)
}

func parseRoute(raw []byte) (Route, error) {
	var r Route
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return Route{}, fmt.Errorf("parse route: %w", err)
	}
	if len(r.Fixes) == 0 {
		return Route{}, errors.New("route has no fixes")
	}
	if r.Start.IsZero() {
		r.Start = time.Now().UTC().Truncate(time.Second)
	}
	if r.WorkoutType == "" {
		r.WorkoutType = "running"
	}
	sort.SliceStable(r.Fixes, func(i, j int) bool { return r.Fixes[i].T < r.Fixes[j].T })
	sort.SliceStable(r.Pauses, func(i, j int) bool { return r.Pauses[i].At < r.Pauses[j].At })
	return r, nil
}

func (r Route) at(offset float64) time.Time {
	return r.Start.Add(time.Duration(offset * float64(time.Second)))
}

func (r Route) position(f Fix) location.Position {
	return location.Position{
		Latitude:  f.Lat,
		Longitude: f.Lng,
		Timestamp: r.at(f.T).UnixMilli(),
		Altitude:  f.Alt,
		Accuracy:  f.Accuracy,
	}
}

func (r Route) timezone() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}
