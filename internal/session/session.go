// Package session holds the run session state machine:
//
//	idle -> running -> {paused <-> running} -> completed -> (reset) -> idle
//
// A Session is not safe for concurrent use. It is owned by a single writer
// (the tracking controller), which serializes every call.
package session

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	status            Status
	id                string
	startTime         time.Time
	endTime           time.Time
	pausedAccumulated time.Duration
	points            []RoutePoint
	targets           Targets

	newID func() string
}

func New() *Session {
	return &Session{status: StatusIdle, newID: uuid.NewString}
}

// NewWithIDs is New with a custom session id generator.
func NewWithIDs(newID func() string) *Session {
	s := New()
	if newID != nil {
		s.newID = newID
	}
	return s
}

func (s *Session) Status() Status { return s.status }

func (s *Session) ID() string { return s.id }

func (s *Session) StartTime() time.Time { return s.startTime }

func (s *Session) PausedAccumulated() time.Duration { return s.pausedAccumulated }

func (s *Session) PointCount() int { return len(s.points) }

// Points returns the recorded points. The slice must not be modified.
func (s *Session) Points() []RoutePoint { return s.points }

// Start begins a new run. Only valid from idle.
func (s *Session) Start(now time.Time, targets Targets) bool {
	if s.status != StatusIdle {
		return false
	}
	s.status = StatusRunning
	s.id = s.newID()
	s.startTime = now
	s.endTime = time.Time{}
	s.pausedAccumulated = 0
	s.points = nil
	s.targets = targets
	return true
}

// Pause is only valid while running. The pause start instant is tracked by the caller.
func (s *Session) Pause() bool {
	if s.status != StatusRunning {
		return false
	}
	s.status = StatusPaused
	return true
}

// Resume is only valid while paused; pausedFor is added to the paused total.
func (s *Session) Resume(pausedFor time.Duration) bool {
	if s.status != StatusPaused {
		return false
	}
	s.status = StatusRunning
	s.addPaused(pausedFor)
	return true
}

// AddPaused folds a still-open pause interval into the paused total without
// changing status. Used when completing straight from paused.
func (s *Session) AddPaused(d time.Duration) {
	if s.status == StatusPaused {
		s.addPaused(d)
	}
}

func (s *Session) addPaused(d time.Duration) {
	if d > 0 {
		s.pausedAccumulated += d
	}
}

// Complete is valid from running or paused.
func (s *Session) Complete(now time.Time) bool {
	if s.status != StatusRunning && s.status != StatusPaused {
		return false
	}
	s.status = StatusCompleted
	s.endTime = now
	return true
}

// Reset discards the session and returns to a fresh idle state. Valid from any state.
func (s *Session) Reset() {
	newID := s.newID
	*s = Session{status: StatusIdle, newID: newID}
}

// RecordPoint appends p while running. Points arriving in any other state are dropped.
func (s *Session) RecordPoint(p RoutePoint) bool {
	if s.status != StatusRunning {
		return false
	}
	s.points = append(s.points, p)
	return true
}

func (s *Session) Snapshot() Snapshot {
	points := make([]RoutePoint, len(s.points))
	copy(points, s.points)
	return Snapshot{
		ID:                s.id,
		Status:            s.status,
		StartTime:         s.startTime,
		EndTime:           s.endTime,
		PausedAccumulated: s.pausedAccumulated,
		Points:            points,
		Targets:           s.targets,
	}
}
