package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"backend-fitquest/internal/location"
	"backend-fitquest/internal/logging"
	"backend-fitquest/internal/session"
)

// DefaultCompletedRetention is how long a completed run stays readable before
// the registry forgets it.
const DefaultCompletedRetention = 5 * time.Minute

var (
	ErrRunNotFound = errors.New("run not found")
	ErrNotOwner    = errors.New("run belongs to another user")
)

type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
}

// PointJournal persists recorded points so a crashed run can be recovered.
type PointJournal interface {
	Append(ctx context.Context, sessionID string, p session.RoutePoint) error
	Clear(ctx context.Context, sessionID string) error
}

type StartRequest struct {
	WorkoutType           string                    `json:"workout_type"`
	LocationPermission    location.PermissionStatus `json:"location_permission"`
	TargetDistanceMeters  *float64                  `json:"target_distance_meters,omitempty"`
	TargetDurationSeconds *int                      `json:"target_duration_seconds,omitempty"`
	Timezone              string                    `json:"timezone,omitempty"`
	// InitialFix, when present, is served to the warmup fetch.
	InitialFix *location.Position `json:"initial_fix,omitempty"`
}

// Registry runs one controller per remote device, fed through a location.Feed.
type Registry struct {
	finalizer Finalizer
	cfg       Config
	hub       Broadcaster
	journal   PointJournal
	logger    *slog.Logger
	now       func() time.Time
	retain    time.Duration

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	userID      string
	controller  *Controller
	feed        *location.Feed
	tokens      *TokenHolder
	unsubscribe func()
	expiry      *time.Timer
}

// NewRegistry wires controllers to finalizer. hub and journal are optional.
func NewRegistry(finalizer Finalizer, cfg Config, hub Broadcaster, journal PointJournal, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		finalizer: finalizer,
		cfg:       cfg,
		hub:       hub,
		journal:   journal,
		logger:    logger,
		now:       time.Now,
		retain:    DefaultCompletedRetention,
		runs:      map[string]*activeRun{},
	}
}

func (r *Registry) Start(ctx context.Context, userID, token string, req StartRequest) (State, error) {
	loc := time.UTC
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return State{}, err
		}
		loc = l
	}
	permission := req.LocationPermission
	if permission == "" {
		permission = location.PermissionUndetermined
	}

	feed := location.NewFeed(permission).WithClock(r.now)
	if req.InitialFix != nil {
		feed.Push(*req.InitialFix)
	}

	opts := []Option{WithLogger(r.logger), WithClock(r.now)}
	if r.journal != nil {
		opts = append(opts, WithPointHook(r.appendPoint))
	}
	ctrl := New(feed, r.finalizer, r.cfg, opts...)
	run := &activeRun{
		userID:     userID,
		controller: ctrl,
		feed:       feed,
		tokens:     &TokenHolder{},
	}
	run.tokens.Set(token)
	if r.hub != nil {
		run.unsubscribe = ctrl.Subscribe(r.broadcast)
	}

	st, err := ctrl.Start(ctx, RunOptions{
		WorkoutType: req.WorkoutType,
		Targets: session.Targets{
			DistanceMeters:  req.TargetDistanceMeters,
			DurationSeconds: req.TargetDurationSeconds,
		},
		UserID:   userID,
		Timezone: loc,
		Tokens:   run.tokens,
	})
	if err != nil {
		r.teardown(run)
		return st, err
	}

	r.mu.Lock()
	r.runs[st.SessionID] = run
	r.mu.Unlock()
	return st, nil
}

// PushFixes feeds device fixes into the run and returns how many were accepted
// by its subscription.
func (r *Registry) PushFixes(userID, sessionID, token string, fixes []location.Position) (int, error) {
	run, err := r.lookup(userID, sessionID, token)
	if err != nil {
		return 0, err
	}
	accepted := 0
	for _, p := range fixes {
		accepted += run.feed.Push(p)
	}
	return accepted, nil
}

func (r *Registry) Pause(userID, sessionID, token string) (State, error) {
	run, err := r.lookup(userID, sessionID, token)
	if err != nil {
		return State{}, err
	}
	return run.controller.Pause(), nil
}

func (r *Registry) Resume(userID, sessionID, token string) (State, error) {
	run, err := r.lookup(userID, sessionID, token)
	if err != nil {
		return State{}, err
	}
	return run.controller.Resume()
}

// SetCompletedRetention changes how long completed runs stay readable. Zero or
// less forgets them as soon as Complete returns.
func (r *Registry) SetCompletedRetention(d time.Duration) {
	r.mu.Lock()
	r.retain = d
	r.mu.Unlock()
}

// Complete finalizes the run. The journal is cleared once the workout is uploaded,
// and the run is forgotten once the completed-run retention has passed.
func (r *Registry) Complete(ctx context.Context, userID, sessionID, token string) (State, error) {
	run, err := r.lookup(userID, sessionID, token)
	if err != nil {
		return State{}, err
	}
	st := run.controller.Complete(ctx)
	if r.journal != nil && st.Summary != nil && st.Summary.Uploaded {
		if err := r.journal.Clear(ctx, sessionID); err != nil {
			r.logger.Warn("journal clear failed", "session_id", sessionID, "error", err)
		}
	}
	if st.Status == session.StatusCompleted {
		r.expire(sessionID, run)
	}
	return st, nil
}

// Discard resets the run's controller, drops its journal and forgets the run.
func (r *Registry) Discard(ctx context.Context, userID, sessionID string) (State, error) {
	run, err := r.lookup(userID, sessionID, "")
	if err != nil {
		return State{}, err
	}
	st := run.controller.Reset()
	r.forget(sessionID, run)
	if r.journal != nil {
		if err := r.journal.Clear(ctx, sessionID); err != nil {
			r.logger.Warn("journal clear failed", "session_id", sessionID, "error", err)
		}
	}
	return st, nil
}

// Remove tears the run down without resetting it. Journaled points are kept.
func (r *Registry) Remove(userID, sessionID string) error {
	run, err := r.lookup(userID, sessionID, "")
	if err != nil {
		return err
	}
	r.forget(sessionID, run)
	return nil
}

func (r *Registry) Get(userID, sessionID string) (State, error) {
	run, err := r.lookup(userID, sessionID, "")
	if err != nil {
		return State{}, err
	}
	return run.controller.State(), nil
}

func (r *Registry) Points(userID, sessionID string) ([]session.RoutePoint, error) {
	run, err := r.lookup(userID, sessionID, "")
	if err != nil {
		return nil, err
	}
	return run.controller.Snapshot().Points, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

// Close tears down every run. Running sessions are not finalized.
func (r *Registry) Close() {
	r.mu.Lock()
	runs := r.runs
	r.runs = map[string]*activeRun{}
	r.mu.Unlock()

	for _, run := range runs {
		r.teardown(run)
	}
}

func (r *Registry) lookup(userID, sessionID, token string) (*activeRun, error) {
	r.mu.RLock()
	run, ok := r.runs[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRunNotFound
	}
	if run.userID != userID {
		return nil, ErrNotOwner
	}
	run.tokens.Set(token)
	return run, nil
}

// expire schedules a completed run to be forgotten. Repeated calls keep the
// first schedule.
func (r *Registry) expire(sessionID string, run *activeRun) {
	r.mu.Lock()
	if r.runs[sessionID] != run || run.expiry != nil {
		r.mu.Unlock()
		return
	}
	retain := r.retain
	if retain > 0 {
		run.expiry = time.AfterFunc(retain, func() { r.forget(sessionID, run) })
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.forget(sessionID, run)
}

func (r *Registry) forget(sessionID string, run *activeRun) {
	r.mu.Lock()
	if r.runs[sessionID] == run {
		delete(r.runs, sessionID)
	}
	r.mu.Unlock()
	r.teardown(run)
}

func (r *Registry) teardown(run *activeRun) {
	r.mu.Lock()
	if run.expiry != nil {
		run.expiry.Stop()
	}
	r.mu.Unlock()
	if run.unsubscribe != nil {
		run.unsubscribe()
	}
	run.controller.Close()
}

func (r *Registry) appendPoint(sessionID string, p session.RoutePoint) {
	if err := r.journal.Append(context.Background(), sessionID, p); err != nil {
		r.logger.Warn("journal append failed", "session_id", sessionID, "error", err)
	}
}

func (r *Registry) broadcast(st State) {
	if st.SessionID == "" {
		return
	}
	payload, err := json.Marshal(st)
	if err != nil {
		r.logger.Error("encode run state", "session_id", st.SessionID, "error", err)
		return
	}
	r.hub.Broadcast(st.SessionID, payload)
}
