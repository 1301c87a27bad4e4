// Package tracking drives a run session from a location provider: it owns the
// subscription (with its one-shot accuracy upgrade) and the metrics timer, feeds
// samples into the session, and hands completed sessions to a Finalizer.
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"backend-fitquest/internal/location"
	"backend-fitquest/internal/logging"
	"backend-fitquest/internal/metrics"
	"backend-fitquest/internal/session"
)

// Controller serializes every session mutation behind mu. Awaits on the
// provider (permission, warmup) and on the finalizer happen outside mu, and
// observers are notified outside mu.
//
// Providers must not call back into the controller synchronously from
// WatchPosition or Subscription.Remove; both may be called with mu held.
type Controller struct {
	provider  location.Provider
	finalizer Finalizer
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
	onPoint   func(sessionID string, p session.RoutePoint)

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	sess           *session.Session
	run            RunOptions
	permission     location.PermissionStatus
	sub            location.Subscription
	subGen         uint64
	timer          *metricsTimer
	timerGen       uint64
	tier           tierState
	accuracy       location.AccuracyTier
	samples        int
	pauseStartedAt time.Time
	live           metrics.Live
	lastPos        *location.Position
	lastErr        error
	summary        *Summary
	starting       bool
	finalizing     bool
	epoch          uint64
	closed         bool

	obsMu     sync.Mutex
	observers map[int]func(State)
	nextObs   int
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithPointHook observes every recorded point, outside the controller lock.
func WithPointHook(fn func(sessionID string, p session.RoutePoint)) Option {
	return func(c *Controller) { c.onPoint = fn }
}

func WithSessionIDs(newID func() string) Option {
	return func(c *Controller) { c.sess = session.NewWithIDs(newID) }
}

// New returns an idle controller. finalizer may be nil, in which case completed
// sessions are summarized locally only.
func New(provider location.Provider, finalizer Finalizer, cfg Config, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		provider:  provider,
		finalizer: finalizer,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		logger:    logging.Discard(),
		ctx:       ctx,
		cancel:    cancel,
		sess:      session.New(),
		observers: map[int]func(State){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn for every published state and returns its unsubscribe func.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.nextObs++
	id := c.nextObs
	c.observers[id] = fn
	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Snapshot returns a copy of the underlying session.
func (c *Controller) Snapshot() session.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Snapshot()
}

// Start acquires permission, tries a warmup fix, opens the relaxed
// subscription and starts the metrics timer. A denied permission or failed
// subscription leaves the controller idle with the error recorded on State.
// Calling Start while not idle is a no-op.
func (c *Controller) Start(ctx context.Context, opts RunOptions) (State, error) {
	c.mu.Lock()
	if c.closed || c.starting || c.sess.Status() != session.StatusIdle {
		st := c.stateLocked()
		c.mu.Unlock()
		return st, nil
	}
	c.starting = true
	c.lastErr = nil
	epoch := c.epoch
	c.mu.Unlock()

	permission, err := c.ensurePermission(ctx)
	if err != nil {
		return c.abortStart(epoch, permission, err)
	}

	warm, warmErr := c.provider.CurrentPosition(ctx, c.cfg.Relaxed.Accuracy, c.cfg.WarmupTimeout, c.cfg.WarmupMaxAge)
	if warmErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c.abortStart(epoch, permission, ctxErr)
		}
		c.logger.Debug("warmup fix unavailable", "error", warmErr)
	}

	c.mu.Lock()
	c.permission = permission
	if c.closed || c.epoch != epoch {
		c.starting = false
		st := c.stateLocked()
		c.mu.Unlock()
		return st, nil
	}

	c.subGen++
	sub, err := c.provider.WatchPosition(c.ctx, c.cfg.Relaxed, c.sampleHandler(c.subGen))
	if err != nil {
		c.starting = false
		c.lastErr = fmt.Errorf("%w: %v", ErrSubscription, err)
		st := c.stateLocked()
		c.mu.Unlock()
		c.logger.Warn("location subscription failed", "error", err)
		c.notify(st)
		return st, c.lastErr
	}

	now := c.now()
	c.sess.Start(now, opts.Targets)
	c.run = opts
	c.sub = sub
	c.tier = tierRelaxed
	c.accuracy = c.cfg.Relaxed.Accuracy
	c.samples = 0
	c.summary = nil

	var warmPoint *session.RoutePoint
	if warmErr == nil {
		p := toRoutePoint(warm)
		c.sess.RecordPoint(p)
		c.lastPos = &warm
		warmPoint = &p
	}
	c.startTimerLocked()
	c.live = metrics.ComputeLive(c.sess.Points(), c.sess.StartTime(), c.sess.PausedAccumulated(), now)
	c.starting = false
	sessionID := c.sess.ID()
	st := c.stateLocked()
	c.mu.Unlock()

	c.logger.Info("run started", "session_id", sessionID, "user_id", opts.UserID, "warmup", warmErr == nil)
	if warmPoint != nil && c.onPoint != nil {
		c.onPoint(sessionID, *warmPoint)
	}
	c.notify(st)
	return st, nil
}

func (c *Controller) abortStart(epoch uint64, permission location.PermissionStatus, err error) (State, error) {
	c.mu.Lock()
	c.starting = false
	if permission != "" {
		c.permission = permission
	}
	if c.epoch == epoch {
		c.lastErr = err
	}
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
	return st, err
}

func (c *Controller) ensurePermission(ctx context.Context) (location.PermissionStatus, error) {
	status, err := c.provider.PermissionStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("permission status: %w", err)
	}
	if status == location.PermissionGranted {
		return status, nil
	}
	status, err = c.provider.RequestPermission(ctx)
	if err != nil {
		return "", fmt.Errorf("request permission: %w", err)
	}
	if status != location.PermissionGranted {
		return status, ErrPermissionDenied
	}
	return status, nil
}

// Pause releases the subscription and timer before returning. Metrics keep
// their last published value.
func (c *Controller) Pause() State {
	c.mu.Lock()
	if !c.sess.Pause() {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}
	c.releaseLocked()
	c.pauseStartedAt = c.now()
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
	return st
}

// Resume resubscribes at the relaxed tier. The upgrade is not re-applied.
// A closed controller stays paused.
func (c *Controller) Resume() (State, error) {
	c.mu.Lock()
	if c.closed || c.sess.Status() != session.StatusPaused {
		st := c.stateLocked()
		c.mu.Unlock()
		return st, nil
	}

	c.subGen++
	sub, err := c.provider.WatchPosition(c.ctx, c.cfg.Relaxed, c.sampleHandler(c.subGen))
	if err != nil {
		c.lastErr = fmt.Errorf("%w: %v", ErrSubscription, err)
		st := c.stateLocked()
		c.mu.Unlock()
		c.notify(st)
		return st, c.lastErr
	}

	now := c.now()
	c.sess.Resume(now.Sub(c.pauseStartedAt))
	c.pauseStartedAt = time.Time{}
	c.sub = sub
	c.accuracy = c.cfg.Relaxed.Accuracy
	c.lastErr = nil
	c.startTimerLocked()
	c.live = metrics.ComputeLive(c.sess.Points(), c.sess.StartTime(), c.sess.PausedAccumulated(), now)
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
	return st, nil
}

// Complete ends the run and finalizes it once. Completing a paused run counts
// the open pause as paused time. Further calls are no-ops.
func (c *Controller) Complete(ctx context.Context) State {
	c.mu.Lock()
	status := c.sess.Status()
	if status != session.StatusRunning && status != session.StatusPaused {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}
	now := c.now()
	c.releaseLocked()
	if status == session.StatusPaused {
		c.sess.AddPaused(now.Sub(c.pauseStartedAt))
		c.pauseStartedAt = time.Time{}
	}
	c.sess.Complete(now)
	snap := c.sess.Snapshot()
	c.live = metrics.ComputeLive(snap.Points, snap.StartTime, snap.PausedAccumulated, now)
	c.finalizing = true
	epoch := c.epoch
	run := Run{
		UserID:      c.run.UserID,
		WorkoutType: c.run.WorkoutType,
		Timezone:    c.run.Timezone,
		Snapshot:    snap,
	}
	tokens := c.run.Tokens
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)

	var summary Summary
	if c.finalizer != nil {
		summary = c.finalizer.Finalize(ctx, run, c.token(ctx, tokens))
	} else {
		summary = Summary{SessionID: snap.ID, Metrics: metrics.ComputeFinal(snap)}
	}
	c.logger.Info("run completed",
		"session_id", snap.ID,
		"distance_m", summary.Metrics.Distance.Meters,
		"duration_s", summary.Metrics.Duration.Seconds,
		"uploaded", summary.Uploaded,
	)

	c.mu.Lock()
	c.finalizing = false
	if c.epoch == epoch {
		c.summary = &summary
	}
	st = c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
	return st
}

// Reset releases resources and returns to a fresh idle session. Permission is kept.
func (c *Controller) Reset() State {
	c.mu.Lock()
	c.releaseLocked()
	c.resetLocked()
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
	return st
}

// Close releases the subscription and timer for good. Session data is kept
// so a running session can still be completed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.epoch++
	c.releaseLocked()
	c.mu.Unlock()
	c.cancel()
}

// Refresh recomputes live metrics now and publishes them. It is what the
// metrics timer does on every tick.
func (c *Controller) Refresh() State {
	c.mu.Lock()
	if c.closed || c.sess.Status() != session.StatusRunning {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}
	c.refreshLocked()
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
	return st
}

func (c *Controller) sampleHandler(gen uint64) func(location.Position) {
	return func(p location.Position) {
		c.mu.Lock()
		if gen != c.subGen || c.sess.Status() != session.StatusRunning {
			c.mu.Unlock()
			return
		}
		point := toRoutePoint(p)
		c.sess.RecordPoint(point)
		c.samples++
		c.lastPos = &p
		c.maybeUpgradeLocked()
		sessionID := c.sess.ID()
		c.mu.Unlock()

		if c.onPoint != nil {
			c.onPoint(sessionID, point)
		}
	}
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.timerGen || c.sess.Status() != session.StatusRunning {
		c.mu.Unlock()
		return
	}
	c.refreshLocked()
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) refreshLocked() {
	c.live = metrics.ComputeLive(c.sess.Points(), c.sess.StartTime(), c.sess.PausedAccumulated(), c.now())
	c.maybeUpgradeLocked()
}

// maybeUpgradeLocked swaps the relaxed subscription for a precise one, once
// per session. The precise subscription is opened before the relaxed one is
// removed; if it cannot be opened the relaxed one stays.
func (c *Controller) maybeUpgradeLocked() {
	if c.closed || c.tier == tierUpgraded || c.sess.Status() != session.StatusRunning {
		return
	}
	if !shouldUpgrade(c.samples, c.now().Sub(c.sess.StartTime()), c.cfg) {
		return
	}
	c.tier = tierUpgraded

	gen := c.subGen + 1
	sub, err := c.provider.WatchPosition(c.ctx, c.cfg.Precise, c.sampleHandler(gen))
	if err != nil {
		c.logger.Warn("accuracy upgrade failed, staying on relaxed tier", "session_id", c.sess.ID(), "error", err)
		return
	}
	c.subGen = gen
	if c.sub != nil {
		c.sub.Remove()
	}
	c.sub = sub
	c.accuracy = c.cfg.Precise.Accuracy
	c.logger.Debug("accuracy upgraded", "session_id", c.sess.ID(), "samples", c.samples)
}

func (c *Controller) startTimerLocked() {
	if c.closed {
		return
	}
	c.timerGen++
	gen := c.timerGen
	c.timer = startMetricsTimer(c.cfg.MetricsInterval, func() { c.tick(gen) })
}

// releaseLocked removes the subscription and stops the timer. Callbacks already
// in flight are dropped by their generation.
func (c *Controller) releaseLocked() {
	if c.sub != nil {
		c.sub.Remove()
		c.sub = nil
	}
	c.subGen++
	if c.timer != nil {
		c.timer.stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Controller) resetLocked() {
	c.sess.Reset()
	c.epoch++
	c.run = RunOptions{}
	c.tier = tierRelaxed
	c.accuracy = ""
	c.samples = 0
	c.pauseStartedAt = time.Time{}
	c.live = metrics.Live{}
	c.lastPos = nil
	c.lastErr = nil
	c.summary = nil
	c.finalizing = false
}

func (c *Controller) token(ctx context.Context, tokens TokenSource) string {
	if tokens == nil {
		return ""
	}
	token, err := tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("auth token unavailable, completing locally", "error", err)
		return ""
	}
	return token
}

func (c *Controller) stateLocked() State {
	st := State{
		SessionID:    c.sess.ID(),
		Status:       c.sess.Status(),
		WorkoutType:  c.run.WorkoutType,
		AccuracyTier: c.accuracy,
		Upgraded:     c.tier == tierUpgraded,
		SampleCount:  c.samples,
		PointCount:   c.sess.PointCount(),
		Metrics:      c.live,
		Permission:   c.permission,
		Finalizing:   c.finalizing,
	}
	if c.lastPos != nil {
		p := *c.lastPos
		st.LastPosition = &p
	}
	if c.lastErr != nil {
		st.Error = c.lastErr.Error()
	}
	if c.summary != nil {
		s := *c.summary
		st.Summary = &s
	}
	return st
}

func (c *Controller) notify(st State) {
	c.obsMu.Lock()
	observers := make([]func(State), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(st)
	}
}

