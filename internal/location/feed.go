package location

import (
	"context"
	"sync"
	"time"

	"backend-fitquest/internal/shared/geo"
)

// Feed is a Provider driven by Push. Watchers receive pushed fixes that pass
// their interval and distance thresholds relative to the last fix they were given.
type Feed struct {
	// deliverMu orders whole pushes so fixes reach watchers in acceptance order.
	deliverMu sync.Mutex

	mu         sync.Mutex
	permission PermissionStatus
	last       *Position
	lastAt     time.Time
	watchers   map[int]*watcher
	nextID     int
	waiters    []chan Position
	now        func() time.Time
}

type watcher struct {
	feed      *Feed
	id        int
	opts      WatchOptions
	onUpdate  func(Position)
	delivered *Position
	removed   bool
}

func NewFeed(permission PermissionStatus) *Feed {
	return &Feed{
		permission: permission,
		watchers:   map[int]*watcher{},
		now:        time.Now,
	}
}

// WithClock replaces the clock used to age the last fix.
func (f *Feed) WithClock(now func() time.Time) *Feed {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
	return f
}

func (f *Feed) SetPermission(p PermissionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permission = p
}

func (f *Feed) PermissionStatus(_ context.Context) (PermissionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permission, nil
}

// RequestPermission cannot prompt a remote device; it reports the state the device last sent.
func (f *Feed) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	return f.PermissionStatus(ctx)
}

func (f *Feed) CurrentPosition(ctx context.Context, _ AccuracyTier, timeout, maxAge time.Duration) (Position, error) {
	f.mu.Lock()
	if f.last != nil && f.now().Sub(f.lastAt) <= maxAge {
		p := *f.last
		f.mu.Unlock()
		return p, nil
	}
	ch := make(chan Position, 1)
	f.waiters = append(f.waiters, ch)
	f.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p := <-ch:
		return p, nil
	case <-timer.C:
		f.dropWaiter(ch)
		return Position{}, ErrTimeout
	case <-ctx.Done():
		f.dropWaiter(ch)
		return Position{}, ctx.Err()
	}
}

func (f *Feed) WatchPosition(_ context.Context, opts WatchOptions, onUpdate func(Position)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	w := &watcher{feed: f, id: f.nextID, opts: opts, onUpdate: onUpdate}
	f.watchers[w.id] = w
	return w, nil
}

// Push records a fix and fans it out. It returns how many watchers received it.
// Callbacks run on the caller's goroutine, outside the feed lock, and one push
// is delivered completely before the next begins.
func (f *Feed) Push(p Position) int {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	f.mu.Lock()
	f.last = &p
	f.lastAt = f.now()
	waiters := f.waiters
	f.waiters = nil
	targets := make([]*watcher, 0, len(f.watchers))
	for _, w := range f.watchers {
		targets = append(targets, w)
	}
	f.mu.Unlock()

	for _, ch := range waiters {
		ch <- p
	}

	delivered := 0
	for _, w := range targets {
		if w.accept(p) {
			w.onUpdate(p)
			delivered++
		}
	}
	return delivered
}

func (f *Feed) WatcherCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

func (f *Feed) dropWaiter(ch chan Position) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.waiters {
		if w == ch {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}

func (w *watcher) accept(p Position) bool {
	w.feed.mu.Lock()
	defer w.feed.mu.Unlock()
	if w.removed {
		return false
	}
	if prev := w.delivered; prev != nil {
		if time.Duration(p.Timestamp-prev.Timestamp)*time.Millisecond < w.opts.MinInterval {
			return false
		}
		moved := geo.DistanceMeters(
			geo.Coordinate{Latitude: prev.Latitude, Longitude: prev.Longitude},
			geo.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude},
		)
		if moved < w.opts.MinDistanceMeters {
			return false
		}
	}
	w.delivered = &p
	return true
}

func (w *watcher) Remove() {
	w.feed.mu.Lock()
	defer w.feed.mu.Unlock()
	w.removed = true
	delete(w.feed.watchers, w.id)
}
