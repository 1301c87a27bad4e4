package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"backend-fitquest/internal/location"
	"backend-fitquest/internal/session"
	"backend-fitquest/internal/tracking"
)

// virtualClock only moves when the replay advances it.
type virtualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *virtualClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *virtualClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.t) {
		c.t = t
	}
}

type replayOptions struct {
	UserID    string
	Tokens    tracking.TokenSource
	Finalizer tracking.Finalizer
	PointHook func(sessionID string, p session.RoutePoint)
	Verbose   bool
}

// replay drives a controller through the route on a virtual clock and
// returns the final state. A live line is written per accepted fix.
func replay(ctx context.Context, route Route, opts replayOptions, out io.Writer) (tracking.State, error) {
	loc, err := route.timezone()
	if err != nil {
		return tracking.State{}, fmt.Errorf("route timezone: %w", err)
	}

	clock := &virtualClock{t: route.at(route.Fixes[0].T)}
	feed := location.NewFeed(location.PermissionGranted).WithClock(clock.now)

	cfg := tracking.DefaultConfig()
	// ticks are driven by the replay through Refresh
	cfg.MetricsInterval = 24 * time.Hour
	ctrlOpts := []tracking.Option{tracking.WithClock(clock.now)}
	if opts.PointHook != nil {
		ctrlOpts = append(ctrlOpts, tracking.WithPointHook(opts.PointHook))
	}
	ctrl := tracking.New(feed, opts.Finalizer, cfg, ctrlOpts...)
	defer ctrl.Close()

	// the first fix is what the warmup fetch finds
	feed.Push(route.position(route.Fixes[0]))
	st, err := ctrl.Start(ctx, tracking.RunOptions{
		WorkoutType: route.WorkoutType,
		Targets:     session.Targets{DistanceMeters: route.TargetDistanceMeters},
		UserID:      opts.UserID,
		Timezone:    loc,
		Tokens:      opts.Tokens,
	})
	if err != nil {
		return st, err
	}
	_, _ = fmt.Fprintf(out, "started %s (%s)\n", st.SessionID, route.WorkoutType)

	pauses := route.Pauses
	resumedAt := route.Fixes[0].T
	for _, f := range route.Fixes[1:] {
		for len(pauses) > 0 && pauses[0].At < f.T {
			p := pauses[0]
			pauses = pauses[1:]
			clock.set(route.at(p.At))
			ctrl.Pause()
			clock.set(route.at(p.At + p.For))
			if _, err := ctrl.Resume(); err != nil {
				return ctrl.State(), err
			}
			resumedAt = p.At + p.For
			if opts.Verbose {
				_, _ = fmt.Fprintf(out, "paused %.0fs at +%.0fs\n", p.For, p.At)
			}
		}

		// the device was paused when this fix was taken
		if f.T < resumedAt {
			continue
		}
		clock.set(route.at(f.T))
		if feed.Push(route.position(f)) == 0 {
			continue
		}
		st = ctrl.Refresh()
		_, _ = fmt.Fprintln(out, liveLine(st))
	}

	return ctrl.Complete(ctx), nil
}
