package tracking

import "time"

// metricsTimer calls tick on its own goroutine every interval until stopped.
// stop never waits for an in-flight tick, so it is safe to call with the
// controller lock held; a tick that races a stop is dropped by its generation.
type metricsTimer struct {
	ticker *time.Ticker
	done   chan struct{}
}

func startMetricsTimer(interval time.Duration, tick func()) *metricsTimer {
	t := &metricsTimer{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				tick()
			}
		}
	}()
	return t
}

func (t *metricsTimer) stop() {
	t.ticker.Stop()
	close(t.done)
}
