package health

import "time"

// Stopwatch measures elapsed time on the monotonic clock.
//
// It is a value type; starting and stopping one never allocates.
type Stopwatch struct {
	start   time.Time
	elapsed time.Duration
	running bool
}

// StartStopwatch returns a running stopwatch.
func StartStopwatch() Stopwatch {
	return Stopwatch{start: time.Now(), running: true}
}

// Elapsed returns the time since start, or the frozen time if stopped.
func (s Stopwatch) Elapsed() time.Duration {
	if s.running {
		return time.Since(s.start)
	}
	return s.elapsed
}

// IsRunning reports whether the stopwatch is still measuring.
func (s Stopwatch) IsRunning() bool {
	return s.running
}

// Stop returns a stopped copy holding the elapsed time.
func (s Stopwatch) Stop() Stopwatch {
	if !s.running {
		return s
	}
	return Stopwatch{start: s.start, elapsed: time.Since(s.start)}
}
