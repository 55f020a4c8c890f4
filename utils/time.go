// Package utils holds small helpers shared by the pipeline stages.
package utils

import "time"

// Clock reports the current time. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Stopwatch measures the time elapsed since it was started on a Clock.
type Stopwatch struct {
	clock   Clock
	started time.Time
}

func StartStopwatch(c Clock) Stopwatch {
	return Stopwatch{clock: c, started: c.Now()}
}

func (s Stopwatch) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.started)
}
