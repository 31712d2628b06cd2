package monitor

import "time"

// Backoff is the rate-limit state threaded through the polling loop.
// Values are copied; every transition returns a new Backoff.
type Backoff struct {
	Min     time.Duration
	Max     time.Duration
	Current time.Duration
	// No platform calls should be issued before ResetAt.
	ResetAt time.Time
}

func NewBackoff(min, max time.Duration) Backoff {
	if max < min {
		max = min
	}
	return Backoff{Min: min, Max: max, Current: min}
}

// Next returns how long to wait for a rate limit. A platform-provided retryAfter wins;
// otherwise the interval doubles up to Max.
func (b Backoff) Next(retryAfter time.Duration, now time.Time) (time.Duration, Backoff) {
	wait := retryAfter
	if wait <= 0 {
		wait = b.Current * 2
		if wait > b.Max {
			wait = b.Max
		}
		b.Current = wait
	}
	b.ResetAt = now.Add(wait)
	return wait, b
}

// Relaxed halves the interval, not below Min, after a call succeeds.
func (b Backoff) Relaxed() Backoff {
	b.Current /= 2
	if b.Current < b.Min {
		b.Current = b.Min
	}
	return b
}

// Remaining is how long until ResetAt, zero when it has passed.
func (b Backoff) Remaining(now time.Time) time.Duration {
	if d := b.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
