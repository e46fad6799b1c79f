package genjobs

import (
	"math"
	"time"
)

// RetryPolicy is the broker-level delivery budget: how many times the
// queue redelivers a whole job and how long it waits between attempts.
// It is independent of the per-section production attempt budget the
// state engine tracks.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the queue defaults in config.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Multiplier:  2.0,
		MaxDelay:    5 * time.Minute,
	}
}

// Backoff returns the delay before retry attempt n (1-indexed):
// BaseDelay * Multiplier^(n-1), capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(multiplier, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
