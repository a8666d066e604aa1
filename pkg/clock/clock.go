// Package clock provides time abstractions for production and testing
package clock

import (
	"context"
	"time"
)

// SystemClock provides production time implementation using the standard library
type SystemClock struct{}

// After returns a channel that sends the current time after the specified duration
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Timer is the subset of a clock needed to wait.
type Timer interface {
	After(d time.Duration) <-chan time.Time
}

// Sleep waits for d on the given timer or until ctx is done, whichever comes first.
// A non-positive duration returns immediately without consulting the timer.
func Sleep(ctx context.Context, t Timer, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.After(d):
		return nil
	}
}
