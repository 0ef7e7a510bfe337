// Package clock provides time abstractions for production and testing
package clock

import (
	"context"
	"time"
)

// Timer is the part of a clock that waits
type Timer interface {
	After(d time.Duration) <-chan time.Time
}

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

// Sleep waits d on t. It returns ctx.Err() if ctx ends first.
func Sleep(ctx context.Context, t Timer, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.After(d):
		return nil
	}
}
