package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/hnttax/pkg/clock"
)

func TestSleep(t *testing.T) {
	t.Parallel()

	t.Run("it returns once the timer fires", func(t *testing.T) {
		t.Parallel()

		// Act
		err := clock.Sleep(t.Context(), firedTimer{}, time.Hour)

		// Assert
		assert.NoError(t, err)
	})

	t.Run("it stops waiting when the context ends", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		// Act
		err := clock.Sleep(ctx, clock.SystemClock{}, time.Hour)

		// Assert
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// firedTimer fires immediately whatever the duration
type firedTimer struct{}

func (firedTimer) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}
