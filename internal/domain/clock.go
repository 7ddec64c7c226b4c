package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the source of processed_at stamps. Nil restores the
// wall clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// now is the processed_at stamp: UTC, millisecond precision, so it survives
// both codecs unchanged.
func now() time.Time {
	return clock.Now().UTC().Truncate(time.Millisecond)
}
