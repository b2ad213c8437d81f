package clock

import (
	"context"
	"time"
)

type SystemClock struct{}

func (SystemClock) Now(context.Context) time.Time {
	return time.Now().UTC()
}

// Frozen returns a clock pinned to t, for tests that assert timestamps.
func Frozen(t time.Time) Clock {
	return frozen{t: t}
}

type frozen struct {
	t time.Time
}

func (f frozen) Now(context.Context) time.Time {
	return f.t
}
