package clock

import "time"

// Clock abstracts time so allocation and expiry checks are testable.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to a Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return Func(func() time.Time { return time.Now().UTC() })
}

// NewFixed returns a clock frozen at t (useful for tests).
func NewFixed(t time.Time) Clock {
	t = t.UTC()
	return Func(func() time.Time { return t })
}
