package dates

import "time"

// Clock abstracts "now" so derivation logic can be driven by a fixed
// instant in tests instead of the wall clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the reference timezone.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().In(ReferenceZone)
}

// FixedClock always reports the same instant.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Instant.In(ReferenceZone)
}
