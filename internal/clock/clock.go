package clock

import "time"

// Clock supplies current time to time sensitive components (token expiry,
// TOTP steps, rate limit windows). Always injected so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now
func System() Clock {
	return systemClock{}
}
