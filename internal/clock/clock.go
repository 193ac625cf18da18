package clock

import "time"

// Clock abstracts wall time so jobs and stores can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock returns the real UTC clock.
func NewSystemClock() Clock { return systemClock{} }
