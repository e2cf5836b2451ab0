package amortization

import "time"

// Clock supplies the current time for payoff projections.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
// A nil Location means time.Local.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in c.Location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
