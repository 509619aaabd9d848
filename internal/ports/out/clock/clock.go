package clock

import "time"

// Clock provides time to the application.
// Derived statuses such as expired are computed against it.
type Clock interface {
	Now() time.Time
}
