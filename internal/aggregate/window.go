package aggregate

import "time"

// Window is a validated, already-ordered query time range. Both bounds are
// inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window. Records timestamped
// exactly at either bound match.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
