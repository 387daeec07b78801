package timeutil

import (
	"fmt"
	"time"
)

const urgentWithin = 10 * time.Minute

// Remaining is a countdown split into calendar-ish units.
type Remaining struct {
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64

	total time.Duration
}

// Countdown splits d into days/hours/minutes/seconds. ok is false once the
// target has been reached.
func Countdown(d time.Duration) (Remaining, bool) {
	if d <= 0 {
		return Remaining{}, false
	}
	secs := ToSeconds(d)
	return Remaining{
		Days:    secs / 86400,
		Hours:   secs / 3600 % 24,
		Minutes: secs / 60 % 60,
		Seconds: secs % 60,
		total:   d,
	}, true
}

// Urgent is true when less than ten minutes are left.
func (r Remaining) Urgent() bool {
	return r.total > 0 && r.total < urgentWithin
}

func (r Remaining) String() string {
	hms := fmt.Sprintf("%02d:%02d:%02d", r.Hours, r.Minutes, r.Seconds)
	if r.Days > 0 {
		return fmt.Sprintf("%dd %s", r.Days, hms)
	}
	return hms
}
