package rental

import "time"

// DefaultDeadline returns the next occurrence of the cutoff hour (UTC),
// strictly after now. A session started at 17:59 is due at 18:00 the same day;
// one started at 18:00 rolls over to 18:00 tomorrow.
func DefaultDeadline(now time.Time, cutoffHour int) time.Time {
	now = now.UTC()
	dl := time.Date(now.Year(), now.Month(), now.Day(), cutoffHour, 0, 0, 0, time.UTC)
	if !dl.After(now) {
		dl = dl.AddDate(0, 0, 1)
	}
	return dl
}
