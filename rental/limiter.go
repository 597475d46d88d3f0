package rental

import (
	"time"

	"rental_backend/models"
)

// RateLimiter bounds reservation churn: a user who reserve-and-abandons too
// many sessions of one item type inside the trailing window is throttled at
// creation time. Only EXPIRED and CANCELED outcomes count; completed rentals
// never do.
type RateLimiter struct {
	Window    time.Duration
	Threshold int
}

// Check inspects the user's churned sessions for the window (the caller
// queries them with reservation_ts > now-Window) and returns whether a new
// reservation is allowed. When throttled, retryMinutes is the whole number of
// minutes until the oldest counted session leaves the window, floored at zero.
func (l RateLimiter) Check(churned []models.RentalSession, now time.Time) (allowed bool, retryMinutes int) {
	if l.Threshold <= 0 || len(churned) < l.Threshold {
		return true, 0
	}
	oldest := churned[0].ReservationTS
	for _, s := range churned[1:] {
		if s.ReservationTS.Before(oldest) {
			oldest = s.ReservationTS
		}
	}
	reset := oldest.Add(l.Window)
	mins := int(reset.Sub(now).Minutes())
	if mins < 0 {
		mins = 0
	}
	return false, mins
}
