package rental

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental_backend/apierrors"
	"rental_backend/models"
)

func TestRateLimiterCheck(t *testing.T) {
	l := RateLimiter{Window: 30 * time.Minute, Threshold: 2}
	now := testStart

	allowed, _ := l.Check(nil, now)
	assert.True(t, allowed)

	one := []models.RentalSession{{ReservationTS: now.Add(-5 * time.Minute)}}
	allowed, _ = l.Check(one, now)
	assert.True(t, allowed)

	two := append(one, models.RentalSession{ReservationTS: now.Add(-20 * time.Minute)})
	allowed, mins := l.Check(two, now)
	assert.False(t, allowed)
	// The oldest churned session leaves the window in 10 minutes.
	assert.Equal(t, 10, mins)
}

func TestRateLimiterResetFloorsAtZero(t *testing.T) {
	l := RateLimiter{Window: 30 * time.Minute, Threshold: 2}
	now := testStart
	churned := []models.RentalSession{
		{ReservationTS: now.Add(-30*time.Minute + time.Second)},
		{ReservationTS: now.Add(-29 * time.Minute)},
	}
	allowed, mins := l.Check(churned, now)
	assert.False(t, allowed)
	assert.Equal(t, 0, mins)
}

// Reserve-and-cancel twice, then the third attempt inside the window is
// throttled; after the window it goes through again.
func TestChurnThrottling(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	store.addType("type-5")
	store.addItem("item-1", "type-5", true)

	for i := 0; i < 2; i++ {
		sess, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
		require.NoError(t, err)
		clock.Advance(time.Minute)
		_, err = svc.Cancel(ctx, sess.ID, "user-1")
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
	require.Error(t, err)
	var rl *apierrors.RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.LessOrEqual(t, rl.RetryAfterMinutes, 30)
	assert.Greater(t, rl.RetryAfterMinutes, 0)

	// Completed rentals never count, so the limiter does not punish another
	// user on the same type.
	_, err = svc.Create(ctx, "user-2", "type-5", CreateInput{})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, mustOnlyHolding(t, store, "user-2").ID, "user-2")
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	sess, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReserved, sess.Status)
}

func mustOnlyHolding(t *testing.T, store *fakeStore, userID string) *models.RentalSession {
	t.Helper()
	for _, s := range store.sessions {
		if s.UserID == userID && s.Status.Holding() {
			return s
		}
	}
	t.Fatalf("no holding session for %s", userID)
	return nil
}
