package rental

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental_backend/models"
)

func newTestSweeper(svc *Service, store *fakeStore) *Sweeper {
	return NewSweeper(svc, store, nil, 15*time.Minute, 100, nil)
}

func TestSweepReservationExpiry(t *testing.T) {
	svc, store, clock := newTestService(t)
	sweeper := newTestSweeper(svc, store)
	ctx := context.Background()
	store.addType("type-5")
	store.addItem("item-1", "type-5", true)

	sess, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
	require.NoError(t, err)

	// Inside the window nothing moves.
	clock.Advance(14 * time.Minute)
	n, err := sweeper.SweepReservationExpiry(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock.Advance(time.Minute + time.Second)
	n, err = sweeper.SweepReservationExpiry(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)
	require.NotNil(t, got.EndTS)
	assert.True(t, store.item("item-1").IsAvailable)
	assert.Len(t, store.eventsOf(models.ActionExpireSession), 1)
}

// Sweeps are idempotent: running again moves nothing and logs nothing new.
func TestSweepRunsAreIdempotent(t *testing.T) {
	svc, store, clock := newTestService(t)
	sweeper := newTestSweeper(svc, store)
	ctx := context.Background()
	store.addType("type-5")
	store.addItem("item-1", "type-5", true)

	_, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
	require.NoError(t, err)
	clock.Advance(16 * time.Minute)

	for i := 0; i < 3; i++ {
		_, err = sweeper.SweepReservationExpiry(ctx)
		require.NoError(t, err)
	}
	assert.Len(t, store.eventsOf(models.ActionExpireSession), 1)
}

func TestSweepOverdueKeepsItemHeld(t *testing.T) {
	svc, store, clock := newTestService(t)
	sweeper := newTestSweeper(svc, store)
	ctx := context.Background()
	store.addType("type-5")
	store.addItem("item-1", "type-5", true)

	sess, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
	require.NoError(t, err)
	deadline := testStart.Add(2 * time.Hour)
	_, err = svc.Start(ctx, sess.ID, "staff-9", &deadline)
	require.NoError(t, err)

	clock.Advance(2*time.Hour + time.Second)
	n, err := sweeper.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, got.Status)
	assert.False(t, store.item("item-1").IsAvailable)
	assert.Len(t, store.eventsOf(models.ActionOverdueSession), 1)

	// Once overdue the session is no longer an overdue-sweep candidate.
	n, err = sweeper.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// A candidate that a user cancels between the sweep's candidate query and its
// transition is skipped, not double-processed.
func TestSweepSkipsConcurrentlyMovedSession(t *testing.T) {
	svc, store, clock := newTestService(t)
	_ = newTestSweeper(svc, store)
	ctx := context.Background()
	store.addType("type-5")
	store.addItem("item-1", "type-5", true)

	sess, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
	require.NoError(t, err)
	clock.Advance(16 * time.Minute)

	// The cancel lands first; the sweep's CAS then loses.
	_, err = svc.Cancel(ctx, sess.ID, "user-1")
	require.NoError(t, err)

	moved, err := svc.ExpireReservation(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, moved)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, got.Status)
	assert.Empty(t, store.eventsOf(models.ActionExpireSession))
	assert.True(t, store.item("item-1").IsAvailable)
}

func TestRunReleasesSweepLock(t *testing.T) {
	svc, store, clock := newTestService(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sweeper := NewSweeper(svc, store, nil, 15*time.Minute, 100, rdb)
	ctx := context.Background()
	store.addType("type-5")
	store.addItem("item-1", "type-5", true)

	sess, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
	require.NoError(t, err)
	clock.Advance(16 * time.Minute)

	// A lock held by another instance skips the tick entirely.
	require.NoError(t, rdb.Set(ctx, sweepLockKey, "1", time.Minute).Err())
	sweeper.Run(ctx)
	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReserved, got.Status)

	require.NoError(t, rdb.Del(ctx, sweepLockKey).Err())
	sweeper.Run(ctx)
	got, err = svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)

	// The lock is freed when the run finishes, not left to the TTL.
	assert.False(t, mr.Exists(sweepLockKey))
}

func TestReconcileCoversBothSweeps(t *testing.T) {
	svc, store, clock := newTestService(t)
	sweeper := newTestSweeper(svc, store)
	ctx := context.Background()
	store.addType("type-5")
	store.addItem("item-1", "type-5", true)
	store.addItem("item-2", "type-5", true)

	stale, err := svc.Create(ctx, "user-1", "type-5", CreateInput{})
	require.NoError(t, err)

	active, err := svc.Create(ctx, "user-2", "type-5", CreateInput{})
	require.NoError(t, err)
	deadline := testStart.Add(10 * time.Minute)
	_, err = svc.Start(ctx, active.ID, "staff-9", &deadline)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	sweeper.Reconcile(ctx)

	gotStale, err := svc.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, gotStale.Status)

	gotActive, err := svc.Get(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, gotActive.Status)
}
