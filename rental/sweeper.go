package rental

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rental_backend/apierrors"
)

// Sweeper reconciles stale sessions in batches: reservations nobody picked up
// become EXPIRED, active rentals past their deadline become OVERDUE. Both
// sweeps are idempotent and safe to run concurrently with request handlers;
// every transition is the same compare-and-set the handlers use, so a session
// that moved under the sweeper's feet is skipped, never double-processed.
//
// Storage faults are logged and retried on the next run instead of being
// surfaced to whichever request happened to trigger the sweep.
type Sweeper struct {
	svc   *Service
	store Store
	log   *zap.Logger

	reservationExpiry time.Duration
	batch             int
	now               func() time.Time

	// Optional cross-instance lock so overlapping schedules do not pile up.
	rdb     *redis.Client
	lockTTL time.Duration
}

func NewSweeper(svc *Service, store Store, log *zap.Logger, reservationExpiry time.Duration, batch int, rdb *redis.Client) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	if batch <= 0 {
		batch = 500
	}
	return &Sweeper{
		svc:               svc,
		store:             store,
		log:               log,
		reservationExpiry: reservationExpiry,
		batch:             batch,
		now:               svc.now,
		rdb:               rdb,
		lockTTL:           30 * time.Second,
	}
}

const sweepLockKey = "rental:sweep:lock"

// Run is the cron entry point. When redis is configured, only one instance
// sweeps per tick; the lock is released when the run finishes, the TTL only
// covers an instance dying mid-run.
func (w *Sweeper) Run(ctx context.Context) {
	if w.rdb != nil {
		ok, err := w.rdb.SetNX(ctx, sweepLockKey, "1", w.lockTTL).Result()
		switch {
		case err != nil:
			w.log.Warn("sweep lock unavailable, sweeping anyway", zap.Error(err))
		case !ok:
			return
		default:
			defer w.rdb.Del(ctx, sweepLockKey)
		}
	}
	w.Reconcile(ctx)
}

// Reconcile runs both sweeps, logging instead of failing.
func (w *Sweeper) Reconcile(ctx context.Context) {
	if n, err := w.SweepReservationExpiry(ctx); err != nil {
		w.log.Error("reservation expiry sweep failed", zap.Error(err))
	} else if n > 0 {
		w.log.Info("expired stale reservations", zap.Int("count", n))
	}
	if n, err := w.SweepOverdue(ctx); err != nil {
		w.log.Error("overdue sweep failed", zap.Error(err))
	} else if n > 0 {
		w.log.Info("flagged overdue sessions", zap.Int("count", n))
	}
}

// SweepReservationExpiry moves every RESERVED session whose reservation_ts
// plus the reservation window is behind now to EXPIRED, releasing the item.
// Returns how many sessions this call transitioned.
func (w *Sweeper) SweepReservationExpiry(ctx context.Context) (int, error) {
	cutoff := w.now().UTC().Add(-w.reservationExpiry)
	candidates, err := w.store.SessionsPastReservation(ctx, cutoff, w.batch)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, c := range candidates {
		won, err := w.svc.ExpireReservation(ctx, c.ID)
		if err != nil {
			if notFound(err) {
				continue
			}
			return moved, err
		}
		if won {
			moved++
		}
	}
	return moved, nil
}

// SweepOverdue moves every ACTIVE session whose deadline has passed to
// OVERDUE. The item stays unavailable. Returns how many sessions moved.
func (w *Sweeper) SweepOverdue(ctx context.Context) (int, error) {
	candidates, err := w.store.SessionsPastDeadline(ctx, w.now().UTC(), w.batch)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, c := range candidates {
		won, err := w.svc.MarkOverdue(ctx, c.ID)
		if err != nil {
			if notFound(err) {
				continue
			}
			return moved, err
		}
		if won {
			moved++
		}
	}
	return moved, nil
}

func notFound(err error) bool {
	var ae *apierrors.APIError
	return errors.As(err, &ae) && ae.Kind == apierrors.KindNotFound
}
