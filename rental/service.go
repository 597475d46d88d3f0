// Package rental implements the reservation lifecycle engine: allocation of a
// free item to a requester, the session state machine, churn rate limiting and
// the expiry/overdue sweeps. Every status mutation goes through exactly one
// method here, runs in a single storage transaction, keeps the item
// availability flag consistent and appends one audit event.
package rental

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"rental_backend/apierrors"
	"rental_backend/models"
)

type Service struct {
	store   Store
	limiter RateLimiter
	log     *zap.Logger

	cutoffHour int
	now        func() time.Time
}

type Options struct {
	LimiterWindow     time.Duration
	LimiterThreshold  int
	OverdueCutoffHour int

	// Now overrides the clock; tests use it.
	Now func() time.Time
}

func NewService(store Store, log *zap.Logger, opt Options) *Service {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:      store,
		limiter:    RateLimiter{Window: opt.LimiterWindow, Threshold: opt.LimiterThreshold},
		log:        log,
		cutoffHour: opt.OverdueCutoffHour,
		now:        opt.Now,
	}
}

// CreateInput captures the optional contact info recorded at reservation time.
type CreateInput struct {
	Phone    *string
	Fullname *string
}

// Create reserves one free item of the given type for the user. It fails with
// SessionExists when the user already holds a session of this type, with
// RateLimited when the churn threshold is hit, and with NoneAvailable when the
// inventory is exhausted. The allocation, the session row and the audit event
// commit together.
func (s *Service) Create(ctx context.Context, userID, itemTypeID string, in CreateInput) (*models.RentalSession, error) {
	now := s.now().UTC()
	var created *models.RentalSession
	err := s.store.Atomically(ctx, func(tx Store) error {
		ok, err := tx.ItemTypeExists(ctx, itemTypeID)
		if err != nil {
			return err
		}
		if !ok {
			return apierrors.ObjectNotFound("ItemType", itemTypeID)
		}

		blocking, err := tx.HasHoldingSession(ctx, userID, itemTypeID)
		if err != nil {
			return err
		}
		if blocking {
			return apierrors.SessionExists(itemTypeID)
		}

		churned, err := tx.ChurnSessions(ctx, userID, itemTypeID, now.Add(-s.limiter.Window))
		if err != nil {
			return err
		}
		if allowed, mins := s.limiter.Check(churned, now); !allowed {
			return apierrors.RateLimited(mins)
		}

		item, err := tx.AllocateItem(ctx, itemTypeID)
		if err != nil {
			return err
		}

		sess := &models.RentalSession{
			ID:            uuid.NewString(),
			UserID:        userID,
			ItemID:        item.ID,
			Status:        models.StatusReserved,
			ReservationTS: now,
			UserPhone:     in.Phone,
			UserFullname:  in.Fullname,
		}
		if err := tx.CreateSession(ctx, sess); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, s.event(&userID, nil, &sess.ID, models.ActionCreateSession, datatypes.JSONMap{
			"item_id": item.ID,
			"status":  string(models.StatusReserved),
		})); err != nil {
			return err
		}
		sess.ItemTypeID = item.TypeID
		created = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("session reserved",
		zap.String("session_id", created.ID),
		zap.String("user_id", userID),
		zap.String("item_id", created.ItemID))
	return created, nil
}

// Start hands the reserved item over: RESERVED -> ACTIVE. The deadline is the
// explicit one when supplied (it must be strictly in the future), otherwise
// the next occurrence of the configured cutoff hour.
func (s *Service) Start(ctx context.Context, sessionID, staffID string, deadline *time.Time) (*models.RentalSession, error) {
	now := s.now().UTC()
	dl := DefaultDeadline(now, s.cutoffHour)
	if deadline != nil {
		if !deadline.After(now) {
			return nil, apierrors.InvalidDeadline()
		}
		dl = deadline.UTC()
	}

	err := s.store.Atomically(ctx, func(tx Store) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		won, err := tx.UpdateSessionCAS(ctx, sess.ID, []models.RentStatus{models.StatusReserved}, map[string]any{
			"status":        models.StatusActive,
			"start_ts":      now,
			"admin_open_id": staffID,
			"deadline_ts":   dl,
		})
		if err != nil {
			return err
		}
		if !won {
			return apierrors.ForbiddenAction("RentalSession")
		}
		return tx.AppendEvent(ctx, s.event(&sess.UserID, &staffID, &sess.ID, models.ActionStartSession, datatypes.JSONMap{
			"status":      string(models.StatusActive),
			"deadline_ts": dl.Format(time.RFC3339),
		}))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

// Return closes an ACTIVE or OVERDUE session and releases the item. end_ts is
// only written when still empty, so an administratively pre-set close time
// survives. withStrike additionally records a penalty linked to the session.
func (s *Service) Return(ctx context.Context, sessionID, staffID string, withStrike bool, reason string) (*models.RentalSession, error) {
	now := s.now().UTC()
	err := s.store.Atomically(ctx, func(tx Store) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		set := map[string]any{
			"status":           models.StatusReturned,
			"actual_return_ts": now,
			"admin_close_id":   staffID,
		}
		if sess.EndTS == nil {
			set["end_ts"] = now
		}
		won, err := tx.UpdateSessionCAS(ctx, sess.ID,
			[]models.RentStatus{models.StatusActive, models.StatusOverdue}, set)
		if err != nil {
			return err
		}
		if !won {
			return apierrors.InactiveSession(sess.ID)
		}
		if err := tx.ReleaseItem(ctx, sess.ItemID); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, s.event(&sess.UserID, &staffID, &sess.ID, models.ActionReturnSession, datatypes.JSONMap{
			"status": string(models.StatusReturned),
		})); err != nil {
			return err
		}
		if withStrike {
			strike := &models.Strike{
				ID:        uuid.NewString(),
				UserID:    sess.UserID,
				AdminID:   staffID,
				SessionID: &sess.ID,
				Reason:    reason,
				CreateTS:  now,
			}
			if err := tx.CreateStrike(ctx, strike); err != nil {
				return err
			}
			if err := tx.AppendEvent(ctx, s.event(&sess.UserID, &staffID, &sess.ID, models.ActionCreateStrike, datatypes.JSONMap{
				"strike_id": strike.ID,
				"reason":    reason,
			})); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

// Cancel is the user-initiated termination of a not-yet-picked-up reservation.
// Only the owner may cancel, and only while the session is RESERVED.
func (s *Service) Cancel(ctx context.Context, sessionID, requestingUserID string) (*models.RentalSession, error) {
	now := s.now().UTC()
	err := s.store.Atomically(ctx, func(tx Store) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.UserID != requestingUserID {
			return apierrors.ForbiddenAction("RentalSession")
		}
		won, err := tx.UpdateSessionCAS(ctx, sess.ID, []models.RentStatus{models.StatusReserved}, map[string]any{
			"status": models.StatusCanceled,
			"end_ts": now,
		})
		if err != nil {
			return err
		}
		if !won {
			return apierrors.ForbiddenAction("RentalSession")
		}
		if err := tx.ReleaseItem(ctx, sess.ItemID); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, s.event(&sess.UserID, nil, &sess.ID, models.ActionCancelSession, datatypes.JSONMap{
			"status": string(models.StatusCanceled),
		}))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

// SessionPatch is the admin partial update. Nil fields are left untouched.
type SessionPatch struct {
	Status         *models.RentStatus
	EndTS          *time.Time
	ActualReturnTS *time.Time
	DeadlineTS     *time.Time
	AdminCloseID   *string
}

// AdminUpdate applies exactly the supplied fields. A patch that changes
// nothing is rejected. A status change reconciles the item availability flag
// in the same transaction so the holding invariant survives manual edits.
func (s *Service) AdminUpdate(ctx context.Context, sessionID, staffID string, p SessionPatch) (*models.RentalSession, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, apierrors.ForbiddenAction("RentalSession")
	}
	err := s.store.Atomically(ctx, func(tx Store) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}

		set := map[string]any{}
		details := datatypes.JSONMap{}
		if p.Status != nil && *p.Status != sess.Status {
			set["status"] = *p.Status
			details["status"] = string(*p.Status)
		}
		if p.EndTS != nil && !equalTime(p.EndTS, sess.EndTS) {
			set["end_ts"] = p.EndTS.UTC()
			details["end_ts"] = p.EndTS.UTC().Format(time.RFC3339)
		}
		if p.ActualReturnTS != nil && !equalTime(p.ActualReturnTS, sess.ActualReturnTS) {
			set["actual_return_ts"] = p.ActualReturnTS.UTC()
			details["actual_return_ts"] = p.ActualReturnTS.UTC().Format(time.RFC3339)
		}
		if p.DeadlineTS != nil && !equalTime(p.DeadlineTS, sess.DeadlineTS) {
			set["deadline_ts"] = p.DeadlineTS.UTC()
			details["deadline_ts"] = p.DeadlineTS.UTC().Format(time.RFC3339)
		}
		if p.AdminCloseID != nil && (sess.AdminCloseID == nil || *p.AdminCloseID != *sess.AdminCloseID) {
			set["admin_close_id"] = *p.AdminCloseID
			details["admin_close_id"] = *p.AdminCloseID
		}
		if len(set) == 0 {
			return apierrors.AlreadyExists("RentalSession", sessionID)
		}

		// The write is conditioned on the status observed above; a session a
		// sweep moved in between loses the race instead of being overwritten.
		won, err := tx.UpdateSessionCAS(ctx, sess.ID, []models.RentStatus{sess.Status}, set)
		if err != nil {
			return err
		}
		if !won {
			return apierrors.ModifiedConcurrently("RentalSession", sess.ID)
		}
		if p.Status != nil && *p.Status != sess.Status {
			wasHolding, isHolding := sess.Status.Holding(), p.Status.Holding()
			if wasHolding && !isHolding {
				if err := tx.ReleaseItem(ctx, sess.ItemID); err != nil {
					return err
				}
			}
			if !wasHolding && isHolding {
				if err := tx.OccupyItem(ctx, sess.ItemID); err != nil {
					return err
				}
			}
		}
		return tx.AppendEvent(ctx, s.event(&sess.UserID, &staffID, &sess.ID, models.ActionUpdateSession, details))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

// Delete hard-removes a session. Sessions in a holding state cannot be
// deleted; expire/return/cancel them first.
func (s *Service) Delete(ctx context.Context, sessionID, staffID string) error {
	return s.store.Atomically(ctx, func(tx Store) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status.Holding() {
			return apierrors.ForbiddenAction("RentalSession")
		}
		if err := tx.DeleteSessionHard(ctx, sess.ID); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, s.event(&sess.UserID, &staffID, &sess.ID, models.ActionDeleteSession, datatypes.JSONMap{
			"status": string(sess.Status),
		}))
	})
}

// Get returns a session snapshot including the joined item type and strike.
func (s *Service) Get(ctx context.Context, sessionID string) (*models.RentalSession, error) {
	return s.store.SnapshotSession(ctx, sessionID)
}

func (s *Service) List(ctx context.Context, f SessionFilter) ([]models.RentalSession, error) {
	return s.store.SnapshotSessions(ctx, f)
}

// ExpireReservation force-transitions one stale RESERVED session to EXPIRED
// and releases its item. A session concurrently moved out of RESERVED is
// skipped silently; the sweep reports whether this call did the move.
func (s *Service) ExpireReservation(ctx context.Context, sessionID string) (bool, error) {
	now := s.now().UTC()
	moved := false
	err := s.store.Atomically(ctx, func(tx Store) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		won, err := tx.UpdateSessionCAS(ctx, sess.ID, []models.RentStatus{models.StatusReserved}, map[string]any{
			"status": models.StatusExpired,
			"end_ts": now,
		})
		if err != nil || !won {
			return err
		}
		if err := tx.ReleaseItem(ctx, sess.ItemID); err != nil {
			return err
		}
		moved = true
		return tx.AppendEvent(ctx, s.event(&sess.UserID, nil, &sess.ID, models.ActionExpireSession, datatypes.JSONMap{
			"status": string(models.StatusExpired),
		}))
	})
	return moved, err
}

// MarkOverdue force-transitions one past-deadline ACTIVE session to OVERDUE.
// The item stays held: the unit is still physically out.
func (s *Service) MarkOverdue(ctx context.Context, sessionID string) (bool, error) {
	moved := false
	err := s.store.Atomically(ctx, func(tx Store) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		won, err := tx.UpdateSessionCAS(ctx, sess.ID, []models.RentStatus{models.StatusActive}, map[string]any{
			"status": models.StatusOverdue,
		})
		if err != nil || !won {
			return err
		}
		moved = true
		return tx.AppendEvent(ctx, s.event(&sess.UserID, nil, &sess.ID, models.ActionOverdueSession, datatypes.JSONMap{
			"status": string(models.StatusOverdue),
		}))
	})
	return moved, err
}

func (s *Service) event(userID, adminID, sessionID *string, action string, details datatypes.JSONMap) *models.Event {
	return &models.Event{
		ID:         uuid.NewString(),
		UserID:     userID,
		AdminID:    adminID,
		SessionID:  sessionID,
		ActionType: action,
		Details:    details,
		CreateTS:   s.now().UTC(),
	}
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
