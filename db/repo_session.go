package db

import (
	"context"
	"time"

	"rental_backend/models"
	"rental_backend/rental"
)

func statusStrings(in []models.RentStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func (r *Repo) SessionByID(ctx context.Context, id string) (*models.RentalSession, error) {
	var s models.RentalSession
	if err := r.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "RentalSession", id)
	}
	return &s, nil
}

// SnapshotSession returns the session plus the read-time joins the API
// exposes: the owning item's type and the linked strike, if any. The item's
// type id is resolved from the item row on every read; nothing denormalizes
// it into the session table.
func (r *Repo) SnapshotSession(ctx context.Context, id string) (*models.RentalSession, error) {
	s, err := r.SessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.attachJoins(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repo) SnapshotSessions(ctx context.Context, f rental.SessionFilter) ([]models.RentalSession, error) {
	q := r.DB.WithContext(ctx).Model(&models.RentalSession{}).Order("reservation_ts DESC")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(f.Statuses))
	}
	var sessions []models.RentalSession
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	for i := range sessions {
		if err := r.attachJoins(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (r *Repo) attachJoins(ctx context.Context, s *models.RentalSession) error {
	var typeID string
	if err := r.DB.WithContext(ctx).Model(&models.Item{}).
		Select("type_id").
		Where("id = ?", s.ItemID).
		Scan(&typeID).Error; err != nil {
		return err
	}
	s.ItemTypeID = typeID

	strike, err := r.StrikeBySession(ctx, s.ID)
	if err != nil {
		return err
	}
	if strike != nil {
		s.StrikeID = &strike.ID
	}
	return nil
}

func (r *Repo) HasHoldingSession(ctx context.Context, userID, itemTypeID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.RentalSession{}).
		Joins("JOIN "+models.ItemTable+" i ON i.id = "+models.SessionTable+".item_id").
		Where(models.SessionTable+".user_id = ? AND i.type_id = ? AND "+models.SessionTable+".status IN ?",
			userID, itemTypeID, statusStrings(models.HoldingStatuses)).
		Count(&n).Error
	return n > 0, err
}

// ChurnSessions lists the user's reserve-and-abandon outcomes for the type
// since the window start; the rate limiter counts them.
func (r *Repo) ChurnSessions(ctx context.Context, userID, itemTypeID string, since time.Time) ([]models.RentalSession, error) {
	var sessions []models.RentalSession
	err := r.DB.WithContext(ctx).Model(&models.RentalSession{}).
		Joins("JOIN "+models.ItemTable+" i ON i.id = "+models.SessionTable+".item_id").
		Where(models.SessionTable+".user_id = ? AND i.type_id = ? AND "+models.SessionTable+".status IN ? AND "+models.SessionTable+".reservation_ts > ?",
			userID, itemTypeID, statusStrings(models.ChurnStatuses), since).
		Find(&sessions).Error
	return sessions, err
}

func (r *Repo) CreateSession(ctx context.Context, s *models.RentalSession) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// UpdateSessionCAS applies the update only when the session's current status
// is one of `from`. The condition rides in the UPDATE's WHERE clause, so of
// two racing transitions exactly one observes RowsAffected == 1.
func (r *Repo) UpdateSessionCAS(ctx context.Context, id string, from []models.RentStatus, set map[string]any) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.RentalSession{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repo) DeleteSessionHard(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&models.RentalSession{}, "id = ?", id).Error
}

func (r *Repo) SessionsPastReservation(ctx context.Context, cutoff time.Time, limit int) ([]models.RentalSession, error) {
	var sessions []models.RentalSession
	err := r.DB.WithContext(ctx).
		Where("status = ? AND reservation_ts < ?", string(models.StatusReserved), cutoff).
		Order("reservation_ts").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *Repo) SessionsPastDeadline(ctx context.Context, now time.Time, limit int) ([]models.RentalSession, error) {
	var sessions []models.RentalSession
	err := r.DB.WithContext(ctx).
		Where("status = ? AND deadline_ts < ?", string(models.StatusActive), now).
		Order("deadline_ts").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}
