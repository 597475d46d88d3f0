package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"rental_backend/apierrors"
	"rental_backend/models"
)

func (r *Repo) CreateStrike(ctx context.Context, s *models.Strike) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// StrikeBySession returns the strike linked to a session, or nil.
func (r *Repo) StrikeBySession(ctx context.Context, sessionID string) (*models.Strike, error) {
	var s models.Strike
	err := r.DB.WithContext(ctx).
		First(&s, "session_id = ? AND is_deleted = FALSE", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) FindStrike(ctx context.Context, id string) (*models.Strike, error) {
	var s models.Strike
	if err := r.DB.WithContext(ctx).
		First(&s, "id = ? AND is_deleted = FALSE", id).Error; err != nil {
		return nil, translateNotFound(err, "Strike", id)
	}
	return &s, nil
}

// StrikeFilter narrows strike listings. From/To must be supplied together;
// controllers enforce that before calling.
type StrikeFilter struct {
	UserID    string
	AdminID   string
	SessionID string
	From, To  *time.Time
}

func (r *Repo) ListStrikes(ctx context.Context, f StrikeFilter, includeDeleted bool) ([]models.Strike, error) {
	q := r.DB.WithContext(ctx).Model(&models.Strike{}).Order("create_ts DESC")
	if !includeDeleted {
		q = q.Where("is_deleted = FALSE")
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.AdminID != "" {
		q = q.Where("admin_id = ?", f.AdminID)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.From != nil && f.To != nil {
		q = q.Where("create_ts BETWEEN ? AND ?", *f.From, *f.To)
	}
	var strikes []models.Strike
	err := q.Find(&strikes).Error
	return strikes, err
}

func (r *Repo) DeleteStrike(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.Strike{}).
		Where("id = ? AND is_deleted = FALSE", id).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierrors.ObjectNotFound("Strike", id)
	}
	return nil
}
