package db

import (
	"context"
	"time"

	"rental_backend/models"
)

func (r *Repo) AppendEvent(ctx context.Context, e *models.Event) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *Repo) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := r.DB.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Event", id)
	}
	return &e, nil
}

type EventFilter struct {
	UserID     string
	AdminID    string
	SessionID  string
	ActionType string
	From, To   *time.Time
	Limit      int
}

func (r *Repo) ListEvents(ctx context.Context, f EventFilter) ([]models.Event, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 200
	}
	q := r.DB.WithContext(ctx).Model(&models.Event{}).
		Order("create_ts DESC").
		Limit(f.Limit)
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.AdminID != "" {
		q = q.Where("admin_id = ?", f.AdminID)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.ActionType != "" {
		q = q.Where("action_type = ?", f.ActionType)
	}
	if f.From != nil && f.To != nil {
		q = q.Where("create_ts BETWEEN ? AND ?", *f.From, *f.To)
	}
	var events []models.Event
	err := q.Find(&events).Error
	return events, err
}
