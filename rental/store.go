package rental

import (
	"context"
	"time"

	"rental_backend/models"
)

// SessionFilter narrows session list queries. Zero values mean "no filter".
type SessionFilter struct {
	UserID   string
	Statuses []models.RentStatus
}

// Store is the persistence contract the rental core runs against. The gorm
// implementation lives in the db package; tests use an in-memory fake.
//
// Methods that mutate state are expected to be called inside Atomically so
// that a status change, the item availability flip and the audit event land in
// one transaction. Status writes are compare-and-set: UpdateSessionCAS only
// applies when the current status is one of `from` and reports whether it won.
type Store interface {
	Atomically(ctx context.Context, fn func(Store) error) error

	// Sessions.
	SessionByID(ctx context.Context, id string) (*models.RentalSession, error)
	SnapshotSession(ctx context.Context, id string) (*models.RentalSession, error)
	SnapshotSessions(ctx context.Context, f SessionFilter) ([]models.RentalSession, error)
	HasHoldingSession(ctx context.Context, userID, itemTypeID string) (bool, error)
	ChurnSessions(ctx context.Context, userID, itemTypeID string, since time.Time) ([]models.RentalSession, error)
	CreateSession(ctx context.Context, s *models.RentalSession) error
	UpdateSessionCAS(ctx context.Context, id string, from []models.RentStatus, set map[string]any) (bool, error)
	DeleteSessionHard(ctx context.Context, id string) error

	// Sweep candidate queries.
	SessionsPastReservation(ctx context.Context, cutoff time.Time, limit int) ([]models.RentalSession, error)
	SessionsPastDeadline(ctx context.Context, now time.Time, limit int) ([]models.RentalSession, error)

	// Inventory.
	AllocateItem(ctx context.Context, itemTypeID string) (*models.Item, error)
	ReleaseItem(ctx context.Context, itemID string) error
	OccupyItem(ctx context.Context, itemID string) error
	ItemTypeExists(ctx context.Context, id string) (bool, error)

	// Strikes and the audit log.
	CreateStrike(ctx context.Context, s *models.Strike) error
	AppendEvent(ctx context.Context, e *models.Event) error
}
