package rental

import (
	"context"
	"sort"
	"sync"
	"time"

	"rental_backend/apierrors"
	"rental_backend/models"
)

// fakeStore is an in-memory Store. Atomically serializes on a mutex, which
// mirrors what the database transaction guarantees the service: transitions
// are mutually exclusive and CAS updates observe committed state. The service
// never mutates before its precondition checks pass, so rollback is not
// modeled.
type fakeStore struct {
	mu       sync.Mutex
	types    map[string]*models.ItemType
	items    map[string]*models.Item
	sessions map[string]*models.RentalSession
	strikes  map[string]*models.Strike
	events   []*models.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types:    map[string]*models.ItemType{},
		items:    map[string]*models.Item{},
		sessions: map[string]*models.RentalSession{},
		strikes:  map[string]*models.Strike{},
	}
}

func (f *fakeStore) Atomically(ctx context.Context, fn func(Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn((*lockedStore)(f))
}

// lockedStore is the fake handed to transaction callbacks; the mutex is
// already held.
type lockedStore fakeStore

func (f *lockedStore) Atomically(ctx context.Context, fn func(Store) error) error {
	return fn(f)
}

func (f *lockedStore) SessionByID(ctx context.Context, id string) (*models.RentalSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apierrors.ObjectNotFound("RentalSession", id)
	}
	cp := *s
	return &cp, nil
}

func (f *lockedStore) SnapshotSession(ctx context.Context, id string) (*models.RentalSession, error) {
	s, err := f.SessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it, ok := f.items[s.ItemID]; ok {
		s.ItemTypeID = it.TypeID
	}
	for _, st := range f.strikes {
		if st.SessionID != nil && *st.SessionID == s.ID {
			id := st.ID
			s.StrikeID = &id
			break
		}
	}
	return s, nil
}

func (f *lockedStore) SnapshotSessions(ctx context.Context, filter SessionFilter) ([]models.RentalSession, error) {
	var out []models.RentalSession
	for _, s := range f.sessions {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, s.Status) {
			continue
		}
		snap, err := f.SnapshotSession(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservationTS.After(out[j].ReservationTS) })
	return out, nil
}

func (f *lockedStore) HasHoldingSession(ctx context.Context, userID, itemTypeID string) (bool, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status.Holding() && f.typeOf(s.ItemID) == itemTypeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *lockedStore) ChurnSessions(ctx context.Context, userID, itemTypeID string, since time.Time) ([]models.RentalSession, error) {
	var out []models.RentalSession
	for _, s := range f.sessions {
		if s.UserID == userID && containsStatus(models.ChurnStatuses, s.Status) &&
			f.typeOf(s.ItemID) == itemTypeID && s.ReservationTS.After(since) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *lockedStore) CreateSession(ctx context.Context, s *models.RentalSession) error {
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *lockedStore) UpdateSessionCAS(ctx context.Context, id string, from []models.RentStatus, set map[string]any) (bool, error) {
	s, ok := f.sessions[id]
	if !ok || !containsStatus(from, s.Status) {
		return false, nil
	}
	applySet(s, set)
	return true, nil
}

func (f *lockedStore) DeleteSessionHard(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *lockedStore) SessionsPastReservation(ctx context.Context, cutoff time.Time, limit int) ([]models.RentalSession, error) {
	var out []models.RentalSession
	for _, s := range f.sessions {
		if s.Status == models.StatusReserved && s.ReservationTS.Before(cutoff) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *lockedStore) SessionsPastDeadline(ctx context.Context, now time.Time, limit int) ([]models.RentalSession, error) {
	var out []models.RentalSession
	for _, s := range f.sessions {
		if s.Status == models.StatusActive && s.DeadlineTS != nil && s.DeadlineTS.Before(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *lockedStore) AllocateItem(ctx context.Context, itemTypeID string) (*models.Item, error) {
	var ids []string
	for id, it := range f.items {
		if it.TypeID == itemTypeID && it.IsAvailable && !it.IsDeleted {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, apierrors.NoneAvailable(itemTypeID)
	}
	sort.Strings(ids)
	it := f.items[ids[0]]
	it.IsAvailable = false
	cp := *it
	return &cp, nil
}

func (f *lockedStore) ReleaseItem(ctx context.Context, itemID string) error {
	if it, ok := f.items[itemID]; ok {
		it.IsAvailable = true
	}
	return nil
}

func (f *lockedStore) OccupyItem(ctx context.Context, itemID string) error {
	if it, ok := f.items[itemID]; ok {
		it.IsAvailable = false
	}
	return nil
}

func (f *lockedStore) ItemTypeExists(ctx context.Context, id string) (bool, error) {
	t, ok := f.types[id]
	return ok && !t.IsDeleted, nil
}

func (f *lockedStore) CreateStrike(ctx context.Context, s *models.Strike) error {
	cp := *s
	f.strikes[s.ID] = &cp
	return nil
}

func (f *lockedStore) AppendEvent(ctx context.Context, e *models.Event) error {
	cp := *e
	f.events = append(f.events, &cp)
	return nil
}

func (f *lockedStore) typeOf(itemID string) string {
	if it, ok := f.items[itemID]; ok {
		return it.TypeID
	}
	return ""
}

// The unlocked fake delegates reads to the locked form under the mutex.

func (f *fakeStore) locked() *lockedStore { return (*lockedStore)(f) }

func (f *fakeStore) SessionByID(ctx context.Context, id string) (*models.RentalSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().SessionByID(ctx, id)
}

func (f *fakeStore) SnapshotSession(ctx context.Context, id string) (*models.RentalSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().SnapshotSession(ctx, id)
}

func (f *fakeStore) SnapshotSessions(ctx context.Context, filter SessionFilter) ([]models.RentalSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().SnapshotSessions(ctx, filter)
}

func (f *fakeStore) HasHoldingSession(ctx context.Context, userID, itemTypeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().HasHoldingSession(ctx, userID, itemTypeID)
}

func (f *fakeStore) ChurnSessions(ctx context.Context, userID, itemTypeID string, since time.Time) ([]models.RentalSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().ChurnSessions(ctx, userID, itemTypeID, since)
}

func (f *fakeStore) CreateSession(ctx context.Context, s *models.RentalSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().CreateSession(ctx, s)
}

func (f *fakeStore) UpdateSessionCAS(ctx context.Context, id string, from []models.RentStatus, set map[string]any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().UpdateSessionCAS(ctx, id, from, set)
}

func (f *fakeStore) DeleteSessionHard(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().DeleteSessionHard(ctx, id)
}

func (f *fakeStore) SessionsPastReservation(ctx context.Context, cutoff time.Time, limit int) ([]models.RentalSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().SessionsPastReservation(ctx, cutoff, limit)
}

func (f *fakeStore) SessionsPastDeadline(ctx context.Context, now time.Time, limit int) ([]models.RentalSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().SessionsPastDeadline(ctx, now, limit)
}

func (f *fakeStore) AllocateItem(ctx context.Context, itemTypeID string) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().AllocateItem(ctx, itemTypeID)
}

func (f *fakeStore) ReleaseItem(ctx context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().ReleaseItem(ctx, itemID)
}

func (f *fakeStore) OccupyItem(ctx context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().OccupyItem(ctx, itemID)
}

func (f *fakeStore) ItemTypeExists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().ItemTypeExists(ctx, id)
}

func (f *fakeStore) CreateStrike(ctx context.Context, s *models.Strike) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().CreateStrike(ctx, s)
}

func (f *fakeStore) AppendEvent(ctx context.Context, e *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked().AppendEvent(ctx, e)
}

func applySet(s *models.RentalSession, set map[string]any) {
	for k, v := range set {
		switch k {
		case "status":
			s.Status = v.(models.RentStatus)
		case "start_ts":
			t := v.(time.Time)
			s.StartTS = &t
		case "end_ts":
			t := v.(time.Time)
			s.EndTS = &t
		case "actual_return_ts":
			t := v.(time.Time)
			s.ActualReturnTS = &t
		case "deadline_ts":
			t := v.(time.Time)
			s.DeadlineTS = &t
		case "admin_open_id":
			id := v.(string)
			s.AdminOpenID = &id
		case "admin_close_id":
			id := v.(string)
			s.AdminCloseID = &id
		}
	}
}

func containsStatus(in []models.RentStatus, s models.RentStatus) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}

// --- shared test scaffolding ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (f *fakeStore) addType(id string) {
	f.types[id] = &models.ItemType{ID: id, Name: id}
}

func (f *fakeStore) addItem(id, typeID string, available bool) {
	f.items[id] = &models.Item{ID: id, TypeID: typeID, IsAvailable: available}
}

func (f *fakeStore) item(id string) *models.Item { return f.items[id] }

func (f *fakeStore) eventsOf(action string) []*models.Event {
	var out []*models.Event
	for _, e := range f.events {
		if e.ActionType == action {
			out = append(out, e)
		}
	}
	return out
}
