package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"aadinath/api/models"
)

// MemoryStore keeps every collection in process. It backs tests and
// STORAGE_DRIVER=memory.
type MemoryStore struct {
	mu          sync.RWMutex
	views       []models.PageViewEvent
	scans       []models.ScanEvent
	engagements []models.EngagementEvent
	subs        []models.CustomerSubmission
	nextSubID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AppendPageViews(_ context.Context, events []models.PageViewEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, events...)
	return nil
}

func (m *MemoryStore) AppendScans(_ context.Context, events []models.ScanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, events...)
	return nil
}

func (m *MemoryStore) AppendEngagements(_ context.Context, events []models.EngagementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engagements = append(m.engagements, events...)
	return nil
}

func (m *MemoryStore) InsertSubmission(_ context.Context, sub *models.CustomerSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSubID++
	sub.ID = m.nextSubID
	if sub.Timestamp.IsZero() {
		sub.Timestamp = time.Now().UTC()
	}
	m.subs = append(m.subs, *sub)
	return nil
}

func (m *MemoryStore) ListPageViews(_ context.Context, f Filter) ([]models.PageViewEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectRecords(m.views, f, func(e models.PageViewEvent) bool {
		return f.Contains(e.Timestamp) && matchSession(f, e.SessionID)
	}, func(e models.PageViewEvent) time.Time { return e.Timestamp }), nil
}

func (m *MemoryStore) ListScans(_ context.Context, f Filter) ([]models.ScanEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectRecords(m.scans, f, func(e models.ScanEvent) bool {
		return f.Contains(e.Timestamp) && matchSession(f, e.SessionID) && matchFold(f.City, e.Location.City)
	}, func(e models.ScanEvent) time.Time { return e.Timestamp }), nil
}

func (m *MemoryStore) ListEngagements(_ context.Context, f Filter) ([]models.EngagementEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectRecords(m.engagements, f, func(e models.EngagementEvent) bool {
		return f.Contains(e.Timestamp) && matchSession(f, e.SessionID) && (f.Action == "" || f.Action == e.Action)
	}, func(e models.EngagementEvent) time.Time { return e.Timestamp }), nil
}

func (m *MemoryStore) ListSubmissions(_ context.Context, f Filter) ([]models.CustomerSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectRecords(m.subs, f, func(s models.CustomerSubmission) bool {
		return f.Contains(s.Timestamp) && matchSession(f, s.SessionID) &&
			matchFold(f.City, s.City) && matchFold(f.UseCase, s.UseCase)
	}, func(s models.CustomerSubmission) time.Time { return s.Timestamp }), nil
}

func (m *MemoryStore) CountPageViews(ctx context.Context, f Filter) (int, error) {
	f.Limit = 0
	views, _ := m.ListPageViews(ctx, f)
	return len(views), nil
}

func (m *MemoryStore) CountScans(ctx context.Context, f Filter) (int, error) {
	f.Limit = 0
	scans, _ := m.ListScans(ctx, f)
	return len(scans), nil
}

func (m *MemoryStore) CountSubmissions(ctx context.Context, f Filter) (int, error) {
	f.Limit = 0
	subs, _ := m.ListSubmissions(ctx, f)
	return len(subs), nil
}

// selectRecords copies the matching records, orders them by timestamp and applies
// the cap. Insertion order breaks timestamp ties.
func selectRecords[T any](records []T, f Filter, match func(T) bool, ts func(T) time.Time) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b T) int {
		if f.descending() {
			return ts(b).Compare(ts(a))
		}
		return ts(a).Compare(ts(b))
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func matchSession(f Filter, sessionID string) bool {
	return f.SessionID == "" || f.SessionID == sessionID
}

func matchFold(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

// MemoryUserStore keeps admin accounts in process.
type MemoryUserStore struct {
	mu     sync.Mutex
	users  map[string]models.AdminUser
	nextID int
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.AdminUser)}
}

func (m *MemoryUserStore) CreateUser(_ context.Context, email string, hashedPassword []byte) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return nil, fmt.Errorf("user with email '%s': %w", email, ErrDuplicate)
	}
	m.nextID++
	now := time.Now().UTC()
	user := models.AdminUser{ID: m.nextID, Email: email, HashedPassword: hashedPassword, CreatedAt: now, UpdatedAt: now}
	m.users[email] = user
	return &user, nil
}

func (m *MemoryUserStore) GetUserByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return nil, fmt.Errorf("user with email '%s': %w", email, ErrNotFound)
	}
	return &user, nil
}
