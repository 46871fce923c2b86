package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadinath/api/models"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedViews(t *testing.T, m *MemoryStore) {
	t.Helper()
	require.NoError(t, m.AppendPageViews(context.Background(), []models.PageViewEvent{
		{EventID: "e3", SessionID: "S2", CurrentPage: "/", Timestamp: t0.Add(2 * time.Minute)},
		{EventID: "e1", SessionID: "S1", CurrentPage: "/", Timestamp: t0},
		{EventID: "e2", SessionID: "S1", CurrentPage: "/products", Timestamp: t0.Add(time.Minute)},
	}))
}

func TestMemoryStore_ListPageViews(t *testing.T) {
	m := NewMemoryStore()
	seedViews(t, m)
	ctx := context.Background()

	asc, err := m.ListPageViews(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, eventIDs(asc))

	desc, err := m.ListPageViews(ctx, Filter{Order: OrderDesc, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2"}, eventIDs(desc))

	ranged, err := m.ListPageViews(ctx, Filter{}.Between(t0, t0.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, eventIDs(ranged), "both bounds inclusive")

	session, err := m.ListPageViews(ctx, Filter{SessionID: "S2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"e3"}, eventIDs(session))

	n, err := m.CountPageViews(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, n, "count ignores the cap")
}

func TestMemoryStore_ScansEngagementsSubmissions(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.AppendScans(ctx, []models.ScanEvent{
		{EventID: "s1", SessionID: "S1", Timestamp: t0, Location: models.Location{City: "Bhavnagar"}},
		{EventID: "s2", SessionID: "S2", Timestamp: t0, Location: models.Location{City: "Mumbai"}},
	}))
	scans, err := m.ListScans(ctx, Filter{City: "bhavnagar"})
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "s1", scans[0].EventID)

	require.NoError(t, m.AppendEngagements(ctx, []models.EngagementEvent{
		{EventID: "g1", Action: models.ActionFormOpened, Timestamp: t0},
		{EventID: "g2", Action: models.ActionWhatsAppClick, Timestamp: t0},
	}))
	opened, err := m.ListEngagements(ctx, Filter{Action: models.ActionFormOpened})
	require.NoError(t, err)
	require.Len(t, opened, 1)
	assert.Equal(t, "g1", opened[0].EventID)

	first := &models.CustomerSubmission{SessionID: "S1", Name: "Ravi", City: "Bhavnagar", UseCase: "Construction", Timestamp: t0}
	second := &models.CustomerSubmission{Name: "Asha", City: "Surat"}
	require.NoError(t, m.InsertSubmission(ctx, first))
	require.NoError(t, m.InsertSubmission(ctx, second))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, second.Timestamp.IsZero())

	leads, err := m.ListSubmissions(ctx, Filter{UseCase: "construction"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Ravi", leads[0].Name)

	n, err := m.CountSubmissions(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryStore_ListReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	seedViews(t, m)

	views, _ := m.ListPageViews(context.Background(), Filter{})
	views[0].CurrentPage = "/mutated"

	again, _ := m.ListPageViews(context.Background(), Filter{})
	assert.Equal(t, "/", again[0].CurrentPage)
}

func TestMemoryUserStore(t *testing.T) {
	users := NewMemoryUserStore()
	ctx := context.Background()

	created, err := users.CreateUser(ctx, "admin@aadinath.in", []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	_, err = users.CreateUser(ctx, "admin@aadinath.in", []byte("hash"))
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := users.GetUserByEmail(ctx, "admin@aadinath.in")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), got.HashedPassword)

	_, err = users.GetUserByEmail(ctx, "nobody@aadinath.in")
	assert.ErrorIs(t, err, ErrNotFound)
}

func eventIDs(views []models.PageViewEvent) []string {
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.EventID
	}
	return ids
}
