package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadinath/api/models"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func pv(session, page string, offset time.Duration) models.PageViewEvent {
	return models.PageViewEvent{
		EventID:     fmt.Sprintf("%s-%s-%d", session, page, offset),
		SessionID:   session,
		CurrentPage: page,
		Timestamp:   baseTime.Add(offset),
		DeviceType:  models.DeviceMobile,
		SourceType:  models.SourceQR,
		Source:      "BATCH-7",
		Location:    models.Location{City: "Bhavnagar", Country: "India"},
	}
}

func TestGroupSessions_Scenario(t *testing.T) {
	events := []models.PageViewEvent{
		pv("S1", "/verify", 200*time.Second),
		pv("S1", "/", 0),
		pv("S1", "/products", 60*time.Second),
	}

	sessions := GroupSessions(events)
	require.Len(t, sessions, 1)

	m := sessions[0].Metrics(false)
	assert.Equal(t, int64(200000), m.Duration)
	assert.Equal(t, 3, m.PagesVisited)
	assert.Equal(t, "/ → /products → /verify", m.Path)
	assert.Equal(t, baseTime, m.Timestamp)
	assert.Equal(t, baseTime.Add(200*time.Second), m.LastActivity)
}

func TestGroupSessions_SingleEventHasZeroDuration(t *testing.T) {
	sessions := GroupSessions([]models.PageViewEvent{pv("S1", "/", 0)})
	require.Len(t, sessions, 1)
	assert.Equal(t, time.Duration(0), sessions[0].Duration())
	assert.Equal(t, 1, sessions[0].Metrics(false).PagesVisited)
}

func TestGroupSessions_DropsMissingSessionID(t *testing.T) {
	sessions := GroupSessions([]models.PageViewEvent{
		pv("", "/", 0),
		pv("S1", "/", time.Second),
	})
	require.Len(t, sessions, 1)
	assert.Equal(t, "S1", sessions[0].SessionID)
}

func TestGroupSessions_Empty(t *testing.T) {
	assert.Empty(t, GroupSessions(nil))
	assert.Empty(t, SessionMetricsFor(nil, nil))
}

func TestGroupSessions_AttributionFromFirstEvent(t *testing.T) {
	first := pv("S1", "/verify", 0)
	later := pv("S1", "/products", time.Minute)
	later.Location = models.Location{City: "Mumbai", Country: "India"}
	later.DeviceType = models.DeviceDesktop
	later.SourceType = models.SourceDirect
	later.Source = ""

	m := GroupSessions([]models.PageViewEvent{later, first})[0].Metrics(false)
	assert.Equal(t, "Bhavnagar", m.City)
	assert.Equal(t, models.DeviceMobile, m.DeviceType)
	assert.Equal(t, models.SourceQR, m.SourceType)
	assert.Equal(t, "BATCH-7", m.Source)
}

func TestGroupSessions_MissingLocationIsUnknown(t *testing.T) {
	ev := pv("S1", "/", 0)
	ev.Location = models.Location{}
	ev.DeviceType = ""
	ev.SourceType = ""

	m := GroupSessions([]models.PageViewEvent{ev})[0].Metrics(false)
	assert.Equal(t, models.Unknown, m.City)
	assert.Equal(t, models.Unknown, m.Country)
	assert.Equal(t, models.DeviceDesktop, m.DeviceType)
	assert.Equal(t, models.SourceDirect, m.SourceType)
}

func TestGroupSessions_PagesVisitedMatchesDistinctPairs(t *testing.T) {
	events := []models.PageViewEvent{
		pv("A", "/", 0),
		pv("A", "/products", time.Second),
		pv("A", "/", 2*time.Second),
		pv("B", "/", 0),
		pv("B", "/", time.Second),
		pv("C", "/about-us", 0),
		pv("C", "/contact-us", time.Minute),
		pv("C", "/products", 2*time.Minute),
		pv("D", "", 0),
		pv("D", "unknown", time.Second),
	}

	distinct := make(map[[2]string]struct{})
	for _, e := range events {
		distinct[[2]string{e.SessionID, e.CurrentPage}] = struct{}{}
	}

	total := 0
	for _, s := range GroupSessions(events) {
		total += s.Metrics(false).PagesVisited
	}
	assert.Equal(t, len(distinct), total)
}

func TestSessionPages_EmptyPathLabelledNotMerged(t *testing.T) {
	sessions := GroupSessions([]models.PageViewEvent{
		pv("A", "", 0),
		pv("A", "unknown", time.Second),
		pv("A", "", 2*time.Second),
	})
	require.Len(t, sessions, 1)

	m := sessions[0].Metrics(false)
	assert.Equal(t, 2, m.PagesVisited)
	assert.Equal(t, []string{"unknown", "unknown"}, m.Pages)
}

func TestGroupSessions_OrderIndependent(t *testing.T) {
	events := []models.PageViewEvent{
		pv("A", "/", 0),
		pv("B", "/", time.Minute),
		pv("A", "/products", 2*time.Minute),
		pv("C", "/", 2*time.Minute),
	}
	reversed := make([]models.PageViewEvent, len(events))
	for i, e := range events {
		reversed[len(events)-1-i] = e
	}

	first := SessionMetricsFor(GroupSessions(events), nil)
	second := SessionMetricsFor(GroupSessions(events), nil)
	third := SessionMetricsFor(GroupSessions(reversed), nil)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)

	// A and C share the latest activity; the id breaks the tie.
	require.Len(t, first, 3)
	assert.Equal(t, "A", first[0].SessionID)
	assert.Equal(t, "C", first[1].SessionID)
	assert.Equal(t, "B", first[2].SessionID)
}

func TestTruncateSessions(t *testing.T) {
	sessions := GroupSessions([]models.PageViewEvent{
		pv("A", "/", 0),
		pv("B", "/", time.Minute),
		pv("C", "/", 2*time.Minute),
	})

	assert.Len(t, TruncateSessions(sessions, 2), 2)
	assert.Equal(t, "C", TruncateSessions(sessions, 1)[0].SessionID)
	assert.Len(t, TruncateSessions(sessions, 0), 3)
	assert.Len(t, TruncateSessions(sessions, 10), 3)
}

func TestSplitIdle(t *testing.T) {
	s := GroupSessions([]models.PageViewEvent{
		pv("S1", "/", 0),
		pv("S1", "/products", 5*time.Minute),
		pv("S1", "/verify", 2*time.Hour),
		pv("S1", "/contact-us", 2*time.Hour+time.Minute),
	})[0]

	parts := SplitIdle(s, 30*time.Minute)
	require.Len(t, parts, 2)
	assert.Equal(t, 1, parts[0].Segment)
	assert.Equal(t, 2, parts[1].Segment)
	assert.Equal(t, []string{"/", "/products"}, parts[0].Pages())
	assert.Equal(t, []string{"/verify", "/contact-us"}, parts[1].Pages())
	assert.Equal(t, time.Minute, parts[1].Duration())

	assert.Equal(t, []Session{s}, SplitIdle(s, 0))
	assert.Equal(t, []Session{s}, SplitIdle(s, 3*time.Hour))
}

func TestSplitAllIdle_SortsSegments(t *testing.T) {
	sessions := GroupSessions([]models.PageViewEvent{
		pv("S1", "/", 0),
		pv("S1", "/verify", 3*time.Hour),
		pv("S2", "/", time.Hour),
	})

	parts := SplitAllIdle(sessions, 30*time.Minute)
	require.Len(t, parts, 3)
	assert.Equal(t, "S1", parts[0].SessionID)
	assert.Equal(t, 2, parts[0].Segment)
	assert.Equal(t, "S2", parts[1].SessionID)
	assert.Equal(t, 1, parts[2].Segment)
}

func TestSortAndFilterSessions(t *testing.T) {
	sessions := []models.SessionMetrics{
		{SessionID: "a", Duration: 10, Timestamp: baseTime, City: "Bhavnagar"},
		{SessionID: "b", Duration: 90, Timestamp: baseTime.Add(time.Hour), City: "Mumbai", Converted: true},
		{SessionID: "c", Duration: 50, Timestamp: baseTime.Add(2 * time.Hour), City: "Bhavnagar"},
	}

	SortSessions(sessions, SortDuration)
	assert.Equal(t, []string{"b", "c", "a"}, ids(sessions))

	SortSessions(sessions, SortRecent)
	assert.Equal(t, []string{"c", "b", "a"}, ids(sessions))

	SortSessions(sessions, SortConverted)
	assert.Equal(t, []string{"b", "c", "a"}, ids(sessions))

	assert.Equal(t, []string{"c", "a"}, ids(FilterSessions(sessions, SessionFilter{City: "Bhavnagar"})))
	assert.Equal(t, []string{"b"}, ids(FilterSessions(sessions, SessionFilter{Status: "converted"})))
	assert.Equal(t, []string{"c", "a"}, ids(FilterSessions(sessions, SessionFilter{Status: "bounced"})))
	assert.Len(t, FilterSessions(sessions, SessionFilter{Status: "all"}), 3)
}

func TestSummarizeSessions(t *testing.T) {
	assert.Equal(t, models.SessionSummary{}, SummarizeSessions(nil))

	summary := SummarizeSessions([]models.SessionMetrics{
		{Duration: 1000, Converted: true},
		{Duration: 3000},
	})
	assert.Equal(t, 2, summary.TotalSessions)
	assert.Equal(t, 1, summary.ConvertedCount)
	assert.InDelta(t, 50.0, summary.ConversionRate, 1e-9)
	assert.InDelta(t, 2000.0, summary.AvgDuration, 1e-9)
}

func ids(sessions []models.SessionMetrics) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.SessionID
	}
	return out
}
