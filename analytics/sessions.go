// Package analytics holds the pure aggregation functions behind the admin
// dashboard. Nothing in this package performs I/O; every function is total
// over its inputs, including empty slices.
package analytics

import (
	"sort"
	"strings"
	"time"

	"aadinath/api/models"
)

// PathSeparator joins page paths in the session path label.
const PathSeparator = " → "

// Session is a group of page views sharing one session id, ordered by time.
// It is derived on demand and never persisted.
type Session struct {
	SessionID string
	Segment   int
	Events    []models.PageViewEvent
}

// First is the chronologically first event; attribution is read from it.
func (s Session) First() models.PageViewEvent {
	return s.Events[0]
}

func (s Session) Last() models.PageViewEvent {
	return s.Events[len(s.Events)-1]
}

func (s Session) Start() time.Time {
	return s.First().Timestamp
}

func (s Session) LastActivity() time.Time {
	return s.Last().Timestamp
}

// Duration is last minus first timestamp, never negative.
func (s Session) Duration() time.Duration {
	d := s.LastActivity().Sub(s.Start())
	if d < 0 {
		return 0
	}
	return d
}

// Pages returns the distinct current-page paths in first-occurrence order.
// Distinctness is on the stored path; an empty path is only labelled for
// display.
func (s Session) Pages() []string {
	seen := make(map[string]struct{}, len(s.Events))
	pages := make([]string, 0, len(s.Events))
	for _, ev := range s.Events {
		if _, ok := seen[ev.CurrentPage]; ok {
			continue
		}
		seen[ev.CurrentPage] = struct{}{}
		pages = append(pages, resolvePage(ev.CurrentPage))
	}
	return pages
}

// Metrics renders the session for the dashboard.
func (s Session) Metrics(converted bool) models.SessionMetrics {
	first := s.First()
	pages := s.Pages()

	device := first.DeviceType
	if device == "" {
		device = models.DeviceDesktop
	}
	sourceType := first.SourceType
	if sourceType == "" {
		sourceType = models.SourceDirect
	}

	return models.SessionMetrics{
		SessionID:    s.SessionID,
		Segment:      s.Segment,
		Duration:     s.Duration().Milliseconds(),
		PagesVisited: len(pages),
		Path:         strings.Join(pages, PathSeparator),
		Pages:        pages,
		City:         first.Location.CityOrUnknown(),
		Country:      first.Location.CountryOrUnknown(),
		Timestamp:    s.Start(),
		LastActivity: s.LastActivity(),
		Converted:    converted,
		DeviceType:   device,
		SourceType:   sourceType,
		Source:       first.Source,
		UserAgent:    first.UserAgent,
	}
}

// GroupSessions partitions page views by session id. Events without a session
// id are dropped. Within a session events are sorted ascending by timestamp;
// sessions are ordered by most recent activity, newest first, ties broken by
// session id so the result does not depend on input order.
func GroupSessions(events []models.PageViewEvent) []Session {
	groups := make(map[string][]models.PageViewEvent)
	for _, ev := range events {
		if ev.SessionID == "" {
			continue
		}
		groups[ev.SessionID] = append(groups[ev.SessionID], ev)
	}

	sessions := make([]Session, 0, len(groups))
	for id, evs := range groups {
		sorted := make([]models.PageViewEvent, len(evs))
		copy(sorted, evs)
		sortEvents(sorted)
		sessions = append(sessions, Session{SessionID: id, Events: sorted})
	}

	sortByRecentActivity(sessions)
	return sessions
}

// TruncateSessions keeps the first limit sessions. A non-positive limit keeps all.
func TruncateSessions(sessions []Session, limit int) []Session {
	if limit <= 0 || len(sessions) <= limit {
		return sessions
	}
	return sessions[:limit]
}

// SplitIdle splits a session wherever the gap between consecutive events
// exceeds gap. Segments keep the session id and are numbered from 1.
// A non-positive gap returns the session unchanged.
func SplitIdle(s Session, gap time.Duration) []Session {
	if gap <= 0 || len(s.Events) == 0 {
		return []Session{s}
	}

	var out []Session
	segment := 1
	start := 0
	for i := 1; i < len(s.Events); i++ {
		if s.Events[i].Timestamp.Sub(s.Events[i-1].Timestamp) > gap {
			out = append(out, Session{SessionID: s.SessionID, Segment: segment, Events: s.Events[start:i]})
			segment++
			start = i
		}
	}
	if segment == 1 {
		return []Session{s}
	}
	out = append(out, Session{SessionID: s.SessionID, Segment: segment, Events: s.Events[start:]})
	return out
}

// SplitAllIdle applies SplitIdle to every session and re-sorts the result.
func SplitAllIdle(sessions []Session, gap time.Duration) []Session {
	if gap <= 0 {
		return sessions
	}
	var out []Session
	for _, s := range sessions {
		out = append(out, SplitIdle(s, gap)...)
	}
	sortByRecentActivity(out)
	return out
}

func sortEvents(evs []models.PageViewEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		if !evs[i].Timestamp.Equal(evs[j].Timestamp) {
			return evs[i].Timestamp.Before(evs[j].Timestamp)
		}
		return evs[i].EventID < evs[j].EventID
	})
}

func sortByRecentActivity(sessions []Session) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i].LastActivity(), sessions[j].LastActivity()
		if !a.Equal(b) {
			return a.After(b)
		}
		if sessions[i].SessionID != sessions[j].SessionID {
			return sessions[i].SessionID < sessions[j].SessionID
		}
		return sessions[i].Segment > sessions[j].Segment
	})
}

func resolvePage(p string) string {
	if p == "" {
		return "unknown"
	}
	return p
}

// SessionSort names the orderings offered by the journey view.
type SessionSort string

const (
	SortRecent    SessionSort = "recent"
	SortDuration  SessionSort = "duration"
	SortConverted SessionSort = "converted"
)

// SortSessions orders session metrics in place. Unknown orderings fall back to recent.
func SortSessions(sessions []models.SessionMetrics, by SessionSort) {
	recent := func(a, b models.SessionMetrics) bool {
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.SessionID < b.SessionID
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		switch by {
		case SortDuration:
			if a.Duration != b.Duration {
				return a.Duration > b.Duration
			}
		case SortConverted:
			if a.Converted != b.Converted {
				return a.Converted
			}
		}
		return recent(a, b)
	})
}

// SessionFilter narrows the journey listing.
type SessionFilter struct {
	City string
	// Status is "all", "converted" or "bounced".
	Status string
}

func FilterSessions(sessions []models.SessionMetrics, f SessionFilter) []models.SessionMetrics {
	out := make([]models.SessionMetrics, 0, len(sessions))
	for _, s := range sessions {
		if f.City != "" && s.City != f.City {
			continue
		}
		switch f.Status {
		case "converted":
			if !s.Converted {
				continue
			}
		case "bounced":
			if s.Converted {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// SummarizeSessions computes the journey KPI cards.
func SummarizeSessions(sessions []models.SessionMetrics) models.SessionSummary {
	summary := models.SessionSummary{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return summary
	}

	var total int64
	for _, s := range sessions {
		if s.Converted {
			summary.ConvertedCount++
		}
		total += s.Duration
	}
	summary.ConversionRate = ConversionRate(summary.ConvertedCount, summary.TotalSessions)
	summary.AvgDuration = float64(total) / float64(len(sessions))
	return summary
}
