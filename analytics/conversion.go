package analytics

import (
	"sort"

	"aadinath/api/models"
)

// SessionSet is a set of session ids.
type SessionSet map[string]struct{}

func (s SessionSet) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

// SubmissionSessions collects the session ids of correlatable submissions.
func SubmissionSessions(subs []models.CustomerSubmission) SessionSet {
	set := make(SessionSet, len(subs))
	for _, sub := range subs {
		if sub.Correlatable() {
			set[sub.SessionID] = struct{}{}
		}
	}
	return set
}

// SessionMetricsFor renders sessions, marking those present in converted.
func SessionMetricsFor(sessions []Session, converted SessionSet) []models.SessionMetrics {
	out := make([]models.SessionMetrics, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Metrics(converted.Has(s.SessionID)))
	}
	return out
}

// MarkScansConverted sets the derived Converted flag on each scan.
func MarkScansConverted(scans []models.ScanEvent, converted SessionSet) []models.ScanEvent {
	out := make([]models.ScanEvent, len(scans))
	for i, sc := range scans {
		sc.Converted = converted.Has(sc.SessionID)
		out[i] = sc
	}
	return out
}

// originatingScans maps each session id to its earliest scan. Ties on the
// timestamp are broken by event id.
func originatingScans(scans []models.ScanEvent) map[string]models.ScanEvent {
	first := make(map[string]models.ScanEvent, len(scans))
	for _, sc := range scans {
		if sc.SessionID == "" {
			continue
		}
		cur, ok := first[sc.SessionID]
		if !ok || sc.Timestamp.Before(cur.Timestamp) ||
			(sc.Timestamp.Equal(cur.Timestamp) && sc.EventID < cur.EventID) {
			first[sc.SessionID] = sc
		}
	}
	return first
}

// ConversionDetails pairs each correlatable submission with the originating
// scan of its session. Submissions with no session id or no matching scan are
// left out. Time lag is submission minus scan in milliseconds, clamped at zero
// when the clocks disagree. The result is ordered newest submission first.
func ConversionDetails(scans []models.ScanEvent, subs []models.CustomerSubmission) []models.ConversionDetail {
	origin := originatingScans(scans)

	details := make([]models.ConversionDetail, 0, len(subs))
	for _, sub := range subs {
		if !sub.Correlatable() {
			continue
		}
		scan, ok := origin[sub.SessionID]
		if !ok {
			continue
		}

		lag := sub.Timestamp.Sub(scan.Timestamp).Milliseconds()
		if lag < 0 {
			lag = 0
		}

		city := sub.City
		if city == "" {
			city = scan.Location.City
		}

		details = append(details, models.ConversionDetail{
			SessionID:       sub.SessionID,
			ScanTimestamp:   scan.Timestamp,
			SubmitTimestamp: sub.Timestamp,
			TimeLag:         lag,
			City:            models.Location{City: city}.CityOrUnknown(),
			CustomerName:    sub.Name,
		})
	}

	SortConversions(details, ConversionsRecent)
	return details
}

type ConversionSort string

const (
	ConversionsRecent  ConversionSort = "recent"
	ConversionsTimeLag ConversionSort = "timelag"
)

// SortConversions orders details in place; recent is newest submission first,
// timelag is fastest conversion first.
func SortConversions(details []models.ConversionDetail, by ConversionSort) {
	sort.SliceStable(details, func(i, j int) bool {
		a, b := details[i], details[j]
		if by == ConversionsTimeLag && a.TimeLag != b.TimeLag {
			return a.TimeLag < b.TimeLag
		}
		if !a.SubmitTimestamp.Equal(b.SubmitTimestamp) {
			return a.SubmitTimestamp.After(b.SubmitTimestamp)
		}
		return a.SessionID < b.SessionID
	})
}

// FilterConversionsByCity keeps details whose city matches; empty city keeps all.
func FilterConversionsByCity(details []models.ConversionDetail, city string) []models.ConversionDetail {
	if city == "" {
		return details
	}
	out := make([]models.ConversionDetail, 0, len(details))
	for _, d := range details {
		if d.City == city {
			out = append(out, d)
		}
	}
	return out
}

// VerifyPageMetrics rolls up the verification page KPIs. scans are the ones in
// the reporting window and drive the scan total; joinScans are the candidates
// for the originating-scan join and may reach back before the window. All
// submissions count toward the total; only joined ones feed the average time
// to submit.
func VerifyPageMetrics(scans, joinScans []models.ScanEvent, subs []models.CustomerSubmission) models.VerifyPageMetricsData {
	details := ConversionDetails(joinScans, subs)

	var avg float64
	if len(details) > 0 {
		var total int64
		for _, d := range details {
			total += d.TimeLag
		}
		avg = float64(total) / float64(len(details))
	}

	return models.VerifyPageMetricsData{
		TotalScans:       len(scans),
		TotalSubmissions: len(subs),
		ConversionRate:   ConversionRate(len(subs), len(scans)),
		AvgTimeToSubmit:  avg,
	}
}
