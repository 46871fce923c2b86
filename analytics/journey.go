package analytics

import "aadinath/api/models"

// BuildJourney replays one session: ordered steps with time on page, the
// originating scan and the latest submission carrying the same id. Inputs may
// contain other sessions' records; they are ignored.
func BuildJourney(sessionID string, views []models.PageViewEvent, scans []models.ScanEvent, subs []models.CustomerSubmission) models.JourneyData {
	journey := models.JourneyData{SessionID: sessionID, Steps: []models.JourneyStep{}, Pages: []string{}}
	if sessionID == "" {
		return journey
	}

	own := make([]models.PageViewEvent, 0, len(views))
	for _, v := range views {
		if v.SessionID == sessionID {
			own = append(own, v)
		}
	}

	if len(own) > 0 {
		s := GroupSessions(own)[0]
		for i, ev := range s.Events {
			step := models.JourneyStep{Page: resolvePage(ev.CurrentPage), Timestamp: ev.Timestamp}
			if i+1 < len(s.Events) {
				if d := s.Events[i+1].Timestamp.Sub(ev.Timestamp); d > 0 {
					step.TimeOnPage = d.Milliseconds()
				}
			}
			journey.Steps = append(journey.Steps, step)
		}
		journey.Pages = s.Pages()
		journey.Duration = s.Duration().Milliseconds()
	}

	if scan, ok := originatingScans(scans)[sessionID]; ok {
		journey.Scan = &scan
	}

	for i := range subs {
		sub := subs[i]
		if sub.SessionID != sessionID {
			continue
		}
		if journey.Submission == nil || sub.Timestamp.After(journey.Submission.Timestamp) {
			journey.Submission = &sub
		}
	}
	journey.Converted = journey.Submission != nil
	if journey.Scan != nil {
		journey.Scan.Converted = journey.Converted
	}
	return journey
}
