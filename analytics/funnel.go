package analytics

import "aadinath/api/models"

// StageCount is a raw funnel stage before percentages are derived.
type StageCount struct {
	Stage string
	Count int
}

// Stage names of the verification funnel.
const (
	StageScan          = "QR Scans"
	StageFormOpened    = "Form Opened"
	StageFormSubmitted = "Form Submitted"
	StageWhatsApp      = "WhatsApp Clicked"
)

// BuildFunnel derives bar widths relative to the largest stage and, for every
// stage after the first, the percentage of the first stage.
func BuildFunnel(stages []StageCount) []models.FunnelStage {
	maxCount := 0
	for _, s := range stages {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}

	out := make([]models.FunnelStage, len(stages))
	for i, s := range stages {
		stage := models.FunnelStage{Stage: s.Stage, Count: s.Count}
		if maxCount > 0 {
			stage.WidthPercent = float64(s.Count) / float64(maxCount) * 100
		}
		if i > 0 {
			pct := ConversionRate(s.Count, stages[0].Count)
			stage.PercentOfFirst = &pct
		}
		out[i] = stage
	}
	return out
}

// VerifyFunnel counts Scan → Form Opened → Form Submitted → WhatsApp Clicked.
// A scan's own engagement flags and engagement records both count, once per
// session for session-tagged records.
func VerifyFunnel(scans []models.ScanEvent, engagements []models.EngagementEvent, subs []models.CustomerSubmission) []models.FunnelStage {
	opened := countEngaged(scans, engagements, models.ActionFormOpened, func(s models.ScanEvent) bool { return s.FormOpened })
	whatsapp := countEngaged(scans, engagements, models.ActionWhatsAppClick, func(s models.ScanEvent) bool { return s.WhatsAppClicked })

	return BuildFunnel([]StageCount{
		{Stage: StageScan, Count: len(scans)},
		{Stage: StageFormOpened, Count: opened},
		{Stage: StageFormSubmitted, Count: len(subs)},
		{Stage: StageWhatsApp, Count: whatsapp},
	})
}

func countEngaged(scans []models.ScanEvent, engagements []models.EngagementEvent,
	action models.EngagementAction, flag func(models.ScanEvent) bool,
) int {
	sessions := make(SessionSet)
	anonymous := 0

	for _, sc := range scans {
		if !flag(sc) {
			continue
		}
		if sc.SessionID == "" {
			anonymous++
			continue
		}
		sessions[sc.SessionID] = struct{}{}
	}
	for _, e := range engagements {
		if e.Action != action {
			continue
		}
		if e.SessionID == "" {
			anonymous++
			continue
		}
		sessions[e.SessionID] = struct{}{}
	}
	return len(sessions) + anonymous
}
