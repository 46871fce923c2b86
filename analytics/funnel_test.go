package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadinath/api/models"
)

func TestBuildFunnel(t *testing.T) {
	stages := BuildFunnel([]StageCount{
		{Stage: "Scan", Count: 200},
		{Stage: "Opened", Count: 50},
		{Stage: "Submitted", Count: 20},
	})
	require.Len(t, stages, 3)

	assert.InDelta(t, 100.0, stages[0].WidthPercent, 1e-9)
	assert.Nil(t, stages[0].PercentOfFirst)

	assert.InDelta(t, 25.0, stages[1].WidthPercent, 1e-9)
	require.NotNil(t, stages[1].PercentOfFirst)
	assert.InDelta(t, 25.0, *stages[1].PercentOfFirst, 1e-9)

	require.NotNil(t, stages[2].PercentOfFirst)
	assert.InDelta(t, 10.0, *stages[2].PercentOfFirst, 1e-9)
}

func TestBuildFunnel_ZeroCounts(t *testing.T) {
	stages := BuildFunnel([]StageCount{{Stage: "Scan"}, {Stage: "Submitted"}})
	assert.Equal(t, 0.0, stages[0].WidthPercent)
	require.NotNil(t, stages[1].PercentOfFirst)
	assert.Equal(t, 0.0, *stages[1].PercentOfFirst)

	assert.Empty(t, BuildFunnel(nil))
}

func TestBuildFunnel_WidthRelativeToLargestStage(t *testing.T) {
	stages := BuildFunnel([]StageCount{{Stage: "Scan", Count: 10}, {Stage: "Views", Count: 40}})
	assert.InDelta(t, 25.0, stages[0].WidthPercent, 1e-9)
	assert.InDelta(t, 100.0, stages[1].WidthPercent, 1e-9)
	assert.InDelta(t, 400.0, *stages[1].PercentOfFirst, 1e-9)
}

func TestVerifyFunnel(t *testing.T) {
	s1 := scan("S1", 0, "")
	s1.FormOpened = true
	s2 := scan("S2", 0, "")

	engagements := []models.EngagementEvent{
		{SessionID: "S1", Action: models.ActionFormOpened},
		{SessionID: "S2", Action: models.ActionFormOpened},
		{SessionID: "S2", Action: models.ActionWhatsAppClick},
		{Action: models.ActionWhatsAppClick},
	}
	subs := []models.CustomerSubmission{submission("S1", "Ravi", time.Minute)}

	funnel := VerifyFunnel([]models.ScanEvent{s1, s2}, engagements, subs)
	require.Len(t, funnel, 4)
	assert.Equal(t, StageScan, funnel[0].Stage)
	assert.Equal(t, 2, funnel[0].Count)
	assert.Equal(t, 2, funnel[1].Count, "S1 counted once despite flag and record")
	assert.Equal(t, 1, funnel[2].Count)
	assert.Equal(t, 2, funnel[3].Count)
}
