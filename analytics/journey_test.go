package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadinath/api/models"
)

func TestBuildJourney(t *testing.T) {
	views := []models.PageViewEvent{
		pv("S1", "/products", time.Minute),
		pv("S1", "/", 0),
		pv("S2", "/", 0),
		pv("S1", "/", 3*time.Minute),
	}
	scans := []models.ScanEvent{scan("S1", 30*time.Second, "Bhavnagar")}
	subs := []models.CustomerSubmission{
		submission("S1", "first", 4*time.Minute),
		submission("S1", "second", 5*time.Minute),
	}

	j := BuildJourney("S1", views, scans, subs)
	require.Len(t, j.Steps, 3)
	assert.Equal(t, "/", j.Steps[0].Page)
	assert.Equal(t, int64(60000), j.Steps[0].TimeOnPage)
	assert.Equal(t, int64(120000), j.Steps[1].TimeOnPage)
	assert.Equal(t, int64(0), j.Steps[2].TimeOnPage)
	assert.Equal(t, []string{"/", "/products"}, j.Pages)
	assert.Equal(t, int64(180000), j.Duration)

	require.NotNil(t, j.Scan)
	assert.True(t, j.Scan.Converted)
	require.NotNil(t, j.Submission)
	assert.Equal(t, "second", j.Submission.Name)
	assert.True(t, j.Converted)
}

func TestBuildJourney_Unknown(t *testing.T) {
	j := BuildJourney("missing", []models.PageViewEvent{pv("S1", "/", 0)}, nil, nil)
	assert.Empty(t, j.Steps)
	assert.Empty(t, j.Pages)
	assert.Nil(t, j.Scan)
	assert.False(t, j.Converted)

	empty := BuildJourney("", nil, nil, nil)
	assert.Equal(t, "", empty.SessionID)
	assert.NotNil(t, empty.Steps)
}
