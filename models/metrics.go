package models

import "time"

type AnalyticsMetrics struct {
	TotalScans     int     `json:"totalScans"`
	TotalLeads     int     `json:"totalLeads"`
	TotalPageViews int     `json:"totalPageViews"`
	ConversionRate float64 `json:"conversionRate"`
}

// TrendData is one calendar-day bucket, date formatted YYYY-MM-DD.
type TrendData struct {
	Date      string `json:"date"`
	Scans     int    `json:"scans"`
	Leads     int    `json:"leads"`
	PageViews int    `json:"pageViews"`
}

// SessionMetrics is the presentation form of a reconstructed session.
// Durations are milliseconds.
type SessionMetrics struct {
	SessionID    string     `json:"sessionId"`
	Segment      int        `json:"segment,omitempty"`
	Duration     int64      `json:"duration"`
	PagesVisited int        `json:"pagesVisited"`
	Path         string     `json:"path"`
	Pages        []string   `json:"pages"`
	City         string     `json:"city"`
	Country      string     `json:"country"`
	Timestamp    time.Time  `json:"timestamp"`
	LastActivity time.Time  `json:"lastActivity"`
	Converted    bool       `json:"converted"`
	DeviceType   DeviceType `json:"deviceType"`
	SourceType   SourceType `json:"sourceType"`
	Source       string     `json:"source"`
	UserAgent    string     `json:"userAgent,omitempty"`
}

type SessionSummary struct {
	TotalSessions  int     `json:"totalSessions"`
	ConvertedCount int     `json:"convertedCount"`
	ConversionRate float64 `json:"conversionRate"`
	AvgDuration    float64 `json:"avgDuration"`
}

type LocationMetrics struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Count   int    `json:"count"`
}

type PageMetrics struct {
	Page        string    `json:"page"`
	Visits      int       `json:"visits"`
	LastVisited time.Time `json:"lastVisited"`
}

type VerifyPageMetricsData struct {
	TotalScans       int     `json:"totalScans"`
	TotalSubmissions int     `json:"totalSubmissions"`
	ConversionRate   float64 `json:"conversionRate"`
	AvgTimeToSubmit  float64 `json:"avgTimeToSubmit"`
}

// ConversionDetail joins a scan to the submission sharing its session id.
type ConversionDetail struct {
	SessionID       string    `json:"sessionId"`
	ScanTimestamp   time.Time `json:"scanTimestamp"`
	SubmitTimestamp time.Time `json:"submitTimestamp"`
	TimeLag         int64     `json:"timeLag"`
	City            string    `json:"city"`
	CustomerName    string    `json:"customerName"`
}

type FunnelStage struct {
	Stage          string   `json:"stage"`
	Count          int      `json:"count"`
	WidthPercent   float64  `json:"widthPercent"`
	PercentOfFirst *float64 `json:"percentOfFirst,omitempty"`
}

type JourneyStep struct {
	Page       string    `json:"page"`
	Timestamp  time.Time `json:"timestamp"`
	TimeOnPage int64     `json:"timeOnPage"`
}

type JourneyData struct {
	SessionID  string              `json:"sessionId"`
	Steps      []JourneyStep       `json:"steps"`
	Pages      []string            `json:"pages"`
	Duration   int64               `json:"duration"`
	Scan       *ScanEvent          `json:"scan,omitempty"`
	Submission *CustomerSubmission `json:"submission,omitempty"`
	Converted  bool                `json:"converted"`
}

// ParsedUserAgent is the display breakdown of a user agent string.
type ParsedUserAgent struct {
	Browser      string     `json:"browser"`
	OS           string     `json:"os"`
	DeviceType   DeviceType `json:"deviceType"`
	RawUserAgent string     `json:"rawUserAgent"`
}
