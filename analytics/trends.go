package analytics

import (
	"time"

	"aadinath/api/models"
)

// DateLayout is the bucket label format.
const DateLayout = "2006-01-02"

// TrendMode selects how daily buckets are filled.
type TrendMode string

const (
	// TrendDaily counts each event on the calendar day of its timestamp.
	TrendDaily TrendMode = "daily"
	// TrendEven spreads window totals evenly over the days. It is an
	// approximation kept for parity with older dashboards, not per-day data.
	TrendEven TrendMode = "even"
)

// TrendWindow returns the start of the oldest bucket and the end of the
// newest for a days-long trend ending on the calendar day of now.
func TrendWindow(days int, now time.Time, loc *time.Location) (time.Time, time.Time) {
	if days < 0 {
		days = 0
	}
	if loc == nil {
		loc = time.UTC
	}
	today := startOfDay(now, loc)
	start := today.AddDate(0, 0, -days)
	end := today.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// emptyBuckets builds days+1 buckets, oldest first, keyed by label.
func emptyBuckets(days int, now time.Time, loc *time.Location) ([]models.TrendData, map[string]int) {
	start, _ := TrendWindow(days, now, loc)
	if days < 0 {
		days = 0
	}
	buckets := make([]models.TrendData, days+1)
	index := make(map[string]int, days+1)
	for i := 0; i <= days; i++ {
		label := start.AddDate(0, 0, i).Format(DateLayout)
		buckets[i] = models.TrendData{Date: label}
		index[label] = i
	}
	return buckets, index
}

// DailyTrend builds days+1 calendar-day buckets ending today in loc, counting
// each event on the day its timestamp falls. Events outside the window are
// ignored, so the buckets sum to the number of in-window events.
func DailyTrend(days int, now time.Time, loc *time.Location,
	scans []models.ScanEvent, subs []models.CustomerSubmission, views []models.PageViewEvent,
) []models.TrendData {
	if loc == nil {
		loc = time.UTC
	}
	buckets, index := emptyBuckets(days, now, loc)

	bucket := func(ts time.Time) (int, bool) {
		i, ok := index[ts.In(loc).Format(DateLayout)]
		return i, ok
	}

	for _, sc := range scans {
		if i, ok := bucket(sc.Timestamp); ok {
			buckets[i].Scans++
		}
	}
	for _, sub := range subs {
		if i, ok := bucket(sub.Timestamp); ok {
			buckets[i].Leads++
		}
	}
	for _, v := range views {
		if i, ok := bucket(v.Timestamp); ok {
			buckets[i].PageViews++
		}
	}
	return buckets
}

// EvenTrend fills days+1 buckets with window totals divided by days, floored.
// With days <= 0 the single bucket carries the totals.
func EvenTrend(days int, now time.Time, loc *time.Location, scans, leads, pageViews int) []models.TrendData {
	buckets, _ := emptyBuckets(days, now, loc)
	div := days
	if div <= 0 {
		div = 1
	}
	for i := range buckets {
		buckets[i].Scans = scans / div
		buckets[i].Leads = leads / div
		buckets[i].PageViews = pageViews / div
	}
	return buckets
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
