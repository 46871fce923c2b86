// Package service runs raw store reads for the analytics endpoints and
// feeds them to the pure aggregation functions. A failed read never reaches
// aggregation: it is logged, replaced by an empty result and reported as
// ErrStoreUnavailable next to the sentinel value.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"aadinath/api/analytics"
	"aadinath/api/metrics"
	"aadinath/api/models"
	"aadinath/api/store"
)

var ErrStoreUnavailable = errors.New("analytics store unavailable")

const (
	DefaultSessionLimit  = 100
	DefaultLocationLimit = 10
	DefaultTrendDays     = 30
	DefaultLeadLimit     = 500
)

type Options struct {
	// FetchMultiplier scales the raw page view cap of session listings.
	FetchMultiplier int
	QueryTimeout    time.Duration
	Location        *time.Location
	// IdleTimeout splits sessions on gaps longer than this; zero disables.
	IdleTimeout time.Duration
}

type AnalyticsService struct {
	events store.EventStore
	subs   store.SubmissionStore
	opts   Options
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewAnalyticsService(events store.EventStore, subs store.SubmissionStore, opts Options, log *zap.SugaredLogger) *AnalyticsService {
	if opts.FetchMultiplier < 1 {
		opts.FetchMultiplier = 1
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &AnalyticsService{
		events: events,
		subs:   subs,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
}

// DateRange is an optional inclusive window.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Bounded reports whether both ends are set.
func (r DateRange) Bounded() bool {
	return r.Start != nil && r.End != nil
}

func (r DateRange) filter() store.Filter {
	return store.Filter{Start: r.Start, End: r.End}
}

// fetch runs one store read under the query timeout. On failure it logs and
// returns the zero value with an error wrapping ErrStoreUnavailable.
func fetch[T any](ctx context.Context, s *AnalyticsService, name string, read func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	started := time.Now()
	v, err := read(ctx)
	metrics.RecordQuery(name, time.Since(started), err)
	if err != nil {
		s.log.Errorf("Analytics query %s failed: %v", name, err)
		var zero T
		return zero, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, name, err)
	}
	return v, nil
}

func (s *AnalyticsService) listPageViews(ctx context.Context, f store.Filter) ([]models.PageViewEvent, error) {
	return fetch(ctx, s, "list_page_views", func(ctx context.Context) ([]models.PageViewEvent, error) {
		return s.events.ListPageViews(ctx, f)
	})
}

func (s *AnalyticsService) listScans(ctx context.Context, f store.Filter) ([]models.ScanEvent, error) {
	return fetch(ctx, s, "list_scans", func(ctx context.Context) ([]models.ScanEvent, error) {
		return s.events.ListScans(ctx, f)
	})
}

func (s *AnalyticsService) listEngagements(ctx context.Context, f store.Filter) ([]models.EngagementEvent, error) {
	return fetch(ctx, s, "list_engagements", func(ctx context.Context) ([]models.EngagementEvent, error) {
		return s.events.ListEngagements(ctx, f)
	})
}

func (s *AnalyticsService) listSubmissions(ctx context.Context, f store.Filter) ([]models.CustomerSubmission, error) {
	return fetch(ctx, s, "list_submissions", func(ctx context.Context) ([]models.CustomerSubmission, error) {
		return s.subs.ListSubmissions(ctx, f)
	})
}

// Metrics returns the totals and conversion rate over r. Failed counts are
// reported as zero.
func (s *AnalyticsService) Metrics(ctx context.Context, r DateRange) (models.AnalyticsMetrics, error) {
	f := r.filter()

	scans, scanErr := fetch(ctx, s, "count_scans", func(ctx context.Context) (int, error) {
		return s.events.CountScans(ctx, f)
	})
	leads, leadErr := fetch(ctx, s, "count_submissions", func(ctx context.Context) (int, error) {
		return s.subs.CountSubmissions(ctx, f)
	})
	views, viewErr := fetch(ctx, s, "count_page_views", func(ctx context.Context) (int, error) {
		return s.events.CountPageViews(ctx, f)
	})

	return analytics.Totals(scans, leads, views), errors.Join(scanErr, leadErr, viewErr)
}

// Trends returns days+1 calendar-day buckets ending today.
func (s *AnalyticsService) Trends(ctx context.Context, days int, mode analytics.TrendMode) ([]models.TrendData, error) {
	if days < 0 {
		days = DefaultTrendDays
	}
	now := s.now()
	start, end := analytics.TrendWindow(days, now, s.opts.Location)
	f := store.Filter{}.Between(start, end)

	if mode == analytics.TrendEven {
		m, err := s.Metrics(ctx, DateRange{Start: f.Start, End: f.End})
		return analytics.EvenTrend(days, now, s.opts.Location, m.TotalScans, m.TotalLeads, m.TotalPageViews), err
	}

	scans, scanErr := s.listScans(ctx, f)
	subs, subErr := s.listSubmissions(ctx, f)
	views, viewErr := s.listPageViews(ctx, f)
	return analytics.DailyTrend(days, now, s.opts.Location, scans, subs, views), errors.Join(scanErr, subErr, viewErr)
}

type SessionQuery struct {
	Limit  int
	Range  DateRange
	Sort   analytics.SessionSort
	Filter analytics.SessionFilter
}

type SessionList struct {
	Sessions []models.SessionMetrics `json:"sessions"`
	Summary  models.SessionSummary   `json:"summary"`
	Cities   []string                `json:"cities"`
	// Capped is true when the raw page view cap was reached, so older
	// sessions may be missing or undercounted.
	Capped bool `json:"capped"`
}

// Sessions reconstructs the most recently active sessions. Without a bounded
// range it reads at most Limit × FetchMultiplier page views, newest first.
func (s *AnalyticsService) Sessions(ctx context.Context, q SessionQuery) (SessionList, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSessionLimit
	}

	f := q.Range.filter()
	f.Order = store.OrderDesc
	rawCap := 0
	if !q.Range.Bounded() {
		rawCap = limit * s.opts.FetchMultiplier
		f.Limit = rawCap
	}

	views, viewErr := s.listPageViews(ctx, f)
	subs, subErr := s.listSubmissions(ctx, store.Filter{})

	sessions := analytics.GroupSessions(views)
	if s.opts.IdleTimeout > 0 {
		sessions = analytics.SplitAllIdle(sessions, s.opts.IdleTimeout)
	}
	sessions = analytics.TruncateSessions(sessions, limit)

	all := analytics.SessionMetricsFor(sessions, analytics.SubmissionSessions(subs))
	shown := analytics.FilterSessions(all, q.Filter)
	analytics.SortSessions(shown, q.Sort)

	return SessionList{
		Sessions: orEmpty(shown),
		Summary:  analytics.SummarizeSessions(shown),
		Cities:   knownCities(all),
		Capped:   rawCap > 0 && len(views) >= rawCap,
	}, errors.Join(viewErr, subErr)
}

// Journey returns one session's ordered path. store.ErrNotFound means the
// session has neither page views nor a scan.
func (s *AnalyticsService) Journey(ctx context.Context, sessionID string) (models.JourneyData, error) {
	f := store.Filter{SessionID: sessionID}

	views, viewErr := s.listPageViews(ctx, f)
	scans, scanErr := s.listScans(ctx, f)
	subs, subErr := s.listSubmissions(ctx, f)
	if err := errors.Join(viewErr, scanErr, subErr); err != nil {
		return analytics.BuildJourney(sessionID, views, scans, subs), err
	}

	journey := analytics.BuildJourney(sessionID, views, scans, subs)
	if len(journey.Steps) == 0 && journey.Scan == nil {
		return journey, fmt.Errorf("session %q: %w", sessionID, store.ErrNotFound)
	}
	return journey, nil
}

func (s *AnalyticsService) Locations(ctx context.Context, r DateRange, limit int) ([]models.LocationMetrics, error) {
	if limit <= 0 {
		limit = DefaultLocationLimit
	}
	scans, err := s.listScans(ctx, r.filter())
	return orEmpty(analytics.TopLocations(scans, limit)), err
}

func (s *AnalyticsService) Pages(ctx context.Context, r DateRange) ([]models.PageMetrics, error) {
	views, err := s.listPageViews(ctx, r.filter())
	return orEmpty(analytics.TrafficByPage(views)), err
}

type VerifyView struct {
	Metrics models.VerifyPageMetricsData `json:"metrics"`
	Funnel  []models.FunnelStage         `json:"funnel"`
}

// Verify rolls up the verification page: KPIs and the engagement funnel.
// Scans are counted inside the range but, like Conversions, submissions are
// joined against every scan up to the range end.
func (s *AnalyticsService) Verify(ctx context.Context, r DateRange) (VerifyView, error) {
	f := r.filter()
	scans, scanErr := s.listScans(ctx, f)
	subs, subErr := s.listSubmissions(ctx, f)
	engagements, engErr := s.listEngagements(ctx, f)

	joinScans, joinErr := scans, error(nil)
	if r.Start != nil {
		joinScans, joinErr = s.listScans(ctx, store.Filter{End: r.End})
	}

	return VerifyView{
		Metrics: analytics.VerifyPageMetrics(scans, joinScans, subs),
		Funnel:  analytics.VerifyFunnel(scans, engagements, subs),
	}, errors.Join(scanErr, subErr, engErr, joinErr)
}

func (s *AnalyticsService) Funnel(ctx context.Context, r DateRange) ([]models.FunnelStage, error) {
	v, err := s.Verify(ctx, r)
	return v.Funnel, err
}

type ConversionQuery struct {
	Range DateRange
	City  string
	Sort  analytics.ConversionSort
}

// Conversions joins submissions in range to their originating scans. Scans
// are read up to the range end only, so a scan that preceded the window
// still matches its submission.
func (s *AnalyticsService) Conversions(ctx context.Context, q ConversionQuery) ([]models.ConversionDetail, error) {
	subs, subErr := s.listSubmissions(ctx, q.Range.filter())
	scans, scanErr := s.listScans(ctx, store.Filter{End: q.Range.End})

	details := analytics.ConversionDetails(scans, subs)
	details = analytics.FilterConversionsByCity(details, q.City)
	analytics.SortConversions(details, q.Sort)
	return orEmpty(details), errors.Join(subErr, scanErr)
}

type LeadQuery struct {
	Range   DateRange
	City    string
	UseCase string
	Limit   int
}

// Leads lists submissions, newest first.
func (s *AnalyticsService) Leads(ctx context.Context, q LeadQuery) ([]models.CustomerSubmission, error) {
	f := q.Range.filter()
	f.City, f.UseCase = q.City, q.UseCase
	f.Order = store.OrderDesc
	f.Limit = q.Limit
	if f.Limit <= 0 {
		f.Limit = DefaultLeadLimit
	}
	subs, err := s.listSubmissions(ctx, f)
	return orEmpty(subs), err
}

type ScanQuery struct {
	Range DateRange
	City  string
	Limit int
}

// Scans lists verification page loads, newest first, each flagged with
// whether its session went on to submit.
func (s *AnalyticsService) Scans(ctx context.Context, q ScanQuery) ([]models.ScanEvent, error) {
	f := q.Range.filter()
	f.City = q.City
	f.Order = store.OrderDesc
	f.Limit = q.Limit
	if f.Limit <= 0 {
		f.Limit = DefaultLeadLimit
	}

	scans, scanErr := s.listScans(ctx, f)
	subs, subErr := s.listSubmissions(ctx, store.Filter{})
	scans = analytics.MarkScansConverted(scans, analytics.SubmissionSessions(subs))
	return orEmpty(scans), errors.Join(scanErr, subErr)
}

func knownCities(sessions []models.SessionMetrics) []string {
	seen := make(map[string]struct{})
	cities := make([]string, 0)
	for _, sm := range sessions {
		if sm.City == models.Unknown {
			continue
		}
		if _, ok := seen[sm.City]; ok {
			continue
		}
		seen[sm.City] = struct{}{}
		cities = append(cities, sm.City)
	}
	slices.Sort(cities)
	return cities
}

// orEmpty keeps JSON output an array rather than null.
func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
