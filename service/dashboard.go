package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"aadinath/api/analytics"
	"aadinath/api/models"
)

// Section is one independently loaded part of the dashboard. Data always
// holds a renderable value; Error is set when it is a failure sentinel.
type Section[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

func section[T any](data T, err error) Section[T] {
	s := Section[T]{Data: data}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

type Dashboard struct {
	Metrics   Section[models.AnalyticsMetrics] `json:"metrics"`
	Trends    Section[[]models.TrendData]      `json:"trends"`
	Sessions  Section[SessionList]             `json:"sessions"`
	Locations Section[[]models.LocationMetrics] `json:"locations"`
}

// Degraded reports whether any section failed.
func (d Dashboard) Degraded() bool {
	return d.Metrics.Error != "" || d.Trends.Error != "" ||
		d.Sessions.Error != "" || d.Locations.Error != ""
}

type DashboardQuery struct {
	Range     DateRange
	TrendDays int
	TrendMode analytics.TrendMode
	Sessions  int
}

// Dashboard loads every overview section concurrently. Section errors are
// recorded in place and never cancel the other loads.
func (s *AnalyticsService) Dashboard(ctx context.Context, q DashboardQuery) Dashboard {
	var (
		d Dashboard
		g errgroup.Group
	)

	g.Go(func() error {
		d.Metrics = section(s.Metrics(ctx, q.Range))
		return nil
	})
	g.Go(func() error {
		d.Trends = section(s.Trends(ctx, q.TrendDays, q.TrendMode))
		return nil
	})
	g.Go(func() error {
		d.Sessions = section(s.Sessions(ctx, SessionQuery{Limit: q.Sessions, Range: q.Range}))
		return nil
	})
	g.Go(func() error {
		d.Locations = section(s.Locations(ctx, q.Range, DefaultLocationLimit))
		return nil
	})

	_ = g.Wait()
	return d
}
