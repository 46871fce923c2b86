// Package store is the raw store accessor: time-range, equality, ordering and
// cap queries over the event and submission collections.
package store

import (
	"context"
	"errors"
	"time"

	"aadinath/api/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Filter narrows a list or count query. Zero values mean "no constraint".
// Start and End are both inclusive.
type Filter struct {
	Start     *time.Time
	End       *time.Time
	SessionID string
	Action    models.EngagementAction
	City      string
	UseCase   string
	Order     Order
	Limit     int
}

// Between returns a copy of f bounded to [start, end].
func (f Filter) Between(start, end time.Time) Filter {
	f.Start, f.End = &start, &end
	return f
}

// Contains reports whether t falls inside the time bounds.
func (f Filter) Contains(t time.Time) bool {
	if f.Start != nil && t.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.After(*f.End) {
		return false
	}
	return true
}

func (f Filter) descending() bool {
	return f.Order == OrderDesc
}

// EventStore holds page views, scans and engagement records.
type EventStore interface {
	AppendPageViews(ctx context.Context, events []models.PageViewEvent) error
	AppendScans(ctx context.Context, events []models.ScanEvent) error
	AppendEngagements(ctx context.Context, events []models.EngagementEvent) error

	ListPageViews(ctx context.Context, f Filter) ([]models.PageViewEvent, error)
	ListScans(ctx context.Context, f Filter) ([]models.ScanEvent, error)
	ListEngagements(ctx context.Context, f Filter) ([]models.EngagementEvent, error)

	CountPageViews(ctx context.Context, f Filter) (int, error)
	CountScans(ctx context.Context, f Filter) (int, error)
}

// SubmissionStore holds lead submissions.
type SubmissionStore interface {
	InsertSubmission(ctx context.Context, sub *models.CustomerSubmission) error
	ListSubmissions(ctx context.Context, f Filter) ([]models.CustomerSubmission, error)
	CountSubmissions(ctx context.Context, f Filter) (int, error)
}
