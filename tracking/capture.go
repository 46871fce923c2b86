// Package tracking captures page views, QR scans, engagement actions and
// lead submissions. Event writes are buffered and never fail the caller.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aadinath/api/metrics"
	"aadinath/api/models"
)

const adminPathPrefix = "/admin"

var ErrInvalidEvent = errors.New("invalid event")

// Locator resolves a client address to a best-effort location.
type Locator interface {
	Locate(ctx context.Context, ip string) models.Location
}

// SubmissionWriter persists a lead synchronously.
type SubmissionWriter interface {
	InsertSubmission(ctx context.Context, sub *models.CustomerSubmission) error
}

// PageView is the capture input of one page render.
type PageView struct {
	SessionID    string
	Page         string
	PreviousPage *string
	Attribution  Attribution
	Referrer     string
	UserAgent    string
	IP           string
	// Location, when set by the client, skips the server-side lookup.
	Location *models.Location
}

type Scan struct {
	SessionID string
	Source    string
	BatchID   string
	Product   string
	Referrer  string
	UserAgent string
	IP        string
	Location  *models.Location
}

type Engagement struct {
	SessionID string
	Action    models.EngagementAction
	Page      string
	Data      json.RawMessage
}

// Submission is a lead from the verification form.
type Submission struct {
	models.CustomerSubmission
	// ScanTimestamp lets the capture side precompute the scan-to-submit lag.
	ScanTimestamp *time.Time
	// IP fills city, state and country the visitor left blank.
	IP string
}

// Capturer builds event records and hands them to the Buffer.
type Capturer struct {
	buffer  *Buffer
	locator Locator
	subs    SubmissionWriter
	log     *zap.SugaredLogger
	now     func() time.Time
	newID   func() string
}

func NewCapturer(buffer *Buffer, locator Locator, subs SubmissionWriter, log *zap.SugaredLogger) *Capturer {
	return &Capturer{
		buffer:  buffer,
		locator: locator,
		subs:    subs,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Tracked reports whether a page render should produce a page view. Admin
// pages are never tracked.
func Tracked(path string) bool {
	return path != adminPathPrefix && !strings.HasPrefix(path, adminPathPrefix+"/")
}

// PageView enqueues a page view and returns the record. The bool is false
// when the event was dropped.
func (c *Capturer) PageView(ctx context.Context, in PageView) (models.PageViewEvent, bool) {
	page := in.Page
	if page == "" {
		page = "/"
	}

	ev := models.PageViewEvent{
		EventID:      c.newID(),
		SessionID:    in.SessionID,
		CurrentPage:  page,
		PreviousPage: in.PreviousPage,
		Timestamp:    c.now(),
		Location:     c.locate(ctx, in.Location, in.IP),
		DeviceType:   ClassifyDevice(in.UserAgent),
		Source:       in.Attribution.Source,
		SourceType:   in.Attribution.Type,
		Referrer:     in.Referrer,
		UserAgent:    in.UserAgent,
	}
	if ev.SourceType == "" {
		ev.SourceType = models.SourceDirect
	}

	return ev, c.enqueue(envelope{pageView: &ev})
}

// Scan enqueues a verification page load. Missing source and product are
// recorded as UNKNOWN.
func (c *Capturer) Scan(ctx context.Context, in Scan) (models.ScanEvent, bool) {
	ev := models.ScanEvent{
		EventID:    c.newID(),
		SessionID:  in.SessionID,
		Source:     orPlaceholder(in.Source),
		BatchID:    in.BatchID,
		Product:    orPlaceholder(in.Product),
		Timestamp:  c.now(),
		Location:   c.locate(ctx, in.Location, in.IP),
		DeviceType: ClassifyDevice(in.UserAgent),
		Referrer:   in.Referrer,
		UserAgent:  in.UserAgent,
	}
	return ev, c.enqueue(envelope{scan: &ev})
}

func (c *Capturer) Engagement(_ context.Context, in Engagement) (models.EngagementEvent, error) {
	if in.Action == "" {
		return models.EngagementEvent{}, fmt.Errorf("%w: action is required", ErrInvalidEvent)
	}
	ev := models.EngagementEvent{
		EventID:   c.newID(),
		SessionID: in.SessionID,
		Action:    in.Action,
		Page:      in.Page,
		Timestamp: c.now(),
		Data:      in.Data,
	}
	c.enqueue(envelope{engagement: &ev})
	return ev, nil
}

// Submit writes a lead synchronously so the form can offer a retry.
func (c *Capturer) Submit(ctx context.Context, in Submission) (*models.CustomerSubmission, error) {
	sub := in.CustomerSubmission
	if strings.TrimSpace(sub.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidEvent)
	}
	if sub.Phone == "" && sub.Email == "" {
		return nil, fmt.Errorf("%w: phone or email is required", ErrInvalidEvent)
	}

	sub.Timestamp = c.now()
	if sub.Source == "" {
		sub.Source = "verification_page"
	}
	if sub.City == "" || sub.Country == "" {
		fillLocation(&sub, c.locate(ctx, nil, in.IP))
	}
	if in.ScanTimestamp != nil && !in.ScanTimestamp.IsZero() {
		lag := max(sub.Timestamp.Sub(*in.ScanTimestamp).Milliseconds(), 0)
		sub.TimeFromScanToSubmit = &lag
	}

	if err := c.subs.InsertSubmission(ctx, &sub); err != nil {
		metrics.EventWriteErrors.WithLabelValues(metrics.KindSubmission).Inc()
		c.log.Errorf("Failed to save submission for session %q: %v", sub.SessionID, err)
		return nil, fmt.Errorf("save submission: %w", err)
	}
	metrics.EventsCaptured.WithLabelValues(metrics.KindSubmission).Inc()
	return &sub, nil
}

func (c *Capturer) enqueue(e envelope) bool {
	kind := e.kind()
	if !c.buffer.send(e) {
		metrics.EventsDropped.WithLabelValues(kind).Inc()
		c.log.Warnf("Capture buffer full, dropped %s event", kind)
		return false
	}
	metrics.EventsCaptured.WithLabelValues(kind).Inc()
	return true
}

func (c *Capturer) locate(ctx context.Context, given *models.Location, ip string) models.Location {
	if given != nil && given.Known() {
		return *given
	}
	if c.locator == nil || ip == "" {
		return models.Location{City: models.Unknown, Country: models.Unknown}
	}
	return c.locator.Locate(ctx, ip)
}

func fillLocation(sub *models.CustomerSubmission, loc models.Location) {
	if !loc.Known() {
		return
	}
	if sub.City == "" && loc.CityOrUnknown() != models.Unknown {
		sub.City = loc.City
	}
	if sub.State == "" {
		sub.State = loc.Region
	}
	if sub.Country == "" && loc.CountryOrUnknown() != models.Unknown {
		sub.Country = loc.Country
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}
