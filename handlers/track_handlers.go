package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aadinath/api/identity"
	"aadinath/api/middleware"
	"aadinath/api/models"
	"aadinath/api/tracking"
)

// TrackHandlers serves the public capture endpoints used by the site.
type TrackHandlers struct {
	capturer *tracking.Capturer
	locator  tracking.Locator
	cookies  identity.CookieOptions
	log      *zap.SugaredLogger
}

func NewTrackHandlers(capturer *tracking.Capturer, locator tracking.Locator, cookies identity.CookieOptions, log *zap.SugaredLogger) *TrackHandlers {
	return &TrackHandlers{capturer: capturer, locator: locator, cookies: cookies, log: log}
}

type pageViewRequest struct {
	SessionID string `json:"sessionId"`
	Page      string `json:"page"`
	// Source is the campaign tag from the landing URL, if any.
	Source   string           `json:"source"`
	Referrer string           `json:"referrer"`
	Location *models.Location `json:"location"`
}

type scanRequest struct {
	SessionID string           `json:"sessionId"`
	Source    string           `json:"source"`
	BatchID   string           `json:"batchId"`
	Product   string           `json:"product"`
	Referrer  string           `json:"referrer"`
	Location  *models.Location `json:"location"`
}

type engagementRequest struct {
	SessionID string                  `json:"sessionId"`
	Action    models.EngagementAction `json:"action"`
	Page      string                  `json:"page"`
	Data      json.RawMessage         `json:"data"`
}

type submissionRequest struct {
	SessionID      string     `json:"sessionId"`
	ScanEventID    string     `json:"scanEventId"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Country        string     `json:"country"`
	UseCase        string     `json:"useCase"`
	QuantityNeeded string     `json:"quantityNeeded"`
	BatchID        string     `json:"batchId"`
	Source         string     `json:"source"`
	ScanTimestamp  *time.Time `json:"scanTimestamp"`
}

// captureResponse tells the client which session the event joined.
type captureResponse struct {
	SessionID  string            `json:"sessionId"`
	EventID    string            `json:"eventId,omitempty"`
	Tracked    bool              `json:"tracked"`
	SourceType models.SourceType `json:"sourceType,omitempty"`
	Degraded   bool              `json:"degraded,omitempty"`
}

// session resolves the request's identity, preferring a client supplied id.
func (h *TrackHandlers) session(c *gin.Context, clientID string) *identity.Context {
	ident := identity.FromRequest(c, h.cookies)
	ident.Adopt(clientID)
	return ident
}

func (h *TrackHandlers) TrackPageView(c *gin.Context) {
	var req pageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Page == "" {
		req.Page = "/"
	}

	ident := h.session(c, req.SessionID)
	sessionID := ident.SessionID()
	resp := captureResponse{SessionID: sessionID}

	if middleware.IsBot(c) || !tracking.Tracked(req.Page) {
		resp.Degraded = ident.Degraded()
		c.JSON(http.StatusAccepted, resp)
		return
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = c.Request.Referer()
	}
	attribution := tracking.Attribute(req.Source, ident.StickySource(), referrer, c.Request.Host)
	if attribution.Store {
		ident.SetSource(attribution.Source)
	}

	ev, ok := h.capturer.PageView(c.Request.Context(), tracking.PageView{
		SessionID:    sessionID,
		Page:         req.Page,
		PreviousPage: ident.PreviousPage(),
		Attribution:  attribution,
		Referrer:     referrer,
		UserAgent:    c.Request.UserAgent(),
		IP:           c.ClientIP(),
		Location:     req.Location,
	})
	ident.RecordPage(ev.CurrentPage)

	resp.EventID = ev.EventID
	resp.Tracked = ok
	resp.SourceType = ev.SourceType
	resp.Degraded = ident.Degraded()
	c.JSON(http.StatusAccepted, resp)
}

func (h *TrackHandlers) TrackScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ident := h.session(c, req.SessionID)
	sessionID := ident.SessionID()
	resp := captureResponse{SessionID: sessionID}

	if middleware.IsBot(c) {
		c.JSON(http.StatusAccepted, resp)
		return
	}

	source := req.Source
	if source == "" {
		source = ident.StickySource()
	}
	ident.SetSource(source)

	referrer := req.Referrer
	if referrer == "" {
		referrer = c.Request.Referer()
	}
	ev, ok := h.capturer.Scan(c.Request.Context(), tracking.Scan{
		SessionID: sessionID,
		Source:    source,
		BatchID:   req.BatchID,
		Product:   req.Product,
		Referrer:  referrer,
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
		Location:  req.Location,
	})

	resp.EventID = ev.EventID
	resp.Tracked = ok
	resp.SourceType = models.SourceQR
	resp.Degraded = ident.Degraded()
	c.JSON(http.StatusAccepted, resp)
}

func (h *TrackHandlers) TrackEngagement(c *gin.Context) {
	var req engagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ident := h.session(c, req.SessionID)
	sessionID := ident.SessionID()
	if middleware.IsBot(c) {
		c.JSON(http.StatusAccepted, captureResponse{SessionID: sessionID})
		return
	}

	ev, err := h.capturer.Engagement(c.Request.Context(), tracking.Engagement{
		SessionID: sessionID,
		Action:    req.Action,
		Page:      req.Page,
		Data:      req.Data,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, captureResponse{SessionID: sessionID, EventID: ev.EventID, Tracked: true})
}

// SubmitLead stores a verification form submission. Unlike the other
// capture calls it reports storage failures so the visitor can retry.
func (h *TrackHandlers) SubmitLead(c *gin.Context) {
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ident := h.session(c, req.SessionID)
	sessionID := ident.SessionID()

	sub, err := h.capturer.Submit(c.Request.Context(), tracking.Submission{
		CustomerSubmission: models.CustomerSubmission{
			SessionID:      sessionID,
			ScanEventID:    req.ScanEventID,
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			City:           req.City,
			State:          req.State,
			Country:        req.Country,
			UseCase:        req.UseCase,
			QuantityNeeded: req.QuantityNeeded,
			BatchID:        req.BatchID,
			Source:         req.Source,
		},
		ScanTimestamp: req.ScanTimestamp,
		IP:            c.ClientIP(),
	})
	if err != nil {
		if errors.Is(err, tracking.ErrInvalidEvent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save your details, please try again"})
		return
	}

	h.log.Infof("Lead captured: ID=%d, Session=%s, City=%s", sub.ID, sub.SessionID, sub.City)
	c.JSON(http.StatusCreated, gin.H{"message": "Submission received", "id": sub.ID, "sessionId": sub.SessionID})
}

// Geolocation resolves the caller's address. It always answers 200 so page
// tracking never breaks on a failed lookup.
func (h *TrackHandlers) Geolocation(c *gin.Context) {
	var loc models.Location
	if h.locator != nil && !middleware.IsBot(c) {
		loc = h.locator.Locate(c.Request.Context(), c.ClientIP())
	}
	c.JSON(http.StatusOK, geolocationBody(loc))
}

func geolocationBody(loc models.Location) gin.H {
	city, region := knownOrEmpty(loc.City), knownOrEmpty(loc.Region)

	userLocation := "unknown"
	switch {
	case city != "" && region != "":
		userLocation = fmt.Sprintf("%s, %s", city, region)
	case city != "":
		userLocation = city
	case region != "":
		userLocation = region
	}

	return gin.H{
		"userLocation": userLocation,
		"country":      knownOrEmpty(loc.Country),
		"city":         city,
		"latitude":     loc.Latitude,
		"longitude":    loc.Longitude,
	}
}

func knownOrEmpty(s string) string {
	if s == models.Unknown {
		return ""
	}
	return s
}
