// api/models/event.go
package models

import (
	"encoding/json"
	"time"
)

type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
)

// SourceType is the coarse attribution category of a session.
type SourceType string

const (
	SourceQR       SourceType = "qr"
	SourceDirect   SourceType = "direct"
	SourceOrganic  SourceType = "organic"
	SourceSocial   SourceType = "social"
	SourceReferral SourceType = "referral"
)

// EngagementAction discriminates generic engagement records.
type EngagementAction string

const (
	ActionFormOpened      EngagementAction = "form_opened"
	ActionWhatsAppClick   EngagementAction = "whatsapp_click"
	ActionContactSubmit   EngagementAction = "contact_submit"
	ActionVerifyPageClick EngagementAction = "verify_cta_click"
)

// Unknown is the label used when a best-effort field could not be resolved.
const Unknown = "Unknown"

// Location is a best-effort geolocation. Any field may be empty.
type Location struct {
	City      string   `json:"city"`
	Region    string   `json:"region,omitempty"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// CityOrUnknown never returns an empty label.
func (l Location) CityOrUnknown() string {
	return orUnknown(l.City)
}

func (l Location) CountryOrUnknown() string {
	return orUnknown(l.Country)
}

// Known reports whether the lookup produced at least a city or a country.
func (l Location) Known() bool {
	return !isUnknown(l.City) || !isUnknown(l.Country)
}

func isUnknown(s string) bool {
	switch s {
	case "", Unknown, "UNKNOWN", "unknown":
		return true
	}
	return false
}

func orUnknown(s string) string {
	if isUnknown(s) {
		return Unknown
	}
	return s
}

// PageViewEvent is one page render inside a browsing session.
type PageViewEvent struct {
	EventID      string     `json:"eventId"`
	SessionID    string     `json:"sessionId"`
	CurrentPage  string     `json:"currentPage"`
	PreviousPage *string    `json:"previousPage,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	Location     Location   `json:"location"`
	DeviceType   DeviceType `json:"deviceType"`
	Source       string     `json:"source,omitempty"`
	SourceType   SourceType `json:"sourceType"`
	Referrer     string     `json:"referrer,omitempty"`
	UserAgent    string     `json:"userAgent,omitempty"`
}

// ScanEvent is a load of the QR verification page.
type ScanEvent struct {
	EventID         string     `json:"eventId"`
	SessionID       string     `json:"sessionId"`
	Source          string     `json:"source"`
	BatchID         string     `json:"batchId,omitempty"`
	Product         string     `json:"product,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	Location        Location   `json:"location"`
	DeviceType      DeviceType `json:"deviceType"`
	Referrer        string     `json:"referrer,omitempty"`
	UserAgent       string     `json:"userAgent,omitempty"`
	FormOpened      bool       `json:"formOpened"`
	WhatsAppClicked bool       `json:"whatsappClicked"`

	// Converted is derived at read time and never stored.
	Converted bool `json:"converted"`
}

// CustomerSubmission is a lead captured by the verification form.
type CustomerSubmission struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"sessionId,omitempty"`
	ScanEventID    string    `json:"scanEventId,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	City           string    `json:"city"`
	State          string    `json:"state,omitempty"`
	Country        string    `json:"country,omitempty"`
	UseCase        string    `json:"useCase"`
	QuantityNeeded string    `json:"quantityNeeded,omitempty"`
	BatchID        string    `json:"batchId,omitempty"`
	Source         string    `json:"source"`
	Timestamp      time.Time `json:"timestamp"`

	// TimeFromScanToSubmit is precomputed by the capture side, in milliseconds.
	TimeFromScanToSubmit *int64 `json:"timeFromScanToSubmit,omitempty"`
}

// Correlatable reports whether the submission can be joined to a session.
func (s CustomerSubmission) Correlatable() bool {
	return s.SessionID != ""
}

// EngagementEvent is a generic engagement record with an action discriminator.
type EngagementEvent struct {
	EventID   string           `json:"eventId"`
	SessionID string           `json:"sessionId,omitempty"`
	Action    EngagementAction `json:"action"`
	Page      string           `json:"page,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Data      json.RawMessage  `json:"data,omitempty"`
}
