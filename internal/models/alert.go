package models

import "time"

type AlertStatus string

const (
	AlertActive  AlertStatus = "active"
	AlertExpired AlertStatus = "expired"
)

// AlertMetadata is the optional context attached to an alert
type AlertMetadata struct {
	Forest          string         `json:"forest,omitempty"`
	District        string         `json:"district,omitempty"`
	Province        string         `json:"province,omitempty"`
	LocationDetails string         `json:"location_details,omitempty"`
	RiskLevel       string         `json:"risk_level,omitempty"`
	Probability     *float64       `json:"probability,omitempty"`
	WeatherData     *WeatherSample `json:"weather_data,omitempty"`
	Precautions     string         `json:"precautions,omitempty"`
	Reason          string         `json:"reason,omitempty"`
}

// Alert is a persisted fire warning
type Alert struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Severity  string      `json:"severity"`
	Status    AlertStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	AlertMetadata
}

// IsOverdue reports whether an active alert has passed its expiry
func (a *Alert) IsOverdue(now time.Time) bool {
	return a.Status == AlertActive && a.ExpiresAt.Before(now)
}

// AlertPatch is a partial update; nil fields are left untouched
type AlertPatch struct {
	Title           *string      `json:"title,omitempty"`
	Message         *string      `json:"message,omitempty"`
	Latitude        *float64     `json:"latitude,omitempty"`
	Longitude       *float64     `json:"longitude,omitempty"`
	Severity        *string      `json:"severity,omitempty"`
	Status          *AlertStatus `json:"status,omitempty"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
	Forest          *string      `json:"forest,omitempty"`
	District        *string      `json:"district,omitempty"`
	Province        *string      `json:"province,omitempty"`
	LocationDetails *string      `json:"location_details,omitempty"`
	Precautions     *string      `json:"precautions,omitempty"`
	Reason          *string      `json:"reason,omitempty"`
}

func (p AlertPatch) IsEmpty() bool {
	return p.Title == nil && p.Message == nil && p.Latitude == nil && p.Longitude == nil &&
		p.Severity == nil && p.Status == nil && p.ExpiresAt == nil && p.Forest == nil &&
		p.District == nil && p.Province == nil && p.LocationDetails == nil &&
		p.Precautions == nil && p.Reason == nil
}

// Apply writes the non-nil patch fields onto a
func (p AlertPatch) Apply(a *Alert) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Message != nil {
		a.Message = *p.Message
	}
	if p.Latitude != nil {
		a.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		a.Longitude = *p.Longitude
	}
	if p.Severity != nil {
		a.Severity = *p.Severity
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.ExpiresAt != nil {
		a.ExpiresAt = p.ExpiresAt.UTC()
	}
	if p.Forest != nil {
		a.Forest = *p.Forest
	}
	if p.District != nil {
		a.District = *p.District
	}
	if p.Province != nil {
		a.Province = *p.Province
	}
	if p.LocationDetails != nil {
		a.LocationDetails = *p.LocationDetails
	}
	if p.Precautions != nil {
		a.Precautions = *p.Precautions
	}
	if p.Reason != nil {
		a.Reason = *p.Reason
	}
}
