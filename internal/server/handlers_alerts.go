package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"wildfire/internal/database"
	"wildfire/internal/events"
	"wildfire/internal/metrics"
	"wildfire/internal/models"
	"wildfire/internal/scanner"
)

// alertRequest is the body of a manual alert; every field is optional
type alertRequest struct {
	Title           string                `json:"title"`
	Message         string                `json:"message"`
	Latitude        float64               `json:"latitude"`
	Longitude       float64               `json:"longitude"`
	Severity        string                `json:"severity"`
	Status          models.AlertStatus    `json:"status"`
	DurationDays    int                   `json:"duration_days"`
	ExpiresAt       *time.Time            `json:"expires_at"`
	Forest          string                `json:"forest"`
	District        string                `json:"district"`
	Province        string                `json:"province"`
	LocationDetails string                `json:"location_details"`
	RiskLevel       string                `json:"risk_level"`
	Probability     float64               `json:"probability"`
	WeatherData     *models.WeatherSample `json:"weather_data"`
	Precautions     string                `json:"precautions"`
	Reason          string                `json:"reason"`
}

func (req alertRequest) toAlert(now time.Time, defaultSeverity string, defaultTTL time.Duration) *models.Alert {
	now = now.UTC()

	severity := req.Severity
	if severity == "" {
		severity = req.RiskLevel
	}
	if severity == "" {
		severity = defaultSeverity
	}
	title := req.Title
	if title == "" {
		title = "Forest Fire Alert"
	}
	riskLevel := req.RiskLevel
	if riskLevel == "" {
		riskLevel = string(models.RiskModerate)
	}
	status := req.Status
	if status == "" {
		status = models.AlertActive
	}

	expires := now.Add(defaultTTL)
	if req.DurationDays > 0 {
		expires = now.AddDate(0, 0, req.DurationDays)
	}
	if req.ExpiresAt != nil {
		expires = req.ExpiresAt.UTC()
	}
	p := req.Probability

	return &models.Alert{
		Title:     title,
		Message:   req.Message,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Severity:  strings.ToLower(severity),
		Status:    status,
		CreatedAt: now,
		ExpiresAt: expires,
		AlertMetadata: models.AlertMetadata{
			Forest:          req.Forest,
			District:        req.District,
			Province:        req.Province,
			LocationDetails: req.LocationDetails,
			RiskLevel:       riskLevel,
			Probability:     &p,
			WeatherData:     req.WeatherData,
			Precautions:     req.Precautions,
			Reason:          req.Reason,
		},
	}
}

func (s *Server) handlePublicAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.GetActiveAlerts(r.Context(), listLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.GetAlerts(r.Context(), listLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alert := req.toAlert(s.clock.Now(), "moderate", s.alertTTL)
	if !alert.ExpiresAt.After(alert.CreatedAt) {
		writeError(w, http.StatusBadRequest, "expires_at must be in the future")
		return
	}
	if _, err := s.store.InsertAlert(events.WithSource(r.Context(), "manual"), alert); err != nil {
		s.logger.Error("failed to create alert", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create alert: "+err.Error())
		return
	}
	metrics.RecordAlertCreated("manual")
	writeJSON(w, http.StatusOK, alert)
}

// handleBulkAlerts creates every alert in the array body. Status is always
// active and the default severity is "medium".
func (s *Server) handleBulkAlerts(w http.ResponseWriter, r *http.Request) {
	var reqs []alertRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.clock.Now()
	alerts := make([]*models.Alert, len(reqs))
	for i, req := range reqs {
		req.Status = models.AlertActive
		req.DurationDays = 0
		alerts[i] = req.toAlert(now, "medium", s.alertTTL)
		if !alerts[i].ExpiresAt.After(alerts[i].CreatedAt) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("alert %d: expires_at must be in the future", i))
			return
		}
	}

	if len(alerts) > 0 {
		if _, err := s.store.InsertAlerts(events.WithSource(r.Context(), "bulk"), alerts); err != nil {
			s.logger.Error("failed to create bulk alerts", "count", len(alerts), "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create bulk alerts: "+err.Error())
			return
		}
		for range alerts {
			metrics.RecordAlertCreated("bulk")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"created_alerts": alerts,
		"count":          len(alerts),
	})
}

func (s *Server) handleCleanupAlerts(w http.ResponseWriter, r *http.Request) {
	n, err := scanner.Cleanup(r.Context(), s.store, s.clock, s.logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := s.store.GetAlertByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load alert")
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	var patch models.AlertPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if patch.Status != nil && *patch.Status != models.AlertActive && *patch.Status != models.AlertExpired {
		writeError(w, http.StatusBadRequest, "status must be active or expired")
		return
	}

	alert, err := s.store.UpdateAlert(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update alert: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete alert")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	writeMessage(w, "Alert deleted")
}
