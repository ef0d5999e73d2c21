package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"wildfire/internal/database"
	"wildfire/internal/models"
	"wildfire/internal/notify"
)

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var report models.FireReport
	if err := decodeJSON(w, r, &report); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(report.Name) == "" || strings.TrimSpace(report.District) == "" {
		writeError(w, http.StatusBadRequest, "name and district are required")
		return
	}
	if _, err := time.Parse(time.DateOnly, report.FireDate); err != nil {
		writeError(w, http.StatusBadRequest, "fire_date must be YYYY-MM-DD")
		return
	}
	if report.Email != "" {
		if _, err := mail.ParseAddress(report.Email); err != nil {
			writeError(w, http.StatusBadRequest, "invalid email address")
			return
		}
	}

	report.ID = ""
	report.Resolved = false
	report.CreatedAt = s.clock.Now().UTC()
	id, err := s.store.InsertReport(r.Context(), &report)
	if err != nil {
		s.logger.Error("failed to insert fire report", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to submit fire report")
		return
	}
	s.logger.Info("✓ Fire report submitted", "id", id, "district", report.District)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Fire report submitted", "id": id})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.GetReports(r.Context(), listLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.GetReportByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleResolveReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Resolved *bool `json:"resolved"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Resolved == nil {
		writeError(w, http.StatusBadRequest, "resolved is required")
		return
	}

	report, err := s.store.SetReportResolved(r.Context(), chi.URLParam(r, "id"), *body.Resolved)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	writeMessage(w, "Report deleted")
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg models.ContactMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(msg.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	msg.ID = ""
	msg.CreatedAt = s.clock.Now().UTC()
	if _, err := s.store.InsertMessage(r.Context(), &msg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.GetMessages(r.Context(), listLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteMessage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete message: "+err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	writeMessage(w, "Deleted")
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToEmail string `json:"to_email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := mail.ParseAddress(req.ToEmail); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	msg, err := notify.Reply(req.ToEmail, req.Subject, req.Message)
	if err == nil {
		err = s.mail.Send(r.Context(), msg)
	}
	if err != nil {
		s.logger.Error("failed to send reply", "to", req.ToEmail, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send email: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Reply sent successfully"})
}

func (s *Server) handleReplyReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportID string `json:"report_id"`
		Subject  string `json:"subject"`
		Message  string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.store.GetReportByID(r.Context(), req.ReportID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	if report.Email == "" {
		writeError(w, http.StatusBadRequest, "No email found for this report")
		return
	}

	msg, err := notify.ReportReply(report, req.Subject, req.Message)
	if err == nil {
		err = s.mail.Send(r.Context(), msg)
	}
	if err != nil {
		s.logger.Error("failed to send report reply", "report", report.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send email: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Reply sent successfully to reporter"})
}
