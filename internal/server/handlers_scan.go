package server

import (
	"errors"
	"net/http"
	"strconv"

	"wildfire/internal/api"
	"wildfire/internal/classifier"
	"wildfire/internal/models"
	"wildfire/internal/scanner"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	s.runScan(w, r, scanner.Options{CreateAlerts: true})
}

// handleTestScan is the unauthenticated twin of handleScan; it never stores alerts
func (s *Server) handleTestScan(w http.ResponseWriter, r *http.Request) {
	s.runScan(w, r, scanner.Options{CreateAlerts: false})
}

func (s *Server) runScan(w http.ResponseWriter, r *http.Request, opts scanner.Options) {
	summary, err := s.scanner.Run(r.Context(), s.locations, opts)
	if errors.Is(err, classifier.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Model not loaded")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Scan failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePredictManual(w http.ResponseWriter, r *http.Request) {
	var in models.ManualInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		writeError(w, http.StatusBadRequest, "Latitude must be between -90 and 90")
		return
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		writeError(w, http.StatusBadRequest, "Longitude must be between -180 and 180")
		return
	}
	if in.Humidity < 0 || in.Humidity > 100 {
		writeError(w, http.StatusBadRequest, "Humidity must be between 0 and 100")
		return
	}

	pred, err := s.predictor.Predict(in)
	switch {
	case errors.Is(err, classifier.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Model not loaded")
	case errors.Is(err, classifier.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Prediction failed: "+err.Error())
	default:
		writeJSON(w, http.StatusOK, pred)
	}
}

func (s *Server) handleFires(w http.ResponseWriter, r *http.Request) {
	sensor := r.URL.Query().Get("sensor")
	if sensor == "" {
		sensor = "MODIS_NRT"
	}
	days := 1
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = n
	}

	fires, err := s.fires.GetActiveFires(r.Context(), sensor, days)
	switch {
	case errors.Is(err, api.ErrInvalidDays), errors.Is(err, api.ErrInvalidSensor):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, api.ErrNoMapKey):
		writeError(w, http.StatusServiceUnavailable, "FIRMS map key not configured")
		return
	case err != nil:
		s.logger.Error("failed to fetch FIRMS data", "sensor", sensor, "days", days, "error", err)
		writeError(w, http.StatusBadGateway, "Failed to fetch fire data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fires":  fires,
		"count":  len(fires),
		"sensor": sensor,
		"days":   days,
		"bbox":   api.NepalBBox,
	})
}
