package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wildfire/internal/api"
	"wildfire/internal/auth"
	"wildfire/internal/database"
	"wildfire/internal/models"
	"wildfire/internal/notify"
	"wildfire/internal/scanner"
)

const listLimit = 100

type ScanRunner interface {
	Run(ctx context.Context, locations []models.Location, opts scanner.Options) (*models.ScanSummary, error)
}

type Predictor interface {
	Predict(in models.ManualInput) (models.ManualPrediction, error)
}

type FireFeed interface {
	GetActiveFires(ctx context.Context, sensor string, days int) ([]api.FireDetection, error)
}

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	Store     database.Store
	Scanner   ScanRunner
	Predictor Predictor
	Fires     FireFeed
	Auth      *auth.Service
	Mail      notify.Sender
	Locations []models.Location
	Clock     clockwork.Clock
	Logger    *slog.Logger

	AllowedOrigins []string
	AuthPerMinute  int
	AlertTTL       time.Duration
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxy bool
}

// Server serves the wildfire monitoring API
type Server struct {
	store     database.Store
	scanner   ScanRunner
	predictor Predictor
	fires     FireFeed
	auth      *auth.Service
	mail      notify.Sender
	locations []models.Location
	clock     clockwork.Clock
	logger    *slog.Logger
	alertTTL  time.Duration
	router    chi.Router
}

func New(d Deps) *Server {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.AuthPerMinute <= 0 {
		d.AuthPerMinute = 10
	}
	if d.AlertTTL <= 0 {
		d.AlertTTL = scanner.DefaultAlertTTL
	}
	s := &Server{
		store:     d.Store,
		scanner:   d.Scanner,
		predictor: d.Predictor,
		fires:     d.Fires,
		auth:      d.Auth,
		mail:      d.Mail,
		locations: d.Locations,
		clock:     d.Clock,
		logger:    d.Logger,
		alertTTL:  d.AlertTTL,
	}
	s.router = s.routes(d.AllowedOrigins, d.AuthPerMinute, d.TrustProxy)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(origins []string, authPerMinute int, trustProxy bool) chi.Router {
	r := chi.NewRouter()
	if trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(instrument(s.logger))
	r.Use(cors(origins))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/predict-manual", s.handlePredictManual)
	r.Get("/fires", s.handleFires)
	r.Post("/admin/test-scan-nepal", s.handleTestScan)
	r.Get("/admin/public/alerts", s.handlePublicAlerts)
	r.Post("/reports/", s.handleCreateReport)
	r.Get("/reports/", s.handleListReports)
	r.Get("/reports/{id}", s.handleGetReport)
	r.Post("/contact", s.handleContact)

	r.Group(func(r chi.Router) {
		r.Use(rateLimitByIP(newIPLimiter(authPerMinute, s.clock.Now)))
		r.Post("/register", s.handleRegister)
		r.Post("/verify-otp", s.handleVerifyOTP)
		r.Post("/resend-otp", s.handleResendOTP)
		r.Post("/login", s.handleLogin)
		r.Post("/admin/login", s.handleAdminLogin)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(s.auth.Tokens(), s.logger))
		r.Use(requireAdmin)

		r.Post("/admin/scan-nepal", s.handleScan)

		r.Get("/admin/alerts", s.handleListAlerts)
		r.Post("/admin/alerts", s.handleCreateAlert)
		r.Post("/admin/alerts/bulk", s.handleBulkAlerts)
		r.Post("/admin/alerts/cleanup", s.handleCleanupAlerts)
		r.Get("/admin/alerts/{id}", s.handleGetAlert)
		r.Put("/admin/alerts/{id}", s.handleUpdateAlert)
		r.Delete("/admin/alerts/{id}", s.handleDeleteAlert)

		r.Put("/reports/{id}/resolve", s.handleResolveReport)
		r.Delete("/reports/{id}", s.handleDeleteReport)
		r.Get("/messages", s.handleListMessages)
		r.Delete("/messages/{id}", s.handleDeleteMessage)

		r.Post("/admin/reply", s.handleReply)
		r.Post("/admin/reply-report", s.handleReplyReport)
	})

	return r
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeouts Timeouts) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  timeouts.Read,
		WriteTimeout: timeouts.Write,
		IdleTimeout:  timeouts.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("✓ HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type Timeouts struct {
	Read, Write, Idle, Shutdown time.Duration
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, "API is running!")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.clock.Now().UTC().Format(time.RFC3339),
	})
}
