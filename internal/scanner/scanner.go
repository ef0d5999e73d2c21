package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"wildfire/internal/classifier"
	"wildfire/internal/database"
	"wildfire/internal/events"
	"wildfire/internal/metrics"
	"wildfire/internal/models"
)

const (
	DefaultWorkers  = 5
	DefaultAlertTTL = 72 * time.Hour
	DefaultTopN     = 10
)

// Classifier estimates fire risk from current weather
type Classifier interface {
	Available() bool
	Predict(temperature, humidity, windSpeed, rainfall float64) (models.RiskAssessment, error)
}

// WeatherFetcher never fails; it degrades to simulated data instead
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) models.WeatherSample
}

type AlertInserter interface {
	InsertAlert(ctx context.Context, alert *models.Alert) (string, error)
}

type Options struct {
	// CreateAlerts is false for dry runs such as the unauthenticated test scan
	CreateAlerts bool
}

type Scanner struct {
	weather    WeatherFetcher
	classifier Classifier
	alerts     AlertInserter
	clock      clockwork.Clock
	logger     *slog.Logger

	workers  int
	alertTTL time.Duration
	topN     int
}

type Option func(*Scanner)

func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithAlertTTL(ttl time.Duration) Option {
	return func(s *Scanner) {
		if ttl > 0 {
			s.alertTTL = ttl
		}
	}
}

func WithTopN(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.topN = n
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Scanner) { s.clock = c }
}

func New(weather WeatherFetcher, c Classifier, alerts AlertInserter, logger *slog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		weather:    weather,
		classifier: c,
		alerts:     alerts,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		workers:    DefaultWorkers,
		alertTTL:   DefaultAlertTTL,
		topN:       DefaultTopN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run assesses every location and creates an alert for each High result.
// An unavailable classifier or a failed insert aborts the whole pass;
// alerts inserted before the failure stay in the store.
func (s *Scanner) Run(ctx context.Context, locations []models.Location, opts Options) (*models.ScanSummary, error) {
	mode := "scan"
	if !opts.CreateAlerts {
		mode = "dry_run"
	}
	start := s.clock.Now()
	summary, err := s.run(ctx, locations, opts)
	metrics.RecordScan(mode, s.clock.Since(start), err)
	if err != nil {
		s.logger.Error("scan failed", "mode", mode, "error", err)
		return nil, err
	}

	s.logger.Info("✓ Scan complete",
		"mode", mode,
		"scanned", summary.TotalScanned,
		"alerts_created", summary.AlertsCreated,
		"duration", s.clock.Since(start))
	return summary, nil
}

func (s *Scanner) run(ctx context.Context, locations []models.Location, opts Options) (*models.ScanSummary, error) {
	if s.classifier == nil || !s.classifier.Available() {
		return nil, classifier.ErrUnavailable
	}

	now := s.clock.Now()
	results := make([]models.ScanResult, len(locations))
	var alertsCreated atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, loc := range locations {
		g.Go(func() error {
			result, err := s.assess(gCtx, loc)
			if err != nil {
				return err
			}
			results[i] = result

			if opts.CreateAlerts && result.FireRisk == models.RiskHigh {
				if err := s.createAlert(gCtx, loc, result, now); err != nil {
					return err
				}
				alertsCreated.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := Rank(results)
	top := ranked[:min(s.topN, len(ranked))]

	return &models.ScanSummary{
		TotalScanned:      len(results),
		AlertsCreated:     int(alertsCreated.Load()),
		HighRiskDistricts: top,
		Results:           top,
	}, nil
}

func (s *Scanner) assess(ctx context.Context, loc models.Location) (models.ScanResult, error) {
	w := s.weather.Fetch(ctx, loc.Latitude, loc.Longitude)

	risk, err := s.classifier.Predict(w.Temperature, w.Humidity, w.WindSpeed, w.Precipitation)
	if err != nil {
		return models.ScanResult{}, fmt.Errorf("failed to classify %s: %w", loc.Name, err)
	}

	return models.ScanResult{
		Forest:          loc.Name,
		District:        loc.District,
		Province:        loc.Province,
		LocationDetails: loc.LocationDetails,
		Latitude:        loc.Latitude,
		Longitude:       loc.Longitude,
		Elevation:       loc.Elevation,
		WeatherData:     w,
		FireRisk:        risk.RiskLevel,
		Probability:     risk.Probability,
		FireFlag:        risk.FireFlag,
	}, nil
}

func (s *Scanner) createAlert(ctx context.Context, loc models.Location, r models.ScanResult, now time.Time) error {
	alert := BuildAlert(loc, r, now, s.alertTTL)

	id, err := s.alerts.InsertAlert(events.WithSource(ctx, "scan"), alert)
	if err != nil {
		return fmt.Errorf("failed to store alert for %s: %w", loc.Name, err)
	}
	metrics.RecordAlertCreated("scan")
	s.logger.Warn("High fire risk detected",
		"location", loc.Name,
		"district", loc.District,
		"probability", r.Probability,
		"alert_id", id)
	return nil
}

// BuildAlert turns a High scan result into an active alert expiring after ttl
func BuildAlert(loc models.Location, r models.ScanResult, now time.Time, ttl time.Duration) *models.Alert {
	now = now.UTC()
	p := r.Probability
	weather := r.WeatherData

	return &models.Alert{
		Title:     "High Fire Risk in " + loc.Name,
		Message:   fmt.Sprintf("%s district has high wildfire risk (score %.2f)", loc.District, r.Probability),
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Severity:  "high",
		Status:    models.AlertActive,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		AlertMetadata: models.AlertMetadata{
			Forest:          loc.Name,
			District:        loc.District,
			Province:        loc.Province,
			LocationDetails: loc.LocationDetails,
			RiskLevel:       string(r.FireRisk),
			Probability:     &p,
			WeatherData:     &weather,
			Reason:          "Automated scan",
		},
	}
}

// Rank orders results by probability, highest first. Equal probabilities
// keep their input order.
func Rank(results []models.ScanResult) []models.ScanResult {
	ranked := make([]models.ScanResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})
	return ranked
}

// Cleanup expires every active alert whose expiry has passed
func Cleanup(ctx context.Context, store database.AlertStore, clock clockwork.Clock, logger *slog.Logger) (int64, error) {
	n, err := store.ExpireOverdueAlerts(ctx, clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire alerts: %w", err)
	}
	metrics.RecordAlertsExpired(n)
	if n > 0 {
		logger.Info("✓ Expired overdue alerts", "count", n)
	}
	return n, nil
}
