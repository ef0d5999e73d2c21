// Package app assembles the store, models, weather source and services
// shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"wildfire/internal/api"
	"wildfire/internal/auth"
	"wildfire/internal/classifier"
	"wildfire/internal/config"
	"wildfire/internal/database"
	"wildfire/internal/events"
	"wildfire/internal/notify"
	"wildfire/internal/scanner"
	"wildfire/internal/server"
)

var ErrNoSecret = errors.New("SECRET_KEY must be set")

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Store   *events.PublishingStore
	Risk    *classifier.RiskClassifier
	Manual  *classifier.ManualPredictor
	Weather *api.WeatherSource
	Scanner *scanner.Scanner
	Mail    notify.Sender
	Auth    *auth.Service
	Fires   *api.FirmsClient
}

// New wires every component. Missing model artifacts and an unreachable
// event backend are logged and degrade the service instead of failing it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, clock clockwork.Clock) (*App, error) {
	if cfg.Auth.SecretKey == "" {
		return nil, ErrNoSecret
	}

	store, err := database.Open(ctx, cfg.Store.Backend, config.GetDatabaseDSN(), cfg.Store.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	publisher, err := events.Open(ctx, cfg, logger)
	if err != nil {
		logger.Warn("alert events disabled", "backend", cfg.Events.Backend, "error", err)
		publisher = events.NopPublisher{}
	}
	pstore := events.NewPublishingStore(store, publisher, cfg.Events.Backend, clock, logger)

	risk, err := classifier.LoadRiskClassifier(cfg.ModelDir)
	if err != nil {
		logger.Warn("risk classifier not loaded, scans will be refused", "dir", cfg.ModelDir, "error", err)
	} else {
		logger.Info("✓ Risk classifier loaded", "dir", cfg.ModelDir)
	}
	manual, err := classifier.LoadManualPredictor(cfg.ModelDir)
	if err != nil {
		logger.Warn("manual predictor not loaded", "dir", cfg.ModelDir, "error", err)
	} else {
		logger.Info("✓ Manual predictor loaded", "dir", cfg.ModelDir)
	}

	var provider api.WeatherProvider
	if cfg.Weather.APIKey != "" {
		provider = api.NewOpenWeatherClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Timeout)
	} else {
		logger.Warn("OPENWEATHER_KEY not set, scans use simulated weather")
	}
	weather := api.NewWeatherSource(provider, api.NewSimulator(clock.Now().UnixNano()), logger)

	sc := scanner.New(weather, risk, pstore, logger,
		scanner.WithWorkers(cfg.Scan.Workers),
		scanner.WithAlertTTL(cfg.Scan.AlertTTL),
		scanner.WithTopN(cfg.Scan.TopN),
		scanner.WithClock(clock),
	)

	mail := notify.NewSender(cfg.SMTP, logger)
	tokens := auth.NewJWTService([]byte(cfg.Auth.SecretKey), cfg.Auth.TokenTTL, clock)
	authSvc := auth.NewService(pstore, tokens, mail, clock, cfg.Auth.OTPTTL, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Clock:   clock,
		Store:   pstore,
		Risk:    risk,
		Manual:  manual,
		Weather: weather,
		Scanner: sc,
		Mail:    mail,
		Auth:    authSvc,
		Fires:   api.NewFirmsClient(cfg.Firms.BaseURL, cfg.Firms.MapKey),
	}, nil
}

// EnsureAdmin creates the configured bootstrap admin if credentials are set
func (a *App) EnsureAdmin(ctx context.Context) error {
	c := a.Config.Auth
	if c.AdminEmail == "" || c.AdminPassword == "" {
		return nil
	}
	created, err := a.Auth.EnsureAdmin(ctx, c.AdminEmail, c.AdminUsername, c.AdminPassword)
	if err != nil {
		return err
	}
	if !created {
		a.Logger.Debug("admin account already exists", "email", c.AdminEmail)
	}
	return nil
}

// Server builds the HTTP layer over the wired components
func (a *App) Server() *server.Server {
	return server.New(server.Deps{
		Store:          a.Store,
		Scanner:        a.Scanner,
		Predictor:      a.Manual,
		Fires:          a.Fires,
		Auth:           a.Auth,
		Mail:           a.Mail,
		Locations:      a.Config.Locations,
		Clock:          a.Clock,
		Logger:         a.Logger,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		TrustProxy:     a.Config.Server.TrustProxy,
		AuthPerMinute:  a.Config.Auth.RatePerMinute,
		AlertTTL:       a.Config.Scan.AlertTTL,
	})
}

func (a *App) Timeouts() server.Timeouts {
	s := a.Config.Server
	return server.Timeouts{
		Read:     s.ReadTimeout,
		Write:    s.WriteTimeout,
		Idle:     2 * s.ReadTimeout,
		Shutdown: s.ShutdownTimeout,
	}
}

// Close flushes the event publisher and closes the store
func (a *App) Close() error {
	return a.Store.Close()
}
