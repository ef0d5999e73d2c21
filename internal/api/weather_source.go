package api

import (
	"context"
	"log/slog"

	"wildfire/internal/metrics"
	"wildfire/internal/models"
)

// WeatherProvider fetches live conditions for a coordinate
type WeatherProvider interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*models.WeatherSample, error)
}

// WeatherSource always yields a sample: the live provider when it answers,
// the simulator otherwise.
type WeatherSource struct {
	provider  WeatherProvider
	simulator *Simulator
	logger    *slog.Logger
}

// NewWeatherSource wires a provider and its fallback. provider may be nil,
// in which case every sample is simulated.
func NewWeatherSource(provider WeatherProvider, simulator *Simulator, logger *slog.Logger) *WeatherSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherSource{provider: provider, simulator: simulator, logger: logger}
}

func (w *WeatherSource) Fetch(ctx context.Context, lat, lon float64) models.WeatherSample {
	if w.provider != nil {
		sample, err := w.provider.GetCurrentWeather(ctx, lat, lon)
		if err == nil {
			metrics.RecordWeatherFetch("api")
			return *sample
		}
		w.logger.Warn("weather provider failed, using simulated sample",
			"lat", lat, "lon", lon, "error", err)
	}

	metrics.RecordWeatherFetch("simulated")
	return w.simulator.Sample()
}
