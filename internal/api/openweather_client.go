package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wildfire/internal/models"
)

const DefaultOpenWeatherURL = "http://api.openweathermap.org"

// ErrNoAPIKey is returned when no OpenWeather key is configured
var ErrNoAPIKey = errors.New("openweather: api key not configured")

// OpenWeatherClient is a client for the OpenWeather current-conditions API
type OpenWeatherClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// ErrIncompleteWeather is returned for a 200 response missing a required reading
var ErrIncompleteWeather = errors.New("openweather: incomplete weather payload")

// currentWeather is the subset of the /data/2.5/weather payload we read.
// Rain is the only optional reading.
type currentWeather struct {
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

// NewOpenWeatherClient creates a client. A zero timeout means 10 seconds.
func NewOpenWeatherClient(baseURL, apiKey string, timeout time.Duration) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenWeatherClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// GetCurrentWeather fetches current conditions in metric units. Wind is
// converted from m/s to km/h and missing rain is reported as 0 mm.
func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, lat, lon float64) (*models.WeatherSample, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildURL(lat, lon), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var payload currentWeather
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Main.Temp == nil || payload.Main.Humidity == nil || payload.Wind.Speed == nil {
		return nil, ErrIncompleteWeather
	}

	return &models.WeatherSample{
		Temperature:   *payload.Main.Temp,
		Humidity:      *payload.Main.Humidity,
		WindSpeed:     *payload.Wind.Speed * 3.6,
		Precipitation: payload.Rain.OneHour,
	}, nil
}

// BuildURL returns the request URL for the given coordinates
func (c *OpenWeatherClient) BuildURL(lat, lon float64) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	return c.baseURL + "/data/2.5/weather?" + q.Encode()
}
