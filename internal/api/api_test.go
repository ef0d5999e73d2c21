package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildfire/internal/models"
)

func TestOpenWeatherClient_BuildURL(t *testing.T) {
	c := NewOpenWeatherClient("http://example.test/", "key123", 0)

	got := c.BuildURL(27.7, 85.3)
	assert.Equal(t, "http://example.test/data/2.5/weather?appid=key123&lat=27.7000&lon=85.3000&units=metric", got)
	assert.Equal(t, 10*time.Second, c.client.Timeout)
}

func TestOpenWeatherClient_GetCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		fmt.Fprint(w, `{"main":{"temp":31.5,"humidity":22},"wind":{"speed":5},"rain":{"1h":0.4}}`)
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(srv.URL, "secret", time.Second)
	sample, err := c.GetCurrentWeather(context.Background(), 27.5, 84.4)
	require.NoError(t, err)

	assert.Equal(t, 31.5, sample.Temperature)
	assert.Equal(t, 22.0, sample.Humidity)
	assert.InDelta(t, 18.0, sample.WindSpeed, 1e-9)
	assert.Equal(t, 0.4, sample.Precipitation)
}

func TestOpenWeatherClient_MissingRain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"main":{"temp":20,"humidity":50},"wind":{"speed":1}}`)
	}))
	defer srv.Close()

	sample, err := NewOpenWeatherClient(srv.URL, "k", time.Second).GetCurrentWeather(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Zero(t, sample.Precipitation)
}

func TestOpenWeatherClient_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer failing.Close()

	_, err := NewOpenWeatherClient(failing.URL, "k", time.Second).GetCurrentWeather(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	_, err = NewOpenWeatherClient(failing.URL, "", time.Second).GetCurrentWeather(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestOpenWeatherClient_IncompletePayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no readings", `{"cod":200,"message":"partial"}`},
		{"no wind", `{"main":{"temp":30,"humidity":20}}`},
		{"no humidity", `{"main":{"temp":30},"wind":{"speed":3}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewOpenWeatherClient(srv.URL, "k", time.Second).GetCurrentWeather(context.Background(), 1, 1)
			assert.ErrorIs(t, err, ErrIncompleteWeather)
		})
	}
}

func TestWeatherSource_FallbackOnIncompletePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cod":200,"message":"partial"}`)
	}))
	defer srv.Close()

	src := NewWeatherSource(NewOpenWeatherClient(srv.URL, "k", time.Second), NewSimulator(11), nil)
	s := src.Fetch(context.Background(), 27.7, 85.3)
	assert.GreaterOrEqual(t, s.WindSpeed, 2.0)
	assert.LessOrEqual(t, s.WindSpeed, 35.0)
}

func TestOpenWeatherClient_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	_, err := NewOpenWeatherClient(slow.URL, "k", 50*time.Millisecond).GetCurrentWeather(context.Background(), 1, 1)
	assert.Error(t, err)
}

func TestSimulator_Bounds(t *testing.T) {
	sim := NewSimulator(42)
	for i := 0; i < 2000; i++ {
		s := sim.Sample()
		require.GreaterOrEqual(t, s.WindSpeed, 2.0)
		require.LessOrEqual(t, s.WindSpeed, 35.0)
		require.GreaterOrEqual(t, s.Precipitation, 0.0)
	}
}

func TestSimulator_Distribution(t *testing.T) {
	sim := NewSimulator(7)
	const n = 5000
	var temp, hum, rain float64
	for i := 0; i < n; i++ {
		s := sim.Sample()
		temp += s.Temperature
		hum += s.Humidity
		rain += s.Precipitation
	}
	assert.InDelta(t, 35, temp/n, 0.5)
	assert.InDelta(t, 30, hum/n, 1)
	assert.InDelta(t, 0.5, rain/n, 0.05)
}

type stubProvider struct {
	sample *models.WeatherSample
	err    error
}

func (s stubProvider) GetCurrentWeather(ctx context.Context, lat, lon float64) (*models.WeatherSample, error) {
	return s.sample, s.err
}

func TestWeatherSource_Fetch(t *testing.T) {
	live := &models.WeatherSample{Temperature: 28, Humidity: 40, WindSpeed: 9, Precipitation: 0}

	src := NewWeatherSource(stubProvider{sample: live}, NewSimulator(1), nil)
	assert.Equal(t, *live, src.Fetch(context.Background(), 27.7, 85.3))
}

func TestWeatherSource_FallbackOnError(t *testing.T) {
	src := NewWeatherSource(stubProvider{err: errors.New("connection refused")}, NewSimulator(1), nil)

	s := src.Fetch(context.Background(), 27.7, 85.3)
	assert.GreaterOrEqual(t, s.WindSpeed, 2.0)
	assert.LessOrEqual(t, s.WindSpeed, 35.0)
	assert.GreaterOrEqual(t, s.Precipitation, 0.0)
}

func TestWeatherSource_FallbackOnUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src := NewWeatherSource(NewOpenWeatherClient(url, "k", 200*time.Millisecond), NewSimulator(3), nil)
	s := src.Fetch(context.Background(), 27.7, 85.3)
	assert.GreaterOrEqual(t, s.WindSpeed, 2.0)
	assert.LessOrEqual(t, s.WindSpeed, 35.0)
}

func TestWeatherSource_NoProvider(t *testing.T) {
	src := NewWeatherSource(nil, NewSimulator(5), nil)
	s := src.Fetch(context.Background(), 28.2, 83.8)
	assert.GreaterOrEqual(t, s.Precipitation, 0.0)
}

const firmsCSV = `latitude,longitude,bright_ti4,acq_date,confidence
27.51,84.42,330.1,2024-04-12,n
28.38,81.30,341.7,2024-04-12,h
`

func TestFirmsClient_GetActiveFires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/area/csv/mapkey/VIIRS_SNPP_NRT/80,26,88.2,30.4/3", r.URL.Path)
		fmt.Fprint(w, firmsCSV)
	}))
	defer srv.Close()

	fires, err := NewFirmsClient(srv.URL, "mapkey").GetActiveFires(context.Background(), "VIIRS_SNPP_NRT", 3)
	require.NoError(t, err)
	require.Len(t, fires, 2)
	assert.Equal(t, "27.51", fires[0]["latitude"])
	assert.Equal(t, "h", fires[1]["confidence"])
}

func TestFirmsClient_Validation(t *testing.T) {
	c := NewFirmsClient("http://unused.test", "k")

	_, err := c.GetActiveFires(context.Background(), "MODIS_NRT", 0)
	assert.ErrorIs(t, err, ErrInvalidDays)
	_, err = c.GetActiveFires(context.Background(), "MODIS_NRT", 11)
	assert.ErrorIs(t, err, ErrInvalidDays)
	_, err = c.GetActiveFires(context.Background(), "LANDSAT", 1)
	assert.ErrorIs(t, err, ErrInvalidSensor)
	_, err = NewFirmsClient("", "").GetActiveFires(context.Background(), "MODIS_NRT", 1)
	assert.ErrorIs(t, err, ErrNoMapKey)
}

func TestParseFirmsCSV_Empty(t *testing.T) {
	fires, err := parseFirmsCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fires)

	fires, err = parseFirmsCSV(strings.NewReader("latitude,longitude\n"))
	require.NoError(t, err)
	assert.Empty(t, fires)
}
