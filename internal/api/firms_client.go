package api

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultFirmsURL = "https://firms.modaps.eosdis.nasa.gov"
	// NepalBBox is west,south,east,north
	NepalBBox = "80,26,88.2,30.4"
)

// Sensors accepted by the FIRMS area endpoint
var FirmsSensors = map[string]bool{
	"MODIS_NRT":        true,
	"VIIRS_SNPP_NRT":   true,
	"VIIRS_NOAA20_NRT": true,
	"VIIRS_NOAA21_NRT": true,
}

var (
	ErrNoMapKey      = errors.New("firms: map key not configured")
	ErrInvalidSensor = errors.New("firms: unsupported sensor")
	ErrInvalidDays   = errors.New("firms: days must be between 1 and 10")
)

// FireDetection is one CSV row of the FIRMS feed keyed by column name
type FireDetection map[string]string

// FirmsClient reads NASA FIRMS active-fire detections for the Nepal bounding box
type FirmsClient struct {
	client  *http.Client
	baseURL string
	mapKey  string
}

func NewFirmsClient(baseURL, mapKey string) *FirmsClient {
	if baseURL == "" {
		baseURL = DefaultFirmsURL
	}
	return &FirmsClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		mapKey:  mapKey,
	}
}

func (c *FirmsClient) BuildURL(sensor string, days int) string {
	return fmt.Sprintf("%s/api/area/csv/%s/%s/%s/%d", c.baseURL, c.mapKey, sensor, NepalBBox, days)
}

// GetActiveFires returns the detections of the last `days` days
func (c *FirmsClient) GetActiveFires(ctx context.Context, sensor string, days int) ([]FireDetection, error) {
	if c.mapKey == "" {
		return nil, ErrNoMapKey
	}
	if !FirmsSensors[sensor] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSensor, sensor)
	}
	if days < 1 || days > 10 {
		return nil, ErrInvalidDays
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildURL(sensor, days), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fires: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return parseFirmsCSV(resp.Body)
}

func parseFirmsCSV(r io.Reader) ([]FireDetection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []FireDetection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	fires := []FireDetection{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		row := make(FireDetection, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		fires = append(fires, row)
	}
	return fires, nil
}
