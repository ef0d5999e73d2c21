package classifier

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"wildfire/internal/metrics"
	"wildfire/internal/models"
)

// Manual-path thresholds. These are deliberately different from the scan path.
const (
	ManualHighThreshold     = 0.75
	ManualModerateThreshold = 0.40
)

// ManualFeatures is the column order of the random forest
var ManualFeatures = []string{
	"latitude", "longitude", "temperature", "humidity",
	"wind_speed", "precipitation", "elevation", "vpd",
}

var riskMessages = map[models.RiskLevel]string{
	models.RiskHigh: "High Fire Risk Detected! Conditions strongly favor wildfire ignition and spread. " +
		"Avoid open flames and outdoor burning, keep fire safety equipment within reach, " +
		"follow local fire advisories and be ready to evacuate if authorities issue warnings.",
	models.RiskModerate: "Moderate Fire Risk - Stay Alert! Weather and terrain point to an elevated fire risk. " +
		"Avoid lighting fires outdoors, be careful with anything that can throw sparks, " +
		"keep emergency contacts handy and watch weather updates in case conditions worsen.",
	models.RiskLow: "Low Fire Risk - Conditions are Favorable! Humidity and weather currently limit fire occurrence. " +
		"Still extinguish fires properly, follow local regulations and stay informed, " +
		"since safe conditions today don't guarantee safety tomorrow.",
}

// ErrInvalidInput marks observations that cannot be turned into features
var ErrInvalidInput = errors.New("invalid input")

// ManualPredictor scores a single user-supplied observation with the
// scaler + random forest pair.
type ManualPredictor struct {
	forest *RandomForest
	scaler *Scaler
}

func NewManualPredictor(forest *RandomForest, scaler *Scaler) *ManualPredictor {
	return &ManualPredictor{forest: forest, scaler: scaler}
}

// LoadManualPredictor reads random_forest.json and scaler.json from dir
func LoadManualPredictor(dir string) (*ManualPredictor, error) {
	var forest RandomForest
	var scaler Scaler
	err := errors.Join(
		loadJSON(filepath.Join(dir, "random_forest.json"), &forest),
		loadJSON(filepath.Join(dir, "scaler.json"), &scaler),
	)
	if err != nil {
		return NewManualPredictor(nil, nil), err
	}
	if len(scaler.Mean) != len(ManualFeatures) {
		return NewManualPredictor(nil, nil), fmt.Errorf("random forest scaler must have %d features", len(ManualFeatures))
	}
	return NewManualPredictor(&forest, &scaler), nil
}

func (p *ManualPredictor) Available() bool {
	return p != nil && p.forest != nil && p.scaler != nil
}

func (p *ManualPredictor) Predict(in models.ManualInput) (models.ManualPrediction, error) {
	if !p.Available() {
		return models.ManualPrediction{}, ErrUnavailable
	}

	vpd := VPD(in.Temperature, in.Humidity)
	if math.IsNaN(vpd) || math.IsInf(vpd, 0) {
		return models.ManualPrediction{}, fmt.Errorf("%w: cannot compute vapour pressure deficit for temperature %.2f", ErrInvalidInput, in.Temperature)
	}

	scaled, err := p.scaler.Transform([]float64{
		in.Latitude, in.Longitude, in.Temperature, in.Humidity,
		in.WindSpeed, in.Precipitation, in.Elevation, vpd,
	})
	if err != nil {
		return models.ManualPrediction{}, err
	}
	proba, err := p.forest.PredictProba(scaled)
	if err != nil {
		return models.ManualPrediction{}, err
	}
	prob := proba[positiveIndex(p.forest.Classes)]
	fireOccurred := 0
	if prob >= FireFlagThreshold {
		fireOccurred = 1
	}

	level := ManualRiskLevel(prob)
	metrics.RecordPrediction("random_forest", string(level))

	return models.ManualPrediction{
		FireOccurred: fireOccurred,
		RiskLevel:    level,
		Confidence:   Confidence(prob),
		Probability:  prob,
		Input:        models.ManualFeatures{ManualInput: in, VPD: vpd},
		RiskMessage:  riskMessages[level],
	}, nil
}

func ManualRiskLevel(p float64) models.RiskLevel {
	switch {
	case p >= ManualHighThreshold:
		return models.RiskHigh
	case p >= ManualModerateThreshold:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// Confidence describes how strongly the model leans toward a fire
func Confidence(p float64) string {
	switch {
	case p > 0.75:
		return "High confidence"
	case p > 0.40:
		return "Moderate confidence"
	case p > 0.25:
		return "Low confidence"
	default:
		return "Very low confidence"
	}
}

// VPD is the vapour pressure deficit in kPa, rounded to 3 decimals.
// temperature in °C, humidity in %.
func VPD(temperature, humidity float64) float64 {
	es := 0.6108 * math.Exp(17.27*temperature/(temperature+237.3))
	ea := humidity / 100 * es
	return math.Round((es-ea)*1000) / 1000
}
