package classifier

import (
	"errors"
	"fmt"
	"path/filepath"

	"wildfire/internal/metrics"
	"wildfire/internal/models"
)

// Scan-path thresholds
const (
	HighThreshold     = 0.60
	ModerateThreshold = 0.30
	FireFlagThreshold = 0.5
)

// ScanFeatures is the column order the naive Bayes model was fitted on
var ScanFeatures = []string{"temperature", "humidity", "rainfall", "wind_speed"}

// RiskClassifier scores current weather with the scaler + naive Bayes pair.
// It is immutable after construction and safe for concurrent use.
type RiskClassifier struct {
	model  *GaussianNB
	scaler *Scaler
}

// NewRiskClassifier builds a classifier from already-loaded artifacts. A nil
// artifact yields a degraded classifier whose Predict returns ErrUnavailable.
func NewRiskClassifier(model *GaussianNB, scaler *Scaler) *RiskClassifier {
	return &RiskClassifier{model: model, scaler: scaler}
}

// LoadRiskClassifier reads naive_bayes.json and naive_bayes_scaler.json from dir.
// On failure it still returns a usable (degraded) classifier along with the error.
func LoadRiskClassifier(dir string) (*RiskClassifier, error) {
	var model GaussianNB
	var scaler Scaler
	err := errors.Join(
		loadJSON(filepath.Join(dir, "naive_bayes.json"), &model),
		loadJSON(filepath.Join(dir, "naive_bayes_scaler.json"), &scaler),
	)
	if err != nil {
		return NewRiskClassifier(nil, nil), err
	}
	if len(model.Theta) == 0 || len(model.Theta[0]) != len(ScanFeatures) || len(scaler.Mean) != len(ScanFeatures) {
		return NewRiskClassifier(nil, nil), fmt.Errorf("naive bayes artifacts must have %d features", len(ScanFeatures))
	}
	return NewRiskClassifier(&model, &scaler), nil
}

func (c *RiskClassifier) Available() bool {
	return c != nil && c.model != nil && c.scaler != nil
}

// Predict scores one weather observation. rainfall is the precipitation
// reading in mm.
func (c *RiskClassifier) Predict(temperature, humidity, windSpeed, rainfall float64) (models.RiskAssessment, error) {
	if !c.Available() {
		return models.RiskAssessment{}, ErrUnavailable
	}

	scaled, err := c.scaler.Transform([]float64{temperature, humidity, rainfall, windSpeed})
	if err != nil {
		return models.RiskAssessment{}, err
	}
	proba, err := c.model.PredictProba(scaled)
	if err != nil {
		return models.RiskAssessment{}, err
	}

	assessment := AssessScanRisk(proba[positiveIndex(c.model.Classes)])
	metrics.RecordPrediction("naive_bayes", string(assessment.RiskLevel))
	return assessment, nil
}

// AssessScanRisk maps a fire probability onto the scan risk levels
func AssessScanRisk(p float64) models.RiskAssessment {
	level := models.RiskLow
	switch {
	case p >= HighThreshold:
		level = models.RiskHigh
	case p >= ModerateThreshold:
		level = models.RiskModerate
	}
	return models.RiskAssessment{
		Probability: p,
		RiskLevel:   level,
		FireFlag:    p >= FireFlagThreshold,
	}
}
