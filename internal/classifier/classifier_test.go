package classifier

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildfire/internal/models"
)

func identityScaler(n int) *Scaler {
	s := &Scaler{Mean: make([]float64, n), Scale: make([]float64, n)}
	for i := range s.Scale {
		s.Scale[i] = 1
	}
	return s
}

// rainfallModel separates the classes on the third column only
func rainfallModel() *GaussianNB {
	return &GaussianNB{
		Classes:    []float64{0, 1},
		ClassPrior: []float64{0.5, 0.5},
		Theta:      [][]float64{{0, 0, -1, 0}, {0, 0, 1, 0}},
		Var:        [][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}},
	}
}

func TestAssessScanRisk(t *testing.T) {
	tests := []struct {
		p        float64
		level    models.RiskLevel
		fireFlag bool
	}{
		{0.95, models.RiskHigh, true},
		{0.60, models.RiskHigh, true},
		{0.5999, models.RiskModerate, true},
		{0.50, models.RiskModerate, true},
		{0.4999, models.RiskModerate, false},
		{0.30, models.RiskModerate, false},
		{0.2999, models.RiskLow, false},
		{0, models.RiskLow, false},
	}

	for _, tt := range tests {
		got := AssessScanRisk(tt.p)
		assert.Equal(t, tt.level, got.RiskLevel, "p=%v", tt.p)
		assert.Equal(t, tt.fireFlag, got.FireFlag, "p=%v", tt.p)
		assert.Equal(t, tt.p, got.Probability)
	}
}

func TestRiskClassifier_Unavailable(t *testing.T) {
	for name, c := range map[string]*RiskClassifier{
		"nil artifacts":  NewRiskClassifier(nil, nil),
		"missing scaler": NewRiskClassifier(rainfallModel(), nil),
		"nil classifier": nil,
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, c.Available())
			_, err := c.Predict(35, 20, 15, 0)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestRiskClassifier_FeatureOrder(t *testing.T) {
	c := NewRiskClassifier(rainfallModel(), identityScaler(4))
	require.True(t, c.Available())

	// wind speed is not a discriminating column, so the posterior stays even
	even, err := c.Predict(0, 0, 5, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, even.Probability, 1e-9)
	assert.Equal(t, models.RiskModerate, even.RiskLevel)
	assert.True(t, even.FireFlag)

	wet, err := c.Predict(0, 0, 0, 3)
	require.NoError(t, err)
	assert.Greater(t, wet.Probability, 0.99)
	assert.Equal(t, models.RiskHigh, wet.RiskLevel)

	dry, err := c.Predict(0, 0, 0, -3)
	require.NoError(t, err)
	assert.Less(t, dry.Probability, 0.01)
	assert.Equal(t, models.RiskLow, dry.RiskLevel)
}

func TestGaussianNB_PredictProbaSumsToOne(t *testing.T) {
	m := &GaussianNB{
		Classes:    []float64{0, 1},
		ClassPrior: []float64{0.7, 0.3},
		Theta:      [][]float64{{0.2, -0.1}, {1.1, 0.4}},
		Var:        [][]float64{{0.5, 2}, {1.5, 0.3}},
	}
	proba, err := m.PredictProba([]float64{0.6, 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 1, proba[0]+proba[1], 1e-12)

	_, err = m.PredictProba([]float64{1})
	assert.Error(t, err)
}

func TestScaler_Transform(t *testing.T) {
	s := &Scaler{Mean: []float64{10, 5, 1}, Scale: []float64{2, 0, 0.5}}

	got, err := s.Transform([]float64{14, 7, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, -2}, got)

	_, err = s.Transform([]float64{1, 2})
	assert.Error(t, err)
}

func TestRandomForest_PredictProba(t *testing.T) {
	f := &RandomForest{
		Classes: []float64{0, 1},
		Trees: []DecisionTree{
			{Nodes: []TreeNode{
				{Feature: 0, Threshold: 0, Left: 1, Right: 2},
				{Left: -1, Right: -1, Value: []float64{9, 1}},
				{Left: -1, Right: -1, Value: []float64{1, 3}},
			}},
			{Nodes: []TreeNode{
				{Left: -1, Right: -1, Value: []float64{0.5, 0.5}},
			}},
		},
	}

	low, err := f.PredictProba([]float64{-1})
	require.NoError(t, err)
	assert.InDelta(t, (0.1+0.5)/2, low[1], 1e-12)

	high, err := f.PredictProba([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, (0.75+0.5)/2, high[1], 1e-12)
}

func TestDecisionTree_BadIndex(t *testing.T) {
	tree := DecisionTree{Nodes: []TreeNode{{Feature: 0, Threshold: 0, Left: 5, Right: 6}}}
	_, err := tree.leaf([]float64{0})
	assert.Error(t, err)
}

func TestVPD(t *testing.T) {
	tests := []struct {
		temperature, humidity, want float64
	}{
		{30, 40, 2.546},
		{35, 30, 3.936},
		{20, 100, 0},
		{0, 50, 0.305},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VPD(tt.temperature, tt.humidity), "T=%v H=%v", tt.temperature, tt.humidity)
	}

	assert.True(t, math.IsInf(VPD(-237.31, 10), 0) || math.IsNaN(VPD(-237.31, 10)))
}

func TestManualRiskLevelAndConfidence(t *testing.T) {
	tests := []struct {
		p          float64
		level      models.RiskLevel
		confidence string
	}{
		{0.9, models.RiskHigh, "High confidence"},
		{0.75, models.RiskHigh, "Moderate confidence"},
		{0.6, models.RiskModerate, "Moderate confidence"},
		{0.40, models.RiskModerate, "Low confidence"},
		{0.3, models.RiskLow, "Low confidence"},
		{0.25, models.RiskLow, "Very low confidence"},
		{0.05, models.RiskLow, "Very low confidence"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, ManualRiskLevel(tt.p), "p=%v", tt.p)
		assert.Equal(t, tt.confidence, Confidence(tt.p), "p=%v", tt.p)
	}
}

func TestManualPredictor_Predict(t *testing.T) {
	// splits on the vpd column
	forest := &RandomForest{
		Classes: []float64{0, 1},
		Trees: []DecisionTree{{Nodes: []TreeNode{
			{Feature: 7, Threshold: 1.0, Left: 1, Right: 2},
			{Left: -1, Right: -1, Value: []float64{9, 1}},
			{Left: -1, Right: -1, Value: []float64{1, 9}},
		}}},
	}
	p := NewManualPredictor(forest, identityScaler(len(ManualFeatures)))

	got, err := p.Predict(models.ManualInput{Latitude: 27.5, Longitude: 84.4, Temperature: 35, Humidity: 30, WindSpeed: 12, Elevation: 415})
	require.NoError(t, err)
	assert.Equal(t, 1, got.FireOccurred)
	assert.Equal(t, models.RiskHigh, got.RiskLevel)
	assert.Equal(t, "High confidence", got.Confidence)
	assert.InDelta(t, 0.9, got.Probability, 1e-12)
	assert.Equal(t, 3.936, got.Input.VPD)
	assert.Contains(t, got.RiskMessage, "High Fire Risk")

	humid, err := p.Predict(models.ManualInput{Temperature: 20, Humidity: 95})
	require.NoError(t, err)
	assert.Equal(t, 0, humid.FireOccurred)
	assert.Equal(t, models.RiskLow, humid.RiskLevel)

	_, err = p.Predict(models.ManualInput{Temperature: -237.31, Humidity: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestManualPredictor_Unavailable(t *testing.T) {
	_, err := NewManualPredictor(nil, nil).Predict(models.ManualInput{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLoadShippedArtifacts(t *testing.T) {
	dir := filepath.Join("..", "..", "model")

	rc, err := LoadRiskClassifier(dir)
	require.NoError(t, err)
	require.True(t, rc.Available())

	hot, err := rc.Predict(38, 12, 20, 0)
	require.NoError(t, err)
	cool, err := rc.Predict(15, 90, 5, 12)
	require.NoError(t, err)
	assert.Greater(t, hot.Probability, cool.Probability)

	mp, err := LoadManualPredictor(dir)
	require.NoError(t, err)
	require.True(t, mp.Available())

	pred, err := mp.Predict(models.ManualInput{Latitude: 27.5, Longitude: 84.4, Temperature: 36, Humidity: 20, WindSpeed: 15, Elevation: 400})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.Probability, 0.0)
	assert.LessOrEqual(t, pred.Probability, 1.0)
}

func TestLoadRiskClassifier_Degraded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "naive_bayes.json"), []byte(`{"classes":[0]}`), 0o600))

	c, err := LoadRiskClassifier(dir)
	assert.Error(t, err)
	require.NotNil(t, c)
	assert.False(t, c.Available())

	_, err = c.Predict(30, 30, 10, 0)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGaussianNB_RejectsDegenerateParameters(t *testing.T) {
	tests := []struct {
		name  string
		prior []float64
		vars  [][]float64
	}{
		{"zero variance", []float64{0.5, 0.5}, [][]float64{{1, 0}, {1, 1}}},
		{"negative variance", []float64{0.5, 0.5}, [][]float64{{1, 1}, {-2, 1}}},
		{"zero prior", []float64{1, 0}, [][]float64{{1, 1}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &GaussianNB{
				Classes:    []float64{0, 1},
				ClassPrior: tt.prior,
				Theta:      [][]float64{{0, 0}, {1, 1}},
				Var:        tt.vars,
			}
			assert.Error(t, m.validate())
		})
	}
}

func TestLoadRiskClassifier_ZeroVariance(t *testing.T) {
	dir := t.TempDir()
	model := `{"classes":[0,1],"class_prior":[0.5,0.5],"theta":[[0,0,0,0],[1,1,1,1]],"var":[[1,1,0,1],[1,1,1,1]]}`
	scaler := `{"mean":[0,0,0,0],"scale":[1,1,1,1]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "naive_bayes.json"), []byte(model), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "naive_bayes_scaler.json"), []byte(scaler), 0o600))

	c, err := LoadRiskClassifier(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variance must be positive")
	assert.False(t, c.Available())
}
