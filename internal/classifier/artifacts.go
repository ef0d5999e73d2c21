package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrUnavailable is returned by every prediction when the model artifacts
// could not be loaded at startup.
var ErrUnavailable = errors.New("classifier unavailable: model artifacts not loaded")

// Scaler standardizes a feature vector: (x - mean) / scale
type Scaler struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

func (s *Scaler) validate() error {
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler: mean has %d values, scale has %d", len(s.Mean), len(s.Scale))
	}
	return nil
}

// Transform returns the z-scores of x. A zero scale leaves the centered
// value unscaled.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: expected %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

// GaussianNB holds the fitted parameters of a Gaussian naive Bayes model
type GaussianNB struct {
	Classes    []float64   `json:"classes"`
	ClassPrior []float64   `json:"class_prior"`
	Theta      [][]float64 `json:"theta"`
	Var        [][]float64 `json:"var"`
}

func (m *GaussianNB) validate() error {
	n := len(m.Classes)
	if n < 2 || len(m.ClassPrior) != n || len(m.Theta) != n || len(m.Var) != n {
		return fmt.Errorf("naive bayes: inconsistent class dimensions")
	}
	for c := range m.Theta {
		if len(m.Theta[c]) != len(m.Theta[0]) || len(m.Var[c]) != len(m.Theta[0]) {
			return fmt.Errorf("naive bayes: class %d has mismatched feature count", c)
		}
		if !(m.ClassPrior[c] > 0) {
			return fmt.Errorf("naive bayes: class %d prior must be positive", c)
		}
		for i, v := range m.Var[c] {
			if !(v > 0) || math.IsInf(v, 0) {
				return fmt.Errorf("naive bayes: class %d feature %d variance must be positive", c, i)
			}
		}
	}
	return nil
}

// PredictProba returns the posterior probability of each class
func (m *GaussianNB) PredictProba(x []float64) ([]float64, error) {
	if len(x) != len(m.Theta[0]) {
		return nil, fmt.Errorf("naive bayes: expected %d features, got %d", len(m.Theta[0]), len(x))
	}

	jll := make([]float64, len(m.Classes))
	for c := range m.Classes {
		ll := math.Log(m.ClassPrior[c])
		for i, v := range x {
			variance := m.Var[c][i]
			d := v - m.Theta[c][i]
			ll -= 0.5*math.Log(2*math.Pi*variance) + d*d/(2*variance)
		}
		jll[c] = ll
	}
	return softmax(jll), nil
}

// TreeNode is one node of an exported decision tree. Leaves have Left == -1
// and carry per-class weights in Value.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t *DecisionTree) leaf(x []float64) ([]float64, error) {
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if i < 0 || i >= len(t.Nodes) {
			return nil, fmt.Errorf("decision tree: node index %d out of range", i)
		}
		node := t.Nodes[i]
		if node.Left == -1 {
			return node.Value, nil
		}
		if node.Feature < 0 || node.Feature >= len(x) {
			return nil, fmt.Errorf("decision tree: feature %d out of range", node.Feature)
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
	return nil, fmt.Errorf("decision tree: cycle detected")
}

// RandomForest averages the normalized leaf distributions of its trees
type RandomForest struct {
	Classes []float64      `json:"classes"`
	Trees   []DecisionTree `json:"trees"`
}

func (f *RandomForest) validate() error {
	if len(f.Classes) < 2 || len(f.Trees) == 0 {
		return fmt.Errorf("random forest: need at least 2 classes and 1 tree")
	}
	return nil
}

func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	proba := make([]float64, len(f.Classes))
	for _, tree := range f.Trees {
		value, err := tree.leaf(x)
		if err != nil {
			return nil, err
		}
		if len(value) != len(proba) {
			return nil, fmt.Errorf("random forest: leaf has %d classes, want %d", len(value), len(proba))
		}
		var total float64
		for _, v := range value {
			total += v
		}
		if total == 0 {
			continue
		}
		for c, v := range value {
			proba[c] += v / total
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba, nil
}

// positiveIndex finds the column of class 1 (fire occurred)
func positiveIndex(classes []float64) int {
	for i, c := range classes {
		if c == 1 {
			return i
		}
	}
	return len(classes) - 1
}

func softmax(v []float64) []float64 {
	maxV := math.Inf(-1)
	for _, x := range v {
		maxV = math.Max(maxV, x)
	}
	out := make([]float64, len(v))
	var sum float64
	for i, x := range v {
		out[i] = math.Exp(x - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

type validator interface {
	validate() error
}

func loadJSON(path string, v validator) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if err := v.validate(); err != nil {
		return fmt.Errorf("invalid artifact %s: %w", path, err)
	}
	return nil
}
