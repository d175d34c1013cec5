package predictor

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	logisticIterations   = 500
	logisticLearningRate = 0.1
	logisticL2           = 0.01
	ridgeAlpha           = 1.0
)

// Scaler standardizes features to zero mean and unit variance.
type Scaler struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// FitScaler computes per-column mean and population standard deviation.
// Constant columns get a scale of 1.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("fit scaler: no rows")
	}
	s := &Scaler{
		Features: slices.Clone(FeatureNames[:]),
		Mean:     make([]float64, NumFeatures),
		Scale:    make([]float64, NumFeatures),
	}
	col := make([]float64, len(rows))
	for j := range NumFeatures {
		for i, r := range rows {
			col[i] = r[j]
		}
		m, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = m
		s.Scale[j] = math.Sqrt(variance)
		if s.Scale[j] == 0 || math.IsNaN(s.Scale[j]) {
			s.Scale[j] = 1
		}
	}
	return s, nil
}

// Transform returns a standardized copy of x.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j := range x {
		out[j] = (x[j] - s.Mean[j]) / s.Scale[j]
	}
	return out
}

// TransformAll standardizes every row.
func (s *Scaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = s.Transform(r)
	}
	return out
}

func (s *Scaler) validate() error {
	if !slices.Equal(s.Features, FeatureNames[:]) {
		return fmt.Errorf("scaler features do not match: got %d columns", len(s.Features))
	}
	if len(s.Mean) != NumFeatures || len(s.Scale) != NumFeatures {
		return errors.New("scaler has wrong dimensions")
	}
	return nil
}

// Classifier is a class-balanced, L2-regularized logistic regression.
type Classifier struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// FitClassifier trains on standardized rows with boolean labels by batch
// gradient descent. Each class contributes equally to the loss.
func FitClassifier(rows [][]float64, labels []bool) (*Classifier, error) {
	n := len(rows)
	if n == 0 || n != len(labels) {
		return nil, fmt.Errorf("fit classifier: %d rows, %d labels", n, len(labels))
	}
	var positives int
	for _, l := range labels {
		if l {
			positives++
		}
	}
	if positives == 0 || positives == n {
		return nil, errors.New("fit classifier: need both classes")
	}

	x := mat.NewDense(n, NumFeatures, nil)
	for i, r := range rows {
		x.SetRow(i, r)
	}
	y := make([]float64, n)
	sampleWeight := make([]float64, n)
	posWeight := float64(n) / (2 * float64(positives))
	negWeight := float64(n) / (2 * float64(n-positives))
	for i, l := range labels {
		if l {
			y[i] = 1
			sampleWeight[i] = posWeight
		} else {
			sampleWeight[i] = negWeight
		}
	}

	w := mat.NewVecDense(NumFeatures, nil)
	var bias float64
	z := mat.NewVecDense(n, nil)
	residual := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(NumFeatures, nil)

	for range logisticIterations {
		z.MulVec(x, w)
		var biasGrad float64
		for i := range n {
			r := (sigmoid(z.AtVec(i)+bias) - y[i]) * sampleWeight[i]
			residual.SetVec(i, r)
			biasGrad += r
		}
		grad.MulVec(x.T(), residual)
		grad.ScaleVec(1/float64(n), grad)
		grad.AddScaledVec(grad, logisticL2, w)

		w.AddScaledVec(w, -logisticLearningRate, grad)
		bias -= logisticLearningRate * biasGrad / float64(n)
	}

	return &Classifier{Weights: mat.Col(nil, 0, w), Bias: bias}, nil
}

// Probability returns P(completed) for a standardized row.
func (c *Classifier) Probability(x []float64) float64 {
	return sigmoid(floats.Dot(c.Weights, x) + c.Bias)
}

// Importance returns |weight| normalized to sum to 1, in feature order.
func (c *Classifier) Importance() []float64 {
	abs := make([]float64, len(c.Weights))
	for i, w := range c.Weights {
		abs[i] = math.Abs(w)
	}
	if total := floats.Sum(abs); total > 0 {
		floats.Scale(1/total, abs)
	}
	return abs
}

// Regressor is a ridge regression over standardized rows.
type Regressor struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// FitRegressor solves the ridge normal equations on centered data.
func FitRegressor(rows [][]float64, targets []float64) (*Regressor, error) {
	n := len(rows)
	if n == 0 || n != len(targets) {
		return nil, fmt.Errorf("fit regressor: %d rows, %d targets", n, len(targets))
	}

	colMean := make([]float64, NumFeatures)
	for _, r := range rows {
		floats.Add(colMean, r)
	}
	floats.Scale(1/float64(n), colMean)
	yMean := stat.Mean(targets, nil)

	x := mat.NewDense(n, NumFeatures, nil)
	y := mat.NewVecDense(n, nil)
	for i, r := range rows {
		centered := make([]float64, NumFeatures)
		floats.SubTo(centered, r, colMean)
		x.SetRow(i, centered)
		y.SetVec(i, targets[i]-yMean)
	}

	var a mat.SymDense
	a.SymOuterK(1, x.T())
	for j := range NumFeatures {
		a.SetSym(j, j, a.At(j, j)+ridgeAlpha)
	}
	var b mat.VecDense
	b.MulVec(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&a); !ok {
		return nil, errors.New("fit regressor: normal equations are not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &b); err != nil {
		return nil, fmt.Errorf("fit regressor: %w", err)
	}

	weights := mat.Col(nil, 0, &w)
	return &Regressor{Weights: weights, Bias: yMean - floats.Dot(weights, colMean)}, nil
}

// Predict returns the estimated completion days for a standardized row.
func (r *Regressor) Predict(x []float64) float64 {
	return floats.Dot(r.Weights, x) + r.Bias
}

// RSquared scores the regressor on the given rows.
func (r *Regressor) RSquared(rows [][]float64, targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	yMean := stat.Mean(targets, nil)
	var ssRes, ssTot float64
	for i, row := range rows {
		d := targets[i] - r.Predict(row)
		ssRes += d * d
		t := targets[i] - yMean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func accuracy(c *Classifier, rows [][]float64, labels []bool) float64 {
	if len(rows) == 0 {
		return 0
	}
	correct := 0
	for i, r := range rows {
		if (c.Probability(r) >= 0.5) == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
