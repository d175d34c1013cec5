package predictor

import (
	"math"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/complexity"
	"github.com/sbenjam1n/goaltrack/internal/goal"
	"go.uber.org/zap"
)

// NeutralProbability is reported when no completion model is available.
const NeutralProbability = 0.5

// Error strings carried on degraded predictions.
const (
	ErrTextNotTrained = "model not trained yet"
	ErrTextNoFeatures = "could not extract features"
)

// Prediction is the scored outlook of one goal.
type Prediction struct {
	GoalID                  string            `json:"goal_id"`
	GoalTitle               string            `json:"goal_title"`
	CompletionProbability   float64           `json:"completion_probability"`
	EstimatedDaysToComplete *int              `json:"estimated_days_to_complete"`
	ConfidenceLevel         string            `json:"confidence_level"`
	Recommendations         []string          `json:"recommendations"`
	RiskFactors             []goal.RiskFactor `json:"risk_factors"`
	Error                   string            `json:"error,omitempty"`
}

// Predictor trains models from goal history and scores goals against them.
type Predictor struct {
	log       *zap.Logger
	scorer    *complexity.Scorer
	extractor *Extractor
}

// New creates a Predictor.
func New(log *zap.Logger, scorer *complexity.Scorer) *Predictor {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = complexity.Default()
	}
	return &Predictor{
		log:       log.Named("predictor"),
		scorer:    scorer,
		extractor: NewExtractor(log, scorer),
	}
}

// Extractor returns the feature extractor the predictor uses.
func (p *Predictor) Extractor() *Extractor {
	return p.extractor
}

// Train extracts features from a user's goals and fits new models.
func (p *Predictor) Train(goals []goal.Goal, asOf time.Time) (*Models, TrainingReport, error) {
	vectors := p.extractor.ExtractAll(goals, asOf)
	models, report, err := Fit(vectors, asOf)
	if err != nil {
		return nil, report, err
	}
	p.log.Info("models trained",
		zap.Int("samples", report.TrainingSamples),
		zap.Bool("completion_model", report.CompletionModelTrained),
		zap.Bool("time_model", report.TimeModelTrained),
	)
	return models, report, nil
}

// Predict scores g against m. History is the owner's goal set. Predict never
// fails: without a trained model it returns the neutral probability, and a goal
// that cannot be featurized carries an error string.
func (p *Predictor) Predict(m *Models, g goal.Goal, history []goal.Goal, asOf time.Time) Prediction {
	pred := Prediction{
		GoalID:                g.ID,
		GoalTitle:             g.Title,
		CompletionProbability: NeutralProbability,
		ConfidenceLevel:       ConfidenceLevel(NeutralProbability),
		Recommendations:       []string{},
		RiskFactors:           []goal.RiskFactor{},
	}
	if !m.Trained() {
		pred.Error = ErrTextNotTrained
		return pred
	}

	v, err := p.extractor.Extract(g, history, asOf)
	if err != nil {
		p.log.Warn("feature extraction failed", zap.String("goal_id", g.ID), zap.Error(err))
		pred.Error = ErrTextNoFeatures
		return pred
	}

	x := m.Scaler.Transform(v.Features[:])
	prob := m.Classifier.Probability(x)

	var estimate *int
	if m.Regressor != nil {
		days := max(int(m.Regressor.Predict(x)), 0)
		estimate = &days
	}

	analysis := p.scorer.Analyze(g.Title, g.Description)
	pred.CompletionProbability = math.Round(prob*1000) / 1000
	pred.EstimatedDaysToComplete = estimate
	pred.ConfidenceLevel = ConfidenceLevel(prob)
	pred.Recommendations = advise(&v, analysis, prob, estimate)
	pred.RiskFactors = riskFactors(&v, analysis)
	return pred
}

// ConfidenceLevel buckets a probability by its distance from 0.5.
func ConfidenceLevel(p float64) string {
	switch {
	case p > 0.8 || p < 0.2:
		return "high"
	case p > 0.6 || p < 0.4:
		return "medium"
	default:
		return "low"
	}
}
