package predictor

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"
)

// MinTrainingGoals is the smallest goal set a model can be trained on.
const MinTrainingGoals = 10

const (
	testFraction = 0.2
	splitSeed    = 42
)

// ErrInsufficientData is returned when too few goals are available to train.
type ErrInsufficientData struct {
	Required int
	Actual   int
}

func (e *ErrInsufficientData) Error() string {
	return fmt.Sprintf("need at least %d goals to train models, got %d", e.Required, e.Actual)
}

// Models is an immutable set of fitted artifacts. A nil Classifier means no
// completion model is available.
type Models struct {
	Scaler     *Scaler
	Classifier *Classifier
	Regressor  *Regressor
	TrainedAt  time.Time
}

// Trained reports whether completion probabilities can be computed.
func (m *Models) Trained() bool {
	return m != nil && m.Classifier != nil && m.Scaler != nil
}

// FeatureImportance is one entry of the importance ranking.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TrainingReport summarizes a training run.
type TrainingReport struct {
	CompletionModelTrained bool                `json:"completion_model_trained"`
	TimeModelTrained       bool                `json:"time_model_trained"`
	TrainingSamples        int                 `json:"training_samples"`
	TrainAccuracy          *float64            `json:"train_accuracy,omitempty"`
	TestAccuracy           *float64            `json:"test_accuracy,omitempty"`
	TimeModelR2            *float64            `json:"time_model_r2,omitempty"`
	FeatureImportance      []FeatureImportance `json:"feature_importance"`
}

// Fit trains the completion classifier and the completion-time regressor.
//
// The classifier needs both outcomes in the data; the regressor needs at least
// MinTrainingGoals finished goals with a known duration. Either may be absent
// from the result without an error.
func Fit(vectors []Vector, trainedAt time.Time) (*Models, TrainingReport, error) {
	report := TrainingReport{TrainingSamples: len(vectors), FeatureImportance: []FeatureImportance{}}
	if len(vectors) < MinTrainingGoals {
		return nil, report, &ErrInsufficientData{Required: MinTrainingGoals, Actual: len(vectors)}
	}

	rows := make([][]float64, len(vectors))
	labels := make([]bool, len(vectors))
	for i := range vectors {
		rows[i] = vectors[i].Features[:]
		labels[i] = vectors[i].Completed
	}

	models := &Models{TrainedAt: trainedAt}

	if hasBothClasses(labels) {
		trainIdx, testIdx := stratifiedSplit(labels, testFraction, splitSeed)
		trainRows, trainLabels := pick(rows, labels, trainIdx)
		testRows, testLabels := pick(rows, labels, testIdx)

		scaler, err := FitScaler(trainRows)
		if err != nil {
			return nil, report, err
		}
		scaledTrain := scaler.TransformAll(trainRows)
		clf, err := FitClassifier(scaledTrain, trainLabels)
		if err != nil {
			return nil, report, err
		}
		models.Scaler = scaler
		models.Classifier = clf

		trainAcc := accuracy(clf, scaledTrain, trainLabels)
		testAcc := accuracy(clf, scaler.TransformAll(testRows), testLabels)
		report.CompletionModelTrained = true
		report.TrainAccuracy = &trainAcc
		report.TestAccuracy = &testAcc
		report.FeatureImportance = rankImportance(clf)
	} else {
		scaler, err := FitScaler(rows)
		if err != nil {
			return nil, report, err
		}
		models.Scaler = scaler
	}

	var timeRows [][]float64
	var targets []float64
	for i := range vectors {
		if vectors[i].Completed && vectors[i].CompletionDays != nil {
			timeRows = append(timeRows, models.Scaler.Transform(rows[i]))
			targets = append(targets, *vectors[i].CompletionDays)
		}
	}
	if len(timeRows) >= MinTrainingGoals {
		reg, err := FitRegressor(timeRows, targets)
		if err != nil {
			return nil, report, err
		}
		models.Regressor = reg
		r2 := reg.RSquared(timeRows, targets)
		report.TimeModelTrained = true
		report.TimeModelR2 = &r2
	}

	return models, report, nil
}

func hasBothClasses(labels []bool) bool {
	return slices.Contains(labels, true) && slices.Contains(labels, false)
}

// stratifiedSplit shuffles each class with a fixed seed and holds out
// testFraction of it, keeping at least one training row per class.
func stratifiedSplit(labels []bool, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	for _, class := range []bool{false, true} {
		var idx []int
		for i, l := range labels {
			if l == class {
				idx = append(idx, i)
			}
		}
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTest := int(math.Round(testFraction * float64(len(idx))))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	slices.Sort(train)
	slices.Sort(test)
	return train, test
}

func pick(rows [][]float64, labels []bool, idx []int) ([][]float64, []bool) {
	r := make([][]float64, len(idx))
	l := make([]bool, len(idx))
	for i, j := range idx {
		r[i] = rows[j]
		l[i] = labels[j]
	}
	return r, l
}

func rankImportance(c *Classifier) []FeatureImportance {
	imp := c.Importance()
	out := make([]FeatureImportance, len(imp))
	for i, v := range imp {
		out[i] = FeatureImportance{Feature: FeatureNames[i], Importance: v}
	}
	slices.SortStableFunc(out, func(a, b FeatureImportance) int {
		switch {
		case a.Importance > b.Importance:
			return -1
		case a.Importance < b.Importance:
			return 1
		}
		return 0
	})
	return out
}
