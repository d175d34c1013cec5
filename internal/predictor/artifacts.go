package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sbenjam1n/goaltrack/internal/modelstore"
)

// Artifact names under which models are persisted.
const (
	ArtifactCompletionModel = "completion_model"
	ArtifactScaler          = "scaler"
	ArtifactTimeModel       = "time_model"
)

// Artifacts lists every artifact name.
var Artifacts = []string{ArtifactCompletionModel, ArtifactScaler, ArtifactTimeModel}

// SaveModels replaces the persisted artifacts with those of m. Models left
// over from an earlier fit are removed before the scaler is rewritten, so an
// interrupted save never pairs an old model with a new scaler.
func SaveModels(ctx context.Context, store modelstore.Store, m *Models) error {
	if m == nil || m.Scaler == nil {
		return errors.New("save models: nothing fitted")
	}
	for _, name := range []string{ArtifactCompletionModel, ArtifactTimeModel} {
		if err := store.Delete(ctx, name); err != nil {
			return err
		}
	}
	if err := saveJSON(ctx, store, ArtifactScaler, m.Scaler); err != nil {
		return err
	}
	if m.Classifier != nil {
		if err := saveJSON(ctx, store, ArtifactCompletionModel, m.Classifier); err != nil {
			return err
		}
	}
	if m.Regressor != nil {
		if err := saveJSON(ctx, store, ArtifactTimeModel, m.Regressor); err != nil {
			return err
		}
	}
	return nil
}

// LoadModels reads persisted artifacts. A store with no completion model
// yields an untrained, non-nil Models.
func LoadModels(ctx context.Context, store modelstore.Store) (*Models, error) {
	m := &Models{}

	var clf Classifier
	switch err := loadJSON(ctx, store, ArtifactCompletionModel, &clf); {
	case errors.Is(err, modelstore.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if len(clf.Weights) != NumFeatures {
			return nil, fmt.Errorf("load %s: expected %d weights, got %d", ArtifactCompletionModel, NumFeatures, len(clf.Weights))
		}
		m.Classifier = &clf
	}

	var scaler Scaler
	switch err := loadJSON(ctx, store, ArtifactScaler, &scaler); {
	case errors.Is(err, modelstore.ErrNotFound):
		if m.Classifier != nil {
			return nil, fmt.Errorf("completion model present without scaler: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		if err := scaler.validate(); err != nil {
			return nil, fmt.Errorf("load %s: %w", ArtifactScaler, err)
		}
		m.Scaler = &scaler
	}

	var reg Regressor
	switch err := loadJSON(ctx, store, ArtifactTimeModel, &reg); {
	case errors.Is(err, modelstore.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if len(reg.Weights) != NumFeatures {
			return nil, fmt.Errorf("load %s: expected %d weights, got %d", ArtifactTimeModel, NumFeatures, len(reg.Weights))
		}
		if m.Scaler != nil {
			m.Regressor = &reg
		}
	}

	return m, nil
}

func saveJSON(ctx context.Context, store modelstore.Store, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return store.Save(ctx, name, data)
}

func loadJSON(ctx context.Context, store modelstore.Store, name string, v any) error {
	data, err := store.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
