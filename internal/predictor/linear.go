package predictor

import (
	"context"
	"fmt"

	"vehicle-pricing/internal/encoder"
)

// LinearModel predicts intercept + coefficients·v, then applies the target transform.
type LinearModel struct {
	intercept    float64
	coefficients encoder.FeatureVector
	transform    transformFunc
}

func NewLinearModel(intercept float64, coefficients []float64, transform transformFunc) (*LinearModel, error) {
	if len(coefficients) != encoder.NumFeatures {
		return nil, fmt.Errorf("linear model has %d coefficients, want %d", len(coefficients), encoder.NumFeatures)
	}
	if transform == nil {
		transform = func(x float64) float64 { return x }
	}

	m := &LinearModel{intercept: intercept, transform: transform}
	copy(m.coefficients[:], coefficients)
	return m, nil
}

func (m *LinearModel) Predict(_ context.Context, v encoder.FeatureVector) (float64, error) {
	sum := m.intercept
	for i, c := range m.coefficients {
		sum += c * v[i]
	}
	return m.transform(sum), nil
}
