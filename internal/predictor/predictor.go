// Package predictor holds the regression models that turn an encoded vehicle
// into a price, plus the loading and caching around them.
package predictor

import (
	"context"

	"vehicle-pricing/internal/encoder"
)

// Predictor maps one feature vector to a price. Implementations are immutable after
// construction and safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, v encoder.FeatureVector) (float64, error)
}

// Info describes the loaded model.
type Info struct {
	Version string `json:"version"`
	Format  string `json:"format"`
	Source  string `json:"source"`
}

// Loaded pairs a predictor with its metadata.
type Loaded struct {
	Predictor Predictor
	Info      Info
}
