package predictor

import (
	"encoding/json"
	"fmt"
	"math"

	perrors "vehicle-pricing/internal/common/errors"
	"vehicle-pricing/internal/encoder"
)

const (
	FormatTreeEnsemble = "tree_ensemble"
	FormatLinear       = "linear"
	FormatRemote       = "remote"

	TransformNone  = "none"
	TransformLog1p = "log1p"
)

// Artifact is the serialized model. Trees use the XGBoost JSON dump node layout.
type Artifact struct {
	Format          string     `json:"format"`
	Version         string     `json:"version"`
	FeatureNames    []string   `json:"feature_names"`
	BaseScore       float64    `json:"base_score"`
	Trees           []TreeNode `json:"trees,omitempty"`
	Intercept       float64    `json:"intercept"`
	Coefficients    []float64  `json:"coefficients,omitempty"`
	TargetTransform string     `json:"target_transform"`
}

// TreeNode is one node of an XGBoost dump. Leaf is set on leaves only.
type TreeNode struct {
	NodeID         int        `json:"nodeid"`
	Split          string     `json:"split,omitempty"`
	SplitCondition float64    `json:"split_condition,omitempty"`
	Yes            int        `json:"yes,omitempty"`
	No             int        `json:"no,omitempty"`
	Missing        int        `json:"missing,omitempty"`
	Leaf           *float64   `json:"leaf,omitempty"`
	Children       []TreeNode `json:"children,omitempty"`
}

// ParseArtifact decodes data and checks that the model was trained on the
// encoder's exact column order.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.checkFeatureNames(); err != nil {
		return nil, err
	}
	if a.TargetTransform == "" {
		a.TargetTransform = TransformNone
	}
	return &a, nil
}

func (a *Artifact) checkFeatureNames() error {
	if len(a.FeatureNames) != encoder.NumFeatures {
		return perrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
			"artifact declares %d features, encoder produces %d", len(a.FeatureNames), encoder.NumFeatures))
	}
	for i, name := range a.FeatureNames {
		if name != encoder.FeatureNames[i] {
			return perrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
				"feature %d is %q in the artifact, %q in the encoder", i, name, encoder.FeatureNames[i]))
		}
	}
	return nil
}

// Build compiles the artifact into a Predictor.
func (a *Artifact) Build() (Predictor, error) {
	transform, err := targetTransform(a.TargetTransform)
	if err != nil {
		return nil, err
	}

	switch a.Format {
	case FormatTreeEnsemble:
		return NewTreeEnsemble(a.Trees, a.BaseScore, transform)
	case FormatLinear:
		return NewLinearModel(a.Intercept, a.Coefficients, transform)
	default:
		return nil, fmt.Errorf("unsupported artifact format %q", a.Format)
	}
}

type transformFunc func(float64) float64

func targetTransform(name string) (transformFunc, error) {
	switch name {
	case "", TransformNone:
		return func(x float64) float64 { return x }, nil
	case TransformLog1p:
		// the model was trained on log1p(price)
		return math.Expm1, nil
	default:
		return nil, fmt.Errorf("unsupported target transform %q", name)
	}
}
