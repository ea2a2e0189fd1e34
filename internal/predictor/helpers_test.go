package predictor

import (
	"context"
	"encoding/json"
	"testing"

	"vehicle-pricing/internal/encoder"

	"github.com/stretchr/testify/require"
)

func leaf(v float64) *float64 { return &v }

// testTrees is one tree over car_age and mileage:
//
//	car_age < 10 ? 100 : (mileage < 50000 ? 50 : 10)
func testTrees() []TreeNode {
	return []TreeNode{{
		NodeID: 0, Split: "car_age", SplitCondition: 10, Yes: 1, No: 2, Missing: 1,
		Children: []TreeNode{
			{NodeID: 1, Leaf: leaf(100)},
			{
				NodeID: 2, Split: "f6", SplitCondition: 50000, Yes: 3, No: 4, Missing: 3,
				Children: []TreeNode{
					{NodeID: 3, Leaf: leaf(50)},
					{NodeID: 4, Leaf: leaf(10)},
				},
			},
		},
	}}
}

func testArtifact(format string) *Artifact {
	a := &Artifact{
		Format:          format,
		Version:         "v-test",
		FeatureNames:    append([]string(nil), encoder.FeatureNames[:]...),
		TargetTransform: TransformNone,
	}
	switch format {
	case FormatTreeEnsemble:
		a.BaseScore = 0.5
		a.Trees = testTrees()
	case FormatLinear:
		a.Intercept = 1000
		a.Coefficients = make([]float64, encoder.NumFeatures)
		a.Coefficients[encoder.IdxCarAge] = -100
		a.Coefficients[encoder.IdxEngineVolume] = 2000
	}
	return a
}

func artifactJSON(t *testing.T, a *Artifact) []byte {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	return data
}

func vectorWith(carAge, mileage float64) encoder.FeatureVector {
	var v encoder.FeatureVector
	v[encoder.IdxCarAge] = carAge
	v[encoder.IdxMileage] = mileage
	return v
}

type stubPredictor struct {
	price float64
	err   error
	calls int
}

func (s *stubPredictor) Predict(_ context.Context, _ encoder.FeatureVector) (float64, error) {
	s.calls++
	return s.price, s.err
}
