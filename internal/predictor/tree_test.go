package predictor

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeEnsemble_Predict(t *testing.T) {
	te, err := NewTreeEnsemble(testTrees(), 0, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		carAge   float64
		mileage  float64
		expected float64
	}{
		{name: "young car", carAge: 3, mileage: 200000, expected: 100},
		{name: "threshold goes to no branch", carAge: 10, mileage: 1000, expected: 50},
		{name: "old low mileage", carAge: 15, mileage: 49999, expected: 50},
		{name: "old high mileage", carAge: 15, mileage: 50000, expected: 10},
		{name: "missing value follows missing branch", carAge: math.NaN(), mileage: 0, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := te.Predict(context.Background(), vectorWith(tt.carAge, tt.mileage))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, price)
		})
	}
}

func TestTreeEnsemble_SumsTreesAndTransforms(t *testing.T) {
	trees := append(testTrees(), TreeNode{NodeID: 0, Leaf: leaf(0.25)})
	transform, err := targetTransform(TransformLog1p)
	require.NoError(t, err)

	te, err := NewTreeEnsemble(trees, 0.5, transform)
	require.NoError(t, err)

	price, err := te.Predict(context.Background(), vectorWith(20, 100000))
	require.NoError(t, err)
	assert.InDelta(t, math.Expm1(10+0.25+0.5), price, 1e-9)
}

func TestTreeEnsemble_CompileErrors(t *testing.T) {
	tests := []struct {
		name string
		tree TreeNode
	}{
		{
			name: "unknown feature",
			tree: TreeNode{
				NodeID: 0, Split: "horsepower", SplitCondition: 1, Yes: 1, No: 2, Missing: 1,
				Children: []TreeNode{{NodeID: 1, Leaf: leaf(1)}, {NodeID: 2, Leaf: leaf(2)}},
			},
		},
		{
			name: "positional feature out of range",
			tree: TreeNode{
				NodeID: 0, Split: "f27", SplitCondition: 1, Yes: 1, No: 2, Missing: 1,
				Children: []TreeNode{{NodeID: 1, Leaf: leaf(1)}, {NodeID: 2, Leaf: leaf(2)}},
			},
		},
		{
			name: "dangling child",
			tree: TreeNode{
				NodeID: 0, Split: "f0", SplitCondition: 1, Yes: 1, No: 5, Missing: 1,
				Children: []TreeNode{{NodeID: 1, Leaf: leaf(1)}, {NodeID: 2, Leaf: leaf(2)}},
			},
		},
		{
			name: "duplicate ids",
			tree: TreeNode{
				NodeID: 0, Split: "f0", SplitCondition: 1, Yes: 1, No: 1, Missing: 1,
				Children: []TreeNode{{NodeID: 1, Leaf: leaf(1)}, {NodeID: 1, Leaf: leaf(2)}},
			},
		},
		{
			name: "split without children",
			tree: TreeNode{NodeID: 0, Split: "f0", SplitCondition: 1, Yes: 1, No: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTreeEnsemble([]TreeNode{tt.tree}, 0, nil)
			assert.Error(t, err)
		})
	}
}

func TestFeatureIndex(t *testing.T) {
	i, err := featureIndex("mileage")
	require.NoError(t, err)
	assert.Equal(t, 6, i)

	i, err = featureIndex("f26")
	require.NoError(t, err)
	assert.Equal(t, 26, i)

	_, err = featureIndex("f-1")
	assert.Error(t, err)
}
