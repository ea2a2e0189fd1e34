package predictor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"vehicle-pricing/internal/encoder"
)

// compiledNode is a flattened tree node. Child fields index into the tree's slice.
type compiledNode struct {
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
	leaf      float64
	isLeaf    bool
}

// TreeEnsemble is a gradient boosted tree model: the prediction is the base score
// plus one leaf per tree, then the target transform.
type TreeEnsemble struct {
	trees     [][]compiledNode
	baseScore float64
	transform transformFunc
}

// NewTreeEnsemble compiles XGBoost dump trees. Splits may name a feature
// ("car_age") or use the positional form ("f2").
func NewTreeEnsemble(trees []TreeNode, baseScore float64, transform transformFunc) (*TreeEnsemble, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("tree ensemble has no trees")
	}
	if transform == nil {
		transform = func(x float64) float64 { return x }
	}

	te := &TreeEnsemble{
		trees:     make([][]compiledNode, 0, len(trees)),
		baseScore: baseScore,
		transform: transform,
	}
	for i, root := range trees {
		compiled, err := compileTree(root)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		te.trees = append(te.trees, compiled)
	}
	return te, nil
}

func (te *TreeEnsemble) Predict(_ context.Context, v encoder.FeatureVector) (float64, error) {
	sum := te.baseScore
	for _, tree := range te.trees {
		sum += walk(tree, v)
	}
	return te.transform(sum), nil
}

// walk follows XGBoost semantics: x < threshold goes to yes, NaN goes to missing.
func walk(tree []compiledNode, v encoder.FeatureVector) float64 {
	n := tree[0]
	for !n.isLeaf {
		x := v[n.feature]
		switch {
		case math.IsNaN(x):
			n = tree[n.missing]
		case x < n.threshold:
			n = tree[n.yes]
		default:
			n = tree[n.no]
		}
	}
	return n.leaf
}

func compileTree(root TreeNode) ([]compiledNode, error) {
	byID := make(map[int]TreeNode)
	if err := collect(root, byID); err != nil {
		return nil, err
	}

	// slot 0 is the root; the rest follow in discovery order
	index := map[int]int{root.NodeID: 0}
	order := []int{root.NodeID}
	for i := 0; i < len(order); i++ {
		n := byID[order[i]]
		if n.Leaf != nil {
			continue
		}
		for _, id := range []int{n.Yes, n.No, n.Missing} {
			if _, ok := byID[id]; !ok {
				return nil, fmt.Errorf("node %d references missing node %d", n.NodeID, id)
			}
			if _, seen := index[id]; !seen {
				index[id] = len(order)
				order = append(order, id)
			}
		}
	}

	compiled := make([]compiledNode, len(order))
	for i, id := range order {
		n := byID[id]
		if n.Leaf != nil {
			compiled[i] = compiledNode{leaf: *n.Leaf, isLeaf: true}
			continue
		}
		feature, err := featureIndex(n.Split)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.NodeID, err)
		}
		compiled[i] = compiledNode{
			feature:   feature,
			threshold: n.SplitCondition,
			yes:       index[n.Yes],
			no:        index[n.No],
			missing:   index[n.Missing],
		}
	}
	return compiled, nil
}

func collect(n TreeNode, byID map[int]TreeNode) error {
	if _, dup := byID[n.NodeID]; dup {
		return fmt.Errorf("duplicate node id %d", n.NodeID)
	}
	if n.Leaf == nil && len(n.Children) == 0 {
		return fmt.Errorf("node %d has neither a leaf value nor children", n.NodeID)
	}
	byID[n.NodeID] = n
	for _, c := range n.Children {
		if err := collect(c, byID); err != nil {
			return err
		}
	}
	return nil
}

func featureIndex(split string) (int, error) {
	for i, name := range encoder.FeatureNames {
		if name == split {
			return i, nil
		}
	}
	if rest, ok := strings.CutPrefix(split, "f"); ok {
		if i, err := strconv.Atoi(rest); err == nil && i >= 0 && i < encoder.NumFeatures {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}
