// Package tree implements the mutable, dense-array regression tree
// spec.md §3/§4.3 describes: nodes are indexed by the standard implicit
// binary-heap scheme, a node is a leaf iff its Feature entry is -1, and
// every array is allocated once at the tree's declared capacity.
package tree

import "github.com/shardboost/gbtree"

// Epsilon guards the leaf-value and gain denominators against division
// by zero (spec.md §4.4.5).
const Epsilon = 1e-12

// Tree is grown level by level by builder.TreeBuilder. Gradient is
// training-only bookkeeping and is never part of the emitted outputs.
type Tree struct {
	MaxNodes   int
	NumOutputs int

	// Feature holds the split feature per node, -1 for leaves.
	Feature []int32

	// SplitValue holds the split threshold per node, valid only when
	// Feature[node] != -1.
	SplitValue []float64

	// Gain holds the split gain per node, 0 for leaves.
	Gain []float64

	// LeafValue[node][output] is the prediction a row lands on if it
	// ends traversal at node.
	LeafValue [][]float64

	// Gradient[node][output] and Hessian[node][output] are the training
	// statistics accumulated for node; Gradient is not emitted.
	Gradient [][]float64
	Hessian  [][]float64
}

// New allocates a zero-initialized Tree with the given node capacity
// and output width. Every node starts as a leaf with zeroed statistics.
func New(maxNodes, numOutputs int) *Tree {
	t := &Tree{
		MaxNodes:   maxNodes,
		NumOutputs: numOutputs,
		Feature:    make([]int32, maxNodes),
		SplitValue: make([]float64, maxNodes),
		Gain:       make([]float64, maxNodes),
		LeafValue:  make([][]float64, maxNodes),
		Gradient:   make([][]float64, maxNodes),
		Hessian:    make([][]float64, maxNodes),
	}
	for n := 0; n < maxNodes; n++ {
		t.Feature[n] = -1
		t.LeafValue[n] = make([]float64, numOutputs)
		t.Gradient[n] = make([]float64, numOutputs)
		t.Hessian[n] = make([]float64, numOutputs)
	}
	return t
}

// IsLeaf reports whether node currently has no split assigned.
func (t *Tree) IsLeaf(node int) bool {
	return t.Feature[node] == -1
}

// SetRoot records the root's aggregate statistics and leaf value before
// any split has been decided (spec.md §4.4.1).
func (t *Tree) SetRoot(sums []gbtree.GPair, alpha float64) {
	for o, s := range sums {
		t.Gradient[0][o] = s.G
		t.Hessian[0][o] = s.H
		t.LeafValue[0][o] = CalculateLeafValue(s.G, s.H, alpha)
	}
}

// AddSplit turns node into an internal node splitting on (feature,
// threshold), and initializes its two children's statistics and leaf
// values from the per-output left/right GPair sums. The children remain
// leaves (Feature == -1) until split themselves at a later depth
// (spec.md §4.3).
func (t *Tree) AddSplit(node int, feature int32, threshold, gain float64, left, right []gbtree.GPair, alpha float64) {
	if !t.IsLeaf(node) {
		panic("tree: node already split")
	}
	t.Feature[node] = feature
	t.SplitValue[node] = threshold
	t.Gain[node] = gain

	leftNode, rightNode := gbtree.LeftChild(node), gbtree.RightChild(node)
	for o := range left {
		t.Gradient[leftNode][o] = left[o].G
		t.Hessian[leftNode][o] = left[o].H
		t.LeafValue[leftNode][o] = CalculateLeafValue(left[o].G, left[o].H, alpha)

		t.Gradient[rightNode][o] = right[o].G
		t.Hessian[rightNode][o] = right[o].H
		t.LeafValue[rightNode][o] = CalculateLeafValue(right[o].G, right[o].H, alpha)
	}
}

// CalculateLeafValue computes the L2-regularized optimal leaf value
// -G / (H + max(epsilon, alpha)) (spec.md §4.4.5).
func CalculateLeafValue(g, h, alpha float64) float64 {
	return -g / (h + regularizer(alpha))
}

func regularizer(alpha float64) float64 {
	if alpha < Epsilon {
		return Epsilon
	}
	return alpha
}
