// Package builder implements TreeBuilder, the per-level state machine
// that owns row positions, the histogram buffer, and best-split
// selection (spec.md §4.4). It is the largest and most numerically
// sensitive component of the distributed tree builder.
package builder

import (
	"context"

	"github.com/shardboost/gbtree"
	"github.com/shardboost/gbtree/reduce"
	"github.com/shardboost/gbtree/splitproposals"
	"github.com/shardboost/gbtree/tree"
)

// TreeBuilder owns all per-shard, per-call mutable state needed to grow
// one tree: row positions, the histogram buffer, and the split
// proposals every histogram bin maps to.
type TreeBuilder[T gbtree.Numeric] struct {
	NumRows     int
	NumFeatures int
	NumOutputs  int
	MaxNodes    int
	Proposals   *splitproposals.SparseSplitProposals[T]

	// positions[i] is the node index local row i currently occupies, or
	// -1 if the row is no longer active.
	positions []int32

	// histogram is flat [node][bin][output] GPair storage, shape
	// (MaxNodes, HistogramSize, NumOutputs), allocated once and reused
	// across depths; only the current level's slab is ever written.
	histogram []gbtree.GPair
}

// New allocates a TreeBuilder. All local rows start at the root (node
// 0), matching positions' zero value.
func New[T gbtree.Numeric](numRows, numFeatures, numOutputs, maxNodes int,
	proposals *splitproposals.SparseSplitProposals[T]) *TreeBuilder[T] {
	histSize := int(proposals.HistogramSize())
	return &TreeBuilder[T]{
		NumRows:     numRows,
		NumFeatures: numFeatures,
		NumOutputs:  numOutputs,
		MaxNodes:    maxNodes,
		Proposals:   proposals,
		positions:   make([]int32, numRows),
		histogram:   make([]gbtree.GPair, maxNodes*histSize*numOutputs),
	}
}

// Positions returns the current row->node mapping. Exposed for tests;
// callers must not retain it across a call that mutates the builder.
func (b *TreeBuilder[T]) Positions() []int32 {
	return b.positions
}

func (b *TreeBuilder[T]) histSize() int {
	return int(b.Proposals.HistogramSize())
}

// InitialiseRoot sums (g, h) over all local rows per output, reduces the
// sums across shards, and writes the root's statistics and leaf value
// into tr (spec.md §4.4.1). g and h are row-major (NumRows, NumOutputs).
func (b *TreeBuilder[T]) InitialiseRoot(ctx context.Context, g, h []float64, alpha float64,
	tr *tree.Tree, reducer reduce.Reducer) error {
	sums := make([]gbtree.GPair, b.NumOutputs)
	for row := 0; row < b.NumRows; row++ {
		for o := 0; o < b.NumOutputs; o++ {
			sums[o].G += g[row*b.NumOutputs+o]
			sums[o].H += h[row*b.NumOutputs+o]
		}
	}

	flat := gbtree.FlattenGPairs(sums)
	if err := reducer.SumAllReduce(ctx, flat); err != nil {
		return err
	}
	gbtree.UnflattenGPairs(flat, sums)

	tr.SetRoot(sums, alpha)
	return nil
}

// UpdatePositions advances every active local row to its node at the
// given depth, using the splits Tree already decided at depth-1
// (spec.md §4.4.2). It is a no-op at depth 0, where every row starts at
// the root. x is this shard's row-major (NumRows, NumFeatures) slab.
func (b *TreeBuilder[T]) UpdatePositions(depth int, x []T, tr *tree.Tree) {
	if depth == 0 {
		return
	}
	for row := 0; row < b.NumRows; row++ {
		p := b.positions[row]
		if p < 0 || tr.IsLeaf(int(p)) {
			b.positions[row] = -1
			continue
		}
		feature := int(tr.Feature[p])
		val := float64(x[row*b.NumFeatures+feature])
		if val <= tr.SplitValue[p] {
			b.positions[row] = int32(gbtree.LeftChild(int(p)))
		} else {
			b.positions[row] = int32(gbtree.RightChild(int(p)))
		}
	}
}

// ComputeHistogram accumulates gradient statistics into the histogram
// slab for the current level, using the sibling-subtraction policy
// (spec.md §4.4.3): of every pair of siblings, only the one with the
// smaller total hessian is built directly from data; the other is later
// derived in Scan as parent-minus-built-sibling. x, g, h are this
// shard's row-major slabs for X, gradient, and hessian respectively.
func (b *TreeBuilder[T]) ComputeHistogram(ctx context.Context, depth int, x []T, g, h []float64,
	tr *tree.Tree, reducer reduce.Reducer) error {
	built := b.builtChildren(depth, tr)
	histSize := b.histSize()
	numFeatures := b.Proposals.NumFeatures()

	for row := 0; row < b.NumRows; row++ {
		p := b.positions[row]
		if p < 0 || (depth > 0 && !built[p]) {
			continue
		}
		for f := 0; f < numFeatures; f++ {
			val := x[row*b.NumFeatures+f]
			bin := b.Proposals.FindBin(val, f)
			if bin == splitproposals.NotFound {
				continue
			}
			base := (int(p)*histSize + int(bin)) * b.NumOutputs
			for o := 0; o < b.NumOutputs; o++ {
				b.histogram[base+o].AddFrom(gbtree.GPair{
					G: g[row*b.NumOutputs+o],
					H: h[row*b.NumOutputs+o],
				})
			}
		}
	}

	levelBegin := gbtree.LevelBegin(depth)
	levelCount := gbtree.NodesInLevel(depth)
	slab := b.histogram[levelBegin*histSize*b.NumOutputs : (levelBegin+levelCount)*histSize*b.NumOutputs]
	flat := gbtree.FlattenGPairs(slab)
	if err := reducer.SumAllReduce(ctx, flat); err != nil {
		return err
	}
	gbtree.UnflattenGPairs(flat, slab)

	b.scan(depth, tr, built)
	return nil
}

// builtChildren returns, for the current level, the set of node indices
// selected to be built directly from data rather than derived by
// subtraction. At depth 0 the root is always built directly.
func (b *TreeBuilder[T]) builtChildren(depth int, tr *tree.Tree) map[int32]bool {
	built := map[int32]bool{}
	if depth == 0 {
		built[0] = true
		return built
	}

	parentBegin := gbtree.LevelBegin(depth - 1)
	parentCount := gbtree.NodesInLevel(depth - 1)
	for i := 0; i < parentCount; i++ {
		parent := parentBegin + i
		if tr.IsLeaf(parent) {
			continue
		}
		left, right := gbtree.LeftChild(parent), gbtree.RightChild(parent)
		var leftHessian, rightHessian float64
		for o := 0; o < b.NumOutputs; o++ {
			leftHessian += tr.Hessian[left][o]
			rightHessian += tr.Hessian[right][o]
		}
		if leftHessian <= rightHessian {
			built[int32(left)] = true
		} else {
			built[int32(right)] = true
		}
	}
	return built
}

// scan replaces each current-level node's histogram with its per-feature
// left-to-right prefix sum, then derives every sibling-selected node's
// histogram as scanned(parent) - scanned(built sibling) (spec.md
// §4.4.4). Both children end the call in scanned form, ready to act as
// parents for the next depth.
func (b *TreeBuilder[T]) scan(depth int, tr *tree.Tree, built map[int32]bool) {
	levelBegin := gbtree.LevelBegin(depth)
	levelCount := gbtree.NodesInLevel(depth)
	for i := 0; i < levelCount; i++ {
		b.scanNode(levelBegin + i)
	}

	if depth == 0 {
		return
	}

	histSize := b.histSize()
	parentBegin := gbtree.LevelBegin(depth - 1)
	parentCount := gbtree.NodesInLevel(depth - 1)
	for i := 0; i < parentCount; i++ {
		parent := parentBegin + i
		if tr.IsLeaf(parent) {
			continue
		}
		left, right := gbtree.LeftChild(parent), gbtree.RightChild(parent)
		builtChild, siblingChild := left, right
		if !built[int32(left)] {
			builtChild, siblingChild = right, left
		}

		parentBase := parent * histSize * b.NumOutputs
		builtBase := builtChild * histSize * b.NumOutputs
		siblingBase := siblingChild * histSize * b.NumOutputs
		for j := 0; j < histSize*b.NumOutputs; j++ {
			b.histogram[siblingBase+j] = b.histogram[parentBase+j].Sub(b.histogram[builtBase+j])
		}
	}
}

func (b *TreeBuilder[T]) scanNode(node int) {
	histSize := b.histSize()
	base := node * histSize * b.NumOutputs
	numFeatures := b.Proposals.NumFeatures()
	for f := 0; f < numFeatures; f++ {
		begin, end := b.Proposals.FeatureRange(f)
		for o := 0; o < b.NumOutputs; o++ {
			var running gbtree.GPair
			for bin := begin; bin < end; bin++ {
				idx := base + int(bin)*b.NumOutputs + o
				running = running.Add(b.histogram[idx])
				b.histogram[idx] = running
			}
		}
	}
}

// PerformBestSplit scans every (feature, bin) candidate for every node
// at the current level and applies the best split whose gain exceeds
// epsilon and whose children both have positive hessian on output 0
// (spec.md §4.4.5). Nodes with no acceptable split remain leaves.
func (b *TreeBuilder[T]) PerformBestSplit(depth int, alpha float64, tr *tree.Tree) {
	levelBegin := gbtree.LevelBegin(depth)
	levelCount := gbtree.NodesInLevel(depth)
	histSize := b.histSize()
	numFeatures := b.Proposals.NumFeatures()
	reg := alpha
	if reg < tree.Epsilon {
		reg = tree.Epsilon
	}

	for i := 0; i < levelCount; i++ {
		node := levelBegin + i
		nodeBase := node * histSize * b.NumOutputs

		total := make([]gbtree.GPair, b.NumOutputs)
		for o := 0; o < b.NumOutputs; o++ {
			total[o] = gbtree.GPair{G: tr.Gradient[node][o], H: tr.Hessian[node][o]}
		}

		bestGain := 0.0
		bestFeature := -1
		var bestBin int32

		for f := 0; f < numFeatures; f++ {
			begin, end := b.Proposals.FeatureRange(f)
			for bin := begin; bin < end; bin++ {
				var gain float64
				for o := 0; o < b.NumOutputs; o++ {
					left := b.histogram[nodeBase+int(bin)*b.NumOutputs+o]
					right := total[o].Sub(left)
					gain += 0.5 * (left.G*left.G/(left.H+reg) +
						right.G*right.G/(right.H+reg) -
						total[o].G*total[o].G/(total[o].H+reg))
				}
				if gain > bestGain {
					bestGain = gain
					bestFeature = f
					bestBin = bin
				}
			}
		}

		if bestGain <= tree.Epsilon {
			continue
		}

		left := make([]gbtree.GPair, b.NumOutputs)
		right := make([]gbtree.GPair, b.NumOutputs)
		for o := 0; o < b.NumOutputs; o++ {
			left[o] = b.histogram[nodeBase+int(bestBin)*b.NumOutputs+o]
			right[o] = total[o].Sub(left[o])
		}
		if left[0].H <= 0 || right[0].H <= 0 {
			continue
		}

		threshold := float64(b.Proposals.Threshold(bestBin))
		tr.AddSplit(node, int32(bestFeature), threshold, bestGain, left, right, alpha)
	}
}
