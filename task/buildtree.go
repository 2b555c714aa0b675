// Package task implements BuildTreeTask, the outer driver spec.md §4.5
// describes: it validates a shard's inputs, dispatches on the feature
// matrix's runtime element type, runs the level loop, and returns the
// finished tree's output arrays.
package task

import (
	"context"
	"fmt"

	"github.com/shardboost/gbtree"
	"github.com/shardboost/gbtree/builder"
	"github.com/shardboost/gbtree/ndstore"
	"github.com/shardboost/gbtree/reduce"
	"github.com/shardboost/gbtree/splitproposals"
	"github.com/shardboost/gbtree/tree"
	"github.com/unixpickle/essentials"
)

// Params bundles the task scalars of spec.md §6.
type Params struct {
	MaxDepth     int
	MaxNodes     int
	Alpha        float64
	SplitSamples int
	Seed         int64
	DatasetRows  int64
}

// Validate checks the preconditions spec.md §7 classifies as caller
// bugs: MaxNodes must match the capacity implied by MaxDepth, and the
// sampling/dataset scalars must be usable.
func (p Params) Validate() error {
	want := gbtree.MaxNodesForDepth(p.MaxDepth)
	if p.MaxNodes != want {
		return fmt.Errorf("max_nodes %d does not match 2^(max_depth+1)-1 = %d", p.MaxNodes, want)
	}
	if p.SplitSamples <= 0 {
		return fmt.Errorf("split_samples must be positive, got %d", p.SplitSamples)
	}
	if p.DatasetRows <= 0 {
		return fmt.Errorf("dataset_rows must be positive, got %d", p.DatasetRows)
	}
	return nil
}

// ShardInput is one shard's contribution to a build: its row range
// within the global dataset, its feature matrix (float32 or float64),
// and its row-major (rows, num_outputs) gradient/hessian slabs.
type ShardInput struct {
	RowLo, RowHi int
	X            ndstore.FeatureMatrix
	G, H         []float64
	NumOutputs   int
}

// Outputs holds the five positional outputs of spec.md §6. They are
// broadcast-identical across every shard that participated in the Run
// call that produced them.
type Outputs struct {
	LeafValue  [][]float64
	Feature    []int32
	SplitValue []float64
	Gain       []float64
	Hessian    [][]float64
}

// BuildTreeTask is the outer driver for one shard's participation in
// growing a single tree.
type BuildTreeTask struct {
	Params Params
}

// Run validates in, dispatches to the float32 or float64 specialization
// of the builder, and executes the full level loop, synchronizing with
// every other shard sharing reducer at each all-reduce point. On any
// precondition violation or reduction failure it returns (nil, err) and
// produces no partial output, per spec.md §7.
func (task *BuildTreeTask) Run(ctx context.Context, in ShardInput, reducer reduce.Reducer) (*Outputs, error) {
	if err := task.Params.Validate(); err != nil {
		return nil, essentials.AddCtx("gbtree: invalid task parameters", err)
	}
	if err := validateShard(in); err != nil {
		return nil, essentials.AddCtx("gbtree: invalid shard input", err)
	}

	var (
		tr  *tree.Tree
		err error
	)
	switch {
	case in.X.WithFloat64(func(data []float64, rows, cols int) {
		tr, err = buildTreeTyped(ctx, task.Params, data, rows, cols, in.RowLo, in.RowHi, in.G, in.H, in.NumOutputs, reducer)
	}):
	case in.X.WithFloat32(func(data []float32, rows, cols int) {
		tr, err = buildTreeTyped(ctx, task.Params, data, rows, cols, in.RowLo, in.RowHi, in.G, in.H, in.NumOutputs, reducer)
	}):
	default:
		return nil, essentials.AddCtx("gbtree: invalid shard input",
			fmt.Errorf("unsupported feature element type %T", in.X.Vector.Data()))
	}
	if err != nil {
		return nil, err
	}

	return &Outputs{
		LeafValue:  tr.LeafValue,
		Feature:    tr.Feature,
		SplitValue: tr.SplitValue,
		Gain:       tr.Gain,
		Hessian:    tr.Hessian,
	}, nil
}

// validateShard is the Go-native equivalent of spec.md §6/§7's
// EXPECT_DENSE_ROW_MAJOR / EXPECT_AXIS_ALIGNED / g_shape.lo[2]==0
// precondition checks: g and h must be row-aligned with X and with each
// other on the output axis.
func validateShard(in ShardInput) error {
	rows := in.RowHi - in.RowLo
	if rows < 0 {
		return fmt.Errorf("row range invalid: lo=%d hi=%d", in.RowLo, in.RowHi)
	}
	if in.X.Rows != rows {
		return fmt.Errorf("X has %d rows, want %d from the declared row range", in.X.Rows, rows)
	}
	if in.NumOutputs <= 0 {
		return fmt.Errorf("num_outputs must be positive, got %d", in.NumOutputs)
	}
	want := rows * in.NumOutputs
	if len(in.G) != want {
		return fmt.Errorf("g has %d elements, want %d (%d rows x %d outputs)", len(in.G), want, rows, in.NumOutputs)
	}
	if len(in.H) != want {
		return fmt.Errorf("h has %d elements, want %d (%d rows x %d outputs)", len(in.H), want, rows, in.NumOutputs)
	}
	return nil
}

// buildTreeTyped is the generic build_tree_fn<T> spec.md §9 calls for:
// the outer task is monomorphized over T by an explicit runtime-type
// dispatch (Run, above) rather than by duck typing. The returned Tree
// is always double precision regardless of T.
func buildTreeTyped[T gbtree.Numeric](ctx context.Context, params Params, x []T, rows, cols int,
	rowLo, rowHi int, g, h []float64, numOutputs int, reducer reduce.Reducer) (*tree.Tree, error) {

	selector := &splitproposals.Selector{SplitSamples: params.SplitSamples, Seed: params.Seed}
	proposals, err := splitproposals.Select[T](selector, ctx, x, rowLo, rowHi, cols, params.DatasetRows, reducer)
	if err != nil {
		return nil, essentials.AddCtx("gbtree: sample split proposals", err)
	}

	tr := tree.New(params.MaxNodes, numOutputs)
	b := builder.New[T](rows, cols, numOutputs, params.MaxNodes, proposals)

	if err := b.InitialiseRoot(ctx, g, h, params.Alpha, tr, reducer); err != nil {
		return nil, essentials.AddCtx("gbtree: initialise root", err)
	}
	for depth := 0; depth < params.MaxDepth; depth++ {
		b.UpdatePositions(depth, x, tr)
		if err := b.ComputeHistogram(ctx, depth, x, g, h, tr, reducer); err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("gbtree: compute histogram at depth %d", depth), err)
		}
		b.PerformBestSplit(depth, params.Alpha, tr)
	}
	return tr, nil
}
