package splitproposals

import (
	"context"
	"math/rand"
	"sort"

	"github.com/shardboost/gbtree"
	"github.com/shardboost/gbtree/reduce"
)

// Selector draws a reproducible random sample of global row indices,
// exchanges each sampled row's feature values across shards via an
// all-reduce, and emits the resulting SparseSplitProposals (spec.md
// §4.2).
type Selector struct {
	// SplitSamples is the number of rows to sample globally.
	SplitSamples int

	// Seed seeds the deterministic generator. Every shard must use the
	// same Seed so all shards draw the identical row-index sequence.
	Seed int64
}

// Select runs the sampling protocol for one shard holding the row slab
// [rowLo, rowHi) of a dataset with DatasetRows rows total. xSlab is this
// shard's dense row-major feature slab, rowHi-rowLo rows by numFeatures
// columns.
//
// The draft buffer is reduced as float64 regardless of T: each sampled
// row is present in exactly one shard's slab (every other shard
// contributes zeros for that column), so summing honest float64 values
// is equivalent to concatenation and never relies on reinterpreting raw
// T bytes as doubles (see spec.md §9's open question about the source
// implementation's float32 aliasing).
func Select[T gbtree.Numeric](sel *Selector, ctx context.Context, xSlab []T,
	rowLo, rowHi, numFeatures int, datasetRows int64, reducer reduce.Reducer) (*SparseSplitProposals[T], error) {

	rowIdx := sel.sampleRowIndices(datasetRows)

	draft := make([]float64, numFeatures*sel.SplitSamples)
	for i, row := range rowIdx {
		if row < int64(rowLo) || row >= int64(rowHi) {
			continue
		}
		local := int(row) - rowLo
		for f := 0; f < numFeatures; f++ {
			draft[f*sel.SplitSamples+i] = float64(xSlab[local*numFeatures+f])
		}
	}

	if err := reducer.SumAllReduce(ctx, draft); err != nil {
		return nil, err
	}

	columns := make([][]T, numFeatures)
	for f := 0; f < numFeatures; f++ {
		columns[f] = sortUnique[T](draft[f*sel.SplitSamples : (f+1)*sel.SplitSamples])
	}
	return FromSortedColumns(columns), nil
}

// sampleRowIndices draws SplitSamples row indices in [0, datasetRows)
// using a generator seeded identically on every shard, so that all
// shards produce the same sequence.
func (sel *Selector) sampleRowIndices(datasetRows int64) []int64 {
	rng := rand.New(rand.NewSource(sel.Seed))
	idx := make([]int64, sel.SplitSamples)
	for i := range idx {
		idx[i] = rng.Int63n(datasetRows)
	}
	return idx
}

// sortUnique converts a column of float64 draft values to T, sorted and
// deduplicated. Duplicate thresholds are dropped: a repeated value marks
// no additional decision boundary and would waste a histogram bin.
func sortUnique[T gbtree.Numeric](values []float64) []T {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	result := make([]T, 0, len(sorted))
	for i, v := range sorted {
		tv := T(v)
		if i == 0 || tv != result[len(result)-1] {
			result = append(result, tv)
		}
	}
	return result
}
