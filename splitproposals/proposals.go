// Package splitproposals implements the sparse compressed-row
// representation of candidate split thresholds (spec.md §4.2/§3) and the
// reproducible sampling procedure that produces it.
package splitproposals

import (
	"github.com/shardboost/gbtree"
)

// NotFound is the sentinel FindBin returns when a value exceeds every
// threshold proposed for a feature.
const NotFound int32 = -1

// SparseSplitProposals holds, per feature, the sorted-unique candidate
// split thresholds, stored as one flat array with a prefix-range index.
// Feature f occupies SplitProposals[RowPointers[f]:RowPointers[f+1]].
type SparseSplitProposals[T gbtree.Numeric] struct {
	SplitProposals []T
	RowPointers    []int32
}

// NumFeatures returns the number of features covered by RowPointers.
func (s *SparseSplitProposals[T]) NumFeatures() int {
	return len(s.RowPointers) - 1
}

// HistogramSize returns the total number of bins across all features.
func (s *SparseSplitProposals[T]) HistogramSize() int32 {
	return s.RowPointers[len(s.RowPointers)-1]
}

// FeatureRange returns the half-open bin range [begin, end) owned by
// feature.
func (s *SparseSplitProposals[T]) FeatureRange(feature int) (begin, end int32) {
	return s.RowPointers[feature], s.RowPointers[feature+1]
}

// FindBin returns the smallest bin index b in FeatureRange(feature) such
// that SplitProposals[b] >= x, or NotFound if x exceeds every threshold
// proposed for feature. A row with value x contributes to bin b iff
// x <= SplitProposals[b]; a split of the form x <= SplitProposals[b]
// sends the row left.
func (s *SparseSplitProposals[T]) FindBin(x T, feature int) int32 {
	begin, end := s.FeatureRange(feature)
	lo, hi := begin, end
	for lo < hi {
		mid := lo + (hi-lo)/2
		if s.SplitProposals[mid] >= x {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo == end {
		return NotFound
	}
	return lo
}

// Threshold returns the candidate threshold value at bin.
func (s *SparseSplitProposals[T]) Threshold(bin int32) T {
	return s.SplitProposals[bin]
}

// FromSortedColumns builds a SparseSplitProposals from per-feature
// already-sorted-unique candidate thresholds, e.g. produced by a
// Selector after the all-reduce step. Columns with no proposals are
// valid and simply contribute an empty range.
func FromSortedColumns[T gbtree.Numeric](columns [][]T) *SparseSplitProposals[T] {
	rowPointers := make([]int32, len(columns)+1)
	var total int32
	for i, col := range columns {
		total += int32(len(col))
		rowPointers[i+1] = total
	}
	flat := make([]T, 0, total)
	for _, col := range columns {
		flat = append(flat, col...)
	}
	return &SparseSplitProposals[T]{SplitProposals: flat, RowPointers: rowPointers}
}
