// Package ndstore stands in for the partitioned-array runtime's input
// and output stores (spec.md §6): dense, row-major, axis-aligned views
// over a shard's slab of a logically larger array. Launching shards and
// providing the real collective live outside this module (spec.md §1);
// ndstore only carries the geometry, the FeatureMatrix the task driver
// dispatches on, and standalone precondition checks over a Store's
// shape. The task driver validates its shard input with its own checks
// and does not call ExpectDenseRowMajor or ExpectAxisAligned.
package ndstore

import (
	"fmt"

	"github.com/shardboost/gbtree"
)

// Store is a dense, row-major view over one shard's slab of a logically
// (Rows, Cols, Depth) array. Feature matrices use Depth == 1; gradient
// and hessian stores use Depth == num_outputs.
type Store[T gbtree.Numeric] struct {
	Data  []T
	Rows  int
	Cols  int
	Depth int
}

// New builds a Store, validating that data is exactly Rows*Cols*Depth
// long.
func New[T gbtree.Numeric](data []T, rows, cols, depth int) (Store[T], error) {
	s := Store[T]{Data: data, Rows: rows, Cols: cols, Depth: depth}
	if len(data) != rows*cols*depth {
		return Store[T]{}, fmt.Errorf("ndstore: data has %d elements, want %d (%d x %d x %d)",
			len(data), rows*cols*depth, rows, cols, depth)
	}
	return s, nil
}

// At returns the element at (row, col, d).
func (s Store[T]) At(row, col, d int) T {
	return s.Data[(row*s.Cols+col)*s.Depth+d]
}

// Row returns the flat [Cols*Depth] slice for one row, a view into Data.
func (s Store[T]) Row(row int) []T {
	start := row * s.Cols * s.Depth
	return s.Data[start : start+s.Cols*s.Depth]
}

// ExpectDenseRowMajor validates that a Store's Data slice is exactly
// sized for its declared shape, the Go-native equivalent of the
// runtime's EXPECT_DENSE_ROW_MAJOR precondition check. Store's only
// representation is already dense row-major, so this only catches a
// mis-constructed Store.
func ExpectDenseRowMajor[T gbtree.Numeric](s Store[T]) error {
	want := s.Rows * s.Cols * s.Depth
	if len(s.Data) != want {
		return fmt.Errorf("ndstore: not dense row-major: data has %d elements, want %d", len(s.Data), want)
	}
	return nil
}

// ExpectAxisAligned validates that two stores agree on the row count
// (axis 0), the alignment spec.md §4.5 requires between X and g/h on
// the same shard.
func ExpectAxisAligned[T, U gbtree.Numeric](a Store[T], b Store[U]) error {
	if a.Rows != b.Rows {
		return fmt.Errorf("ndstore: axis mismatch: %d rows vs %d rows", a.Rows, b.Rows)
	}
	return nil
}
