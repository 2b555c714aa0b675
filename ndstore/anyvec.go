package ndstore

import (
	"fmt"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/anyvec/anyvec64"
)

// FeatureMatrix wraps a shard's X slab in an anyvec.Vector, the way
// treeagent represents observation batches. It is the single runtime
// value BuildTreeTask dispatches on to pick between the float32 and
// float64 specializations of the builder (spec.md §9: "an explicit
// dispatch on a runtime type code to a generic build_tree_fn<T>").
type FeatureMatrix struct {
	Vector anyvec.Vector
	Rows   int
	Cols   int
}

// NewFeatureMatrix wraps rows*cols row-major float64 values using the
// given creator. Pass anyvec32.DefaultCreator{} for a float32 shard or
// anyvec64.DefaultCreator{} for a float64 shard.
func NewFeatureMatrix(c anyvec.Creator, rows, cols int, data []float64) (FeatureMatrix, error) {
	if len(data) != rows*cols {
		return FeatureMatrix{}, fmt.Errorf("ndstore: feature data has %d elements, want %d (%d x %d)",
			len(data), rows*cols, rows, cols)
	}
	vec := c.MakeVectorData(c.MakeNumericList(data))
	return FeatureMatrix{Vector: vec, Rows: rows, Cols: cols}, nil
}

// NewFeatureMatrix32 is a convenience wrapper for float32 shards.
func NewFeatureMatrix32(rows, cols int, data []float64) (FeatureMatrix, error) {
	return NewFeatureMatrix(anyvec32.DefaultCreator{}, rows, cols, data)
}

// NewFeatureMatrix64 is a convenience wrapper for float64 shards.
func NewFeatureMatrix64(rows, cols int, data []float64) (FeatureMatrix, error) {
	return NewFeatureMatrix(anyvec64.DefaultCreator{}, rows, cols, data)
}

// WithFloat32 calls f with the matrix's backing []float32 if that is
// its native representation, reporting ok=false otherwise.
func (m FeatureMatrix) WithFloat32(f func(data []float32, rows, cols int)) (ok bool) {
	data, ok := m.Vector.Data().([]float32)
	if !ok {
		return false
	}
	f(data, m.Rows, m.Cols)
	return true
}

// WithFloat64 calls f with the matrix's backing []float64 if that is
// its native representation, reporting ok=false otherwise.
func (m FeatureMatrix) WithFloat64(f func(data []float64, rows, cols int)) (ok bool) {
	data, ok := m.Vector.Data().([]float64)
	if !ok {
		return false
	}
	f(data, m.Rows, m.Cols)
	return true
}

// ElementType reports the matrix's native numeric type, "float32" or
// "float64".
func (m FeatureMatrix) ElementType() string {
	switch m.Vector.Data().(type) {
	case []float32:
		return "float32"
	case []float64:
		return "float64"
	default:
		panic(fmt.Sprintf("ndstore: unsupported feature element type %T", m.Vector.Data()))
	}
}
