package tree

import (
	"testing"

	"github.com/shardboost/gbtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTreeAllLeaves(t *testing.T) {
	tr := New(7, 2)
	for n := 0; n < 7; n++ {
		assert.True(t, tr.IsLeaf(n))
		assert.Equal(t, []float64{0, 0}, tr.LeafValue[n])
	}
}

func TestSetRoot(t *testing.T) {
	tr := New(1, 1)
	tr.SetRoot([]gbtree.GPair{{G: -4, H: 8}}, 0)
	assert.Equal(t, -4.0, tr.Gradient[0][0])
	assert.Equal(t, 8.0, tr.Hessian[0][0])
	assert.InDelta(t, 0.5, tr.LeafValue[0][0], 1e-9)
	assert.True(t, tr.IsLeaf(0))
}

func TestAddSplit(t *testing.T) {
	tr := New(3, 1)
	tr.SetRoot([]gbtree.GPair{{G: 0, H: 4}}, 0)

	left := []gbtree.GPair{{G: -2, H: 2}}
	right := []gbtree.GPair{{G: 2, H: 2}}
	tr.AddSplit(0, 0, 0.5, 2.0, left, right, 0)

	require.False(t, tr.IsLeaf(0))
	assert.Equal(t, int32(0), tr.Feature[0])
	assert.Equal(t, 0.5, tr.SplitValue[0])
	assert.Equal(t, 2.0, tr.Gain[0])

	assert.True(t, tr.IsLeaf(1))
	assert.True(t, tr.IsLeaf(2))
	assert.InDelta(t, 1.0, tr.LeafValue[1][0], 1e-9)
	assert.InDelta(t, -1.0, tr.LeafValue[2][0], 1e-9)
}

func TestAddSplitPanicsOnAlreadySplit(t *testing.T) {
	tr := New(3, 1)
	tr.AddSplit(0, 0, 0, 1, []gbtree.GPair{{G: 1, H: 1}}, []gbtree.GPair{{G: 1, H: 1}}, 0)
	assert.Panics(t, func() {
		tr.AddSplit(0, 0, 0, 1, []gbtree.GPair{{G: 1, H: 1}}, []gbtree.GPair{{G: 1, H: 1}}, 0)
	})
}

func TestCalculateLeafValueGuardsEpsilon(t *testing.T) {
	v := CalculateLeafValue(1, 0, 0)
	assert.InDelta(t, -1/Epsilon, v, 1e-3)
}
