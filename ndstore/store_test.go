package ndstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAt(t *testing.T) {
	s, err := New([]float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, 2, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.At(0, 0, 0))
	assert.Equal(t, 4.0, s.At(0, 1, 1))
	assert.Equal(t, 8.0, s.At(1, 1, 1))
	assert.Equal(t, []float64{5, 6, 7, 8}, s.Row(1))
}

func TestNewRejectsWrongSize(t *testing.T) {
	_, err := New([]float64{1, 2, 3}, 2, 2, 1)
	assert.Error(t, err)
}

func TestExpectAxisAligned(t *testing.T) {
	x, _ := New([]float64{0, 0, 0, 0}, 2, 2, 1)
	g, _ := New([]float64{0, 0}, 2, 1, 1)
	h, _ := New([]float64{0}, 1, 1, 1)

	assert.NoError(t, ExpectAxisAligned[float64, float64](x, g))
	assert.Error(t, ExpectAxisAligned[float64, float64](x, h))
}
