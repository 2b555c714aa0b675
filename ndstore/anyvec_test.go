package ndstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureMatrixDispatch64(t *testing.T) {
	m, err := NewFeatureMatrix64(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, "float64", m.ElementType())

	called := false
	ok := m.WithFloat64(func(data []float64, rows, cols int) {
		called = true
		assert.Equal(t, []float64{1, 2, 3, 4}, data)
		assert.Equal(t, 2, rows)
		assert.Equal(t, 2, cols)
	})
	assert.True(t, ok)
	assert.True(t, called)

	assert.False(t, m.WithFloat32(func([]float32, int, int) {
		t.Fatal("should not be called for a float64 matrix")
	}))
}

func TestFeatureMatrixDispatch32(t *testing.T) {
	m, err := NewFeatureMatrix32(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, "float32", m.ElementType())

	ok := m.WithFloat32(func(data []float32, rows, cols int) {
		assert.Equal(t, []float32{1, 2, 3, 4}, data)
	})
	assert.True(t, ok)
}

func TestNewFeatureMatrixRejectsWrongSize(t *testing.T) {
	_, err := NewFeatureMatrix64(2, 2, []float64{1, 2, 3})
	assert.Error(t, err)
}
