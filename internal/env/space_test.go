package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewBoxRejectsBadBounds(t *testing.T) {
	t.Parallel()

	_, err := NewBox(1, 4, []float64{0, 0, 0}, []float64{1, 1, 1, 1})
	assert.Error(t, err, "short lower bound")

	_, err = NewBox(1, 4, []float64{0, 0, 0, 0}, []float64{1, 1, 1})
	assert.Error(t, err, "short upper bound")

	_, err = NewBox(1, 2, []float64{5, 0}, []float64{1, 1})
	assert.Error(t, err, "inverted bounds")
}

func TestUniformBoxContains(t *testing.T) {
	t.Parallel()

	b := UniformBox(2, 3, -1, 1)
	require.Equal(t, 6, b.LowerBound().Len())

	inside := mat.NewDense(2, 3, []float64{0, 0.5, -0.5, 1, -1, 0})
	assert.True(t, b.Contains(inside))

	outside := mat.NewDense(2, 3, []float64{0, 0, 0, 0, 0, 1.5})
	assert.False(t, b.Contains(outside))

	wrongShape := mat.NewDense(3, 2, nil)
	assert.False(t, b.Contains(wrongShape))
}
