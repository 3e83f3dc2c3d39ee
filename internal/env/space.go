package env

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Box describes a bounded continuous space: a rows×cols layout with
// per-element lower and upper bounds. The bound vectors are stored in
// row-major order matching the flattened layout.
type Box struct {
	rows, cols int
	low, high  *mat.VecDense
}

// NewBox builds a Box from explicit per-element bounds. Both bound slices
// must have rows*cols elements.
func NewBox(rows, cols int, low, high []float64) (Box, error) {
	if len(low) != rows*cols {
		return Box{}, fmt.Errorf("lower bound length %d does not match shape %dx%d", len(low), rows, cols)
	}
	if len(high) != rows*cols {
		return Box{}, fmt.Errorf("upper bound length %d does not match shape %dx%d", len(high), rows, cols)
	}
	for i := range low {
		if low[i] > high[i] {
			return Box{}, fmt.Errorf("lower bound %f above upper bound %f at index %d", low[i], high[i], i)
		}
	}
	return Box{
		rows: rows,
		cols: cols,
		low:  mat.NewVecDense(rows*cols, low),
		high: mat.NewVecDense(rows*cols, high),
	}, nil
}

// UniformBox builds a Box whose elements all share the same scalar bounds.
func UniformBox(rows, cols int, low, high float64) Box {
	n := rows * cols
	lo := make([]float64, n)
	hi := make([]float64, n)
	for i := 0; i < n; i++ {
		lo[i] = low
		hi[i] = high
	}
	b, err := NewBox(rows, cols, lo, hi)
	if err != nil {
		panic(err) // unreachable for scalar low <= high
	}
	return b
}

// Dims returns the row and column counts of the space.
func (b Box) Dims() (rows, cols int) {
	return b.rows, b.cols
}

// LowerBound returns the flattened per-element lower bounds.
func (b Box) LowerBound() mat.Vector { return b.low }

// UpperBound returns the flattened per-element upper bounds.
func (b Box) UpperBound() mat.Vector { return b.high }

// Contains reports whether every element of m lies within the bounds. The
// matrix dimensions must match the space shape.
func (b Box) Contains(m mat.Matrix) bool {
	r, c := m.Dims()
	if r != b.rows || c != b.cols {
		return false
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			idx := i*c + j
			if v < b.low.AtVec(idx) || v > b.high.AtVec(idx) {
				return false
			}
		}
	}
	return true
}
