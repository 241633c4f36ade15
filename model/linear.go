package model

import (
	"fmt"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/noise"
	"github.com/milosgajdos/go-odom/ut"
	"gonum.org/v1/gonum/mat"
)

// Linear is a linear measurement model: z = H*x
type Linear struct {
	// h is observation matrix
	h *mat.Dense
	// r is measurement noise
	r filter.Noise
	// ops are measurement space operators
	ops filter.Operators
}

// NewLinear creates new linear measurement model with observation matrix h,
// measurement noise r and measurement space operators ops and returns it.
// If r is nil, zero noise is used. If ops is nil, ut.Linear operators are used.
// It returns error if the dimensions of r do not match the rows of h.
func NewLinear(h mat.Matrix, r filter.Noise, ops filter.Operators) (*Linear, error) {
	rows, cols := h.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("invalid observation matrix dimensions: [%d x %d]", rows, cols)
	}

	if r == nil {
		var err error
		if r, err = noise.NewZero(rows); err != nil {
			return nil, err
		}
	}

	if n := r.Cov().SymmetricDim(); n != rows {
		return nil, fmt.Errorf("invalid noise dimension: %d, expected %d", n, rows)
	}

	if ops == nil {
		ops = ut.Linear{}
	}

	return &Linear{
		h:   mat.DenseCopyOf(h),
		r:   r,
		ops: ops,
	}, nil
}

// Dim returns measurement dimension
func (l *Linear) Dim() int {
	rows, _ := l.h.Dims()
	return rows
}

// Observe maps state x into measurement space.
// It returns error if x has invalid dimension.
func (l *Linear) Observe(x mat.Vector) (mat.Vector, error) {
	if _, cols := l.h.Dims(); x.Len() != cols {
		return nil, fmt.Errorf("invalid state vector dimension: %d, expected %d", x.Len(), cols)
	}

	z := mat.NewVecDense(l.Dim(), nil)
	z.MulVec(l.h, x)

	return z, nil
}

// Noise returns measurement noise covariance
func (l *Linear) Noise() mat.Symmetric {
	return l.r.Cov()
}

// Ops returns measurement space operators
func (l *Linear) Ops() filter.Operators {
	return l.ops
}

// ObservationMatrix returns a copy of observation matrix H
func (l *Linear) ObservationMatrix() mat.Matrix {
	return mat.DenseCopyOf(l.h)
}
