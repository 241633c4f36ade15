package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// IsSymmetric returns true if m is square and m(i,j) and m(j,i) differ by at most tol.
// It panics if m is nil.
func IsSymmetric(m mat.Matrix, tol float64) bool {
	rows, cols := m.Dims()
	if rows != cols {
		return false
	}

	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
				return false
			}
		}
	}

	return true
}

// Symmetrize returns the symmetric part of m i.e. (m + m')/2.
// It returns error if m is not square.
func Symmetrize(m mat.Matrix) (*mat.SymDense, error) {
	rows, cols := m.Dims()
	if rows != cols {
		return nil, fmt.Errorf("invalid matrix dimensions: [%d x %d]", rows, cols)
	}

	sym := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < cols; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return sym, nil
}

// IsFinite returns true if none of the elements of m is NaN or Inf.
func IsFinite(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// MinEigen returns the smallest eigenvalue of m.
// It returns error if the eigen decomposition of m fails.
func MinEigen(m mat.Symmetric) (float64, error) {
	if m.SymmetricDim() == 0 {
		return 0, fmt.Errorf("empty matrix")
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(m, false); !ok {
		return 0, fmt.Errorf("eigen decomposition failed")
	}

	// EigenSym returns eigenvalues in ascending order
	return eig.Values(nil)[0], nil
}

// IsPSD returns true if m is positive semi-definite: all its eigenvalues
// are greater than or equal to -tol. Matrices with NaN or Inf elements are never PSD.
func IsPSD(m mat.Symmetric, tol float64) bool {
	if !IsFinite(m) {
		return false
	}

	minEig, err := MinEigen(m)
	if err != nil {
		return false
	}

	return minEig >= -tol
}
