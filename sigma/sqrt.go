package sigma

import (
	"math"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/matrix"
	"gonum.org/v1/gonum/mat"
)

// SqrtFunc computes matrix square root U of a symmetric matrix a such that U*U' = a.
// Sigma points are spread along the columns of U.
type SqrtFunc func(a mat.Symmetric) (*mat.Dense, error)

// eigTol is the relative tolerance below which eigenvalues are treated as zero
const eigTol = 1e-12

// Cholesky returns the lower triangular Cholesky factor L of a, a = L*L'.
// It returns NumericalError of kind Singular if a is positive semi-definite but singular
// and of kind NotPSD if a is not positive semi-definite.
func Cholesky(a mat.Symmetric) (*mat.Dense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		if matrix.IsFinite(a) && matrix.IsPSD(a, tolerance(a)) {
			return nil, filter.NewNumericalError("cholesky", filter.Singular, "matrix is singular")
		}
		return nil, filter.NewNumericalError("cholesky", filter.NotPSD, "matrix is not positive definite")
	}

	l := new(mat.TriDense)
	chol.LTo(l)

	return mat.DenseCopyOf(l), nil
}

// SVD returns U*sqrt(S) where a = U*S*V' is the singular value decomposition of a.
// Unlike Cholesky it handles singular positive semi-definite matrices.
// It returns NumericalError if a is not positive semi-definite or if the factorization fails.
func SVD(a mat.Symmetric) (*mat.Dense, error) {
	// singular values hide the sign of eigenvalues so check it first
	if !matrix.IsPSD(a, tolerance(a)) {
		return nil, filter.NewNumericalError("svd sqrt", filter.NotPSD, "matrix has negative eigenvalues")
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, filter.NewNumericalError("svd sqrt", filter.Singular, "SVD factorization failed")
	}

	u := new(mat.Dense)
	svd.UTo(u)
	vals := svd.Values(nil)
	for i := range vals {
		vals[i] = math.Sqrt(vals[i])
	}
	u.Mul(u, mat.NewDiagDense(len(vals), vals))

	return u, nil
}

// Eigen returns V*sqrt(L) where a = V*L*V' is the eigen decomposition of a.
// Eigenvalues within round-off of zero are treated as zero.
// It returns NumericalError if a has a negative eigenvalue or the decomposition fails.
func Eigen(a mat.Symmetric) (*mat.Dense, error) {
	if a.SymmetricDim() == 0 {
		return nil, filter.NewNumericalError("eigen sqrt", filter.InvalidConfig, "empty matrix")
	}

	if !matrix.IsFinite(a) {
		return nil, filter.NewNumericalError("eigen sqrt", filter.NotPSD, "matrix contains NaN or Inf")
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(a, true); !ok {
		return nil, filter.NewNumericalError("eigen sqrt", filter.Singular, "eigen decomposition failed")
	}

	vals := eig.Values(nil)
	tol := eigTol * math.Max(1, math.Abs(vals[len(vals)-1]))
	for i, v := range vals {
		if v < -tol {
			return nil, filter.NewNumericalError("eigen sqrt", filter.NotPSD, "negative eigenvalue %g", v)
		}
		vals[i] = math.Sqrt(math.Max(v, 0))
	}

	v := new(mat.Dense)
	eig.VectorsTo(v)
	v.Mul(v, mat.NewDiagDense(len(vals), vals))

	return v, nil
}

// tolerance returns a PSD tolerance scaled by the magnitude of a
func tolerance(a mat.Symmetric) float64 {
	n := a.SymmetricDim()
	scale := 1.0
	for i := 0; i < n; i++ {
		scale = math.Max(scale, math.Abs(a.At(i, i)))
	}

	return eigTol * scale
}
