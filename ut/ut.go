// Package ut implements the unscented transform: it reduces a set of
// transformed sigma points back to a mean and a covariance.
package ut

import (
	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/sigma"
	"gonum.org/v1/gonum/mat"
)

// Transform computes the mean and covariance of the sigma points stored in columns of points.
// Mean is computed by ops.Mean using w.Mean and covariance is the sum of outer products of
// ops.Diff(point, mean) weighted by w.Cov. If ops is nil, Linear operators are used.
// It returns NumericalError if the number of points does not match the number of weights.
func Transform(points mat.Matrix, w sigma.Weights, ops filter.Operators) (*mat.VecDense, *mat.SymDense, error) {
	rows, cols := points.Dims()
	if cols != len(w.Mean) || cols != len(w.Cov) {
		return nil, nil, filter.NewNumericalError("unscented transform", filter.InvalidConfig,
			"%d sigma points, %d mean weights, %d covariance weights", cols, len(w.Mean), len(w.Cov))
	}

	if ops == nil {
		ops = Linear{}
	}

	mean := ops.Mean(points, w.Mean)
	cov := mat.NewSymDense(rows, nil)

	for c := 0; c < cols; c++ {
		d := ops.Diff(mat.NewVecDense(rows, mat.Col(nil, c, points)), mean)
		cov.SymRankOne(cov, w.Cov[c], d)
	}

	return mean, cov, nil
}

// CrossCov computes cross-covariance between sigma points x and z whose means are xMean and zMean:
// Pxz = sum_i wc[i] * dx_i * dz_i', where dx_i = xOps.Diff(x_i, xMean) and dz_i = zOps.Diff(z_i, zMean).
// Nil operators default to Linear. It returns NumericalError if the number of points or weights differ.
func CrossCov(x mat.Matrix, xMean mat.Vector, z mat.Matrix, zMean mat.Vector, wc []float64, xOps, zOps filter.Operators) (*mat.Dense, error) {
	xRows, xCols := x.Dims()
	zRows, zCols := z.Dims()
	if xCols != zCols || xCols != len(wc) {
		return nil, filter.NewNumericalError("cross covariance", filter.InvalidConfig,
			"%d state points, %d measurement points, %d weights", xCols, zCols, len(wc))
	}

	if xOps == nil {
		xOps = Linear{}
	}

	if zOps == nil {
		zOps = Linear{}
	}

	pxz := mat.NewDense(xRows, zRows, nil)
	for c := 0; c < xCols; c++ {
		dx := xOps.Diff(mat.NewVecDense(xRows, mat.Col(nil, c, x)), xMean)
		dz := zOps.Diff(mat.NewVecDense(zRows, mat.Col(nil, c, z)), zMean)
		pxz.RankOne(pxz, wc[c], dx, dz)
	}

	return pxz, nil
}
