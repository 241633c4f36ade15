// Package ukf implements Unscented (aka Sigma Point) Kalman Filter.
package ukf

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/estimate"
	"github.com/milosgajdos/go-odom/matrix"
	"github.com/milosgajdos/go-odom/sigma"
	"github.com/milosgajdos/go-odom/ut"
	"gonum.org/v1/gonum/mat"
)

const (
	// psdTol is relative tolerance of negative covariance eigenvalues
	psdTol = 1e-9
)

// Config contains UKF configuration parameters
type Config struct {
	// Sigma configures sigma point generation
	Sigma sigma.Config
	// StateOps average and subtract state vectors; ut.Linear if nil
	StateOps filter.Operators
}

// UKF is Unscented (aka Sigma Point) Kalman Filter
type UKF struct {
	// sp generates sigma points
	sp *sigma.MerweScaled
	// w are sigma point weights
	w sigma.Weights
	// ops are state space operators
	ops filter.Operators
	// x is the UKF state mean
	x *mat.VecDense
	// p is the UKF covariance matrix
	p *mat.SymDense
	// sigmas stores sigma points propagated by the last Predict
	sigmas *mat.Dense
	// fresh is true if sigmas have not been consumed by Update yet
	fresh bool
	// inn is the last innovation vector
	inn *mat.VecDense
	// k is the last Kalman gain
	k *mat.Dense
}

// prediction is the result of propagating sigma points through a process model
type prediction struct {
	x      *mat.VecDense
	p      *mat.SymDense
	sigmas *mat.Dense
}

// New creates new UKF and returns it.
// It accepts the following arguments:
// - init:   initial condition of the filter
// - c:      filter configuration
// It returns NumericalError if the configuration is invalid, if the initial covariance
// has wrong dimensions or is not positive semi-definite or if the configured square root
// fails to generate sigma points from the initial condition.
func New(init filter.InitCond, c *Config) (*UKF, error) {
	if init == nil || c == nil {
		return nil, filter.NewNumericalError("new", filter.InvalidConfig, "nil initial condition or config")
	}

	x, p := init.State(), init.Cov()
	if x == nil || p == nil || x.Len() == 0 || x.Len() != p.SymmetricDim() {
		return nil, filter.NewNumericalError("new", filter.InvalidConfig, "invalid initial condition dimensions")
	}

	if !matrix.IsFinite(x) || !matrix.IsPSD(p, tolerance(p)) {
		return nil, filter.NewNumericalError("new", filter.NotPSD, "invalid initial covariance")
	}

	sp, err := sigma.New(x.Len(), &c.Sigma)
	if err != nil {
		return nil, err
	}

	if _, err := sp.Generate(x, p); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	ops := c.StateOps
	if ops == nil {
		ops = ut.Linear{}
	}

	xInit := &mat.VecDense{}
	xInit.CloneFromVec(x)

	pInit := mat.NewSymDense(p.SymmetricDim(), nil)
	pInit.CopySym(p)

	return &UKF{
		sp:  sp,
		w:   sp.Weights(),
		ops: ops,
		x:   xInit,
		p:   pInit,
	}, nil
}

// predict propagates sigma points generated around the current state through process model m.
// It does not modify the filter.
func (k *UKF) predict(m filter.ProcessModel, dt float64) (*prediction, error) {
	if m == nil {
		return nil, filter.NewNumericalError("predict", filter.InvalidConfig, "nil process model")
	}

	points, err := k.sp.Generate(k.x, k.p)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	n, cols := points.Dims()
	col := mat.NewVecDense(n, nil)
	for c := 0; c < cols; c++ {
		col.CopyVec(points.ColView(c))
		next, err := m.Predict(col, dt)
		if err != nil {
			return nil, fmt.Errorf("predict: failed to propagate sigma point %d: %w", c, err)
		}

		if next == nil {
			return nil, filter.NewNumericalError("predict", filter.InvalidConfig, "nil propagated sigma point %d", c)
		}

		if next.Len() != n {
			return nil, filter.NewNumericalError("predict", filter.InvalidConfig,
				"propagated sigma point dimension %d, expected %d", next.Len(), n)
		}

		points.ColView(c).(*mat.VecDense).CopyVec(next)
		if norm, ok := k.ops.(filter.Normalizer); ok {
			norm.Normalize(points.ColView(c).(*mat.VecDense))
		}
	}

	x, p, err := ut.Transform(points, k.w, k.ops)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	if q := m.Noise(); q != nil && q.SymmetricDim() > 0 {
		if q.SymmetricDim() != n {
			return nil, filter.NewNumericalError("predict", filter.InvalidConfig,
				"process noise dimension %d, expected %d", q.SymmetricDim(), n)
		}
		p.AddSym(p, q)
	}

	if !matrix.IsFinite(x) || !matrix.IsPSD(p, tolerance(p)) {
		return nil, filter.NewNumericalError("predict", filter.NotPSD, "predicted covariance is not positive semi-definite")
	}

	return &prediction{
		x:      x,
		p:      p,
		sigmas: points,
	}, nil
}

// Predict propagates the filter state dt seconds forward using process model m and returns the prior estimate.
// It returns error if it fails to generate or propagate sigma points or if the predicted covariance
// is not positive semi-definite. The filter is not modified on error.
func (k *UKF) Predict(m filter.ProcessModel, dt float64) (filter.Estimate, error) {
	pred, err := k.predict(m, dt)
	if err != nil {
		return nil, err
	}

	est, err := estimate.NewBaseWithCov(pred.x, pred.p)
	if err != nil {
		return nil, fmt.Errorf("predict: failed to estimate next state: %w", err)
	}

	// it's safe to update the filter state
	k.x = pred.x
	k.p = pred.p
	k.sigmas = pred.sigmas
	k.fresh = true

	return est, nil
}

// Forecast returns the estimate Predict would return without modifying the filter.
func (k *UKF) Forecast(m filter.ProcessModel, dt float64) (filter.Estimate, error) {
	pred, err := k.predict(m, dt)
	if err != nil {
		return nil, err
	}

	est, err := estimate.NewBaseWithCov(pred.x, pred.p)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	return est, nil
}

// Update corrects the filter state using measurement z and returns the posterior estimate.
// Sigma points propagated by the preceding Predict are used once; if there are none,
// sigma points are regenerated around the current state.
// It returns NumericalError if the measurement noise is singular or not positive semi-definite,
// if the innovation covariance is singular or if the posterior covariance is not positive semi-definite.
// The filter is not modified on error.
func (k *UKF) Update(z *filter.Measurement) (filter.Estimate, error) {
	if z == nil || z.Value == nil || z.Model == nil {
		return nil, filter.NewNumericalError("update", filter.InvalidConfig, "incomplete measurement")
	}

	dim := z.Model.Dim()
	if dim <= 0 || z.Value.Len() != dim {
		return nil, filter.NewNumericalError("update", filter.InvalidConfig,
			"measurement dimension %d, model dimension %d", z.Value.Len(), dim)
	}

	r := z.Model.Noise()
	if r == nil || r.SymmetricDim() != dim {
		return nil, filter.NewNumericalError("update", filter.InvalidConfig, "invalid measurement noise dimension")
	}

	var rChol mat.Cholesky
	if ok := rChol.Factorize(r); !ok {
		if matrix.IsFinite(r) && matrix.IsPSD(r, tolerance(r)) {
			return nil, filter.NewNumericalError("update", filter.Singular, "measurement noise covariance is singular")
		}
		return nil, filter.NewNumericalError("update", filter.NotPSD, "measurement noise covariance is not positive semi-definite")
	}

	points := k.sigmas
	if !k.fresh {
		var err error
		if points, err = k.sp.Generate(k.x, k.p); err != nil {
			return nil, fmt.Errorf("update: %w", err)
		}
	}

	n, cols := points.Dims()
	obs := mat.NewDense(dim, cols, nil)
	col := mat.NewVecDense(n, nil)
	for c := 0; c < cols; c++ {
		col.CopyVec(points.ColView(c))
		y, err := z.Model.Observe(col)
		if err != nil {
			return nil, fmt.Errorf("update: failed to observe sigma point %d: %w", c, err)
		}

		if y == nil {
			return nil, filter.NewNumericalError("update", filter.InvalidConfig, "nil observed sigma point %d", c)
		}

		if y.Len() != dim {
			return nil, filter.NewNumericalError("update", filter.InvalidConfig,
				"observed sigma point dimension %d, expected %d", y.Len(), dim)
		}
		obs.ColView(c).(*mat.VecDense).CopyVec(y)
	}

	zOps := z.Model.Ops()
	if zOps == nil {
		zOps = ut.Linear{}
	}

	zMean, pzz, err := ut.Transform(obs, k.w, zOps)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	pzz.AddSym(pzz, r)

	pxz, err := ut.CrossCov(points, k.x, obs, zMean, k.w.Cov, k.ops, zOps)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(pzz); !ok {
		return nil, filter.NewNumericalError("update", filter.Singular, "innovation covariance is not positive definite")
	}

	if cond := chol.Cond(); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > mat.ConditionTolerance {
		return nil, filter.NewNumericalError("update", filter.Singular, "innovation covariance condition number %v", cond)
	}

	// K' = inv(Pzz) * Pxz'
	kt := &mat.Dense{}
	if err := chol.SolveTo(kt, pxz.T()); err != nil {
		return nil, &filter.NumericalError{Op: "update", Kind: filter.Singular, Err: err}
	}

	gain := mat.DenseCopyOf(kt.T())

	// innovation vector
	inn := zOps.Diff(z.Value, zMean)

	// correct state x
	x := mat.NewVecDense(n, nil)
	x.MulVec(gain, inn)
	x.AddVec(k.x, x)
	if norm, ok := k.ops.(filter.Normalizer); ok {
		norm.Normalize(x)
	}

	// correct covariance: P - K*Pzz*K'
	corr := &mat.Dense{}
	corr.Product(gain, pzz, kt)
	corr.Sub(k.p, corr)

	p, err := matrix.Symmetrize(corr)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}

	if !matrix.IsFinite(x) || !matrix.IsPSD(p, tolerance(k.p)) {
		return nil, filter.NewNumericalError("update", filter.NotPSD, "posterior covariance is not positive semi-definite")
	}

	est, err := estimate.NewBaseWithCov(x, p)
	if err != nil {
		return nil, fmt.Errorf("update: failed to update estimate: %w", err)
	}

	k.x = x
	k.p = p
	k.inn = inn
	k.k = gain
	k.fresh = false

	return est, nil
}

// Snapshot returns the current filter estimate which can be passed to Restore.
func (k *UKF) Snapshot() filter.Estimate {
	est, _ := estimate.NewBaseWithCov(k.x, k.p)
	return est
}

// Restore resets the filter state to estimate e and discards propagated sigma points.
// It returns NumericalError if e has wrong dimensions or its covariance is not positive semi-definite.
func (k *UKF) Restore(e filter.Estimate) error {
	if e == nil {
		return filter.NewNumericalError("restore", filter.InvalidConfig, "nil estimate")
	}

	x, p := e.Val(), e.Cov()
	if x == nil || p == nil || x.Len() != k.sp.Dim() || p.SymmetricDim() != k.sp.Dim() {
		return filter.NewNumericalError("restore", filter.InvalidConfig, "invalid estimate dimensions")
	}

	if !matrix.IsFinite(x) || !matrix.IsPSD(p, tolerance(p)) {
		return filter.NewNumericalError("restore", filter.NotPSD, "invalid estimate covariance")
	}

	xr := &mat.VecDense{}
	xr.CloneFromVec(x)

	pr := mat.NewSymDense(p.SymmetricDim(), nil)
	pr.CopySym(p)

	k.x = xr
	k.p = pr
	k.sigmas = nil
	k.fresh = false

	return nil
}

// State returns UKF state mean
func (k *UKF) State() mat.Vector {
	x := &mat.VecDense{}
	x.CloneFromVec(k.x)

	return x
}

// Cov returns UKF covariance
func (k *UKF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// Gain returns the last Kalman gain. It returns empty matrix before the first Update.
func (k *UKF) Gain() mat.Matrix {
	if k.k == nil {
		return &mat.Dense{}
	}

	return mat.DenseCopyOf(k.k)
}

// Innovation returns the last innovation vector. It returns empty vector before the first Update.
func (k *UKF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	if k.inn != nil {
		inn.CloneFromVec(k.inn)
	}

	return inn
}

// SigmaPoints returns sigma points propagated by the last Predict and true if they have
// not been consumed by Update yet.
func (k *UKF) SigmaPoints() (*mat.Dense, bool) {
	if k.sigmas == nil {
		return nil, false
	}

	return mat.DenseCopyOf(k.sigmas), k.fresh
}

// Weights returns sigma point weights
func (k *UKF) Weights() sigma.Weights {
	return k.sp.Weights()
}

// tolerance returns PSD tolerance scaled by the magnitude of the diagonal of p
func tolerance(p mat.Symmetric) float64 {
	scale := 1.0
	for i := 0; i < p.SymmetricDim(); i++ {
		scale = math.Max(scale, math.Abs(p.At(i, i)))
	}

	return psdTol * scale
}
