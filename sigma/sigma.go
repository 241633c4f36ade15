// Package sigma generates Van der Merwe scaled sigma points and their weights.
package sigma

import (
	"errors"
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/matrix"
	"gonum.org/v1/gonum/mat"
)

// Config contains sigma point [unitless] configuration parameters
type Config struct {
	// Alpha controls the spread of the sigma points around the mean (0,1]
	Alpha float64
	// Beta incorporates prior knowledge of the distribution (2 is optimal for Gaussian)
	Beta float64
	// Kappa is secondary scaling parameter; N+Kappa must be positive
	Kappa float64
	// Sqrt computes matrix square root; Eigen is used if nil
	Sqrt SqrtFunc
}

// Weights stores sigma point weights
type Weights struct {
	// Mean contains weights used to compute the mean
	Mean []float64
	// Cov contains weights used to compute the covariance
	Cov []float64
}

// MerweScaled generates Van der Merwe scaled sigma points
type MerweScaled struct {
	// n is state dimension
	n int
	// c is sigma point configuration
	c Config
	// lambda is a unitless scaling parameter derived from c
	lambda float64
	// w are sigma point weights
	w Weights
}

// New creates new MerweScaled sigma point generator for n-dimensional state and returns it.
// It returns NumericalError if n is not positive or if c leads to a degenerate spread.
func New(n int, c *Config) (*MerweScaled, error) {
	if c == nil {
		return nil, filter.NewNumericalError("sigma points", filter.InvalidConfig, "nil config")
	}

	lambda, err := Lambda(n, c)
	if err != nil {
		return nil, err
	}

	conf := *c
	if conf.Sqrt == nil {
		conf.Sqrt = Eigen
	}

	return &MerweScaled{
		n:      n,
		c:      conf,
		lambda: lambda,
		w:      newWeights(n, lambda, c),
	}, nil
}

// Lambda validates c for n-dimensional state and returns the lambda scaling parameter:
// lambda = alpha^2 * (n + kappa) - n
// It returns NumericalError if the parameters are invalid or n + lambda is not positive.
func Lambda(n int, c *Config) (float64, error) {
	switch {
	case n <= 0:
		return 0, filter.NewNumericalError("sigma points", filter.InvalidConfig, "invalid state dimension: %d", n)
	case !(c.Alpha > 0) || math.IsInf(c.Alpha, 0):
		return 0, filter.NewNumericalError("sigma points", filter.InvalidConfig, "invalid alpha: %v", c.Alpha)
	case !(c.Beta >= 0) || math.IsInf(c.Beta, 0):
		return 0, filter.NewNumericalError("sigma points", filter.InvalidConfig, "invalid beta: %v", c.Beta)
	case math.IsNaN(c.Kappa) || math.IsInf(c.Kappa, 0):
		return 0, filter.NewNumericalError("sigma points", filter.InvalidConfig, "invalid kappa: %v", c.Kappa)
	}

	nf := float64(n)
	lambda := c.Alpha*c.Alpha*(nf+c.Kappa) - nf
	if !(nf+lambda > 0) {
		return 0, filter.NewNumericalError("sigma points", filter.InvalidConfig,
			"degenerate lambda %v: n+lambda must be positive (alpha=%v, kappa=%v)", lambda, c.Alpha, c.Kappa)
	}

	return lambda, nil
}

// NewWeights returns sigma point weights for n-dimensional state and configuration c.
// It returns NumericalError if c is invalid.
func NewWeights(n int, c *Config) (Weights, error) {
	lambda, err := Lambda(n, c)
	if err != nil {
		return Weights{}, err
	}

	return newWeights(n, lambda, c), nil
}

func newWeights(n int, lambda float64, c *Config) Weights {
	count := 2*n + 1
	nl := float64(n) + lambda

	wm := make([]float64, count)
	wc := make([]float64, count)

	w := 1 / (2 * nl)
	for i := 1; i < count; i++ {
		wm[i] = w
		wc[i] = w
	}
	wm[0] = lambda / nl
	wc[0] = wm[0] + (1 - c.Alpha*c.Alpha + c.Beta)

	return Weights{Mean: wm, Cov: wc}
}

// Dim returns state dimension
func (m *MerweScaled) Dim() int {
	return m.n
}

// Count returns the number of generated sigma points: 2*n+1
func (m *MerweScaled) Count() int {
	return 2*m.n + 1
}

// Lambda returns lambda scaling parameter
func (m *MerweScaled) Lambda() float64 {
	return m.lambda
}

// Config returns sigma point configuration
func (m *MerweScaled) Config() Config {
	return m.c
}

// Weights returns a copy of sigma point weights
func (m *MerweScaled) Weights() Weights {
	w := Weights{
		Mean: make([]float64, len(m.w.Mean)),
		Cov:  make([]float64, len(m.w.Cov)),
	}
	copy(w.Mean, m.w.Mean)
	copy(w.Cov, m.w.Cov)

	return w
}

// Generate generates sigma points centered around mean and spread according to cov.
// It returns a matrix which stores the sigma points in its columns: column 0 is the mean,
// columns 1..n are mean + U_i and columns n+1..2n are mean - U_i, where U = sqrt((n+lambda)*cov).
// It returns NumericalError if cov is not positive semi-definite (as required by the configured
// square root) or if the dimensions of mean and cov do not match the generator.
func (m *MerweScaled) Generate(mean mat.Vector, cov mat.Symmetric) (*mat.Dense, error) {
	if mean.Len() != m.n || cov.SymmetricDim() != m.n {
		return nil, filter.NewNumericalError("sigma points", filter.InvalidConfig,
			"invalid dimensions: mean %d, cov %d, expected %d", mean.Len(), cov.SymmetricDim(), m.n)
	}

	if !matrix.IsFinite(mean) || !matrix.IsFinite(cov) {
		return nil, filter.NewNumericalError("sigma points", filter.NotPSD, "mean or covariance contains NaN or Inf")
	}

	scaled := mat.NewSymDense(m.n, nil)
	scaled.ScaleSym(float64(m.n)+m.lambda, cov)

	u, err := m.c.Sqrt(scaled)
	if err != nil {
		var numErr *filter.NumericalError
		if errors.As(err, &numErr) {
			return nil, fmt.Errorf("covariance square root: %w", err)
		}
		return nil, &filter.NumericalError{Op: "sigma points", Kind: filter.NotPSD, Err: err}
	}

	if r, c := u.Dims(); r != m.n || c != m.n {
		return nil, filter.NewNumericalError("sigma points", filter.InvalidConfig, "invalid square root dimensions: [%d x %d]", r, c)
	}

	if !matrix.IsFinite(u) {
		return nil, filter.NewNumericalError("sigma points", filter.NotPSD, "covariance square root contains NaN or Inf")
	}

	x := mat.NewDense(m.n, m.Count(), nil)
	col := mat.NewVecDense(m.n, nil)
	x.ColView(0).(*mat.VecDense).CopyVec(mean)

	for i := 0; i < m.n; i++ {
		col.CopyVec(u.ColView(i))
		x.ColView(i+1).(*mat.VecDense).AddVec(mean, col)
		x.ColView(i+m.n+1).(*mat.VecDense).SubVec(mean, col)
	}

	return x, nil
}
