package ut

import (
	"errors"
	"os"
	"testing"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/sigma"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var (
	sp   *sigma.MerweScaled
	mean *mat.VecDense
	cov  *mat.SymDense
)

func setup() {
	sp, _ = sigma.New(4, &sigma.Config{
		Alpha: 0.5,
		Beta:  2.0,
		Kappa: 0.0,
	})

	mean = mat.NewVecDense(4, []float64{1.0, 2.0, -0.5, 3.0})
	cov = mat.NewSymDense(4, []float64{
		0.40, 0.05, 0.00, 0.01,
		0.05, 0.30, 0.02, 0.00,
		0.00, 0.02, 0.20, 0.03,
		0.01, 0.00, 0.03, 0.10,
	})
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestTransformRoundTrip(t *testing.T) {
	assert := assert.New(t)

	x, err := sp.Generate(mean, cov)
	assert.NoError(err)

	for _, ops := range []filter.Operators{nil, Linear{}, NewAngular()} {
		m, c, err := Transform(x, sp.Weights(), ops)
		assert.NoError(err)
		assert.True(mat.EqualApprox(mean, m, 1e-9))
		assert.True(mat.EqualApprox(cov, c, 1e-9))
	}
}

func TestTransformErrors(t *testing.T) {
	assert := assert.New(t)

	x := mat.NewDense(4, 5, nil)
	m, c, err := Transform(x, sp.Weights(), nil)
	assert.Nil(m)
	assert.Nil(c)
	assert.True(errors.Is(err, filter.ErrInvalidConfig))
}

func TestCrossCov(t *testing.T) {
	assert := assert.New(t)

	x, err := sp.Generate(mean, cov)
	assert.NoError(err)

	// linear measurement z = H*x
	h := mat.NewDense(2, 4, []float64{
		1.0, 0.0, 0.0, 0.0,
		0.0, 0.5, 0.0, 2.0,
	})
	z := mat.NewDense(2, sp.Count(), nil)
	z.Mul(h, x)

	w := sp.Weights()
	zMean, zCov, err := Transform(z, w, nil)
	assert.NoError(err)

	pxz, err := CrossCov(x, mean, z, zMean, w.Cov, nil, nil)
	assert.NoError(err)

	// Pxz = P*H'
	want := mat.NewDense(4, 2, nil)
	want.Mul(cov, h.T())
	assert.True(mat.EqualApprox(want, pxz, 1e-9))

	// Pzz = H*P*H'
	wantZ := mat.NewDense(2, 2, nil)
	wantZ.Product(h, cov, h.T())
	assert.True(mat.EqualApprox(wantZ, zCov, 1e-9))

	_, err = CrossCov(x, mean, mat.NewDense(2, 3, nil), zMean, w.Cov, nil, nil)
	assert.True(errors.Is(err, filter.ErrInvalidConfig))
}

func TestAngularTransform(t *testing.T) {
	assert := assert.New(t)

	// heading close to the wrap boundary
	m := mat.NewVecDense(2, []float64{1.0, 3.1})
	c := mat.NewSymDense(2, []float64{0.01, 0, 0, 0.04})

	x, err := sp2().Generate(m, c)
	assert.NoError(err)

	// wrap every sigma point heading like a process model would
	ops := NewAngular(1)
	for i := 0; i < sp2().Count(); i++ {
		x.Set(1, i, WrapAngle(x.At(1, i)))
	}

	got, gotCov, err := Transform(x, sp2().Weights(), ops)
	assert.NoError(err)
	assert.InDelta(1.0, got.AtVec(0), 1e-9)
	assert.InDelta(3.1, got.AtVec(1), 1e-9)
	assert.True(mat.EqualApprox(c, gotCov, 1e-9))

	// linear operators get the heading badly wrong
	lin, _, err := Transform(x, sp2().Weights(), Linear{})
	assert.NoError(err)
	assert.Greater(ops.Diff(lin, got).AtVec(1)*ops.Diff(lin, got).AtVec(1), 0.01)
}

func sp2() *sigma.MerweScaled {
	s, err := sigma.New(2, &sigma.Config{Alpha: 0.5, Beta: 2, Kappa: 1})
	if err != nil {
		panic(err)
	}
	return s
}
