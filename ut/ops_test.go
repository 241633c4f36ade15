package ut

import (
	"math"
	"testing"

	filter "github.com/milosgajdos/go-odom"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestWrapAngle(t *testing.T) {
	assert := assert.New(t)
	delta := 1e-12

	for _, test := range []struct {
		in   float64
		want float64
	}{
		{in: 0, want: 0},
		{in: math.Pi, want: math.Pi},
		{in: -math.Pi, want: math.Pi},
		{in: 3 * math.Pi / 2, want: -math.Pi / 2},
		{in: -3 * math.Pi / 2, want: math.Pi / 2},
		{in: 2 * math.Pi, want: 0},
		{in: 7 * math.Pi, want: math.Pi},
		{in: 0.25, want: 0.25},
	} {
		assert.InDelta(test.want, WrapAngle(test.in), delta, "in=%v", test.in)
	}

	assert.InDelta(180.0, WrapDegrees(-180), delta)
	assert.InDelta(-170.0, WrapDegrees(190), delta)
	assert.InDelta(10.0, WrapDegrees(370), delta)
	assert.InDelta(-90.0, WrapDegrees(270), delta)
}

func TestLinear(t *testing.T) {
	assert := assert.New(t)

	var ops filter.Operators = Linear{}

	points := mat.NewDense(2, 3, []float64{
		1.0, 2.0, 3.0,
		4.0, 5.0, 6.0,
	})
	mean := ops.Mean(points, []float64{0.5, 0.25, 0.25})
	assert.InDeltaSlice([]float64{1.75, 4.75}, mean.RawVector().Data, 1e-12)

	d := ops.Diff(mat.NewVecDense(2, []float64{1, 1}), mat.NewVecDense(2, []float64{3, -1}))
	assert.InDeltaSlice([]float64{-2, 2}, d.RawVector().Data, 1e-12)

	assert.Panics(func() { ops.Mean(points, []float64{1}) })
}

func TestAngular(t *testing.T) {
	assert := assert.New(t)

	var ops filter.Operators = NewAngular(1)

	// headings straddling the wrap boundary average to Pi, not 0
	points := mat.NewDense(2, 2, []float64{
		1.0, 3.0,
		math.Pi - 0.1, -math.Pi + 0.1,
	})
	mean := ops.Mean(points, []float64{0.5, 0.5})
	assert.InDelta(2.0, mean.AtVec(0), 1e-12)
	assert.InDelta(math.Pi, mean.AtVec(1), 1e-12)

	// negative central weight
	points = mat.NewDense(1, 3, []float64{3.0, 3.0 + 0.5, 3.0 - 0.5})
	neg := NewAngular(0).Mean(points, []float64{-1, 1, 1})
	assert.InDelta(3.0, neg.AtVec(0), 1e-12)

	d := ops.Diff(
		mat.NewVecDense(2, []float64{1.0, math.Pi - 0.1}),
		mat.NewVecDense(2, []float64{0.5, -math.Pi + 0.1}),
	)
	assert.InDelta(0.5, d.AtVec(0), 1e-12)
	assert.InDelta(-0.2, d.AtVec(1), 1e-12)

	x := mat.NewVecDense(2, []float64{10.0, 4 * math.Pi / 3})
	ops.(filter.Normalizer).Normalize(x)
	assert.InDelta(10.0, x.AtVec(0), 1e-12)
	assert.InDelta(-2*math.Pi/3, x.AtVec(1), 1e-12)

	// indices are copied
	idx := []int{0}
	a := NewAngular(idx...)
	idx[0] = 5
	assert.Equal([]int{0}, a.Indices)
}
