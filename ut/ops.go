package ut

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Linear implements filter.Operators using weighted linear combination and vector subtraction.
type Linear struct{}

// Mean returns the weighted linear combination of the columns of points.
// It panics if the number of weights does not match the number of columns.
func (Linear) Mean(points mat.Matrix, weights []float64) *mat.VecDense {
	rows, cols := points.Dims()
	if len(weights) != cols {
		panic(mat.ErrShape)
	}

	mean := mat.NewVecDense(rows, nil)
	mean.MulVec(points, mat.NewVecDense(cols, weights))

	return mean
}

// Diff returns a - b.
func (Linear) Diff(a, b mat.Vector) *mat.VecDense {
	d := mat.NewVecDense(a.Len(), nil)
	d.SubVec(a, b)

	return d
}

// Angular implements filter.Operators for spaces in which some components are angles in radians.
// Components listed in Indices are treated as circular quantities, all the other ones are linear.
type Angular struct {
	// Indices are indices of angular components
	Indices []int
}

// NewAngular creates new Angular operators with angular components at indices.
func NewAngular(indices ...int) *Angular {
	idx := make([]int, len(indices))
	copy(idx, indices)

	return &Angular{Indices: idx}
}

// Mean returns the weighted mean of the columns of points.
// Angular components are averaged relative to the first point, with every
// difference reduced to (-Pi, Pi], and the result is wrapped to (-Pi, Pi].
// It panics if the number of weights does not match the number of columns.
func (a *Angular) Mean(points mat.Matrix, weights []float64) *mat.VecDense {
	mean := Linear{}.Mean(points, weights)

	_, cols := points.Dims()
	for _, k := range a.Indices {
		ref := points.At(k, 0)
		sum := 0.0
		for i := 0; i < cols; i++ {
			sum += weights[i] * WrapAngle(points.At(k, i)-ref)
		}
		mean.SetVec(k, WrapAngle(ref+sum))
	}

	return mean
}

// Diff returns a - b with angular components reduced to (-Pi, Pi].
func (a *Angular) Diff(x, y mat.Vector) *mat.VecDense {
	d := Linear{}.Diff(x, y)
	a.Normalize(d)

	return d
}

// Normalize wraps angular components of x to (-Pi, Pi] in place.
func (a *Angular) Normalize(x *mat.VecDense) {
	for _, k := range a.Indices {
		x.SetVec(k, WrapAngle(x.AtVec(k)))
	}
}

// WrapAngle reduces angle a given in radians to (-Pi, Pi].
func WrapAngle(a float64) float64 {
	return wrap(a, math.Pi)
}

// WrapDegrees reduces angle a given in degrees to (-180, 180].
func WrapDegrees(a float64) float64 {
	return wrap(a, 180)
}

func wrap(a, half float64) float64 {
	r := math.Mod(a+half, 2*half)
	if r <= 0 {
		r += 2 * half
	}

	return r - half
}
