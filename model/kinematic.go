package model

import (
	"fmt"
	"math"

	mx "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// Kinematic is a constant acceleration process model. State vector consists of
// axis triplets (position, velocity, acceleration); each triplet is advanced by
//
//	pos' = pos + vel*dt + 0.5*acc*dt^2
//	vel' = vel + acc*dt
//	acc' = acc
//
// State elements which do not belong to any axis are left unchanged.
type Kinematic struct {
	// n is state dimension
	n int
	// axes are indices of position elements of axis triplets
	axes []int
	// q is process noise covariance
	q *mat.SymDense
}

// NewKinematic creates new constant acceleration model of n-dimensional state with process
// noise covariance q and axis triplets starting at indices axes and returns it.
// If q is nil, zero process noise is used.
// It returns error if any of the triplets is out of range or overlaps another one.
func NewKinematic(n int, q mat.Symmetric, axes ...int) (*Kinematic, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid state dimension: %d", n)
	}

	seen := make(map[int]bool, 3*len(axes))
	for _, a := range axes {
		if a < 0 || a+2 >= n {
			return nil, fmt.Errorf("axis %d out of range of state dimension %d", a, n)
		}
		for i := a; i < a+3; i++ {
			if seen[i] {
				return nil, fmt.Errorf("axis %d overlaps state element %d", a, i)
			}
			seen[i] = true
		}
	}

	k := &Kinematic{
		n:    n,
		axes: append([]int(nil), axes...),
		q:    mat.NewSymDense(n, nil),
	}

	if q != nil {
		if err := k.SetNoise(q); err != nil {
			return nil, err
		}
	}

	return k, nil
}

// Predict propagates state x forward by dt seconds.
// It returns error if x has invalid dimension or dt is negative or not finite.
func (k *Kinematic) Predict(x mat.Vector, dt float64) (mat.Vector, error) {
	if x.Len() != k.n {
		return nil, fmt.Errorf("invalid state vector dimension: %d, expected %d", x.Len(), k.n)
	}

	if err := checkStep(dt); err != nil {
		return nil, err
	}

	out := &mat.VecDense{}
	out.CloneFromVec(x)

	for _, p := range k.axes {
		pos, vel, acc := x.AtVec(p), x.AtVec(p+1), x.AtVec(p+2)
		out.SetVec(p, pos+vel*dt+0.5*acc*dt*dt)
		out.SetVec(p+1, vel+acc*dt)
	}

	return out, nil
}

// Noise returns process noise covariance
func (k *Kinematic) Noise() mat.Symmetric {
	q := mat.NewSymDense(k.n, nil)
	q.CopySym(k.q)

	return q
}

// SetNoise sets process noise covariance.
// It returns error if q has invalid dimension.
func (k *Kinematic) SetNoise(q mat.Symmetric) error {
	if q.SymmetricDim() != k.n {
		return fmt.Errorf("invalid process noise dimension: %d, expected %d", q.SymmetricDim(), k.n)
	}

	k.q.CopySym(q)

	return nil
}

// Dim returns state dimension
func (k *Kinematic) Dim() int {
	return k.n
}

// Axes returns indices of position elements of axis triplets
func (k *Kinematic) Axes() []int {
	return append([]int(nil), k.axes...)
}

// Transition returns the state transition matrix F(dt) such that Predict(x, dt) = F(dt)*x.
// It returns error if dt is negative or not finite.
func (k *Kinematic) Transition(dt float64) (*mat.Dense, error) {
	if err := checkStep(dt); err != nil {
		return nil, err
	}

	f, err := mx.NewDenseValIdentity(k.n, 1.0)
	if err != nil {
		return nil, err
	}

	for _, p := range k.axes {
		f.Set(p, p+1, dt)
		f.Set(p, p+2, 0.5*dt*dt)
		f.Set(p+1, p+2, dt)
	}

	return f, nil
}

// WhiteNoiseAccel returns discrete process noise covariance of piecewise white acceleration
// increments over step dt. Every axis triplet gets variance sigma[i]^2 shaped by
// G = [dt^2/2, dt, 1], i.e. Q_i = sigma[i]^2 * G*G'. A single sigma applies to every axis.
// It returns error if dt is invalid or the number of sigmas does not match the number of axes.
func (k *Kinematic) WhiteNoiseAccel(dt float64, sigma ...float64) (*mat.SymDense, error) {
	if err := checkStep(dt); err != nil {
		return nil, err
	}

	switch {
	case len(sigma) == 1:
		s := sigma[0]
		sigma = make([]float64, len(k.axes))
		for i := range sigma {
			sigma[i] = s
		}
	case len(sigma) != len(k.axes):
		return nil, fmt.Errorf("invalid number of noise sigmas: %d, expected %d", len(sigma), len(k.axes))
	}

	q := mat.NewSymDense(k.n, nil)
	g := mat.NewVecDense(k.n, nil)

	for i, p := range k.axes {
		g.Zero()
		g.SetVec(p, 0.5*dt*dt)
		g.SetVec(p+1, dt)
		g.SetVec(p+2, 1.0)
		q.SymRankOne(q, sigma[i]*sigma[i], g)
	}

	return q, nil
}

func checkStep(dt float64) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("invalid time step: %v", dt)
	}

	return nil
}
