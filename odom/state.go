// Package odom estimates planar pose of a mobile platform and its first two derivatives
// by fusing drive wheel, tracking wheel and inertial measurements in an Unscented Kalman Filter.
package odom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Dim is odometry state dimension
const Dim = 9

// Coeff indexes odometry state vector
type Coeff int

const (
	// X is position along x axis [m]
	X Coeff = iota
	// XVel is velocity along x axis [m/s]
	XVel
	// XAccel is acceleration along x axis [m/s^2]
	XAccel
	// Y is position along y axis [m]
	Y
	// YVel is velocity along y axis [m/s]
	YVel
	// YAccel is acceleration along y axis [m/s^2]
	YAccel
	// Theta is heading [rad]
	Theta
	// ThetaVel is angular velocity [rad/s]
	ThetaVel
	// ThetaAccel is angular acceleration [rad/s^2]
	ThetaAccel
)

var coeffNames = [Dim]string{"x", "x'", "x''", "y", "y'", "y''", "theta", "theta'", "theta''"}

// String implements the Stringer interface.
func (c Coeff) String() string {
	if c < 0 || c >= Dim {
		return fmt.Sprintf("Coeff(%d)", int(c))
	}

	return coeffNames[c]
}

// Vec2 is a planar vector
type Vec2 struct {
	X float64
	Y float64
}

// Pose is a planar vector with heading, or a derivative of it
type Pose struct {
	Vec2
	Theta float64
}

// State provides read-only named access to odometry state vector
type State struct {
	v *mat.VecDense
}

// NewState creates new State from a copy of v and returns it.
// It returns error if v does not have Dim elements.
func NewState(v mat.Vector) (State, error) {
	if v == nil || v.Len() != Dim {
		return State{}, fmt.Errorf("invalid state vector dimension, expected %d", Dim)
	}

	s := &mat.VecDense{}
	s.CloneFromVec(v)

	return State{v: s}, nil
}

// Get returns state coefficient c
func (s State) Get(c Coeff) float64 { return s.v.AtVec(int(c)) }

// X returns position along x axis
func (s State) X() float64 { return s.Get(X) }

// XVel returns velocity along x axis
func (s State) XVel() float64 { return s.Get(XVel) }

// XAccel returns acceleration along x axis
func (s State) XAccel() float64 { return s.Get(XAccel) }

// Y returns position along y axis
func (s State) Y() float64 { return s.Get(Y) }

// YVel returns velocity along y axis
func (s State) YVel() float64 { return s.Get(YVel) }

// YAccel returns acceleration along y axis
func (s State) YAccel() float64 { return s.Get(YAccel) }

// Theta returns heading in radians
func (s State) Theta() float64 { return s.Get(Theta) }

// ThetaVel returns angular velocity
func (s State) ThetaVel() float64 { return s.Get(ThetaVel) }

// ThetaAccel returns angular acceleration
func (s State) ThetaAccel() float64 { return s.Get(ThetaAccel) }

// ThetaDegrees returns heading in degrees
func (s State) ThetaDegrees() float64 { return s.Theta() * 180 / math.Pi }

// Pos returns position
func (s State) Pos() Vec2 { return Vec2{X: s.X(), Y: s.Y()} }

// Vel returns velocity
func (s State) Vel() Vec2 { return Vec2{X: s.XVel(), Y: s.YVel()} }

// Accel returns acceleration
func (s State) Accel() Vec2 { return Vec2{X: s.XAccel(), Y: s.YAccel()} }

// Pose returns position and heading
func (s State) Pose() Pose { return Pose{Vec2: s.Pos(), Theta: s.Theta()} }

// PoseVel returns velocity and angular velocity
func (s State) PoseVel() Pose { return Pose{Vec2: s.Vel(), Theta: s.ThetaVel()} }

// PoseAccel returns acceleration and angular acceleration
func (s State) PoseAccel() Pose { return Pose{Vec2: s.Accel(), Theta: s.ThetaAccel()} }

// Vector returns a copy of the state vector
func (s State) Vector() *mat.VecDense {
	v := &mat.VecDense{}
	v.CloneFromVec(s.v)

	return v
}

// String implements the Stringer interface.
func (s State) String() string {
	return fmt.Sprintf("State{pose=(%.4f, %.4f, %.4f) vel=(%.4f, %.4f, %.4f) accel=(%.4f, %.4f, %.4f)}",
		s.X(), s.Y(), s.Theta(), s.XVel(), s.YVel(), s.ThetaVel(), s.XAccel(), s.YAccel(), s.ThetaAccel())
}

// Refs provides mutable named access to a state vector it does not own.
type Refs struct {
	v *mat.VecDense
}

// NewRefs creates new Refs backed by v and returns it.
// It returns error if v does not have Dim elements.
func NewRefs(v *mat.VecDense) (*Refs, error) {
	if v == nil || v.Len() != Dim {
		return nil, fmt.Errorf("invalid state vector dimension, expected %d", Dim)
	}

	return &Refs{v: v}, nil
}

// Ref returns pointer to state coefficient c
func (r *Refs) Ref(c Coeff) *float64 {
	raw := r.v.RawVector()
	return &raw.Data[int(c)*raw.Inc]
}

// Set sets state coefficient c to val
func (r *Refs) Set(c Coeff, val float64) { r.v.SetVec(int(c), val) }

// SetX sets position along x axis
func (r *Refs) SetX(val float64) { r.Set(X, val) }

// SetXVel sets velocity along x axis
func (r *Refs) SetXVel(val float64) { r.Set(XVel, val) }

// SetXAccel sets acceleration along x axis
func (r *Refs) SetXAccel(val float64) { r.Set(XAccel, val) }

// SetY sets position along y axis
func (r *Refs) SetY(val float64) { r.Set(Y, val) }

// SetYVel sets velocity along y axis
func (r *Refs) SetYVel(val float64) { r.Set(YVel, val) }

// SetYAccel sets acceleration along y axis
func (r *Refs) SetYAccel(val float64) { r.Set(YAccel, val) }

// SetTheta sets heading
func (r *Refs) SetTheta(val float64) { r.Set(Theta, val) }

// SetThetaVel sets angular velocity
func (r *Refs) SetThetaVel(val float64) { r.Set(ThetaVel, val) }

// SetThetaAccel sets angular acceleration
func (r *Refs) SetThetaAccel(val float64) { r.Set(ThetaAccel, val) }

// State returns read-only view of the referenced vector.
// The view reflects later changes made through r.
func (r *Refs) State() State { return State{v: r.v} }

// View is a snapshot of odometry state estimate
type View struct {
	State
	cov *mat.SymDense
}

func newView(x mat.Vector, p mat.Symmetric) (View, error) {
	s, err := NewState(x)
	if err != nil {
		return View{}, err
	}

	if p.SymmetricDim() != Dim {
		return View{}, fmt.Errorf("invalid covariance dimension: %d, expected %d", p.SymmetricDim(), Dim)
	}

	cov := mat.NewSymDense(Dim, nil)
	cov.CopySym(p)

	return View{State: s, cov: cov}, nil
}

// Mean returns a copy of the state mean
func (v View) Mean() *mat.VecDense { return v.Vector() }

// Cov returns a copy of the state covariance
func (v View) Cov() *mat.SymDense {
	cov := mat.NewSymDense(Dim, nil)
	cov.CopySym(v.cov)

	return cov
}

// Std returns standard deviation of state coefficient c
func (v View) Std(c Coeff) float64 { return math.Sqrt(v.cov.At(int(c), int(c))) }
