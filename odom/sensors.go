package odom

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/ut"
	"gonum.org/v1/gonum/mat"
)

// sensor holds measurement noise shared by all odometry measurement models
type sensor struct {
	dim int
	r   filter.Noise
}

func newSensor(dim int, r filter.Noise) (sensor, error) {
	if r == nil {
		return sensor{}, fmt.Errorf("missing measurement noise")
	}

	if n := r.Cov().SymmetricDim(); n != dim {
		return sensor{}, fmt.Errorf("invalid measurement noise dimension: %d, expected %d", n, dim)
	}

	return sensor{dim: dim, r: r}, nil
}

// Dim returns measurement dimension
func (s sensor) Dim() int { return s.dim }

// Noise returns measurement noise covariance
func (s sensor) Noise() mat.Symmetric { return s.r.Cov() }

// Ops returns measurement space operators
func (s sensor) Ops() filter.Operators { return ut.Linear{} }

func checkState(x mat.Vector) error {
	if x.Len() != Dim {
		return fmt.Errorf("invalid state vector dimension: %d, expected %d", x.Len(), Dim)
	}

	return nil
}

// bodyVel returns forward and leftward velocity in the platform frame
func bodyVel(x mat.Vector) (fwd, left float64) {
	sin, cos := math.Sincos(x.AtVec(int(Theta)))
	xv, yv := x.AtVec(int(XVel)), x.AtVec(int(YVel))

	return xv*cos + yv*sin, -xv*sin + yv*cos
}

func measurement(m filter.MeasurementModel, vals ...float64) *filter.Measurement {
	return &filter.Measurement{
		Value: mat.NewVecDense(len(vals), vals),
		Model: m,
	}
}

// DriveWheels observes linear speed of left and right drive wheels of a differential drive.
type DriveWheels struct {
	sensor
	trackWidth float64
}

// NewDriveWheels creates new drive wheel measurement model with given track width
// and 2-dimensional noise r and returns it.
func NewDriveWheels(trackWidth float64, r filter.Noise) (*DriveWheels, error) {
	if !(trackWidth > 0) {
		return nil, fmt.Errorf("invalid track width: %v", trackWidth)
	}

	s, err := newSensor(2, r)
	if err != nil {
		return nil, err
	}

	return &DriveWheels{sensor: s, trackWidth: trackWidth}, nil
}

// Observe returns left and right wheel speeds of state x.
func (d *DriveWheels) Observe(x mat.Vector) (mat.Vector, error) {
	if err := checkState(x); err != nil {
		return nil, err
	}

	fwd, _ := bodyVel(x)
	turn := x.AtVec(int(ThetaVel)) * d.trackWidth / 2

	return mat.NewVecDense(2, []float64{fwd - turn, fwd + turn}), nil
}

// Measurement returns measurement of left and right wheel speeds [m/s].
func (d *DriveWheels) Measurement(left, right float64) *filter.Measurement {
	return measurement(d, left, right)
}

// TrackingWheels observes linear speed of unpowered vertical and horizontal tracking wheels.
// Vertical wheel rolls forward and sits vertOffset to the left of the rotation centre;
// horizontal wheel rolls leftward and sits horiOffset ahead of it.
type TrackingWheels struct {
	sensor
	vertOffset float64
	horiOffset float64
}

// NewTrackingWheels creates new tracking wheel measurement model with given wheel offsets
// and 2-dimensional noise r and returns it.
func NewTrackingWheels(vertOffset, horiOffset float64, r filter.Noise) (*TrackingWheels, error) {
	s, err := newSensor(2, r)
	if err != nil {
		return nil, err
	}

	return &TrackingWheels{sensor: s, vertOffset: vertOffset, horiOffset: horiOffset}, nil
}

// Observe returns vertical and horizontal tracking wheel speeds of state x.
func (t *TrackingWheels) Observe(x mat.Vector) (mat.Vector, error) {
	if err := checkState(x); err != nil {
		return nil, err
	}

	fwd, left := bodyVel(x)
	w := x.AtVec(int(ThetaVel))

	return mat.NewVecDense(2, []float64{fwd - w*t.vertOffset, left + w*t.horiOffset}), nil
}

// Measurement returns measurement of vertical and horizontal tracking wheel speeds [m/s].
func (t *TrackingWheels) Measurement(vert, hori float64) *filter.Measurement {
	return measurement(t, vert, hori)
}

// Inertial observes angular acceleration.
type Inertial struct {
	sensor
}

// NewInertial creates new angular acceleration measurement model with 1-dimensional noise r and returns it.
func NewInertial(r filter.Noise) (*Inertial, error) {
	s, err := newSensor(1, r)
	if err != nil {
		return nil, err
	}

	return &Inertial{sensor: s}, nil
}

// Observe returns angular acceleration of state x.
func (i *Inertial) Observe(x mat.Vector) (mat.Vector, error) {
	if err := checkState(x); err != nil {
		return nil, err
	}

	return mat.NewVecDense(1, []float64{x.AtVec(int(ThetaAccel))}), nil
}

// Measurement returns measurement of angular acceleration [rad/s^2].
func (i *Inertial) Measurement(thetaAccel float64) *filter.Measurement {
	return measurement(i, thetaAccel)
}

// Heading observes absolute heading.
type Heading struct {
	sensor
	ops *ut.Angular
}

// NewHeading creates new heading measurement model with 1-dimensional noise r and returns it.
func NewHeading(r filter.Noise) (*Heading, error) {
	s, err := newSensor(1, r)
	if err != nil {
		return nil, err
	}

	return &Heading{sensor: s, ops: ut.NewAngular(0)}, nil
}

// Observe returns heading of state x wrapped to (-Pi, Pi].
func (h *Heading) Observe(x mat.Vector) (mat.Vector, error) {
	if err := checkState(x); err != nil {
		return nil, err
	}

	return mat.NewVecDense(1, []float64{ut.WrapAngle(x.AtVec(int(Theta)))}), nil
}

// Ops returns angular measurement operators
func (h *Heading) Ops() filter.Operators { return h.ops }

// Measurement returns measurement of heading [rad].
func (h *Heading) Measurement(theta float64) *filter.Measurement {
	return measurement(h, theta)
}

// Combined observes drive wheel speeds, tracking wheel speeds and angular acceleration at once:
// [left, right, vert, hori, theta''].
type Combined struct {
	sensor
	drive    *DriveWheels
	tracking *TrackingWheels
}

// NewCombined creates new combined measurement model for platform dimensions d
// with 5-dimensional noise r and returns it.
func NewCombined(d Dimensions, r filter.Noise) (*Combined, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	s, err := newSensor(5, r)
	if err != nil {
		return nil, err
	}

	return &Combined{
		sensor:   s,
		drive:    &DriveWheels{trackWidth: d.TrackWidth},
		tracking: &TrackingWheels{vertOffset: d.VertOffset, horiOffset: d.HoriOffset},
	}, nil
}

// Observe returns wheel speeds and angular acceleration of state x.
func (c *Combined) Observe(x mat.Vector) (mat.Vector, error) {
	drive, err := c.drive.Observe(x)
	if err != nil {
		return nil, err
	}

	tracking, err := c.tracking.Observe(x)
	if err != nil {
		return nil, err
	}

	return mat.NewVecDense(5, []float64{
		drive.AtVec(0),
		drive.AtVec(1),
		tracking.AtVec(0),
		tracking.AtVec(1),
		x.AtVec(int(ThetaAccel)),
	}), nil
}

// Measurement returns combined measurement of wheel speeds [m/s] and angular acceleration [rad/s^2].
func (c *Combined) Measurement(left, right, vert, hori, thetaAccel float64) *filter.Measurement {
	return measurement(c, left, right, vert, hori, thetaAccel)
}
