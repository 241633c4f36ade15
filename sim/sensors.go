package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/noise"
	"github.com/milosgajdos/go-odom/odom"
	"gonum.org/v1/gonum/mat"
)

// SensorNoise contains standard deviations of sensor noise
type SensorNoise struct {
	// Drive is drive wheel speed noise [m/s]
	Drive float64 `yaml:"drive"`
	// Tracking is tracking wheel speed noise [m/s]
	Tracking float64 `yaml:"tracking"`
	// Heading is heading noise [rad]
	Heading float64 `yaml:"heading"`
	// Inertial is angular acceleration noise [rad/s^2]
	Inertial float64 `yaml:"inertial"`
}

// Validate returns error if any of the standard deviations is not positive.
func (n SensorNoise) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"drive", n.Drive},
		{"tracking", n.Tracking},
		{"heading", n.Heading},
		{"inertial", n.Inertial},
	} {
		if !(v.val > 0) {
			return fmt.Errorf("invalid %s noise: %v", v.name, v.val)
		}
	}

	return nil
}

// Sensors synthesizes noisy measurements of a true state
type Sensors struct {
	// Drive observes drive wheel speeds
	Drive *odom.DriveWheels
	// Tracking observes tracking wheel speeds
	Tracking *odom.TrackingWheels
	// Heading observes heading
	Heading *odom.Heading
	// Inertial observes angular acceleration
	Inertial *odom.Inertial
	// sources sample noise of Drive, Tracking, Heading and Inertial
	sources [4]filter.Noise
}

// NewSensors creates sensors of a platform with dimensions d and noise n and returns them.
// Noise samples are drawn from sources seeded with seed.
func NewSensors(d odom.Dimensions, n SensorNoise, seed uint64) (*Sensors, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	drive, err := diagNoise(seed, n.Drive, n.Drive)
	if err != nil {
		return nil, err
	}

	tracking, err := diagNoise(seed+1, n.Tracking, n.Tracking)
	if err != nil {
		return nil, err
	}

	heading, err := diagNoise(seed+2, n.Heading)
	if err != nil {
		return nil, err
	}

	inertial, err := diagNoise(seed+3, n.Inertial)
	if err != nil {
		return nil, err
	}

	s := &Sensors{sources: [4]filter.Noise{drive, tracking, heading, inertial}}
	if s.Drive, err = odom.NewDriveWheels(d.TrackWidth, drive); err != nil {
		return nil, err
	}

	if s.Tracking, err = odom.NewTrackingWheels(d.VertOffset, d.HoriOffset, tracking); err != nil {
		return nil, err
	}

	if s.Heading, err = odom.NewHeading(heading); err != nil {
		return nil, err
	}

	if s.Inertial, err = odom.NewInertial(inertial); err != nil {
		return nil, err
	}

	return s, nil
}

func diagNoise(seed uint64, std ...float64) (*noise.Gaussian, error) {
	cov := mat.NewSymDense(len(std), nil)
	for i, s := range std {
		cov.SetSym(i, i, s*s)
	}

	return noise.NewGaussianWithSeed(make([]float64, len(std)), cov, seed)
}

// sample observes state x through model m and corrupts the observation with noise r
func sample(m filter.MeasurementModel, r filter.Noise, x mat.Vector) (*filter.Measurement, error) {
	z, err := m.Observe(x)
	if err != nil {
		return nil, err
	}

	v := &mat.VecDense{}
	v.CloneFromVec(z)
	v.AddVec(v, r.Sample())
	if norm, ok := m.Ops().(filter.Normalizer); ok {
		norm.Normalize(v)
	}

	return &filter.Measurement{Value: v, Model: m}, nil
}

// Measure returns noisy measurements of all sensors of true state x in the following order:
// drive wheels, tracking wheels, heading, angular acceleration.
func (s *Sensors) Measure(x odom.State) ([]*filter.Measurement, error) {
	truth := x.Vector()
	out := make([]*filter.Measurement, 0, 4)

	models := []filter.MeasurementModel{s.Drive, s.Tracking, s.Heading, s.Inertial}
	for i, m := range models {
		z, err := sample(m, s.sources[i], truth)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}

	return out, nil
}
