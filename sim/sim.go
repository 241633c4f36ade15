// Package sim simulates a differential drive platform and runs odometry filter on its noisy sensors.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/milosgajdos/go-odom/odom"
	"gonum.org/v1/gonum/mat"
)

// Config configures simulation run
type Config struct {
	// Step is simulation time step
	Step time.Duration
	// Duration is simulated time
	Duration time.Duration
	// HeadingEvery is number of steps between heading measurements; no heading updates if 0
	HeadingEvery int
	// Profile drives the simulated platform
	Profile Profile
}

// Validate returns error if the config is invalid.
func (c *Config) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("invalid step: %v", c.Step)
	}

	if c.Duration < c.Step {
		return fmt.Errorf("invalid duration: %v", c.Duration)
	}

	if c.HeadingEvery < 0 {
		return fmt.Errorf("invalid heading measurement period: %d", c.HeadingEvery)
	}

	if c.Profile == nil {
		return fmt.Errorf("missing motion profile")
	}

	return nil
}

// Steps returns number of simulation steps
func (c *Config) Steps() int {
	return int(c.Duration / c.Step)
}

// Result stores simulation results: one row per step
type Result struct {
	// Truth stores true states
	Truth *mat.Dense
	// Estimate stores filter state means
	Estimate *mat.Dense
	// Std stores filter state standard deviations
	Std *mat.Dense
	// DeadReckoning stores x, y, theta integrated from noisy drive wheel speeds only
	DeadReckoning *mat.Dense
}

// Run simulates robot r driven by c.Profile, feeds noisy measurements of sensors s into odometry o
// and returns the results. The filter is expected to start at the robot's initial pose.
// It returns error if the config is invalid or if any filter step fails.
func Run(o *odom.Odometry, r *Robot, s *Sensors, c *Config) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	steps := c.Steps()
	res := &Result{
		Truth:         mat.NewDense(steps, odom.Dim, nil),
		Estimate:      mat.NewDense(steps, odom.Dim, nil),
		Std:           mat.NewDense(steps, odom.Dim, nil),
		DeadReckoning: mat.NewDense(steps, 3, nil),
	}

	start := r.State()
	dr := []float64{start.X(), start.Y(), start.Theta()}
	width := o.Dimensions().TrackWidth

	for i := 0; i < steps; i++ {
		if err := r.Step(c.Step, c.Profile(r.Time())); err != nil {
			return nil, err
		}

		if err := o.Predict(c.Step); err != nil {
			return nil, fmt.Errorf("step %d: predict: %w", i, err)
		}

		truth := r.State()
		zs, err := s.Measure(truth)
		if err != nil {
			return nil, fmt.Errorf("step %d: measure: %w", i, err)
		}

		for j, z := range zs {
			if z.Model == s.Heading && (c.HeadingEvery == 0 || (i+1)%c.HeadingEvery != 0) {
				continue
			}

			if err := o.Update(z); err != nil {
				return nil, fmt.Errorf("step %d: update %d: %w", i, j, err)
			}
		}

		// integrate drive wheel speeds
		left, right := zs[0].Value.AtVec(0), zs[0].Value.AtVec(1)
		v, w := (left+right)/2, (right-left)/width
		dr[2] += w * c.Step.Seconds()
		dr[0] += v * math.Cos(dr[2]) * c.Step.Seconds()
		dr[1] += v * math.Sin(dr[2]) * c.Step.Seconds()

		est := o.State()
		res.Truth.SetRow(i, truth.Vector().RawVector().Data)
		res.Estimate.SetRow(i, est.Mean().RawVector().Data)
		for k := 0; k < odom.Dim; k++ {
			res.Std.Set(i, k, est.Std(odom.Coeff(k)))
		}
		res.DeadReckoning.SetRow(i, dr)
	}

	return res, nil
}

// XY returns x and y columns of state matrix m
func XY(m *mat.Dense) *mat.Dense {
	rows, _ := m.Dims()
	xy := mat.NewDense(rows, 2, nil)
	xy.Slice(0, rows, 0, 1).(*mat.Dense).Copy(m.Slice(0, rows, int(odom.X), int(odom.X)+1))
	xy.Slice(0, rows, 1, 2).(*mat.Dense).Copy(m.Slice(0, rows, int(odom.Y), int(odom.Y)+1))

	return xy
}

// PositionRMSE returns root mean square error of positions in rows of a with respect to rows of b.
// Position is read from columns ax, ay of a and bx, by of b.
func PositionRMSE(a *mat.Dense, ax, ay int, b *mat.Dense, bx, by int) float64 {
	rows, _ := a.Dims()
	if rows == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < rows; i++ {
		dx := a.At(i, ax) - b.At(i, bx)
		dy := a.At(i, ay) - b.At(i, by)
		sum += dx*dx + dy*dy
	}

	return math.Sqrt(sum / float64(rows))
}

// EstimateRMSE returns position RMSE of filter estimates
func (r *Result) EstimateRMSE() float64 {
	return PositionRMSE(r.Estimate, int(odom.X), int(odom.Y), r.Truth, int(odom.X), int(odom.Y))
}

// DeadReckoningRMSE returns position RMSE of dead reckoning
func (r *Result) DeadReckoningRMSE() float64 {
	return PositionRMSE(r.DeadReckoning, 0, 1, r.Truth, int(odom.X), int(odom.Y))
}
