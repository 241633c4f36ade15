package odom

import (
	"fmt"
	"math"
	"time"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/kalman/ukf"
	"github.com/milosgajdos/go-odom/model"
	"github.com/milosgajdos/go-odom/sigma"
	"github.com/milosgajdos/go-odom/ut"
	"gonum.org/v1/gonum/mat"
)

// Config configures odometry filter
type Config struct {
	// Sigma configures sigma point generation
	Sigma sigma.Config
	// InitialMean is initial state; zero state if nil
	InitialMean []float64
	// InitialCov is initial state covariance
	InitialCov mat.Symmetric
	// ProcessNoise is process noise covariance added on every prediction; none if nil
	ProcessNoise mat.Symmetric
	// JerkNoise are standard deviations of white acceleration increments [per s] of x, y and
	// theta axes which scale process noise with prediction step; a single value applies to all axes
	JerkNoise []float64
	// Dimensions describes platform geometry
	Dimensions Dimensions
}

// Validate returns error if the config is invalid.
func (c *Config) Validate() error {
	if _, err := sigma.Lambda(Dim, &c.Sigma); err != nil {
		return err
	}

	if c.InitialMean != nil && len(c.InitialMean) != Dim {
		return fmt.Errorf("invalid initial mean dimension: %d, expected %d", len(c.InitialMean), Dim)
	}

	if c.InitialCov == nil || c.InitialCov.SymmetricDim() != Dim {
		return fmt.Errorf("invalid initial covariance")
	}

	if c.ProcessNoise != nil && c.ProcessNoise.SymmetricDim() != Dim {
		return fmt.Errorf("invalid process noise dimension: %d, expected %d", c.ProcessNoise.SymmetricDim(), Dim)
	}

	switch len(c.JerkNoise) {
	case 0, 1, 3:
	default:
		return fmt.Errorf("invalid number of jerk noise values: %d", len(c.JerkNoise))
	}

	for _, s := range c.JerkNoise {
		if !(s >= 0) || math.IsInf(s, 0) {
			return fmt.Errorf("invalid jerk noise: %v", s)
		}
	}

	return c.Dimensions.Validate()
}

// Snapshot stores odometry state which can be restored later
type Snapshot struct {
	// Estimate is filter estimate
	Estimate filter.Estimate
	// Time is timestamp of the estimate
	Time time.Time
}

// Odometry estimates planar pose using Unscented Kalman Filter.
// It is not safe for concurrent use.
type Odometry struct {
	// c is odometry configuration
	c Config
	// ukf is the underlying filter
	ukf *ukf.UKF
	// process is the kinematic process model with constant process noise
	process *model.Kinematic
	// time is timestamp of the last prediction; zero until set
	time time.Time
}

// New creates new Odometry and returns it.
// It returns error if the config is invalid or the filter fails to be created.
func New(c *Config) (*Odometry, error) {
	if c == nil {
		return nil, fmt.Errorf("nil config")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	mean := mat.NewVecDense(Dim, nil)
	if c.InitialMean != nil {
		mean = mat.NewVecDense(Dim, append([]float64(nil), c.InitialMean...))
	}

	init, err := model.NewInitCond(mean, c.InitialCov)
	if err != nil {
		return nil, err
	}

	f, err := ukf.New(init, &ukf.Config{
		Sigma:    c.Sigma,
		StateOps: ut.NewAngular(int(Theta)),
	})
	if err != nil {
		return nil, err
	}

	process, err := model.NewKinematic(Dim, c.ProcessNoise, int(X), int(Y), int(Theta))
	if err != nil {
		return nil, err
	}

	conf := *c
	conf.InitialMean = append([]float64(nil), c.InitialMean...)
	conf.JerkNoise = append([]float64(nil), c.JerkNoise...)

	return &Odometry{
		c:       conf,
		ukf:     f,
		process: process,
	}, nil
}

// step is the kinematic process model with process noise of a single prediction step
type step struct {
	*model.Kinematic
	q *mat.SymDense
}

// Noise returns process noise covariance of the step
func (s step) Noise() mat.Symmetric {
	return s.q
}

// noise returns process noise covariance for prediction step dt seconds
func (o *Odometry) noise(dt float64) (*mat.SymDense, error) {
	q := mat.NewSymDense(Dim, nil)
	q.CopySym(o.process.Noise())

	if len(o.c.JerkNoise) > 0 {
		// white acceleration increments of spectral density s^2 accumulated over dt
		sigmas := make([]float64, len(o.c.JerkNoise))
		for i, s := range o.c.JerkNoise {
			sigmas[i] = s * math.Sqrt(dt)
		}

		jerk, err := o.process.WhiteNoiseAccel(dt, sigmas...)
		if err != nil {
			return nil, err
		}
		q.AddSym(q, jerk)
	}

	return q, nil
}

// processModel returns the process model of prediction step dt seconds
func (o *Odometry) processModel(dt float64) (filter.ProcessModel, error) {
	q, err := o.noise(dt)
	if err != nil {
		return nil, err
	}

	return step{Kinematic: o.process, q: q}, nil
}

func seconds(dt time.Duration) (float64, error) {
	if dt < 0 {
		return 0, fmt.Errorf("invalid time step: %v", dt)
	}

	return dt.Seconds(), nil
}

// Predict advances odometry state by dt.
// It returns error if dt is negative or the prediction fails, in which case state is not changed.
func (o *Odometry) Predict(dt time.Duration) error {
	s, err := seconds(dt)
	if err != nil {
		return err
	}

	m, err := o.processModel(s)
	if err != nil {
		return err
	}

	if _, err := o.ukf.Predict(m, s); err != nil {
		return err
	}

	if !o.time.IsZero() {
		o.time = o.time.Add(dt)
	}

	return nil
}

// PredictTo advances odometry state to time t. The first call only sets the reference time.
// It returns error if t is before the time of the last prediction.
func (o *Odometry) PredictTo(t time.Time) error {
	if o.time.IsZero() {
		o.time = t
		return nil
	}

	if t.Before(o.time) {
		return fmt.Errorf("cannot predict into the past: %v is before %v", t, o.time)
	}

	s := t.Sub(o.time).Seconds()
	m, err := o.processModel(s)
	if err != nil {
		return err
	}

	if _, err := o.ukf.Predict(m, s); err != nil {
		return err
	}
	o.time = t

	return nil
}

// Forecast returns state estimate dt ahead without changing odometry state.
func (o *Odometry) Forecast(dt time.Duration) (View, error) {
	s, err := seconds(dt)
	if err != nil {
		return View{}, err
	}

	m, err := o.processModel(s)
	if err != nil {
		return View{}, err
	}

	est, err := o.ukf.Forecast(m, s)
	if err != nil {
		return View{}, err
	}

	return newView(est.Val(), est.Cov())
}

// Update corrects odometry state using measurement z.
// It returns error if the update fails, in which case state is not changed.
func (o *Odometry) Update(z *filter.Measurement) error {
	_, err := o.ukf.Update(z)
	return err
}

// State returns current state estimate
func (o *Odometry) State() View {
	v, _ := newView(o.ukf.State(), o.ukf.Cov())
	return v
}

// Time returns timestamp of the last prediction; zero if it has not been set
func (o *Odometry) Time() time.Time {
	return o.time
}

// SetTime sets timestamp of the current state
func (o *Odometry) SetTime(t time.Time) {
	o.time = t
}

// Dimensions returns platform dimensions
func (o *Odometry) Dimensions() Dimensions {
	return o.c.Dimensions
}

// Filter returns the underlying Kalman filter
func (o *Odometry) Filter() *ukf.UKF {
	return o.ukf
}

// Snapshot returns current state which can be passed to Restore.
func (o *Odometry) Snapshot() Snapshot {
	return Snapshot{
		Estimate: o.ukf.Snapshot(),
		Time:     o.time,
	}
}

// Restore resets odometry state to snapshot s.
func (o *Odometry) Restore(s Snapshot) error {
	if err := o.ukf.Restore(s.Estimate); err != nil {
		return err
	}
	o.time = s.Time

	return nil
}
