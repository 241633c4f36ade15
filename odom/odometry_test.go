package odom

import (
	"errors"
	"math"
	"os"
	"testing"
	"time"

	filter "github.com/milosgajdos/go-odom"
	"github.com/milosgajdos/go-odom/sigma"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	initCov *mat.SymDense
	procCov *mat.SymDense
)

func setup() {
	vars := []float64{0.01, 1.0, 0.1, 0.01, 1.0, 0.1, 0.01, 0.1, 0.1}
	initCov = mat.NewSymDense(Dim, nil)
	procCov = mat.NewSymDense(Dim, nil)
	for i, v := range vars {
		initCov.SetSym(i, i, v)
		procCov.SetSym(i, i, 1e-6)
	}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func newConfig() *Config {
	return &Config{
		Sigma: sigma.Config{
			Alpha: 1.0,
			Beta:  2.0,
			Kappa: 0.0,
		},
		InitialCov:   initCov,
		ProcessNoise: procCov,
		JerkNoise:    []float64{0.5, 0.5, 0.2},
		Dimensions:   DefaultDimensions(),
	}
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	o, err := New(newConfig())
	assert.NotNil(o)
	assert.NoError(err)
	assert.True(o.Time().IsZero())
	assert.Equal(DefaultDimensions(), o.Dimensions())
	assert.NotNil(o.Filter())

	s := o.State()
	assert.Equal(0.0, s.X())
	assert.InDelta(0.1, s.Std(X), 1e-12)

	c := newConfig()
	c.InitialMean = []float64{1, 0, 0, 2, 0, 0, 0.5, 0, 0}
	o, err = New(c)
	assert.NoError(err)
	assert.Equal(Pose{Vec2: Vec2{X: 1, Y: 2}, Theta: 0.5}, o.State().Pose())

	// config is copied
	c.InitialMean[0] = 100
	c.JerkNoise[0] = 100
	assert.Equal(0.5, o.c.JerkNoise[0])

	o, err = New(nil)
	assert.Nil(o)
	assert.Error(err)
}

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(newConfig().Validate())

	for name, mutate := range map[string]func(c *Config){
		"sigma":         func(c *Config) { c.Sigma.Alpha = 0 },
		"mean":          func(c *Config) { c.InitialMean = []float64{1, 2} },
		"cov":           func(c *Config) { c.InitialCov = nil },
		"cov dims":      func(c *Config) { c.InitialCov = mat.NewSymDense(2, nil) },
		"process noise": func(c *Config) { c.ProcessNoise = mat.NewSymDense(3, nil) },
		"jerk count":    func(c *Config) { c.JerkNoise = []float64{1, 2} },
		"jerk value":    func(c *Config) { c.JerkNoise = []float64{-1} },
		"dimensions":    func(c *Config) { c.Dimensions.TrackWidth = -1 },
	} {
		c := newConfig()
		mutate(c)
		assert.Error(c.Validate(), name)

		o, err := New(c)
		assert.Nil(o, name)
		assert.Error(err, name)
	}

	// indefinite initial covariance
	c := newConfig()
	indef := mat.NewSymDense(Dim, nil)
	indef.CopySym(initCov)
	indef.SetSym(0, 0, -1)
	c.InitialCov = indef
	o, err := New(c)
	assert.Nil(o)
	assert.True(errors.Is(err, filter.ErrNotPSD))
}

func TestPredict(t *testing.T) {
	assert := assert.New(t)

	c := newConfig()
	c.InitialMean = []float64{0, 1, 0, 0, 0.5, 0, 0, 0.2, 0}
	o, err := New(c)
	require.NoError(t, err)

	before := o.State()
	assert.NoError(o.Predict(time.Second))

	s := o.State()
	assert.InDelta(1.0, s.X(), 1e-9)
	assert.InDelta(0.5, s.Y(), 1e-9)
	assert.InDelta(0.2, s.Theta(), 1e-9)
	assert.Greater(s.Std(X), before.Std(X))
	// time is not tracked until set
	assert.True(o.Time().IsZero())

	assert.Error(o.Predict(-time.Second))
	assert.True(mat.Equal(s.Mean(), o.State().Mean()))

	// heading is kept in (-Pi, Pi]
	c.InitialMean = []float64{0, 0, 0, 0, 0, 0, 3.0, 1.0, 0}
	o, err = New(c)
	require.NoError(t, err)
	assert.NoError(o.Predict(500 * time.Millisecond))
	assert.InDelta(3.5-2*math.Pi, o.State().Theta(), 1e-9)
}

func TestPredictTo(t *testing.T) {
	assert := assert.New(t)

	c := newConfig()
	c.InitialMean = []float64{0, 1, 0, 0, 0, 0, 0, 0, 0}
	o, err := New(c)
	require.NoError(t, err)

	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// first call only sets the reference time
	assert.NoError(o.PredictTo(t0))
	assert.Equal(t0, o.Time())
	assert.Equal(0.0, o.State().X())

	assert.NoError(o.PredictTo(t0.Add(250 * time.Millisecond)))
	assert.InDelta(0.25, o.State().X(), 1e-9)

	assert.NoError(o.Predict(250 * time.Millisecond))
	assert.Equal(t0.Add(500*time.Millisecond), o.Time())
	assert.InDelta(0.5, o.State().X(), 1e-9)

	err = o.PredictTo(t0)
	assert.Error(err)
	assert.Equal(t0.Add(500*time.Millisecond), o.Time())
	assert.InDelta(0.5, o.State().X(), 1e-9)
}

func TestForecast(t *testing.T) {
	assert := assert.New(t)

	c := newConfig()
	c.InitialMean = []float64{0, 1, 0, 0, 0, 0, 0, 0, 0}
	o, err := New(c)
	require.NoError(t, err)

	before := o.State()
	v, err := o.Forecast(2 * time.Second)
	assert.NoError(err)
	assert.InDelta(2.0, v.X(), 1e-9)

	after := o.State()
	assert.True(mat.Equal(before.Mean(), after.Mean()))
	assert.True(mat.Equal(before.Cov(), after.Cov()))

	_, err = o.Forecast(-time.Second)
	assert.Error(err)

	// step noise does not leak into the process model
	assert.True(mat.Equal(c.ProcessNoise, o.process.Noise()))
	assert.NoError(o.Predict(time.Second))
	assert.True(mat.Equal(c.ProcessNoise, o.process.Noise()))

	// forecasts of the same step are identical
	v1, err := o.Forecast(time.Second)
	assert.NoError(err)
	v2, err := o.Forecast(time.Second)
	assert.NoError(err)
	assert.True(mat.Equal(v1.Cov(), v2.Cov()))
}

func TestUpdate(t *testing.T) {
	assert := assert.New(t)

	o, err := New(newConfig())
	require.NoError(t, err)

	h, err := NewHeading(diag(t, 0.001))
	require.NoError(t, err)

	assert.NoError(o.Predict(10 * time.Millisecond))
	prior := o.State()

	assert.NoError(o.Update(h.Measurement(0.05)))
	post := o.State()
	assert.Less(post.Std(Theta), prior.Std(Theta))
	assert.Greater(post.Theta(), prior.Theta())
	assert.Less(post.Theta(), 0.05)

	// failed update leaves state untouched
	z := h.Measurement(0.05)
	z.Value = mat.NewVecDense(2, nil)
	assert.Error(o.Update(z))
	assert.True(mat.Equal(post.Mean(), o.State().Mean()))
}

func TestTracking(t *testing.T) {
	assert := assert.New(t)

	c := newConfig()
	o, err := New(c)
	require.NoError(t, err)

	d := c.Dimensions
	drive, err := NewDriveWheels(d.TrackWidth, diag(t, 0.0025, 0.0025))
	require.NoError(t, err)
	tracking, err := NewTrackingWheels(d.VertOffset, d.HoriOffset, diag(t, 0.0025, 0.0025))
	require.NoError(t, err)
	heading, err := NewHeading(diag(t, 0.0001))
	require.NoError(t, err)
	inertial, err := NewInertial(diag(t, 0.01))
	require.NoError(t, err)

	// drive straight along x axis at 1 m/s
	dt := 10 * time.Millisecond
	for i := 0; i < 300; i++ {
		require.NoError(t, o.Predict(dt))
		require.NoError(t, o.Update(drive.Measurement(1, 1)))
		require.NoError(t, o.Update(tracking.Measurement(1, 0)))
		require.NoError(t, o.Update(heading.Measurement(0)))
		require.NoError(t, o.Update(inertial.Measurement(0)))
	}

	s := o.State()
	assert.InDelta(1.0, s.XVel(), 0.05)
	assert.InDelta(0.0, s.YVel(), 0.05)
	assert.InDelta(0.0, s.ThetaVel(), 0.05)
	assert.InDelta(0.0, s.Theta(), 0.01)
	assert.Greater(s.X(), 2.0)

	cov := s.Cov()
	minEig := math.Inf(1)
	var eig mat.EigenSym
	require.True(t, eig.Factorize(cov, false))
	for _, v := range eig.Values(nil) {
		minEig = math.Min(minEig, v)
	}
	assert.GreaterOrEqual(minEig, -1e-12)
}

func TestSnapshotRestore(t *testing.T) {
	assert := assert.New(t)

	o, err := New(newConfig())
	require.NoError(t, err)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o.SetTime(t0)
	snap := o.Snapshot()

	assert.NoError(o.Predict(time.Second))
	assert.Equal(t0.Add(time.Second), o.Time())

	assert.NoError(o.Restore(snap))
	assert.Equal(t0, o.Time())
	assert.True(mat.Equal(snap.Estimate.Cov(), o.State().Cov()))

	assert.Error(o.Restore(Snapshot{}))
	assert.Equal(t0, o.Time())
}
