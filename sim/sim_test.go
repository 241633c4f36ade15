package sim

import (
	"math"
	"os"
	"testing"
	"time"

	"github.com/milosgajdos/go-odom/odom"
	"github.com/milosgajdos/go-odom/sigma"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	sensorNoise SensorNoise
	odomConfig  *odom.Config
)

func setup() {
	sensorNoise = SensorNoise{
		Drive:    0.01,
		Tracking: 0.01,
		Heading:  0.005,
		Inertial: 0.05,
	}

	vars := []float64{1e-4, 1e-2, 1e-2, 1e-4, 1e-2, 1e-2, 1e-4, 1e-2, 1e-2}
	cov := mat.NewSymDense(odom.Dim, nil)
	q := mat.NewSymDense(odom.Dim, nil)
	for i, v := range vars {
		cov.SetSym(i, i, v)
		q.SetSym(i, i, 1e-6)
	}

	odomConfig = &odom.Config{
		Sigma: sigma.Config{
			Alpha: 1.0,
			Beta:  2.0,
			Kappa: 0.0,
		},
		InitialCov:   cov,
		ProcessNoise: q,
		JerkNoise:    []float64{1.0},
		Dimensions:   odom.DefaultDimensions(),
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

func TestProfiles(t *testing.T) {
	assert := assert.New(t)

	ramp := Ramp(Command{Speed: 2, TurnRate: 1}, time.Second)
	assert.Equal(Command{}, ramp(0))
	assert.Equal(Command{Speed: 1, TurnRate: 0.5}, ramp(500*time.Millisecond))
	assert.Equal(Command{Speed: 2, TurnRate: 1}, ramp(3*time.Second))

	slalom := Slalom(1, 0.5, 4*time.Second)
	cmd := slalom(time.Second)
	assert.Equal(1.0, cmd.Speed)
	assert.InDelta(0.5, cmd.TurnRate, 1e-12)
	assert.InDelta(0.0, slalom(2*time.Second).TurnRate, 1e-12)
}

func TestRobot(t *testing.T) {
	assert := assert.New(t)

	r := NewRobot(odom.Pose{})
	assert.NoError(r.Step(time.Second, Command{Speed: 1}))

	s := r.State()
	assert.InDelta(0.5, s.X(), 1e-12)
	assert.InDelta(1.0, s.XVel(), 1e-12)
	assert.InDelta(1.0, s.XAccel(), 1e-12)
	assert.InDelta(0.0, s.Y(), 1e-12)
	assert.Equal(1.0, r.Speed())
	assert.Equal(time.Second, r.Time())

	assert.NoError(r.Step(time.Second, Command{Speed: 1, TurnRate: 1}))
	s = r.State()
	assert.InDelta(0.5, s.Theta(), 1e-12)
	assert.InDelta(1.0, s.ThetaVel(), 1e-12)
	assert.InDelta(1.0, s.ThetaAccel(), 1e-12)
	assert.InDelta(math.Cos(0.5), s.XVel(), 1e-12)
	assert.InDelta(math.Sin(0.5), s.YVel(), 1e-12)

	assert.Error(r.Step(0, Command{}))

	// heading is wrapped
	r = NewRobot(odom.Pose{Theta: 3 * math.Pi / 2})
	assert.InDelta(-math.Pi/2, r.State().Theta(), 1e-12)
}

func TestSensors(t *testing.T) {
	assert := assert.New(t)

	s, err := NewSensors(odom.DefaultDimensions(), sensorNoise, 7)
	require.NoError(t, err)

	r := NewRobot(odom.Pose{Theta: math.Pi / 2})
	require.NoError(t, r.Step(100*time.Millisecond, Command{Speed: 1, TurnRate: 0.2}))

	zs, err := s.Measure(r.State())
	assert.NoError(err)
	assert.Len(zs, 4)

	dims := []int{2, 2, 1, 1}
	for i, z := range zs {
		assert.Equal(dims[i], z.Value.Len())
		want, err := z.Model.Observe(r.State().Vector())
		assert.NoError(err)

		// samples stay within 6 standard deviations
		for j := 0; j < z.Value.Len(); j++ {
			std := math.Sqrt(z.Model.Noise().At(j, j))
			assert.InDelta(want.AtVec(j), z.Value.AtVec(j), 6*std)
		}
	}

	// noise is reproducible
	s2, err := NewSensors(odom.DefaultDimensions(), sensorNoise, 7)
	require.NoError(t, err)
	zs2, err := s2.Measure(r.State())
	assert.NoError(err)
	assert.True(mat.Equal(zs[0].Value, zs2[0].Value))

	bad := sensorNoise
	bad.Heading = 0
	_, err = NewSensors(odom.DefaultDimensions(), bad, 7)
	assert.Error(err)
}

func TestSensorNoiseValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(sensorNoise.Validate())

	// the first invalid field is always reported
	bad := SensorNoise{Drive: 0.01, Tracking: -1, Heading: 0, Inertial: math.NaN()}
	for i := 0; i < 10; i++ {
		assert.EqualError(bad.Validate(), "invalid tracking noise: -1")
	}

	_, err := NewSensors(odom.DefaultDimensions(), bad, 7)
	assert.Error(err)
}

func TestConfig(t *testing.T) {
	assert := assert.New(t)

	c := &Config{Step: 10 * time.Millisecond, Duration: time.Second, Profile: Ramp(Command{Speed: 1}, 0)}
	assert.NoError(c.Validate())
	assert.Equal(100, c.Steps())

	for _, bad := range []Config{
		{Step: 0, Duration: time.Second, Profile: c.Profile},
		{Step: time.Second, Duration: time.Millisecond, Profile: c.Profile},
		{Step: time.Millisecond, Duration: time.Second, HeadingEvery: -1, Profile: c.Profile},
		{Step: time.Millisecond, Duration: time.Second},
	} {
		assert.Error(bad.Validate())
	}
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	o, err := odom.New(odomConfig)
	require.NoError(t, err)

	s, err := NewSensors(odomConfig.Dimensions, sensorNoise, 42)
	require.NoError(t, err)

	c := &Config{
		Step:         10 * time.Millisecond,
		Duration:     5 * time.Second,
		HeadingEvery: 5,
		Profile:      Slalom(1.0, 0.5, 4*time.Second),
	}

	res, err := Run(o, NewRobot(odom.Pose{}), s, c)
	require.NoError(t, err)

	rows, cols := res.Estimate.Dims()
	assert.Equal(500, rows)
	assert.Equal(odom.Dim, cols)
	rows, cols = res.DeadReckoning.Dims()
	assert.Equal(500, rows)
	assert.Equal(3, cols)

	assert.Less(res.EstimateRMSE(), 0.25)
	assert.False(math.IsNaN(res.DeadReckoningRMSE()))

	last := rows - 1
	assert.Greater(res.Truth.At(last, int(odom.X)), 3.0)
	assert.InDelta(res.Truth.At(last, int(odom.Theta)), res.Estimate.At(last, int(odom.Theta)), 0.05)
	for k := 0; k < odom.Dim; k++ {
		assert.False(math.IsNaN(res.Std.At(last, k)))
	}

	xy := XY(res.Truth)
	assert.Equal(res.Truth.At(last, int(odom.Y)), xy.At(last, 1))

	plt, err := NewTrajectoryPlot(xy, res.DeadReckoning, XY(res.Estimate))
	assert.NoError(err)
	assert.NotNil(plt)

	// invalid config
	_, err = Run(o, NewRobot(odom.Pose{}), s, &Config{})
	assert.Error(err)
}

func TestPositionRMSE(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{0, 0, 3, 4})
	b := mat.NewDense(2, 2, []float64{0, 0, 0, 0})
	assert.InDelta(math.Sqrt(12.5), PositionRMSE(a, 0, 1, b, 0, 1), 1e-12)
}
