package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/milosgajdos/go-odom/odom"
	"github.com/milosgajdos/go-odom/ut"
	"gonum.org/v1/gonum/mat"
)

// Command is a motion command of a differential drive platform
type Command struct {
	// Speed is forward speed [m/s]
	Speed float64
	// TurnRate is angular velocity [rad/s]
	TurnRate float64
}

// Profile returns motion command at time t since the start of the simulation
type Profile func(t time.Duration) Command

// Ramp returns profile which linearly ramps up to cmd over rise and holds it afterwards.
func Ramp(cmd Command, rise time.Duration) Profile {
	return func(t time.Duration) Command {
		if rise <= 0 || t >= rise {
			return cmd
		}
		k := float64(t) / float64(rise)

		return Command{Speed: k * cmd.Speed, TurnRate: k * cmd.TurnRate}
	}
}

// Slalom returns profile which drives forward at speed while weaving with peak turn rate
// and given period. Speed ramps up over the first quarter of the period.
func Slalom(speed, turnRate float64, period time.Duration) Profile {
	ramp := Ramp(Command{Speed: speed}, period/4)

	return func(t time.Duration) Command {
		cmd := ramp(t)
		cmd.TurnRate = turnRate * math.Sin(2*math.Pi*float64(t)/float64(period))

		return cmd
	}
}

// Robot is a ground truth unicycle model of a differential drive platform
type Robot struct {
	// x is true odometry state
	x *mat.VecDense
	// speed is forward speed
	speed float64
	// t is time since start
	t time.Duration
}

// NewRobot creates new robot resting at pose p and returns it
func NewRobot(p odom.Pose) *Robot {
	x := mat.NewVecDense(odom.Dim, nil)
	x.SetVec(int(odom.X), p.X)
	x.SetVec(int(odom.Y), p.Y)
	x.SetVec(int(odom.Theta), ut.WrapAngle(p.Theta))

	return &Robot{x: x}
}

// Step executes command cmd for dt.
// Speed and turn rate change linearly over the step.
// It returns error if dt is not positive.
func (r *Robot) Step(dt time.Duration, cmd Command) error {
	if dt <= 0 {
		return fmt.Errorf("invalid time step: %v", dt)
	}
	s := dt.Seconds()

	old, err := odom.NewState(r.x)
	if err != nil {
		return err
	}

	refs, err := odom.NewRefs(r.x)
	if err != nil {
		return err
	}

	w0, w1 := old.ThetaVel(), cmd.TurnRate
	theta0 := old.Theta()
	theta1 := theta0 + 0.5*(w0+w1)*s

	sin0, cos0 := math.Sincos(theta0)
	sin1, cos1 := math.Sincos(theta1)
	vx0, vy0 := r.speed*cos0, r.speed*sin0
	vx1, vy1 := cmd.Speed*cos1, cmd.Speed*sin1

	refs.SetX(old.X() + 0.5*(vx0+vx1)*s)
	refs.SetY(old.Y() + 0.5*(vy0+vy1)*s)
	refs.SetXVel(vx1)
	refs.SetYVel(vy1)
	refs.SetXAccel((vx1 - vx0) / s)
	refs.SetYAccel((vy1 - vy0) / s)
	refs.SetTheta(ut.WrapAngle(theta1))
	refs.SetThetaVel(w1)
	refs.SetThetaAccel((w1 - w0) / s)

	r.speed = cmd.Speed
	r.t += dt

	return nil
}

// State returns a copy of true state
func (r *Robot) State() odom.State {
	s, _ := odom.NewState(r.x)
	return s
}

// Speed returns forward speed
func (r *Robot) Speed() float64 {
	return r.speed
}

// Time returns time since start
func (r *Robot) Time() time.Duration {
	return r.t
}
