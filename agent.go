package flock

import (
	"fmt"
	"math"
)

// An Agent is a point body of the flock with a position and a velocity.
// Only the flock that owns an agent mutates it; Bodies hands out copies.
type Agent struct {
	pos  Vec // position, nominally in [0,1] on every active axis
	vel  Vec // velocity
	dims int // number of active axes
}

// NewAgent returns an agent at rest at position pos in a space of dims dimensions.
// Components of pos beyond dims are discarded.
func NewAgent(pos Vec, dims int) Agent {
	a := Agent{dims: dims}
	copy(a.pos[:dims], pos[:dims])
	return a
}

// Position returns the position of the agent.
func (a *Agent) Position() Vec {
	return a.pos
}

// Velocity returns the velocity of the agent.
func (a *Agent) Velocity() Vec {
	return a.vel
}

// Dimensions returns the number of active axes.
func (a *Agent) Dimensions() int {
	return a.dims
}

// SetVelocity replaces the velocity along one axis.
// A NaN value is rejected with ErrInvalidValue and leaves the agent untouched.
func (a *Agent) SetVelocity(axis int, v float64) error {
	if axis < 0 || axis >= a.dims {
		return fmt.Errorf("flock: velocity axis %d of %d: %w", axis, a.dims, ErrInvalidAxis)
	}
	if math.IsNaN(v) {
		return fmt.Errorf("flock: velocity axis %d: %w", axis, ErrInvalidValue)
	}
	a.vel[axis] = v
	return nil
}

// SetPosition replaces the position along one axis.
// It panics if axis is not an active axis.
func (a *Agent) SetPosition(axis int, v float64) {
	if axis < 0 || axis >= a.dims {
		panic(fmt.Sprintf("flock: position axis %d out of range [0,%d)", axis, a.dims))
	}
	a.pos[axis] = v
}

// Advance moves the agent along its velocity for a duration dt.
func (a *Agent) Advance(dt float64) {
	for i := 0; i < a.dims; i++ {
		a.pos[i] += a.vel[i] * dt
	}
}

// addVelocity adds dv to the velocity, axis by axis, through SetVelocity
// so that a NaN produced by a force is caught where it appears.
func (a *Agent) addVelocity(dv Vec) error {
	for i := 0; i < a.dims; i++ {
		if err := a.SetVelocity(i, a.vel[i]+dv[i]); err != nil {
			return err
		}
	}
	return nil
}
