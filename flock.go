// Package flock runs real-time flocking simulations of point agents.
//
// A fixed number of agents move in the unit hypercube of 1 to 3 dimensions.
// At every tick each agent in turn is steered by its neighbors (separation,
// cohesion, alignment), by optional point forces and by speed regulation,
// then moves. Agents are updated one after another, so an agent sees the
// already moved state of the agents before it in the same tick.
//
// Settings can be replaced outright or eased: an eased change jumps to the
// requested values and then returns linearly to the baseline over a number
// of ticks. Scatter and Gather are eased presets.
package flock

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
)

// boundary recall gain of the Bind policy
const bindGain = 0.001

// Defaults of the eased presets and point forces.
const (
	DefaultStrength        = 2
	DefaultScatterDuration = 100
	DefaultGatherDuration  = 1000
	DefaultForceDuration   = 1000
)

// Config contains the construction parameters of a flock.
type Config struct {
	// Size is the number of agents.
	Size int

	// Dimensions is 1, 2 or 3. Zero selects the default of 2.
	Dimensions int

	// Overflow is the boundary policy. The zero value is Bind.
	Overflow Overflow

	// Settings override the defaults of DefaultParams.
	Settings Overrides

	// Positions optionally gives the initial position of every agent.
	// When nil, positions are drawn uniformly in the unit hypercube.
	Positions []Vec

	// Rand is the source of initial positions. Nil uses the global source.
	Rand *rand.Rand
}

// A Flock owns a population of agents and the settings that drive them.
type Flock struct {
	agents []Agent
	set    settings

	fascination *PointForce // seek
	abomination *PointForce // flee

	steps int
	log   *slog.Logger
}

// New returns a flock built from c. Agents start at rest.
func New(c Config) (*Flock, error) {
	p := DefaultParams()
	if c.Dimensions != 0 {
		p.Dimensions = c.Dimensions
	}
	p.Overflow = c.Overflow

	switch {
	case c.Size < 0:
		return nil, fmt.Errorf("flock: negative size %d: %w", c.Size, ErrInvalidConfig)
	case p.Dimensions < 1 || p.Dimensions > MaxDimensions:
		return nil, fmt.Errorf("flock: %d dimensions: %w", p.Dimensions, ErrInvalidConfig)
	case p.Overflow < Bind || p.Overflow > Bounce:
		return nil, fmt.Errorf("flock: %v: %w", p.Overflow, ErrInvalidConfig)
	case c.Positions != nil && len(c.Positions) != c.Size:
		return nil, fmt.Errorf("flock: %d positions for %d agents: %w", len(c.Positions), c.Size, ErrInvalidConfig)
	}
	if err := c.Settings.validate(); err != nil {
		return nil, err
	}

	f := &Flock{
		agents: make([]Agent, c.Size),
		set:    settings{base: p.merge(c.Settings)},
		log:    slog.New(slog.DiscardHandler),
	}
	for i := range f.agents {
		var pos Vec
		if c.Positions != nil {
			pos = c.Positions[i]
		} else {
			for k := 0; k < p.Dimensions; k++ {
				if c.Rand != nil {
					pos[k] = c.Rand.Float64()
				} else {
					pos[k] = rand.Float64()
				}
			}
		}
		f.agents[i] = NewAgent(pos, p.Dimensions)
	}
	return f, nil
}

// SetLogger sets the logger receiving settings and force transitions.
// A nil logger discards them.
func (f *Flock) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	f.log = l
}

// Len returns the number of agents.
func (f *Flock) Len() int {
	return len(f.agents)
}

// Dimensions returns the dimensionality of the flock.
func (f *Flock) Dimensions() int {
	return f.set.base.Dimensions
}

// Steps returns the number of completed ticks.
func (f *Flock) Steps() int {
	return f.steps
}

// Bodies returns a copy of the agents in index order.
func (f *Flock) Bodies() []Agent {
	return f.AppendBodies(nil)
}

// AppendBodies appends a copy of the agents in index order to dst.
// Renderers reuse dst across frames to avoid allocations.
func (f *Flock) AppendBodies(dst []Agent) []Agent {
	return append(dst, f.agents...)
}

// Settings returns the settings in effect, overlay included.
func (f *Flock) Settings() Params {
	return f.set.effective()
}

// Baseline returns the settings the flock returns to once no overlay is active.
func (f *Flock) Baseline() Params {
	return f.set.base
}

// Overlaid reports whether a transient overlay is active.
func (f *Flock) Overlaid() bool {
	return f.set.over != nil
}

// SetSettings applies o to the baseline and discards any active overlay.
func (f *Flock) SetSettings(o Overrides) error {
	if err := o.validate(); err != nil {
		return err
	}
	f.set.replace(o)
	f.log.Debug("settings replaced", "overrides", len(o))
	return nil
}

// EaseSettings sets the fields of o immediately and lets them return
// linearly to the baseline over duration ticks. A duration of zero or less
// makes the change permanent, as SetSettings.
func (f *Flock) EaseSettings(o Overrides, duration int) error {
	if duration <= 0 {
		return f.SetSettings(o)
	}
	if err := o.validate(); err != nil {
		return err
	}
	f.set.ease(o, duration)
	f.log.Debug("settings overlay installed", "overrides", len(o), "duration", duration)
	return nil
}

// SetOverflow replaces the boundary policy.
func (f *Flock) SetOverflow(o Overflow) {
	f.set.base.Overflow = o
}

// Scatter disperses the flock: neighborhoods, cohesion and alignment shrink
// and repulsion grows by a factor strength, easing back over duration ticks.
// Non-positive arguments select DefaultStrength and DefaultScatterDuration.
func (f *Flock) Scatter(strength float64, duration int) {
	s := orStrength(strength)
	f.ease(Overrides{
		NeighborThresholdDist:  f.set.get(NeighborThresholdDist) / s,
		RepulsionThresholdDist: f.set.get(RepulsionThresholdDist) * s,
		Repulsion:              f.set.get(Repulsion) * s,
		Attraction:             f.set.get(Attraction) / s,
		Alignment:              f.set.get(Alignment) / s,
	}, orDuration(duration, DefaultScatterDuration))
}

// Gather is the inverse of Scatter: neighborhoods, cohesion and alignment
// grow and repulsion shrinks by a factor strength, easing back over duration ticks.
// Non-positive arguments select DefaultStrength and DefaultGatherDuration.
func (f *Flock) Gather(strength float64, duration int) {
	s := orStrength(strength)
	f.ease(Overrides{
		NeighborThresholdDist:  f.set.get(NeighborThresholdDist) * s,
		RepulsionThresholdDist: f.set.get(RepulsionThresholdDist) / s,
		Repulsion:              f.set.get(Repulsion) / s,
		Attraction:             f.set.get(Attraction) * s,
		Alignment:              f.set.get(Alignment) * s,
	}, orDuration(duration, DefaultGatherDuration))
}

func (f *Flock) ease(o Overrides, duration int) {
	f.set.ease(o, duration)
	f.log.Debug("settings overlay installed", "overrides", len(o), "duration", duration)
}

// Seek attracts every agent towards point with a strength fading out over
// duration ticks. It replaces any previous seek.
// Non-positive arguments select DefaultStrength and DefaultForceDuration.
func (f *Flock) Seek(point Vec, strength float64, duration int) {
	f.fascination = f.pointForce(point, strength, duration)
	f.log.Debug("seek installed", "target", f.fascination.Target, "strength", f.fascination.Strength)
}

// Flee repels every agent from point with a strength fading out over
// duration ticks. It replaces any previous flee.
// Non-positive arguments select DefaultStrength and DefaultForceDuration.
func (f *Flock) Flee(point Vec, strength float64, duration int) {
	f.abomination = f.pointForce(point, strength, duration)
	f.log.Debug("flee installed", "target", f.abomination.Target, "strength", f.abomination.Strength)
}

func (f *Flock) pointForce(point Vec, strength float64, duration int) *PointForce {
	var target Vec
	copy(target[:f.Dimensions()], point[:f.Dimensions()])
	return newPointForce(target, orStrength(strength), orDuration(duration, DefaultForceDuration))
}

// Fascination returns the active seek force, if any.
func (f *Flock) Fascination() (PointForce, bool) {
	if f.fascination == nil {
		return PointForce{}, false
	}
	return *f.fascination, true
}

// Abomination returns the active flee force, if any.
func (f *Flock) Abomination() (PointForce, bool) {
	if f.abomination == nil {
		return PointForce{}, false
	}
	return *f.abomination, true
}

// Tick advances the flock by one step of duration dt.
// Agents are updated in index order, each one completely before the next.
// An error wraps ErrInvalidValue and leaves the flock corrupted.
func (f *Flock) Tick(dt float64) error {
	p := f.set.effective()
	for i := range f.agents {
		if err := f.update(i, &p, dt); err != nil {
			return fmt.Errorf("flock: step %d, agent %d: %w", f.steps, i, err)
		}
	}

	if f.fascination != nil && f.fascination.fade() {
		f.fascination = nil
		f.log.Debug("seek expired", "step", f.steps)
	}
	if f.abomination != nil && f.abomination.fade() {
		f.abomination = nil
		f.log.Debug("flee expired", "step", f.steps)
	}
	if f.set.decay() {
		f.log.Debug("settings overlay converged", "step", f.steps)
	}
	f.steps++
	return nil
}

// update runs the whole pipeline for agent i.
func (f *Flock) update(i int, p *Params, dt float64) error {
	a := &f.agents[i]
	if err := f.enforceBounds(a, p); err != nil {
		return err
	}
	if err := a.addVelocity(f.repulsion(i, p)); err != nil {
		return err
	}
	if err := f.cohere(i, p); err != nil {
		return err
	}
	if f.fascination != nil {
		if err := a.addVelocity(f.fascination.pull(a.pos)); err != nil {
			return err
		}
	}
	if f.abomination != nil {
		if err := a.addVelocity(f.abomination.pull(a.pos).Scale(-1)); err != nil {
			return err
		}
	}
	if err := regulateSpeed(a, p); err != nil {
		return err
	}
	a.Advance(dt)
	return nil
}

// enforceBounds applies the overflow policy to an agent outside the unit hypercube.
func (f *Flock) enforceBounds(a *Agent, p *Params) error {
	switch p.Overflow {
	case Wrap:
		for k := 0; k < a.dims; k++ {
			if x := a.pos[k]; x < 0 || x >= 1 {
				a.SetPosition(k, x-math.Floor(x))
			}
		}
	case Bind:
		out := false
		for k := 0; k < a.dims; k++ {
			out = out || a.pos[k] < 0 || a.pos[k] > 1
		}
		if !out {
			return nil
		}
		var dv Vec
		for k := 0; k < a.dims; k++ {
			dv[k] = (0.5 - a.pos[k]) * bindGain
		}
		return a.addVelocity(dv)
	case Bounce:
		// only the upper boundary reflects
		for k := 0; k < a.dims; k++ {
			if a.pos[k] > 1 && a.vel[k] > 0 {
				if err := a.SetVelocity(k, -a.vel[k]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// repulsion returns the separation velocity change of agent i. Each agent
// closer than the repulsion threshold pushes along the separation vector with
// a weight falling from 1 at contact to 0 at the threshold.
func (f *Flock) repulsion(i int, p *Params) Vec {
	a := &f.agents[i]
	thr := p.RepulsionThresholdDist
	var dv Vec
	for j := range f.agents {
		if j == i {
			continue
		}
		b := &f.agents[j]
		d := a.pos.Dist(b.pos, a.dims)
		if d >= thr {
			continue
		}
		r := d / thr
		dv = dv.Add(a.pos.Sub(b.pos).Scale(p.Repulsion * (1 - r*r)))
	}
	return dv
}

// cohere steers agent i towards the centroid of its neighbors (attraction)
// and then towards their mean velocity (alignment).
func (f *Flock) cohere(i int, p *Params) error {
	a := &f.agents[i]
	var sumPos, sumVel Vec
	n := 0
	for j := range f.agents {
		if j == i {
			continue
		}
		b := &f.agents[j]
		if a.pos.Dist(b.pos, a.dims) > p.NeighborThresholdDist {
			continue
		}
		n++
		sumPos = sumPos.Add(b.pos)
		sumVel = sumVel.Add(b.vel)
	}
	if n == 0 {
		return nil
	}
	centroid := sumPos.Scale(1 / float64(n))
	if err := a.addVelocity(centroid.Sub(a.pos).Scale(p.Attraction)); err != nil {
		return err
	}
	avg := sumVel.Scale(1 / float64(n))
	return a.addVelocity(avg.Sub(a.vel).Scale(p.Alignment))
}

// regulateSpeed nudges the speed of a towards the target speed along its
// own direction. An agent at rest stays at rest.
func regulateSpeed(a *Agent, p *Params) error {
	v := a.vel.Norm()
	if v == 0 {
		return nil
	}
	d := p.TargetSpeed - v
	return a.addVelocity(a.vel.Scale(d * p.TargetSpeedMultiplier / v))
}

func orStrength(s float64) float64 {
	if !(s > 0) {
		return DefaultStrength
	}
	return s
}

func orDuration(d, def int) int {
	if d <= 0 {
		return def
	}
	return d
}
