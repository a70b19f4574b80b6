package flock

// pointForceGain scales the pull of a point force.
const pointForceGain = 0.01

// A PointForce attracts (fascination) or repels (abomination) every agent
// from a fixed target with a strength that decays linearly each tick.
type PointForce struct {
	Target   Vec
	Strength float64
	Decay    float64 // added to Strength after every tick, negative
}

// newPointForce returns a force of the given strength fading out over duration ticks.
func newPointForce(target Vec, strength float64, duration int) *PointForce {
	return &PointForce{
		Target:   target,
		Strength: strength,
		Decay:    -strength / float64(duration),
	}
}

// pull returns the velocity change of an agent at pos drawn towards the target.
func (f *PointForce) pull(pos Vec) Vec {
	return f.Target.Sub(pos).Scale(pointForceGain * f.Strength)
}

// fade applies one tick of decay and reports whether the force is spent.
func (f *PointForce) fade() bool {
	f.Strength += f.Decay
	return f.Strength < 0
}
