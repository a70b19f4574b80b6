package flock

import (
	"fmt"
	"math"
	"strings"
)

// A Field names one of the numeric settings of a flock.
type Field int

// Numeric settings.
const (
	NeighborThresholdDist  Field = iota // radius of cohesion and alignment
	RepulsionThresholdDist              // radius of separation
	Repulsion                           // separation strength
	Attraction                          // cohesion strength
	Alignment                           // alignment strength
	TargetSpeed                         // cruising speed
	TargetSpeedMultiplier               // rate of convergence to TargetSpeed
	numFields
)

var fieldNames = [numFields]string{
	"neighborThresholdDist",
	"repulsionThresholdDist",
	"repulsion",
	"attraction",
	"alignment",
	"targetSpeed",
	"targetSpeedMultiplier",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField returns the field with the given name. Matching ignores case.
func ParseField(name string) (Field, error) {
	for f, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(f), nil
		}
	}
	return 0, fmt.Errorf("flock: unknown setting %q", name)
}

// Fields returns all numeric settings in declaration order.
func Fields() []Field {
	fs := make([]Field, numFields)
	for i := range fs {
		fs[i] = Field(i)
	}
	return fs
}

// Overflow is the policy applied to agents leaving the unit hypercube.
type Overflow int

// Overflow policies.
const (
	Bind   Overflow = iota // soft recall towards the center
	Wrap                   // toroidal space
	Bounce                 // reflect off the upper boundary
)

var overflowNames = [...]string{"bind", "wrap", "bounce"}

func (o Overflow) String() string {
	if o < 0 || int(o) >= len(overflowNames) {
		return fmt.Sprintf("Overflow(%d)", int(o))
	}
	return overflowNames[o]
}

// ParseOverflow returns the policy with the given name. Matching ignores case.
func ParseOverflow(name string) (Overflow, error) {
	for o, n := range overflowNames {
		if strings.EqualFold(n, name) {
			return Overflow(o), nil
		}
	}
	return 0, fmt.Errorf("flock: unknown overflow policy %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (o Overflow) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Overflow) UnmarshalText(text []byte) error {
	v, err := ParseOverflow(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Params is a complete set of flock settings.
type Params struct {
	NeighborThresholdDist  float64
	RepulsionThresholdDist float64
	Repulsion              float64
	Attraction             float64
	Alignment              float64
	TargetSpeed            float64
	TargetSpeedMultiplier  float64

	Dimensions int      // 1, 2 or 3
	Overflow   Overflow // boundary policy
}

// DefaultParams returns the default settings.
func DefaultParams() Params {
	return Params{
		NeighborThresholdDist:  0.2,
		RepulsionThresholdDist: 0.07,
		Repulsion:              0.25,
		Attraction:             0.01,
		Alignment:              0.02,
		TargetSpeed:            0.05,
		TargetSpeedMultiplier:  0.15,
		Dimensions:             2,
		Overflow:               Bind,
	}
}

// Get returns the value of a numeric field.
func (p Params) Get(f Field) float64 {
	switch f {
	case NeighborThresholdDist:
		return p.NeighborThresholdDist
	case RepulsionThresholdDist:
		return p.RepulsionThresholdDist
	case Repulsion:
		return p.Repulsion
	case Attraction:
		return p.Attraction
	case Alignment:
		return p.Alignment
	case TargetSpeed:
		return p.TargetSpeed
	case TargetSpeedMultiplier:
		return p.TargetSpeedMultiplier
	}
	panic(fmt.Sprintf("flock: unknown field %d", int(f)))
}

func (p *Params) set(f Field, v float64) {
	switch f {
	case NeighborThresholdDist:
		p.NeighborThresholdDist = v
	case RepulsionThresholdDist:
		p.RepulsionThresholdDist = v
	case Repulsion:
		p.Repulsion = v
	case Attraction:
		p.Attraction = v
	case Alignment:
		p.Alignment = v
	case TargetSpeed:
		p.TargetSpeed = v
	case TargetSpeedMultiplier:
		p.TargetSpeedMultiplier = v
	default:
		panic(fmt.Sprintf("flock: unknown field %d", int(f)))
	}
}

// Overrides maps fields to new values. A field absent from the map keeps
// its previous value; a present field is honored even when it is zero.
type Overrides map[Field]float64

// validate rejects unknown fields and non-finite values.
func (o Overrides) validate() error {
	for f, v := range o {
		if f < 0 || f >= numFields {
			return fmt.Errorf("flock: setting %v: %w", f, ErrInvalidConfig)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("flock: setting %v = %v: %w", f, v, ErrInvalidValue)
		}
	}
	return nil
}

// merge returns p with the fields of o applied.
func (p Params) merge(o Overrides) Params {
	for f, v := range o {
		p.set(f, v)
	}
	return p
}

// transient is one overlaid field easing back to its baseline value.
type transient struct {
	on   bool    // field is overlaid
	val  float64 // current value
	step float64 // change per tick
}

// An overlay holds the transient deviations from the baseline.
// A nil *overlay means the settings are at baseline.
type overlay [numFields]transient

// settings is the two-layer parameter state of a flock:
// an authoritative baseline plus an optional transient overlay.
type settings struct {
	base Params
	over *overlay
}

func (s *settings) get(f Field) float64 {
	if s.over != nil && s.over[f].on {
		return s.over[f].val
	}
	return s.base.Get(f)
}

// effective returns the baseline with the overlay applied.
func (s *settings) effective() Params {
	p := s.base
	if s.over != nil {
		for f, t := range s.over {
			if t.on {
				p.set(Field(f), t.val)
			}
		}
	}
	return p
}

// replace applies o to the baseline and drops any overlay.
func (s *settings) replace(o Overrides) {
	s.base = s.base.merge(o)
	s.over = nil
}

// ease overlays o on top of the current values. Each overlaid field starts
// at its override and moves linearly by (effective - override) / duration per tick.
// Fields still easing from a previous overlay and not named in o keep easing.
func (s *settings) ease(o Overrides, duration int) {
	next := new(overlay)
	if s.over != nil {
		*next = *s.over
	}
	for f, v := range o {
		next[f] = transient{
			on:   true,
			val:  v,
			step: (s.get(f) - v) / float64(duration),
		}
	}
	s.over = next
}

// convergence tolerance as a fraction of a step
const tolerance = 1e-6

// decay advances the overlay by one tick. A field that reaches or crosses its
// baseline snaps to it and stops; once all fields have stopped the overlay
// is discarded. It reports whether the overlay was discarded.
func (s *settings) decay() bool {
	if s.over == nil {
		return false
	}
	pending := 0
	for f := range s.over {
		t := &s.over[f]
		if !t.on {
			continue
		}
		base := s.base.Get(Field(f))
		t.val += t.step
		eps := tolerance * math.Abs(t.step)
		switch {
		case t.step == 0,
			t.step < 0 && t.val <= base+eps,
			t.step > 0 && t.val >= base-eps:
			*t = transient{}
		default:
			pending++
		}
	}
	if pending == 0 {
		s.over = nil
		return true
	}
	return false
}
