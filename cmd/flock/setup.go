package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/PrincetonUniversity/flock"
)

// An Event is a command applied to the flock before the tick of a given step.
// Zero strength and duration select the defaults of the command.
type Event struct {
	Step     int       `toml:"step" yaml:"step"`
	Kind     string    `toml:"kind" yaml:"kind"` // scatter, gather, seek or flee
	Strength float64   `toml:"strength" yaml:"strength"`
	Duration int       `toml:"duration" yaml:"duration"`
	Point    []float64 `toml:"point" yaml:"point"` // seek and flee only
}

func (e *Event) validate() error {
	if e.Step < 0 {
		return fmt.Errorf("negative step %d", e.Step)
	}
	switch e.Kind {
	case "scatter", "gather":
		return nil
	case "seek", "flee":
		if len(e.Point) == 0 || len(e.Point) > flock.MaxDimensions {
			return fmt.Errorf("%s needs a point of 1 to %d coordinates", e.Kind, flock.MaxDimensions)
		}
		return nil
	case "":
		return errors.New("missing kind")
	}
	return fmt.Errorf("unknown kind %q", e.Kind)
}

func (e *Event) apply(f *flock.Flock) {
	switch e.Kind {
	case "scatter":
		f.Scatter(e.Strength, e.Duration)
	case "gather":
		f.Gather(e.Strength, e.Duration)
	case "seek":
		f.Seek(flock.V(e.Point...), e.Strength, e.Duration)
	case "flee":
		f.Flee(flock.V(e.Point...), e.Strength, e.Duration)
	}
}

// A sim is a flock advanced by a fixed time step with its scripted events.
type sim struct {
	flock  *flock.Flock
	dt     float64
	events []Event // sorted by step
	next   int     // index of the next event to apply
	log    *slog.Logger
}

// setup initializes the flock and the event script described by conf.
func setup(conf *Config, log *slog.Logger) (*sim, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	o, err := conf.overrides()
	if err != nil {
		return nil, err
	}

	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f, err := flock.New(flock.Config{
		Size:       conf.Size,
		Dimensions: conf.Dimensions,
		Overflow:   conf.Overflow,
		Settings:   o,
		Rand:       rand.New(rand.NewSource(seed)),
	})
	if err != nil {
		return nil, err
	}
	f.SetLogger(log)
	log.Debug("flock ready", "size", conf.Size, "dimensions", f.Dimensions(), "overflow", conf.Overflow, "seed", seed)

	s := &sim{
		flock:  f,
		dt:     conf.Dt,
		events: append([]Event(nil), conf.Events...),
		log:    log,
	}
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Step < s.events[j].Step
	})
	return s, nil
}

// step applies the events due at the current step, then ticks the flock.
func (s *sim) step() error {
	for s.next < len(s.events) && s.events[s.next].Step <= s.flock.Steps() {
		e := &s.events[s.next]
		e.apply(s.flock)
		s.log.Info("event", "step", s.flock.Steps(), "kind", e.Kind)
		s.next++
	}
	return s.flock.Tick(s.dt)
}
