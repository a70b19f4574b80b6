package main

import (
	"github.com/PrincetonUniversity/flock"
	"github.com/PrincetonUniversity/flock/hdf5"
)

// A replay plays back the agents of a recording, looping at the end.
type replay struct {
	*hdf5.Loader
	bodies []flock.Agent
}

func newReplay(path string) (*replay, error) {
	l, err := hdf5.NewLoader(path, "agents")
	if err != nil {
		return nil, err
	}
	r := &replay{Loader: l}
	if err := r.step(); err != nil {
		l.Close()
		return nil, err
	}
	return r, nil
}

// step loads the next recorded step.
func (r *replay) step() (err error) {
	r.bodies, err = r.Load(r.bodies)
	return err
}

// AppendBodies appends the agents of the current step to dst.
func (r *replay) AppendBodies(dst []flock.Agent) []flock.Agent {
	return append(dst, r.bodies...)
}
