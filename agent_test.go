package flock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgentDropsInactiveAxes(t *testing.T) {
	a := NewAgent(V(0.1, 0.2, 0.3), 2)
	assert.Equal(t, V(0.1, 0.2), a.Position())
	assert.Equal(t, Vec{}, a.Velocity())
	assert.Equal(t, 2, a.Dimensions())
}

func TestSetVelocity(t *testing.T) {
	a := NewAgent(V(0.5, 0.5), 2)

	require.NoError(t, a.SetVelocity(1, -0.25))
	assert.Equal(t, V(0, -0.25), a.Velocity())

	err := a.SetVelocity(0, math.NaN())
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, V(0, -0.25), a.Velocity(), "rejected value must not be stored")

	assert.ErrorIs(t, a.SetVelocity(2, 1), ErrInvalidAxis)
	assert.ErrorIs(t, a.SetVelocity(-1, 1), ErrInvalidAxis)
}

func TestSetPosition(t *testing.T) {
	a := NewAgent(V(0.5), 1)
	a.SetPosition(0, 0.75)
	assert.Equal(t, V(0.75), a.Position())
	assert.Panics(t, func() { a.SetPosition(1, 0) })
}

func TestAdvance(t *testing.T) {
	a := NewAgent(V(0.5, 0.5, 0.5), 3)
	require.NoError(t, a.SetVelocity(0, 0.1))
	require.NoError(t, a.SetVelocity(2, -0.2))

	a.Advance(0.5)
	p := a.Position()
	assert.InDelta(t, 0.55, p[0], 1e-12)
	assert.InDelta(t, 0.5, p[1], 1e-12)
	assert.InDelta(t, 0.4, p[2], 1e-12)
}

func TestDistSymmetric(t *testing.T) {
	pts := []Vec{V(0, 0, 0), V(0.3, 0.4, 0.9), V(1, 0.2, 0.5), V(0.75, 0.75, 0.1)}
	for _, u := range pts {
		for _, v := range pts {
			for dims := 1; dims <= MaxDimensions; dims++ {
				assert.Equal(t, u.Dist(v, dims), v.Dist(u, dims))
			}
		}
	}
	assert.InDelta(t, 0.5, V(0, 0, 7).Dist(V(0.3, 0.4, -7), 2), 1e-12, "inactive axes are ignored")
}
