package main

import (
	"log/slog"
	"testing"

	"github.com/PrincetonUniversity/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSetup(t *testing.T) {
	conf := DefaultConf.clone()
	conf.Size = 12
	conf.Dimensions = 3
	conf.Overflow = flock.Wrap
	conf.Seed = 42
	conf.Settings = map[string]float64{"attraction": 0}

	s, err := setup(conf, quiet())
	require.NoError(t, err)
	assert.Equal(t, 12, s.flock.Len())
	assert.Equal(t, 3, s.flock.Dimensions())
	assert.Equal(t, flock.Wrap, s.flock.Settings().Overflow)
	assert.Equal(t, 0.0, s.flock.Settings().Attraction)

	// same seed, same initial positions
	again, err := setup(conf, quiet())
	require.NoError(t, err)
	assert.Equal(t, s.flock.Bodies(), again.flock.Bodies())
}

func TestSetupInvalid(t *testing.T) {
	conf := DefaultConf.clone()
	conf.Dimensions = 4
	_, err := setup(conf, quiet())
	assert.ErrorIs(t, err, flock.ErrInvalidConfig)

	conf = DefaultConf.clone()
	conf.Settings = map[string]float64{"nope": 1}
	_, err = setup(conf, quiet())
	assert.Error(t, err)
}

func TestEventsFireBeforeTheirTick(t *testing.T) {
	conf := DefaultConf.clone()
	conf.Size = 4
	conf.Seed = 1
	conf.Events = []Event{
		{Step: 3, Kind: "seek", Point: []float64{0.5, 0.5}, Strength: 1, Duration: 10},
		{Step: 1, Kind: "scatter"},
		{Step: 1, Kind: "flee", Point: []float64{0.1}},
	}

	s, err := setup(conf, quiet())
	require.NoError(t, err)

	require.NoError(t, s.step())
	assert.False(t, s.flock.Overlaid(), "no event at step 0")

	require.NoError(t, s.step())
	assert.True(t, s.flock.Overlaid(), "scatter applied at step 1")
	flee, ok := s.flock.Abomination()
	require.True(t, ok)
	assert.Equal(t, flock.V(0.1), flee.Target)
	_, ok = s.flock.Fascination()
	assert.False(t, ok)

	require.NoError(t, s.step())
	_, ok = s.flock.Fascination()
	assert.False(t, ok, "seek not applied before step 3")

	require.NoError(t, s.step())
	seek, ok := s.flock.Fascination()
	require.True(t, ok)
	assert.Equal(t, flock.V(0.5, 0.5), seek.Target)
	assert.InDelta(t, 0.9, seek.Strength, 1e-12, "one tick of decay")
	assert.Equal(t, 4, s.flock.Steps())
	assert.Equal(t, 3, s.next)
}

func TestEventApply(t *testing.T) {
	f, err := flock.New(flock.Config{Size: 2})
	require.NoError(t, err)

	(&Event{Kind: "gather", Strength: 2, Duration: 10}).apply(f)
	assert.True(t, f.Overlaid())
	assert.Less(t, f.Settings().RepulsionThresholdDist, f.Baseline().RepulsionThresholdDist)
}
