package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/PrincetonUniversity/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseConfigTOML(t *testing.T) {
	path := writeFile(t, "run.toml", `
output = "out/run.h5"
size = 50
dimensions = 3
overflow = "wrap"
seed = 7

[settings]
repulsion = 0.3
alignment = 0

[[events]]
step = 10
kind = "seek"
point = [0.5, 0.5, 0.5]

[[events]]
step = 20
kind = "scatter"
strength = 3
`)

	conf, err := ParseConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "out/run.h5", conf.Output)
	assert.Equal(t, 50, conf.Size)
	assert.Equal(t, 3, conf.Dimensions)
	assert.Equal(t, flock.Wrap, conf.Overflow)
	assert.Equal(t, int64(7), conf.Seed)
	assert.Equal(t, DefaultConf.Steps, conf.Steps, "missing keys keep defaults")
	assert.Equal(t, DefaultConf.Dt, conf.Dt)
	assert.Equal(t, map[string]float64{"repulsion": 0.3, "alignment": 0}, conf.Settings)
	require.Len(t, conf.Events, 2)
	assert.Equal(t, Event{Step: 10, Kind: "seek", Point: []float64{0.5, 0.5, 0.5}}, conf.Events[0])
	assert.Equal(t, Event{Step: 20, Kind: "scatter", Strength: 3}, conf.Events[1])

	o, err := conf.overrides()
	require.NoError(t, err)
	assert.Equal(t, flock.Overrides{flock.Repulsion: 0.3, flock.Alignment: 0}, o)
}

func TestParseConfigYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
size: 20
overflow: bounce
logLevel: debug
settings:
  targetSpeed: 0.1
events:
  - step: 5
    kind: flee
    point: [0.2, 0.8]
`)

	conf, err := ParseConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20, conf.Size)
	assert.Equal(t, flock.Bounce, conf.Overflow)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, DefaultConf.Dimensions, conf.Dimensions)
	assert.Equal(t, map[string]float64{"targetSpeed": 0.1}, conf.Settings)
	assert.Equal(t, []Event{{Step: 5, Kind: "flee", Point: []float64{0.2, 0.8}}}, conf.Events)
}

func TestParseConfigDoesNotAlterDefaults(t *testing.T) {
	want := *DefaultConf
	path := writeFile(t, "run.toml", "size = 3\n[settings]\nrepulsion = 1\n")

	_, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, *DefaultConf)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown setting", "a.toml", "[settings]\nspeed = 1\n"},
		{"unknown key", "a.toml", "sise = 3\n"},
		{"unknown yaml key", "a.yaml", "sise: 3\n"},
		{"bad overflow", "a.toml", `overflow = "clamp"`},
		{"negative dt", "a.toml", "dt = -1\n"},
		{"bad event kind", "a.toml", "[[events]]\nstep = 1\nkind = \"jump\"\n"},
		{"missing event kind", "a.yaml", "events:\n  - step: 1\n"},
		{"seek without point", "a.toml", "[[events]]\nkind = \"seek\"\n"},
		{"negative event step", "a.toml", "[[events]]\nstep = -1\nkind = \"gather\"\n"},
		{"malformed", "a.toml", "size = \n"},
		{"unsupported format", "a.json", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := ParseConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
