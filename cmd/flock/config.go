package main

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/PrincetonUniversity/flock"
	"gopkg.in/yaml.v3"
)

// Config holds the various parameters required for running a simulation.
type Config struct {
	// Output is the path of the HDF5 file written by the record command.
	Output string `toml:"output" yaml:"output"`

	Size       int            `toml:"size" yaml:"size"`             // number of agents
	Steps      int            `toml:"steps" yaml:"steps"`           // number of time steps (record only)
	Dt         float64        `toml:"dt" yaml:"dt"`                 // duration of time steps
	Dimensions int            `toml:"dimensions" yaml:"dimensions"` // 1, 2 or 3
	Overflow   flock.Overflow `toml:"overflow" yaml:"overflow"`     // bind, wrap or bounce
	Seed       int64          `toml:"seed" yaml:"seed"`             // initial positions, 0 for a random seed
	LogLevel   string         `toml:"logLevel" yaml:"logLevel"`

	// Settings override the default flock settings by name.
	Settings map[string]float64 `toml:"settings" yaml:"settings"`

	// Events are scripted commands applied during the simulation.
	Events []Event `toml:"events" yaml:"events"`
}

// DefaultConf are the default parameters.
var DefaultConf = &Config{
	Output:     "",
	Size:       200,
	Steps:      1000,
	Dt:         1,
	Dimensions: 2,
	Overflow:   flock.Bind,
	Seed:       0,
	LogLevel:   "info",
}

// clone returns a deep copy of c.
func (c *Config) clone() *Config {
	n := *c
	n.Settings = maps.Clone(c.Settings)
	n.Events = slices.Clone(c.Events)
	return &n
}

// ParseConfig parses the TOML or YAML config file whose path is provided.
// The format is chosen from the file extension.
func ParseConfig(path string) (*Config, error) {
	// config file overwrites default parameters
	conf := DefaultConf.clone()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, conf)
		if err != nil {
			return nil, err
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("%s: unknown key %q", path, undec[0].String())
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(conf); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format %q", path, ext)
	}

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// validate checks the parts of the config that the flock does not check itself.
func (c *Config) validate() error {
	if c.Dt < 0 {
		return fmt.Errorf("negative dt %v", c.Dt)
	}
	if _, err := c.overrides(); err != nil {
		return err
	}
	for i := range c.Events {
		if err := c.Events[i].validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// overrides converts the settings table to flock overrides.
func (c *Config) overrides() (flock.Overrides, error) {
	o := make(flock.Overrides, len(c.Settings))
	for name, v := range c.Settings {
		f, err := flock.ParseField(name)
		if err != nil {
			return nil, err
		}
		o[f] = v
	}
	return o, nil
}
