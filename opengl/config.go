// Package opengl displays a running flock in an OpenGL window.
//
// Keys: space scatters, g gathers, p pauses, right arrow steps while paused,
// r resets the view, Esc or q quits. A left click seeks the pointer and a
// right click flees it. Scrolling zooms around the pointer.
package opengl

import (
	"log/slog"

	"github.com/PrincetonUniversity/flock"
)

// ScatterStrength is the strength of the scatter bound to the space key.
const ScatterStrength = 3

// A Source provides the agents to draw.
type Source interface {
	AppendBodies(dst []flock.Agent) []flock.Agent
}

// A Controller receives the commands bound to keys and mouse buttons.
type Controller interface {
	Scatter(strength float64, duration int)
	Gather(strength float64, duration int)
	Seek(point flock.Vec, strength float64, duration int)
	Flee(point flock.Vec, strength float64, duration int)
}

// Config holds the parameters of the OpenGL driver.
type Config struct {
	MaxSwarmSize int          // maximum swarm size
	Step         func() error // go to next step
	ForcePause   bool         // step manually only?
	Control      Controller   // nil disables scatter, gather, seek and flee
	Log          *slog.Logger // may be nil

	// bounds of default viewport
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// A viewport is a rectangle delimiting the area of simulation space shown on screen.
// The first point is the bottom left corner, the second point is the top right corner.
type viewport [2]struct{ X, Y float32 }

func (c *Config) viewport() viewport {
	return viewport{{float32(c.Xmin), float32(c.Ymin)}, {float32(c.Xmax), float32(c.Ymax)}}
}
