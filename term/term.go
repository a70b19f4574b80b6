// Package term displays a running flock in a terminal.
//
// Agents are projected on the x/y plane and drawn as arrows pointing along
// their velocity. Keys: space scatters, g gathers, p pauses, right arrow
// steps while paused, Esc or q quits. A left click seeks the pointer and a
// right click flees it.
package term

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/PrincetonUniversity/flock"
	"github.com/gdamore/tcell/v2"
)

// ScatterStrength is the strength of the scatter bound to the space key.
const ScatterStrength = 3

// DefaultFrame is the frame period used when Config.Frame is zero.
const DefaultFrame = 16 * time.Millisecond

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

// status is implemented by sources that can report on the simulation.
type status interface {
	Steps() int
	Overlaid() bool
}

// Config holds the parameters of the terminal driver.
type Config struct {
	Step       func() error  // go to next step
	ForcePause bool          // step manually only?
	Frame      time.Duration // frame period
	Control    Controller    // nil disables scatter, gather, seek and flee
	Log        *slog.Logger  // may be nil
}

// A Viewer draws a flock on a tcell screen and routes input to it.
type Viewer struct {
	screen tcell.Screen
	src    Source
	conf   *Config
	log    *slog.Logger

	bodies []flock.Agent
	pause  bool
	step   bool
}

// NewViewer returns a viewer drawing src on an initialized screen.
func NewViewer(screen tcell.Screen, src Source, conf *Config) *Viewer {
	log := conf.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Viewer{screen: screen, src: src, conf: conf, log: log, pause: conf.ForcePause}
}

// Run opens the terminal and runs an interactive simulation until the user quits.
func Run(src Source, conf *Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	return NewViewer(screen, src, conf).Loop()
}

// Loop polls events and advances the simulation once per frame until the user quits.
func (v *Viewer) Loop() error {
	frame := v.conf.Frame
	if frame <= 0 {
		frame = DefaultFrame
	}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if !v.Handle(ev) {
				return nil
			}
		case <-ticker.C:
			if err := v.Advance(); err != nil {
				return err
			}
			v.Draw()
		}
	}
}

// Advance steps the simulation unless paused.
func (v *Viewer) Advance() error {
	if v.step {
		v.step = false
		v.pause = true
		return v.conf.Step()
	}
	if v.pause {
		return nil
	}
	return v.conf.Step()
}

// Handle processes an input event and reports whether the viewer should keep running.
func (v *Viewer) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRight:
			if v.pause {
				v.pause = false
				v.step = true
			}
		case tcell.KeyRune:
			return v.command(ev.Rune())
		}

	case *tcell.EventMouse:
		if v.conf.Control == nil {
			return true
		}
		x, y := ev.Position()
		switch {
		case ev.Buttons()&tcell.ButtonPrimary != 0:
			p := v.point(x, y)
			v.conf.Control.Seek(p, 0, 0)
			v.log.Debug("seek", "x", p[0], "y", p[1])
		case ev.Buttons()&tcell.ButtonSecondary != 0:
			p := v.point(x, y)
			v.conf.Control.Flee(p, 0, 0)
			v.log.Debug("flee", "x", p[0], "y", p[1])
		}

	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

// command runs the command bound to a rune key.
func (v *Viewer) command(r rune) bool {
	switch r {
	case 'q':
		return false
	case 'p':
		if !v.conf.ForcePause {
			v.pause = !v.pause
		}
	case ' ':
		if v.conf.Control != nil {
			v.conf.Control.Scatter(ScatterStrength, 0)
			v.log.Debug("scatter")
		}
	case 'g':
		if v.conf.Control != nil {
			v.conf.Control.Gather(0, 0)
			v.log.Debug("gather")
		}
	}
	return true
}

// Paused reports whether the simulation is paused.
func (v *Viewer) Paused() bool {
	return v.pause
}

// field returns the size of the drawing area; the last row holds the status line.
func (v *Viewer) field() (w, h int) {
	w, h = v.screen.Size()
	return w, h - 1
}

// cell maps a point of flock space to a screen cell.
func (v *Viewer) cell(p flock.Vec) (x, y int, ok bool) {
	w, h := v.field()
	if w <= 0 || h <= 0 || p[0] < 0 || p[0] > 1 || p[1] < 0 || p[1] > 1 {
		return 0, 0, false
	}
	x = min(int(p[0]*float64(w)), w-1)
	y = min(int((1-p[1])*float64(h)), h-1)
	return x, y, true
}

// point maps the center of a screen cell to flock space. The z axis is set to the middle.
func (v *Viewer) point(x, y int) flock.Vec {
	w, h := v.field()
	return flock.V((float64(x)+0.5)/float64(w), 1-(float64(y)+0.5)/float64(h), 0.5)
}

var arrows = [8]rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

// glyph returns the arrow closest to the direction of v on the x/y plane.
func glyph(v flock.Vec) rune {
	if v[0] == 0 && v[1] == 0 {
		return '·'
	}
	θ := math.Atan2(v[1], v[0])
	k := int(math.Round(θ/(math.Pi/4))+8) % 8
	return arrows[k]
}

// Draw renders the agents and the status line.
func (v *Viewer) Draw() {
	v.screen.Clear()
	v.bodies = v.src.AppendBodies(v.bodies[:0])

	near := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	far := tcell.StyleDefault.Foreground(tcell.ColorOlive)
	for i := range v.bodies {
		p := v.bodies[i].Position()
		x, y, ok := v.cell(p)
		if !ok {
			continue
		}
		style := near
		if v.bodies[i].Dimensions() == 3 && p[2] < 0.5 {
			style = far
		}
		v.screen.SetContent(x, y, glyph(v.bodies[i].Velocity()), nil, style)
	}

	v.drawStatus()
	v.screen.Show()
}

func (v *Viewer) drawStatus() {
	w, h := v.screen.Size()
	line := fmt.Sprintf("%d agents", len(v.bodies))
	if s, ok := v.src.(status); ok {
		line = fmt.Sprintf("step %d  %s", s.Steps(), line)
		if s.Overlaid() {
			line += "  easing"
		}
	}
	if v.pause {
		line += "  paused"
	}
	style := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range line {
		if col >= w {
			break
		}
		v.screen.SetContent(col, h-1, r, nil, style)
		col++
	}
}
