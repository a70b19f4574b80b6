//go:build !nogl

package opengl

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/PrincetonUniversity/flock"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Run runs an interactive simulation in an OpenGL window.
func Run(s Source, conf *Config) error {
	log := conf.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	// init GLFW and OpenGL
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Samples, 4)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	// create OpenGL window
	const (
		title  = "Flock"
		width  = 800
		height = 800
	)
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return err
	}
	w.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return err
	}

	// set background color and enable alpha blending
	gl.Enable(gl.BLEND)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	w.SwapBuffers()

	// initialize OpenGL objects
	d, err := newDisplay(conf.MaxSwarmSize)
	if err != nil {
		return err
	}

	var bodies []flock.Agent
	redraw := func(vp viewport) {
		bodies = s.AppendBodies(bodies[:0])
		d.draw(bodies, vp)
		w.SwapBuffers()
	}

	// handle scrolling zoom
	vp := conf.viewport()
	w.SetScrollCallback(func(w *glfw.Window, xo, yo float64) {
		x, y := cursor(w)
		dx, dy := vp[1].X-vp[0].X, vp[1].Y-vp[0].Y
		z := 0.05 * float32(yo)
		vp[0].X += z * -(x * dx)
		vp[0].Y += z * -(y * dy)
		vp[1].X += z * (1 - x) * dx
		vp[1].Y += z * (1 - y) * dy
		redraw(vp)
	})

	// seek on left click, flee on right click
	w.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if conf.Control == nil || action != glfw.Press {
			return
		}
		x, y := cursor(w)
		p := flock.V(
			float64(vp[0].X+x*(vp[1].X-vp[0].X)),
			float64(vp[0].Y+y*(vp[1].Y-vp[0].Y)),
			0.5,
		)
		switch button {
		case glfw.MouseButtonLeft:
			conf.Control.Seek(p, 0, 0)
			log.Debug("seek", "x", p[0], "y", p[1])
		case glfw.MouseButtonRight:
			conf.Control.Flee(p, 0, 0)
			log.Debug("flee", "x", p[0], "y", p[1])
		}
	})

	var quit, step bool
	pause := conf.ForcePause
	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, mod glfw.ModifierKey) {
		if action == glfw.Press {
			switch key {
			case glfw.KeyEscape, glfw.KeyQ:
				quit = true
			case glfw.KeyP:
				if !conf.ForcePause {
					pause = !pause
				}
			case glfw.KeySpace:
				if conf.Control != nil {
					conf.Control.Scatter(ScatterStrength, 0)
					log.Debug("scatter")
				}
			case glfw.KeyG:
				if conf.Control != nil {
					conf.Control.Gather(0, 0)
					log.Debug("gather")
				}
			case glfw.KeyR:
				vp = conf.viewport()
				redraw(vp)
			}
		}
		if key == glfw.KeyRight && (action == glfw.Press || action == glfw.Repeat) {
			if pause {
				pause = false
				step = true
			}
		}
	})

	for !(quit || w.ShouldClose()) {
		if step {
			pause = true
			step = false
			if err := conf.Step(); err != nil {
				return err
			}
		}
		if !pause {
			if err := conf.Step(); err != nil {
				return err
			}
		}
		redraw(vp)
		glfw.PollEvents()
	}
	return nil
}

// cursor returns the cursor position as a fraction of the window, origin bottom left.
func cursor(w *glfw.Window) (x, y float32) {
	xc, yc := w.GetCursorPos()
	xs, ys := w.GetSize()
	return float32(xc) / float32(xs), (float32(ys) - float32(yc)) / float32(ys)
}

// display contains all the OpenGL objects required to display the simulation.
type display struct {
	vao  uint32    // vertex array object
	prog uint32    // agent program
	buf  uint32    // agent positions
	vp   int32     // viewport uniform
	max  int       // capacity of buf in agents
	data []float32 // staging area for buf
}

// floats per agent in the vertex buffer
const stride = flock.MaxDimensions

// draw updates the OpenGL buffers and draws the agents on screen.
func (d *display) draw(bodies []flock.Agent, vp viewport) {
	d.updateViewport(vp)
	n := d.updateAgents(bodies)

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(d.prog)
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.POINTS, 0, int32(n))
}

// updateViewport sends the new viewport to OpenGL.
func (d *display) updateViewport(vp viewport) {
	gl.UseProgram(d.prog)
	gl.Uniform2fv(d.vp, 2, &vp[0].X)
}

// updateAgents updates the OpenGL buffer containing agent positions
// and returns the number of agents uploaded.
func (d *display) updateAgents(bodies []flock.Agent) int {
	if len(bodies) > d.max {
		bodies = bodies[:d.max]
	}
	if len(bodies) == 0 {
		return 0
	}
	d.data = d.data[:0]
	for i := range bodies {
		p := bodies[i].Position()
		d.data = append(d.data, float32(p[0]), float32(p[1]), float32(p[2]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, 4*len(d.data), gl.Ptr(&d.data[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return len(bodies)
}

// newDisplay compiles shaders and initializes a display.
func newDisplay(maxSwarmSize int) (*display, error) {
	d := &display{max: maxSwarmSize, data: make([]float32, 0, stride*maxSwarmSize)}

	// compile and link shaders
	var err error
	d.prog, err = makeProg([]shader{
		{"Vertex", agentVert, gl.CreateShader(gl.VERTEX_SHADER)},
		{"Fragment", agentFrag, gl.CreateShader(gl.FRAGMENT_SHADER)},
	})
	if err != nil {
		return nil, err
	}

	// uniform location cannot be specified in the shaders in OpenGL 3.3 core
	d.vp = gl.GetUniformLocation(d.prog, gl.Str("vp\x00"))

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	gl.GenBuffers(1, &d.buf)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf)
	gl.BufferData(gl.ARRAY_BUFFER, 4*stride*maxSwarmSize, nil, gl.STREAM_DRAW)

	// attribute location is specified in the shader with layout(location=0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, stride, gl.FLOAT, false, int32(stride*unsafe.Sizeof(float32(0))), nil)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return d, nil
}

// A shader wraps an OpenGL shader.
type shader struct {
	name   string
	src    string
	shader uint32
}

// makeProg builds OpenGL programs.
func makeProg(shaders []shader) (uint32, error) {
	var fail bool
	for _, s := range shaders {
		str, free := gl.Strs(s.src + "\x00")
		gl.ShaderSource(s.shader, 1, str, nil)
		free()
		gl.CompileShader(s.shader)
		var status int32
		gl.GetShaderiv(s.shader, gl.COMPILE_STATUS, &status)
		if status != gl.TRUE {
			var n int32
			gl.GetShaderiv(s.shader, gl.INFO_LOG_LENGTH, &n)
			log := make([]uint8, n+1)
			gl.GetShaderInfoLog(s.shader, n, &n, &log[0])
			fmt.Printf("### %s shader compilation error ###\n\n%s\n\n", s.name, gl.GoStr(&log[0]))
			fail = true
			gl.DeleteShader(s.shader)
		}
	}
	if fail {
		return 0, fmt.Errorf("flock: GLSL errors")
	}
	prog := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(prog, s.shader)
	}
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status != gl.TRUE {
		return 0, fmt.Errorf("flock: GLSL link error")
	}
	return prog, nil
}

const agentVert = `#version 330 core
layout(location = 0) in vec3 pos;
uniform vec2 vp[2];
out float depth;
void main() {
	gl_Position = vec4(2.0 * (pos.xy - vp[0]) / (vp[1] - vp[0]) - 1.0, 0.0, 1.0);
	gl_PointSize = 3.0 + 3.0 * pos.z;
	depth = pos.z;
}
`

const agentFrag = `#version 330 core
in float depth;
out vec4 color;
void main() {
	color = vec4(1.0, 1.0, 0.0, 1.0 - 0.5 * depth);
}
`
