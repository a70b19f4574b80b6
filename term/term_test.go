package term

import (
	"testing"

	"github.com/PrincetonUniversity/flock"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type command struct {
	kind     string
	point    flock.Vec
	strength float64
}

type recorder struct {
	bodies []flock.Agent
	steps  int
	calls  []command
}

func (r *recorder) AppendBodies(dst []flock.Agent) []flock.Agent {
	return append(dst, r.bodies...)
}

func (r *recorder) Steps() int     { return r.steps }
func (r *recorder) Overlaid() bool { return false }

func (r *recorder) Scatter(strength float64, duration int) {
	r.calls = append(r.calls, command{kind: "scatter", strength: strength})
}

func (r *recorder) Gather(strength float64, duration int) {
	r.calls = append(r.calls, command{kind: "gather", strength: strength})
}

func (r *recorder) Seek(point flock.Vec, strength float64, duration int) {
	r.calls = append(r.calls, command{kind: "seek", point: point})
}

func (r *recorder) Flee(point flock.Vec, strength float64, duration int) {
	r.calls = append(r.calls, command{kind: "flee", point: point})
}

func newTestViewer(t *testing.T, r *recorder, pause bool) (*Viewer, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(10, 11)

	conf := &Config{
		Step: func() error {
			r.steps++
			return nil
		},
		ForcePause: pause,
		Control:    r,
	}
	return NewViewer(screen, r, conf), screen
}

func keyRune(ch rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, ch, tcell.ModNone)
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		v    flock.Vec
		want rune
	}{
		{flock.V(0, 0), '·'},
		{flock.V(1, 0), '→'},
		{flock.V(0, 1), '↑'},
		{flock.V(-1, 0), '←'},
		{flock.V(0, -1), '↓'},
		{flock.V(1, 1), '↗'},
		{flock.V(1, -1), '↘'},
		{flock.V(-0.01, -1), '↓'},
	}
	for _, tt := range tests {
		assert.Equal(t, string(tt.want), string(glyph(tt.v)), "velocity %v", tt.v)
	}
}

func TestDraw(t *testing.T) {
	a := flock.NewAgent(flock.V(0.05, 0.95), 2)
	require.NoError(t, a.SetVelocity(0, 1))
	b := flock.NewAgent(flock.V(1, 0), 2)
	out := flock.NewAgent(flock.V(1.5, 0.5), 2)
	r := &recorder{bodies: []flock.Agent{a, b, out}, steps: 7}
	v, screen := newTestViewer(t, r, false)

	v.Draw()

	ch, _, _, _ := screen.GetContent(0, 0)
	assert.Equal(t, "→", string(ch))
	ch, _, _, _ = screen.GetContent(9, 9)
	assert.Equal(t, "·", string(ch))

	var status []rune
	for x := 0; x < 10; x++ {
		ch, _, _, _ := screen.GetContent(x, 10)
		status = append(status, ch)
	}
	assert.Equal(t, "step 7  3 ", string(status))
}

func TestKeys(t *testing.T) {
	r := &recorder{}
	v, _ := newTestViewer(t, r, false)

	assert.True(t, v.Handle(keyRune(' ')))
	assert.True(t, v.Handle(keyRune('g')))
	require.Len(t, r.calls, 2)
	assert.Equal(t, command{kind: "scatter", strength: ScatterStrength}, r.calls[0])
	assert.Equal(t, "gather", r.calls[1].kind)

	assert.False(t, v.Handle(keyRune('q')))
	assert.False(t, v.Handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
}

func TestPauseAndStep(t *testing.T) {
	r := &recorder{}
	v, _ := newTestViewer(t, r, false)

	require.NoError(t, v.Advance())
	assert.Equal(t, 1, r.steps)

	v.Handle(keyRune('p'))
	assert.True(t, v.Paused())
	require.NoError(t, v.Advance())
	assert.Equal(t, 1, r.steps)

	v.Handle(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	require.NoError(t, v.Advance())
	require.NoError(t, v.Advance())
	assert.Equal(t, 2, r.steps)
	assert.True(t, v.Paused())

	v.Handle(keyRune('p'))
	require.NoError(t, v.Advance())
	assert.Equal(t, 3, r.steps)
}

func TestForcePause(t *testing.T) {
	r := &recorder{}
	v, _ := newTestViewer(t, r, true)

	v.Handle(keyRune('p'))
	require.NoError(t, v.Advance())
	assert.Equal(t, 0, r.steps)

	v.Handle(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	require.NoError(t, v.Advance())
	assert.Equal(t, 1, r.steps)
}

func TestMouse(t *testing.T) {
	r := &recorder{}
	v, _ := newTestViewer(t, r, false)

	assert.True(t, v.Handle(tcell.NewEventMouse(0, 9, tcell.ButtonPrimary, tcell.ModNone)))
	assert.True(t, v.Handle(tcell.NewEventMouse(9, 0, tcell.ButtonSecondary, tcell.ModNone)))
	assert.True(t, v.Handle(tcell.NewEventMouse(5, 5, tcell.ButtonNone, tcell.ModNone)))

	require.Len(t, r.calls, 2)
	assert.Equal(t, "seek", r.calls[0].kind)
	assert.InDeltaSlice(t, []float64{0.05, 0.05, 0.5}, r.calls[0].point[:], 1e-9)
	assert.Equal(t, "flee", r.calls[1].kind)
	assert.InDeltaSlice(t, []float64{0.95, 0.95, 0.5}, r.calls[1].point[:], 1e-9)
}
