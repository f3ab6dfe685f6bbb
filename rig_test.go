package touchtrail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// rig is a context tracking one screen, driven by a manual clock.
type rig struct {
	in     *Input
	now    float64
	screen *Screen
	ctx    *Context
}

func newRig(t *testing.T, slots, depth int) *rig {
	t.Helper()
	r := &rig{}
	r.in = NewInput()
	r.in.Clock = func() float64 { return r.now }
	r.screen = r.in.AddScreen("Touchscreen", slots)
	s := DefaultSettings()
	s.MaxHistoryPerFinger = depth
	r.ctx = NewContext(r.in, "runtime", s)
	require.NoError(t, r.ctx.Enable())
	return r
}

func (r *rig) step() { r.in.Update(UpdateDynamic) }

func (r *rig) advance(dt float64) { r.now += dt }

func (r *rig) send(id int32, phase Phase, x, y float64) {
	r.screen.Send(TouchInput{ID: id, Phase: phase, Position: Vec2{x, y}, Pressure: 1})
}

func (r *rig) finger(i int) *Finger { return r.ctx.Fingers()[i] }

// phases lists the phases of touches in order.
func phases(ts []Touch) []Phase {
	out := make([]Phase, len(ts))
	for i, t := range ts {
		out[i] = t.Phase()
	}
	return out
}

// historyOf returns a finger's full history, newest first.
func historyOf(t *testing.T, f *Finger) []Touch {
	t.Helper()
	ts, err := f.TouchHistory().Touches()
	require.NoError(t, err)
	return ts
}
