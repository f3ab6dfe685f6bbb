package touchtrail

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// activeSummary is a comparable view of an active touch.
type activeSummary struct {
	TouchID int32
	Phase   Phase
	Delta   Vec2
}

func summarize(ts []Touch) []activeSummary {
	out := make([]activeSummary, len(ts))
	for i, t := range ts {
		out[i] = activeSummary{TouchID: t.TouchID(), Phase: t.Phase(), Delta: t.Delta()}
	}
	return out
}

func assertActive(t *testing.T, ctx *Context, want ...activeSummary) {
	t.Helper()
	got := summarize(ctx.ActiveTouches())
	if want == nil {
		want = []activeSummary{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("active touches mismatch (-want +got):\n%s", diff)
	}
}

func TestActive_StationaryWhenNotUpdated(t *testing.T) {
	r := newRig(t, 2, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	assertActive(t, r.ctx, activeSummary{1, PhaseBegan, Vec2{}})

	r.step()
	r.step()
	assertActive(t, r.ctx, activeSummary{1, PhaseStationary, Vec2{}})

	// The authoritative history is untouched.
	assert.Equal(t, PhaseBegan, r.finger(0).LastTouch().Phase())
}

func TestActive_MovedDeltaIsMotionWithinStep(t *testing.T) {
	r := newRig(t, 1, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.step()
	r.send(1, PhaseMoved, 4, 0)
	r.send(1, PhaseMoved, 6, 0)
	assertActive(t, r.ctx, activeSummary{1, PhaseMoved, Vec2{X: 6}})

	r.step()
	assertActive(t, r.ctx, activeSummary{1, PhaseStationary, Vec2{}})
	r.send(1, PhaseMoved, 7, 0)
	assertActive(t, r.ctx, activeSummary{1, PhaseMoved, Vec2{X: 1}})
}

func TestActive_EndedBeforeBeganOnSameFinger(t *testing.T) {
	r := newRig(t, 1, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.step()
	r.send(1, PhaseEnded, 20, 0)
	r.send(2, PhaseBegan, 40, 0)

	assertActive(t, r.ctx,
		activeSummary{1, PhaseEnded, Vec2{X: 20}},
		activeSummary{2, PhaseBegan, Vec2{}},
	)
	require.Len(t, r.ctx.ActiveFingers(), 1)
	assert.NotEqual(t, r.ctx.ActiveTouches()[0].UniqueID(), r.ctx.ActiveTouches()[1].UniqueID())

	r.step()
	assertActive(t, r.ctx, activeSummary{2, PhaseStationary, Vec2{}})
}

func TestActive_BeganAndEndedInSameStep(t *testing.T) {
	r := newRig(t, 1, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.send(1, PhaseMoved, 2, 0)
	r.send(1, PhaseEnded, 3, 0)
	assertActive(t, r.ctx, activeSummary{1, PhaseBegan, Vec2{}})

	r.step()
	assertActive(t, r.ctx, activeSummary{1, PhaseEnded, Vec2{X: 3}})

	r.step()
	assertActive(t, r.ctx)
}

func TestActive_BeganThenMovedInSameStepShowsBegan(t *testing.T) {
	r := newRig(t, 1, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.send(1, PhaseMoved, 5, 0)

	ts := r.ctx.ActiveTouches()
	require.Len(t, ts, 1)
	assert.Equal(t, PhaseBegan, ts[0].Phase())
	assert.Equal(t, Vec2{}, ts[0].Delta())
	assert.Equal(t, Vec2{X: 5}, ts[0].Position())

	r.step()
	r.send(1, PhaseMoved, 6, 0)
	assertActive(t, r.ctx, activeSummary{1, PhaseMoved, Vec2{X: 1}})
}

func TestActive_OrderAcrossFingers(t *testing.T) {
	r := newRig(t, 3, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.send(2, PhaseBegan, 10, 0)
	r.step()
	r.send(3, PhaseBegan, 20, 0)
	r.send(1, PhaseEnded, 0, 0)

	assertActive(t, r.ctx,
		activeSummary{1, PhaseEnded, Vec2{}},
		activeSummary{2, PhaseStationary, Vec2{}},
		activeSummary{3, PhaseBegan, Vec2{}},
	)
	assert.Len(t, r.ctx.ActiveFingers(), 3)

	r.step()
	assertActive(t, r.ctx,
		activeSummary{2, PhaseStationary, Vec2{}},
		activeSummary{3, PhaseStationary, Vec2{}},
	)
	fingers := r.ctx.ActiveFingers()
	require.Len(t, fingers, 2)
	assert.Equal(t, 1, fingers[0].Index())
	assert.Equal(t, 2, fingers[1].Index())
}

func TestActive_RebuiltOncePerStepAndOnChange(t *testing.T) {
	r := newRig(t, 2, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	require.Len(t, r.ctx.ActiveTouches(), 1)
	assert.True(t, r.ctx.active.fresh(r.in.Step()))

	r.send(2, PhaseBegan, 5, 5)
	assert.False(t, r.ctx.active.fresh(r.in.Step()), "a new record marks the view dirty")
	assert.Len(t, r.ctx.ActiveTouches(), 2)

	r.step()
	assert.False(t, r.ctx.active.fresh(r.in.Step()), "a new step marks the view dirty")
}

func TestActive_CopiesDoNotAliasHistory(t *testing.T) {
	r := newRig(t, 1, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.step()

	active := r.ctx.ActiveTouches()
	require.Len(t, active, 1)
	assert.Equal(t, PhaseStationary, active[0].Phase())
	assert.True(t, active[0].Equal(r.finger(0).LastTouch()), "a copy still identifies its record")
	st, err := r.finger(0).LastTouch().State()
	require.NoError(t, err)
	assert.Equal(t, PhaseBegan, st.Phase)
}

func TestActive_DisabledContextIsEmpty(t *testing.T) {
	r := newRig(t, 1, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.ctx.Disable()
	assert.Empty(t, r.ctx.ActiveTouches())
	assert.Empty(t, r.ctx.ActiveFingers())
}

func TestActive_DebugStats(t *testing.T) {
	r := newRig(t, 1, 8)
	var buf bytes.Buffer
	r.ctx.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	r.ctx.SetDebugMode(true)

	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.ctx.ActiveTouches()
	assert.Contains(t, buf.String(), "active touches rebuilt")
	assert.Contains(t, buf.String(), "touches=1")

	buf.Reset()
	r.ctx.SetDebugMode(false)
	r.send(1, PhaseMoved, 1, 0)
	r.ctx.ActiveTouches()
	assert.NotContains(t, buf.String(), "active touches rebuilt")
}
