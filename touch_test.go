package touchtrail

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouch_Properties(t *testing.T) {
	r := newRig(t, 2, 8)
	r.step()
	r.advance(1)
	r.send(9, PhaseBegan, 10, 20)
	r.advance(0.5)
	r.send(9, PhaseMoved, 13, 24)

	tc := r.finger(0).LastTouch()
	require.True(t, tc.Valid())
	assert.Equal(t, r.finger(0), tc.Finger())
	assert.Equal(t, r.screen, tc.Screen())
	assert.Equal(t, int32(9), tc.TouchID())
	assert.Equal(t, PhaseMoved, tc.Phase())
	assert.True(t, tc.IsInProgress())
	assert.False(t, tc.Ended())
	assert.Equal(t, Vec2{13, 24}, tc.Position())
	assert.Equal(t, Vec2{10, 20}, tc.StartPosition())
	assert.Equal(t, Vec2{3, 4}, tc.Delta())
	assert.Equal(t, 5.0, tc.Delta().Length())
	assert.Equal(t, 1.0, tc.StartTime())
	assert.Equal(t, 1.5, tc.Time())
	assert.Equal(t, 1.0, tc.Pressure())
	assert.Equal(t, uint64(1), tc.UpdateStep())
	assert.True(t, tc.IsPrimary())
	assert.False(t, tc.IsTap())
	assert.Contains(t, tc.String(), "Moved")
}

func TestTouch_HistoryOfContact(t *testing.T) {
	r := newRig(t, 1, 16)
	r.step()
	r.send(4, PhaseBegan, 0, 0)
	r.send(4, PhaseMoved, 10, 0)
	r.step()
	r.send(4, PhaseEnded, 10, 0)
	// Next contact reuses the slot and the touch ID.
	r.step()
	r.send(4, PhaseBegan, 50, 50)
	r.send(4, PhaseMoved, 60, 50)
	r.send(4, PhaseMoved, 70, 50)

	last := r.finger(0).LastTouch()
	h, err := last.History()
	require.NoError(t, err)
	require.Equal(t, 2, h.Count(), "history stops at the contact's Began")
	ts, err := h.Touches()
	require.NoError(t, err)
	if diff := cmp.Diff([]Phase{PhaseMoved, PhaseBegan}, phases(ts)); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Vec2{60, 50}, ts[0].Position())

	began := ts[1]
	bh, err := began.History()
	require.NoError(t, err)
	assert.Equal(t, 0, bh.Count())
}

func TestTouch_HistoryStopsAtTouchIDChange(t *testing.T) {
	r := newRig(t, 1, 16)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.step()
	r.send(1, PhaseEnded, 30, 0)
	r.step()
	// A Moved with no Began: the producer missed the start of contact 2.
	r.screen.touches[0].state = TouchState{TouchID: 2, Phase: PhaseStationary}
	r.send(2, PhaseMoved, 1, 1)
	r.send(2, PhaseMoved, 2, 2)

	h, err := r.finger(0).LastTouch().History()
	require.NoError(t, err)
	assert.Equal(t, 1, h.Count())
}

func TestTouch_StaleHandle(t *testing.T) {
	r := newRig(t, 1, 2)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	first := r.finger(0).LastTouch()
	hist := r.finger(0).TouchHistory()
	require.True(t, hist.Valid())

	r.send(1, PhaseMoved, 1, 0)
	assert.True(t, first.Valid(), "no wraparound yet")
	assert.True(t, hist.Valid())

	r.send(1, PhaseMoved, 2, 0)
	assert.False(t, first.Valid())
	assert.False(t, hist.Valid())

	_, err := first.State()
	assert.ErrorIs(t, err, ErrStaleHandle)
	_, err = first.History()
	assert.ErrorIs(t, err, ErrStaleHandle)
	_, err = hist.At(0)
	assert.ErrorIs(t, err, ErrStaleHandle)
	_, err = hist.Touches()
	assert.ErrorIs(t, err, ErrStaleHandle)

	defer func() {
		rec := recover()
		require.NotNil(t, rec, "reading a stale touch panics")
		err, ok := rec.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrStaleHandle))
	}()
	_ = first.Position()
}

func TestTouch_ZeroValue(t *testing.T) {
	var tc Touch
	assert.False(t, tc.Valid())
	assert.Nil(t, tc.Finger())
	assert.Nil(t, tc.Screen())
	assert.Equal(t, "<invalid touch>", tc.String())
	assert.Panics(t, func() { tc.Phase() })
}

func TestTouch_Equal(t *testing.T) {
	r := newRig(t, 2, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.send(2, PhaseBegan, 5, 5)

	a := r.finger(0).LastTouch()
	b := r.finger(0).LastTouch()
	c := r.finger(1).LastTouch()
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestHistory_Indexing(t *testing.T) {
	r := newRig(t, 1, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.send(1, PhaseMoved, 1, 0)
	r.send(1, PhaseMoved, 2, 0)

	h := r.finger(0).TouchHistory()
	assert.Equal(t, 3, h.Count())
	assert.Equal(t, r.finger(0), h.Finger())

	newest, err := h.At(0)
	require.NoError(t, err)
	assert.Equal(t, Vec2{X: 2}, newest.Position())
	oldest, err := h.At(2)
	require.NoError(t, err)
	assert.Equal(t, PhaseBegan, oldest.Phase())

	_, err = h.At(3)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = h.At(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = History{}.At(0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	var xs []float64
	for i, tc := range h.All() {
		assert.Equal(t, len(xs), i)
		xs = append(xs, tc.Position().X)
	}
	assert.Equal(t, []float64{2, 1, 0}, xs)
}

func TestHistory_StaysValidWithoutWrap(t *testing.T) {
	r := newRig(t, 1, 8)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	h := r.finger(0).TouchHistory()
	r.send(1, PhaseMoved, 1, 0)

	require.True(t, h.Valid())
	assert.Equal(t, 1, h.Count(), "a history is a fixed window")
	tc, err := h.At(0)
	require.NoError(t, err)
	assert.Equal(t, PhaseBegan, tc.Phase())
}

func TestHistory_AllOnStaleHistoryPanics(t *testing.T) {
	r := newRig(t, 1, 2)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.send(1, PhaseMoved, 1, 0)
	h := r.finger(0).TouchHistory()
	r.send(1, PhaseMoved, 2, 0) // wraps the buffer

	_, err := h.At(0)
	require.ErrorIs(t, err, ErrStaleHandle)

	defer func() {
		rec := recover()
		require.NotNil(t, rec, "ranging over a stale history panics")
		err, ok := rec.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrStaleHandle)
	}()
	for range h.All() {
		t.Fatal("a stale history yielded a touch")
	}
}

func TestHistory_AllInvalidatedWhileIterating(t *testing.T) {
	r := newRig(t, 1, 3)
	r.step()
	r.send(1, PhaseBegan, 0, 0)
	r.send(1, PhaseMoved, 1, 0)
	r.send(1, PhaseMoved, 2, 0)
	h := r.finger(0).TouchHistory()

	var seen int
	assert.PanicsWithError(t, fmt.Errorf("history iteration: %w", ErrStaleHandle).Error(), func() {
		for range h.All() {
			seen++
			r.send(1, PhaseMoved, float64(10+seen), 0)
		}
	})
	assert.Equal(t, 1, seen)
}

func TestHistory_AllOnZeroValue(t *testing.T) {
	var n int
	for range (History{}).All() {
		n++
	}
	assert.Zero(t, n)
}
