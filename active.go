package touchtrail

import (
	"slices"
	"time"
)

type cacheState uint8

const (
	cacheDirty cacheState = iota
	cacheFresh
)

// activeSet memoizes the active view. It is Fresh for exactly one update
// step and goes Dirty on any recorded change or step advance.
type activeSet struct {
	state   cacheState
	step    uint64
	touches []Touch
	fingers []*Finger
}

func (a *activeSet) invalidate() { a.state = cacheDirty }

func (a *activeSet) fresh(step uint64) bool {
	return a.state == cacheFresh && a.step == step
}

func (a *activeSet) reset() {
	clear(a.touches)
	clear(a.fingers)
	a.touches = a.touches[:0]
	a.fingers = a.fingers[:0]
	a.state = cacheDirty
}

// ActiveTouches returns every touch that is ongoing or that ended in the
// current update step, oldest first. Each entry is a snapshot adjusted for
// the step: an ongoing contact that did not change reads as Stationary with
// zero delta, and deltas of changed contacts are the motion within the step.
//
// The view is rebuilt at most once per step. The returned slice is reused by
// the next rebuild and MUST NOT be retained across steps.
func (c *Context) ActiveTouches() []Touch {
	c.ensureActive()
	return c.active.touches
}

// ActiveFingers returns the fingers that have a current touch, in finger
// order. The returned slice MUST NOT be retained across steps.
func (c *Context) ActiveFingers() []*Finger {
	c.ensureActive()
	return c.active.fingers
}

func (c *Context) ensureActive() {
	if c.in == nil || c.enableCount == 0 {
		c.active.reset()
		return
	}
	step := c.in.step
	if c.active.fresh(step) {
		return
	}
	c.rebuildActive(step)
}

func (c *Context) rebuildActive(step uint64) {
	var start time.Time
	if c.debug {
		start = time.Now()
	}
	a := &c.active
	clear(a.touches)
	a.touches = a.touches[:0]
	a.fingers = a.fingers[:0]

	stats := rebuildStats{step: step}
	for _, f := range c.fingers {
		stats.scanned += c.collectActive(f, step)
		if f.CurrentTouch().Valid() {
			a.fingers = append(a.fingers, f)
		}
	}
	for _, r := range c.retired {
		stats.scanned += c.collectActive(r.finger, step)
	}
	a.state = cacheFresh
	a.step = step

	if c.debug {
		stats.elapsed = time.Since(start)
		stats.fingers = len(c.fingers)
		stats.retired = len(c.retired)
		stats.touches = len(a.touches)
		c.debugLog(stats)
	}
}

// collectActive walks f's history newest to oldest and inserts the records
// that belong in the active view. Everything collected for one finger is
// inserted at the same position, so the finger's records end up oldest
// first. It returns the number of records visited.
func (c *Context) collectActive(f *Finger, step uint64) int {
	if f.history.Disposed() || !f.needsActiveScan(step) {
		return 0
	}
	a := &c.active
	insertAt := len(a.touches)
	var (
		openUID uint64
		open    *Touch
		visited int
	)
	n := f.history.Count()
	for i := n - 1; i >= 0; i-- {
		visited++
		rec := f.history.at(i)
		st, ex := rec.valuePtr(), rec.extraPtr()
		fresh := ex.UpdateStep == step
		terminal := st.Phase.Terminal()

		if open != nil && ex.UniqueID == openUID && !terminal {
			// The contact began this step: show it as Began.
			if fresh && st.Phase == PhaseBegan && open.state.Phase != PhaseBegan {
				open.state.Phase = PhaseBegan
				open.state.Delta = Vec2{}
			}
			continue
		}

		deferred := isDeferredEnd(st, ex, step)
		if !fresh && !deferred && (terminal || i < n-1) {
			break
		}
		// A contact that began and ended within this step shows its Began
		// now and its end one step later.
		if terminal && fresh && ex.BeganInSameStep {
			continue
		}

		a.touches = slices.Insert(a.touches, insertAt, deriveActive(f, rec, fresh || deferred))
		open = &a.touches[insertAt]
		openUID = ex.UniqueID
	}
	return visited
}

// deriveActive makes the step-adjusted copy of a record for the active view.
// The recorded history is left as is.
func deriveActive(f *Finger, rec touchRecord, updated bool) Touch {
	t := Touch{finger: f, rec: rec, copied: true, state: *rec.valuePtr(), extra: *rec.extraPtr()}
	switch {
	case !updated && (t.state.Phase == PhaseMoved || t.state.Phase == PhaseBegan):
		t.state.Phase = PhaseStationary
		t.state.Delta = Vec2{}
	case updated && (t.state.Phase == PhaseMoved || t.state.Phase == PhaseEnded):
		t.state.Delta = t.extra.AccumulatedDelta
	default:
		t.state.Delta = Vec2{}
	}
	return t
}
