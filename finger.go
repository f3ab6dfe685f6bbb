package touchtrail

// ExtraData is the engine-owned payload stored with every touch record. It
// lets the engine tell apart two contacts that share a platform touch ID.
type ExtraData struct {
	// AccumulatedDelta is the delta as reported by the producer, before the
	// record's own Delta was reduced to the incremental value.
	AccumulatedDelta Vec2
	// UniqueID identifies the physical contact. Never reused.
	UniqueID uint64
	// UpdateStep is the update step the record was taken in.
	UpdateStep uint64
	// BeganInSameStep is set while a contact is still within the step it began in.
	BeganInSameStep bool
}

type touchHistory = StateHistory[TouchState, ExtraData]
type touchRecord = Record[TouchState, ExtraData]

// Finger is one touch slot of one screen. It keeps a bounded history of
// every recorded state of that slot, across all the contacts that used it.
type Finger struct {
	ctx        *Context
	screen     *Screen
	index      int
	ctrl       *TouchControl
	history    *touchHistory
	monitor    CallbackHandle
	updateMask UpdateKind

	// resetPending is set when the producer zeroed the slot's accumulated
	// delta since the last record.
	resetPending bool
}

func newFinger(ctx *Context, screen *Screen, index int, updateMask UpdateKind, depth int) *Finger {
	f := &Finger{
		ctx:        ctx,
		screen:     screen,
		index:      index,
		ctrl:       screen.touches[index],
		history:    NewStateHistory[TouchState, ExtraData](depth),
		updateMask: updateMask,
	}
	f.history.ShouldRecord = f.shouldRecord
	f.history.OnRecorded = f.onRecorded
	f.monitor, _ = ctx.in.AddChangeMonitor(f.ctrl, f.onChange, int64(index))

	// A contact already in progress is recorded right away so it is not lost.
	if f.ctrl.state.Phase.InProgress() {
		if rec, err := f.history.Add(f.ctrl.state, ctx.in.Now(), ctx.in.NewEvent(EventState)); err == nil {
			f.onRecorded(rec)
		}
	}
	return f
}

// Screen returns the screen the finger belongs to.
func (f *Finger) Screen() *Screen { return f.screen }

// Index returns the slot index on the screen.
func (f *Finger) Index() int { return f.index }

// HistoryDepth returns the maximum number of records kept.
func (f *Finger) HistoryDepth() int { return f.history.Capacity() }

// IsActive reports whether the finger has a current touch.
func (f *Finger) IsActive() bool { return f.CurrentTouch().Valid() }

// LastTouch returns the most recent record, whatever its phase. The result
// is invalid if nothing has been recorded.
func (f *Finger) LastTouch() Touch {
	rec, ok := f.history.Newest()
	if !ok {
		return Touch{}
	}
	return Touch{finger: f, rec: rec}
}

// CurrentTouch returns the most recent record if its contact is in progress
// or it was recorded in the current update step. An ended contact stays
// current only until the end of the step it ended in.
func (f *Finger) CurrentTouch() Touch {
	rec, ok := f.history.Newest()
	if !ok {
		return Touch{}
	}
	st, ex := rec.valuePtr(), rec.extraPtr()
	if st.Phase.InProgress() || ex.UpdateStep == f.ctx.in.step {
		return Touch{finger: f, rec: rec}
	}
	return Touch{}
}

// TouchHistory returns a newest-first view over every record of the finger.
func (f *Finger) TouchHistory() History {
	n := f.history.Count()
	return History{
		finger:  f,
		h:       f.history,
		version: f.history.Version(),
		start:   n - 1,
		count:   n,
	}
}

func (f *Finger) onChange(_ Control, time float64, event *Event, _ int64) {
	if _, _, err := f.history.Record(f.ctrl.state, time, event); err != nil {
		f.ctx.log.Debug("touch change not recorded",
			"screen", f.screen.name,
			"finger", f.index,
			"err", err)
	}
}

// shouldRecord keeps device-reported changes made during an update kind the
// finger listens to, minus the release echo that follows a tap.
func (f *Finger) shouldRecord(value TouchState, _ float64, event *Event) bool {
	if !event.FromDevice() {
		if value.Delta == (Vec2{}) {
			f.resetPending = true
		}
		return false
	}
	if f.ctx.in.kind&f.updateMask == 0 {
		return false
	}
	return !value.isTapRelease()
}

func (f *Finger) onRecorded(rec touchRecord) {
	st, ex := rec.valuePtr(), rec.extraPtr()
	step := f.ctx.in.step
	ex.UpdateStep = step
	f.ctx.active.invalidate()

	ex.AccumulatedDelta = st.Delta
	prev, samePrev := f.previousOfContact(rec, st.TouchID)
	switch {
	case st.Phase == PhaseBegan:
		ex.UniqueID = f.ctx.in.newUniqueID()
		ex.BeganInSameStep = true
	case samePrev:
		pex := prev.extraPtr()
		ex.UniqueID = pex.UniqueID
		base := pex.AccumulatedDelta
		if f.resetPending {
			base = Vec2{}
		}
		st.Delta = st.Delta.Sub(base)
		ex.BeganInSameStep = pex.BeganInSameStep && pex.UpdateStep == step
	default:
		// First record we see of a contact whose Began was missed.
		ex.UniqueID = f.ctx.in.newUniqueID()
	}
	f.resetPending = false

	switch st.Phase {
	case PhaseBegan:
		f.ctx.fire(EventFingerDown, f)
	case PhaseMoved:
		f.ctx.fire(EventFingerMove, f)
	case PhaseEnded, PhaseCanceled:
		f.ctx.fire(EventFingerUp, f)
	}
}

// previousOfContact returns the record just before rec if it continues the
// same contact: same touch ID and not already ended.
func (f *Finger) previousOfContact(rec touchRecord, touchID int32) (touchRecord, bool) {
	prev, ok := rec.Previous()
	if !ok {
		return touchRecord{}, false
	}
	pst := prev.valuePtr()
	if pst.TouchID != touchID || pst.Phase.Terminal() {
		return touchRecord{}, false
	}
	return prev, true
}

// needsActiveScan is the fast path for rebuilding active touches: a finger
// with no current touch and no deferred end is skipped.
func (f *Finger) needsActiveScan(step uint64) bool {
	rec, ok := f.history.Newest()
	if !ok {
		return false
	}
	st, ex := rec.valuePtr(), rec.extraPtr()
	if st.Phase.InProgress() || ex.UpdateStep == step {
		return true
	}
	return isDeferredEnd(st, ex, step)
}

// isDeferredEnd reports whether a record is the end of a contact that began
// and ended in the previous step. Such an end is shown one step late so the
// Began can be shown first.
func isDeferredEnd(st *TouchState, ex *ExtraData, step uint64) bool {
	return st.Phase.Terminal() && ex.BeganInSameStep && ex.UpdateStep+1 == step
}

func (f *Finger) dispose() {
	f.monitor.Remove()
	f.history.Dispose()
}
