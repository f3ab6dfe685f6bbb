package touchtrail

import (
	"fmt"
	"iter"
)

// Touch is a copyable handle to one recorded state of a finger. Touches
// returned by Context.ActiveTouches carry a derived copy of the record (phase
// and delta adjusted for the current step) instead of reading through.
//
// Reading a property of an invalid touch panics with an error wrapping
// ErrStaleHandle. Use Valid or State to check first.
type Touch struct {
	finger *Finger
	rec    touchRecord

	copied bool
	state  TouchState
	extra  ExtraData
}

// Valid reports whether the touch still refers to a record held by its finger.
func (t Touch) Valid() bool {
	return t.finger != nil && t.rec.Valid()
}

// Equal reports whether t and o refer to the same record of the same finger.
func (t Touch) Equal(o Touch) bool {
	return t.finger == o.finger && t.rec == o.rec
}

// State returns the record's state, or ErrStaleHandle.
func (t Touch) State() (TouchState, error) {
	if !t.Valid() {
		return TouchState{}, ErrStaleHandle
	}
	if t.copied {
		return t.state, nil
	}
	return *t.rec.valuePtr(), nil
}

// Extra returns the engine payload of the record, or ErrStaleHandle.
func (t Touch) Extra() (ExtraData, error) {
	if !t.Valid() {
		return ExtraData{}, ErrStaleHandle
	}
	if t.copied {
		return t.extra, nil
	}
	return *t.rec.extraPtr(), nil
}

func (t Touch) read() (*TouchState, *ExtraData) {
	if !t.Valid() {
		panic(fmt.Errorf("touch read: %w", ErrStaleHandle))
	}
	if t.copied {
		return &t.state, &t.extra
	}
	return t.rec.valuePtr(), t.rec.extraPtr()
}

// Finger returns the owning finger, or nil for a zero Touch.
func (t Touch) Finger() *Finger { return t.finger }

// Screen returns the screen of the owning finger.
func (t Touch) Screen() *Screen {
	if t.finger == nil {
		return nil
	}
	return t.finger.screen
}

// TouchID returns the platform-supplied contact ID, which may be reused.
func (t Touch) TouchID() int32 {
	st, _ := t.read()
	return st.TouchID
}

// UniqueID returns the engine-assigned contact ID, which is never reused.
func (t Touch) UniqueID() uint64 {
	_, ex := t.read()
	return ex.UniqueID
}

// Phase returns the recorded phase.
func (t Touch) Phase() Phase {
	st, _ := t.read()
	return st.Phase
}

// IsInProgress reports whether the phase is Began, Moved, or Stationary.
func (t Touch) IsInProgress() bool { return t.Phase().InProgress() }

// Ended reports whether the phase is Ended or Canceled.
func (t Touch) Ended() bool { return t.Phase().Terminal() }

// Position returns the contact position.
func (t Touch) Position() Vec2 {
	st, _ := t.read()
	return st.Position
}

// StartPosition returns where the contact began.
func (t Touch) StartPosition() Vec2 {
	st, _ := t.read()
	return st.StartPosition
}

// Delta returns the motion since the previous record of the same contact.
// For active touches it is the motion within the current step.
func (t Touch) Delta() Vec2 {
	st, _ := t.read()
	return st.Delta
}

// AccumulatedDelta returns the delta as reported by the producer.
func (t Touch) AccumulatedDelta() Vec2 {
	_, ex := t.read()
	return ex.AccumulatedDelta
}

// Pressure returns the contact pressure.
func (t Touch) Pressure() float64 {
	st, _ := t.read()
	return st.Pressure
}

// Radius returns the contact radius.
func (t Touch) Radius() Vec2 {
	st, _ := t.read()
	return st.Radius
}

// StartTime returns when the contact began, in seconds.
func (t Touch) StartTime() float64 {
	st, _ := t.read()
	return st.StartTime
}

// Time returns when the record was taken, in seconds.
func (t Touch) Time() float64 {
	t.read()
	v, _ := t.rec.Time()
	return v
}

// UpdateStep returns the update step the record was taken in.
func (t Touch) UpdateStep() uint64 {
	_, ex := t.read()
	return ex.UpdateStep
}

// IsTap reports whether the contact qualified as a tap.
func (t Touch) IsTap() bool {
	st, _ := t.read()
	return st.IsTap()
}

// TapCount returns the number of consecutive taps on the slot.
func (t Touch) TapCount() int {
	st, _ := t.read()
	return int(st.TapCount)
}

// IsPrimary reports whether the record belongs to the primary touch.
func (t Touch) IsPrimary() bool {
	st, _ := t.read()
	return st.IsPrimary()
}

// History returns the records of the same contact that came before this
// one, newest first. A Began touch has an empty history.
func (t Touch) History() (History, error) {
	if !t.Valid() {
		return History{}, fmt.Errorf("touch history: %w", ErrStaleHandle)
	}
	h := t.finger.history
	anchor := t.rec.Index()
	st := t.rec.valuePtr()
	count := 0
	if st.Phase != PhaseBegan {
		for i := anchor - 1; i >= 0; i-- {
			prev := h.at(i).valuePtr()
			if prev.TouchID != st.TouchID || prev.Phase.Terminal() {
				break
			}
			count++
			if prev.Phase == PhaseBegan {
				break
			}
		}
	}
	return History{
		finger:  t.finger,
		h:       h,
		version: h.Version(),
		start:   anchor - 1,
		count:   count,
	}, nil
}

func (t Touch) String() string {
	if !t.Valid() {
		return "<invalid touch>"
	}
	st, ex := t.read()
	return fmt.Sprintf("touch{id=%d uid=%d %s pos=(%g,%g) delta=(%g,%g)}",
		st.TouchID, ex.UniqueID, st.Phase, st.Position.X, st.Position.Y, st.Delta.X, st.Delta.Y)
}

// History is a newest-first, read-only window over a finger's records. It
// becomes invalid as soon as the underlying buffer overwrites or clears
// records; every access after that fails with ErrStaleHandle.
type History struct {
	finger  *Finger
	h       *touchHistory
	version uint64
	start   int // buffer index of the newest record in the window
	count   int
}

// Valid reports whether the buffer is unchanged since the history was taken.
func (h History) Valid() bool {
	return h.h != nil && !h.h.Disposed() && h.h.Version() == h.version
}

// Count returns the number of records in the window.
func (h History) Count() int { return h.count }

// Finger returns the owning finger.
func (h History) Finger() *Finger { return h.finger }

// At returns the i-th touch, where 0 is the newest.
func (h History) At(i int) (Touch, error) {
	if h.h == nil {
		return Touch{}, fmt.Errorf("history index %d of 0: %w", i, ErrOutOfRange)
	}
	if !h.Valid() {
		return Touch{}, ErrStaleHandle
	}
	if i < 0 || i >= h.count {
		return Touch{}, fmt.Errorf("history index %d of %d: %w", i, h.count, ErrOutOfRange)
	}
	return Touch{finger: h.finger, rec: h.h.at(h.start - i)}, nil
}

// All iterates newest first. Like the Touch accessors, it panics with an
// error wrapping ErrStaleHandle if the history is or becomes invalid; check
// Valid first, or use Touches for an error return.
func (h History) All() iter.Seq2[int, Touch] {
	return func(yield func(int, Touch) bool) {
		if h.h != nil && !h.Valid() {
			panic(fmt.Errorf("history iteration: %w", ErrStaleHandle))
		}
		for i := 0; i < h.count; i++ {
			t, err := h.At(i)
			if err != nil {
				panic(fmt.Errorf("history iteration: %w", err))
			}
			if !yield(i, t) {
				return
			}
		}
	}
}

// Touches copies the window into a slice, newest first.
func (h History) Touches() ([]Touch, error) {
	if h.count > 0 && !h.Valid() {
		return nil, ErrStaleHandle
	}
	out := make([]Touch, 0, h.count)
	for i := 0; i < h.count; i++ {
		t, err := h.At(i)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
