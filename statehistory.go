package touchtrail

import "fmt"

// historySlot is one fixed-size arena entry. The extra payload trails the
// value the same way for every slot.
type historySlot[T, E any] struct {
	value T
	extra E
	time  float64
	event *Event
	stamp uint64 // insertion serial; 0 means never written
}

// StateHistory is a fixed-capacity circular buffer of state records. Each
// record carries an engine-owned extra payload of type E, a timestamp, and
// the event that produced it. It knows nothing about touches.
//
// Once the buffer is full, every insertion overwrites the oldest record and
// bumps Version. Record handles taken before their slot was overwritten
// report Valid() == false.
type StateHistory[T, E any] struct {
	slots    []historySlot[T, E]
	head     int // slot of the oldest record
	count    int
	version  uint64
	serial   uint64
	disposed bool

	// ShouldRecord, if set, may veto an incoming value.
	ShouldRecord func(value T, time float64, event *Event) bool
	// OnRecorded, if set, runs synchronously after each insertion.
	OnRecorded func(rec Record[T, E])
}

// NewStateHistory returns a history holding up to depth records. A depth
// below one is raised to one.
func NewStateHistory[T, E any](depth int) *StateHistory[T, E] {
	if depth < 1 {
		depth = 1
	}
	return &StateHistory[T, E]{slots: make([]historySlot[T, E], depth)}
}

// Count returns the number of records currently held.
func (h *StateHistory[T, E]) Count() int { return h.count }

// Capacity returns the maximum number of records.
func (h *StateHistory[T, E]) Capacity() int { return len(h.slots) }

// Version changes whenever existing records are overwritten or cleared.
func (h *StateHistory[T, E]) Version() uint64 { return h.version }

// Disposed reports whether Dispose has been called.
func (h *StateHistory[T, E]) Disposed() bool { return h.disposed }

// Record runs the veto predicate and, if accepted, appends value and fires
// OnRecorded. The returned bool is false when the value was vetoed.
func (h *StateHistory[T, E]) Record(value T, time float64, event *Event) (Record[T, E], bool, error) {
	if h.disposed {
		return Record[T, E]{}, false, ErrDisposed
	}
	if h.ShouldRecord != nil && !h.ShouldRecord(value, time, event) {
		return Record[T, E]{}, false, nil
	}
	rec, err := h.Add(value, time, event)
	if err != nil {
		return rec, false, err
	}
	if h.OnRecorded != nil {
		h.OnRecorded(rec)
	}
	return rec, true, nil
}

// Add appends value unconditionally, bypassing ShouldRecord and OnRecorded.
// The extra payload of the new record starts zeroed.
func (h *StateHistory[T, E]) Add(value T, time float64, event *Event) (Record[T, E], error) {
	if h.disposed {
		return Record[T, E]{}, ErrDisposed
	}
	var slot int
	if h.count < len(h.slots) {
		slot = (h.head + h.count) % len(h.slots)
		h.count++
	} else {
		slot = h.head
		h.head = (h.head + 1) % len(h.slots)
		h.version++
	}
	h.serial++
	var zero E
	h.slots[slot] = historySlot[T, E]{
		value: value,
		extra: zero,
		time:  time,
		event: event,
		stamp: h.serial,
	}
	return Record[T, E]{h: h, slot: slot, stamp: h.serial}, nil
}

// Get returns the record at index, where 0 is the oldest.
func (h *StateHistory[T, E]) Get(index int) (Record[T, E], error) {
	if h.disposed {
		return Record[T, E]{}, ErrDisposed
	}
	if index < 0 || index >= h.count {
		return Record[T, E]{}, fmt.Errorf("history index %d of %d: %w", index, h.count, ErrOutOfRange)
	}
	return h.at(index), nil
}

// Newest returns the most recent record, or false if the buffer is empty.
func (h *StateHistory[T, E]) Newest() (Record[T, E], bool) {
	if h.disposed || h.count == 0 {
		return Record[T, E]{}, false
	}
	return h.at(h.count - 1), true
}

// at is Get without checks.
func (h *StateHistory[T, E]) at(index int) Record[T, E] {
	slot := (h.head + index) % len(h.slots)
	return Record[T, E]{h: h, slot: slot, stamp: h.slots[slot].stamp}
}

// Each calls fn for every record oldest to newest until fn returns false.
func (h *StateHistory[T, E]) Each(fn func(rec Record[T, E]) bool) error {
	if h.disposed {
		return ErrDisposed
	}
	for i := 0; i < h.count; i++ {
		if !fn(h.at(i)) {
			break
		}
	}
	return nil
}

// Clear drops every record and invalidates outstanding handles.
func (h *StateHistory[T, E]) Clear() error {
	if h.disposed {
		return ErrDisposed
	}
	for i := range h.slots {
		h.slots[i] = historySlot[T, E]{}
	}
	h.head = 0
	h.count = 0
	h.version++
	return nil
}

// Dispose releases the arena. Every later operation fails with ErrDisposed.
func (h *StateHistory[T, E]) Dispose() {
	if h.disposed {
		return
	}
	h.slots = nil
	h.head = 0
	h.count = 0
	h.version++
	h.disposed = true
	h.ShouldRecord = nil
	h.OnRecorded = nil
}

// Record is a handle to one record inside a StateHistory.
type Record[T, E any] struct {
	h     *StateHistory[T, E]
	slot  int
	stamp uint64
}

// Valid reports whether the record still holds the value it was taken for.
func (r Record[T, E]) Valid() bool {
	return r.h != nil && !r.h.disposed && r.stamp != 0 && r.h.slots[r.slot].stamp == r.stamp
}

// History returns the owning buffer.
func (r Record[T, E]) History() *StateHistory[T, E] { return r.h }

// Index returns the record's position counted from the oldest record, or -1
// if the handle is stale.
func (r Record[T, E]) Index() int {
	if !r.Valid() {
		return -1
	}
	n := len(r.h.slots)
	return (r.slot - r.h.head + n) % n
}

func (r Record[T, E]) check() error {
	if !r.Valid() {
		return ErrStaleHandle
	}
	return nil
}

// Value returns a copy of the recorded value.
func (r Record[T, E]) Value() (T, error) {
	if err := r.check(); err != nil {
		var zero T
		return zero, err
	}
	return r.h.slots[r.slot].value, nil
}

// Extra returns a copy of the record's extra payload.
func (r Record[T, E]) Extra() (E, error) {
	if err := r.check(); err != nil {
		var zero E
		return zero, err
	}
	return r.h.slots[r.slot].extra, nil
}

// Time returns the time the record was taken.
func (r Record[T, E]) Time() (float64, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	return r.h.slots[r.slot].time, nil
}

// Event returns the event the record came from, which may be nil.
func (r Record[T, E]) Event() (*Event, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.h.slots[r.slot].event, nil
}

// Previous returns the record inserted just before r, if still held.
func (r Record[T, E]) Previous() (Record[T, E], bool) {
	i := r.Index()
	if i <= 0 {
		return Record[T, E]{}, false
	}
	return r.h.at(i - 1), true
}

// Next returns the record inserted just after r, if any.
func (r Record[T, E]) Next() (Record[T, E], bool) {
	i := r.Index()
	if i < 0 || i+1 >= r.h.count {
		return Record[T, E]{}, false
	}
	return r.h.at(i + 1), true
}

// valuePtr and extraPtr expose in-place storage for post-processing inside
// the package. Callers must have checked Valid.
func (r Record[T, E]) valuePtr() *T { return &r.h.slots[r.slot].value }
func (r Record[T, E]) extraPtr() *E { return &r.h.slots[r.slot].extra }
