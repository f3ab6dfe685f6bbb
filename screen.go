package touchtrail

import "strconv"

// Default tap thresholds.
const (
	DefaultTapTime   = 0.2 // seconds
	DefaultTapRadius = 5.0 // pixels
)

// TouchState is the fixed-layout snapshot of one touch slot.
type TouchState struct {
	TouchID       int32
	Phase         Phase
	Position      Vec2
	StartPosition Vec2
	Delta         Vec2
	Pressure      float64
	Radius        Vec2
	StartTime     float64
	TapCount      uint8
	Flags         TouchFlags
}

// IsTap reports whether the record carries the tap flag.
func (s TouchState) IsTap() bool { return s.Flags&FlagTap != 0 }

// IsPrimary reports whether the record belongs to the primary touch.
func (s TouchState) IsPrimary() bool { return s.Flags&FlagPrimary != 0 }

// isTapRelease reports whether the record is a release echo following a tap.
func (s TouchState) isTapRelease() bool { return s.Flags&FlagTapRelease != 0 }

// TouchControl is one concurrent-touch slot of a Screen.
type TouchControl struct {
	screen *Screen
	index  int
	state  TouchState
}

// Device returns the owning screen.
func (c *TouchControl) Device() Device {
	if c == nil || c.screen == nil {
		return nil
	}
	return c.screen
}

// Name returns the slot's control name.
func (c *TouchControl) Name() string { return "touch" + strconv.Itoa(c.index) }

// Index returns the slot index.
func (c *TouchControl) Index() int { return c.index }

// State returns the slot's current state.
func (c *TouchControl) State() TouchState { return c.state }

// Screen is a touch-capable device with a fixed number of slots.
type Screen struct {
	in        *Input
	id        int
	name      string
	synthetic bool
	touches   []*TouchControl
	primary   int // slot of the primary touch, -1 if none

	pendingTapRelease []int

	// TapTime and TapRadius bound what Send reports as a tap.
	TapTime   float64
	TapRadius float64
}

// ID returns the device ID.
func (s *Screen) ID() int { return s.id }

// Name returns the device name.
func (s *Screen) Name() string { return s.name }

// Synthetic reports whether the screen was created by touch simulation.
func (s *Screen) Synthetic() bool { return s.synthetic }

// Touches returns the screen's slots. The returned slice MUST NOT be mutated.
func (s *Screen) Touches() []*TouchControl { return s.touches }

// SlotCount returns the number of concurrent-touch slots.
func (s *Screen) SlotCount() int { return len(s.touches) }

func (s *Screen) controls() []Control {
	out := make([]Control, len(s.touches))
	for i, c := range s.touches {
		out[i] = c
	}
	return out
}

// TouchInput is a hardware-style contact report for Send.
type TouchInput struct {
	ID       int32
	Phase    Phase
	Position Vec2
	Pressure float64
	Radius   Vec2
}

// Send routes a contact report to the slot holding its ID, or to the first
// free slot for a Began report. It returns false if the report was dropped
// because no slot matched or every slot was busy.
func (s *Screen) Send(ti TouchInput) bool {
	slot := s.slotFor(ti.ID, ti.Phase == PhaseBegan)
	if slot < 0 {
		return false
	}
	ctrl := s.touches[slot]
	now := s.in.Now()
	next := nextState(ctrl.state, ti.Phase, ti.Position, now)
	next.TouchID = ti.ID
	next.Pressure = ti.Pressure
	next.Radius = ti.Radius

	switch {
	case ti.Phase == PhaseBegan:
		if s.primary < 0 {
			s.primary = slot
			next.Flags |= FlagPrimary
		}
	case ti.Phase == PhaseEnded:
		if isTap(next, now, s.TapTime, s.TapRadius) {
			next.Flags |= FlagTap
			next.TapCount = ctrl.state.TapCount + 1
		} else {
			next.TapCount = 0
		}
	}
	if ti.Phase.Terminal() && s.primary == slot {
		s.primary = -1
	}
	s.in.applyState(ctrl, next, s.in.NewEvent(EventState))
	return true
}

// slotFor finds the in-progress slot holding id. For a new contact it
// allocates the first slot that is not in progress. Returns -1 if none.
func (s *Screen) slotFor(id int32, allocate bool) int {
	for i, c := range s.touches {
		if c.state.Phase.InProgress() && c.state.TouchID == id {
			return i
		}
	}
	if !allocate {
		return -1
	}
	for i, c := range s.touches {
		if !c.state.Phase.InProgress() {
			return i
		}
	}
	return -1
}

// nextState derives the slot state for a new phase, carrying start data
// forward and accumulating delta since the last reset.
func nextState(cur TouchState, phase Phase, pos Vec2, now float64) TouchState {
	if phase == PhaseBegan {
		return TouchState{
			Phase:         PhaseBegan,
			Position:      pos,
			StartPosition: pos,
			StartTime:     now,
			TapCount:      cur.TapCount,
		}
	}
	next := cur
	next.Phase = phase
	next.Delta = cur.Delta.Add(pos.Sub(cur.Position))
	next.Position = pos
	next.Flags &^= FlagTap | FlagTapRelease
	return next
}

// isTap reports whether a contact ending at now qualifies as a tap.
func isTap(st TouchState, now, tapTime, tapRadius float64) bool {
	return now-st.StartTime <= tapTime &&
		st.Position.Sub(st.StartPosition).LengthSq() <= tapRadius*tapRadius
}

// beginStep runs at the start of each update step.
func (s *Screen) beginStep() {
	pending := s.pendingTapRelease
	s.pendingTapRelease = nil
	for _, slot := range pending {
		ctrl := s.touches[slot]
		if ctrl.state.Phase != PhaseEnded {
			continue // slot was reused before the echo went out
		}
		st := ctrl.state
		st.Flags = (st.Flags &^ FlagTap) | FlagTapRelease
		s.in.applyState(ctrl, st, s.in.NewEvent(EventState))
	}
	// Accumulated deltas restart every step. This is an internal change.
	for _, ctrl := range s.touches {
		if ctrl.state.Delta != (Vec2{}) {
			st := ctrl.state
			st.Delta = Vec2{}
			s.in.applyState(ctrl, st, nil)
		}
	}
}

// cancelAll cancels every in-progress slot.
func (s *Screen) cancelAll() {
	for i, ctrl := range s.touches {
		if !ctrl.state.Phase.InProgress() {
			continue
		}
		st := ctrl.state
		st.Phase = PhaseCanceled
		if s.primary == i {
			s.primary = -1
		}
		s.in.applyState(ctrl, st, s.in.NewEvent(EventState))
	}
}
