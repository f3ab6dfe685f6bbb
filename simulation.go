package touchtrail

import (
	"fmt"
	"log/slog"
)

// SimulatedScreenName is the device name of the screen created by a
// Simulation.
const SimulatedScreenName = "Simulated Touchscreen"

// simSource is one pointer feeding the simulation.
type simSource struct {
	pointer  *Pointer
	lastPos  Vec2
	monitors []CallbackHandle
}

// simulatedTouch ties a slot of the simulated screen to the pointer button
// holding it. touchID is 0 while the slot is free.
type simulatedTouch struct {
	source  *simSource
	button  int
	touchID int32
}

// Simulation turns presses on ordinary pointers (mice, pens) into contacts
// on a synthetic screen. Every physical button of every pointer can hold its
// own contact, so one mouse can produce up to three simultaneous touches.
type Simulation struct {
	in       *Input
	settings Settings
	log      *slog.Logger

	screen  *Screen
	sources []*simSource
	touches []simulatedTouch
	primary int // slot of the primary contact, -1 if none

	deviceHook CallbackHandle
}

// NewSimulation creates a disabled simulation. Only the tap thresholds and
// SimulatedTouches fields of settings are used.
func NewSimulation(in *Input, settings Settings) *Simulation {
	if settings.SimulatedTouches < 1 {
		settings.SimulatedTouches = DefaultSimulatedTouches
	}
	return &Simulation{
		in:       in,
		settings: settings,
		log:      slog.Default().With("component", "touchtrail", "simulation", SimulatedScreenName),
		primary:  -1,
	}
}

// SetLogger replaces the logger. Passing nil restores slog.Default.
func (sim *Simulation) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	sim.log = l.With("component", "touchtrail", "simulation", SimulatedScreenName)
}

// Screen returns the simulated screen, or nil while disabled.
func (sim *Simulation) Screen() *Screen { return sim.screen }

// Enabled reports whether the simulated screen exists.
func (sim *Simulation) Enabled() bool { return sim.screen != nil }

// Enable adds the simulated screen and starts listening to every pointer,
// including pointers added later.
func (sim *Simulation) Enable() error {
	if sim.in == nil {
		return ErrNilDevice
	}
	if sim.screen != nil {
		return nil
	}
	sim.touches = make([]simulatedTouch, sim.settings.SimulatedTouches)
	sim.primary = -1
	sim.screen = sim.in.addScreen(SimulatedScreenName, sim.settings.SimulatedTouches, true)
	sim.screen.TapTime = sim.settings.TapTime
	sim.screen.TapRadius = sim.settings.TapRadius
	for _, d := range sim.in.Devices() {
		if p, ok := d.(*Pointer); ok {
			_ = sim.AddPointer(p)
		}
	}
	sim.deviceHook = sim.in.OnDeviceChange(sim.onDeviceChange)
	sim.log.Debug("enabled", "slots", len(sim.touches), "pointers", len(sim.sources))
	return nil
}

// Disable stops listening to pointers and removes the simulated screen.
// Contacts still in progress are canceled.
func (sim *Simulation) Disable() {
	if sim.screen == nil {
		return
	}
	sim.deviceHook.Remove()
	for len(sim.sources) > 0 {
		_ = sim.RemovePointer(sim.sources[len(sim.sources)-1].pointer)
	}
	screen := sim.screen
	sim.screen = nil
	sim.touches = nil
	sim.primary = -1
	_ = sim.in.RemoveDevice(screen)
	sim.log.Debug("disabled")
}

// ApplySettings updates the tap thresholds. The slot count only changes on
// the next Enable.
func (sim *Simulation) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	sim.settings = s
	if sim.screen != nil {
		sim.screen.TapTime = s.TapTime
		sim.screen.TapRadius = s.TapRadius
	}
	return nil
}

func (sim *Simulation) onDeviceChange(d Device, change DeviceChange) {
	p, ok := d.(*Pointer)
	if !ok {
		return
	}
	switch change {
	case DeviceAdded:
		_ = sim.AddPointer(p)
	case DeviceRemoved:
		_ = sim.RemovePointer(p)
	}
}

// AddPointer starts feeding p into the simulation. Adding the same pointer
// twice is a no-op.
func (sim *Simulation) AddPointer(p *Pointer) error {
	if p == nil {
		return fmt.Errorf("simulation add pointer: %w", ErrNilDevice)
	}
	if sim.sourceOf(p) >= 0 {
		return nil
	}
	src := &simSource{pointer: p, lastPos: p.position.value}
	h, err := sim.in.AddChangeMonitor(p.position, func(_ Control, _ float64, event *Event, _ int64) {
		sim.onPosition(src, event)
	}, 0)
	if err != nil {
		return fmt.Errorf("simulation add pointer %q: %w", p.name, err)
	}
	src.monitors = append(src.monitors, h)
	for _, b := range p.buttons {
		if b.synthetic {
			continue
		}
		h, err := sim.in.AddChangeMonitor(b, func(ctrl Control, _ float64, event *Event, tag int64) {
			sim.onButton(src, int(tag), ctrl.(*ButtonControl).pressed, event)
		}, int64(b.index))
		if err != nil {
			return fmt.Errorf("simulation add pointer %q: %w", p.name, err)
		}
		src.monitors = append(src.monitors, h)
	}
	sim.sources = append(sim.sources, src)
	sim.log.Debug("pointer added", "pointer", p.name)
	return nil
}

// RemovePointer stops feeding p into the simulation and cancels every
// contact it holds, whatever stage that contact is in.
func (sim *Simulation) RemovePointer(p *Pointer) error {
	if p == nil {
		return fmt.Errorf("simulation remove pointer: %w", ErrNilDevice)
	}
	idx := sim.sourceOf(p)
	if idx < 0 {
		return nil
	}
	src := sim.sources[idx]
	for slot := range sim.touches {
		if sim.touches[slot].touchID != 0 && sim.touches[slot].source == src {
			sim.end(slot, PhaseCanceled, sim.in.NewEvent(EventState))
		}
	}
	for _, h := range src.monitors {
		h.Remove()
	}
	sim.sources = append(sim.sources[:idx:idx], sim.sources[idx+1:]...)
	sim.log.Debug("pointer removed", "pointer", p.name)
	return nil
}

func (sim *Simulation) sourceOf(p *Pointer) int {
	for i, s := range sim.sources {
		if s.pointer == p {
			return i
		}
	}
	return -1
}

func (sim *Simulation) onButton(src *simSource, button int, pressed bool, event *Event) {
	if sim.screen == nil {
		return
	}
	if pressed {
		sim.begin(src, button, event)
		return
	}
	for slot, t := range sim.touches {
		if t.touchID != 0 && t.source == src && t.button == button {
			sim.end(slot, PhaseEnded, event)
			return
		}
	}
}

func (sim *Simulation) begin(src *simSource, button int, event *Event) {
	slot := -1
	for i, t := range sim.touches {
		if t.touchID == 0 {
			slot = i
			break
		}
	}
	if slot < 0 {
		sim.log.Debug("no free simulated touch; press dropped",
			"pointer", src.pointer.name, "button", button)
		return
	}
	id := sim.in.NewTouchID()
	sim.touches[slot] = simulatedTouch{source: src, button: button, touchID: id}

	ctrl := sim.screen.touches[slot]
	pos := src.pointer.position.value
	st := TouchState{
		TouchID:       id,
		Phase:         PhaseBegan,
		Position:      pos,
		StartPosition: pos,
		Pressure:      1,
		StartTime:     sim.in.eventTime(event),
		TapCount:      ctrl.state.TapCount,
	}
	if sim.primary < 0 {
		sim.primary = slot
		st.Flags |= FlagPrimary
	}
	sim.in.applyState(ctrl, st, event)
}

func (sim *Simulation) end(slot int, phase Phase, event *Event) {
	ctrl := sim.screen.touches[slot]
	st := ctrl.state
	st.Phase = phase
	st.Flags &^= FlagTap | FlagTapRelease
	if phase == PhaseEnded {
		if isTap(st, sim.in.eventTime(event), sim.screen.TapTime, sim.screen.TapRadius) {
			st.Flags |= FlagTap
			st.TapCount++
		} else {
			st.TapCount = 0
		}
	}
	if sim.primary == slot {
		sim.primary = -1
	}
	sim.touches[slot] = simulatedTouch{}
	sim.in.applyState(ctrl, st, event)
}

func (sim *Simulation) onPosition(src *simSource, event *Event) {
	pos := src.pointer.position.value
	delta := pos.Sub(src.lastPos)
	src.lastPos = pos
	if sim.screen == nil {
		return
	}
	for slot, t := range sim.touches {
		if t.touchID == 0 || t.source != src {
			continue
		}
		ctrl := sim.screen.touches[slot]
		st := ctrl.state
		st.Phase = PhaseMoved
		st.Position = pos
		st.Delta = st.Delta.Add(delta)
		sim.in.applyState(ctrl, st, event)
	}
}

// Primary returns the slot of the primary simulated contact, or -1.
func (sim *Simulation) Primary() int { return sim.primary }
