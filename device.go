package touchtrail

import (
	"fmt"
	"time"
)

// Device is a screen or pointer registered with an Input.
type Device interface {
	ID() int
	Name() string
	// Synthetic reports whether the device was created in software rather
	// than backed by hardware.
	Synthetic() bool
	controls() []Control
}

// Control is one observable piece of device state.
type Control interface {
	Device() Device
	Name() string
}

// DeviceChange describes a device registry change.
type DeviceChange uint8

const (
	DeviceAdded DeviceChange = iota
	DeviceRemoved
)

// MonitorFunc receives synchronous notifications that a control changed.
// event is nil for changes the host made on its own.
type MonitorFunc func(ctrl Control, time float64, event *Event, tag int64)

type monitor struct {
	fn  MonitorFunc
	tag int64
}

type monitorSet struct {
	registry[monitor]
}

// Input is a minimal synchronous device system: it owns devices, the update
// step counter, and change monitors. All methods must be called from the
// thread driving the update loop.
type Input struct {
	// Clock returns the current time in seconds. Defaults to the wall clock
	// measured from NewInput.
	Clock func() float64

	devices      []Device
	monitors     map[Control]*monitorSet
	deviceChange registry[func(Device, DeviceChange)]
	beforeUpdate registry[func(step uint64, kind UpdateKind)]
	onUpdate     registry[func(step uint64, kind UpdateKind)]

	step         uint64
	kind         UpdateKind
	nextDeviceID int
	nextEventID  uint64
	nextTouchID  int32
	nextUniqueID uint64
}

// NewInput creates an empty device system at update step 0.
func NewInput() *Input {
	start := time.Now()
	return &Input{
		Clock:    func() float64 { return time.Since(start).Seconds() },
		monitors: make(map[Control]*monitorSet),
		kind:     UpdateDynamic,
	}
}

// Now returns the current time in seconds.
func (in *Input) Now() float64 { return in.Clock() }

// Step returns the current update step counter.
func (in *Input) Step() uint64 { return in.step }

// UpdateKind returns the kind of the current update step.
func (in *Input) UpdateKind() UpdateKind { return in.kind }

// Devices returns the registered devices. The returned slice MUST NOT be mutated.
func (in *Input) Devices() []Device { return in.devices }

// NewTouchID allocates a platform-style contact ID. IDs start at 1.
func (in *Input) NewTouchID() int32 {
	in.nextTouchID++
	return in.nextTouchID
}

// newUniqueID allocates an engine contact ID, unique for the Input's lifetime.
func (in *Input) newUniqueID() uint64 {
	in.nextUniqueID++
	return in.nextUniqueID
}

// NewEvent creates a device-report event stamped with the current time.
func (in *Input) NewEvent(kind EventKind) *Event {
	in.nextEventID++
	return &Event{ID: in.nextEventID, Kind: kind, Time: in.Now()}
}

// --- Device registry ---

// AddScreen registers a touch screen with the given number of slots.
func (in *Input) AddScreen(name string, slots int) *Screen {
	return in.addScreen(name, slots, false)
}

func (in *Input) addScreen(name string, slots int, synthetic bool) *Screen {
	if slots < 1 {
		slots = 1
	}
	in.nextDeviceID++
	s := &Screen{
		in:        in,
		id:        in.nextDeviceID,
		name:      name,
		synthetic: synthetic,
		primary:   -1,
		TapTime:   DefaultTapTime,
		TapRadius: DefaultTapRadius,
	}
	s.touches = make([]*TouchControl, slots)
	for i := range s.touches {
		s.touches[i] = &TouchControl{screen: s, index: i}
	}
	in.devices = append(in.devices, s)
	in.notifyDeviceChange(s, DeviceAdded)
	return s
}

// AddPointer registers a mouse or pen with the named buttons. Buttons whose
// name starts with '~' are synthetic (derived from other buttons) and are
// registered without the prefix.
func (in *Input) AddPointer(kind PointerKind, name string, buttons ...string) *Pointer {
	in.nextDeviceID++
	p := &Pointer{in: in, id: in.nextDeviceID, name: name, kind: kind}
	p.position = &Vector2Control{device: p, name: "position"}
	for _, b := range buttons {
		synthetic := false
		if len(b) > 1 && b[0] == '~' {
			synthetic = true
			b = b[1:]
		}
		p.buttons = append(p.buttons, &ButtonControl{
			device:    p,
			name:      b,
			index:     len(p.buttons),
			synthetic: synthetic,
		})
	}
	in.devices = append(in.devices, p)
	in.notifyDeviceChange(p, DeviceAdded)
	return p
}

// RemoveDevice unregisters d. Any in-progress contact on a screen is
// canceled first, so observers see a terminal record for it. Listeners are
// notified before the device's monitors are dropped.
func (in *Input) RemoveDevice(d Device) error {
	if d == nil {
		return ErrNilDevice
	}
	idx := -1
	for i, dev := range in.devices {
		if dev == d {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("remove device %q: not registered", d.Name())
	}
	if s, ok := d.(*Screen); ok {
		s.cancelAll()
	}
	in.devices = append(in.devices[:idx:idx], in.devices[idx+1:]...)
	in.notifyDeviceChange(d, DeviceRemoved)
	for _, c := range d.controls() {
		delete(in.monitors, c)
	}
	return nil
}

// OnDeviceChange registers a callback for devices being added or removed.
func (in *Input) OnDeviceChange(fn func(Device, DeviceChange)) CallbackHandle {
	return in.deviceChange.add(fn)
}

func (in *Input) notifyDeviceChange(d Device, change DeviceChange) {
	for _, h := range in.deviceChange.handlers {
		h.fn(d, change)
	}
}

// --- Change monitors ---

// AddChangeMonitor registers fn to be called whenever ctrl changes. tag is
// passed back unchanged.
func (in *Input) AddChangeMonitor(ctrl Control, fn MonitorFunc, tag int64) (CallbackHandle, error) {
	if ctrl == nil || ctrl.Device() == nil {
		return CallbackHandle{}, ErrNilDevice
	}
	set := in.monitors[ctrl]
	if set == nil {
		set = &monitorSet{}
		in.monitors[ctrl] = set
	}
	return set.add(monitor{fn: fn, tag: tag}), nil
}

func (in *Input) notifyChanged(ctrl Control, t float64, event *Event) {
	set := in.monitors[ctrl]
	if set == nil {
		return
	}
	for _, h := range set.handlers {
		h.fn.fn(ctrl, t, event, h.fn.tag)
	}
}

func (in *Input) eventTime(event *Event) float64 {
	if event != nil {
		return event.Time
	}
	return in.Now()
}

// --- State changes ---

// ApplyState writes state into a touch slot and notifies its monitors.
// event is the provenance of the change; pass nil for host-internal changes.
func (in *Input) ApplyState(ctrl *TouchControl, state TouchState, event *Event) error {
	if ctrl == nil || ctrl.screen == nil {
		return ErrNilDevice
	}
	in.applyState(ctrl, state, event)
	return nil
}

// applyState is ApplyState for slots the host already owns.
func (in *Input) applyState(ctrl *TouchControl, state TouchState, event *Event) {
	ctrl.state = state
	if state.Phase == PhaseEnded && state.Flags&FlagTap != 0 && event.FromDevice() {
		ctrl.screen.pendingTapRelease = append(ctrl.screen.pendingTapRelease, ctrl.index)
	}
	in.notifyChanged(ctrl, in.eventTime(event), event)
}

// MovePointer sets a pointer's position as a device report.
func (in *Input) MovePointer(p *Pointer, pos Vec2) error {
	if p == nil {
		return ErrNilDevice
	}
	if p.position.value == pos {
		return nil
	}
	event := in.NewEvent(EventState)
	p.position.value = pos
	in.notifyChanged(p.position, event.Time, event)
	return nil
}

// SetButton presses or releases a pointer button as a device report.
func (in *Input) SetButton(b *ButtonControl, pressed bool) error {
	if b == nil || b.device == nil {
		return ErrNilDevice
	}
	if b.pressed == pressed {
		return nil
	}
	event := in.NewEvent(EventState)
	b.pressed = pressed
	in.notifyChanged(b, event.Time, event)
	return nil
}

// --- Update loop ---

// OnBeforeUpdate registers a callback run at the start of every update step,
// after the step counter has advanced.
func (in *Input) OnBeforeUpdate(fn func(step uint64, kind UpdateKind)) CallbackHandle {
	return in.beforeUpdate.add(fn)
}

// OnUpdate registers a producer callback run once per update step, after
// screens have reset their deltas. Injectors and platform sources feed
// device reports from here.
func (in *Input) OnUpdate(fn func(step uint64, kind UpdateKind)) CallbackHandle {
	return in.onUpdate.add(fn)
}

// Update starts a new update step of the given kind. Screens then emit
// pending tap-release echoes and reset accumulated deltas, and finally the
// OnUpdate producers run.
func (in *Input) Update(kind UpdateKind) {
	in.step++
	in.kind = kind
	for _, h := range in.beforeUpdate.handlers {
		h.fn(in.step, kind)
	}
	for _, d := range in.devices {
		if s, ok := d.(*Screen); ok {
			s.beginStep()
		}
	}
	for _, h := range in.onUpdate.handlers {
		h.fn(in.step, kind)
	}
}
