package touchtrail

import (
	"log/slog"
)

type retiredFinger struct {
	finger *Finger
	step   uint64
}

// Context owns the fingers for every registered screen, the active-touch
// view, and the finger callbacks. Two contexts may exist side by side (for
// example one for runtime updates and one for editor updates); each records
// only during the update kinds in its mask. They never share fingers.
type Context struct {
	in       *Input
	name     string
	log      *slog.Logger
	debug    bool
	settings Settings

	enableCount int
	deviceHook  CallbackHandle
	updateHook  CallbackHandle

	fingers []*Finger
	retired []retiredFinger
	active  activeSet

	handlers fingerHandlers
	sink     FingerSink
}

// NewContext creates a disabled context bound to in. Call Enable to start
// tracking fingers.
func NewContext(in *Input, name string, settings Settings) *Context {
	if settings.MaxHistoryPerFinger < 1 {
		settings.MaxHistoryPerFinger = DefaultMaxHistoryPerFinger
	}
	if settings.UpdateMask == 0 {
		settings.UpdateMask = UpdateMaskRuntime
	}
	return &Context{
		in:       in,
		name:     name,
		log:      slog.Default().With("component", "touchtrail", "context", name),
		debug:    settings.Debug,
		settings: settings,
	}
}

// Name returns the context name used in log output.
func (c *Context) Name() string { return c.name }

// Input returns the device system the context is bound to.
func (c *Context) Input() *Input { return c.in }

// SetLogger replaces the logger. Passing nil restores slog.Default.
func (c *Context) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	c.log = l.With("component", "touchtrail", "context", c.name)
}

// SetDebugMode enables or disables debug mode. When enabled, every rebuild
// of the active touches is logged at debug level with timing stats.
func (c *Context) SetDebugMode(enabled bool) {
	c.debug = enabled
}

// MaxHistoryPerFinger returns the history depth given to new fingers.
func (c *Context) MaxHistoryPerFinger() int { return c.settings.MaxHistoryPerFinger }

// SetMaxHistoryPerFinger changes the history depth for fingers created from
// now on. Existing fingers keep the depth they were created with.
func (c *Context) SetMaxHistoryPerFinger(depth int) {
	if depth < 1 {
		depth = 1
	}
	c.settings.MaxHistoryPerFinger = depth
}

// UpdateMask returns the update kinds the context records in.
func (c *Context) UpdateMask() UpdateKind { return c.settings.UpdateMask }

// Enabled reports whether the context is tracking fingers.
func (c *Context) Enabled() bool { return c.enableCount > 0 }

// Enable starts tracking. Calls are counted; the context stays enabled until
// Disable has been called as many times.
func (c *Context) Enable() error {
	if c.in == nil {
		return ErrNilDevice
	}
	c.enableCount++
	if c.enableCount > 1 {
		return nil
	}
	c.deviceHook = c.in.OnDeviceChange(c.onDeviceChange)
	c.updateHook = c.in.OnBeforeUpdate(c.onBeforeUpdate)
	for _, d := range c.in.Devices() {
		if s, ok := d.(*Screen); ok {
			c.addScreen(s)
		}
	}
	c.log.Debug("enabled", "fingers", len(c.fingers))
	return nil
}

// Disable undoes one Enable. The last Disable detaches from the input and
// releases every finger's history.
func (c *Context) Disable() {
	if c.enableCount == 0 {
		return
	}
	c.enableCount--
	if c.enableCount > 0 {
		return
	}
	c.deviceHook.Remove()
	c.updateHook.Remove()
	for _, f := range c.fingers {
		f.dispose()
	}
	for _, r := range c.retired {
		r.finger.dispose()
	}
	c.fingers = nil
	c.retired = nil
	c.active.reset()
	c.log.Debug("disabled")
}

// Fingers returns every finger of every registered screen, in screen
// registration order and then slot order. The returned slice MUST NOT be
// mutated.
func (c *Context) Fingers() []*Finger { return c.fingers }

func (c *Context) onDeviceChange(d Device, change DeviceChange) {
	s, ok := d.(*Screen)
	if !ok {
		return
	}
	switch change {
	case DeviceAdded:
		c.addScreen(s)
	case DeviceRemoved:
		c.removeScreen(s)
	}
}

func (c *Context) addScreen(s *Screen) {
	for _, f := range c.fingers {
		if f.screen == s {
			return
		}
	}
	for i := range s.touches {
		c.fingers = append(c.fingers, newFinger(c, s, i, c.settings.UpdateMask, c.settings.MaxHistoryPerFinger))
	}
	c.active.invalidate()
	c.log.Debug("screen added", "screen", s.name, "slots", len(s.touches))
}

// removeScreen drops the screen's fingers from Fingers right away. They are
// kept aside until the following step so any contact canceled by the
// removal still shows up in ActiveTouches.
func (c *Context) removeScreen(s *Screen) {
	kept := make([]*Finger, 0, len(c.fingers))
	removed := 0
	for _, f := range c.fingers {
		if f.screen != s {
			kept = append(kept, f)
			continue
		}
		f.monitor.Remove()
		c.retired = append(c.retired, retiredFinger{finger: f, step: c.in.step})
		removed++
	}
	c.fingers = kept
	c.active.invalidate()
	c.log.Debug("screen removed", "screen", s.name, "fingers", removed)
}

func (c *Context) onBeforeUpdate(step uint64, _ UpdateKind) {
	if len(c.retired) == 0 {
		return
	}
	kept := c.retired[:0]
	for _, r := range c.retired {
		// One extra step lets a contact that began and was canceled in the
		// removal step surface its cancel.
		if step > r.step+1 {
			r.finger.dispose()
			continue
		}
		kept = append(kept, r)
	}
	clear(c.retired[len(kept):])
	c.retired = kept
}

// ContextSwitch selects which of two contexts is current. The choice is
// made at the start of each update step from the step's kind and never
// changes within a step.
type ContextSwitch struct {
	runtime *Context
	editor  *Context
	current *Context
	hook    CallbackHandle
}

// NewContextSwitch binds to in. editor may be nil, in which case runtime is
// always current.
func NewContextSwitch(in *Input, runtime, editor *Context) (*ContextSwitch, error) {
	if in == nil || runtime == nil {
		return nil, ErrNilDevice
	}
	cs := &ContextSwitch{runtime: runtime, editor: editor, current: runtime}
	cs.hook = in.OnBeforeUpdate(func(_ uint64, kind UpdateKind) {
		if kind == UpdateEditor && cs.editor != nil {
			cs.current = cs.editor
		} else {
			cs.current = cs.runtime
		}
	})
	return cs, nil
}

// Current returns the context selected for the current step.
func (cs *ContextSwitch) Current() *Context { return cs.current }

// Close detaches the switch from its input.
func (cs *ContextSwitch) Close() { cs.hook.Remove() }
