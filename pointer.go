package touchtrail

// PointerKind distinguishes single-point pointer devices.
type PointerKind uint8

const (
	PointerMouse PointerKind = iota // mouse or trackpad cursor
	PointerPen                      // stylus
)

// Default button layouts.
var (
	MouseButtons = []string{"leftButton", "rightButton", "middleButton", "~press"}
	PenButtons   = []string{"tip", "eraser", "barrelButton", "~press"}
)

// Pointer is a single-point device with one position and a set of buttons.
type Pointer struct {
	in       *Input
	id       int
	name     string
	kind     PointerKind
	position *Vector2Control
	buttons  []*ButtonControl
}

// ID returns the device ID.
func (p *Pointer) ID() int { return p.id }

// Name returns the device name.
func (p *Pointer) Name() string { return p.name }

// Synthetic reports false; pointers are treated as hardware.
func (p *Pointer) Synthetic() bool { return false }

// Kind returns the pointer kind.
func (p *Pointer) Kind() PointerKind { return p.kind }

// Position returns the position control.
func (p *Pointer) Position() *Vector2Control { return p.position }

// Buttons returns the pointer's buttons. The returned slice MUST NOT be mutated.
func (p *Pointer) Buttons() []*ButtonControl { return p.buttons }

// Button returns the button with the given name, or nil.
func (p *Pointer) Button(name string) *ButtonControl {
	for _, b := range p.buttons {
		if b.name == name {
			return b
		}
	}
	return nil
}

func (p *Pointer) controls() []Control {
	out := make([]Control, 0, len(p.buttons)+1)
	out = append(out, p.position)
	for _, b := range p.buttons {
		out = append(out, b)
	}
	return out
}

// Vector2Control is a 2D value control such as a pointer position.
type Vector2Control struct {
	device Device
	name   string
	value  Vec2
}

// Device returns the owning device.
func (c *Vector2Control) Device() Device {
	if c == nil {
		return nil
	}
	return c.device
}

// Name returns the control name.
func (c *Vector2Control) Name() string { return c.name }

// Value returns the current value.
func (c *Vector2Control) Value() Vec2 { return c.value }

// ButtonControl is a pressable control.
type ButtonControl struct {
	device    Device
	name      string
	index     int
	pressed   bool
	synthetic bool
}

// Device returns the owning device.
func (c *ButtonControl) Device() Device {
	if c == nil {
		return nil
	}
	return c.device
}

// Name returns the control name.
func (c *ButtonControl) Name() string { return c.name }

// Index returns the button's position on its pointer.
func (c *ButtonControl) Index() int { return c.index }

// Pressed reports whether the button is down.
func (c *ButtonControl) Pressed() bool { return c.pressed }

// Synthetic reports whether the button is derived from other buttons.
func (c *ButtonControl) Synthetic() bool { return c.synthetic }
