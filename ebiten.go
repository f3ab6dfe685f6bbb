package touchtrail

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// DefaultHardwareTouches is the slot count of the screen created by
// NewEbitenSource when none is given.
const DefaultHardwareTouches = 10

var ebitenMouseButtons = [...]ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
}

// EbitenSource feeds ebiten's mouse and touch state into an Input. It
// registers one mouse pointer (for a Simulation to pick up) and one
// touchscreen. Poll reads ebiten's state and reports what changed.
type EbitenSource struct {
	in     *Input
	mouse  *Pointer
	screen *Screen

	touches map[ebiten.TouchID]ebitenTouch
	ids     []ebiten.TouchID
	seen    map[ebiten.TouchID]bool
	hook    CallbackHandle
}

type ebitenTouch struct {
	id  int32
	pos Vec2
}

// NewEbitenSource registers a mouse and a touchscreen with in.
func NewEbitenSource(in *Input, slots int) (*EbitenSource, error) {
	if in == nil {
		return nil, ErrNilDevice
	}
	if slots < 1 {
		slots = DefaultHardwareTouches
	}
	return &EbitenSource{
		in:      in,
		mouse:   in.AddPointer(PointerMouse, "Mouse", MouseButtons...),
		screen:  in.AddScreen("Touchscreen", slots),
		touches: make(map[ebiten.TouchID]ebitenTouch),
		seen:    make(map[ebiten.TouchID]bool),
	}, nil
}

// Mouse returns the registered mouse.
func (es *EbitenSource) Mouse() *Pointer { return es.mouse }

// Screen returns the registered touchscreen.
func (es *EbitenSource) Screen() *Screen { return es.screen }

// Attach polls automatically on every update step of the Input.
func (es *EbitenSource) Attach() {
	es.hook.Remove()
	es.hook = es.in.OnUpdate(func(uint64, UpdateKind) { es.Poll() })
}

// Detach stops automatic polling.
func (es *EbitenSource) Detach() { es.hook.Remove() }

// Poll reads the current cursor, mouse buttons, and touches from ebiten.
// Must be called from the ebiten Update goroutine.
func (es *EbitenSource) Poll() {
	cx, cy := ebiten.CursorPosition()
	_ = es.in.MovePointer(es.mouse, Vec2{float64(cx), float64(cy)})
	anyPressed := false
	for i, b := range ebitenMouseButtons {
		pressed := ebiten.IsMouseButtonPressed(b)
		anyPressed = anyPressed || pressed
		_ = es.in.SetButton(es.mouse.buttons[i], pressed)
	}
	if press := es.mouse.Button("press"); press != nil {
		_ = es.in.SetButton(press, anyPressed)
	}

	es.ids = ebiten.AppendTouchIDs(es.ids[:0])
	es.syncTouches(es.ids, func(id ebiten.TouchID) Vec2 {
		x, y := ebiten.TouchPosition(id)
		return Vec2{float64(x), float64(y)}
	})
}

// syncTouches reports contacts that appeared, moved, or disappeared since the
// previous call. ebiten's IDs are not narrowed; each new contact gets its own
// ID from the Input.
func (es *EbitenSource) syncTouches(ids []ebiten.TouchID, position func(ebiten.TouchID) Vec2) {
	clear(es.seen)
	for _, id := range ids {
		es.seen[id] = true
		pos := position(id)
		last, known := es.touches[id]
		switch {
		case !known:
			tid := es.in.NewTouchID()
			if es.screen.Send(TouchInput{ID: tid, Phase: PhaseBegan, Position: pos, Pressure: 1}) {
				es.touches[id] = ebitenTouch{id: tid, pos: pos}
			}
		case last.pos != pos:
			es.screen.Send(TouchInput{ID: last.id, Phase: PhaseMoved, Position: pos, Pressure: 1})
			es.touches[id] = ebitenTouch{id: last.id, pos: pos}
		}
	}
	for id, t := range es.touches {
		if es.seen[id] {
			continue
		}
		es.screen.Send(TouchInput{ID: t.id, Phase: PhaseEnded, Position: t.pos})
		delete(es.touches, id)
	}
}

// Close unregisters the devices. Open contacts are canceled.
func (es *EbitenSource) Close() error {
	es.hook.Remove()
	if err := es.in.RemoveDevice(es.mouse); err != nil {
		return err
	}
	clear(es.touches)
	return es.in.RemoveDevice(es.screen)
}
