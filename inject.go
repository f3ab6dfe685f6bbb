package touchtrail

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

type injectAction uint8

const (
	injectPress injectAction = iota
	injectMove
	injectRelease
)

// syntheticContact is a single queued input report.
type syntheticContact struct {
	action injectAction
	pos    Vec2
}

// injectTarget turns queued reports into device changes.
type injectTarget interface {
	apply(in *Input, c syntheticContact)
	name() string
}

// Injector queues synthetic input and feeds one report per update step,
// from the Input's OnUpdate hook. It drives either a pointer (whose presses
// become contacts through a Simulation) or a screen directly.
type Injector struct {
	in     *Input
	target injectTarget
	queue  []syntheticContact
	hook   CallbackHandle
}

// NewPointerInjector returns an injector that moves p and presses button.
func NewPointerInjector(in *Input, p *Pointer, button string) (*Injector, error) {
	if in == nil || p == nil {
		return nil, ErrNilDevice
	}
	b := p.Button(button)
	if b == nil {
		return nil, ErrNilDevice
	}
	return newInjector(in, &pointerTarget{pointer: p, button: b}), nil
}

// NewScreenInjector returns an injector that sends contacts to s. Each press
// starts a new contact with a fresh touch ID.
func NewScreenInjector(in *Input, s *Screen) (*Injector, error) {
	if in == nil || s == nil {
		return nil, ErrNilDevice
	}
	return newInjector(in, &screenTarget{screen: s}), nil
}

func newInjector(in *Input, target injectTarget) *Injector {
	inj := &Injector{in: in, target: target}
	inj.hook = in.OnUpdate(func(uint64, UpdateKind) { inj.step() })
	return inj
}

// Close detaches the injector. Queued reports are dropped.
func (inj *Injector) Close() {
	inj.hook.Remove()
	inj.queue = nil
}

// Pending returns the number of queued reports.
func (inj *Injector) Pending() int { return len(inj.queue) }

// InjectPress queues a press at pos. Consumed on the next update step.
func (inj *Injector) InjectPress(pos Vec2) {
	inj.queue = append(inj.queue, syntheticContact{action: injectPress, pos: pos})
}

// InjectMove queues a move to pos with the contact held down. Use this
// between InjectPress and InjectRelease to simulate a drag.
func (inj *Injector) InjectMove(pos Vec2) {
	inj.queue = append(inj.queue, syntheticContact{action: injectMove, pos: pos})
}

// InjectRelease queues a release at pos.
func (inj *Injector) InjectRelease(pos Vec2) {
	inj.queue = append(inj.queue, syntheticContact{action: injectRelease, pos: pos})
}

// InjectClick queues a press followed by a release at the same position.
// Consumes two steps.
func (inj *Injector) InjectClick(pos Vec2) {
	inj.InjectPress(pos)
	inj.InjectRelease(pos)
}

// InjectDrag queues a full drag: press at from, linearly interpolated moves
// over steps-2 intermediate steps, and release at to. The whole sequence
// consumes steps update steps. Minimum is 2 (press + release).
func (inj *Injector) InjectDrag(from, to Vec2, steps int) {
	inj.InjectDragEased(from, to, steps, ease.Linear)
}

// InjectDragEased is InjectDrag with the intermediate positions placed along
// an easing curve instead of a straight line in time.
func (inj *Injector) InjectDragEased(from, to Vec2, steps int, fn ease.TweenFunc) {
	if steps < 2 {
		steps = 2
	}
	if fn == nil {
		fn = ease.Linear
	}
	inj.InjectPress(from)
	moves := steps - 2
	tw := gween.New(0, 1, float32(moves+1), fn)
	for i := 1; i <= moves; i++ {
		t, _ := tw.Update(1)
		inj.InjectMove(Vec2{
			X: from.X + (to.X-from.X)*float64(t),
			Y: from.Y + (to.Y-from.Y)*float64(t),
		})
	}
	inj.InjectRelease(to)
}

// step pops one report and applies it. Returns true if one was consumed.
func (inj *Injector) step() bool {
	if len(inj.queue) == 0 {
		return false
	}
	c := inj.queue[0]
	copy(inj.queue, inj.queue[1:])
	inj.queue = inj.queue[:len(inj.queue)-1]
	inj.target.apply(inj.in, c)
	return true
}

type pointerTarget struct {
	pointer *Pointer
	button  *ButtonControl
}

func (t *pointerTarget) name() string { return t.pointer.name }

func (t *pointerTarget) apply(in *Input, c syntheticContact) {
	_ = in.MovePointer(t.pointer, c.pos)
	switch c.action {
	case injectPress:
		_ = in.SetButton(t.button, true)
	case injectRelease:
		_ = in.SetButton(t.button, false)
	}
}

type screenTarget struct {
	screen  *Screen
	touchID int32
}

func (t *screenTarget) name() string { return t.screen.name }

func (t *screenTarget) apply(in *Input, c syntheticContact) {
	switch c.action {
	case injectPress:
		t.touchID = in.NewTouchID()
		t.screen.Send(TouchInput{ID: t.touchID, Phase: PhaseBegan, Position: c.pos, Pressure: 1})
	case injectMove:
		if t.touchID != 0 {
			t.screen.Send(TouchInput{ID: t.touchID, Phase: PhaseMoved, Position: c.pos, Pressure: 1})
		}
	case injectRelease:
		if t.touchID != 0 {
			t.screen.Send(TouchInput{ID: t.touchID, Phase: PhaseEnded, Position: c.pos})
			t.touchID = 0
		}
	}
}
