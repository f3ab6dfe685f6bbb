package touchtrail

// --- Handler registry ---

type handler[F any] struct {
	id uint32
	fn F
}

// registry is an ordered list of callbacks. Removal builds a new slice so
// that a dispatch already iterating over the old one is not disturbed.
type registry[F any] struct {
	handlers []handler[F]
	nextID   uint32
}

func (r *registry[F]) add(fn F) CallbackHandle {
	r.nextID++
	id := r.nextID
	r.handlers = append(r.handlers, handler[F]{id: id, fn: fn})
	return CallbackHandle{id: id, reg: r}
}

func (r *registry[F]) remove(id uint32) {
	for i := range r.handlers {
		if r.handlers[i].id == id {
			next := make([]handler[F], 0, len(r.handlers)-1)
			next = append(next, r.handlers[:i]...)
			r.handlers = append(next, r.handlers[i+1:]...)
			return
		}
	}
}

type remover interface {
	remove(id uint32)
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	id  uint32
	reg remover
}

// Remove unregisters the callback so it no longer fires. Removing twice,
// or removing a zero handle, is a no-op.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	h.reg.remove(h.id)
}

// FingerEvent identifies a finger notification.
type FingerEvent uint8

const (
	EventFingerDown FingerEvent = iota // a contact began on the finger
	EventFingerMove                    // the finger's contact moved
	EventFingerUp                      // the contact ended or was canceled
)

func (e FingerEvent) String() string {
	switch e {
	case EventFingerDown:
		return "onFingerDown"
	case EventFingerMove:
		return "onFingerMove"
	case EventFingerUp:
		return "onFingerUp"
	default:
		return "onFinger?"
	}
}

type fingerHandlers struct {
	down registry[func(*Finger)]
	move registry[func(*Finger)]
	up   registry[func(*Finger)]
}

func (fh *fingerHandlers) get(ev FingerEvent) *registry[func(*Finger)] {
	switch ev {
	case EventFingerDown:
		return &fh.down
	case EventFingerMove:
		return &fh.move
	default:
		return &fh.up
	}
}

// OnFingerDown registers a callback for contacts beginning on any finger.
func (c *Context) OnFingerDown(fn func(*Finger)) CallbackHandle {
	return c.handlers.down.add(fn)
}

// OnFingerMove registers a callback for contact movement on any finger.
func (c *Context) OnFingerMove(fn func(*Finger)) CallbackHandle {
	return c.handlers.move.add(fn)
}

// OnFingerUp registers a callback for contacts ending or being canceled.
func (c *Context) OnFingerUp(fn func(*Finger)) CallbackHandle {
	return c.handlers.up.add(fn)
}

// fire invokes every subscriber for ev. A panicking subscriber is logged
// and the remaining subscribers still run.
func (c *Context) fire(ev FingerEvent, f *Finger) {
	reg := c.handlers.get(ev)
	for _, h := range reg.handlers {
		c.invokeSafe(ev, h.fn, f)
	}
	if c.sink != nil {
		c.sink.EmitFingerEvent(ev, f)
	}
}

func (c *Context) invokeSafe(ev FingerEvent, fn func(*Finger), f *Finger) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("finger callback panicked",
				"event", ev.String(),
				"screen", f.screen.Name(),
				"finger", f.index,
				"panic", r)
		}
	}()
	fn(f)
}

// FingerSink is the interface for optional ECS integration. When set on a
// Context, finger notifications are forwarded to it after the callbacks.
type FingerSink interface {
	EmitFingerEvent(ev FingerEvent, f *Finger)
}

// SetFingerSink sets the optional ECS bridge.
func (c *Context) SetFingerSink(sink FingerSink) {
	c.sink = sink
}
