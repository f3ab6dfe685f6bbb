// Package ecs provides ECS adapters for touchtrail.
package ecs

import (
	"github.com/phanxgames/touchtrail"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// FingerEvent is a snapshot of a finger notification. It copies the touch
// data out of the finger so systems can process it after the history has
// moved on.
type FingerEvent struct {
	Kind     touchtrail.FingerEvent
	Screen   string
	Finger   int
	TouchID  int32
	UniqueID uint64
	Phase    touchtrail.Phase
	Position touchtrail.Vec2
	Delta    touchtrail.Vec2
	Time     float64
	Tap      bool
}

// FingerEventType is the Donburi event type for finger notifications.
// Subscribe to this in your ECS systems to receive down, move, and up events.
var FingerEventType = events.NewEventType[FingerEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates a FingerSink backed by a Donburi world. Finger
// events are published to FingerEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) touchtrail.FingerSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitFingerEvent(kind touchtrail.FingerEvent, f *touchtrail.Finger) {
	ev := FingerEvent{
		Kind:   kind,
		Screen: f.Screen().Name(),
		Finger: f.Index(),
	}
	if t := f.LastTouch(); t.Valid() {
		ev.TouchID = t.TouchID()
		ev.UniqueID = t.UniqueID()
		ev.Phase = t.Phase()
		ev.Position = t.Position()
		ev.Delta = t.Delta()
		ev.Time = t.Time()
		ev.Tap = t.IsTap()
	}
	FingerEventType.Publish(s.world, ev)
}
