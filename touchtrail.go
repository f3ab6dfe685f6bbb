package touchtrail

import (
	"errors"
	"math"
)

// Errors returned (or panicked with) by the engine. Match with errors.Is.
var (
	ErrStaleHandle     = errors.New("touchtrail: handle is no longer valid; the recorded history has been changed")
	ErrOutOfRange      = errors.New("touchtrail: index out of range")
	ErrDisposed        = errors.New("touchtrail: use of disposed history")
	ErrNilDevice       = errors.New("touchtrail: nil device")
	ErrInvalidSettings = errors.New("touchtrail: invalid settings")
)

// Vec2 is a 2D vector used for positions, deltas, and radii throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// LengthSq returns the squared length of v.
func (v Vec2) LengthSq() float64 { return v.X*v.X + v.Y*v.Y }

// Length returns the length of v.
func (v Vec2) Length() float64 { return math.Sqrt(v.LengthSq()) }

// Phase is the life-cycle stage reported by a touch record.
type Phase uint8

const (
	PhaseNone       Phase = iota // slot holds no contact
	PhaseBegan                   // contact started
	PhaseMoved                   // contact moved
	PhaseEnded                   // contact lifted
	PhaseCanceled                // contact was cut off (device removed, focus lost)
	PhaseStationary              // contact is ongoing but did not change this step
)

// InProgress reports whether p is Began, Moved, or Stationary.
func (p Phase) InProgress() bool {
	return p == PhaseBegan || p == PhaseMoved || p == PhaseStationary
}

// Terminal reports whether p is Ended or Canceled.
func (p Phase) Terminal() bool {
	return p == PhaseEnded || p == PhaseCanceled
}

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "None"
	case PhaseBegan:
		return "Began"
	case PhaseMoved:
		return "Moved"
	case PhaseEnded:
		return "Ended"
	case PhaseCanceled:
		return "Canceled"
	case PhaseStationary:
		return "Stationary"
	default:
		return "Phase(?)"
	}
}

// UpdateKind identifies which loop drives an update step.
type UpdateKind uint8

const (
	UpdateDynamic UpdateKind = 1 << iota // per-frame update
	UpdateFixed                          // fixed-timestep update
	UpdateManual                         // update driven explicitly by the host
	UpdateEditor                         // design-time update
)

// UpdateMaskRuntime covers every update kind except editor updates.
const UpdateMaskRuntime = UpdateDynamic | UpdateFixed | UpdateManual

func (k UpdateKind) String() string {
	switch k {
	case UpdateDynamic:
		return "dynamic"
	case UpdateFixed:
		return "fixed"
	case UpdateManual:
		return "manual"
	case UpdateEditor:
		return "editor"
	default:
		return "mixed"
	}
}

// EventKind distinguishes where a state change came from.
type EventKind uint8

const (
	EventState      EventKind = iota // full state report from a device
	EventDeltaState                  // partial state report from a device
	EventDeviceRemove                // device removal notice
)

// Event is the provenance of a state change. A nil *Event means the change
// was made internally by the host rather than by a device report.
type Event struct {
	ID   uint64
	Kind EventKind
	Time float64
}

// FromDevice reports whether e carries device-reported state.
func (e *Event) FromDevice() bool {
	return e != nil && (e.Kind == EventState || e.Kind == EventDeltaState)
}

// TouchFlags is a bitmask of per-record flags.
type TouchFlags uint8

const (
	FlagPrimary    TouchFlags = 1 << iota // record belongs to the primary touch
	FlagTap                               // contact qualified as a tap
	FlagTapRelease                        // button release echo following a tap
)
