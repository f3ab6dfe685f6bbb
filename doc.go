// Package touchtrail turns per-slot touch screen state into a queryable,
// frame-coherent multi-touch model with bounded history.
//
// Hardware touch screens expose a fixed number of slots that are reused by
// unrelated physical contacts, often with the same platform touch ID.
// touchtrail records every change of every slot, tells contacts apart, and
// answers two questions: what happened (history), and what is touching the
// screen right now (active touches).
//
// # Quick start
//
// Create an [Input], register a screen, and enable a [Context]:
//
//	in := touchtrail.NewInput()
//	screen := in.AddScreen("Touchscreen", 10)
//	ctx := touchtrail.NewContext(in, "runtime", touchtrail.DefaultSettings())
//	if err := ctx.Enable(); err != nil {
//		return err
//	}
//
// Then drive one update step per frame and report contacts:
//
//	in.Update(touchtrail.UpdateDynamic)
//	screen.Send(touchtrail.TouchInput{ID: 1, Phase: touchtrail.PhaseBegan, Position: pos})
//	for _, t := range ctx.ActiveTouches() {
//		fmt.Println(t.UniqueID(), t.Phase(), t.Delta())
//	}
//
// With ebiten, [NewEbitenSource] registers a mouse and a touchscreen and
// polls them on every step.
//
// # Fingers and touches
//
// A [Finger] is one slot of one screen. It keeps a bounded history of
// every recorded state; [Context.MaxHistoryPerFinger] sets its depth. A
// [Touch] is a handle to one recorded state. Touches stay readable until the
// finger's history overwrites their record; reading a stale touch panics
// with an error wrapping [ErrStaleHandle], so check [Touch.Valid] when
// holding touches across steps.
//
// Every contact gets a [Touch.UniqueID] that is never reused, even when the
// platform reuses touch IDs. [Touch.Delta] is the motion since the previous
// record of the same contact.
//
// # Active touches
//
// [Context.ActiveTouches] lists the ongoing contacts plus those that ended
// in the current step, oldest first. Contacts that did not change this step
// read as [PhaseStationary] with zero delta. A contact that begins and ends
// within one step is reported as began in that step and as ended in the
// next, so consumers always see both.
//
// # Simulation
//
// [Simulation] creates a synthetic screen fed by mice and pens: each
// physical button press becomes a contact, with tap detection and primary
// touch tracking. [Injector] and [ScriptRunner] queue synthetic input for
// tests and demos.
//
// # Callbacks
//
// [Context.OnFingerDown], [Context.OnFingerMove], and [Context.OnFingerUp]
// fire synchronously for every recorded change. A panicking callback is
// logged and does not stop the others. [Context.SetFingerSink] forwards the
// same notifications to an ECS world (see touchtrail/ecs).
//
// # Threading
//
// Nothing in this package is safe for concurrent use. Drive it from the
// thread that runs the update loop. [SettingsWatcher] is the one exception:
// it reloads settings in the background and hands them over on a channel.
package touchtrail
