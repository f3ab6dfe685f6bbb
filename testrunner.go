package touchtrail

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tanema/gween/ease"
)

// scriptStep represents a single action in an input script.
type scriptStep struct {
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Steps  int     `json:"steps,omitempty"`
	Ease   string  `json:"ease,omitempty"`
}

// script is the top-level JSON structure for an input script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

var easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inquad":     ease.InQuad,
	"outquad":    ease.OutQuad,
	"inoutquad":  ease.InOutQuad,
	"incubic":    ease.InCubic,
	"outcubic":   ease.OutCubic,
	"inoutcubic": ease.InOutCubic,
	"insine":     ease.InSine,
	"outsine":    ease.OutSine,
	"inoutsine":  ease.InOutSine,
	"outback":    ease.OutBack,
	"outbounce":  ease.OutBounce,
}

// ScriptRunner plays a recorded input script through an Injector, one
// action per update step. It waits for the injector to drain before starting
// the next action.
type ScriptRunner struct {
	inj       *Injector
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	hook      CallbackHandle
	log       *slog.Logger
}

// LoadScript parses a JSON input script. Actions are "press", "move",
// "release", "click", "drag", and "wait".
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse input script: no steps")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case "press", "move", "release", "click", "drag", "wait":
		default:
			return nil, fmt.Errorf("parse input script: step %d: unknown action %q", i, st.Action)
		}
		if st.Ease != "" {
			if _, ok := easings[strings.ToLower(st.Ease)]; !ok {
				return nil, fmt.Errorf("parse input script: step %d: unknown ease %q", i, st.Ease)
			}
		}
	}
	return &ScriptRunner{steps: sc.Steps, log: slog.Default()}, nil
}

// Attach starts playing the script through inj on every update step of in.
func (r *ScriptRunner) Attach(in *Input, inj *Injector) error {
	if in == nil || inj == nil {
		return ErrNilDevice
	}
	r.inj = inj
	r.log = slog.Default().With("component", "touchtrail", "script", inj.target.name())
	r.hook = in.OnUpdate(func(uint64, UpdateKind) { r.step() })
	return nil
}

// Detach stops playing. Actions already handed to the injector stay queued.
func (r *ScriptRunner) Detach() { r.hook.Remove() }

// Done reports whether all steps in the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one update step.
func (r *ScriptRunner) step() {
	if r.done || r.inj == nil {
		return
	}
	// Wait for pending injections to drain before advancing.
	if r.inj.Pending() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	r.log.Debug("script action", "index", r.cursor-1, "action", st.Action)

	switch st.Action {
	case "press":
		r.inj.InjectPress(Vec2{st.X, st.Y})
	case "move":
		r.inj.InjectMove(Vec2{st.X, st.Y})
	case "release":
		r.inj.InjectRelease(Vec2{st.X, st.Y})
	case "click":
		r.inj.InjectClick(Vec2{st.X, st.Y})
	case "drag":
		fn := ease.Linear
		if st.Ease != "" {
			fn = easings[strings.ToLower(st.Ease)]
		}
		r.inj.InjectDragEased(Vec2{st.FromX, st.FromY}, Vec2{st.ToX, st.ToY}, max(st.Steps, 2), fn)
	case "wait":
		if st.Steps > 0 {
			r.waitCount = st.Steps - 1 // this step counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && r.inj.Pending() == 0 {
		r.done = true
	}
}
