package touchtrail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Setting defaults.
const (
	DefaultMaxHistoryPerFinger = 64
	DefaultSimulatedTouches    = 10
)

// Settings configures a Context and a Simulation.
type Settings struct {
	// MaxHistoryPerFinger is the history depth given to newly created
	// fingers. Changing it does not resize existing fingers.
	MaxHistoryPerFinger int `toml:"max_history_per_finger" yaml:"max_history_per_finger" json:"max_history_per_finger"`

	// TapTime and TapRadius bound what simulated contacts report as a tap.
	TapTime   float64 `toml:"tap_time" yaml:"tap_time" json:"tap_time"`
	TapRadius float64 `toml:"tap_radius" yaml:"tap_radius" json:"tap_radius"`

	// SimulatedTouches is the slot count of the simulated screen.
	SimulatedTouches int `toml:"simulated_touches" yaml:"simulated_touches" json:"simulated_touches"`

	// UpdateMask selects the update kinds a context records in, written as
	// names joined by '|', e.g. "dynamic|fixed".
	UpdateMask UpdateKind `toml:"update_mask" yaml:"update_mask" json:"update_mask"`

	Debug bool `toml:"debug" yaml:"debug" json:"debug"`
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		MaxHistoryPerFinger: DefaultMaxHistoryPerFinger,
		TapTime:             DefaultTapTime,
		TapRadius:           DefaultTapRadius,
		SimulatedTouches:    DefaultSimulatedTouches,
		UpdateMask:          UpdateMaskRuntime,
	}
}

// Validate checks every field and reports all problems at once. The
// returned error wraps ErrInvalidSettings.
func (s Settings) Validate() error {
	var problems []string
	if s.MaxHistoryPerFinger < 1 {
		problems = append(problems, fmt.Sprintf("max_history_per_finger must be at least 1, got %d", s.MaxHistoryPerFinger))
	}
	if s.TapTime < 0 {
		problems = append(problems, fmt.Sprintf("tap_time must not be negative, got %g", s.TapTime))
	}
	if s.TapRadius < 0 {
		problems = append(problems, fmt.Sprintf("tap_radius must not be negative, got %g", s.TapRadius))
	}
	if s.SimulatedTouches < 1 {
		problems = append(problems, fmt.Sprintf("simulated_touches must be at least 1, got %d", s.SimulatedTouches))
	}
	if s.UpdateMask == 0 {
		problems = append(problems, "update_mask must name at least one update kind")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
}

// LoadSettings reads settings from a .toml, .yaml, .yml, or .json file.
// Fields missing from the file keep their defaults. Unknown keys are an
// error.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return ParseSettings(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseSettings decodes settings in the given format ("toml", "yaml",
// "yml", or "json") on top of DefaultSettings and validates the result.
func ParseSettings(data []byte, format string) (Settings, error) {
	s := DefaultSettings()
	switch strings.ToLower(format) {
	case "toml":
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return Settings{}, fmt.Errorf("decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Settings{}, fmt.Errorf("%w: unknown keys %v", ErrInvalidSettings, undecoded)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("decode YAML: %w", err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("decode JSON: %w", err)
		}
	default:
		return Settings{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidSettings, format)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

var updateKindNames = []struct {
	kind UpdateKind
	name string
}{
	{UpdateDynamic, "dynamic"},
	{UpdateFixed, "fixed"},
	{UpdateManual, "manual"},
	{UpdateEditor, "editor"},
}

// MarshalText writes the mask as names joined by '|'.
func (k UpdateKind) MarshalText() ([]byte, error) {
	var names []string
	for _, n := range updateKindNames {
		if k&n.kind != 0 {
			names = append(names, n.name)
		}
	}
	return []byte(strings.Join(names, "|")), nil
}

// UnmarshalText parses names joined by '|'. "runtime" stands for every kind
// except editor, and "all" for every kind.
func (k *UpdateKind) UnmarshalText(text []byte) error {
	var mask UpdateKind
	for _, part := range strings.Split(string(text), "|") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "":
			continue
		case "runtime":
			mask |= UpdateMaskRuntime
			continue
		case "all":
			mask |= UpdateMaskRuntime | UpdateEditor
			continue
		}
		found := false
		for _, n := range updateKindNames {
			if n.name == part {
				mask |= n.kind
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: unknown update kind %q", ErrInvalidSettings, part)
		}
	}
	*k = mask
	return nil
}

// UnmarshalYAML accepts the same text form as UnmarshalText.
func (k *UpdateKind) UnmarshalYAML(node *yaml.Node) error {
	return k.UnmarshalText([]byte(node.Value))
}
