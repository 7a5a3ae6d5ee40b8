// Package controls holds the settings model for per-device control
// options, the .sccontrols persistence codec, the frontend input/output
// conversions and the bridge to the game's actionmaps representation.
//
// Curve and exponent settings are carried in the model and the save
// format but are never written to the game's file - Star Citizen does
// not keep them across restarts, so only inversion crosses that
// boundary. See bridge.go.
package controls

// FileVersion is the current .sccontrols format version.
const FileVersion = "1.0"

// CurveMode values the editor writes.
const (
	CurveModeExponent = "exponent"
	CurveModeCurve    = "curve"
)

// CurvePoint is one point on a response curve.
type CurvePoint struct {
	In  float64 `json:"in"`
	Out float64 `json:"out"`
}

// CurveData is an ordered response curve. Point order is meaningful and
// is preserved through every conversion.
type CurveData struct {
	Points []CurvePoint `json:"points"`
}

// ControlOptionSettings is the tunable state of a single control
// option. Every field is optional; an entry with no field set is never
// stored. Invert uses a pointer so "unset" and "explicitly off" stay
// distinct.
type ControlOptionSettings struct {
	Invert    *bool      `json:"invert,omitempty"`
	CurveMode string     `json:"curveMode,omitempty"` // CurveModeExponent or CurveModeCurve
	Exponent  *float64   `json:"exponent,omitempty"`
	Curve     *CurveData `json:"curve,omitempty"`
}

// IsEmpty reports whether no field is set.
func (o ControlOptionSettings) IsEmpty() bool {
	return o.Invert == nil && o.CurveMode == "" && o.Exponent == nil && o.Curve == nil
}

// DeviceInstanceSettings holds the options for one device instance,
// keyed by option name (e.g. "flight_move_pitch").
type DeviceInstanceSettings struct {
	Product string                           `json:"product,omitempty"`
	Options map[string]ControlOptionSettings `json:"options"`
}

// DeviceSettings groups settings per device category. Keyboard and
// gamepad are singular; joysticks are keyed by the instance number the
// game assigns, so several physical sticks can coexist.
type DeviceSettings struct {
	Keyboard *DeviceInstanceSettings           `json:"keyboard,omitempty"`
	Gamepad  *DeviceInstanceSettings           `json:"gamepad,omitempty"`
	Joystick map[string]DeviceInstanceSettings `json:"joystick,omitempty"`
}

// ControlsFile is the root of the .sccontrols save format.
type ControlsFile struct {
	Version      string         `json:"version"`
	ProfileName  string         `json:"profile_name"`
	LastModified string         `json:"last_modified,omitempty"`
	Devices      DeviceSettings `json:"devices"`
}
