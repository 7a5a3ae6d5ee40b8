package controls

import "time"

// SaveControlsInput is the shape the frontend posts when saving a
// profile: device categories hold plain option maps rather than the
// full model.
type SaveControlsInput struct {
	ProfileName string              `json:"profile_name"`
	Devices     DeviceSettingsInput `json:"devices"`
}

// DeviceSettingsInput mirrors DeviceSettings for the frontend.
type DeviceSettingsInput struct {
	Keyboard map[string]ControlOptionInput            `json:"keyboard,omitempty"`
	Gamepad  map[string]ControlOptionInput            `json:"gamepad,omitempty"`
	Joystick map[string]map[string]ControlOptionInput `json:"joystick,omitempty"`
}

// ControlOptionInput is one option as posted by the frontend. All
// fields are optional; an input with nothing set is discarded.
type ControlOptionInput struct {
	Invert    *bool      `json:"invert,omitempty"`
	CurveMode string     `json:"curveMode,omitempty"`
	Exponent  *float64   `json:"exponent,omitempty"`
	Curve     *CurveData `json:"curve,omitempty"`
}

// LoadControlsOutput is the shape returned to the frontend when a
// profile is loaded. Unset fields are omitted rather than sent as
// null so the frontend can tell "unset" from "explicitly off".
type LoadControlsOutput struct {
	Version      string               `json:"version"`
	ProfileName  string               `json:"profile_name"`
	LastModified string               `json:"last_modified,omitempty"`
	Devices      DeviceSettingsOutput `json:"devices"`
}

// DeviceSettingsOutput mirrors DeviceSettings for the frontend.
type DeviceSettingsOutput struct {
	Keyboard map[string]ControlOptionOutput            `json:"keyboard,omitempty"`
	Gamepad  map[string]ControlOptionOutput            `json:"gamepad,omitempty"`
	Joystick map[string]map[string]ControlOptionOutput `json:"joystick,omitempty"`
}

// ControlOptionOutput is one option as sent to the frontend.
type ControlOptionOutput struct {
	Invert    *bool      `json:"invert,omitempty"`
	CurveMode string     `json:"curveMode,omitempty"`
	Exponent  *float64   `json:"exponent,omitempty"`
	Curve     *CurveData `json:"curve,omitempty"`
}

// NewControlsFile creates an empty file for a fresh profile, stamped
// with the current time.
func NewControlsFile(profileName string) *ControlsFile {
	return &ControlsFile{
		Version:      FileVersion,
		ProfileName:  profileName,
		LastModified: time.Now().UTC().Format(time.RFC3339),
	}
}

// Touch updates the last-modified timestamp to now.
func (f *ControlsFile) Touch() {
	f.LastModified = time.Now().UTC().Format(time.RFC3339)
}

// FromSaveInput derives a fresh ControlsFile from frontend input.
// Options with no field set are dropped, then device categories whose
// option set came out empty are dropped in turn, so empty entries
// never reach the save format.
func FromSaveInput(in SaveControlsInput) *ControlsFile {
	file := NewControlsFile(in.ProfileName)

	if options := convertOptionsMap(in.Devices.Keyboard); len(options) > 0 {
		file.Devices.Keyboard = &DeviceInstanceSettings{Options: options}
	}
	if options := convertOptionsMap(in.Devices.Gamepad); len(options) > 0 {
		file.Devices.Gamepad = &DeviceInstanceSettings{Options: options}
	}

	instances := make(map[string]DeviceInstanceSettings)
	for instance, opts := range in.Devices.Joystick {
		if options := convertOptionsMap(opts); len(options) > 0 {
			instances[instance] = DeviceInstanceSettings{Options: options}
		}
	}
	if len(instances) > 0 {
		file.Devices.Joystick = instances
	}

	return file
}

// OptionFromInput copies a single frontend option into model settings.
func OptionFromInput(opt ControlOptionInput) ControlOptionSettings {
	return ControlOptionSettings{
		Invert:    copyBool(opt.Invert),
		CurveMode: opt.CurveMode,
		Exponent:  copyFloat(opt.Exponent),
		Curve:     copyCurve(opt.Curve),
	}
}

// convertOptionsMap copies frontend options into model options,
// dropping the empty ones.
func convertOptionsMap(opts map[string]ControlOptionInput) map[string]ControlOptionSettings {
	result := make(map[string]ControlOptionSettings)
	for name, opt := range opts {
		settings := OptionFromInput(opt)
		if settings.IsEmpty() {
			continue
		}
		result[name] = settings
	}
	return result
}

// ToLoadOutput expands a ControlsFile into the frontend shape. The
// conversion is lossless for all four option fields, including the
// ones the game itself never honours - this layer serves persistence,
// not the game file.
func ToLoadOutput(f *ControlsFile) LoadControlsOutput {
	out := LoadControlsOutput{
		Version:      f.Version,
		ProfileName:  f.ProfileName,
		LastModified: f.LastModified,
	}
	if f.Devices.Keyboard != nil {
		out.Devices.Keyboard = deviceToOutput(*f.Devices.Keyboard)
	}
	if f.Devices.Gamepad != nil {
		out.Devices.Gamepad = deviceToOutput(*f.Devices.Gamepad)
	}
	if f.Devices.Joystick != nil {
		out.Devices.Joystick = make(map[string]map[string]ControlOptionOutput, len(f.Devices.Joystick))
		for instance, device := range f.Devices.Joystick {
			out.Devices.Joystick[instance] = deviceToOutput(device)
		}
	}
	return out
}

func deviceToOutput(device DeviceInstanceSettings) map[string]ControlOptionOutput {
	options := make(map[string]ControlOptionOutput, len(device.Options))
	for name, settings := range device.Options {
		options[name] = ControlOptionOutput{
			Invert:    copyBool(settings.Invert),
			CurveMode: settings.CurveMode,
			Exponent:  copyFloat(settings.Exponent),
			Curve:     copyCurve(settings.Curve),
		}
	}
	return options
}

// The copy helpers keep every conversion a fresh tree: no output ever
// aliases slices or pointers of its input.

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	b := *v
	return &b
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func copyCurve(c *CurveData) *CurveData {
	if c == nil {
		return nil
	}
	points := make([]CurvePoint, len(c.Points))
	copy(points, c.Points)
	return &CurveData{Points: points}
}
