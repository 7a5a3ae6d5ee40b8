package controls

import (
	"sort"
	"strconv"

	"github.com/scjoymapper/scjoymapper/scjm/actionmaps"
)

// ToActionmaps converts a ControlsFile into the device options blocks
// to write into the game's file: keyboard, then gamepad, then joystick
// instances in numeric order. Only inversion is transferable - the
// game does not keep curve or exponent settings written to
// actionmaps.xml across restarts, so those fields are read here and
// deliberately dropped. Options left with nothing to say, and devices
// left with no options, are omitted entirely.
func ToActionmaps(f *ControlsFile) []actionmaps.DeviceOptions {
	result := make([]actionmaps.DeviceOptions, 0)

	if f.Devices.Keyboard != nil {
		if options := optionsToActionmaps(f.Devices.Keyboard.Options); len(options) > 0 {
			result = append(result, actionmaps.DeviceOptions{
				Type:     "keyboard",
				Instance: "1",
				Product:  f.Devices.Keyboard.Product,
				Options:  options,
			})
		}
	}
	if f.Devices.Gamepad != nil {
		if options := optionsToActionmaps(f.Devices.Gamepad.Options); len(options) > 0 {
			result = append(result, actionmaps.DeviceOptions{
				Type:     "gamepad",
				Instance: "1",
				Product:  f.Devices.Gamepad.Product,
				Options:  options,
			})
		}
	}
	for _, instance := range sortedInstances(f.Devices.Joystick) {
		device := f.Devices.Joystick[instance]
		if options := optionsToActionmaps(device.Options); len(options) > 0 {
			result = append(result, actionmaps.DeviceOptions{
				Type:     "joystick",
				Instance: instance,
				Product:  device.Product,
				Options:  options,
			})
		}
	}

	return result
}

// optionsToActionmaps builds option elements in sorted name order so
// generated output is deterministic run to run.
func optionsToActionmaps(options map[string]ControlOptionSettings) []actionmaps.ControlOption {
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]actionmaps.ControlOption, 0, len(options))
	for _, name := range names {
		settings := options[name]
		opt := actionmaps.ControlOption{Name: name}
		if settings.Invert != nil {
			value := "0"
			if *settings.Invert {
				value = "1"
			}
			opt.Attributes = append(opt.Attributes, actionmaps.Attribute{Key: "invert", Value: value})
		}
		// CurveMode, Exponent and Curve stop here by policy; see the
		// package comment.
		if len(opt.Attributes) == 0 && len(opt.CurvePoints) == 0 {
			continue
		}
		out = append(out, opt)
	}
	return out
}

// sortedInstances orders joystick instance ids numerically, falling
// back to lexical order for ids that are not plain numbers.
func sortedInstances(instances map[string]DeviceInstanceSettings) []string {
	keys := make([]string, 0, len(instances))
	for key := range instances {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}
