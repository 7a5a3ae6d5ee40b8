package actionmaps

import (
	"bytes"
	"errors"
	"strings"
)

// MergeControlOptions overlays desired device options onto the options
// already present in a parsed document. Matching is by device type and
// instance, then by option name. A desired attribute replaces the
// same-named existing attribute in place or is appended after the
// existing ones; attributes and curve points the desired side does not
// mention survive untouched, so game-written settings (deadzone,
// saturation, its own curves) are not lost on apply. Desired devices
// and options with no existing counterpart are appended. Existing
// entries keep their order; neither input is mutated.
func MergeControlOptions(existing, desired []DeviceOptions) []DeviceOptions {
	merged := make([]DeviceOptions, 0, len(existing)+len(desired))
	for _, device := range existing {
		merged = append(merged, copyDevice(device))
	}

	for _, want := range desired {
		idx := findDevice(merged, want.Type, want.Instance)
		if idx < 0 {
			merged = append(merged, copyDevice(want))
			continue
		}
		device := &merged[idx]
		if device.Product == "" {
			device.Product = want.Product
		}
		for _, opt := range want.Options {
			mergeOption(device, opt)
		}
	}
	return merged
}

func mergeOption(device *DeviceOptions, want ControlOption) {
	for i := range device.Options {
		if device.Options[i].Name != want.Name {
			continue
		}
		opt := &device.Options[i]
		for _, attr := range want.Attributes {
			opt.Attributes = setAttribute(opt.Attributes, attr)
		}
		if len(want.CurvePoints) > 0 {
			opt.CurvePoints = append([]CurvePoint(nil), want.CurvePoints...)
		}
		return
	}
	device.Options = append(device.Options, copyOption(want))
}

func setAttribute(attrs []Attribute, want Attribute) []Attribute {
	for i := range attrs {
		if attrs[i].Key == want.Key {
			attrs[i].Value = want.Value
			return attrs
		}
	}
	return append(attrs, want)
}

func findDevice(devices []DeviceOptions, deviceType, instance string) int {
	for i := range devices {
		if devices[i].Type == deviceType && devices[i].Instance == instance {
			return i
		}
	}
	return -1
}

func copyDevice(device DeviceOptions) DeviceOptions {
	out := device
	out.Options = make([]ControlOption, 0, len(device.Options))
	for _, opt := range device.Options {
		out.Options = append(out.Options, copyOption(opt))
	}
	return out
}

func copyOption(opt ControlOption) ControlOption {
	out := opt
	out.Attributes = append([]Attribute(nil), opt.Attributes...)
	out.CurvePoints = append([]CurvePoint(nil), opt.CurvePoints...)
	return out
}

// ApplyControlOptions rewrites a full vendor document so its options
// blocks carry the desired settings. Each existing top-level options
// element is replaced in place by its regenerated merged form; desired
// devices with no existing element are inserted after the last one.
// Everything outside the replaced byte ranges is preserved exactly.
// The document must already contain at least one options element to
// anchor insertions; a document without any is only accepted when
// there is nothing to apply.
func ApplyControlOptions(doc []byte, desired []DeviceOptions) ([]byte, error) {
	scan, err := scanOptions(doc)
	if err != nil {
		return nil, err
	}
	if len(scan.devices) == 0 {
		if len(desired) == 0 {
			return append([]byte(nil), doc...), nil
		}
		return nil, errors.New("no options elements found in document")
	}

	merged := MergeControlOptions(scan.devices, desired)

	var out bytes.Buffer
	var cursor int64
	for i, sp := range scan.spans {
		out.Write(doc[cursor:sp.start])
		out.WriteString(inlineOptionsXML(merged[i]))
		cursor = sp.end
	}
	// Devices with no element of their own go right after the last
	// existing block, each on its own line at the vendor's depth.
	for _, device := range merged[len(scan.spans):] {
		out.WriteString("\n  ")
		out.WriteString(inlineOptionsXML(device))
	}
	out.Write(doc[cursor:])
	return out.Bytes(), nil
}

// inlineOptionsXML strips the generated block's own leading indent and
// trailing newline so it drops into the document at the spot the old
// element occupied.
func inlineOptionsXML(device DeviceOptions) string {
	return strings.TrimSuffix(strings.TrimPrefix(GenerateOptionsXML(device), "  "), "\n")
}
